//go:build purego || !sqlite_cgo
// +build purego !sqlite_cgo

package storage

// Default build: modernc.org/sqlite, no C toolchain needed.
//
//	CGO_ENABLED=0 go build ./...

import (
	_ "modernc.org/sqlite"
)

const (
	// DriverName is the database/sql driver registered by modernc.org/sqlite
	DriverName = "sqlite"

	// BuildMode is reported by --version and get_status
	BuildMode = "purego"
)
