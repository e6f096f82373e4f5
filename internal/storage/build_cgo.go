//go:build sqlite_cgo && !purego
// +build sqlite_cgo,!purego

package storage

// Opt-in build against the C SQLite library:
//
//	CGO_ENABLED=1 go build -tags sqlite_cgo ./...

import (
	_ "github.com/mattn/go-sqlite3"
)

const (
	// DriverName is the database/sql driver registered by mattn/go-sqlite3
	DriverName = "sqlite3"

	// BuildMode is reported by --version and get_status
	BuildMode = "cgo"
)
