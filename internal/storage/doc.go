// Package storage provides SQLite-based persistence for workspaces, files
// and the notes anchored to them.
//
// # Database Schema
//
// Tables:
//   - workspaces: one row per workspace name (name and root path are unique)
//   - files: workspace-relative paths that have or had notes attached
//   - notes: note text, the code snapshot it was anchored to, and its range
//   - schema_version: applied migrations (semantic versions)
//
// Every mutating call commits before it returns, so a successful call is a
// saved call. Read-only calls never write.
//
// # Basic Usage
//
//	store, err := storage.Open("/var/lib/snipnotes")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer store.Close()
//
//	ws := &types.Workspace{Name: "api", Path: "/src/api"}
//	if err := store.CreateWorkspace(ctx, ws); err != nil {
//	    return err
//	}
//
//	file := &types.File{WorkspaceID: ws.ID, RelativePath: "cmd/api/main.go"}
//	if err := store.CreateFile(ctx, file); err != nil {
//	    return err
//	}
//
// # Lookups
//
// Lookups return ErrNotFound when nothing matches:
//
//	file, err := store.GetFile(ctx, ws.ID, "cmd/api/main.go")
//	if errors.Is(err, storage.ErrNotFound) {
//	    // not tracked yet
//	}
//
// # Rows and Domain Types
//
// The Storage interface speaks pkg/types. Internally each table has a row
// type (Workspace, File, Note) mapped explicitly to and from the domain type;
// values are validated whenever they cross that boundary, so a malformed row
// surfaces as an error instead of a half-filled struct.
//
// # Build Modes
//
// The pure Go driver (modernc.org/sqlite) is the default. Building with the
// sqlite_cgo tag switches to github.com/mattn/go-sqlite3.
package storage
