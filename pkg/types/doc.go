// Package types provides shared domain types for the snipnotes MCP server.
//
// The model is a three level ownership chain:
//
//	Workspace (unique name) -> File (workspace-relative path) -> Note (line range)
//
// # Notes
//
// A Note anchors free text to the inclusive, 0-based line range
// [StartLine, EndLine] of a file and keeps a verbatim snapshot of those lines
// in CodeText. The snapshot is never re-synced; it is the baseline used by
// drift detection:
//
//	note := &types.Note{
//	    NoteText:  "check the retry budget here",
//	    CodeText:  "for i := 0; i < maxRetries; i++ {",
//	    StartLine: 41,
//	    EndLine:   41,
//	    FileID:    7,
//	}
//	note.Title = types.DeriveTitle(note.NoteText)
//
// # Categories
//
// Category is one of "", "note", "todo" or "fix". The empty category is the
// default for new notes.
//
// # Validation
//
// Values are validated whenever they cross the storage boundary:
//
//	if err := note.Validate(); err != nil {
//	    var verr *types.ValidationError
//	    errors.As(err, &verr) // verr.Field names the offending field
//	}
package types
