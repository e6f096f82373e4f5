package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"
)

func prop(typ, description string) map[string]interface{} {
	return map[string]interface{}{
		"type":        typ,
		"description": description,
	}
}

func lineProp(description string) map[string]interface{} {
	p := prop("integer", description)
	p["minimum"] = 0
	return p
}

// openWorkspaceTool returns the tool definition for open_workspace
func openWorkspaceTool() mcp.Tool {
	return mcp.Tool{
		Name:        ToolOpenWorkspace,
		Description: "Open a workspace by name, registering it on first use. A known name opened from a different path keeps its stored path and returns a warning.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"name": prop("string", "Workspace name (unique key)"),
				"path": prop("string", "Absolute path of the workspace root"),
			},
			Required: []string{"name", "path"},
		},
	}
}

// openFileTool returns the tool definition for open_file
func openFileTool() mcp.Tool {
	return mcp.Tool{
		Name:        ToolOpenFile,
		Description: "Make a file the active file and return its notes. Files without notes are not tracked and return an empty list.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"path": prop("string", "Absolute path under the workspace root, or a workspace-relative path"),
			},
			Required: []string{"path"},
		},
	}
}

// createNoteTool returns the tool definition for create_note
func createNoteTool() mcp.Tool {
	return mcp.Tool{
		Name:        ToolCreateNote,
		Description: "Attach a note to a line range of a file. The code of the range is captured from the supplied document text. Empty note text cancels without writing.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"path":        prop("string", "File the selection belongs to"),
				"text":        prop("string", "Full current text of the document"),
				"start_line":  lineProp("First selected line (0-based)"),
				"end_line":    lineProp("Last selected line (0-based, inclusive)"),
				"language_id": prop("string", "Editor language id of the document"),
				"note_text":   prop("string", "The note (markdown)"),
			},
			Required: []string{"path", "text", "start_line", "end_line", "note_text"},
		},
	}
}

// updateNoteTool returns the tool definition for update_note
func updateNoteTool() mcp.Tool {
	return mcp.Tool{
		Name:        ToolUpdateNote,
		Description: "Replace a note's text, and optionally its code snapshot, range, language or file. The title is re-derived; category and creation date are kept. Empty note text changes nothing.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"id":          prop("integer", "Note id"),
				"note_text":   prop("string", "New note text"),
				"code_text":   prop("string", "New code snapshot"),
				"start_line":  lineProp("New first line (0-based)"),
				"end_line":    lineProp("New last line (0-based, inclusive)"),
				"language_id": prop("string", "New editor language id"),
				"path":        prop("string", "Move the note to this file"),
			},
			Required: []string{"id", "note_text"},
		},
	}
}

// deleteNoteTool returns the tool definition for delete_note
func deleteNoteTool() mcp.Tool {
	return mcp.Tool{
		Name:        ToolDeleteNote,
		Description: "Delete a note by id",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"id": prop("integer", "Note id"),
			},
			Required: []string{"id"},
		},
	}
}

// setCategoryTool returns the tool definition for set_category
func setCategoryTool() mcp.Tool {
	return mcp.Tool{
		Name:        ToolSetCategory,
		Description: "Set the category of a note",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"id": prop("integer", "Note id"),
				"category": map[string]interface{}{
					"type":        "string",
					"description": "Category; empty clears it",
					"enum":        []string{"", "note", "todo", "fix"},
				},
			},
			Required: []string{"id", "category"},
		},
	}
}

// getNoteTool returns the tool definition for get_note
func getNoteTool() mcp.Tool {
	return mcp.Tool{
		Name:        ToolGetNote,
		Description: "Get a note by id, with its text rendered to HTML",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"id": prop("integer", "Note id"),
			},
			Required: []string{"id"},
		},
	}
}

// listNotesTool returns the tool definition for list_notes
func listNotesTool() mcp.Tool {
	return mcp.Tool{
		Name:        ToolListNotes,
		Description: "List the notes of the active file in creation order",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"refresh": map[string]interface{}{
					"type":        "boolean",
					"description": "Reload from the database instead of the cached snapshot",
					"default":     false,
				},
			},
		},
	}
}

// noteAtLineTool returns the tool definition for note_at_line
func noteAtLineTool() mcp.Tool {
	return mcp.Tool{
		Name:        ToolNoteAtLine,
		Description: "Hover lookup: the note of the active file whose range covers a line. Overlapping notes resolve to the earliest created.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"line": lineProp("Line to look up (0-based)"),
				"path": prop("string", "Open this file first"),
			},
			Required: []string{"line"},
		},
	}
}

// notesTreeTool returns the tool definition for notes_tree
func notesTreeTool() mcp.Tool {
	return mcp.Tool{
		Name:        ToolNotesTree,
		Description: "Notes of the open workspace grouped by directory and file",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"compress": map[string]interface{}{
					"type":        "boolean",
					"description": "Merge chains of single-child directories (a/b/c)",
					"default":     true,
				},
			},
		},
	}
}

// checkDriftTool returns the tool definition for check_drift
func checkDriftTool() mcp.Tool {
	return mcp.Tool{
		Name:        ToolCheckDrift,
		Description: "Check whether a note's first code line still matches the live document. Returns the end-of-range position when it does.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"id":   prop("integer", "Note id"),
				"text": prop("string", "Full current text of the note's document"),
			},
			Required: []string{"id", "text"},
		},
	}
}

// auditDriftTool returns the tool definition for audit_drift
func auditDriftTool() mcp.Tool {
	return mcp.Tool{
		Name:        ToolAuditDrift,
		Description: "Check every note of the open workspace against the files on disk",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}
}

// deleteFileTool returns the tool definition for delete_file
func deleteFileTool() mcp.Tool {
	return mcp.Tool{
		Name:        ToolDeleteFile,
		Description: "Stop tracking a file and delete all of its notes",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"path": prop("string", "Tracked file"),
			},
			Required: []string{"path"},
		},
	}
}

// getStatusTool returns the tool definition for get_status
func getStatusTool() mcp.Tool {
	return mcp.Tool{
		Name:        ToolGetStatus,
		Description: "Counts of files and notes stored for the open workspace",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}
}
