package mcp

import "strings"

// Tool names
const (
	ToolOpenWorkspace = "open_workspace"
	ToolOpenFile      = "open_file"
	ToolCreateNote    = "create_note"
	ToolUpdateNote    = "update_note"
	ToolDeleteNote    = "delete_note"
	ToolSetCategory   = "set_category"
	ToolGetNote       = "get_note"
	ToolListNotes     = "list_notes"
	ToolNoteAtLine    = "note_at_line"
	ToolNotesTree     = "notes_tree"
	ToolCheckDrift    = "check_drift"
	ToolAuditDrift    = "audit_drift"
	ToolDeleteFile    = "delete_file"
	ToolGetStatus     = "get_status"
)

// Profiles maps profile names to their tool sets. Every profile includes
// the two context tools, since nothing else works without them.
var Profiles = map[string]map[string]bool{
	"notes": {
		ToolOpenWorkspace: true,
		ToolOpenFile:      true,
		ToolCreateNote:    true,
		ToolUpdateNote:    true,
		ToolDeleteNote:    true,
		ToolSetCategory:   true,
		ToolGetNote:       true,
		ToolListNotes:     true,
		ToolNoteAtLine:    true,
	},
	"tree": {
		ToolOpenWorkspace: true,
		ToolOpenFile:      true,
		ToolNotesTree:     true,
	},
	"drift": {
		ToolOpenWorkspace: true,
		ToolOpenFile:      true,
		ToolCheckDrift:    true,
		ToolAuditDrift:    true,
	},
	"admin": {
		ToolOpenWorkspace: true,
		ToolOpenFile:      true,
		ToolDeleteFile:    true,
		ToolGetStatus:     true,
	},
}

// ResolveTools takes a comma-separated string of profile names and/or
// individual tool names and returns the set of tool names to register.
// An empty input or "all" means every tool (nil).
func ResolveTools(input string) map[string]bool {
	input = strings.TrimSpace(input)
	if input == "" || input == "all" {
		return nil
	}

	result := make(map[string]bool)
	for _, token := range strings.Split(input, ",") {
		token = strings.TrimSpace(token)
		if token == "" {
			continue
		}
		if token == "all" {
			return nil
		}
		if profile, ok := Profiles[token]; ok {
			for tool := range profile {
				result[tool] = true
			}
		} else {
			result[token] = true
		}
	}

	if len(result) == 0 {
		return nil
	}
	return result
}

// shouldRegister reports whether name is allowed; a nil allowlist allows all
func shouldRegister(name string, allowlist map[string]bool) bool {
	if allowlist == nil {
		return true
	}
	return allowlist[name]
}
