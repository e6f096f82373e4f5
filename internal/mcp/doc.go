// Package mcp implements the Model Context Protocol (MCP) server for Snip Notes.
//
// The server gives an editor host, or an assistant acting for one, the note
// operations of a workspace:
//   - open_workspace, open_file: set the context every other tool works in
//   - create_note, update_note, delete_note, set_category: change notes
//   - get_note, list_notes, note_at_line: read notes, with markdown rendered to HTML
//   - notes_tree: the directory/file/note hierarchy of the workspace
//   - check_drift, audit_drift: compare note anchors with the live code
//   - delete_file, get_status: housekeeping
//
// # Protocol Overview
//
// MCP is a JSON-RPC 2.0 protocol over stdio transport:
//
//	Client → Server: {"method": "tools/call", "params": {...}}
//	Server → Client: {"result": {...}}
//
// # Basic Usage
//
//	store, _ := storage.Open(dir)
//	srv, _ := mcp.NewServer(store, mcp.Options{Logger: logger})
//	err := srv.Serve(ctx)
//
// Tool results are indented JSON text. Failures are returned as MCPError
// values with these codes:
//
//	-32602  invalid parameters, validation failures, paths outside the workspace
//	-32603  storage or rendering failure
//	-32001  no workspace open
//	-32002  note or file not found
//	-32003  no active file, or the file is not tracked
//	-32004  a drift audit is already running
//
// # Tool: create_note
//
//	{
//	  "name": "create_note",
//	  "arguments": {
//	    "path": "/src/api/internal/server.go",
//	    "text": "<full document text>",
//	    "start_line": 12,
//	    "end_line": 14,
//	    "language_id": "go",
//	    "note_text": "close the listener on shutdown"
//	  }
//	}
//
// An empty note_text is treated as a cancelled prompt and writes nothing.
//
// # Tool Profiles
//
// SNIPNOTES_TOOLS limits the registered tools to a comma-separated list of
// profiles (notes, tree, drift, admin) and tool names. See ResolveTools.
package mcp
