package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"go.uber.org/zap"

	"github.com/dshills/snipnotes-mcp/internal/drift"
	"github.com/dshills/snipnotes-mcp/internal/hierarchy"
	"github.com/dshills/snipnotes-mcp/internal/notes"
	"github.com/dshills/snipnotes-mcp/internal/session"
	"github.com/dshills/snipnotes-mcp/internal/storage"
	"github.com/dshills/snipnotes-mcp/pkg/types"
)

// MCP error codes
const (
	ErrorCodeInvalidParams   = -32602 // Invalid method parameters
	ErrorCodeInternalError   = -32603 // Internal JSON-RPC error
	ErrorCodeNoWorkspace     = -32001 // open_workspace has not been called
	ErrorCodeNotFound        = -32002 // Note or file does not exist
	ErrorCodeNoFile          = -32003 // No active file, or the file is not tracked
	ErrorCodeAuditInProgress = -32004 // Another drift audit is already running
)

// handleOpenWorkspace handles the open_workspace tool invocation
func (s *Server) handleOpenWorkspace(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	name, err := requireString(args, "name")
	if err != nil {
		return nil, err
	}
	path, err := requireString(args, "path")
	if err != nil {
		return nil, err
	}

	res, openErr := s.session.OpenWorkspace(ctx, name, path)
	if openErr != nil {
		return nil, toMCPError(openErr, "failed to open workspace")
	}

	response := map[string]interface{}{
		"workspace":     workspaceJSON(res.Workspace),
		"root":          path,
		"path_mismatch": res.PathMismatch,
	}
	if warning := res.Warning(); warning != "" {
		response["warning"] = warning
	}

	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleOpenFile handles the open_file tool invocation
func (s *Server) handleOpenFile(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	path, err := requireString(args, "path")
	if err != nil {
		return nil, err
	}

	current, openErr := s.session.OpenFile(ctx, path, false)
	if openErr != nil {
		return nil, toMCPError(openErr, "failed to open file")
	}

	list, listErr := s.session.CurrentNotes(ctx)
	if listErr != nil {
		return nil, toMCPError(listErr, "failed to load notes")
	}

	response := map[string]interface{}{
		"file":  current,
		"notes": notesJSON(list),
		"count": len(list),
	}
	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleCreateNote handles the create_note tool invocation
func (s *Server) handleCreateNote(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	path, err := requireString(args, "path")
	if err != nil {
		return nil, err
	}
	text, ok := args["text"].(string)
	if !ok {
		return nil, invalidParam("text", "missing or not a string")
	}
	startLine, err := requireLine(args, "start_line")
	if err != nil {
		return nil, err
	}
	endLine, err := requireLine(args, "end_line")
	if err != nil {
		return nil, err
	}
	if endLine < startLine {
		return nil, invalidParam("end_line", "must not be before start_line")
	}

	// An empty note is the host's cancel; nothing is written, not even the file row.
	noteText := getStringDefault(args, "note_text", "")
	if noteText == "" {
		return mcp.NewToolResultText(formatJSON(map[string]interface{}{
			"created":   false,
			"cancelled": true,
		})), nil
	}

	lines := types.SplitLines(text)
	if rangeErr := notes.CheckRange(len(lines), startLine, endLine); rangeErr != nil {
		return nil, invalidParam("start_line", rangeErr.Error())
	}

	current, openErr := s.session.OpenFile(ctx, path, true)
	if openErr != nil {
		return nil, toMCPError(openErr, "failed to open file")
	}

	note, createErr := s.notes.Create(ctx, notes.CreateRequest{
		FileID:     current.FileID,
		Lines:      lines,
		StartLine:  startLine,
		EndLine:    endLine,
		LanguageID: getStringDefault(args, "language_id", ""),
		NoteText:   noteText,
	})
	if createErr != nil {
		return nil, toMCPError(createErr, "failed to create note")
	}
	s.session.Invalidate(current.FileID)

	response := map[string]interface{}{
		"created": true,
		"file":    current,
		"note":    noteJSON(note),
	}
	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleUpdateNote handles the update_note tool invocation
func (s *Server) handleUpdateNote(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	id, err := requireID(args)
	if err != nil {
		return nil, err
	}
	noteText, ok := args["note_text"].(string)
	if !ok {
		return nil, invalidParam("note_text", "missing or not a string")
	}

	note, getErr := s.notes.Get(ctx, id)
	if getErr != nil {
		return nil, toMCPError(getErr, "failed to get note")
	}
	previousFileID := note.FileID

	// Empty text leaves the note alone; nothing is resolved or written.
	if noteText == "" {
		return mcp.NewToolResultText(formatJSON(map[string]interface{}{
			"updated": false,
			"id":      id,
		})), nil
	}

	note.NoteText = noteText
	note.StartLine = getIntDefault(args, "start_line", note.StartLine)
	note.EndLine = getIntDefault(args, "end_line", note.EndLine)
	note.CodeText = getStringDefault(args, "code_text", note.CodeText)
	if languageID, ok := args["language_id"].(string); ok {
		note.LanguageID = notes.MapLanguageID(languageID)
	}

	if validErr := note.Validate(); validErr != nil {
		return nil, toMCPError(validErr, "invalid note")
	}

	if path := getStringDefault(args, "path", ""); path != "" {
		fileID, resolveErr := s.trackFile(ctx, path)
		if resolveErr != nil {
			return nil, toMCPError(resolveErr, "failed to resolve file")
		}
		note.FileID = fileID
	}

	updated, updateErr := s.notes.Update(ctx, note)
	if updateErr != nil {
		return nil, toMCPError(updateErr, "failed to update note")
	}

	response := map[string]interface{}{
		"updated": updated,
		"id":      id,
	}
	if updated {
		s.session.Invalidate(previousFileID)
		s.session.Invalidate(note.FileID)
		response["note"] = noteJSON(note)
	}
	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleDeleteNote handles the delete_note tool invocation
func (s *Server) handleDeleteNote(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	id, err := requireID(args)
	if err != nil {
		return nil, err
	}

	note, getErr := s.notes.Get(ctx, id)
	if getErr != nil {
		return nil, toMCPError(getErr, "failed to get note")
	}
	if delErr := s.notes.Delete(ctx, id); delErr != nil {
		return nil, toMCPError(delErr, "failed to delete note")
	}
	s.session.Invalidate(note.FileID)

	response := map[string]interface{}{
		"deleted": true,
		"id":      id,
	}
	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleSetCategory handles the set_category tool invocation
func (s *Server) handleSetCategory(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	id, err := requireID(args)
	if err != nil {
		return nil, err
	}
	category, ok := args["category"].(string)
	if !ok {
		return nil, invalidParam("category", "missing or not a string")
	}

	if setErr := s.notes.UpdateCategory(ctx, id, category); setErr != nil {
		return nil, toMCPError(setErr, "failed to set category")
	}

	note, getErr := s.notes.Get(ctx, id)
	if getErr != nil {
		return nil, toMCPError(getErr, "failed to get note")
	}
	s.session.Invalidate(note.FileID)

	response := map[string]interface{}{
		"id":       id,
		"category": string(note.Category),
		"label":    hierarchy.NoteLabel(note),
	}
	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleGetNote handles the get_note tool invocation
func (s *Server) handleGetNote(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	id, err := requireID(args)
	if err != nil {
		return nil, err
	}

	note, getErr := s.notes.Get(ctx, id)
	if getErr != nil {
		return nil, toMCPError(getErr, "failed to get note")
	}

	html, renderErr := s.renderer.Render(note.NoteText)
	if renderErr != nil {
		return nil, toMCPError(renderErr, "failed to render note")
	}

	response := map[string]interface{}{
		"note": noteJSON(note),
		"html": html,
	}
	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleListNotes handles the list_notes tool invocation
func (s *Server) handleListNotes(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, _ := request.Params.Arguments.(map[string]interface{})

	if s.session.Workspace() == nil {
		return nil, toMCPError(session.ErrNoWorkspace, "no workspace open")
	}
	current := s.session.CurrentFile()
	if current == nil {
		return nil, newMCPError(ErrorCodeNoFile, "no file open", map[string]interface{}{
			"hint": "call open_file first",
		})
	}

	var list []*types.Note
	var err error
	if getBoolDefault(args, "refresh", false) {
		list, err = s.session.Refresh(ctx)
	} else {
		list, err = s.session.CurrentNotes(ctx)
	}
	if err != nil {
		return nil, toMCPError(err, "failed to list notes")
	}

	response := map[string]interface{}{
		"file":  current,
		"notes": notesJSON(list),
		"count": len(list),
	}
	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleNoteAtLine handles the note_at_line tool invocation
func (s *Server) handleNoteAtLine(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	line, err := requireLine(args, "line")
	if err != nil {
		return nil, err
	}

	if path := getStringDefault(args, "path", ""); path != "" {
		if _, openErr := s.session.OpenFile(ctx, path, false); openErr != nil {
			return nil, toMCPError(openErr, "failed to open file")
		}
	}

	current := s.session.CurrentFile()
	if current == nil {
		if s.session.Workspace() == nil {
			return nil, toMCPError(session.ErrNoWorkspace, "no workspace open")
		}
		return nil, newMCPError(ErrorCodeNoFile, "no file open", map[string]interface{}{
			"hint": "call open_file first or pass path",
		})
	}

	response := map[string]interface{}{
		"found": false,
		"line":  line,
	}
	if !current.Tracked {
		return mcp.NewToolResultText(formatJSON(response)), nil
	}

	note, findErr := s.notes.NoteAtLine(ctx, current.FileID, line)
	if findErr != nil {
		return nil, toMCPError(findErr, "failed to look up note")
	}
	if note == nil {
		return mcp.NewToolResultText(formatJSON(response)), nil
	}

	html, renderErr := s.renderer.Render(note.NoteText)
	if renderErr != nil {
		return nil, toMCPError(renderErr, "failed to render note")
	}

	response["found"] = true
	response["note"] = noteJSON(note)
	response["html"] = html
	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleNotesTree handles the notes_tree tool invocation
func (s *Server) handleNotesTree(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, _ := request.Params.Arguments.(map[string]interface{})

	ws := s.session.Workspace()
	if ws == nil {
		return nil, toMCPError(session.ErrNoWorkspace, "no workspace open")
	}

	files, err := s.notes.ListFilesWithNotes(ctx, ws.ID)
	if err != nil {
		return nil, toMCPError(err, "failed to list files")
	}

	tree, err := hierarchy.Build(ctx, files, s.storage)
	if err != nil {
		return nil, toMCPError(err, "failed to build notes tree")
	}
	compress := getBoolDefault(args, "compress", true)
	if compress {
		tree = hierarchy.Compress(tree)
	}
	if tree == nil {
		tree = []*hierarchy.Node{}
	}

	response := map[string]interface{}{
		"workspace":  ws.Name,
		"compressed": compress,
		"tree":       tree,
	}
	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleCheckDrift handles the check_drift tool invocation
func (s *Server) handleCheckDrift(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	id, err := requireID(args)
	if err != nil {
		return nil, err
	}
	text, ok := args["text"].(string)
	if !ok {
		return nil, invalidParam("text", "missing or not a string")
	}

	note, getErr := s.notes.Get(ctx, id)
	if getErr != nil {
		return nil, toMCPError(getErr, "failed to get note")
	}

	result := drift.Check(note, text)
	if result.Status == drift.StatusMoved {
		s.logger.Warn("note anchor moved",
			zap.Int64("note_id", note.ID),
			zap.Int64("file_id", note.FileID),
			zap.Int("start_line", note.StartLine))
	}
	response := map[string]interface{}{
		"id":     id,
		"title":  note.Title,
		"status": result.Status,
	}
	if result.Position != nil {
		response["position"] = result.Position
	}
	if result.Message != "" {
		response["message"] = result.Message
	}
	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleAuditDrift handles the audit_drift tool invocation
func (s *Server) handleAuditDrift(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ws := s.session.Workspace()
	if ws == nil {
		return nil, toMCPError(session.ErrNoWorkspace, "no workspace open")
	}
	// Files are read from where the workspace lives now, not where it was first seen.
	ws.Path = s.session.Root()

	report, err := s.auditor.Audit(ctx, ws)
	if err != nil {
		return nil, toMCPError(err, "drift audit failed")
	}

	response := map[string]interface{}{
		"files_checked": report.FilesChecked,
		"notes_checked": report.NotesChecked,
		"notes_moved":   report.NotesMoved,
		"missing_files": report.MissingFiles,
		"results":       report.Results,
		"duration_ms":   report.Duration.Milliseconds(),
	}

	if len(report.ErrorMessages) > 0 {
		errorCount := len(report.ErrorMessages)
		if errorCount > 5 {
			response["errors"] = report.ErrorMessages[:5]
			response["error_count"] = errorCount
		} else {
			response["errors"] = report.ErrorMessages
		}
	}

	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleDeleteFile handles the delete_file tool invocation
func (s *Server) handleDeleteFile(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	path, err := requireString(args, "path")
	if err != nil {
		return nil, err
	}

	ws := s.session.Workspace()
	if ws == nil {
		return nil, toMCPError(session.ErrNoWorkspace, "no workspace open")
	}
	rel, relErr := s.session.RelativePath(path)
	if relErr != nil {
		return nil, toMCPError(relErr, "invalid path")
	}

	fileID, found, resolveErr := s.resolver.ResolveFile(ctx, rel, ws.ID, false)
	if resolveErr != nil {
		return nil, toMCPError(resolveErr, "failed to resolve file")
	}
	if !found {
		return nil, newMCPError(ErrorCodeNoFile, "file is not tracked", map[string]interface{}{
			"relative_path": rel,
		})
	}

	if delErr := s.notes.DeleteFile(ctx, fileID); delErr != nil {
		return nil, toMCPError(delErr, "failed to delete file")
	}
	s.session.FileDeleted(fileID)

	response := map[string]interface{}{
		"deleted":       true,
		"file_id":       fileID,
		"relative_path": rel,
	}
	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleGetStatus handles the get_status tool invocation
func (s *Server) handleGetStatus(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ws := s.session.Workspace()
	if ws == nil {
		return nil, toMCPError(session.ErrNoWorkspace, "no workspace open")
	}

	status, err := s.storage.GetStatus(ctx, ws.ID)
	if err != nil {
		return nil, toMCPError(err, "failed to get status")
	}

	categories := make(map[string]int, len(status.CategoryCounts))
	for c, n := range status.CategoryCounts {
		if c == types.CategoryNone {
			categories["none"] = n
			continue
		}
		categories[string(c)] = n
	}

	response := map[string]interface{}{
		"workspace":        workspaceJSON(status.Workspace),
		"root":             s.session.Root(),
		"files_count":      status.FilesCount,
		"files_with_notes": status.FilesWithNotes,
		"notes_count":      status.NotesCount,
		"categories":       categories,
		"database_size_mb": status.DatabaseSizeMB,
		"build_mode":       storage.BuildMode,
		"server_version":   ServerVersion,
	}
	if current := s.session.CurrentFile(); current != nil {
		response["current_file"] = current
	}
	return mcp.NewToolResultText(formatJSON(response)), nil
}

// trackFile resolves path to a file row of the open workspace, creating it
// when needed, without changing the active file.
func (s *Server) trackFile(ctx context.Context, path string) (int64, error) {
	ws := s.session.Workspace()
	if ws == nil {
		return 0, session.ErrNoWorkspace
	}
	rel, err := s.session.RelativePath(path)
	if err != nil {
		return 0, err
	}
	id, _, err := s.resolver.ResolveFile(ctx, rel, ws.ID, true)
	return id, err
}

func workspaceJSON(ws *types.Workspace) map[string]interface{} {
	return map[string]interface{}{
		"id":   ws.ID,
		"name": ws.Name,
		"path": ws.Path,
	}
}

func noteJSON(n *types.Note) map[string]interface{} {
	return map[string]interface{}{
		"id":           n.ID,
		"title":        n.Title,
		"note_text":    n.NoteText,
		"code_text":    n.CodeText,
		"start_line":   n.StartLine,
		"end_line":     n.EndLine,
		"language_id":  n.LanguageID,
		"category":     string(n.Category),
		"file_id":      n.FileID,
		"created_date": n.CreatedDate.UTC().Format(time.RFC3339Nano),
	}
}

func notesJSON(list []*types.Note) []map[string]interface{} {
	out := make([]map[string]interface{}, len(list))
	for i, n := range list {
		out[i] = noteJSON(n)
	}
	return out
}

// MCPError represents an MCP protocol error
type MCPError struct {
	Code    int                    `json:"code"`
	Message string                 `json:"message"`
	Data    map[string]interface{} `json:"data,omitempty"`
}

// newMCPError creates a new MCP error
func newMCPError(code int, message string, data map[string]interface{}) *MCPError {
	return &MCPError{
		Code:    code,
		Message: message,
		Data:    data,
	}
}

func (e *MCPError) Error() string {
	return fmt.Sprintf("MCP error %d: %s", e.Code, e.Message)
}

func invalidParam(param, reason string) *MCPError {
	return newMCPError(ErrorCodeInvalidParams, fmt.Sprintf("%s parameter is invalid", param), map[string]interface{}{
		"param":  param,
		"reason": reason,
	})
}

// toMCPError maps a domain error to its protocol code
func toMCPError(err error, message string) *MCPError {
	code := ErrorCodeInternalError
	switch {
	case errors.Is(err, session.ErrNoWorkspace):
		code = ErrorCodeNoWorkspace
	case errors.Is(err, storage.ErrNotFound):
		code = ErrorCodeNotFound
	case errors.Is(err, drift.ErrAuditInProgress):
		code = ErrorCodeAuditInProgress
	case errors.Is(err, types.ErrValidation),
		errors.Is(err, types.ErrInvalidCategory),
		errors.Is(err, session.ErrOutsideWorkspace),
		errors.Is(err, storage.ErrAlreadyExists),
		errors.Is(err, notes.ErrCancelled):
		code = ErrorCodeInvalidParams
	}
	return newMCPError(code, message, map[string]interface{}{
		"error": err.Error(),
	})
}

// formatJSON formats a map as indented JSON
func formatJSON(data map[string]interface{}) string {
	bytes, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Sprintf("%v", data)
	}
	return string(bytes)
}

// requireString extracts a non-empty string parameter
func requireString(args map[string]interface{}, key string) (string, error) {
	val, ok := args[key].(string)
	if !ok || val == "" {
		return "", newMCPError(ErrorCodeInvalidParams, fmt.Sprintf("%s parameter is required", key), map[string]interface{}{
			"param":  key,
			"reason": "missing or empty",
		})
	}
	return val, nil
}

// requireLine extracts a non-negative integer parameter
func requireLine(args map[string]interface{}, key string) (int, error) {
	if _, present := args[key]; !present {
		return 0, invalidParam(key, "missing")
	}
	line := getIntDefault(args, key, -1)
	if line < 0 {
		return 0, invalidParam(key, "must be a non-negative integer")
	}
	return line, nil
}

func requireID(args map[string]interface{}) (int64, error) {
	id := getIntDefault(args, "id", 0)
	if id <= 0 {
		return 0, invalidParam("id", "must be a positive integer")
	}
	return int64(id), nil
}

// getBoolDefault extracts a boolean parameter with a default value
func getBoolDefault(args map[string]interface{}, key string, defaultValue bool) bool {
	if val, ok := args[key].(bool); ok {
		return val
	}
	return defaultValue
}

// getIntDefault extracts an integer parameter with a default value
func getIntDefault(args map[string]interface{}, key string, defaultValue int) int {
	if val, ok := args[key].(float64); ok {
		return int(val)
	}
	if val, ok := args[key].(int); ok {
		return val
	}
	return defaultValue
}

// getStringDefault extracts a string parameter with a default value
func getStringDefault(args map[string]interface{}, key string, defaultValue string) string {
	if val, ok := args[key].(string); ok {
		return val
	}
	return defaultValue
}
