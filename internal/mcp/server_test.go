package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/dshills/snipnotes-mcp/internal/storage"
)

func newTestServer(t *testing.T, tools map[string]bool) *Server {
	t.Helper()

	store, err := storage.Open(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	srv, err := NewServer(store, Options{
		Logger:       zaptest.NewLogger(t),
		AuditWorkers: 2,
		Tools:        tools,
	})
	require.NoError(t, err)
	return srv
}

// call invokes a handler and decodes its JSON text result
func call(t *testing.T, h server.ToolHandlerFunc, args map[string]interface{}) (map[string]interface{}, error) {
	t.Helper()

	req := mcp.CallToolRequest{Params: mcp.CallToolParams{Arguments: args}}
	res, err := h(context.Background(), req)
	if err != nil {
		return nil, err
	}
	require.NotNil(t, res)
	require.NotEmpty(t, res.Content)
	text, ok := mcp.AsTextContent(res.Content[0])
	require.True(t, ok, "expected text content")

	var out map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(text.Text), &out))
	return out, nil
}

func requireCode(t *testing.T, err error, code int) {
	t.Helper()
	require.Error(t, err)
	var mcpErr *MCPError
	require.True(t, errors.As(err, &mcpErr), "expected MCPError, got %v", err)
	assert.Equal(t, code, mcpErr.Code, mcpErr.Message)
}

// openWorkspace opens a workspace rooted at a fresh temp dir and returns the root
func openWorkspace(t *testing.T, srv *Server, name string) string {
	t.Helper()
	root := t.TempDir()
	_, err := call(t, srv.handleOpenWorkspace, map[string]interface{}{"name": name, "path": root})
	require.NoError(t, err)
	return root
}

func writeFile(t *testing.T, root, rel, content string) string {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestNewServer_RegistersAllTools(t *testing.T) {
	srv := newTestServer(t, nil)

	assert.Equal(t, []string{
		ToolOpenWorkspace, ToolOpenFile, ToolCreateNote, ToolUpdateNote,
		ToolDeleteNote, ToolSetCategory, ToolGetNote, ToolListNotes,
		ToolNoteAtLine, ToolNotesTree, ToolCheckDrift, ToolAuditDrift,
		ToolDeleteFile, ToolGetStatus,
	}, srv.Tools())
}

func TestNewServer_Profile(t *testing.T) {
	srv := newTestServer(t, ResolveTools("tree"))
	assert.ElementsMatch(t, []string{ToolOpenWorkspace, ToolOpenFile, ToolNotesTree}, srv.Tools())
}

func TestNewServer_NoMatchingTools(t *testing.T) {
	store, err := storage.Open(t.TempDir())
	require.NoError(t, err)
	defer store.Close()

	_, err = NewServer(store, Options{Tools: map[string]bool{"index_codebase": true}})
	assert.Error(t, err)
}

func TestToolDefinitions(t *testing.T) {
	tools := []mcp.Tool{
		openWorkspaceTool(), openFileTool(), createNoteTool(), updateNoteTool(),
		deleteNoteTool(), setCategoryTool(), getNoteTool(), listNotesTool(),
		noteAtLineTool(), notesTreeTool(), checkDriftTool(), auditDriftTool(),
		deleteFileTool(), getStatusTool(),
	}

	seen := make(map[string]bool)
	for _, tool := range tools {
		assert.NotEmpty(t, tool.Description, tool.Name)
		assert.Equal(t, "object", tool.InputSchema.Type, tool.Name)
		for _, req := range tool.InputSchema.Required {
			assert.Contains(t, tool.InputSchema.Properties, req, "%s requires undeclared %s", tool.Name, req)
		}
		assert.False(t, seen[tool.Name], "duplicate tool %s", tool.Name)
		seen[tool.Name] = true
	}
}

func TestMCPError(t *testing.T) {
	err := newMCPError(ErrorCodeNotFound, "failed to get note", nil)
	assert.Equal(t, "MCP error -32002: failed to get note", err.Error())
}
