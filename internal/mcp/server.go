package mcp

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/dshills/snipnotes-mcp/internal/drift"
	"github.com/dshills/snipnotes-mcp/internal/notes"
	"github.com/dshills/snipnotes-mcp/internal/preview"
	"github.com/dshills/snipnotes-mcp/internal/resolver"
	"github.com/dshills/snipnotes-mcp/internal/session"
	"github.com/dshills/snipnotes-mcp/internal/storage"
)

const (
	// ServerName is the MCP server name
	ServerName = "snipnotes-mcp"
	// ServerVersion is the current server version
	ServerVersion = "1.0.0"
)

// Options configures NewServer. The zero value is usable.
type Options struct {
	Logger        *zap.Logger
	AuditWorkers  int
	SnapshotCache int
	// Tools limits the registered tools; nil registers all of them
	Tools map[string]bool
}

// Server wraps the MCP server with application dependencies
type Server struct {
	mcp      *server.MCPServer
	storage  storage.Storage
	resolver *resolver.Resolver
	notes    *notes.Repository
	session  *session.Session
	auditor  *drift.Auditor
	renderer *preview.Renderer
	logger   *zap.Logger

	registered []string
}

// NewServer creates a new MCP server instance on top of store. The caller
// keeps ownership of store and closes it after Serve returns.
func NewServer(store storage.Storage, opts Options) (*Server, error) {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	res := resolver.New(store, logger.Named("resolver"))
	repo := notes.New(store, logger.Named("notes"))
	sess, err := session.New(res, repo, logger.Named("session"), opts.SnapshotCache)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	// Create MCP server
	mcpServer := server.NewMCPServer(
		ServerName,
		ServerVersion,
		server.WithToolCapabilities(false),
	)

	s := &Server{
		mcp:      mcpServer,
		storage:  store,
		resolver: res,
		notes:    repo,
		session:  sess,
		auditor:  drift.NewAuditor(store, logger.Named("drift"), &drift.Config{Workers: opts.AuditWorkers}),
		renderer: preview.NewRenderer(),
		logger:   logger,
	}

	// Register tools
	if err := s.registerTools(opts.Tools); err != nil {
		return nil, fmt.Errorf("failed to register tools: %w", err)
	}

	return s, nil
}

// Serve runs the MCP server on stdio and blocks until ctx is cancelled or
// stdin is closed.
func (s *Server) Serve(ctx context.Context) error {
	return s.ServeIO(ctx, os.Stdin, os.Stdout)
}

// ServeIO is Serve over arbitrary streams
func (s *Server) ServeIO(ctx context.Context, in io.Reader, out io.Writer) error {
	stdio := server.NewStdioServer(s.mcp)
	stdio.SetErrorLogger(zap.NewStdLog(s.logger.Named("transport")))

	s.logger.Info("serving MCP on stdio", zap.Strings("tools", s.registered))
	return stdio.Listen(ctx, in, out)
}

// Tools returns the names of the registered tools in registration order
func (s *Server) Tools() []string {
	out := make([]string, len(s.registered))
	copy(out, s.registered)
	return out
}

// registerTools registers the MCP tools allowed by allowlist
func (s *Server) registerTools(allowlist map[string]bool) error {
	tools := []struct {
		tool    mcp.Tool
		handler server.ToolHandlerFunc
	}{
		{openWorkspaceTool(), s.handleOpenWorkspace},
		{openFileTool(), s.handleOpenFile},
		{createNoteTool(), s.handleCreateNote},
		{updateNoteTool(), s.handleUpdateNote},
		{deleteNoteTool(), s.handleDeleteNote},
		{setCategoryTool(), s.handleSetCategory},
		{getNoteTool(), s.handleGetNote},
		{listNotesTool(), s.handleListNotes},
		{noteAtLineTool(), s.handleNoteAtLine},
		{notesTreeTool(), s.handleNotesTree},
		{checkDriftTool(), s.handleCheckDrift},
		{auditDriftTool(), s.handleAuditDrift},
		{deleteFileTool(), s.handleDeleteFile},
		{getStatusTool(), s.handleGetStatus},
	}

	for _, t := range tools {
		if !shouldRegister(t.tool.Name, allowlist) {
			continue
		}
		s.mcp.AddTool(t.tool, t.handler)
		s.registered = append(s.registered, t.tool.Name)
	}

	if len(s.registered) == 0 {
		return fmt.Errorf("no tools match the allowlist")
	}
	return nil
}
