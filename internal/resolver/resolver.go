// Package resolver finds or creates the workspace and file rows that notes
// hang off.
package resolver

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/dshills/snipnotes-mcp/internal/storage"
	"github.com/dshills/snipnotes-mcp/pkg/types"
)

// ErrResolveFailed is returned when a row cannot be found right after it was
// inserted.
var ErrResolveFailed = errors.New("resolve failed")

// Store is the subset of storage.Storage the resolver needs
type Store interface {
	CreateWorkspace(ctx context.Context, ws *types.Workspace) error
	GetWorkspaceByName(ctx context.Context, name string) (*types.Workspace, error)
	CreateFile(ctx context.Context, file *types.File) error
	GetFile(ctx context.Context, workspaceID int64, relativePath string) (*types.File, error)
}

// Resolver maps workspace names and relative paths to stored ids
type Resolver struct {
	store  Store
	logger *zap.Logger
}

// New creates a resolver. A nil logger discards output.
func New(store Store, logger *zap.Logger) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{store: store, logger: logger}
}

// WorkspaceResolution is the outcome of ResolveWorkspace
type WorkspaceResolution struct {
	Workspace *types.Workspace
	// RequestedPath is the path the caller supplied
	RequestedPath string
	// PathMismatch is set when the stored path differs from RequestedPath.
	// The stored path is kept.
	PathMismatch bool
}

// Warning returns the user-facing notice for a path mismatch, or "".
func (r *WorkspaceResolution) Warning() string {
	if !r.PathMismatch {
		return ""
	}
	return fmt.Sprintf("Seems like you have worked on workspace: %q but at a different path location. "+
		"If it's a different workspace with the same name, be careful with notes conflicts!", r.Workspace.Name)
}

// ResolveWorkspace looks a workspace up by name and inserts it when absent.
// A known name arriving from a different path is a warning, not an error.
func (r *Resolver) ResolveWorkspace(ctx context.Context, name, path string) (*WorkspaceResolution, error) {
	ws, err := r.store.GetWorkspaceByName(ctx, name)
	if errors.Is(err, storage.ErrNotFound) {
		if err := r.store.CreateWorkspace(ctx, &types.Workspace{Name: name, Path: path}); err != nil {
			return nil, fmt.Errorf("failed to create workspace %q: %w", name, err)
		}
		r.logger.Info("workspace registered", zap.String("name", name), zap.String("path", path))

		ws, err = r.store.GetWorkspaceByName(ctx, name)
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("workspace %q: %w", name, ErrResolveFailed)
		}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up workspace %q: %w", name, err)
	}

	res := &WorkspaceResolution{Workspace: ws, RequestedPath: path}
	if ws.Path != path {
		res.PathMismatch = true
		r.logger.Warn("workspace name reused from a different path",
			zap.String("name", name),
			zap.String("stored_path", ws.Path),
			zap.String("requested_path", path))
	}
	return res, nil
}

// ResolveFile returns the id of the file row for relativePath in the
// workspace. When the file is not tracked, found is false; with
// createIfMissing the row is inserted and looked up once more.
func (r *Resolver) ResolveFile(ctx context.Context, relativePath string, workspaceID int64, createIfMissing bool) (id int64, found bool, err error) {
	file, err := r.store.GetFile(ctx, workspaceID, relativePath)
	if err == nil {
		return file.ID, true, nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return 0, false, fmt.Errorf("failed to look up file %q: %w", relativePath, err)
	}
	if !createIfMissing {
		return 0, false, nil
	}

	if err := r.store.CreateFile(ctx, &types.File{RelativePath: relativePath, WorkspaceID: workspaceID}); err != nil {
		return 0, false, fmt.Errorf("failed to create file %q: %w", relativePath, err)
	}
	r.logger.Debug("file tracked", zap.String("path", relativePath), zap.Int64("workspace_id", workspaceID))

	file, err = r.store.GetFile(ctx, workspaceID, relativePath)
	if errors.Is(err, storage.ErrNotFound) {
		return 0, false, fmt.Errorf("file %q: %w", relativePath, ErrResolveFailed)
	}
	if err != nil {
		return 0, false, fmt.Errorf("failed to look up file %q: %w", relativePath, err)
	}
	return file.ID, true, nil
}
