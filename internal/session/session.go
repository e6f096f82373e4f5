// Package session tracks the open workspace, the active file and the notes
// snapshot of that file on behalf of the host.
package session

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"

	"github.com/dshills/snipnotes-mcp/internal/notes"
	"github.com/dshills/snipnotes-mcp/internal/resolver"
	"github.com/dshills/snipnotes-mcp/pkg/types"
)

var (
	// ErrNoWorkspace is returned by file operations before OpenWorkspace
	ErrNoWorkspace = errors.New("no workspace open")
	// ErrOutsideWorkspace is returned for paths that escape the workspace root
	ErrOutsideWorkspace = errors.New("path is outside the workspace")
)

// DefaultSnapshotCacheSize is used when New gets a size below 1
const DefaultSnapshotCacheSize = 32

// CurrentFile describes the active file
type CurrentFile struct {
	FileID       int64  `json:"file_id,omitempty"`
	RelativePath string `json:"relative_path"`
	// Tracked is false for files that have no row yet
	Tracked bool `json:"tracked"`
}

// Session holds the host's file context. It is safe for concurrent use.
type Session struct {
	resolver *resolver.Resolver
	notes    *notes.Repository
	logger   *zap.Logger

	mu        sync.Mutex
	workspace *types.Workspace
	root      string // where the workspace lives on disk right now
	current   *CurrentFile
	snapshots *lru.Cache[int64, []*types.Note]
}

// New creates a session keeping up to cacheSize notes snapshots
func New(res *resolver.Resolver, repo *notes.Repository, logger *zap.Logger, cacheSize int) (*Session, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cacheSize < 1 {
		cacheSize = DefaultSnapshotCacheSize
	}
	cache, err := lru.New[int64, []*types.Note](cacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create snapshot cache: %w", err)
	}
	return &Session{resolver: res, notes: repo, logger: logger, snapshots: cache}, nil
}

// OpenWorkspace resolves the workspace and makes it current. Any active file
// and cached snapshots are dropped.
func (s *Session) OpenWorkspace(ctx context.Context, name, path string) (*resolver.WorkspaceResolution, error) {
	res, err := s.resolver.ResolveWorkspace(ctx, name, path)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.workspace = res.Workspace
	s.root = path
	s.current = nil
	s.snapshots.Purge()

	s.logger.Debug("workspace opened", zap.String("name", name), zap.Int64("workspace_id", res.Workspace.ID))
	return res, nil
}

// Workspace returns the open workspace, or nil
func (s *Session) Workspace() *types.Workspace {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.workspace == nil {
		return nil
	}
	ws := *s.workspace
	return &ws
}

// Root returns the on-disk root supplied to OpenWorkspace. It differs from
// Workspace().Path when the workspace was opened from a new location.
func (s *Session) Root() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.root
}

// RelativePath converts path to the canonical "/"-separated form relative to
// the workspace root. Relative input is cleaned and kept relative.
func (s *Session) RelativePath(path string) (string, error) {
	s.mu.Lock()
	root := s.root
	open := s.workspace != nil
	s.mu.Unlock()

	if !open {
		return "", ErrNoWorkspace
	}
	return relativeTo(root, path)
}

func relativeTo(root, path string) (string, error) {
	if path == "" {
		return "", fmt.Errorf("%w: empty path", ErrOutsideWorkspace)
	}

	rel := filepath.Clean(path)
	if filepath.IsAbs(path) {
		var err error
		rel, err = filepath.Rel(root, path)
		if err != nil {
			return "", fmt.Errorf("%w: %s", ErrOutsideWorkspace, path)
		}
	}

	rel = filepath.ToSlash(rel)
	if rel == "." || rel == ".." || strings.HasPrefix(rel, "../") {
		return "", fmt.Errorf("%w: %s", ErrOutsideWorkspace, path)
	}
	return rel, nil
}

// OpenFile makes path the active file. With create, an untracked file gets a
// row; without it an untracked file becomes current with no notes.
func (s *Session) OpenFile(ctx context.Context, path string, create bool) (*CurrentFile, error) {
	ws := s.Workspace()
	if ws == nil {
		return nil, ErrNoWorkspace
	}
	rel, err := s.RelativePath(path)
	if err != nil {
		return nil, err
	}

	id, found, err := s.resolver.ResolveFile(ctx, rel, ws.ID, create)
	if err != nil {
		return nil, err
	}

	current := &CurrentFile{RelativePath: rel}
	if found {
		current.FileID = id
		current.Tracked = true
	}

	s.mu.Lock()
	s.current = current
	s.mu.Unlock()

	out := *current
	return &out, nil
}

// CurrentFile returns the active file, or nil
func (s *Session) CurrentFile() *CurrentFile {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return nil
	}
	out := *s.current
	return &out
}

// CurrentNotes returns copies of the active file's notes. An untracked or
// absent file has none.
func (s *Session) CurrentNotes(ctx context.Context) ([]*types.Note, error) {
	current := s.CurrentFile()
	if current == nil || !current.Tracked {
		return []*types.Note{}, nil
	}
	return s.Notes(ctx, current.FileID)
}

// Notes returns copies of a file's notes, served from the snapshot cache
// when possible.
func (s *Session) Notes(ctx context.Context, fileID int64) ([]*types.Note, error) {
	if cached, ok := s.snapshots.Get(fileID); ok {
		return cloneAll(cached), nil
	}

	loaded, err := s.notes.ListByFile(ctx, fileID)
	if err != nil {
		return nil, err
	}
	s.snapshots.Add(fileID, loaded)
	return cloneAll(loaded), nil
}

// Refresh reloads the active file's snapshot from the store
func (s *Session) Refresh(ctx context.Context) ([]*types.Note, error) {
	if current := s.CurrentFile(); current != nil && current.Tracked {
		s.snapshots.Remove(current.FileID)
	}
	return s.CurrentNotes(ctx)
}

// Invalidate drops the cached snapshot of a file after a mutation
func (s *Session) Invalidate(fileID int64) {
	s.snapshots.Remove(fileID)
}

// FileDeleted drops the file's snapshot and, when it is the active file,
// marks it untracked.
func (s *Session) FileDeleted(fileID int64) {
	s.snapshots.Remove(fileID)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current != nil && s.current.Tracked && s.current.FileID == fileID {
		s.current.FileID = 0
		s.current.Tracked = false
	}
}

func cloneAll(in []*types.Note) []*types.Note {
	out := make([]*types.Note, len(in))
	for i, n := range in {
		out[i] = n.Clone()
	}
	return out
}
