// Package notes is the note repository: it turns a selection plus note text
// into a stored note and serves the per-file queries.
package notes

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/dshills/snipnotes-mcp/internal/storage"
	"github.com/dshills/snipnotes-mcp/pkg/types"
)

// ErrCancelled is returned by Create when the note text is empty. Nothing is
// written in that case.
var ErrCancelled = errors.New("note creation cancelled")

// Store is the subset of storage.Storage the repository needs
type Store interface {
	InsertNote(ctx context.Context, note *types.Note) error
	UpdateNote(ctx context.Context, note *types.Note) error
	UpdateNoteCategory(ctx context.Context, noteID int64, category types.Category) error
	DeleteNote(ctx context.Context, noteID int64) error
	GetNote(ctx context.Context, noteID int64) (*types.Note, error)
	ListNotesByFile(ctx context.Context, fileID int64) ([]*types.Note, error)
	FindNoteAtLine(ctx context.Context, fileID int64, line int) (*types.Note, error)
	ListFilesWithNotes(ctx context.Context, workspaceID int64) ([]*types.File, error)
	DeleteFile(ctx context.Context, fileID int64) error
}

// languageAliases shortens editor language ids that have a common short name
var languageAliases = map[string]string{
	"typescriptreact": "tsx",
	"javascriptreact": "jsx",
}

// MapLanguageID returns the stored language id for an editor language id
func MapLanguageID(id string) string {
	if alias, ok := languageAliases[id]; ok {
		return alias
	}
	return id
}

// CreateRequest describes a selection to annotate. Lines holds the document
// split into lines; when nil, Text is split instead.
type CreateRequest struct {
	FileID     int64
	Lines      []string
	Text       string
	StartLine  int
	EndLine    int
	LanguageID string
	NoteText   string
}

// Repository implements note CRUD on top of a Store
type Repository struct {
	store  Store
	logger *zap.Logger
	now    func() time.Time
}

// New creates a repository. A nil logger discards output.
func New(store Store, logger *zap.Logger) *Repository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Repository{store: store, logger: logger, now: time.Now}
}

// CheckRange reports a ValidationError unless [start, end] lies inside a
// document of lineCount lines.
func CheckRange(lineCount, start, end int) error {
	switch {
	case start < 0 || start >= lineCount:
		return &types.ValidationError{Field: "StartLine", Message: fmt.Sprintf("must be within the document (0..%d)", lineCount-1)}
	case end < start:
		return &types.ValidationError{Field: "EndLine", Message: "must be >= StartLine"}
	case end >= lineCount:
		return &types.ValidationError{Field: "EndLine", Message: fmt.Sprintf("must be within the document (0..%d)", lineCount-1)}
	}
	return nil
}

// ExtractCode returns lines [start, end] joined with "\n". The range must
// lie inside the document.
func ExtractCode(lines []string, start, end int) (string, error) {
	if err := CheckRange(len(lines), start, end); err != nil {
		return "", err
	}
	return strings.Join(lines[start:end+1], "\n"), nil
}

// Create stores a new note anchored to the request's range and returns it
// with its generated id.
func (r *Repository) Create(ctx context.Context, req CreateRequest) (*types.Note, error) {
	if req.NoteText == "" {
		return nil, ErrCancelled
	}

	lines := req.Lines
	if lines == nil {
		lines = types.SplitLines(req.Text)
	}

	code, err := ExtractCode(lines, req.StartLine, req.EndLine)
	if err != nil {
		return nil, err
	}

	note := &types.Note{
		Title:       types.DeriveTitle(req.NoteText),
		NoteText:    req.NoteText,
		CodeText:    code,
		StartLine:   req.StartLine,
		EndLine:     req.EndLine,
		LanguageID:  MapLanguageID(req.LanguageID),
		Category:    types.CategoryNone,
		FileID:      req.FileID,
		CreatedDate: r.now().UTC(),
	}
	if err := r.store.InsertNote(ctx, note); err != nil {
		return nil, fmt.Errorf("failed to create note: %w", err)
	}

	r.logger.Info("note created",
		zap.Int64("note_id", note.ID),
		zap.Int64("file_id", note.FileID),
		zap.Int("start_line", note.StartLine),
		zap.Int("end_line", note.EndLine))
	return note, nil
}

// Update replaces the note's text, code, range, language and file. The title
// is re-derived; category and created date are kept. An empty note text
// leaves the stored note untouched and reports updated=false.
func (r *Repository) Update(ctx context.Context, note *types.Note) (updated bool, err error) {
	if note.NoteText == "" {
		return false, nil
	}

	next := note.Clone()
	next.Title = types.DeriveTitle(next.NoteText)
	if err := r.store.UpdateNote(ctx, next); err != nil {
		return false, fmt.Errorf("failed to update note %d: %w", note.ID, err)
	}
	note.Title = next.Title

	r.logger.Debug("note updated", zap.Int64("note_id", note.ID))
	return true, nil
}

// Delete removes a note by id
func (r *Repository) Delete(ctx context.Context, id int64) error {
	if err := r.store.DeleteNote(ctx, id); err != nil {
		return fmt.Errorf("failed to delete note %d: %w", id, err)
	}
	r.logger.Info("note deleted", zap.Int64("note_id", id))
	return nil
}

// UpdateCategory sets the note's category. Unknown categories are rejected
// before anything is written.
func (r *Repository) UpdateCategory(ctx context.Context, id int64, category string) error {
	c, err := types.ParseCategory(category)
	if err != nil {
		return fmt.Errorf("%w: %q", err, category)
	}
	if err := r.store.UpdateNoteCategory(ctx, id, c); err != nil {
		return fmt.Errorf("failed to set category of note %d: %w", id, err)
	}
	return nil
}

// Get returns one note
func (r *Repository) Get(ctx context.Context, id int64) (*types.Note, error) {
	note, err := r.store.GetNote(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get note %d: %w", id, err)
	}
	return note, nil
}

// ListByFile returns copies of the file's notes in store order
func (r *Repository) ListByFile(ctx context.Context, fileID int64) ([]*types.Note, error) {
	notes, err := r.store.ListNotesByFile(ctx, fileID)
	if err != nil {
		return nil, fmt.Errorf("failed to list notes of file %d: %w", fileID, err)
	}
	return cloneAll(notes), nil
}

// NoteTextAtLine returns the text of the note covering line. When several
// notes overlap the line, the earliest created one wins.
func (r *Repository) NoteTextAtLine(ctx context.Context, fileID int64, line int) (string, bool, error) {
	note, err := r.NoteAtLine(ctx, fileID, line)
	if err != nil || note == nil {
		return "", false, err
	}
	return note.NoteText, true, nil
}

// NoteAtLine is NoteTextAtLine returning the whole note, nil when absent.
func (r *Repository) NoteAtLine(ctx context.Context, fileID int64, line int) (*types.Note, error) {
	note, err := r.store.FindNoteAtLine(ctx, fileID, line)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up note at line %d: %w", line, err)
	}
	return note, nil
}

// ListFilesWithNotes returns the workspace's annotated files in store order
func (r *Repository) ListFilesWithNotes(ctx context.Context, workspaceID int64) ([]*types.File, error) {
	files, err := r.store.ListFilesWithNotes(ctx, workspaceID)
	if err != nil {
		return nil, fmt.Errorf("failed to list files with notes: %w", err)
	}
	return files, nil
}

// DeleteFile removes a tracked file and all of its notes
func (r *Repository) DeleteFile(ctx context.Context, fileID int64) error {
	if err := r.store.DeleteFile(ctx, fileID); err != nil {
		return fmt.Errorf("failed to delete file %d: %w", fileID, err)
	}
	r.logger.Info("file deleted", zap.Int64("file_id", fileID))
	return nil
}

func cloneAll(notes []*types.Note) []*types.Note {
	out := make([]*types.Note, len(notes))
	for i, n := range notes {
		out[i] = n.Clone()
	}
	return out
}
