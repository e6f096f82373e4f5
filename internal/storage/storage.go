package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/dshills/snipnotes-mcp/pkg/types"
)

// Storage defines the interface for persisting workspaces, files and notes
type Storage interface {
	// Workspace operations
	CreateWorkspace(ctx context.Context, ws *types.Workspace) error
	GetWorkspaceByName(ctx context.Context, name string) (*types.Workspace, error)
	GetWorkspaceByID(ctx context.Context, id int64) (*types.Workspace, error)

	// File operations
	CreateFile(ctx context.Context, file *types.File) error
	GetFile(ctx context.Context, workspaceID int64, relativePath string) (*types.File, error)
	GetFileByID(ctx context.Context, fileID int64) (*types.File, error)
	DeleteFile(ctx context.Context, fileID int64) error
	ListFiles(ctx context.Context, workspaceID int64) ([]*types.File, error)
	ListFilesWithNotes(ctx context.Context, workspaceID int64) ([]*types.File, error)

	// Note operations
	InsertNote(ctx context.Context, note *types.Note) error
	UpdateNote(ctx context.Context, note *types.Note) error
	UpdateNoteCategory(ctx context.Context, noteID int64, category types.Category) error
	DeleteNote(ctx context.Context, noteID int64) error
	GetNote(ctx context.Context, noteID int64) (*types.Note, error)
	ListNotesByFile(ctx context.Context, fileID int64) ([]*types.Note, error)
	FindNoteAtLine(ctx context.Context, fileID int64, line int) (*types.Note, error)

	// Status operations
	GetStatus(ctx context.Context, workspaceID int64) (*WorkspaceStatus, error)

	// Database operations
	Checkpoint(ctx context.Context) error
	Close() error
}

// Workspace is a row of the workspaces table
type Workspace struct {
	ID   int64
	Name string
	Path string
}

// File is a row of the files table
type File struct {
	ID           int64
	RelativePath string
	WorkspaceID  int64
}

// Note is a row of the notes table. CreatedDate holds the raw column text.
type Note struct {
	ID          int64
	Title       string
	NoteText    string
	CodeText    string
	StartLine   int
	EndLine     int
	LanguageID  string
	Category    string
	FileID      int64
	CreatedDate string
}

// WorkspaceStatus summarizes what is stored for one workspace
type WorkspaceStatus struct {
	Workspace      *types.Workspace
	FilesCount     int
	FilesWithNotes int
	NotesCount     int
	CategoryCounts map[types.Category]int
	DatabaseSizeMB float64
}

// Timestamp layouts accepted when reading created_date. The first is what
// this package writes.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
}

func formatTimestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTimestamp(s string) (time.Time, error) {
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", s)
}

// ToTypesWorkspace converts a storage Workspace to types.Workspace
func (w *Workspace) ToTypesWorkspace() (*types.Workspace, error) {
	ws := &types.Workspace{ID: w.ID, Name: w.Name, Path: w.Path}
	if err := ws.Validate(); err != nil {
		return nil, fmt.Errorf("workspace row %d: %w", w.ID, err)
	}
	return ws, nil
}

// FromTypesWorkspace converts types.Workspace to a storage Workspace
func FromTypesWorkspace(ws *types.Workspace) (*Workspace, error) {
	if err := ws.Validate(); err != nil {
		return nil, err
	}
	return &Workspace{ID: ws.ID, Name: ws.Name, Path: ws.Path}, nil
}

// ToTypesFile converts a storage File to types.File
func (f *File) ToTypesFile() (*types.File, error) {
	file := &types.File{ID: f.ID, RelativePath: f.RelativePath, WorkspaceID: f.WorkspaceID}
	if err := file.Validate(); err != nil {
		return nil, fmt.Errorf("file row %d: %w", f.ID, err)
	}
	return file, nil
}

// FromTypesFile converts types.File to a storage File
func FromTypesFile(file *types.File) (*File, error) {
	if err := file.Validate(); err != nil {
		return nil, err
	}
	return &File{ID: file.ID, RelativePath: file.RelativePath, WorkspaceID: file.WorkspaceID}, nil
}

// ToTypesNote converts a storage Note to types.Note
func (n *Note) ToTypesNote() (*types.Note, error) {
	created, err := parseTimestamp(n.CreatedDate)
	if err != nil {
		return nil, fmt.Errorf("note row %d: %w", n.ID, err)
	}

	note := &types.Note{
		ID:          n.ID,
		Title:       n.Title,
		NoteText:    n.NoteText,
		CodeText:    n.CodeText,
		StartLine:   n.StartLine,
		EndLine:     n.EndLine,
		LanguageID:  n.LanguageID,
		Category:    types.Category(n.Category),
		FileID:      n.FileID,
		CreatedDate: created,
	}
	if err := note.Validate(); err != nil {
		return nil, fmt.Errorf("note row %d: %w", n.ID, err)
	}
	return note, nil
}

// FromTypesNote converts types.Note to a storage Note. A zero CreatedDate
// is stamped with the current time.
func FromTypesNote(note *types.Note) (*Note, error) {
	if err := note.Validate(); err != nil {
		return nil, err
	}

	created := note.CreatedDate
	if created.IsZero() {
		created = time.Now()
	}

	return &Note{
		ID:          note.ID,
		Title:       note.Title,
		NoteText:    note.NoteText,
		CodeText:    note.CodeText,
		StartLine:   note.StartLine,
		EndLine:     note.EndLine,
		LanguageID:  note.LanguageID,
		Category:    string(note.Category),
		FileID:      note.FileID,
		CreatedDate: formatTimestamp(created),
	}, nil
}
