package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dshills/snipnotes-mcp/pkg/types"
)

// DefaultDBFileName is the database file created inside a storage directory
const DefaultDBFileName = "snipnotes.db"

var (
	// ErrNotFound is returned when a requested entity doesn't exist
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists is returned when trying to create a duplicate entity
	ErrAlreadyExists = errors.New("already exists")
)

// SQLiteStorage implements the Storage interface using SQLite
type SQLiteStorage struct {
	db   *sql.DB
	path string
}

var _ Storage = (*SQLiteStorage)(nil)

// openDatabase opens a SQLite database with appropriate settings
func openDatabase(dbPath string) (*sql.DB, error) {
	db, err := sql.Open(DriverName, dbPath)
	if err != nil {
		return nil, err
	}

	// Single logical session: one connection keeps pragmas and ordering stable
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=FULL",
		"PRAGMA foreign_keys=ON",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to apply %q: %w", pragma, err)
		}
	}

	return db, nil
}

// Open creates dir if needed and opens DefaultDBFileName inside it
func Open(dir string) (*SQLiteStorage, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}
	return NewSQLiteStorage(filepath.Join(dir, DefaultDBFileName))
}

// NewSQLiteStorage creates a new SQLite storage instance
func NewSQLiteStorage(dbPath string) (*SQLiteStorage, error) {
	db, err := openDatabase(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := ApplyMigrations(context.Background(), db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to apply migrations: %w", err)
	}

	return &SQLiteStorage{db: db, path: dbPath}, nil
}

// Path returns the database file path
func (s *SQLiteStorage) Path() string {
	return s.path
}

// Checkpoint folds the write-ahead log into the main database file
func (s *SQLiteStorage) Checkpoint(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, "PRAGMA wal_checkpoint(TRUNCATE)"); err != nil {
		return fmt.Errorf("failed to checkpoint database: %w", err)
	}
	return nil
}

// Close checkpoints and closes the database connection
func (s *SQLiteStorage) Close() error {
	cpErr := s.Checkpoint(context.Background())
	if err := s.db.Close(); err != nil {
		return err
	}
	return cpErr
}

// querier is an interface that both *sql.DB and *sql.Tx implement
type querier interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// querier returns the DB querier
func (s *SQLiteStorage) querier() querier {
	return s.db
}

// withTx runs fn in a transaction, committing only if fn succeeds. With a
// single connection, fn must use the querier it is handed.
func (s *SQLiteStorage) withTx(ctx context.Context, fn func(q querier) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// requireAffected maps a zero-row mutation to ErrNotFound
func requireAffected(result sql.Result) error {
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// Workspace operations

func (s *SQLiteStorage) CreateWorkspace(ctx context.Context, ws *types.Workspace) error {
	row, err := FromTypesWorkspace(ws)
	if err != nil {
		return err
	}

	result, err := s.querier().ExecContext(ctx,
		"INSERT INTO workspaces (name, path) VALUES (?, ?)", row.Name, row.Path)
	if isUniqueViolation(err) {
		return fmt.Errorf("workspace %q: %w", ws.Name, ErrAlreadyExists)
	}
	if err != nil {
		return fmt.Errorf("failed to create workspace: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	ws.ID = id
	return nil
}

// getWorkspaceWithQuerier is the internal implementation that uses a querier
func (s *SQLiteStorage) getWorkspaceWithQuerier(ctx context.Context, q querier, where string, arg interface{}) (*types.Workspace, error) {
	var row Workspace
	err := q.QueryRowContext(ctx, "SELECT id, name, path FROM workspaces WHERE "+where, arg).
		Scan(&row.ID, &row.Name, &row.Path)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return row.ToTypesWorkspace()
}

func (s *SQLiteStorage) GetWorkspaceByName(ctx context.Context, name string) (*types.Workspace, error) {
	return s.getWorkspaceWithQuerier(ctx, s.querier(), "name = ?", name)
}

func (s *SQLiteStorage) GetWorkspaceByID(ctx context.Context, id int64) (*types.Workspace, error) {
	return s.getWorkspaceWithQuerier(ctx, s.querier(), "id = ?", id)
}

// File operations

func (s *SQLiteStorage) CreateFile(ctx context.Context, file *types.File) error {
	row, err := FromTypesFile(file)
	if err != nil {
		return err
	}

	result, err := s.querier().ExecContext(ctx,
		"INSERT INTO files (relative_path, workspace_id) VALUES (?, ?)", row.RelativePath, row.WorkspaceID)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	file.ID = id
	return nil
}

func scanFile(scanner interface{ Scan(...interface{}) error }) (*types.File, error) {
	var row File
	if err := scanner.Scan(&row.ID, &row.RelativePath, &row.WorkspaceID); err != nil {
		return nil, err
	}
	return row.ToTypesFile()
}

// GetFile returns the earliest file row with this exact relative path in the
// workspace.
func (s *SQLiteStorage) GetFile(ctx context.Context, workspaceID int64, relativePath string) (*types.File, error) {
	query := `
		SELECT id, relative_path, workspace_id
		FROM files
		WHERE workspace_id = ? AND relative_path = ?
		ORDER BY id
		LIMIT 1
	`
	file, err := scanFile(s.querier().QueryRowContext(ctx, query, workspaceID, relativePath))
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	return file, err
}

func (s *SQLiteStorage) GetFileByID(ctx context.Context, fileID int64) (*types.File, error) {
	file, err := scanFile(s.querier().QueryRowContext(ctx,
		"SELECT id, relative_path, workspace_id FROM files WHERE id = ?", fileID))
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	return file, err
}

// DeleteFile removes a file row together with its notes in one transaction
func (s *SQLiteStorage) DeleteFile(ctx context.Context, fileID int64) error {
	return s.withTx(ctx, func(q querier) error {
		if _, err := q.ExecContext(ctx, "DELETE FROM notes WHERE file_id = ?", fileID); err != nil {
			return fmt.Errorf("failed to delete notes of file %d: %w", fileID, err)
		}
		result, err := q.ExecContext(ctx, "DELETE FROM files WHERE id = ?", fileID)
		if err != nil {
			return fmt.Errorf("failed to delete file %d: %w", fileID, err)
		}
		return requireAffected(result)
	})
}

func (s *SQLiteStorage) listFilesWithQuerier(ctx context.Context, q querier, query string, workspaceID int64) ([]*types.File, error) {
	rows, err := q.QueryContext(ctx, query, workspaceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var files []*types.File
	for rows.Next() {
		file, err := scanFile(rows)
		if err != nil {
			return nil, err
		}
		files = append(files, file)
	}
	return files, rows.Err()
}

func (s *SQLiteStorage) ListFiles(ctx context.Context, workspaceID int64) ([]*types.File, error) {
	return s.listFilesWithQuerier(ctx, s.querier(), `
		SELECT id, relative_path, workspace_id
		FROM files
		WHERE workspace_id = ?
		ORDER BY id
	`, workspaceID)
}

// ListFilesWithNotes returns the workspace's files that have at least one note
func (s *SQLiteStorage) ListFilesWithNotes(ctx context.Context, workspaceID int64) ([]*types.File, error) {
	return s.listFilesWithQuerier(ctx, s.querier(), `
		SELECT f.id, f.relative_path, f.workspace_id
		FROM files f
		WHERE f.workspace_id = ?
		  AND EXISTS (SELECT 1 FROM notes n WHERE n.file_id = f.id)
		ORDER BY f.id
	`, workspaceID)
}

// Note operations

const noteColumns = `id, title, note_text, code_text, start_line, end_line, language_id, category, file_id, created_date`

func scanNote(scanner interface{ Scan(...interface{}) error }) (*types.Note, error) {
	var row Note
	err := scanner.Scan(
		&row.ID, &row.Title, &row.NoteText, &row.CodeText,
		&row.StartLine, &row.EndLine, &row.LanguageID, &row.Category,
		&row.FileID, &row.CreatedDate,
	)
	if err != nil {
		return nil, err
	}
	return row.ToTypesNote()
}

// InsertNote stores a new note, setting its ID. A zero CreatedDate is
// stamped with the current time.
func (s *SQLiteStorage) InsertNote(ctx context.Context, note *types.Note) error {
	stamped := *note
	if stamped.CreatedDate.IsZero() {
		stamped.CreatedDate = time.Now().UTC()
	}
	row, err := FromTypesNote(&stamped)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO notes (title, note_text, code_text, start_line, end_line, language_id, category, file_id, created_date)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	result, err := s.querier().ExecContext(ctx, query,
		row.Title, row.NoteText, row.CodeText, row.StartLine, row.EndLine,
		row.LanguageID, row.Category, row.FileID, row.CreatedDate)
	if err != nil {
		return fmt.Errorf("failed to insert note: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	note.ID = id
	note.CreatedDate = stamped.CreatedDate
	return nil
}

// UpdateNote replaces every column of the note except category and
// created_date.
func (s *SQLiteStorage) UpdateNote(ctx context.Context, note *types.Note) error {
	row, err := FromTypesNote(note)
	if err != nil {
		return err
	}

	query := `
		UPDATE notes
		SET title = ?, note_text = ?, code_text = ?, start_line = ?, end_line = ?,
		    language_id = ?, file_id = ?
		WHERE id = ?
	`
	result, err := s.querier().ExecContext(ctx, query,
		row.Title, row.NoteText, row.CodeText, row.StartLine, row.EndLine,
		row.LanguageID, row.FileID, row.ID)
	if err != nil {
		return fmt.Errorf("failed to update note: %w", err)
	}
	return requireAffected(result)
}

func (s *SQLiteStorage) UpdateNoteCategory(ctx context.Context, noteID int64, category types.Category) error {
	if !category.Valid() {
		return fmt.Errorf("%w: %q", types.ErrInvalidCategory, string(category))
	}

	result, err := s.querier().ExecContext(ctx,
		"UPDATE notes SET category = ? WHERE id = ?", string(category), noteID)
	if err != nil {
		return fmt.Errorf("failed to update note category: %w", err)
	}
	return requireAffected(result)
}

func (s *SQLiteStorage) DeleteNote(ctx context.Context, noteID int64) error {
	result, err := s.querier().ExecContext(ctx, "DELETE FROM notes WHERE id = ?", noteID)
	if err != nil {
		return fmt.Errorf("failed to delete note: %w", err)
	}
	return requireAffected(result)
}

func (s *SQLiteStorage) GetNote(ctx context.Context, noteID int64) (*types.Note, error) {
	note, err := scanNote(s.querier().QueryRowContext(ctx,
		"SELECT "+noteColumns+" FROM notes WHERE id = ?", noteID))
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	return note, err
}

// ListNotesByFile returns the file's notes in insertion order
func (s *SQLiteStorage) ListNotesByFile(ctx context.Context, fileID int64) ([]*types.Note, error) {
	rows, err := s.querier().QueryContext(ctx,
		"SELECT "+noteColumns+" FROM notes WHERE file_id = ? ORDER BY id", fileID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var notes []*types.Note
	for rows.Next() {
		note, err := scanNote(rows)
		if err != nil {
			return nil, err
		}
		notes = append(notes, note)
	}
	return notes, rows.Err()
}

// FindNoteAtLine returns the earliest note of the file whose range contains
// line.
func (s *SQLiteStorage) FindNoteAtLine(ctx context.Context, fileID int64, line int) (*types.Note, error) {
	query := `
		SELECT ` + noteColumns + `
		FROM notes
		WHERE file_id = ? AND ? BETWEEN start_line AND end_line
		ORDER BY id
		LIMIT 1
	`
	note, err := scanNote(s.querier().QueryRowContext(ctx, query, fileID, line))
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	return note, err
}

// Status operations

func (s *SQLiteStorage) GetStatus(ctx context.Context, workspaceID int64) (*WorkspaceStatus, error) {
	ws, err := s.GetWorkspaceByID(ctx, workspaceID)
	if err != nil {
		return nil, err
	}

	status := &WorkspaceStatus{
		Workspace:      ws,
		CategoryCounts: make(map[types.Category]int),
	}

	q := s.querier()

	err = q.QueryRowContext(ctx, "SELECT COUNT(*) FROM files WHERE workspace_id = ?", workspaceID).
		Scan(&status.FilesCount)
	if err != nil {
		return nil, err
	}

	err = q.QueryRowContext(ctx, `
		SELECT COUNT(DISTINCT n.file_id) FROM notes n
		JOIN files f ON n.file_id = f.id
		WHERE f.workspace_id = ?
	`, workspaceID).Scan(&status.FilesWithNotes)
	if err != nil {
		return nil, err
	}

	rows, err := q.QueryContext(ctx, `
		SELECT n.category, COUNT(*) FROM notes n
		JOIN files f ON n.file_id = f.id
		WHERE f.workspace_id = ?
		GROUP BY n.category
	`, workspaceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var category string
		var count int
		if err := rows.Scan(&category, &count); err != nil {
			return nil, err
		}
		status.CategoryCounts[types.Category(category)] = count
		status.NotesCount += count
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	_ = rows.Close()

	// Calculate database size
	var pageCount, pageSize int
	err = q.QueryRowContext(ctx, "PRAGMA page_count").Scan(&pageCount)
	if err == nil {
		err = q.QueryRowContext(ctx, "PRAGMA page_size").Scan(&pageSize)
		if err == nil {
			status.DatabaseSizeMB = float64(pageCount*pageSize) / (1024 * 1024)
		}
	}

	return status, nil
}
