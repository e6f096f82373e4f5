package drift

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/dshills/snipnotes-mcp/pkg/types"
)

// ErrAuditInProgress is returned when an audit is already running
var ErrAuditInProgress = errors.New("drift audit already in progress")

// Store is the read-only subset of storage.Storage the auditor needs
type Store interface {
	ListFilesWithNotes(ctx context.Context, workspaceID int64) ([]*types.File, error)
	ListNotesByFile(ctx context.Context, fileID int64) ([]*types.Note, error)
}

// Config contains configuration for the auditor
type Config struct {
	Workers int // Number of concurrent file readers (default: runtime.NumCPU())
}

// NoteResult is the drift outcome of one note
type NoteResult struct {
	NoteID       int64  `json:"note_id"`
	FileID       int64  `json:"file_id"`
	RelativePath string `json:"relative_path"`
	Title        string `json:"title"`
	Result
}

// Report contains the outcome of an audit
type Report struct {
	Results       []NoteResult  `json:"results"`
	MissingFiles  []string      `json:"missing_files"`
	FilesChecked  int           `json:"files_checked"`
	NotesChecked  int           `json:"notes_checked"`
	NotesMoved    int           `json:"notes_moved"`
	Duration      time.Duration `json:"duration"`
	ErrorMessages []string      `json:"errors,omitempty"`
}

// Auditor checks every note of a workspace against the files on disk
type Auditor struct {
	store   Store
	logger  *zap.Logger
	workers int
	lock    auditLock
}

// NewAuditor creates an auditor. A nil config uses defaults and a nil logger
// discards output.
func NewAuditor(store Store, logger *zap.Logger, config *Config) *Auditor {
	if logger == nil {
		logger = zap.NewNop()
	}
	workers := runtime.NumCPU()
	if config != nil && config.Workers > 0 {
		workers = config.Workers
	}
	return &Auditor{store: store, logger: logger, workers: workers}
}

// fileJob is one file and its notes, loaded from the store before any file
// is read.
type fileJob struct {
	file  *types.File
	notes []*types.Note

	results []NoteResult
	missing bool
	err     error
}

// Audit checks all notes of the workspace. Files are read from ws.Path.
// Missing or unreadable files are reported and do not stop the audit.
func (a *Auditor) Audit(ctx context.Context, ws *types.Workspace) (*Report, error) {
	if !a.lock.TryAcquire() {
		return nil, ErrAuditInProgress
	}
	defer a.lock.Release()

	startTime := time.Now()

	jobs, err := a.loadJobs(ctx, ws.ID)
	if err != nil {
		return nil, err
	}

	if err := a.readAndCheck(ctx, ws.Path, jobs); err != nil {
		return nil, err
	}

	report := &Report{
		Results:      make([]NoteResult, 0),
		MissingFiles: make([]string, 0),
	}
	for _, job := range jobs {
		switch {
		case job.missing:
			report.MissingFiles = append(report.MissingFiles, job.file.RelativePath)
		case job.err != nil:
			report.ErrorMessages = append(report.ErrorMessages, fmt.Sprintf("%s: %v", job.file.RelativePath, job.err))
		default:
			report.FilesChecked++
			for _, r := range job.results {
				report.NotesChecked++
				if r.Status == StatusMoved {
					report.NotesMoved++
				}
				report.Results = append(report.Results, r)
			}
		}
	}
	report.Duration = time.Since(startTime)

	a.logger.Info("drift audit finished",
		zap.String("workspace", ws.Name),
		zap.Int("files", report.FilesChecked),
		zap.Int("notes", report.NotesChecked),
		zap.Int("moved", report.NotesMoved),
		zap.Int("missing", len(report.MissingFiles)),
		zap.Duration("duration", report.Duration))
	return report, nil
}

// loadJobs reads everything the audit needs from the store, sequentially
func (a *Auditor) loadJobs(ctx context.Context, workspaceID int64) ([]*fileJob, error) {
	files, err := a.store.ListFilesWithNotes(ctx, workspaceID)
	if err != nil {
		return nil, fmt.Errorf("failed to list files with notes: %w", err)
	}

	jobs := make([]*fileJob, 0, len(files))
	for _, file := range files {
		notes, err := a.store.ListNotesByFile(ctx, file.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to list notes of %s: %w", file.RelativePath, err)
		}
		jobs = append(jobs, &fileJob{file: file, notes: notes})
	}
	return jobs, nil
}

// readAndCheck reads the job files concurrently and checks their notes
func (a *Auditor) readAndCheck(ctx context.Context, root string, jobs []*fileJob) error {
	// Create worker pool with semaphore
	semaphore := make(chan struct{}, a.workers)

	var moved int32

	g, gctx := errgroup.WithContext(ctx)
	for _, job := range jobs {
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			case semaphore <- struct{}{}:
				// Acquire semaphore
			}
			defer func() { <-semaphore }()

			a.checkFile(root, job)
			for _, r := range job.results {
				if r.Status == StatusMoved {
					atomic.AddInt32(&moved, 1)
					a.logger.Warn("note anchor moved",
						zap.String("path", r.RelativePath),
						zap.Int64("note_id", r.NoteID))
				}
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}
	a.logger.Debug("drift files checked", zap.Int("files", len(jobs)), zap.Int32("moved", moved))
	return nil
}

// checkFile fills job.results, or marks the file missing or failed
func (a *Auditor) checkFile(root string, job *fileJob) {
	path := filepath.Join(root, filepath.FromSlash(job.file.RelativePath))
	content, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		job.missing = true
		return
	}
	if err != nil {
		job.err = err
		return
	}

	live := string(content)
	job.results = make([]NoteResult, 0, len(job.notes))
	for _, note := range job.notes {
		job.results = append(job.results, NoteResult{
			NoteID:       note.ID,
			FileID:       job.file.ID,
			RelativePath: job.file.RelativePath,
			Title:        note.Title,
			Result:       Check(note, live),
		})
	}
}
