package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/deusflow/newslens/internal/article"
	"github.com/deusflow/newslens/internal/logger"
)

const runsFile = RunsTable + ".json"

// FileStore keeps each table as a JSON array in <dir>/<table>.json.
type FileStore struct {
	dir string
	mu  sync.RWMutex
}

// NewFileStore creates dir if needed.
func NewFileStore(dir string) (*FileStore, error) {
	if dir == "" {
		return nil, fmt.Errorf("file store needs a directory")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create store directory: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

func (fs *FileStore) path(table string) string {
	return filepath.Join(fs.dir, table+".json")
}

// ReplaceTable overwrites the table file with rows.
func (fs *FileStore) ReplaceTable(ctx context.Context, table string, rows []article.Article) error {
	if err := ValidateTable(table); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	fs.mu.Lock()
	defer fs.mu.Unlock()

	previous, err := fs.read(table)
	if err != nil && !errors.Is(err, ErrTableNotFound) {
		return err
	}

	if err := writeJSON(fs.path(table), persisted(rows)); err != nil {
		return fmt.Errorf("failed to write %s: %w", table, err)
	}

	run := Run{
		ID:           uuid.NewString(),
		Table:        table,
		Rows:         len(rows),
		ReplacedRows: len(previous),
		CreatedAt:    time.Now().UTC(),
	}
	runs, err := fs.readRuns()
	if err != nil {
		return err
	}
	if err := writeJSON(filepath.Join(fs.dir, runsFile), append(runs, run)); err != nil {
		return fmt.Errorf("failed to record ingest run: %w", err)
	}

	if run.ReplacedRows > 0 {
		logger.Warn("table replaced, previous rows discarded", "table", table, "discarded", run.ReplacedRows, "run_id", run.ID)
	}
	logger.Info("table saved", "table", table, "rows", len(rows), "run_id", run.ID)
	return nil
}

// LoadTable reads the table file.
func (fs *FileStore) LoadTable(ctx context.Context, table string) (article.Corpus, error) {
	if err := ValidateTable(table); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	fs.mu.RLock()
	defer fs.mu.RUnlock()
	return fs.read(table)
}

func (fs *FileStore) Runs(ctx context.Context) ([]Run, error) {
	fs.mu.RLock()
	defer fs.mu.RUnlock()
	return fs.readRuns()
}

func (fs *FileStore) Close() error { return nil }

func (fs *FileStore) read(table string) (article.Corpus, error) {
	data, err := os.ReadFile(fs.path(table))
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrTableNotFound, table)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", table, err)
	}
	if len(data) == 0 {
		return article.Corpus{}, nil
	}

	var rows article.Corpus
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("failed to unmarshal %s: %w", table, err)
	}
	return rows, nil
}

func (fs *FileStore) readRuns() ([]Run, error) {
	data, err := os.ReadFile(filepath.Join(fs.dir, runsFile))
	if errors.Is(err, os.ErrNotExist) || (err == nil && len(data) == 0) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read ingest runs: %w", err)
	}
	var runs []Run
	if err := json.Unmarshal(data, &runs); err != nil {
		return nil, fmt.Errorf("failed to unmarshal ingest runs: %w", err)
	}
	return runs, nil
}

// writeJSON writes v next to path and renames it into place.
func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}
