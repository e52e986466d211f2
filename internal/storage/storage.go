// Package storage persists one table of articles per source.
//
// Every save replaces the whole table: rows from earlier runs are dropped,
// not merged. Each replace is logged to an ingest_runs audit trail that
// records how many rows were discarded.
package storage

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/deusflow/newslens/internal/article"
	"github.com/deusflow/newslens/internal/retry"
)

var (
	// ErrInvalidTable is returned for table names that are not plain identifiers.
	ErrInvalidTable = errors.New("invalid table name")
	// ErrTableNotFound is returned by LoadTable when nothing was saved under the name.
	ErrTableNotFound = errors.New("table not found")
)

var tableNameRe = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

// Store saves and loads article tables.
type Store interface {
	// ReplaceTable drops table and recreates it holding exactly rows.
	ReplaceTable(ctx context.Context, table string, rows []article.Article) error
	// LoadTable returns the rows of table in insertion order.
	LoadTable(ctx context.Context, table string) (article.Corpus, error)
	// Runs lists the audit trail, oldest first.
	Runs(ctx context.Context) ([]Run, error)
	Close() error
}

// Run is one audited table replace.
type Run struct {
	ID           string    `json:"run_id"`
	Table        string    `json:"table_name"`
	Rows         int       `json:"row_count"`
	ReplacedRows int       `json:"replaced_rows"`
	CreatedAt    time.Time `json:"created_at"`
}

// RunsTable holds the audit trail and cannot store articles.
const RunsTable = "ingest_runs"

// ValidateTable rejects names that cannot be used as a bare SQL identifier
// and the reserved audit table.
func ValidateTable(table string) error {
	if !tableNameRe.MatchString(table) {
		return fmt.Errorf("%w: %q", ErrInvalidTable, table)
	}
	if table == RunsTable {
		return fmt.Errorf("%w: %q is reserved", ErrInvalidTable, table)
	}
	return nil
}

// Options selects and configures a backend.
type Options struct {
	Driver        string // postgres, sqlite3 or file
	DSN           string // connection string, or directory for file
	RetryAttempts int
	RetryDelay    time.Duration
}

// Open connects to the configured backend. SQL backends are pinged with
// retries until the database accepts connections.
func Open(ctx context.Context, opts Options) (Store, error) {
	switch opts.Driver {
	case "file":
		return NewFileStore(opts.DSN)
	case "postgres", "sqlite3":
		var store *SQLStore
		err := retry.WithRetry(ctx, retry.RetryConfig{
			MaxAttempts: opts.RetryAttempts,
			Delay:       opts.RetryDelay,
			Backoff:     true,
			Name:        "database connect",
		}, func() error {
			s, err := NewSQLStore(ctx, opts.Driver, opts.DSN)
			if err != nil {
				return err
			}
			store = s
			return nil
		})
		if err != nil {
			return nil, err
		}
		return store, nil
	}
	return nil, fmt.Errorf("unsupported storage driver %q", opts.Driver)
}

// persisted strips the clustering fields, which are never stored.
func persisted(rows []article.Article) []article.Article {
	out := make([]article.Article, len(rows))
	for i, a := range rows {
		a.ClusterID = 0
		a.Topic = ""
		out[i] = a
	}
	return out
}
