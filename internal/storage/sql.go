package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"

	"github.com/deusflow/newslens/internal/article"
	"github.com/deusflow/newslens/internal/logger"
)

// SQLStore keeps article tables in PostgreSQL or SQLite. Queries use $n
// placeholders, which both drivers accept.
type SQLStore struct {
	db     *sql.DB
	driver string
}

// NewSQLStore opens and pings the database and creates the audit table.
func NewSQLStore(ctx context.Context, driver, dsn string) (*SQLStore, error) {
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if driver == "sqlite3" {
		// every connection to :memory: is a separate database
		db.SetMaxOpenConns(1)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	s := &SQLStore{db: db, driver: driver}
	if err := s.initSchema(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	logger.Info("database connected", "driver", driver)
	return s, nil
}

func (s *SQLStore) initSchema(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
	CREATE TABLE IF NOT EXISTS ingest_runs (
		run_id TEXT PRIMARY KEY,
		seq INTEGER NOT NULL,
		table_name TEXT NOT NULL,
		row_count INTEGER NOT NULL,
		replaced_rows INTEGER NOT NULL,
		created_at TEXT NOT NULL
	)`)
	return err
}

func createTableSQL(table string) string {
	return fmt.Sprintf(`CREATE TABLE %s (
		Row_Index INTEGER NOT NULL,
		Title TEXT,
		Published_Date TEXT,
		URL TEXT,
		Snippet TEXT,
		Cleaned_Snippet TEXT,
		Source TEXT,
		News_Desk TEXT,
		Sentiment TEXT,
		Sentiment_Score DOUBLE PRECISION,
		Bias TEXT
	)`, table)
}

// ReplaceTable drops, recreates and fills table in one transaction.
func (s *SQLStore) ReplaceTable(ctx context.Context, table string, rows []article.Article) error {
	if err := ValidateTable(table); err != nil {
		return err
	}

	replaced, err := s.countRows(ctx, table)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DROP TABLE IF EXISTS "+table); err != nil {
		return fmt.Errorf("failed to drop %s: %w", table, err)
	}
	if _, err := tx.ExecContext(ctx, createTableSQL(table)); err != nil {
		return fmt.Errorf("failed to create %s: %w", table, err)
	}

	stmt, err := tx.PrepareContext(ctx, fmt.Sprintf(`INSERT INTO %s
		(Row_Index, Title, Published_Date, URL, Snippet, Cleaned_Snippet, Source, News_Desk, Sentiment, Sentiment_Score, Bias)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`, table))
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for i, a := range persisted(rows) {
		if _, err := stmt.ExecContext(ctx, i, a.Title, a.PublishedDate(), a.URL, a.Snippet,
			a.CleanedSnippet, a.Source, a.Desk, string(a.Sentiment), a.SentimentScore, a.Bias); err != nil {
			return fmt.Errorf("failed to insert row %d into %s: %w", i, table, err)
		}
	}

	run := Run{
		ID:           uuid.NewString(),
		Table:        table,
		Rows:         len(rows),
		ReplacedRows: replaced,
		CreatedAt:    time.Now().UTC(),
	}
	var seq int
	if err := tx.QueryRowContext(ctx, `SELECT COALESCE(MAX(seq), 0) + 1 FROM ingest_runs`).Scan(&seq); err != nil {
		return fmt.Errorf("failed to number ingest run: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO ingest_runs (run_id, seq, table_name, row_count, replaced_rows, created_at) VALUES ($1, $2, $3, $4, $5, $6)`,
		run.ID, seq, run.Table, run.Rows, run.ReplacedRows, run.CreatedAt.Format(time.RFC3339Nano)); err != nil {
		return fmt.Errorf("failed to record ingest run: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit %s: %w", table, err)
	}

	if replaced > 0 {
		logger.Warn("table replaced, previous rows discarded", "table", table, "discarded", replaced, "run_id", run.ID)
	}
	logger.Info("table saved", "table", table, "rows", len(rows), "run_id", run.ID)
	return nil
}

// LoadTable reads every row of table in insertion order.
func (s *SQLStore) LoadTable(ctx context.Context, table string) (article.Corpus, error) {
	if err := ValidateTable(table); err != nil {
		return nil, err
	}
	exists, err := s.tableExists(ctx, table)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrTableNotFound, table)
	}

	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(`SELECT
		COALESCE(Title, ''), COALESCE(Published_Date, ''), COALESCE(URL, ''), COALESCE(Snippet, ''),
		COALESCE(Cleaned_Snippet, ''), COALESCE(Source, ''), COALESCE(News_Desk, ''),
		COALESCE(Sentiment, ''), COALESCE(Sentiment_Score, 0), COALESCE(Bias, '')
		FROM %s ORDER BY Row_Index`, table))
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", table, err)
	}
	defer rows.Close()

	var out article.Corpus
	for rows.Next() {
		var a article.Article
		var published, sentiment string
		if err := rows.Scan(&a.Title, &published, &a.URL, &a.Snippet, &a.CleanedSnippet,
			&a.Source, &a.Desk, &sentiment, &a.SentimentScore, &a.Bias); err != nil {
			return nil, fmt.Errorf("failed to scan %s: %w", table, err)
		}
		if published != "" {
			if d, err := article.ParseDate(published); err == nil {
				a.Published = d
			} else {
				logger.Warn("unparsable stored date", "table", table, "value", published)
			}
		}
		a.Sentiment = article.Label(sentiment)
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", table, err)
	}
	return out, nil
}

// Runs lists the audit trail, oldest first.
func (s *SQLStore) Runs(ctx context.Context) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT run_id, table_name, row_count, replaced_rows, created_at FROM ingest_runs ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("failed to query ingest runs: %w", err)
	}
	defer rows.Close()

	var out []Run
	for rows.Next() {
		var r Run
		var created string
		if err := rows.Scan(&r.ID, &r.Table, &r.Rows, &r.ReplacedRows, &created); err != nil {
			return nil, fmt.Errorf("failed to scan ingest run: %w", err)
		}
		if t, err := time.Parse(time.RFC3339Nano, created); err == nil {
			r.CreatedAt = t
		} else {
			logger.Warn("unparsable ingest run time", "run_id", r.ID, "value", created)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *SQLStore) Close() error {
	return s.db.Close()
}

func (s *SQLStore) tableExists(ctx context.Context, table string) (bool, error) {
	var query string
	switch s.driver {
	case "postgres":
		query = `SELECT COUNT(*) FROM information_schema.tables WHERE table_schema = current_schema() AND table_name = $1`
	default:
		query = `SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = $1`
	}
	var n int
	if err := s.db.QueryRowContext(ctx, query, table).Scan(&n); err != nil {
		return false, fmt.Errorf("failed to look up table %s: %w", table, err)
	}
	return n > 0, nil
}

func (s *SQLStore) countRows(ctx context.Context, table string) (int, error) {
	exists, err := s.tableExists(ctx, table)
	if err != nil || !exists {
		return 0, err
	}
	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+table).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count %s: %w", table, err)
	}
	return n, nil
}
