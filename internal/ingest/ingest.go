// Package ingest runs every source once, cleans and scores what it returns
// and replaces each source's table.
//
// Failures never abort the whole run. A source error keeps the articles
// that source collected before failing, a save error skips that table, and
// both end up in the Report.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/deusflow/newslens/internal/article"
	"github.com/deusflow/newslens/internal/logger"
	"github.com/deusflow/newslens/internal/metrics"
	"github.com/deusflow/newslens/internal/sentiment"
	"github.com/deusflow/newslens/internal/source"
	"github.com/deusflow/newslens/internal/storage"
	"github.com/deusflow/newslens/internal/textnorm"
)

// Publisher is told about every saved table.
type Publisher interface {
	Publish(ctx context.Context, table string) error
}

// Runner wires sources to a store.
type Runner struct {
	store     storage.Store
	sources   []source.Source
	analyzer  *sentiment.Analyzer
	publisher Publisher
}

func NewRunner(store storage.Store, analyzer *sentiment.Analyzer, sources ...source.Source) *Runner {
	if analyzer == nil {
		analyzer = sentiment.New()
	}
	return &Runner{store: store, sources: sources, analyzer: analyzer}
}

// WithPublisher announces saved tables through p.
func (r *Runner) WithPublisher(p Publisher) *Runner {
	r.publisher = p
	return r
}

// SourceResult is the outcome for one source.
type SourceResult struct {
	Source   string
	Table    string
	Articles int
	Saved    bool
	FetchErr error
	SaveErr  error
}

// Report summarises a run.
type Report struct {
	Results  []SourceResult
	Duration time.Duration
}

// Total counts articles collected across sources.
func (r *Report) Total() int {
	n := 0
	for _, res := range r.Results {
		n += res.Articles
	}
	return n
}

// Err joins every fetch and save error of the run.
func (r *Report) Err() error {
	var errs []error
	for _, res := range r.Results {
		if res.FetchErr != nil {
			errs = append(errs, res.FetchErr)
		}
		if res.SaveErr != nil {
			errs = append(errs, res.SaveErr)
		}
	}
	return errors.Join(errs...)
}

// Prepare fills the cleaned snippet and sentiment of a.
func Prepare(analyzer *sentiment.Analyzer, a article.Article) article.Article {
	a.CleanedSnippet = textnorm.Normalize(a.Snippet)
	a.SentimentScore, a.Sentiment = analyzer.Classify(a.CleanedSnippet)
	return a
}

// Run fetches every source in order and saves what each returned.
func (r *Runner) Run(ctx context.Context) *Report {
	start := time.Now()
	report := &Report{}

	for _, src := range r.sources {
		if ctx.Err() != nil {
			logger.Warn("ingestion cancelled", "error", ctx.Err())
			break
		}
		report.Results = append(report.Results, r.runSource(ctx, src))
	}

	if report.Total() == 0 {
		logger.Warn("no articles collected from any source")
	}
	report.Duration = time.Since(start)
	if report.Err() == nil {
		metrics.Global.SetLastIngest()
	}
	logger.Info("ingestion finished", "articles", report.Total(), "sources", len(report.Results), "duration", report.Duration.Round(time.Millisecond))
	return report
}

func (r *Runner) runSource(ctx context.Context, src source.Source) SourceResult {
	log := logger.With("source", src.Name(), "table", src.Table())
	res := SourceResult{Source: src.Name(), Table: src.Table()}

	rows, err := src.Fetch(ctx)
	if err != nil {
		res.FetchErr = fmt.Errorf("%s: %w", src.Name(), err)
		log.Error("source stopped early", "kept", len(rows), "error", err)
	}
	res.Articles = len(rows)
	if len(rows) == 0 {
		log.Warn("no articles collected")
		return res
	}

	prepared := make([]article.Article, len(rows))
	for i, a := range rows {
		prepared[i] = Prepare(r.analyzer, a)
	}

	if err := r.store.ReplaceTable(ctx, src.Table(), prepared); err != nil {
		res.SaveErr = fmt.Errorf("save %s: %w", src.Table(), err)
		metrics.Global.IncrementSaveErrors(err)
		log.Error("save failed", "error", err)
		return res
	}
	res.Saved = true
	metrics.Global.AddIngested(src.Name(), len(prepared))

	if r.publisher != nil {
		if err := r.publisher.Publish(ctx, src.Table()); err != nil {
			log.Warn("failed to announce saved table", "error", err)
		}
	}
	return res
}
