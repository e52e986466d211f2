// Package dashboard owns the clustered corpus behind the web and CLI views.
//
// A Session loads the configured tables, clusters the combined corpus and
// serves filtered views of it. Clustering results are memoised by the
// corpus content hash, so a reload that returns the same rows reuses them.
package dashboard

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/deusflow/newslens/internal/article"
	"github.com/deusflow/newslens/internal/cache"
	"github.com/deusflow/newslens/internal/cluster"
	"github.com/deusflow/newslens/internal/filter"
	"github.com/deusflow/newslens/internal/logger"
	"github.com/deusflow/newslens/internal/metrics"
	"github.com/deusflow/newslens/internal/storage"
	"github.com/deusflow/newslens/internal/vectorize"
)

// ErrNotLoaded is returned by views before the first successful Refresh.
var ErrNotLoaded = errors.New("dashboard has no data loaded yet")

// Watcher reports whether stored tables changed since it was last asked.
type Watcher interface {
	Changed(ctx context.Context) (bool, error)
}

type Config struct {
	Tables      []string
	MaxFeatures int
	Cluster     cluster.Config
}

// Snapshot is one loaded and clustered corpus.
type Snapshot struct {
	Corpus   article.Corpus
	Result   *cluster.Result
	Hash     string
	LoadedAt time.Time
}

// Options lists the choices a filter form offers for the current snapshot.
type Options struct {
	Sentiments []article.Label
	Topics     []string
	From       time.Time
	To         time.Time
}

type Session struct {
	store   storage.Store
	cfg     Config
	memo    *cache.Memo[*cluster.Result]
	watcher Watcher

	mu    sync.RWMutex
	snap  *Snapshot
	stale bool
}

func NewSession(store storage.Store, cfg Config) *Session {
	return &Session{
		store: store,
		cfg:   cfg,
		memo:  cache.New[*cluster.Result](0, 4),
	}
}

// WithWatcher skips table reloads while w reports no change.
func (s *Session) WithWatcher(w Watcher) *Session {
	s.watcher = w
	return s
}

// Refresh reloads the tables and reclusters when their content changed.
func (s *Session) Refresh(ctx context.Context) error {
	if s.skipReload(ctx) {
		return nil
	}

	corpus, err := s.load(ctx)
	if err == nil {
		err = s.apply(corpus)
	}
	s.mu.Lock()
	s.stale = err != nil
	s.mu.Unlock()
	if err != nil {
		metrics.Global.SetError(err.Error())
	}
	return err
}

func (s *Session) skipReload(ctx context.Context) bool {
	s.mu.RLock()
	loaded, stale := s.snap != nil, s.stale
	s.mu.RUnlock()
	if s.watcher == nil || !loaded || stale {
		return false
	}
	changed, err := s.watcher.Changed(ctx)
	if err != nil {
		logger.Warn("version check failed, reloading", "error", err)
		return false
	}
	return !changed
}

func (s *Session) load(ctx context.Context) (article.Corpus, error) {
	var corpus article.Corpus
	for _, table := range s.cfg.Tables {
		rows, err := s.store.LoadTable(ctx, table)
		if errors.Is(err, storage.ErrTableNotFound) {
			logger.Debug("table not ingested yet", "table", table)
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("load %s: %w", table, err)
		}
		corpus = append(corpus, rows...)
	}
	return corpus, nil
}

func (s *Session) apply(corpus article.Corpus) error {
	if len(corpus) == 0 {
		return cluster.ErrEmptyCorpus
	}
	hash := corpus.Hash()
	key := s.memoKey(hash)
	result, hit, err := s.memo.GetOrCompute(key, func() (*cluster.Result, error) {
		return Cluster(corpus, s.cfg.MaxFeatures, s.cfg.Cluster)
	})
	if err != nil {
		return err
	}
	if hit {
		metrics.Global.IncrementMemoHits()
	}

	snap := &Snapshot{
		Corpus:   result.Apply(corpus),
		Result:   result,
		Hash:     hash,
		LoadedAt: time.Now(),
	}
	s.mu.Lock()
	s.snap = snap
	s.mu.Unlock()
	logger.Info("corpus loaded", "articles", len(corpus), "topics", result.K, "memo_hit", hit)
	return nil
}

// memoKey combines the corpus hash with the effective clustering settings,
// so configs that differ only in unset defaults share an entry.
func (s *Session) memoKey(hash string) string {
	maxFeatures := s.cfg.MaxFeatures
	if maxFeatures <= 0 {
		maxFeatures = vectorize.DefaultMaxFeatures
	}
	c := cluster.New(s.cfg.Cluster).Config()
	return cache.GenerateKey(hash,
		strconv.Itoa(maxFeatures),
		strconv.Itoa(c.K),
		strconv.Itoa(c.TopTerms),
		strconv.FormatInt(c.Seed, 10),
		strconv.Itoa(c.MaxIter),
		strconv.FormatFloat(c.Tolerance, 'g', -1, 64),
		strconv.Itoa(c.NInit),
	)
}

// Cluster vectorizes the cleaned snippets of corpus and clusters them.
func Cluster(corpus article.Corpus, maxFeatures int, cfg cluster.Config) (*cluster.Result, error) {
	start := time.Now()
	m, err := vectorize.New(maxFeatures).Fit(corpus.Documents())
	if err != nil {
		return nil, fmt.Errorf("vectorize: %w", err)
	}
	res, err := cluster.New(cfg).Fit(m)
	if err != nil {
		return nil, fmt.Errorf("cluster: %w", err)
	}
	metrics.Global.RecordClusterTime(time.Since(start))
	return res, nil
}

// MemoStats reports clustering memo usage.
func (s *Session) MemoStats() map[string]interface{} {
	return s.memo.GetStats()
}

// Snapshot returns the current snapshot, or nil before the first Refresh.
func (s *Session) Snapshot() *Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap
}

// View filters and sorts the current snapshot.
func (s *Session) View(spec filter.Spec) (article.Corpus, error) {
	snap := s.Snapshot()
	if snap == nil {
		return nil, ErrNotLoaded
	}
	return filter.Apply(snap.Corpus, spec), nil
}

// Default is the spec selecting everything in the current snapshot.
func (s *Session) Default() (filter.Spec, error) {
	snap := s.Snapshot()
	if snap == nil {
		return filter.Spec{}, ErrNotLoaded
	}
	return filter.Default(snap.Corpus), nil
}

// Options lists present sentiments in rank order, topics sorted by label,
// and the date bounds of the snapshot.
func (s *Session) Options() (Options, error) {
	snap := s.Snapshot()
	if snap == nil {
		return Options{}, ErrNotLoaded
	}
	spec := filter.Default(snap.Corpus)
	opts := Options{From: spec.From, To: spec.To}
	for _, l := range article.Labels() {
		if _, ok := spec.Sentiments[l]; ok {
			opts.Sentiments = append(opts.Sentiments, l)
		}
	}
	for t := range spec.Topics {
		opts.Topics = append(opts.Topics, t)
	}
	sort.Strings(opts.Topics)
	return opts, nil
}

// Topics returns the clusters of the current snapshot.
func (s *Session) Topics() ([]cluster.Topic, error) {
	snap := s.Snapshot()
	if snap == nil {
		return nil, ErrNotLoaded
	}
	return snap.Result.Topics, nil
}
