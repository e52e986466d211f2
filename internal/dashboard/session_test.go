package dashboard

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deusflow/newslens/internal/article"
	"github.com/deusflow/newslens/internal/cluster"
	"github.com/deusflow/newslens/internal/filter"
	"github.com/deusflow/newslens/internal/metrics"
	"github.com/deusflow/newslens/internal/storage"
)

type staticWatcher struct {
	changed bool
	calls   int
}

func (w *staticWatcher) Changed(context.Context) (bool, error) {
	w.calls++
	return w.changed, nil
}

func row(title, date, snippet string, score float64, bias string) article.Article {
	d, _ := article.ParseDate(date)
	return article.Article{
		Title:          title,
		Published:      d,
		URL:            "https://example.com/" + title,
		Snippet:        snippet + ".",
		CleanedSnippet: snippet,
		Source:         "Test",
		Desk:           "World",
		Sentiment:      article.LabelFor(score),
		SentimentScore: score,
		Bias:           bias,
	}
}

func seed(t *testing.T) (storage.Store, *Session) {
	t.Helper()
	ctx := context.Background()
	store, err := storage.NewFileStore(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, store.ReplaceTable(ctx, "nyt_articles", []article.Article{
		row("n1", "2024-06-02", "climate emissions warming", 0.4, "Center-Left"),
		row("n2", "2024-06-04", "climate emissions warming", -0.3, "Center-Left"),
		row("n3", "2024-06-06", "climate emissions warming", 0.0, "Center-Left"),
	}))
	require.NoError(t, store.ReplaceTable(ctx, "gnews_articles", []article.Article{
		row("g1", "2024-06-03", "football league goal", 0.4, "Mixed"),
		row("g2", "2024-06-05", "football league goal", 0.4, "Mixed"),
	}))

	s := NewSession(store, Config{
		Tables:  []string{"nyt_articles", "gnews_articles", "feed_articles"},
		Cluster: cluster.Config{K: 2},
	})
	return store, s
}

func TestSession_RefreshClustersCombinedCorpus(t *testing.T) {
	_, s := seed(t)
	require.NoError(t, s.Refresh(context.Background()))

	snap := s.Snapshot()
	require.NotNil(t, snap)
	require.Len(t, snap.Corpus, 5)
	assert.Equal(t, 2, snap.Result.K)

	byTitle := map[string]article.Article{}
	for _, a := range snap.Corpus {
		byTitle[a.Title] = a
		assert.True(t, strings.HasPrefix(a.Topic, "Topic "))
	}
	assert.Equal(t, byTitle["n1"].ClusterID, byTitle["n3"].ClusterID)
	assert.Equal(t, byTitle["g1"].ClusterID, byTitle["g2"].ClusterID)
	assert.NotEqual(t, byTitle["n1"].ClusterID, byTitle["g1"].ClusterID)
}

func TestSession_MemoisesBySnapshotHash(t *testing.T) {
	ctx := context.Background()
	store, s := seed(t)
	require.NoError(t, s.Refresh(ctx))
	first := s.Snapshot()

	require.NoError(t, s.Refresh(ctx))
	second := s.Snapshot()
	assert.Equal(t, first.Hash, second.Hash)
	assert.Same(t, first.Result, second.Result)
	assert.Equal(t, 1, s.MemoStats()["hits"])

	require.NoError(t, store.ReplaceTable(ctx, "gnews_articles", []article.Article{
		row("g3", "2024-06-07", "football league goal", 0.4, "Mixed"),
	}))
	require.NoError(t, s.Refresh(ctx))
	third := s.Snapshot()
	assert.NotEqual(t, first.Hash, third.Hash)
	assert.NotSame(t, first.Result, third.Result)
	assert.Len(t, third.Corpus, 4)
}

func TestSession_WatcherSkipsReload(t *testing.T) {
	ctx := context.Background()
	store, s := seed(t)
	w := &staticWatcher{}
	s.WithWatcher(w)

	require.NoError(t, s.Refresh(ctx))
	assert.Equal(t, 0, w.calls, "first load ignores the watcher")

	require.NoError(t, store.ReplaceTable(ctx, "nyt_articles", nil))
	require.NoError(t, s.Refresh(ctx))
	assert.Equal(t, 1, w.calls)
	assert.Len(t, s.Snapshot().Corpus, 5, "unchanged version keeps the snapshot")

	w.changed = true
	require.NoError(t, s.Refresh(ctx))
	assert.Len(t, s.Snapshot().Corpus, 2)
}

func TestSession_ViewAndOptions(t *testing.T) {
	_, s := seed(t)
	_, err := s.View(filter.Spec{})
	assert.ErrorIs(t, err, ErrNotLoaded)

	require.NoError(t, s.Refresh(context.Background()))

	opts, err := s.Options()
	require.NoError(t, err)
	assert.Equal(t, []article.Label{article.Negative, article.Neutral, article.Positive}, opts.Sentiments)
	assert.Len(t, opts.Topics, 2)
	assert.Equal(t, "2024-06-02", opts.From.Format(article.DateLayout))
	assert.Equal(t, "2024-06-06", opts.To.Format(article.DateLayout))

	rows, err := s.View(filter.Spec{
		Sentiments: filter.LabelSet(article.Positive),
		SortBy:     filter.SortDate,
		Order:      filter.Desc,
	})
	require.NoError(t, err)
	var titles []string
	for _, a := range rows {
		titles = append(titles, a.Title)
	}
	assert.Equal(t, []string{"g2", "g1", "n1"}, titles)

	spec, err := s.Default()
	require.NoError(t, err)
	all, err := s.View(spec)
	require.NoError(t, err)
	assert.Len(t, all, 5)

	topics, err := s.Topics()
	require.NoError(t, err)
	assert.Len(t, topics, 2)
}

func TestSession_EmptyStore(t *testing.T) {
	store, err := storage.NewFileStore(t.TempDir())
	require.NoError(t, err)
	s := NewSession(store, Config{Tables: []string{"nyt_articles"}})
	assert.ErrorIs(t, s.Refresh(context.Background()), cluster.ErrEmptyCorpus)
	assert.Nil(t, s.Snapshot())

	stats := metrics.Global.GetStats()
	assert.Equal(t, cluster.ErrEmptyCorpus.Error(), stats["last_error"])
	assert.Equal(t, false, stats["is_healthy"])
}

func TestWriteTableAndDetails(t *testing.T) {
	rows := article.Corpus{row("Heat wave", "2024-06-10", "record heat", 0.0, "Mixed")}
	rows[0].Topic = "Topic 1: heat, record"

	var buf bytes.Buffer
	require.NoError(t, WriteTable(&buf, rows))
	out := buf.String()
	assert.Contains(t, out, "Showing 1 Articles")
	assert.Contains(t, out, "2024-06-10")
	assert.Contains(t, out, "Topic 1: heat, record")

	buf.Reset()
	require.NoError(t, WriteDetails(&buf, rows))
	out = buf.String()
	assert.Contains(t, out, "Heat wave (2024-06-10) | Topic 1: heat, record")
	assert.Contains(t, out, "Source: Test | News Desk: World")
	assert.Contains(t, out, "Read: https://example.com/Heat wave")
}

func TestCluster_PropagatesVectorizeError(t *testing.T) {
	_, err := Cluster(article.Corpus{{CleanedSnippet: "the and of"}}, 0, cluster.Config{})
	assert.Error(t, err)
}

func TestSession_MemoKeyUsesEffectiveSettings(t *testing.T) {
	keyFor := func(cfg Config) string { return NewSession(nil, cfg).memoKey("h") }

	implicit := keyFor(Config{})
	explicit := keyFor(Config{MaxFeatures: 1000, Cluster: cluster.Config{K: 5, TopTerms: 5, Seed: 42}})
	assert.Equal(t, implicit, explicit)

	assert.NotEqual(t, explicit, keyFor(Config{Cluster: cluster.Config{TopTerms: 3}}))
	assert.NotEqual(t, explicit, keyFor(Config{Cluster: cluster.Config{Seed: 7}}))
	assert.NotEqual(t, implicit, NewSession(nil, Config{}).memoKey("other"))
}
