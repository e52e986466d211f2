package cluster

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deusflow/newslens/internal/article"
	"github.com/deusflow/newslens/internal/vectorize"
)

func fit(t *testing.T, docs []string, cfg Config) *Result {
	t.Helper()
	m, err := vectorize.New(0).Fit(docs)
	require.NoError(t, err)
	res, err := New(cfg).Fit(m)
	require.NoError(t, err)
	return res
}

func TestFit_SeparatesDisjointGroups(t *testing.T) {
	docs := []string{
		"climate emissions warming",
		"climate emissions warming",
		"climate emissions warming",
		"football league goal",
		"football league goal",
		"football league goal",
	}
	res := fit(t, docs, Config{K: 2})
	require.Equal(t, 2, res.K)

	a, b := res.Assignments[0], res.Assignments[3]
	assert.NotEqual(t, a, b)
	for i := 0; i < 3; i++ {
		assert.Equal(t, a, res.Assignments[i])
		assert.Equal(t, b, res.Assignments[i+3])
	}

	assert.True(t, strings.HasPrefix(res.Label(a), fmt.Sprintf("Topic %d: climate, emissions, warming", a)), res.Label(a))
	assert.True(t, strings.HasPrefix(res.Label(b), fmt.Sprintf("Topic %d: football, goal, league", b)), res.Label(b))
	assert.Equal(t, 3, res.Topics[a].Size)
	assert.Equal(t, 3, res.Topics[b].Size)
	assert.InDelta(t, 0.0, res.Inertia, 1e-12)
}

func TestFit_LabelUsesTopTerms(t *testing.T) {
	res := fit(t, []string{"alpha beta gamma delta epsilon zeta eta"}, Config{K: 1, TopTerms: 3})
	require.Len(t, res.Topics, 1)
	assert.Len(t, res.Topics[0].Terms, 3)
	assert.Equal(t, "Topic 0: "+strings.Join(res.Topics[0].Terms, ", "), res.Label(0))
}

func TestFit_Deterministic(t *testing.T) {
	docs := []string{
		"senate passes climate bill",
		"heat wave breaks records across europe",
		"central bank raises interest rates again",
		"stocks fall as rates climb",
		"wildfires spread amid record heat",
		"lawmakers debate budget bill",
		"tech shares rally on earnings",
		"drought threatens harvest",
	}
	first := fit(t, docs, Config{K: 3, Seed: 7})
	for i := 0; i < 5; i++ {
		again := fit(t, docs, Config{K: 3, Seed: 7})
		assert.Equal(t, first.Assignments, again.Assignments)
		for id := range first.Topics {
			assert.Equal(t, first.Label(id), again.Label(id))
		}
	}
	for _, a := range first.Assignments {
		assert.GreaterOrEqual(t, a, 0)
		assert.Less(t, a, 3)
	}
}

func TestFit_ReducesKForSmallCorpus(t *testing.T) {
	res := fit(t, []string{"solar power", "wind farms"}, Config{K: 5})
	assert.Equal(t, 2, res.K)
	assert.Len(t, res.Topics, 2)
	assert.NotEqual(t, res.Assignments[0], res.Assignments[1])
}

func TestFit_EmptyMatrix(t *testing.T) {
	_, err := New(Config{}).Fit(&vectorize.Matrix{})
	assert.ErrorIs(t, err, ErrEmptyCorpus)
}

func TestNew_Defaults(t *testing.T) {
	cfg := New(Config{}).Config()
	assert.Equal(t, DefaultK, cfg.K)
	assert.Equal(t, DefaultTopTerms, cfg.TopTerms)
	assert.Equal(t, int64(DefaultSeed), cfg.Seed)
	assert.Equal(t, DefaultNInit, cfg.NInit)
}

func TestResult_Apply(t *testing.T) {
	corpus := article.Corpus{
		{Title: "a", CleanedSnippet: "solar power"},
		{Title: "b", CleanedSnippet: "wind farms"},
	}
	m, err := vectorize.New(0).Fit(corpus.Documents())
	require.NoError(t, err)
	res, err := New(Config{K: 2}).Fit(m)
	require.NoError(t, err)

	labelled := res.Apply(corpus)
	for i, a := range labelled {
		assert.Equal(t, res.Assignments[i], a.ClusterID)
		assert.Equal(t, res.Label(a.ClusterID), a.Topic)
	}
	assert.Empty(t, corpus[0].Topic, "input corpus must not be modified")
}
