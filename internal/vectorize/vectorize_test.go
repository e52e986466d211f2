package vectorize

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFit_VocabularyAndWeights(t *testing.T) {
	docs := []string{
		"Climate policy climate",
		"Economy policy",
		"",
	}
	m, err := New(0).Fit(docs)
	require.NoError(t, err)

	assert.Equal(t, []string{"climate", "economy", "policy"}, m.Terms())
	n, terms := m.Dims()
	assert.Equal(t, 3, n)
	assert.Equal(t, 3, terms)

	// idf = ln((1+3)/(1+df)) + 1
	idfClimate := math.Log(4.0/2.0) + 1
	idfPolicy := math.Log(4.0/3.0) + 1
	assert.InDelta(t, idfClimate, m.IDF()[0], 1e-12)
	assert.InDelta(t, idfPolicy, m.IDF()[2], 1e-12)

	row := m.Rows()[0]
	assert.Equal(t, []int{0, 2}, row.Indices)
	wc, wp := 2*idfClimate, idfPolicy
	norm := math.Sqrt(wc*wc + wp*wp)
	assert.InDelta(t, wc/norm, row.Weight(0), 1e-12)
	assert.InDelta(t, wp/norm, row.Weight(2), 1e-12)
	assert.Equal(t, 0.0, row.Weight(1))

	assert.Empty(t, m.Rows()[2].Indices)
}

func TestFit_RowsAreUnitLength(t *testing.T) {
	m, err := New(0).Fit([]string{"floods hit coastal towns", "coastal towns rebuild after floods floods"})
	require.NoError(t, err)
	for _, r := range m.Rows() {
		var sum float64
		for _, v := range r.Values {
			sum += v * v
		}
		assert.InDelta(t, 1.0, sum, 1e-9)
	}
}

func TestFit_StopWordsExcludedAndLowercased(t *testing.T) {
	m, err := New(0).Fit([]string{"The Senate and THE House", "a b c senate"})
	require.NoError(t, err)
	assert.Equal(t, []string{"house", "senate"}, m.Terms())
}

func TestFit_MaxFeaturesKeepsMostFrequent(t *testing.T) {
	docs := []string{"alpha alpha alpha beta beta gamma", "delta alpha beta"}
	m, err := New(2).Fit(docs)
	require.NoError(t, err)
	assert.Equal(t, []string{"alpha", "beta"}, m.Terms())

	// gamma and delta tie on count; alphabetical order decides.
	m, err = New(3).Fit(docs)
	require.NoError(t, err)
	assert.Equal(t, []string{"alpha", "beta", "delta"}, m.Terms())
}

func TestFit_EmptyVocabulary(t *testing.T) {
	_, err := New(0).Fit([]string{"", "the and of", "a"})
	assert.True(t, errors.Is(err, ErrEmptyVocabulary))

	_, err = New(0).Fit(nil)
	assert.ErrorIs(t, err, ErrEmptyVocabulary)
}

func TestFit_Deterministic(t *testing.T) {
	docs := []string{"markets rally on rate cut hopes", "rate cut fuels market rally", "storm floods city"}
	a, err := New(0).Fit(docs)
	require.NoError(t, err)
	b, err := New(0).Fit(docs)
	require.NoError(t, err)
	assert.Equal(t, a.Terms(), b.Terms())
	assert.Equal(t, a.Rows(), b.Rows())
}

func TestRowDense(t *testing.T) {
	r := Row{Indices: []int{1, 3}, Values: []float64{0.6, 0.8}}
	assert.Equal(t, []float64{0, 0.6, 0, 0.8}, r.Dense(4))
}
