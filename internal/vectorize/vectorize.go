// Package vectorize turns a corpus of cleaned snippets into TF-IDF weighted
// sparse vectors.
//
// Weights follow the usual smoothed formulation:
//
//	idf(t) = ln((1 + n) / (1 + df(t))) + 1
//	w(d, t) = count(d, t) * idf(t)
//
// and every row is scaled to unit L2 norm. The vocabulary is fit fresh on
// each call and is fully determined by the input documents.
package vectorize

import (
	"errors"
	"math"
	"regexp"
	"sort"
	"strings"
)

// DefaultMaxFeatures caps the vocabulary when no limit is configured.
const DefaultMaxFeatures = 1000

// ErrEmptyVocabulary is returned when no term survives tokenization and stop-word removal.
var ErrEmptyVocabulary = errors.New("empty vocabulary: documents contain only stop words or no terms")

var tokenRe = regexp.MustCompile(`\b\w\w+\b`)

// Row is one document's sparse vector. Indices are ascending.
type Row struct {
	Indices []int
	Values  []float64
}

// Dense expands the row to a vector of the given width.
func (r Row) Dense(width int) []float64 {
	out := make([]float64, width)
	for i, idx := range r.Indices {
		out[idx] = r.Values[i]
	}
	return out
}

// Weight returns the weight of column idx, or zero.
func (r Row) Weight(idx int) float64 {
	i := sort.SearchInts(r.Indices, idx)
	if i < len(r.Indices) && r.Indices[i] == idx {
		return r.Values[i]
	}
	return 0
}

// Matrix is a document-by-term matrix with alphabetically ordered columns.
type Matrix struct {
	terms []string
	rows  []Row
	idf   []float64
}

// Terms returns the vocabulary in column order.
func (m *Matrix) Terms() []string { return m.terms }

// Rows returns one sparse row per input document.
func (m *Matrix) Rows() []Row { return m.rows }

// IDF returns the inverse document frequency of each column.
func (m *Matrix) IDF() []float64 { return m.idf }

// Dims reports documents and vocabulary size.
func (m *Matrix) Dims() (docs, terms int) { return len(m.rows), len(m.terms) }

// Vectorizer configures tokenization and vocabulary size.
type Vectorizer struct {
	MaxFeatures int
	StopWords   map[string]struct{}
}

// New returns a Vectorizer with English stop words and the given vocabulary cap.
// A non-positive cap means DefaultMaxFeatures.
func New(maxFeatures int) *Vectorizer {
	if maxFeatures <= 0 {
		maxFeatures = DefaultMaxFeatures
	}
	return &Vectorizer{MaxFeatures: maxFeatures, StopWords: EnglishStopWords}
}

// Tokenize lowercases text and returns the non-stop-word tokens of two or more characters.
func (v *Vectorizer) Tokenize(text string) []string {
	raw := tokenRe.FindAllString(strings.ToLower(text), -1)
	out := raw[:0]
	for _, tok := range raw {
		if _, stop := v.StopWords[tok]; stop {
			continue
		}
		out = append(out, tok)
	}
	return out
}

// Fit builds the vocabulary from docs and returns their weighted vectors.
func (v *Vectorizer) Fit(docs []string) (*Matrix, error) {
	tokens := make([][]string, len(docs))
	totals := make(map[string]int)
	df := make(map[string]int)
	for i, d := range docs {
		tokens[i] = v.Tokenize(d)
		seen := make(map[string]struct{}, len(tokens[i]))
		for _, tok := range tokens[i] {
			totals[tok]++
			if _, ok := seen[tok]; !ok {
				seen[tok] = struct{}{}
				df[tok]++
			}
		}
	}
	if len(totals) == 0 {
		return nil, ErrEmptyVocabulary
	}

	terms := v.selectTerms(totals)
	index := make(map[string]int, len(terms))
	for i, t := range terms {
		index[t] = i
	}

	n := float64(len(docs))
	idf := make([]float64, len(terms))
	for i, t := range terms {
		idf[i] = math.Log((1+n)/(1+float64(df[t]))) + 1
	}

	rows := make([]Row, len(docs))
	for i, toks := range tokens {
		rows[i] = weightRow(toks, index, idf)
	}
	return &Matrix{terms: terms, rows: rows, idf: idf}, nil
}

// selectTerms keeps the MaxFeatures most frequent terms, ties broken
// alphabetically, and returns them in alphabetical order.
func (v *Vectorizer) selectTerms(totals map[string]int) []string {
	terms := make([]string, 0, len(totals))
	for t := range totals {
		terms = append(terms, t)
	}
	limit := v.MaxFeatures
	if limit <= 0 {
		limit = DefaultMaxFeatures
	}
	if len(terms) > limit {
		sort.Slice(terms, func(i, j int) bool {
			if totals[terms[i]] != totals[terms[j]] {
				return totals[terms[i]] > totals[terms[j]]
			}
			return terms[i] < terms[j]
		})
		terms = terms[:limit]
	}
	sort.Strings(terms)
	return terms
}

func weightRow(toks []string, index map[string]int, idf []float64) Row {
	counts := make(map[int]float64)
	for _, tok := range toks {
		if idx, ok := index[tok]; ok {
			counts[idx]++
		}
	}
	if len(counts) == 0 {
		return Row{}
	}
	indices := make([]int, 0, len(counts))
	for idx := range counts {
		indices = append(indices, idx)
	}
	sort.Ints(indices)

	values := make([]float64, len(indices))
	var norm float64
	for i, idx := range indices {
		w := counts[idx] * idf[idx]
		values[i] = w
		norm += w * w
	}
	norm = math.Sqrt(norm)
	for i := range values {
		values[i] /= norm
	}
	return Row{Indices: indices, Values: values}
}
