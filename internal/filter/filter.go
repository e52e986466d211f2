// Package filter narrows and orders a clustered corpus for display.
//
// All active criteria must hold for an article to be kept. A nil set leaves
// its criterion inactive, while an empty non-nil set matches nothing, which
// is what a multi-select with every option cleared means.
package filter

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/deusflow/newslens/internal/article"
)

// SortKey names the column results are ordered by.
type SortKey string

const (
	SortDate      SortKey = "date"
	SortSentiment SortKey = "sentiment"
	SortBias      SortKey = "bias"
)

// Order is the sort direction.
type Order string

const (
	Asc  Order = "asc"
	Desc Order = "desc"
)

// ParseSortKey validates a user supplied sort key. "" means date.
func ParseSortKey(s string) (SortKey, error) {
	switch SortKey(strings.ToLower(strings.TrimSpace(s))) {
	case "", SortDate, "published_date":
		return SortDate, nil
	case SortSentiment:
		return SortSentiment, nil
	case SortBias:
		return SortBias, nil
	}
	return "", fmt.Errorf("unknown sort key %q (want date, sentiment or bias)", s)
}

// ParseOrder validates a sort direction. "" means descending.
func ParseOrder(s string) (Order, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "desc", "descending":
		return Desc, nil
	case "asc", "ascending":
		return Asc, nil
	}
	return "", fmt.Errorf("unknown sort order %q (want asc or desc)", s)
}

// Spec holds the user's filter and sort selection.
type Spec struct {
	Sentiments map[article.Label]struct{}
	From       time.Time
	To         time.Time
	Keyword    string
	Topics     map[string]struct{}
	SortBy     SortKey
	Order      Order
}

// LabelSet builds a sentiment selection. Called with no labels it returns
// an empty, non-nil set.
func LabelSet(labels ...article.Label) map[article.Label]struct{} {
	set := make(map[article.Label]struct{}, len(labels))
	for _, l := range labels {
		set[l] = struct{}{}
	}
	return set
}

// StringSet builds a topic selection. Called with no values it returns an
// empty, non-nil set.
func StringSet(values ...string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}
	return set
}

// Default selects every sentiment and topic present in c over its full date
// range, newest first.
func Default(c article.Corpus) Spec {
	spec := Spec{
		Sentiments: LabelSet(),
		Topics:     StringSet(),
		SortBy:     SortDate,
		Order:      Desc,
	}
	for _, a := range c {
		spec.Sentiments[a.Sentiment] = struct{}{}
		spec.Topics[a.Topic] = struct{}{}
		if a.Published.IsZero() {
			continue
		}
		if spec.From.IsZero() || a.Published.Before(spec.From) {
			spec.From = a.Published
		}
		if spec.To.IsZero() || a.Published.After(spec.To) {
			spec.To = a.Published
		}
	}
	return spec
}

// Match reports whether a passes every active criterion.
func (s Spec) Match(a article.Article) bool {
	if s.Sentiments != nil {
		if _, ok := s.Sentiments[a.Sentiment]; !ok {
			return false
		}
	}
	if !s.From.IsZero() && a.Published.Before(day(s.From)) {
		return false
	}
	if !s.To.IsZero() && a.Published.After(day(s.To)) {
		return false
	}
	if s.Topics != nil {
		if _, ok := s.Topics[a.Topic]; !ok {
			return false
		}
	}
	if s.Keyword != "" && !strings.Contains(strings.ToLower(a.CleanedSnippet), strings.ToLower(s.Keyword)) {
		return false
	}
	return true
}

// Apply returns the articles of c matching spec, stably sorted by
// spec.SortBy. The input is left untouched.
func Apply(c article.Corpus, spec Spec) article.Corpus {
	out := make(article.Corpus, 0, len(c))
	if !spec.From.IsZero() && !spec.To.IsZero() && day(spec.From).After(day(spec.To)) {
		return out
	}
	for _, a := range c {
		if spec.Match(a) {
			out = append(out, a)
		}
	}

	less := lessFunc(spec.SortBy)
	desc := spec.Order == Desc
	sort.SliceStable(out, func(i, j int) bool {
		if desc {
			return less(out[j], out[i])
		}
		return less(out[i], out[j])
	})
	return out
}

func lessFunc(key SortKey) func(a, b article.Article) bool {
	switch key {
	case SortSentiment:
		return func(a, b article.Article) bool { return a.Sentiment.Rank() < b.Sentiment.Rank() }
	case SortBias:
		return func(a, b article.Article) bool { return a.Bias < b.Bias }
	default:
		return func(a, b article.Article) bool { return a.Published.Before(b.Published) }
	}
}

// day truncates t to its UTC calendar date so bounds compare by date only.
func day(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
