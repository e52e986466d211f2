// Package article holds the record shared by ingestion, storage and the dashboard.
package article

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"
	"time"
)

// DateLayout is the calendar-date format used in storage and on the wire.
const DateLayout = "2006-01-02"

// Label is the three-way sentiment label derived from a compound score.
type Label string

const (
	Positive Label = "Positive"
	Negative Label = "Negative"
	Neutral  Label = "Neutral"
)

// Thresholds for LabelFor.
const (
	PositiveThreshold = 0.05
	NegativeThreshold = -0.05
)

// LabelFor maps a compound score to its label.
func LabelFor(score float64) Label {
	switch {
	case score > PositiveThreshold:
		return Positive
	case score < NegativeThreshold:
		return Negative
	default:
		return Neutral
	}
}

// Rank orders labels Negative < Neutral < Positive. Unknown labels sort first.
func (l Label) Rank() int {
	switch l {
	case Negative:
		return 1
	case Neutral:
		return 2
	case Positive:
		return 3
	}
	return 0
}

// ParseLabel accepts a label in any letter case.
func ParseLabel(s string) (Label, bool) {
	for _, l := range Labels() {
		if strings.EqualFold(string(l), strings.TrimSpace(s)) {
			return l, true
		}
	}
	return "", false
}

// Labels returns all labels in rank order.
func Labels() []Label {
	return []Label{Negative, Neutral, Positive}
}

// Article is one stored news item. ClusterID and Topic are filled after clustering.
type Article struct {
	Title          string    `json:"title"`
	Published      time.Time `json:"published_date"`
	URL            string    `json:"url"`
	Snippet        string    `json:"snippet"`
	CleanedSnippet string    `json:"cleaned_snippet"`
	Source         string    `json:"source"`
	Desk           string    `json:"news_desk"`
	Sentiment      Label     `json:"sentiment"`
	SentimentScore float64   `json:"sentiment_score"`
	Bias           string    `json:"bias"`

	ClusterID int    `json:"cluster_id"`
	Topic     string `json:"topic_cluster,omitempty"`
}

// PublishedDate formats Published as YYYY-MM-DD, or "" for the zero time.
func (a Article) PublishedDate() string {
	if a.Published.IsZero() {
		return ""
	}
	return a.Published.Format(DateLayout)
}

// ParseDate reads the first ten characters of a timestamp as a calendar date in UTC.
func ParseDate(s string) (time.Time, error) {
	if len(s) > len(DateLayout) {
		s = s[:len(DateLayout)]
	}
	return time.Parse(DateLayout, s)
}

// Corpus is an ordered set of articles sharing one clustering run.
type Corpus []Article

// Documents returns the cleaned snippets in corpus order.
func (c Corpus) Documents() []string {
	docs := make([]string, len(c))
	for i, a := range c {
		docs[i] = a.CleanedSnippet
	}
	return docs
}

// Hash is a content hash over the persisted fields of every row, in order.
// Cluster assignments are not part of it.
func (c Corpus) Hash() string {
	h := sha256.New()
	for _, a := range c {
		for _, f := range []string{
			a.Title, a.PublishedDate(), a.URL, a.Snippet, a.CleanedSnippet,
			a.Source, a.Desk, string(a.Sentiment),
			strconv.FormatFloat(a.SentimentScore, 'g', -1, 64), a.Bias,
		} {
			h.Write([]byte(f))
			h.Write([]byte{0})
		}
		h.Write([]byte{'\n'})
	}
	return hex.EncodeToString(h.Sum(nil))
}

// Clone returns a copy that can be labelled without touching the receiver.
func (c Corpus) Clone() Corpus {
	out := make(Corpus, len(c))
	copy(out, c)
	return out
}
