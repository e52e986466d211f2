// Package sentiment scores text polarity with the VADER lexicon and rule
// heuristic and derives the three-way article label.
package sentiment

import (
	"strings"

	"github.com/jonreiter/govader"

	"github.com/deusflow/newslens/internal/article"
)

// Scores are the proportions of positive, negative and neutral weight plus
// the normalised compound score in [-1, 1].
type Scores struct {
	Positive float64
	Negative float64
	Neutral  float64
	Compound float64
}

// Analyzer wraps a VADER analyzer loaded with the full lexicon. It is safe
// for concurrent use after construction.
type Analyzer struct {
	vader *govader.SentimentIntensityAnalyzer
}

// New builds an Analyzer. Loading the lexicon takes a few milliseconds, so
// build one and share it.
func New() *Analyzer {
	return &Analyzer{vader: govader.NewSentimentIntensityAnalyzer()}
}

// Classify returns the compound score and its label.
func (a *Analyzer) Classify(text string) (float64, article.Label) {
	s := a.Score(text)
	return s.Compound, article.LabelFor(s.Compound)
}

// Score computes polarity scores for text. Blank text scores zero.
func (a *Analyzer) Score(text string) Scores {
	if strings.TrimSpace(text) == "" {
		return Scores{}
	}
	s := a.vader.PolarityScores(text)
	return Scores{
		Positive: s.Positive,
		Negative: s.Negative,
		Neutral:  s.Neutral,
		Compound: s.Compound,
	}
}
