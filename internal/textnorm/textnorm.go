// Package textnorm cleans raw snippets before scoring and vectorizing.
package textnorm

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	urlRe        = regexp.MustCompile(`http\S+|www\S+|https\S+`)
	nonAlphaRe   = regexp.MustCompile(`[^a-zA-Z\s]`)
	whitespaceRe = regexp.MustCompile(`\s+`)
)

// Normalize strips URLs and every character outside the English alphabet and
// whitespace, then collapses whitespace runs. Letter case is kept.
// Accented Latin letters fold to their base letter instead of being dropped.
func Normalize(raw string) string {
	if raw == "" {
		return ""
	}
	text := urlRe.ReplaceAllString(raw, "")
	text = foldAccents(text)
	text = nonAlphaRe.ReplaceAllString(text, "")
	text = whitespaceRe.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}

func foldAccents(s string) string {
	t := transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}
