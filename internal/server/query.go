package server

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/deusflow/newslens/internal/article"
	"github.com/deusflow/newslens/internal/filter"
)

// ParseSpec reads the dashboard controls from a query string.
//
//	sentiment=Positive&sentiment=Neutral  selected sentiments
//	topic=<label>                          selected topics
//	from=2024-06-01&to=2024-06-30          inclusive date range
//	keyword=flood                          snippet substring
//	sort=date|sentiment|bias&order=asc|desc
//
// A repeated control that is absent selects everything. It selects nothing
// when the form marker filtered=1 is present or the control is given with
// only empty values. Missing dates fall back to the bounds of defaults.
func ParseSpec(q url.Values, defaults filter.Spec) (filter.Spec, error) {
	spec := filter.Spec{
		From:    defaults.From,
		To:      defaults.To,
		Keyword: strings.TrimSpace(q.Get("keyword")),
	}
	submitted := q.Get("filtered") == "1"

	if values, ok := q["sentiment"]; ok || submitted {
		spec.Sentiments = filter.LabelSet()
		for _, v := range nonEmpty(values) {
			l, ok := article.ParseLabel(v)
			if !ok {
				return spec, fmt.Errorf("unknown sentiment %q", v)
			}
			spec.Sentiments[l] = struct{}{}
		}
	}
	if values, ok := q["topic"]; ok || submitted {
		spec.Topics = filter.StringSet(nonEmpty(values)...)
	}

	var err error
	if spec.From, err = parseDate(q.Get("from"), spec.From); err != nil {
		return spec, fmt.Errorf("from: %w", err)
	}
	if spec.To, err = parseDate(q.Get("to"), spec.To); err != nil {
		return spec, fmt.Errorf("to: %w", err)
	}
	if spec.SortBy, err = filter.ParseSortKey(q.Get("sort")); err != nil {
		return spec, err
	}
	if spec.Order, err = filter.ParseOrder(q.Get("order")); err != nil {
		return spec, err
	}
	return spec, nil
}

func parseDate(raw string, fallback time.Time) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fallback, nil
	}
	return time.Parse(article.DateLayout, raw)
}

func nonEmpty(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			out = append(out, v)
		}
	}
	return out
}
