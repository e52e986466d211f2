// Package source fetches raw articles from the upstream news services.
//
// A Source returns the articles it collected even when it fails part way:
// a failed page stops that source and the pages already read are kept.
// Sources fill title, date, link, snippet, source, desk and bias. Cleaning
// and sentiment scoring happen in ingest.
package source

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/deusflow/newslens/internal/article"
	"github.com/deusflow/newslens/internal/logger"
	"github.com/deusflow/newslens/internal/metrics"
)

// Source is one upstream feeding one table.
type Source interface {
	Name() string
	Table() string
	Fetch(ctx context.Context) ([]article.Article, error)
}

// StatusError is returned for non-2xx upstream responses.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("HTTP error: %d %s", e.Code, e.Body)
}

func newClient(c *http.Client, timeout time.Duration) *http.Client {
	if c != nil {
		return c
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &http.Client{Timeout: timeout}
}

// getJSON requests endpoint with params and decodes the body into out.
// Every call is counted under name in metrics.
func getJSON(ctx context.Context, client *http.Client, name, endpoint string, params url.Values, out any) error {
	start := time.Now()
	err := doGetJSON(ctx, client, endpoint, params, out)
	metrics.Global.ObserveFetch(name, time.Since(start), err)
	return err
}

func doGetJSON(ctx context.Context, client *http.Client, endpoint string, params url.Values, out any) error {
	u, err := url.Parse(endpoint)
	if err != nil {
		return fmt.Errorf("bad endpoint %q: %w", endpoint, err)
	}
	u.RawQuery = params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &StatusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// parseDate reads a timestamp's calendar date. Failures are logged and give
// the zero time.
func parseDate(name, raw string) time.Time {
	if raw == "" {
		return time.Time{}
	}
	d, err := article.ParseDate(raw)
	if err != nil {
		logger.Warn("unparsable published date", "source", name, "value", raw)
		return time.Time{}
	}
	return d
}

// StripHTML returns the visible text of an HTML fragment with whitespace collapsed.
func StripHTML(s string) string {
	if !strings.ContainsAny(s, "<&") {
		return strings.Join(strings.Fields(s), " ")
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err != nil {
		return strings.Join(strings.Fields(s), " ")
	}
	return strings.Join(strings.Fields(doc.Text()), " ")
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
