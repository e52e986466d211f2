package source

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/mmcdole/gofeed"

	"github.com/deusflow/newslens/internal/article"
	"github.com/deusflow/newslens/internal/config"
	"github.com/deusflow/newslens/internal/logger"
	"github.com/deusflow/newslens/internal/metrics"
)

const FeedDesk = "RSS"

// Feeds reads a list of RSS/Atom feeds into one table. A broken feed is
// logged and skipped. Its error is reported once all feeds were read.
type Feeds struct {
	feeds  []config.Feed
	table  string
	parser *gofeed.Parser
}

func NewFeeds(feeds []config.Feed, table string, timeout time.Duration) *Feeds {
	if table == "" {
		table = "feed_articles"
	}
	parser := gofeed.NewParser()
	parser.Client = newClient(nil, timeout)
	return &Feeds{feeds: feeds, table: table, parser: parser}
}

// WithClient swaps the HTTP client used to download feeds.
func (f *Feeds) WithClient(c *http.Client) *Feeds {
	f.parser.Client = c
	return f
}

func (f *Feeds) Name() string  { return "feeds" }
func (f *Feeds) Table() string { return f.table }

func (f *Feeds) Fetch(ctx context.Context) ([]article.Article, error) {
	var out []article.Article
	var errs []error
	ok := 0
	for _, feed := range f.feeds {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}

		start := time.Now()
		parsed, err := f.parser.ParseURLWithContext(feed.URL, ctx)
		metrics.Global.ObserveFetch(f.Name(), time.Since(start), err)
		if err != nil {
			logger.Error("feed failed", "feed", feed.Name, "url", feed.URL, "error", err)
			errs = append(errs, fmt.Errorf("feed %s: %w", feed.Name, err))
			continue
		}

		for _, item := range parsed.Items {
			out = append(out, fromItem(feed, item))
		}
		ok++
		logger.Info("feed fetched", "feed", feed.Name, "articles", len(parsed.Items))
	}

	logger.Info("feeds processed", "ok", ok, "total", len(f.feeds))
	return out, errors.Join(errs...)
}

func fromItem(feed config.Feed, item *gofeed.Item) article.Article {
	a := article.Article{
		Title:   StripHTML(item.Title),
		URL:     item.Link,
		Snippet: StripHTML(firstNonEmpty(item.Description, item.Content)),
		Source:  feed.Name,
		Desk:    FeedDesk,
		Bias:    feed.Bias,
	}
	if len(item.Categories) > 0 {
		a.Desk = item.Categories[0]
	}
	switch {
	case item.PublishedParsed != nil:
		a.Published = truncateDate(*item.PublishedParsed)
	case item.UpdatedParsed != nil:
		a.Published = truncateDate(*item.UpdatedParsed)
	default:
		a.Published = parseDate(feed.Name, item.Published)
	}
	return a
}

func truncateDate(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
