package source

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/deusflow/newslens/internal/article"
	"github.com/deusflow/newslens/internal/logger"
)

const (
	GNewsEndpoint = "https://gnews.io/api/v4/search"
	GNewsBias     = "Mixed"
	GNewsDesk     = "GNews"
)

type GNewsConfig struct {
	APIKey string
	Query  string
	// From and To bound the search when set. To is inclusive.
	From     time.Time
	To       time.Time
	Max      int
	Table    string
	Endpoint string
	Timeout  time.Duration
	Client   *http.Client
}

// GNews makes a single search request.
type GNews struct {
	cfg    GNewsConfig
	client *http.Client
}

func NewGNews(cfg GNewsConfig) *GNews {
	if cfg.Endpoint == "" {
		cfg.Endpoint = GNewsEndpoint
	}
	if cfg.Table == "" {
		cfg.Table = "gnews_articles"
	}
	if cfg.Max <= 0 {
		cfg.Max = 50
	}
	return &GNews{cfg: cfg, client: newClient(cfg.Client, cfg.Timeout)}
}

func (g *GNews) Name() string  { return "gnews" }
func (g *GNews) Table() string { return g.cfg.Table }

type gnewsResponse struct {
	Articles []struct {
		Title       string `json:"title"`
		Description string `json:"description"`
		PublishedAt string `json:"publishedAt"`
		URL         string `json:"url"`
		Source      struct {
			Name string `json:"name"`
		} `json:"source"`
	} `json:"articles"`
}

func (g *GNews) Fetch(ctx context.Context) ([]article.Article, error) {
	params := url.Values{}
	params.Set("q", g.cfg.Query)
	params.Set("lang", "en")
	params.Set("max", strconv.Itoa(g.cfg.Max))
	params.Set("apikey", g.cfg.APIKey)
	if !g.cfg.From.IsZero() {
		params.Set("from", g.cfg.From.UTC().Format(time.RFC3339))
	}
	if !g.cfg.To.IsZero() {
		params.Set("to", g.cfg.To.UTC().Add(24*time.Hour-time.Second).Format(time.RFC3339))
	}

	var resp gnewsResponse
	if err := getJSON(ctx, g.client, g.Name(), g.cfg.Endpoint, params, &resp); err != nil {
		logger.Error("GNews request failed", "error", err)
		return nil, fmt.Errorf("gnews: %w", err)
	}

	out := make([]article.Article, 0, len(resp.Articles))
	for _, a := range resp.Articles {
		out = append(out, article.Article{
			Title:     a.Title,
			Published: parseDate(g.Name(), a.PublishedAt),
			URL:       a.URL,
			Snippet:   StripHTML(a.Description),
			Source:    firstNonEmpty(a.Source.Name, "GNews"),
			Desk:      GNewsDesk,
			Bias:      GNewsBias,
		})
	}
	if len(out) == 0 {
		logger.Warn("GNews returned no articles")
	} else {
		logger.Info("GNews fetched", "articles", len(out))
	}
	return out, nil
}
