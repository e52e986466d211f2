package source

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/deusflow/newslens/internal/article"
	"github.com/deusflow/newslens/internal/logger"
	"github.com/deusflow/newslens/internal/ratelimit"
)

const (
	NYTEndpoint = "https://api.nytimes.com/svc/search/v2/articlesearch.json"
	NYTBias     = "Center-Left"
	nytFilter   = `source:("The New York Times")`
	nytDateFmt  = "20060102"
)

type NYTConfig struct {
	APIKey   string
	Query    string
	Begin    time.Time
	End      time.Time
	MaxPages int
	// Interval is the minimum spacing between page requests.
	Interval time.Duration
	Table    string
	Endpoint string
	Timeout  time.Duration
	Client   *http.Client
}

// NYT pages through the Article Search API, newest first.
type NYT struct {
	cfg    NYTConfig
	client *http.Client
	pacer  *ratelimit.Pacer
}

func NewNYT(cfg NYTConfig) *NYT {
	if cfg.Endpoint == "" {
		cfg.Endpoint = NYTEndpoint
	}
	if cfg.Table == "" {
		cfg.Table = "nyt_articles"
	}
	return &NYT{
		cfg:    cfg,
		client: newClient(cfg.Client, cfg.Timeout),
		pacer:  ratelimit.NewPacer("nyt", cfg.Interval),
	}
}

func (n *NYT) Name() string  { return "nyt" }
func (n *NYT) Table() string { return n.cfg.Table }

type nytResponse struct {
	Response struct {
		Docs []nytDoc `json:"docs"`
	} `json:"response"`
}

type nytDoc struct {
	Headline struct {
		Main string `json:"main"`
	} `json:"headline"`
	PubDate  string `json:"pub_date"`
	WebURL   string `json:"web_url"`
	Snippet  string `json:"snippet"`
	Source   string `json:"source"`
	NewsDesk string `json:"news_desk"`
}

// Fetch reads pages until one comes back empty or MaxPages is reached.
func (n *NYT) Fetch(ctx context.Context) ([]article.Article, error) {
	budget := ratelimit.NewBudget(n.Name(), n.cfg.MaxPages)
	var out []article.Article
	for page := 0; ; page++ {
		if err := budget.Take(); errors.Is(err, ratelimit.ErrBudgetExhausted) {
			break
		}
		if err := n.pacer.Wait(ctx); err != nil {
			return out, err
		}

		docs, err := n.fetchPage(ctx, page)
		if err != nil {
			logger.Error("NYT request failed", "page", page, "error", err)
			return out, fmt.Errorf("nyt page %d: %w", page, err)
		}
		if len(docs) == 0 {
			logger.Warn("no more NYT articles", "page", page)
			break
		}
		for _, d := range docs {
			out = append(out, article.Article{
				Title:     d.Headline.Main,
				Published: parseDate(n.Name(), d.PubDate),
				URL:       d.WebURL,
				Snippet:   d.Snippet,
				Source:    firstNonEmpty(d.Source, "NYT"),
				Desk:      d.NewsDesk,
				Bias:      NYTBias,
			})
		}
		logger.Info("NYT page fetched", "page", page, "articles", len(docs))
	}
	logger.Debug("NYT budget", "stats", budget.GetStats())
	return out, nil
}

func (n *NYT) fetchPage(ctx context.Context, page int) ([]nytDoc, error) {
	params := url.Values{}
	params.Set("q", n.cfg.Query)
	params.Set("api-key", n.cfg.APIKey)
	params.Set("sort", "newest")
	if !n.cfg.Begin.IsZero() {
		params.Set("begin_date", n.cfg.Begin.Format(nytDateFmt))
	}
	if !n.cfg.End.IsZero() {
		params.Set("end_date", n.cfg.End.Format(nytDateFmt))
	}
	params.Set("page", strconv.Itoa(page))
	params.Set("fq", nytFilter)

	var resp nytResponse
	if err := getJSON(ctx, n.client, n.Name(), n.cfg.Endpoint, params, &resp); err != nil {
		return nil, err
	}
	return resp.Response.Docs, nil
}
