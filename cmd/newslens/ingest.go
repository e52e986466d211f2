package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/deusflow/newslens/internal/config"
	"github.com/deusflow/newslens/internal/events"
	"github.com/deusflow/newslens/internal/ingest"
	"github.com/deusflow/newslens/internal/logger"
	"github.com/deusflow/newslens/internal/sentiment"
	"github.com/deusflow/newslens/internal/source"
)

var strictIngest bool

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Fetch articles from every configured source and replace their tables",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := setup()
		if err != nil {
			return err
		}
		if err := cfg.ValidateIngest(); err != nil {
			return err
		}
		ctx := cmd.Context()

		store, err := openStore(ctx, cfg)
		if err != nil {
			// persistence failures are reported, not fatal
			logger.Error("database unavailable, nothing saved", "error", err)
			if strictIngest {
				return err
			}
			return nil
		}
		defer store.Close()

		runner := ingest.NewRunner(store, sentiment.New(), sources(cfg)...)
		if cfg.RedisAddr != "" {
			if rdb, err := events.Connect(ctx, cfg.RedisAddr); err != nil {
				logger.Warn("redis unavailable, dashboards will reload on every refresh", "error", err)
			} else {
				defer rdb.Close()
				runner.WithPublisher(events.NewPublisher(rdb))
			}
		}

		report := runner.Run(ctx)
		for _, res := range report.Results {
			fmt.Fprintf(cmd.OutOrStdout(), "%-6s %-16s %4d articles  saved=%t\n", res.Source, res.Table, res.Articles, res.Saved)
		}
		if err := report.Err(); err != nil && strictIngest {
			return err
		}
		return nil
	},
}

func init() {
	ingestCmd.Flags().BoolVar(&strictIngest, "strict", false, "exit non-zero when any source or save failed")
}

func sources(cfg *config.Config) []source.Source {
	var out []source.Source
	if cfg.NYTAPIKey != "" {
		out = append(out, source.NewNYT(source.NYTConfig{
			APIKey:   cfg.NYTAPIKey,
			Query:    cfg.Query,
			Begin:    cfg.BeginDate,
			End:      cfg.EndDate,
			MaxPages: cfg.NYTMaxPages,
			Interval: cfg.NYTRequestInterval,
			Table:    cfg.NYTTable,
			Timeout:  cfg.RequestTimeout,
		}))
	} else {
		logger.Warn("NYT_API_KEY not set, skipping NYT")
	}
	if cfg.GNewsAPIKey != "" {
		out = append(out, source.NewGNews(source.GNewsConfig{
			APIKey:  cfg.GNewsAPIKey,
			Query:   cfg.Query,
			From:    cfg.BeginDate,
			To:      cfg.EndDate,
			Max:     cfg.GNewsMax,
			Table:   cfg.GNewsTable,
			Timeout: cfg.RequestTimeout,
		}))
	} else {
		logger.Warn("GNEWS_API_KEY not set, skipping GNews")
	}
	if len(cfg.Feeds) > 0 {
		out = append(out, source.NewFeeds(cfg.Feeds, cfg.FeedTable, cfg.RequestTimeout))
	}
	return out
}
