package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/deusflow/newslens/internal/cluster"
	"github.com/deusflow/newslens/internal/config"
	"github.com/deusflow/newslens/internal/dashboard"
	"github.com/deusflow/newslens/internal/logger"
	"github.com/deusflow/newslens/internal/storage"
)

var rootCmd = &cobra.Command{
	Use:           "newslens",
	Short:         "Collect news, score sentiment and explore topic clusters",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func main() {
	rootCmd.AddCommand(ingestCmd, serveCmd, queryCmd, runsCmd)
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// setup reads .env and the environment and installs the logger.
func setup() (*config.Config, error) {
	// a missing .env is fine, the environment may already be set
	_ = godotenv.Load()
	logger.Init()

	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

func openStore(ctx context.Context, cfg *config.Config) (storage.Store, error) {
	return storage.Open(ctx, storage.Options{
		Driver:        cfg.DBDriver,
		DSN:           cfg.DatabaseURL,
		RetryAttempts: cfg.RetryAttempts,
		RetryDelay:    cfg.RetryDelay,
	})
}

func newSession(cfg *config.Config, store storage.Store) *dashboard.Session {
	return dashboard.NewSession(store, dashboard.Config{
		Tables:      cfg.Tables(),
		MaxFeatures: cfg.MaxFeatures,
		Cluster: cluster.Config{
			K:        cfg.NumClusters,
			TopTerms: cfg.TopTerms,
			Seed:     cfg.ClusterSeed,
		},
	})
}
