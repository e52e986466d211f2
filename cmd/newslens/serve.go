package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/deusflow/newslens/internal/dashboard"
	"github.com/deusflow/newslens/internal/events"
	"github.com/deusflow/newslens/internal/logger"
	"github.com/deusflow/newslens/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the filterable dashboard, JSON API, health and metrics",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := setup()
		if err != nil {
			return err
		}
		if !cfg.Debug {
			gin.SetMode(gin.ReleaseMode)
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		store, err := openStore(ctx, cfg)
		if err != nil {
			return err
		}
		defer store.Close()

		session := newSession(cfg, store)
		if cfg.RedisAddr != "" {
			if rdb, err := events.Connect(ctx, cfg.RedisAddr); err != nil {
				logger.Warn("redis unavailable, reloading tables on every request", "error", err)
			} else {
				defer rdb.Close()
				session.WithWatcher(events.NewWatcher(rdb))
				go reloadOnPublish(ctx, session, events.Subscribe(ctx, rdb))
			}
		}
		if err := session.Refresh(ctx); err != nil {
			logger.Warn("initial load failed, dashboard will retry per request", "error", err)
		}

		return server.New(session, cfg.RequestTimeout).Run(ctx, cfg.HTTPAddr)
	},
}

// reloadOnPublish refreshes the session as soon as an ingestion run
// announces a saved table, so the first request after it is served warm.
func reloadOnPublish(ctx context.Context, session *dashboard.Session, tables <-chan string) {
	for table := range tables {
		if err := session.Refresh(ctx); err != nil {
			logger.Warn("reload after ingest failed", "table", table, "error", err)
			continue
		}
		logger.Info("reloaded after ingest", "table", table)
	}
}
