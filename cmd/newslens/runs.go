package main

import (
	"fmt"
	"io"
	"net/url"
	"regexp"

	"github.com/spf13/cobra"

	"github.com/deusflow/newslens/internal/storage"
)

var runsLimit int

var passwordRe = regexp.MustCompile(`(?i)(password\s*=\s*)('[^']*'|\S+)`)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Check the database connection and list recent table replaces",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := setup()
		if err != nil {
			return err
		}
		ctx := cmd.Context()

		store, err := openStore(ctx, cfg)
		if err != nil {
			return fmt.Errorf("connect %s %s: %w", cfg.DBDriver, maskDSN(cfg.DatabaseURL), err)
		}
		defer store.Close()

		runs, err := store.Runs(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Connected to %s (%s)\n", cfg.DBDriver, maskDSN(cfg.DatabaseURL))
		writeRuns(cmd.OutOrStdout(), runs, runsLimit)
		return nil
	},
}

func init() {
	runsCmd.Flags().IntVar(&runsLimit, "limit", 10, "number of most recent runs to show (0 for all)")
}

// writeRuns prints the newest limit runs, newest first.
func writeRuns(w io.Writer, runs []storage.Run, limit int) {
	if len(runs) == 0 {
		fmt.Fprintln(w, "  (no ingest runs recorded yet)")
		return
	}
	start := 0
	if limit > 0 && len(runs) > limit {
		start = len(runs) - limit
	}
	for i := len(runs) - 1; i >= start; i-- {
		r := runs[i]
		fmt.Fprintf(w, "  %s  %-16s rows=%-4d replaced=%-4d %s\n",
			r.CreatedAt.Format("2006-01-02 15:04:05"), r.Table, r.Rows, r.ReplacedRows, r.ID)
	}
}

// maskDSN hides the password of a URL or key=value connection string.
func maskDSN(dsn string) string {
	if u, err := url.Parse(dsn); err == nil && u.Scheme != "" && u.User != nil {
		return u.Redacted()
	}
	return passwordRe.ReplaceAllString(dsn, "${1}xxxxx")
}
