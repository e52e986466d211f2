package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/deusflow/newslens/internal/article"
	"github.com/deusflow/newslens/internal/dashboard"
	"github.com/deusflow/newslens/internal/filter"
)

var queryOpts struct {
	sentiments []string
	topics     []string
	from, to   string
	keyword    string
	sortBy     string
	order      string
	details    bool
	asJSON     bool
}

var queryCmd = &cobra.Command{
	Use:   "query",
	Short: "Print the clustered articles matching the given filters",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := setup()
		if err != nil {
			return err
		}
		ctx := cmd.Context()

		store, err := openStore(ctx, cfg)
		if err != nil {
			return err
		}
		defer store.Close()

		session := newSession(cfg, store)
		if err := session.Refresh(ctx); err != nil {
			return err
		}
		spec, err := session.Default()
		if err != nil {
			return err
		}
		if err := applyQueryFlags(cmd, &spec); err != nil {
			return err
		}

		rows, err := session.View(spec)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if queryOpts.asJSON {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(rows)
		}
		if err := dashboard.WriteTable(out, rows); err != nil {
			return err
		}
		if queryOpts.details {
			fmt.Fprintln(out)
			return dashboard.WriteDetails(out, rows)
		}
		return nil
	},
}

func init() {
	f := queryCmd.Flags()
	f.StringSliceVar(&queryOpts.sentiments, "sentiment", nil, "sentiments to keep (Positive, Neutral, Negative)")
	f.StringArrayVar(&queryOpts.topics, "topic", nil, "topic cluster label to keep, repeat for several")
	f.StringVar(&queryOpts.from, "from", "", "first published date, YYYY-MM-DD")
	f.StringVar(&queryOpts.to, "to", "", "last published date, YYYY-MM-DD")
	f.StringVar(&queryOpts.keyword, "keyword", "", "case-insensitive snippet substring")
	f.StringVar(&queryOpts.sortBy, "sort", "date", "sort key: date, sentiment or bias")
	f.StringVar(&queryOpts.order, "order", "desc", "sort order: asc or desc")
	f.BoolVar(&queryOpts.details, "details", false, "print every article in full after the table")
	f.BoolVar(&queryOpts.asJSON, "json", false, "print JSON instead of a table")
}

// applyQueryFlags narrows spec by the flags the user actually set.
func applyQueryFlags(cmd *cobra.Command, spec *filter.Spec) error {
	flags := cmd.Flags()
	if flags.Changed("sentiment") {
		spec.Sentiments = filter.LabelSet()
		for _, s := range queryOpts.sentiments {
			l, ok := article.ParseLabel(s)
			if !ok {
				return fmt.Errorf("unknown sentiment %q", s)
			}
			spec.Sentiments[l] = struct{}{}
		}
	}
	if flags.Changed("topic") {
		spec.Topics = filter.StringSet(queryOpts.topics...)
	}
	if queryOpts.from != "" {
		d, err := article.ParseDate(queryOpts.from)
		if err != nil {
			return fmt.Errorf("--from: %w", err)
		}
		spec.From = d
	}
	if queryOpts.to != "" {
		d, err := article.ParseDate(queryOpts.to)
		if err != nil {
			return fmt.Errorf("--to: %w", err)
		}
		spec.To = d
	}
	spec.Keyword = queryOpts.keyword

	var err error
	if spec.SortBy, err = filter.ParseSortKey(queryOpts.sortBy); err != nil {
		return err
	}
	if spec.Order, err = filter.ParseOrder(queryOpts.order); err != nil {
		return err
	}
	return nil
}
