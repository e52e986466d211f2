package dashboard

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/deusflow/newslens/internal/article"
)

// WriteTable prints the summary table of rows.
func WriteTable(w io.Writer, rows article.Corpus) error {
	fmt.Fprintf(w, "Showing %d Articles\n\n", len(rows))
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "PUBLISHED\tTITLE\tSENTIMENT\tBIAS\tTOPIC\tURL")
	for _, a := range rows {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			a.PublishedDate(), truncate(a.Title, 60), a.Sentiment, a.Bias, truncate(a.Topic, 40), a.URL)
	}
	return tw.Flush()
}

// WriteDetails prints one block per article with every stored field.
func WriteDetails(w io.Writer, rows article.Corpus) error {
	var b strings.Builder
	for _, a := range rows {
		fmt.Fprintf(&b, "%s (%s) | %s\n", a.Title, a.PublishedDate(), a.Topic)
		fmt.Fprintf(&b, "  Sentiment: %s (%.4f) | Bias: %s | Cluster: %s\n", a.Sentiment, a.SentimentScore, a.Bias, a.Topic)
		fmt.Fprintf(&b, "  Source: %s | News Desk: %s\n", a.Source, a.Desk)
		fmt.Fprintf(&b, "  Snippet: %s\n", a.Snippet)
		fmt.Fprintf(&b, "  Read: %s\n\n", a.URL)
	}
	_, err := io.WriteString(w, b.String())
	return err
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
