package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/donaldgifford/deal-scorer/internal/api/handlers"
	score "github.com/donaldgifford/deal-scorer/pkg/scorer"
	domain "github.com/donaldgifford/deal-scorer/pkg/types"
)

const timeLayout = "2006-01-02 15:04:05"

// tabWriter wraps tabwriter with error tracking.
type tabWriter struct {
	*tabwriter.Writer
	err error
}

func newTabWriter(w io.Writer) *tabWriter {
	return &tabWriter{Writer: tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)}
}

func (tw *tabWriter) writef(format string, args ...any) {
	if tw.err != nil {
		return
	}
	_, tw.err = fmt.Fprintf(tw.Writer, format, args...)
}

func (tw *tabWriter) finish() error {
	if tw.err != nil {
		return tw.err
	}
	return tw.Flush()
}

func printListingsTable(listings []domain.Listing) error {
	tw := newTabWriter(os.Stdout)
	tw.writef("ID\tTITLE\tPRICE\tSCORE\tGRADE\tSOURCE\n")
	for i := range listings {
		l := &listings[i]
		tw.writef("%s\t%s\t%s\t%s\t%s\t%s\n",
			l.ID,
			truncate(l.Title, 40),
			formatPrice(l.Price, l.Currency),
			formatScore(l.Score),
			deref(l.Grade),
			l.Source,
		)
	}
	return tw.finish()
}

func printListingDetail(l *domain.Listing) error {
	tw := newTabWriter(os.Stdout)
	tw.writef("ID:\t%s\n", l.ID)
	tw.writef("Source:\t%s (%s)\n", l.Source, l.ExternalID)
	tw.writef("Title:\t%s\n", l.Title)
	tw.writef("Brand:\t%s\n", l.Brand)
	tw.writef("Model:\t%s\n", l.Model)
	tw.writef("Condition:\t%s\n", l.Condition)
	tw.writef("Price:\t%s\n", formatPrice(l.Price, l.Currency))
	if l.SellerRating != nil {
		tw.writef("Seller:\t%s (%.1f/5)\n", deref(l.SellerName), *l.SellerRating)
	}
	tw.writef("Score:\t%s\n", formatScore(l.Score))
	tw.writef("Grade:\t%s\n", deref(l.Grade))
	if l.ScoredAt != nil {
		tw.writef("Scored At:\t%s\n", l.ScoredAt.Format(timeLayout))
	}
	tw.writef("First Seen:\t%s\n", l.FirstSeenAt.Format(timeLayout))
	tw.writef("URL:\t%s\n", l.URL)
	return tw.finish()
}

func printScoreResult(res *score.Result) error {
	tw := newTabWriter(os.Stdout)
	tw.writef("Score:\t%d/100 (%s)\n\n", res.Score, res.Grade)
	tw.writef("CATEGORY\tPOINTS\tMAX\n")
	b := res.Breakdown
	for _, row := range []struct {
		name string
		cat  score.Category
	}{
		{"price_vs_market", b.PriceVsMarket},
		{"seller_reputation", b.SellerReputation},
		{"condition", b.Condition},
		{"completeness", b.Completeness},
		{"freshness", b.Freshness},
		{"sweet_spot", b.SweetSpot},
	} {
		tw.writef("%s\t%.1f\t%.0f\n", row.name, row.cat.Points, row.cat.Max)
	}
	return tw.finish()
}

func printGradesTable(thresholds []score.Threshold) error {
	tw := newTabWriter(os.Stdout)
	tw.writef("GRADE\tMIN SCORE\n")
	for _, th := range thresholds {
		tw.writef("%s\t%d\n", th.Grade, th.MinScore)
	}
	return tw.finish()
}

func printMarketPriceStatus(st *handlers.MarketPriceStatus) error {
	tw := newTabWriter(os.Stdout)
	tw.writef("Entries:\t%d\n", st.Entries)
	loaded := "never"
	if st.LoadedAt != nil {
		loaded = st.LoadedAt.Format(timeLayout)
	}
	tw.writef("Loaded At:\t%s\n", loaded)
	tw.writef("TTL:\t%s\n", time.Duration(st.TTLSeconds*float64(time.Second)))
	tw.writef("Fresh:\t%v\n", st.Fresh)
	return tw.finish()
}

func printMarketPricesTable(records []domain.MarketPriceRecord) error {
	tw := newTabWriter(os.Stdout)
	tw.writef("BRAND\tMODEL\tAVG\tSAMPLES\n")
	for i := range records {
		tw.writef("%s\t%s\t%.2f\t%d\n",
			records[i].Brand,
			records[i].Model,
			records[i].AvgPrice,
			records[i].SampleCount,
		)
	}
	return tw.finish()
}

func printJobRunsTable(runs []domain.JobRun) error {
	tw := newTabWriter(os.Stdout)
	tw.writef("JOB\tSTATUS\tSTARTED\tCOMPLETED\tROWS\tERROR\n")
	for i := range runs {
		r := &runs[i]
		completed := "-"
		if r.CompletedAt != nil {
			completed = r.CompletedAt.Format(timeLayout)
		}
		rows := "-"
		if r.RowsAffected != nil {
			rows = fmt.Sprintf("%d", *r.RowsAffected)
		}
		tw.writef("%s\t%s\t%s\t%s\t%s\t%s\n",
			r.JobName,
			r.Status,
			r.StartedAt.Format(timeLayout),
			completed,
			rows,
			truncate(r.ErrorText, 40),
		)
	}
	return tw.finish()
}

func outputJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func formatPrice(p *float64, currency string) string {
	if p == nil {
		return "-"
	}
	if currency == "" {
		return fmt.Sprintf("%.2f", *p)
	}
	return fmt.Sprintf("%.2f %s", *p, currency)
}

func formatScore(s *int) string {
	if s == nil {
		return "-"
	}
	return fmt.Sprintf("%d", *s)
}

func deref(s *string) string {
	if s == nil {
		return "-"
	}
	return *s
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
