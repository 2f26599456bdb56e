package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/donaldgifford/deal-scorer/internal/engine"
	score "github.com/donaldgifford/deal-scorer/pkg/scorer"
	domain "github.com/donaldgifford/deal-scorer/pkg/types"
)

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

func printResult(w io.Writer, l *domain.Listing, res *score.Result) error {
	tw := newTabWriter(w)
	if l.Title != "" {
		tw.writef("Listing:\t%s\n", l.Title)
	}
	tw.writef("Score:\t%d/100 (%s)\n", res.Score, res.Grade)
	tw.writef("\n")
	tw.writef("CATEGORY\tPOINTS\tMAX\tDETAILS\n")

	b := res.Breakdown
	rows := []struct {
		name string
		cat  score.Category
	}{
		{"price_vs_market", b.PriceVsMarket},
		{"seller_reputation", b.SellerReputation},
		{"condition", b.Condition},
		{"completeness", b.Completeness},
		{"freshness", b.Freshness},
		{"sweet_spot", b.SweetSpot},
	}
	for _, r := range rows {
		tw.writef("%s\t%.1f\t%.0f\t%s\n", r.name, r.cat.Points, r.cat.Max, formatDetails(r.cat.Details))
	}
	return tw.finish()
}

// formatDetails renders details as sorted key=value pairs.
func formatDetails(details map[string]any) string {
	keys := make([]string, 0, len(details))
	for k := range details {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, len(keys))
	for i, k := range keys {
		pairs[i] = fmt.Sprintf("%s=%v", k, details[k])
	}
	return truncate(strings.Join(pairs, " "), 80)
}

func printGrades(w io.Writer, thresholds []score.Threshold) error {
	tw := newTabWriter(w)
	tw.writef("GRADE\tMIN SCORE\n")
	for _, th := range thresholds {
		tw.writef("%s\t%d\n", th.Grade, th.MinScore)
	}
	return tw.finish()
}

func printRescoreResult(w io.Writer, res *engine.RescoreResult) error {
	tw := newTabWriter(w)
	tw.writef("Mode:\t%s\n", res.Mode)
	tw.writef("Scored:\t%d\n", res.Scored)
	tw.writef("Failed:\t%d\n", len(res.Failures))
	tw.writef("Duration:\t%s\n", res.Duration.Round(time.Millisecond))
	for _, f := range res.Failures {
		tw.writef("  %s\t%s\n", f.ListingID, truncate(f.Error, 60))
	}
	return tw.finish()
}

func printMarketPrices(w io.Writer, records []domain.MarketPriceRecord) error {
	tw := newTabWriter(w)
	tw.writef("BRAND\tMODEL\tAVG\tMIN\tMAX\tSAMPLES\n")
	for i := range records {
		r := &records[i]
		tw.writef("%s\t%s\t%.2f\t%s\t%s\t%d\n",
			r.Brand,
			r.Model,
			r.AvgPrice,
			optionalPrice(r.MinPrice),
			optionalPrice(r.MaxPrice),
			r.SampleCount,
		)
	}
	return tw.finish()
}

func optionalPrice(p *float64) string {
	if p == nil {
		return "-"
	}
	return fmt.Sprintf("%.2f", *p)
}

func outputJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
