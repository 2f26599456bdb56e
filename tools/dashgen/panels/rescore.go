package panels

import (
	"github.com/grafana/grafana-foundation-sdk/go/common"
	"github.com/grafana/grafana-foundation-sdk/go/stat"
	"github.com/grafana/grafana-foundation-sdk/go/timeseries"
)

// RescoredRate returns a timeseries panel showing listings rescored per
// minute alongside per-listing failures.
func RescoredRate() *timeseries.PanelBuilder {
	return timeseries.NewPanelBuilder().
		Title("Rescored / min").
		Description("Listings rescored per minute and per-listing rescore failures").
		Datasource(DSRef()).
		Height(TSHeight).
		Span(ThirdWidth).
		WithTarget(PromQuery(`ds:rescored_listings:rate5m * 60`, "rescored/min", "A")).
		WithTarget(PromQuery(`ds:rescore_failures:rate5m * 60`, "failures/min", "B")).
		FillOpacity(10).
		LineWidth(2).
		Tooltip(MultiTooltip()).
		Thresholds(ThresholdsGreenOnly()).
		ColorScheme(ColorSchemePaletteClassic()).
		DrawStyle(common.GraphDrawStyleLine)
}

// RescoreDuration returns a timeseries panel showing the p95 batch rescore
// duration.
func RescoreDuration() *timeseries.PanelBuilder {
	return timeseries.NewPanelBuilder().
		Title("Batch Duration (p95)").
		Description("95th percentile duration of a rescore batch").
		Datasource(DSRef()).
		Height(TSHeight).
		Span(ThirdWidth).
		WithTarget(PromQuery(
			`histogram_quantile(0.95, sum(rate(ds_rescore_duration_seconds_bucket{job="deal-scorer"}[1h])) by (le))`,
			"p95",
			"A",
		)).
		Unit("s").
		FillOpacity(10).
		LineWidth(2).
		Thresholds(ThresholdsGreenOnly()).
		ColorScheme(ColorSchemePaletteClassic()).
		DrawStyle(common.GraphDrawStyleLine)
}

// SchedulerJobRuns returns a timeseries panel showing scheduled job runs per
// hour by job and status.
func SchedulerJobRuns() *timeseries.PanelBuilder {
	return timeseries.NewPanelBuilder().
		Title("Job Runs / h").
		Description("Scheduled rescore runs per hour by job and status").
		Datasource(DSRef()).
		Height(TSHeight).
		Span(ThirdWidth).
		WithTarget(PromQuery(
			`sum(increase(ds_scheduler_job_runs_total{job="deal-scorer"}[1h])) by (job_name, status)`,
			"{{job_name}} {{status}}", "A",
		)).
		FillOpacity(10).
		LineWidth(2).
		Legend(TableLegend("last")).
		Thresholds(ThresholdsGreenOnly()).
		ColorScheme(ColorSchemePaletteClassic()).
		DrawStyle(common.GraphDrawStyleLine)
}

// NextRunCountdown returns a stat panel showing seconds until each scheduled
// job fires next.
func NextRunCountdown() *stat.PanelBuilder {
	return stat.NewPanelBuilder().
		Title("Next Run").
		Description("Time until each scheduled job runs next").
		Datasource(DSRef()).
		Height(StatHeight).
		Span(FullWidth).
		WithTarget(PromQuery(
			`max(ds_scheduler_next_run_timestamp{job="deal-scorer"}) by (job_name) - time()`,
			"{{job_name}}", "A",
		)).
		Unit("s").
		Thresholds(ThresholdsGreenOnly()).
		ColorScheme(ColorSchemeThresholds()).
		GraphMode(common.BigValueGraphModeNone)
}
