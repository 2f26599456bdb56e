package panels

import (
	"github.com/grafana/grafana-foundation-sdk/go/common"
	"github.com/grafana/grafana-foundation-sdk/go/timeseries"
)

// CacheReloads returns a timeseries panel showing market price snapshot
// reloads and reload failures per hour.
func CacheReloads() *timeseries.PanelBuilder {
	return timeseries.NewPanelBuilder().
		Title("Snapshot Reloads / h").
		Description("Market price snapshot reloads and failed reload attempts per hour").
		Datasource(DSRef()).
		Height(TSHeight).
		Span(ThirdWidth).
		WithTarget(PromQuery(
			`sum(increase(ds_market_cache_reloads_total{job="deal-scorer"}[1h]))`,
			"reloads", "A",
		)).
		WithTarget(PromQuery(
			`sum(increase(ds_market_cache_reload_failures_total{job="deal-scorer"}[1h]))`,
			"failures", "B",
		)).
		FillOpacity(10).
		LineWidth(2).
		Tooltip(MultiTooltip()).
		Thresholds(ThresholdsGreenOnly()).
		ColorScheme(ColorSchemePaletteClassic()).
		DrawStyle(common.GraphDrawStyleLine)
}

// CacheReloadDuration returns a timeseries panel showing the p95 snapshot
// reload duration.
func CacheReloadDuration() *timeseries.PanelBuilder {
	return timeseries.NewPanelBuilder().
		Title("Reload Duration (p95)").
		Description("95th percentile market price snapshot reload duration").
		Datasource(DSRef()).
		Height(TSHeight).
		Span(ThirdWidth).
		WithTarget(PromQuery(
			`histogram_quantile(0.95, sum(rate(ds_market_cache_reload_duration_seconds_bucket{job="deal-scorer"}[15m])) by (le))`,
			"p95",
			"A",
		)).
		Unit("s").
		FillOpacity(10).
		LineWidth(2).
		Thresholds(ThresholdsGreenYellowRed(2, 8)).
		ColorScheme(ColorSchemeThresholds()).
		DrawStyle(common.GraphDrawStyleLine)
}

// CacheEntriesByInstance returns a timeseries panel showing snapshot size
// per replica, which makes a stale replica easy to spot.
func CacheEntriesByInstance() *timeseries.PanelBuilder {
	return timeseries.NewPanelBuilder().
		Title("Snapshot Size").
		Description("Market price records held by each replica").
		Datasource(DSRef()).
		Height(TSHeight).
		Span(ThirdWidth).
		WithTarget(PromQuery(`ds_market_cache_entries{job="deal-scorer"}`, "{{instance}}", "A")).
		FillOpacity(0).
		LineWidth(2).
		Tooltip(MultiTooltip()).
		Thresholds(ThresholdsGreenOnly()).
		ColorScheme(ColorSchemePaletteClassic()).
		DrawStyle(common.GraphDrawStyleLine)
}
