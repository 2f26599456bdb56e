package panels

import (
	"github.com/grafana/grafana-foundation-sdk/go/bargauge"
	"github.com/grafana/grafana-foundation-sdk/go/common"
	"github.com/grafana/grafana-foundation-sdk/go/timeseries"
)

// ScoreDistribution returns a bar gauge panel showing the distribution of
// computed deal scores across histogram buckets.
func ScoreDistribution() *bargauge.PanelBuilder {
	return bargauge.NewPanelBuilder().
		Title("Score Distribution").
		Description("Distribution of deal scores (0-100) over the last hour").
		Datasource(DSRef()).
		Height(TSHeight).
		Span(TSWidth).
		WithTarget(PromQuery(
			`sum(increase(ds_scoring_distribution_bucket{job="deal-scorer"}[1h])) by (le)`,
			"{{le}}", "A",
		)).
		Orientation(common.VizOrientationHorizontal).
		Min(0).
		Thresholds(ThresholdsGreenOnly()).
		ColorScheme(ColorSchemePaletteClassic())
}

// GradesRate returns a timeseries panel of scored listings per
// minute by grade.
func GradesRate() *timeseries.PanelBuilder {
	return timeseries.NewPanelBuilder().
		Title("Grades / min").
		Description("Listings scored per minute, by grade").
		Datasource(DSRef()).
		Height(TSHeight).
		Span(TSWidth).
		WithTarget(PromQuery(`ds:scoring_grades:rate5m * 60`, "{{grade}}", "A")).
		FillOpacity(30).
		LineWidth(1).
		Legend(TableLegend("mean", "max")).
		Tooltip(MultiTooltip()).
		Thresholds(ThresholdsGreenOnly()).
		ColorScheme(ColorSchemePaletteClassic()).
		DrawStyle(common.GraphDrawStyleLine)
}

// NoMarketDataRate returns a timeseries panel showing the percentage of
// scorings that found no market price at all.
func NoMarketDataRate() *timeseries.PanelBuilder {
	expr := `sum(rate(ds_scoring_no_market_data_total{job="deal-scorer"}[5m])) / sum(ds:scoring_grades:rate5m) * 100`
	return timeseries.NewPanelBuilder().
		Title("No Market Data %").
		Description("Percentage of listings scored without any market price").
		Datasource(DSRef()).
		Height(TSHeight).
		Span(TSWidth).
		WithTarget(PromQuery(expr, "no market data %", "A")).
		Unit("percent").
		FillOpacity(10).
		LineWidth(2).
		Thresholds(ThresholdsGreenYellowRed(25, 50)).
		ColorScheme(ColorSchemeThresholds()).
		DrawStyle(common.GraphDrawStyleLine)
}

// PriceMatchLevels returns a timeseries panel showing how market prices were
// resolved: exact, fuzzy, brand fallback, or none.
func PriceMatchLevels() *timeseries.PanelBuilder {
	return timeseries.NewPanelBuilder().
		Title("Price Match Levels").
		Description("Market price lookups per second by match level").
		Datasource(DSRef()).
		Height(TSHeight).
		Span(TSWidth).
		WithTarget(PromQuery(
			`sum(rate(ds_price_matches_total{job="deal-scorer"}[5m])) by (level)`,
			"{{level}}", "A",
		)).
		Unit("ops").
		FillOpacity(10).
		LineWidth(2).
		Legend(TableLegend("mean", "max")).
		Tooltip(MultiTooltip()).
		Thresholds(ThresholdsGreenOnly()).
		ColorScheme(ColorSchemePaletteClassic()).
		DrawStyle(common.GraphDrawStyleLine)
}
