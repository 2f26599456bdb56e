// Package dashboards assembles Grafana dashboard definitions from panel builders.
package dashboards

import (
	"github.com/grafana/grafana-foundation-sdk/go/dashboard"

	"github.com/donaldgifford/deal-scorer/tools/dashgen/panels"
)

// BuildOverview constructs the Deal Scorer Overview dashboard with all metric rows.
func BuildOverview() *dashboard.DashboardBuilder {
	b := dashboard.NewDashboardBuilder("Deal Scorer Overview").
		Uid("ds-overview").
		Tags([]string{"ds", "deal-scorer"}).
		Refresh("30s").
		Time("now-6h", "now").
		Timezone("browser").
		Editable().
		Tooltip(dashboard.DashboardCursorSyncCrosshair).
		WithVariable(datasourceVar())

	// Row 1: Overview.
	b.WithRow(dashboard.NewRowBuilder("Overview").
		WithPanel(panels.HealthzStat()).
		WithPanel(panels.ReadyzStat()).
		WithPanel(panels.MarketCacheEntries()).
		WithPanel(panels.UptimeStat()))

	// Row 2: HTTP.
	b.WithRow(dashboard.NewRowBuilder("HTTP").
		WithPanel(panels.RequestRate()).
		WithPanel(panels.LatencyPercentiles()).
		WithPanel(panels.ErrorRate()))

	// Row 3: Scoring.
	b.WithRow(dashboard.NewRowBuilder("Scoring").
		WithPanel(panels.ScoreDistribution()).
		WithPanel(panels.GradesRate()).
		WithPanel(panels.NoMarketDataRate()).
		WithPanel(panels.PriceMatchLevels()))

	// Row 4: Market prices.
	b.WithRow(dashboard.NewRowBuilder("Market Prices").
		WithPanel(panels.CacheReloads()).
		WithPanel(panels.CacheReloadDuration()).
		WithPanel(panels.CacheEntriesByInstance()))

	// Row 5: Rescoring.
	b.WithRow(dashboard.NewRowBuilder("Rescoring").
		WithPanel(panels.RescoredRate()).
		WithPanel(panels.RescoreDuration()).
		WithPanel(panels.SchedulerJobRuns()).
		WithPanel(panels.NextRunCountdown()))

	// Row 6: Notifications.
	b.WithRow(dashboard.NewRowBuilder("Notifications").
		WithPanel(panels.NotificationsSent()).
		WithPanel(panels.NotificationFailures()))

	return b
}

func datasourceVar() *dashboard.DatasourceVariableBuilder {
	return dashboard.NewDatasourceVariableBuilder("datasource").
		Label("Datasource").
		Type("prometheus")
}
