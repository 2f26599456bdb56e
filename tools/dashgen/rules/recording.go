package rules

// RecordingRules returns a PrometheusRule CR containing pre-computed rate
// expressions used by dashboards and alert rules.
func RecordingRules() PrometheusRule {
	return newPrometheusRule("ds-recording-rules",
		RuleGroup{
			Name: "ds-recording",
			Rules: []Rule{
				{
					Record: "ds:http_requests:rate5m",
					Expr:   `sum(rate(ds_http_requests_total[5m]))`,
				},
				{
					Record: "ds:http_errors:rate5m",
					Expr:   `sum(rate(ds_http_requests_total{status="5xx"}[5m]))`,
				},
				{
					Record: "ds:scoring_grades:rate5m",
					Expr:   `sum(rate(ds_scoring_grades_total[5m])) by (grade)`,
				},
				{
					Record: "ds:rescored_listings:rate5m",
					Expr:   `sum(rate(ds_rescored_listings_total[5m]))`,
				},
				{
					Record: "ds:rescore_failures:rate5m",
					Expr:   `sum(rate(ds_rescore_failures_total[5m]))`,
				},
				{
					Record: "ds:market_cache_reload_failures:rate5m",
					Expr:   `sum(rate(ds_market_cache_reload_failures_total[5m]))`,
				},
			},
		},
	)
}
