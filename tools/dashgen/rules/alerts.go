package rules

// AlertRules returns a PrometheusRule CR containing alert rules for
// deal-scorer operational monitoring.
func AlertRules() PrometheusRule {
	return newPrometheusRule("ds-alerts",
		RuleGroup{
			Name: "ds-alerts",
			Rules: []Rule{
				{
					Alert: "DsDown",
					Expr:  `absent(up{job="deal-scorer"})`,
					For:   "2m",
					Labels: map[string]string{
						"severity": "critical",
					},
					Annotations: map[string]string{
						"summary":     "Deal Scorer is down",
						"description": "The deal-scorer job has been absent for more than 2 minutes.",
					},
				},
				{
					Alert: "DsReadinessDown",
					Expr:  `ds_readyz_up == 0`,
					For:   "2m",
					Labels: map[string]string{
						"severity": "critical",
					},
					Annotations: map[string]string{
						"summary":     "Deal Scorer readiness check is failing",
						"description": "The readiness probe has been reporting not-ready for more than 2 minutes.",
					},
				},
				{
					Alert: "DsHighErrorRate",
					Expr:  `ds:http_errors:rate5m / ds:http_requests:rate5m > 0.05`,
					For:   "5m",
					Labels: map[string]string{
						"severity": "warning",
					},
					Annotations: map[string]string{
						"summary":     "High HTTP error rate on Deal Scorer",
						"description": "More than 5% of HTTP requests are returning 5xx errors over the last 5 minutes.",
					},
				},
				{
					Alert: "DsMarketPricesEmpty",
					Expr:  `ds_market_cache_entries == 0 and ds_market_cache_reloads_total > 0`,
					For:   "10m",
					Labels: map[string]string{
						"severity": "warning",
					},
					Annotations: map[string]string{
						"summary":     "Market price snapshot is empty",
						"description": "A replica has loaded an empty market price snapshot. Every listing scores without market data.",
					},
				},
				{
					Alert: "DsMarketCacheReloadFailures",
					Expr:  `ds:market_cache_reload_failures:rate5m > 0`,
					For:   "10m",
					Labels: map[string]string{
						"severity": "warning",
					},
					Annotations: map[string]string{
						"summary":     "Market price reloads are failing",
						"description": "Snapshot reloads have been failing for 10 minutes. Replicas keep serving their last snapshot.",
					},
				},
				{
					Alert: "DsRescoreFailures",
					Expr:  `ds:rescore_failures:rate5m > 0.1`,
					For:   "15m",
					Labels: map[string]string{
						"severity": "warning",
					},
					Annotations: map[string]string{
						"summary":     "Rescore failure rate is elevated",
						"description": "Listings are failing to rescore at more than 0.1/s for the last 15 minutes.",
					},
				},
				{
					Alert: "DsScheduledJobFailing",
					Expr:  `increase(ds_scheduler_job_runs_total{status="failed"}[1h]) > 2`,
					For:   "0m",
					Labels: map[string]string{
						"severity": "warning",
					},
					Annotations: map[string]string{
						"summary":     "Scheduled rescore job is failing",
						"description": "A scheduled rescore job has failed more than twice in the last hour.",
					},
				},
				{
					Alert: "DsNotificationFailures",
					Expr:  `increase(ds_notification_failures_total[5m]) > 0`,
					For:   "1m",
					Labels: map[string]string{
						"severity": "warning",
					},
					Annotations: map[string]string{
						"summary":     "Notification delivery failures detected",
						"description": "One or more deal notifications (Discord webhooks or Kafka events) have failed to send.",
					},
				},
			},
		},
	)
}
