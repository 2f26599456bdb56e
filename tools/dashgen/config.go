package main

import "errors"

// KnownMetrics is the set of metric names exported by deal-scorer plus
// recording rule names referenced in dashboards and alerts.
var KnownMetrics = map[string]bool{
	// HTTP metrics.
	"ds_http_request_duration_seconds": true,
	"ds_http_requests_total":           true,

	// Health metrics.
	"ds_healthz_up": true,
	"ds_readyz_up":  true,

	// Scoring metrics.
	"ds_scoring_distribution":         true,
	"ds_scoring_grades_total":         true,
	"ds_scoring_no_market_data_total": true,
	"ds_price_matches_total":          true,

	// Market price cache metrics.
	"ds_market_cache_reloads_total":           true,
	"ds_market_cache_reload_failures_total":   true,
	"ds_market_cache_reload_duration_seconds": true,
	"ds_market_cache_entries":                 true,

	// Rescore metrics.
	"ds_rescore_duration_seconds":    true,
	"ds_rescored_listings_total":     true,
	"ds_rescore_failures_total":      true,
	"ds_rescore_warm_failures_total": true,

	// Notification metrics.
	"ds_notifications_sent_total":    true,
	"ds_notification_failures_total": true,

	// Scheduler metrics.
	"ds_scheduler_next_run_timestamp": true,
	"ds_scheduler_job_runs_total":     true,

	// Recording rules.
	"ds:http_requests:rate5m":                true,
	"ds:http_errors:rate5m":                  true,
	"ds:scoring_grades:rate5m":               true,
	"ds:rescored_listings:rate5m":            true,
	"ds:rescore_failures:rate5m":             true,
	"ds:market_cache_reload_failures:rate5m": true,

	// Standard Prometheus metrics referenced in dashboards.
	"up":                         true,
	"process_start_time_seconds": true,
}

// Config controls which artifacts the generator produces and where they go.
type Config struct {
	OutputDir        string
	DashboardEnabled bool
	RulesEnabled     bool
}

// DefaultConfig returns a Config that generates all artifacts into ../../deploy
// (relative to tools/dashgen/).
func DefaultConfig() Config {
	return Config{
		OutputDir:        "../../deploy",
		DashboardEnabled: true,
		RulesEnabled:     true,
	}
}

// Validate checks that the config is usable.
func (c Config) Validate() error {
	if c.OutputDir == "" {
		return errors.New("output directory must be set")
	}
	if !c.DashboardEnabled && !c.RulesEnabled {
		return errors.New("at least one of dashboard or rules must be enabled")
	}
	return nil
}
