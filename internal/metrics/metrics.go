// Package metrics defines Prometheus metrics for deal-scorer.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "ds"

// HTTP metrics.
var (
	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "Duration of HTTP requests in seconds by method, route template and status class.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_requests_total",
		Help:      "Total number of HTTP requests by method, route template and status class.",
	}, []string{"method", "path", "status"})
)

// Health metrics.
var (
	HealthzUp = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "healthz_up",
		Help:      "Whether the last /healthz probe succeeded (1) or failed (0).",
	})

	ReadyzUp = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "readyz_up",
		Help:      "Whether the last /readyz probe succeeded (1) or failed (0).",
	})
)

// Scoring metrics.
var (
	ScoringDistribution = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "scoring_distribution",
		Help:      "Distribution of computed deal scores.",
		Buckets:   prometheus.LinearBuckets(0, 10, 11), // 0, 10, 20, ..., 100
	})

	ScoringGradesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "scoring_grades_total",
		Help:      "Total number of scored listings by grade.",
	}, []string{"grade"})

	// ScoringNoMarketDataTotal counts listings scored with the neutral price
	// score. It is expected to be non-zero and is not an error signal.
	ScoringNoMarketDataTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "scoring_no_market_data_total",
		Help:      "Total number of listings scored without a market price reference.",
	})
)

// Market price cache metrics.
var (
	PriceMatchesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "price_matches_total",
		Help:      "Total number of market price lookups by match level (exact, fuzzy, brand, none).",
	}, []string{"level"})

	MarketCacheReloadsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "market_cache_reloads_total",
		Help:      "Total number of market price cache reloads attempted.",
	})

	MarketCacheReloadFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "market_cache_reload_failures_total",
		Help:      "Total number of failed market price cache reloads.",
	})

	MarketCacheReloadDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "market_cache_reload_duration_seconds",
		Help:      "Duration of market price cache reloads in seconds.",
		Buckets:   prometheus.DefBuckets,
	})

	MarketCacheEntries = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "market_cache_entries",
		Help:      "Number of usable records in the current market price snapshot.",
	})
)

// Rescoring metrics.
var (
	RescoreDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "rescore_duration_seconds",
		Help:      "Duration of batch rescoring runs in seconds.",
		Buckets:   prometheus.ExponentialBuckets(0.1, 2, 12),
	})

	RescoredListingsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "rescored_listings_total",
		Help:      "Total number of listings rescored by batch runs.",
	})

	RescoreFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "rescore_failures_total",
		Help:      "Total number of listings that failed to rescore.",
	})

	RescoreWarmFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "rescore_warm_failures_total",
		Help:      "Total number of batch runs that started without a fresh market price snapshot.",
	})
)

// Notification metrics.
var (
	NotificationsSentTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "notifications_sent_total",
		Help:      "Total number of deal notifications sent by channel.",
	}, []string{"channel"})

	NotificationFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "notification_failures_total",
		Help:      "Total number of notification send failures by channel.",
	}, []string{"channel"})
)

// Scheduler metrics.
var (
	SchedulerNextRunTimestamp = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "scheduler_next_run_timestamp",
		Help:      "Unix timestamp of the next scheduled run by job.",
	}, []string{"job_name"})

	SchedulerJobRunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "scheduler_job_runs_total",
		Help:      "Total number of scheduled job runs by job and status.",
	}, []string{"job_name", "status"})
)
