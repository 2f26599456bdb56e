// Package engine implements the scoring pipeline around the deal scorer:
// scoring and persisting single listings, batch rescoring and the periodic
// scheduler.
package engine

import (
	"context"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v5"
	"go.opentelemetry.io/otel"
	"golang.org/x/time/rate"

	"github.com/donaldgifford/deal-scorer/internal/notify"
	"github.com/donaldgifford/deal-scorer/internal/store"
	score "github.com/donaldgifford/deal-scorer/pkg/scorer"
	domain "github.com/donaldgifford/deal-scorer/pkg/types"
)

const (
	defaultWorkers         = 8
	defaultBatchSize       = 200
	defaultWritesPerSecond = 50
	defaultWarmRetries     = 3
)

var tracer = otel.Tracer("github.com/donaldgifford/deal-scorer/internal/engine")

// Scorer computes a deal score for one listing.
type Scorer interface {
	Score(ctx context.Context, l *domain.Listing) (*score.Result, error)
}

// PriceLoader forces a market price reload. Batch runs call it once up
// front so every listing in the run is scored against the same snapshot.
type PriceLoader interface {
	Load(ctx context.Context) error
}

// Engine scores listings and persists the results.
type Engine struct {
	store    store.Store
	scorer   Scorer
	prices   PriceLoader
	notifier notify.Notifier
	log      *slog.Logger

	workers      int
	batchSize    int
	warmRetries  int
	writeLimiter *rate.Limiter
	newBackOff   func() backoff.BackOff
	now          func() time.Time
}

// NewEngine creates a new Engine with injected dependencies. prices may be
// nil when no warm-up is wanted.
func NewEngine(
	s store.Store,
	sc Scorer,
	prices PriceLoader,
	n notify.Notifier,
	opts ...EngineOption,
) *Engine {
	eng := &Engine{
		store:        s,
		scorer:       sc,
		prices:       prices,
		notifier:     n,
		log:          slog.Default(),
		workers:      defaultWorkers,
		batchSize:    defaultBatchSize,
		warmRetries:  defaultWarmRetries,
		writeLimiter: rate.NewLimiter(rate.Limit(defaultWritesPerSecond), defaultWritesPerSecond),
		newBackOff:   func() backoff.BackOff { return backoff.NewExponentialBackOff() },
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(eng)
	}
	return eng
}

// EngineOption configures the Engine.
type EngineOption func(*Engine)

// WithLogger sets a custom logger.
func WithLogger(l *slog.Logger) EngineOption {
	return func(e *Engine) {
		e.log = l
	}
}

// WithWorkers sets how many listings a batch run scores concurrently.
func WithWorkers(n int) EngineOption {
	return func(e *Engine) {
		if n > 0 {
			e.workers = n
		}
	}
}

// WithBatchSize sets how many listings are read per page.
func WithBatchSize(n int) EngineOption {
	return func(e *Engine) {
		if n > 0 {
			e.batchSize = n
		}
	}
}

// WithWarmRetries sets how many times a batch run tries to load market
// prices before giving up.
func WithWarmRetries(n int) EngineOption {
	return func(e *Engine) {
		if n > 0 {
			e.warmRetries = n
		}
	}
}

// WithWritesPerSecond throttles score writes. Zero or less disables the limit.
func WithWritesPerSecond(n float64) EngineOption {
	return func(e *Engine) {
		if n <= 0 {
			e.writeLimiter = rate.NewLimiter(rate.Inf, 0)
			return
		}
		e.writeLimiter = rate.NewLimiter(rate.Limit(n), max(1, int(n)))
	}
}

// WithClock overrides the time source used for scored_at stamps.
func WithClock(now func() time.Time) EngineOption {
	return func(e *Engine) {
		e.now = now
	}
}
