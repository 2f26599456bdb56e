// Package pricecache holds the in-memory market price reference used by the
// price scorer, and resolves listings against it.
package pricecache

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/singleflight"

	"github.com/donaldgifford/deal-scorer/internal/metrics"
	domain "github.com/donaldgifford/deal-scorer/pkg/types"
)

const (
	// DefaultTTL is how stale a snapshot may get before the next read reloads it.
	DefaultTTL = 30 * time.Minute

	defaultReloadTimeout = 10 * time.Second
	defaultRetryAfter    = 30 * time.Second

	reloadKey = "reload"
)

var tracer = otel.Tracer("github.com/donaldgifford/deal-scorer/internal/pricecache")

// Loader performs the single bulk read of market price aggregates.
type Loader interface {
	ListMarketPrices(ctx context.Context) ([]domain.MarketPriceRecord, error)
}

// DatedLoader is a Loader that may serve rows read from the reference store
// earlier, such as a shared cache copy. ListMarketPricesReadAt also returns
// when the rows left the store, and that age counts against the snapshot TTL.
type DatedLoader interface {
	Loader
	ListMarketPricesReadAt(ctx context.Context) ([]domain.MarketPriceRecord, time.Time, error)
}

// LoaderFunc adapts a function to Loader.
type LoaderFunc func(ctx context.Context) ([]domain.MarketPriceRecord, error)

// ListMarketPrices calls f.
func (f LoaderFunc) ListMarketPrices(ctx context.Context) ([]domain.MarketPriceRecord, error) {
	return f(ctx)
}

// Cache is a TTL-bounded market price snapshot with single-flight reloads.
// Reads never block on each other; a reload swaps the snapshot atomically.
type Cache struct {
	loader        Loader
	ttl           time.Duration
	reloadTimeout time.Duration
	retryAfter    time.Duration
	now           func() time.Time
	log           *slog.Logger

	snap        atomic.Pointer[Snapshot]
	lastFailure atomic.Int64 // unix nanos of the last failed reload, 0 if none
	group       singleflight.Group

	// publish guards gen and snapshot writes; reads of snap stay lock-free.
	publish sync.Mutex
	gen     uint64
}

// Option configures a Cache.
type Option func(*Cache)

// WithTTL sets the snapshot time-to-live.
func WithTTL(d time.Duration) Option {
	return func(c *Cache) {
		c.ttl = d
	}
}

// WithReloadTimeout bounds a single reload.
func WithReloadTimeout(d time.Duration) Option {
	return func(c *Cache) {
		c.reloadTimeout = d
	}
}

// WithRetryAfter sets how long lazy reads wait after a failed reload before
// trying the reference store again.
func WithRetryAfter(d time.Duration) Option {
	return func(c *Cache) {
		c.retryAfter = d
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) {
		c.now = now
	}
}

// WithLogger sets a custom logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Cache) {
		c.log = l
	}
}

// New creates an empty Cache. Nothing is read until the first Resolve or Load.
func New(loader Loader, opts ...Option) *Cache {
	c := &Cache{
		loader:        loader,
		ttl:           DefaultTTL,
		reloadTimeout: defaultReloadTimeout,
		retryAfter:    defaultRetryAfter,
		now:           time.Now,
		log:           slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Resolve looks up a market price for brand and model, reloading a stale
// snapshot first. Reload errors are logged and the previous snapshot is used.
func (c *Cache) Resolve(ctx context.Context, brand, model string) (domain.PriceMatch, bool) {
	snap := c.current(ctx)
	if snap == nil {
		metrics.PriceMatchesTotal.WithLabelValues("none").Inc()
		return domain.PriceMatch{}, false
	}

	m, ok := snap.Match(brand, model)
	if !ok {
		metrics.PriceMatchesTotal.WithLabelValues("none").Inc()
		return domain.PriceMatch{}, false
	}
	metrics.PriceMatchesTotal.WithLabelValues(string(m.Level)).Inc()
	return m, true
}

// Load reloads the snapshot from the loader unconditionally. Concurrent
// callers share one underlying read. Unlike Resolve it returns the error.
func (c *Cache) Load(ctx context.Context) error {
	return c.reload(ctx, true)
}

// Invalidate drops the snapshot so the next Resolve reloads. A reload
// already in flight is discarded rather than published.
func (c *Cache) Invalidate() {
	c.publish.Lock()
	c.gen++
	c.snap.Store(nil)
	c.publish.Unlock()

	c.group.Forget(reloadKey)
	c.lastFailure.Store(0)
	metrics.MarketCacheEntries.Set(0)
	c.log.Info("market price cache invalidated")
}

// Snapshot returns the current snapshot without reloading, or nil if the
// cache is empty.
func (c *Cache) Snapshot() *Snapshot {
	return c.snap.Load()
}

// TTL returns the configured time-to-live.
func (c *Cache) TTL() time.Duration {
	return c.ttl
}

// Fresh reports whether the snapshot is loaded and within its TTL.
func (c *Cache) Fresh() bool {
	return c.fresh(c.snap.Load())
}

func (c *Cache) fresh(s *Snapshot) bool {
	return s != nil && c.now().Sub(s.LoadedAt()) <= c.ttl
}

func (c *Cache) current(ctx context.Context) *Snapshot {
	snap := c.snap.Load()
	if c.fresh(snap) || c.coolingDown() {
		return snap
	}

	if err := c.reload(ctx, false); err != nil {
		c.log.Warn("market price reload failed, using previous snapshot",
			"error", err,
			"have_snapshot", snap != nil,
		)
	}
	return c.snap.Load()
}

func (c *Cache) coolingDown() bool {
	failed := c.lastFailure.Load()
	if failed == 0 {
		return false
	}
	return c.now().Sub(time.Unix(0, failed)) < c.retryAfter
}

func (c *Cache) reload(ctx context.Context, force bool) error {
	// The first caller's cancellation must not fail everyone sharing the call.
	ctx = context.WithoutCancel(ctx)

	_, err, _ := c.group.Do(reloadKey, func() (any, error) {
		if !force && c.fresh(c.snap.Load()) {
			return nil, nil
		}
		return nil, c.fetch(ctx)
	})
	return err
}

// read returns the rows and when they were read from the reference store.
// Read times in the future, from a skewed clock elsewhere, count as now.
func (c *Cache) read(ctx context.Context) ([]domain.MarketPriceRecord, time.Time, error) {
	now := c.now()
	dl, ok := c.loader.(DatedLoader)
	if !ok {
		rows, err := c.loader.ListMarketPrices(ctx)
		return rows, now, err
	}

	rows, readAt, err := dl.ListMarketPricesReadAt(ctx)
	if err != nil {
		return nil, time.Time{}, err
	}
	if readAt.IsZero() || readAt.After(now) {
		readAt = now
	}
	return rows, readAt, nil
}

// store publishes snap unless the cache was invalidated after gen was read.
func (c *Cache) store(gen uint64, snap *Snapshot) bool {
	c.publish.Lock()
	defer c.publish.Unlock()
	if c.gen != gen {
		return false
	}
	c.snap.Store(snap)
	return true
}

func (c *Cache) fetch(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, c.reloadTimeout)
	defer cancel()

	ctx, span := tracer.Start(ctx, "pricecache.reload")
	defer span.End()

	start := time.Now()
	metrics.MarketCacheReloadsTotal.Inc()
	defer func() {
		metrics.MarketCacheReloadDuration.Observe(time.Since(start).Seconds())
	}()

	c.publish.Lock()
	gen := c.gen
	c.publish.Unlock()

	rows, readAt, err := c.read(ctx)
	if err != nil {
		c.lastFailure.Store(c.now().UnixNano())
		metrics.MarketCacheReloadFailuresTotal.Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, "reload failed")
		return fmt.Errorf("loading market prices: %w", err)
	}

	snap := NewSnapshot(rows, readAt)
	if !c.store(gen, snap) {
		span.SetAttributes(attribute.Bool("market_prices.discarded", true))
		c.log.Debug("market price reload discarded, cache was invalidated while reading")
		return nil
	}
	c.lastFailure.Store(0)

	metrics.MarketCacheEntries.Set(float64(snap.Len()))
	span.SetAttributes(
		attribute.Int("market_prices.rows", len(rows)),
		attribute.Int("market_prices.usable", snap.Len()),
	)
	c.log.Debug("market price cache reloaded",
		"rows", len(rows),
		"usable", snap.Len(),
		"age", c.now().Sub(readAt),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return nil
}
