package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"
	"golang.org/x/sync/errgroup"

	"github.com/donaldgifford/deal-scorer/internal/metrics"
	"github.com/donaldgifford/deal-scorer/internal/notify"
	domain "github.com/donaldgifford/deal-scorer/pkg/types"
)

// RescoreMode selects which listings a batch run covers.
type RescoreMode string

// Rescore modes.
const (
	RescoreUnscored RescoreMode = "unscored"
	RescoreAll      RescoreMode = "all"
)

// ParseRescoreMode validates a mode name. The empty string means unscored.
func ParseRescoreMode(s string) (RescoreMode, error) {
	switch RescoreMode(s) {
	case "", RescoreUnscored:
		return RescoreUnscored, nil
	case RescoreAll:
		return RescoreAll, nil
	default:
		return "", fmt.Errorf("unknown rescore mode %q", s)
	}
}

// ListingFailure records one listing that could not be rescored.
type ListingFailure struct {
	ListingID string `json:"listing_id"`
	Error     string `json:"error"`
}

// RescoreResult summarizes a batch run. Per-listing failures do not fail
// the run; they are reported here.
type RescoreResult struct {
	Mode     RescoreMode      `json:"mode"`
	Scored   int              `json:"scored"`
	Failures []ListingFailure `json:"failures"`
	Duration time.Duration    `json:"duration"`
}

// pageFunc returns the next page of listings, given the last listing of the
// previous page (nil on the first call).
type pageFunc func(ctx context.Context, last *domain.Listing) ([]domain.Listing, error)

// Rescore scores every listing selected by mode. The market price snapshot
// is reloaded once before the first page. If that reload keeps failing the
// run still proceeds against whatever snapshot the cache holds, which may be
// stale or empty.
func (eng *Engine) Rescore(ctx context.Context, mode RescoreMode) (*RescoreResult, error) {
	ctx, span := tracer.Start(ctx, "engine.rescore")
	defer span.End()

	start := time.Now()
	defer func() {
		metrics.RescoreDuration.Observe(time.Since(start).Seconds())
	}()

	next, err := eng.pager(mode)
	if err != nil {
		return nil, err
	}

	if err := eng.warm(ctx); err != nil {
		metrics.RescoreWarmFailuresTotal.Inc()
		span.RecordError(err)
		eng.log.Error("market price warm-up failed, scoring with cached snapshot",
			"mode", mode,
			"error", err,
		)
	}

	res := &RescoreResult{Mode: mode, Failures: []ListingFailure{}}
	failed := make(map[string]bool)

	var last *domain.Listing
	for {
		page, err := next(ctx, last)
		if err != nil {
			return nil, fmt.Errorf("reading listings page: %w", err)
		}
		if len(page) == 0 {
			break
		}

		scored, failures, err := eng.scorePage(ctx, page)
		if err != nil {
			return nil, err
		}

		res.Scored += len(scored)
		for _, f := range failures {
			if !failed[f.ListingID] {
				failed[f.ListingID] = true
				res.Failures = append(res.Failures, f)
			}
		}

		if len(scored) > 0 {
			if err := eng.notifier.NotifyBatch(ctx, scored); err != nil {
				eng.log.Warn("batch notification failed", "count", len(scored), "error", err)
			}
		}

		// Unscored pages shrink as listings get scored; a page with no
		// progress would be read again forever.
		if len(page) < eng.batchSize || (mode == RescoreUnscored && len(scored) == 0) {
			break
		}
		last = &page[len(page)-1]
	}

	res.Duration = time.Since(start)
	eng.log.Info("rescore complete",
		"mode", mode,
		"scored", res.Scored,
		"failed", len(res.Failures),
		"duration_ms", res.Duration.Milliseconds(),
	)
	return res, nil
}

func (eng *Engine) pager(mode RescoreMode) (pageFunc, error) {
	switch mode {
	case RescoreUnscored:
		return func(ctx context.Context, _ *domain.Listing) ([]domain.Listing, error) {
			return eng.store.ListUnscoredListings(ctx, eng.batchSize)
		}, nil
	case RescoreAll:
		return func(ctx context.Context, last *domain.Listing) ([]domain.Listing, error) {
			after := ""
			if last != nil {
				after = last.ID
			}
			return eng.store.ListListingsAfter(ctx, after, eng.batchSize)
		}, nil
	default:
		return nil, fmt.Errorf("unknown rescore mode %q", mode)
	}
}

// warm loads the market price snapshot, retrying with exponential backoff.
func (eng *Engine) warm(ctx context.Context) error {
	if eng.prices == nil {
		return nil
	}

	_, err := backoff.Retry(ctx,
		func() (struct{}, error) {
			return struct{}{}, eng.prices.Load(ctx)
		},
		backoff.WithBackOff(eng.newBackOff()),
		backoff.WithMaxTries(uint(eng.warmRetries)),
		backoff.WithNotify(func(err error, d time.Duration) {
			eng.log.Warn("market price warm-up failed, retrying", "error", err, "retry_in", d)
		}),
	)
	if err != nil {
		return fmt.Errorf("warming market prices: %w", err)
	}
	return nil
}

// scorePage scores one page with bounded concurrency. Only cancellation
// aborts the page; every other error becomes a ListingFailure.
func (eng *Engine) scorePage(
	ctx context.Context,
	page []domain.Listing,
) ([]notify.ScoredListing, []ListingFailure, error) {
	var (
		mu       sync.Mutex
		scored   = make([]notify.ScoredListing, 0, len(page))
		failures []ListingFailure
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(eng.workers)

	for i := range page {
		l := &page[i]
		g.Go(func() error {
			item, _, err := eng.scoreAndPersist(gctx, l)

			mu.Lock()
			defer mu.Unlock()

			if err != nil {
				if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
					return err
				}
				metrics.RescoreFailuresTotal.Inc()
				eng.log.Warn("rescoring listing failed", "listing", l.ID, "error", err)
				failures = append(failures, ListingFailure{ListingID: l.ID, Error: err.Error()})
				return nil
			}

			metrics.RescoredListingsTotal.Inc()
			scored = append(scored, *item)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, nil, fmt.Errorf("rescoring page: %w", err)
	}
	return scored, failures, nil
}
