package engine

import (
	"context"
	"encoding/json"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/donaldgifford/deal-scorer/internal/metrics"
	"github.com/donaldgifford/deal-scorer/internal/notify"
	score "github.com/donaldgifford/deal-scorer/pkg/scorer"
	domain "github.com/donaldgifford/deal-scorer/pkg/types"
)

const noMarketDataNote = "no market data"

// Evaluate scores a listing without persisting anything.
func (eng *Engine) Evaluate(ctx context.Context, l *domain.Listing) (*score.Result, error) {
	ctx, span := tracer.Start(ctx, "engine.evaluate")
	defer span.End()

	res, err := eng.scorer.Score(ctx, l)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "scoring failed")
		return nil, err
	}
	observe(res)
	span.SetAttributes(
		attribute.Int("deal.score", res.Score),
		attribute.String("deal.grade", string(res.Grade)),
	)
	return res, nil
}

// ScoreListing computes and persists the deal score for a single stored
// listing, then notifies. Notification failures are logged, not returned.
func (eng *Engine) ScoreListing(ctx context.Context, l *domain.Listing) (*score.Result, error) {
	item, res, err := eng.scoreAndPersist(ctx, l)
	if err != nil {
		return nil, err
	}

	if err := eng.notifier.NotifyScored(ctx, item); err != nil {
		eng.log.Warn("notification failed", "listing", l.ID, "error", err)
	}
	return res, nil
}

func (eng *Engine) scoreAndPersist(
	ctx context.Context,
	l *domain.Listing,
) (*notify.ScoredListing, *score.Result, error) {
	if l.ID == "" {
		return nil, nil, fmt.Errorf("listing has no id")
	}

	res, err := eng.Evaluate(ctx, l)
	if err != nil {
		return nil, nil, fmt.Errorf("scoring %s: %w", l.ID, err)
	}

	breakdownJSON, err := json.Marshal(res.Breakdown)
	if err != nil {
		return nil, nil, fmt.Errorf("marshaling breakdown: %w", err)
	}

	if err := eng.writeLimiter.Wait(ctx); err != nil {
		return nil, nil, fmt.Errorf("waiting for write slot: %w", err)
	}

	if err := eng.store.UpdateScore(ctx, l.ID, res.Score, string(res.Grade), breakdownJSON); err != nil {
		return nil, nil, fmt.Errorf("persisting score for %s: %w", l.ID, err)
	}

	item := notify.NewScoredListing(l, res, eng.now())
	return &item, res, nil
}

// observe records scoring metrics for one result.
func observe(res *score.Result) {
	metrics.ScoringDistribution.Observe(float64(res.Score))
	metrics.ScoringGradesTotal.WithLabelValues(string(res.Grade)).Inc()
	if note, _ := res.Breakdown.PriceVsMarket.Details["note"].(string); note == noMarketDataNote {
		metrics.ScoringNoMarketDataTotal.Inc()
	}
}
