// Package score implements the deal scoring engine: six category scorers
// summed into a 0-100 deal score with an explainable breakdown.
package score

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	domain "github.com/donaldgifford/deal-scorer/pkg/types"
)

// Category maximums. They sum to 100.
const (
	MaxPriceVsMarket    = 40.0
	MaxSellerReputation = 20.0
	MaxCondition        = 15.0
	MaxCompleteness     = 10.0
	MaxFreshness        = 10.0
	MaxSweetSpot        = 5.0
)

// ErrNilListing is returned when Score is called without a listing.
var ErrNilListing = errors.New("listing is required")

// PriceResolver resolves a brand and model to a market price reference.
// A false return means no reference data is available.
type PriceResolver interface {
	Resolve(ctx context.Context, brand, model string) (domain.PriceMatch, bool)
}

// Category is the result of one category scorer.
type Category struct {
	Points  float64        `json:"points"`
	Max     float64        `json:"max"`
	Details map[string]any `json:"details"`
}

// Breakdown holds the per-category scores.
type Breakdown struct {
	PriceVsMarket    Category `json:"price_vs_market"`
	SellerReputation Category `json:"seller_reputation"`
	Condition        Category `json:"condition"`
	Completeness     Category `json:"completeness"`
	Freshness        Category `json:"freshness"`
	SweetSpot        Category `json:"sweet_spot"`
}

// Categories returns the six categories in a fixed order.
func (b *Breakdown) Categories() []Category {
	return []Category{
		b.PriceVsMarket,
		b.SellerReputation,
		b.Condition,
		b.Completeness,
		b.Freshness,
		b.SweetSpot,
	}
}

// Result is the deal score for one listing.
type Result struct {
	Score     int       `json:"score"`
	Grade     Grade     `json:"grade"`
	Breakdown Breakdown `json:"breakdown"`
}

// Scorer computes deal scores. It holds no per-listing state and is safe
// for concurrent use.
type Scorer struct {
	prices PriceResolver
	now    func() time.Time
}

// Option configures a Scorer.
type Option func(*Scorer)

// WithClock overrides the time source used for freshness.
func WithClock(now func() time.Time) Option {
	return func(s *Scorer) {
		s.now = now
	}
}

// New creates a Scorer. A nil resolver scores every listing as having no
// market data.
func New(prices PriceResolver, opts ...Option) *Scorer {
	s := &Scorer{
		prices: prices,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Score runs all six category scorers and aggregates them.
func (s *Scorer) Score(ctx context.Context, l *domain.Listing) (*Result, error) {
	if l == nil {
		return nil, ErrNilListing
	}

	var match *domain.PriceMatch
	if s.prices != nil && (l.Brand != "" || l.Model != "") {
		if m, ok := s.prices.Resolve(ctx, l.Brand, l.Model); ok {
			match = &m
		}
	}

	b := Breakdown{
		PriceVsMarket:    priceVsMarket(l, match),
		SellerReputation: sellerReputation(l),
		Condition:        condition(l),
		Completeness:     completeness(l),
		Freshness:        freshness(l, s.now()),
		SweetSpot:        sweetSpot(l),
	}

	total := decimal.Zero
	for _, c := range b.Categories() {
		total = total.Add(decimal.NewFromFloat(c.Points))
	}

	score := int(total.Round(0).IntPart())
	score = max(0, min(100, score))

	return &Result{
		Score:     score,
		Grade:     GradeFor(score),
		Breakdown: b,
	}, nil
}

// round1 rounds half away from zero to one decimal place.
func round1(v float64) float64 {
	return decimal.NewFromFloat(v).Round(1).InexactFloat64()
}

func clamp(v, lo, hi float64) float64 {
	return max(lo, min(hi, v))
}

// scaled returns maxPts * clamp(ratio, 0, 1) rounded to one decimal place.
func scaled(maxPts, ratio float64) float64 {
	return decimal.NewFromFloat(maxPts).
		Mul(decimal.NewFromFloat(clamp(ratio, 0, 1))).
		Round(1).
		InexactFloat64()
}
