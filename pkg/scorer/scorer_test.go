package score

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "github.com/donaldgifford/deal-scorer/pkg/types"
)

func ptr[T any](v T) *T { return &v }

var fixedNow = time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

// staticResolver resolves every lookup to the same record.
type staticResolver struct {
	match *domain.PriceMatch
	calls int
}

func (r *staticResolver) Resolve(_ context.Context, _, _ string) (domain.PriceMatch, bool) {
	r.calls++
	if r.match == nil {
		return domain.PriceMatch{}, false
	}
	return *r.match, true
}

func marketAvg(avg float64) *staticResolver {
	return &staticResolver{match: &domain.PriceMatch{
		Record: domain.MarketPriceRecord{
			Brand:       "rolex",
			Model:       "submariner",
			AvgPrice:    avg,
			SampleCount: 42,
		},
		Level: domain.MatchExact,
	}}
}

func rolexListing() *domain.Listing {
	return &domain.Listing{
		Title:       "[WTS] Rolex Submariner 126610LN BNIB - $8,000",
		Price:       ptr(8000.0),
		Currency:    "USD",
		Brand:       "Rolex",
		Model:       "Submariner",
		Condition:   "BNIB",
		Description: ptr("Comes with box, papers and warranty. 25+ transactions on r/watchexchange."),
		Source:      "reddit",
		Timestamp:   ptr(fixedNow.Add(-2 * time.Hour)),
	}
}

func TestScore_WorkedExample(t *testing.T) {
	t.Parallel()

	s := New(marketAvg(10000), WithClock(func() time.Time { return fixedNow }))
	res, err := s.Score(context.Background(), rolexListing())
	require.NoError(t, err)

	b := res.Breakdown
	assert.InDelta(t, 30.0, b.PriceVsMarket.Points, 1e-9)
	assert.InDelta(t, 9.0, b.SellerReputation.Points, 1e-9)
	assert.InDelta(t, 15.0, b.Condition.Points, 1e-9)
	assert.InDelta(t, 7.5, b.Completeness.Points, 1e-9)
	assert.InDelta(t, 10.0, b.Freshness.Points, 1e-9)
	assert.InDelta(t, 3.0, b.SweetSpot.Points, 1e-9)

	assert.Equal(t, 75, res.Score)
	assert.Equal(t, GradeGreat, res.Grade)
	assert.Equal(t, "BNIB", b.Condition.Details["detected"])
	assert.Equal(t, 20.0, b.PriceVsMarket.Details["discount_pct"])
	assert.NotContains(t, b.PriceVsMarket.Details, "price_corrected_from")
}

func TestScore_NilListing(t *testing.T) {
	t.Parallel()

	_, err := New(nil).Score(context.Background(), nil)
	require.ErrorIs(t, err, ErrNilListing)
}

func TestScore_Deterministic(t *testing.T) {
	t.Parallel()

	s := New(marketAvg(9500), WithClock(func() time.Time { return fixedNow }))
	l := rolexListing()

	first, err := s.Score(context.Background(), l)
	require.NoError(t, err)
	firstJSON, err := json.Marshal(first)
	require.NoError(t, err)

	for range 5 {
		again, err := s.Score(context.Background(), l)
		require.NoError(t, err)
		againJSON, err := json.Marshal(again)
		require.NoError(t, err)
		assert.JSONEq(t, string(firstJSON), string(againJSON))
	}
}

func TestScore_Bounds(t *testing.T) {
	t.Parallel()

	listings := []*domain.Listing{
		{},
		{Title: "nothing useful"},
		{
			Title:        "Omega Speedmaster full set BNIB $3,000 authorized dealer 500 transactions",
			Price:        ptr(3000.0),
			Brand:        "omega",
			Model:        "speedmaster",
			Source:       "chrono24",
			SellerRating: ptr(100.0),
			CreatedAt:    ptr(fixedNow),
		},
		{
			Title:       "broken watch for parts, first time seller, no returns, as-is",
			Price:       ptr(-5.0),
			Source:      "facebook",
			Description: ptr("new seller"),
			ScrapedAt:   ptr(fixedNow.Add(-5000 * time.Hour)),
		},
		{
			Title: "Seiko $50",
			Price: ptr(1_000_000.0),
			Brand: "seiko",
		},
	}

	resolvers := []PriceResolver{nil, marketAvg(100), marketAvg(1_000_000)}

	for _, r := range resolvers {
		s := New(r, WithClock(func() time.Time { return fixedNow }))
		for _, l := range listings {
			res, err := s.Score(context.Background(), l)
			require.NoError(t, err)
			assert.GreaterOrEqual(t, res.Score, 0)
			assert.LessOrEqual(t, res.Score, 100)
			for _, c := range res.Breakdown.Categories() {
				assert.GreaterOrEqual(t, c.Points, 0.0)
				assert.LessOrEqual(t, c.Points, c.Max)
			}
		}
	}
}

func TestScore_CategoryMaximumsSumTo100(t *testing.T) {
	t.Parallel()

	sum := MaxPriceVsMarket + MaxSellerReputation + MaxCondition +
		MaxCompleteness + MaxFreshness + MaxSweetSpot
	assert.InDelta(t, 100.0, sum, 1e-9)
}

func TestScore_SkipsResolverWithoutBrandOrModel(t *testing.T) {
	t.Parallel()

	r := marketAvg(10000)
	res, err := New(r).Score(context.Background(), &domain.Listing{
		Title: "mystery watch",
		Price: ptr(500.0),
	})
	require.NoError(t, err)
	assert.Zero(t, r.calls)
	assert.InDelta(t, 16.0, res.Breakdown.PriceVsMarket.Points, 1e-9)
}

func TestGradeFor(t *testing.T) {
	t.Parallel()

	tests := []struct {
		score int
		want  Grade
	}{
		{100, GradeInsane},
		{90, GradeInsane},
		{89, GradeGreat},
		{75, GradeGreat},
		{74, GradeGood},
		{60, GradeGood},
		{59, GradeFair},
		{45, GradeFair},
		{44, GradeBelowAverage},
		{30, GradeBelowAverage},
		{29, GradePoorValue},
		{0, GradePoorValue},
	}

	for _, tt := range tests {
		t.Run(string(tt.want), func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, GradeFor(tt.score))
		})
	}
}

func TestThresholds_ReturnsCopy(t *testing.T) {
	t.Parallel()

	th := Thresholds()
	require.Len(t, th, 6)
	th[0].MinScore = 1

	assert.Equal(t, 90, GradeInsane.MinScore())
	assert.Equal(t, GradeInsane, GradeFor(95))
}

func TestGrade_AtLeast(t *testing.T) {
	t.Parallel()

	assert.True(t, GradeInsane.AtLeast(GradeGreat))
	assert.True(t, GradeGreat.AtLeast(GradeGreat))
	assert.False(t, GradeGood.AtLeast(GradeGreat))
	assert.True(t, GradePoorValue.AtLeast(GradePoorValue))
}

func TestParseGrade(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in      string
		want    Grade
		wantErr bool
	}{
		{in: "great", want: GradeGreat},
		{in: " INSANE ", want: GradeInsane},
		{in: "below_average", want: GradeBelowAverage},
		{in: "poor value", want: GradePoorValue},
		{in: "amazing", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()

			got, err := ParseGrade(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
