// Package notify defines the notification interface and implementations
// for scored-listing delivery.
package notify

import (
	"context"
	"time"

	score "github.com/donaldgifford/deal-scorer/pkg/scorer"
	domain "github.com/donaldgifford/deal-scorer/pkg/types"
)

// ScoredListing contains the data a notifier needs about a freshly scored
// listing.
type ScoredListing struct {
	ListingID  string          `json:"listing_id"`
	ExternalID string          `json:"external_id,omitempty"`
	Title      string          `json:"title"`
	URL        string          `json:"url,omitempty"`
	Source     string          `json:"source,omitempty"`
	Brand      string          `json:"brand,omitempty"`
	Model      string          `json:"model,omitempty"`
	Condition  string          `json:"condition,omitempty"`
	Price      *float64        `json:"price,omitempty"`
	Currency   string          `json:"currency,omitempty"`
	Score      int             `json:"score"`
	Grade      score.Grade     `json:"grade"`
	Breakdown  score.Breakdown `json:"breakdown"`
	ScoredAt   time.Time       `json:"scored_at"`
}

// NewScoredListing combines a listing and its result.
func NewScoredListing(l *domain.Listing, r *score.Result, scoredAt time.Time) ScoredListing {
	return ScoredListing{
		ListingID:  l.ID,
		ExternalID: l.ExternalID,
		Title:      l.Title,
		URL:        l.URL,
		Source:     l.Source,
		Brand:      l.Brand,
		Model:      l.Model,
		Condition:  l.Condition,
		Price:      l.Price,
		Currency:   l.Currency,
		Score:      r.Score,
		Grade:      r.Grade,
		Breakdown:  r.Breakdown,
		ScoredAt:   scoredAt,
	}
}

// Notifier defines the interface for delivering scored listings.
type Notifier interface {
	NotifyScored(ctx context.Context, s *ScoredListing) error
	NotifyBatch(ctx context.Context, items []ScoredListing) error
}
