// Package store defines the datastore abstraction for deal-scorer.
// All business logic depends on the Store interface, never on concrete
// implementations. This enables mock-based testing without a running database.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	domain "github.com/donaldgifford/deal-scorer/pkg/types"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("not found")

// ListingQuery defines optional filters for listing queries.
type ListingQuery struct {
	MinScore *int
	MaxScore *int
	Grade    *string
	Source   *string
	Brand    *string
	Unscored bool
	Limit    int // default 50
	Offset   int
	OrderBy  string // "score", "price", "first_seen_at", "scored_at"
}

// Store defines all data access operations for deal-scorer.
type Store interface {
	// Listings
	UpsertListing(ctx context.Context, l *domain.Listing) error
	GetListing(ctx context.Context, id string) (*domain.Listing, error)
	ListListings(ctx context.Context, opts *ListingQuery) ([]domain.Listing, int, error)
	ListListingsAfter(ctx context.Context, afterID string, limit int) ([]domain.Listing, error)
	ListUnscoredListings(ctx context.Context, limit int) ([]domain.Listing, error)
	UpdateScore(ctx context.Context, id string, score int, grade string, breakdown json.RawMessage) error
	CountListings(ctx context.Context) (total int, unscored int, err error)

	// Market prices. The aggregates are computed by an external job; the
	// upsert exists for fixture imports.
	ListMarketPrices(ctx context.Context) ([]domain.MarketPriceRecord, error)
	UpsertMarketPrices(ctx context.Context, records []domain.MarketPriceRecord) error

	// Scheduler
	InsertJobRun(ctx context.Context, jobName string) (id string, err error)
	CompleteJobRun(ctx context.Context, id string, status string, errText string, rowsAffected int) error
	ListJobRuns(ctx context.Context, jobName string, limit int) ([]domain.JobRun, error)
	ListLatestJobRuns(ctx context.Context) ([]domain.JobRun, error)
	RecoverStaleJobRuns(ctx context.Context, olderThan time.Duration) (int, error)
	AcquireSchedulerLock(ctx context.Context, jobName string, holder string, ttl time.Duration) (bool, error)
	ReleaseSchedulerLock(ctx context.Context, jobName string, holder string) error

	// Migrations
	Migrate(ctx context.Context) error

	// Health
	Ping(ctx context.Context) error
}
