// Package domain defines the core business types for the deal scorer.
package domain

import (
	"encoding/json"
	"strings"
	"time"
)

// Listing is one marketplace offer as produced by the scrapers.
//
// Optional fields are pointers so "absent" and "present but empty" stay
// distinguishable. The scoring engine only reads a Listing.
type Listing struct {
	ID         string `json:"id"                    db:"id"`
	ExternalID string `json:"external_id"           db:"external_id"`
	URL        string `json:"url,omitempty"         db:"url"`
	Title      string `json:"title"                 db:"title"`
	Source     string `json:"source,omitempty"      db:"source"`
	Brand      string `json:"brand,omitempty"       db:"brand"`
	Model      string `json:"model,omitempty"       db:"model"`
	Condition  string `json:"condition,omitempty"   db:"condition"`
	Currency   string `json:"currency,omitempty"    db:"currency"`

	Price       *float64 `json:"price,omitempty"       db:"price"`
	Description *string  `json:"description,omitempty" db:"description"`

	// Seller
	Seller       *string  `json:"seller,omitempty"        db:"seller"`
	SellerName   *string  `json:"seller_name,omitempty"   db:"seller_name"`
	SellerType   *string  `json:"seller_type,omitempty"   db:"seller_type"`
	SellerRating *float64 `json:"seller_rating,omitempty" db:"seller_rating"`

	// Listing age. Freshness uses the first one present.
	Timestamp *time.Time `json:"timestamp,omitempty"  db:"posted_at"`
	CreatedAt *time.Time `json:"created_at,omitempty" db:"created_at"`
	ScrapedAt *time.Time `json:"scraped_at,omitempty" db:"scraped_at"`

	// Scoring
	Score          *int            `json:"score,omitempty"           db:"score"`
	Grade          *string         `json:"grade,omitempty"           db:"grade"`
	ScoreBreakdown json.RawMessage `json:"score_breakdown,omitempty" db:"score_breakdown"`
	ScoredAt       *time.Time      `json:"scored_at,omitempty"       db:"scored_at"`

	FirstSeenAt time.Time `json:"first_seen_at" db:"first_seen_at"`
	UpdatedAt   time.Time `json:"updated_at"    db:"updated_at"`
}

// ListedAt returns the first present of Timestamp, CreatedAt and ScrapedAt.
func (l *Listing) ListedAt() (time.Time, bool) {
	for _, t := range []*time.Time{l.Timestamp, l.CreatedAt, l.ScrapedAt} {
		if t != nil {
			return *t, true
		}
	}
	return time.Time{}, false
}

// MarketPriceRecord is a reference price aggregate for a brand+model pair.
// Brand and model are stored lower-cased.
type MarketPriceRecord struct {
	Brand       string   `json:"brand"               db:"brand"        yaml:"brand"`
	Model       string   `json:"model"               db:"model"        yaml:"model"`
	AvgPrice    float64  `json:"avg_price"           db:"avg_price"    yaml:"avg_price"`
	MinPrice    *float64 `json:"min_price,omitempty" db:"min_price"    yaml:"min_price,omitempty"`
	MaxPrice    *float64 `json:"max_price,omitempty" db:"max_price"    yaml:"max_price,omitempty"`
	SampleCount int      `json:"sample_count"        db:"sample_count" yaml:"sample_count"`
}

// Key returns the cache key for the record.
func (r *MarketPriceRecord) Key() string {
	return MarketKey(r.Brand, r.Model)
}

// Usable reports whether the record can serve as a price reference.
func (r *MarketPriceRecord) Usable() bool {
	return r.AvgPrice > 0
}

// MarketKey builds the normalized "brand::model" key.
func MarketKey(brand, model string) string {
	return strings.ToLower(strings.TrimSpace(brand)) + "::" + strings.ToLower(strings.TrimSpace(model))
}

// MatchLevel records which step of the matcher chain produced a PriceMatch.
type MatchLevel string

// Match level constants, in decreasing confidence.
const (
	MatchExact MatchLevel = "exact"
	MatchFuzzy MatchLevel = "fuzzy"
	MatchBrand MatchLevel = "brand"
)

// PriceMatch is a resolved market price reference for a listing.
type PriceMatch struct {
	Record MarketPriceRecord `json:"record"`
	Level  MatchLevel        `json:"level"`
}

// Job run statuses.
const (
	JobStatusRunning   = "running"
	JobStatusSucceeded = "succeeded"
	JobStatusFailed    = "failed"
	JobStatusCrashed   = "crashed"
)

// JobRun records a single execution of a scheduled job.
type JobRun struct {
	ID           string     `json:"id"                      db:"id"`
	JobName      string     `json:"job_name"                db:"job_name"`
	StartedAt    time.Time  `json:"started_at"              db:"started_at"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"  db:"completed_at"`
	Status       string     `json:"status"                  db:"status"`
	ErrorText    string     `json:"error_text,omitempty"    db:"error_text"`
	RowsAffected *int       `json:"rows_affected,omitempty" db:"rows_affected"`
}
