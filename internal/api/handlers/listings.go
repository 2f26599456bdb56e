package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/donaldgifford/deal-scorer/internal/store"
	score "github.com/donaldgifford/deal-scorer/pkg/scorer"
	domain "github.com/donaldgifford/deal-scorer/pkg/types"
)

// ListingScorer scores listings, with or without persisting the result.
type ListingScorer interface {
	Evaluate(ctx context.Context, l *domain.Listing) (*score.Result, error)
	ScoreListing(ctx context.Context, l *domain.Listing) (*score.Result, error)
}

// ListingBody is the wire form of a scraped listing. Score fields are
// computed server side and cannot be supplied.
type ListingBody struct {
	ExternalID   string     `json:"external_id,omitempty"   doc:"Marketplace listing ID"                     example:"123456789"`
	URL          string     `json:"url,omitempty"           doc:"Listing URL"`
	Title        string     `json:"title,omitempty"         doc:"Listing title"                              example:"Rolex Submariner 116610LN full set"`
	Source       string     `json:"source,omitempty"        doc:"Marketplace the listing was scraped from"   example:"chrono24"`
	Brand        string     `json:"brand,omitempty"         doc:"Brand as extracted by the scraper"          example:"Rolex"`
	Model        string     `json:"model,omitempty"         doc:"Model as extracted by the scraper"          example:"Submariner"`
	Condition    string     `json:"condition,omitempty"     doc:"Free-text condition"                        example:"very good"`
	Currency     string     `json:"currency,omitempty"      doc:"ISO currency code"                          example:"EUR"`
	Price        *float64   `json:"price,omitempty"         doc:"Asking price in whole currency units"       example:"9500"`
	Description  *string    `json:"description,omitempty"   doc:"Listing description"`
	Seller       *string    `json:"seller,omitempty"        doc:"Seller handle"`
	SellerName   *string    `json:"seller_name,omitempty"   doc:"Seller display name"`
	SellerType   *string    `json:"seller_type,omitempty"   doc:"Seller type, e.g. dealer or private"`
	SellerRating *float64   `json:"seller_rating,omitempty" doc:"Seller rating on a 0-5 scale"               example:"4.8"`
	Timestamp    *time.Time `json:"timestamp,omitempty"     doc:"When the listing was posted"`
	CreatedAt    *time.Time `json:"created_at,omitempty"    doc:"When the marketplace created the listing"`
	ScrapedAt    *time.Time `json:"scraped_at,omitempty"    doc:"When the listing was scraped"`
}

// Listing converts the body to a domain listing.
func (b *ListingBody) Listing() *domain.Listing {
	return &domain.Listing{
		ExternalID:   strings.TrimSpace(b.ExternalID),
		URL:          b.URL,
		Title:        b.Title,
		Source:       strings.TrimSpace(b.Source),
		Brand:        b.Brand,
		Model:        b.Model,
		Condition:    b.Condition,
		Currency:     b.Currency,
		Price:        b.Price,
		Description:  b.Description,
		Seller:       b.Seller,
		SellerName:   b.SellerName,
		SellerType:   b.SellerType,
		SellerRating: b.SellerRating,
		Timestamp:    b.Timestamp,
		CreatedAt:    b.CreatedAt,
		ScrapedAt:    b.ScrapedAt,
	}
}

// ListingsHandler handles listing ingest and query endpoints.
type ListingsHandler struct {
	store  store.Store
	scorer ListingScorer
}

// NewListingsHandler creates a new ListingsHandler.
func NewListingsHandler(s store.Store, sc ListingScorer) *ListingsHandler {
	return &ListingsHandler{store: s, scorer: sc}
}

// --- Input/Output types ---

// ListListingsInput is the input for listing listings with optional filters.
type ListListingsInput struct {
	MinScore int    `query:"min_score" doc:"Minimum deal score"             minimum:"0" maximum:"100"`
	MaxScore int    `query:"max_score" doc:"Maximum deal score"             minimum:"0" maximum:"100"`
	Grade    string `query:"grade"     doc:"Filter by grade"`
	Source   string `query:"source"    doc:"Filter by marketplace"`
	Brand    string `query:"brand"     doc:"Filter by brand"`
	Unscored bool   `query:"unscored"  doc:"Only listings without a score"`
	Limit    int    `query:"limit"     doc:"Number of results (default 50)" minimum:"1" maximum:"500"`
	Offset   int    `query:"offset"    doc:"Pagination offset"              minimum:"0"`
	OrderBy  string `query:"order_by"  doc:"Sort field"                                             enum:"score,price,first_seen_at,scored_at,"`
}

// ListListingsOutput is the response for listing listings.
type ListListingsOutput struct {
	Body struct {
		Listings []domain.Listing `json:"listings"`
		Total    int              `json:"total"`
		Limit    int              `json:"limit"`
		Offset   int              `json:"offset"`
	}
}

// GetListingInput is the input for getting a single listing.
type GetListingInput struct {
	ID string `path:"id" doc:"Listing UUID"`
}

// GetListingOutput is the response for getting a single listing.
type GetListingOutput struct {
	Body domain.Listing
}

// IngestListingInput is the request body for ingesting a listing.
type IngestListingInput struct {
	Body ListingBody
}

// IngestListingOutput is the stored and scored listing.
type IngestListingOutput struct {
	Body domain.Listing
}

// --- Handlers ---

// ListListings returns listings with optional filters for score range,
// grade, source and brand, with pagination.
func (h *ListingsHandler) ListListings(
	ctx context.Context,
	input *ListListingsInput,
) (*ListListingsOutput, error) {
	q := &store.ListingQuery{
		Unscored: input.Unscored,
		Offset:   input.Offset,
		OrderBy:  input.OrderBy,
	}

	if input.MinScore != 0 {
		q.MinScore = &input.MinScore
	}

	if input.MaxScore != 0 {
		q.MaxScore = &input.MaxScore
	}

	if input.Grade != "" {
		g, err := score.ParseGrade(input.Grade)
		if err != nil {
			return nil, huma.Error400BadRequest(err.Error())
		}
		grade := string(g)
		q.Grade = &grade
	}

	if input.Source != "" {
		q.Source = &input.Source
	}

	if input.Brand != "" {
		q.Brand = &input.Brand
	}

	if input.Limit != 0 {
		q.Limit = input.Limit
	}

	listings, total, err := h.store.ListListings(ctx, q)
	if err != nil {
		return nil, huma.Error500InternalServerError("listing query failed: " + err.Error())
	}

	if listings == nil {
		listings = []domain.Listing{}
	}

	resp := &ListListingsOutput{}
	resp.Body.Listings = listings
	resp.Body.Total = total
	resp.Body.Limit = q.Limit
	resp.Body.Offset = q.Offset

	return resp, nil
}

// GetListing returns a single listing by ID.
func (h *ListingsHandler) GetListing(
	ctx context.Context,
	input *GetListingInput,
) (*GetListingOutput, error) {
	listing, err := h.store.GetListing(ctx, input.ID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, huma.Error404NotFound("listing not found")
	}
	if err != nil {
		return nil, huma.Error500InternalServerError("fetching listing failed: " + err.Error())
	}

	return &GetListingOutput{Body: *listing}, nil
}

// IngestListing upserts a listing by (source, external_id) and scores it.
func (h *ListingsHandler) IngestListing(
	ctx context.Context,
	input *IngestListingInput,
) (*IngestListingOutput, error) {
	l := input.Body.Listing()

	var missing []string
	if l.Source == "" {
		missing = append(missing, "source")
	}
	if l.ExternalID == "" {
		missing = append(missing, "external_id")
	}
	if len(missing) > 0 {
		return nil, huma.Error422UnprocessableEntity(strings.Join(missing, " and ") + " required")
	}

	if err := h.store.UpsertListing(ctx, l); err != nil {
		return nil, huma.Error500InternalServerError("storing listing failed: " + err.Error())
	}

	res, err := h.scorer.ScoreListing(ctx, l)
	if err != nil {
		return nil, huma.Error500InternalServerError("listing stored but scoring failed: " + err.Error())
	}

	breakdown, err := json.Marshal(res.Breakdown)
	if err != nil {
		return nil, huma.Error500InternalServerError("encoding breakdown failed: " + err.Error())
	}
	grade := string(res.Grade)
	scoredAt := time.Now().UTC()
	l.Score = &res.Score
	l.Grade = &grade
	l.ScoreBreakdown = breakdown
	l.ScoredAt = &scoredAt

	return &IngestListingOutput{Body: *l}, nil
}

// RegisterListingRoutes registers listing endpoints with the Huma API.
func RegisterListingRoutes(api huma.API, h *ListingsHandler) {
	huma.Register(api, huma.Operation{
		OperationID: "list-listings",
		Method:      http.MethodGet,
		Path:        "/api/v1/listings",
		Summary:     "List listings",
		Description: "Returns listings with optional filters for score range, grade, source, brand, and pagination.",
		Tags:        []string{"listings"},
		Errors:      []int{http.StatusBadRequest, http.StatusInternalServerError},
	}, h.ListListings)

	huma.Register(api, huma.Operation{
		OperationID: "get-listing",
		Method:      http.MethodGet,
		Path:        "/api/v1/listings/{id}",
		Summary:     "Get a listing by ID",
		Description: "Returns a single listing by its UUID.",
		Tags:        []string{"listings"},
		Errors:      []int{http.StatusNotFound, http.StatusInternalServerError},
	}, h.GetListing)

	huma.Register(api, huma.Operation{
		OperationID:   "ingest-listing",
		Method:        http.MethodPost,
		Path:          "/api/v1/listings",
		Summary:       "Ingest and score a listing",
		Description:   "Upserts a listing by source and external ID, scores it, and persists the score.",
		Tags:          []string{"listings"},
		DefaultStatus: http.StatusCreated,
		Errors:        []int{http.StatusUnprocessableEntity, http.StatusInternalServerError},
	}, h.IngestListing)
}
