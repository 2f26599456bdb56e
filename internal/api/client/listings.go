package client

import (
	"context"
	"net/url"
	"strconv"

	"github.com/donaldgifford/deal-scorer/internal/api/handlers"
	"github.com/donaldgifford/deal-scorer/internal/engine"
	score "github.com/donaldgifford/deal-scorer/pkg/scorer"
	domain "github.com/donaldgifford/deal-scorer/pkg/types"
)

// ListingsResponse wraps a paginated listings response.
type ListingsResponse struct {
	Listings []domain.Listing `json:"listings"`
	Total    int              `json:"total"`
	Limit    int              `json:"limit"`
	Offset   int              `json:"offset"`
}

// ListListingsParams defines query parameters for listing queries.
type ListListingsParams struct {
	MinScore int
	MaxScore int
	Grade    string
	Source   string
	Brand    string
	Unscored bool
	Limit    int
	Offset   int
	OrderBy  string
}

func (p *ListListingsParams) values() url.Values {
	q := url.Values{}
	if p.MinScore > 0 {
		q.Set("min_score", strconv.Itoa(p.MinScore))
	}
	if p.MaxScore > 0 {
		q.Set("max_score", strconv.Itoa(p.MaxScore))
	}
	if p.Grade != "" {
		q.Set("grade", p.Grade)
	}
	if p.Source != "" {
		q.Set("source", p.Source)
	}
	if p.Brand != "" {
		q.Set("brand", p.Brand)
	}
	if p.Unscored {
		q.Set("unscored", "true")
	}
	if p.Limit > 0 {
		q.Set("limit", strconv.Itoa(p.Limit))
	}
	if p.Offset > 0 {
		q.Set("offset", strconv.Itoa(p.Offset))
	}
	if p.OrderBy != "" {
		q.Set("order_by", p.OrderBy)
	}
	return q
}

// ListListings returns listings matching the given parameters.
func (c *Client) ListListings(
	ctx context.Context,
	params *ListListingsParams,
) (*ListingsResponse, error) {
	path := "/api/v1/listings"
	if q := params.values(); len(q) > 0 {
		path += "?" + q.Encode()
	}

	var resp ListingsResponse
	if err := c.get(ctx, path, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// GetListing returns a single listing by ID.
func (c *Client) GetListing(ctx context.Context, id string) (*domain.Listing, error) {
	var l domain.Listing
	if err := c.get(ctx, "/api/v1/listings/"+url.PathEscape(id), &l); err != nil {
		return nil, err
	}
	return &l, nil
}

// IngestListing upserts a listing and returns it with its new score.
func (c *Client) IngestListing(
	ctx context.Context,
	body *handlers.ListingBody,
) (*domain.Listing, error) {
	var l domain.Listing
	if err := c.post(ctx, "/api/v1/listings", body, &l); err != nil {
		return nil, err
	}
	return &l, nil
}

// Score scores a listing without storing it.
func (c *Client) Score(ctx context.Context, body *handlers.ListingBody) (*score.Result, error) {
	var res score.Result
	if err := c.post(ctx, "/api/v1/score", body, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// Grades returns the grade bands, best first.
func (c *Client) Grades(ctx context.Context) ([]score.Threshold, error) {
	var th []score.Threshold
	if err := c.get(ctx, "/api/v1/grades", &th); err != nil {
		return nil, err
	}
	return th, nil
}

// Rescore triggers a batch rescore. An empty mode rescores unscored listings.
func (c *Client) Rescore(ctx context.Context, mode engine.RescoreMode) (*engine.RescoreResult, error) {
	path := "/api/v1/rescore"
	if mode != "" {
		path += "?mode=" + url.QueryEscape(string(mode))
	}

	var res engine.RescoreResult
	if err := c.post(ctx, path, nil, &res); err != nil {
		return nil, err
	}
	return &res, nil
}
