package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/donaldgifford/deal-scorer/internal/pricecache"
	domain "github.com/donaldgifford/deal-scorer/pkg/types"
)

// PriceCache is the in-process market price cache.
type PriceCache interface {
	Snapshot() *pricecache.Snapshot
	TTL() time.Duration
	Fresh() bool
	Resolve(ctx context.Context, brand, model string) (domain.PriceMatch, bool)
	Load(ctx context.Context) error
	Invalidate()
}

// SharedCache is a cache shared between replicas that must be cleared
// before the local snapshot is rebuilt.
type SharedCache interface {
	Invalidate(ctx context.Context) error
}

// MarketPricesHandler exposes the market price cache.
type MarketPricesHandler struct {
	cache  PriceCache
	shared SharedCache
}

// NewMarketPricesHandler creates a new MarketPricesHandler. shared may be nil.
func NewMarketPricesHandler(c PriceCache, shared SharedCache) *MarketPricesHandler {
	return &MarketPricesHandler{cache: c, shared: shared}
}

// --- Input/Output types ---

// MarketPriceStatusInput controls whether records are included.
type MarketPriceStatusInput struct {
	IncludeRecords bool `query:"include_records" doc:"Include every cached record"`
}

// MarketPriceStatus describes the current snapshot.
type MarketPriceStatus struct {
	Entries    int                        `json:"entries"             doc:"Usable records in the snapshot"`
	LoadedAt   *time.Time                 `json:"loaded_at,omitempty" doc:"When the snapshot was loaded"`
	TTLSeconds float64                    `json:"ttl_seconds"         doc:"Snapshot lifetime"`
	Fresh      bool                       `json:"fresh"               doc:"Whether the snapshot is within its TTL"`
	Records    []domain.MarketPriceRecord `json:"records,omitempty"`
}

// MarketPriceStatusOutput is the response for the status endpoint.
type MarketPriceStatusOutput struct {
	Body MarketPriceStatus
}

// ResolveMarketPriceInput is a brand and model to look up.
type ResolveMarketPriceInput struct {
	Brand string `query:"brand" doc:"Listing brand" example:"Rolex"`
	Model string `query:"model" doc:"Listing model" example:"Submariner"`
}

// ResolveMarketPriceOutput is the matched reference price.
type ResolveMarketPriceOutput struct {
	Body domain.PriceMatch
}

// InvalidateInput controls whether the snapshot is rebuilt immediately.
type InvalidateInput struct {
	Reload bool `query:"reload" doc:"Reload the snapshot before responding"`
}

// --- Handlers ---

// Status returns the snapshot size, age, and freshness.
func (h *MarketPricesHandler) Status(
	_ context.Context,
	input *MarketPriceStatusInput,
) (*MarketPriceStatusOutput, error) {
	return &MarketPriceStatusOutput{Body: h.status(input.IncludeRecords)}, nil
}

// Resolve runs the matcher chain for a brand and model.
func (h *MarketPricesHandler) Resolve(
	ctx context.Context,
	input *ResolveMarketPriceInput,
) (*ResolveMarketPriceOutput, error) {
	if input.Brand == "" && input.Model == "" {
		return nil, huma.Error400BadRequest("brand or model required")
	}

	m, ok := h.cache.Resolve(ctx, input.Brand, input.Model)
	if !ok {
		return nil, huma.Error404NotFound("no market price for " + domain.MarketKey(input.Brand, input.Model))
	}
	return &ResolveMarketPriceOutput{Body: m}, nil
}

// Invalidate drops the cached snapshot so the next read reloads it. The
// external aggregation job calls this after recomputing market prices.
func (h *MarketPricesHandler) Invalidate(
	ctx context.Context,
	input *InvalidateInput,
) (*MarketPriceStatusOutput, error) {
	if h.shared != nil {
		if err := h.shared.Invalidate(ctx); err != nil {
			return nil, huma.Error500InternalServerError("invalidating shared cache failed: " + err.Error())
		}
	}

	h.cache.Invalidate()

	if input.Reload {
		if err := h.cache.Load(ctx); err != nil {
			return nil, huma.Error502BadGateway("reloading market prices failed: " + err.Error())
		}
	}

	return &MarketPriceStatusOutput{Body: h.status(false)}, nil
}

func (h *MarketPricesHandler) status(withRecords bool) MarketPriceStatus {
	st := MarketPriceStatus{
		TTLSeconds: h.cache.TTL().Seconds(),
		Fresh:      h.cache.Fresh(),
	}

	snap := h.cache.Snapshot()
	if snap == nil {
		return st
	}

	loadedAt := snap.LoadedAt()
	st.Entries = snap.Len()
	st.LoadedAt = &loadedAt
	if withRecords {
		st.Records = snap.Records()
	}
	return st
}

// RegisterMarketPriceRoutes registers market price cache endpoints with the Huma API.
func RegisterMarketPriceRoutes(api huma.API, h *MarketPricesHandler) {
	huma.Register(api, huma.Operation{
		OperationID: "market-price-status",
		Method:      http.MethodGet,
		Path:        "/api/v1/market-prices",
		Summary:     "Market price cache status",
		Description: "Returns the size, age, and freshness of the market price snapshot.",
		Tags:        []string{"market-prices"},
	}, h.Status)

	huma.Register(api, huma.Operation{
		OperationID: "resolve-market-price",
		Method:      http.MethodGet,
		Path:        "/api/v1/market-prices/resolve",
		Summary:     "Resolve a market price",
		Description: "Runs the exact, fuzzy, and brand-fallback matchers for a brand and model.",
		Tags:        []string{"market-prices"},
		Errors:      []int{http.StatusBadRequest, http.StatusNotFound},
	}, h.Resolve)

	huma.Register(api, huma.Operation{
		OperationID: "invalidate-market-prices",
		Method:      http.MethodPost,
		Path:        "/api/v1/market-prices/invalidate",
		Summary:     "Invalidate market prices",
		Description: "Drops the cached snapshot, including the shared cache, so the next read reloads it.",
		Tags:        []string{"market-prices"},
		Errors:      []int{http.StatusInternalServerError, http.StatusBadGateway},
	}, h.Invalidate)
}
