package handlers_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"testing"

	"github.com/danielgtaylor/huma/v2/humatest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/donaldgifford/deal-scorer/internal/api/handlers"
	"github.com/donaldgifford/deal-scorer/internal/pricecache"
	domain "github.com/donaldgifford/deal-scorer/pkg/types"
)

type fakeShared struct {
	calls int
	err   error
}

func (f *fakeShared) Invalidate(context.Context) error {
	f.calls++
	return f.err
}

func newTestCache(loader pricecache.Loader) *pricecache.Cache {
	return pricecache.New(loader, pricecache.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
}

func watchPrices() pricecache.StaticLoader {
	return pricecache.StaticLoader{
		{Brand: "rolex", Model: "submariner", AvgPrice: 10000, SampleCount: 40},
		{Brand: "rolex", Model: "datejust", AvgPrice: 7000, SampleCount: 90},
		{Brand: "omega", Model: "speedmaster", AvgPrice: 5000, SampleCount: 25},
	}
}

func TestMarketPricesHandler_Status(t *testing.T) {
	t.Parallel()

	cache := newTestCache(watchPrices())
	_, api := humatest.New(t)
	handlers.RegisterMarketPriceRoutes(api, handlers.NewMarketPricesHandler(cache, nil))

	resp := api.Get("/api/v1/market-prices")
	require.Equal(t, http.StatusOK, resp.Code)

	var cold handlers.MarketPriceStatus
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &cold))
	assert.Zero(t, cold.Entries, "status does not trigger a load")
	assert.False(t, cold.Fresh)
	assert.Nil(t, cold.LoadedAt)
	assert.InDelta(t, pricecache.DefaultTTL.Seconds(), cold.TTLSeconds, 0.001)

	require.NoError(t, cache.Load(context.Background()))

	resp = api.Get("/api/v1/market-prices?include_records=true")
	require.Equal(t, http.StatusOK, resp.Code)

	var warm handlers.MarketPriceStatus
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &warm))
	assert.Equal(t, 3, warm.Entries)
	assert.True(t, warm.Fresh)
	assert.NotNil(t, warm.LoadedAt)
	assert.Len(t, warm.Records, 3)
}

func TestMarketPricesHandler_Resolve(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		query      string
		wantStatus int
		wantLevel  domain.MatchLevel
		wantKey    string
	}{
		{
			name:       "exact",
			query:      "?brand=Rolex&model=Submariner",
			wantStatus: http.StatusOK,
			wantLevel:  domain.MatchExact,
			wantKey:    "rolex::submariner",
		},
		{
			name:       "fuzzy",
			query:      "?brand=Omega&model=Speedmaster%20Professional",
			wantStatus: http.StatusOK,
			wantLevel:  domain.MatchFuzzy,
			wantKey:    "omega::speedmaster",
		},
		{
			name:       "brand fallback picks the deepest sample",
			query:      "?brand=rolex&model=GMT-Master",
			wantStatus: http.StatusOK,
			wantLevel:  domain.MatchBrand,
			wantKey:    "rolex::datejust",
		},
		{
			name:       "no match",
			query:      "?brand=seiko&model=skx007",
			wantStatus: http.StatusNotFound,
		},
		{
			name:       "nothing to resolve",
			query:      "",
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, api := humatest.New(t)
			handlers.RegisterMarketPriceRoutes(api, handlers.NewMarketPricesHandler(newTestCache(watchPrices()), nil))

			resp := api.Get("/api/v1/market-prices/resolve" + tt.query)
			require.Equal(t, tt.wantStatus, resp.Code, resp.Body.String())
			if tt.wantStatus != http.StatusOK {
				return
			}

			var m domain.PriceMatch
			require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &m))
			assert.Equal(t, tt.wantLevel, m.Level)
			assert.Equal(t, tt.wantKey, m.Record.Key())
		})
	}
}

func TestMarketPricesHandler_Invalidate(t *testing.T) {
	t.Parallel()

	cache := newTestCache(watchPrices())
	require.NoError(t, cache.Load(context.Background()))

	shared := &fakeShared{}
	_, api := humatest.New(t)
	handlers.RegisterMarketPriceRoutes(api, handlers.NewMarketPricesHandler(cache, shared))

	resp := api.Post("/api/v1/market-prices/invalidate")
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, 1, shared.calls)
	assert.Nil(t, cache.Snapshot())

	resp = api.Post("/api/v1/market-prices/invalidate?reload=true")
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), `"entries":3`)
	assert.Equal(t, 2, shared.calls)
	assert.NotNil(t, cache.Snapshot())
}

func TestMarketPricesHandler_InvalidateErrors(t *testing.T) {
	t.Parallel()

	t.Run("shared cache failure keeps the local snapshot", func(t *testing.T) {
		t.Parallel()

		cache := newTestCache(watchPrices())
		require.NoError(t, cache.Load(context.Background()))

		_, api := humatest.New(t)
		handlers.RegisterMarketPriceRoutes(api,
			handlers.NewMarketPricesHandler(cache, &fakeShared{err: errors.New("redis down")}))

		resp := api.Post("/api/v1/market-prices/invalidate")
		assert.Equal(t, http.StatusInternalServerError, resp.Code)
		assert.NotNil(t, cache.Snapshot())
	})

	t.Run("reload failure returns 502", func(t *testing.T) {
		t.Parallel()

		failing := pricecache.LoaderFunc(func(context.Context) ([]domain.MarketPriceRecord, error) {
			return nil, errors.New("connection refused")
		})

		_, api := humatest.New(t)
		handlers.RegisterMarketPriceRoutes(api, handlers.NewMarketPricesHandler(newTestCache(failing), nil))

		resp := api.Post("/api/v1/market-prices/invalidate?reload=true")
		assert.Equal(t, http.StatusBadGateway, resp.Code)
		assert.Contains(t, resp.Body.String(), "connection refused")
	})
}
