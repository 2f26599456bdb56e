package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/donaldgifford/deal-scorer/internal/api/handlers"
	"github.com/donaldgifford/deal-scorer/internal/engine"
	score "github.com/donaldgifford/deal-scorer/pkg/scorer"
	domain "github.com/donaldgifford/deal-scorer/pkg/types"
)

func TestClient_ConnectionRefused(t *testing.T) {
	t.Parallel()

	c := New("http://127.0.0.1:1") // nothing listening
	_, err := c.ListJobs(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "API server not running")
}

func TestClient_HTTPError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"internal"}`))
	}))
	defer srv.Close()

	c := New(srv.URL)
	_, err := c.Grades(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "API error (HTTP 500)")
}

func TestClient_ListListings(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/listings", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "great", q.Get("grade"))
		assert.Equal(t, "rolex", q.Get("brand"))
		assert.Equal(t, "true", q.Get("unscored"))
		assert.Equal(t, "10", q.Get("limit"))
		assert.False(t, q.Has("min_score"))

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(ListingsResponse{
			Listings: []domain.Listing{{ID: "l1"}},
			Total:    1,
			Limit:    10,
		})
	}))
	defer srv.Close()

	c := New(srv.URL)
	resp, err := c.ListListings(context.Background(), &ListListingsParams{
		Grade:    "great",
		Brand:    "rolex",
		Unscored: true,
		Limit:    10,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, resp.Total)
	assert.Len(t, resp.Listings, 1)
}

func TestClient_GetListing(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/listings/abc-123", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(domain.Listing{ID: "abc-123", Title: "Tudor Black Bay"})
	}))
	defer srv.Close()

	c := New(srv.URL)
	l, err := c.GetListing(context.Background(), "abc-123")
	require.NoError(t, err)
	assert.Equal(t, "Tudor Black Bay", l.Title)
}

func TestClient_IngestListing(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/v1/listings", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var body handlers.ListingBody
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "chrono24", body.Source)

		scoreVal := 81
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(domain.Listing{
			ID:         "l-created",
			Source:     body.Source,
			ExternalID: body.ExternalID,
			Score:      &scoreVal,
		})
	}))
	defer srv.Close()

	c := New(srv.URL)
	l, err := c.IngestListing(context.Background(), &handlers.ListingBody{
		Source:     "chrono24",
		ExternalID: "123",
	})
	require.NoError(t, err)
	assert.Equal(t, "l-created", l.ID)
	require.NotNil(t, l.Score)
	assert.Equal(t, 81, *l.Score)
}

func TestClient_Score(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/score", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(score.Result{Score: 92, Grade: score.GradeInsane})
	}))
	defer srv.Close()

	c := New(srv.URL)
	res, err := c.Score(context.Background(), &handlers.ListingBody{Title: "Omega Speedmaster"})
	require.NoError(t, err)
	assert.Equal(t, 92, res.Score)
	assert.Equal(t, score.GradeInsane, res.Grade)
}

func TestClient_Rescore(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		mode      engine.RescoreMode
		wantQuery string
	}{
		{name: "default mode", mode: "", wantQuery: ""},
		{name: "all", mode: engine.RescoreAll, wantQuery: "mode=all"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, http.MethodPost, r.Method)
				assert.Equal(t, "/api/v1/rescore", r.URL.Path)
				assert.Equal(t, tt.wantQuery, r.URL.RawQuery)
				w.Header().Set("Content-Type", "application/json")
				_ = json.NewEncoder(w).Encode(engine.RescoreResult{
					Mode:     engine.RescoreAll,
					Scored:   12,
					Failures: []engine.ListingFailure{{ListingID: "l9", Error: "boom"}},
				})
			}))
			defer srv.Close()

			c := New(srv.URL)
			res, err := c.Rescore(context.Background(), tt.mode)
			require.NoError(t, err)
			assert.Equal(t, 12, res.Scored)
			assert.Len(t, res.Failures, 1)
		})
	}
}

func TestClient_GetJobHistory(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/jobs/rescore_all", r.URL.Path)
		assert.Equal(t, "5", r.URL.Query().Get("limit"))
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode([]domain.JobRun{{JobName: "rescore_all", Status: domain.JobStatusSucceeded}})
	}))
	defer srv.Close()

	c := New(srv.URL)
	runs, err := c.GetJobHistory(context.Background(), "rescore_all", 5)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, domain.JobStatusSucceeded, runs[0].Status)
}

func TestClient_MarketPrices(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/api/v1/market-prices":
			assert.Equal(t, "true", r.URL.Query().Get("include_records"))
			_ = json.NewEncoder(w).Encode(handlers.MarketPriceStatus{Entries: 2, Fresh: true})
		case "/api/v1/market-prices/resolve":
			assert.Equal(t, "Rolex", r.URL.Query().Get("brand"))
			_ = json.NewEncoder(w).Encode(domain.PriceMatch{
				Record: domain.MarketPriceRecord{Brand: "rolex", Model: "submariner", AvgPrice: 10000},
				Level:  domain.MatchExact,
			})
		case "/api/v1/market-prices/invalidate":
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, "true", r.URL.Query().Get("reload"))
			_ = json.NewEncoder(w).Encode(handlers.MarketPriceStatus{Entries: 3})
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}))
	defer srv.Close()

	c := New(srv.URL)
	ctx := context.Background()

	st, err := c.MarketPriceStatus(ctx, true)
	require.NoError(t, err)
	assert.Equal(t, 2, st.Entries)

	m, err := c.ResolveMarketPrice(ctx, "Rolex", "Submariner")
	require.NoError(t, err)
	assert.Equal(t, domain.MatchExact, m.Level)

	st, err = c.InvalidateMarketPrices(ctx, true)
	require.NoError(t, err)
	assert.Equal(t, 3, st.Entries)
}

func TestWithHTTPClient(t *testing.T) {
	t.Parallel()

	custom := &http.Client{}
	c := New("http://example.com", WithHTTPClient(custom))
	assert.Same(t, custom, c.httpClient)
}
