package handlers_test

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/danielgtaylor/huma/v2/humatest"
	"github.com/stretchr/testify/assert"

	"github.com/donaldgifford/deal-scorer/internal/api/handlers"
	"github.com/donaldgifford/deal-scorer/internal/engine"
)

// mockRescorer is a test double for Rescorer.
type mockRescorer struct {
	result  *engine.RescoreResult
	err     error
	gotMode engine.RescoreMode
}

func (m *mockRescorer) Rescore(_ context.Context, mode engine.RescoreMode) (*engine.RescoreResult, error) {
	m.gotMode = mode
	if m.err != nil {
		return nil, m.err
	}
	res := *m.result
	res.Mode = mode
	return &res, nil
}

func TestRescoreHandler_Rescore(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		query      string
		rescorer   *mockRescorer
		wantStatus int
		wantMode   engine.RescoreMode
		wantBody   string
	}{
		{
			name:  "defaults to unscored",
			query: "",
			rescorer: &mockRescorer{result: &engine.RescoreResult{
				Scored:   12,
				Failures: []engine.ListingFailure{},
				Duration: time.Second,
			}},
			wantStatus: http.StatusOK,
			wantMode:   engine.RescoreUnscored,
			wantBody:   `"scored":12`,
		},
		{
			name:  "full rescore reports failures",
			query: "?mode=all",
			rescorer: &mockRescorer{result: &engine.RescoreResult{
				Scored:   3,
				Failures: []engine.ListingFailure{{ListingID: "l9", Error: "deadlock"}},
			}},
			wantStatus: http.StatusOK,
			wantMode:   engine.RescoreAll,
			wantBody:   `"listing_id":"l9"`,
		},
		{
			name:       "unknown mode is rejected",
			query:      "?mode=stale",
			rescorer:   &mockRescorer{},
			wantStatus: http.StatusUnprocessableEntity,
		},
		{
			name:       "rescore error returns 500",
			query:      "?mode=all",
			rescorer:   &mockRescorer{err: errors.New("reading listings page: connection refused")},
			wantStatus: http.StatusInternalServerError,
			wantMode:   engine.RescoreAll,
			wantBody:   "rescore failed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, api := humatest.New(t)
			handlers.RegisterRescoreRoutes(api, handlers.NewRescoreHandler(tt.rescorer))

			resp := api.Post("/api/v1/rescore" + tt.query)
			assert.Equal(t, tt.wantStatus, resp.Code)
			assert.Equal(t, tt.wantMode, tt.rescorer.gotMode)
			if tt.wantBody != "" {
				assert.Contains(t, resp.Body.String(), tt.wantBody)
			}
		})
	}
}
