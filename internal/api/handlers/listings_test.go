package handlers_test

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/danielgtaylor/huma/v2/humatest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/donaldgifford/deal-scorer/internal/api/handlers"
	"github.com/donaldgifford/deal-scorer/internal/store"
	storeMocks "github.com/donaldgifford/deal-scorer/internal/store/mocks"
	score "github.com/donaldgifford/deal-scorer/pkg/scorer"
	domain "github.com/donaldgifford/deal-scorer/pkg/types"
)

// fakeScorer is a test double for ListingScorer.
type fakeScorer struct {
	result    *score.Result
	err       error
	evaluated []*domain.Listing
	persisted []*domain.Listing
}

func (f *fakeScorer) Evaluate(_ context.Context, l *domain.Listing) (*score.Result, error) {
	f.evaluated = append(f.evaluated, l)
	return f.result, f.err
}

func (f *fakeScorer) ScoreListing(_ context.Context, l *domain.Listing) (*score.Result, error) {
	f.persisted = append(f.persisted, l)
	return f.result, f.err
}

func greatResult() *score.Result {
	return &score.Result{
		Score: 78,
		Grade: score.GradeGreat,
		Breakdown: score.Breakdown{
			PriceVsMarket: score.Category{Points: 30, Max: score.MaxPriceVsMarket},
		},
	}
}

func TestListingsHandler_List(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		query      string
		setupMock  func(*storeMocks.MockStore)
		wantStatus int
		wantBody   string
	}{
		{
			name:  "no filters returns listings",
			query: "",
			setupMock: func(m *storeMocks.MockStore) {
				m.EXPECT().
					ListListings(mock.Anything, mock.Anything).
					Return([]domain.Listing{
						{ID: "l1", Title: "Omega Seamaster 300M"},
					}, 1, nil).
					Once()
			},
			wantStatus: http.StatusOK,
			wantBody:   `"total":1`,
		},
		{
			name:  "empty result is an empty list",
			query: "",
			setupMock: func(m *storeMocks.MockStore) {
				m.EXPECT().ListListings(mock.Anything, mock.Anything).Return(nil, 0, nil).Once()
			},
			wantStatus: http.StatusOK,
			wantBody:   `"listings":[]`,
		},
		{
			name:  "score range filter",
			query: "?min_score=70&max_score=95",
			setupMock: func(m *storeMocks.MockStore) {
				m.EXPECT().
					ListListings(mock.Anything, mock.MatchedBy(func(q *store.ListingQuery) bool {
						return q.MinScore != nil && *q.MinScore == 70 &&
							q.MaxScore != nil && *q.MaxScore == 95
					})).
					Return(nil, 0, nil).
					Once()
			},
			wantStatus: http.StatusOK,
		},
		{
			name:  "grade filter is normalized",
			query: "?grade=Below_Average",
			setupMock: func(m *storeMocks.MockStore) {
				m.EXPECT().
					ListListings(mock.Anything, mock.MatchedBy(func(q *store.ListingQuery) bool {
						return q.Grade != nil && *q.Grade == "below average"
					})).
					Return(nil, 0, nil).
					Once()
			},
			wantStatus: http.StatusOK,
		},
		{
			name:  "source brand and unscored filters",
			query: "?source=chrono24&brand=rolex&unscored=true",
			setupMock: func(m *storeMocks.MockStore) {
				m.EXPECT().
					ListListings(mock.Anything, mock.MatchedBy(func(q *store.ListingQuery) bool {
						return q.Source != nil && *q.Source == "chrono24" &&
							q.Brand != nil && *q.Brand == "rolex" && q.Unscored
					})).
					Return(nil, 0, nil).
					Once()
			},
			wantStatus: http.StatusOK,
		},
		{
			name:  "pagination params",
			query: "?limit=10&offset=20",
			setupMock: func(m *storeMocks.MockStore) {
				m.EXPECT().
					ListListings(mock.Anything, mock.MatchedBy(func(q *store.ListingQuery) bool {
						return q.Limit == 10 && q.Offset == 20
					})).
					Return(nil, 0, nil).
					Once()
			},
			wantStatus: http.StatusOK,
			wantBody:   `"limit":10`,
		},
		{
			name:  "order by param",
			query: "?order_by=scored_at",
			setupMock: func(m *storeMocks.MockStore) {
				m.EXPECT().
					ListListings(mock.Anything, mock.MatchedBy(func(q *store.ListingQuery) bool {
						return q.OrderBy == "scored_at"
					})).
					Return(nil, 0, nil).
					Once()
			},
			wantStatus: http.StatusOK,
		},
		{
			name:       "unknown grade returns 400",
			query:      "?grade=amazing",
			setupMock:  func(_ *storeMocks.MockStore) {},
			wantStatus: http.StatusBadRequest,
			wantBody:   "unknown grade",
		},
		{
			name:       "invalid min_score is rejected",
			query:      "?min_score=abc",
			setupMock:  func(_ *storeMocks.MockStore) {},
			wantStatus: http.StatusUnprocessableEntity,
		},
		{
			name:       "unknown order_by is rejected",
			query:      "?order_by=title",
			setupMock:  func(_ *storeMocks.MockStore) {},
			wantStatus: http.StatusUnprocessableEntity,
		},
		{
			name:  "store error returns 500",
			query: "",
			setupMock: func(m *storeMocks.MockStore) {
				m.EXPECT().
					ListListings(mock.Anything, mock.Anything).
					Return(nil, 0, assert.AnError).
					Once()
			},
			wantStatus: http.StatusInternalServerError,
			wantBody:   "listing query failed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			mockStore := storeMocks.NewMockStore(t)
			tt.setupMock(mockStore)

			_, api := humatest.New(t)
			handlers.RegisterListingRoutes(api, handlers.NewListingsHandler(mockStore, &fakeScorer{}))

			resp := api.Get("/api/v1/listings" + tt.query)
			assert.Equal(t, tt.wantStatus, resp.Code)
			if tt.wantBody != "" {
				assert.Contains(t, resp.Body.String(), tt.wantBody)
			}
		})
	}
}

func TestListingsHandler_Get(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		id         string
		setupMock  func(*storeMocks.MockStore)
		wantStatus int
		wantBody   string
	}{
		{
			name: "found returns 200",
			id:   "abc-123",
			setupMock: func(m *storeMocks.MockStore) {
				m.EXPECT().
					GetListing(mock.Anything, "abc-123").
					Return(&domain.Listing{ID: "abc-123", Title: "Tudor Black Bay 58"}, nil).
					Once()
			},
			wantStatus: http.StatusOK,
			wantBody:   `"title":"Tudor Black Bay 58"`,
		},
		{
			name: "not found returns 404",
			id:   "missing",
			setupMock: func(m *storeMocks.MockStore) {
				m.EXPECT().GetListing(mock.Anything, "missing").Return(nil, store.ErrNotFound).Once()
			},
			wantStatus: http.StatusNotFound,
			wantBody:   "listing not found",
		},
		{
			name: "store error returns 500",
			id:   "abc-123",
			setupMock: func(m *storeMocks.MockStore) {
				m.EXPECT().GetListing(mock.Anything, "abc-123").Return(nil, errors.New("conn reset")).Once()
			},
			wantStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			mockStore := storeMocks.NewMockStore(t)
			tt.setupMock(mockStore)

			_, api := humatest.New(t)
			handlers.RegisterListingRoutes(api, handlers.NewListingsHandler(mockStore, &fakeScorer{}))

			resp := api.Get("/api/v1/listings/" + tt.id)
			assert.Equal(t, tt.wantStatus, resp.Code)
			if tt.wantBody != "" {
				assert.Contains(t, resp.Body.String(), tt.wantBody)
			}
		})
	}
}

func TestListingsHandler_Ingest(t *testing.T) {
	t.Parallel()

	mockStore := storeMocks.NewMockStore(t)
	mockStore.EXPECT().
		UpsertListing(mock.Anything, mock.MatchedBy(func(l *domain.Listing) bool {
			return l.Source == "chrono24" && l.ExternalID == "123" && *l.Price == 9500
		})).
		Run(func(_ context.Context, l *domain.Listing) {
			l.ID = "7b6a0c1e-0000-4000-8000-000000000001"
		}).
		Return(nil).
		Once()

	sc := &fakeScorer{result: greatResult()}
	_, api := humatest.New(t)
	handlers.RegisterListingRoutes(api, handlers.NewListingsHandler(mockStore, sc))

	resp := api.Post("/api/v1/listings", strings.NewReader(`{
		"source": "chrono24",
		"external_id": " 123 ",
		"title": "Rolex Submariner 116610LN",
		"brand": "Rolex",
		"model": "Submariner",
		"price": 9500
	}`))
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())

	body := resp.Body.String()
	assert.Contains(t, body, `"id":"7b6a0c1e-0000-4000-8000-000000000001"`)
	assert.Contains(t, body, `"score":78`)
	assert.Contains(t, body, `"grade":"great"`)
	assert.Contains(t, body, `"price_vs_market"`)

	require.Len(t, sc.persisted, 1)
	assert.Equal(t, "7b6a0c1e-0000-4000-8000-000000000001", sc.persisted[0].ID)
}

func TestListingsHandler_IngestErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		body       string
		setupMock  func(*storeMocks.MockStore)
		scorerErr  error
		wantStatus int
		wantBody   string
	}{
		{
			name:       "missing identity returns 422",
			body:       `{"title":"no identity"}`,
			setupMock:  func(*storeMocks.MockStore) {},
			wantStatus: http.StatusUnprocessableEntity,
			wantBody:   "source and external_id required",
		},
		{
			name: "upsert failure returns 500",
			body: `{"source":"ebay","external_id":"1"}`,
			setupMock: func(m *storeMocks.MockStore) {
				m.EXPECT().UpsertListing(mock.Anything, mock.Anything).Return(errors.New("db down")).Once()
			},
			wantStatus: http.StatusInternalServerError,
			wantBody:   "storing listing failed",
		},
		{
			name: "scoring failure returns 500",
			body: `{"source":"ebay","external_id":"1"}`,
			setupMock: func(m *storeMocks.MockStore) {
				m.EXPECT().UpsertListing(mock.Anything, mock.Anything).Return(nil).Once()
			},
			scorerErr:  errors.New("persist failed"),
			wantStatus: http.StatusInternalServerError,
			wantBody:   "listing stored but scoring failed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			mockStore := storeMocks.NewMockStore(t)
			tt.setupMock(mockStore)

			_, api := humatest.New(t)
			handlers.RegisterListingRoutes(api, handlers.NewListingsHandler(mockStore, &fakeScorer{err: tt.scorerErr}))

			resp := api.Post("/api/v1/listings", strings.NewReader(tt.body))
			assert.Equal(t, tt.wantStatus, resp.Code)
			assert.Contains(t, resp.Body.String(), tt.wantBody)
		})
	}
}
