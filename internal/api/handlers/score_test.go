package handlers_test

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/danielgtaylor/huma/v2/humatest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/donaldgifford/deal-scorer/internal/api/handlers"
	score "github.com/donaldgifford/deal-scorer/pkg/scorer"
)

func TestScoreHandler_Score(t *testing.T) {
	t.Parallel()

	sc := &fakeScorer{result: greatResult()}
	_, api := humatest.New(t)
	handlers.RegisterScoreRoutes(api, handlers.NewScoreHandler(sc))

	resp := api.Post("/api/v1/score", strings.NewReader(`{
		"title": "Omega Speedmaster Professional full set",
		"brand": "Omega",
		"model": "Speedmaster",
		"price": 4200,
		"seller_rating": 4.9
	}`))
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	var got score.Result
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &got))
	assert.Equal(t, 78, got.Score)
	assert.Equal(t, score.GradeGreat, got.Grade)

	require.Len(t, sc.evaluated, 1)
	assert.Equal(t, "Omega", sc.evaluated[0].Brand)
	assert.InDelta(t, 4.9, *sc.evaluated[0].SellerRating, 0.001)
	assert.Empty(t, sc.persisted, "ad-hoc scoring never persists")
}

func TestScoreHandler_ScoreError(t *testing.T) {
	t.Parallel()

	_, api := humatest.New(t)
	handlers.RegisterScoreRoutes(api, handlers.NewScoreHandler(&fakeScorer{err: errors.New("boom")}))

	resp := api.Post("/api/v1/score", strings.NewReader(`{"title":"x"}`))
	assert.Equal(t, http.StatusInternalServerError, resp.Code)
	assert.Contains(t, resp.Body.String(), "scoring failed")
}

func TestScoreHandler_Grades(t *testing.T) {
	t.Parallel()

	_, api := humatest.New(t)
	handlers.RegisterScoreRoutes(api, handlers.NewScoreHandler(&fakeScorer{}))

	resp := api.Get("/api/v1/grades")
	require.Equal(t, http.StatusOK, resp.Code)

	var got []score.Threshold
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &got))
	assert.Equal(t, score.Thresholds(), got)
}
