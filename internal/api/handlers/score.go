package handlers

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	score "github.com/donaldgifford/deal-scorer/pkg/scorer"
)

// ScoreHandler scores ad-hoc listings without storing them.
type ScoreHandler struct {
	scorer ListingScorer
}

// NewScoreHandler creates a new ScoreHandler.
func NewScoreHandler(sc ListingScorer) *ScoreHandler {
	return &ScoreHandler{scorer: sc}
}

// ScoreInput is the request body for the score endpoint.
type ScoreInput struct {
	Body ListingBody
}

// ScoreOutput is the deal score with its per-category breakdown.
type ScoreOutput struct {
	Body *score.Result
}

// Score computes the deal score for a listing. Nothing is persisted.
func (h *ScoreHandler) Score(ctx context.Context, input *ScoreInput) (*ScoreOutput, error) {
	res, err := h.scorer.Evaluate(ctx, input.Body.Listing())
	if err != nil {
		return nil, huma.Error500InternalServerError("scoring failed: " + err.Error())
	}
	return &ScoreOutput{Body: res}, nil
}

// GradesOutput lists the grade bands, best first.
type GradesOutput struct {
	Body []score.Threshold
}

// Grades returns the score thresholds for every grade.
func (*ScoreHandler) Grades(_ context.Context, _ *struct{}) (*GradesOutput, error) {
	return &GradesOutput{Body: score.Thresholds()}, nil
}

// RegisterScoreRoutes registers scoring endpoints with the Huma API.
func RegisterScoreRoutes(api huma.API, h *ScoreHandler) {
	huma.Register(api, huma.Operation{
		OperationID: "score-listing",
		Method:      http.MethodPost,
		Path:        "/api/v1/score",
		Summary:     "Score a listing",
		Description: "Computes the deal score, grade, and breakdown for a listing without storing it.",
		Tags:        []string{"scoring"},
		Errors:      []int{http.StatusInternalServerError},
	}, h.Score)

	huma.Register(api, huma.Operation{
		OperationID: "list-grades",
		Method:      http.MethodGet,
		Path:        "/api/v1/grades",
		Summary:     "List grade thresholds",
		Description: "Returns the minimum score for each grade, best grade first.",
		Tags:        []string{"scoring"},
	}, h.Grades)
}
