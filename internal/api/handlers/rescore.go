package handlers

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/donaldgifford/deal-scorer/internal/engine"
)

// Rescorer runs a batch rescore.
type Rescorer interface {
	Rescore(ctx context.Context, mode engine.RescoreMode) (*engine.RescoreResult, error)
}

// RescoreHandler handles re-scoring requests.
type RescoreHandler struct {
	rescorer Rescorer
}

// NewRescoreHandler creates a new RescoreHandler.
func NewRescoreHandler(r Rescorer) *RescoreHandler {
	return &RescoreHandler{rescorer: r}
}

// RescoreInput selects which listings to rescore.
type RescoreInput struct {
	Mode string `query:"mode" doc:"unscored (default) or all" enum:"unscored,all,"`
}

// RescoreOutput is the batch summary.
type RescoreOutput struct {
	Body *engine.RescoreResult
}

// Rescore recalculates scores against the current market price snapshot.
// Listings that fail are reported in the response and do not fail the run.
func (h *RescoreHandler) Rescore(ctx context.Context, input *RescoreInput) (*RescoreOutput, error) {
	mode, err := engine.ParseRescoreMode(input.Mode)
	if err != nil {
		return nil, huma.Error400BadRequest(err.Error())
	}

	res, err := h.rescorer.Rescore(ctx, mode)
	if err != nil {
		return nil, huma.Error500InternalServerError("rescore failed: " + err.Error())
	}
	return &RescoreOutput{Body: res}, nil
}

// RegisterRescoreRoutes registers the rescore endpoint with the Huma API.
func RegisterRescoreRoutes(api huma.API, h *RescoreHandler) {
	huma.Register(api, huma.Operation{
		OperationID: "rescore-listings",
		Method:      http.MethodPost,
		Path:        "/api/v1/rescore",
		Summary:     "Rescore listings",
		Description: "Recalculates deal scores for unscored or all listings using the current market prices.",
		Tags:        []string{"scoring"},
		Errors:      []int{http.StatusBadRequest, http.StatusInternalServerError},
	}, h.Rescore)
}
