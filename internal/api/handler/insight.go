package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/kiranshivaraju/divelog/internal/ai"
	mw "github.com/kiranshivaraju/divelog/internal/api/middleware"
	"github.com/kiranshivaraju/divelog/internal/api/response"
	"github.com/kiranshivaraju/divelog/internal/dive"
	"github.com/kiranshivaraju/divelog/pkg/models"
)

const maxBodyBytes = 1 << 20

// InsightGenerator defines the pipeline operations the insight handlers
// depend on.
type InsightGenerator interface {
	GenerateInsight(ctx context.Context, req ai.InsightRequest) (*ai.InsightResult, error)
	GetStoredInsight(ctx context.Context, userID uuid.UUID, diveID string) (*models.StoredDiveInsight, error)
}

type insightRequest struct {
	Dive       any `json:"dive"`
	Profile    any `json:"profile"`
	Regenerate any `json:"regenerate"`
}

// NewGenerateInsightHandler returns an http.HandlerFunc for
// POST /api/v1/dives/insight.
func NewGenerateInsightHandler(svc InsightGenerator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := mw.GetUserID(r)
		if !ok {
			response.Error(w, http.StatusUnauthorized, "INVALID_TOKEN", "Missing user", nil)
			return
		}

		var req insightRequest
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid JSON body", nil)
			return
		}

		diveRaw, _ := req.Dive.(map[string]any)
		profileRaw, _ := req.Profile.(map[string]any)

		result, err := svc.GenerateInsight(r.Context(), ai.InsightRequest{
			UserID:     userID,
			Dive:       diveRaw,
			Profile:    profileRaw,
			Regenerate: dive.CoerceBool(req.Regenerate),
		})
		if err != nil {
			writeInsightError(w, err)
			return
		}

		response.Document(w, result)
	}
}

// NewGetInsightHandler returns an http.HandlerFunc for
// GET /api/v1/dives/{diveID}/insight.
func NewGetInsightHandler(svc InsightGenerator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := mw.GetUserID(r)
		if !ok {
			response.Error(w, http.StatusUnauthorized, "INVALID_TOKEN", "Missing user", nil)
			return
		}

		diveID := strings.TrimSpace(chi.URLParam(r, "diveID"))
		if diveID == "" {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "dive id is required", nil)
			return
		}

		rec, err := svc.GetStoredInsight(r.Context(), userID, diveID)
		if err != nil {
			writeInsightError(w, err)
			return
		}

		response.JSON(w, rec)
	}
}

func writeInsightError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, dive.ErrMissingDive), errors.Is(err, dive.ErrMissingDiveID):
		response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", err.Error(), nil)
	case errors.Is(err, ai.ErrInsightNotFound):
		response.Error(w, http.StatusNotFound, "NOT_FOUND",
			"No insight stored for this dive", nil)
	case errors.Is(err, ai.ErrProviderUnavailable):
		response.Error(w, http.StatusBadGateway, "AI_PROVIDER_UNAVAILABLE",
			"The AI provider is not available", nil)
	case errors.Is(err, ai.ErrInferenceTimeout):
		response.Error(w, http.StatusGatewayTimeout, "AI_INFERENCE_TIMEOUT",
			"Insight generation took too long and was cancelled", nil)
	default:
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR",
			"An unexpected error occurred", nil)
	}
}
