package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/dmeltzer/linesight/internal/domain"
)

// RecommendationService defines the methods the recommendations
// handler requires.
type RecommendationService interface {
	RecentRecommendations(ctx context.Context, market domain.MarketKind, opts domain.ListOpts) ([]domain.BetRecommendation, error)
	Recommendation(ctx context.Context, id string) (domain.BetRecommendation, error)
}

// RecommendationHandler serves bet recommendation endpoints.
type RecommendationHandler struct {
	svc    RecommendationService
	logger *slog.Logger
}

// NewRecommendationHandler creates a RecommendationHandler.
func NewRecommendationHandler(svc RecommendationService, logger *slog.Logger) *RecommendationHandler {
	return &RecommendationHandler{svc: svc, logger: logger}
}

type listRecommendationsResponse struct {
	Recommendations []domain.BetRecommendation `json:"recommendations"`
}

// List returns persisted recommendations, newest first.
// GET /api/recommendations?market=spread&sport=americanfootball_ncaaf&limit=50&offset=0
func (h *RecommendationHandler) List(w http.ResponseWriter, r *http.Request) {
	market, ok := parseMarket(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "unknown market")
		return
	}

	recs, err := h.svc.RecentRecommendations(r.Context(), market, parseListOpts(r))
	if err != nil {
		h.logger.ErrorContext(r.Context(), "handler: list recommendations failed",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to list recommendations")
		return
	}
	if recs == nil {
		recs = []domain.BetRecommendation{}
	}

	writeJSON(w, http.StatusOK, listRecommendationsResponse{Recommendations: recs})
}

// Get returns one recommendation by id.
// GET /api/recommendations/{id}
func (h *RecommendationHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing recommendation id")
		return
	}

	rec, err := h.svc.Recommendation(r.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeError(w, http.StatusNotFound, "recommendation not found")
			return
		}
		h.logger.ErrorContext(r.Context(), "handler: get recommendation failed",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to get recommendation")
		return
	}

	writeJSON(w, http.StatusOK, rec)
}
