package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/dmeltzer/linesight/internal/domain"
)

// SettlementService defines the methods the summary handler requires.
type SettlementService interface {
	Summary(ctx context.Context, sportKey string) ([]domain.SettlementSummary, error)
	ListRecent(ctx context.Context, opts domain.ListOpts) ([]domain.Settlement, error)
}

// SummaryHandler serves settlement performance endpoints.
type SummaryHandler struct {
	svc    SettlementService
	logger *slog.Logger
}

// NewSummaryHandler creates a SummaryHandler.
func NewSummaryHandler(svc SettlementService, logger *slog.Logger) *SummaryHandler {
	return &SummaryHandler{svc: svc, logger: logger}
}

type summaryResponse struct {
	Summary []domain.SettlementSummary `json:"summary"`
}

// GetSummary returns per-sport, per-market settled performance.
// GET /api/summary?sport=americanfootball_ncaaf
func (h *SummaryHandler) GetSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.svc.Summary(r.Context(), r.URL.Query().Get("sport"))
	if err != nil {
		h.logger.ErrorContext(r.Context(), "handler: settlement summary failed",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to build summary")
		return
	}
	if summary == nil {
		summary = []domain.SettlementSummary{}
	}

	writeJSON(w, http.StatusOK, summaryResponse{Summary: summary})
}

type listSettlementsResponse struct {
	Settlements []domain.Settlement `json:"settlements"`
}

// ListSettlements returns settled outcomes, newest first.
// GET /api/settlements?sport=americanfootball_ncaaf&limit=50&offset=0
func (h *SummaryHandler) ListSettlements(w http.ResponseWriter, r *http.Request) {
	settlements, err := h.svc.ListRecent(r.Context(), parseListOpts(r))
	if err != nil {
		h.logger.ErrorContext(r.Context(), "handler: list settlements failed",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to list settlements")
		return
	}
	if settlements == nil {
		settlements = []domain.Settlement{}
	}

	writeJSON(w, http.StatusOK, listSettlementsResponse{Settlements: settlements})
}
