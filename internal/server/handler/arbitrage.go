package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/dmeltzer/linesight/internal/domain"
)

// ArbService defines the methods the arbitrage handler requires.
type ArbService interface {
	RecentArbs(ctx context.Context, market domain.MarketKind, opts domain.ListOpts) ([]domain.ArbitrageOpportunity, error)
}

// ArbHandler serves arbitrage opportunity endpoints.
type ArbHandler struct {
	svc    ArbService
	logger *slog.Logger
}

// NewArbHandler creates an ArbHandler.
func NewArbHandler(svc ArbService, logger *slog.Logger) *ArbHandler {
	return &ArbHandler{svc: svc, logger: logger}
}

type listArbsResponse struct {
	Opportunities []domain.ArbitrageOpportunity `json:"opportunities"`
}

// List returns persisted arbitrage opportunities, newest first.
// GET /api/arbitrage?market=moneyline&sport=americanfootball_ncaaf&limit=50&offset=0
func (h *ArbHandler) List(w http.ResponseWriter, r *http.Request) {
	market, ok := parseMarket(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "unknown market")
		return
	}

	opps, err := h.svc.RecentArbs(r.Context(), market, parseListOpts(r))
	if err != nil {
		h.logger.ErrorContext(r.Context(), "handler: list arbitrage failed",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to list arbitrage opportunities")
		return
	}
	if opps == nil {
		opps = []domain.ArbitrageOpportunity{}
	}

	writeJSON(w, http.StatusOK, listArbsResponse{Opportunities: opps})
}
