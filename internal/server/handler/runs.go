package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/dmeltzer/linesight/internal/domain"
)

// RunService defines the methods the runs handler requires.
type RunService interface {
	RecentRuns(ctx context.Context, opts domain.ListOpts) ([]domain.EvaluationRun, error)
	RunByID(ctx context.Context, id string) (domain.EvaluationRun, error)
}

// RunHandler serves evaluation run endpoints.
type RunHandler struct {
	svc    RunService
	logger *slog.Logger
}

// NewRunHandler creates a RunHandler.
func NewRunHandler(svc RunService, logger *slog.Logger) *RunHandler {
	return &RunHandler{svc: svc, logger: logger}
}

type listRunsResponse struct {
	Runs []domain.EvaluationRun `json:"runs"`
}

// List returns persisted evaluation runs, newest first.
// GET /api/runs?sport=americanfootball_ncaaf&limit=50&offset=0
func (h *RunHandler) List(w http.ResponseWriter, r *http.Request) {
	runs, err := h.svc.RecentRuns(r.Context(), parseListOpts(r))
	if err != nil {
		h.logger.ErrorContext(r.Context(), "handler: list runs failed",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to list runs")
		return
	}
	if runs == nil {
		runs = []domain.EvaluationRun{}
	}

	writeJSON(w, http.StatusOK, listRunsResponse{Runs: runs})
}

// Get returns one evaluation run by id.
// GET /api/runs/{id}
func (h *RunHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing run id")
		return
	}

	run, err := h.svc.RunByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeError(w, http.StatusNotFound, "run not found")
			return
		}
		h.logger.ErrorContext(r.Context(), "handler: get run failed",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to get run")
		return
	}

	writeJSON(w, http.StatusOK, run)
}
