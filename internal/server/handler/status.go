package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/dmeltzer/linesight/internal/domain"
)

// OddsReader is the odds service surface the status endpoint needs.
type OddsReader interface {
	Snapshot(ctx context.Context, sportKey string) ([]domain.GameOddsRecord, time.Time, error)
	Quota(ctx context.Context) (domain.RateLimits, error)
}

// PredictionReader is the prediction service surface the status
// endpoint needs.
type PredictionReader interface {
	Snapshot(ctx context.Context, sportKey string) ([]domain.ModelPredictionRecord, time.Time, error)
}

// RunLister reports persisted evaluation runs.
type RunLister interface {
	RecentRuns(ctx context.Context, opts domain.ListOpts) ([]domain.EvaluationRun, error)
}

// StatusHandler serves the operational status snapshot: API quota,
// per-sport cache ages, and the most recent evaluation run.
type StatusHandler struct {
	odds      OddsReader
	preds     PredictionReader
	runs      RunLister
	sports    []string
	startedAt time.Time
	logger    *slog.Logger
}

// NewStatusHandler creates a StatusHandler covering the given sports.
func NewStatusHandler(odds OddsReader, preds PredictionReader, runs RunLister, sports []string, logger *slog.Logger) *StatusHandler {
	return &StatusHandler{
		odds:      odds,
		preds:     preds,
		runs:      runs,
		sports:    sports,
		startedAt: time.Now().UTC(),
		logger:    logger,
	}
}

type sportStatus struct {
	Sport             string `json:"sport"`
	OddsAgeSeconds    *int64 `json:"odds_age_seconds"`
	OddsGames         int    `json:"odds_games"`
	PredictionAge     *int64 `json:"prediction_age_seconds"`
	PredictionRecords int    `json:"prediction_records"`
}

// GetStatus responds with quota, snapshot ages, and the last run.
// Missing snapshots show as null ages rather than errors.
// GET /api/status
func (h *StatusHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	now := time.Now().UTC()

	resp := map[string]any{
		"status":         "ok",
		"uptime_seconds": int64(now.Sub(h.startedAt).Seconds()),
	}

	if limits, err := h.odds.Quota(ctx); err == nil {
		resp["quota"] = map[string]any{
			"requests_remaining": limits.RequestsRemaining,
			"requests_used":      limits.RequestsUsed,
			"observed_at":        limits.ObservedAt.Format(time.RFC3339),
		}
	} else if !errors.Is(err, domain.ErrNotFound) {
		h.logger.WarnContext(ctx, "handler: quota read failed", slog.String("error", err.Error()))
	}

	sports := make([]sportStatus, 0, len(h.sports))
	for _, sport := range h.sports {
		st := sportStatus{Sport: sport}
		if odds, at, err := h.odds.Snapshot(ctx, sport); err == nil {
			age := int64(now.Sub(at).Seconds())
			st.OddsAgeSeconds = &age
			st.OddsGames = len(odds)
		}
		if preds, at, err := h.preds.Snapshot(ctx, sport); err == nil {
			age := int64(now.Sub(at).Seconds())
			st.PredictionAge = &age
			st.PredictionRecords = len(preds)
		}
		sports = append(sports, st)
	}
	resp["sports"] = sports

	if runs, err := h.runs.RecentRuns(ctx, domain.ListOpts{Limit: 1}); err == nil && len(runs) > 0 {
		run := runs[0]
		resp["last_run"] = map[string]any{
			"id":              run.ID,
			"sport":           run.SportKey,
			"finished_at":     run.FinishedAt.Format(time.RFC3339),
			"matched_games":   run.MatchedGames,
			"recommendations": run.Recommendations,
			"opportunities":   run.Opportunities,
		}
	} else if err != nil {
		h.logger.WarnContext(ctx, "handler: last run read failed", slog.String("error", err.Error()))
	}

	writeJSON(w, http.StatusOK, resp)
}
