package handler

import (
	"log/slog"
	"net/http"
	"time"
)

// PipelineHandler serves pipeline trigger endpoints.
type PipelineHandler struct {
	logger    *slog.Logger
	triggerCh chan<- struct{} // when non-nil, sending triggers one pipeline cycle
}

// NewPipelineHandler creates a PipelineHandler with the given logger.
func NewPipelineHandler(logger *slog.Logger) *PipelineHandler {
	return &PipelineHandler{logger: logger}
}

// WithTriggerChannel sets the channel to send on when a run is requested.
// The pipeline loop must receive from this channel to run one cycle.
func (h *PipelineHandler) WithTriggerChannel(ch chan<- struct{}) *PipelineHandler {
	h.triggerCh = ch
	return h
}

// TriggerRun enqueues one sync and evaluation cycle. If a trigger channel
// is configured, a non-blocking send is performed so the pipeline loop
// runs one cycle.
// POST /api/pipeline/run
func (h *PipelineHandler) TriggerRun(w http.ResponseWriter, r *http.Request) {
	h.logger.InfoContext(r.Context(), "handler: pipeline run requested")
	if h.triggerCh != nil {
		select {
		case h.triggerCh <- struct{}{}:
		default:
			// already triggered and not yet consumed
		}
	}
	writeJSON(w, http.StatusAccepted, map[string]any{
		"status":       "accepted",
		"message":      "pipeline run enqueued",
		"requested_at": time.Now().UTC().Format(time.RFC3339),
	})
}
