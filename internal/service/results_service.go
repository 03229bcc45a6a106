package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/dmeltzer/linesight/internal/domain"
	"github.com/dmeltzer/linesight/internal/platform/oddsapi"
)

// ResultsService syncs final and in-progress scores into the result store.
type ResultsService struct {
	client   *oddsapi.Client
	store    domain.ResultStore
	bus      domain.SignalBus
	audit    domain.AuditStore
	daysFrom int
	logger   *slog.Logger
}

// NewResultsService creates a ResultsService. daysFrom bounds how far
// back scores are requested; zero lets the client default apply.
func NewResultsService(
	client *oddsapi.Client,
	store domain.ResultStore,
	bus domain.SignalBus,
	audit domain.AuditStore,
	daysFrom int,
	logger *slog.Logger,
) *ResultsService {
	return &ResultsService{
		client:   client,
		store:    store,
		bus:      bus,
		audit:    audit,
		daysFrom: daysFrom,
		logger:   logger,
	}
}

// Sync fetches recent scores for a sport and upserts them. Games still
// in progress are stored too and overwritten as the source re-reports
// them. Returns the number of completed games in the batch.
func (s *ResultsService) Sync(ctx context.Context, sportKey string) (int, error) {
	results, err := s.client.Scores(ctx, sportKey, s.daysFrom)
	if err != nil {
		return 0, fmt.Errorf("results_service: fetch scores for %q: %w", sportKey, err)
	}

	if len(results) > 0 {
		if err := s.store.UpsertBatch(ctx, results); err != nil {
			return 0, fmt.Errorf("results_service: upsert scores for %q: %w", sportKey, err)
		}
	}

	completed := 0
	for _, r := range results {
		if r.Completed {
			completed++
		}
	}

	publishSync(ctx, s.bus, s.logger, domain.ChannelResults, domain.SyncEvent{
		SportKey: sportKey,
		Source:   "oddsapi",
		Records:  len(results),
		At:       time.Now().UTC(),
	})

	if auditErr := s.audit.Log(ctx, "sync.results", map[string]any{
		"sport":     sportKey,
		"records":   len(results),
		"completed": completed,
	}); auditErr != nil {
		s.logger.WarnContext(ctx, "results_service: audit log failed",
			slog.String("error", auditErr.Error()),
		)
	}

	s.logger.InfoContext(ctx, "results_service: scores refreshed",
		slog.String("sport", sportKey),
		slog.Int("games", len(results)),
		slog.Int("completed", completed),
	)
	return completed, nil
}

// ListCompleted returns stored completed games for a sport.
func (s *ResultsService) ListCompleted(ctx context.Context, sportKey string, opts domain.ListOpts) ([]domain.GameResult, error) {
	results, err := s.store.ListCompleted(ctx, sportKey, opts)
	if err != nil {
		return nil, fmt.Errorf("results_service: list completed for %q: %w", sportKey, err)
	}
	return results, nil
}
