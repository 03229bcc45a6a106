package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/dmeltzer/linesight/internal/domain"
	"github.com/dmeltzer/linesight/internal/platform/predictiontracker"
)

// PredictionService refreshes the model prediction snapshot for a sport.
type PredictionService struct {
	client *predictiontracker.Client
	cache  domain.PredictionCache
	bus    domain.SignalBus
	audit  domain.AuditStore
	logger *slog.Logger
}

// NewPredictionService creates a PredictionService with all required
// dependencies.
func NewPredictionService(
	client *predictiontracker.Client,
	cache domain.PredictionCache,
	bus domain.SignalBus,
	audit domain.AuditStore,
	logger *slog.Logger,
) *PredictionService {
	return &PredictionService{
		client: client,
		cache:  cache,
		bus:    bus,
		audit:  audit,
		logger: logger,
	}
}

// Sync fetches and parses the prediction page for a sport, caches the
// snapshot, and announces it on the bus. Returns the number of
// predictions parsed.
func (s *PredictionService) Sync(ctx context.Context, sportKey string) (int, error) {
	records, diags, err := s.client.Fetch(ctx, sportKey)
	if err != nil {
		return 0, fmt.Errorf("prediction_service: fetch predictions for %q: %w", sportKey, err)
	}

	if err := s.cache.PutSnapshot(ctx, sportKey, records); err != nil {
		return 0, fmt.Errorf("prediction_service: cache snapshot for %q: %w", sportKey, err)
	}

	publishSync(ctx, s.bus, s.logger, domain.ChannelPredictions, domain.SyncEvent{
		SportKey: sportKey,
		Source:   "predictiontracker",
		Records:  len(records),
		At:       time.Now().UTC(),
	})

	if auditErr := s.audit.Log(ctx, "sync.predictions", map[string]any{
		"sport":         sportKey,
		"records":       len(records),
		"skipped_lines": len(diags),
	}); auditErr != nil {
		s.logger.WarnContext(ctx, "prediction_service: audit log failed",
			slog.String("error", auditErr.Error()),
		)
	}

	s.logger.InfoContext(ctx, "prediction_service: snapshot refreshed",
		slog.String("sport", sportKey),
		slog.Int("predictions", len(records)),
		slog.Int("skipped_lines", len(diags)),
	)
	return len(records), nil
}

// Snapshot returns the cached prediction snapshot and its fetch time.
func (s *PredictionService) Snapshot(ctx context.Context, sportKey string) ([]domain.ModelPredictionRecord, time.Time, error) {
	records, at, err := s.cache.GetSnapshot(ctx, sportKey)
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("prediction_service: snapshot for %q: %w", sportKey, err)
	}
	return records, at, nil
}
