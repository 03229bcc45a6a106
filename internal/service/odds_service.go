// Package service coordinates the platform clients, caches, stores,
// and signal bus behind the sync and evaluation operations.
package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dmeltzer/linesight/internal/domain"
	"github.com/dmeltzer/linesight/internal/platform/oddsapi"
)

const syncLockTTL = 2 * time.Minute

// OddsService refreshes the odds snapshot for a sport.
type OddsService struct {
	client *oddsapi.Client
	cache  domain.OddsCache
	quota  domain.QuotaCache
	locks  domain.LockManager
	bus    domain.SignalBus
	audit  domain.AuditStore
	logger *slog.Logger
}

// NewOddsService creates an OddsService with all required dependencies.
func NewOddsService(
	client *oddsapi.Client,
	cache domain.OddsCache,
	quota domain.QuotaCache,
	locks domain.LockManager,
	bus domain.SignalBus,
	audit domain.AuditStore,
	logger *slog.Logger,
) *OddsService {
	return &OddsService{
		client: client,
		cache:  cache,
		quota:  quota,
		locks:  locks,
		bus:    bus,
		audit:  audit,
		logger: logger,
	}
}

// Sync fetches the current odds for a sport, caches the snapshot, and
// announces it on the bus. Returns the number of games fetched. When
// another instance holds the sync lock the refresh is skipped cleanly.
func (s *OddsService) Sync(ctx context.Context, sportKey string) (int, error) {
	unlock, err := s.locks.Acquire(ctx, "sync:odds:"+sportKey, syncLockTTL)
	if err != nil {
		if errors.Is(err, domain.ErrLockHeld) {
			s.logger.DebugContext(ctx, "odds_service: sync lock held elsewhere, skipping",
				slog.String("sport", sportKey),
			)
			return 0, nil
		}
		return 0, fmt.Errorf("odds_service: acquire sync lock for %q: %w", sportKey, err)
	}
	defer unlock()

	records, err := s.client.Odds(ctx, sportKey)
	if err != nil {
		return 0, fmt.Errorf("odds_service: fetch odds for %q: %w", sportKey, err)
	}

	if err := s.cache.PutSnapshot(ctx, sportKey, records); err != nil {
		return 0, fmt.Errorf("odds_service: cache snapshot for %q: %w", sportKey, err)
	}

	publishSync(ctx, s.bus, s.logger, domain.ChannelOdds, domain.SyncEvent{
		SportKey: sportKey,
		Source:   "oddsapi",
		Records:  len(records),
		At:       time.Now().UTC(),
	})

	if auditErr := s.audit.Log(ctx, "sync.odds", map[string]any{
		"sport":   sportKey,
		"records": len(records),
	}); auditErr != nil {
		s.logger.WarnContext(ctx, "odds_service: audit log failed",
			slog.String("error", auditErr.Error()),
		)
	}

	s.logger.InfoContext(ctx, "odds_service: snapshot refreshed",
		slog.String("sport", sportKey),
		slog.Int("games", len(records)),
	)
	return len(records), nil
}

// Snapshot returns the cached odds snapshot and its fetch time.
func (s *OddsService) Snapshot(ctx context.Context, sportKey string) ([]domain.GameOddsRecord, time.Time, error) {
	records, at, err := s.cache.GetSnapshot(ctx, sportKey)
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("odds_service: snapshot for %q: %w", sportKey, err)
	}
	return records, at, nil
}

// Quota returns the last API quota observed on a fetch.
func (s *OddsService) Quota(ctx context.Context) (domain.RateLimits, error) {
	limits, err := s.quota.GetQuota(ctx)
	if err != nil {
		return domain.RateLimits{}, fmt.Errorf("odds_service: quota: %w", err)
	}
	return limits, nil
}

// publishSync announces a refreshed snapshot; bus failures are logged,
// never fatal, since the data is already cached.
func publishSync(ctx context.Context, bus domain.SignalBus, logger *slog.Logger, channel string, ev domain.SyncEvent) {
	payload, _ := json.Marshal(ev)
	if err := bus.Publish(ctx, channel, payload); err != nil {
		logger.WarnContext(ctx, "publish sync event failed",
			slog.String("channel", channel),
			slog.String("sport", ev.SportKey),
			slog.String("error", err.Error()),
		)
	}
}
