package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dmeltzer/linesight/internal/domain"
	"github.com/redis/go-redis/v9"
)

const defaultPredictionTTL = 6 * time.Hour

type predictionSnapshot struct {
	FetchedAt time.Time                      `json:"fetched_at"`
	Records   []domain.ModelPredictionRecord `json:"records"`
}

// PredictionCache implements domain.PredictionCache with one
// JSON-serialized snapshot per sport under
// "predictions:snapshot:{sportKey}". Prediction pages move slowly, so
// the default lifetime is hours rather than minutes.
type PredictionCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewPredictionCache creates a PredictionCache backed by the given
// Client. A zero ttl falls back to 6 hours.
func NewPredictionCache(c *Client, ttl time.Duration) *PredictionCache {
	if ttl <= 0 {
		ttl = defaultPredictionTTL
	}
	return &PredictionCache{rdb: c.Underlying(), ttl: ttl}
}

func predictionSnapshotKey(sportKey string) string {
	return "predictions:snapshot:" + sportKey
}

// PutSnapshot replaces the sport's snapshot, stamping it with the
// current time.
func (pc *PredictionCache) PutSnapshot(ctx context.Context, sportKey string, records []domain.ModelPredictionRecord) error {
	snap := predictionSnapshot{
		FetchedAt: time.Now().UTC(),
		Records:   records,
	}
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("redis: marshal prediction snapshot %s: %w", sportKey, err)
	}
	if err := pc.rdb.Set(ctx, predictionSnapshotKey(sportKey), data, pc.ttl).Err(); err != nil {
		return fmt.Errorf("redis: put prediction snapshot %s: %w", sportKey, err)
	}
	return nil
}

// GetSnapshot returns the sport's snapshot and its fetch time, or
// domain.ErrNotFound when no snapshot is cached.
func (pc *PredictionCache) GetSnapshot(ctx context.Context, sportKey string) ([]domain.ModelPredictionRecord, time.Time, error) {
	data, err := pc.rdb.Get(ctx, predictionSnapshotKey(sportKey)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, time.Time{}, domain.ErrNotFound
		}
		return nil, time.Time{}, fmt.Errorf("redis: get prediction snapshot %s: %w", sportKey, err)
	}

	var snap predictionSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, time.Time{}, fmt.Errorf("redis: unmarshal prediction snapshot %s: %w", sportKey, err)
	}
	return snap.Records, snap.FetchedAt, nil
}

// Compile-time interface check.
var _ domain.PredictionCache = (*PredictionCache)(nil)
