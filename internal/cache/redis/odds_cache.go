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

const defaultOddsTTL = 30 * time.Minute

// oddsSnapshot is the stored envelope: the records of one fetch plus
// the time they were taken.
type oddsSnapshot struct {
	FetchedAt time.Time               `json:"fetched_at"`
	Records   []domain.GameOddsRecord `json:"records"`
}

// OddsCache implements domain.OddsCache with one JSON-serialized
// snapshot per sport under "odds:snapshot:{sportKey}".
type OddsCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewOddsCache creates an OddsCache backed by the given Client. A zero
// ttl falls back to 30 minutes.
func NewOddsCache(c *Client, ttl time.Duration) *OddsCache {
	if ttl <= 0 {
		ttl = defaultOddsTTL
	}
	return &OddsCache{rdb: c.Underlying(), ttl: ttl}
}

func oddsSnapshotKey(sportKey string) string {
	return "odds:snapshot:" + sportKey
}

// PutSnapshot replaces the sport's snapshot, stamping it with the
// current time.
func (oc *OddsCache) PutSnapshot(ctx context.Context, sportKey string, records []domain.GameOddsRecord) error {
	snap := oddsSnapshot{
		FetchedAt: time.Now().UTC(),
		Records:   records,
	}
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("redis: marshal odds snapshot %s: %w", sportKey, err)
	}
	if err := oc.rdb.Set(ctx, oddsSnapshotKey(sportKey), data, oc.ttl).Err(); err != nil {
		return fmt.Errorf("redis: put odds snapshot %s: %w", sportKey, err)
	}
	return nil
}

// GetSnapshot returns the sport's snapshot and its fetch time, or
// domain.ErrNotFound when no snapshot is cached.
func (oc *OddsCache) GetSnapshot(ctx context.Context, sportKey string) ([]domain.GameOddsRecord, time.Time, error) {
	data, err := oc.rdb.Get(ctx, oddsSnapshotKey(sportKey)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, time.Time{}, domain.ErrNotFound
		}
		return nil, time.Time{}, fmt.Errorf("redis: get odds snapshot %s: %w", sportKey, err)
	}

	var snap oddsSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, time.Time{}, fmt.Errorf("redis: unmarshal odds snapshot %s: %w", sportKey, err)
	}
	return snap.Records, snap.FetchedAt, nil
}

// Compile-time interface check.
var _ domain.OddsCache = (*OddsCache)(nil)
