package redis

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/dmeltzer/linesight/internal/domain"
	"github.com/redis/go-redis/v9"
)

// quotaKey is a single hash; the Odds API reports one account-wide
// quota regardless of sport.
const quotaKey = "oddsapi:quota"

// QuotaCache implements domain.QuotaCache using a Redis hash with
// fields "remaining", "used" and "observed_at" (Unix nanoseconds).
type QuotaCache struct {
	rdb *redis.Client
}

// NewQuotaCache creates a QuotaCache backed by the given Client.
func NewQuotaCache(c *Client) *QuotaCache {
	return &QuotaCache{rdb: c.Underlying()}
}

// SetQuota stores the last observed quota headers.
func (qc *QuotaCache) SetQuota(ctx context.Context, limits domain.RateLimits) error {
	fields := map[string]interface{}{
		"remaining":   strconv.Itoa(limits.RequestsRemaining),
		"used":        strconv.Itoa(limits.RequestsUsed),
		"observed_at": strconv.FormatInt(limits.ObservedAt.UnixNano(), 10),
	}
	if err := qc.rdb.HSet(ctx, quotaKey, fields).Err(); err != nil {
		return fmt.Errorf("redis: set quota: %w", err)
	}
	return nil
}

// GetQuota returns the last observed quota, or domain.ErrNotFound when
// none has been recorded yet.
func (qc *QuotaCache) GetQuota(ctx context.Context) (domain.RateLimits, error) {
	vals, err := qc.rdb.HGetAll(ctx, quotaKey).Result()
	if err != nil {
		return domain.RateLimits{}, fmt.Errorf("redis: get quota: %w", err)
	}
	if len(vals) == 0 {
		return domain.RateLimits{}, domain.ErrNotFound
	}

	remaining, err := strconv.Atoi(vals["remaining"])
	if err != nil {
		return domain.RateLimits{}, fmt.Errorf("redis: parse quota remaining: %w", err)
	}
	used, err := strconv.Atoi(vals["used"])
	if err != nil {
		return domain.RateLimits{}, fmt.Errorf("redis: parse quota used: %w", err)
	}
	nanos, err := strconv.ParseInt(vals["observed_at"], 10, 64)
	if err != nil {
		return domain.RateLimits{}, fmt.Errorf("redis: parse quota observed_at: %w", err)
	}

	return domain.RateLimits{
		RequestsRemaining: remaining,
		RequestsUsed:      used,
		ObservedAt:        time.Unix(0, nanos).UTC(),
	}, nil
}

// Compile-time interface check.
var _ domain.QuotaCache = (*QuotaCache)(nil)
