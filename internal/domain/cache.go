package domain

import (
	"context"
	"time"
)

// Signal bus channels.
const (
	ChannelOdds        = "data.odds"
	ChannelPredictions = "data.predictions"
	ChannelResults     = "data.results"
	ChannelBets        = "opportunity.bet"
	ChannelArbs        = "opportunity.arb"
)

// SyncEvent announces a refreshed snapshot on the signal bus.
type SyncEvent struct {
	SportKey string    `json:"sport_key"`
	Source   string    `json:"source"`
	Records  int       `json:"records"`
	At       time.Time `json:"at"`
}

// OddsCache stores the latest odds snapshot per sport.
type OddsCache interface {
	PutSnapshot(ctx context.Context, sportKey string, records []GameOddsRecord) error
	GetSnapshot(ctx context.Context, sportKey string) ([]GameOddsRecord, time.Time, error)
}

// PredictionCache stores the latest prediction snapshot per sport.
type PredictionCache interface {
	PutSnapshot(ctx context.Context, sportKey string, records []ModelPredictionRecord) error
	GetSnapshot(ctx context.Context, sportKey string) ([]ModelPredictionRecord, time.Time, error)
}

// QuotaCache stores the last observed API quota.
type QuotaCache interface {
	SetQuota(ctx context.Context, limits RateLimits) error
	GetQuota(ctx context.Context) (RateLimits, error)
}

// RateLimiter provides distributed rate limiting.
type RateLimiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

// LockManager provides distributed locking.
type LockManager interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (unlock func(), err error)
}

// SignalBus provides pub/sub fan-out between components.
type SignalBus interface {
	Publish(ctx context.Context, channel string, payload []byte) error
	Subscribe(ctx context.Context, channel string) (<-chan []byte, error)
}
