package domain

import (
	"context"
	"time"
)

// ListOpts provides pagination and filtering for list queries. A zero
// SportKey matches every sport.
type ListOpts struct {
	Limit    int
	Offset   int
	Since    *time.Time
	Until    *time.Time
	SportKey string
}

// EvaluationStore persists engine runs.
type EvaluationStore interface {
	Insert(ctx context.Context, run EvaluationRun) error
	GetByID(ctx context.Context, id string) (EvaluationRun, error)
	ListRecent(ctx context.Context, opts ListOpts) ([]EvaluationRun, error)
}

// RecommendationStore persists bet recommendations.
type RecommendationStore interface {
	InsertBatch(ctx context.Context, recs []BetRecommendation) error
	GetByID(ctx context.Context, id string) (BetRecommendation, error)
	ListRecent(ctx context.Context, market MarketKind, opts ListOpts) ([]BetRecommendation, error)
	ListUnsettled(ctx context.Context, sportKey string) ([]BetRecommendation, error)
	MarkSettled(ctx context.Context, id string) error
}

// ArbStore persists arbitrage opportunity history.
type ArbStore interface {
	InsertBatch(ctx context.Context, opps []ArbitrageOpportunity) error
	ListRecent(ctx context.Context, market MarketKind, opts ListOpts) ([]ArbitrageOpportunity, error)
}

// ResultStore persists game results keyed by sport, teams, and commence time.
type ResultStore interface {
	UpsertBatch(ctx context.Context, results []GameResult) error
	GetForGame(ctx context.Context, sportKey, homeTeam, awayTeam string) (GameResult, error)
	ListCompleted(ctx context.Context, sportKey string, opts ListOpts) ([]GameResult, error)
}

// SettlementStore persists settled recommendation outcomes.
type SettlementStore interface {
	Insert(ctx context.Context, s Settlement) error
	ListRecent(ctx context.Context, opts ListOpts) ([]Settlement, error)
	Summary(ctx context.Context, sportKey string) ([]SettlementSummary, error)
}

// AuditEntry is a single audit log row.
type AuditEntry struct {
	ID        int64
	Event     string
	Detail    map[string]any
	CreatedAt time.Time
}

// AuditStore persists an append-only audit log.
type AuditStore interface {
	Log(ctx context.Context, event string, detail map[string]any) error
	List(ctx context.Context, opts ListOpts) ([]AuditEntry, error)
}
