package domain

import "time"

// GameResult is a score from the results source.
type GameResult struct {
	SportKey     string
	HomeTeam     string
	AwayTeam     string
	HomeScore    int
	AwayScore    int
	Completed    bool
	CommenceTime time.Time
	UpdatedAt    time.Time
}

// HomeMargin returns the home scoring margin.
func (r GameResult) HomeMargin() int {
	return r.HomeScore - r.AwayScore
}

// BetOutcome is the settled result of one recommendation.
type BetOutcome string

const (
	OutcomeWon  BetOutcome = "won"
	OutcomeLost BetOutcome = "lost"
	OutcomePush BetOutcome = "push"
)

// Settlement resolves one recommendation against a final score.
// ProfitUnits is per unit stake: the payout multiplier on a win,
// -1 on a loss, 0 on a push.
type Settlement struct {
	ID               string
	RecommendationID string
	SportKey         string
	Market           MarketKind
	Outcome          BetOutcome
	ProfitUnits      float64
	HomeScore        int
	AwayScore        int
	SettledAt        time.Time
}

// SettlementSummary aggregates settled recommendations per sport and market.
type SettlementSummary struct {
	SportKey string
	Market   MarketKind
	Settled  int64
	Wins     int64
	Losses   int64
	Pushes   int64
	NetUnits float64
	ROI      float64 // NetUnits / Settled
}

// RateLimits reports The Odds API quota as surfaced by its response headers.
type RateLimits struct {
	RequestsRemaining int
	RequestsUsed      int
	ObservedAt        time.Time
}
