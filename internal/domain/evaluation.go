package domain

import "time"

// DiagnosticKind classifies a non-fatal condition observed during a pass.
type DiagnosticKind string

const (
	DiagOddsOnly          DiagnosticKind = "odds_only"
	DiagPredictionOnly    DiagnosticKind = "prediction_only"
	DiagAmbiguousMatch    DiagnosticKind = "ambiguous_match"
	DiagSkippedQuote      DiagnosticKind = "skipped_quote"
	DiagSkippedPrediction DiagnosticKind = "skipped_prediction"
)

// Diagnostic reports a skipped, unmatched, or ambiguous input record.
// Diagnostics are informational; a pass never aborts over one.
type Diagnostic struct {
	Kind     DiagnosticKind
	HomeTeam string
	AwayTeam string
	Detail   string
}

// EvaluationResult is the ordered output of one engine pass. Sequences
// are sorted descending by EV (bets) or profit (arbs) and truncated to
// the configured top-N; order is deterministic for identical inputs.
type EvaluationResult struct {
	MatchedGames  int // games holding both odds and a model prediction
	MoneylineBets []BetRecommendation
	SpreadBets    []BetRecommendation
	MoneylineArbs []ArbitrageOpportunity
	SpreadArbs    []ArbitrageOpportunity
	Diagnostics   []Diagnostic
}

// Recommendations returns all bet sequences joined, moneyline first.
func (r EvaluationResult) Recommendations() []BetRecommendation {
	out := make([]BetRecommendation, 0, len(r.MoneylineBets)+len(r.SpreadBets))
	out = append(out, r.MoneylineBets...)
	out = append(out, r.SpreadBets...)
	return out
}

// Opportunities returns all arbitrage sequences joined, moneyline first.
func (r EvaluationResult) Opportunities() []ArbitrageOpportunity {
	out := make([]ArbitrageOpportunity, 0, len(r.MoneylineArbs)+len(r.SpreadArbs))
	out = append(out, r.MoneylineArbs...)
	out = append(out, r.SpreadArbs...)
	return out
}

// EvaluationRun records one persisted engine pass with its input
// volumes and the config snapshot it ran under.
type EvaluationRun struct {
	ID                string
	SportKey          string
	StartedAt         time.Time
	FinishedAt        time.Time
	OddsRecords       int
	PredictionRecords int
	MatchedGames      int
	Recommendations   int
	Opportunities     int
	Sigma             float64
	TopN              int
	MinEdge           *float64
}
