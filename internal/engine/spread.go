package engine

import (
	"github.com/dmeltzer/linesight/internal/domain"
	"github.com/dmeltzer/linesight/internal/oddsmath"
)

// Spread prices every spread quote of a matched game against the
// margin model. Each quote is evaluated against its own posted line;
// books shade lines differently and a consensus line would misprice
// them.
type Spread struct{}

// NewSpread creates the spread evaluator.
func NewSpread() *Spread { return &Spread{} }

// Name returns the evaluator identifier.
func (*Spread) Name() string { return "spread" }

// Market returns the market this evaluator prices.
func (*Spread) Market() domain.MarketKind { return domain.MarketSpread }

// EvaluateGame emits one recommendation per (bookmaker, side) pair.
// The away side uses the negated predicted margin with the away
// quote's own line. Games without model data are skipped silently.
func (*Spread) EvaluateGame(game domain.MatchedGame, cfg Config) ([]domain.BetRecommendation, []domain.Diagnostic) {
	if !game.HasModel() {
		return nil, nil
	}
	margin := game.Prediction.PredictedMargin

	var recs []domain.BetRecommendation
	var diags []domain.Diagnostic
	for _, q := range game.Odds.MarketQuotes(domain.MarketSpread) {
		m := margin
		if q.Side == domain.SideAway {
			m = -margin
		}
		coverProb, err := oddsmath.CoverProbability(m, q.Line, cfg.Sigma)
		if err != nil {
			diags = append(diags, skippedQuote(game.Odds, q, err))
			continue
		}
		rec, err := priceQuote(game.Odds, q, coverProb)
		if err != nil {
			diags = append(diags, skippedQuote(game.Odds, q, err))
			continue
		}
		recs = append(recs, rec)
	}
	return recs, diags
}
