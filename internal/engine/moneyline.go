package engine

import "github.com/dmeltzer/linesight/internal/domain"

// Moneyline prices every moneyline quote of a matched game against the
// model win probability, both sides, every bookmaker. Negative-EV
// entries are emitted too; filtering belongs to the caller.
type Moneyline struct{}

// NewMoneyline creates the moneyline evaluator.
func NewMoneyline() *Moneyline { return &Moneyline{} }

// Name returns the evaluator identifier.
func (*Moneyline) Name() string { return "moneyline" }

// Market returns the market this evaluator prices.
func (*Moneyline) Market() domain.MarketKind { return domain.MarketMoneyline }

// EvaluateGame emits one recommendation per (bookmaker, side) pair.
// Games without model data are skipped silently.
func (*Moneyline) EvaluateGame(game domain.MatchedGame, cfg Config) ([]domain.BetRecommendation, []domain.Diagnostic) {
	if !game.HasModel() {
		return nil, nil
	}
	homeProb := game.Prediction.HomeWinProb

	var recs []domain.BetRecommendation
	var diags []domain.Diagnostic
	for _, q := range game.Odds.MarketQuotes(domain.MarketMoneyline) {
		modelProb := homeProb
		if q.Side == domain.SideAway {
			modelProb = 1 - homeProb
		}
		rec, err := priceQuote(game.Odds, q, modelProb)
		if err != nil {
			diags = append(diags, skippedQuote(game.Odds, q, err))
			continue
		}
		recs = append(recs, rec)
	}
	return recs, diags
}
