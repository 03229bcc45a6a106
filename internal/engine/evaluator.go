package engine

import (
	"fmt"

	"github.com/dmeltzer/linesight/internal/domain"
	"github.com/dmeltzer/linesight/internal/oddsmath"
)

// Evaluator produces bet recommendations for one market of a matched
// game. Implementations are pure: no I/O, no clocks, no shared state.
type Evaluator interface {
	Name() string
	Market() domain.MarketKind
	EvaluateGame(game domain.MatchedGame, cfg Config) ([]domain.BetRecommendation, []domain.Diagnostic)
}

// priceQuote builds the recommendation for one quote against the
// model probability for that side.
func priceQuote(rec domain.GameOddsRecord, q domain.Quote, modelProb float64) (domain.BetRecommendation, error) {
	implied, err := oddsmath.ImpliedProbability(q.Odds)
	if err != nil {
		return domain.BetRecommendation{}, err
	}
	ev, err := oddsmath.ExpectedValue(modelProb, q.Odds)
	if err != nil {
		return domain.BetRecommendation{}, err
	}
	return domain.BetRecommendation{
		SportKey:     rec.SportKey,
		HomeTeam:     rec.HomeTeam,
		AwayTeam:     rec.AwayTeam,
		CommenceTime: rec.CommenceTime,
		Market:       q.Market,
		Side:         q.Side,
		Bookmaker:    q.Bookmaker,
		Odds:         q.Odds,
		Line:         q.Line,
		ImpliedProb:  implied,
		ModelProb:    modelProb,
		Edge:         oddsmath.Edge(modelProb, implied),
		EV:           ev,
	}, nil
}

func skippedQuote(rec domain.GameOddsRecord, q domain.Quote, err error) domain.Diagnostic {
	return domain.Diagnostic{
		Kind:     domain.DiagSkippedQuote,
		HomeTeam: rec.HomeTeam,
		AwayTeam: rec.AwayTeam,
		Detail:   fmt.Sprintf("%s %s %s: %v", q.Bookmaker, q.Market, q.Side, err),
	}
}
