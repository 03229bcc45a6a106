// Package arbitrage scans bookmaker quotes for two-way opportunities:
// outcome pairs whose implied probabilities sum below 1, independent of
// any model. A scanner runs the scan on every odds refresh.
package arbitrage

import (
	"fmt"
	"math"

	"github.com/dmeltzer/linesight/internal/domain"
	"github.com/dmeltzer/linesight/internal/oddsmath"
)

// lineTolerance bounds |homeLine + awayLine| for two spread legs to
// count as true opposites; half-point lines make exact float equality
// brittle.
const lineTolerance = 0.1

// FindArbitrage scans one game's quotes for one market and returns the
// most profitable bookmaker pair whose implied probabilities sum below
// 1, or nil when none exists. Ties keep the earliest-seen pair in
// quote order. Spread legs must post exactly negated lines; mismatched
// lines are not opposite bets no matter what their probabilities sum
// to. Malformed quotes are skipped and reported as diagnostics.
func FindArbitrage(rec domain.GameOddsRecord, market domain.MarketKind) (*domain.ArbitrageOpportunity, []domain.Diagnostic) {
	var diags []domain.Diagnostic
	type leg struct {
		q       domain.Quote
		implied float64
	}
	var homes, aways []leg
	for _, q := range rec.MarketQuotes(market) {
		p, err := oddsmath.ImpliedProbability(q.Odds)
		if err != nil {
			diags = append(diags, domain.Diagnostic{
				Kind:     domain.DiagSkippedQuote,
				HomeTeam: rec.HomeTeam,
				AwayTeam: rec.AwayTeam,
				Detail:   fmt.Sprintf("%s %s %s: %v", q.Bookmaker, market, q.Side, err),
			})
			continue
		}
		switch q.Side {
		case domain.SideHome:
			homes = append(homes, leg{q, p})
		case domain.SideAway:
			aways = append(aways, leg{q, p})
		}
	}

	var best *domain.ArbitrageOpportunity
	for _, h := range homes {
		for _, a := range aways {
			if market == domain.MarketSpread && math.Abs(h.q.Line+a.q.Line) >= lineTolerance {
				continue
			}
			sum := h.implied + a.implied
			if sum >= 1 {
				continue
			}
			profit := 1/sum - 1
			if best != nil && profit <= best.Profit {
				continue
			}
			best = &domain.ArbitrageOpportunity{
				SportKey:     rec.SportKey,
				HomeTeam:     rec.HomeTeam,
				AwayTeam:     rec.AwayTeam,
				CommenceTime: rec.CommenceTime,
				Market:       market,
				Home: domain.ArbLeg{
					Bookmaker:   h.q.Bookmaker,
					Side:        domain.SideHome,
					Odds:        h.q.Odds,
					Line:        h.q.Line,
					ImpliedProb: h.implied,
					Stake:       h.implied / sum,
				},
				Away: domain.ArbLeg{
					Bookmaker:   a.q.Bookmaker,
					Side:        domain.SideAway,
					Odds:        a.q.Odds,
					Line:        a.q.Line,
					ImpliedProb: a.implied,
					Stake:       a.implied / sum,
				},
				Profit: profit,
			}
		}
	}
	return best, diags
}
