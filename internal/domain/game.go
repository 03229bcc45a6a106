package domain

import "time"

// MarketKind identifies a betting market type.
type MarketKind string

const (
	MarketMoneyline MarketKind = "moneyline"
	MarketSpread    MarketKind = "spread"
)

// Side identifies which team a quote or bet is on.
type Side string

const (
	SideHome Side = "home"
	SideAway Side = "away"
)

// Quote is one bookmaker's posted price for one side of one market.
// Spread quotes carry the book's own posted line, favorite negative.
type Quote struct {
	Bookmaker string
	Market    MarketKind
	Side      Side
	Odds      int // American odds, |odds| >= 100
	Line      float64
}

// GameOddsRecord is one game as reported by the odds source. Quote
// order is the order the source returned and is preserved end to end;
// tie-breaks downstream depend on it.
type GameOddsRecord struct {
	SportKey     string
	HomeTeam     string
	AwayTeam     string
	CommenceTime time.Time
	Quotes       []Quote
}

// Key identifies the game within one snapshot.
func (g GameOddsRecord) Key() string {
	return g.SportKey + "|" + g.HomeTeam + "|" + g.AwayTeam
}

// MarketQuotes returns the game's quotes for one market, input order preserved.
func (g GameOddsRecord) MarketQuotes(kind MarketKind) []Quote {
	var out []Quote
	for _, q := range g.Quotes {
		if q.Market == kind {
			out = append(out, q)
		}
	}
	return out
}

// MatchedGame joins an odds record with at most one model prediction.
// Prediction is nil for odds-only games, which still feed the
// arbitrage scan but never the EV evaluators.
type MatchedGame struct {
	Odds       GameOddsRecord
	Prediction *ModelPredictionRecord
}

// HasModel reports whether model data is available for the game.
func (m MatchedGame) HasModel() bool {
	return m.Prediction != nil
}
