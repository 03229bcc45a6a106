package domain

import "time"

// BetRecommendation is one candidate single-sided wager with its model
// edge. EV is signed; negative-EV entries are emitted too and filtering
// is the caller's concern.
type BetRecommendation struct {
	ID           string
	RunID        string
	SportKey     string
	HomeTeam     string
	AwayTeam     string
	CommenceTime time.Time
	Market       MarketKind
	Side         Side
	Bookmaker    string
	Odds         int
	Line         float64 // spread markets only
	ImpliedProb  float64
	ModelProb    float64
	Edge         float64 // ModelProb - ImpliedProb
	EV           float64 // expected profit per unit stake
	CreatedAt    time.Time
	Settled      bool
}

// Team returns the name of the team the bet is on.
func (b BetRecommendation) Team() string {
	if b.Side == SideAway {
		return b.AwayTeam
	}
	return b.HomeTeam
}

// DedupKey identifies the bet for alert suppression.
func (b BetRecommendation) DedupKey() string {
	return string(b.Market) + "|" + b.HomeTeam + "|" + b.AwayTeam + "|" + string(b.Side) + "|" + b.Bookmaker
}

// ArbLeg is one side of a two-way arbitrage.
type ArbLeg struct {
	Bookmaker   string
	Side        Side
	Odds        int
	Line        float64
	ImpliedProb float64
	Stake       float64 // fraction of total outlay
}

// ArbitrageOpportunity is a bookmaker pair whose implied probabilities
// sum below 1, guaranteeing Profit per unit of total stake regardless
// of outcome. Leg stakes sum to 1.
type ArbitrageOpportunity struct {
	ID           string
	RunID        string
	SportKey     string
	HomeTeam     string
	AwayTeam     string
	CommenceTime time.Time
	Market       MarketKind
	Home         ArbLeg
	Away         ArbLeg
	Profit       float64
	DetectedAt   time.Time
}

// DedupKey identifies the opportunity for alert suppression.
func (a ArbitrageOpportunity) DedupKey() string {
	return string(a.Market) + "|" + a.HomeTeam + "|" + a.AwayTeam + "|" + a.Home.Bookmaker + "|" + a.Away.Bookmaker
}
