package notify

import (
	"fmt"
	"strings"
	"time"

	"github.com/dmeltzer/linesight/internal/domain"
)

// FormatBet renders one recommendation as an alert title and body.
func FormatBet(rec domain.BetRecommendation) (title, message string) {
	label := fmtOdds(rec.Odds)
	if rec.Market == domain.MarketSpread {
		label = fmt.Sprintf("%+.1f %s", rec.Line, fmtOdds(rec.Odds))
	}
	title = fmt.Sprintf("+EV %s: %s %s @ %s",
		rec.Market, rec.Team(), label, rec.Bookmaker)

	var b strings.Builder
	fmt.Fprintf(&b, "%s vs %s (%s)\n", rec.HomeTeam, rec.AwayTeam, rec.SportKey)
	fmt.Fprintf(&b, "Model %.1f%% vs implied %.1f%%\n", rec.ModelProb*100, rec.ImpliedProb*100)
	fmt.Fprintf(&b, "Edge %+.1f%%, EV %+.2f%% per unit\n", rec.Edge*100, rec.EV*100)
	fmt.Fprintf(&b, "Kickoff %s", rec.CommenceTime.UTC().Format("Mon Jan 2 15:04 MST"))
	return title, b.String()
}

// FormatArb renders one arbitrage opportunity as an alert title and
// body, including the stake split per leg.
func FormatArb(opp domain.ArbitrageOpportunity) (title, message string) {
	title = fmt.Sprintf("Arb %.2f%%: %s vs %s (%s)",
		opp.Profit*100, opp.HomeTeam, opp.AwayTeam, opp.Market)

	var b strings.Builder
	fmt.Fprintf(&b, "%s\n", opp.SportKey)
	fmt.Fprintf(&b, "Home: %s %s @ %s, stake %.1f%%\n",
		opp.HomeTeam, legLabel(opp.Market, opp.Home), opp.Home.Bookmaker, opp.Home.Stake*100)
	fmt.Fprintf(&b, "Away: %s %s @ %s, stake %.1f%%\n",
		opp.AwayTeam, legLabel(opp.Market, opp.Away), opp.Away.Bookmaker, opp.Away.Stake*100)
	fmt.Fprintf(&b, "Guaranteed %.2f%% of total stake\n", opp.Profit*100)
	fmt.Fprintf(&b, "Kickoff %s", opp.CommenceTime.UTC().Format("Mon Jan 2 15:04 MST"))
	return title, b.String()
}

// FormatError renders a pipeline failure as an alert.
func FormatError(component string, err error, at time.Time) (title, message string) {
	title = "Pipeline error: " + component
	message = fmt.Sprintf("%v\nat %s", err, at.UTC().Format(time.RFC3339))
	return title, message
}

func legLabel(market domain.MarketKind, leg domain.ArbLeg) string {
	if market == domain.MarketSpread {
		return fmt.Sprintf("%+.1f %s", leg.Line, fmtOdds(leg.Odds))
	}
	return fmtOdds(leg.Odds)
}

// fmtOdds renders American odds with an explicit sign.
func fmtOdds(odds int) string {
	return fmt.Sprintf("%+d", odds)
}
