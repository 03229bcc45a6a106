package service

import (
	"math"
	"testing"

	"github.com/dmeltzer/linesight/internal/domain"
)

func TestSettleOutcome(t *testing.T) {
	tests := []struct {
		name       string
		market     domain.MarketKind
		side       domain.Side
		odds       int
		line       float64
		homeScore  int
		awayScore  int
		outcome    domain.BetOutcome
		profit     float64
	}{
		{
			name:      "moneyline home wins",
			market:    domain.MarketMoneyline,
			side:      domain.SideHome,
			odds:      -150,
			homeScore: 28, awayScore: 21,
			outcome: domain.OutcomeWon,
			profit:  100.0 / 150.0,
		},
		{
			name:      "moneyline home loses",
			market:    domain.MarketMoneyline,
			side:      domain.SideHome,
			odds:      -150,
			homeScore: 20, awayScore: 24,
			outcome: domain.OutcomeLost,
			profit:  -1,
		},
		{
			name:      "moneyline away underdog wins",
			market:    domain.MarketMoneyline,
			side:      domain.SideAway,
			odds:      130,
			homeScore: 20, awayScore: 24,
			outcome: domain.OutcomeWon,
			profit:  1.3,
		},
		{
			name:      "moneyline tie refunds",
			market:    domain.MarketMoneyline,
			side:      domain.SideHome,
			odds:      -110,
			homeScore: 21, awayScore: 21,
			outcome: domain.OutcomePush,
			profit:  0,
		},
		{
			name:      "spread favorite covers",
			market:    domain.MarketSpread,
			side:      domain.SideHome,
			odds:      -110,
			line:      -6.5,
			homeScore: 28, awayScore: 21,
			outcome: domain.OutcomeWon,
			profit:  100.0 / 110.0,
		},
		{
			name:      "spread favorite wins but misses cover",
			market:    domain.MarketSpread,
			side:      domain.SideHome,
			odds:      -110,
			line:      -6.5,
			homeScore: 27, awayScore: 21,
			outcome: domain.OutcomeLost,
			profit:  -1,
		},
		{
			name:      "spread lands exactly on line",
			market:    domain.MarketSpread,
			side:      domain.SideHome,
			odds:      -110,
			line:      -7,
			homeScore: 28, awayScore: 21,
			outcome: domain.OutcomePush,
			profit:  0,
		},
		{
			name:      "spread underdog covers in loss",
			market:    domain.MarketSpread,
			side:      domain.SideAway,
			odds:      -105,
			line:      6.5,
			homeScore: 24, awayScore: 21,
			outcome: domain.OutcomeWon,
			profit:  100.0 / 105.0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := domain.BetRecommendation{
				Market: tt.market,
				Side:   tt.side,
				Odds:   tt.odds,
				Line:   tt.line,
			}
			res := domain.GameResult{
				HomeScore: tt.homeScore,
				AwayScore: tt.awayScore,
				Completed: true,
			}

			outcome, profit, err := settleOutcome(rec, res)
			if err != nil {
				t.Fatalf("settleOutcome: %v", err)
			}
			if outcome != tt.outcome {
				t.Errorf("outcome = %q, want %q", outcome, tt.outcome)
			}
			if math.Abs(profit-tt.profit) > 1e-9 {
				t.Errorf("profit = %v, want %v", profit, tt.profit)
			}
		})
	}
}

func TestSettleOutcomeUnknownMarket(t *testing.T) {
	rec := domain.BetRecommendation{Market: "totals", Side: domain.SideHome, Odds: -110}
	res := domain.GameResult{HomeScore: 30, AwayScore: 20, Completed: true}

	if _, _, err := settleOutcome(rec, res); err == nil {
		t.Fatal("want error for unknown market")
	}
}
