package notify

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/dmeltzer/linesight/internal/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type stubSender struct {
	titles []string
}

func (s *stubSender) Send(_ context.Context, title, _ string) error {
	s.titles = append(s.titles, title)
	return nil
}

func (s *stubSender) Name() string { return "stub" }

func TestFormatBet(t *testing.T) {
	rec := domain.BetRecommendation{
		SportKey:     "americanfootball_ncaaf",
		HomeTeam:     "Ohio State",
		AwayTeam:     "Michigan",
		Market:       domain.MarketMoneyline,
		Side:         domain.SideHome,
		Bookmaker:    "DraftKings",
		Odds:         -150,
		ImpliedProb:  0.6,
		ModelProb:    0.65,
		Edge:         0.05,
		EV:           0.0833,
		CommenceTime: time.Date(2025, 11, 29, 17, 0, 0, 0, time.UTC),
	}

	title, message := FormatBet(rec)
	if !strings.Contains(title, "Ohio State") || !strings.Contains(title, "-150") {
		t.Errorf("title = %q", title)
	}
	if !strings.Contains(title, "DraftKings") {
		t.Errorf("title = %q, want bookmaker", title)
	}
	if !strings.Contains(message, "65.0%") || !strings.Contains(message, "60.0%") {
		t.Errorf("message = %q, want probabilities", message)
	}
	if !strings.Contains(message, "+5.0%") {
		t.Errorf("message = %q, want signed edge", message)
	}
}

func TestFormatBetSpreadShowsLine(t *testing.T) {
	rec := domain.BetRecommendation{
		HomeTeam:  "Georgia",
		AwayTeam:  "Alabama",
		Market:    domain.MarketSpread,
		Side:      domain.SideAway,
		Bookmaker: "FanDuel",
		Odds:      105,
		Line:      6.5,
	}

	title, _ := FormatBet(rec)
	if !strings.Contains(title, "Alabama") {
		t.Errorf("title = %q, want away team", title)
	}
	if !strings.Contains(title, "+6.5") || !strings.Contains(title, "+105") {
		t.Errorf("title = %q, want line and positive odds signed", title)
	}
}

func TestFormatArb(t *testing.T) {
	opp := domain.ArbitrageOpportunity{
		SportKey: "basketball_ncaab",
		HomeTeam: "Duke",
		AwayTeam: "North Carolina",
		Market:   domain.MarketMoneyline,
		Home:     domain.ArbLeg{Bookmaker: "book_a", Odds: 125, Stake: 0.4547},
		Away:     domain.ArbLeg{Bookmaker: "book_b", Odds: -110, Stake: 0.5453},
		Profit:   0.0329,
	}

	title, message := FormatArb(opp)
	if !strings.Contains(title, "3.29%") {
		t.Errorf("title = %q, want profit percent", title)
	}
	if !strings.Contains(message, "book_a") || !strings.Contains(message, "book_b") {
		t.Errorf("message = %q, want both bookmakers", message)
	}
	if !strings.Contains(message, "45.5%") || !strings.Contains(message, "54.5%") {
		t.Errorf("message = %q, want stake split", message)
	}
}

func TestNotifierEventFilter(t *testing.T) {
	sender := &stubSender{}
	n := NewNotifier([]Sender{sender}, []string{EventArb}, testLogger())

	if err := n.Notify(context.Background(), EventBet, "bet title", "body"); err != nil {
		t.Fatalf("Notify bet: %v", err)
	}
	if err := n.Notify(context.Background(), EventArb, "arb title", "body"); err != nil {
		t.Fatalf("Notify arb: %v", err)
	}

	if len(sender.titles) != 1 || sender.titles[0] != "arb title" {
		t.Errorf("sent = %v, want only arb title", sender.titles)
	}
}
