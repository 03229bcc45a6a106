package arbitrage

import (
	"math"
	"testing"

	"github.com/dmeltzer/linesight/internal/domain"
)

func mlQuote(book string, side domain.Side, odds int) domain.Quote {
	return domain.Quote{Bookmaker: book, Market: domain.MarketMoneyline, Side: side, Odds: odds}
}

func spQuote(book string, side domain.Side, odds int, line float64) domain.Quote {
	return domain.Quote{Bookmaker: book, Market: domain.MarketSpread, Side: side, Odds: odds, Line: line}
}

func game(quotes ...domain.Quote) domain.GameOddsRecord {
	return domain.GameOddsRecord{
		SportKey: "americanfootball_ncaaf",
		HomeTeam: "Ohio State Buckeyes",
		AwayTeam: "Michigan Wolverines",
		Quotes:   quotes,
	}
}

func TestFindArbitrageMoneyline(t *testing.T) {
	rec := game(
		mlQuote("book_a", domain.SideHome, -120),
		mlQuote("book_b", domain.SideAway, 125),
	)

	opp, diags := FindArbitrage(rec, domain.MarketMoneyline)
	if opp == nil {
		t.Fatal("expected an opportunity, got nil")
	}
	if len(diags) != 0 {
		t.Errorf("unexpected diagnostics: %v", diags)
	}
	if opp.Profit <= 0 {
		t.Errorf("profit = %v, want > 0", opp.Profit)
	}
	if sum := opp.Home.Stake + opp.Away.Stake; math.Abs(sum-1.0) > 1e-9 {
		t.Errorf("stakes sum to %v, want 1.0", sum)
	}

	// Equal-payout split: either outcome returns 1 + profit per unit staked.
	homeReturn := opp.Home.Stake * (1 + 100.0/120.0)
	awayReturn := opp.Away.Stake * (1 + 125.0/100.0)
	if math.Abs(homeReturn-awayReturn) > 1e-9 {
		t.Errorf("home return %v != away return %v", homeReturn, awayReturn)
	}
	if math.Abs(homeReturn-(1+opp.Profit)) > 1e-9 {
		t.Errorf("guaranteed return %v, want %v", homeReturn, 1+opp.Profit)
	}
}

func TestFindArbitrageNone(t *testing.T) {
	// Standard two-sided vig: implied probabilities sum above 1.
	rec := game(
		mlQuote("book_a", domain.SideHome, -110),
		mlQuote("book_b", domain.SideAway, -110),
	)
	if opp, _ := FindArbitrage(rec, domain.MarketMoneyline); opp != nil {
		t.Errorf("expected nil, got profit %v", opp.Profit)
	}
}

func TestFindArbitragePicksBestPair(t *testing.T) {
	rec := game(
		mlQuote("book_a", domain.SideHome, -120),
		mlQuote("book_c", domain.SideHome, 100),
		mlQuote("book_b", domain.SideAway, 125),
	)

	opp, _ := FindArbitrage(rec, domain.MarketMoneyline)
	if opp == nil {
		t.Fatal("expected an opportunity, got nil")
	}
	if opp.Home.Bookmaker != "book_c" {
		t.Errorf("home leg from %s, want book_c (higher profit pair)", opp.Home.Bookmaker)
	}
}

func TestFindArbitrageTieKeepsEarliestPair(t *testing.T) {
	// Identical prices at two books: the first pair seen must win.
	rec := game(
		mlQuote("book_a1", domain.SideHome, 110),
		mlQuote("book_a2", domain.SideHome, 110),
		mlQuote("book_b", domain.SideAway, 110),
	)

	opp, _ := FindArbitrage(rec, domain.MarketMoneyline)
	if opp == nil {
		t.Fatal("expected an opportunity, got nil")
	}
	if opp.Home.Bookmaker != "book_a1" {
		t.Errorf("home leg from %s, want book_a1 (earliest seen)", opp.Home.Bookmaker)
	}
}

func TestFindArbitrageSpreadLines(t *testing.T) {
	t.Run("negated lines qualify", func(t *testing.T) {
		rec := game(
			spQuote("book_a", domain.SideHome, 110, -3.5),
			spQuote("book_b", domain.SideAway, 105, 3.5),
		)
		opp, _ := FindArbitrage(rec, domain.MarketSpread)
		if opp == nil {
			t.Fatal("expected an opportunity, got nil")
		}
		if opp.Profit <= 0 {
			t.Errorf("profit = %v, want > 0", opp.Profit)
		}
	})

	t.Run("mismatched lines never qualify", func(t *testing.T) {
		// Implied sum is far below 1 but -3 and +7 are not opposite bets.
		rec := game(
			spQuote("book_a", domain.SideHome, 200, -3),
			spQuote("book_b", domain.SideAway, 200, 7),
		)
		if opp, _ := FindArbitrage(rec, domain.MarketSpread); opp != nil {
			t.Errorf("expected nil for mismatched lines, got profit %v", opp.Profit)
		}
	})
}

func TestFindArbitrageSkipsMalformedQuotes(t *testing.T) {
	rec := game(
		mlQuote("book_x", domain.SideHome, 50), // not a valid American price
		mlQuote("book_a", domain.SideHome, -120),
		mlQuote("book_b", domain.SideAway, 125),
	)

	opp, diags := FindArbitrage(rec, domain.MarketMoneyline)
	if opp == nil {
		t.Fatal("valid quotes should still produce the opportunity")
	}
	if opp.Home.Bookmaker != "book_a" {
		t.Errorf("home leg from %s, want book_a", opp.Home.Bookmaker)
	}
	if len(diags) != 1 || diags[0].Kind != domain.DiagSkippedQuote {
		t.Fatalf("diagnostics = %v, want one skipped_quote", diags)
	}
}
