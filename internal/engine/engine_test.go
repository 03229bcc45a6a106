package engine

import (
	"errors"
	"io"
	"log/slog"
	"math"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/dmeltzer/linesight/internal/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func mkQuote(book string, market domain.MarketKind, side domain.Side, odds int, line float64) domain.Quote {
	return domain.Quote{Bookmaker: book, Market: market, Side: side, Odds: odds, Line: line}
}

func mkOdds(home, away string, quotes ...domain.Quote) domain.GameOddsRecord {
	return domain.GameOddsRecord{
		SportKey:     "americanfootball_ncaaf",
		HomeTeam:     home,
		AwayTeam:     away,
		CommenceTime: time.Date(2025, 11, 1, 19, 30, 0, 0, time.UTC),
		Quotes:       quotes,
	}
}

func mkPred(home, away string, margin, homeProb float64) domain.ModelPredictionRecord {
	return domain.ModelPredictionRecord{
		SportKey:        "americanfootball_ncaaf",
		HomeTeam:        home,
		AwayTeam:        away,
		PredictedMargin: margin,
		HomeWinProb:     homeProb,
	}
}

func countDiags(diags []domain.Diagnostic, kind domain.DiagnosticKind) int {
	n := 0
	for _, d := range diags {
		if d.Kind == kind {
			n++
		}
	}
	return n
}

func TestEvaluatePass(t *testing.T) {
	odds := []domain.GameOddsRecord{
		mkOdds("Ohio State", "Michigan",
			mkQuote("book_a", domain.MarketMoneyline, domain.SideHome, -150, 0),
			mkQuote("book_a", domain.MarketMoneyline, domain.SideAway, 130, 0),
			mkQuote("book_a", domain.MarketSpread, domain.SideHome, -110, -6.5),
			mkQuote("book_a", domain.MarketSpread, domain.SideAway, -110, 6.5),
		),
		mkOdds("Georgia", "Alabama",
			mkQuote("book_b", domain.MarketMoneyline, domain.SideHome, 125, 0),
			mkQuote("book_c", domain.MarketMoneyline, domain.SideAway, -120, 0),
		),
	}
	preds := []domain.ModelPredictionRecord{
		mkPred("Ohio State", "Michigan", 7, 0.65),
	}

	eng := New(nil, testLogger())
	res, err := eng.Evaluate(odds, preds, Config{})
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}

	if len(res.MoneylineBets) != 2 {
		t.Fatalf("moneyline bets = %d, want 2", len(res.MoneylineBets))
	}
	best := res.MoneylineBets[0]
	if best.Side != domain.SideHome || best.Odds != -150 {
		t.Fatalf("best moneyline = %s %d, want home -150", best.Side, best.Odds)
	}
	if math.Abs(best.ImpliedProb-0.6) > 1e-9 {
		t.Errorf("implied = %v, want 0.6", best.ImpliedProb)
	}
	if math.Abs(best.Edge-0.05) > 1e-9 {
		t.Errorf("edge = %v, want 0.05", best.Edge)
	}
	wantEV := 0.65*(100.0/150.0) - 0.35
	if math.Abs(best.EV-wantEV) > 1e-9 {
		t.Errorf("ev = %v, want %v", best.EV, wantEV)
	}
	if res.MoneylineBets[1].Side != domain.SideAway {
		t.Errorf("second moneyline side = %s, want away", res.MoneylineBets[1].Side)
	}
	if got := res.MoneylineBets[1].ModelProb; math.Abs(got-0.35) > 1e-9 {
		t.Errorf("away model prob = %v, want 0.35", got)
	}

	if len(res.SpreadBets) != 2 {
		t.Fatalf("spread bets = %d, want 2", len(res.SpreadBets))
	}
	if res.SpreadBets[0].Side != domain.SideHome {
		t.Errorf("best spread side = %s, want home", res.SpreadBets[0].Side)
	}
	if res.SpreadBets[0].ModelProb <= 0.5 || res.SpreadBets[1].ModelProb >= 0.5 {
		t.Errorf("cover probs = %v, %v; want home > 0.5 > away",
			res.SpreadBets[0].ModelProb, res.SpreadBets[1].ModelProb)
	}

	if len(res.MoneylineArbs) != 1 {
		t.Fatalf("moneyline arbs = %d, want 1", len(res.MoneylineArbs))
	}
	arb := res.MoneylineArbs[0]
	if arb.Home.Bookmaker != "book_b" || arb.Away.Bookmaker != "book_c" {
		t.Errorf("arb books = %s/%s, want book_b/book_c", arb.Home.Bookmaker, arb.Away.Bookmaker)
	}
	if arb.Profit <= 0 {
		t.Errorf("arb profit = %v, want > 0", arb.Profit)
	}
	if sum := arb.Home.Stake + arb.Away.Stake; math.Abs(sum-1) > 1e-9 {
		t.Errorf("stakes sum = %v, want 1", sum)
	}
	if len(res.SpreadArbs) != 0 {
		t.Errorf("spread arbs = %d, want 0", len(res.SpreadArbs))
	}

	if n := countDiags(res.Diagnostics, domain.DiagOddsOnly); n != 1 {
		t.Errorf("odds-only diags = %d, want 1", n)
	}
}

func TestEvaluateDeterministic(t *testing.T) {
	odds := []domain.GameOddsRecord{
		mkOdds("Ohio State", "Michigan",
			mkQuote("book_a", domain.MarketMoneyline, domain.SideHome, -150, 0),
			mkQuote("book_b", domain.MarketMoneyline, domain.SideHome, -145, 0),
			mkQuote("book_a", domain.MarketMoneyline, domain.SideAway, 130, 0),
			mkQuote("book_b", domain.MarketMoneyline, domain.SideAway, 125, 0),
			mkQuote("book_a", domain.MarketSpread, domain.SideHome, -110, -6.5),
			mkQuote("book_a", domain.MarketSpread, domain.SideAway, -110, 6.5),
			mkQuote("book_b", domain.MarketSpread, domain.SideHome, -105, -7),
			mkQuote("book_b", domain.MarketSpread, domain.SideAway, -115, 7),
		),
		mkOdds("Georgia", "Alabama",
			mkQuote("book_b", domain.MarketMoneyline, domain.SideHome, 125, 0),
			mkQuote("book_c", domain.MarketMoneyline, domain.SideAway, -120, 0),
		),
	}
	preds := []domain.ModelPredictionRecord{
		mkPred("Ohio State", "Michigan", 7, 0.65),
		mkPred("Georgia", "Alabama", -3, 0.42),
	}
	cfg := Config{Sigma: 11, TopN: 10}

	eng := New(nil, testLogger())
	first, err := eng.Evaluate(odds, preds, cfg)
	if err != nil {
		t.Fatalf("first run: %v", err)
	}
	second, err := eng.Evaluate(odds, preds, cfg)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Fatal("repeated runs over identical inputs diverged")
	}
}

func TestEvaluateMinEdge(t *testing.T) {
	odds := []domain.GameOddsRecord{
		mkOdds("Ohio State", "Michigan",
			mkQuote("book_a", domain.MarketMoneyline, domain.SideHome, -150, 0),
			mkQuote("book_a", domain.MarketMoneyline, domain.SideAway, 130, 0),
			mkQuote("book_a", domain.MarketSpread, domain.SideHome, -110, -6.5),
			mkQuote("book_a", domain.MarketSpread, domain.SideAway, -110, 6.5),
		),
	}
	preds := []domain.ModelPredictionRecord{
		mkPred("Ohio State", "Michigan", 7, 0.65),
	}
	minEdge := 0.04

	eng := New(nil, testLogger())
	res, err := eng.Evaluate(odds, preds, Config{MinEdge: &minEdge})
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if len(res.MoneylineBets) != 1 {
		t.Fatalf("moneyline bets = %d, want 1 (home edge 0.05 only)", len(res.MoneylineBets))
	}
	if res.MoneylineBets[0].Side != domain.SideHome {
		t.Errorf("kept side = %s, want home", res.MoneylineBets[0].Side)
	}
	if len(res.SpreadBets) != 0 {
		t.Errorf("spread bets = %d, want 0 (all edges below threshold)", len(res.SpreadBets))
	}
}

func TestEvaluateTopN(t *testing.T) {
	odds := []domain.GameOddsRecord{
		mkOdds("Ohio State", "Michigan",
			mkQuote("book_a", domain.MarketMoneyline, domain.SideHome, -150, 0),
			mkQuote("book_b", domain.MarketMoneyline, domain.SideHome, -150, 0),
			mkQuote("book_c", domain.MarketMoneyline, domain.SideHome, -150, 0),
			mkQuote("book_d", domain.MarketMoneyline, domain.SideHome, -150, 0),
		),
	}
	preds := []domain.ModelPredictionRecord{
		mkPred("Ohio State", "Michigan", 7, 0.65),
	}

	eng := New(nil, testLogger())
	res, err := eng.Evaluate(odds, preds, Config{TopN: 2})
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if len(res.MoneylineBets) != 2 {
		t.Fatalf("moneyline bets = %d, want 2", len(res.MoneylineBets))
	}
	// Identical EV everywhere; stable ranking keeps input order.
	if res.MoneylineBets[0].Bookmaker != "book_a" || res.MoneylineBets[1].Bookmaker != "book_b" {
		t.Errorf("kept books = %s, %s; want book_a, book_b",
			res.MoneylineBets[0].Bookmaker, res.MoneylineBets[1].Bookmaker)
	}
}

func TestEvaluateConfigErrors(t *testing.T) {
	eng := New(nil, testLogger())

	cases := []struct {
		name    string
		cfg     Config
		wantErr error
	}{
		{"negative sigma", Config{Sigma: -1}, domain.ErrInvalidInput},
		{"nan sigma", Config{Sigma: math.NaN()}, domain.ErrInvalidInput},
		{"negative top n", Config{TopN: -5}, domain.ErrInvalidInput},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := eng.Evaluate(nil, nil, tc.cfg)
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("err = %v, want %v", err, tc.wantErr)
			}
		})
	}

	_, err := eng.Evaluate(nil, nil, Config{Evaluators: []string{"totals"}})
	if err == nil || !strings.Contains(err.Error(), "not registered") {
		t.Fatalf("unknown evaluator err = %v, want not registered", err)
	}
}

func TestEvaluateMalformedInputs(t *testing.T) {
	odds := []domain.GameOddsRecord{
		mkOdds("Duke", "North Carolina",
			mkQuote("book_a", domain.MarketMoneyline, domain.SideHome, -150, 0),
			mkQuote("book_a", domain.MarketMoneyline, domain.SideAway, 50, 0),
		),
	}
	preds := []domain.ModelPredictionRecord{
		mkPred("Duke", "North Carolina", math.NaN(), 0.6),
		mkPred("Kansas", "Kentucky", 4, 1.2),
	}

	eng := New(nil, testLogger())
	res, err := eng.Evaluate(odds, preds, Config{})
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if n := countDiags(res.Diagnostics, domain.DiagSkippedQuote); n != 1 {
		t.Errorf("skipped quote diags = %d, want 1", n)
	}
	if n := countDiags(res.Diagnostics, domain.DiagSkippedPrediction); n != 2 {
		t.Errorf("skipped prediction diags = %d, want 2", n)
	}
	// Both predictions dropped, so the game stays odds-only.
	if n := countDiags(res.Diagnostics, domain.DiagOddsOnly); n != 1 {
		t.Errorf("odds-only diags = %d, want 1", n)
	}
	if len(res.MoneylineBets) != 0 {
		t.Errorf("moneyline bets = %d, want 0", len(res.MoneylineBets))
	}
}

func TestEvaluatePerBookSpreadLines(t *testing.T) {
	odds := []domain.GameOddsRecord{
		mkOdds("Ohio State", "Michigan",
			mkQuote("book_a", domain.MarketSpread, domain.SideHome, -110, -6.5),
			mkQuote("book_b", domain.MarketSpread, domain.SideHome, -110, -7.5),
		),
	}
	preds := []domain.ModelPredictionRecord{
		mkPred("Ohio State", "Michigan", 7, 0.65),
	}

	eng := New(nil, testLogger())
	res, err := eng.Evaluate(odds, preds, Config{})
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if len(res.SpreadBets) != 2 {
		t.Fatalf("spread bets = %d, want 2", len(res.SpreadBets))
	}
	var probA, probB float64
	for _, r := range res.SpreadBets {
		switch r.Bookmaker {
		case "book_a":
			probA = r.ModelProb
		case "book_b":
			probB = r.ModelProb
		}
	}
	// Margin 7 clears -6.5 more often than -7.5; each quote must be
	// priced at its own posted line.
	if !(probA > 0.5 && probB < 0.5) {
		t.Errorf("cover probs a=%v b=%v; want a > 0.5 > b", probA, probB)
	}
}
