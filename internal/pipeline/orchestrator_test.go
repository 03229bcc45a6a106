package pipeline

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/dmeltzer/linesight/internal/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeSyncer struct {
	calls []string
	err   error
}

func (f *fakeSyncer) Sync(_ context.Context, sportKey string) (int, error) {
	f.calls = append(f.calls, sportKey)
	return 1, f.err
}

type fakeSettler struct {
	calls []string
}

func (f *fakeSettler) Settle(_ context.Context, sportKey string) (int, error) {
	f.calls = append(f.calls, sportKey)
	return 1, nil
}

type fakeEvaluator struct {
	runs []string
	done chan string
	err  error
}

func (f *fakeEvaluator) Run(_ context.Context, sportKey string) (domain.EvaluationRun, domain.EvaluationResult, error) {
	f.runs = append(f.runs, sportKey)
	if f.done != nil {
		f.done <- sportKey
	}
	return domain.EvaluationRun{ID: "run-1", SportKey: sportKey}, domain.EvaluationResult{}, f.err
}

func TestManualCycleSyncsThenEvaluates(t *testing.T) {
	odds := &fakeSyncer{}
	preds := &fakeSyncer{}
	eval := &fakeEvaluator{}

	o := NewOrchestrator(Deps{
		Odds:        odds,
		Predictions: preds,
		Evaluator:   eval,
	}, Config{
		Sports: []string{"americanfootball_ncaaf", "basketball_ncaab"},
	}, testLogger())

	o.runManualCycle(context.Background())

	if len(odds.calls) != 2 || len(preds.calls) != 2 {
		t.Fatalf("sync calls = %d odds, %d predictions, want 2 each", len(odds.calls), len(preds.calls))
	}
	if len(eval.runs) != 2 {
		t.Fatalf("evaluations = %d, want 2", len(eval.runs))
	}
	if eval.runs[0] != "americanfootball_ncaaf" || eval.runs[1] != "basketball_ncaab" {
		t.Errorf("evaluation order = %v", eval.runs)
	}
}

func TestSyncFailureDoesNotStopOtherSports(t *testing.T) {
	odds := &fakeSyncer{err: errors.New("quota exhausted")}

	o := NewOrchestrator(Deps{Odds: odds}, Config{
		Sports: []string{"americanfootball_ncaaf", "basketball_ncaab"},
	}, testLogger())

	o.syncAll(context.Background(), "odds", odds)

	if len(odds.calls) != 2 {
		t.Fatalf("sync calls = %d, want 2 despite per-sport failure", len(odds.calls))
	}
}

func TestResultsFailureSkipsSettlement(t *testing.T) {
	results := &fakeSyncer{err: errors.New("scores endpoint down")}
	settler := &fakeSettler{}

	o := NewOrchestrator(Deps{
		Results: results,
		Settler: settler,
	}, Config{
		Sports: []string{"americanfootball_ncaaf"},
	}, testLogger())

	o.syncResultsAndSettle(context.Background())

	if len(settler.calls) != 0 {
		t.Fatalf("settler ran %d times after failed results sync, want 0", len(settler.calls))
	}
}

func TestResultsSyncThenSettle(t *testing.T) {
	results := &fakeSyncer{}
	settler := &fakeSettler{}

	o := NewOrchestrator(Deps{
		Results: results,
		Settler: settler,
	}, Config{
		Sports: []string{"americanfootball_ncaaf", "basketball_ncaab"},
	}, testLogger())

	o.syncResultsAndSettle(context.Background())

	if len(settler.calls) != 2 {
		t.Fatalf("settlements = %d, want 2", len(settler.calls))
	}
}

func TestEvalLoopConsumesTriggers(t *testing.T) {
	evalCh := make(chan string, 1)
	eval := &fakeEvaluator{done: make(chan string, 1)}

	o := NewOrchestrator(Deps{
		Evaluator: eval,
		EvalCh:    evalCh,
	}, Config{}, testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go o.runEvalLoop(ctx)

	evalCh <- "americanfootball_ncaaf"

	select {
	case sport := <-eval.done:
		if sport != "americanfootball_ncaaf" {
			t.Errorf("evaluated %q, want americanfootball_ncaaf", sport)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("evaluation never ran")
	}
}
