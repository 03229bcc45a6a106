// Package engine runs the evaluation pass: it matches odds records
// with model predictions, prices every quote for expected value, scans
// for arbitrage, and ranks the output. A pass is synchronous and
// deterministic; identical inputs produce identical results, including
// order.
package engine

import (
	"fmt"
	"log/slog"
	"math"

	"github.com/dmeltzer/linesight/internal/arbitrage"
	"github.com/dmeltzer/linesight/internal/domain"
	"github.com/dmeltzer/linesight/internal/match"
	"github.com/dmeltzer/linesight/internal/oddsmath"
)

// DefaultTopN bounds each output sequence when the config leaves it zero.
const DefaultTopN = 30

// Config carries one pass's tunables.
type Config struct {
	Sigma           float64      // margin model standard deviation, 0 = DefaultSigma
	TopN            int          // per-sequence cap, 0 = DefaultTopN
	MinEdge         *float64     // drop recommendations with edge below this, nil = keep all
	AmbiguousPolicy match.Policy // duplicate-match resolution, empty = first
	Evaluators      []string     // evaluator names to run, empty = all registered
	Aliases         map[string]string
}

func (c Config) withDefaults() Config {
	if c.Sigma == 0 {
		c.Sigma = oddsmath.DefaultSigma
	}
	if c.TopN == 0 {
		c.TopN = DefaultTopN
	}
	return c
}

// Engine evaluates odds and prediction snapshots. It holds no state
// between passes.
type Engine struct {
	registry *Registry
	logger   *slog.Logger
}

// New creates an engine over the given registry; nil selects the
// default market evaluators.
func New(registry *Registry, logger *slog.Logger) *Engine {
	if registry == nil {
		registry = Default()
	}
	return &Engine{
		registry: registry,
		logger:   logger.With(slog.String("component", "engine")),
	}
}

// Evaluate performs one pass over materialized input records. Malformed
// quotes and predictions are dropped with diagnostics, never aborting
// the pass; config violations fail before any work.
func (e *Engine) Evaluate(odds []domain.GameOddsRecord, preds []domain.ModelPredictionRecord, cfg Config) (domain.EvaluationResult, error) {
	cfg = cfg.withDefaults()
	if cfg.Sigma <= 0 || math.IsNaN(cfg.Sigma) {
		return domain.EvaluationResult{}, fmt.Errorf("engine: sigma %v: %w", cfg.Sigma, domain.ErrInvalidInput)
	}
	if cfg.TopN < 0 {
		return domain.EvaluationResult{}, fmt.Errorf("engine: top n %d: %w", cfg.TopN, domain.ErrInvalidInput)
	}
	evaluators, err := e.selectEvaluators(cfg)
	if err != nil {
		return domain.EvaluationResult{}, err
	}

	var result domain.EvaluationResult

	cleanOdds, oddsDiags := sanitizeOdds(odds)
	result.Diagnostics = append(result.Diagnostics, oddsDiags...)

	cleanPreds, predDiags := validatePredictions(preds)
	result.Diagnostics = append(result.Diagnostics, predDiags...)

	matcher := match.New(cfg.Aliases, cfg.AmbiguousPolicy)
	games, matchDiags := matcher.MatchGames(cleanOdds, cleanPreds)
	result.Diagnostics = append(result.Diagnostics, matchDiags...)
	for _, game := range games {
		if game.HasModel() {
			result.MatchedGames++
		}
	}

	for _, game := range games {
		for _, ev := range evaluators {
			recs, evDiags := ev.EvaluateGame(game, cfg)
			result.Diagnostics = append(result.Diagnostics, evDiags...)
			recs = filterMinEdge(recs, cfg.MinEdge)
			switch ev.Market() {
			case domain.MarketMoneyline:
				result.MoneylineBets = append(result.MoneylineBets, recs...)
			case domain.MarketSpread:
				result.SpreadBets = append(result.SpreadBets, recs...)
			}
		}
		for _, market := range []domain.MarketKind{domain.MarketMoneyline, domain.MarketSpread} {
			opp, arbDiags := arbitrage.FindArbitrage(game.Odds, market)
			result.Diagnostics = append(result.Diagnostics, arbDiags...)
			if opp == nil {
				continue
			}
			if market == domain.MarketMoneyline {
				result.MoneylineArbs = append(result.MoneylineArbs, *opp)
			} else {
				result.SpreadArbs = append(result.SpreadArbs, *opp)
			}
		}
	}

	result.MoneylineBets = TopBets(result.MoneylineBets, cfg.TopN)
	result.SpreadBets = TopBets(result.SpreadBets, cfg.TopN)
	result.MoneylineArbs = TopArbs(result.MoneylineArbs, cfg.TopN)
	result.SpreadArbs = TopArbs(result.SpreadArbs, cfg.TopN)

	e.logger.Info("evaluation pass complete",
		slog.Int("games", len(games)),
		slog.Int("moneyline_bets", len(result.MoneylineBets)),
		slog.Int("spread_bets", len(result.SpreadBets)),
		slog.Int("arbs", len(result.MoneylineArbs)+len(result.SpreadArbs)),
		slog.Int("diagnostics", len(result.Diagnostics)),
	)
	return result, nil
}

func (e *Engine) selectEvaluators(cfg Config) ([]Evaluator, error) {
	names := cfg.Evaluators
	if len(names) == 0 {
		names = e.registry.List()
	}
	evs := make([]Evaluator, 0, len(names))
	for _, n := range names {
		ev, err := e.registry.Get(n)
		if err != nil {
			return nil, err
		}
		evs = append(evs, ev)
	}
	return evs, nil
}

// sanitizeOdds drops malformed quotes up front so each is reported
// exactly once, whatever consumes the record afterwards.
func sanitizeOdds(odds []domain.GameOddsRecord) ([]domain.GameOddsRecord, []domain.Diagnostic) {
	out := make([]domain.GameOddsRecord, 0, len(odds))
	var diags []domain.Diagnostic
	for _, rec := range odds {
		kept := rec
		var quotes []domain.Quote
		for _, q := range rec.Quotes {
			if _, err := oddsmath.ImpliedProbability(q.Odds); err != nil {
				diags = append(diags, skippedQuote(rec, q, err))
				continue
			}
			if q.Market == domain.MarketSpread && (math.IsNaN(q.Line) || math.IsInf(q.Line, 0)) {
				diags = append(diags, skippedQuote(rec, q, fmt.Errorf("line %v: %w", q.Line, domain.ErrInvalidInput)))
				continue
			}
			quotes = append(quotes, q)
		}
		kept.Quotes = quotes
		out = append(out, kept)
	}
	return out, diags
}

func validatePredictions(preds []domain.ModelPredictionRecord) ([]domain.ModelPredictionRecord, []domain.Diagnostic) {
	valid := make([]domain.ModelPredictionRecord, 0, len(preds))
	var diags []domain.Diagnostic
	for _, p := range preds {
		var detail string
		switch {
		case math.IsNaN(p.PredictedMargin) || math.IsInf(p.PredictedMargin, 0):
			detail = fmt.Sprintf("predicted margin %v is not finite", p.PredictedMargin)
		case !(p.HomeWinProb > 0 && p.HomeWinProb < 1):
			detail = fmt.Sprintf("home win probability %v outside (0,1)", p.HomeWinProb)
		default:
			valid = append(valid, p)
			continue
		}
		diags = append(diags, domain.Diagnostic{
			Kind:     domain.DiagSkippedPrediction,
			HomeTeam: p.HomeTeam,
			AwayTeam: p.AwayTeam,
			Detail:   detail,
		})
	}
	return valid, diags
}

func filterMinEdge(recs []domain.BetRecommendation, min *float64) []domain.BetRecommendation {
	if min == nil {
		return recs
	}
	out := make([]domain.BetRecommendation, 0, len(recs))
	for _, r := range recs {
		if r.Edge >= *min {
			out = append(out, r)
		}
	}
	return out
}
