package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/dmeltzer/linesight/internal/domain"
	"github.com/dmeltzer/linesight/internal/engine"
	"github.com/dmeltzer/linesight/internal/export"
	"github.com/dmeltzer/linesight/internal/oddsmath"
)

// Gates controls which opportunities get published for alerting.
// Everything the engine emits is persisted; the gates only filter the
// bus traffic.
type Gates struct {
	MinEdge   float64
	MinProfit float64
}

// EvaluationService runs engine passes over the cached snapshots and
// persists the output.
type EvaluationService struct {
	engine       *engine.Engine
	oddsCache    domain.OddsCache
	predCache    domain.PredictionCache
	runs         domain.EvaluationStore
	recs         domain.RecommendationStore
	arbs         domain.ArbStore
	bus          domain.SignalBus
	audit        domain.AuditStore
	exporter     *export.Exporter
	cfg          engine.Config
	sigmaBySport map[string]float64
	gates        Gates
	logger       *slog.Logger
}

// NewEvaluationService creates an EvaluationService with all required
// dependencies.
func NewEvaluationService(
	eng *engine.Engine,
	oddsCache domain.OddsCache,
	predCache domain.PredictionCache,
	runs domain.EvaluationStore,
	recs domain.RecommendationStore,
	arbs domain.ArbStore,
	bus domain.SignalBus,
	audit domain.AuditStore,
	cfg engine.Config,
	gates Gates,
	logger *slog.Logger,
) *EvaluationService {
	return &EvaluationService{
		engine:    eng,
		oddsCache: oddsCache,
		predCache: predCache,
		runs:      runs,
		recs:      recs,
		arbs:      arbs,
		bus:       bus,
		audit:     audit,
		cfg:       cfg,
		gates:     gates,
		logger:    logger,
	}
}

// WithExporter attaches a CSV exporter so each run also writes the
// day's bets and arbs files. Without one, runs only persist to the
// stores.
func (s *EvaluationService) WithExporter(e *export.Exporter) *EvaluationService {
	s.exporter = e
	return s
}

// WithSigmaOverrides sets per-sport margin model deviations. Sports
// absent from the map keep the configured default sigma.
func (s *EvaluationService) WithSigmaOverrides(overrides map[string]float64) *EvaluationService {
	s.sigmaBySport = overrides
	return s
}

// passConfig returns the engine config for one sport's pass, applying
// any per-sport sigma override.
func (s *EvaluationService) passConfig(sportKey string) engine.Config {
	cfg := s.cfg
	if sigma, ok := s.sigmaBySport[sportKey]; ok {
		cfg.Sigma = sigma
	}
	return cfg
}

// Run executes one engine pass for a sport over the cached snapshots,
// persists the run with its recommendations and arbs, and publishes
// the entries that pass the alert gates. A missing prediction snapshot
// degrades to an arbitrage-only pass; a missing odds snapshot fails.
func (s *EvaluationService) Run(ctx context.Context, sportKey string) (domain.EvaluationRun, domain.EvaluationResult, error) {
	started := time.Now().UTC()

	odds, oddsAt, err := s.oddsCache.GetSnapshot(ctx, sportKey)
	if err != nil {
		return domain.EvaluationRun{}, domain.EvaluationResult{},
			fmt.Errorf("evaluation_service: odds snapshot for %q: %w", sportKey, err)
	}

	preds, predsAt, err := s.predCache.GetSnapshot(ctx, sportKey)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			return domain.EvaluationRun{}, domain.EvaluationResult{},
				fmt.Errorf("evaluation_service: prediction snapshot for %q: %w", sportKey, err)
		}
		preds = nil
	}

	s.logger.DebugContext(ctx, "evaluation_service: snapshots loaded",
		slog.String("sport", sportKey),
		slog.Time("odds_at", oddsAt),
		slog.Time("predictions_at", predsAt),
	)

	cfg := s.passConfig(sportKey)
	result, err := s.engine.Evaluate(odds, preds, cfg)
	if err != nil {
		return domain.EvaluationRun{}, domain.EvaluationResult{},
			fmt.Errorf("evaluation_service: evaluate %q: %w", sportKey, err)
	}

	run := stamp(&result, cfg, sportKey, started, len(odds), len(preds))

	if err := s.runs.Insert(ctx, run); err != nil {
		return domain.EvaluationRun{}, domain.EvaluationResult{},
			fmt.Errorf("evaluation_service: insert run %q: %w", run.ID, err)
	}
	if recs := result.Recommendations(); len(recs) > 0 {
		if err := s.recs.InsertBatch(ctx, recs); err != nil {
			return domain.EvaluationRun{}, domain.EvaluationResult{},
				fmt.Errorf("evaluation_service: insert recommendations for run %q: %w", run.ID, err)
		}
	}
	if opps := result.Opportunities(); len(opps) > 0 {
		if err := s.arbs.InsertBatch(ctx, opps); err != nil {
			return domain.EvaluationRun{}, domain.EvaluationResult{},
				fmt.Errorf("evaluation_service: insert arbs for run %q: %w", run.ID, err)
		}
	}

	s.publishOpportunities(ctx, result)
	s.export(ctx, result, run.FinishedAt)

	if auditErr := s.audit.Log(ctx, "evaluation.run", map[string]any{
		"run_id":          run.ID,
		"sport":           sportKey,
		"matched_games":   run.MatchedGames,
		"recommendations": run.Recommendations,
		"opportunities":   run.Opportunities,
	}); auditErr != nil {
		s.logger.WarnContext(ctx, "evaluation_service: audit log failed",
			slog.String("error", auditErr.Error()),
		)
	}

	s.logger.InfoContext(ctx, "evaluation_service: run persisted",
		slog.String("run_id", run.ID),
		slog.String("sport", sportKey),
		slog.Int("recommendations", run.Recommendations),
		slog.Int("opportunities", run.Opportunities),
	)
	return run, result, nil
}

// stamp assigns identities and timestamps to the pass output. The
// engine itself never generates either, so repeated passes over the
// same snapshots stay comparable.
func stamp(result *domain.EvaluationResult, cfg engine.Config, sportKey string, started time.Time, oddsRecords, predRecords int) domain.EvaluationRun {
	now := time.Now().UTC()
	runID := uuid.New().String()

	stampBets := func(list []domain.BetRecommendation) {
		for i := range list {
			list[i].ID = uuid.New().String()
			list[i].RunID = runID
			list[i].CreatedAt = now
		}
	}
	stampBets(result.MoneylineBets)
	stampBets(result.SpreadBets)

	stampArbs := func(list []domain.ArbitrageOpportunity) {
		for i := range list {
			list[i].ID = uuid.New().String()
			list[i].RunID = runID
			list[i].DetectedAt = now
		}
	}
	stampArbs(result.MoneylineArbs)
	stampArbs(result.SpreadArbs)

	sigma := cfg.Sigma
	if sigma == 0 {
		sigma = oddsmath.DefaultSigma
	}
	topN := cfg.TopN
	if topN == 0 {
		topN = engine.DefaultTopN
	}

	return domain.EvaluationRun{
		ID:                runID,
		SportKey:          sportKey,
		StartedAt:         started,
		FinishedAt:        now,
		OddsRecords:       oddsRecords,
		PredictionRecords: predRecords,
		MatchedGames:      result.MatchedGames,
		Recommendations:   len(result.MoneylineBets) + len(result.SpreadBets),
		Opportunities:     len(result.MoneylineArbs) + len(result.SpreadArbs),
		Sigma:             sigma,
		TopN:              topN,
		MinEdge:           cfg.MinEdge,
	}
}

// publishOpportunities puts gate-passing entries on the bus for the
// alert worker and websocket hub. Publish failures are logged and
// swallowed; everything is already persisted.
func (s *EvaluationService) publishOpportunities(ctx context.Context, result domain.EvaluationResult) {
	for _, rec := range result.Recommendations() {
		if rec.Edge < s.gates.MinEdge {
			s.logger.DebugContext(ctx, "evaluation_service: alert gate failed",
				slog.String("gate", "min_edge"),
				slog.String("id", rec.ID),
				slog.Float64("edge", rec.Edge),
			)
			continue
		}
		publishJSON(ctx, s.bus, s.logger, domain.ChannelBets, rec)
	}
	s.publishArbs(ctx, result.Opportunities())
}

// publishArbs puts gate-passing opportunities on the arb channel.
func (s *EvaluationService) publishArbs(ctx context.Context, opps []domain.ArbitrageOpportunity) {
	for _, opp := range opps {
		if opp.Profit < s.gates.MinProfit {
			s.logger.DebugContext(ctx, "evaluation_service: alert gate failed",
				slog.String("gate", "min_profit"),
				slog.String("id", opp.ID),
				slog.Float64("profit", opp.Profit),
			)
			continue
		}
		publishJSON(ctx, s.bus, s.logger, domain.ChannelArbs, opp)
	}
}

// RecordArbs persists opportunities surfaced outside an engine pass and
// publishes the gate-passing ones. The arbitrage scanner is the caller;
// entries are stamped here and carry no run id.
func (s *EvaluationService) RecordArbs(ctx context.Context, opps []domain.ArbitrageOpportunity) error {
	if len(opps) == 0 {
		return nil
	}

	now := time.Now().UTC()
	for i := range opps {
		opps[i].ID = uuid.New().String()
		opps[i].DetectedAt = now
	}

	if err := s.arbs.InsertBatch(ctx, opps); err != nil {
		return fmt.Errorf("evaluation_service: insert scanned arbs: %w", err)
	}
	s.publishArbs(ctx, opps)

	if auditErr := s.audit.Log(ctx, "arbitrage.scan", map[string]any{
		"sport":         opps[0].SportKey,
		"opportunities": len(opps),
	}); auditErr != nil {
		s.logger.WarnContext(ctx, "evaluation_service: audit log failed",
			slog.String("error", auditErr.Error()),
		)
	}
	return nil
}

func (s *EvaluationService) export(ctx context.Context, result domain.EvaluationResult, day time.Time) {
	if s.exporter == nil {
		return
	}
	if _, err := s.exporter.WriteBets(ctx, result.Recommendations(), day); err != nil {
		s.logger.WarnContext(ctx, "evaluation_service: bets export failed",
			slog.String("error", err.Error()),
		)
	}
	if _, err := s.exporter.WriteArbs(ctx, result.Opportunities(), day); err != nil {
		s.logger.WarnContext(ctx, "evaluation_service: arbs export failed",
			slog.String("error", err.Error()),
		)
	}
}

// RecentRuns returns persisted runs, newest first.
func (s *EvaluationService) RecentRuns(ctx context.Context, opts domain.ListOpts) ([]domain.EvaluationRun, error) {
	runs, err := s.runs.ListRecent(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("evaluation_service: list runs: %w", err)
	}
	return runs, nil
}

// RunByID returns a single persisted run by id.
func (s *EvaluationService) RunByID(ctx context.Context, id string) (domain.EvaluationRun, error) {
	run, err := s.runs.GetByID(ctx, id)
	if err != nil {
		return domain.EvaluationRun{}, fmt.Errorf("evaluation_service: get run %q: %w", id, err)
	}
	return run, nil
}

// RecentRecommendations returns persisted recommendations for a market,
// newest first.
func (s *EvaluationService) RecentRecommendations(ctx context.Context, market domain.MarketKind, opts domain.ListOpts) ([]domain.BetRecommendation, error) {
	recs, err := s.recs.ListRecent(ctx, market, opts)
	if err != nil {
		return nil, fmt.Errorf("evaluation_service: list recommendations: %w", err)
	}
	return recs, nil
}

// Recommendation returns a single persisted recommendation by id.
func (s *EvaluationService) Recommendation(ctx context.Context, id string) (domain.BetRecommendation, error) {
	rec, err := s.recs.GetByID(ctx, id)
	if err != nil {
		return domain.BetRecommendation{}, fmt.Errorf("evaluation_service: get recommendation %q: %w", id, err)
	}
	return rec, nil
}

// RecentArbs returns persisted arbitrage opportunities for a market,
// newest first.
func (s *EvaluationService) RecentArbs(ctx context.Context, market domain.MarketKind, opts domain.ListOpts) ([]domain.ArbitrageOpportunity, error) {
	opps, err := s.arbs.ListRecent(ctx, market, opts)
	if err != nil {
		return nil, fmt.Errorf("evaluation_service: list arbs: %w", err)
	}
	return opps, nil
}

// publishJSON marshals v onto the channel; failures are logged, never
// fatal.
func publishJSON(ctx context.Context, bus domain.SignalBus, logger *slog.Logger, channel string, v any) {
	payload, err := json.Marshal(v)
	if err != nil {
		logger.WarnContext(ctx, "marshal for publish failed",
			slog.String("channel", channel),
			slog.String("error", err.Error()),
		)
		return
	}
	if err := bus.Publish(ctx, channel, payload); err != nil {
		logger.WarnContext(ctx, "publish failed",
			slog.String("channel", channel),
			slog.String("error", err.Error()),
		)
	}
}
