// Package pipeline coordinates the periodic sync loops, the evaluation
// runner, settlement, and cold-storage archival.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/dmeltzer/linesight/internal/domain"
)

// Syncer refreshes one sport's snapshot from a remote source.
type Syncer interface {
	Sync(ctx context.Context, sportKey string) (int, error)
}

// Evaluator executes one engine pass over the cached snapshots.
type Evaluator interface {
	Run(ctx context.Context, sportKey string) (domain.EvaluationRun, domain.EvaluationResult, error)
}

// Settler grades unsettled recommendations against final scores.
type Settler interface {
	Settle(ctx context.Context, sportKey string) (int, error)
}

// Runner is a long-lived loop that exits when its context is cancelled.
type Runner interface {
	Run(ctx context.Context) error
}

// Config holds the loop intervals and archive parameters.
type Config struct {
	Sports               []string
	OddsInterval         time.Duration
	PredictionsInterval  time.Duration
	ResultsInterval      time.Duration
	ArchiveInterval      time.Duration
	ArchiveRetentionDays int
}

// Deps aggregates the components the orchestrator coordinates. A nil
// field disables the corresponding loop.
type Deps struct {
	Odds        Syncer
	Predictions Syncer
	Results     Syncer
	Evaluator   Evaluator
	Settler     Settler
	Trigger     Runner
	Archiver    domain.Archiver

	// EvalCh delivers sport keys whose snapshots were refreshed.
	EvalCh <-chan string
	// RunCh delivers manual full-cycle requests from the API.
	RunCh <-chan struct{}
}

// Orchestrator manages all pipeline goroutines: snapshot sync loops, the
// evaluation runner, post-results settlement, and cold-storage archival.
type Orchestrator struct {
	deps   Deps
	cfg    Config
	logger *slog.Logger
}

// NewOrchestrator creates a new Orchestrator that coordinates all pipeline
// sub-systems.
func NewOrchestrator(deps Deps, cfg Config, logger *slog.Logger) *Orchestrator {
	return &Orchestrator{
		deps:   deps,
		cfg:    cfg,
		logger: logger,
	}
}

// Run starts all sub-pipelines as concurrent goroutines using an errgroup.
// Each goroutine respects ctx cancellation. If any goroutine returns a
// non-context error, the errgroup cancels the shared context and Run
// returns that error.
func (o *Orchestrator) Run(ctx context.Context) error {
	o.logger.Info("pipeline orchestrator starting",
		slog.Duration("odds_interval", o.cfg.OddsInterval),
		slog.Duration("predictions_interval", o.cfg.PredictionsInterval),
		slog.Duration("results_interval", o.cfg.ResultsInterval),
	)

	g, ctx := errgroup.WithContext(ctx)

	if o.deps.Odds != nil {
		g.Go(func() error {
			o.logger.Info("starting odds sync loop")
			err := o.runSyncLoop(ctx, "odds", o.deps.Odds, o.cfg.OddsInterval)
			if ctx.Err() != nil {
				return nil // clean shutdown
			}
			return fmt.Errorf("odds loop: %w", err)
		})
	}

	if o.deps.Predictions != nil {
		g.Go(func() error {
			o.logger.Info("starting predictions sync loop")
			err := o.runSyncLoop(ctx, "predictions", o.deps.Predictions, o.cfg.PredictionsInterval)
			if ctx.Err() != nil {
				return nil // clean shutdown
			}
			return fmt.Errorf("predictions loop: %w", err)
		})
	}

	if o.deps.Results != nil {
		g.Go(func() error {
			o.logger.Info("starting results + settlement loop")
			err := o.runResultsLoop(ctx)
			if ctx.Err() != nil {
				return nil // clean shutdown
			}
			return fmt.Errorf("results loop: %w", err)
		})
	}

	if o.deps.Evaluator != nil {
		g.Go(func() error {
			o.logger.Info("starting evaluation runner")
			err := o.runEvalLoop(ctx)
			if ctx.Err() != nil {
				return nil // clean shutdown
			}
			return fmt.Errorf("evaluation runner: %w", err)
		})
	}

	if o.deps.Trigger != nil {
		g.Go(func() error {
			o.logger.Info("starting evaluation trigger")
			err := o.deps.Trigger.Run(ctx)
			if ctx.Err() != nil {
				return nil // clean shutdown
			}
			return fmt.Errorf("evaluation trigger: %w", err)
		})
	}

	if o.deps.Archiver != nil {
		g.Go(func() error {
			o.logger.Info("starting archive loop",
				slog.Duration("interval", o.cfg.ArchiveInterval),
				slog.Int("retention_days", o.cfg.ArchiveRetentionDays),
			)
			err := o.runArchiveLoop(ctx)
			if ctx.Err() != nil {
				return nil // clean shutdown
			}
			return fmt.Errorf("archive loop: %w", err)
		})
	}

	err := g.Wait()
	if err != nil {
		o.logger.Error("pipeline orchestrator stopped with error", slog.String("error", err.Error()))
		return err
	}

	o.logger.Info("pipeline orchestrator stopped cleanly")
	return nil
}

// runSyncLoop syncs every configured sport immediately and then on a
// repeating interval until the context is cancelled. Per-sport failures
// are logged and do not stop the loop.
func (o *Orchestrator) runSyncLoop(ctx context.Context, name string, syncer Syncer, interval time.Duration) error {
	o.syncAll(ctx, name, syncer)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			o.logger.Info("sync loop stopped", slog.String("loop", name))
			return ctx.Err()
		case <-ticker.C:
			o.syncAll(ctx, name, syncer)
		}
	}
}

// syncAll runs one sync pass over every configured sport.
func (o *Orchestrator) syncAll(ctx context.Context, name string, syncer Syncer) {
	for _, sport := range o.cfg.Sports {
		if ctx.Err() != nil {
			return
		}
		if _, err := syncer.Sync(ctx, sport); err != nil {
			o.logger.Error("sync failed",
				slog.String("loop", name),
				slog.String("sport", sport),
				slog.String("error", err.Error()),
			)
		}
	}
}

// runResultsLoop refreshes final scores and settles graded recommendations
// right after each refresh so settlement never waits a full results
// interval behind the scores it needs.
func (o *Orchestrator) runResultsLoop(ctx context.Context) error {
	o.syncResultsAndSettle(ctx)

	ticker := time.NewTicker(o.cfg.ResultsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			o.logger.Info("results loop stopped")
			return ctx.Err()
		case <-ticker.C:
			o.syncResultsAndSettle(ctx)
		}
	}
}

func (o *Orchestrator) syncResultsAndSettle(ctx context.Context) {
	for _, sport := range o.cfg.Sports {
		if ctx.Err() != nil {
			return
		}
		if _, err := o.deps.Results.Sync(ctx, sport); err != nil {
			o.logger.Error("results sync failed",
				slog.String("sport", sport),
				slog.String("error", err.Error()),
			)
			continue
		}
		if o.deps.Settler == nil {
			continue
		}
		if _, err := o.deps.Settler.Settle(ctx, sport); err != nil {
			o.logger.Error("settlement failed",
				slog.String("sport", sport),
				slog.String("error", err.Error()),
			)
		}
	}
}

// runEvalLoop consumes refreshed sport keys from the trigger channel and
// manual full-cycle requests from the API until the context is cancelled.
func (o *Orchestrator) runEvalLoop(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			o.logger.Info("evaluation runner stopped")
			return ctx.Err()
		case sport := <-o.deps.EvalCh:
			o.evaluate(ctx, sport)
		case <-o.deps.RunCh:
			o.runManualCycle(ctx)
		}
	}
}

// evaluate runs one engine pass for a sport. Failures are logged and do
// not stop the runner.
func (o *Orchestrator) evaluate(ctx context.Context, sport string) {
	run, _, err := o.deps.Evaluator.Run(ctx, sport)
	if err != nil {
		o.logger.Error("evaluation failed",
			slog.String("sport", sport),
			slog.String("error", err.Error()),
		)
		return
	}
	o.logger.Info("evaluation complete",
		slog.String("run_id", run.ID),
		slog.String("sport", sport),
		slog.Int("matched_games", run.MatchedGames),
		slog.Int("recommendations", run.Recommendations),
		slog.Int("opportunities", run.Opportunities),
	)
}

// runManualCycle services one API trigger: refresh every snapshot, then
// evaluate every sport against the fresh data.
func (o *Orchestrator) runManualCycle(ctx context.Context) {
	o.logger.Info("manual pipeline cycle requested")
	if o.deps.Odds != nil {
		o.syncAll(ctx, "odds", o.deps.Odds)
	}
	if o.deps.Predictions != nil {
		o.syncAll(ctx, "predictions", o.deps.Predictions)
	}
	for _, sport := range o.cfg.Sports {
		if ctx.Err() != nil {
			return
		}
		o.evaluate(ctx, sport)
	}
}

// runArchiveLoop moves aged rows to cold storage on a repeating interval.
// Unlike the sync loops it waits a full interval before the first pass so
// restarts do not trigger immediate archival churn.
func (o *Orchestrator) runArchiveLoop(ctx context.Context) error {
	ticker := time.NewTicker(o.cfg.ArchiveInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			o.logger.Info("archive loop stopped")
			return ctx.Err()
		case <-ticker.C:
			if err := o.runArchive(ctx); err != nil {
				o.logger.Error("archive run failed", slog.String("error", err.Error()))
			}
		}
	}
}

// runArchive executes a single archive run against the retention cutoff.
// Recommendations go first so their settlement outcomes are in the blob
// before the runs that produced them leave the database.
func (o *Orchestrator) runArchive(ctx context.Context) error {
	cutoff := time.Now().UTC().Add(-time.Duration(o.cfg.ArchiveRetentionDays) * 24 * time.Hour)
	o.logger.Info("starting archive run",
		slog.Time("cutoff", cutoff),
		slog.Int("retention_days", o.cfg.ArchiveRetentionDays),
	)

	recsArchived, err := o.deps.Archiver.ArchiveRecommendations(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("archiving recommendations before %v: %w", cutoff, err)
	}

	arbsArchived, err := o.deps.Archiver.ArchiveArbs(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("archiving arbs before %v: %w", cutoff, err)
	}

	runsArchived, err := o.deps.Archiver.ArchiveRuns(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("archiving runs before %v: %w", cutoff, err)
	}

	o.logger.Info("archive run complete",
		slog.Int64("recommendations_archived", recsArchived),
		slog.Int64("arbs_archived", arbsArchived),
		slog.Int64("runs_archived", runsArchived),
	)
	return nil
}
