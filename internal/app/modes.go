package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/dmeltzer/linesight/internal/alert"
	"github.com/dmeltzer/linesight/internal/arbitrage"
	"github.com/dmeltzer/linesight/internal/crypto"
	"github.com/dmeltzer/linesight/internal/domain"
	"github.com/dmeltzer/linesight/internal/engine"
	"github.com/dmeltzer/linesight/internal/export"
	"github.com/dmeltzer/linesight/internal/feed"
	"github.com/dmeltzer/linesight/internal/match"
	"github.com/dmeltzer/linesight/internal/notify"
	"github.com/dmeltzer/linesight/internal/pipeline"
	"github.com/dmeltzer/linesight/internal/platform/oddsapi"
	"github.com/dmeltzer/linesight/internal/platform/predictiontracker"
	"github.com/dmeltzer/linesight/internal/server"
	"github.com/dmeltzer/linesight/internal/server/handler"
	"github.com/dmeltzer/linesight/internal/server/ws"
	"github.com/dmeltzer/linesight/internal/service"
)

// services bundles the service layer every mode composes from.
type services struct {
	odds    *service.OddsService
	preds   *service.PredictionService
	results *service.ResultsService
	eval    *service.EvaluationService
	settle  *service.SettlementService
}

// oddsAPIKey resolves The Odds API credential. Read-only modes may run
// without one; modes that fetch are guarded by config validation.
func (a *App) oddsAPIKey() (string, error) {
	if a.cfg.OddsAPI.APIKey == "" && a.cfg.OddsAPI.KeyFile == "" {
		return "", nil
	}
	key, err := crypto.LoadKey(crypto.KeyConfig{
		RawKey:      a.cfg.OddsAPI.APIKey,
		KeyfilePath: a.cfg.OddsAPI.KeyFile,
		Passphrase:  a.cfg.OddsAPI.KeyPassphrase,
	})
	if err != nil {
		return "", fmt.Errorf("resolving odds api credential: %w", err)
	}
	return key, nil
}

func (a *App) engineConfig() engine.Config {
	return engine.Config{
		Sigma:           a.cfg.Engine.Sigma,
		TopN:            a.cfg.Engine.TopN,
		MinEdge:         a.cfg.Engine.MinEdge,
		AmbiguousPolicy: match.Policy(strings.ToLower(a.cfg.Engine.AmbiguousPolicy)),
		Evaluators:      a.cfg.Engine.Evaluators,
		Aliases:         a.cfg.Engine.Aliases,
	}
}

func (a *App) alertConfig() alert.Config {
	return alert.Config{
		MinEdge:   a.cfg.Alerts.MinEdge,
		MinProfit: a.cfg.Alerts.MinProfit,
		DedupTTL:  a.cfg.Alerts.DedupTTL.Duration,
	}
}

func (a *App) pipelineConfig() pipeline.Config {
	return pipeline.Config{
		Sports:               a.cfg.Sports.Keys,
		OddsInterval:         a.cfg.Pipeline.OddsInterval.Duration,
		PredictionsInterval:  a.cfg.Pipeline.PredictionsInterval.Duration,
		ResultsInterval:      a.cfg.Pipeline.ResultsInterval.Duration,
		ArchiveInterval:      a.cfg.Pipeline.ArchiveInterval.Duration,
		ArchiveRetentionDays: a.cfg.Pipeline.ArchiveRetentionDays,
	}
}

// buildServices constructs the service layer over the wired dependencies.
func (a *App) buildServices(deps *Dependencies) (*services, error) {
	key, err := a.oddsAPIKey()
	if err != nil {
		return nil, err
	}

	oddsClient := oddsapi.New(oddsapi.Config{
		BaseURL:    a.cfg.OddsAPI.BaseURL,
		APIKey:     key,
		Regions:    a.cfg.OddsAPI.Regions,
		WindowDays: a.cfg.OddsAPI.WindowDays,
		Timeout:    a.cfg.OddsAPI.Timeout.Duration,
		RateLimit:  a.cfg.OddsAPI.RateLimit,
		RateWindow: a.cfg.OddsAPI.RateWindow.Duration,
	}, deps.RateLimiter, deps.QuotaCache, a.logger)

	predClient := predictiontracker.New(predictiontracker.Config{
		Sources: a.cfg.Predictions.Sources,
		Timeout: a.cfg.Predictions.Timeout.Duration,
	}, a.logger)

	eng := engine.New(engine.Default(), a.logger)

	evalSvc := service.NewEvaluationService(
		eng,
		deps.OddsCache,
		deps.PredictionCache,
		deps.EvaluationStore,
		deps.RecommendationStore,
		deps.ArbStore,
		deps.SignalBus,
		deps.AuditStore,
		a.engineConfig(),
		service.Gates{MinEdge: a.cfg.Alerts.MinEdge, MinProfit: a.cfg.Alerts.MinProfit},
		a.logger,
	)
	if len(a.cfg.Engine.SigmaBySport) > 0 {
		evalSvc = evalSvc.WithSigmaOverrides(a.cfg.Engine.SigmaBySport)
	}
	if a.cfg.Export.Enabled {
		var uploader domain.BlobWriter
		if a.cfg.Export.Upload {
			uploader = deps.BlobWriter
		}
		evalSvc = evalSvc.WithExporter(export.New(a.cfg.Export.Dir, uploader, a.logger))
	}

	return &services{
		odds: service.NewOddsService(
			oddsClient, deps.OddsCache, deps.QuotaCache, deps.LockManager,
			deps.SignalBus, deps.AuditStore, a.logger,
		),
		preds: service.NewPredictionService(
			predClient, deps.PredictionCache, deps.SignalBus, deps.AuditStore, a.logger,
		),
		results: service.NewResultsService(
			oddsClient, deps.ResultStore, deps.SignalBus, deps.AuditStore,
			a.cfg.OddsAPI.ScoresDaysFrom, a.logger,
		),
		eval: evalSvc,
		settle: service.NewSettlementService(
			deps.RecommendationStore, deps.ResultStore, deps.SettlementStore,
			deps.AuditStore, a.logger,
		),
	}, nil
}

// EvaluateMode performs one sync and engine pass per configured sport and
// prints the results to stdout.
func (a *App) EvaluateMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting evaluate mode")

	svcs, err := a.buildServices(deps)
	if err != nil {
		return fmt.Errorf("evaluate mode: %w", err)
	}

	for _, sport := range a.cfg.Sports.Keys {
		if _, err := svcs.odds.Sync(ctx, sport); err != nil {
			a.logger.ErrorContext(ctx, "odds sync failed",
				slog.String("sport", sport),
				slog.String("error", err.Error()),
			)
			continue
		}
		if _, err := svcs.preds.Sync(ctx, sport); err != nil {
			a.logger.WarnContext(ctx, "prediction sync failed; model edges unavailable",
				slog.String("sport", sport),
				slog.String("error", err.Error()),
			)
		}

		run, result, err := svcs.eval.Run(ctx, sport)
		if err != nil {
			a.logger.ErrorContext(ctx, "evaluation failed",
				slog.String("sport", sport),
				slog.String("error", err.Error()),
			)
			continue
		}
		printEvaluation(os.Stdout, run, result)
	}
	return nil
}

// ScrapeMode runs the sync loops only: odds, predictions, results, and
// archival when enabled. Nothing is evaluated.
func (a *App) ScrapeMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting scrape mode")

	svcs, err := a.buildServices(deps)
	if err != nil {
		return fmt.Errorf("scrape mode: %w", err)
	}

	g, ctx := errgroup.WithContext(ctx)

	if !a.cfg.Pipeline.Enabled {
		a.logger.WarnContext(ctx, "pipeline.enabled is false, but scrape mode always runs the sync loops")
	}

	orch := pipeline.NewOrchestrator(pipeline.Deps{
		Odds:        svcs.odds,
		Predictions: svcs.preds,
		Results:     svcs.results,
		Archiver:    deps.Archiver,
	}, a.pipelineConfig(), a.logger)
	g.Go(func() error {
		return orch.Run(ctx)
	})

	return a.wait(g, deps, "scrape mode")
}

// ArbitrageMode syncs odds and rescans every refreshed snapshot for
// cross-bookmaker arbitrage. Predictions are not fetched and no engine
// pass runs; detection needs no model.
func (a *App) ArbitrageMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting arbitrage mode")

	svcs, err := a.buildServices(deps)
	if err != nil {
		return fmt.Errorf("arbitrage mode: %w", err)
	}

	g, ctx := errgroup.WithContext(ctx)

	orch := pipeline.NewOrchestrator(pipeline.Deps{
		Odds: svcs.odds,
	}, a.pipelineConfig(), a.logger)
	g.Go(func() error {
		return orch.Run(ctx)
	})

	scanner := arbitrage.NewScanner(arbitrage.ScannerConfig{
		OddsCache: deps.OddsCache,
		Recorder:  svcs.eval,
		Logger:    a.logger,
	})
	g.Go(func() error {
		return scanner.Run(ctx, deps.SignalBus)
	})

	if a.cfg.Alerts.Enabled {
		arbNotifier := notify.NewNotifier(deps.Senders, []string{notify.EventArb}, a.logger)
		worker := alert.NewWorker(deps.SignalBus, arbNotifier, deps.AuditStore, a.alertConfig(), a.logger)
		g.Go(func() error {
			return worker.Run(ctx)
		})
	}

	if a.cfg.Server.Enabled {
		a.startHTTPServer(ctx, g, deps, svcs, nil)
	}

	return a.wait(g, deps, "arbitrage mode")
}

// SettleMode performs one results sync and settlement pass per sport, then
// prints the aggregate performance summary.
func (a *App) SettleMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting settle mode")

	svcs, err := a.buildServices(deps)
	if err != nil {
		return fmt.Errorf("settle mode: %w", err)
	}

	for _, sport := range a.cfg.Sports.Keys {
		if _, err := svcs.results.Sync(ctx, sport); err != nil {
			a.logger.ErrorContext(ctx, "results sync failed",
				slog.String("sport", sport),
				slog.String("error", err.Error()),
			)
			continue
		}
		if _, err := svcs.settle.Settle(ctx, sport); err != nil {
			a.logger.ErrorContext(ctx, "settlement failed",
				slog.String("sport", sport),
				slog.String("error", err.Error()),
			)
		}
	}

	summary, err := svcs.settle.Summary(ctx, "")
	if err != nil {
		return fmt.Errorf("settle mode: summary: %w", err)
	}
	printSummary(os.Stdout, summary)
	return nil
}

// ServeMode starts the HTTP and WebSocket API over stored data without any
// sync loops.
func (a *App) ServeMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting serve mode")

	svcs, err := a.buildServices(deps)
	if err != nil {
		return fmt.Errorf("serve mode: %w", err)
	}

	g, ctx := errgroup.WithContext(ctx)
	a.startHTTPServer(ctx, g, deps, svcs, nil)
	return a.wait(g, deps, "serve mode")
}

// FullMode starts every subsystem: sync loops, the evaluation runner,
// settlement, alerting, archival, and the HTTP/WebSocket API.
func (a *App) FullMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting full mode")

	svcs, err := a.buildServices(deps)
	if err != nil {
		return fmt.Errorf("full mode: %w", err)
	}

	g, ctx := errgroup.WithContext(ctx)

	if !a.cfg.Pipeline.Enabled {
		a.logger.WarnContext(ctx, "pipeline.enabled is false, but full mode always runs the sync loops")
	}

	evalCh := make(chan string, len(a.cfg.Sports.Keys)+1)
	runCh := make(chan struct{}, 1)
	trigger := feed.NewTrigger(deps.SignalBus, evalCh, 0, a.logger)

	orch := pipeline.NewOrchestrator(pipeline.Deps{
		Odds:        svcs.odds,
		Predictions: svcs.preds,
		Results:     svcs.results,
		Evaluator:   svcs.eval,
		Settler:     svcs.settle,
		Trigger:     trigger,
		Archiver:    deps.Archiver,
		EvalCh:      evalCh,
		RunCh:       runCh,
	}, a.pipelineConfig(), a.logger)
	g.Go(func() error {
		return orch.Run(ctx)
	})

	if a.cfg.Alerts.Enabled {
		worker := alert.NewWorker(deps.SignalBus, deps.Notifier, deps.AuditStore, a.alertConfig(), a.logger)
		g.Go(func() error {
			return worker.Run(ctx)
		})
	}

	if a.cfg.Server.Enabled {
		a.startHTTPServer(ctx, g, deps, svcs, runCh)
	}

	return a.wait(g, deps, "full mode")
}

// wait blocks on the errgroup and, when a subsystem died rather than shut
// down, sends one error alert on a fresh context before returning. The
// "error" event type lets operators filter these via notify.events.
func (a *App) wait(g *errgroup.Group, deps *Dependencies, component string) error {
	err := g.Wait()
	if err == nil || errors.Is(err, context.Canceled) || !a.cfg.Alerts.Enabled {
		return err
	}

	alertCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	title, message := notify.FormatError(component, err, time.Now().UTC())
	if nerr := deps.Notifier.Notify(alertCtx, notify.EventError, title, message); nerr != nil {
		a.logger.Error("error alert dispatch failed", slog.String("error", nerr.Error()))
	}
	return err
}

// startHTTPServer adds the API server and WebSocket hub goroutines to the
// given errgroup. runCh is optional; when non-nil, POST /api/pipeline/run
// sends on it to request one pipeline cycle.
func (a *App) startHTTPServer(
	ctx context.Context,
	g *errgroup.Group,
	deps *Dependencies,
	svcs *services,
	runCh chan<- struct{},
) {
	hub := ws.NewHub(deps.SignalBus, a.logger, ws.Config{
		Mode:      a.cfg.Mode,
		StartedAt: time.Now().UTC(),
	})
	g.Go(func() error {
		return hub.Run(ctx)
	})

	ph := handler.NewPipelineHandler(a.logger)
	if runCh != nil {
		ph = ph.WithTriggerChannel(runCh)
	}

	srv := server.NewServer(server.Config{
		Port:        a.cfg.Server.Port,
		CORSOrigins: a.cfg.Server.CORSOrigins,
		APIKey:      a.cfg.Server.APIKey,
		RateLimit:   a.cfg.Server.RateLimit,
		RateWindow:  a.cfg.Server.RateWindow.Duration,
	}, server.Handlers{
		Health:          handler.NewHealthHandler(),
		Status:          handler.NewStatusHandler(svcs.odds, svcs.preds, svcs.eval, a.cfg.Sports.Keys, a.logger),
		Recommendations: handler.NewRecommendationHandler(svcs.eval, a.logger),
		Arb:             handler.NewArbHandler(svcs.eval, a.logger),
		Runs:            handler.NewRunHandler(svcs.eval, a.logger),
		Summary:         handler.NewSummaryHandler(svcs.settle, a.logger),
		Pipeline:        ph,
	}, hub, deps.RateLimiter, a.logger)

	g.Go(func() error {
		return srv.Start()
	})

	g.Go(func() error {
		<-ctx.Done()
		shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutCtx)
	})
}

// printEvaluation renders one run's recommendations and arbitrage as
// console tables.
func printEvaluation(w io.Writer, run domain.EvaluationRun, result domain.EvaluationResult) {
	fmt.Fprintf(w, "\n%s  run %s\n", run.SportKey, run.ID)
	fmt.Fprintf(w, "odds records %d, prediction records %d, matched games %d\n",
		run.OddsRecords, run.PredictionRecords, run.MatchedGames)

	bets := result.Recommendations()
	if len(bets) > 0 {
		tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "MARKET\tTEAM\tBOOK\tODDS\tLINE\tMODEL\tIMPLIED\tEDGE\tEV")
		for _, b := range bets {
			line := "-"
			if b.Market == domain.MarketSpread {
				line = fmt.Sprintf("%+.1f", b.Line)
			}
			fmt.Fprintf(tw, "%s\t%s\t%s\t%+d\t%s\t%.1f%%\t%.1f%%\t%+.1f%%\t%+.3f\n",
				b.Market, b.Team(), b.Bookmaker, b.Odds, line,
				b.ModelProb*100, b.ImpliedProb*100, b.Edge*100, b.EV)
		}
		tw.Flush()
	}

	arbs := result.Opportunities()
	if len(arbs) > 0 {
		tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "MARKET\tGAME\tHOME LEG\tAWAY LEG\tPROFIT")
		for _, o := range arbs {
			fmt.Fprintf(tw, "%s\t%s at %s\t%s %+d\t%s %+d\t%.2f%%\n",
				o.Market, o.AwayTeam, o.HomeTeam,
				o.Home.Bookmaker, o.Home.Odds,
				o.Away.Bookmaker, o.Away.Odds,
				o.Profit*100)
		}
		tw.Flush()
	}

	if len(bets) == 0 && len(arbs) == 0 {
		fmt.Fprintln(w, "no opportunities")
	}
}

// printSummary renders the per-sport, per-market settled performance table.
func printSummary(w io.Writer, rows []domain.SettlementSummary) {
	if len(rows) == 0 {
		fmt.Fprintln(w, "no settled recommendations")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "SPORT\tMARKET\tSETTLED\tW-L-P\tNET UNITS\tROI")
	for _, r := range rows {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d-%d-%d\t%+.2f\t%+.1f%%\n",
			r.SportKey, r.Market, r.Settled, r.Wins, r.Losses, r.Pushes,
			r.NetUnits, r.ROI*100)
	}
	tw.Flush()
}
