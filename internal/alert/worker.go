// Package alert turns opportunity events from the signal bus into
// notifications, suppressing repeats of the same opportunity within a
// TTL window.
package alert

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/dmeltzer/linesight/internal/domain"
	"github.com/dmeltzer/linesight/internal/notify"
)

// Config tunes alert filtering and suppression.
type Config struct {
	MinEdge   float64 // bet alerts below this edge are dropped
	MinProfit float64 // arb alerts below this profit are dropped
	DedupTTL  time.Duration
}

// Worker consumes opportunity events, filters and deduplicates them,
// and dispatches the survivors to the notifier. Each send is recorded
// in the audit log; suppressed duplicates are only counted.
type Worker struct {
	bus      domain.SignalBus
	notifier *notify.Notifier
	audit    domain.AuditStore
	dedup    *dedup
	cfg      Config
	logger   *slog.Logger

	cleanupInterval time.Duration
	suppressed      int64
}

// NewWorker creates an alert worker. A zero DedupTTL defaults to ten
// minutes.
func NewWorker(bus domain.SignalBus, notifier *notify.Notifier, audit domain.AuditStore, cfg Config, logger *slog.Logger) *Worker {
	if cfg.DedupTTL <= 0 {
		cfg.DedupTTL = 10 * time.Minute
	}
	return &Worker{
		bus:             bus,
		notifier:        notifier,
		audit:           audit,
		dedup:           newDedup(cfg.DedupTTL),
		cfg:             cfg,
		logger:          logger.With(slog.String("component", "alert")),
		cleanupInterval: time.Minute,
	}
}

// Run subscribes to the opportunity channels and processes events until
// the context is cancelled or the bus closes the subscriptions.
func (w *Worker) Run(ctx context.Context) error {
	bets, err := w.bus.Subscribe(ctx, domain.ChannelBets)
	if err != nil {
		return fmt.Errorf("alert: subscribe %s: %w", domain.ChannelBets, err)
	}
	arbs, err := w.bus.Subscribe(ctx, domain.ChannelArbs)
	if err != nil {
		return fmt.Errorf("alert: subscribe %s: %w", domain.ChannelArbs, err)
	}

	w.logger.Info("alert worker started")
	defer w.logger.Info("alert worker stopped")

	cleanup := time.NewTicker(w.cleanupInterval)
	defer cleanup.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case payload, ok := <-bets:
			if !ok {
				return nil
			}
			w.handleBet(ctx, payload)

		case payload, ok := <-arbs:
			if !ok {
				return nil
			}
			w.handleArb(ctx, payload)

		case <-cleanup.C:
			w.dedup.Cleanup()
			if w.suppressed > 0 {
				w.logger.Debug("duplicate alerts suppressed", slog.Int64("count", w.suppressed))
				w.suppressed = 0
			}
		}
	}
}

func (w *Worker) handleBet(ctx context.Context, payload []byte) {
	var rec domain.BetRecommendation
	if err := json.Unmarshal(payload, &rec); err != nil {
		w.logger.Warn("bad bet payload", slog.String("error", err.Error()))
		return
	}
	if rec.Edge < w.cfg.MinEdge {
		return
	}
	if w.dedup.Suppress(rec.DedupKey()) {
		w.suppressed++
		return
	}

	title, message := notify.FormatBet(rec)
	if err := w.notifier.Notify(ctx, notify.EventBet, title, message); err != nil {
		w.logger.Error("bet alert dispatch failed",
			slog.String("id", rec.ID),
			slog.String("error", err.Error()),
		)
		return
	}
	w.logAlert(ctx, "alert.bet", map[string]any{
		"id":        rec.ID,
		"market":    string(rec.Market),
		"team":      rec.Team(),
		"bookmaker": rec.Bookmaker,
		"edge":      rec.Edge,
	})
}

func (w *Worker) handleArb(ctx context.Context, payload []byte) {
	var opp domain.ArbitrageOpportunity
	if err := json.Unmarshal(payload, &opp); err != nil {
		w.logger.Warn("bad arb payload", slog.String("error", err.Error()))
		return
	}
	if opp.Profit < w.cfg.MinProfit {
		return
	}
	if w.dedup.Suppress(opp.DedupKey()) {
		w.suppressed++
		return
	}

	title, message := notify.FormatArb(opp)
	if err := w.notifier.Notify(ctx, notify.EventArb, title, message); err != nil {
		w.logger.Error("arb alert dispatch failed",
			slog.String("id", opp.ID),
			slog.String("error", err.Error()),
		)
		return
	}
	w.logAlert(ctx, "alert.arb", map[string]any{
		"id":             opp.ID,
		"market":         string(opp.Market),
		"home_bookmaker": opp.Home.Bookmaker,
		"away_bookmaker": opp.Away.Bookmaker,
		"profit":         opp.Profit,
	})
}

func (w *Worker) logAlert(ctx context.Context, event string, detail map[string]any) {
	if w.audit == nil {
		return
	}
	if err := w.audit.Log(ctx, event, detail); err != nil {
		w.logger.Warn("audit write failed",
			slog.String("event", event),
			slog.String("error", err.Error()),
		)
	}
}
