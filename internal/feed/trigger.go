// Package feed turns snapshot refresh events into evaluation triggers.
package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/dmeltzer/linesight/internal/domain"
)

const defaultDebounce = 2 * time.Second

// Trigger subscribes to the data.odds and data.predictions bus channels
// and nudges the evaluation runner once per refreshed sport. Events are
// debounced so an odds fetch followed by a prediction fetch produces a
// single run, and the nudge is a non-blocking send: a busy runner picks
// up the freshest snapshots on its next pass anyway.
type Trigger struct {
	bus      domain.SignalBus
	out      chan<- string
	debounce time.Duration
	logger   *slog.Logger
}

// NewTrigger creates a Trigger that sends refreshed sport keys to out.
// A zero debounce defaults to two seconds.
func NewTrigger(bus domain.SignalBus, out chan<- string, debounce time.Duration, logger *slog.Logger) *Trigger {
	if debounce <= 0 {
		debounce = defaultDebounce
	}
	return &Trigger{
		bus:      bus,
		out:      out,
		debounce: debounce,
		logger:   logger.With(slog.String("component", "feed")),
	}
}

// Run processes refresh events until the context is cancelled or the
// bus closes the subscriptions.
func (t *Trigger) Run(ctx context.Context) error {
	odds, err := t.bus.Subscribe(ctx, domain.ChannelOdds)
	if err != nil {
		return fmt.Errorf("feed: subscribe %s: %w", domain.ChannelOdds, err)
	}
	preds, err := t.bus.Subscribe(ctx, domain.ChannelPredictions)
	if err != nil {
		return fmt.Errorf("feed: subscribe %s: %w", domain.ChannelPredictions, err)
	}

	t.logger.Info("evaluation trigger started")
	defer t.logger.Info("evaluation trigger stopped")

	timer := time.NewTimer(t.debounce)
	if !timer.Stop() {
		<-timer.C
	}
	pending := make(map[string]struct{})

	collect := func(payload []byte) {
		var ev domain.SyncEvent
		if err := json.Unmarshal(payload, &ev); err != nil {
			t.logger.Debug("bad sync event", slog.String("error", err.Error()))
			return
		}
		if ev.SportKey == "" {
			return
		}
		pending[ev.SportKey] = struct{}{}
		timer.Reset(t.debounce)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case payload, ok := <-odds:
			if !ok {
				return nil
			}
			collect(payload)

		case payload, ok := <-preds:
			if !ok {
				return nil
			}
			collect(payload)

		case <-timer.C:
			for sport := range pending {
				select {
				case t.out <- sport:
					t.logger.Debug("evaluation nudged", slog.String("sport", sport))
				default:
					t.logger.Debug("evaluation runner busy, nudge dropped", slog.String("sport", sport))
				}
				delete(pending, sport)
			}
		}
	}
}
