package arbitrage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/dmeltzer/linesight/internal/domain"
)

// Recorder persists and publishes opportunities the scan surfaces.
type Recorder interface {
	RecordArbs(ctx context.Context, opps []domain.ArbitrageOpportunity) error
}

// Scanner reruns the arbitrage scan whenever a fresh odds snapshot is
// announced on the signal bus.
type Scanner struct {
	oddsCache domain.OddsCache
	recorder  Recorder
	minProfit float64
	logger    *slog.Logger
}

// ScannerConfig configures the scanner.
type ScannerConfig struct {
	OddsCache domain.OddsCache
	Recorder  Recorder
	MinProfit float64
	Logger    *slog.Logger
}

// NewScanner creates a scanner over the latest cached odds.
func NewScanner(cfg ScannerConfig) *Scanner {
	return &Scanner{
		oddsCache: cfg.OddsCache,
		recorder:  cfg.Recorder,
		minProfit: cfg.MinProfit,
		logger:    cfg.Logger.With(slog.String("component", "arb_scanner")),
	}
}

// Run subscribes to odds refresh events and blocks until ctx ends.
func (s *Scanner) Run(ctx context.Context, bus domain.SignalBus) error {
	ch, err := bus.Subscribe(ctx, domain.ChannelOdds)
	if err != nil {
		return fmt.Errorf("arb scanner: subscribe odds: %w", err)
	}
	s.logger.Info("arb scanner started")
	defer s.logger.Info("arb scanner stopped")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case data, ok := <-ch:
			if !ok {
				return nil
			}
			if err := s.handleMessage(ctx, data); err != nil {
				s.logger.Warn("arb scanner: handle message failed",
					slog.String("error", err.Error()),
				)
			}
		}
	}
}

func (s *Scanner) handleMessage(ctx context.Context, data []byte) error {
	var ev domain.SyncEvent
	if err := json.Unmarshal(data, &ev); err != nil {
		return err
	}
	if ev.SportKey == "" {
		return nil
	}
	return s.Scan(ctx, ev.SportKey)
}

// Scan loads the latest snapshot for the sport and records every
// opportunity clearing the profit gate.
func (s *Scanner) Scan(ctx context.Context, sportKey string) error {
	records, _, err := s.oddsCache.GetSnapshot(ctx, sportKey)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("arb scanner: load snapshot: %w", err)
	}

	var found []domain.ArbitrageOpportunity
	for _, rec := range records {
		for _, market := range []domain.MarketKind{domain.MarketMoneyline, domain.MarketSpread} {
			opp, _ := FindArbitrage(rec, market)
			if opp == nil {
				continue
			}
			if opp.Profit < s.minProfit {
				s.logger.DebugContext(ctx, "opportunity below profit gate",
					slog.String("game", rec.Key()),
					slog.String("market", string(market)),
					slog.Float64("profit", opp.Profit),
				)
				continue
			}
			found = append(found, *opp)
		}
	}
	if len(found) == 0 {
		return nil
	}
	s.logger.InfoContext(ctx, "arbitrage found",
		slog.String("sport", sportKey),
		slog.Int("count", len(found)),
	)
	if err := s.recorder.RecordArbs(ctx, found); err != nil {
		return fmt.Errorf("arb scanner: record: %w", err)
	}
	return nil
}
