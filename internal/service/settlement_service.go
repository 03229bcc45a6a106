package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/dmeltzer/linesight/internal/domain"
	"github.com/dmeltzer/linesight/internal/oddsmath"
)

// SettlementService resolves recommendations against final scores.
type SettlementService struct {
	recs        domain.RecommendationStore
	results     domain.ResultStore
	settlements domain.SettlementStore
	audit       domain.AuditStore
	logger      *slog.Logger
}

// NewSettlementService creates a SettlementService with all required
// dependencies.
func NewSettlementService(
	recs domain.RecommendationStore,
	results domain.ResultStore,
	settlements domain.SettlementStore,
	audit domain.AuditStore,
	logger *slog.Logger,
) *SettlementService {
	return &SettlementService{
		recs:        recs,
		results:     results,
		settlements: settlements,
		audit:       audit,
		logger:      logger,
	}
}

// Settle resolves every unsettled recommendation whose game has a
// completed result, records the outcome, and marks the recommendation.
// Recommendations whose games are missing or unfinished stay unsettled
// for the next pass. Returns the number settled.
func (s *SettlementService) Settle(ctx context.Context, sportKey string) (int, error) {
	unsettled, err := s.recs.ListUnsettled(ctx, sportKey)
	if err != nil {
		return 0, fmt.Errorf("settlement_service: list unsettled for %q: %w", sportKey, err)
	}

	settled := 0
	for _, rec := range unsettled {
		res, err := s.results.GetForGame(ctx, rec.SportKey, rec.HomeTeam, rec.AwayTeam)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				continue
			}
			return settled, fmt.Errorf("settlement_service: result for %s vs %s: %w", rec.HomeTeam, rec.AwayTeam, err)
		}
		if !res.Completed {
			continue
		}

		outcome, profit, err := settleOutcome(rec, res)
		if err != nil {
			s.logger.WarnContext(ctx, "settlement_service: recommendation unsettleable",
				slog.String("id", rec.ID),
				slog.String("error", err.Error()),
			)
			continue
		}

		settlement := domain.Settlement{
			ID:               uuid.New().String(),
			RecommendationID: rec.ID,
			SportKey:         rec.SportKey,
			Market:           rec.Market,
			Outcome:          outcome,
			ProfitUnits:      profit,
			HomeScore:        res.HomeScore,
			AwayScore:        res.AwayScore,
			SettledAt:        time.Now().UTC(),
		}
		if err := s.settlements.Insert(ctx, settlement); err != nil {
			if !errors.Is(err, domain.ErrAlreadyExists) {
				return settled, fmt.Errorf("settlement_service: insert settlement for %q: %w", rec.ID, err)
			}
			// A prior pass wrote the settlement but crashed before the
			// mark below; fall through and heal.
		}
		if err := s.recs.MarkSettled(ctx, rec.ID); err != nil {
			s.logger.WarnContext(ctx, "settlement_service: mark settled failed",
				slog.String("id", rec.ID),
				slog.String("error", err.Error()),
			)
			continue
		}
		settled++

		s.logger.DebugContext(ctx, "settlement_service: recommendation settled",
			slog.String("id", rec.ID),
			slog.String("outcome", string(outcome)),
			slog.Float64("profit_units", profit),
		)
	}

	if settled > 0 {
		if auditErr := s.audit.Log(ctx, "settlement.batch", map[string]any{
			"sport":   sportKey,
			"settled": settled,
		}); auditErr != nil {
			s.logger.WarnContext(ctx, "settlement_service: audit log failed",
				slog.String("error", auditErr.Error()),
			)
		}
	}

	s.logger.InfoContext(ctx, "settlement_service: pass complete",
		slog.String("sport", sportKey),
		slog.Int("unsettled", len(unsettled)),
		slog.Int("settled", settled),
	)
	return settled, nil
}

// settleOutcome grades one recommendation against a final score.
// Moneyline follows the winner, tie refunds. A spread bet wins when
// the bet team's margin plus its posted line clears zero, with a push
// on exact equality. Profit is per unit stake: the payout multiplier
// on a win, -1 on a loss, 0 on a push.
func settleOutcome(rec domain.BetRecommendation, res domain.GameResult) (domain.BetOutcome, float64, error) {
	margin := float64(res.HomeMargin())
	if rec.Side == domain.SideAway {
		margin = -margin
	}

	var cover float64
	switch rec.Market {
	case domain.MarketMoneyline:
		cover = margin
	case domain.MarketSpread:
		cover = margin + rec.Line
	default:
		return "", 0, fmt.Errorf("unknown market %q: %w", rec.Market, domain.ErrInvalidInput)
	}

	switch {
	case cover > 0:
		payout, err := oddsmath.PayoutMultiplier(rec.Odds)
		if err != nil {
			return "", 0, err
		}
		return domain.OutcomeWon, payout, nil
	case cover < 0:
		return domain.OutcomeLost, -1, nil
	default:
		return domain.OutcomePush, 0, nil
	}
}

// Summary aggregates settled outcomes per sport and market. An empty
// sportKey covers everything.
func (s *SettlementService) Summary(ctx context.Context, sportKey string) ([]domain.SettlementSummary, error) {
	summary, err := s.settlements.Summary(ctx, sportKey)
	if err != nil {
		return nil, fmt.Errorf("settlement_service: summary: %w", err)
	}
	return summary, nil
}

// ListRecent returns settled outcomes, newest first.
func (s *SettlementService) ListRecent(ctx context.Context, opts domain.ListOpts) ([]domain.Settlement, error) {
	settlements, err := s.settlements.ListRecent(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("settlement_service: list: %w", err)
	}
	return settlements, nil
}
