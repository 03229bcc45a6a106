package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dmeltzer/linesight/internal/domain"
)

// SettlementStore implements domain.SettlementStore using PostgreSQL.
type SettlementStore struct {
	pool *pgxpool.Pool
}

// NewSettlementStore creates a SettlementStore backed by the given pool.
func NewSettlementStore(pool *pgxpool.Pool) *SettlementStore {
	return &SettlementStore{pool: pool}
}

// Insert stores one settlement. A second settlement for the same
// recommendation is rejected by the unique constraint and surfaces as
// domain.ErrAlreadyExists.
func (s *SettlementStore) Insert(ctx context.Context, st domain.Settlement) error {
	const query = `
		INSERT INTO settlements (
			id, recommendation_id, sport_key, market, outcome,
			profit_units, home_score, away_score, settled_at
		) VALUES (
			$1, $2, $3, $4, $5,
			$6, $7, $8, $9
		) ON CONFLICT (recommendation_id) DO NOTHING`

	tag, err := s.pool.Exec(ctx, query,
		st.ID, st.RecommendationID, st.SportKey, st.Market, st.Outcome,
		st.ProfitUnits, st.HomeScore, st.AwayScore, st.SettledAt,
	)
	if err != nil {
		return fmt.Errorf("postgres: insert settlement %s: %w", st.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("postgres: settlement for recommendation %s: %w", st.RecommendationID, domain.ErrAlreadyExists)
	}
	return nil
}

// ListRecent returns settlements ordered by settle time descending.
func (s *SettlementStore) ListRecent(ctx context.Context, opts domain.ListOpts) ([]domain.Settlement, error) {
	query := `SELECT id, recommendation_id, sport_key, market, outcome,
		profit_units, home_score, away_score, settled_at
		FROM settlements WHERE 1=1`
	args := []any{}
	argIdx := 1

	if opts.SportKey != "" {
		query += fmt.Sprintf(" AND sport_key = $%d", argIdx)
		args = append(args, opts.SportKey)
		argIdx++
	}
	if opts.Since != nil {
		query += fmt.Sprintf(" AND settled_at >= $%d", argIdx)
		args = append(args, *opts.Since)
		argIdx++
	}
	if opts.Until != nil {
		query += fmt.Sprintf(" AND settled_at <= $%d", argIdx)
		args = append(args, *opts.Until)
		argIdx++
	}

	query += " ORDER BY settled_at DESC"

	if opts.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argIdx)
		args = append(args, opts.Limit)
		argIdx++
	}
	if opts.Offset > 0 {
		query += fmt.Sprintf(" OFFSET $%d", argIdx)
		args = append(args, opts.Offset)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres: list settlements: %w", err)
	}
	defer rows.Close()

	var settlements []domain.Settlement
	for rows.Next() {
		var st domain.Settlement
		if err := rows.Scan(
			&st.ID, &st.RecommendationID, &st.SportKey, &st.Market, &st.Outcome,
			&st.ProfitUnits, &st.HomeScore, &st.AwayScore, &st.SettledAt,
		); err != nil {
			return nil, fmt.Errorf("postgres: scan settlement: %w", err)
		}
		settlements = append(settlements, st)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: list settlements rows: %w", err)
	}
	return settlements, nil
}

// Summary aggregates settlements per sport and market. An empty
// sportKey covers every sport.
func (s *SettlementStore) Summary(ctx context.Context, sportKey string) ([]domain.SettlementSummary, error) {
	query := `
		SELECT sport_key, market,
			COUNT(*) AS settled,
			COUNT(*) FILTER (WHERE outcome = 'won') AS wins,
			COUNT(*) FILTER (WHERE outcome = 'lost') AS losses,
			COUNT(*) FILTER (WHERE outcome = 'push') AS pushes,
			COALESCE(SUM(profit_units), 0) AS net_units
		FROM settlements`
	args := []any{}

	if sportKey != "" {
		query += " WHERE sport_key = $1"
		args = append(args, sportKey)
	}
	query += " GROUP BY sport_key, market ORDER BY sport_key, market"

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres: settlement summary: %w", err)
	}
	defer rows.Close()

	var summaries []domain.SettlementSummary
	for rows.Next() {
		var sum domain.SettlementSummary
		if err := rows.Scan(
			&sum.SportKey, &sum.Market, &sum.Settled,
			&sum.Wins, &sum.Losses, &sum.Pushes, &sum.NetUnits,
		); err != nil {
			return nil, fmt.Errorf("postgres: scan settlement summary: %w", err)
		}
		if sum.Settled > 0 {
			sum.ROI = sum.NetUnits / float64(sum.Settled)
		}
		summaries = append(summaries, sum)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: settlement summary rows: %w", err)
	}
	return summaries, nil
}

// Compile-time interface check.
var _ domain.SettlementStore = (*SettlementStore)(nil)
