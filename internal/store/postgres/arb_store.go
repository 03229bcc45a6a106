package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dmeltzer/linesight/internal/domain"
)

// ArbStore implements domain.ArbStore using PostgreSQL.
type ArbStore struct {
	pool *pgxpool.Pool
}

// NewArbStore creates an ArbStore backed by the given pool.
func NewArbStore(pool *pgxpool.Pool) *ArbStore {
	return &ArbStore{pool: pool}
}

const arbCols = `id, COALESCE(run_id, ''), sport_key, home_team, away_team, commence_time, market,
	home_bookmaker, home_odds, home_line, home_implied, home_stake,
	away_bookmaker, away_odds, away_line, away_implied, away_stake,
	profit, detected_at`

// InsertBatch stores opportunities using a pgx batch. Re-inserting an
// existing ID is a no-op. An empty RunID is stored as NULL; scanner
// hits carry no parent run.
func (s *ArbStore) InsertBatch(ctx context.Context, opps []domain.ArbitrageOpportunity) error {
	if len(opps) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	const query = `
		INSERT INTO arb_history (
			id, run_id, sport_key, home_team, away_team, commence_time, market,
			home_bookmaker, home_odds, home_line, home_implied, home_stake,
			away_bookmaker, away_odds, away_line, away_implied, away_stake,
			profit, detected_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7,
			$8, $9, $10, $11, $12,
			$13, $14, $15, $16, $17,
			$18, $19
		) ON CONFLICT (id) DO NOTHING`

	for _, opp := range opps {
		var runID *string
		if opp.RunID != "" {
			runID = &opp.RunID
		}
		batch.Queue(query,
			opp.ID, runID, opp.SportKey, opp.HomeTeam, opp.AwayTeam, opp.CommenceTime, opp.Market,
			opp.Home.Bookmaker, opp.Home.Odds, opp.Home.Line, opp.Home.ImpliedProb, opp.Home.Stake,
			opp.Away.Bookmaker, opp.Away.Odds, opp.Away.Line, opp.Away.ImpliedProb, opp.Away.Stake,
			opp.Profit, opp.DetectedAt,
		)
	}

	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	for i := range opps {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("postgres: insert arb batch item %d: %w", i, err)
		}
	}
	return nil
}

// ListRecent returns opportunities for one market ordered by detection
// time descending.
func (s *ArbStore) ListRecent(ctx context.Context, market domain.MarketKind, opts domain.ListOpts) ([]domain.ArbitrageOpportunity, error) {
	query := `SELECT ` + arbCols + ` FROM arb_history WHERE 1=1`
	args := []any{}
	argIdx := 1

	if market != "" {
		query += fmt.Sprintf(" AND market = $%d", argIdx)
		args = append(args, market)
		argIdx++
	}
	if opts.SportKey != "" {
		query += fmt.Sprintf(" AND sport_key = $%d", argIdx)
		args = append(args, opts.SportKey)
		argIdx++
	}
	if opts.Since != nil {
		query += fmt.Sprintf(" AND detected_at >= $%d", argIdx)
		args = append(args, *opts.Since)
		argIdx++
	}
	if opts.Until != nil {
		query += fmt.Sprintf(" AND detected_at <= $%d", argIdx)
		args = append(args, *opts.Until)
		argIdx++
	}

	query += " ORDER BY detected_at DESC, profit DESC"

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
		return nil, fmt.Errorf("postgres: list recent arbs: %w", err)
	}
	defer rows.Close()

	var opps []domain.ArbitrageOpportunity
	for rows.Next() {
		var opp domain.ArbitrageOpportunity
		if err := rows.Scan(
			&opp.ID, &opp.RunID, &opp.SportKey, &opp.HomeTeam, &opp.AwayTeam, &opp.CommenceTime, &opp.Market,
			&opp.Home.Bookmaker, &opp.Home.Odds, &opp.Home.Line, &opp.Home.ImpliedProb, &opp.Home.Stake,
			&opp.Away.Bookmaker, &opp.Away.Odds, &opp.Away.Line, &opp.Away.ImpliedProb, &opp.Away.Stake,
			&opp.Profit, &opp.DetectedAt,
		); err != nil {
			return nil, fmt.Errorf("postgres: scan arb: %w", err)
		}
		opp.Home.Side = domain.SideHome
		opp.Away.Side = domain.SideAway
		opps = append(opps, opp)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: list recent arbs rows: %w", err)
	}
	return opps, nil
}

// ListBefore returns opportunities detected strictly before the
// cutoff, oldest first. The archiver uses it.
func (s *ArbStore) ListBefore(ctx context.Context, before time.Time) ([]domain.ArbitrageOpportunity, error) {
	query := `SELECT ` + arbCols + `
		FROM arb_history
		WHERE detected_at < $1
		ORDER BY detected_at ASC, id ASC`

	rows, err := s.pool.Query(ctx, query, before)
	if err != nil {
		return nil, fmt.Errorf("postgres: list arbs before: %w", err)
	}
	defer rows.Close()

	var opps []domain.ArbitrageOpportunity
	for rows.Next() {
		var opp domain.ArbitrageOpportunity
		if err := rows.Scan(
			&opp.ID, &opp.RunID, &opp.SportKey, &opp.HomeTeam, &opp.AwayTeam, &opp.CommenceTime, &opp.Market,
			&opp.Home.Bookmaker, &opp.Home.Odds, &opp.Home.Line, &opp.Home.ImpliedProb, &opp.Home.Stake,
			&opp.Away.Bookmaker, &opp.Away.Odds, &opp.Away.Line, &opp.Away.ImpliedProb, &opp.Away.Stake,
			&opp.Profit, &opp.DetectedAt,
		); err != nil {
			return nil, fmt.Errorf("postgres: scan arb: %w", err)
		}
		opp.Home.Side = domain.SideHome
		opp.Away.Side = domain.SideAway
		opps = append(opps, opp)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: list arbs before rows: %w", err)
	}
	return opps, nil
}

// DeleteBefore removes opportunities detected strictly before the
// cutoff and reports how many rows went away.
func (s *ArbStore) DeleteBefore(ctx context.Context, before time.Time) (int64, error) {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM arb_history WHERE detected_at < $1`, before)
	if err != nil {
		return 0, fmt.Errorf("postgres: delete arbs before %s: %w", before.Format(time.RFC3339), err)
	}
	return tag.RowsAffected(), nil
}

// Compile-time interface check.
var _ domain.ArbStore = (*ArbStore)(nil)
