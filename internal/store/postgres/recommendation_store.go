package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dmeltzer/linesight/internal/domain"
)

// RecommendationStore implements domain.RecommendationStore using PostgreSQL.
type RecommendationStore struct {
	pool *pgxpool.Pool
}

// NewRecommendationStore creates a RecommendationStore backed by the given pool.
func NewRecommendationStore(pool *pgxpool.Pool) *RecommendationStore {
	return &RecommendationStore{pool: pool}
}

const recommendationCols = `id, run_id, sport_key, home_team, away_team, commence_time,
	market, side, bookmaker, odds, line,
	implied_prob, model_prob, edge, ev, created_at, settled`

func scanRecommendation(row pgx.Row) (domain.BetRecommendation, error) {
	var rec domain.BetRecommendation
	err := row.Scan(
		&rec.ID, &rec.RunID, &rec.SportKey, &rec.HomeTeam, &rec.AwayTeam, &rec.CommenceTime,
		&rec.Market, &rec.Side, &rec.Bookmaker, &rec.Odds, &rec.Line,
		&rec.ImpliedProb, &rec.ModelProb, &rec.Edge, &rec.EV, &rec.CreatedAt, &rec.Settled,
	)
	return rec, err
}

// InsertBatch stores recommendations using a pgx batch. Re-inserting an
// existing ID is a no-op.
func (s *RecommendationStore) InsertBatch(ctx context.Context, recs []domain.BetRecommendation) error {
	if len(recs) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	const query = `
		INSERT INTO recommendations (
			id, run_id, sport_key, home_team, away_team, commence_time,
			market, side, bookmaker, odds, line,
			implied_prob, model_prob, edge, ev, created_at, settled
		) VALUES (
			$1, $2, $3, $4, $5, $6,
			$7, $8, $9, $10, $11,
			$12, $13, $14, $15, $16, $17
		) ON CONFLICT (id) DO NOTHING`

	for _, rec := range recs {
		batch.Queue(query,
			rec.ID, rec.RunID, rec.SportKey, rec.HomeTeam, rec.AwayTeam, rec.CommenceTime,
			rec.Market, rec.Side, rec.Bookmaker, rec.Odds, rec.Line,
			rec.ImpliedProb, rec.ModelProb, rec.Edge, rec.EV, rec.CreatedAt, rec.Settled,
		)
	}

	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	for i := range recs {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("postgres: insert recommendation batch item %d: %w", i, err)
		}
	}
	return nil
}

// GetByID returns one recommendation, or domain.ErrNotFound.
func (s *RecommendationStore) GetByID(ctx context.Context, id string) (domain.BetRecommendation, error) {
	query := `SELECT ` + recommendationCols + ` FROM recommendations WHERE id = $1`

	rec, err := scanRecommendation(s.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.BetRecommendation{}, domain.ErrNotFound
		}
		return domain.BetRecommendation{}, fmt.Errorf("postgres: get recommendation %s: %w", id, err)
	}
	return rec, nil
}

// ListRecent returns recommendations for one market ordered by creation
// time descending, then EV descending within a run.
func (s *RecommendationStore) ListRecent(ctx context.Context, market domain.MarketKind, opts domain.ListOpts) ([]domain.BetRecommendation, error) {
	query := `SELECT ` + recommendationCols + ` FROM recommendations WHERE 1=1`
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
		query += fmt.Sprintf(" AND created_at >= $%d", argIdx)
		args = append(args, *opts.Since)
		argIdx++
	}
	if opts.Until != nil {
		query += fmt.Sprintf(" AND created_at <= $%d", argIdx)
		args = append(args, *opts.Until)
		argIdx++
	}

	query += " ORDER BY created_at DESC, ev DESC"

	if opts.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argIdx)
		args = append(args, opts.Limit)
		argIdx++
	}
	if opts.Offset > 0 {
		query += fmt.Sprintf(" OFFSET $%d", argIdx)
		args = append(args, opts.Offset)
	}

	return s.queryRecommendations(ctx, query, args...)
}

// ListUnsettled returns recommendations awaiting settlement for one
// sport, oldest games first.
func (s *RecommendationStore) ListUnsettled(ctx context.Context, sportKey string) ([]domain.BetRecommendation, error) {
	query := `SELECT ` + recommendationCols + `
		FROM recommendations
		WHERE sport_key = $1 AND NOT settled
		ORDER BY commence_time ASC, id ASC`

	return s.queryRecommendations(ctx, query, sportKey)
}

// MarkSettled flags one recommendation as settled. It returns
// domain.ErrNotFound when the ID does not exist.
func (s *RecommendationStore) MarkSettled(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE recommendations SET settled = TRUE WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("postgres: mark recommendation settled %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// ListBefore returns recommendations created strictly before the
// cutoff, oldest first. The archiver uses it.
func (s *RecommendationStore) ListBefore(ctx context.Context, before time.Time) ([]domain.BetRecommendation, error) {
	query := `SELECT ` + recommendationCols + `
		FROM recommendations
		WHERE created_at < $1
		ORDER BY created_at ASC, id ASC`

	return s.queryRecommendations(ctx, query, before)
}

// DeleteBefore removes recommendations created strictly before the
// cutoff and reports how many rows went away.
func (s *RecommendationStore) DeleteBefore(ctx context.Context, before time.Time) (int64, error) {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM recommendations WHERE created_at < $1`, before)
	if err != nil {
		return 0, fmt.Errorf("postgres: delete recommendations before %s: %w", before.Format(time.RFC3339), err)
	}
	return tag.RowsAffected(), nil
}

func (s *RecommendationStore) queryRecommendations(ctx context.Context, query string, args ...any) ([]domain.BetRecommendation, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres: query recommendations: %w", err)
	}
	defer rows.Close()

	var recs []domain.BetRecommendation
	for rows.Next() {
		rec, err := scanRecommendation(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres: scan recommendation: %w", err)
		}
		recs = append(recs, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: query recommendations rows: %w", err)
	}
	return recs, nil
}

// Compile-time interface check.
var _ domain.RecommendationStore = (*RecommendationStore)(nil)
