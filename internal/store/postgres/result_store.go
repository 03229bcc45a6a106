package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dmeltzer/linesight/internal/domain"
)

// ResultStore implements domain.ResultStore using PostgreSQL. Results
// are keyed by sport, teams, and commence time so season rematches
// stay distinct.
type ResultStore struct {
	pool *pgxpool.Pool
}

// NewResultStore creates a ResultStore backed by the given pool.
func NewResultStore(pool *pgxpool.Pool) *ResultStore {
	return &ResultStore{pool: pool}
}

const resultCols = `sport_key, home_team, away_team, home_score, away_score,
	completed, commence_time, updated_at`

// UpsertBatch inserts or refreshes results using a pgx batch. The
// scores source re-reports games until final, so conflicts update in
// place.
func (s *ResultStore) UpsertBatch(ctx context.Context, results []domain.GameResult) error {
	if len(results) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	const query = `
		INSERT INTO game_results (
			sport_key, home_team, away_team, home_score, away_score,
			completed, commence_time, updated_at
		) VALUES (
			$1, $2, $3, $4, $5,
			$6, $7, $8
		) ON CONFLICT (sport_key, home_team, away_team, commence_time) DO UPDATE SET
			home_score = EXCLUDED.home_score,
			away_score = EXCLUDED.away_score,
			completed  = EXCLUDED.completed,
			updated_at = EXCLUDED.updated_at`

	for _, r := range results {
		batch.Queue(query,
			r.SportKey, r.HomeTeam, r.AwayTeam, r.HomeScore, r.AwayScore,
			r.Completed, r.CommenceTime, r.UpdatedAt,
		)
	}

	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	for i := range results {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("postgres: upsert result batch item %d: %w", i, err)
		}
	}
	return nil
}

// GetForGame returns the most recent result row for a matchup, or
// domain.ErrNotFound.
func (s *ResultStore) GetForGame(ctx context.Context, sportKey, homeTeam, awayTeam string) (domain.GameResult, error) {
	query := `SELECT ` + resultCols + `
		FROM game_results
		WHERE sport_key = $1 AND home_team = $2 AND away_team = $3
		ORDER BY commence_time DESC
		LIMIT 1`

	var r domain.GameResult
	err := s.pool.QueryRow(ctx, query, sportKey, homeTeam, awayTeam).Scan(
		&r.SportKey, &r.HomeTeam, &r.AwayTeam, &r.HomeScore, &r.AwayScore,
		&r.Completed, &r.CommenceTime, &r.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.GameResult{}, domain.ErrNotFound
		}
		return domain.GameResult{}, fmt.Errorf("postgres: get result %s/%s vs %s: %w", sportKey, homeTeam, awayTeam, err)
	}
	return r, nil
}

// ListCompleted returns completed results for one sport ordered by
// commence time descending.
func (s *ResultStore) ListCompleted(ctx context.Context, sportKey string, opts domain.ListOpts) ([]domain.GameResult, error) {
	query := `SELECT ` + resultCols + ` FROM game_results WHERE sport_key = $1 AND completed`
	args := []any{sportKey}
	argIdx := 2

	if opts.Since != nil {
		query += fmt.Sprintf(" AND commence_time >= $%d", argIdx)
		args = append(args, *opts.Since)
		argIdx++
	}
	if opts.Until != nil {
		query += fmt.Sprintf(" AND commence_time <= $%d", argIdx)
		args = append(args, *opts.Until)
		argIdx++
	}

	query += " ORDER BY commence_time DESC"

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
		return nil, fmt.Errorf("postgres: list completed results: %w", err)
	}
	defer rows.Close()

	var results []domain.GameResult
	for rows.Next() {
		var r domain.GameResult
		if err := rows.Scan(
			&r.SportKey, &r.HomeTeam, &r.AwayTeam, &r.HomeScore, &r.AwayScore,
			&r.Completed, &r.CommenceTime, &r.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("postgres: scan result: %w", err)
		}
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: list completed results rows: %w", err)
	}
	return results, nil
}

// Compile-time interface check.
var _ domain.ResultStore = (*ResultStore)(nil)
