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

// EvaluationStore implements domain.EvaluationStore using PostgreSQL.
type EvaluationStore struct {
	pool *pgxpool.Pool
}

// NewEvaluationStore creates an EvaluationStore backed by the given pool.
func NewEvaluationStore(pool *pgxpool.Pool) *EvaluationStore {
	return &EvaluationStore{pool: pool}
}

const evaluationRunCols = `id, sport_key, started_at, finished_at,
	odds_records, prediction_records, matched_games,
	recommendations, opportunities, sigma, top_n, min_edge`

// Insert stores one engine run.
func (s *EvaluationStore) Insert(ctx context.Context, run domain.EvaluationRun) error {
	const query = `
		INSERT INTO evaluation_runs (
			id, sport_key, started_at, finished_at,
			odds_records, prediction_records, matched_games,
			recommendations, opportunities, sigma, top_n, min_edge
		) VALUES (
			$1, $2, $3, $4,
			$5, $6, $7,
			$8, $9, $10, $11, $12
		)`

	_, err := s.pool.Exec(ctx, query,
		run.ID, run.SportKey, run.StartedAt, run.FinishedAt,
		run.OddsRecords, run.PredictionRecords, run.MatchedGames,
		run.Recommendations, run.Opportunities, run.Sigma, run.TopN, run.MinEdge,
	)
	if err != nil {
		return fmt.Errorf("postgres: insert evaluation run %s: %w", run.ID, err)
	}
	return nil
}

// GetByID returns one run, or domain.ErrNotFound.
func (s *EvaluationStore) GetByID(ctx context.Context, id string) (domain.EvaluationRun, error) {
	query := `SELECT ` + evaluationRunCols + ` FROM evaluation_runs WHERE id = $1`

	var run domain.EvaluationRun
	err := s.pool.QueryRow(ctx, query, id).Scan(
		&run.ID, &run.SportKey, &run.StartedAt, &run.FinishedAt,
		&run.OddsRecords, &run.PredictionRecords, &run.MatchedGames,
		&run.Recommendations, &run.Opportunities, &run.Sigma, &run.TopN, &run.MinEdge,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.EvaluationRun{}, domain.ErrNotFound
		}
		return domain.EvaluationRun{}, fmt.Errorf("postgres: get evaluation run %s: %w", id, err)
	}
	return run, nil
}

// ListRecent returns runs ordered by start time descending.
func (s *EvaluationStore) ListRecent(ctx context.Context, opts domain.ListOpts) ([]domain.EvaluationRun, error) {
	query := `SELECT ` + evaluationRunCols + ` FROM evaluation_runs WHERE 1=1`
	args := []any{}
	argIdx := 1

	if opts.SportKey != "" {
		query += fmt.Sprintf(" AND sport_key = $%d", argIdx)
		args = append(args, opts.SportKey)
		argIdx++
	}
	if opts.Since != nil {
		query += fmt.Sprintf(" AND started_at >= $%d", argIdx)
		args = append(args, *opts.Since)
		argIdx++
	}
	if opts.Until != nil {
		query += fmt.Sprintf(" AND started_at <= $%d", argIdx)
		args = append(args, *opts.Until)
		argIdx++
	}

	query += " ORDER BY started_at DESC"

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
		return nil, fmt.Errorf("postgres: list evaluation runs: %w", err)
	}
	defer rows.Close()

	var runs []domain.EvaluationRun
	for rows.Next() {
		var run domain.EvaluationRun
		if err := rows.Scan(
			&run.ID, &run.SportKey, &run.StartedAt, &run.FinishedAt,
			&run.OddsRecords, &run.PredictionRecords, &run.MatchedGames,
			&run.Recommendations, &run.Opportunities, &run.Sigma, &run.TopN, &run.MinEdge,
		); err != nil {
			return nil, fmt.Errorf("postgres: scan evaluation run: %w", err)
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: list evaluation runs rows: %w", err)
	}
	return runs, nil
}

// ListBefore returns runs started strictly before the cutoff, oldest
// first. The archiver uses it.
func (s *EvaluationStore) ListBefore(ctx context.Context, before time.Time) ([]domain.EvaluationRun, error) {
	query := `SELECT ` + evaluationRunCols + `
		FROM evaluation_runs
		WHERE started_at < $1
		ORDER BY started_at ASC, id ASC`

	rows, err := s.pool.Query(ctx, query, before)
	if err != nil {
		return nil, fmt.Errorf("postgres: list evaluation runs before: %w", err)
	}
	defer rows.Close()

	var runs []domain.EvaluationRun
	for rows.Next() {
		var run domain.EvaluationRun
		if err := rows.Scan(
			&run.ID, &run.SportKey, &run.StartedAt, &run.FinishedAt,
			&run.OddsRecords, &run.PredictionRecords, &run.MatchedGames,
			&run.Recommendations, &run.Opportunities, &run.Sigma, &run.TopN, &run.MinEdge,
		); err != nil {
			return nil, fmt.Errorf("postgres: scan evaluation run: %w", err)
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: list evaluation runs before rows: %w", err)
	}
	return runs, nil
}

// DeleteBefore removes runs started strictly before the cutoff and
// reports how many rows went away. Child recommendations and arb rows
// cascade, so the archiver drains those tables first.
func (s *EvaluationStore) DeleteBefore(ctx context.Context, before time.Time) (int64, error) {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM evaluation_runs WHERE started_at < $1`, before)
	if err != nil {
		return 0, fmt.Errorf("postgres: delete evaluation runs before %s: %w", before.Format(time.RFC3339), err)
	}
	return tag.RowsAffected(), nil
}

// Compile-time interface check.
var _ domain.EvaluationStore = (*EvaluationStore)(nil)
