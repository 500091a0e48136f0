package postgresql

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"sems-converter/internal/entity"
)

type RunRepository struct {
	pool *pgxpool.Pool
}

func NewRunRepository(pool *pgxpool.Pool) *RunRepository {
	return &RunRepository{pool: pool}
}

func (r *RunRepository) Record(ctx context.Context, run entity.ConversionRun) error {
	const q = `
INSERT INTO conversion_runs (id, kind, output, status, error, duration_ms, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7);
`
	_, err := r.pool.Exec(ctx, q,
		run.ID,
		run.Kind,
		run.Output,
		string(run.Status),
		run.Error, // nil => NULL
		run.DurationMS,
		run.CreatedAt,
	)
	return err
}

// ListByKind returns the newest runs first.
func (r *RunRepository) ListByKind(ctx context.Context, kind string, limit int) ([]entity.ConversionRun, error) {
	const q = `
SELECT id, kind, output, status, error, duration_ms, created_at
FROM conversion_runs
WHERE kind = $1
ORDER BY created_at DESC
LIMIT $2;
`
	rows, err := r.pool.Query(ctx, q, kind, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []entity.ConversionRun
	for rows.Next() {
		var (
			run        entity.ConversionRun
			statusText string
		)
		if err := rows.Scan(
			&run.ID,
			&run.Kind,
			&run.Output,
			&statusText,
			&run.Error, // NULL => nil
			&run.DurationMS,
			&run.CreatedAt,
		); err != nil {
			return nil, err
		}
		run.Status = entity.RunStatus(statusText)
		out = append(out, run)
	}
	return out, rows.Err()
}
