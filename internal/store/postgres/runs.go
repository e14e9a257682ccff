// backend-go/internal/store/postgres/runs.go
package postgres

import (
	"context"
	"fmt"

	"github.com/sellerpulse/backend-go/internal/store"
)

// RunRepository keeps the cycle trail in loader_runs, pruned by age on
// every append.
type RunRepository struct {
	db      *DB
	maxDays int
}

func NewRunRepository(db *DB, maxDays int) *RunRepository {
	return &RunRepository{db: db, maxDays: maxDays}
}

func (r *RunRepository) Append(ctx context.Context, rec store.RunRecord) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO loader_runs (ran_at, period_days, total, ordered, skipped)
		 VALUES ($1, $2, $3, $4, $5)`,
		rec.RanAt, rec.PeriodDays, rec.Total, rec.Ordered, rec.Skipped)
	if err != nil {
		return fmt.Errorf("append loader run: %w", err)
	}

	if r.maxDays > 0 {
		_, err = r.db.ExecContext(ctx,
			`DELETE FROM loader_runs WHERE ran_at < now() - make_interval(days => $1)`,
			r.maxDays)
		if err != nil {
			return fmt.Errorf("prune loader runs: %w", err)
		}
	}
	return nil
}

func (r *RunRepository) Recent(ctx context.Context, limit int) ([]store.RunRecord, error) {
	if limit <= 0 {
		limit = 50
	}

	var out []store.RunRecord
	err := r.db.SelectContext(ctx, &out,
		`SELECT ran_at, period_days, total, ordered, skipped
		 FROM loader_runs ORDER BY ran_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("load loader runs: %w", err)
	}
	return out, nil
}
