// backend-go/internal/store/postgres/funnel.go
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/sellerpulse/backend-go/internal/domain"
)

// FunnelRepository retains one funnel report per calendar date in
// funnel_snapshots, pruned by age on every put.
type FunnelRepository struct {
	db      *DB
	maxDays int
}

func NewFunnelRepository(db *DB, maxDays int) *FunnelRepository {
	return &FunnelRepository{db: db, maxDays: maxDays}
}

func (r *FunnelRepository) Put(ctx context.Context, date string, rows []domain.FunnelRow) error {
	payload, err := json.Marshal(rows)
	if err != nil {
		return fmt.Errorf("encode funnel snapshot: %w", err)
	}

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO funnel_snapshots (snapshot_date, rows_json)
		 VALUES ($1, $2)
		 ON CONFLICT (snapshot_date) DO UPDATE SET rows_json = EXCLUDED.rows_json`,
		date, payload)
	if err != nil {
		return fmt.Errorf("store funnel snapshot %s: %w", date, err)
	}

	if r.maxDays > 0 {
		_, err = r.db.ExecContext(ctx,
			`DELETE FROM funnel_snapshots
			 WHERE snapshot_date < current_date - make_interval(days => $1)`,
			r.maxDays)
		if err != nil {
			return fmt.Errorf("prune funnel snapshots: %w", err)
		}
	}
	return nil
}

func (r *FunnelRepository) Get(ctx context.Context, date string) ([]domain.FunnelRow, error) {
	var payload []byte
	err := r.db.GetContext(ctx, &payload,
		`SELECT rows_json FROM funnel_snapshots WHERE snapshot_date = $1`, date)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load funnel snapshot %s: %w", date, err)
	}

	var rows []domain.FunnelRow
	if err := json.Unmarshal(payload, &rows); err != nil {
		return nil, fmt.Errorf("decode funnel snapshot %s: %w", date, err)
	}
	return rows, nil
}

func (r *FunnelRepository) Dates(ctx context.Context) ([]string, error) {
	var out []string
	err := r.db.SelectContext(ctx, &out,
		`SELECT to_char(snapshot_date, 'YYYY-MM-DD')
		 FROM funnel_snapshots ORDER BY snapshot_date DESC`)
	if err != nil {
		return nil, fmt.Errorf("list funnel snapshots: %w", err)
	}
	return out, nil
}
