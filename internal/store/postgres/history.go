// backend-go/internal/store/postgres/history.go
package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/sellerpulse/backend-go/internal/domain"
)

// HistoryRepository stores the smoothing state in the sales_history
// table. Save is a full replace inside one transaction.
type HistoryRepository struct {
	db *DB
}

func NewHistoryRepository(db *DB) *HistoryRepository {
	return &HistoryRepository{db: db}
}

func (r *HistoryRepository) Load(ctx context.Context) (map[string]domain.HistoryEntry, error) {
	rows, err := r.db.QueryxContext(ctx,
		`SELECT sku, last_raw_sales, smoothed FROM sales_history`)
	if err != nil {
		return nil, fmt.Errorf("load sales history: %w", err)
	}
	defer rows.Close()

	out := map[string]domain.HistoryEntry{}
	for rows.Next() {
		var (
			sku   string
			entry domain.HistoryEntry
		)
		if err := rows.Scan(&sku, &entry.LastRawSales, &entry.Smoothed); err != nil {
			return nil, fmt.Errorf("scan sales history: %w", err)
		}
		out[sku] = entry
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sales history: %w", err)
	}

	return out, nil
}

func (r *HistoryRepository) Save(ctx context.Context, history map[string]domain.HistoryEntry) error {
	return r.db.WithTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM sales_history`); err != nil {
			return fmt.Errorf("clear sales history: %w", err)
		}

		stmt, err := tx.PrepareContext(ctx,
			`INSERT INTO sales_history (sku, last_raw_sales, smoothed, updated_at)
			 VALUES ($1, $2, $3, now())`)
		if err != nil {
			return fmt.Errorf("prepare sales history insert: %w", err)
		}
		defer stmt.Close()

		for sku, entry := range history {
			if sku == "" {
				continue
			}
			if _, err := stmt.ExecContext(ctx, sku, entry.LastRawSales, entry.Smoothed); err != nil {
				return fmt.Errorf("insert sales history %s: %w", sku, err)
			}
		}
		return nil
	})
}
