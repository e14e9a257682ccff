// backend-go/internal/store/store.go
package store

import (
	"context"
	"time"

	"github.com/sellerpulse/backend-go/internal/domain"
)

// HistoryStore keeps the per-SKU smoothing state between evaluation
// cycles. Save replaces the whole map atomically: a cycle either lands
// completely or not at all.
type HistoryStore interface {
	Load(ctx context.Context) (map[string]domain.HistoryEntry, error)
	Save(ctx context.Context, history map[string]domain.HistoryEntry) error
}

// RunRecord summarizes one finished evaluation cycle.
type RunRecord struct {
	RanAt      time.Time `json:"ran_at" db:"ran_at"`
	PeriodDays int       `json:"period_days" db:"period_days"`
	Total      int       `json:"total" db:"total"`
	Ordered    int       `json:"ordered" db:"ordered"`
	Skipped    int       `json:"skipped" db:"skipped"`
}

// RunHistoryStore keeps the trail of past cycles, pruned by age.
type RunHistoryStore interface {
	Append(ctx context.Context, rec RunRecord) error
	Recent(ctx context.Context, limit int) ([]RunRecord, error)
}

// FunnelSnapshotStore retains one funnel report per calendar date,
// pruned by age.
type FunnelSnapshotStore interface {
	Put(ctx context.Context, date string, rows []domain.FunnelRow) error
	Get(ctx context.Context, date string) ([]domain.FunnelRow, error)
	Dates(ctx context.Context) ([]string, error)
}
