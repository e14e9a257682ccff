// backend-go/internal/provider/ozon/ads.go
package ozon

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/sellerpulse/backend-go/pkg/logger"
)

// maxReportAge is how long a queued performance report UUID stays
// eligible for polling before it is considered abandoned.
const maxReportAge = 6 * time.Hour

// ReportQueue persists the UUIDs of requested performance reports in a
// JSON file, so pending reports survive process restarts.
type ReportQueue struct {
	path string
	mu   sync.Mutex
	now  func() time.Time
}

type ReportMeta struct {
	CreatedAt time.Time `json:"created_at"`
	DateFrom  string    `json:"date_from,omitempty"`
	DateTo    string    `json:"date_to,omitempty"`
}

type PendingReport struct {
	UUID string     `json:"uuid"`
	Meta ReportMeta `json:"meta"`
}

func NewReportQueue(path string) *ReportQueue {
	return &ReportQueue{path: path, now: time.Now}
}

func (q *ReportQueue) load() map[string]ReportMeta {
	raw, err := os.ReadFile(q.path)
	if err != nil || len(raw) == 0 {
		return map[string]ReportMeta{}
	}

	store := map[string]ReportMeta{}
	if err := json.Unmarshal(raw, &store); err != nil {
		// A corrupt queue is abandoned rather than fatal.
		logger.Log.Warn().Err(err).Str("path", q.path).Msg("report queue unreadable, starting empty")
		return map[string]ReportMeta{}
	}
	return store
}

func (q *ReportQueue) save(store map[string]ReportMeta) error {
	out, err := json.MarshalIndent(store, "", "  ")
	if err != nil {
		return fmt.Errorf("encode report queue: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(q.path), 0755); err != nil {
		return fmt.Errorf("create report queue dir: %w", err)
	}
	if err := os.WriteFile(q.path, out, 0644); err != nil {
		return fmt.Errorf("write report queue %s: %w", q.path, err)
	}
	return nil
}

// Add registers a freshly requested report.
func (q *ReportQueue) Add(uuid string, meta ReportMeta) error {
	if uuid == "" {
		return nil
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	store := q.load()
	meta.CreatedAt = q.now()
	store[uuid] = meta
	return q.save(store)
}

// Remove drops a report after it has been consumed or failed for good.
func (q *ReportQueue) Remove(uuid string) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	store := q.load()
	delete(store, uuid)
	return q.save(store)
}

// Pending returns the reports still worth polling, oldest first.
// Entries past the age limit are skipped.
func (q *ReportQueue) Pending() []PendingReport {
	q.mu.Lock()
	defer q.mu.Unlock()

	store := q.load()
	now := q.now()

	out := make([]PendingReport, 0, len(store))
	for uuid, meta := range store {
		if now.Sub(meta.CreatedAt) >= maxReportAge {
			continue
		}
		out = append(out, PendingReport{UUID: uuid, Meta: meta})
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Meta.CreatedAt.Before(out[j].Meta.CreatedAt)
	})
	return out
}

// AdSpendSource reads the per-SKU spend map that the performance report
// pipeline drops as a JSON file. The pipeline itself is a black box
// here: when no finished report exists yet, spend is zero everywhere.
type AdSpendSource struct {
	path string
}

func NewAdSpendSource(path string) *AdSpendSource {
	return &AdSpendSource{path: path}
}

func (s *AdSpendSource) AdSpend(ctx context.Context, days int) (map[string]float64, error) {
	raw, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		logger.Log.Warn().Str("path", s.path).Msg("no finished ad report, assuming zero spend")
		return map[string]float64{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read ad spend %s: %w", s.path, err)
	}
	if len(raw) == 0 {
		return map[string]float64{}, nil
	}

	out := map[string]float64{}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("decode ad spend %s: %w", s.path, err)
	}
	return out, nil
}
