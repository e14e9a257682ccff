// backend-go/internal/service/evaluation_test.go
package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sellerpulse/backend-go/internal/domain"
	"github.com/sellerpulse/backend-go/internal/store"
)

type stubMetrics struct {
	sales   map[int]map[string]float64
	stocks  map[string]domain.StockLevels
	cur     map[string]domain.PeriodMetrics
	prev    map[string]domain.PeriodMetrics
	traffic map[string]domain.Traffic
}

func (s *stubMetrics) Sales(ctx context.Context, days int) (map[string]float64, error) {
	return s.sales[days], nil
}

func (s *stubMetrics) PeriodMetrics(ctx context.Context, days int) (map[string]domain.PeriodMetrics, error) {
	return s.cur, nil
}

func (s *stubMetrics) PreviousPeriodMetrics(ctx context.Context, days int) (map[string]domain.PeriodMetrics, error) {
	return s.prev, nil
}

func (s *stubMetrics) Traffic(ctx context.Context, days int) (map[string]domain.Traffic, error) {
	return s.traffic, nil
}

func (s *stubMetrics) Stocks(ctx context.Context) (map[string]domain.StockLevels, error) {
	return s.stocks, nil
}

type stubAdSpend map[string]float64

func (s stubAdSpend) AdSpend(ctx context.Context, days int) (map[string]float64, error) {
	return s, nil
}

type stubCatalog []domain.Product

func (s stubCatalog) Products(ctx context.Context) ([]domain.Product, error) {
	return s, nil
}

type memHistory struct {
	entries map[string]domain.HistoryEntry
	saved   map[string]domain.HistoryEntry
}

func (m *memHistory) Load(ctx context.Context) (map[string]domain.HistoryEntry, error) {
	out := make(map[string]domain.HistoryEntry, len(m.entries))
	for k, v := range m.entries {
		out[k] = v
	}
	return out, nil
}

func (m *memHistory) Save(ctx context.Context, history map[string]domain.HistoryEntry) error {
	m.saved = history
	return nil
}

type memRuns struct {
	records []store.RunRecord
}

func (m *memRuns) Append(ctx context.Context, rec store.RunRecord) error {
	m.records = append(m.records, rec)
	return nil
}

func (m *memRuns) Recent(ctx context.Context, limit int) ([]store.RunRecord, error) {
	return m.records, nil
}

type memSnapshots struct {
	byDate map[string][]domain.FunnelRow
}

func (m *memSnapshots) Put(ctx context.Context, date string, rows []domain.FunnelRow) error {
	if m.byDate == nil {
		m.byDate = map[string][]domain.FunnelRow{}
	}
	m.byDate[date] = rows
	return nil
}

func (m *memSnapshots) Get(ctx context.Context, date string) ([]domain.FunnelRow, error) {
	return m.byDate[date], nil
}

func (m *memSnapshots) Dates(ctx context.Context) ([]string, error) {
	out := make([]string, 0, len(m.byDate))
	for d := range m.byDate {
		out = append(out, d)
	}
	return out, nil
}

func fixedClock() time.Time {
	return time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
}

func newCycleFixture() (*EvaluationService, *memHistory, *memRuns, *memSnapshots) {
	metrics := &stubMetrics{
		sales: map[int]map[string]float64{
			7:  {"A": 14},
			30: {"A": 60},
		},
		stocks: map[string]domain.StockLevels{
			"A": {Stock: 2, InTransit: 0},
		},
		cur: map[string]domain.PeriodMetrics{
			"A": {Orders: 10, Revenue: 1000.4, Returns: 1},
		},
		prev: map[string]domain.PeriodMetrics{
			"A": {Orders: 5, Revenue: 400, Returns: 0},
		},
		traffic: map[string]domain.Traffic{
			"A": {Impressions: 5000, Clicks: 200},
		},
	}

	history := &memHistory{entries: map[string]domain.HistoryEntry{
		"999": {LastRawSales: 3, Smoothed: 3},
	}}
	runs := &memRuns{}
	snapshots := &memSnapshots{}

	svc := NewEvaluationService(Deps{
		Metrics: metrics,
		AdSpend: stubAdSpend{"A": 100},
		Catalog: stubCatalog{
			{SKU: "A", OfferID: "OFF-A", Name: "Active product"},
			{SKU: "B", OfferID: "OFF-B", Name: "Dormant product"},
		},
		History:   history,
		Runs:      runs,
		Snapshots: snapshots,
	})
	svc.now = fixedClock

	return svc, history, runs, snapshots
}

func TestRunCycle_ReplenishmentAndFunnel(t *testing.T) {
	svc, _, _, _ := newCycleFixture()

	result, err := svc.RunCycle(context.Background(), 0)
	require.NoError(t, err)

	assert.Equal(t, 7, result.PeriodDays, "zero days falls back to the configured window")
	assert.Equal(t, 2, result.Total)
	assert.Equal(t, 1, result.Ordered)
	assert.Equal(t, 1, result.Skipped)

	var active, dormant *domain.ReplenishmentItem
	for i := range result.Items {
		switch result.Items[i].SKU {
		case "A":
			active = &result.Items[i]
		case "B":
			dormant = &result.Items[i]
		}
	}
	require.NotNil(t, active)
	require.NotNil(t, dormant)

	// 14 sold over 7 days, no prior history: smoothed equals raw,
	// target ceil(14*1.5)=21, need 21-2=19, pack of 2 rounds to 20.
	assert.InDelta(t, 14, active.EffectiveSales, 1e-9)
	assert.Equal(t, 21, active.TargetDemand)
	assert.Equal(t, 20, active.OrderQuantity)
	assert.True(t, active.IncludedInOrder)
	assert.InDelta(t, 60, active.RawSalesLong, 1e-9)

	assert.True(t, dormant.NoData)
	assert.True(t, dormant.Disabled)
	assert.False(t, dormant.IncludedInOrder)
	assert.Zero(t, dormant.OrderQuantity)
}

func TestRunCycle_FunnelRowsSortedByRevenue(t *testing.T) {
	svc, _, _, _ := newCycleFixture()

	result, err := svc.RunCycle(context.Background(), 7)
	require.NoError(t, err)

	require.Len(t, result.Funnel, 2)
	assert.Equal(t, "A", result.Funnel[0].SKU, "highest revenue first")

	row := result.Funnel[0]
	assert.InDelta(t, 1000, row.Revenue, 1e-9, "revenue is rounded to whole units")
	assert.InDelta(t, 100, row.AvgCheck, 1e-9)
	assert.InDelta(t, 0.1, row.RefundRate, 1e-9)
	assert.InDelta(t, 1.0, row.OrdersChange, 1e-9, "orders doubled over the previous window")
	assert.InDelta(t, 1.501, row.RevenueChange, 1e-6)
	assert.NotEmpty(t, row.Diagnosis.Stage)
	assert.NotEmpty(t, row.Ads.Level)
}

func TestRunCycle_PersistsHistoryAndTrail(t *testing.T) {
	svc, history, runs, snapshots := newCycleFixture()

	result, err := svc.RunCycle(context.Background(), 7)
	require.NoError(t, err)

	require.NotNil(t, history.saved)
	entry, ok := history.saved["A"]
	require.True(t, ok)
	assert.InDelta(t, 14, entry.Smoothed, 1e-9)
	assert.InDelta(t, 14, entry.LastRawSales, 1e-9)

	_, stale := history.saved["999"]
	assert.True(t, stale, "history of SKUs outside the catalog is carried forward")

	require.Len(t, runs.records, 1)
	assert.Equal(t, result.Total, runs.records[0].Total)
	assert.Equal(t, result.Ordered, runs.records[0].Ordered)

	rows, err := snapshots.Get(context.Background(), "2025-06-15")
	require.NoError(t, err)
	require.Len(t, rows, 2)
}

func TestRunCycle_SmoothsAgainstStoredHistory(t *testing.T) {
	svc, history, _, _ := newCycleFixture()
	history.entries["A"] = domain.HistoryEntry{LastRawSales: 10, Smoothed: 10}

	result, err := svc.RunCycle(context.Background(), 7)
	require.NoError(t, err)

	var active *domain.ReplenishmentItem
	for i := range result.Items {
		if result.Items[i].SKU == "A" {
			active = &result.Items[i]
		}
	}
	require.NotNil(t, active)

	// prior 10, raw 14, α 0.5: smoothed 12, raw passes through as
	// effective since no spike is flagged.
	assert.InDelta(t, 14, active.EffectiveSales, 1e-9)
	assert.InDelta(t, 12, history.saved["A"].Smoothed, 1e-9)

	// trend (14-10)/10 = 0.4 with stock below effective: factor 2.1,
	// target ceil(14*2.1)=30, need 28 already on a pack boundary.
	assert.Equal(t, 30, active.TargetDemand)
	assert.Equal(t, 28, active.OrderQuantity)
}
