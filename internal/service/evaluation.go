// backend-go/internal/service/evaluation.go
package service

import (
	"context"
	"math"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/sellerpulse/backend-go/internal/catalog"
	"github.com/sellerpulse/backend-go/internal/domain"
	"github.com/sellerpulse/backend-go/internal/engine/ads"
	"github.com/sellerpulse/backend-go/internal/engine/forecast"
	"github.com/sellerpulse/backend-go/internal/engine/funnel"
	"github.com/sellerpulse/backend-go/internal/provider"
	"github.com/sellerpulse/backend-go/internal/store"
	"github.com/sellerpulse/backend-go/internal/tunables"
	"github.com/sellerpulse/backend-go/pkg/logger"
)

// computeConcurrency bounds the per-SKU fan-out.
const computeConcurrency = 8

// Deps wires the evaluation service. Runs, Snapshots and Disabled are
// optional; a nil store simply skips that persistence step.
type Deps struct {
	Metrics   provider.MetricsProvider
	AdSpend   provider.AdSpendProvider
	Catalog   provider.CatalogProvider
	Disabled  *catalog.DisabledMap
	History   store.HistoryStore
	Runs      store.RunHistoryStore
	Snapshots store.FunnelSnapshotStore
}

// EvaluationService runs the full per-SKU decision cycle: demand
// forecast and reorder quantities, funnel diagnoses and advertising
// verdicts, all from one consistent set of inputs.
type EvaluationService struct {
	deps Deps

	// mu serializes cycles: history replace is all-or-nothing, so two
	// concurrent cycles must never interleave.
	mu  sync.Mutex
	now func() time.Time
}

func NewEvaluationService(deps Deps) *EvaluationService {
	return &EvaluationService{deps: deps, now: time.Now}
}

// CycleResult is the outcome of one evaluation cycle.
type CycleResult struct {
	RanAt      time.Time                  `json:"ran_at"`
	PeriodDays int                        `json:"period_days"`
	Items      []domain.ReplenishmentItem `json:"items"`
	Funnel     []domain.FunnelRow         `json:"funnel"`
	Total      int                        `json:"total"`
	Ordered    int                        `json:"ordered"`
	Skipped    int                        `json:"skipped"`
}

type cycleInputs struct {
	salesShort map[string]float64
	salesLong  map[string]float64
	stocks     map[string]domain.StockLevels
	cur        map[string]domain.PeriodMetrics
	prev       map[string]domain.PeriodMetrics
	traffic    map[string]domain.Traffic
	spend      map[string]float64
	history    map[string]domain.HistoryEntry
}

// RunCycle evaluates every catalog SKU over the trailing window of the
// given length (tunables default when days <= 0).
func (s *EvaluationService) RunCycle(ctx context.Context, days int) (*CycleResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tun := tunables.Current()
	if days <= 0 {
		days = tun.Forecast.PeriodDays
	}

	products, err := s.deps.Catalog.Products(ctx)
	if err != nil {
		return nil, err
	}

	in, err := s.fetchInputs(ctx, days, tun.Forecast.LongPeriodDays)
	if err != nil {
		return nil, err
	}

	var disabledMap map[string]bool
	if s.deps.Disabled != nil {
		disabledMap = s.deps.Disabled.All()
	}

	type skuOutcome struct {
		item   domain.ReplenishmentItem
		row    domain.FunnelRow
		sku    string
		hist   domain.HistoryEntry
		valid  bool
	}

	outcomes := make([]skuOutcome, len(products))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(computeConcurrency)

	for i := range products {
		i := i
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			p := products[i]
			if p.SKU == "" || p.OfferID == "" {
				return nil
			}

			out := s.evaluateSKU(p, days, tun, in, disabledMap[p.SKU])
			outcomes[i] = skuOutcome{
				item:  out.item,
				row:   out.row,
				sku:   p.SKU,
				hist:  out.hist,
				valid: true,
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	// Carry forward history of SKUs that left the catalog untouched.
	newHistory := make(map[string]domain.HistoryEntry, len(in.history))
	for sku, entry := range in.history {
		newHistory[sku] = entry
	}

	result := &CycleResult{
		RanAt:      s.now(),
		PeriodDays: days,
	}

	for _, out := range outcomes {
		if !out.valid {
			continue
		}
		result.Items = append(result.Items, out.item)
		result.Funnel = append(result.Funnel, out.row)
		newHistory[out.sku] = out.hist

		result.Total++
		if out.item.IncludedInOrder {
			result.Ordered++
		} else {
			result.Skipped++
		}
	}

	sort.SliceStable(result.Funnel, func(i, j int) bool {
		return result.Funnel[i].Revenue > result.Funnel[j].Revenue
	})

	// History save failure is non-fatal: the computed result is still
	// valid, the next cycle just smooths from an older baseline.
	if err := s.deps.History.Save(ctx, newHistory); err != nil {
		logger.Log.Warn().Err(err).Msg("sales history save failed, serving unsaved result")
	}

	s.persistTrail(ctx, result)

	return result, nil
}

func (s *EvaluationService) fetchInputs(ctx context.Context, days, longDays int) (*cycleInputs, error) {
	in := &cycleInputs{}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() (err error) {
		in.salesShort, err = s.deps.Metrics.Sales(gctx, days)
		return err
	})
	if longDays > 0 && longDays != days {
		g.Go(func() (err error) {
			in.salesLong, err = s.deps.Metrics.Sales(gctx, longDays)
			return err
		})
	}
	g.Go(func() (err error) {
		in.stocks, err = s.deps.Metrics.Stocks(gctx)
		return err
	})
	g.Go(func() (err error) {
		in.cur, err = s.deps.Metrics.PeriodMetrics(gctx, days)
		return err
	})
	g.Go(func() (err error) {
		in.prev, err = s.deps.Metrics.PreviousPeriodMetrics(gctx, days)
		return err
	})
	g.Go(func() (err error) {
		in.traffic, err = s.deps.Metrics.Traffic(gctx, days)
		return err
	})
	g.Go(func() (err error) {
		in.spend, err = s.deps.AdSpend.AdSpend(gctx, days)
		return err
	})
	g.Go(func() (err error) {
		in.history, err = s.deps.History.Load(gctx)
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	if in.salesLong == nil {
		in.salesLong = in.salesShort
	}
	return in, nil
}

type skuResult struct {
	item domain.ReplenishmentItem
	row  domain.FunnelRow
	hist domain.HistoryEntry
}

func (s *EvaluationService) evaluateSKU(p domain.Product, days int, tun tunables.Set, in *cycleInputs, runtimeDisabled bool) skuResult {
	sku := p.SKU

	levels := in.stocks[sku]
	salesShort := in.salesShort[sku]
	salesLong := in.salesLong[sku]
	cur := in.cur[sku]
	prev := in.prev[sku]
	traffic := in.traffic[sku]
	adSpend := in.spend[sku]

	snap := domain.Snapshot{
		SKU:         sku,
		Impressions: traffic.Impressions,
		Clicks:      traffic.Clicks,
		Orders:      cur.Orders,
		Revenue:     cur.Revenue,
		Returns:     cur.Returns,
		AdSpend:     adSpend,
		Stock:       levels.Stock,
		InTransit:   levels.InTransit,
		Prev:        prev,
	}.Sanitize()

	hasAnyData := salesShort > 0 || salesLong > 0 || snap.Stock > 0 || snap.InTransit > 0

	var prevSmoothed *float64
	if entry, ok := in.history[sku]; ok {
		v := entry.Smoothed
		prevSmoothed = &v
	}

	minStock := tun.Forecast.MinStockDefault
	if p.MinStock != nil && *p.MinStock > 0 {
		minStock = *p.MinStock
	}
	packSize := tun.Forecast.PackSizeDefault
	if p.PackSize != nil && *p.PackSize > 0 {
		packSize = *p.PackSize
	}

	disabled := p.Disabled || runtimeDisabled

	fc := forecast.Compute(forecast.Input{
		RawSales:     salesShort,
		Stock:        snap.Stock,
		InTransit:    snap.InTransit,
		PrevSmoothed: prevSmoothed,
		MinStock:     minStock,
		PackSize:     packSize,
		Disabled:     disabled,
		HasAnyData:   hasAnyData,
	}, tun.Forecast)

	item := domain.ReplenishmentItem{
		SKU:             sku,
		OfferID:         p.OfferID,
		Name:            p.Name,
		Barcode:         p.Barcode,
		Stock:           snap.Stock,
		InTransit:       snap.InTransit,
		RawSales:        salesShort,
		RawSalesLong:    salesLong,
		EffectiveSales:  fc.Effective,
		Spike:           fc.Spike,
		DemandFactor:    fc.DemandFactor,
		TargetDemand:    fc.TargetDemand,
		NeedRaw:         fc.NeedRaw,
		OrderQuantity:   fc.OrderQuantity,
		Disabled:        disabled || !hasAnyData,
		NoData:          !hasAnyData,
		IncludedInOrder: fc.IncludedInOrder,
	}

	drr := snap.DRR()
	refundRate := snap.RefundRate()

	diag := funnel.Classify(funnel.Input{
		Impressions: snap.Impressions,
		Clicks:      snap.Clicks,
		Orders:      snap.Orders,
		Revenue:     snap.Revenue,
		AdSpend:     snap.AdSpend,
		DRR:         drr,
		RefundRate:  refundRate,
	}, tun.Funnel)

	verdict := ads.Evaluate(ads.Input{
		Impressions: snap.Impressions,
		Clicks:      snap.Clicks,
		Orders:      snap.Orders,
		Revenue:     snap.Revenue,
		Spend:       snap.AdSpend,
		DRR:         drr,
		CTR:         diag.CTR,
		Conv:        diag.Conv,
		Stock:       snap.Stock,
		PeriodDays:  days,
	}, tun.Ads)

	prevRefundRate := domain.Clamp(domain.SafeDiv(snap.Prev.Returns, snap.Prev.Orders), 0, 1)

	row := domain.FunnelRow{
		SKU:      sku,
		OfferID:  p.OfferID,
		Name:     p.Name,
		Disabled: disabled,

		Impressions: snap.Impressions,
		Clicks:      snap.Clicks,
		Orders:      snap.Orders,
		Revenue:     math.Round(snap.Revenue),
		Returns:     snap.Returns,
		AdSpend:     math.Round(snap.AdSpend),
		Stock:       snap.Stock,

		DRR:        drr,
		AvgCheck:   math.Round(domain.SafeDiv(snap.Revenue, snap.Orders)),
		RefundRate: refundRate,

		Diagnosis: diag,
		Ads:       verdict,

		OrdersPrev:    snap.Prev.Orders,
		OrdersChange:  domain.RelDiff(snap.Orders, snap.Prev.Orders),
		RevenuePrev:   snap.Prev.Revenue,
		RevenueChange: domain.RelDiff(snap.Revenue, snap.Prev.Revenue),
		RefundPrev:    prevRefundRate,
		RefundChange:  domain.RelDiff(refundRate, prevRefundRate),
	}

	return skuResult{item: item, row: row, hist: fc.History}
}

// persistTrail stores the run record and the dated funnel snapshot.
// Both are best-effort: a trail gap never fails a cycle.
func (s *EvaluationService) persistTrail(ctx context.Context, result *CycleResult) {
	if s.deps.Runs != nil {
		rec := store.RunRecord{
			RanAt:      result.RanAt,
			PeriodDays: result.PeriodDays,
			Total:      result.Total,
			Ordered:    result.Ordered,
			Skipped:    result.Skipped,
		}
		if err := s.deps.Runs.Append(ctx, rec); err != nil {
			logger.Log.Warn().Err(err).Msg("run history append failed")
		}
	}

	if s.deps.Snapshots != nil {
		date := result.RanAt.UTC().Format("2006-01-02")
		if err := s.deps.Snapshots.Put(ctx, date, result.Funnel); err != nil {
			logger.Log.Warn().Err(err).Msg("funnel snapshot save failed")
		}
	}
}
