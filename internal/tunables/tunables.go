// backend-go/internal/tunables/tunables.go
package tunables

// Forecast holds the replenishment engine tunables.
type Forecast struct {
	DemandFactor       float64 `json:"demand_factor"`
	PeriodDays         int     `json:"period_days"`
	LongPeriodDays     int     `json:"long_period_days"`
	MinStockDefault    int     `json:"min_stock_default"`
	PackSizeDefault    int     `json:"pack_size_default"`
	SmoothingAlpha     float64 `json:"smoothing_alpha"`
	SpikeMultiplier    float64 `json:"spike_multiplier"`
	SpikeCapMultiplier float64 `json:"spike_cap_multiplier"`
	MaxDaysOfStock     int     `json:"max_days_of_stock"`

	MaxLoaderHistoryDays int `json:"max_loader_history_days"`
	MaxFunnelHistoryDays int `json:"max_funnel_history_days"`
}

// Maturity holds the minimum-data floors per funnel metric family.
type Maturity struct {
	Impressions     int `json:"impressions"`
	ClicksForCTR    int `json:"clicks_for_ctr"`
	ClicksForConv   int `json:"clicks_for_conv"`
	OrdersForConv   int `json:"orders_for_conv"`
	OrdersForRefund int `json:"orders_for_refund"`
}

// Funnel holds the diagnostic classifier thresholds.
type Funnel struct {
	CTRLow     float64 `json:"ctr_low"`
	ConvLow    float64 `json:"conv_low"`
	RefundWarn float64 `json:"refund_warn"`
	RefundBad  float64 `json:"refund_bad"`
	DRRWarn    float64 `json:"drr_warn"`
	DRRBad     float64 `json:"drr_bad"`

	Maturity Maturity `json:"maturity"`
}

// AdsMinData is the triple of floors below which ad metrics are too raw to
// judge; crossing any single floor is enough to exit immaturity.
type AdsMinData struct {
	Impressions int     `json:"impressions"`
	Clicks      int     `json:"clicks"`
	Spend       float64 `json:"spend"`
}

// Ads holds the advertising health classifier thresholds.
type Ads struct {
	CTRLow  float64 `json:"ctr_low"`
	CTRBad  float64 `json:"ctr_bad"`
	ConvLow float64 `json:"conv_low"`

	DRRWarn float64 `json:"drr_warn"`
	DRRBad  float64 `json:"drr_bad"`
	DRRGood float64 `json:"drr_good"`

	StockBadDays  float64 `json:"stock_bad_days"`
	StockWarnDays float64 `json:"stock_warn_days"`

	NoOrderClicksWarn int `json:"no_order_clicks_warn"`
	NoOrderClicksBad  int `json:"no_order_clicks_bad"`

	SpendWithoutRevenueWarn float64 `json:"spend_without_revenue_warn"`
	SpendWithoutRevenueBad  float64 `json:"spend_without_revenue_bad"`

	MinData AdsMinData `json:"min_data"`
}

// Set is the full immutable tunables snapshot threaded into every
// classifier call. Loaded once per evaluation cycle, never mutated
// mid-cycle.
type Set struct {
	Forecast Forecast `json:"forecast"`
	Funnel   Funnel   `json:"funnel"`
	Ads      Ads      `json:"ads"`
}

// Defaults returns the documented default thresholds.
func Defaults() Set {
	return Set{
		Forecast: Forecast{
			DemandFactor:         1.5,
			PeriodDays:           7,
			LongPeriodDays:       30,
			MinStockDefault:      4,
			PackSizeDefault:      2,
			SmoothingAlpha:       0.5,
			SpikeMultiplier:      3,
			SpikeCapMultiplier:   1.5,
			MaxDaysOfStock:       30,
			MaxLoaderHistoryDays: 200,
			MaxFunnelHistoryDays: 120,
		},
		Funnel: Funnel{
			CTRLow:     0.03,
			ConvLow:    0.05,
			RefundWarn: 0.05,
			RefundBad:  0.10,
			DRRWarn:    0.30,
			DRRBad:     0.50,
			Maturity: Maturity{
				Impressions:     200,
				ClicksForCTR:    10,
				ClicksForConv:   25,
				OrdersForConv:   2,
				OrdersForRefund: 5,
			},
		},
		Ads: Ads{
			CTRLow:                  0.03,
			CTRBad:                  0.015,
			ConvLow:                 0.05,
			DRRWarn:                 0.30,
			DRRBad:                  0.50,
			DRRGood:                 0.25,
			StockBadDays:            3,
			StockWarnDays:           7,
			NoOrderClicksWarn:       25,
			NoOrderClicksBad:        60,
			SpendWithoutRevenueWarn: 700,
			SpendWithoutRevenueBad:  1500,
			MinData: AdsMinData{
				Impressions: 800,
				Clicks:      20,
				Spend:       300,
			},
		},
	}
}

// Normalize clamps out-of-range values to the nearest valid bound. A
// misconfigured threshold degrades gracefully instead of halting a batch.
func (s Set) Normalize() Set {
	f := &s.Forecast
	if f.SmoothingAlpha < 0 {
		f.SmoothingAlpha = 0
	}
	// α ≥ 1 means smoothing disabled; keep the documented boundary.
	if f.SmoothingAlpha >= 1 {
		f.SmoothingAlpha = 1
	}
	if f.DemandFactor <= 0 {
		f.DemandFactor = Defaults().Forecast.DemandFactor
	}
	if f.PeriodDays < 1 {
		f.PeriodDays = 1
	}
	if f.LongPeriodDays < f.PeriodDays {
		f.LongPeriodDays = f.PeriodDays
	}
	if f.MinStockDefault < 0 {
		f.MinStockDefault = 0
	}
	if f.PackSizeDefault < 1 {
		f.PackSizeDefault = 1
	}
	if f.SpikeMultiplier < 0 {
		f.SpikeMultiplier = 0
	}
	if f.SpikeCapMultiplier < 0 {
		f.SpikeCapMultiplier = 0
	}
	if f.MaxDaysOfStock < 0 {
		f.MaxDaysOfStock = 0
	}
	if f.MaxLoaderHistoryDays < 1 {
		f.MaxLoaderHistoryDays = Defaults().Forecast.MaxLoaderHistoryDays
	}
	if f.MaxFunnelHistoryDays < 1 {
		f.MaxFunnelHistoryDays = Defaults().Forecast.MaxFunnelHistoryDays
	}

	s.Funnel.CTRLow = clamp01(s.Funnel.CTRLow)
	s.Funnel.ConvLow = clamp01(s.Funnel.ConvLow)
	s.Funnel.RefundWarn = clamp01(s.Funnel.RefundWarn)
	s.Funnel.RefundBad = clamp01(s.Funnel.RefundBad)
	if s.Funnel.DRRWarn < 0 {
		s.Funnel.DRRWarn = 0
	}
	if s.Funnel.DRRBad < 0 {
		s.Funnel.DRRBad = 0
	}
	m := &s.Funnel.Maturity
	m.Impressions = nonNegInt(m.Impressions)
	m.ClicksForCTR = nonNegInt(m.ClicksForCTR)
	m.ClicksForConv = nonNegInt(m.ClicksForConv)
	m.OrdersForConv = nonNegInt(m.OrdersForConv)
	m.OrdersForRefund = nonNegInt(m.OrdersForRefund)

	a := &s.Ads
	a.CTRLow = clamp01(a.CTRLow)
	a.CTRBad = clamp01(a.CTRBad)
	a.ConvLow = clamp01(a.ConvLow)
	if a.DRRWarn < 0 {
		a.DRRWarn = 0
	}
	if a.DRRBad < 0 {
		a.DRRBad = 0
	}
	if a.DRRGood < 0 {
		a.DRRGood = 0
	}
	if a.StockBadDays < 0 {
		a.StockBadDays = 0
	}
	if a.StockWarnDays < 0 {
		a.StockWarnDays = 0
	}
	a.NoOrderClicksWarn = nonNegInt(a.NoOrderClicksWarn)
	a.NoOrderClicksBad = nonNegInt(a.NoOrderClicksBad)
	if a.SpendWithoutRevenueWarn < 0 {
		a.SpendWithoutRevenueWarn = 0
	}
	if a.SpendWithoutRevenueBad < 0 {
		a.SpendWithoutRevenueBad = 0
	}
	a.MinData.Impressions = nonNegInt(a.MinData.Impressions)
	a.MinData.Clicks = nonNegInt(a.MinData.Clicks)
	if a.MinData.Spend < 0 {
		a.MinData.Spend = 0
	}

	return s
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func nonNegInt(v int) int {
	if v < 0 {
		return 0
	}
	return v
}
