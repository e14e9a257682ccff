// backend-go/internal/domain/metrics.go
package domain

import "math"

// PeriodMetrics aggregates per-SKU sales metrics for one period.
type PeriodMetrics struct {
	Orders  float64 `json:"orders"`
	Revenue float64 `json:"revenue"`
	Returns float64 `json:"returns"`
}

// Traffic holds per-SKU impression and click counts for the current period.
type Traffic struct {
	Impressions float64 `json:"impressions"`
	Clicks      float64 `json:"clicks"`
}

// StockLevels holds the current warehouse state for one SKU.
type StockLevels struct {
	Stock     float64 `json:"stock"`
	InTransit float64 `json:"in_transit"`
}

// Snapshot is the full per-SKU input of one evaluation: current period,
// previous period of equal length, traffic, ad spend and stock state.
// A metric absent from the source is zero, never missing.
type Snapshot struct {
	SKU string `json:"sku"`

	Impressions float64 `json:"impressions"`
	Clicks      float64 `json:"clicks"`
	Orders      float64 `json:"orders"`
	Revenue     float64 `json:"revenue"`
	Returns     float64 `json:"returns"`
	AdSpend     float64 `json:"ad_spend"`
	Stock       float64 `json:"stock"`
	InTransit   float64 `json:"in_transit"`

	Prev PeriodMetrics `json:"prev"`
}

// Sanitize coerces every numeric field to a finite non-negative value.
func (s Snapshot) Sanitize() Snapshot {
	s.Impressions = NonNeg(s.Impressions)
	s.Clicks = NonNeg(s.Clicks)
	s.Orders = NonNeg(s.Orders)
	s.Revenue = NonNeg(s.Revenue)
	s.Returns = NonNeg(s.Returns)
	s.AdSpend = NonNeg(s.AdSpend)
	s.Stock = NonNeg(s.Stock)
	s.InTransit = NonNeg(s.InTransit)
	s.Prev.Orders = NonNeg(s.Prev.Orders)
	s.Prev.Revenue = NonNeg(s.Prev.Revenue)
	s.Prev.Returns = NonNeg(s.Prev.Returns)
	return s
}

// CTR is clicks over impressions, 0 on a zero denominator.
func (s Snapshot) CTR() float64 { return SafeDiv(s.Clicks, s.Impressions) }

// Conv is orders over clicks, 0 on a zero denominator.
func (s Snapshot) Conv() float64 { return SafeDiv(s.Orders, s.Clicks) }

// DRR is ad spend over revenue, 0 on a zero denominator.
func (s Snapshot) DRR() float64 { return SafeDiv(s.AdSpend, s.Revenue) }

// RefundRate is returns over orders, clamped into [0, 1].
func (s Snapshot) RefundRate() float64 {
	return Clamp(SafeDiv(s.Returns, s.Orders), 0, 1)
}

// SafeDiv divides num by den, returning 0 for a zero or non-finite
// denominator. This is a contract, not a convenience: classifier inputs
// must never see NaN or Inf.
func SafeDiv(num, den float64) float64 {
	if den == 0 || math.IsNaN(den) || math.IsInf(den, 0) {
		return 0
	}
	v := num / den
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

// RelDiff is the period-over-period change (cur−prev)/prev, 0 when prev is 0.
func RelDiff(cur, prev float64) float64 {
	if prev == 0 {
		return 0
	}
	return (cur - prev) / prev
}

// Clamp bounds v into [min, max]; non-finite values collapse to min.
func Clamp(v, min, max float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return min
	}
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

// NonNeg coerces v to a finite non-negative number.
func NonNeg(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0
	}
	return v
}
