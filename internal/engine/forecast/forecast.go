// backend-go/internal/engine/forecast/forecast.go

// Package forecast turns raw short-window sales into an adaptive reorder
// quantity: exponential smoothing with a spike guard, a trend/stock driven
// demand factor and the final pack-rounded order size.
package forecast

import (
	"math"

	"github.com/sellerpulse/backend-go/internal/domain"
	"github.com/sellerpulse/backend-go/internal/tunables"
)

const (
	minDemandFactor = 0.5
	maxDemandFactor = 3.0
)

// Input is everything the forecast needs for one SKU.
type Input struct {
	RawSales  float64
	Stock     float64
	InTransit float64

	// PrevSmoothed is the persisted smoothing state; nil on first sighting.
	PrevSmoothed *float64

	MinStock int
	PackSize int
	Disabled bool

	// HasAnyData is false when the SKU shows zero activity across sales,
	// stock and in-transit. Such SKUs are reported but never ordered.
	HasAnyData bool
}

// Result is the computed reorder decision for one SKU.
type Result struct {
	Smoothed        float64
	Effective       float64
	Spike           bool
	DemandFactor    float64
	TargetDemand    int
	Target          int
	NeedRaw         float64
	OrderQuantity   int
	IncludedInOrder bool

	History domain.HistoryEntry
}

// Smooth applies exponential smoothing. α outside (0,1) disables smoothing
// and the raw value passes through.
func Smooth(raw, prior, alpha float64) float64 {
	if alpha > 0 && alpha < 1 {
		return prior + alpha*(raw-prior)
	}
	return raw
}

// SpikeGuard caps an abnormal short-term spike. The period is a spike when
// raw exceeds the smoothed baseline by more than mult; effective sales are
// then capped at round(smoothed × cap).
func SpikeGuard(raw, smoothed, mult, cap float64) (effective float64, spike bool) {
	if smoothed > 0 && mult > 0 && cap > 0 && raw > smoothed*mult {
		return math.Round(smoothed * cap), true
	}
	return raw, false
}

// DemandFactor derives the per-SKU multiplier from trend and stock
// pressure, clamped into [0.5, 3.0] and rounded to 2 decimals.
func DemandFactor(base, effective, prevSmoothed, stock float64, spike bool) float64 {
	k := base
	if k <= 0 {
		k = 1.5
	}

	reference := prevSmoothed
	if reference <= 0 {
		reference = effective
	}

	trend := 0.0
	if reference > 0 {
		trend = (effective - reference) / reference
	}

	switch {
	case spike:
		k *= 0.7
	case trend > 0.30 && stock < effective:
		k *= 1.4
	case trend > 0.15 && stock < effective*1.2:
		k *= 1.2
	}

	// Falling demand dampens independently of the growth rules above.
	if trend < -0.30 || effective == 0 {
		k *= 0.7
	}

	k = domain.Clamp(k, minDemandFactor, maxDemandFactor)
	return math.Round(k*100) / 100
}

// Compute runs the full forecast chain for one SKU.
func Compute(in Input, cfg tunables.Forecast) Result {
	raw := domain.NonNeg(in.RawSales)
	stock := domain.NonNeg(in.Stock)
	inTransit := domain.NonNeg(in.InTransit)

	prior := raw
	if in.PrevSmoothed != nil {
		prior = domain.NonNeg(*in.PrevSmoothed)
	}

	smoothed := Smooth(raw, prior, cfg.SmoothingAlpha)
	effective, spike := SpikeGuard(raw, smoothed, cfg.SpikeMultiplier, cfg.SpikeCapMultiplier)
	factor := DemandFactor(cfg.DemandFactor, effective, prior, stock, spike)

	targetDemand := int(math.Ceil(effective * factor))

	if avgPerDay := effective / 7; avgPerDay > 0 && cfg.MaxDaysOfStock > 0 {
		capByDays := int(math.Ceil(avgPerDay * float64(cfg.MaxDaysOfStock)))
		if targetDemand > capByDays {
			targetDemand = capByDays
		}
	}

	minStock := in.MinStock
	if minStock < 0 {
		minStock = 0
	}

	target := targetDemand
	if minStock > target {
		target = minStock
	}

	needRaw := float64(target) - stock - inTransit
	if needRaw < 0 {
		needRaw = 0
	}

	qty := 0
	if in.PackSize > 0 {
		packs := math.Ceil(needRaw / float64(in.PackSize))
		qty = int(packs) * in.PackSize
	}

	included := !in.Disabled && in.HasAnyData && qty > 0

	return Result{
		Smoothed:        smoothed,
		Effective:       effective,
		Spike:           spike,
		DemandFactor:    factor,
		TargetDemand:    targetDemand,
		Target:          target,
		NeedRaw:         needRaw,
		OrderQuantity:   qty,
		IncludedInOrder: included,
		History: domain.HistoryEntry{
			LastRawSales: raw,
			Smoothed:     smoothed,
		},
	}
}
