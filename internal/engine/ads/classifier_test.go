package ads

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sellerpulse/backend-go/internal/domain"
	"github.com/sellerpulse/backend-go/internal/tunables"
)

func thresholds() tunables.Ads {
	return tunables.Defaults().Ads
}

func TestHasEnoughData_AnySingleFloor(t *testing.T) {
	md := thresholds().MinData

	assert.False(t, HasEnoughData(Input{Impressions: 799, Clicks: 19, Spend: 299}, md))
	assert.True(t, HasEnoughData(Input{Impressions: 800}, md))
	assert.True(t, HasEnoughData(Input{Clicks: 20}, md))
	assert.True(t, HasEnoughData(Input{Spend: 300}, md))
}

func TestDaysOfStock(t *testing.T) {
	assert.Nil(t, DaysOfStock(0, 10, 7))
	assert.Nil(t, DaysOfStock(100, 0, 7))

	d := DaysOfStock(100, 70, 7)
	require.NotNil(t, d)
	assert.InDelta(t, 10.0, *d, 1e-9)

	// Non-positive period falls back to one day.
	d = DaysOfStock(100, 10, 0)
	require.NotNil(t, d)
	assert.InDelta(t, 10.0, *d, 1e-9)
}

func TestEvaluate_NoSpendIsNeutral(t *testing.T) {
	v := Evaluate(Input{Impressions: 5000, Clicks: 100, Orders: 10}, thresholds())
	assert.Equal(t, domain.AdsNeutral, v.Level)
	assert.Equal(t, "no spend", v.Label)
}

func TestEvaluate_Immature(t *testing.T) {
	v := Evaluate(Input{Spend: 100, Impressions: 100, Clicks: 5}, thresholds())
	assert.Equal(t, domain.AdsImmature, v.Level)

	// Any one floor is enough to leave immaturity.
	v = Evaluate(Input{Spend: 300, Impressions: 100, Clicks: 5}, thresholds())
	assert.NotEqual(t, domain.AdsImmature, v.Level)

	v = Evaluate(Input{Spend: 100, Impressions: 800}, thresholds())
	assert.NotEqual(t, domain.AdsImmature, v.Level)

	v = Evaluate(Input{Spend: 100, Clicks: 20}, thresholds())
	assert.NotEqual(t, domain.AdsImmature, v.Level)
}

func TestEvaluate_HardBads(t *testing.T) {
	th := thresholds()

	t.Run("out of stock with demand", func(t *testing.T) {
		v := Evaluate(Input{Spend: 400, Impressions: 2000, Clicks: 50, Orders: 5, Revenue: 5000, Stock: 0, PeriodDays: 7}, th)
		assert.Equal(t, domain.AdsBad, v.Level)
		assert.Equal(t, "out of stock", v.Label)
	})

	t.Run("stock running out", func(t *testing.T) {
		// 70 orders over 7 days against 10 units: one day of cover.
		v := Evaluate(Input{Spend: 400, Impressions: 2000, Clicks: 200, Orders: 70, Revenue: 50000, Stock: 10, PeriodDays: 7}, th)
		assert.Equal(t, domain.AdsBad, v.Level)
		assert.Equal(t, "stock running out", v.Label)
	})

	t.Run("drr at the bad threshold", func(t *testing.T) {
		v := Evaluate(Input{Spend: 600, Impressions: 2000, Clicks: 50, Orders: 5, Revenue: 1000, DRR: 0.50, Stock: 500, PeriodDays: 7}, th)
		assert.Equal(t, domain.AdsBad, v.Level)
		assert.Equal(t, "drr too high", v.Label)
	})

	t.Run("many clicks and no orders", func(t *testing.T) {
		v := Evaluate(Input{Spend: 400, Impressions: 2000, Clicks: 60, Orders: 0}, th)
		assert.Equal(t, domain.AdsBad, v.Level)
		assert.Equal(t, "burn without orders", v.Label)
	})
}

func TestEvaluate_Warnings(t *testing.T) {
	th := thresholds()

	t.Run("clicks without orders", func(t *testing.T) {
		v := Evaluate(Input{Spend: 400, Impressions: 2000, Clicks: 30, Orders: 0}, th)
		assert.Equal(t, domain.AdsWarn, v.Level)
		assert.Equal(t, "clicks without orders", v.Label)
	})

	t.Run("heavy spend without revenue", func(t *testing.T) {
		v := Evaluate(Input{Spend: 1600, Impressions: 2000, Clicks: 10, Orders: 0}, th)
		assert.Equal(t, domain.AdsBad, v.Level)
		assert.Equal(t, "spend without revenue", v.Label)

		v = Evaluate(Input{Spend: 800, Impressions: 2000, Clicks: 10, Orders: 0}, th)
		assert.Equal(t, domain.AdsWarn, v.Level)
		assert.Equal(t, "spend without revenue", v.Label)
	})

	t.Run("soft problems are joined", func(t *testing.T) {
		// DRR in the warn band plus a weak CTR, listed together.
		v := Evaluate(Input{
			Spend:       350,
			Impressions: 2000,
			Clicks:      40,
			Orders:      10,
			Revenue:     1000,
			DRR:         0.35,
			CTR:         0.02,
			Conv:        0.25,
			Stock:       1000,
			PeriodDays:  7,
		}, th)
		assert.Equal(t, domain.AdsWarn, v.Level)
		assert.Equal(t, "needs attention", v.Label)
		assert.Contains(t, v.Reason, "DRR")
		assert.Contains(t, v.Reason, "low CTR")
		assert.Contains(t, v.Reason, "; ")
	})

	t.Run("very low ctr needs heavy impressions", func(t *testing.T) {
		v := Evaluate(Input{
			Spend:       350,
			Impressions: 5000,
			Clicks:      50,
			Orders:      10,
			Revenue:     5000,
			DRR:         0.07,
			CTR:         0.01,
			Conv:        0.20,
			Stock:       1000,
			PeriodDays:  7,
		}, th)
		assert.Equal(t, domain.AdsWarn, v.Level)
		assert.Contains(t, v.Reason, "very low CTR")
	})
}

func TestEvaluate_Good(t *testing.T) {
	v := Evaluate(Input{
		Spend:       300,
		Impressions: 3000,
		Clicks:      120,
		Orders:      10,
		Revenue:     3000,
		DRR:         0.10,
		CTR:         0.04,
		Conv:        0.08,
		Stock:       1000,
		PeriodDays:  7,
	}, thresholds())

	assert.Equal(t, domain.AdsGood, v.Level)
	assert.Equal(t, "scale ready", v.Label)
}

func TestEvaluate_NeutralWhenNothingStandsOut(t *testing.T) {
	// Orders exist but DRR is zero, so "good" cannot be claimed either.
	v := Evaluate(Input{
		Spend:       300,
		Impressions: 3000,
		Clicks:      120,
		Orders:      10,
		Revenue:     3000,
		DRR:         0,
		CTR:         0.04,
		Conv:        0.08,
		Stock:       1000,
		PeriodDays:  7,
	}, thresholds())

	assert.Equal(t, domain.AdsNeutral, v.Level)
	assert.Equal(t, "ok", v.Label)
}
