// backend-go/internal/engine/ads/classifier.go

// Package ads grades advertising health per SKU on five levels: neutral,
// immature, bad, warn, good. First matching condition wins; the soft
// warnings are collected into one joined reason.
package ads

import (
	"fmt"
	"strings"

	"github.com/sellerpulse/backend-go/internal/domain"
	"github.com/sellerpulse/backend-go/internal/tunables"
)

// Input is the per-SKU metric set the ads classifier consumes.
type Input struct {
	Impressions float64
	Clicks      float64
	Orders      float64
	Revenue     float64
	Spend       float64
	DRR         float64
	CTR         float64
	Conv        float64
	Stock       float64
	PeriodDays  int
}

// HasEnoughData reports whether the ad metrics cleared the minimum-data
// triple. Any single floor is sufficient.
func HasEnoughData(in Input, md tunables.AdsMinData) bool {
	return in.Impressions >= float64(md.Impressions) ||
		in.Clicks >= float64(md.Clicks) ||
		in.Spend >= md.Spend
}

// DaysOfStock is stock over the average daily order rate; nil when either
// stock or orders is zero.
func DaysOfStock(stock, orders float64, periodDays int) *float64 {
	if stock <= 0 || orders <= 0 {
		return nil
	}
	days := periodDays
	if days < 1 {
		days = 1
	}
	daily := orders / float64(days)
	if daily <= 0 {
		return nil
	}
	v := stock / daily
	return &v
}

// Evaluate grades one SKU's advertising health.
func Evaluate(in Input, th tunables.Ads) domain.AdsVerdict {
	in.Impressions = domain.NonNeg(in.Impressions)
	in.Clicks = domain.NonNeg(in.Clicks)
	in.Orders = domain.NonNeg(in.Orders)
	in.Revenue = domain.NonNeg(in.Revenue)
	in.Spend = domain.NonNeg(in.Spend)
	in.DRR = domain.NonNeg(in.DRR)
	in.CTR = domain.NonNeg(in.CTR)
	in.Conv = domain.NonNeg(in.Conv)
	in.Stock = domain.NonNeg(in.Stock)

	if in.Spend <= 0 {
		return domain.AdsVerdict{
			Level:  domain.AdsNeutral,
			Label:  "no spend",
			Reason: "advertising is not spending",
		}
	}

	if !HasEnoughData(in, th.MinData) {
		return domain.AdsVerdict{
			Level: domain.AdsImmature,
			Label: "low data",
			Reason: fmt.Sprintf(
				"raw data: %.0f impressions, %.0f clicks, %.0f spend (floors: %d impressions, %d clicks or %.0f spend)",
				in.Impressions, in.Clicks, in.Spend,
				th.MinData.Impressions, th.MinData.Clicks, th.MinData.Spend),
		}
	}

	daysOfStock := DaysOfStock(in.Stock, in.Orders, in.PeriodDays)

	if in.Stock <= 0 && in.Orders > 0 {
		return domain.AdsVerdict{
			Level:  domain.AdsBad,
			Label:  "out of stock",
			Reason: "zero stock with live demand, advertising only hurts",
		}
	}

	if daysOfStock != nil && *daysOfStock <= th.StockBadDays {
		return domain.AdsVerdict{
			Level:  domain.AdsBad,
			Label:  "stock running out",
			Reason: fmt.Sprintf("about %.1f days of stock left (threshold %.0f)", *daysOfStock, th.StockBadDays),
		}
	}

	if in.DRR >= th.DRRBad {
		return domain.AdsVerdict{
			Level:  domain.AdsBad,
			Label:  "drr too high",
			Reason: fmt.Sprintf("DRR %.1f%% at or above %.0f%%", in.DRR*100, th.DRRBad*100),
		}
	}

	if in.Orders == 0 && in.Clicks >= float64(th.NoOrderClicksBad) {
		return domain.AdsVerdict{
			Level:  domain.AdsBad,
			Label:  "burn without orders",
			Reason: fmt.Sprintf("%.0f clicks and zero orders, the card or price does not convert", in.Clicks),
		}
	}

	if in.Orders == 0 && in.Clicks >= float64(th.NoOrderClicksWarn) {
		return domain.AdsVerdict{
			Level:  domain.AdsWarn,
			Label:  "clicks without orders",
			Reason: fmt.Sprintf("%.0f clicks and zero orders, check price, photos, offer and delivery", in.Clicks),
		}
	}

	if in.Revenue <= 0 && in.Spend >= th.SpendWithoutRevenueBad {
		return domain.AdsVerdict{
			Level:  domain.AdsBad,
			Label:  "spend without revenue",
			Reason: fmt.Sprintf("%.0f spent, zero revenue", in.Spend),
		}
	}

	if in.Revenue <= 0 && in.Spend >= th.SpendWithoutRevenueWarn {
		return domain.AdsVerdict{
			Level:  domain.AdsWarn,
			Label:  "spend without revenue",
			Reason: fmt.Sprintf("%.0f spent, zero revenue, give it time or check attribution", in.Spend),
		}
	}

	var problems []string

	if in.DRR >= th.DRRWarn {
		problems = append(problems, fmt.Sprintf("DRR %.1f%%", in.DRR*100))
	}

	if in.Impressions >= 1000 && in.CTR > 0 && in.CTR < th.CTRBad {
		problems = append(problems, fmt.Sprintf("very low CTR %.2f%%", in.CTR*100))
	} else if in.CTR > 0 && in.CTR < th.CTRLow {
		problems = append(problems, fmt.Sprintf("low CTR %.1f%%", in.CTR*100))
	}

	if in.Conv > 0 && in.Conv < th.ConvLow {
		problems = append(problems, fmt.Sprintf("low conversion %.1f%%", in.Conv*100))
	}

	if daysOfStock != nil && *daysOfStock <= th.StockWarnDays {
		problems = append(problems, fmt.Sprintf("low stock (%.1f days)", *daysOfStock))
	}

	if len(problems) > 0 {
		return domain.AdsVerdict{
			Level:  domain.AdsWarn,
			Label:  "needs attention",
			Reason: strings.Join(problems, "; "),
		}
	}

	if in.Orders > 0 && in.DRR > 0 && in.DRR < th.DRRGood &&
		(daysOfStock == nil || *daysOfStock > th.StockWarnDays) {
		return domain.AdsVerdict{
			Level:  domain.AdsGood,
			Label:  "scale ready",
			Reason: fmt.Sprintf("DRR %.1f%% below %.0f%% and stock is fine", in.DRR*100, th.DRRGood*100),
		}
	}

	return domain.AdsVerdict{
		Level:  domain.AdsNeutral,
		Label:  "ok",
		Reason: "no red or yellow flags",
	}
}
