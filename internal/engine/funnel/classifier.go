// backend-go/internal/engine/funnel/classifier.go

// Package funnel diagnoses a SKU's sales funnel: which lifecycle stage it
// is in, what the main problem is and how urgent it is. The classifier is
// an ordered rule list; each rule either stops the evaluation (final
// verdict) or lets later rules refine it. Tags accumulate across rules,
// stage and priority are last-write-wins.
package funnel

import (
	"fmt"

	"github.com/sellerpulse/backend-go/internal/domain"
	"github.com/sellerpulse/backend-go/internal/tunables"
)

// Tag values attached by the classifier.
const (
	TagAssortment   = "assortment"
	TagPublication  = "publication"
	TagAdvertising  = "advertising"
	TagDRR          = "drr"
	TagObservation  = "observation"
	TagLowData      = "low_data"
	TagReturns      = "returns"
	TagQuality      = "quality"
	TagExpectations = "expectations"
	TagCTR          = "ctr"
	TagShowcase     = "showcase"
	TagConversion   = "conversion"
	TagCard         = "card"
	TagScale        = "scale"
)

// Input is the normalized metric set the classifier consumes.
type Input struct {
	Impressions float64
	Clicks      float64
	Orders      float64
	Revenue     float64
	AdSpend     float64
	DRR         float64
	RefundRate  float64
}

// evaluation carries the mutable verdict through the rule chain.
type evaluation struct {
	in   Input
	th   tunables.Funnel
	ctr  float64
	conv float64
	d    domain.Diagnosis
}

// A rule inspects the evaluation and reports whether classification is
// final (stop) or later rules may still refine the verdict (continue).
type rule struct {
	name  string
	apply func(e *evaluation) (stop bool)
}

// rules is evaluated top to bottom; the first rule returning stop wins.
var rules = []rule{
	{"no_data", ruleNoData},
	{"spend_without_orders", ruleSpendWithoutOrders},
	{"immature_overall", ruleImmatureOverall},
	{"refund_critical", ruleRefundCritical},
	{"refund_elevated", ruleRefundElevated},
	{"drr_burn", ruleDRRBurn},
	{"traffic", ruleTraffic},
	{"card", ruleCard},
	{"scale", ruleScale},
	{"fallback", ruleFallback},
}

// ratioColor maps a ratio onto its traffic light: red at or above the bad
// threshold, yellow at or above warn, green otherwise.
func ratioColor(v, warn, bad float64) domain.Color {
	switch {
	case v >= bad:
		return domain.ColorRed
	case v >= warn:
		return domain.ColorYellow
	default:
		return domain.ColorGreen
	}
}

// Classify runs the diagnostic rule chain for one SKU.
func Classify(in Input, th tunables.Funnel) domain.Diagnosis {
	in.Impressions = domain.NonNeg(in.Impressions)
	in.Clicks = domain.NonNeg(in.Clicks)
	in.Orders = domain.NonNeg(in.Orders)
	in.Revenue = domain.NonNeg(in.Revenue)
	in.AdSpend = domain.NonNeg(in.AdSpend)
	in.DRR = domain.NonNeg(in.DRR)
	in.RefundRate = domain.Clamp(in.RefundRate, 0, 1)

	e := &evaluation{
		in:   in,
		th:   th,
		ctr:  domain.SafeDiv(in.Clicks, in.Impressions),
		conv: domain.SafeDiv(in.Orders, in.Clicks),
		d: domain.Diagnosis{
			Stage:          domain.StageUndetermined,
			Priority:       domain.PriorityMedium,
			MainProblem:    "needs manual review",
			Recommendation: "review price, photos, description and competitors",
			Tags:           []string{},
			Maturity:       Maturity(in.Impressions, in.Clicks, in.Orders, th.Maturity),
		},
	}

	// Colors are descriptive, not maturity-gated: computed once at entry.
	e.d.DRRColor = ratioColor(in.DRR, th.DRRWarn, th.DRRBad)
	e.d.RefundColor = ratioColor(in.RefundRate, th.RefundWarn, th.RefundBad)
	e.d.CTR = e.ctr
	e.d.Conv = e.conv

	for _, r := range rules {
		if r.apply(e) {
			break
		}
	}

	return e.d
}

func (e *evaluation) set(stage domain.Stage, priority domain.Priority, problem, rec string, tags ...string) {
	e.d.Stage = stage
	e.d.Priority = priority
	e.d.MainProblem = problem
	e.d.Recommendation = rec
	e.d.Tags = append(e.d.Tags, tags...)
}

func ruleNoData(e *evaluation) bool {
	in := e.in
	if in.Impressions == 0 && in.Clicks == 0 && in.Orders == 0 && in.Revenue == 0 && in.AdSpend == 0 {
		e.set(domain.StageNoData, domain.PriorityLow,
			"no traffic and no sales",
			"check that the listing is published, its price, discounts and category",
			TagAssortment, TagPublication)
		return true
	}
	return false
}

// Spend with zero conversion is actionable regardless of maturity.
func ruleSpendWithoutOrders(e *evaluation) bool {
	if e.in.AdSpend > 0 && e.in.Orders == 0 {
		e.set(domain.StageAdvertising, domain.PriorityHigh,
			"ad spend with zero orders",
			"cut or pause the campaign, review keywords, creatives, price and competitors",
			TagAdvertising, TagDRR)
		return true
	}
	return false
}

func ruleImmatureOverall(e *evaluation) bool {
	if !e.d.Maturity.OverallOk {
		e.set(domain.StageObservation, domain.PriorityLow,
			"not enough data for confident conclusions",
			"let the listing collect impressions, clicks and orders before acting on CTR, conversion or refunds",
			TagObservation, TagLowData)
		return true
	}
	return false
}

func ruleRefundCritical(e *evaluation) bool {
	if e.d.Maturity.PostOk && e.in.RefundRate >= e.th.RefundBad {
		e.set(domain.StagePostSale, domain.PriorityHigh,
			"critically high refund rate",
			"study refund reasons and reviews, fix description, photos, contents and packaging",
			TagReturns, TagQuality, TagExpectations)
		return true
	}
	return false
}

// ruleRefundElevated deliberately continues: the refund tag sticks while a
// later, more severe rule may still override stage and priority.
func ruleRefundElevated(e *evaluation) bool {
	if e.d.Maturity.PostOk && e.in.RefundRate >= e.th.RefundWarn {
		e.set(domain.StagePostSale, domain.PriorityMedium,
			"elevated refund rate",
			"check whether photos or description mislead buyers, look for recurring complaints",
			TagReturns)
	}
	return false
}

func ruleDRRBurn(e *evaluation) bool {
	if e.in.Revenue > 0 && e.in.AdSpend > 0 && e.in.DRR >= e.th.DRRBad {
		e.set(domain.StageAdvertising, domain.PriorityHigh,
			"ad spend ratio eats the margin",
			"lower bids, disable weak campaigns and phrases, strengthen organic reach, adjust price",
			TagAdvertising, TagDRR)
		return true
	}
	return false
}

func ruleTraffic(e *evaluation) bool {
	m := e.d.Maturity
	if !m.TrafficOk {
		if e.d.Stage == domain.StageUndetermined {
			e.set(domain.StageObservation, domain.PriorityLow,
				"not enough traffic data, CTR is not yet meaningful",
				fmt.Sprintf("collect at least %d impressions or %d clicks",
					e.th.Maturity.Impressions, e.th.Maturity.ClicksForCTR),
				TagLowData)
		}
		return false
	}

	if e.in.Impressions > 0 && e.in.Clicks == 0 {
		e.set(domain.StageTraffic, domain.PriorityHigh,
			"impressions without clicks",
			"rework the lead photo, price and title; check promos and search position",
			TagCTR, TagShowcase)
		return true
	}

	if e.ctr < e.th.CTRLow {
		switch {
		case !m.CardOk:
			e.set(domain.StageTraffic, domain.PriorityLow,
				"low CTR, too few clicks to judge the card",
				fmt.Sprintf("collect at least %d clicks or %d orders before acting on conversion",
					e.th.Maturity.ClicksForConv, e.th.Maturity.OrdersForConv),
				TagCTR, TagLowData)
		case e.conv >= e.th.ConvLow:
			e.set(domain.StageTraffic, domain.PriorityMedium,
				"low CTR with healthy conversion, weak thumbnail",
				"improve the lead photo, title, price and badges; compare against competitor listings",
				TagCTR, TagShowcase)
		default:
			e.set(domain.StageTraffic, domain.PriorityMedium,
				"low CTR and low conversion, price or offer issue",
				"revisit the price and the offer against competitors before reworking visuals",
				TagCTR, TagConversion)
		}
	}
	return false
}

func ruleCard(e *evaluation) bool {
	m := e.d.Maturity
	if !m.CardOk {
		if e.d.Stage == domain.StageUndetermined {
			e.set(domain.StageObservation, domain.PriorityLow,
				"not enough card data, conversion is not yet meaningful",
				fmt.Sprintf("collect at least %d clicks or %d orders",
					e.th.Maturity.ClicksForConv, e.th.Maturity.OrdersForConv),
				TagLowData)
		}
		return false
	}

	if e.in.Clicks > 0 && e.in.Orders == 0 {
		e.set(domain.StageCard, domain.PriorityHigh,
			"many clicks, no orders",
			"recheck price, description, photos, reviews and competitors; buyers may browse but not buy",
			TagConversion, TagCard)
		return true
	}

	if e.conv < e.th.ConvLow {
		e.set(domain.StageCard, domain.PriorityMedium,
			"low conversion to order",
			"strengthen in-card photos, the benefits block and objection handling; test price and promos",
			TagConversion)
	}
	return false
}

func ruleScale(e *evaluation) bool {
	if e.d.Maturity.PostOk &&
		e.d.DRRColor == domain.ColorGreen &&
		e.d.RefundColor == domain.ColorGreen &&
		e.ctr >= e.th.CTRLow &&
		e.conv >= e.th.ConvLow {
		e.set(domain.StageScale, domain.PriorityMedium,
			"listing is healthy, ready to push",
			"watch stock levels, test price increases, stronger advertising and assortment around this SKU",
			TagScale)
		return true
	}
	return false
}

func ruleFallback(e *evaluation) bool {
	if e.d.Stage == domain.StageUndetermined {
		e.d.Stage = domain.StageGeneralReview
	}
	return true
}
