// backend-go/internal/domain/report.go
package domain

// Stage is the lifecycle stage a SKU lands in after diagnosis.
type Stage string

const (
	StageNoData        Stage = "no_data"
	StageAdvertising   Stage = "advertising"
	StageObservation   Stage = "observation"
	StagePostSale      Stage = "post_sale"
	StageTraffic       Stage = "traffic"
	StageCard          Stage = "card"
	StageScale         Stage = "scale"
	StageGeneralReview Stage = "general_review"
	// StageUndetermined is the pre-classification sentinel; it never
	// appears in a final diagnosis.
	StageUndetermined Stage = "undetermined"
)

// Priority of the diagnosed problem.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// Color is a three-level traffic light for a derived ratio.
type Color string

const (
	ColorGreen  Color = "green"
	ColorYellow Color = "yellow"
	ColorRed    Color = "red"
)

// AdsLevel is the five-level advertising health verdict.
type AdsLevel string

const (
	AdsNeutral  AdsLevel = "neutral"
	AdsImmature AdsLevel = "immature"
	AdsBad      AdsLevel = "bad"
	AdsWarn     AdsLevel = "warn"
	AdsGood     AdsLevel = "good"
)

var stageLabels = map[Stage]string{
	StageNoData:        "No data",
	StageAdvertising:   "Advertising",
	StageObservation:   "Observation",
	StagePostSale:      "Post-sale",
	StageTraffic:       "Traffic",
	StageCard:          "Product card",
	StageScale:         "Scaling",
	StageGeneralReview: "General review",
}

// StageLabel returns a human-readable label for a lifecycle stage.
func StageLabel(s Stage) string {
	if label, ok := stageLabels[s]; ok {
		return label
	}

	return "Unknown"
}

// Maturity reports, per metric family, whether enough raw signal exists to
// trust the derived ratios.
type Maturity struct {
	TrafficOk bool `json:"traffic_ok"`
	CardOk    bool `json:"card_ok"`
	PostOk    bool `json:"post_ok"`
	OverallOk bool `json:"overall_ok"`
}

// Diagnosis is the output of the funnel classifier for one SKU.
type Diagnosis struct {
	Stage          Stage    `json:"stage"`
	Priority       Priority `json:"priority"`
	MainProblem    string   `json:"main_problem"`
	Recommendation string   `json:"recommendation"`
	Tags           []string `json:"tags"`
	CTR            float64  `json:"ctr"`
	Conv           float64  `json:"conv"`
	DRRColor       Color    `json:"drr_color"`
	RefundColor    Color    `json:"refund_color"`
	Maturity       Maturity `json:"maturity"`
}

// AdsVerdict is the advertising health verdict for one SKU.
type AdsVerdict struct {
	Level  AdsLevel `json:"level"`
	Label  string   `json:"label"`
	Reason string   `json:"reason"`
}

// ReplenishmentItem is one row of the reorder report.
type ReplenishmentItem struct {
	SKU             string  `json:"sku"`
	OfferID         string  `json:"offer_id"`
	Name            string  `json:"name"`
	Barcode         string  `json:"barcode,omitempty"`
	Stock           float64 `json:"stock"`
	InTransit       float64 `json:"in_transit"`
	RawSales        float64 `json:"raw_sales"`
	RawSalesLong    float64 `json:"raw_sales_long"`
	EffectiveSales  float64 `json:"effective_sales"`
	Spike           bool    `json:"spike"`
	DemandFactor    float64 `json:"demand_factor"`
	TargetDemand    int     `json:"target_demand"`
	NeedRaw         float64 `json:"need_raw"`
	OrderQuantity   int     `json:"order_quantity"`
	Disabled        bool    `json:"disabled"`
	NoData          bool    `json:"no_data"`
	IncludedInOrder bool    `json:"included_in_order"`
}

// FunnelRow is one row of the diagnosis report: the snapshot, its derived
// ratios, the classifier verdicts and period-over-period deltas.
type FunnelRow struct {
	SKU      string `json:"sku"`
	OfferID  string `json:"offer_id"`
	Name     string `json:"name"`
	Disabled bool   `json:"disabled"`

	Impressions float64 `json:"impressions"`
	Clicks      float64 `json:"clicks"`
	Orders      float64 `json:"orders"`
	Revenue     float64 `json:"revenue"`
	Returns     float64 `json:"returns"`
	AdSpend     float64 `json:"ad_spend"`
	Stock       float64 `json:"stock"`

	DRR        float64 `json:"drr"`
	AvgCheck   float64 `json:"avg_check"`
	RefundRate float64 `json:"refund_rate"`

	Diagnosis Diagnosis  `json:"diagnosis"`
	Ads       AdsVerdict `json:"ads"`

	OrdersPrev    float64 `json:"orders_prev"`
	OrdersChange  float64 `json:"orders_change"`
	RevenuePrev   float64 `json:"revenue_prev"`
	RevenueChange float64 `json:"revenue_change"`
	RefundPrev    float64 `json:"refund_prev"`
	RefundChange  float64 `json:"refund_change"`
}
