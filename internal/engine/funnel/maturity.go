// backend-go/internal/engine/funnel/maturity.go
package funnel

import (
	"github.com/sellerpulse/backend-go/internal/domain"
	"github.com/sellerpulse/backend-go/internal/tunables"
)

// Maturity decides, per metric family, whether enough raw signal exists to
// draw conclusions. Pure function, recomputed on every call.
func Maturity(impressions, clicks, orders float64, th tunables.Maturity) domain.Maturity {
	imp := domain.NonNeg(impressions)
	clk := domain.NonNeg(clicks)
	ord := domain.NonNeg(orders)

	trafficOk := imp >= float64(th.Impressions) || clk >= float64(th.ClicksForCTR)
	cardOk := clk >= float64(th.ClicksForConv) || ord >= float64(th.OrdersForConv)
	postOk := ord >= float64(th.OrdersForRefund)

	return domain.Maturity{
		TrafficOk: trafficOk,
		CardOk:    cardOk,
		PostOk:    postOk,
		OverallOk: trafficOk || cardOk || postOk,
	}
}
