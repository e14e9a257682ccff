// backend-go/internal/provider/provider.go
package provider

import (
	"context"

	"github.com/sellerpulse/backend-go/internal/domain"
)

// MetricsProvider pulls per-SKU demand and traffic figures from the
// marketplace analytics API. Maps are keyed by marketplace SKU; a SKU
// absent from a map simply had no activity in the period.
type MetricsProvider interface {
	// Sales returns ordered units per SKU over the trailing window.
	Sales(ctx context.Context, days int) (map[string]float64, error)

	// PeriodMetrics returns orders, revenue and returns per SKU over the
	// trailing window.
	PeriodMetrics(ctx context.Context, days int) (map[string]domain.PeriodMetrics, error)

	// PreviousPeriodMetrics covers the window of equal length immediately
	// before the trailing one, for period-over-period deltas.
	PreviousPeriodMetrics(ctx context.Context, days int) (map[string]domain.PeriodMetrics, error)

	// Traffic returns impressions and clicks per SKU. Implementations
	// degrade to an empty map when the metrics are unavailable.
	Traffic(ctx context.Context, days int) (map[string]domain.Traffic, error)

	// Stocks returns free and promised warehouse amounts per SKU.
	Stocks(ctx context.Context) (map[string]domain.StockLevels, error)
}

// AdSpendProvider yields advertising spend per SKU. The report pipeline
// behind it is asynchronous; an empty map means no finished report.
type AdSpendProvider interface {
	AdSpend(ctx context.Context, days int) (map[string]float64, error)
}

// CatalogProvider lists the products under management.
type CatalogProvider interface {
	Products(ctx context.Context) ([]domain.Product, error)
}
