// backend-go/internal/domain/product.go
package domain

// Product is one trackable catalog entry. MinStock and PackSize are
// optional per-SKU overrides; nil means "use the global default".
type Product struct {
	SKU      string `json:"sku"`
	OfferID  string `json:"offer_id"`
	Name     string `json:"name"`
	Barcode  string `json:"barcode,omitempty"`
	MinStock *int   `json:"min_stock,omitempty"`
	PackSize *int   `json:"pack_size,omitempty"`
	Disabled bool   `json:"disabled,omitempty"`
}

// HistoryEntry is the persisted smoothing state for one SKU. It is owned
// exclusively by the forecast step: created on first sighting, read at the
// start of a cycle, overwritten at the end of the same cycle.
type HistoryEntry struct {
	LastRawSales float64 `json:"last_raw_sales"`
	Smoothed     float64 `json:"smoothed"`
}
