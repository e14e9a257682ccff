// backend-go/internal/catalog/catalog.go
package catalog

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/sellerpulse/backend-go/internal/domain"
	"github.com/sellerpulse/backend-go/pkg/logger"
)

// CSV serves the product list from a CSV export. The file is read once
// and cached for the process lifetime; a missing or empty file yields an
// empty catalog with a warning rather than an error, so a fresh deploy
// can start before its first export lands.
type CSV struct {
	path string

	once     sync.Once
	products []domain.Product
}

func NewCSV(path string) *CSV {
	return &CSV{path: path}
}

func (c *CSV) Products(ctx context.Context) ([]domain.Product, error) {
	c.once.Do(c.load)

	out := make([]domain.Product, len(c.products))
	copy(out, c.products)
	return out, nil
}

func (c *CSV) load() {
	raw, err := os.ReadFile(c.path)
	if err != nil {
		logger.Log.Warn().Err(err).Str("path", c.path).Msg("product catalog unavailable, starting empty")
		return
	}

	text := strings.TrimPrefix(string(raw), "\uFEFF")
	if strings.TrimSpace(text) == "" {
		logger.Log.Warn().Str("path", c.path).Msg("product catalog is empty")
		return
	}

	reader := csv.NewReader(strings.NewReader(text))
	reader.Comma = detectDelimiter(text)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	records, err := reader.ReadAll()
	if err != nil {
		logger.Log.Warn().Err(err).Str("path", c.path).Msg("product catalog unreadable, starting empty")
		return
	}
	if len(records) < 2 {
		return
	}

	col := headerIndex(records[0])
	skuIdx, ok := col["sku"]
	if !ok {
		logger.Log.Warn().Str("path", c.path).Msg("product catalog has no sku column")
		return
	}

	for _, row := range records[1:] {
		get := func(name string) string {
			ix, ok := col[name]
			if !ok || ix >= len(row) {
				return ""
			}
			return strings.TrimSpace(row[ix])
		}

		sku := strings.TrimSpace(safeIndex(row, skuIdx))
		if sku == "" {
			continue
		}

		c.products = append(c.products, domain.Product{
			SKU:      sku,
			OfferID:  get("offer_id"),
			Name:     get("name"),
			Barcode:  get("barcode"),
			Disabled: parseBool(get("disabled")),
			MinStock: parseOptionalInt(get("min_stock")),
			PackSize: parseOptionalInt(get("pack_size")),
		})
	}

	logger.Log.Info().Int("count", len(c.products)).Str("path", c.path).Msg("product catalog loaded")
}

// detectDelimiter picks the separator that splits the header into the
// most columns; exports arrive with either semicolons or commas.
func detectDelimiter(text string) rune {
	header := text
	if i := strings.IndexAny(text, "\r\n"); i >= 0 {
		header = text[:i]
	}

	best, bestCount := ';', 0
	for _, d := range []rune{';', ','} {
		r := csv.NewReader(strings.NewReader(header))
		r.Comma = d
		r.LazyQuotes = true
		cols, err := r.Read()
		if err == nil && len(cols) > bestCount {
			best, bestCount = d, len(cols)
		}
	}
	return best
}

func headerIndex(header []string) map[string]int {
	col := make(map[string]int, len(header))
	for i, h := range header {
		col[strings.ToLower(strings.TrimSpace(h))] = i
	}
	return col
}

func safeIndex(row []string, ix int) string {
	if ix < 0 || ix >= len(row) {
		return ""
	}
	return row[ix]
}

func parseBool(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes":
		return true
	default:
		return false
	}
}

// parseOptionalInt distinguishes an absent value from an explicit zero.
// Decimal commas are tolerated.
func parseOptionalInt(v string) *int {
	v = strings.TrimSpace(strings.ReplaceAll(v, ",", "."))
	if v == "" {
		return nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return nil
	}
	n := int(f)
	return &n
}

// Source combines the CSV catalog with the per-SKU override file into
// one product lookup.
type Source struct {
	csv           *CSV
	overridesPath string
}

func NewSource(csvPath, overridesPath string) *Source {
	return &Source{csv: NewCSV(csvPath), overridesPath: overridesPath}
}

func (s *Source) Products(ctx context.Context) ([]domain.Product, error) {
	products, err := s.csv.Products(ctx)
	if err != nil {
		return nil, err
	}

	if s.overridesPath == "" {
		return products, nil
	}
	overrides, err := LoadOverrides(s.overridesPath)
	if err != nil {
		return nil, err
	}
	return ApplyOverrides(products, overrides), nil
}

// Override adjusts one SKU away from the config defaults.
type Override struct {
	SKU      string `json:"sku"`
	MinStock *int   `json:"min_stock,omitempty"`
	PackSize *int   `json:"pack_size,omitempty"`
	Disabled *bool  `json:"disabled,omitempty"`
}

// LoadOverrides reads the per-SKU override list. A missing file means no
// overrides.
func LoadOverrides(path string) (map[string]Override, error) {
	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return map[string]Override{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read sku overrides %s: %w", path, err)
	}

	var list []Override
	if err := json.Unmarshal(raw, &list); err != nil {
		return nil, fmt.Errorf("decode sku overrides %s: %w", path, err)
	}

	out := make(map[string]Override, len(list))
	for _, o := range list {
		sku := strings.TrimSpace(o.SKU)
		if sku == "" {
			continue
		}
		o.SKU = sku
		out[sku] = o
	}
	return out, nil
}

// ApplyOverrides merges per-SKU overrides into the catalog rows.
func ApplyOverrides(products []domain.Product, overrides map[string]Override) []domain.Product {
	if len(overrides) == 0 {
		return products
	}

	out := make([]domain.Product, len(products))
	copy(out, products)

	for i := range out {
		o, ok := overrides[out[i].SKU]
		if !ok {
			continue
		}
		if o.MinStock != nil {
			out[i].MinStock = o.MinStock
		}
		if o.PackSize != nil {
			out[i].PackSize = o.PackSize
		}
		if o.Disabled != nil {
			out[i].Disabled = *o.Disabled
		}
	}
	return out
}
