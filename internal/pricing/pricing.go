// backend-go/internal/pricing/pricing.go
package pricing

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"github.com/sellerpulse/backend-go/internal/config"
	"github.com/sellerpulse/backend-go/pkg/logger"
)

// Entry is one SKU's pricing row from the spreadsheet.
type Entry struct {
	SKU          string  `json:"sku"`
	OfferID      string  `json:"offer_id"`
	CostPrice    float64 `json:"cost_price"`
	Logistics    float64 `json:"logistics"`
	MinPrice     float64 `json:"min_price"`
	MaxPrice     float64 `json:"max_price"`
	TargetMargin float64 `json:"target_margin"`
}

// Service reads cost and margin data from a Google Sheets range.
// Columns, in order: sku, offer_id, cost_price, logistics, min_price,
// max_price, target_margin. Results are cached in memory and in a JSON
// file, so the last known prices survive a Sheets outage or restart.
type Service struct {
	cfg config.PricingConfig
	srv *sheets.Service
	now func() time.Time

	mu      sync.Mutex
	cache   map[string]Entry
	cacheAt time.Time
}

func NewService(ctx context.Context, cfg config.PricingConfig) (*Service, error) {
	if cfg.SheetID == "" {
		return nil, fmt.Errorf("pricing sheet id must be provided")
	}
	if cfg.CredentialsJSON == "" {
		return nil, fmt.Errorf("pricing service account credentials must be provided")
	}

	jwt, err := google.JWTConfigFromJSON([]byte(cfg.CredentialsJSON), sheets.SpreadsheetsReadonlyScope)
	if err != nil {
		return nil, fmt.Errorf("parse pricing credentials: %w", err)
	}

	srv, err := sheets.NewService(ctx, option.WithHTTPClient(jwt.Client(ctx)))
	if err != nil {
		return nil, fmt.Errorf("create sheets client: %w", err)
	}

	return &Service{cfg: cfg, srv: srv, now: time.Now}, nil
}

// Map returns pricing keyed by SKU and, additionally, by offer_id.
// A fresh in-memory cache is served as-is; otherwise the sheet is
// re-fetched, falling back to the file cache when the fetch fails.
func (s *Service) Map(ctx context.Context, forceRefresh bool) (map[string]Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ttl := time.Duration(s.cfg.TTLSeconds) * time.Second
	if ttl <= 0 {
		ttl = time.Hour
	}

	if !forceRefresh && s.cache != nil && s.now().Sub(s.cacheAt) < ttl {
		return s.cache, nil
	}

	if s.cache == nil {
		s.cache = s.loadFile()
		s.cacheAt = s.now()
	}

	fresh, err := s.fetch(ctx)
	if err != nil {
		logger.Log.Warn().Err(err).Msg("pricing refresh failed, serving last known prices")
		return s.cache, nil
	}

	s.cache = fresh
	s.cacheAt = s.now()
	s.saveFile(fresh)
	return fresh, nil
}

// ForKey looks one SKU or offer_id up.
func (s *Service) ForKey(ctx context.Context, key string) (Entry, bool, error) {
	m, err := s.Map(ctx, false)
	if err != nil {
		return Entry{}, false, err
	}
	e, ok := m[strings.TrimSpace(key)]
	return e, ok, nil
}

func (s *Service) fetch(ctx context.Context) (map[string]Entry, error) {
	resp, err := s.srv.Spreadsheets.Values.Get(s.cfg.SheetID, s.cfg.Range).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("read pricing range: %w", err)
	}

	out := map[string]Entry{}
	for _, row := range resp.Values {
		cell := func(i int) string {
			if i >= len(row) {
				return ""
			}
			return strings.TrimSpace(fmt.Sprint(row[i]))
		}

		sku, offerID := cell(0), cell(1)
		if sku == "" && offerID == "" {
			continue
		}

		entry := Entry{
			SKU:          sku,
			OfferID:      offerID,
			CostPrice:    toNumber(cell(2)),
			Logistics:    toNumber(cell(3)),
			MinPrice:     toNumber(cell(4)),
			MaxPrice:     toNumber(cell(5)),
			TargetMargin: toNumber(cell(6)),
		}

		if sku != "" {
			out[sku] = entry
		}
		if offerID != "" {
			if _, taken := out[offerID]; !taken {
				out[offerID] = entry
			}
		}
	}

	logger.Log.Info().Int("count", len(out)).Msg("pricing loaded from sheet")
	return out, nil
}

func (s *Service) loadFile() map[string]Entry {
	raw, err := os.ReadFile(s.cfg.CacheFile)
	if err != nil || len(raw) == 0 {
		return map[string]Entry{}
	}

	out := map[string]Entry{}
	if err := json.Unmarshal(raw, &out); err != nil {
		logger.Log.Warn().Err(err).Str("path", s.cfg.CacheFile).Msg("pricing cache unreadable")
		return map[string]Entry{}
	}
	return out
}

func (s *Service) saveFile(m map[string]Entry) {
	out, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return
	}
	if err := os.MkdirAll(filepath.Dir(s.cfg.CacheFile), 0755); err != nil {
		logger.Log.Warn().Err(err).Msg("pricing cache dir")
		return
	}
	if err := os.WriteFile(s.cfg.CacheFile, out, 0644); err != nil {
		logger.Log.Warn().Err(err).Str("path", s.cfg.CacheFile).Msg("pricing cache write failed")
	}
}

// toNumber parses spreadsheet cells that may carry decimal commas.
func toNumber(v string) float64 {
	v = strings.ReplaceAll(strings.TrimSpace(v), ",", ".")
	if v == "" {
		return 0
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0
	}
	return f
}
