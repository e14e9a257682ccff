// backend-go/internal/provider/ozon/client.go
package ozon

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sellerpulse/backend-go/internal/config"
	"github.com/sellerpulse/backend-go/internal/domain"
	"github.com/sellerpulse/backend-go/pkg/logger"
)

const (
	analyticsPath = "/v1/analytics/data"
	stocksPath    = "/v2/analytics/stock_on_warehouses"

	pageLimit = 1000
)

// Client wraps the seller analytics API. All endpoints are POST with
// Client-Id / Api-Key header auth.
type Client struct {
	cfg  config.OzonConfig
	http *http.Client
	now  func() time.Time
}

func NewClient(cfg config.OzonConfig) *Client {
	return &Client{
		cfg: cfg,
		http: &http.Client{
			Timeout: 60 * time.Second,
		},
		now: time.Now,
	}
}

func (c *Client) post(ctx context.Context, path string, body any, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode request %s: %w", path, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build request %s: %w", path, err)
	}
	req.Header.Set("Client-Id", c.cfg.ClientID)
	req.Header.Set("Api-Key", c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("call %s: %w", path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response %s: %w", path, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("ozon %s %d: %s", path, resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	if len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode response %s: %w", path, err)
	}
	return nil
}

// Responses wrap the rows either under result.data or plain data, and
// name the dimension list dimensions or dimension depending on the
// endpoint version. Both shapes are accepted.
type analyticsResponse struct {
	Result *analyticsResult `json:"result"`
	Data   []analyticsRow   `json:"data"`
}

type analyticsResult struct {
	Data []analyticsRow `json:"data"`
}

type analyticsRow struct {
	Dimensions    []analyticsDimension `json:"dimensions"`
	DimensionsAlt []analyticsDimension `json:"dimension"`
	Metrics       []float64            `json:"metrics"`
}

type analyticsDimension struct {
	ID    flexID `json:"id"`
	Value string `json:"value"`
}

// flexID tolerates identifiers serialized either as JSON strings or as
// bare numbers; the API is not consistent across endpoints.
type flexID string

func (f *flexID) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	if s == "null" {
		*f = ""
		return nil
	}
	if len(s) >= 2 && s[0] == '"' {
		var v string
		if err := json.Unmarshal(data, &v); err != nil {
			return err
		}
		*f = flexID(v)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*f = flexID(n.String())
	return nil
}

func (f flexID) String() string { return string(f) }

func (r analyticsResponse) rows() []analyticsRow {
	if r.Result != nil && len(r.Result.Data) > 0 {
		return r.Result.Data
	}
	return r.Data
}

func (r analyticsRow) dims() []analyticsDimension {
	if len(r.Dimensions) > 0 {
		return r.Dimensions
	}
	return r.DimensionsAlt
}

func (d analyticsDimension) key() string {
	if s := strings.TrimSpace(d.ID.String()); s != "" {
		return s
	}
	return strings.TrimSpace(d.Value)
}

func (c *Client) window(days int) (string, string) {
	if days < 1 {
		days = 1
	}
	to := c.now().UTC()
	from := to.AddDate(0, 0, -(days - 1))
	return from.Format("2006-01-02"), to.Format("2006-01-02")
}

// prevWindow is the equal-length window immediately before window(days).
func (c *Client) prevWindow(days int) (string, string) {
	if days < 1 {
		days = 1
	}
	to := c.now().UTC().AddDate(0, 0, -days)
	from := to.AddDate(0, 0, -(days - 1))
	return from.Format("2006-01-02"), to.Format("2006-01-02")
}

// analyticsBySKU pages through /v1/analytics/data with a sku dimension
// and sums each requested metric per SKU.
func (c *Client) analyticsBySKU(ctx context.Context, dateFrom, dateTo string, metrics []string) (map[string]map[string]float64, error) {
	out := map[string]map[string]float64{}
	offset := 0

	for {
		body := map[string]any{
			"date_from": dateFrom,
			"date_to":   dateTo,
			"metrics":   metrics,
			"dimension": []string{"sku"},
			"limit":     pageLimit,
			"offset":    offset,
		}

		var resp analyticsResponse
		if err := c.post(ctx, analyticsPath, body, &resp); err != nil {
			return nil, err
		}

		rows := resp.rows()
		if len(rows) == 0 {
			break
		}

		for _, row := range rows {
			dims := row.dims()
			if len(dims) == 0 || len(row.Metrics) == 0 {
				continue
			}
			sku := dims[0].key()
			if sku == "" {
				continue
			}
			if out[sku] == nil {
				out[sku] = map[string]float64{}
			}
			for i := 0; i < len(row.Metrics) && i < len(metrics); i++ {
				out[sku][metrics[i]] += row.Metrics[i]
			}
		}

		if len(rows) < pageLimit {
			break
		}
		offset += pageLimit
	}

	return out, nil
}

// Sales returns ordered units per SKU.
func (c *Client) Sales(ctx context.Context, days int) (map[string]float64, error) {
	dateFrom, dateTo := c.window(days)
	raw, err := c.analyticsBySKU(ctx, dateFrom, dateTo, []string{"ordered_units"})
	if err != nil {
		return nil, err
	}

	out := make(map[string]float64, len(raw))
	for sku, m := range raw {
		out[sku] = m["ordered_units"]
	}
	return out, nil
}

// PeriodMetrics returns orders, revenue and returns per SKU over the
// trailing window.
func (c *Client) PeriodMetrics(ctx context.Context, days int) (map[string]domain.PeriodMetrics, error) {
	dateFrom, dateTo := c.window(days)
	return c.periodMetrics(ctx, dateFrom, dateTo)
}

// PreviousPeriodMetrics covers the equal-length window immediately
// before the trailing one.
func (c *Client) PreviousPeriodMetrics(ctx context.Context, days int) (map[string]domain.PeriodMetrics, error) {
	dateFrom, dateTo := c.prevWindow(days)
	return c.periodMetrics(ctx, dateFrom, dateTo)
}

// periodMetrics pulls orders and revenue. The returns metric is optional
// on some accounts; its fetch failure degrades to zeros instead of
// failing the whole pull.
func (c *Client) periodMetrics(ctx context.Context, dateFrom, dateTo string) (map[string]domain.PeriodMetrics, error) {
	raw, err := c.analyticsBySKU(ctx, dateFrom, dateTo, []string{"ordered_units", "revenue"})
	if err != nil {
		return nil, err
	}

	out := make(map[string]domain.PeriodMetrics, len(raw))
	for sku, m := range raw {
		out[sku] = domain.PeriodMetrics{
			Orders:  m["ordered_units"],
			Revenue: m["revenue"],
		}
	}

	returns, err := c.analyticsBySKU(ctx, dateFrom, dateTo, []string{"returns"})
	if err != nil {
		logger.Log.Warn().Err(err).Msg("returns metric unavailable, assuming zero returns")
		return out, nil
	}
	for sku, m := range returns {
		pm := out[sku]
		pm.Returns = m["returns"]
		out[sku] = pm
	}

	return out, nil
}

// Traffic returns impressions and clicks per SKU. Search impressions are
// preferred over total views when present; product page views stand in
// for clicks. Unavailable metrics degrade to an empty map.
func (c *Client) Traffic(ctx context.Context, days int) (map[string]domain.Traffic, error) {
	dateFrom, dateTo := c.window(days)
	raw, err := c.analyticsBySKU(ctx, dateFrom, dateTo, []string{"hits_view", "hits_view_search", "hits_view_pdp"})
	if err != nil {
		logger.Log.Warn().Err(err).Msg("traffic metrics unavailable, assuming zero impressions and clicks")
		return map[string]domain.Traffic{}, nil
	}

	out := make(map[string]domain.Traffic, len(raw))
	for sku, m := range raw {
		impressions := m["hits_view_search"]
		if impressions == 0 {
			impressions = m["hits_view"]
		}
		out[sku] = domain.Traffic{
			Impressions: impressions,
			Clicks:      m["hits_view_pdp"],
		}
	}
	return out, nil
}

type stocksResponse struct {
	Result *stocksResult `json:"result"`
}

type stocksResult struct {
	Rows []stockRow `json:"rows"`
}

type stockRow struct {
	SKU              flexID  `json:"sku"`
	FreeToSellAmount float64 `json:"free_to_sell_amount"`
	PromisedAmount   float64 `json:"promised_amount"`
	ReservedAmount   float64 `json:"reserved_amount"`
}

// Stocks returns free and promised amounts per SKU, summed across
// warehouses.
func (c *Client) Stocks(ctx context.Context) (map[string]domain.StockLevels, error) {
	out := map[string]domain.StockLevels{}
	offset := 0

	for {
		body := map[string]any{
			"limit":          pageLimit,
			"offset":         offset,
			"warehouse_type": "ALL",
		}

		var resp stocksResponse
		if err := c.post(ctx, stocksPath, body, &resp); err != nil {
			return nil, err
		}

		var rows []stockRow
		if resp.Result != nil {
			rows = resp.Result.Rows
		}
		if len(rows) == 0 {
			break
		}

		for _, row := range rows {
			sku := strings.TrimSpace(row.SKU.String())
			if sku == "" {
				continue
			}
			levels := out[sku]
			levels.Stock += row.FreeToSellAmount
			levels.InTransit += row.PromisedAmount
			out[sku] = levels
		}

		if len(rows) < pageLimit {
			break
		}
		offset += pageLimit
	}

	return out, nil
}
