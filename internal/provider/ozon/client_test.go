// backend-go/internal/provider/ozon/client_test.go
package ozon

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sellerpulse/backend-go/internal/config"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c := NewClient(config.OzonConfig{
		BaseURL:  srv.URL,
		ClientID: "client-1",
		APIKey:   "key-1",
	})
	c.now = func() time.Time {
		return time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	}
	return c
}

func TestFlexID_AcceptsStringsAndNumbers(t *testing.T) {
	var v struct {
		A flexID `json:"a"`
		B flexID `json:"b"`
		C flexID `json:"c"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"a":"123","b":456,"c":null}`), &v))
	assert.Equal(t, "123", v.A.String())
	assert.Equal(t, "456", v.B.String())
	assert.Equal(t, "", v.C.String())
}

func TestWindow_DateRanges(t *testing.T) {
	c := NewClient(config.OzonConfig{})
	c.now = func() time.Time {
		return time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	}

	from, to := c.window(7)
	assert.Equal(t, "2025-06-09", from)
	assert.Equal(t, "2025-06-15", to)

	prevFrom, prevTo := c.prevWindow(7)
	assert.Equal(t, "2025-06-02", prevFrom)
	assert.Equal(t, "2025-06-08", prevTo, "previous window ends right before the current one")
}

func TestSales_SendsAuthHeadersAndSumsPages(t *testing.T) {
	page := 0
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "client-1", r.Header.Get("Client-Id"))
		assert.Equal(t, "key-1", r.Header.Get("Api-Key"))
		assert.Equal(t, analyticsPath, r.URL.Path)

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "2025-06-09", body["date_from"])
		assert.Equal(t, "2025-06-15", body["date_to"])

		// First page comes back full so the client asks for a second one.
		if page == 0 {
			page++
			rows := make([]string, 0, pageLimit)
			for i := 0; i < pageLimit; i++ {
				rows = append(rows, fmt.Sprintf(`{"dimensions":[{"id":"%d"}],"metrics":[1]}`, i))
			}
			fmt.Fprintf(w, `{"result":{"data":[%s`, rows[0])
			for _, row := range rows[1:] {
				fmt.Fprintf(w, ",%s", row)
			}
			fmt.Fprint(w, `]}}`)
			return
		}
		fmt.Fprint(w, `{"result":{"data":[{"dimensions":[{"id":"0"}],"metrics":[5]}]}}`)
	})

	sales, err := c.Sales(context.Background(), 7)
	require.NoError(t, err)

	assert.Len(t, sales, pageLimit)
	assert.InDelta(t, 6, sales["0"], 1e-9, "metric values accumulate across pages")
	assert.InDelta(t, 1, sales["999"], 1e-9)
}

func TestSales_AcceptsFlatDataShape(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"data":[{"dimension":[{"id":111,"value":"ignored"}],"metrics":[3]}]}`)
	})

	sales, err := c.Sales(context.Background(), 7)
	require.NoError(t, err)
	assert.InDelta(t, 3, sales["111"], 1e-9)
}

func TestSales_ErrorCarriesStatusAndBody(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"invalid api key"}`, http.StatusForbidden)
	})

	_, err := c.Sales(context.Background(), 7)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "403")
	assert.Contains(t, err.Error(), "invalid api key")
}

func TestTraffic_DegradesToEmptyOnFailure(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusBadRequest)
	})

	traffic, err := c.Traffic(context.Background(), 7)
	require.NoError(t, err)
	assert.Empty(t, traffic)
}

func TestTraffic_PrefersSearchImpressions(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"result":{"data":[
			{"dimensions":[{"id":"A"}],"metrics":[500,300,40]},
			{"dimensions":[{"id":"B"}],"metrics":[200,0,10]}
		]}}`)
	})

	traffic, err := c.Traffic(context.Background(), 7)
	require.NoError(t, err)

	assert.InDelta(t, 300, traffic["A"].Impressions, 1e-9, "search views win when present")
	assert.InDelta(t, 40, traffic["A"].Clicks, 1e-9)
	assert.InDelta(t, 200, traffic["B"].Impressions, 1e-9, "total views stand in when search views are zero")
}

func TestStocks_SumsWarehouses(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, stocksPath, r.URL.Path)
		fmt.Fprint(w, `{"result":{"rows":[
			{"sku":111,"free_to_sell_amount":5,"promised_amount":2},
			{"sku":111,"free_to_sell_amount":3,"promised_amount":0},
			{"sku":"222","free_to_sell_amount":1,"promised_amount":4}
		]}}`)
	})

	stocks, err := c.Stocks(context.Background())
	require.NoError(t, err)

	assert.InDelta(t, 8, stocks["111"].Stock, 1e-9)
	assert.InDelta(t, 2, stocks["111"].InTransit, 1e-9)
	assert.InDelta(t, 1, stocks["222"].Stock, 1e-9)
	assert.InDelta(t, 4, stocks["222"].InTransit, 1e-9)
}
