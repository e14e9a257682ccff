// backend-go/internal/api/handlers/funnel_handler.go
package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/sellerpulse/backend-go/internal/cache"
	"github.com/sellerpulse/backend-go/internal/domain"
	"github.com/sellerpulse/backend-go/internal/service"
	"github.com/sellerpulse/backend-go/internal/store"
	"github.com/sellerpulse/backend-go/internal/tunables"
	"github.com/sellerpulse/backend-go/pkg/logger"
)

type FunnelHandler struct {
	service   *service.EvaluationService
	cache     cache.FunnelCache
	snapshots store.FunnelSnapshotStore
}

func NewFunnelHandler(svc *service.EvaluationService, c cache.FunnelCache, snapshots store.FunnelSnapshotStore) *FunnelHandler {
	return &FunnelHandler{service: svc, cache: c, snapshots: snapshots}
}

func (h *FunnelHandler) days(c *gin.Context) int {
	days := tunables.Current().Forecast.PeriodDays
	if v, err := strconv.Atoi(c.DefaultQuery("days", "")); err == nil && v > 0 {
		days = v
	}
	return days
}

// GetReport serves the funnel report for the trailing window, or a
// stored snapshot when ?date=YYYY-MM-DD is given.
func (h *FunnelHandler) GetReport(c *gin.Context) {
	if date := strings.TrimSpace(c.Query("date")); date != "" {
		h.getSnapshot(c, date)
		return
	}

	days := h.days(c)

	if rows, ok, err := h.cache.Get(c.Request.Context(), days); err != nil {
		logger.Log.Warn().Err(err).Msg("funnel cache read failed")
	} else if ok {
		c.JSON(http.StatusOK, gin.H{"days": days, "rows": rows, "cached": true})
		return
	}

	result, err := h.service.RunCycle(c.Request.Context(), days)
	if err != nil {
		logger.Log.Error().Err(err).Msg("funnel report failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to build funnel report"})
		return
	}

	if err := h.cache.Set(c.Request.Context(), days, result.Funnel); err != nil {
		logger.Log.Warn().Err(err).Msg("funnel cache write failed")
	}

	c.JSON(http.StatusOK, gin.H{"days": days, "rows": result.Funnel, "cached": false})
}

func (h *FunnelHandler) getSnapshot(c *gin.Context, date string) {
	if h.snapshots == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "snapshots are not configured"})
		return
	}

	rows, err := h.snapshots.Get(c.Request.Context(), date)
	if err != nil {
		logger.Log.Error().Err(err).Str("date", date).Msg("snapshot read failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read snapshot"})
		return
	}
	if rows == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no snapshot for date", "date": date})
		return
	}

	c.JSON(http.StatusOK, gin.H{"date": date, "rows": rows})
}

// GetAdsReport serves the advertising verdicts for SKUs that are
// actually spending.
func (h *FunnelHandler) GetAdsReport(c *gin.Context) {
	days := h.days(c)

	var rows []domain.FunnelRow
	if cached, ok, err := h.cache.Get(c.Request.Context(), days); err == nil && ok {
		rows = cached
	} else {
		result, err := h.service.RunCycle(c.Request.Context(), days)
		if err != nil {
			logger.Log.Error().Err(err).Msg("ads report failed")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to build ads report"})
			return
		}
		rows = result.Funnel
		if err := h.cache.Set(c.Request.Context(), days, rows); err != nil {
			logger.Log.Warn().Err(err).Msg("funnel cache write failed")
		}
	}

	type adsRow struct {
		SKU     string            `json:"sku"`
		OfferID string            `json:"offer_id"`
		Name    string            `json:"name"`
		Spend   float64           `json:"spend"`
		Revenue float64           `json:"revenue"`
		DRR     float64           `json:"drr"`
		Verdict domain.AdsVerdict `json:"verdict"`
	}

	out := make([]adsRow, 0, len(rows))
	for _, row := range rows {
		if row.AdSpend <= 0 {
			continue
		}
		out = append(out, adsRow{
			SKU:     row.SKU,
			OfferID: row.OfferID,
			Name:    row.Name,
			Spend:   row.AdSpend,
			Revenue: row.Revenue,
			DRR:     row.DRR,
			Verdict: row.Ads,
		})
	}

	c.JSON(http.StatusOK, gin.H{"days": days, "rows": out})
}

// GetSnapshotDates lists the dates with a stored funnel snapshot,
// newest first.
func (h *FunnelHandler) GetSnapshotDates(c *gin.Context) {
	if h.snapshots == nil {
		c.JSON(http.StatusOK, gin.H{"dates": []string{}})
		return
	}

	dates, err := h.snapshots.Dates(c.Request.Context())
	if err != nil {
		logger.Log.Error().Err(err).Msg("snapshot dates read failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list snapshot dates"})
		return
	}
	if dates == nil {
		dates = []string{}
	}

	c.JSON(http.StatusOK, gin.H{"dates": dates})
}
