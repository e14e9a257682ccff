// backend-go/internal/api/handlers/loader_handler.go
package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/sellerpulse/backend-go/internal/catalog"
	"github.com/sellerpulse/backend-go/internal/provider/ozon"
	"github.com/sellerpulse/backend-go/internal/service"
	"github.com/sellerpulse/backend-go/internal/store"
	"github.com/sellerpulse/backend-go/internal/tunables"
	"github.com/sellerpulse/backend-go/pkg/logger"
)

type LoaderHandler struct {
	service  *service.EvaluationService
	exporter *service.Exporter
	tunables *tunables.Store
	disabled *catalog.DisabledMap
	runs     store.RunHistoryStore
	reports  *ozon.ReportQueue
}

func NewLoaderHandler(svc *service.EvaluationService, exporter *service.Exporter, tun *tunables.Store, disabled *catalog.DisabledMap, runs store.RunHistoryStore, reports *ozon.ReportQueue) *LoaderHandler {
	return &LoaderHandler{
		service:  svc,
		exporter: exporter,
		tunables: tun,
		disabled: disabled,
		runs:     runs,
		reports:  reports,
	}
}

type runRequest struct {
	Days   int  `json:"days"`
	Export bool `json:"export"`
}

// Run executes one evaluation cycle and optionally writes the shipment
// workbook.
func (h *LoaderHandler) Run(c *gin.Context) {
	var req runRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}
	}

	result, err := h.service.RunCycle(c.Request.Context(), req.Days)
	if err != nil {
		logger.Log.Error().Err(err).Msg("evaluation cycle failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "evaluation cycle failed"})
		return
	}

	resp := gin.H{"result": result}
	if req.Export && h.exporter != nil {
		path, err := h.exporter.Export(c.Request.Context(), result)
		if err != nil {
			logger.Log.Error().Err(err).Msg("shipment export failed")
			resp["export_error"] = "shipment export failed"
		} else {
			resp["export_file"] = filepath.Base(path)
		}
	}

	c.JSON(http.StatusOK, resp)
}

// GetRuns lists recent cycle records, newest first.
func (h *LoaderHandler) GetRuns(c *gin.Context) {
	if h.runs == nil {
		c.JSON(http.StatusOK, gin.H{"runs": []store.RunRecord{}})
		return
	}

	limit := 0
	if v, err := strconv.Atoi(c.DefaultQuery("limit", "")); err == nil && v > 0 {
		limit = v
	}

	runs, err := h.runs.Recent(c.Request.Context(), limit)
	if err != nil {
		logger.Log.Error().Err(err).Msg("run history read failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read run history"})
		return
	}
	if runs == nil {
		runs = []store.RunRecord{}
	}

	c.JSON(http.StatusOK, gin.H{"runs": runs})
}

// GetConfig serves the active tunables, or one module of them when
// ?module=forecast|funnel|ads is given.
func (h *LoaderHandler) GetConfig(c *gin.Context) {
	if module := strings.TrimSpace(c.Query("module")); module != "" {
		part, err := h.tunables.LoadModule(module)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"module": module, "config": part})
		return
	}

	set, err := h.tunables.Load()
	if err != nil {
		logger.Log.Warn().Err(err).Msg("tunables load failed, serving defaults")
	}
	c.JSON(http.StatusOK, gin.H{"config": set})
}

// SaveConfig merges a partial JSON patch into the stored overrides and
// publishes the merged result to running cycles.
func (h *LoaderHandler) SaveConfig(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil || len(body) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "empty request body"})
		return
	}

	set, err := h.tunables.Save(json.RawMessage(body))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	set = tunables.Swap(set)
	c.JSON(http.StatusOK, gin.H{"config": set})
}

// GetDisabled lists the SKUs excluded from ordering at runtime.
func (h *LoaderHandler) GetDisabled(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"disabled": h.disabled.All()})
}

type disabledRequest struct {
	SKU      string `json:"sku"`
	Disabled bool   `json:"disabled"`
}

// GetAdsReports lists the performance report requests still waiting for
// a finished file, oldest first.
func (h *LoaderHandler) GetAdsReports(c *gin.Context) {
	if h.reports == nil {
		c.JSON(http.StatusOK, gin.H{"pending": []ozon.PendingReport{}})
		return
	}
	c.JSON(http.StatusOK, gin.H{"pending": h.reports.Pending()})
}

type adsReportRequest struct {
	UUID     string `json:"uuid"`
	DateFrom string `json:"date_from"`
	DateTo   string `json:"date_to"`
}

// AddAdsReport registers a requested performance report UUID for
// polling.
func (h *LoaderHandler) AddAdsReport(c *gin.Context) {
	if h.reports == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "report queue is not configured"})
		return
	}

	var req adsReportRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.UUID) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "uuid is required"})
		return
	}

	err := h.reports.Add(strings.TrimSpace(req.UUID), ozon.ReportMeta{
		DateFrom: req.DateFrom,
		DateTo:   req.DateTo,
	})
	if err != nil {
		logger.Log.Error().Err(err).Msg("report queue save failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to queue report"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"pending": h.reports.Pending()})
}

// RemoveAdsReport drops a consumed or abandoned report request.
func (h *LoaderHandler) RemoveAdsReport(c *gin.Context) {
	if h.reports == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "report queue is not configured"})
		return
	}

	uuid := strings.TrimSpace(c.Param("uuid"))
	if uuid == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "uuid is required"})
		return
	}

	if err := h.reports.Remove(uuid); err != nil {
		logger.Log.Error().Err(err).Msg("report queue save failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to remove report"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"pending": h.reports.Pending()})
}

// SetDisabled toggles one SKU and returns the updated map.
func (h *LoaderHandler) SetDisabled(c *gin.Context) {
	var req disabledRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.SKU) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "sku is required"})
		return
	}

	m, err := h.disabled.Set(strings.TrimSpace(req.SKU), req.Disabled)
	if err != nil {
		logger.Log.Error().Err(err).Str("sku", req.SKU).Msg("disabled map save failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save disabled map"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"disabled": m})
}
