// backend-go/internal/api/handlers/pricing_handler.go
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sellerpulse/backend-go/internal/pricing"
	"github.com/sellerpulse/backend-go/pkg/logger"
)

type PricingHandler struct {
	service *pricing.Service
}

func NewPricingHandler(svc *pricing.Service) *PricingHandler {
	return &PricingHandler{service: svc}
}

// GetPricing serves the cost and margin table keyed by SKU or offer id.
// ?refresh=1 bypasses the memory cache.
func (h *PricingHandler) GetPricing(c *gin.Context) {
	refresh := c.Query("refresh") == "1"

	m, err := h.service.Map(c.Request.Context(), refresh)
	if err != nil {
		logger.Log.Error().Err(err).Msg("pricing fetch failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load pricing"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"pricing": m})
}
