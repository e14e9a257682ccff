// backend-go/internal/api/api.go
package api

import (
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/sellerpulse/backend-go/internal/api/handlers"
	"github.com/sellerpulse/backend-go/internal/api/middleware"
)

// Handlers groups the route handlers the router mounts. A nil handler
// leaves its routes unregistered.
type Handlers struct {
	Funnel  *handlers.FunnelHandler
	Loader  *handlers.LoaderHandler
	Pricing *handlers.PricingHandler
}

func NewRouter(h *Handlers, allowedOrigins []string) *gin.Engine {
	router := gin.New()

	router.Use(middleware.Logger())
	router.Use(middleware.Recovery())

	defaultOrigins := []string{"http://localhost:3000", "http://127.0.0.1:3000"}
	corsConfig := cors.Config{
		AllowOrigins:     defaultOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(allowedOrigins) > 0 {
		normalizedOrigins, allowAll := normalizeAllowedOrigins(allowedOrigins)
		if allowAll {
			corsConfig.AllowOrigins = nil
			corsConfig.AllowOriginFunc = func(origin string) bool { return true }
		} else if len(normalizedOrigins) > 0 {
			corsConfig.AllowOrigins = normalizedOrigins
		}
	}
	router.Use(cors.New(corsConfig))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	apiGroup := router.Group("/api/v1")

	if h != nil {
		if h.Funnel != nil {
			funnelGroup := apiGroup.Group("/funnel")
			{
				funnelGroup.GET("", h.Funnel.GetReport)
				funnelGroup.GET("/ads", h.Funnel.GetAdsReport)
				funnelGroup.GET("/dates", h.Funnel.GetSnapshotDates)
			}
		}

		if h.Loader != nil {
			loaderGroup := apiGroup.Group("/loader")
			{
				loaderGroup.POST("/run", h.Loader.Run)
				loaderGroup.GET("/runs", h.Loader.GetRuns)
				loaderGroup.GET("/config", h.Loader.GetConfig)
				loaderGroup.POST("/config", h.Loader.SaveConfig)
				loaderGroup.GET("/disabled", h.Loader.GetDisabled)
				loaderGroup.POST("/disabled", h.Loader.SetDisabled)
				loaderGroup.GET("/ads-reports", h.Loader.GetAdsReports)
				loaderGroup.POST("/ads-reports", h.Loader.AddAdsReport)
				loaderGroup.DELETE("/ads-reports/:uuid", h.Loader.RemoveAdsReport)
			}
		}

		if h.Pricing != nil {
			apiGroup.GET("/pricing", h.Pricing.GetPricing)
		}
	}

	return router
}

func normalizeAllowedOrigins(origins []string) ([]string, bool) {
	var (
		parsed   []string
		allowAll bool
	)
	for _, origin := range origins {
		parts := strings.Split(origin, ",")
		for _, part := range parts {
			trimmed := strings.TrimSpace(part)
			if trimmed == "" {
				continue
			}
			if trimmed == "*" {
				allowAll = true
				continue
			}
			parsed = append(parsed, trimmed)
		}
	}
	return parsed, allowAll
}
