// backend-go/cmd/server/main.go
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/sellerpulse/backend-go/internal/api"
	"github.com/sellerpulse/backend-go/internal/api/handlers"
	"github.com/sellerpulse/backend-go/internal/cache"
	"github.com/sellerpulse/backend-go/internal/catalog"
	"github.com/sellerpulse/backend-go/internal/config"
	"github.com/sellerpulse/backend-go/internal/pricing"
	"github.com/sellerpulse/backend-go/internal/provider/ozon"
	"github.com/sellerpulse/backend-go/internal/service"
	"github.com/sellerpulse/backend-go/internal/storage"
	"github.com/sellerpulse/backend-go/internal/store"
	"github.com/sellerpulse/backend-go/internal/store/file"
	"github.com/sellerpulse/backend-go/internal/store/postgres"
	"github.com/sellerpulse/backend-go/internal/tunables"
	"github.com/sellerpulse/backend-go/pkg/logger"
)

func main() {
	cfg := config.Load()

	logger.SetLevel(cfg.Server.Mode)
	if cfg.Server.Mode == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx := context.Background()

	tunStore := tunables.NewStore(cfg.App.TunablesPath)
	if set, err := tunStore.Load(); err != nil {
		logger.Log.Warn().Err(err).Msg("tunables load failed, using defaults")
	} else {
		tunables.Swap(set)
	}

	var (
		history   store.HistoryStore
		runs      store.RunHistoryStore
		snapshots store.FunnelSnapshotStore
	)

	db, err := postgres.NewDB(cfg.Database)
	if err != nil {
		logger.Log.Warn().Err(err).Msg("database unavailable, using file history store")
		history = file.NewHistoryStore(filepath.Join(cfg.App.DataDir, "sales_history.json"))
	} else {
		defer db.Close()
		if err := db.Migrate(ctx); err != nil {
			logger.Log.Fatal().Err(err).Msg("migration failed")
		}
		retention := tunables.Current().Forecast
		history = postgres.NewHistoryRepository(db)
		runs = postgres.NewRunRepository(db, retention.MaxLoaderHistoryDays)
		snapshots = postgres.NewFunnelRepository(db, retention.MaxFunnelHistoryDays)
	}

	metrics := ozon.NewClient(cfg.Ozon)
	adSpend := ozon.NewAdSpendSource(filepath.Join(cfg.App.DataDir, "ad_spend.json"))
	reports := ozon.NewReportQueue(filepath.Join(cfg.App.DataDir, "ads_reports.json"))
	products := catalog.NewSource(cfg.App.CatalogPath, filepath.Join(cfg.App.DataDir, "sku_overrides.json"))
	disabled := catalog.NewDisabledMap(filepath.Join(cfg.App.DataDir, "disabled.json"))

	svc := service.NewEvaluationService(service.Deps{
		Metrics:   metrics,
		AdSpend:   adSpend,
		Catalog:   products,
		Disabled:  disabled,
		History:   history,
		Runs:      runs,
		Snapshots: snapshots,
	})

	var objects storage.ObjectStorage
	if cfg.Storage.Enabled {
		client, err := storage.NewMinioClient(cfg.Storage)
		if err != nil {
			logger.Log.Warn().Err(err).Msg("object storage unavailable, exports stay local")
		} else {
			objects = client
		}
	}
	exporter := &service.Exporter{Dir: cfg.App.ExportsDir, Storage: objects}

	funnelCache, err := cache.NewFunnelCache(cfg.Cache)
	if err != nil {
		logger.Log.Warn().Err(err).Msg("redis unavailable, funnel cache disabled")
		funnelCache = cache.NewNoopFunnelCache()
	}

	h := &api.Handlers{
		Funnel: handlers.NewFunnelHandler(svc, funnelCache, snapshots),
		Loader: handlers.NewLoaderHandler(svc, exporter, tunStore, disabled, runs, reports),
	}

	if cfg.Pricing.SheetID != "" {
		pricingSvc, err := pricing.NewService(ctx, cfg.Pricing)
		if err != nil {
			logger.Log.Warn().Err(err).Msg("pricing sheet unavailable")
		} else {
			h.Pricing = handlers.NewPricingHandler(pricingSvc)
		}
	}

	router := api.NewRouter(h, cfg.Server.AllowedOrigins)
	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	go func() {
		logger.Log.Info().Str("port", cfg.Server.Port).Msg("starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Log.Info().Msg("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Log.Fatal().Err(err).Msg("server forced to shutdown")
	}

	logger.Log.Info().Msg("server exiting")
}
