// backend-go/cmd/cycle/main.go
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/urfave/cli/v2"

	"github.com/sellerpulse/backend-go/internal/catalog"
	"github.com/sellerpulse/backend-go/internal/config"
	"github.com/sellerpulse/backend-go/internal/provider/ozon"
	"github.com/sellerpulse/backend-go/internal/service"
	"github.com/sellerpulse/backend-go/internal/storage"
	"github.com/sellerpulse/backend-go/internal/store"
	"github.com/sellerpulse/backend-go/internal/store/file"
	"github.com/sellerpulse/backend-go/internal/store/postgres"
	"github.com/sellerpulse/backend-go/internal/tunables"
	"github.com/sellerpulse/backend-go/pkg/logger"
)

func newDaysFlag() *cli.IntFlag {
	return &cli.IntFlag{
		Name:  "days",
		Usage: "Length of the trailing sales window in days (0 uses the configured default)",
	}
}

// buildService wires the evaluation service from configuration. With
// --file-history the smoothing state lives in a local JSON file and no
// database is touched.
func buildService(c *cli.Context, cfg *config.Config) (*service.EvaluationService, func(), error) {
	cleanup := func() {}

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

	if c.Bool("file-history") {
		history = file.NewHistoryStore(filepath.Join(cfg.App.DataDir, "sales_history.json"))
	} else {
		db, err := postgres.NewDB(cfg.Database)
		if err != nil {
			return nil, cleanup, fmt.Errorf("connect database (or pass --file-history): %w", err)
		}
		if err := db.Migrate(c.Context); err != nil {
			db.Close()
			return nil, cleanup, fmt.Errorf("migrate: %w", err)
		}
		cleanup = func() { db.Close() }
		retention := tunables.Current().Forecast
		history = postgres.NewHistoryRepository(db)
		runs = postgres.NewRunRepository(db, retention.MaxLoaderHistoryDays)
		snapshots = postgres.NewFunnelRepository(db, retention.MaxFunnelHistoryDays)
	}

	svc := service.NewEvaluationService(service.Deps{
		Metrics:   ozon.NewClient(cfg.Ozon),
		AdSpend:   ozon.NewAdSpendSource(filepath.Join(cfg.App.DataDir, "ad_spend.json")),
		Catalog:   catalog.NewSource(cfg.App.CatalogPath, filepath.Join(cfg.App.DataDir, "sku_overrides.json")),
		Disabled:  catalog.NewDisabledMap(filepath.Join(cfg.App.DataDir, "disabled.json")),
		History:   history,
		Runs:      runs,
		Snapshots: snapshots,
	})
	return svc, cleanup, nil
}

func buildExporter(cfg *config.Config) *service.Exporter {
	exporter := &service.Exporter{Dir: cfg.App.ExportsDir}
	if cfg.Storage.Enabled {
		client, err := storage.NewMinioClient(cfg.Storage)
		if err != nil {
			logger.Log.Warn().Err(err).Msg("object storage unavailable, exports stay local")
		} else {
			exporter.Storage = client
		}
	}
	return exporter
}

func runCycle(c *cli.Context) error {
	cfg := config.Load()

	svc, cleanup, err := buildService(c, cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	result, err := svc.RunCycle(c.Context, c.Int("days"))
	if err != nil {
		return fmt.Errorf("evaluation cycle: %w", err)
	}

	logger.Log.Info().
		Int("total", result.Total).
		Int("ordered", result.Ordered).
		Int("skipped", result.Skipped).
		Msg("cycle finished")

	if c.Bool("export") {
		path, err := buildExporter(cfg).Export(c.Context, result)
		if err != nil {
			return fmt.Errorf("shipment export: %w", err)
		}
		logger.Log.Info().Str("file", path).Msg("shipment written")
	}

	if c.Bool("json") {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}
	return nil
}

func exportShipment(c *cli.Context) error {
	cfg := config.Load()

	svc, cleanup, err := buildService(c, cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	result, err := svc.RunCycle(c.Context, c.Int("days"))
	if err != nil {
		return fmt.Errorf("evaluation cycle: %w", err)
	}

	path, err := buildExporter(cfg).Export(c.Context, result)
	if err != nil {
		return fmt.Errorf("shipment export: %w", err)
	}
	logger.Log.Info().Str("file", path).Int("ordered", result.Ordered).Msg("shipment written")
	return nil
}

func showConfig(c *cli.Context) error {
	cfg := config.Load()

	tunStore := tunables.NewStore(cfg.App.TunablesPath)
	set, err := tunStore.Load()
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(set)
}

func main() {
	app := &cli.App{
		Name:  "cycle",
		Usage: "Run the per-SKU evaluation cycle from the command line",
		Commands: []*cli.Command{
			{
				Name:  "run",
				Usage: "Run one evaluation cycle",
				Flags: []cli.Flag{
					newDaysFlag(),
					&cli.BoolFlag{
						Name:  "export",
						Usage: "Write the shipment XLSX after the cycle",
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Print the full cycle result as JSON",
					},
					&cli.BoolFlag{
						Name:  "file-history",
						Usage: "Keep smoothing state in a local file instead of the database",
					},
				},
				Action: runCycle,
			},
			{
				Name:  "export",
				Usage: "Run one evaluation cycle and write the shipment XLSX",
				Flags: []cli.Flag{
					newDaysFlag(),
					&cli.BoolFlag{
						Name:  "file-history",
						Usage: "Keep smoothing state in a local file instead of the database",
					},
				},
				Action: exportShipment,
			},
			{
				Name:   "config",
				Usage:  "Print the active thresholds merged over defaults",
				Action: showConfig,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		logger.Log.Fatal().Err(err).Msg("cycle failed")
	}
}
