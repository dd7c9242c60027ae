// Command fetch performs a single ingestion run against the open data API
// and exits. It is intended for manual backfills and for external cron
// setups that do not use the in-process scheduler.
//
// Exit codes: 0 = success, 1 = error.
package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/agrimatrix/mandi-prices/internal/adapter/opengov"
	"github.com/agrimatrix/mandi-prices/internal/adapter/postgres"
	"github.com/agrimatrix/mandi-prices/internal/adapter/postgres/commodity"
	"github.com/agrimatrix/mandi-prices/internal/adapter/postgres/price"
	"github.com/agrimatrix/mandi-prices/internal/adapter/postgres/region"
	"github.com/agrimatrix/mandi-prices/internal/adapter/postgres/runlog"
	"github.com/agrimatrix/mandi-prices/internal/app"
	"github.com/agrimatrix/mandi-prices/internal/config"
	"github.com/agrimatrix/mandi-prices/internal/service/ingest"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger := app.NewLogger(cfg.Log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	ctx, cancel := context.WithTimeout(ctx, 30*time.Minute)
	defer cancel()

	pool, err := postgres.NewPool(ctx, cfg.Database)
	if err != nil {
		logger.Error("connect to database", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer pool.Close()

	if err := postgres.Migrate(ctx, cfg.Database.DSN); err != nil {
		logger.Error("apply migrations", slog.String("error", err.Error()))
		os.Exit(1)
	}

	svc := ingest.NewService(
		logger,
		opengov.NewClient(cfg.OpenGov, logger),
		region.New(pool),
		commodity.New(pool),
		price.New(pool),
		runlog.New(pool),
		ingest.Options{Workers: cfg.Scheduler.IngestWorkers},
	)

	summary, err := svc.Execute(ctx)
	if err != nil {
		logger.Error("ingestion failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger.Info("ingestion completed",
		slog.String("run_id", summary.RunID.String()),
		slog.String("status", string(summary.Status)),
		slog.Int("fetched", summary.Total),
		slog.Int("inserted", summary.Inserted),
		slog.Int("skipped", summary.Skipped),
		slog.Int("errors", summary.Errors),
	)
}
