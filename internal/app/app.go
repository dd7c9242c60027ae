// Package app wires configuration, logging, storage, services, the HTTP
// server, and the scheduler into a running process.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/agrimatrix/mandi-prices/internal/adapter/opengov"
	"github.com/agrimatrix/mandi-prices/internal/adapter/postgres"
	"github.com/agrimatrix/mandi-prices/internal/adapter/postgres/commodity"
	"github.com/agrimatrix/mandi-prices/internal/adapter/postgres/price"
	"github.com/agrimatrix/mandi-prices/internal/adapter/postgres/region"
	"github.com/agrimatrix/mandi-prices/internal/adapter/postgres/runlog"
	"github.com/agrimatrix/mandi-prices/internal/config"
	"github.com/agrimatrix/mandi-prices/internal/scheduler"
	"github.com/agrimatrix/mandi-prices/internal/service/catalog"
	"github.com/agrimatrix/mandi-prices/internal/service/ingest"
	"github.com/agrimatrix/mandi-prices/internal/transport/rest"
)

// Run is the application entry point. It loads configuration, connects to
// the database, applies migrations, sweeps stale ledger rows, and serves the
// API until ctx is canceled, after which the server drains gracefully.
func Run(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := NewLogger(cfg.Log)

	logger.Info("starting application",
		slog.String("version", BuildVersion()),
		slog.String("log_level", cfg.Log.Level),
	)

	pool, err := postgres.NewPool(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer pool.Close()

	if err := postgres.Migrate(ctx, cfg.Database.DSN); err != nil {
		return err
	}

	runs := runlog.New(pool)

	// Runs left in running status by a crashed process are reconciled here.
	if swept, err := runs.SweepStale(ctx, cfg.Scheduler.StaleRunAfter); err != nil {
		return fmt.Errorf("sweep stale runs: %w", err)
	} else if swept > 0 {
		logger.Warn("stale running ledger rows marked failed", slog.Int64("count", swept))
	}

	ingestSvc := ingest.NewService(
		logger,
		opengov.NewClient(cfg.OpenGov, logger),
		region.New(pool),
		commodity.New(pool),
		price.New(pool),
		runs,
		ingest.Options{
			Workers:   cfg.Scheduler.IngestWorkers,
			Schedule:  fmt.Sprintf("daily at %s %s", cfg.Scheduler.FetchTime, cfg.Scheduler.Timezone),
			Scheduled: cfg.Scheduler.Enabled,
		},
	)

	catalogSvc := catalog.NewService(logger, price.New(pool), region.New(pool), commodity.New(pool))

	router := rest.NewRouter(rest.RouterDeps{
		Logger: logger,
		CORS:   cfg.CORS,
		Health: rest.NewHealthHandler(pool, BuildVersion()),
		Prices: rest.NewPriceHandler(catalogSvc),
		Sync:   rest.NewSyncHandler(logger, ingestSvc, runs),
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server listening", slog.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	if cfg.Scheduler.Enabled {
		sched, err := scheduler.New(logger, cfg.Scheduler, ingestSvc)
		if err != nil {
			return err
		}
		go func() {
			if err := sched.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("scheduler stopped", slog.String("error", err.Error()))
			}
		}()
	}

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown http server: %w", err)
	}

	// Give an in-flight run a moment to close its ledger row.
	time.Sleep(100 * time.Millisecond)

	logger.Info("stopped")
	return nil
}
