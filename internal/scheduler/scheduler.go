// Package scheduler triggers the daily ingestion run at a configured
// wall-clock time. It is deliberately thin: the single-flight guard inside
// the ingest service is the authority on whether a run actually starts.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/agrimatrix/mandi-prices/internal/config"
	"github.com/agrimatrix/mandi-prices/internal/domain"
)

type runner interface {
	Execute(ctx context.Context) (*domain.RunSummary, error)
}

// Scheduler fires the ingestion run once per day at the configured time.
type Scheduler struct {
	run    runner
	loc    *time.Location
	hour   int
	minute int
	log    *slog.Logger
}

// New creates a Scheduler from the configuration.
func New(log *slog.Logger, cfg config.SchedulerConfig, run runner) (*Scheduler, error) {
	at, err := config.ParseFetchTime(cfg.FetchTime)
	if err != nil {
		return nil, fmt.Errorf("scheduler: %w", err)
	}

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, fmt.Errorf("scheduler: load timezone %q: %w", cfg.Timezone, err)
	}

	return &Scheduler{
		run:    run,
		loc:    loc,
		hour:   at.Hour(),
		minute: at.Minute(),
		log:    log.With("component", "scheduler"),
	}, nil
}

// Run blocks until ctx is canceled, firing the ingestion run at the
// configured time each day. A tick that lands while a run is still active is
// skipped (the ingest service rejects it); other run failures are logged and
// the loop continues.
func (s *Scheduler) Run(ctx context.Context) error {
	for {
		next := s.nextAfter(time.Now().In(s.loc))
		s.log.InfoContext(ctx, "next scheduled fetch", slog.Time("at", next))

		timer := time.NewTimer(time.Until(next))
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}

		s.log.InfoContext(ctx, "scheduled fetch triggered")
		summary, err := s.run.Execute(ctx)
		switch {
		case errors.Is(err, domain.ErrRunInProgress):
			s.log.WarnContext(ctx, "scheduled fetch skipped: run already in progress")
		case err != nil:
			s.log.ErrorContext(ctx, "scheduled fetch failed", slog.String("error", err.Error()))
		default:
			s.log.InfoContext(ctx, "scheduled fetch completed",
				slog.Int("total", summary.Total),
				slog.Int("inserted", summary.Inserted),
				slog.Int("skipped", summary.Skipped),
				slog.Int("errors", summary.Errors),
			)
		}
	}
}

// nextAfter returns the next occurrence of the configured wall-clock time
// strictly after now.
func (s *Scheduler) nextAfter(now time.Time) time.Time {
	next := time.Date(now.Year(), now.Month(), now.Day(), s.hour, s.minute, 0, 0, s.loc)
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}
