// Package ingest implements the ingestion orchestrator: it fetches the full
// feed, resolves dimensions, writes price facts, and records every execution
// in the run ledger. At most one run is active per process.
package ingest

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/agrimatrix/mandi-prices/internal/adapter/opengov"
	"github.com/agrimatrix/mandi-prices/internal/adapter/postgres/runlog"
	"github.com/agrimatrix/mandi-prices/internal/domain"
)

type feedClient interface {
	FetchAll(ctx context.Context) (*opengov.FetchResult, error)
}

type regionResolver interface {
	ResolveState(ctx context.Context, name string) (int64, error)
	ResolveDistrict(ctx context.Context, stateID int64, name string) (int64, error)
	ResolveMarket(ctx context.Context, districtID int64, name string) (int64, error)
}

type commodityResolver interface {
	Resolve(ctx context.Context, name, variety, grade string) (int64, error)
}

type factWriter interface {
	Insert(ctx context.Context, obs domain.PriceObservation) (bool, error)
}

type runLedger interface {
	Open(ctx context.Context, fetched int, sourceUpdatedAt *string) (uuid.UUID, error)
	Close(ctx context.Context, id uuid.UUID, p runlog.CloseParams) error
}

// Options tunes the orchestrator.
type Options struct {
	// Workers bounds the record fan-out. 1 means sequential processing.
	Workers int
	// Schedule is the configured trigger time, reported via Status only.
	Schedule string
	// Scheduled reports whether the in-process trigger is enabled.
	Scheduled bool
}

// Service sequences fetch, resolve, and write under a single-flight guard.
type Service struct {
	feed        feedClient
	regions     regionResolver
	commodities commodityResolver
	facts       factWriter
	ledger      runLedger
	opts        Options
	log         *slog.Logger

	running atomic.Bool
}

// NewService creates the ingestion orchestrator.
func NewService(
	log *slog.Logger,
	feed feedClient,
	regions regionResolver,
	commodities commodityResolver,
	facts factWriter,
	ledger runLedger,
	opts Options,
) *Service {
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	return &Service{
		feed:        feed,
		regions:     regions,
		commodities: commodities,
		facts:       facts,
		ledger:      ledger,
		opts:        opts,
		log:         log.With("service", "ingest"),
	}
}

// Status reports whether a run is active plus the trigger configuration,
// for external pollers.
func (s *Service) Status() domain.IngestStatus {
	return domain.IngestStatus{
		Running:   s.running.Load(),
		Schedule:  s.opts.Schedule,
		Scheduled: s.opts.Scheduled,
	}
}

// Execute performs one ingestion run and returns its summary.
//
// If a run is already active the call is rejected immediately with
// domain.ErrRunInProgress: no second run starts and no ledger row is opened.
// A fetch failure aborts the run before any ingestion (all-or-nothing fetch);
// record-level failures are counted and never abort the batch. Every
// execution, successful or not, leaves exactly one terminal ledger row.
func (s *Service) Execute(ctx context.Context) (*domain.RunSummary, error) {
	if !s.running.CompareAndSwap(false, true) {
		s.log.WarnContext(ctx, "run rejected: another run is in progress")
		return nil, domain.ErrRunInProgress
	}
	defer s.running.Store(false)

	start := time.Now()
	s.log.InfoContext(ctx, "ingestion run starting")

	fetched, err := s.feed.FetchAll(ctx)
	if err != nil {
		s.failRun(ctx, start, err)
		return nil, err
	}

	sourceUpdated := optional(fetched.SourceUpdatedAt)
	runID, err := s.ledger.Open(ctx, len(fetched.Records), sourceUpdated)
	if err != nil {
		// The run cannot be confidently recorded; surface loudly.
		s.log.ErrorContext(ctx, "open run ledger failed", slog.String("error", err.Error()))
		return nil, err
	}

	tally := s.processRecords(ctx, fetched.Records)

	status := domain.RunCompleted
	var errMsg *string
	switch {
	case tally.canceled:
		status = domain.RunFailed
		errMsg = optional("run aborted before all records were processed: " + context.Cause(ctx).Error())
	case tally.errors.Load() > 0:
		status = domain.RunCompletedWithErrors
	}

	duration := time.Since(start)
	closeErr := s.ledger.Close(context.WithoutCancel(ctx), runID, runlog.CloseParams{
		Inserted:     int(tally.inserted.Load()),
		Skipped:      int(tally.skipped.Load()),
		Errors:       int(tally.errors.Load()),
		Status:       status,
		ErrorMessage: errMsg,
		Duration:     duration,
	})
	if closeErr != nil {
		s.log.ErrorContext(ctx, "close run ledger failed",
			slog.String("run_id", runID.String()),
			slog.String("error", closeErr.Error()),
		)
		return nil, closeErr
	}

	summary := &domain.RunSummary{
		RunID:      runID,
		Status:     status,
		Total:      len(fetched.Records),
		Inserted:   int(tally.inserted.Load()),
		Skipped:    int(tally.skipped.Load()),
		Errors:     int(tally.errors.Load()),
		DurationMs: duration.Milliseconds(),
	}

	s.log.InfoContext(ctx, "ingestion run finished",
		slog.String("run_id", runID.String()),
		slog.String("status", string(status)),
		slog.Int("total", summary.Total),
		slog.Int("inserted", summary.Inserted),
		slog.Int("skipped", summary.Skipped),
		slog.Int("errors", summary.Errors),
		slog.Duration("duration", duration),
	)

	return summary, nil
}

// failRun records a fetch-level failure: the ledger still gets exactly one
// terminal row, with zero counts and the failure message.
func (s *Service) failRun(ctx context.Context, start time.Time, cause error) {
	// Close must happen even when the surrounding run context is being torn down.
	ctx = context.WithoutCancel(ctx)

	runID, err := s.ledger.Open(ctx, 0, nil)
	if err != nil {
		s.log.ErrorContext(ctx, "open run ledger failed after fetch failure",
			slog.String("fetch_error", cause.Error()),
			slog.String("error", err.Error()),
		)
		return
	}

	if err := s.ledger.Close(ctx, runID, runlog.CloseParams{
		Status:       domain.RunFailed,
		ErrorMessage: optional(cause.Error()),
		Duration:     time.Since(start),
	}); err != nil {
		s.log.ErrorContext(ctx, "close run ledger failed after fetch failure",
			slog.String("run_id", runID.String()),
			slog.String("error", err.Error()),
		)
	}
}

// tally accumulates per-run counters. Updated atomically by the workers.
type tally struct {
	inserted atomic.Int64
	skipped  atomic.Int64
	errors   atomic.Int64
	canceled bool
}

// processRecords fans the fetched records out across the bounded worker
// pool. One bad record never aborts the batch: failures are counted and the
// loop continues. The ledger is closed by the caller only after the pool has
// drained. On context cancellation no further records are scheduled and the
// run is marked canceled.
func (s *Service) processRecords(ctx context.Context, records []domain.RawRecord) *tally {
	t := &tally{}
	cache := newResolveCache()

	g := &errgroup.Group{}
	g.SetLimit(s.opts.Workers)

	for _, raw := range records {
		if ctx.Err() != nil {
			t.canceled = true
			break
		}

		g.Go(func() error {
			s.processRecord(ctx, raw, cache, t)
			return nil
		})
	}

	g.Wait() //nolint:errcheck // workers never return errors

	return t
}

// processRecord normalizes one record, resolves its dimensions, and writes
// the fact. All failures are record-scoped.
func (s *Service) processRecord(ctx context.Context, raw domain.RawRecord, cache *resolveCache, t *tally) {
	rec, err := raw.Normalize()
	if err != nil {
		t.errors.Add(1)
		s.logRecordError(ctx, raw, err)
		return
	}

	if !rec.PricesOrdered() {
		// Admissible domain violation: the source does not enforce ordering.
		s.log.WarnContext(ctx, "price ordering violated",
			slog.String("market", rec.Market),
			slog.String("commodity", rec.Commodity),
			slog.Float64("min", rec.MinPrice),
			slog.Float64("modal", rec.ModalPrice),
			slog.Float64("max", rec.MaxPrice),
		)
	}

	marketID, commodityID, err := s.resolveDimensions(ctx, rec, cache)
	if err != nil {
		t.errors.Add(1)
		s.logRecordError(ctx, raw, err)
		return
	}

	inserted, err := s.facts.Insert(ctx, domain.PriceObservation{
		MarketID:    marketID,
		CommodityID: commodityID,
		ArrivalDate: rec.ArrivalDate,
		MinPrice:    rec.MinPrice,
		MaxPrice:    rec.MaxPrice,
		ModalPrice:  rec.ModalPrice,
	})
	if err != nil {
		t.errors.Add(1)
		s.logRecordError(ctx, raw, err)
		return
	}

	if inserted {
		t.inserted.Add(1)
	} else {
		t.skipped.Add(1)
	}
}

// resolveDimensions walks the region hierarchy and the commodity taxonomy,
// consulting the per-run cache before hitting storage.
func (s *Service) resolveDimensions(ctx context.Context, rec *domain.PriceRecord, cache *resolveCache) (marketID, commodityID int64, err error) {
	stateID, err := cache.state(rec.State, func() (int64, error) {
		return s.regions.ResolveState(ctx, rec.State)
	})
	if err != nil {
		return 0, 0, err
	}

	districtID, err := cache.district(stateID, rec.District, func() (int64, error) {
		return s.regions.ResolveDistrict(ctx, stateID, rec.District)
	})
	if err != nil {
		return 0, 0, err
	}

	marketID, err = cache.market(districtID, rec.Market, func() (int64, error) {
		return s.regions.ResolveMarket(ctx, districtID, rec.Market)
	})
	if err != nil {
		return 0, 0, err
	}

	commodityID, err = cache.commodity(rec.Commodity, rec.Variety, rec.Grade, func() (int64, error) {
		return s.commodities.Resolve(ctx, rec.Commodity, rec.Variety, rec.Grade)
	})
	if err != nil {
		return 0, 0, err
	}

	return marketID, commodityID, nil
}

func (s *Service) logRecordError(ctx context.Context, raw domain.RawRecord, err error) {
	level := slog.LevelError
	if errors.Is(err, domain.ErrValidation) {
		level = slog.LevelWarn
	}
	s.log.LogAttrs(ctx, level, "record rejected",
		slog.String("state", raw.State),
		slog.String("market", raw.Market),
		slog.String("commodity", raw.Commodity),
		slog.String("arrival_date", raw.ArrivalDate),
		slog.String("error", err.Error()),
	)
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
