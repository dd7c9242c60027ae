// Package runlog implements the ingestion run ledger: one audit row per
// execution, opened in running status and closed exactly once with the
// final tallies.
package runlog

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/agrimatrix/mandi-prices/internal/adapter/postgres"
	"github.com/agrimatrix/mandi-prices/internal/domain"
)

// Repo provides run ledger persistence backed by PostgreSQL.
type Repo struct {
	db postgres.Querier
}

// New creates a new run ledger repository.
func New(db postgres.Querier) *Repo {
	return &Repo{db: db}
}

// CloseParams carries the final tallies written when a run terminates.
type CloseParams struct {
	Inserted     int
	Skipped      int
	Errors       int
	Status       domain.RunStatus
	ErrorMessage *string
	Duration     time.Duration
}

const openSQL = `
INSERT INTO sync_runs (id, records_fetched, source_updated_at, status)
VALUES ($1, $2, $3, 'running')`

// Open creates a ledger row in running status and returns its id.
func (r *Repo) Open(ctx context.Context, fetched int, sourceUpdatedAt *string) (uuid.UUID, error) {
	id := uuid.New()

	if _, err := r.db.Exec(ctx, openSQL, id, fetched, sourceUpdatedAt); err != nil {
		return uuid.Nil, postgres.MapError(err, "open run")
	}

	return id, nil
}

const closeSQL = `
UPDATE sync_runs
SET records_inserted = $2,
    records_skipped = $3,
    errors = $4,
    status = $5,
    error_message = $6,
    duration_ms = $7
WHERE id = $1`

// Close records the terminal state of a run. Exactly one Close per Open;
// it is attempted even when the run fails so no execution leaves a row
// permanently in running status (short of a hard process crash).
func (r *Repo) Close(ctx context.Context, id uuid.UUID, p CloseParams) error {
	tag, err := r.db.Exec(ctx, closeSQL,
		id,
		p.Inserted,
		p.Skipped,
		p.Errors,
		p.Status,
		p.ErrorMessage,
		p.Duration.Milliseconds(),
	)
	if err != nil {
		return postgres.MapError(err, "close run")
	}

	if tag.RowsAffected() == 0 {
		return fmt.Errorf("close run %s: %w", id, domain.ErrNotFound)
	}

	return nil
}

const historySQL = `
SELECT id, started_at, records_fetched, records_inserted, records_skipped,
       errors, status, error_message, source_updated_at, duration_ms
FROM sync_runs
ORDER BY started_at DESC
LIMIT $1`

// History returns the most recent runs, newest first.
// Returns an empty slice (not nil) when the ledger is empty.
func (r *Repo) History(ctx context.Context, limit int) ([]domain.Run, error) {
	rows, err := r.db.Query(ctx, historySQL, limit)
	if err != nil {
		return nil, fmt.Errorf("run history: %w", err)
	}
	defer rows.Close()

	runs := []domain.Run{}
	for rows.Next() {
		var run domain.Run
		if err := rows.Scan(
			&run.ID, &run.StartedAt,
			&run.RecordsFetched, &run.RecordsInserted, &run.RecordsSkipped,
			&run.Errors, &run.Status, &run.ErrorMessage, &run.SourceUpdatedAt,
			&run.DurationMs,
		); err != nil {
			return nil, fmt.Errorf("run history: %w", err)
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("run history: %w", err)
	}

	return runs, nil
}

// Latest returns the most recent run, or domain.ErrNotFound when the ledger
// is empty.
func (r *Repo) Latest(ctx context.Context) (*domain.Run, error) {
	runs, err := r.History(ctx, 1)
	if err != nil {
		return nil, err
	}
	if len(runs) == 0 {
		return nil, fmt.Errorf("latest run: %w", domain.ErrNotFound)
	}

	run := runs[0]
	return &run, nil
}

const sweepStaleSQL = `
UPDATE sync_runs
SET status = 'failed',
    error_message = 'marked failed by startup sweep: run never closed'
WHERE status = 'running' AND started_at < $1`

// SweepStale marks runs stuck in running status older than the cutoff as
// failed. A process crash between Open and Close leaves such rows behind;
// the sweep runs at startup so the ledger converges to terminal states.
func (r *Repo) SweepStale(ctx context.Context, olderThan time.Duration) (int64, error) {
	cutoff := time.Now().Add(-olderThan)

	tag, err := r.db.Exec(ctx, sweepStaleSQL, cutoff)
	if err != nil {
		return 0, postgres.MapError(err, "sweep stale runs")
	}

	return tag.RowsAffected(), nil
}
