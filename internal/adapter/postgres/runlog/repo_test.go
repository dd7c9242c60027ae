package runlog_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/agrimatrix/mandi-prices/internal/adapter/postgres/runlog"
	"github.com/agrimatrix/mandi-prices/internal/adapter/postgres/testhelper"
	"github.com/agrimatrix/mandi-prices/internal/domain"
)

// newRepo is a test helper that sets up the DB and returns a ready Repo.
func newRepo(t *testing.T) (*runlog.Repo, *pgxpool.Pool) {
	t.Helper()
	pool := testhelper.SetupTestDB(t)
	return runlog.New(pool), pool
}

func ptrStr(s string) *string { return &s }

func TestRepo_OpenClose_Lifecycle(t *testing.T) {
	t.Parallel()
	repo, pool := newRepo(t)
	ctx := context.Background()

	id, err := repo.Open(ctx, 2500, ptrStr("15/08/2025"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	var status string
	if err := pool.QueryRow(ctx, `SELECT status FROM sync_runs WHERE id = $1`, id).Scan(&status); err != nil {
		t.Fatalf("select status: %v", err)
	}
	if status != string(domain.RunRunning) {
		t.Errorf("status after open = %q, want running", status)
	}

	err = repo.Close(ctx, id, runlog.CloseParams{
		Inserted: 2000,
		Skipped:  495,
		Errors:   5,
		Status:   domain.RunCompletedWithErrors,
		Duration: 90 * time.Second,
	})
	if err != nil {
		t.Fatalf("Close: %v", err)
	}

	var run domain.Run
	err = pool.QueryRow(ctx,
		`SELECT records_fetched, records_inserted, records_skipped, errors, status, duration_ms, source_updated_at
		 FROM sync_runs WHERE id = $1`, id,
	).Scan(&run.RecordsFetched, &run.RecordsInserted, &run.RecordsSkipped,
		&run.Errors, &run.Status, &run.DurationMs, &run.SourceUpdatedAt)
	if err != nil {
		t.Fatalf("select run: %v", err)
	}

	if run.RecordsFetched != 2500 || run.RecordsInserted != 2000 || run.RecordsSkipped != 495 || run.Errors != 5 {
		t.Errorf("unexpected tallies: %+v", run)
	}
	if run.Status != domain.RunCompletedWithErrors {
		t.Errorf("status = %q, want completed_with_errors", run.Status)
	}
	if run.DurationMs != 90000 {
		t.Errorf("duration_ms = %d, want 90000", run.DurationMs)
	}
	if run.SourceUpdatedAt == nil || *run.SourceUpdatedAt != "15/08/2025" {
		t.Errorf("source_updated_at = %v", run.SourceUpdatedAt)
	}
}

func TestRepo_Close_FailedRunKeepsMessage(t *testing.T) {
	t.Parallel()
	repo, pool := newRepo(t)
	ctx := context.Background()

	id, err := repo.Open(ctx, 0, nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	err = repo.Close(ctx, id, runlog.CloseParams{
		Status:       domain.RunFailed,
		ErrorMessage: ptrStr("fetch page at offset 10000: status 503"),
		Duration:     12 * time.Second,
	})
	if err != nil {
		t.Fatalf("Close: %v", err)
	}

	var msg *string
	if err := pool.QueryRow(ctx, `SELECT error_message FROM sync_runs WHERE id = $1`, id).Scan(&msg); err != nil {
		t.Fatalf("select error_message: %v", err)
	}
	if msg == nil || *msg != "fetch page at offset 10000: status 503" {
		t.Errorf("error_message = %v", msg)
	}
}

func TestRepo_Close_UnknownRun(t *testing.T) {
	t.Parallel()
	repo, _ := newRepo(t)

	err := repo.Close(context.Background(), uuid.New(), runlog.CloseParams{
		Status: domain.RunCompleted,
	})
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("Close: error = %v, want ErrNotFound", err)
	}
}

func TestRepo_History_NewestFirst(t *testing.T) {
	t.Parallel()
	repo, _ := newRepo(t)
	ctx := context.Background()

	first, err := repo.Open(ctx, 10, nil)
	if err != nil {
		t.Fatalf("Open first: %v", err)
	}
	time.Sleep(10 * time.Millisecond) // distinct started_at
	second, err := repo.Open(ctx, 20, nil)
	if err != nil {
		t.Fatalf("Open second: %v", err)
	}

	runs, err := repo.History(ctx, 100)
	if err != nil {
		t.Fatalf("History: %v", err)
	}

	posFirst, posSecond := -1, -1
	for i, r := range runs {
		switch r.ID {
		case first:
			posFirst = i
		case second:
			posSecond = i
		}
	}
	if posFirst == -1 || posSecond == -1 {
		t.Fatalf("opened runs missing from history (first=%d second=%d)", posFirst, posSecond)
	}
	if posSecond > posFirst {
		t.Errorf("newer run listed after older one: second at %d, first at %d", posSecond, posFirst)
	}
}

func TestRepo_SweepStale(t *testing.T) {
	t.Parallel()
	repo, pool := newRepo(t)
	ctx := context.Background()

	stale, err := repo.Open(ctx, 100, nil)
	if err != nil {
		t.Fatalf("Open stale: %v", err)
	}
	// Age the row past the cutoff.
	_, err = pool.Exec(ctx,
		`UPDATE sync_runs SET started_at = now() - interval '3 hours' WHERE id = $1`, stale)
	if err != nil {
		t.Fatalf("age stale row: %v", err)
	}

	fresh, err := repo.Open(ctx, 200, nil)
	if err != nil {
		t.Fatalf("Open fresh: %v", err)
	}

	swept, err := repo.SweepStale(ctx, 2*time.Hour)
	if err != nil {
		t.Fatalf("SweepStale: %v", err)
	}
	if swept < 1 {
		t.Errorf("swept = %d, want >= 1", swept)
	}

	var status string
	if err := pool.QueryRow(ctx, `SELECT status FROM sync_runs WHERE id = $1`, stale).Scan(&status); err != nil {
		t.Fatalf("select stale status: %v", err)
	}
	if status != string(domain.RunFailed) {
		t.Errorf("stale status = %q, want failed", status)
	}

	if err := pool.QueryRow(ctx, `SELECT status FROM sync_runs WHERE id = $1`, fresh).Scan(&status); err != nil {
		t.Fatalf("select fresh status: %v", err)
	}
	if status != string(domain.RunRunning) {
		t.Errorf("fresh status = %q, want still running", status)
	}
}
