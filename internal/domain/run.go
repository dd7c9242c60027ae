package domain

import (
	"time"

	"github.com/google/uuid"
)

// RunStatus is the lifecycle state of an ingestion run ledger row.
type RunStatus string

const (
	RunRunning             RunStatus = "running"
	RunCompleted           RunStatus = "completed"
	RunCompletedWithErrors RunStatus = "completed_with_errors"
	RunFailed              RunStatus = "failed"
)

// Run is one ledger row: the audit record of a single ingestion execution.
// A row is created in RunRunning at the start of a run and mutated exactly
// once when the run terminates.
type Run struct {
	ID              uuid.UUID `json:"id"`
	StartedAt       time.Time `json:"started_at"`
	RecordsFetched  int       `json:"records_fetched"`
	RecordsInserted int       `json:"records_inserted"`
	RecordsSkipped  int       `json:"records_skipped"`
	Errors          int       `json:"errors"`
	Status          RunStatus `json:"status"`
	ErrorMessage    *string   `json:"error_message,omitempty"`
	SourceUpdatedAt *string   `json:"source_updated_at,omitempty"`
	DurationMs      int64     `json:"duration_ms"`
}

// RunSummary is returned to the caller of Execute.
type RunSummary struct {
	RunID      uuid.UUID `json:"run_id"`
	Status     RunStatus `json:"status"`
	Total      int       `json:"total"`
	Inserted   int       `json:"inserted"`
	Skipped    int       `json:"skipped"`
	Errors     int       `json:"errors"`
	DurationMs int64     `json:"duration_ms"`
}

// IngestStatus is exposed to external pollers via the sync status endpoint.
type IngestStatus struct {
	Running   bool   `json:"is_running"`
	Schedule  string `json:"schedule,omitempty"`
	Scheduled bool   `json:"is_scheduled"`
}
