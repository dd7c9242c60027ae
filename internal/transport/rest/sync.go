package rest

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/agrimatrix/mandi-prices/internal/domain"
)

const defaultHistoryLimit = 10

type ingestService interface {
	Execute(ctx context.Context) (*domain.RunSummary, error)
	Status() domain.IngestStatus
}

type runHistory interface {
	History(ctx context.Context, limit int) ([]domain.Run, error)
}

// SyncHandler serves the ingestion trigger and status endpoints.
type SyncHandler struct {
	ingest ingestService
	runs   runHistory
	log    *slog.Logger
}

// NewSyncHandler creates a SyncHandler.
func NewSyncHandler(log *slog.Logger, ingest ingestService, runs runHistory) *SyncHandler {
	return &SyncHandler{
		ingest: ingest,
		runs:   runs,
		log:    log.With("handler", "sync"),
	}
}

// statusResponse is the JSON body of GET /api/v1/sync/status.
type statusResponse struct {
	Scheduler domain.IngestStatus `json:"scheduler"`
	Latest    *domain.Run         `json:"latest"`
	History   []domain.Run        `json:"history"`
}

// Status handles GET /api/v1/sync/status: the ingestion state plus the most
// recent ledger rows.
func (h *SyncHandler) Status(w http.ResponseWriter, r *http.Request) {
	limit := defaultHistoryLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			limit = n
		}
	}

	history, err := h.runs.History(r.Context(), limit)
	if err != nil {
		writeError(w, err)
		return
	}

	resp := statusResponse{
		Scheduler: h.ingest.Status(),
		History:   history,
	}
	if len(history) > 0 {
		resp.Latest = &history[0]
	}

	writeJSON(w, http.StatusOK, resp)
}

// Trigger handles POST /api/v1/sync/trigger: starts a run in the background.
// Responds 409 when a run is already active, 202 otherwise; the run outcome
// lands in the ledger, not in this response.
func (h *SyncHandler) Trigger(w http.ResponseWriter, r *http.Request) {
	if h.ingest.Status().Running {
		writeError(w, domain.ErrRunInProgress)
		return
	}

	h.log.InfoContext(r.Context(), "manual sync triggered")

	// Detached from the request context: the run outlives the HTTP exchange.
	go func() {
		summary, err := h.ingest.Execute(context.Background())
		if err != nil {
			h.log.Error("manual sync failed", slog.String("error", err.Error()))
			return
		}
		h.log.Info("manual sync completed",
			slog.Int("total", summary.Total),
			slog.Int("inserted", summary.Inserted),
			slog.Int("skipped", summary.Skipped),
			slog.Int("errors", summary.Errors),
		)
	}()

	writeJSON(w, http.StatusAccepted, map[string]string{
		"message": "sync started",
	})
}
