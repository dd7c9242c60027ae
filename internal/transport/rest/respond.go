// Package rest exposes the read-only query API, the sync trigger/status
// endpoints, and the health probes over plain net/http.
package rest

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/agrimatrix/mandi-prices/internal/domain"
)

// errorResponse is the JSON body for all error replies.
type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}

// writeError maps domain errors onto HTTP status codes.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	msg := "internal server error"

	switch {
	case errors.Is(err, domain.ErrValidation):
		status = http.StatusBadRequest
		msg = err.Error()
	case errors.Is(err, domain.ErrNotFound):
		status = http.StatusNotFound
		msg = "not found"
	case errors.Is(err, domain.ErrRunInProgress):
		status = http.StatusConflict
		msg = err.Error()
	}

	writeJSON(w, status, errorResponse{Error: msg})
}
