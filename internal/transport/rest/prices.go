package rest

import (
	"net/http"
	"strconv"

	"github.com/agrimatrix/mandi-prices/internal/service/catalog"
)

// PriceHandler serves the price and dimension listing endpoints.
type PriceHandler struct {
	catalog *catalog.Service
}

// NewPriceHandler creates a PriceHandler.
func NewPriceHandler(catalog *catalog.Service) *PriceHandler {
	return &PriceHandler{catalog: catalog}
}

// List handles GET /api/v1/prices.
func (h *PriceHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	result, err := h.catalog.Prices(r.Context(), catalog.PricesInput{
		State:     q.Get("state"),
		District:  q.Get("district"),
		Market:    q.Get("market"),
		Commodity: q.Get("commodity"),
		DateFrom:  q.Get("date_from"),
		DateTo:    q.Get("date_to"),
		Limit:     intParam(q.Get("limit")),
		Offset:    intParam(q.Get("offset")),
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// Latest handles GET /api/v1/prices/latest.
func (h *PriceHandler) Latest(w http.ResponseWriter, r *http.Request) {
	prices, err := h.catalog.LatestPrices(r.Context(), intParam(r.URL.Query().Get("limit")))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"prices": prices})
}

// States handles GET /api/v1/states.
func (h *PriceHandler) States(w http.ResponseWriter, r *http.Request) {
	states, err := h.catalog.States(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	type stateJSON struct {
		ID   int64  `json:"id"`
		Name string `json:"name"`
	}
	out := make([]stateJSON, len(states))
	for i, s := range states {
		out[i] = stateJSON{ID: s.ID, Name: s.Name}
	}

	writeJSON(w, http.StatusOK, map[string]any{"states": out})
}

// Markets handles GET /api/v1/markets.
func (h *PriceHandler) Markets(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	markets, err := h.catalog.Markets(r.Context(),
		q.Get("state"), q.Get("district"),
		intParam(q.Get("limit")), intParam(q.Get("offset")),
	)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"markets": markets})
}

// Commodities handles GET /api/v1/commodities.
func (h *PriceHandler) Commodities(w http.ResponseWriter, r *http.Request) {
	commodities, err := h.catalog.Commodities(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	type commodityJSON struct {
		ID      int64  `json:"id"`
		Name    string `json:"name"`
		Variety string `json:"variety"`
		Grade   string `json:"grade"`
	}
	out := make([]commodityJSON, len(commodities))
	for i, c := range commodities {
		out[i] = commodityJSON{ID: c.ID, Name: c.Name, Variety: c.Variety, Grade: c.Grade}
	}

	writeJSON(w, http.StatusOK, map[string]any{"commodities": out})
}

// intParam parses a numeric query parameter; malformed or absent values
// fall back to zero (services apply their own defaults).
func intParam(raw string) int {
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0
	}
	return n
}
