package rest

import (
	"log/slog"
	"net/http"

	"github.com/agrimatrix/mandi-prices/internal/config"
	"github.com/agrimatrix/mandi-prices/internal/transport/middleware"
)

// RouterDeps bundles everything the router needs.
type RouterDeps struct {
	Logger *slog.Logger
	CORS   config.CORSConfig
	Health *HealthHandler
	Prices *PriceHandler
	Sync   *SyncHandler
}

// NewRouter builds the HTTP handler tree with the standard middleware chain.
func NewRouter(deps RouterDeps) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /live", deps.Health.Live)
	mux.HandleFunc("GET /ready", deps.Health.Ready)
	mux.HandleFunc("GET /health", deps.Health.Health)

	mux.HandleFunc("GET /api/v1/prices", deps.Prices.List)
	mux.HandleFunc("GET /api/v1/prices/latest", deps.Prices.Latest)
	mux.HandleFunc("GET /api/v1/states", deps.Prices.States)
	mux.HandleFunc("GET /api/v1/markets", deps.Prices.Markets)
	mux.HandleFunc("GET /api/v1/commodities", deps.Prices.Commodities)

	mux.HandleFunc("GET /api/v1/sync/status", deps.Sync.Status)
	mux.HandleFunc("POST /api/v1/sync/trigger", deps.Sync.Trigger)

	chain := middleware.Chain(
		middleware.RequestID,
		middleware.Recovery(deps.Logger),
		middleware.Logger(deps.Logger),
		middleware.CORS(deps.CORS),
	)

	return chain(mux)
}
