package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/wonny/indexpulse/backend/internal/api/handlers"
	"github.com/wonny/indexpulse/backend/internal/api/stream"
	"github.com/wonny/indexpulse/backend/pkg/config"
	"github.com/wonny/indexpulse/backend/pkg/logger"
	"github.com/wonny/indexpulse/backend/pkg/redis"
)

// Handlers bundles everything the router mounts.
type Handlers struct {
	System     *handlers.SystemHandler
	Events     *handlers.EventsHandler
	Premium    *handlers.PremiumHandler
	FundFlow   *handlers.FundFlowHandler
	Indices    *handlers.IndicesHandler
	Market     *handlers.MarketHandler
	Prediction *handlers.PredictionHandler
	Catalog    *handlers.CatalogHandler
}

// NewRouter creates and configures the HTTP router
// ⭐ SSOT: 라우팅 설정은 이 함수에서만
func NewRouter(cfg *config.Config, h Handlers, hub *stream.Hub, limiter *redis.RateLimiter, log *logger.Logger) http.Handler {
	r := mux.NewRouter()

	r.HandleFunc("/", h.System.Banner).Methods("GET")

	api := r.PathPrefix("/api").Subrouter()

	// System
	api.HandleFunc("/health", h.System.Health).Methods("GET")
	api.HandleFunc("/status", h.System.Status).Methods("GET")
	api.HandleFunc("/trigger/{jobName}", h.System.Trigger).Methods("POST")
	api.HandleFunc("/scheduler/status", h.System.SchedulerStatus).Methods("GET")
	api.HandleFunc("/scheduler/start", h.System.SchedulerStart).Methods("POST")
	api.HandleFunc("/scheduler/stop", h.System.SchedulerStop).Methods("POST")

	// Events
	api.HandleFunc("/events", h.Events.List).Methods("GET")
	api.HandleFunc("/events/stats/summary", h.Events.StatsSummary).Methods("GET")
	api.HandleFunc("/events/{id:[0-9]+}", h.Events.Get).Methods("GET")

	// Premium
	api.HandleFunc("/premium", h.Premium.Snapshot).Methods("GET")
	api.HandleFunc("/premium/history/{fundCode}", h.Premium.History).Methods("GET")
	api.HandleFunc("/premium/stats", h.Premium.Stats).Methods("GET")
	api.HandleFunc("/premium/tracked-funds", h.Premium.TrackedFunds).Methods("GET")

	// Fund flow
	api.HandleFunc("/fund-flow/realtime", h.FundFlow.Realtime).Methods("GET")
	api.HandleFunc("/fund-flow/north", h.FundFlow.North).Methods("GET")
	api.HandleFunc("/fund-flow/south", h.FundFlow.South).Methods("GET")
	api.HandleFunc("/fund-flow/north/history", h.FundFlow.NorthHistory).Methods("GET")
	api.HandleFunc("/fund-flow/history", h.FundFlow.History).Methods("GET")
	api.HandleFunc("/fund-flow/stats", h.FundFlow.Stats).Methods("GET")

	// Indices
	api.HandleFunc("/indices", h.Indices.Snapshot).Methods("GET")
	api.HandleFunc("/indices/config/mapping", h.Indices.Mapping).Methods("GET")
	api.HandleFunc("/indices/{code}", h.Indices.Detail).Methods("GET")
	api.HandleFunc("/indices/{code}/history", h.Indices.History).Methods("GET")

	// Market indicators
	api.HandleFunc("/market", h.Market.All).Methods("GET")
	api.HandleFunc("/market/vix", h.Market.VIX).Methods("GET")
	api.HandleFunc("/market/dxy", h.Market.DXY).Methods("GET")
	api.HandleFunc("/market/treasury", h.Market.Treasury).Methods("GET")
	api.HandleFunc("/market/sentiment", h.Market.Sentiment).Methods("GET")

	// Predictions
	api.HandleFunc("/prediction", h.Prediction.All).Methods("GET")
	api.HandleFunc("/prediction/refresh", h.Prediction.Refresh).Methods("POST")
	api.HandleFunc("/prediction/accuracy", h.Prediction.Accuracy).Methods("GET")
	api.HandleFunc("/prediction/{code}", h.Prediction.ByCode).Methods("GET")

	// Catalog
	api.HandleFunc("/catalog", h.Catalog.List).Methods("GET")
	api.HandleFunc("/catalog/sync", h.Catalog.Sync).Methods("POST")

	// Event stream
	api.HandleFunc("/ws/events", func(w http.ResponseWriter, req *http.Request) {
		stream.ServeWS(hub, cfg.CORSOrigins, log, w, req)
	}).Methods("GET")

	r.Use(loggingMiddleware(log))
	r.Use(recoveryMiddleware(log))
	r.Use(corsMiddleware(cfg.CORSOrigins))
	if limiter != nil {
		r.Use(rateLimitMiddleware(limiter, log))
	}

	return r
}
