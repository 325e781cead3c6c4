package http

import (
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/kjstillabower/weather-dashboard/internal/observability"
)

// NewRouter wires the page, the /api actions and the operational endpoints.
// Only /api is rate limited and bounded by requestTimeout (0 disables the bound).
func NewRouter(h *Handler, logger *zap.Logger, limiter *rate.Limiter, requestTimeout time.Duration) *mux.Router {
	router := mux.NewRouter()
	router.Use(CorrelationIDMiddleware(logger))
	router.Use(MetricsMiddleware)
	router.HandleFunc("/", h.GetIndex).Methods("GET")
	router.HandleFunc("/health", h.GetHealth).Methods("GET")
	router.Handle("/metrics", observability.MetricsHandler())

	api := router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/state", h.GetState).Methods("GET")

	actions := api.NewRoute().Subrouter()
	actions.Use(RateLimitMiddleware(limiter))
	if requestTimeout > 0 {
		actions.Use(TimeoutMiddleware(requestTimeout))
	}
	actions.HandleFunc("/search", h.PostSearch).Methods("POST")
	actions.HandleFunc("/search/coords", h.PostSearchCoords).Methods("POST")
	actions.HandleFunc("/locate", h.PostLocate).Methods("POST")
	actions.HandleFunc("/refresh", h.PostRefresh).Methods("POST")
	actions.HandleFunc("/theme", h.PostTheme).Methods("POST")
	return router
}
