package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/kjstillabower/weather-dashboard/internal/client"
	"github.com/kjstillabower/weather-dashboard/internal/dashboard"
	"github.com/kjstillabower/weather-dashboard/internal/lifecycle"
	"github.com/kjstillabower/weather-dashboard/internal/models"
	"github.com/kjstillabower/weather-dashboard/internal/traffic"
	"github.com/kjstillabower/weather-dashboard/internal/view"
)

// Session is the set of dashboard actions the HTTP surface exposes.
type Session interface {
	SearchByCity(ctx context.Context, name string) error
	SearchMyCoordinates(ctx context.Context, lat, lon float64) error
	UseMyLocation(ctx context.Context) error
	Refresh(ctx context.Context) error
	ToggleTheme(ctx context.Context) (models.Theme, error)
}

// Board serves what the page currently shows.
type Board interface {
	Snapshot() view.Snapshot
}

// HealthConfig holds thresholds for the health handler.
type HealthConfig struct {
	DegradedWindow   time.Duration
	DegradedErrorPct int
	// PrefsPing, when set, is called to check preference store reachability.
	PrefsPing func(ctx context.Context) error
}

// Handler holds dependencies for HTTP handlers.
type Handler struct {
	session          Session
	board            Board
	healthConfig     *HealthConfig
	logger           *zap.Logger
	healthStatusMu   sync.Mutex
	healthStatusPrev string
}

// NewHandler returns a new Handler.
func NewHandler(session Session, board Board, healthConfig *HealthConfig, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		session:      session,
		board:        board,
		healthConfig: healthConfig,
		logger:       logger,
	}
}

// GetState handles GET /api/state.
func (h *Handler) GetState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.board.Snapshot())
}

// PostSearch handles POST /api/search with body {"city": "..."}.
func (h *Handler) PostSearch(w http.ResponseWriter, r *http.Request) {
	var body struct {
		City string `json:"city"`
	}
	if !decodeBody(w, r, &body) {
		return
	}
	h.respond(w, r, h.session.SearchByCity(r.Context(), body.City))
}

// PostSearchCoords handles POST /api/search/coords with body {"lat": .., "lon": ..}.
// The browser resolves its own position and posts it here; it becomes the
// last location loaded on the next start.
func (h *Handler) PostSearchCoords(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Lat *float64 `json:"lat"`
		Lon *float64 `json:"lon"`
	}
	if !decodeBody(w, r, &body) {
		return
	}
	if body.Lat == nil || body.Lon == nil {
		writeError(w, r, http.StatusBadRequest, "INVALID_COORDINATES", "lat and lon are required")
		return
	}
	h.respond(w, r, h.session.SearchMyCoordinates(r.Context(), *body.Lat, *body.Lon))
}

// PostLocate handles POST /api/locate using the server-side locator.
func (h *Handler) PostLocate(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r, h.session.UseMyLocation(r.Context()))
}

// PostRefresh handles POST /api/refresh.
func (h *Handler) PostRefresh(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r, h.session.Refresh(r.Context()))
}

// PostTheme handles POST /api/theme. A persistence failure is logged; the
// toggled theme is still returned.
func (h *Handler) PostTheme(w http.ResponseWriter, r *http.Request) {
	if _, err := h.session.ToggleTheme(r.Context()); err != nil {
		loggerFrom(r, h.logger).Warn("theme not persisted", zap.Error(err))
	}
	writeJSON(w, http.StatusOK, h.board.Snapshot())
}

// respond writes the board snapshot on success, or the mapped error. The
// user-facing message matches the status line the session set.
func (h *Handler) respond(w http.ResponseWriter, r *http.Request, err error) {
	if err == nil {
		writeJSON(w, http.StatusOK, h.board.Snapshot())
		return
	}
	status, code := errorStatus(err)
	loggerFrom(r, h.logger).Debug("action error", zap.String("code", code), zap.Error(err))
	writeError(w, r, status, code, dashboard.Message(err))
}

// errorStatus maps an action error to an HTTP status and error code.
func errorStatus(err error) (int, string) {
	var valErr *dashboard.ValidationError
	var geoErr *dashboard.GeolocationError
	switch {
	case errors.As(err, &valErr):
		return http.StatusBadRequest, "INVALID_LOCATION"
	case errors.Is(err, dashboard.ErrNoQuery):
		return http.StatusBadRequest, "NO_QUERY"
	case errors.Is(err, dashboard.ErrGeolocationUnsupported), errors.As(err, &geoErr):
		return http.StatusServiceUnavailable, "GEOLOCATION_UNAVAILABLE"
	case errors.Is(err, client.ErrNotFound):
		return http.StatusNotFound, "LOCATION_NOT_FOUND"
	case errors.Is(err, client.ErrAuth):
		return http.StatusBadGateway, "UPSTREAM_AUTH"
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "UPSTREAM_TIMEOUT"
	}
	return http.StatusBadGateway, "UPSTREAM_ERROR"
}

func decodeBody(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, 4<<10)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, r, http.StatusBadRequest, "INVALID_REQUEST", "request body must be JSON")
		return false
	}
	return true
}

// healthResult holds the computed health status and metadata for logging.
type healthResult struct {
	status     string
	statusCode int
	reason     string
}

// GetHealth handles GET /health.
func (h *Handler) GetHealth(w http.ResponseWriter, r *http.Request) {
	result := h.computeHealthStatus()

	h.healthStatusMu.Lock()
	prev := h.healthStatusPrev
	if prev != "" && prev != result.status {
		h.logger.Info("health status transition",
			zap.String("previous_status", prev),
			zap.String("current_status", result.status),
			zap.String("reason", result.reason))
	}
	h.healthStatusPrev = result.status
	h.healthStatusMu.Unlock()

	checks := make(map[string]string)
	if result.status == "degraded" {
		checks["weatherApi"] = "unhealthy"
	} else {
		checks["weatherApi"] = "healthy"
	}
	if h.healthConfig != nil && h.healthConfig.PrefsPing != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		if h.healthConfig.PrefsPing(ctx) == nil {
			checks["prefs"] = "healthy"
		} else {
			checks["prefs"] = "unhealthy"
		}
		cancel()
	}
	body := map[string]interface{}{
		"status":    result.status,
		"service":   "weather-dashboard",
		"version":   "dev",
		"checks":    checks,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}
	if h.healthConfig != nil && h.healthConfig.DegradedWindow > 0 {
		window := h.healthConfig.DegradedWindow
		denied := traffic.DenialCount(window)
		if denied > 0 {
			checks["rateLimit"] = "throttling"
		} else {
			checks["rateLimit"] = "healthy"
		}
		body["traffic"] = map[string]interface{}{
			"window":   window.String(),
			"requests": traffic.RequestCount(window),
			"denied":   denied,
		}
	}
	writeJSON(w, result.statusCode, body)
}

// computeHealthStatus evaluates shutting-down, then degraded, then healthy.
// Degraded means the share of failed dashboard actions in the window reached
// the configured percentage.
func (h *Handler) computeHealthStatus() healthResult {
	if lifecycle.IsShuttingDown() {
		return healthResult{"shutting-down", http.StatusServiceUnavailable, "signal"}
	}
	if h.healthConfig != nil && h.healthConfig.DegradedWindow > 0 && h.healthConfig.DegradedErrorPct > 0 {
		errs, total := traffic.ErrorRate(h.healthConfig.DegradedWindow)
		if total > 0 {
			pct := float64(errs) * 100 / float64(total)
			if pct >= float64(h.healthConfig.DegradedErrorPct) {
				return healthResult{"degraded", http.StatusServiceUnavailable, "error_rate_breach"}
			}
		}
	}
	return healthResult{"healthy", http.StatusOK, ""}
}

// writeJSON writes a JSON response with the specified HTTP status code.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError writes an error response in the standard error format with code, message,
// and requestId (correlation ID) if available in request context.
func writeError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	corrID, _ := r.Context().Value("correlation_id").(string)
	writeJSON(w, status, map[string]interface{}{
		"error": map[string]string{
			"code":      code,
			"message":   message,
			"requestId": corrID,
		},
	})
}

// loggerFrom returns the request-scoped logger, or fallback.
func loggerFrom(r *http.Request, fallback *zap.Logger) *zap.Logger {
	if logger, ok := r.Context().Value("logger").(*zap.Logger); ok && logger != nil {
		return logger
	}
	return fallback
}
