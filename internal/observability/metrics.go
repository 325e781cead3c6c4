package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	registry *prometheus.Registry

	// HTTP request rate. Watch for: sudden drops (service down) or spikes (traffic surge).
	HTTPRequestsTotal *prometheus.CounterVec

	// HTTP request latency per request. Watch for: p95/p99 latency increases.
	HTTPRequestDuration *prometheus.HistogramVec

	// Concurrent requests in flight.
	HTTPRequestsInFlight prometheus.Gauge

	// OpenWeatherMap API call rate per endpoint (weather, forecast). Watch for: error vs success ratio.
	WeatherAPICallsTotal *prometheus.CounterVec

	// External API latency per request. Watch for: p95 > 2s (upstream degradation).
	WeatherAPIDuration *prometheus.HistogramVec

	// Dashboard actions by outcome (success or error category).
	DashboardActionsTotal *prometheus.CounterVec

	// Days emitted per forecast aggregation. Anything below 5 means a short provider horizon.
	ForecastDaysEmitted prometheus.Histogram

	// Geolocation lookups by outcome (success, unavailable).
	GeolocationLookupsTotal *prometheus.CounterVec

	// Preference store failures by backend and operation.
	PrefsErrorsTotal *prometheus.CounterVec

	// Rate limit denials. Watch for: a client hammering the action endpoints.
	RateLimitDeniedTotal prometheus.Counter
)

func init() {
	registry = prometheus.NewRegistry()

	registry.MustRegister(
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewGoCollector(),
	)

	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "httpRequestsTotal",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "statusCode"},
	)
	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "httpRequestDurationSeconds",
			Help:    "HTTP request latency in seconds (per request)",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)
	HTTPRequestsInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "httpRequestsInFlight",
			Help: "Number of HTTP requests currently being served",
		},
	)
	WeatherAPICallsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "weatherApiCallsTotal",
			Help: "Total number of OpenWeatherMap API calls",
		},
		[]string{"endpoint", "status"},
	)
	WeatherAPIDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "weatherApiDurationSeconds",
			Help:    "OpenWeatherMap API latency in seconds (per request)",
			Buckets: []float64{.1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"endpoint", "status"},
	)
	DashboardActionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dashboardActionsTotal",
			Help: "Dashboard actions (search, search_coords, search_my_coords, refresh, locate, auto_detect, theme) by outcome",
		},
		[]string{"action", "outcome"},
	)
	ForecastDaysEmitted = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "forecastDaysEmitted",
			Help:    "Daily summaries produced per forecast aggregation",
			Buckets: []float64{0, 1, 2, 3, 4, 5},
		},
	)
	GeolocationLookupsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "geolocationLookupsTotal",
			Help: "Geolocation lookups by outcome",
		},
		[]string{"outcome"},
	)
	PrefsErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "prefsErrorsTotal",
			Help: "Preference store errors by backend and operation",
		},
		[]string{"backend", "op"},
	)
	RateLimitDeniedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "rateLimitDeniedTotal",
			Help: "Total number of requests denied by rate limiter (429)",
		},
	)

	registry.MustRegister(
		HTTPRequestsTotal, HTTPRequestDuration, HTTPRequestsInFlight,
		WeatherAPICallsTotal, WeatherAPIDuration,
		DashboardActionsTotal, ForecastDaysEmitted,
		GeolocationLookupsTotal, PrefsErrorsTotal,
		RateLimitDeniedTotal,
	)
}

// RecordAction records the outcome of one dashboard action.
// outcome is "success" or an error category label.
func RecordAction(action, outcome string) {
	if outcome == "" {
		outcome = "success"
	}
	DashboardActionsTotal.WithLabelValues(action, outcome).Inc()
}

// MetricsHandler returns an http.Handler that serves application and runtime metrics.
func MetricsHandler() http.Handler {
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
}
