package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/kjstillabower/weather-dashboard/internal/client"
	"github.com/kjstillabower/weather-dashboard/internal/config"
	"github.com/kjstillabower/weather-dashboard/internal/dashboard"
	"github.com/kjstillabower/weather-dashboard/internal/geo"
	httphandler "github.com/kjstillabower/weather-dashboard/internal/http"
	"github.com/kjstillabower/weather-dashboard/internal/lifecycle"
	"github.com/kjstillabower/weather-dashboard/internal/models"
	"github.com/kjstillabower/weather-dashboard/internal/observability"
	"github.com/kjstillabower/weather-dashboard/internal/prefs"
	"github.com/kjstillabower/weather-dashboard/internal/traffic"
	"github.com/kjstillabower/weather-dashboard/internal/view"
	"github.com/kjstillabower/weather-dashboard/internal/weather"
)

func main() {
	logger, err := observability.NewLogger()
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("config", zap.Error(err))
	}

	source, err := weather.NewOpenWeatherSource(
		client.New(cfg.WeatherAPITimeout),
		cfg.WeatherAPIURL,
		cfg.WeatherAPIKey,
		cfg.WeatherUnits,
	)
	if err != nil {
		logger.Fatal("weather source", zap.Error(err))
	}

	store, err := prefs.Open(prefs.Options{
		Backend:               cfg.PrefsBackend,
		SQLitePath:            cfg.PrefsSQLitePath,
		PostgresDSN:           cfg.PrefsPostgresDSN,
		MemcachedAddrs:        cfg.MemcachedAddrs,
		MemcachedTimeout:      cfg.MemcachedTimeout,
		MemcachedMaxIdleConns: cfg.MemcachedMaxIdleConns,
	})
	if err != nil {
		logger.Fatal("prefs store", zap.Error(err))
	}
	logger.Info("prefs backend ready", zap.String("backend", cfg.PrefsBackend))

	locator := newLocator(cfg)
	if locator == nil {
		logger.Info("geolocation disabled")
	}

	assets := view.NewAssetHost(nil)
	board := view.NewBoard(assets, cfg.IconBaseURL, logger)

	session, err := dashboard.NewSession(context.Background(), dashboard.Options{
		Source:            source,
		Presenter:         board,
		Locator:           locator,
		Store:             store,
		Location:          cfg.Timezone,
		MaxLocationLength: cfg.LocationMaxLength,
		AutoLocateTimeout: cfg.GeoAutoTimeout,
		UserLocateTimeout: cfg.GeoUserTimeout,
		Logger:            logger,
	})
	if err != nil {
		logger.Fatal("dashboard session", zap.Error(err))
	}

	traffic.SetRetention(cfg.DegradedWindow)
	healthConfig := &httphandler.HealthConfig{
		DegradedWindow:   cfg.DegradedWindow,
		DegradedErrorPct: cfg.DegradedErrorPct,
	}
	if pinger, ok := store.(interface{ Ping(context.Context) error }); ok {
		healthConfig.PrefsPing = pinger.Ping
	}

	var limiter *rate.Limiter
	if cfg.RateLimitRPS > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RateLimitRPS), cfg.RateLimitBurst)
	}
	handler := httphandler.NewHandler(session, board, healthConfig, logger)
	router := httphandler.NewRouter(handler, logger, limiter, cfg.RequestTimeout)

	srv := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: cfg.RequestTimeout + 5*time.Second,
	}

	go func() {
		logger.Info("server starting", zap.String("addr", ":"+cfg.ServerPort))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server", zap.Error(err))
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	go func() {
		if err := session.AutoDetectOnce(ctx); err != nil {
			logger.Info("startup location load failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	stop()

	logger.Info("graceful shutdown triggered")
	lifecycle.SetShuttingDown(true)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", zap.Error(err))
	}

	inFlight := httphandler.InFlightCount()
	logger.Info("waiting for in-flight requests", zap.Int64("count", inFlight))
	waitCtx, waitCancel := context.WithTimeout(context.Background(), cfg.ShutdownInFlightTimeout)
	defer waitCancel()
	if err := httphandler.WaitForInFlight(waitCtx, cfg.ShutdownInFlightCheckInterval); err != nil {
		logger.Warn("in-flight requests not completed", zap.Error(err), zap.Int64("remaining", httphandler.InFlightCount()))
	}

	if err := observability.FlushTelemetry(context.Background(), logger, board, store); err != nil {
		logger.Error("telemetry flush", zap.Error(err))
	}
	logger.Info("shutdown complete", zap.Int64("live_animations", assets.Live()))
}

// newLocator returns the configured server-side locator, or nil when
// geolocation is disabled.
func newLocator(cfg *config.Config) geo.Locator {
	switch cfg.GeoProvider {
	case "ip":
		return geo.NewIPLocator(cfg.GeoURL, cfg.GeoUserTimeout)
	case "static":
		return geo.StaticLocator{Coords: models.Coordinates{
			Latitude:  cfg.GeoStaticLatitude,
			Longitude: cfg.GeoStaticLongitude,
		}}
	}
	return nil
}
