//go:build integration
// +build integration

package testhelpers

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/kjstillabower/weather-dashboard/internal/client"
	"github.com/kjstillabower/weather-dashboard/internal/dashboard"
	"github.com/kjstillabower/weather-dashboard/internal/observability"
	"github.com/kjstillabower/weather-dashboard/internal/prefs"
	"github.com/kjstillabower/weather-dashboard/internal/view"
	"github.com/kjstillabower/weather-dashboard/internal/weather"
)

// IntegrationTestConfig holds configuration for integration tests.
type IntegrationTestConfig struct {
	APIKey        string
	APIURL        string
	PrefsBackend  string // "in_memory", "sqlite" or "memcached"
	MemcachedAddr string
}

// GetIntegrationConfig loads integration test configuration from environment.
// Skips test if WEATHER_API_KEY is not set.
func GetIntegrationConfig(t *testing.T) IntegrationTestConfig {
	apiKey := os.Getenv("WEATHER_API_KEY")
	if apiKey == "" {
		t.Skip("WEATHER_API_KEY not set, skipping integration test")
	}

	apiURL := os.Getenv("WEATHER_API_URL")
	if apiURL == "" {
		apiURL = weather.DefaultBaseURL
	}

	memcachedAddr := os.Getenv("MEMCACHED_ADDRS")
	if memcachedAddr == "" {
		memcachedAddr = "localhost:11211"
	}

	return IntegrationTestConfig{
		APIKey:        apiKey,
		APIURL:        apiURL,
		PrefsBackend:  os.Getenv("INTEGRATION_PREFS_BACKEND"),
		MemcachedAddr: memcachedAddr,
	}
}

// SetupIntegrationSession builds a session against the live provider with a
// board presenter. Returns the session, the board and a cleanup function.
func SetupIntegrationSession(t *testing.T, cfg IntegrationTestConfig) (*dashboard.Session, *view.Board, func()) {
	logger, err := observability.NewLogger()
	if err != nil {
		t.Fatalf("NewLogger() error = %v", err)
	}

	src, err := weather.NewOpenWeatherSource(client.New(10*time.Second), cfg.APIURL, cfg.APIKey, weather.DefaultUnits)
	if err != nil {
		t.Fatalf("NewOpenWeatherSource() error = %v", err)
	}

	opts := prefs.Options{Backend: cfg.PrefsBackend, MemcachedAddrs: cfg.MemcachedAddr, MemcachedTimeout: 500 * time.Millisecond}
	if cfg.PrefsBackend == "sqlite" {
		opts.SQLitePath = t.TempDir() + "/prefs.db"
	}
	store, err := prefs.Open(opts)
	if err != nil {
		t.Logf("prefs backend %q not available (%v), using in-memory store", cfg.PrefsBackend, err)
		store = prefs.NewMemoryStore()
	}

	board := view.NewBoard(nil, "", logger)
	session, err := dashboard.NewSession(context.Background(), dashboard.Options{
		Source:    src,
		Presenter: board,
		Store:     store,
		Location:  time.UTC,
		Logger:    logger,
	})
	if err != nil {
		t.Fatalf("NewSession() error = %v", err)
	}
	cleanup := func() {
		board.Close()
		store.Close()
	}
	return session, board, cleanup
}
