package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds dashboard configuration loaded from YAML and env.
type Config struct {
	ServerPort string

	WeatherAPIKey     string
	WeatherAPIURL     string
	WeatherAPITimeout time.Duration
	WeatherUnits      string
	IconBaseURL       string

	RequestTimeout time.Duration

	GeoProvider        string // "ip", "static" or "none"
	GeoURL             string
	GeoAutoTimeout     time.Duration
	GeoUserTimeout     time.Duration
	GeoStaticLatitude  float64
	GeoStaticLongitude float64

	PrefsBackend          string // "in_memory", "sqlite", "postgres" or "memcached"
	PrefsSQLitePath       string
	PrefsPostgresDSN      string
	MemcachedAddrs        string
	MemcachedTimeout      time.Duration
	MemcachedMaxIdleConns int

	Timezone *time.Location

	RateLimitRPS   int
	RateLimitBurst int

	DegradedWindow   time.Duration
	DegradedErrorPct int

	ShutdownTimeout               time.Duration
	ShutdownInFlightTimeout       time.Duration
	ShutdownInFlightCheckInterval time.Duration

	LocationMaxLength int
}

type fileConfig struct {
	Server struct {
		Port string `yaml:"port"`
	} `yaml:"server"`

	WeatherAPI struct {
		URL      string `yaml:"url"`
		Timeout  string `yaml:"timeout"`
		Units    string `yaml:"units"`
		IconBase string `yaml:"icon_base"`
	} `yaml:"weather_api"`

	Request struct {
		Timeout string `yaml:"timeout"`
	} `yaml:"request"`

	Geolocation struct {
		Provider    string   `yaml:"provider"`
		URL         string   `yaml:"url"`
		AutoTimeout string   `yaml:"auto_timeout"`
		UserTimeout string   `yaml:"user_timeout"`
		Latitude    *float64 `yaml:"latitude"`
		Longitude   *float64 `yaml:"longitude"`
	} `yaml:"geolocation"`

	Prefs struct {
		Backend     string `yaml:"backend"`
		SQLitePath  string `yaml:"sqlite_path"`
		PostgresDSN string `yaml:"postgres_dsn"`
		Memcached   struct {
			Addrs        string `yaml:"addrs"`
			Timeout      string `yaml:"timeout"`
			MaxIdleConns int    `yaml:"max_idle_conns"`
		} `yaml:"memcached"`
	} `yaml:"prefs"`

	Display struct {
		Timezone string `yaml:"timezone"`
	} `yaml:"display"`

	Reliability struct {
		RateLimitRPS   int `yaml:"rate_limit_rps"`
		RateLimitBurst int `yaml:"rate_limit_burst"`
	} `yaml:"reliability"`

	Health struct {
		DegradedWindow   string `yaml:"degraded_window"`
		DegradedErrorPct int    `yaml:"degraded_error_pct"`
	} `yaml:"health"`

	Shutdown struct {
		Timeout               string `yaml:"timeout"`
		InFlightTimeout       string `yaml:"in_flight_timeout"`
		InFlightCheckInterval string `yaml:"in_flight_check_interval"`
	} `yaml:"shutdown"`

	Validation struct {
		LocationMaxLength int `yaml:"location_max_length"`
	} `yaml:"validation"`
}

type secretsFile struct {
	WeatherAPIKey string `yaml:"weather_api_key"`
	PostgresDSN   string `yaml:"postgres_dsn"`
}

// Load reads configuration from config/{ENV_NAME}.yaml (default dev) and config/secrets.yaml.
// An optional .env in the working directory is loaded first; variables already set win.
// API key comes from WEATHER_API_KEY env or secrets file. Call from project root.
func Load() (*Config, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("config: get working directory: %w", err)
	}
	if err := godotenv.Load(filepath.Join(cwd, ".env")); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read .env file: %w", err)
	}

	env := os.Getenv("ENV_NAME")
	if env == "" {
		env = "dev"
	}

	configPath := filepath.Join(cwd, "config", env+".yaml")
	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("config file not found: %s", configPath)
		}
		return nil, fmt.Errorf("read config file: %w", err)
	}

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}

	sec, err := loadSecrets(filepath.Join(cwd, "config", "secrets.yaml"))
	if err != nil {
		return nil, err
	}

	cfg := &Config{}

	cfg.ServerPort = fc.Server.Port
	if cfg.ServerPort == "" {
		cfg.ServerPort = "8080"
	}

	cfg.WeatherAPIKey = os.Getenv("WEATHER_API_KEY")
	if cfg.WeatherAPIKey == "" {
		cfg.WeatherAPIKey = sec.WeatherAPIKey
	}
	if cfg.WeatherAPIKey == "" {
		return nil, fmt.Errorf("WEATHER_API_KEY required (set env or config/secrets.yaml weather_api_key)")
	}

	cfg.WeatherAPIURL = fc.WeatherAPI.URL
	if cfg.WeatherAPIURL == "" {
		cfg.WeatherAPIURL = "https://api.openweathermap.org/data/2.5"
	}
	cfg.WeatherAPITimeout = parseDurationOrZero(fc.WeatherAPI.Timeout, 5*time.Second)
	cfg.WeatherUnits = strings.ToLower(strings.TrimSpace(fc.WeatherAPI.Units))
	if cfg.WeatherUnits == "" {
		cfg.WeatherUnits = "metric"
	}
	cfg.IconBaseURL = fc.WeatherAPI.IconBase
	if cfg.IconBaseURL == "" {
		cfg.IconBaseURL = "https://openweathermap.org/img/wn/"
	}

	cfg.RequestTimeout = parseDuration(fc.Request.Timeout, 15*time.Second)

	cfg.GeoProvider = strings.TrimSpace(strings.ToLower(os.Getenv("GEO_PROVIDER")))
	if cfg.GeoProvider == "" {
		cfg.GeoProvider = strings.TrimSpace(strings.ToLower(fc.Geolocation.Provider))
	}
	if cfg.GeoProvider == "" {
		cfg.GeoProvider = "ip"
	}
	cfg.GeoURL = fc.Geolocation.URL
	if cfg.GeoURL == "" {
		cfg.GeoURL = "http://ip-api.com/json/"
	}
	cfg.GeoAutoTimeout = parseDuration(fc.Geolocation.AutoTimeout, 8*time.Second)
	cfg.GeoUserTimeout = parseDuration(fc.Geolocation.UserTimeout, 10*time.Second)
	if fc.Geolocation.Latitude != nil {
		cfg.GeoStaticLatitude = *fc.Geolocation.Latitude
	}
	if fc.Geolocation.Longitude != nil {
		cfg.GeoStaticLongitude = *fc.Geolocation.Longitude
	}
	if cfg.GeoProvider == "static" && (fc.Geolocation.Latitude == nil || fc.Geolocation.Longitude == nil) {
		return nil, fmt.Errorf("geolocation.latitude and geolocation.longitude required for static provider")
	}

	cfg.PrefsBackend = strings.TrimSpace(strings.ToLower(os.Getenv("PREFS_BACKEND")))
	if cfg.PrefsBackend == "" {
		cfg.PrefsBackend = strings.TrimSpace(strings.ToLower(fc.Prefs.Backend))
	}
	if cfg.PrefsBackend == "" {
		cfg.PrefsBackend = "sqlite"
	}
	cfg.PrefsSQLitePath = fc.Prefs.SQLitePath
	if cfg.PrefsSQLitePath == "" {
		cfg.PrefsSQLitePath = "prefs.db"
	}
	cfg.PrefsPostgresDSN = os.Getenv("PREFS_POSTGRES_DSN")
	if cfg.PrefsPostgresDSN == "" {
		cfg.PrefsPostgresDSN = sec.PostgresDSN
	}
	if cfg.PrefsPostgresDSN == "" {
		cfg.PrefsPostgresDSN = fc.Prefs.PostgresDSN
	}
	cfg.MemcachedAddrs = strings.TrimSpace(os.Getenv("MEMCACHED_ADDRS"))
	if cfg.MemcachedAddrs == "" {
		cfg.MemcachedAddrs = strings.TrimSpace(fc.Prefs.Memcached.Addrs)
	}
	if cfg.MemcachedAddrs == "" {
		cfg.MemcachedAddrs = "localhost:11211"
	}
	cfg.MemcachedTimeout = parseDuration(fc.Prefs.Memcached.Timeout, 500*time.Millisecond)
	cfg.MemcachedMaxIdleConns = fc.Prefs.Memcached.MaxIdleConns
	if cfg.MemcachedMaxIdleConns <= 0 {
		cfg.MemcachedMaxIdleConns = 2
	}

	tz := strings.TrimSpace(fc.Display.Timezone)
	if tz == "" {
		cfg.Timezone = time.Local
	} else {
		loc, err := time.LoadLocation(tz)
		if err != nil {
			return nil, fmt.Errorf("display.timezone %q: %w", tz, err)
		}
		cfg.Timezone = loc
	}

	cfg.RateLimitRPS = fc.Reliability.RateLimitRPS
	if cfg.RateLimitRPS <= 0 {
		cfg.RateLimitRPS = 5
	}
	cfg.RateLimitBurst = fc.Reliability.RateLimitBurst
	if cfg.RateLimitBurst <= 0 {
		cfg.RateLimitBurst = 10
	}

	cfg.DegradedWindow = parseDuration(fc.Health.DegradedWindow, 60*time.Second)
	cfg.DegradedErrorPct = fc.Health.DegradedErrorPct
	if cfg.DegradedErrorPct <= 0 {
		cfg.DegradedErrorPct = 50
	}

	cfg.ShutdownTimeout = parseDuration(fc.Shutdown.Timeout, 30*time.Second)
	cfg.ShutdownInFlightTimeout = parseDuration(fc.Shutdown.InFlightTimeout, 10*time.Second)
	cfg.ShutdownInFlightCheckInterval = parseDuration(fc.Shutdown.InFlightCheckInterval, 100*time.Millisecond)

	cfg.LocationMaxLength = fc.Validation.LocationMaxLength
	if cfg.LocationMaxLength <= 0 {
		cfg.LocationMaxLength = 100
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadSecrets reads the optional secrets file. A missing file yields empty secrets.
func loadSecrets(path string) (secretsFile, error) {
	var sec secretsFile
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return sec, nil
		}
		return sec, fmt.Errorf("read secrets file: %w", err)
	}
	if err := yaml.Unmarshal(data, &sec); err != nil {
		return sec, fmt.Errorf("parse secrets file: %w", err)
	}
	return sec, nil
}

// parseDuration parses a duration string and returns defaultVal if parsing fails or result is <= 0.
func parseDuration(s string, defaultVal time.Duration) time.Duration {
	d := parseDurationOrZero(s, defaultVal)
	if d <= 0 {
		return defaultVal
	}
	return d
}

// parseDurationOrZero parses a duration string, returning defaultVal on empty string or parse error.
// Returns zero or negative durations as-is (caller should handle fallback).
func parseDurationOrZero(s string, defaultVal time.Duration) time.Duration {
	s = strings.TrimSpace(s)
	if s == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return defaultVal
	}
	return d
}

// validate performs post-load validation of configuration values.
// A zero WeatherAPITimeout leaves provider calls bounded only by the request
// context. Otherwise RequestTimeout must leave room for two sequential
// provider calls; it is raised to fit when configured lower.
func validate(cfg *Config) error {
	if cfg.WeatherAPITimeout < 0 {
		return fmt.Errorf("WEATHER_API_TIMEOUT must not be negative")
	}
	if cfg.WeatherAPITimeout > 0 && cfg.RequestTimeout <= 2*cfg.WeatherAPITimeout {
		cfg.RequestTimeout = 2*cfg.WeatherAPITimeout + time.Second
	}
	switch cfg.WeatherUnits {
	case "metric", "imperial", "standard":
	default:
		return fmt.Errorf("weather_api.units must be metric, imperial or standard, got %q", cfg.WeatherUnits)
	}
	switch cfg.GeoProvider {
	case "ip", "static", "none":
	default:
		return fmt.Errorf("geolocation.provider must be ip, static or none, got %q", cfg.GeoProvider)
	}
	switch cfg.PrefsBackend {
	case "in_memory", "sqlite", "memcached":
	case "postgres":
		if cfg.PrefsPostgresDSN == "" {
			return fmt.Errorf("prefs.postgres_dsn required for postgres backend (set PREFS_POSTGRES_DSN or secrets postgres_dsn)")
		}
	default:
		return fmt.Errorf("prefs.backend must be in_memory, sqlite, postgres or memcached, got %q", cfg.PrefsBackend)
	}
	return nil
}
