// Package prefs persists the dashboard's durable user preferences: the last
// coordinates used and the display theme. Each backend is a plain key/value
// store without schema versioning.
package prefs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/kjstillabower/weather-dashboard/internal/models"
)

const (
	KeyLastLocation = "weather_last_location"
	KeyTheme        = "theme"
)

// ErrUnknownBackend is returned by Open for an unrecognised backend name.
var ErrUnknownBackend = errors.New("unknown prefs backend")

// Store is a string key/value store. Get returns ok=false on a missing key.
type Store interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Close() error
}

// Options selects and configures a backend.
type Options struct {
	Backend               string // in_memory, sqlite, postgres, memcached
	SQLitePath            string
	PostgresDSN           string
	MemcachedAddrs        string
	MemcachedTimeout      time.Duration
	MemcachedMaxIdleConns int
}

// Open returns the Store for opts.Backend.
func Open(opts Options) (Store, error) {
	switch opts.Backend {
	case "", "in_memory":
		return NewMemoryStore(), nil
	case "sqlite":
		return NewSQLiteStore(opts.SQLitePath)
	case "postgres":
		return NewPostgresStore(opts.PostgresDSN)
	case "memcached":
		return NewMemcachedStore(opts.MemcachedAddrs, opts.MemcachedTimeout, opts.MemcachedMaxIdleConns)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, opts.Backend)
	}
}

// LoadLastLocation returns the persisted coordinates, ok=false when none are stored.
// A corrupt value is reported as an error rather than silently ignored.
func LoadLastLocation(ctx context.Context, s Store) (models.Coordinates, bool, error) {
	raw, ok, err := s.Get(ctx, KeyLastLocation)
	if err != nil || !ok {
		return models.Coordinates{}, false, err
	}
	var c models.Coordinates
	if err := json.Unmarshal([]byte(raw), &c); err != nil {
		return models.Coordinates{}, false, fmt.Errorf("decode %s: %w", KeyLastLocation, err)
	}
	return c, true, nil
}

// SaveLastLocation stores coordinates as {"lat":..,"lon":..}.
func SaveLastLocation(ctx context.Context, s Store, c models.Coordinates) error {
	raw, err := json.Marshal(c)
	if err != nil {
		return err
	}
	return s.Set(ctx, KeyLastLocation, string(raw))
}

// LoadTheme returns the persisted theme, dark when none is stored.
func LoadTheme(ctx context.Context, s Store) (models.Theme, error) {
	raw, ok, err := s.Get(ctx, KeyTheme)
	if err != nil {
		return models.ThemeDark, err
	}
	if !ok {
		return models.ThemeDark, nil
	}
	return models.ParseTheme(raw), nil
}

// SaveTheme stores the theme name.
func SaveTheme(ctx context.Context, s Store, t models.Theme) error {
	return s.Set(ctx, KeyTheme, string(t))
}

// MemoryStore keeps preferences in process memory; they are lost on restart.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string]string
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string]string)}
}

func (m *MemoryStore) Get(ctx context.Context, key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *MemoryStore) Set(ctx context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}

func (m *MemoryStore) Close() error { return nil }
