package prefs

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/kjstillabower/weather-dashboard/internal/models"
)

// storeFactories builds every backend that needs no external server.
func storeFactories(t *testing.T) map[string]func() Store {
	t.Helper()
	return map[string]func() Store{
		"memory": func() Store { return NewMemoryStore() },
		"sqlite": func() Store {
			s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "prefs.db"))
			if err != nil {
				t.Fatalf("NewSQLiteStore() error = %v", err)
			}
			t.Cleanup(func() { s.Close() })
			return s
		},
	}
}

func TestStore_GetSet(t *testing.T) {
	for name, newStore := range storeFactories(t) {
		t.Run(name, func(t *testing.T) {
			s := newStore()
			ctx := context.Background()

			if _, ok, err := s.Get(ctx, "missing"); err != nil || ok {
				t.Fatalf("Get(missing) = ok %v, err %v; want false, nil", ok, err)
			}
			if err := s.Set(ctx, "k", "v1"); err != nil {
				t.Fatalf("Set() error = %v", err)
			}
			if err := s.Set(ctx, "k", "v2"); err != nil {
				t.Fatalf("Set() overwrite error = %v", err)
			}
			got, ok, err := s.Get(ctx, "k")
			if err != nil || !ok || got != "v2" {
				t.Errorf("Get(k) = %q, %v, %v; want v2, true, nil", got, ok, err)
			}
		})
	}
}

func TestLastLocation_RoundTrip(t *testing.T) {
	for name, newStore := range storeFactories(t) {
		t.Run(name, func(t *testing.T) {
			s := newStore()
			ctx := context.Background()

			if _, ok, err := LoadLastLocation(ctx, s); ok || err != nil {
				t.Fatalf("LoadLastLocation() on empty store = ok %v, err %v", ok, err)
			}
			want := models.Coordinates{Latitude: 47.6062, Longitude: -122.3321}
			if err := SaveLastLocation(ctx, s, want); err != nil {
				t.Fatalf("SaveLastLocation() error = %v", err)
			}
			got, ok, err := LoadLastLocation(ctx, s)
			if err != nil || !ok || got != want {
				t.Errorf("LoadLastLocation() = %+v, %v, %v; want %+v", got, ok, err, want)
			}
		})
	}
}

func TestLastLocation_StoredFormat(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	if err := SaveLastLocation(ctx, s, models.Coordinates{Latitude: 1.5, Longitude: -2}); err != nil {
		t.Fatal(err)
	}
	raw, _, _ := s.Get(ctx, KeyLastLocation)
	if raw != `{"lat":1.5,"lon":-2}` {
		t.Errorf("stored value = %s", raw)
	}
}

func TestLoadLastLocation_CorruptValue(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	_ = s.Set(ctx, KeyLastLocation, "not json")
	if _, ok, err := LoadLastLocation(ctx, s); err == nil || ok {
		t.Errorf("LoadLastLocation() = ok %v, err %v; want false and an error", ok, err)
	}
}

func TestTheme_DefaultAndRoundTrip(t *testing.T) {
	for name, newStore := range storeFactories(t) {
		t.Run(name, func(t *testing.T) {
			s := newStore()
			ctx := context.Background()

			got, err := LoadTheme(ctx, s)
			if err != nil || got != models.ThemeDark {
				t.Fatalf("LoadTheme() default = %q, %v; want dark", got, err)
			}
			if err := SaveTheme(ctx, s, models.ThemeLight); err != nil {
				t.Fatalf("SaveTheme() error = %v", err)
			}
			if got, _ := LoadTheme(ctx, s); got != models.ThemeLight {
				t.Errorf("LoadTheme() = %q, want light", got)
			}
		})
	}
}

func TestSQLiteStore_PersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prefs.db")
	ctx := context.Background()

	s, err := NewSQLiteStore(path)
	if err != nil {
		t.Fatalf("NewSQLiteStore() error = %v", err)
	}
	if err := SaveTheme(ctx, s, models.ThemeLight); err != nil {
		t.Fatal(err)
	}
	s.Close()

	s2, err := NewSQLiteStore(path)
	if err != nil {
		t.Fatalf("reopen error = %v", err)
	}
	defer s2.Close()
	if got, _ := LoadTheme(ctx, s2); got != models.ThemeLight {
		t.Errorf("theme after reopen = %q, want light", got)
	}
	if err := s2.Ping(ctx); err != nil {
		t.Errorf("Ping() error = %v", err)
	}
}

func TestOpen(t *testing.T) {
	tests := []struct {
		name    string
		opts    Options
		wantErr error
	}{
		{"default is memory", Options{}, nil},
		{"in_memory", Options{Backend: "in_memory"}, nil},
		{"sqlite", Options{Backend: "sqlite", SQLitePath: filepath.Join(t.TempDir(), "p.db")}, nil},
		{"memcached client construction", Options{Backend: "memcached", MemcachedAddrs: "localhost:11211"}, nil},
		{"unknown", Options{Backend: "redis"}, ErrUnknownBackend},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := Open(tt.opts)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("Open() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Open() error = %v", err)
			}
			s.Close()
		})
	}
}

func TestOpen_PostgresRequiresDSN(t *testing.T) {
	if _, err := Open(Options{Backend: "postgres"}); err == nil {
		t.Error("Open(postgres) with empty DSN should fail")
	}
}

func TestParseAddrs(t *testing.T) {
	got := parseAddrs(" a:1 ,, b:2 ")
	if len(got) != 2 || got[0] != "a:1" || got[1] != "b:2" {
		t.Errorf("parseAddrs() = %v", got)
	}
}
