package prefs

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/kjstillabower/weather-dashboard/internal/observability"
)

const schema = `CREATE TABLE IF NOT EXISTS prefs (
	key TEXT PRIMARY KEY,
	value TEXT NOT NULL,
	updated_at TEXT NOT NULL
)`

// SQLStore implements Store on a single prefs table. The same statements run
// on sqlite and postgres; only the placeholder syntax differs.
type SQLStore struct {
	db      *sql.DB
	backend string
	getSQL  string
	setSQL  string
}

// NewSQLiteStore opens (or creates) the sqlite database at path.
func NewSQLiteStore(path string) (*SQLStore, error) {
	if path == "" {
		path = "prefs.db"
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	// A single connection serialises writers; sqlite allows one at a time anyway.
	db.SetMaxOpenConns(1)
	return newSQLStore(db, "sqlite",
		`SELECT value FROM prefs WHERE key = ?`,
		`INSERT INTO prefs(key, value, updated_at) VALUES(?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`)
}

// NewPostgresStore connects with a lib/pq DSN (URL or key=value form).
func NewPostgresStore(dsn string) (*SQLStore, error) {
	if dsn == "" {
		return nil, errors.New("postgres dsn is required")
	}
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	return newSQLStore(db, "postgres",
		`SELECT value FROM prefs WHERE key = $1`,
		`INSERT INTO prefs(key, value, updated_at) VALUES($1, $2, $3)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`)
}

func newSQLStore(db *sql.DB, backend, getSQL, setSQL string) (*SQLStore, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply %s schema: %w", backend, err)
	}
	return &SQLStore{db: db, backend: backend, getSQL: getSQL, setSQL: setSQL}, nil
}

func (s *SQLStore) Get(ctx context.Context, key string) (string, bool, error) {
	var v string
	err := s.db.QueryRowContext(ctx, s.getSQL, key).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		observability.PrefsErrorsTotal.WithLabelValues(s.backend, "get").Inc()
		return "", false, fmt.Errorf("prefs get %s: %w", key, err)
	}
	return v, true, nil
}

func (s *SQLStore) Set(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx, s.setSQL, key, value, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		observability.PrefsErrorsTotal.WithLabelValues(s.backend, "set").Inc()
		return fmt.Errorf("prefs set %s: %w", key, err)
	}
	return nil
}

// Ping checks the database is reachable. Used for health checks.
func (s *SQLStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *SQLStore) Close() error {
	return s.db.Close()
}
