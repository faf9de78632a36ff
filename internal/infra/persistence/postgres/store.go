// Package postgres provides a Postgres-backed persistent store that mirrors the
// in-memory semantics, keeping each bucket as a JSONB document.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"stocktake/internal/infra/persistence/memory"
	"stocktake/pkg/domain"
	"sync"

	_ "github.com/jackc/pgx/v5/stdlib" // register pgx as a database/sql driver
)

// Compile-time contract assertion ensuring the store satisfies the domain interface.
var _ domain.PersistentStore = (*Store)(nil)

const (
	defaultDriver = "pgx"
	// Default DSN keeps parity with OpenPersistentStore defaults while allowing overrides via env.
	defaultDSN = "postgres://localhost/stocktake?sslmode=disable"
)

var (
	sqlOpen = sql.Open
	openMu  sync.Mutex
)

// Store persists buckets to Postgres while reusing the in-memory implementation as its working copy.
type Store struct {
	*memory.Durable
	db *sql.DB
}

// NewStore opens a Postgres-backed store using the provided DSN (falls back to defaultDSN).
// It ensures the state table exists and hydrates the in-memory store from any stored buckets.
func NewStore(dsn string) (*Store, error) {
	if dsn == "" {
		dsn = defaultDSN
	}
	openMu.Lock()
	db, err := sqlOpen(defaultDriver, dsn)
	openMu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	ctx := context.Background()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	if err := ensureStateTable(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	s := &Store{db: db}
	s.Durable = memory.NewDurable(s)
	if err := s.Hydrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// DB exposes the underlying sql.DB for integration testing hooks.
func (s *Store) DB() *sql.DB { return s.db }

// Close releases the connection pool.
func (s *Store) Close() error { return s.db.Close() }

func ensureStateTable(ctx context.Context, db *sql.DB) error {
	ddl := `CREATE TABLE IF NOT EXISTS state (
		bucket TEXT PRIMARY KEY,
		payload JSONB NOT NULL
	)`
	if _, err := db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("ensure state table: %w", err)
	}
	return nil
}

// GetBucket reads one bucket row.
func (s *Store) GetBucket(ctx context.Context, bucket string) ([]byte, bool, error) {
	var payload []byte
	err := s.db.QueryRowContext(ctx, `SELECT payload FROM state WHERE bucket = $1`, bucket).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("select %s: %w", bucket, err)
	}
	return payload, true, nil
}

// PutBucket upserts one bucket row.
func (s *Store) PutBucket(ctx context.Context, bucket string, payload []byte) error {
	if _, err := s.db.ExecContext(ctx, `INSERT INTO state(bucket,payload) VALUES($1,$2) ON CONFLICT(bucket) DO UPDATE SET payload=EXCLUDED.payload`, bucket, payload); err != nil {
		return fmt.Errorf("upsert %s: %w", bucket, err)
	}
	return nil
}

// OverrideSQLOpen swaps the sqlOpen function for tests and returns a restore function.
func OverrideSQLOpen(fn func(driverName, dataSourceName string) (*sql.DB, error)) func() {
	openMu.Lock()
	defer openMu.Unlock()
	prev := sqlOpen
	sqlOpen = fn
	return func() {
		openMu.Lock()
		defer openMu.Unlock()
		sqlOpen = prev
	}
}
