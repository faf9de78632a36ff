// Package sqlite provides the default durable store: each bucket is one JSON
// array in a single SQLite table.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"stocktake/internal/infra/persistence/memory"
	"stocktake/pkg/domain"

	_ "modernc.org/sqlite" // pure go sqlite driver
)

// Compile-time contract assertion ensuring the store satisfies the domain interface.
var _ domain.PersistentStore = (*Store)(nil)

const defaultPath = "stocktake.db"

// Store persists buckets to SQLite. Reads go back to the table so that writes
// from another process are visible; writes replace the whole bucket.
type Store struct {
	*memory.Durable
	db   *sql.DB
	path string
}

// NewStore opens (creating if needed) the SQLite file at path and hydrates
// the working copy from any stored buckets.
func NewStore(path string) (*Store, error) {
	if path == "" {
		path = defaultPath
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil && !errors.Is(err, os.ErrExist) {
		return nil, fmt.Errorf("create dirs: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS state (
		bucket TEXT PRIMARY KEY,
		payload BLOB NOT NULL
	)`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create state table: %w", err)
	}
	s := &Store{db: db, path: path}
	s.Durable = memory.NewDurable(s)
	if err := s.Hydrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// GetBucket reads one bucket row.
func (s *Store) GetBucket(ctx context.Context, bucket string) ([]byte, bool, error) {
	var payload []byte
	err := s.db.QueryRowContext(ctx, `SELECT payload FROM state WHERE bucket = ?`, bucket).Scan(&payload)
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
	if _, err := s.db.ExecContext(ctx, `INSERT INTO state(bucket,payload) VALUES(?,?) ON CONFLICT(bucket) DO UPDATE SET payload=excluded.payload`, bucket, payload); err != nil {
		return fmt.Errorf("upsert %s: %w", bucket, err)
	}
	return nil
}

// Close releases the database handle.
func (s *Store) Close() error { return s.db.Close() }

// DB exposes the underlying sql.DB for integration testing hooks.
func (s *Store) DB() *sql.DB { return s.db }

// Path returns the configured database path.
func (s *Store) Path() string { return s.path }
