// Package redis provides a Redis-backed persistent store. Each bucket lives
// under prefix+bucket as a JSON array without expiry.
package redis

import (
	"context"
	"errors"
	"fmt"
	"stocktake/internal/infra/persistence/memory"
	"stocktake/pkg/domain"
	"time"

	"github.com/redis/go-redis/v9"
)

// Compile-time contract assertion ensuring the store satisfies the domain interface.
var _ domain.PersistentStore = (*Store)(nil)

const (
	defaultAddr   = "localhost:6379"
	defaultPrefix = "stocktake:"
)

// Client is the subset of *redis.Client used by the store.
type Client interface {
	Ping(ctx context.Context) *redis.StatusCmd
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
	Close() error
}

// Store persists buckets to Redis while reusing the in-memory implementation as its working copy.
type Store struct {
	*memory.Durable
	client Client
	prefix string
}

// NewStore dials addr (falls back to localhost:6379) and hydrates from any stored buckets.
func NewStore(addr, prefix string) (*Store, error) {
	if addr == "" {
		addr = defaultAddr
	}
	return NewStoreWithClient(redis.NewClient(&redis.Options{Addr: addr}), prefix)
}

// NewStoreWithClient wraps an existing client. The client is closed if hydration fails.
func NewStoreWithClient(client Client, prefix string) (*Store, error) {
	if prefix == "" {
		prefix = defaultPrefix
	}
	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	s := &Store{client: client, prefix: prefix}
	s.Durable = memory.NewDurable(s)
	if err := s.Hydrate(ctx); err != nil {
		_ = client.Close()
		return nil, err
	}
	return s, nil
}

// Key returns the redis key holding bucket.
func (s *Store) Key(bucket string) string { return s.prefix + bucket }

// GetBucket reads one bucket key. A missing key is not an error.
func (s *Store) GetBucket(ctx context.Context, bucket string) ([]byte, bool, error) {
	payload, err := s.client.Get(ctx, s.Key(bucket)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get %s: %w", bucket, err)
	}
	return payload, true, nil
}

// PutBucket writes one bucket key without expiry.
func (s *Store) PutBucket(ctx context.Context, bucket string, payload []byte) error {
	if err := s.client.Set(ctx, s.Key(bucket), payload, 0).Err(); err != nil {
		return fmt.Errorf("set %s: %w", bucket, err)
	}
	return nil
}

// Close closes the Redis client connection.
func (s *Store) Close() error { return s.client.Close() }
