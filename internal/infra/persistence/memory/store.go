// Package memory provides an in-memory implementation of the stocktake
// persistent store used for tests and ephemeral sessions. The durable backends
// embed it as their working copy.
package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"stocktake/pkg/domain"
	"sync"
)

// Compile-time contract assertion ensuring memory.Store adheres to the domain persistence interface.
var _ domain.PersistentStore = (*Store)(nil)

type (
	// Catalogue aliases domain.Catalogue.
	Catalogue = domain.Catalogue
	// Order aliases domain.Order.
	Order = domain.Order
	// PersistentStore aliases domain.PersistentStore.
	PersistentStore = domain.PersistentStore
)

// Snapshot captures a point-in-time clone of both buckets.
type Snapshot struct {
	Catalogue Catalogue `json:"catalogue"`
	Orders    []Order   `json:"orders"`
}

// Clone deep-copies the snapshot.
func (s Snapshot) Clone() Snapshot {
	return Snapshot{
		Catalogue: s.Catalogue.Clone(),
		Orders:    domain.CloneOrders(s.Orders),
	}
}

// Bucket encodes the named bucket as a JSON array. Empty buckets encode as [].
func (s Snapshot) Bucket(name string) ([]byte, error) {
	switch name {
	case domain.BucketCatalogue:
		if s.Catalogue == nil {
			return []byte("[]"), nil
		}
		return json.Marshal(s.Catalogue)
	case domain.BucketOrders:
		if s.Orders == nil {
			return []byte("[]"), nil
		}
		return json.Marshal(s.Orders)
	default:
		return nil, fmt.Errorf("unknown bucket %s", name)
	}
}

// SetBucket decodes payload into the named bucket. An empty payload clears it.
func (s *Snapshot) SetBucket(name string, payload []byte) error {
	switch name {
	case domain.BucketCatalogue:
		s.Catalogue = nil
		if len(payload) == 0 {
			return nil
		}
		if err := json.Unmarshal(payload, &s.Catalogue); err != nil {
			return fmt.Errorf("decode %s: %w", name, err)
		}
	case domain.BucketOrders:
		s.Orders = nil
		if len(payload) == 0 {
			return nil
		}
		if err := json.Unmarshal(payload, &s.Orders); err != nil {
			return fmt.Errorf("decode %s: %w", name, err)
		}
	default:
		return fmt.Errorf("unknown bucket %s", name)
	}
	return nil
}

// Store keeps the catalogue and order history in process memory.
type Store struct {
	mu    sync.RWMutex
	state Snapshot
}

// NewStore constructs an empty in-memory store.
func NewStore() *Store {
	return &Store{}
}

// ExportState clones the current state for external persistence.
func (s *Store) ExportState() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Clone()
}

// ImportState replaces the store state with the provided snapshot.
func (s *Store) ImportState(snapshot Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = snapshot.Clone()
}

// LoadCatalogue returns a copy of the catalogue.
func (s *Store) LoadCatalogue(_ context.Context) (Catalogue, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Catalogue.Clone(), nil
}

// SaveCatalogue replaces the catalogue.
func (s *Store) SaveCatalogue(_ context.Context, catalogue Catalogue) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Catalogue = catalogue.Clone()
	return nil
}

// LoadOrders returns a copy of the order history.
func (s *Store) LoadOrders(_ context.Context) ([]Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return domain.CloneOrders(s.state.Orders), nil
}

// SaveOrders replaces the order history.
func (s *Store) SaveOrders(_ context.Context, orders []Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Orders = domain.CloneOrders(orders)
	return nil
}

// Close is a no-op for the in-memory store.
func (s *Store) Close() error { return nil }
