package domain

import "context"

// Bucket names used by every persistence backend. Each bucket holds one JSON
// array that is read and written whole.
const (
	BucketCatalogue = "catalogue"
	BucketOrders    = "orders"
)

// Buckets lists the persisted collections in write order.
var Buckets = []string{BucketCatalogue, BucketOrders}

// PersistentStore is the key-value collaborator holding the catalogue and the
// order history. Implementations load and save whole collections and apply
// no locking across processes: the last write wins.
type PersistentStore interface {
	LoadCatalogue(ctx context.Context) (Catalogue, error)
	SaveCatalogue(ctx context.Context, catalogue Catalogue) error
	LoadOrders(ctx context.Context) ([]Order, error)
	SaveOrders(ctx context.Context, orders []Order) error
	Close() error
}
