package memory

import (
	"context"
	"stocktake/pkg/domain"
	"sync"
)

// Compile-time contract assertion ensuring the durable wrapper satisfies the domain interface.
var _ domain.PersistentStore = (*Durable)(nil)

// BucketIO reads and writes encoded buckets in a backing database. Get reports
// found=false when the bucket has never been written.
type BucketIO interface {
	GetBucket(ctx context.Context, bucket string) (payload []byte, found bool, err error)
	PutBucket(ctx context.Context, bucket string, payload []byte) error
}

// Durable keeps a working copy in front of a BucketIO. Loads re-read the
// backend so writes from other processes are visible. Saves reach the backend
// before the working copy changes, so a failed save leaves no trace.
type Durable struct {
	*Store
	io BucketIO
	mu sync.Mutex
}

// NewDurable wraps io with an empty working copy. Call Hydrate to fill it.
func NewDurable(io BucketIO) *Durable {
	return &Durable{Store: NewStore(), io: io}
}

// Hydrate refreshes every bucket from the backend.
func (d *Durable) Hydrate(ctx context.Context) error {
	for _, bucket := range domain.Buckets {
		if err := d.refresh(ctx, bucket); err != nil {
			return err
		}
	}
	return nil
}

func (d *Durable) refresh(ctx context.Context, bucket string) error {
	payload, found, err := d.io.GetBucket(ctx, bucket)
	if err != nil {
		return err
	}
	if !found {
		payload = nil
	}
	snapshot := d.ExportState()
	if err := snapshot.SetBucket(bucket, payload); err != nil {
		return err
	}
	d.ImportState(snapshot)
	return nil
}

func (d *Durable) save(ctx context.Context, bucket string, next Snapshot) error {
	payload, err := next.Bucket(bucket)
	if err != nil {
		return err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.io.PutBucket(ctx, bucket, payload); err != nil {
		return err
	}
	snapshot := d.ExportState()
	if err := snapshot.SetBucket(bucket, payload); err != nil {
		return err
	}
	d.ImportState(snapshot)
	return nil
}

// LoadCatalogue re-reads the catalogue bucket and returns it.
func (d *Durable) LoadCatalogue(ctx context.Context) (Catalogue, error) {
	if err := d.refresh(ctx, domain.BucketCatalogue); err != nil {
		return nil, err
	}
	return d.Store.LoadCatalogue(ctx)
}

// SaveCatalogue writes the catalogue bucket.
func (d *Durable) SaveCatalogue(ctx context.Context, catalogue Catalogue) error {
	return d.save(ctx, domain.BucketCatalogue, Snapshot{Catalogue: catalogue})
}

// LoadOrders re-reads the orders bucket and returns it.
func (d *Durable) LoadOrders(ctx context.Context) ([]Order, error) {
	if err := d.refresh(ctx, domain.BucketOrders); err != nil {
		return nil, err
	}
	return d.Store.LoadOrders(ctx)
}

// SaveOrders writes the orders bucket.
func (d *Durable) SaveOrders(ctx context.Context, orders []Order) error {
	return d.save(ctx, domain.BucketOrders, Snapshot{Orders: orders})
}
