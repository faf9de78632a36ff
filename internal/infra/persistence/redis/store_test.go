package redis

import (
	"context"
	"errors"
	"os"
	"stocktake/pkg/domain"
	"strings"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

type fakeClient struct {
	data    map[string][]byte
	pingErr error
	getErr  error
	setErr  error
	closed  bool
}

func newFakeClient() *fakeClient { return &fakeClient{data: map[string][]byte{}} }

func (f *fakeClient) Ping(context.Context) *redis.StatusCmd {
	return redis.NewStatusResult("PONG", f.pingErr)
}

func (f *fakeClient) Get(_ context.Context, key string) *redis.StringCmd {
	if f.getErr != nil {
		return redis.NewStringResult("", f.getErr)
	}
	v, ok := f.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(string(v), nil)
}

func (f *fakeClient) Set(_ context.Context, key string, value any, _ time.Duration) *redis.StatusCmd {
	if f.setErr != nil {
		return redis.NewStatusResult("", f.setErr)
	}
	f.data[key] = append([]byte(nil), value.([]byte)...)
	return redis.NewStatusResult("OK", nil)
}

func (f *fakeClient) Close() error {
	f.closed = true
	return nil
}

func TestStorePersistsUnderPrefixedKeys(t *testing.T) {
	client := newFakeClient()
	store, err := NewStoreWithClient(client, "")
	if err != nil {
		t.Fatalf("NewStoreWithClient: %v", err)
	}
	ctx := context.Background()
	if err := store.SaveCatalogue(ctx, domain.Catalogue{{Code: "A1", Description: "Alpha"}}); err != nil {
		t.Fatalf("SaveCatalogue: %v", err)
	}
	if _, ok := client.data["stocktake:catalogue"]; !ok {
		t.Fatalf("expected catalogue under default prefix, got keys %v", client.data)
	}
	if err := store.SaveOrders(ctx, nil); err != nil {
		t.Fatalf("SaveOrders: %v", err)
	}
	if got := string(client.data["stocktake:orders"]); got != "[]" {
		t.Fatalf("expected empty orders array, got %q", got)
	}

	client.data[store.Key(domain.BucketCatalogue)] = []byte(`[{"code":"B2","description":"Beta"}]`)
	catalogue, err := store.LoadCatalogue(ctx)
	if err != nil || len(catalogue) != 1 || catalogue[0].Code != "B2" {
		t.Fatalf("expected latest write visible, got %+v (%v)", catalogue, err)
	}
	if err := store.Close(); err != nil || !client.closed {
		t.Fatalf("expected client closed")
	}
}

func TestStoreHydratesOnOpen(t *testing.T) {
	client := newFakeClient()
	client.data["inv:orders"] = []byte(`[{"id":"o1","date":"2024-03-01T09:00:00Z","items":[{"code":"A1","description":"Alpha","quantity":5}]}]`)
	store, err := NewStoreWithClient(client, "inv:")
	if err != nil {
		t.Fatalf("NewStoreWithClient: %v", err)
	}
	orders := store.ExportState().Orders
	if len(orders) != 1 || orders[0].Items[0].Quantity != 5 {
		t.Fatalf("unexpected hydrated orders %+v", orders)
	}
}

func TestStoreErrors(t *testing.T) {
	client := newFakeClient()
	client.pingErr = errors.New("refused")
	if _, err := NewStoreWithClient(client, ""); err == nil || !client.closed {
		t.Fatalf("expected ping error and closed client, got %v", err)
	}

	client = newFakeClient()
	client.data["stocktake:orders"] = []byte(`{bad`)
	if _, err := NewStoreWithClient(client, ""); err == nil || !strings.Contains(err.Error(), "decode orders") {
		t.Fatalf("expected decode error, got %v", err)
	}

	client = newFakeClient()
	store, err := NewStoreWithClient(client, "")
	if err != nil {
		t.Fatalf("NewStoreWithClient: %v", err)
	}
	client.setErr = errors.New("readonly")
	if err := store.SaveOrders(context.Background(), nil); err == nil {
		t.Fatalf("expected set error")
	}
	client.getErr = errors.New("timeout")
	if _, err := store.LoadCatalogue(context.Background()); err == nil {
		t.Fatalf("expected get error")
	}
}

func TestStoreAgainstLiveRedis(t *testing.T) {
	addr := os.Getenv("STOCKTAKE_REDIS_ADDR")
	if addr == "" {
		t.Skip("STOCKTAKE_REDIS_ADDR not set")
	}
	prefix := "stocktake-test:" + time.Now().Format("150405.000000") + ":"
	store, err := NewStore(addr, prefix)
	if err != nil {
		t.Skipf("redis unavailable at %s: %v", addr, err)
	}
	t.Cleanup(func() { _ = store.Close() })
	ctx := context.Background()
	if err := store.SaveCatalogue(ctx, domain.Catalogue{{Code: "A1", Description: "Alpha"}}); err != nil {
		t.Fatalf("SaveCatalogue: %v", err)
	}
	got, err := store.LoadCatalogue(ctx)
	if err != nil || len(got) != 1 {
		t.Fatalf("unexpected catalogue %+v (%v)", got, err)
	}
}

func TestStoreFailedSaveIsNotVisible(t *testing.T) {
	client := newFakeClient()
	store, err := NewStoreWithClient(client, "")
	if err != nil {
		t.Fatalf("NewStoreWithClient: %v", err)
	}
	ctx := context.Background()
	if err := store.SaveCatalogue(ctx, domain.Catalogue{{Code: "A1", Description: "Alpha"}}); err != nil {
		t.Fatalf("SaveCatalogue: %v", err)
	}

	client.setErr = errors.New("readonly")
	if err := store.SaveCatalogue(ctx, domain.Catalogue{{Code: "B2", Description: "Beta"}}); err == nil {
		t.Fatalf("expected set error")
	}
	order := domain.NewOrder("o1", time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC), []domain.CartItem{{Code: "A1", Quantity: 1}})
	if err := store.SaveOrders(ctx, []domain.Order{order}); err == nil {
		t.Fatalf("expected set error")
	}
	client.setErr = nil

	catalogue, err := store.LoadCatalogue(ctx)
	if err != nil || len(catalogue) != 1 || catalogue[0].Code != "A1" {
		t.Fatalf("expected prior catalogue, got %+v (%v)", catalogue, err)
	}
	orders, err := store.LoadOrders(ctx)
	if err != nil || len(orders) != 0 {
		t.Fatalf("failed save visible: %+v (%v)", orders, err)
	}
}
