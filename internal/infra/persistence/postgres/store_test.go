package postgres

import (
	"context"
	"database/sql"
	"errors"
	"stocktake/internal/infra/persistence/postgres/testutil"
	"stocktake/pkg/domain"
	"strings"
	"testing"
	"time"
)

func openStub(t *testing.T) (*Store, *testutil.StubConn) {
	t.Helper()
	db, conn := testutil.NewStubDB()
	restore := OverrideSQLOpen(func(_, _ string) (*sql.DB, error) { return db, nil })
	t.Cleanup(restore)
	store, err := NewStore("")
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	return store, conn
}

func TestNewStoreEnsuresStateTable(t *testing.T) {
	store, conn := openStub(t)
	if store.DB() == nil {
		t.Fatalf("expected db handle")
	}
	var sawDDL bool
	for _, stmt := range conn.Execs {
		if strings.Contains(strings.ToUpper(stmt), "CREATE TABLE IF NOT EXISTS STATE") {
			sawDDL = true
		}
	}
	if !sawDDL {
		t.Fatalf("expected state table DDL, got execs: %v", conn.Execs)
	}
}

func TestNewStoreHydratesExistingBuckets(t *testing.T) {
	db, conn := testutil.NewStubDB()
	conn.Tables["state"] = []map[string]any{
		{"bucket": domain.BucketCatalogue, "payload": []byte(`[{"code":"A1","description":"Alpha"}]`)},
		{"bucket": domain.BucketOrders, "payload": []byte(`[{"id":"o1","date":"2024-03-01T09:00:00Z","items":[{"code":"A1","description":"Alpha","quantity":4}]}]`)},
	}
	restore := OverrideSQLOpen(func(_, _ string) (*sql.DB, error) { return db, nil })
	defer restore()

	store, err := NewStore("postgres://ignored")
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	snapshot := store.ExportState()
	if len(snapshot.Catalogue) != 1 || len(snapshot.Orders) != 1 || snapshot.Orders[0].Items[0].Quantity != 4 {
		t.Fatalf("unexpected hydrated snapshot %+v", snapshot)
	}
}

func TestSaveAndLoadPersistBuckets(t *testing.T) {
	store, conn := openStub(t)
	ctx := context.Background()
	if err := store.SaveCatalogue(ctx, domain.Catalogue{{Code: "A1", Description: "Alpha"}}); err != nil {
		t.Fatalf("SaveCatalogue: %v", err)
	}
	order := domain.NewOrder("o1", time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), []domain.CartItem{{Code: "A1", Quantity: 2}})
	if err := store.SaveOrders(ctx, []domain.Order{order}); err != nil {
		t.Fatalf("SaveOrders: %v", err)
	}
	if rows := conn.Tables["state"]; len(rows) != 2 {
		t.Fatalf("expected one row per bucket, got %v", rows)
	}

	conn.Tables["state"] = []map[string]any{
		{"bucket": domain.BucketCatalogue, "payload": []byte(`[{"code":"Z9","description":"Written elsewhere"}]`)},
	}
	catalogue, err := store.LoadCatalogue(ctx)
	if err != nil {
		t.Fatalf("LoadCatalogue: %v", err)
	}
	if len(catalogue) != 1 || catalogue[0].Code != "Z9" {
		t.Fatalf("expected latest stored catalogue, got %+v", catalogue)
	}
	orders, err := store.LoadOrders(ctx)
	if err != nil || len(orders) != 0 {
		t.Fatalf("expected no orders once the bucket row is gone, got %+v (%v)", orders, err)
	}
}

func TestPersistSurfacesExecErrors(t *testing.T) {
	store, conn := openStub(t)
	conn.FailTables = map[string]bool{"state": true}
	err := store.SaveCatalogue(context.Background(), domain.Catalogue{{Code: "A1", Description: "Alpha"}})
	if err == nil || !strings.Contains(err.Error(), "upsert catalogue") {
		t.Fatalf("expected upsert error, got %v", err)
	}
}

func TestNewStoreErrors(t *testing.T) {
	restore := OverrideSQLOpen(func(_, _ string) (*sql.DB, error) { return nil, errors.New("boom") })
	if _, err := NewStore(""); err == nil {
		t.Fatalf("expected open error")
	}
	restore()

	db, conn := testutil.NewStubDB()
	conn.FailPing = true
	restore = OverrideSQLOpen(func(_, _ string) (*sql.DB, error) { return db, nil })
	if _, err := NewStore(""); err == nil || !strings.Contains(err.Error(), "ping") {
		t.Fatalf("expected ping error, got %v", err)
	}
	restore()

	db, conn = testutil.NewStubDB()
	conn.Tables["state"] = []map[string]any{{"bucket": domain.BucketOrders, "payload": []byte(`{bad`)}}
	restore = OverrideSQLOpen(func(_, _ string) (*sql.DB, error) { return db, nil })
	defer restore()
	if _, err := NewStore(""); err == nil || !strings.Contains(err.Error(), "decode orders") {
		t.Fatalf("expected decode error, got %v", err)
	}
}

func TestFailedSaveIsNotVisible(t *testing.T) {
	store, conn := openStub(t)
	ctx := context.Background()
	conn.FailTables = map[string]bool{"state": true}
	order := domain.NewOrder("o1", time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), []domain.CartItem{{Code: "A1", Quantity: 2}})
	if err := store.SaveOrders(ctx, []domain.Order{order}); err == nil {
		t.Fatalf("expected upsert error")
	}
	conn.FailTables = nil

	orders, err := store.LoadOrders(ctx)
	if err != nil || len(orders) != 0 {
		t.Fatalf("failed save visible: %+v (%v)", orders, err)
	}
	if got := store.ExportState(); len(got.Orders) != 0 {
		t.Fatalf("working copy changed by failed save: %+v", got)
	}
}
