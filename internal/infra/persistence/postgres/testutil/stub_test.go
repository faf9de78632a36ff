package testutil

import (
	"context"
	"database/sql/driver"
	"testing"
)

func TestStubDBUpsertsAndFiltersRows(t *testing.T) {
	ctx := context.Background()
	_, conn := NewStubDB()

	if err := conn.Ping(ctx); err != nil {
		t.Fatalf("Ping: %v", err)
	}
	upsert := "INSERT INTO state(bucket,payload) VALUES($1,$2) ON CONFLICT(bucket) DO UPDATE SET payload=EXCLUDED.payload"
	for _, payload := range []string{`[1]`, `[2]`} {
		if _, err := conn.ExecContext(ctx, upsert, []driver.NamedValue{{Value: "orders"}, {Value: []byte(payload)}}); err != nil {
			t.Fatalf("ExecContext upsert: %v", err)
		}
	}
	if _, err := conn.ExecContext(ctx, upsert, []driver.NamedValue{{Value: "catalogue"}, {Value: []byte(`[]`)}}); err != nil {
		t.Fatalf("ExecContext upsert: %v", err)
	}
	if len(conn.Tables["state"]) != 2 {
		t.Fatalf("expected upsert to replace existing row, got %v", conn.Tables["state"])
	}

	rows, err := conn.QueryContext(ctx, "SELECT payload FROM state WHERE bucket = $1", []driver.NamedValue{{Value: "orders"}})
	if err != nil {
		t.Fatalf("QueryContext: %v", err)
	}
	defer func() { _ = rows.Close() }()
	dest := make([]driver.Value, 1)
	if err := rows.Next(dest); err != nil {
		t.Fatalf("Next: %v", err)
	}
	if string(dest[0].([]byte)) != `[2]` {
		t.Fatalf("unexpected payload %v", dest[0])
	}
	if err := rows.Next(dest); err == nil {
		t.Fatalf("expected single filtered row")
	}

	conn.FailPing = true
	if err := conn.Ping(ctx); err == nil {
		t.Fatalf("expected ping failure")
	}
}
