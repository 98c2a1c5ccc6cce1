package testutil

import (
	"context"
	"database/sql/driver"
	"io"
	"testing"
)

func TestStubDBStoresAndQueriesRows(t *testing.T) {
	ctx := context.Background()
	_, conn := NewStubDB()

	if err := conn.Ping(ctx); err != nil {
		t.Fatalf("Ping: %v", err)
	}
	for _, row := range [][]driver.NamedValue{
		{{Value: int64(1)}, {Value: "second"}},
		{{Value: int64(0)}, {Value: "first"}},
	} {
		if _, err := conn.ExecContext(ctx, "INSERT INTO countries (position, common_name) VALUES ($1, $2)", row); err != nil {
			t.Fatalf("ExecContext insert: %v", err)
		}
	}
	if len(conn.Tables["countries"]) != 2 {
		t.Fatalf("expected rows to be stored, got %v", conn.Tables["countries"])
	}

	rows, err := conn.QueryContext(ctx, "SELECT position, common_name FROM countries ORDER BY position", nil)
	if err != nil {
		t.Fatalf("QueryContext: %v", err)
	}
	defer func() { _ = rows.Close() }()
	dest := make([]driver.Value, 2)
	if err := rows.Next(dest); err != nil {
		t.Fatalf("Next: %v", err)
	}
	if dest[1] != "first" {
		t.Fatalf("ORDER BY not honored: %v", dest)
	}
	_ = rows.Next(dest)
	if err := rows.Next(dest); err != io.EOF {
		t.Fatalf("expected EOF, got %v", err)
	}
}

func TestStubTruncateAndRollback(t *testing.T) {
	ctx := context.Background()
	_, conn := NewStubDB()
	conn.Tables["countries"] = []map[string]any{{"common_name": "kept"}}

	tx, err := conn.BeginTx(ctx, driver.TxOptions{})
	if err != nil {
		t.Fatalf("BeginTx: %v", err)
	}
	if _, err := conn.ExecContext(ctx, "TRUNCATE TABLE countries", nil); err != nil {
		t.Fatalf("truncate: %v", err)
	}
	if len(conn.Tables["countries"]) != 0 {
		t.Fatalf("truncate should clear the table")
	}
	if err := tx.Rollback(); err != nil {
		t.Fatalf("Rollback: %v", err)
	}
	if len(conn.Tables["countries"]) != 1 || conn.Rollbacks != 1 {
		t.Fatalf("rollback should restore rows: %v", conn.Tables)
	}
}

func TestStubFailures(t *testing.T) {
	ctx := context.Background()
	_, conn := NewStubDB()
	conn.FailPing = true
	if err := conn.Ping(ctx); err == nil {
		t.Fatalf("expected ping failure")
	}
	conn.FailBegin = true
	if _, err := conn.BeginTx(ctx, driver.TxOptions{}); err == nil {
		t.Fatalf("expected begin failure")
	}
	conn.FailTables = map[string]bool{"countries": true}
	if _, err := conn.QueryContext(ctx, "SELECT a FROM countries", nil); err == nil {
		t.Fatalf("expected query failure")
	}
	if _, err := conn.QueryContext(ctx, "UPDATE countries", nil); err == nil {
		t.Fatalf("expected parse failure")
	}
}
