package storage

import (
	"context"
	"path/filepath"
	"testing"

	"focorders/internal"
)

func sp(v string) *string { return &v }

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "focorders.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestAppendIsNotIdempotent(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	header := internal.WarehouseHeaderRecord{
		SalesOrderWithoutCharge: sp("5001"),
		SoldToParty:             sp("A"),
		RawResponse:             `{"SalesOrderWithoutCharge":"5001"}`,
		CreatedAt:               "2026-10-15T04:00:00.000000",
	}
	items := []internal.WarehouseItemRecord{
		{SalesOrderWithoutCharge: "5001", SalesOrderWithoutChargeItem: "1", Material: "X", RequestedQuantity: "5", CreatedAt: header.CreatedAt},
		{SalesOrderWithoutCharge: "5001", SalesOrderWithoutChargeItem: "2", Material: "Y", RequestedQuantity: "2", CreatedAt: header.CreatedAt},
	}

	for i := 0; i < 2; i++ {
		if err := db.AppendHeaders(ctx, []internal.WarehouseHeaderRecord{header}); err != nil {
			t.Fatal(err)
		}
		if err := db.AppendItems(ctx, items); err != nil {
			t.Fatal(err)
		}
	}

	headers, err := db.ListHeaders("5001")
	if err != nil {
		t.Fatal(err)
	}
	if len(headers) != 2 {
		t.Fatalf("headers=%d", len(headers))
	}
	if headers[0].SalesOrganization != nil || *headers[0].SoldToParty != "A" || headers[0].RawResponse != header.RawResponse {
		t.Fatalf("header=%+v", headers[0])
	}

	stored, err := db.ListItems("5001")
	if err != nil {
		t.Fatal(err)
	}
	if len(stored) != 4 {
		t.Fatalf("items=%d", len(stored))
	}
	if stored[1].Material != "Y" {
		t.Fatalf("order lost: %+v", stored)
	}
}

func TestRuns(t *testing.T) {
	db := openTestDB(t)
	if err := db.InsertRun("run-1", "orders.xlsx", map[string]float64{"totalMs": 12}, map[string]int{"groups": 2, "success": 1}); err != nil {
		t.Fatal(err)
	}
	runs, err := db.ListRuns(10)
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 1 || runs[0].RunID != "run-1" || runs[0].Counts["groups"] != 2 {
		t.Fatalf("runs=%+v", runs)
	}
}

func TestEmailLedger(t *testing.T) {
	db := openTestDB(t)
	row, err := db.UpsertEmail("imap", "<m1@example.com>", "orders", "a@example.com", "2026-10-15T00:00:00Z", "h1", "/tmp/h1.eml", "fetched")
	if err != nil {
		t.Fatal(err)
	}
	if err := db.UpdateEmailStatus(row.ID, "submitted"); err != nil {
		t.Fatal(err)
	}

	again, err := db.UpsertEmail("imap", "<m1@example.com>", "orders", "a@example.com", "2026-10-15T00:00:00Z", "h1", "/tmp/h1.eml", "fetched")
	if err != nil {
		t.Fatal(err)
	}
	if again.ID != row.ID || again.Status != "submitted" {
		t.Fatalf("refetch reset the ledger: %+v", again)
	}

	pending, err := db.ListEmailsByStatus("fetched", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(pending) != 0 {
		t.Fatalf("pending=%d", len(pending))
	}
}

func TestMetadata(t *testing.T) {
	db := openTestDB(t)
	if v, err := db.GetMetadata("listener.last_cycle"); err != nil || v != nil {
		t.Fatalf("v=%v err=%v", v, err)
	}
	if err := db.SetMetadata("listener.last_cycle", "2026-10-15T00:00:00Z"); err != nil {
		t.Fatal(err)
	}
	v, err := db.GetMetadata("listener.last_cycle")
	if err != nil || v == nil || *v != "2026-10-15T00:00:00Z" {
		t.Fatalf("v=%v err=%v", v, err)
	}
}
