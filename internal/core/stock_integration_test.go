package core_test

import (
	"context"
	"errors"
	"testing"

	"stockroom/internal/core"

	"github.com/shopspring/decimal"
)

func TestStockLedger_SetAndTotal(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	ledger := core.NewStockLedger(pool)
	ctx := context.Background()

	if err := ledger.SetQuantity(ctx, "prod-9", "C1", decimal.RequireFromString("12.5")); err != nil {
		t.Fatalf("SetQuantity failed: %v", err)
	}
	if err := ledger.SetQuantity(ctx, "prod-9", "C2", decimal.RequireFromString("0.5")); err != nil {
		t.Fatalf("SetQuantity failed: %v", err)
	}

	total, err := ledger.TotalFor(ctx, "prod-9")
	if err != nil {
		t.Fatalf("TotalFor failed: %v", err)
	}
	if !total.Equal(decimal.RequireFromString("13")) {
		t.Errorf("TotalFor = %s, want 13", total)
	}

	entries, err := ledger.EntriesFor(ctx, "prod-9")
	if err != nil {
		t.Fatalf("EntriesFor failed: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}

	// Total always equals the arithmetic sum of the entries.
	sum := decimal.Zero
	for _, e := range entries {
		sum = sum.Add(e.Quantity)
	}
	if !sum.Equal(total) {
		t.Errorf("sum of entries %s != total %s", sum, total)
	}
}

func TestStockLedger_TotalForUnknownProductIsZero(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	ledger := core.NewStockLedger(pool)

	total, err := ledger.TotalFor(context.Background(), "no-such-product")
	if err != nil {
		t.Fatalf("TotalFor failed: %v", err)
	}
	if !total.IsZero() {
		t.Errorf("TotalFor = %s, want 0", total)
	}
}

func TestStockLedger_SetIsIdempotent(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	ledger := core.NewStockLedger(pool)
	ctx := context.Background()

	qty := decimal.NewFromInt(5)
	if err := ledger.SetQuantity(ctx, "prod-1", "C1", qty); err != nil {
		t.Fatalf("first SetQuantity failed: %v", err)
	}
	if err := ledger.SetQuantity(ctx, "prod-1", "C1", qty); err != nil {
		t.Fatalf("second SetQuantity failed: %v", err)
	}

	entries, err := ledger.EntriesFor(ctx, "prod-1")
	if err != nil {
		t.Fatalf("EntriesFor failed: %v", err)
	}
	if len(entries) != 1 || !entries[0].Quantity.Equal(qty) {
		t.Errorf("entries = %v, want single entry of 5", entries)
	}
}

func TestStockLedger_ZeroEntryIsDistinctFromNoEntry(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	ledger := core.NewStockLedger(pool)
	ctx := context.Background()

	if err := ledger.SetQuantity(ctx, "prod-2", "C1", decimal.Zero); err != nil {
		t.Fatalf("SetQuantity(0) failed: %v", err)
	}

	entries, err := ledger.EntriesFor(ctx, "prod-2")
	if err != nil {
		t.Fatalf("EntriesFor failed: %v", err)
	}
	if len(entries) != 1 || !entries[0].Quantity.IsZero() {
		t.Fatalf("explicit zero entry must be stored, got %v", entries)
	}

	total, err := ledger.TotalFor(ctx, "prod-2")
	if err != nil {
		t.Fatalf("TotalFor failed: %v", err)
	}
	if !total.IsZero() {
		t.Errorf("TotalFor = %s, want 0", total)
	}
}

func TestStockLedger_RejectsNegativeQuantity(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	ledger := core.NewStockLedger(pool)

	err := ledger.SetQuantity(context.Background(), "prod-3", "C1", decimal.NewFromInt(-1))
	var ve *core.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}

func TestStockLedger_RemoveRoundTrip(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	ledger := core.NewStockLedger(pool)
	ctx := context.Background()

	if err := ledger.SetQuantity(ctx, "prod-4", "C1", decimal.NewFromInt(3)); err != nil {
		t.Fatalf("SetQuantity failed: %v", err)
	}
	if err := ledger.RemoveEntry(ctx, "prod-4", "C1"); err != nil {
		t.Fatalf("RemoveEntry failed: %v", err)
	}

	entries, err := ledger.EntriesFor(ctx, "prod-4")
	if err != nil {
		t.Fatalf("EntriesFor failed: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("expected no entries after removal, got %v", entries)
	}

	// Removing again is a NotFoundError inside the ledger; idempotent
	// treatment belongs to the caller.
	err = ledger.RemoveEntry(ctx, "prod-4", "C1")
	var nf *core.NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
}

func TestStockLedger_SurvivesNodeDeletion(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	svc := core.NewNodeService(pool)
	resolver := core.NewHierarchyResolver(pool)
	ledger := core.NewStockLedger(pool)
	ctx := context.Background()

	_, _, c := seedTree(t, svc)

	if err := ledger.SetQuantity(ctx, "prod-9", c.Ref, decimal.RequireFromString("12.5")); err != nil {
		t.Fatalf("SetQuantity failed: %v", err)
	}
	if err := svc.SoftDelete(ctx, c.ID); err != nil {
		t.Fatalf("SoftDelete failed: %v", err)
	}

	// Node deletion leaves the ledger untouched.
	entries, err := ledger.EntriesFor(ctx, "prod-9")
	if err != nil {
		t.Fatalf("EntriesFor failed: %v", err)
	}
	if len(entries) != 1 || entries[0].ContainerRef != "C1" || !entries[0].Quantity.Equal(decimal.RequireFromString("12.5")) {
		t.Errorf("ledger changed by node deletion: %v", entries)
	}

	// And the deleted container's path still resolves for display.
	path, err := resolver.Path(ctx, c.ID)
	if err != nil {
		t.Fatalf("Path after delete failed: %v", err)
	}
	if len(path) != 3 {
		t.Errorf("expected full historical path, got %d nodes", len(path))
	}
}
