package app_test

import (
	"context"
	"os"
	"testing"

	"stockroom/internal/app"
	"stockroom/internal/core"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

func setupTestDB(t *testing.T) *pgxpool.Pool {
	t.Helper()
	_ = godotenv.Load("../../.env")

	// Use a dedicated TEST database to avoid wiping the live app database.
	// Set TEST_DATABASE_URL in your .env or environment to run integration tests.
	dbURL := os.Getenv("TEST_DATABASE_URL")
	if dbURL == "" {
		t.Skip("TEST_DATABASE_URL not set — skipping integration test to protect live database")
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}

	schema, err := os.ReadFile("../../migrations/001_init.sql")
	if err != nil {
		t.Fatalf("Failed to read schema file: %v", err)
	}
	if _, err := pool.Exec(ctx, string(schema)); err != nil {
		t.Fatalf("Failed to apply schema: %v", err)
	}
	if _, err := pool.Exec(ctx, "TRUNCATE TABLE stock_entries, nodes CASCADE"); err != nil {
		t.Fatalf("Failed to clean test database: %v", err)
	}

	return pool
}

func newTestService(pool *pgxpool.Pool) (app.ApplicationService, core.NodeService) {
	nodes := core.NewNodeService(pool)
	svc := app.NewAppService(
		nodes,
		core.NewHierarchyResolver(pool),
		core.NewStockLedger(pool),
		core.NewUserService(pool),
		nil,
	)
	return svc, nodes
}

func TestAppService_GetStockDegradesDanglingRefs(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	svc, nodes := newTestService(pool)
	ctx := context.Background()

	w, err := nodes.Create(ctx, core.NewNodeInput{
		Ref: "W1", Label: "Main Warehouse", Kind: core.KindWarehouse,
	})
	if err != nil {
		t.Fatalf("Create warehouse failed: %v", err)
	}
	l, err := nodes.Create(ctx, core.NewNodeInput{
		Ref: "L1", Label: "Back Room", Kind: core.KindLocation, ParentID: &w.ID,
	})
	if err != nil {
		t.Fatalf("Create location failed: %v", err)
	}
	pallet := core.ContainerPallet
	c, err := nodes.Create(ctx, core.NewNodeInput{
		Ref: "C1", Label: "Pallet 1", Kind: core.KindContainer, ContainerKind: &pallet, ParentID: &l.ID,
	})
	if err != nil {
		t.Fatalf("Create container failed: %v", err)
	}

	// One entry in a real container, one against a ref that never existed.
	// The ledger accepts both; only display resolution differs.
	for _, ref := range []string{"C1", "GHOST"} {
		if err := svc.SetStock(ctx, app.SetStockRequest{
			ProductID: "OLIVE-OIL", ContainerRef: ref, Quantity: decimal.RequireFromString("4"),
		}); err != nil {
			t.Fatalf("SetStock(%s) failed: %v", ref, err)
		}
	}

	result, err := svc.GetStock(ctx, "OLIVE-OIL")
	if err != nil {
		t.Fatalf("GetStock failed: %v", err)
	}
	if len(result.Rows) != 2 {
		t.Fatalf("got %d rows, want 2", len(result.Rows))
	}
	byRef := map[string]app.StockRow{}
	for _, row := range result.Rows {
		byRef[row.Entry.ContainerRef] = row
	}
	if got := byRef["C1"].Location; got != "Main Warehouse / Back Room / Pallet 1" {
		t.Errorf("C1 location = %q, want full path", got)
	}
	if got := byRef["GHOST"].Location; got != "" {
		t.Errorf("GHOST location = %q, want empty", got)
	}
	if byRef["GHOST"].Entry.ContainerRef != "GHOST" {
		t.Error("raw ref must survive for unresolvable entries")
	}

	// Deleting the container turns its ref dangling too. The read must keep
	// the entry and quantity, just without a resolved location.
	if err := svc.SoftDeleteNode(ctx, c.ID); err != nil {
		t.Fatalf("SoftDeleteNode failed: %v", err)
	}
	result, err = svc.GetStock(ctx, "OLIVE-OIL")
	if err != nil {
		t.Fatalf("GetStock after delete failed: %v", err)
	}
	for _, row := range result.Rows {
		if row.Entry.ContainerRef == "C1" {
			if row.Location != "" {
				t.Errorf("deleted container location = %q, want empty", row.Location)
			}
			if !row.Entry.Quantity.Equal(decimal.RequireFromString("4")) {
				t.Errorf("quantity changed after node delete: %s", row.Entry.Quantity)
			}
		}
	}
}
