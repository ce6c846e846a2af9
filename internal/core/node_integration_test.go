package core_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"testing"

	"stockroom/internal/core"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
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

// mustCreate creates a node through the store, failing the test on error.
func mustCreate(t *testing.T, svc core.NodeService, ref, label string, kind core.NodeKind,
	ck *core.ContainerKind, parentID *string) *core.Node {
	t.Helper()
	node, err := svc.Create(context.Background(), core.NewNodeInput{
		Ref: ref, Label: label, Kind: kind, ContainerKind: ck, ParentID: parentID,
	})
	if err != nil {
		t.Fatalf("Create(%s) failed: %v", ref, err)
	}
	return node
}

// seedTree creates W1 → L1 → C1 (pallet) and returns the three nodes.
func seedTree(t *testing.T, svc core.NodeService) (w, l, c *core.Node) {
	t.Helper()
	w = mustCreate(t, svc, "W1", "Main Warehouse", core.KindWarehouse, nil, nil)
	l = mustCreate(t, svc, "L1", "Back Room", core.KindLocation, nil, &w.ID)
	c = mustCreate(t, svc, "C1", "Pallet 1", core.KindContainer, ckPtr(core.ContainerPallet), &l.ID)
	return w, l, c
}

func TestNodeService_CreateAndGet(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	svc := core.NewNodeService(pool)
	ctx := context.Background()

	w, l, c := seedTree(t, svc)

	got, err := svc.Get(ctx, c.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.Ref != "C1" || got.Kind != core.KindContainer {
		t.Errorf("got ref=%s kind=%s, want C1/container", got.Ref, got.Kind)
	}
	if got.ContainerKind == nil || *got.ContainerKind != core.ContainerPallet {
		t.Errorf("container kind not persisted: %v", got.ContainerKind)
	}
	if got.ParentID == nil || *got.ParentID != l.ID {
		t.Errorf("parent not persisted: %v", got.ParentID)
	}

	byRef, err := svc.GetByRef(ctx, "W1")
	if err != nil {
		t.Fatalf("GetByRef failed: %v", err)
	}
	if byRef.ID != w.ID {
		t.Errorf("GetByRef returned %s, want %s", byRef.ID, w.ID)
	}

	children, err := svc.ListChildren(ctx, w.ID)
	if err != nil {
		t.Fatalf("ListChildren failed: %v", err)
	}
	if len(children) != 1 || children[0].ID != l.ID {
		t.Errorf("ListChildren = %v, want [L1]", children)
	}
}

func TestNodeService_CreateRejectsDuplicateRef(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	svc := core.NewNodeService(pool)

	mustCreate(t, svc, "W1", "First", core.KindWarehouse, nil, nil)
	_, err := svc.Create(context.Background(), core.NewNodeInput{
		Ref: "W1", Label: "Second", Kind: core.KindWarehouse,
	})
	var ve *core.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError for duplicate ref, got %v", err)
	}
}

func TestNodeService_CreateEnforcesDepthInvariant(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	svc := core.NewNodeService(pool)
	ctx := context.Background()

	_, _, c := seedTree(t, svc)

	// A location may not hang off a container.
	_, err := svc.Create(ctx, core.NewNodeInput{
		Ref: "L9", Label: "Bad Location", Kind: core.KindLocation, ParentID: &c.ID,
	})
	var ve *core.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError for location under container, got %v", err)
	}

	// Unknown parent ID is a validation failure, not a 404.
	bogus := "00000000-0000-0000-0000-000000000000"
	_, err = svc.Create(ctx, core.NewNodeInput{
		Ref: "L8", Label: "Orphan", Kind: core.KindLocation, ParentID: &bogus,
	})
	if !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError for missing parent, got %v", err)
	}
}

func TestNodeService_RefReusableAfterDelete(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	svc := core.NewNodeService(pool)
	ctx := context.Background()

	w := mustCreate(t, svc, "W1", "Old", core.KindWarehouse, nil, nil)
	if err := svc.SoftDelete(ctx, w.ID); err != nil {
		t.Fatalf("SoftDelete failed: %v", err)
	}

	// The ref of a deleted node is free for reuse.
	mustCreate(t, svc, "W1", "New", core.KindWarehouse, nil, nil)
}

func TestNodeService_Update(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	svc := core.NewNodeService(pool)
	ctx := context.Background()

	w, l, _ := seedTree(t, svc)
	w2 := mustCreate(t, svc, "W2", "Second Warehouse", core.KindWarehouse, nil, nil)

	inactive := false
	updated, err := svc.Update(ctx, l.ID, core.NodePatch{
		Label:  strPtr("Front Room"),
		Status: &inactive,
	})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if updated.Label != "Front Room" || updated.Status {
		t.Errorf("patch not applied: %+v", updated)
	}
	if !updated.ModifiedAt.After(l.ModifiedAt) {
		t.Error("modified_at not bumped")
	}

	// Moving the location to another warehouse keeps the shape legal.
	moved, err := svc.Update(ctx, l.ID, core.NodePatch{ParentID: &w2.ID})
	if err != nil {
		t.Fatalf("Update (move) failed: %v", err)
	}
	if moved.ParentID == nil || *moved.ParentID != w2.ID {
		t.Errorf("move not applied: %v", moved.ParentID)
	}

	// Moving it under another location would break the shape.
	l2 := mustCreate(t, svc, "L2", "Other Room", core.KindLocation, nil, &w.ID)
	_, err = svc.Update(ctx, l.ID, core.NodePatch{ParentID: &l2.ID})
	var ve *core.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError for location under location, got %v", err)
	}

	// A warehouse can never gain a parent.
	_, err = svc.Update(ctx, w.ID, core.NodePatch{ParentID: &w2.ID})
	if !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError for warehouse parent, got %v", err)
	}
}

func TestNodeService_UpdateRejectsDuplicateRef(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	svc := core.NewNodeService(pool)

	mustCreate(t, svc, "W1", "First", core.KindWarehouse, nil, nil)
	w2 := mustCreate(t, svc, "W2", "Second", core.KindWarehouse, nil, nil)

	_, err := svc.Update(context.Background(), w2.ID, core.NodePatch{Ref: strPtr("W1")})
	var ve *core.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError for duplicate ref, got %v", err)
	}
}

func TestNodeService_SoftDeleteBlockedByChildren(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	svc := core.NewNodeService(pool)
	ctx := context.Background()

	w, l, c := seedTree(t, svc)

	err := svc.SoftDelete(ctx, w.ID)
	var ce *core.ConflictError
	if !errors.As(err, &ce) {
		t.Fatalf("expected ConflictError deleting warehouse with children, got %v", err)
	}

	// Bottom-up deletion succeeds.
	if err := svc.SoftDelete(ctx, c.ID); err != nil {
		t.Fatalf("SoftDelete container failed: %v", err)
	}
	if err := svc.SoftDelete(ctx, l.ID); err != nil {
		t.Fatalf("SoftDelete location failed: %v", err)
	}
	if err := svc.SoftDelete(ctx, w.ID); err != nil {
		t.Fatalf("SoftDelete warehouse failed: %v", err)
	}

	// Deleted nodes stay resolvable by ID for historical lookups.
	got, err := svc.Get(ctx, c.ID)
	if err != nil {
		t.Fatalf("Get after delete failed: %v", err)
	}
	if !got.Deleted || got.DeletedAt == nil {
		t.Errorf("delete flags not set: %+v", got)
	}

	// But not by ref.
	if _, err := svc.GetByRef(ctx, "C1"); err == nil {
		t.Error("GetByRef must not return deleted nodes")
	}

	// Repeated delete is a no-op.
	if err := svc.SoftDelete(ctx, c.ID); err != nil {
		t.Errorf("repeated SoftDelete should be a no-op, got %v", err)
	}
}

func TestNodeService_ConcurrentCreateAndDeleteKeepTreeConsistent(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	svc := core.NewNodeService(pool)
	ctx := context.Background()

	// Race a child creation against the parent's soft delete, repeatedly.
	// Exactly one interleaving is allowed per round: either the child lands
	// and the delete conflicts, or the delete wins and the creation is
	// rejected. A live child under a deleted parent is never acceptable.
	const rounds = 20
	w := mustCreate(t, svc, "W1", "Main Warehouse", core.KindWarehouse, nil, nil)
	for i := 0; i < rounds; i++ {
		l := mustCreate(t, svc, fmt.Sprintf("L%d", i), fmt.Sprintf("Room %d", i), core.KindLocation, nil, &w.ID)

		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, err := svc.Create(ctx, core.NewNodeInput{
				Ref: fmt.Sprintf("C%d", i), Label: fmt.Sprintf("Box %d", i),
				Kind: core.KindContainer, ContainerKind: ckPtr(core.ContainerBox), ParentID: &l.ID,
			})
			if err != nil {
				var ve *core.ValidationError
				if !errors.As(err, &ve) {
					t.Errorf("round %d: Create failed with %v, want nil or ValidationError", i, err)
				}
			}
		}()
		go func() {
			defer wg.Done()
			if err := svc.SoftDelete(ctx, l.ID); err != nil {
				var ce *core.ConflictError
				if !errors.As(err, &ce) {
					t.Errorf("round %d: SoftDelete failed with %v, want nil or ConflictError", i, err)
				}
			}
		}()
		wg.Wait()
	}

	var violations int
	err := pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM nodes c
		JOIN nodes p ON p.id = c.parent_id
		WHERE NOT c.deleted AND p.deleted
	`).Scan(&violations)
	if err != nil {
		t.Fatalf("invariant query failed: %v", err)
	}
	if violations != 0 {
		t.Errorf("found %d live children under deleted parents", violations)
	}
}

func TestNodeService_SoftDeleteMissingNode(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	svc := core.NewNodeService(pool)

	err := svc.SoftDelete(context.Background(), "00000000-0000-0000-0000-000000000000")
	var nf *core.NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
}
