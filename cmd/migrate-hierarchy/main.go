// migrate-hierarchy is a one-shot tool that lifts a flat legacy layout into
// the three-level tree. Legacy data has every storage place as a root
// "warehouse" row; after migration there is a single real warehouse with a
// default location, and every other legacy row hangs under it as a container
// classified by its label.
//
// Usage: go run ./cmd/migrate-hierarchy
package main

import (
	"context"
	"log"
	"os"
	"time"

	"stockroom/internal/core"
	"stockroom/internal/db"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	ctx := context.Background()
	pool, err := db.NewPool(ctx)
	if err != nil {
		log.Fatalf("Failed to connect: %v", err)
	}
	defer pool.Close()

	mainRef := os.Getenv("MAIN_WAREHOUSE_REF")
	if mainRef == "" {
		mainRef = "MAIN"
	}

	tx, err := pool.Begin(ctx)
	if err != nil {
		log.Fatalf("Failed to begin transaction: %v", err)
	}
	defer tx.Rollback(ctx)

	now := time.Now().UTC()

	// Locate or create the real warehouse root.
	var warehouseID string
	err = tx.QueryRow(ctx,
		"SELECT id FROM nodes WHERE ref = $1 AND kind = 'warehouse' AND NOT deleted", mainRef,
	).Scan(&warehouseID)
	if err != nil {
		warehouseID = uuid.NewString()
		_, err = tx.Exec(ctx, `
			INSERT INTO nodes (id, ref, label, kind, status, deleted, created_at, modified_at)
			VALUES ($1, $2, 'Main Warehouse', 'warehouse', true, false, $3, $3)
		`, warehouseID, mainRef, now)
		if err != nil {
			log.Fatalf("Failed to create main warehouse: %v", err)
		}
		log.Printf("Created warehouse %s", mainRef)
	} else {
		log.Printf("Using existing warehouse %s", mainRef)
	}

	// Locate or create the default location under it.
	var locationID string
	err = tx.QueryRow(ctx,
		"SELECT id FROM nodes WHERE parent_id = $1 AND kind = 'location' AND NOT deleted ORDER BY created_at LIMIT 1",
		warehouseID,
	).Scan(&locationID)
	if err != nil {
		locationID = uuid.NewString()
		_, err = tx.Exec(ctx, `
			INSERT INTO nodes (id, ref, label, kind, parent_id, status, deleted, created_at, modified_at)
			VALUES ($1, 'DEFAULT', 'Default Location', 'location', $2, true, false, $3, $3)
		`, locationID, warehouseID, now)
		if err != nil {
			log.Fatalf("Failed to create default location: %v", err)
		}
		log.Println("Created location DEFAULT")
	}

	// Every remaining flat root is a legacy storage place. Reclassify it as a
	// container under the default location, detecting its type from the label.
	rows, err := tx.Query(ctx, `
		SELECT id, ref, label FROM nodes
		WHERE kind = 'warehouse' AND parent_id IS NULL AND NOT deleted AND id <> $1
		ORDER BY label
	`, warehouseID)
	if err != nil {
		log.Fatalf("Failed to list legacy rows: %v", err)
	}

	type legacyRow struct {
		id, ref, label string
	}
	var legacy []legacyRow
	for rows.Next() {
		var l legacyRow
		if err := rows.Scan(&l.id, &l.ref, &l.label); err != nil {
			rows.Close()
			log.Fatalf("Failed to scan legacy row: %v", err)
		}
		legacy = append(legacy, l)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		log.Fatalf("Failed reading legacy rows: %v", err)
	}

	for _, l := range legacy {
		kind := core.DetectContainerKind(l.label, "")
		_, err = tx.Exec(ctx, `
			UPDATE nodes
			SET kind = 'container', container_kind = $1, parent_id = $2, modified_at = $3
			WHERE id = $4
		`, string(kind), locationID, now, l.id)
		if err != nil {
			log.Fatalf("Failed to migrate %s: %v", l.ref, err)
		}
		log.Printf("Migrated %s (%s) as %s", l.ref, l.label, kind)
	}

	if err := tx.Commit(ctx); err != nil {
		log.Fatalf("Failed to commit migration: %v", err)
	}
	log.Printf("Done. %d legacy rows migrated under %s/DEFAULT.", len(legacy), mainRef)
}
