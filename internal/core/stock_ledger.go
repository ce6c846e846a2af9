package core

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// StockEntry is one (product, container) → quantity mapping. An explicit zero
// quantity is a real entry — it records that the container was once stocked —
// and is distinct from the absence of an entry.
type StockEntry struct {
	ProductID    string          `json:"product_id"`
	ContainerRef string          `json:"container_ref"`
	Quantity     decimal.Decimal `json:"quantity"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// StockLedger tracks per-product quantities keyed by container ref. The
// ledger deliberately does not verify that a ref names a live container —
// entries must survive changes to the location taxonomy, and a dangling ref
// is a display-time concern, not a write-time error.
type StockLedger interface {
	// SetQuantity upserts the quantity for a (product, container) pair.
	// Negative quantities are rejected; setting the same value twice is a
	// no-op in effect. Concurrent writers resolve last-write-wins.
	SetQuantity(ctx context.Context, productID, containerRef string, quantity decimal.Decimal) error
	// RemoveEntry deletes the mapping entry, failing with NotFoundError when
	// no entry exists for the pair.
	RemoveEntry(ctx context.Context, productID, containerRef string) error
	// TotalFor sums all quantities for a product, zero when it has no entries.
	// Totals are always computed on read and never stored.
	TotalFor(ctx context.Context, productID string) (decimal.Decimal, error)
	// EntriesFor returns the full mapping for a product in container order.
	EntriesFor(ctx context.Context, productID string) ([]StockEntry, error)
}

type stockLedger struct {
	pool *pgxpool.Pool
}

func NewStockLedger(pool *pgxpool.Pool) StockLedger {
	return &stockLedger{pool: pool}
}

func (l *stockLedger) SetQuantity(ctx context.Context, productID, containerRef string, quantity decimal.Decimal) error {
	if strings.TrimSpace(productID) == "" {
		return &ValidationError{Field: "product_id", Message: "must not be empty"}
	}
	if strings.TrimSpace(containerRef) == "" {
		return &ValidationError{Field: "container_ref", Message: "must not be empty"}
	}
	if quantity.IsNegative() {
		return &ValidationError{Field: "quantity", Message: fmt.Sprintf("must not be negative, got %s", quantity)}
	}

	_, err := l.pool.Exec(ctx, `
		INSERT INTO stock_entries (product_id, container_ref, quantity)
		VALUES ($1, $2, $3)
		ON CONFLICT (product_id, container_ref)
		DO UPDATE SET quantity = EXCLUDED.quantity, updated_at = NOW()
	`, productID, containerRef, quantity)
	if err != nil {
		return fmt.Errorf("failed to upsert stock entry: %w", err)
	}
	return nil
}

func (l *stockLedger) RemoveEntry(ctx context.Context, productID, containerRef string) error {
	tag, err := l.pool.Exec(ctx,
		"DELETE FROM stock_entries WHERE product_id = $1 AND container_ref = $2",
		productID, containerRef)
	if err != nil {
		return fmt.Errorf("failed to delete stock entry: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return &NotFoundError{Resource: "stock entry", Key: productID + "/" + containerRef}
	}
	return nil
}

func (l *stockLedger) TotalFor(ctx context.Context, productID string) (decimal.Decimal, error) {
	var total decimal.Decimal
	err := l.pool.QueryRow(ctx,
		"SELECT COALESCE(SUM(quantity), 0) FROM stock_entries WHERE product_id = $1",
		productID).Scan(&total)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to sum stock for product %s: %w", productID, err)
	}
	return total, nil
}

func (l *stockLedger) EntriesFor(ctx context.Context, productID string) ([]StockEntry, error) {
	rows, err := l.pool.Query(ctx, `
		SELECT product_id, container_ref, quantity, created_at, updated_at
		FROM stock_entries
		WHERE product_id = $1
		ORDER BY container_ref
	`, productID)
	if err != nil {
		return nil, fmt.Errorf("failed to query stock entries: %w", err)
	}
	defer rows.Close()

	entries := []StockEntry{}
	for rows.Next() {
		var e StockEntry
		if err := rows.Scan(&e.ProductID, &e.ContainerRef, &e.Quantity, &e.CreatedAt, &e.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan stock entry: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
