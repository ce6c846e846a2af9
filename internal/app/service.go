package app

import (
	"context"

	"stockroom/internal/core"

	"github.com/shopspring/decimal"
)

// ApplicationService is the single interface all adapters (REPL, Web) call.
// It decouples presentation from the hierarchy and ledger logic.
// Implementations must contain no fmt.Println, no ANSI codes, and no display
// logic of any kind.
type ApplicationService interface {
	// ListRoots returns active root nodes, warehouses unless another kind is
	// given.
	ListRoots(ctx context.Context, kind string) (*NodeListResult, error)

	// ListChildren returns the children of a node in label order. Active
	// children only unless includeInactive is set; deleted children are never
	// returned.
	ListChildren(ctx context.Context, parentID string, includeInactive bool) (*NodeListResult, error)

	// GetNode returns a node by ID, including soft-deleted nodes.
	GetNode(ctx context.Context, id string) (*core.Node, error)

	// GetNodeByRef returns the live node with the given ref.
	GetNodeByRef(ctx context.Context, ref string) (*core.Node, error)

	// GetPath returns the root-to-node path for display.
	GetPath(ctx context.Context, nodeID string) (*PathResult, error)

	// CreateNode creates a warehouse, location or container, enforcing the
	// three-level tree shape.
	CreateNode(ctx context.Context, req CreateNodeRequest) (*core.Node, error)

	// UpdateNode applies a partial update to a node.
	UpdateNode(ctx context.Context, id string, req UpdateNodeRequest) (*core.Node, error)

	// SoftDeleteNode marks a childless node deleted.
	SoftDeleteNode(ctx context.Context, id string) error

	// SetStock upserts the quantity of a product in a container.
	SetStock(ctx context.Context, req SetStockRequest) error

	// RemoveStock deletes a (product, container) ledger entry.
	RemoveStock(ctx context.Context, productID, containerRef string) error

	// GetStock returns a product's ledger entries with their locations
	// resolved for display. Entries whose container no longer resolves keep
	// the raw ref and an empty path instead of failing the read.
	GetStock(ctx context.Context, productID string) (*StockResult, error)

	// GetTotalStock sums all of a product's entries, computed on read.
	GetTotalStock(ctx context.Context, productID string) (decimal.Decimal, error)

	// ResolveSelection replays a drill-down pick sequence against the current
	// tree, applying the auto-select-on-singleton rule, and returns the
	// resulting state for the client to render.
	ResolveSelection(ctx context.Context, chosen []string) (*core.SelectionState, error)

	// InterpretStockCommand sends a natural language instruction to the AI
	// assistant and returns a structured command proposal. Nothing is written
	// until the caller confirms via SetStock/RemoveStock.
	InterpretStockCommand(ctx context.Context, text string) (*CommandResult, error)

	// AnswerStockQuestion routes a natural language question through the
	// agent's read-tool loop over the hierarchy and the ledger.
	AnswerStockQuestion(ctx context.Context, question string) (string, error)

	// AuthenticateUser verifies credentials and returns a session on success.
	AuthenticateUser(ctx context.Context, username, password string) (*UserSession, error)

	// GetUser returns user profile by ID.
	GetUser(ctx context.Context, userID int) (*UserResult, error)
}
