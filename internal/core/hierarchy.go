package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// maxPathDepth bounds the upward walk in Path. The tree is three levels deep
// by construction, so anything longer means corrupted parent links.
const maxPathDepth = 3

// HierarchyResolver answers traversal questions over the node store: which
// nodes are roots, what sits under a node, and the root-to-node path. It
// performs no caching; every call reads current store state.
type HierarchyResolver interface {
	// Roots returns all active, non-deleted nodes of the given kind with no
	// parent, in label order. Kind defaults to warehouse when empty.
	Roots(ctx context.Context, kind NodeKind) ([]Node, error)
	// Children returns all active, non-deleted children of a node in label
	// order. A node without children yields an empty slice, not an error.
	Children(ctx context.Context, nodeID string) ([]Node, error)
	// Path returns the nodes from the root warehouse down to and including
	// nodeID. Deleted nodes still resolve, so historical ledger entries keep
	// a displayable path. A cycle or dangling parent link fails fast with
	// IntegrityError.
	Path(ctx context.Context, nodeID string) ([]Node, error)
	// KindOf returns the kind of a node.
	KindOf(ctx context.Context, nodeID string) (NodeKind, error)
}

type hierarchyResolver struct {
	pool *pgxpool.Pool
}

func NewHierarchyResolver(pool *pgxpool.Pool) HierarchyResolver {
	return &hierarchyResolver{pool: pool}
}

func (r *hierarchyResolver) queryNodes(ctx context.Context, sql string, args ...any) ([]Node, error) {
	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query nodes: %w", err)
	}
	defer rows.Close()

	nodes := []Node{}
	for rows.Next() {
		n, err := scanNode(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan node: %w", err)
		}
		nodes = append(nodes, *n)
	}
	return nodes, rows.Err()
}

func (r *hierarchyResolver) Roots(ctx context.Context, kind NodeKind) ([]Node, error) {
	if kind == "" {
		kind = KindWarehouse
	}
	if !validKind(kind) {
		return nil, &ValidationError{Field: "kind", Message: "must be warehouse, location or container"}
	}
	return r.queryNodes(ctx, `
		SELECT `+nodeColumns+`
		FROM nodes
		WHERE parent_id IS NULL AND kind = $1 AND status AND NOT deleted
		ORDER BY label
	`, kind)
}

func (r *hierarchyResolver) Children(ctx context.Context, nodeID string) ([]Node, error) {
	return r.queryNodes(ctx, `
		SELECT `+nodeColumns+`
		FROM nodes
		WHERE parent_id = $1 AND status AND NOT deleted
		ORDER BY label
	`, nodeID)
}

func (r *hierarchyResolver) Path(ctx context.Context, nodeID string) ([]Node, error) {
	seen := map[string]bool{}
	var reversed []Node

	current := nodeID
	for {
		node, err := scanNode(r.pool.QueryRow(ctx,
			"SELECT "+nodeColumns+" FROM nodes WHERE id = $1", current))
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				if current == nodeID {
					return nil, &NotFoundError{Resource: "node", Key: nodeID}
				}
				// A parent link points at a row that no longer exists.
				return nil, &IntegrityError{Message: fmt.Sprintf("node %s references missing parent %s", nodeID, current)}
			}
			return nil, fmt.Errorf("failed to fetch node %s: %w", current, err)
		}

		if seen[node.ID] {
			return nil, &IntegrityError{Message: fmt.Sprintf("cycle in parent links at node %s", node.ID)}
		}
		seen[node.ID] = true
		reversed = append(reversed, *node)

		if node.ParentID == nil {
			break
		}
		if len(reversed) >= maxPathDepth {
			return nil, &IntegrityError{Message: fmt.Sprintf("path for node %s exceeds maximum depth %d", nodeID, maxPathDepth)}
		}
		current = *node.ParentID
	}

	// Walked leaf-to-root; callers want root-to-leaf.
	path := make([]Node, len(reversed))
	for i, n := range reversed {
		path[len(reversed)-1-i] = n
	}
	return path, nil
}

func (r *hierarchyResolver) KindOf(ctx context.Context, nodeID string) (NodeKind, error) {
	var kind NodeKind
	err := r.pool.QueryRow(ctx, "SELECT kind FROM nodes WHERE id = $1", nodeID).Scan(&kind)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", &NotFoundError{Resource: "node", Key: nodeID}
		}
		return "", fmt.Errorf("failed to fetch node kind: %w", err)
	}
	return kind, nil
}
