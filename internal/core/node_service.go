package core

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// NewNodeInput carries the caller-supplied fields for node creation. The ID
// and timestamps are assigned by the store.
type NewNodeInput struct {
	Ref           string
	Label         string
	Kind          NodeKind
	ContainerKind *ContainerKind
	ParentID      *string
}

// NodePatch is a partial update. Nil fields are left unchanged. Kind is
// deliberately absent: a node's kind is fixed at creation.
type NodePatch struct {
	Ref      *string
	Label    *string
	Status   *bool
	ParentID *string
}

// NodeService is the durable store of location nodes. It owns creation-time
// and update-time enforcement of the tree shape: warehouses are roots,
// locations sit under warehouses, containers under locations.
type NodeService interface {
	// Create validates the tree-shape rules and ref uniqueness, then inserts.
	Create(ctx context.Context, input NewNodeInput) (*Node, error)
	// Get returns a node by ID. Deleted nodes are still returned so that
	// historical path lookups keep working.
	Get(ctx context.Context, id string) (*Node, error)
	// GetByRef returns the live (non-deleted) node with the given ref.
	GetByRef(ctx context.Context, ref string) (*Node, error)
	// ListChildren returns the non-deleted children of a node in label order.
	ListChildren(ctx context.Context, parentID string) ([]Node, error)
	// Update applies a patch. Ref uniqueness and the tree shape are
	// re-validated; a parent change that breaks the shape is rejected.
	Update(ctx context.Context, id string, patch NodePatch) (*Node, error)
	// SoftDelete marks a node deleted. Fails with ConflictError while the
	// node still has non-deleted children; the children check and the flag
	// flip happen under an exclusive row lock so a concurrent child creation
	// cannot slip between them.
	SoftDelete(ctx context.Context, id string) error
}

type nodeService struct {
	pool *pgxpool.Pool
}

func NewNodeService(pool *pgxpool.Pool) NodeService {
	return &nodeService{pool: pool}
}

const nodeColumns = `id, ref, label, kind, container_kind, parent_id, status, deleted, deleted_at, created_at, modified_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanNode(row rowScanner) (*Node, error) {
	var n Node
	var containerKind *string
	if err := row.Scan(&n.ID, &n.Ref, &n.Label, &n.Kind, &containerKind, &n.ParentID,
		&n.Status, &n.Deleted, &n.DeletedAt, &n.CreatedAt, &n.ModifiedAt); err != nil {
		return nil, err
	}
	if containerKind != nil {
		ck := ContainerKind(*containerKind)
		n.ContainerKind = &ck
	}
	return &n, nil
}

func (s *nodeService) Create(ctx context.Context, input NewNodeInput) (*Node, error) {
	input.Ref = strings.TrimSpace(input.Ref)
	input.Label = strings.TrimSpace(input.Label)

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var parent *Node
	if input.ParentID != nil {
		parent, err = lockParentShared(ctx, tx, *input.ParentID)
		if err != nil {
			var nf *NotFoundError
			if errors.As(err, &nf) {
				return nil, &ValidationError{Field: "parent_id", Message: fmt.Sprintf("parent node %q does not exist", *input.ParentID)}
			}
			return nil, err
		}
	}

	if err := ValidateNewNode(input.Ref, input.Label, input.Kind, input.ContainerKind, parent); err != nil {
		return nil, err
	}

	var refTaken bool
	if err := tx.QueryRow(ctx,
		"SELECT EXISTS (SELECT 1 FROM nodes WHERE ref = $1 AND NOT deleted)", input.Ref,
	).Scan(&refTaken); err != nil {
		return nil, fmt.Errorf("failed to check ref uniqueness: %w", err)
	}
	if refTaken {
		return nil, &ValidationError{Field: "ref", Message: fmt.Sprintf("ref %q is already in use", input.Ref)}
	}

	now := time.Now().UTC()
	node := &Node{
		ID:            uuid.NewString(),
		Ref:           input.Ref,
		Label:         input.Label,
		Kind:          input.Kind,
		ContainerKind: input.ContainerKind,
		ParentID:      input.ParentID,
		Status:        true,
		CreatedAt:     now,
		ModifiedAt:    now,
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO nodes (id, ref, label, kind, container_kind, parent_id, status, deleted, created_at, modified_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, false, $8, $8)
	`, node.ID, node.Ref, node.Label, node.Kind, containerKindValue(node.ContainerKind), node.ParentID, node.Status, now)
	if err != nil {
		// The partial unique index backs the uniqueness check under
		// concurrent creates with the same ref.
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, &ValidationError{Field: "ref", Message: fmt.Sprintf("ref %q is already in use", input.Ref)}
		}
		return nil, fmt.Errorf("failed to insert node: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit node creation: %w", err)
	}
	return node, nil
}

func containerKindValue(ck *ContainerKind) *string {
	if ck == nil {
		return nil
	}
	s := string(*ck)
	return &s
}

type pgxQuerier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func getNodeQ(ctx context.Context, q pgxQuerier, id string) (*Node, error) {
	node, err := scanNode(q.QueryRow(ctx, "SELECT "+nodeColumns+" FROM nodes WHERE id = $1", id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &NotFoundError{Resource: "node", Key: id}
		}
		return nil, fmt.Errorf("failed to fetch node: %w", err)
	}
	return node, nil
}

// lockParentShared fetches a prospective parent under a shared row lock. A
// concurrent soft-delete of the same row blocks until this transaction
// commits its child, and its no-children check then sees that child; in the
// opposite order this read blocks and re-sees the deleted flag. Either way a
// live child can never land under a deleted parent.
func lockParentShared(ctx context.Context, tx pgx.Tx, id string) (*Node, error) {
	node, err := scanNode(tx.QueryRow(ctx,
		"SELECT "+nodeColumns+" FROM nodes WHERE id = $1 FOR SHARE", id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &NotFoundError{Resource: "node", Key: id}
		}
		return nil, fmt.Errorf("failed to lock parent node: %w", err)
	}
	return node, nil
}

func (s *nodeService) Get(ctx context.Context, id string) (*Node, error) {
	return getNodeQ(ctx, s.pool, id)
}

func (s *nodeService) GetByRef(ctx context.Context, ref string) (*Node, error) {
	node, err := scanNode(s.pool.QueryRow(ctx,
		"SELECT "+nodeColumns+" FROM nodes WHERE ref = $1 AND NOT deleted", ref))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &NotFoundError{Resource: "node", Key: ref}
		}
		return nil, fmt.Errorf("failed to fetch node by ref: %w", err)
	}
	return node, nil
}

func (s *nodeService) ListChildren(ctx context.Context, parentID string) ([]Node, error) {
	rows, err := s.pool.Query(ctx,
		"SELECT "+nodeColumns+" FROM nodes WHERE parent_id = $1 AND NOT deleted ORDER BY label", parentID)
	if err != nil {
		return nil, fmt.Errorf("failed to query children: %w", err)
	}
	defer rows.Close()

	var children []Node
	for rows.Next() {
		n, err := scanNode(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan child node: %w", err)
		}
		children = append(children, *n)
	}
	return children, rows.Err()
}

func (s *nodeService) Update(ctx context.Context, id string, patch NodePatch) (*Node, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	node, err := scanNode(tx.QueryRow(ctx,
		"SELECT "+nodeColumns+" FROM nodes WHERE id = $1 AND NOT deleted FOR UPDATE", id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &NotFoundError{Resource: "node", Key: id}
		}
		return nil, fmt.Errorf("failed to lock node: %w", err)
	}

	if patch.Ref != nil {
		newRef := strings.TrimSpace(*patch.Ref)
		if newRef == "" {
			return nil, &ValidationError{Field: "ref", Message: "must not be empty"}
		}
		if newRef != node.Ref {
			var refTaken bool
			if err := tx.QueryRow(ctx,
				"SELECT EXISTS (SELECT 1 FROM nodes WHERE ref = $1 AND NOT deleted AND id <> $2)", newRef, id,
			).Scan(&refTaken); err != nil {
				return nil, fmt.Errorf("failed to check ref uniqueness: %w", err)
			}
			if refTaken {
				return nil, &ValidationError{Field: "ref", Message: fmt.Sprintf("ref %q is already in use", newRef)}
			}
			node.Ref = newRef
		}
	}
	if patch.Label != nil {
		if strings.TrimSpace(*patch.Label) == "" {
			return nil, &ValidationError{Field: "label", Message: "must not be empty"}
		}
		node.Label = strings.TrimSpace(*patch.Label)
	}
	if patch.Status != nil {
		node.Status = *patch.Status
	}
	if patch.ParentID != nil && (node.ParentID == nil || *patch.ParentID != *node.ParentID) {
		if node.Kind == KindWarehouse {
			return nil, &ValidationError{Field: "parent_id", Message: "warehouses must not have a parent"}
		}
		newParent, err := lockParentShared(ctx, tx, *patch.ParentID)
		if err != nil {
			var nf *NotFoundError
			if errors.As(err, &nf) {
				return nil, &ValidationError{Field: "parent_id", Message: fmt.Sprintf("parent node %q does not exist", *patch.ParentID)}
			}
			return nil, err
		}
		wantParent, _ := parentKindFor(node.Kind)
		if newParent.Kind != wantParent {
			return nil, &ValidationError{
				Field:   "parent_id",
				Message: string(node.Kind) + " nodes must be placed under a " + string(wantParent) + ", got " + string(newParent.Kind),
			}
		}
		if newParent.Deleted {
			return nil, &ValidationError{Field: "parent_id", Message: "parent node is deleted"}
		}
		node.ParentID = patch.ParentID
	}

	node.ModifiedAt = time.Now().UTC()
	_, err = tx.Exec(ctx, `
		UPDATE nodes
		SET ref = $1, label = $2, status = $3, parent_id = $4, modified_at = $5
		WHERE id = $6
	`, node.Ref, node.Label, node.Status, node.ParentID, node.ModifiedAt, id)
	if err != nil {
		return nil, fmt.Errorf("failed to update node: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit node update: %w", err)
	}
	return node, nil
}

func (s *nodeService) SoftDelete(ctx context.Context, id string) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	// Exclusive lock first. Create takes FOR SHARE on the parent before
	// inserting a child, so by the time this lock is granted any in-flight
	// child is committed and visible to the children check below; in the
	// opposite order Create blocks here and re-sees the deleted flag.
	node, err := scanNode(tx.QueryRow(ctx,
		"SELECT "+nodeColumns+" FROM nodes WHERE id = $1 FOR UPDATE", id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return &NotFoundError{Resource: "node", Key: id}
		}
		return fmt.Errorf("failed to lock node: %w", err)
	}
	if node.Deleted {
		// Already deleted; repeated deletion is a no-op.
		return nil
	}

	var hasChildren bool
	if err := tx.QueryRow(ctx,
		"SELECT EXISTS (SELECT 1 FROM nodes WHERE parent_id = $1 AND NOT deleted)", id,
	).Scan(&hasChildren); err != nil {
		return fmt.Errorf("failed to check children: %w", err)
	}
	if hasChildren {
		return &ConflictError{Message: fmt.Sprintf("node %q still has non-deleted children", node.Ref)}
	}

	_, err = tx.Exec(ctx, `
		UPDATE nodes
		SET deleted = true, deleted_at = NOW(), modified_at = NOW()
		WHERE id = $1
	`, id)
	if err != nil {
		return fmt.Errorf("failed to soft-delete node: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit soft delete: %w", err)
	}
	return nil
}
