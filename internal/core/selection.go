package core

import (
	"context"
	"fmt"
)

// SelectionResolver is the subset of hierarchy lookups the cascading
// selection protocol needs. HierarchyResolver satisfies it via
// selectionResolverAdapter; tests substitute an in-memory implementation.
type SelectionResolver interface {
	Roots(ctx context.Context) ([]Node, error)
	Children(ctx context.Context, nodeID string) ([]Node, error)
}

// selectionResolverAdapter narrows a HierarchyResolver to the protocol's
// interface, fixing the root kind to warehouse.
type selectionResolverAdapter struct {
	resolver HierarchyResolver
}

func (a selectionResolverAdapter) Roots(ctx context.Context) ([]Node, error) {
	return a.resolver.Roots(ctx, KindWarehouse)
}

func (a selectionResolverAdapter) Children(ctx context.Context, nodeID string) ([]Node, error) {
	return a.resolver.Children(ctx, nodeID)
}

// NewSelectionResolver wraps a HierarchyResolver for use with selection
// sessions.
func NewSelectionResolver(r HierarchyResolver) SelectionResolver {
	return selectionResolverAdapter{resolver: r}
}

// SelectionStep records one committed pick in a drill-down. Auto marks steps
// the protocol selected itself because the level offered exactly one option.
type SelectionStep struct {
	Node Node `json:"node"`
	Auto bool `json:"auto"`
}

// SelectionSession drives the warehouse → location → container drill-down.
// The protocol's one real rule: whenever a level offers exactly one option,
// it is selected automatically without user input. A selection is complete
// only once a container is reached; rewinding an intermediate pick discards
// every pick below it.
type SelectionSession struct {
	resolver SelectionResolver
	steps    []SelectionStep
	options  []Node
	complete bool
	started  bool
}

func NewSelectionSession(r SelectionResolver) *SelectionSession {
	return &SelectionSession{resolver: r}
}

// Start fetches the root warehouses and runs the auto-select rule. It may
// complete the whole selection without any input when every level down to a
// container is a singleton.
func (s *SelectionSession) Start(ctx context.Context) error {
	roots, err := s.resolver.Roots(ctx)
	if err != nil {
		return fmt.Errorf("failed to fetch selection roots: %w", err)
	}
	s.steps = nil
	s.options = roots
	s.complete = false
	s.started = true
	return s.autoAdvance(ctx)
}

// autoAdvance commits singleton option sets until the frontier is ambiguous,
// empty, or a container has been reached.
func (s *SelectionSession) autoAdvance(ctx context.Context) error {
	for len(s.options) == 1 && !s.complete {
		if err := s.commit(ctx, s.options[0], true); err != nil {
			return err
		}
	}
	return nil
}

// commit records a pick and loads the next level's options.
func (s *SelectionSession) commit(ctx context.Context, node Node, auto bool) error {
	s.steps = append(s.steps, SelectionStep{Node: node, Auto: auto})
	if node.Kind == KindContainer {
		s.complete = true
		s.options = nil
		return nil
	}
	children, err := s.resolver.Children(ctx, node.ID)
	if err != nil {
		return fmt.Errorf("failed to fetch children of %s: %w", node.Ref, err)
	}
	s.options = children
	return nil
}

// Choose commits an explicit pick at the current frontier. The ID must be
// among the options fetched for this level — a stale ID, for example one
// rendered before the tree changed, is rejected with NotFoundError so the
// protocol can never silently select a node the user was not shown.
func (s *SelectionSession) Choose(ctx context.Context, nodeID string) error {
	if !s.started {
		return &ValidationError{Field: "selection", Message: "session not started"}
	}
	if s.complete {
		return &ValidationError{Field: "selection", Message: "selection already complete"}
	}
	for _, opt := range s.options {
		if opt.ID == nodeID {
			if err := s.commit(ctx, opt, false); err != nil {
				return err
			}
			return s.autoAdvance(ctx)
		}
	}
	return &NotFoundError{Resource: "selection option", Key: nodeID}
}

// Rewind discards all picks at depth and below, reloading the options that
// were available at that level. Rewinding to depth 0 is equivalent to
// restarting the session.
func (s *SelectionSession) Rewind(ctx context.Context, depth int) error {
	if !s.started {
		return &ValidationError{Field: "selection", Message: "session not started"}
	}
	if depth < 0 || depth > len(s.steps) {
		return &ValidationError{Field: "depth", Message: fmt.Sprintf("must be between 0 and %d", len(s.steps))}
	}
	s.steps = s.steps[:depth]
	s.complete = false
	if depth == 0 {
		roots, err := s.resolver.Roots(ctx)
		if err != nil {
			return fmt.Errorf("failed to fetch selection roots: %w", err)
		}
		s.options = roots
		return nil
	}
	parent := s.steps[depth-1].Node
	children, err := s.resolver.Children(ctx, parent.ID)
	if err != nil {
		return fmt.Errorf("failed to fetch children of %s: %w", parent.Ref, err)
	}
	s.options = children
	return nil
}

// Steps returns the committed picks, root first.
func (s *SelectionSession) Steps() []SelectionStep { return s.steps }

// Options returns the choices at the current frontier. Empty when the
// selection is complete or the frontier node has no children.
func (s *SelectionSession) Options() []Node { return s.options }

// Complete reports whether a container has been reached.
func (s *SelectionSession) Complete() bool { return s.complete }

// ContainerRef returns the selected container's ref — the value a caller
// passes to StockLedger.SetQuantity. The second return is false until the
// selection is complete.
func (s *SelectionSession) ContainerRef() (string, bool) {
	if !s.complete || len(s.steps) == 0 {
		return "", false
	}
	return s.steps[len(s.steps)-1].Node.Ref, true
}

// SelectionState is a serializable snapshot of a selection session, used by
// stateless clients that replay their picks on every request.
type SelectionState struct {
	Steps    []SelectionStep `json:"steps"`
	Options  []Node          `json:"options"`
	Complete bool            `json:"complete"`
	Ref      string          `json:"container_ref,omitempty"`
}

// ResolveSelection replays a sequence of explicit picks against the current
// tree and returns the resulting state. Each chosen ID is validated against
// the freshly fetched options for its level, so a client holding stale IDs
// gets an error instead of a wrong selection.
func ResolveSelection(ctx context.Context, r SelectionResolver, chosen []string) (*SelectionState, error) {
	session := NewSelectionSession(r)
	if err := session.Start(ctx); err != nil {
		return nil, err
	}
	for _, id := range chosen {
		if session.Complete() {
			break
		}
		if err := session.Choose(ctx, id); err != nil {
			return nil, err
		}
	}
	state := &SelectionState{
		Steps:    session.Steps(),
		Options:  session.Options(),
		Complete: session.Complete(),
	}
	if ref, ok := session.ContainerRef(); ok {
		state.Ref = ref
	}
	return state, nil
}
