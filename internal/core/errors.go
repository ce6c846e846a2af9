package core

import "fmt"

// ValidationError reports malformed input: a negative quantity, a duplicate
// ref, or a kind/parent combination that breaks the tree shape. It is always
// raised before any mutation, so a failed call leaves the store untouched.
type ValidationError struct {
	Field   string // the offending field, e.g. "ref", "parent_id", "quantity"
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "validation: " + e.Message
	}
	return fmt.Sprintf("validation: %s: %s", e.Field, e.Message)
}

// NotFoundError reports an operation targeting a node or ledger entry that
// does not exist.
type NotFoundError struct {
	Resource string // "node", "stock entry"
	Key      string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Resource, e.Key)
}

// ConflictError reports a mutation blocked by current state, such as deleting
// a node that still has live children.
type ConflictError struct {
	Message string
}

func (e *ConflictError) Error() string { return "conflict: " + e.Message }

// IntegrityError reports structural corruption detected at read time — a
// cycle in parent links or a dangling parent reference. It fails the specific
// computation; callers log it as a system fault rather than user feedback.
type IntegrityError struct {
	Message string
}

func (e *IntegrityError) Error() string { return "integrity: " + e.Message }
