package core

import (
	"regexp"
	"strings"
	"time"
)

// NodeKind is the level of a node in the storage tree. The three kinds form a
// fixed-depth hierarchy: warehouses at the root, locations under warehouses,
// containers under locations. Kind is assigned at creation and never changes.
type NodeKind string

const (
	KindWarehouse NodeKind = "warehouse"
	KindLocation  NodeKind = "location"
	KindContainer NodeKind = "container"
)

// ContainerKind classifies the physical container holding stock.
type ContainerKind string

const (
	ContainerBox        ContainerKind = "box"
	ContainerCase       ContainerKind = "case"
	ContainerSuitcase   ContainerKind = "suitcase"
	ContainerIkeaBox    ContainerKind = "ikea_box"
	ContainerWrap       ContainerKind = "wrap"
	ContainerStorageBin ContainerKind = "storage_bin"
	ContainerPallet     ContainerKind = "pallet"
	ContainerShelf      ContainerKind = "shelf"
	ContainerDrawer     ContainerKind = "drawer"
	ContainerOther      ContainerKind = "other"
)

// Node is one entry in the three-level storage hierarchy. Only the Ref is
// user-facing: ledger entries key on it, not on the internal ID.
type Node struct {
	ID            string         `json:"id"`
	Ref           string         `json:"ref"`
	Label         string         `json:"label"`
	Kind          NodeKind       `json:"kind"`
	ContainerKind *ContainerKind `json:"container_kind,omitempty"`
	ParentID      *string        `json:"parent_id,omitempty"`
	Status        bool           `json:"status"`
	Deleted       bool           `json:"deleted"`
	DeletedAt     *time.Time     `json:"deleted_at,omitempty"`
	CreatedAt     time.Time      `json:"created_at"`
	ModifiedAt    time.Time      `json:"modified_at"`
}

func validKind(k NodeKind) bool {
	return k == KindWarehouse || k == KindLocation || k == KindContainer
}

func validContainerKind(ck ContainerKind) bool {
	switch ck {
	case ContainerBox, ContainerCase, ContainerSuitcase, ContainerIkeaBox,
		ContainerWrap, ContainerStorageBin, ContainerPallet, ContainerShelf,
		ContainerDrawer, ContainerOther:
		return true
	}
	return false
}

// parentKindFor returns the kind a node's parent must have. Warehouses have
// no parent; the second return is false for them.
func parentKindFor(k NodeKind) (NodeKind, bool) {
	switch k {
	case KindLocation:
		return KindWarehouse, true
	case KindContainer:
		return KindLocation, true
	default:
		return "", false
	}
}

// ValidateNewNode checks the fields of a node about to be created against the
// tree-shape rules. parent is nil for root nodes; the store passes the loaded
// parent so the kind pairing can be verified before any write happens.
func ValidateNewNode(ref, label string, kind NodeKind, containerKind *ContainerKind, parent *Node) error {
	if strings.TrimSpace(ref) == "" {
		return &ValidationError{Field: "ref", Message: "must not be empty"}
	}
	if strings.TrimSpace(label) == "" {
		return &ValidationError{Field: "label", Message: "must not be empty"}
	}
	if !validKind(kind) {
		return &ValidationError{Field: "kind", Message: "must be warehouse, location or container"}
	}

	if kind == KindContainer {
		if containerKind == nil {
			return &ValidationError{Field: "container_kind", Message: "required for containers"}
		}
		if !validContainerKind(*containerKind) {
			return &ValidationError{Field: "container_kind", Message: "unknown container kind"}
		}
	} else if containerKind != nil {
		return &ValidationError{Field: "container_kind", Message: "only allowed on containers"}
	}

	wantParent, needsParent := parentKindFor(kind)
	if !needsParent {
		if parent != nil {
			return &ValidationError{Field: "parent_id", Message: "warehouses must not have a parent"}
		}
		return nil
	}
	if parent == nil {
		return &ValidationError{Field: "parent_id", Message: string(kind) + " nodes require a parent " + string(wantParent)}
	}
	if parent.Kind != wantParent {
		return &ValidationError{
			Field:   "parent_id",
			Message: string(kind) + " nodes must be placed under a " + string(wantParent) + ", got " + string(parent.Kind),
		}
	}
	if parent.Deleted {
		return &ValidationError{Field: "parent_id", Message: "parent node is deleted"}
	}
	return nil
}

// containerKindPatterns maps container kinds to label patterns, in priority
// order. Covers English and Danish terms found in the legacy data.
var containerKindPatterns = []struct {
	kind     ContainerKind
	patterns []*regexp.Regexp
}{
	{ContainerIkeaBox, compileAll(`\bikea\W*(box|kasse|æske|case)\b`)},
	{ContainerBox, compileAll(`\bbox\b`, `\bboks\b`)},
	{ContainerCase, compileAll(`\bcase\b`, `\bkasse\b`)},
	{ContainerSuitcase, compileAll(`\bsuitcase\b`, `\bkuffert\b`)},
	{ContainerStorageBin, compileAll(`\bbin\b`, `\bopbevaring\b`)},
	{ContainerWrap, compileAll(`\bwrap\b`, `\bindpakning\b`)},
	{ContainerPallet, compileAll(`\bpallet\b`, `\bpalle\b`)},
	{ContainerShelf, compileAll(`\bshelf\b`, `\bhylde\b`)},
	{ContainerDrawer, compileAll(`\bdrawer\b`, `\bskuffe\b`)},
}

func compileAll(exprs ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(exprs))
	for i, e := range exprs {
		out[i] = regexp.MustCompile(e)
	}
	return out
}

// DetectContainerKind guesses a container kind from free-text label and
// description, falling back to ContainerOther. Used by the hierarchy
// migration when classifying legacy flat warehouse rows.
func DetectContainerKind(label, description string) ContainerKind {
	text := strings.ToLower(label + " " + description)
	for _, entry := range containerKindPatterns {
		for _, p := range entry.patterns {
			if p.MatchString(text) {
				return entry.kind
			}
		}
	}
	return ContainerOther
}
