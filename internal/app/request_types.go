package app

import "github.com/shopspring/decimal"

// CreateNodeRequest carries the fields for node creation.
type CreateNodeRequest struct {
	Ref           string  `json:"ref"`
	Label         string  `json:"label"`
	Kind          string  `json:"kind"`
	ContainerKind *string `json:"container_kind,omitempty"`
	ParentID      *string `json:"parent_id,omitempty"`
}

// UpdateNodeRequest is a partial node update; nil fields are unchanged.
type UpdateNodeRequest struct {
	Ref      *string `json:"ref,omitempty"`
	Label    *string `json:"label,omitempty"`
	Status   *bool   `json:"status,omitempty"`
	ParentID *string `json:"parent_id,omitempty"`
}

// SetStockRequest upserts a ledger entry.
type SetStockRequest struct {
	ProductID    string          `json:"product_id"`
	ContainerRef string          `json:"container_ref"`
	Quantity     decimal.Decimal `json:"quantity"`
}
