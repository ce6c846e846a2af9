package core

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// StockCommand is the AI assistant's structured interpretation of a natural
// language stock instruction. It is a proposal only: nothing is written until
// the caller confirms and invokes the ordinary ledger operations.
type StockCommand struct {
	Action       string  `json:"action" jsonschema_description:"One of 'set', 'remove' or 'query'. 'set' records a quantity for a product in a container, 'remove' deletes the ledger entry, 'query' asks where a product is stored."`
	ProductID    string  `json:"product_id" jsonschema_description:"The product identifier the instruction refers to"`
	ContainerRef string  `json:"container_ref" jsonschema_description:"The exact ref of the target container from the provided location index. Empty for 'query'."`
	Quantity     string  `json:"quantity" jsonschema_description:"The quantity as a decimal string (e.g. '12.5'). Required for 'set', empty otherwise."`
	Confidence   float64 `json:"confidence" jsonschema_description:"Confidence score between 0.0 and 1.0"`
	Reasoning    string  `json:"reasoning" jsonschema_description:"Explanation for the proposed command"`
}

const (
	CommandSet    = "set"
	CommandRemove = "remove"
	CommandQuery  = "query"
)

// Normalize trims whitespace from all text fields.
func (c *StockCommand) Normalize() {
	c.Action = strings.ToLower(strings.TrimSpace(c.Action))
	c.ProductID = strings.TrimSpace(c.ProductID)
	c.ContainerRef = strings.TrimSpace(c.ContainerRef)
	c.Quantity = strings.TrimSpace(c.Quantity)
}

// Validate checks internal consistency of the command.
func (c *StockCommand) Validate() error {
	switch c.Action {
	case CommandSet, CommandRemove, CommandQuery:
	default:
		return &ValidationError{Field: "action", Message: fmt.Sprintf("unknown action %q", c.Action)}
	}
	if c.ProductID == "" {
		return &ValidationError{Field: "product_id", Message: "must not be empty"}
	}
	if c.Action != CommandQuery && c.ContainerRef == "" {
		return &ValidationError{Field: "container_ref", Message: "required for " + c.Action}
	}
	if c.Action == CommandSet {
		qty, err := decimal.NewFromString(c.Quantity)
		if err != nil {
			return &ValidationError{Field: "quantity", Message: fmt.Sprintf("not a decimal: %q", c.Quantity)}
		}
		if qty.IsNegative() {
			return &ValidationError{Field: "quantity", Message: fmt.Sprintf("must not be negative, got %s", qty)}
		}
	}
	if c.Confidence < 0 || c.Confidence > 1 {
		return &ValidationError{Field: "confidence", Message: "must be between 0.0 and 1.0"}
	}
	return nil
}

// ParsedQuantity returns the quantity as a decimal. Call only after Validate.
func (c *StockCommand) ParsedQuantity() decimal.Decimal {
	qty, _ := decimal.NewFromString(c.Quantity)
	return qty
}
