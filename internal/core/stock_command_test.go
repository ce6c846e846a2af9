package core_test

import (
	"testing"

	"stockroom/internal/core"
)

func TestStockCommand_NormalizationAndValidation(t *testing.T) {
	tests := []struct {
		name      string
		command   core.StockCommand
		expectErr bool
	}{
		{
			name: "Happy path set",
			command: core.StockCommand{
				Action: "set", ProductID: "OLIVE-OIL", ContainerRef: "C1",
				Quantity: "12.5", Confidence: 0.9,
			},
			expectErr: false,
		},
		{
			name: "Action normalized from mixed case",
			command: core.StockCommand{
				Action: " Set ", ProductID: "OLIVE-OIL", ContainerRef: "C1",
				Quantity: "3", Confidence: 0.8,
			},
			expectErr: false,
		},
		{
			name: "Query without container ref",
			command: core.StockCommand{
				Action: "query", ProductID: "OLIVE-OIL", Confidence: 0.95,
			},
			expectErr: false,
		},
		{
			name: "Unknown action",
			command: core.StockCommand{
				Action: "increment", ProductID: "OLIVE-OIL", ContainerRef: "C1",
				Quantity: "1", Confidence: 0.9,
			},
			expectErr: true,
		},
		{
			name: "Missing product",
			command: core.StockCommand{
				Action: "set", ContainerRef: "C1", Quantity: "1", Confidence: 0.9,
			},
			expectErr: true,
		},
		{
			name: "Set without container ref",
			command: core.StockCommand{
				Action: "set", ProductID: "OLIVE-OIL", Quantity: "1", Confidence: 0.9,
			},
			expectErr: true,
		},
		{
			name: "Remove without container ref",
			command: core.StockCommand{
				Action: "remove", ProductID: "OLIVE-OIL", Confidence: 0.9,
			},
			expectErr: true,
		},
		{
			name: "Non-decimal quantity",
			command: core.StockCommand{
				Action: "set", ProductID: "OLIVE-OIL", ContainerRef: "C1",
				Quantity: "a dozen", Confidence: 0.9,
			},
			expectErr: true,
		},
		{
			name: "Negative quantity",
			command: core.StockCommand{
				Action: "set", ProductID: "OLIVE-OIL", ContainerRef: "C1",
				Quantity: "-4", Confidence: 0.9,
			},
			expectErr: true,
		},
		{
			name: "Confidence out of range",
			command: core.StockCommand{
				Action: "set", ProductID: "OLIVE-OIL", ContainerRef: "C1",
				Quantity: "1", Confidence: 1.4,
			},
			expectErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := tt.command
			c.Normalize()
			err := c.Validate()
			if tt.expectErr && err == nil {
				t.Errorf("expected validation error, got nil")
			}
			if !tt.expectErr && err != nil {
				t.Errorf("unexpected validation error: %v", err)
			}
		})
	}
}

func TestStockCommand_ParsedQuantity(t *testing.T) {
	c := core.StockCommand{
		Action: "set", ProductID: "OLIVE-OIL", ContainerRef: "C1",
		Quantity: " 12.5 ", Confidence: 0.9,
	}
	c.Normalize()
	if err := c.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if got := c.ParsedQuantity().String(); got != "12.5" {
		t.Errorf("ParsedQuantity = %s, want 12.5", got)
	}
}
