package repl

import (
	"bufio"
	"context"
	"fmt"
	"strconv"
	"strings"

	"stockroom/internal/app"
	"stockroom/internal/core"

	"github.com/shopspring/decimal"
)

// handleCreateNode runs an interactive node creation session.
func handleCreateNode(ctx context.Context, reader *bufio.Reader, svc app.ApplicationService, args []string) {
	kind := "container"
	if len(args) > 0 {
		kind = strings.ToLower(args[0])
	}

	fmt.Printf("Creating a %s. Type 'cancel' at any prompt to abort.\n", kind)

	fmt.Print("Ref (short unique code): ")
	ref, ok := readLine(reader)
	if !ok {
		return
	}

	fmt.Print("Label: ")
	label, ok := readLine(reader)
	if !ok {
		return
	}

	req := app.CreateNodeRequest{Ref: ref, Label: label, Kind: kind}

	if kind != "warehouse" {
		parentRef, parentID := pickParent(ctx, reader, svc, kind)
		if parentID == "" {
			return
		}
		req.ParentID = &parentID
		fmt.Printf("Placing under %s.\n", parentRef)
	}

	if kind == "container" {
		// Offer the detected kind as the default so labels like "Boks 7" or
		// "IKEA kasse" classify themselves.
		detected := core.DetectContainerKind(label, "")
		fmt.Printf("Container type [%s]: ", detected)
		typed, ok := readLine(reader)
		if !ok {
			return
		}
		containerKind := string(detected)
		if typed != "" {
			containerKind = strings.ToLower(typed)
		}
		req.ContainerKind = &containerKind
	}

	node, err := svc.CreateNode(ctx, req)
	if err != nil {
		fmt.Printf("Error creating node: %v\n", err)
		return
	}
	fmt.Printf("\nCreated %s %q (ID: %s)\n", node.Kind, node.Label, node.ID)
}

// pickParent drills down to the right parent for a new node: a warehouse for
// locations, a location for containers.
func pickParent(ctx context.Context, reader *bufio.Reader, svc app.ApplicationService, kind string) (ref, id string) {
	roots, err := svc.ListRoots(ctx, "")
	if err != nil {
		fmt.Printf("Error listing warehouses: %v\n", err)
		return "", ""
	}
	warehouse, ok := pickOne(reader, "warehouse", roots.Nodes)
	if !ok {
		return "", ""
	}
	if kind == "location" {
		return warehouse.Ref, warehouse.ID
	}

	children, err := svc.ListChildren(ctx, warehouse.ID, false)
	if err != nil {
		fmt.Printf("Error listing locations: %v\n", err)
		return "", ""
	}
	location, ok := pickOne(reader, "location", children.Nodes)
	if !ok {
		return "", ""
	}
	return location.Ref, location.ID
}

// handleSetStock records a quantity after a drill-down container pick. The
// cascading selection runs server-side: each round the accumulated choices
// are replayed, singleton levels commit themselves, and the user only ever
// picks when a level genuinely offers alternatives.
func handleSetStock(ctx context.Context, reader *bufio.Reader, svc app.ApplicationService) {
	var chosen []string
	var state *core.SelectionState

	for {
		var err error
		state, err = svc.ResolveSelection(ctx, chosen)
		if err != nil {
			fmt.Printf("Error resolving selection: %v\n", err)
			return
		}

		for _, step := range state.Steps {
			if step.Auto {
				fmt.Printf("  %s %q selected automatically (only option)\n", step.Node.Kind, step.Node.Label)
			}
		}
		if state.Complete {
			break
		}
		if len(state.Options) == 0 {
			fmt.Println("Dead end: this level has no active children. Create one with /mk first.")
			return
		}

		level := "warehouse"
		if len(state.Steps) > 0 {
			level = nextLevelName(state.Steps[len(state.Steps)-1].Node.Kind)
		}
		pick, ok := pickOne(reader, level, state.Options)
		if !ok {
			fmt.Println("Cancelled.")
			return
		}
		chosen = append(chosen, pick.ID)
	}

	fmt.Printf("Selected container: %s (%s)\n", state.Ref, selectionDisplay(state))

	fmt.Print("Product ID: ")
	productID, ok := readLine(reader)
	if !ok {
		return
	}

	fmt.Print("Quantity: ")
	raw, ok := readLine(reader)
	if !ok {
		return
	}
	qty, err := decimal.NewFromString(raw)
	if err != nil || qty.IsNegative() {
		fmt.Printf("Invalid quantity: %s\n", raw)
		return
	}

	if err := svc.SetStock(ctx, app.SetStockRequest{
		ProductID:    productID,
		ContainerRef: state.Ref,
		Quantity:     qty,
	}); err != nil {
		fmt.Printf("Error recording stock: %v\n", err)
		return
	}
	fmt.Printf("Recorded %s of %s in %s.\n", qty.String(), productID, state.Ref)
}

func nextLevelName(kind core.NodeKind) string {
	switch kind {
	case core.KindWarehouse:
		return "location"
	case core.KindLocation:
		return "container"
	default:
		return "node"
	}
}

func selectionDisplay(state *core.SelectionState) string {
	labels := make([]string, len(state.Steps))
	for i, step := range state.Steps {
		labels[i] = step.Node.Label
	}
	return strings.Join(labels, " / ")
}

// pickOne presents a numbered menu and returns the chosen node.
func pickOne(reader *bufio.Reader, level string, options []core.Node) (core.Node, bool) {
	fmt.Printf("\nPick a %s:\n", level)
	for i, n := range options {
		fmt.Printf("  %d. %s (%s)\n", i+1, n.Label, n.Ref)
	}
	for {
		fmt.Print("Number: ")
		raw, ok := readLine(reader)
		if !ok {
			return core.Node{}, false
		}
		idx, err := strconv.Atoi(raw)
		if err != nil || idx < 1 || idx > len(options) {
			fmt.Printf("Enter a number between 1 and %d, or 'cancel'.\n", len(options))
			continue
		}
		return options[idx-1], true
	}
}

// readLine reads a trimmed line; the second return is false on 'cancel' or
// empty input.
func readLine(reader *bufio.Reader) (string, bool) {
	raw, _ := reader.ReadString('\n')
	raw = strings.TrimSpace(raw)
	if raw == "" || strings.ToLower(raw) == "cancel" {
		return "", false
	}
	return raw, true
}
