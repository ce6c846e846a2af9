package repl

import (
	"fmt"
	"strings"

	"stockroom/internal/app"
	"stockroom/internal/core"
)

func printNodes(title string, nodes []core.Node) {
	fmt.Println()
	fmt.Println(strings.Repeat("=", 72))
	fmt.Printf("  %s\n", title)
	fmt.Println(strings.Repeat("=", 72))
	if len(nodes) == 0 {
		fmt.Println("  Nothing here.")
		fmt.Println(strings.Repeat("=", 72))
		return
	}
	fmt.Printf("  %-36s %-10s %-12s %s\n", "ID", "REF", "KIND", "LABEL")
	fmt.Println(strings.Repeat("-", 72))
	for _, n := range nodes {
		kind := string(n.Kind)
		if n.ContainerKind != nil {
			kind = string(*n.ContainerKind)
		}
		fmt.Printf("  %-36s %-10s %-12s %s\n", n.ID, n.Ref, kind, n.Label)
	}
	fmt.Println(strings.Repeat("=", 72))
}

func printNode(n *core.Node) {
	fmt.Printf("\nID:     %s\n", n.ID)
	fmt.Printf("REF:    %s\n", n.Ref)
	fmt.Printf("LABEL:  %s\n", n.Label)
	fmt.Printf("KIND:   %s\n", n.Kind)
	if n.ContainerKind != nil {
		fmt.Printf("TYPE:   %s\n", *n.ContainerKind)
	}
	if n.ParentID != nil {
		fmt.Printf("PARENT: %s\n", *n.ParentID)
	}
	status := "active"
	if !n.Status {
		status = "inactive"
	}
	if n.Deleted {
		status = "deleted"
	}
	fmt.Printf("STATUS: %s\n", status)
}

func printPath(result *app.PathResult) {
	fmt.Printf("\n%s\n", result.Display)
	for i, n := range result.Nodes {
		fmt.Printf("  %s%s (%s, %s)\n", strings.Repeat("  ", i), n.Label, n.Ref, n.Kind)
	}
}

func printStock(result *app.StockResult) {
	fmt.Println()
	fmt.Println(strings.Repeat("=", 72))
	fmt.Printf("  STOCK — Product %s\n", result.ProductID)
	fmt.Println(strings.Repeat("=", 72))
	if len(result.Rows) == 0 {
		fmt.Println("  No stock recorded.")
		fmt.Println(strings.Repeat("=", 72))
		return
	}
	fmt.Printf("  %-10s %12s  %s\n", "CONTAINER", "QUANTITY", "LOCATION")
	fmt.Println(strings.Repeat("-", 72))
	for _, row := range result.Rows {
		location := row.Location
		if location == "" {
			location = "(location no longer exists)"
		}
		fmt.Printf("  %-10s %12s  %s\n", row.Entry.ContainerRef, row.Entry.Quantity.String(), location)
	}
	fmt.Println(strings.Repeat("=", 72))
}

func printCommand(c *core.StockCommand) {
	fmt.Printf("\nACTION:     %s\n", c.Action)
	fmt.Printf("PRODUCT:    %s\n", c.ProductID)
	if c.ContainerRef != "" {
		fmt.Printf("CONTAINER:  %s\n", c.ContainerRef)
	}
	if c.Quantity != "" {
		fmt.Printf("QUANTITY:   %s\n", c.Quantity)
	}
	fmt.Printf("REASONING:  %s\n", c.Reasoning)
	fmt.Printf("CONFIDENCE: %.2f\n", c.Confidence)
}

func printHelp() {
	fmt.Println(`
Commands:
  /warehouses                      List root warehouses
  /children <node-id> [all]        List children ('all' includes inactive)
  /path <node-id>                  Show the full path of a node
  /node <ref>                      Show a node by its ref
  /mk [warehouse|location|container]
                                   Create a node interactively
  /rm <node-id>                    Soft-delete a childless node
  /set                             Record stock via the drill-down picker
  /stock <product-id>              Show where a product is stored
  /total <product-id>              Show a product's total quantity
  /remove <product-id> <ref>       Delete a ledger entry
  /ask <question>                  Ask the AI assistant about stock
  /help                            Show this help
  /exit                            Quit

Anything without a leading slash is sent to the AI assistant as a stock
instruction, e.g. "put 12 bottles of olive oil in the pallet in the back room".`)
}
