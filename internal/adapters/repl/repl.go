package repl

import (
	"bufio"
	"context"
	"fmt"
	"strings"

	"stockroom/internal/app"
	"stockroom/internal/core"
)

// Run starts the interactive REPL loop.
// It reads commands from reader, dispatches slash commands deterministically,
// and routes natural language input through the AI agent.
func Run(ctx context.Context, svc app.ApplicationService, reader *bufio.Reader) {
	fmt.Println("Stockroom")
	fmt.Println("Manage warehouses, locations, containers and product stock.")
	fmt.Println("Describe a stock change in plain language, or use /help for commands.")
	fmt.Println(strings.Repeat("-", 70))

	errExit := fmt.Errorf("exit")

	dispatchSlash := func(input string) error {
		tokens := strings.Fields(strings.TrimPrefix(input, "/"))
		if len(tokens) == 0 {
			return nil
		}
		cmd := strings.ToLower(tokens[0])
		args := tokens[1:]

		switch cmd {
		case "warehouses", "roots":
			result, err := svc.ListRoots(ctx, "")
			if err != nil {
				return err
			}
			printNodes("WAREHOUSES", result.Nodes)

		case "children":
			if len(args) < 1 {
				fmt.Println("Usage: /children <node-id>")
				return nil
			}
			result, err := svc.ListChildren(ctx, args[0], len(args) > 1 && args[1] == "all")
			if err != nil {
				return err
			}
			printNodes("CHILDREN", result.Nodes)

		case "path":
			if len(args) < 1 {
				fmt.Println("Usage: /path <node-id>")
				return nil
			}
			result, err := svc.GetPath(ctx, args[0])
			if err != nil {
				return err
			}
			printPath(result)

		case "node":
			if len(args) < 1 {
				fmt.Println("Usage: /node <ref>")
				return nil
			}
			node, err := svc.GetNodeByRef(ctx, args[0])
			if err != nil {
				return err
			}
			printNode(node)

		case "mk":
			handleCreateNode(ctx, reader, svc, args)

		case "rm":
			if len(args) < 1 {
				fmt.Println("Usage: /rm <node-id>")
				return nil
			}
			if err := svc.SoftDeleteNode(ctx, args[0]); err != nil {
				return err
			}
			fmt.Println("Node deleted. Its ledger entries and historical paths are preserved.")

		case "set":
			handleSetStock(ctx, reader, svc)

		case "stock":
			if len(args) < 1 {
				fmt.Println("Usage: /stock <product-id>")
				return nil
			}
			result, err := svc.GetStock(ctx, args[0])
			if err != nil {
				return err
			}
			printStock(result)

		case "total":
			if len(args) < 1 {
				fmt.Println("Usage: /total <product-id>")
				return nil
			}
			total, err := svc.GetTotalStock(ctx, args[0])
			if err != nil {
				return err
			}
			fmt.Printf("Total for %s: %s\n", args[0], total.String())

		case "remove":
			if len(args) < 2 {
				fmt.Println("Usage: /remove <product-id> <container-ref>")
				return nil
			}
			if err := svc.RemoveStock(ctx, args[0], args[1]); err != nil {
				return err
			}
			fmt.Printf("Removed entry for %s in %s.\n", args[0], args[1])

		case "ask":
			if len(args) < 1 {
				fmt.Println("Usage: /ask <question about stock>")
				return nil
			}
			fmt.Println("[AI] Looking it up...")
			answer, err := svc.AnswerStockQuestion(ctx, strings.Join(args, " "))
			if err != nil {
				return err
			}
			fmt.Printf("\n[AI]: %s\n", answer)

		case "help", "h":
			printHelp()

		case "exit", "quit", "e", "q":
			return errExit

		default:
			fmt.Printf("Unknown command: /%s  (type /help for all commands)\n", cmd)
		}
		return nil
	}

	for {
		fmt.Print("\n> ")
		input, _ := reader.ReadString('\n')
		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}

		// Slash prefix → deterministic command dispatcher, no AI invoked.
		if strings.HasPrefix(input, "/") {
			if err := dispatchSlash(input); err != nil {
				if err == errExit {
					fmt.Println("Goodbye!")
					break
				}
				fmt.Printf("Error: %v\n", err)
			}
			continue
		}

		// No slash prefix → route to AI agent.
		fmt.Println("[AI] Processing...")
		result, err := svc.InterpretStockCommand(ctx, input)
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			continue
		}

		command := result.Command
		printCommand(command)

		if command.Confidence < 0.6 {
			fmt.Println("\nWARNING: Low confidence proposal.")
		}

		fmt.Print("\nApply this change? (y/n): ")
		choice, _ := reader.ReadString('\n')
		choice = strings.TrimSpace(strings.ToLower(choice))
		if choice != "y" && choice != "yes" {
			fmt.Println("Cancelled.")
			continue
		}

		if err := applyCommand(ctx, svc, command); err != nil {
			fmt.Printf("Change FAILED: %v\n", err)
		} else {
			fmt.Println("Change APPLIED.")
		}
	}
}

// applyCommand executes a confirmed AI command proposal against the ledger.
func applyCommand(ctx context.Context, svc app.ApplicationService, command *core.StockCommand) error {
	switch command.Action {
	case core.CommandSet:
		return svc.SetStock(ctx, app.SetStockRequest{
			ProductID:    command.ProductID,
			ContainerRef: command.ContainerRef,
			Quantity:     command.ParsedQuantity(),
		})
	case core.CommandRemove:
		return svc.RemoveStock(ctx, command.ProductID, command.ContainerRef)
	case core.CommandQuery:
		result, err := svc.GetStock(ctx, command.ProductID)
		if err != nil {
			return err
		}
		printStock(result)
		return nil
	default:
		return fmt.Errorf("unknown command action %q", command.Action)
	}
}
