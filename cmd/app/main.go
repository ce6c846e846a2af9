package main

import (
	"bufio"
	"context"
	"encoding/json"
	"log"
	"os"

	replAdapter "stockroom/internal/adapters/repl"
	"stockroom/internal/ai"
	"stockroom/internal/app"
	"stockroom/internal/core"
	"stockroom/internal/db"

	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	ctx := context.Background()
	pool, err := db.NewPool(ctx)
	if err != nil {
		log.Fatalf("Unable to connect to database: %v", err)
	}
	defer pool.Close()

	nodeService := core.NewNodeService(pool)
	resolver := core.NewHierarchyResolver(pool)
	ledger := core.NewStockLedger(pool)
	userService := core.NewUserService(pool)

	var agent *ai.Agent
	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		log.Println("Warning: OPENAI_API_KEY is not set")
	} else {
		agent = ai.NewAgent(apiKey)
	}

	svc := app.NewAppService(nodeService, resolver, ledger, userService, agent)

	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "interpret":
			if len(os.Args) < 3 {
				log.Fatal("Usage: app interpret \"<stock instruction>\"")
			}
			result, err := svc.InterpretStockCommand(ctx, os.Args[2])
			if err != nil {
				log.Fatalf("Agent error: %v", err)
			}
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			_ = enc.Encode(result)

		case "ask":
			if len(os.Args) < 3 {
				log.Fatal("Usage: app ask \"<question about stock>\"")
			}
			answer, err := svc.AnswerStockQuestion(ctx, os.Args[2])
			if err != nil {
				log.Fatalf("Agent error: %v", err)
			}
			os.Stdout.WriteString(answer + "\n")

		default:
			log.Fatalf("Unknown command: %s", os.Args[1])
		}
		return
	}

	replAdapter.Run(ctx, svc, bufio.NewReader(os.Stdin))
}
