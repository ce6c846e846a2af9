package ai

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/packages/param"
	"github.com/openai/openai-go/responses"
	"github.com/openai/openai-go/shared"
)

// ToolHandler is the execution function for a read tool.
// It receives parsed JSON parameters and returns a JSON-encoded result string.
type ToolHandler func(ctx context.Context, params map[string]any) (string, error)

// ToolDefinition describes a single tool in the registry.
// Read tools execute autonomously during the agentic loop.
// Write tools terminate the loop and surface a proposed action for human confirmation.
type ToolDefinition struct {
	Name        string
	Description string
	InputSchema map[string]any // JSON Schema for the tool's input parameters
	IsReadTool  bool           // true = execute autonomously; false = requires human confirmation
	Handler     ToolHandler    // non-nil for read tools only; nil for write tools
}

// ToolRegistry holds all tools available to the agent for a given call.
// The application service registers hierarchy and ledger lookups here when
// answering natural language questions about where stock lives.
type ToolRegistry struct {
	tools []ToolDefinition
}

// NewToolRegistry creates an empty ToolRegistry.
func NewToolRegistry() *ToolRegistry {
	return &ToolRegistry{}
}

// Register adds a tool to the registry.
func (r *ToolRegistry) Register(t ToolDefinition) {
	r.tools = append(r.tools, t)
}

// Get returns the ToolDefinition for a given tool name, and whether it was found.
func (r *ToolRegistry) Get(name string) (ToolDefinition, bool) {
	for _, t := range r.tools {
		if t.Name == name {
			return t, true
		}
	}
	return ToolDefinition{}, false
}

// All returns all registered tools.
func (r *ToolRegistry) All() []ToolDefinition {
	return r.tools
}

// ToOpenAITools converts the registry to the OpenAI Responses API tool format.
func (r *ToolRegistry) ToOpenAITools() []responses.ToolUnionParam {
	out := make([]responses.ToolUnionParam, 0, len(r.tools))
	for _, t := range r.tools {
		out = append(out, responses.ToolUnionParam{
			OfFunction: &responses.FunctionToolParam{
				Name:        t.Name,
				Description: openai.String(t.Description),
				Parameters:  t.InputSchema,
			},
		})
	}
	return out
}

// maxToolTurns bounds the agentic loop; each turn may carry several tool calls.
const maxToolTurns = 8

// AnswerQuestion routes a natural language question through a bounded tool
// loop. The agent calls registered read tools autonomously (location roots,
// children, paths, stock lookups) and returns its final text answer.
func (a *Agent) AnswerQuestion(ctx context.Context, question string, reg *ToolRegistry) (string, error) {
	prompt := fmt.Sprintf(`You are a warehouse inventory assistant.
Answer the user's question about where products are stored and in what
quantities. Use the provided tools to look up the location tree and the stock
ledger; do not guess. Container refs are exact codes — quote them as-is.

Question: %s`, question)

	params := responses.ResponseNewParams{
		Model: shared.ResponsesModel(shared.ChatModelGPT4o),
		Input: responses.ResponseNewParamsInputUnion{
			OfString: param.NewOpt(prompt),
		},
		Tools: reg.ToOpenAITools(),
	}

	for turn := 0; turn < maxToolTurns; turn++ {
		resp, err := a.client.Responses.New(ctx, params)
		if err != nil {
			return "", fmt.Errorf("openai responses error: %w", err)
		}

		var outputs responses.ResponseInputParam
		for _, item := range resp.Output {
			if item.Type != "function_call" {
				continue
			}
			tool, ok := reg.Get(item.Name)
			if !ok {
				return "", fmt.Errorf("agent called unknown tool %q", item.Name)
			}
			if !tool.IsReadTool || tool.Handler == nil {
				return "", fmt.Errorf("agent attempted to call write tool %q during question answering", item.Name)
			}

			args := map[string]any{}
			if item.Arguments != "" {
				if err := json.Unmarshal([]byte(item.Arguments), &args); err != nil {
					return "", fmt.Errorf("failed to parse arguments for tool %q: %w", item.Name, err)
				}
			}

			result, err := tool.Handler(ctx, args)
			if err != nil {
				// Surface tool failures to the model instead of aborting the
				// loop; the agent can rephrase or try another lookup.
				result = fmt.Sprintf(`{"error": %q}`, err.Error())
			}
			outputs = append(outputs, responses.ResponseInputItemParamOfFunctionCallOutput(item.CallID, result))
		}

		if len(outputs) == 0 {
			answer := resp.OutputText()
			if answer == "" {
				return "", fmt.Errorf("empty response content")
			}
			return answer, nil
		}

		params = responses.ResponseNewParams{
			Model:              shared.ResponsesModel(shared.ChatModelGPT4o),
			PreviousResponseID: param.NewOpt(resp.ID),
			Input: responses.ResponseNewParamsInputUnion{
				OfInputItemList: outputs,
			},
			Tools: reg.ToOpenAITools(),
		}
	}

	return "", fmt.Errorf("tool loop exceeded %d turns", maxToolTurns)
}
