package ai

import (
	"context"
	"encoding/json"
	"fmt"

	"stockroom/internal/core"

	"github.com/invopop/jsonschema"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/packages/param"
	"github.com/openai/openai-go/responses"
	"github.com/openai/openai-go/shared"
	"github.com/openai/openai-go/shared/constant"
)

// AgentService interprets natural language stock instructions into structured
// commands the application can confirm and execute.
type AgentService interface {
	InterpretCommand(ctx context.Context, naturalLanguage string, locationIndex string) (*core.StockCommand, error)
}

type Agent struct {
	client *openai.Client
}

func NewAgent(apiKey string) *Agent {
	client := openai.NewClient(option.WithAPIKey(apiKey))
	return &Agent{client: &client}
}

// InterpretCommand asks the model to turn an instruction like "put the two
// spare rolls in the ikea box by the door" into a StockCommand against the
// provided location index. The result is a proposal; writes happen only after
// the user confirms through the ordinary stock operations.
func (a *Agent) InterpretCommand(ctx context.Context, naturalLanguage string, locationIndex string) (*core.StockCommand, error) {
	prompt := fmt.Sprintf(`You are a warehouse inventory assistant.
Your goal is to interpret an inventory instruction described in natural language and propose a stock command.
You MUST use container refs from the provided location index.
Rules:
1. Use ONLY container refs from the index below. Never invent refs.
2. Quantities must be exact decimal strings (e.g. "12.5").
3. Action is 'set' to record a quantity, 'remove' to clear an entry, 'query' to ask where a product is.
4. Provide a confidence score (0.0-1.0).
5. Explain your reasoning.

Location index:
%s

Instruction: %s`, locationIndex, naturalLanguage)

	// Dynamically generate the JSON schema from the Go struct
	schemaStruct := generateSchema()
	schemaJSON, err := json.Marshal(schemaStruct)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal schema: %w", err)
	}
	var schemaMap map[string]any
	if err := json.Unmarshal(schemaJSON, &schemaMap); err != nil {
		return nil, fmt.Errorf("failed to unmarshal schema to map: %w", err)
	}

	params := responses.ResponseNewParams{
		Model: shared.ResponsesModel(shared.ChatModelGPT4o),
		Input: responses.ResponseNewParamsInputUnion{
			OfString: param.NewOpt(prompt),
		},
		Text: responses.ResponseTextConfigParam{
			Format: responses.ResponseFormatTextConfigUnionParam{
				OfJSONSchema: &responses.ResponseFormatTextJSONSchemaConfigParam{
					Type:        constant.JSONSchema("json_schema"),
					Name:        "stock_command_proposal",
					Strict:      param.NewOpt(true),
					Schema:      schemaMap,
					Description: param.NewOpt("A proposed inventory stock command"),
				},
			},
		},
	}

	resp, err := a.client.Responses.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("openai responses error: %w", err)
	}

	content := resp.OutputText()
	if content == "" {
		return nil, fmt.Errorf("empty response content")
	}

	var command core.StockCommand
	if err := json.Unmarshal([]byte(content), &command); err != nil {
		return nil, fmt.Errorf("failed to parse completion: %w", err)
	}

	command.Normalize()
	if err := command.Validate(); err != nil {
		return nil, fmt.Errorf("command validation failed: %w", err)
	}

	return &command, nil
}

func generateSchema() interface{} {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}
	var v core.StockCommand
	return reflector.Reflect(v)
}
