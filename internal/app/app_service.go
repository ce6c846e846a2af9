package app

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"stockroom/internal/ai"
	"stockroom/internal/core"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
)

type appService struct {
	nodes    core.NodeService
	resolver core.HierarchyResolver
	ledger   core.StockLedger
	users    core.UserService
	agent    *ai.Agent
}

// NewAppService constructs an appService that satisfies ApplicationService.
// agent may be nil, in which case the AI operations report that the assistant
// is not configured.
func NewAppService(
	nodes core.NodeService,
	resolver core.HierarchyResolver,
	ledger core.StockLedger,
	users core.UserService,
	agent *ai.Agent,
) ApplicationService {
	return &appService{
		nodes:    nodes,
		resolver: resolver,
		ledger:   ledger,
		users:    users,
		agent:    agent,
	}
}

func (s *appService) ListRoots(ctx context.Context, kind string) (*NodeListResult, error) {
	nodes, err := s.resolver.Roots(ctx, core.NodeKind(kind))
	if err != nil {
		return nil, err
	}
	return &NodeListResult{Nodes: nodes}, nil
}

func (s *appService) ListChildren(ctx context.Context, parentID string, includeInactive bool) (*NodeListResult, error) {
	var nodes []core.Node
	var err error
	if includeInactive {
		nodes, err = s.nodes.ListChildren(ctx, parentID)
	} else {
		nodes, err = s.resolver.Children(ctx, parentID)
	}
	if err != nil {
		return nil, err
	}
	return &NodeListResult{Nodes: nodes}, nil
}

func (s *appService) GetNode(ctx context.Context, id string) (*core.Node, error) {
	return s.nodes.Get(ctx, id)
}

func (s *appService) GetNodeByRef(ctx context.Context, ref string) (*core.Node, error) {
	return s.nodes.GetByRef(ctx, ref)
}

func (s *appService) GetPath(ctx context.Context, nodeID string) (*PathResult, error) {
	path, err := s.resolver.Path(ctx, nodeID)
	if err != nil {
		return nil, err
	}
	return &PathResult{Nodes: path, Display: joinPathLabels(path)}, nil
}

func joinPathLabels(path []core.Node) string {
	labels := make([]string, len(path))
	for i, n := range path {
		labels[i] = n.Label
	}
	return strings.Join(labels, " / ")
}

func (s *appService) CreateNode(ctx context.Context, req CreateNodeRequest) (*core.Node, error) {
	var containerKind *core.ContainerKind
	if req.ContainerKind != nil {
		ck := core.ContainerKind(*req.ContainerKind)
		containerKind = &ck
	}
	return s.nodes.Create(ctx, core.NewNodeInput{
		Ref:           req.Ref,
		Label:         req.Label,
		Kind:          core.NodeKind(req.Kind),
		ContainerKind: containerKind,
		ParentID:      req.ParentID,
	})
}

func (s *appService) UpdateNode(ctx context.Context, id string, req UpdateNodeRequest) (*core.Node, error) {
	return s.nodes.Update(ctx, id, core.NodePatch{
		Ref:      req.Ref,
		Label:    req.Label,
		Status:   req.Status,
		ParentID: req.ParentID,
	})
}

func (s *appService) SoftDeleteNode(ctx context.Context, id string) error {
	return s.nodes.SoftDelete(ctx, id)
}

func (s *appService) SetStock(ctx context.Context, req SetStockRequest) error {
	return s.ledger.SetQuantity(ctx, req.ProductID, req.ContainerRef, req.Quantity)
}

func (s *appService) RemoveStock(ctx context.Context, productID, containerRef string) error {
	return s.ledger.RemoveEntry(ctx, productID, containerRef)
}

// GetStock decorates each ledger entry with its resolved location path. A ref
// whose container is gone (deleted or renamed) keeps an empty location — the
// read must not fail just because the taxonomy moved on.
func (s *appService) GetStock(ctx context.Context, productID string) (*StockResult, error) {
	entries, err := s.ledger.EntriesFor(ctx, productID)
	if err != nil {
		return nil, err
	}

	rows := make([]StockRow, 0, len(entries))
	for _, entry := range entries {
		row := StockRow{Entry: entry}
		if node, err := s.nodes.GetByRef(ctx, entry.ContainerRef); err == nil {
			if path, err := s.resolver.Path(ctx, node.ID); err == nil {
				row.Location = joinPathLabels(path)
			}
		}
		rows = append(rows, row)
	}
	return &StockResult{ProductID: productID, Rows: rows}, nil
}

func (s *appService) GetTotalStock(ctx context.Context, productID string) (decimal.Decimal, error) {
	return s.ledger.TotalFor(ctx, productID)
}

func (s *appService) ResolveSelection(ctx context.Context, chosen []string) (*core.SelectionState, error) {
	return core.ResolveSelection(ctx, core.NewSelectionResolver(s.resolver), chosen)
}

func (s *appService) InterpretStockCommand(ctx context.Context, text string) (*CommandResult, error) {
	if s.agent == nil {
		return nil, fmt.Errorf("AI assistant is not configured (missing OPENAI_API_KEY)")
	}
	index, err := s.buildLocationIndex(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to build location index: %w", err)
	}
	command, err := s.agent.InterpretCommand(ctx, text, index)
	if err != nil {
		return nil, err
	}
	return &CommandResult{Command: command}, nil
}

// buildLocationIndex renders the container inventory as one line per
// container: "ref | label | warehouse / location". This is the vocabulary the
// assistant is allowed to ground container refs in.
func (s *appService) buildLocationIndex(ctx context.Context) (string, error) {
	roots, err := s.resolver.Roots(ctx, core.KindWarehouse)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	for _, w := range roots {
		locations, err := s.resolver.Children(ctx, w.ID)
		if err != nil {
			return "", err
		}
		for _, l := range locations {
			containers, err := s.resolver.Children(ctx, l.ID)
			if err != nil {
				return "", err
			}
			for _, c := range containers {
				kind := ""
				if c.ContainerKind != nil {
					kind = " (" + string(*c.ContainerKind) + ")"
				}
				fmt.Fprintf(&b, "%s | %s%s | %s / %s\n", c.Ref, c.Label, kind, w.Label, l.Label)
			}
		}
	}
	if b.Len() == 0 {
		return "(no containers defined yet)", nil
	}
	return b.String(), nil
}

func (s *appService) AuthenticateUser(ctx context.Context, username, password string) (*UserSession, error) {
	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("authentication failed: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, fmt.Errorf("authentication failed: invalid password")
	}
	return &UserSession{UserID: user.ID, Username: user.Username, Role: user.Role}, nil
}

func (s *appService) GetUser(ctx context.Context, userID int) (*UserResult, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &UserResult{Username: user.Username, Role: user.Role}, nil
}

func (s *appService) AnswerStockQuestion(ctx context.Context, question string) (string, error) {
	if s.agent == nil {
		return "", fmt.Errorf("AI assistant is not configured (missing OPENAI_API_KEY)")
	}
	return s.agent.AnswerQuestion(ctx, question, s.buildToolRegistry())
}

// buildToolRegistry exposes hierarchy and ledger lookups as read tools for
// the agent's question-answering loop.
func (s *appService) buildToolRegistry() *ai.ToolRegistry {
	reg := ai.NewToolRegistry()

	jsonResult := func(v any) (string, error) {
		data, err := json.Marshal(v)
		if err != nil {
			return "", err
		}
		return string(data), nil
	}

	stringParam := func(name, description string) map[string]any {
		return map[string]any{
			"type": "object",
			"properties": map[string]any{
				name: map[string]any{"type": "string", "description": description},
			},
			"required":             []string{name},
			"additionalProperties": false,
		}
	}

	reg.Register(ai.ToolDefinition{
		Name:        "list_warehouses",
		Description: "List the root warehouses of the location tree.",
		InputSchema: map[string]any{"type": "object", "properties": map[string]any{}, "additionalProperties": false},
		IsReadTool:  true,
		Handler: func(ctx context.Context, _ map[string]any) (string, error) {
			roots, err := s.resolver.Roots(ctx, core.KindWarehouse)
			if err != nil {
				return "", err
			}
			return jsonResult(roots)
		},
	})

	reg.Register(ai.ToolDefinition{
		Name:        "list_children",
		Description: "List the active children of a node by its ID.",
		InputSchema: stringParam("node_id", "ID of the parent node"),
		IsReadTool:  true,
		Handler: func(ctx context.Context, params map[string]any) (string, error) {
			nodeID, _ := params["node_id"].(string)
			children, err := s.resolver.Children(ctx, nodeID)
			if err != nil {
				return "", err
			}
			return jsonResult(children)
		},
	})

	reg.Register(ai.ToolDefinition{
		Name:        "get_path",
		Description: "Get the root-to-node path for a node ID, for describing where something is.",
		InputSchema: stringParam("node_id", "ID of the node"),
		IsReadTool:  true,
		Handler: func(ctx context.Context, params map[string]any) (string, error) {
			nodeID, _ := params["node_id"].(string)
			result, err := s.GetPath(ctx, nodeID)
			if err != nil {
				return "", err
			}
			return jsonResult(result)
		},
	})

	reg.Register(ai.ToolDefinition{
		Name:        "get_stock",
		Description: "Get all stock ledger entries for a product, with resolved locations.",
		InputSchema: stringParam("product_id", "Product identifier"),
		IsReadTool:  true,
		Handler: func(ctx context.Context, params map[string]any) (string, error) {
			productID, _ := params["product_id"].(string)
			result, err := s.GetStock(ctx, productID)
			if err != nil {
				return "", err
			}
			return jsonResult(result)
		},
	})

	reg.Register(ai.ToolDefinition{
		Name:        "get_total_stock",
		Description: "Get the total quantity of a product across all containers.",
		InputSchema: stringParam("product_id", "Product identifier"),
		IsReadTool:  true,
		Handler: func(ctx context.Context, params map[string]any) (string, error) {
			productID, _ := params["product_id"].(string)
			total, err := s.ledger.TotalFor(ctx, productID)
			if err != nil {
				return "", err
			}
			return jsonResult(map[string]string{"total": total.String()})
		},
	})

	return reg
}
