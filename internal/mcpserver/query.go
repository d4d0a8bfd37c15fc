package mcpserver

import (
	"context"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/codescout/scout-mcp/internal/compose"
	"github.com/codescout/scout-mcp/internal/orchestrator"
)

// QueryTool handles the scout_query MCP tool.
type QueryTool struct {
	orch *orchestrator.Orchestrator
}

// NewQueryTool creates a QueryTool.
func NewQueryTool(orch *orchestrator.Orchestrator) *QueryTool {
	return &QueryTool{orch: orch}
}

// Definition returns the MCP tool definition for scout_query.
func (t *QueryTool) Definition() mcp.Tool {
	return mcp.NewTool("scout_query",
		mcp.WithDescription(
			"Ask a question about the indexed codebase: find where something is "+
				"implemented, look up documentation, check module health, or research "+
				"a design question. Returns ranked findings, policy alerts, and a "+
				"query id usable with scout_feedback.",
		),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("Natural language question about the codebase"),
		),
		mcp.WithString("format",
			mcp.Description("Output format: text (default) or json"),
		),
	)
}

// Handle processes a scout_query call.
func (t *QueryTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query := req.GetString("query", "")
	if query == "" {
		return mcp.NewToolResultError("'query' is required"), nil
	}

	resp, err := t.orch.Handle(ctx, query)
	if err != nil {
		if errors.Is(err, orchestrator.ErrEmptyQuery) {
			return mcp.NewToolResultError("'query' must not be blank"), nil
		}
		return mcp.NewToolResultError(fmt.Sprintf("query failed: %v", err)), nil
	}

	if req.GetString("format", "text") == "json" {
		out, err := compose.RenderJSON(resp)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to render response: %v", err)), nil
		}
		return mcp.NewToolResultText(out), nil
	}

	return mcp.NewToolResultText(compose.RenderText(resp)), nil
}
