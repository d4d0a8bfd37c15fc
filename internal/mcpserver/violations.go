package mcpserver

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/codescout/scout-mcp/internal/store"
)

// ViolationsTool handles the scout_violations MCP tool.
type ViolationsTool struct {
	store store.Store
}

// NewViolationsTool creates a ViolationsTool.
func NewViolationsTool(st store.Store) *ViolationsTool {
	return &ViolationsTool{store: st}
}

// Definition returns the MCP tool definition for scout_violations.
func (t *ViolationsTool) Definition() mcp.Tool {
	return mcp.NewTool("scout_violations",
		mcp.WithDescription(
			"List open policy violations recorded by the advisor, including those "+
				"below the response severity threshold. Optionally scoped to one module.",
		),
		mcp.WithString("module",
			mcp.Description("Module path to scope to (default: all modules)"),
		),
	)
}

// Handle processes a scout_violations call.
func (t *ViolationsTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	module := req.GetString("module", "")

	facts, err := t.store.OpenViolations(module)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to list violations: %v", err)), nil
	}

	if len(facts) == 0 {
		if module != "" {
			return mcp.NewToolResultText(fmt.Sprintf("No open violations for %s.", module)), nil
		}
		return mcp.NewToolResultText("No open violations."), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Open violations (%d):\n", len(facts))
	for _, fact := range facts {
		fmt.Fprintf(&b, "  [%s] %s / %s: %s (last seen %s)\n",
			fact.Severity, fact.Module, fact.Rule, fact.Description,
			fact.LastSeen.Format("2006-01-02"))
	}

	return mcp.NewToolResultText(b.String()), nil
}
