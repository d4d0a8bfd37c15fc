package mcpserver

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/codescout/scout-mcp/internal/feedback"
	"github.com/codescout/scout-mcp/internal/store"
)

// FeedbackTool handles the scout_feedback MCP tool.
type FeedbackTool struct {
	learner *feedback.Learner
}

// NewFeedbackTool creates a FeedbackTool.
func NewFeedbackTool(learner *feedback.Learner) *FeedbackTool {
	return &FeedbackTool{learner: learner}
}

// Definition returns the MCP tool definition for scout_feedback.
func (t *FeedbackTool) Definition() mcp.Tool {
	return mcp.NewTool("scout_feedback",
		mcp.WithDescription(
			"Rate a previous scout_query response. Each dimension is in [-1, 1]. "+
				"Ratings adjust which components run for similar queries; re-rating "+
				"the same query replaces the earlier rating instead of stacking.",
		),
		mcp.WithString("query_id",
			mcp.Required(),
			mcp.Description("The query id returned by scout_query"),
		),
		mcp.WithNumber("relevance",
			mcp.Description("How on-target the findings were (-1 to 1)"),
		),
		mcp.WithNumber("completeness",
			mcp.Description("Whether anything important was missing (-1 to 1)"),
		),
		mcp.WithNumber("noise",
			mcp.Description("Signal-to-noise; negative means noisy (-1 to 1)"),
		),
		mcp.WithNumber("token_efficiency",
			mcp.Description("Output size relative to its value (-1 to 1)"),
		),
		mcp.WithString("note",
			mcp.Description("Optional free-text comment"),
		),
	)
}

// Handle processes a scout_feedback call.
func (t *FeedbackTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	queryID := req.GetString("query_id", "")
	if queryID == "" {
		return mcp.NewToolResultError("'query_id' is required"), nil
	}

	rec := store.FeedbackRecord{
		QueryID:         queryID,
		Relevance:       floatArg(req, "relevance", 0),
		Completeness:    floatArg(req, "completeness", 0),
		Noise:           floatArg(req, "noise", 0),
		TokenEfficiency: floatArg(req, "token_efficiency", 0),
		Note:            req.GetString("note", ""),
	}

	result, err := t.learner.Apply(rec)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("feedback failed: %v", err)), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Feedback recorded for %s (intent %s, delta %+.3f).\n", queryID, result.Intent, result.Delta)
	if len(result.Weights) > 0 {
		b.WriteString("Adjusted weights:\n")
		components := make([]string, 0, len(result.Weights))
		for component := range result.Weights {
			components = append(components, component)
		}
		sort.Strings(components)
		for _, component := range components {
			fmt.Fprintf(&b, "  %s: %.3f\n", component, result.Weights[component])
		}
	}

	return mcp.NewToolResultText(b.String()), nil
}
