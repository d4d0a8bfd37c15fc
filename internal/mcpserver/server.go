/*
Package mcpserver exposes scout-mcp over the Model Context Protocol.

Three tools are registered on a stdio transport:
  - scout_query: ask a question about the indexed codebase
  - scout_feedback: rate a previous response to tune routing
  - scout_violations: list open policy violations

The server is a thin composition layer; all behavior lives in the
orchestrator, learner, and store it wraps.
*/
package mcpserver

import (
	"github.com/mark3labs/mcp-go/server"

	"github.com/codescout/scout-mcp/internal/feedback"
	"github.com/codescout/scout-mcp/internal/orchestrator"
	"github.com/codescout/scout-mcp/internal/store"
	"github.com/codescout/scout-mcp/internal/version"
)

// New assembles the MCP server and registers the scout tools.
func New(orch *orchestrator.Orchestrator, learner *feedback.Learner, st store.Store) *server.MCPServer {
	s := server.NewMCPServer(
		"scout-mcp",
		version.Version,
		server.WithToolCapabilities(true),
		server.WithRecovery(),
		server.WithInstructions(
			"scout-mcp answers questions about the indexed codebase. Start with "+
				"scout_query; when a response was notably good or bad, rate it with "+
				"scout_feedback using the returned query id so future routing improves.",
		),
	)

	queryTool := NewQueryTool(orch)
	s.AddTool(queryTool.Definition(), queryTool.Handle)

	feedbackTool := NewFeedbackTool(learner)
	s.AddTool(feedbackTool.Definition(), feedbackTool.Handle)

	violationsTool := NewViolationsTool(st)
	s.AddTool(violationsTool.Definition(), violationsTool.Handle)

	return s
}

// Serve runs the server on stdio. Blocks until stdin closes.
func Serve(s *server.MCPServer) error {
	return server.ServeStdio(s)
}
