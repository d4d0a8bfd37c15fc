package cli

import (
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/codescout/scout-mcp/internal/mcpserver"
)

// NewServeCmd creates the 'serve' command for running the MCP server.
func NewServeCmd() *cobra.Command {
	var repoRoot string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the MCP server (stdio transport)",
		Long: `Start the scout-mcp server on stdio. Three tools are exposed to MCP
clients:
  scout_query      - ask a question about the indexed codebase
  scout_feedback   - rate a previous response to tune routing
  scout_violations - list open policy violations

The pattern store is safe for concurrent agents: multiple serve processes
can share one store.`,
		Example: `  # Run directly
  scout-mcp serve

  # Add to Claude Code
  claude mcp add scout -- scout-mcp serve`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(repoRoot)
		},
	}

	cmd.Flags().StringVar(&repoRoot, "repo", "", "repository root (default: configured or current directory)")

	return cmd
}

func runServe(repoRoot string) error {
	app, err := openApp(repoRoot)
	if err != nil {
		return err
	}
	defer app.Close()

	// Retention cleanup piggybacks on server start rather than a daemon.
	retention := time.Duration(app.Config.Learning.RetentionDays) * 24 * time.Hour
	if retention > 0 {
		if err := app.Store.Cleanup(retention); err != nil {
			log.Warn().Err(err).Msg("retention cleanup failed")
		}
	}

	server := mcpserver.New(app.Orchestrator, app.Learner, app.Store)

	log.Info().Str("repo", app.Config.RepoRoot).Msg("starting MCP server on stdio")
	if err := mcpserver.Serve(server); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}
