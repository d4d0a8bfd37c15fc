/*
Package main is the entry point for the scout-mcp CLI.

scout-mcp is a codebase scout for AI coding agents: it indexes a
repository, answers natural-language questions about it over MCP or the
command line, watches module health against policy rules, and learns
from feedback which analysis components serve which kinds of questions.

Usage:
  scout-mcp [command]

Available Commands:
  index       Scan a repository and build the search index
  query       Ask a question about the indexed codebase
  feedback    Rate a previous response to tune routing
  violations  List open policy violations
  affinity    Inspect or reset the learned routing table
  serve       Run the MCP server (stdio transport)
  benchmark   Measure search latency against the live index
  version     Show version information

Examples:
  # Index the current repository
  scout-mcp index

  # Ask where something lives
  scout-mcp query "where is the session token validated"

  # Run as MCP server
  scout-mcp serve
*/
package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/codescout/scout-mcp/internal/cli"
	"github.com/codescout/scout-mcp/internal/orchestrator"
	"github.com/codescout/scout-mcp/internal/version"
)

func main() {
	setupLogging()

	rootCmd := &cobra.Command{
		Use:   "scout-mcp",
		Short: "Codebase scout for AI coding agents",
		Long: `scout-mcp answers natural-language questions about an indexed codebase.

Each query is classified by intent, routed to the components with the
best learned affinity for it (hybrid search, policy advisor, local
inference), and composed into one bounded response. Feedback on past
responses tunes the routing over time.

Logs go to stderr so the MCP stdio transport on stdout stays clean.`,
		Version: version.GetVersion(),
	}

	rootCmd.AddCommand(cli.NewIndexCmd())
	rootCmd.AddCommand(cli.NewQueryCmd())
	rootCmd.AddCommand(cli.NewFeedbackCmd())
	rootCmd.AddCommand(cli.NewViolationsCmd())
	rootCmd.AddCommand(cli.NewAffinityCmd())
	rootCmd.AddCommand(cli.NewServeCmd())
	rootCmd.AddCommand(cli.NewBenchmarkCmd())
	rootCmd.AddCommand(cli.NewVersionCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		// Rejected input is the caller's problem, not ours.
		if errors.Is(err, orchestrator.ErrEmptyQuery) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}

// setupLogging configures zerolog on stderr. SCOUT_LOG_LEVEL overrides the
// default; the config file's level is applied once config is loaded.
func setupLogging() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	level := zerolog.InfoLevel
	if raw := os.Getenv("SCOUT_LOG_LEVEL"); raw != "" {
		if parsed, err := zerolog.ParseLevel(strings.ToLower(raw)); err == nil {
			level = parsed
		}
	}
	zerolog.SetGlobalLevel(level)
}
