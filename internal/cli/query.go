package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/codescout/scout-mcp/internal/compose"
)

// NewQueryCmd creates the 'query' command.
func NewQueryCmd() *cobra.Command {
	var repoRoot string
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "query <question...>",
		Short: "Ask a question about the indexed codebase",
		Long: `Classify the question, route it to the relevant components, and print
the composed response: ranked findings, policy alerts, and research notes.

The printed query id can be rated later with 'scout-mcp feedback'.`,
		Example: `  scout-mcp query "where is the session token validated"
  scout-mcp query --json "health check the billing module"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuery(cmd, strings.Join(args, " "), repoRoot, asJSON)
		},
	}

	cmd.Flags().StringVar(&repoRoot, "repo", "", "repository root (default: configured or current directory)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the response as JSON")

	return cmd
}

func runQuery(cmd *cobra.Command, question, repoRoot string, asJSON bool) error {
	app, err := openApp(repoRoot)
	if err != nil {
		return err
	}
	defer app.Close()

	resp, err := app.Orchestrator.Handle(cmd.Context(), question)
	if err != nil {
		return err
	}

	if asJSON {
		out, err := compose.RenderJSON(resp)
		if err != nil {
			return err
		}
		fmt.Println(out)
		return nil
	}

	fmt.Print(compose.RenderText(resp))
	return nil
}
