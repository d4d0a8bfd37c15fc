package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewViolationsCmd creates the 'violations' command.
func NewViolationsCmd() *cobra.Command {
	var module string
	var check bool
	var repoRoot string

	cmd := &cobra.Command{
		Use:   "violations",
		Short: "List open policy violations",
		Long: `List unresolved violation facts from the pattern store, including those
below the response severity threshold. With --check the advisor re-runs
its rules first, refreshing and resolving facts.`,
		Example: `  scout-mcp violations
  scout-mcp violations --module internal/billing
  scout-mcp violations --check --module internal/billing`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runViolations(repoRoot, module, check)
		},
	}

	cmd.Flags().StringVar(&module, "module", "", "scope to one module path")
	cmd.Flags().BoolVar(&check, "check", false, "re-run advisor rules before listing")
	cmd.Flags().StringVar(&repoRoot, "repo", "", "repository root for --check")

	return cmd
}

func runViolations(repoRoot, module string, check bool) error {
	app, err := openApp(repoRoot)
	if err != nil {
		return err
	}
	defer app.Close()

	if check {
		if module == "" {
			return fmt.Errorf("--check requires --module")
		}
		if _, err := app.Advisor.Check(app.Config.RepoRoot, []string{module}); err != nil {
			return err
		}
	}

	facts, err := app.Store.OpenViolations(module)
	if err != nil {
		return err
	}

	if len(facts) == 0 {
		fmt.Println("No open violations")
		return nil
	}

	fmt.Printf("Open violations (%d):\n", len(facts))
	for _, fact := range facts {
		fmt.Printf("  [%s] %s / %s: %s (first seen %s, last seen %s)\n",
			fact.Severity, fact.Module, fact.Rule, fact.Description,
			fact.FirstSeen.Format("2006-01-02"), fact.LastSeen.Format("2006-01-02"))
	}
	return nil
}
