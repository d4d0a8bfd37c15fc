package cli

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/codescout/scout-mcp/internal/intent"
	"github.com/codescout/scout-mcp/internal/routing"
)

// NewAffinityCmd creates the 'affinity' command group.
func NewAffinityCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "affinity",
		Short: "Inspect or reset the learned routing table",
	}

	cmd.AddCommand(newAffinityListCmd())
	cmd.AddCommand(newAffinityResetCmd())

	return cmd
}

func newAffinityListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Show the current component-intent affinity weights",
		Long: `Print the affinity weight of every component per intent, after learned
adjustments. Components below the activation threshold are marked as
filtered.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAffinityList()
		},
	}
}

func newAffinityResetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Discard learned weights and restore the defaults",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAffinityReset()
		},
	}
}

func runAffinityList() error {
	app, err := openApp("")
	if err != nil {
		return err
	}
	defer app.Close()

	threshold := app.Config.Routing.ActivationThreshold
	fmt.Printf("Activation threshold: %.2f\n\n", threshold)

	for _, in := range intent.All() {
		stored, err := app.Store.Affinities(string(in))
		if err != nil {
			return err
		}
		weights := routing.DefaultAffinities()[string(in)]
		merged := make(map[string]float64, len(weights))
		for component, weight := range weights {
			merged[component] = weight
		}
		for component, weight := range stored {
			merged[component] = weight
		}

		fmt.Printf("%s:\n", in)
		components := make([]string, 0, len(merged))
		for component := range merged {
			components = append(components, component)
		}
		sort.Strings(components)
		for _, component := range components {
			marker := ""
			if merged[component] < threshold {
				marker = "  (filtered)"
			}
			fmt.Printf("  %-10s %.3f%s\n", component, merged[component], marker)
		}
	}
	return nil
}

func runAffinityReset() error {
	app, err := openApp("")
	if err != nil {
		return err
	}
	defer app.Close()

	if err := app.Store.ResetAffinities(); err != nil {
		return err
	}
	if err := app.Store.SeedAffinities(routing.DefaultAffinities()); err != nil {
		return err
	}

	fmt.Println("Learned affinities cleared; defaults restored")
	return nil
}
