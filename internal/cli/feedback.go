package cli

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/codescout/scout-mcp/internal/store"
)

// NewFeedbackCmd creates the 'feedback' command.
func NewFeedbackCmd() *cobra.Command {
	var relevance, completeness, noise, tokenEfficiency float64
	var note string

	cmd := &cobra.Command{
		Use:   "feedback <query-id>",
		Short: "Rate a previous response to tune routing",
		Long: `Record a multi-dimensional rating for a past query. Each dimension is
in [-1, 1]; negative noise means the response was noisy. The rating
adjusts the affinity weights of the components that produced the
response. Re-rating the same query replaces the earlier rating.`,
		Example: `  scout-mcp feedback 4f1c... --relevance 1 --noise -0.5
  scout-mcp feedback 4f1c... --relevance -1 --note "wrong module entirely"`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rec := store.FeedbackRecord{
				QueryID:         args[0],
				Relevance:       relevance,
				Completeness:    completeness,
				Noise:           noise,
				TokenEfficiency: tokenEfficiency,
				Note:            note,
			}
			return runFeedback(rec)
		},
	}

	cmd.Flags().Float64Var(&relevance, "relevance", 0, "how on-target the findings were (-1 to 1)")
	cmd.Flags().Float64Var(&completeness, "completeness", 0, "whether anything important was missing (-1 to 1)")
	cmd.Flags().Float64Var(&noise, "noise", 0, "signal-to-noise, negative means noisy (-1 to 1)")
	cmd.Flags().Float64Var(&tokenEfficiency, "token-efficiency", 0, "output size relative to value (-1 to 1)")
	cmd.Flags().StringVar(&note, "note", "", "optional free-text comment")

	return cmd
}

func runFeedback(rec store.FeedbackRecord) error {
	app, err := openApp("")
	if err != nil {
		return err
	}
	defer app.Close()

	result, err := app.Learner.Apply(rec)
	if err != nil {
		return err
	}

	fmt.Printf("Feedback recorded (intent %s, delta %+.3f)\n", result.Intent, result.Delta)
	if len(result.Weights) > 0 {
		components := make([]string, 0, len(result.Weights))
		for component := range result.Weights {
			components = append(components, component)
		}
		sort.Strings(components)
		for _, component := range components {
			fmt.Printf("  %s: %.3f\n", component, result.Weights[component])
		}
	}
	return nil
}
