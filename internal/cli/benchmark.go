package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/codescout/scout-mcp/internal/benchmark"
)

// NewBenchmarkCmd creates the 'benchmark' command.
func NewBenchmarkCmd() *cobra.Command {
	var rounds, limit int
	var repoRoot string

	cmd := &cobra.Command{
		Use:   "benchmark [query...]",
		Short: "Measure search latency against the live index",
		Long: `Run a query mix through the hybrid search engine and report latency
percentiles. Also reports how many runs degraded to lexical-only, which
indicates the embedding endpoint is down or too slow.`,
		Example: `  scout-mcp benchmark
  scout-mcp benchmark --rounds 10 "config loader" "http server"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBenchmark(cmd, args, repoRoot, rounds, limit)
		},
	}

	cmd.Flags().IntVar(&rounds, "rounds", 3, "rounds per query")
	cmd.Flags().IntVar(&limit, "limit", 10, "hits per query")
	cmd.Flags().StringVar(&repoRoot, "repo", "", "repository root (default: configured or current directory)")

	return cmd
}

func runBenchmark(cmd *cobra.Command, queries []string, repoRoot string, rounds, limit int) error {
	app, err := openApp(repoRoot)
	if err != nil {
		return err
	}
	defer app.Close()

	count, err := app.Indexer.Count()
	if err != nil {
		return err
	}
	if count == 0 {
		return fmt.Errorf("index is empty; run 'scout-mcp index' first")
	}

	result, err := benchmark.Run(cmd.Context(), app.Engine, queries, rounds, limit)
	if err != nil {
		return err
	}

	fmt.Print(benchmark.FormatResult(result))
	return nil
}
