package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/codescout/scout-mcp/internal/ai"
	"github.com/codescout/scout-mcp/internal/search"
)

// NewIndexCmd creates the 'index' command.
func NewIndexCmd() *cobra.Command {
	var repoRoot string
	var rebuild bool
	var workers int

	cmd := &cobra.Command{
		Use:   "index [repo-root]",
		Short: "Scan a repository and build the search index",
		Long: `Walk the repository, extract code symbols and documentation entries,
index them for keyword search, and cache embedding vectors for semantic
search. Without a reachable AI endpoint the index is still built and
queries run lexical-only.`,
		Example: `  scout-mcp index
  scout-mcp index ~/src/myrepo --rebuild`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				repoRoot = args[0]
			}
			return runIndex(cmd.Context(), repoRoot, rebuild, workers)
		},
	}

	cmd.Flags().BoolVar(&rebuild, "rebuild", false, "drop the existing index before scanning")
	cmd.Flags().IntVar(&workers, "workers", 0, "embedding workers (default: per machine)")

	return cmd
}

func runIndex(ctx context.Context, repoRoot string, rebuild bool, workers int) error {
	app, err := openApp(repoRoot)
	if err != nil {
		return err
	}
	defer app.Close()

	fmt.Printf("Scanning %s ...\n", app.Config.RepoRoot)
	docs, err := search.ScanRepo(app.Config.RepoRoot)
	if err != nil {
		return err
	}
	fmt.Printf("Found %d documents\n", len(docs))

	if rebuild {
		if err := app.Indexer.Reset(); err != nil {
			return fmt.Errorf("failed to reset index: %w", err)
		}
		// Rebuilding drops the embedding cache too; stale vectors for
		// removed documents would otherwise accumulate.
		if err := app.Store.ResetEmbeddings(); err != nil {
			return fmt.Errorf("failed to reset embedding cache: %w", err)
		}
	}
	if err := app.Indexer.IndexDocuments(docs); err != nil {
		return err
	}
	count, err := app.Indexer.Count()
	if err != nil {
		return err
	}
	fmt.Printf("Indexed %d documents\n", count)

	pool := search.NewEmbedPool(app.Client, app.Store, workers)
	stats, err := pool.EmbedAll(ctx, docs)
	if errors.Is(err, ai.ErrUnavailable) {
		fmt.Println("AI endpoint unreachable; skipping embeddings (lexical-only search)")
		return nil
	}
	if err != nil {
		return err
	}
	fmt.Printf("Embeddings: %d new, %d cached, %d failed\n", stats.Embedded, stats.Skipped, stats.Failed)

	return nil
}
