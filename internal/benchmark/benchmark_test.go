package benchmark

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/codescout/scout-mcp/internal/search"
)

func newBenchEngine(t *testing.T) *search.Engine {
	t.Helper()
	indexer, err := search.NewIndexer()
	if err != nil {
		t.Fatalf("NewIndexer: %v", err)
	}
	t.Cleanup(func() { indexer.Close() })

	if err := indexer.IndexDocuments([]search.Document{
		{ID: "a.go:ConfigLoader", Kind: search.KindCodeSymbol, Path: "a.go", Module: ".", Symbol: "ConfigLoader", Summary: "ConfigLoader reads settings.", Content: "config loader"},
		{ID: "b.go:Serve", Kind: search.KindCodeSymbol, Path: "b.go", Module: ".", Symbol: "Serve", Summary: "Serve starts the http server.", Content: "http server"},
	}); err != nil {
		t.Fatalf("IndexDocuments: %v", err)
	}

	// No semantic engine: every run degrades to lexical-only.
	return search.NewEngine(indexer, nil, search.DefaultFusionConfig)
}

func TestRunCollectsStats(t *testing.T) {
	engine := newBenchEngine(t)

	result, err := Run(context.Background(), engine, []string{"config loader", "http server"}, 2, 5)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.Queries != 2 || result.Rounds != 2 {
		t.Errorf("shape = %d queries x %d rounds", result.Queries, result.Rounds)
	}
	if result.Degraded != 4 {
		t.Errorf("degraded = %d, want 4 without a semantic engine", result.Degraded)
	}
	if result.TotalHits == 0 {
		t.Error("expected hits")
	}
	if result.P95 < result.P50 {
		t.Errorf("p95 %v < p50 %v", result.P95, result.P50)
	}
}

func TestRunDefaults(t *testing.T) {
	engine := newBenchEngine(t)

	result, err := Run(context.Background(), engine, nil, 0, 0)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.Queries != len(DefaultQueries) {
		t.Errorf("queries = %d, want default set", result.Queries)
	}
	if result.Rounds != 3 {
		t.Errorf("rounds = %d, want 3", result.Rounds)
	}
}

func TestRunCancelled(t *testing.T) {
	engine := newBenchEngine(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := Run(ctx, engine, nil, 1, 5); err == nil {
		t.Fatal("expected context error")
	}
}

func TestPercentile(t *testing.T) {
	sorted := []time.Duration{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}
	if got := percentile(sorted, 50); got != 5 {
		t.Errorf("p50 = %v, want 5", got)
	}
	if got := percentile(sorted, 95); got != 9 {
		t.Errorf("p95 = %v, want 9", got)
	}
	if got := percentile(nil, 50); got != 0 {
		t.Errorf("empty percentile = %v, want 0", got)
	}
}

func TestFormatResult(t *testing.T) {
	out := FormatResult(&Result{Queries: 2, Rounds: 2, Degraded: 4, TotalHits: 6, P50: time.Millisecond, P95: 2 * time.Millisecond, Max: 3 * time.Millisecond})
	if !strings.Contains(out, "p50") || !strings.Contains(out, "degraded: 4/4") {
		t.Errorf("unexpected output:\n%s", out)
	}
	if !strings.Contains(out, "lexical-only") {
		t.Error("all-degraded run should carry the AI endpoint note")
	}
}
