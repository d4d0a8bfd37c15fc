/*
Package benchmark measures end-to-end search latency against the live
index. It runs a fixed query set through the hybrid engine and reports
latency percentiles per run, plus how often the engine degraded to
lexical-only because the embedding collaborator was slow or absent.
*/
package benchmark

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/codescout/scout-mcp/internal/search"
)

// DefaultQueries is the standing query mix: short lookups, phrased
// questions, and vague prose, mirroring real usage.
var DefaultQueries = []string{
	"config loader",
	"where is the http server started",
	"error handling",
	"how are embeddings cached",
	"validate token session expiry",
	"readme",
	"worker pool concurrency",
	"what writes to the database",
}

// Result summarizes one benchmark run.
type Result struct {
	Queries   int           `json:"queries"`
	Rounds    int           `json:"rounds"`
	Degraded  int           `json:"degraded"`
	TotalHits int           `json:"totalHits"`
	P50       time.Duration `json:"p50"`
	P95       time.Duration `json:"p95"`
	Max       time.Duration `json:"max"`
}

// Run executes each query `rounds` times against the engine and collects
// latency statistics.
func Run(ctx context.Context, engine *search.Engine, queries []string, rounds, limit int) (*Result, error) {
	if len(queries) == 0 {
		queries = DefaultQueries
	}
	if rounds <= 0 {
		rounds = 3
	}
	if limit <= 0 {
		limit = 10
	}

	result := &Result{Queries: len(queries), Rounds: rounds}
	latencies := make([]time.Duration, 0, len(queries)*rounds)

	for round := 0; round < rounds; round++ {
		for _, query := range queries {
			if err := ctx.Err(); err != nil {
				return nil, err
			}

			started := time.Now()
			out, err := engine.Search(ctx, query, limit)
			if err != nil {
				return nil, fmt.Errorf("query %q failed: %w", query, err)
			}
			latencies = append(latencies, time.Since(started))

			result.TotalHits += len(out.Hits)
			if out.Degraded {
				result.Degraded++
			}
		}
	}

	sort.Slice(latencies, func(a, b int) bool { return latencies[a] < latencies[b] })
	result.P50 = percentile(latencies, 50)
	result.P95 = percentile(latencies, 95)
	result.Max = latencies[len(latencies)-1]

	return result, nil
}

// percentile returns the p-th percentile of sorted latencies.
func percentile(sorted []time.Duration, p int) time.Duration {
	if len(sorted) == 0 {
		return 0
	}
	idx := (len(sorted) - 1) * p / 100
	return sorted[idx]
}

// FormatResult formats a benchmark result for display.
func FormatResult(r *Result) string {
	var b strings.Builder

	total := r.Queries * r.Rounds
	fmt.Fprintf(&b, "Search benchmark: %d queries x %d rounds\n", r.Queries, r.Rounds)
	fmt.Fprintf(&b, "  p50:      %s\n", r.P50.Round(time.Microsecond))
	fmt.Fprintf(&b, "  p95:      %s\n", r.P95.Round(time.Microsecond))
	fmt.Fprintf(&b, "  max:      %s\n", r.Max.Round(time.Microsecond))
	fmt.Fprintf(&b, "  hits:     %d total\n", r.TotalHits)
	fmt.Fprintf(&b, "  degraded: %d/%d runs\n", r.Degraded, total)
	if r.Degraded == total {
		b.WriteString("  note: every run was lexical-only; is the AI endpoint up?\n")
	}

	return b.String()
}
