package search

import (
	"context"
	"errors"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog/log"

	"github.com/codescout/scout-mcp/internal/ai"
)

// EmbedPool embeds scanned documents with a bounded number of workers and
// writes the vectors into the store. One slow or failed embedding never
// blocks the rest of the corpus.
type EmbedPool struct {
	client  ai.Client
	vectors VectorSource
	workers int
}

// NewEmbedPool creates an embedding pool. workers <= 0 selects a size based
// on the machine, capped because the collaborator serializes heavy models.
func NewEmbedPool(client ai.Client, vectors VectorSource, workers int) *EmbedPool {
	if workers <= 0 {
		workers = runtime.NumCPU()
		if workers > 4 {
			workers = 4
		}
	}
	return &EmbedPool{client: client, vectors: vectors, workers: workers}
}

// EmbedStats summarizes one embedding run.
type EmbedStats struct {
	Embedded int
	Skipped  int
	Failed   int
}

// EmbedAll embeds every document that does not already have a vector for
// the current model version. Returns ai.ErrUnavailable untouched when the
// collaborator is down so callers can degrade instead of aborting.
func (p *EmbedPool) EmbedAll(ctx context.Context, docs []Document) (EmbedStats, error) {
	if p.client == nil || !p.client.Available(ctx) {
		return EmbedStats{Skipped: len(docs)}, ai.ErrUnavailable
	}

	existing, err := p.vectors.AllEmbeddings()
	if err != nil {
		return EmbedStats{}, err
	}

	version := p.client.ModelVersion()
	jobs := make(chan Document)
	var embedded, skipped, failed atomic.Int64

	var wg sync.WaitGroup
	var mu sync.Mutex
	for w := 0; w < p.workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for doc := range jobs {
				vec, err := p.client.Embed(ctx, doc.EmbedText())
				if err != nil {
					if errors.Is(err, ai.ErrUnavailable) || ctx.Err() != nil {
						failed.Add(1)
						continue
					}
					log.Warn().Err(err).Str("doc", doc.ID).Msg("embedding failed")
					failed.Add(1)
					continue
				}

				mu.Lock()
				err = p.vectors.SaveEmbedding(doc.ID, vec, version)
				mu.Unlock()
				if err != nil {
					log.Warn().Err(err).Str("doc", doc.ID).Msg("failed to cache embedding")
					failed.Add(1)
					continue
				}
				embedded.Add(1)
			}
		}()
	}

	for _, doc := range docs {
		if ctx.Err() != nil {
			break
		}
		if _, ok := existing[doc.ID]; ok {
			skipped.Add(1)
			continue
		}
		jobs <- doc
	}
	close(jobs)
	wg.Wait()

	stats := EmbedStats{
		Embedded: int(embedded.Load()),
		Skipped:  int(skipped.Load()),
		Failed:   int(failed.Load()),
	}
	log.Debug().
		Int("embedded", stats.Embedded).
		Int("skipped", stats.Skipped).
		Int("failed", stats.Failed).
		Msg("embedding run complete")

	return stats, ctx.Err()
}
