package search

import (
	"context"
	"math"
	"sort"
	"time"

	"github.com/codescout/scout-mcp/internal/ai"
)

// VectorSource provides cached embedding vectors, implemented by the
// pattern store.
type VectorSource interface {
	AllEmbeddings() (map[string][]float32, error)
	SaveEmbedding(docID string, vector []float32, version string) error
}

// Semantic performs embedding-similarity search against the cached corpus
// vectors. The embedding collaborator is optional: Available is probed
// before use and any call is bounded by embedTimeout, beyond which the
// collaborator is treated as unavailable.
type Semantic struct {
	client       ai.Client
	vectors      VectorSource
	indexer      *Indexer
	embedTimeout time.Duration
}

// NewSemantic creates a semantic search engine.
func NewSemantic(client ai.Client, vectors VectorSource, indexer *Indexer, embedTimeout time.Duration) *Semantic {
	if embedTimeout <= 0 {
		embedTimeout = 300 * time.Millisecond
	}
	return &Semantic{
		client:       client,
		vectors:      vectors,
		indexer:      indexer,
		embedTimeout: embedTimeout,
	}
}

// Available reports whether the embedding collaborator can be used.
func (s *Semantic) Available(ctx context.Context) bool {
	return s.client != nil && s.client.Available(ctx)
}

// Search embeds the query and ranks the corpus by cosine similarity.
// Returns ai.ErrUnavailable when the collaborator is down or too slow;
// callers fall back to lexical-only search.
func (s *Semantic) Search(ctx context.Context, queryText string, limit int) ([]Hit, error) {
	if s.client == nil {
		return nil, ai.ErrUnavailable
	}
	if limit <= 0 {
		limit = 10
	}

	embedCtx, cancel := context.WithTimeout(ctx, s.embedTimeout)
	defer cancel()

	queryVec, err := s.client.Embed(embedCtx, queryText)
	if err != nil {
		return nil, ai.ErrUnavailable
	}

	corpus, err := s.vectors.AllEmbeddings()
	if err != nil {
		return nil, err
	}
	if len(corpus) == 0 {
		return []Hit{}, nil
	}

	type scored struct {
		id    string
		score float64
	}
	ranked := make([]scored, 0, len(corpus))
	for id, vec := range corpus {
		ranked = append(ranked, scored{id: id, score: cosineSimilarity(queryVec, vec)})
	}
	sort.Slice(ranked, func(a, b int) bool {
		if ranked[a].score != ranked[b].score {
			return ranked[a].score > ranked[b].score
		}
		return ranked[a].id < ranked[b].id
	})
	if len(ranked) > limit {
		ranked = ranked[:limit]
	}

	ids := make([]string, len(ranked))
	for i, r := range ranked {
		ids[i] = r.id
	}
	docs, err := s.indexer.Lookup(ids)
	if err != nil {
		return nil, err
	}

	hits := make([]Hit, 0, len(ranked))
	for _, r := range ranked {
		doc, ok := docs[r.id]
		if !ok {
			// Vector cached for a document no longer in the index.
			continue
		}
		hits = append(hits, Hit{
			Kind:     doc.Kind,
			Location: doc.ID,
			Module:   doc.Module,
			Summary:  doc.Summary,
			Score:    r.score,
			Semantic: true,
		})
	}

	return normalizeScores(hits), nil
}

// cosineSimilarity computes cosine similarity between two vectors.
func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) {
		return 0.0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i] * b[i])
		normA += float64(a[i] * a[i])
		normB += float64(b[i] * b[i])
	}

	if normA == 0 || normB == 0 {
		return 0.0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
