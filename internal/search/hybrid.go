package search

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/rs/zerolog/log"

	"github.com/codescout/scout-mcp/internal/ai"
	"github.com/codescout/scout-mcp/internal/config"
)

// FusionConfig defines how lexical and semantic scores are merged.
type FusionConfig struct {
	// SemanticWeight and LexicalWeight blend scores when both strategies
	// match a location.
	SemanticWeight float64
	LexicalWeight  float64

	// BothBoost is added when both strategies agree, capped at 1.0.
	BothBoost float64

	// LexicalShare caps the fraction of lexical-only hits in the final
	// list so semantic relevance dominates.
	LexicalShare float64
}

// DefaultFusionConfig provides semantic-dominant fusion.
var DefaultFusionConfig = FusionConfig{
	SemanticWeight: 0.65,
	LexicalWeight:  0.35,
	BothBoost:      0.1,
	LexicalShare:   0.4,
}

// FusionFromConfig builds fusion settings from the search configuration.
func FusionFromConfig(cfg config.SearchConfig) FusionConfig {
	fusion := DefaultFusionConfig
	if cfg.SemanticWeight > 0 {
		fusion.SemanticWeight = cfg.SemanticWeight
	}
	if cfg.LexicalWeight > 0 {
		fusion.LexicalWeight = cfg.LexicalWeight
	}
	if cfg.BothBoost > 0 {
		fusion.BothBoost = cfg.BothBoost
	}
	if cfg.LexicalShare > 0 {
		fusion.LexicalShare = cfg.LexicalShare
	}
	return fusion
}

// Engine runs both retrieval strategies and fuses their results.
type Engine struct {
	indexer  *Indexer
	semantic *Semantic
	fusion   FusionConfig
}

// NewEngine creates a hybrid search engine. semantic may be nil, in which
// case every search is lexical-only and degraded.
func NewEngine(indexer *Indexer, semantic *Semantic, fusion FusionConfig) *Engine {
	return &Engine{indexer: indexer, semantic: semantic, fusion: fusion}
}

// Result is the outcome of one hybrid search.
type Result struct {
	Hits []Hit

	// Degraded is set when the embedding collaborator was unavailable and
	// the result is lexical-only.
	Degraded bool
}

// Search runs the two strategies concurrently, joins them, and fuses the
// scores. Hit ordering is deterministic given identical inputs.
func (e *Engine) Search(ctx context.Context, queryText string, limit int) (Result, error) {
	if limit <= 0 {
		limit = 10
	}

	// Over-fetch from each strategy so fusion has candidates to choose
	// from after deduplication.
	fetch := limit * 2

	type semanticOut struct {
		hits []Hit
		err  error
	}
	semanticCh := make(chan semanticOut, 1)
	go func() {
		if e.semantic == nil {
			semanticCh <- semanticOut{err: ai.ErrUnavailable}
			return
		}
		hits, err := e.semantic.Search(ctx, queryText, fetch)
		semanticCh <- semanticOut{hits: hits, err: err}
	}()

	lexicalHits, err := e.indexer.SearchLexical(queryText, fetch)
	if err != nil {
		// Drain the semantic goroutine before returning.
		<-semanticCh
		return Result{}, fmt.Errorf("lexical search failed: %w", err)
	}

	sem := <-semanticCh
	if sem.err != nil {
		if !errors.Is(sem.err, ai.ErrUnavailable) {
			log.Warn().Err(sem.err).Msg("semantic search failed, falling back to lexical")
		}
		if len(lexicalHits) > limit {
			lexicalHits = lexicalHits[:limit]
		}
		return Result{Hits: lexicalHits, Degraded: true}, nil
	}

	return Result{Hits: e.fuse(lexicalHits, sem.hits, limit)}, nil
}

// fuse merges the two hit lists: deduplicates by location, boosts hits both
// strategies found, and caps lexical-only hits to a minority share.
func (e *Engine) fuse(lexical, semantic []Hit, limit int) []Hit {
	type merged struct {
		hit      Hit
		semScore float64
		lexScore float64
	}

	byLocation := make(map[string]*merged, len(lexical)+len(semantic))
	order := make([]string, 0, len(lexical)+len(semantic))

	for _, h := range semantic {
		if _, seen := byLocation[h.Location]; seen {
			continue
		}
		byLocation[h.Location] = &merged{hit: h, semScore: h.Score}
		order = append(order, h.Location)
	}
	for _, h := range lexical {
		if m, seen := byLocation[h.Location]; seen {
			m.lexScore = h.Score
			m.hit.Lexical = true
			continue
		}
		byLocation[h.Location] = &merged{hit: h, lexScore: h.Score}
		order = append(order, h.Location)
	}

	candidates := make([]Hit, 0, len(order))
	for _, location := range order {
		m := byLocation[location]
		hit := m.hit
		switch {
		case hit.Semantic && hit.Lexical:
			hit.Score = e.fusion.SemanticWeight*m.semScore +
				e.fusion.LexicalWeight*m.lexScore +
				e.fusion.BothBoost
			if hit.Score > 1.0 {
				hit.Score = 1.0
			}
		case hit.Semantic:
			hit.Score = m.semScore
		default:
			hit.Score = m.lexScore
		}
		candidates = append(candidates, hit)
	}

	// Ties break by semantic score, then by location for determinism.
	semScore := func(h Hit) float64 {
		if m, ok := byLocation[h.Location]; ok {
			return m.semScore
		}
		return 0
	}
	sort.SliceStable(candidates, func(a, b int) bool {
		if candidates[a].Score != candidates[b].Score {
			return candidates[a].Score > candidates[b].Score
		}
		if semScore(candidates[a]) != semScore(candidates[b]) {
			return semScore(candidates[a]) > semScore(candidates[b])
		}
		return candidates[a].Location < candidates[b].Location
	})

	// The share cap keeps semantic relevance dominant, so it only applies
	// when there are semantic candidates to dominate. Without any, capping
	// would silently drop valid lexical matches.
	maxLexicalOnly := limit
	if len(semantic) > 0 {
		maxLexicalOnly = int(e.fusion.LexicalShare * float64(limit))
		if maxLexicalOnly < 1 {
			maxLexicalOnly = 1
		}
	}

	final := make([]Hit, 0, limit)
	lexicalOnly := 0
	for _, hit := range candidates {
		if len(final) >= limit {
			break
		}
		if hit.Lexical && !hit.Semantic {
			if lexicalOnly >= maxLexicalOnly {
				continue
			}
			lexicalOnly++
		}
		final = append(final, hit)
	}

	return final
}
