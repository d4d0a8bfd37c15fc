/*
Package search implements hybrid retrieval over an indexed codebase.

Two strategies run per query: lexical/keyword matching against a Bleve
index, and semantic similarity against cached embedding vectors. Results
are fused so that hits found by both strategies are boosted, lexical-only
hits are capped to a minority share, and each location appears at most once.
If the embedding collaborator is unavailable the engine degrades to
lexical-only rather than failing.
*/
package search

// Kind distinguishes code symbols from documentation entries.
type Kind string

const (
	KindCodeSymbol Kind = "code-symbol"
	KindDocEntry   Kind = "doc-entry"
)

// Document is an indexable unit: one code symbol or one documentation entry.
type Document struct {
	// ID is the location identifier, unique across the corpus
	// (e.g. "internal/server/limiter.go:RateLimiter" or "docs/design.md").
	ID string

	Kind    Kind
	Path    string
	Module  string
	Symbol  string
	Summary string
	Content string
}

// EmbedText returns the text embedded for semantic search.
func (d Document) EmbedText() string {
	text := d.Symbol
	if text != "" && d.Summary != "" {
		text += ": "
	}
	text += d.Summary
	if text == "" {
		text = d.Content
	}
	if len(text) > 2000 {
		text = text[:2000]
	}
	return text
}

// Hit is a single ranked search result. Scores are comparable within one
// query only, not calibrated across queries. Hits are ephemeral and never
// persisted individually.
type Hit struct {
	Kind     Kind    `json:"kind"`
	Location string  `json:"location"`
	Module   string  `json:"module"`
	Summary  string  `json:"summary"`
	Score    float64 `json:"score"`

	// Semantic and Lexical record which strategies matched this location.
	Semantic bool `json:"-"`
	Lexical  bool `json:"-"`
}

// normalizeScores min-max normalizes hit scores to [0,1] in place order.
// When all scores are equal they all become 1.0.
func normalizeScores(hits []Hit) []Hit {
	if len(hits) == 0 {
		return hits
	}

	minScore := hits[0].Score
	maxScore := hits[0].Score
	for _, h := range hits {
		if h.Score < minScore {
			minScore = h.Score
		}
		if h.Score > maxScore {
			maxScore = h.Score
		}
	}

	normalized := make([]Hit, len(hits))
	copy(normalized, hits)

	if maxScore == minScore {
		for i := range normalized {
			normalized[i].Score = 1.0
		}
		return normalized
	}

	for i := range normalized {
		normalized[i].Score = (normalized[i].Score - minScore) / (maxScore - minScore)
	}
	return normalized
}
