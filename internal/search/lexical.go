package search

import (
	"fmt"

	"github.com/blevesearch/bleve/v2"
)

// SearchLexical performs keyword search (BM25 scoring) using Bleve.
// Scores are normalized to [0,1] before fusion.
func (i *Indexer) SearchLexical(queryText string, limit int) ([]Hit, error) {
	i.mu.RLock()
	defer i.mu.RUnlock()

	if limit <= 0 {
		limit = 10
	}

	request := bleve.NewSearchRequestOptions(bleve.NewMatchQuery(queryText), limit, 0, false)
	request.Fields = []string{"kind", "path", "module", "symbol", "summary"}

	results, err := i.bleveIndex.Search(request)
	if err != nil {
		return nil, fmt.Errorf("bleve search failed: %w", err)
	}

	hits := make([]Hit, 0, len(results.Hits))
	for _, match := range results.Hits {
		doc := documentFromFields(match.ID, match.Fields)
		hits = append(hits, Hit{
			Kind:     doc.Kind,
			Location: doc.ID,
			Module:   doc.Module,
			Summary:  doc.Summary,
			Score:    match.Score,
			Lexical:  true,
		})
	}

	return normalizeScores(hits), nil
}
