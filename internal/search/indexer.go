package search

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/index/scorch"
	"github.com/blevesearch/bleve/v2/mapping"
	"github.com/rs/zerolog/log"
)

// Indexer manages the lexical search index over the scanned corpus.
type Indexer struct {
	bleveIndex bleve.Index
	mu         sync.RWMutex
	indexPath  string
}

// NewIndexer creates an in-memory index, used by tests and one-shot runs.
func NewIndexer() (*Indexer, error) {
	index, err := bleve.NewMemOnly(buildIndexMapping())
	if err != nil {
		return nil, fmt.Errorf("failed to create bleve index: %w", err)
	}

	return &Indexer{bleveIndex: index}, nil
}

// NewIndexerWithPath opens or creates a persistent index with the Scorch
// backend.
func NewIndexerWithPath(indexPath string) (*Indexer, error) {
	if err := os.MkdirAll(filepath.Dir(indexPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create index directory: %w", err)
	}

	index, err := bleve.NewUsing(indexPath, buildIndexMapping(), scorch.Name, scorch.Name, nil)
	if err != nil {
		index, err = bleve.Open(indexPath)
		if err != nil {
			return nil, fmt.Errorf("failed to open/create index: %w", err)
		}
	}

	return &Indexer{bleveIndex: index, indexPath: indexPath}, nil
}

// buildIndexMapping creates the Bleve index mapping for documents.
func buildIndexMapping() mapping.IndexMapping {
	docMapping := bleve.NewDocumentMapping()

	text := bleve.NewTextFieldMapping()
	docMapping.AddFieldMappingsAt("symbol", text)
	docMapping.AddFieldMappingsAt("summary", text)
	docMapping.AddFieldMappingsAt("content", text)
	docMapping.AddFieldMappingsAt("path", text)
	docMapping.AddFieldMappingsAt("module", text)

	// Kind is stored for retrieval but does not contribute to matching.
	kindMapping := bleve.NewTextFieldMapping()
	kindMapping.Index = false
	kindMapping.IncludeInAll = false
	docMapping.AddFieldMappingsAt("kind", kindMapping)

	indexMapping := bleve.NewIndexMapping()
	indexMapping.AddDocumentMapping("_default", docMapping)

	return indexMapping
}

// IndexDocuments adds or replaces documents in a single batch.
func (i *Indexer) IndexDocuments(docs []Document) error {
	i.mu.Lock()
	defer i.mu.Unlock()

	batch := i.bleveIndex.NewBatch()
	for _, doc := range docs {
		fields := map[string]interface{}{
			"kind":    string(doc.Kind),
			"path":    doc.Path,
			"module":  doc.Module,
			"symbol":  doc.Symbol,
			"summary": doc.Summary,
			"content": doc.Content,
		}
		if err := batch.Index(doc.ID, fields); err != nil {
			log.Warn().Err(err).Str("doc", doc.ID).Msg("failed to index document")
		}
	}

	if err := i.bleveIndex.Batch(batch); err != nil {
		return fmt.Errorf("failed to batch index documents: %w", err)
	}

	return nil
}

// Reset removes every document so a repo can be reindexed from scratch.
func (i *Indexer) Reset() error {
	i.mu.Lock()
	defer i.mu.Unlock()

	query := bleve.NewMatchAllQuery()
	request := bleve.NewSearchRequestOptions(query, 10000, 0, false)

	results, err := i.bleveIndex.Search(request)
	if err != nil {
		return fmt.Errorf("failed to enumerate documents: %w", err)
	}

	batch := i.bleveIndex.NewBatch()
	for _, hit := range results.Hits {
		batch.Delete(hit.ID)
	}

	if err := i.bleveIndex.Batch(batch); err != nil {
		return fmt.Errorf("failed to batch delete: %w", err)
	}

	return nil
}

// Lookup retrieves stored document fields for a set of location IDs.
// Used by semantic search to attach metadata to similarity matches.
func (i *Indexer) Lookup(ids []string) (map[string]Document, error) {
	i.mu.RLock()
	defer i.mu.RUnlock()

	docs := make(map[string]Document, len(ids))
	if len(ids) == 0 {
		return docs, nil
	}

	query := bleve.NewDocIDQuery(ids)
	request := bleve.NewSearchRequestOptions(query, len(ids), 0, false)
	request.Fields = []string{"kind", "path", "module", "symbol", "summary"}

	results, err := i.bleveIndex.Search(request)
	if err != nil {
		return nil, fmt.Errorf("doc lookup failed: %w", err)
	}

	for _, hit := range results.Hits {
		docs[hit.ID] = documentFromFields(hit.ID, hit.Fields)
	}

	return docs, nil
}

// Count returns the total number of indexed documents.
func (i *Indexer) Count() (uint64, error) {
	i.mu.RLock()
	defer i.mu.RUnlock()

	count, err := i.bleveIndex.DocCount()
	if err != nil {
		return 0, fmt.Errorf("failed to get doc count: %w", err)
	}
	return count, nil
}

// Close closes the index and releases resources.
func (i *Indexer) Close() error {
	i.mu.Lock()
	defer i.mu.Unlock()

	if i.bleveIndex != nil {
		return i.bleveIndex.Close()
	}
	return nil
}

// documentFromFields rebuilds a Document from stored Bleve fields.
func documentFromFields(id string, fields map[string]interface{}) Document {
	str := func(key string) string {
		v, _ := fields[key].(string)
		return v
	}
	return Document{
		ID:      id,
		Kind:    Kind(str("kind")),
		Path:    str("path"),
		Module:  str("module"),
		Symbol:  str("symbol"),
		Summary: str("summary"),
	}
}
