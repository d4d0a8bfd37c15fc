package store

import (
	"time"

	"github.com/rs/zerolog/log"
)

// SaveEmbedding caches an embedding vector for an indexed document.
func (s *SQLiteStore) SaveEmbedding(docID string, vector []float32, version string) error {
	if !s.enabled || s.db == nil {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.execRetry(`
		INSERT OR REPLACE INTO embeddings (doc_id, vector, version, created_at)
		VALUES (?, ?, ?, ?)
	`, docID, vectorToJSON(vector), version, time.Now().Format(time.RFC3339))
	if err != nil {
		log.Warn().Err(err).Str("doc_id", docID).Msg("failed to save embedding")
	}

	return nil
}

// GetEmbedding retrieves a cached embedding for a document. A missing
// embedding returns a nil vector, not an error.
func (s *SQLiteStore) GetEmbedding(docID string) ([]float32, string, error) {
	if !s.enabled || s.db == nil {
		return nil, "", nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.Query("SELECT vector, version FROM embeddings WHERE doc_id = ?", docID)
	if err != nil {
		log.Warn().Err(err).Str("doc_id", docID).Msg("failed to query embedding")
		return nil, "", nil
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, "", nil
	}

	var vectorJSON, version string
	if err := rows.Scan(&vectorJSON, &version); err != nil {
		log.Warn().Err(err).Msg("failed to scan embedding")
		return nil, "", nil
	}

	vector, err := jsonToVector(vectorJSON)
	if err != nil {
		return nil, "", err
	}

	return vector, version, nil
}

// ResetEmbeddings drops the embedding cache.
func (s *SQLiteStore) ResetEmbeddings() error {
	if !s.enabled || s.db == nil {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.execRetry("DELETE FROM embeddings")
}

// AllEmbeddings loads every cached (docID, vector) pair. Used by semantic
// search to score the whole corpus against a query vector.
func (s *SQLiteStore) AllEmbeddings() (map[string][]float32, error) {
	vectors := make(map[string][]float32)
	if !s.enabled || s.db == nil {
		return vectors, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.Query("SELECT doc_id, vector FROM embeddings")
	if err != nil {
		log.Warn().Err(err).Msg("failed to query embeddings")
		return vectors, nil
	}
	defer rows.Close()

	for rows.Next() {
		var docID, vectorJSON string
		if err := rows.Scan(&docID, &vectorJSON); err != nil {
			log.Warn().Err(err).Msg("failed to scan embedding row")
			continue
		}
		vector, err := jsonToVector(vectorJSON)
		if err != nil {
			log.Warn().Err(err).Str("doc_id", docID).Msg("failed to parse embedding vector")
			continue
		}
		vectors[docID] = vector
	}

	return vectors, rows.Err()
}
