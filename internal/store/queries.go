package store

import (
	"database/sql"
	"encoding/json"
	"time"

	"github.com/rs/zerolog/log"
)

// RecordQuery appends an immutable query record. Records are append-only;
// a contended write is retried and then dropped with a warning rather than
// failing the request.
func (s *SQLiteStore) RecordQuery(rec QueryRecord) error {
	if !s.enabled || s.db == nil {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	components, err := json.Marshal(rec.Components)
	if err != nil {
		return err
	}
	snapshot, err := json.Marshal(rec.AffinitySnapshot)
	if err != nil {
		return err
	}

	err = s.execRetry(`
		INSERT INTO queries (id, raw_query, intent, confidence, components, affinity_snapshot, hit_count, latency_ms, timestamp)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		rec.ID,
		rec.RawQuery,
		rec.Intent,
		rec.Confidence,
		string(components),
		string(snapshot),
		rec.HitCount,
		rec.LatencyMS,
		rec.Timestamp.Format(time.RFC3339),
	)
	if err != nil {
		log.Warn().Err(err).Str("query_id", rec.ID).Msg("failed to record query")
	}

	return nil
}

// GetQuery retrieves a query record by ID. Returns ErrNotFound for unknown
// or expired IDs.
func (s *SQLiteStore) GetQuery(id string) (QueryRecord, error) {
	if !s.enabled || s.db == nil {
		return QueryRecord{}, ErrNotFound
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	row := s.db.QueryRow(`
		SELECT id, raw_query, intent, confidence, components, affinity_snapshot, hit_count, latency_ms, timestamp
		FROM queries
		WHERE id = ?
	`, id)

	var rec QueryRecord
	var components, snapshot, timestamp string
	err := row.Scan(
		&rec.ID,
		&rec.RawQuery,
		&rec.Intent,
		&rec.Confidence,
		&components,
		&snapshot,
		&rec.HitCount,
		&rec.LatencyMS,
		&timestamp,
	)
	if err == sql.ErrNoRows {
		return QueryRecord{}, ErrNotFound
	}
	if err != nil {
		return QueryRecord{}, err
	}

	if err := json.Unmarshal([]byte(components), &rec.Components); err != nil {
		return QueryRecord{}, err
	}
	if err := json.Unmarshal([]byte(snapshot), &rec.AffinitySnapshot); err != nil {
		return QueryRecord{}, err
	}
	rec.Timestamp, err = time.Parse(time.RFC3339, timestamp)
	if err != nil {
		return QueryRecord{}, err
	}

	return rec, nil
}
