package store

import (
	"database/sql"
	"time"

	"github.com/rs/zerolog/log"
)

// SaveFeedback stores a feedback record. At most one feedback row exists
// per query; re-rating replaces the previous row.
func (s *SQLiteStore) SaveFeedback(rec FeedbackRecord) error {
	if !s.enabled || s.db == nil {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}

	err := s.execRetry(`
		INSERT INTO feedback (query_id, relevance, noise, completeness, token_efficiency, note, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(query_id) DO UPDATE SET
			relevance = excluded.relevance,
			noise = excluded.noise,
			completeness = excluded.completeness,
			token_efficiency = excluded.token_efficiency,
			note = excluded.note,
			created_at = excluded.created_at
	`,
		rec.QueryID,
		rec.Relevance,
		rec.Noise,
		rec.Completeness,
		rec.TokenEfficiency,
		rec.Note,
		rec.CreatedAt.Format(time.RFC3339),
	)
	if err != nil {
		log.Warn().Err(err).Str("query_id", rec.QueryID).Msg("failed to save feedback")
	}

	return nil
}

// GetFeedback retrieves the feedback record for a query.
func (s *SQLiteStore) GetFeedback(queryID string) (FeedbackRecord, error) {
	if !s.enabled || s.db == nil {
		return FeedbackRecord{}, ErrNotFound
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	row := s.db.QueryRow(`
		SELECT query_id, relevance, noise, completeness, token_efficiency, note, created_at
		FROM feedback
		WHERE query_id = ?
	`, queryID)

	var rec FeedbackRecord
	var note sql.NullString
	var createdAt string
	err := row.Scan(
		&rec.QueryID,
		&rec.Relevance,
		&rec.Noise,
		&rec.Completeness,
		&rec.TokenEfficiency,
		&note,
		&createdAt,
	)
	if err == sql.ErrNoRows {
		return FeedbackRecord{}, ErrNotFound
	}
	if err != nil {
		return FeedbackRecord{}, err
	}

	rec.Note = note.String
	rec.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)

	return rec, nil
}
