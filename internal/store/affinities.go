package store

import (
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
)

// Affinities returns the stored component weights for an intent. Intents
// with no stored rows return an empty map; callers fall back to defaults.
func (s *SQLiteStore) Affinities(intent string) (map[string]float64, error) {
	weights := make(map[string]float64)
	if !s.enabled || s.db == nil {
		return weights, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.Query("SELECT component, weight FROM affinities WHERE intent = ?", intent)
	if err != nil {
		log.Warn().Err(err).Str("intent", intent).Msg("failed to query affinities")
		return weights, nil
	}
	defer rows.Close()

	for rows.Next() {
		var component string
		var weight float64
		if err := rows.Scan(&component, &weight); err != nil {
			log.Warn().Err(err).Msg("failed to scan affinity row")
			continue
		}
		weights[component] = weight
	}

	return weights, rows.Err()
}

// SetAffinity writes a single (intent, component) weight atomically.
// Weights outside [0,1] are rejected so no caller can corrupt the table.
func (s *SQLiteStore) SetAffinity(intent, component string, weight float64) error {
	if weight < 0 || weight > 1 {
		return fmt.Errorf("affinity weight out of range [0,1]: %f", weight)
	}
	if !s.enabled || s.db == nil {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.execRetry(`
		INSERT INTO affinities (intent, component, weight, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(intent, component) DO UPDATE SET
			weight = excluded.weight,
			updated_at = excluded.updated_at
	`, intent, component, weight, time.Now().Format(time.RFC3339))
	if err != nil {
		// Dropping one affinity update is preferable to failing the
		// feedback request.
		log.Warn().Err(err).Str("intent", intent).Str("component", component).Msg("affinity update dropped")
	}

	return nil
}

// SeedAffinities inserts defaults for pairs that have no stored weight yet.
// Learned weights are never overwritten by seeding.
func (s *SQLiteStore) SeedAffinities(defaults map[string]map[string]float64) error {
	if !s.enabled || s.db == nil {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin seed transaction: %w", err)
	}

	now := time.Now().Format(time.RFC3339)
	for intent, components := range defaults {
		for component, weight := range components {
			if _, err := tx.Exec(`
				INSERT INTO affinities (intent, component, weight, updated_at)
				VALUES (?, ?, ?, ?)
				ON CONFLICT(intent, component) DO NOTHING
			`, intent, component, weight, now); err != nil {
				tx.Rollback()
				return fmt.Errorf("failed to seed affinity %s/%s: %w", intent, component, err)
			}
		}
	}

	return tx.Commit()
}

// ResetAffinities deletes all learned weights.
func (s *SQLiteStore) ResetAffinities() error {
	if !s.enabled || s.db == nil {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.execRetry("DELETE FROM affinities")
}
