package store

import (
	"time"

	"github.com/rs/zerolog/log"
)

// UpsertViolation creates or refreshes a violation fact. Re-detection of an
// existing (module, rule) pair bumps last_seen, re-evaluates severity, and
// reopens the fact if it was previously resolved. No duplicate rows are
// ever created.
func (s *SQLiteStore) UpsertViolation(fact ViolationFact) error {
	if !s.enabled || s.db == nil {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	if fact.FirstSeen.IsZero() {
		fact.FirstSeen = now
	}
	if fact.LastSeen.IsZero() {
		fact.LastSeen = now
	}

	err := s.execRetry(`
		INSERT INTO violations (module, rule, severity, description, first_seen, last_seen, resolved, resolved_at)
		VALUES (?, ?, ?, ?, ?, ?, 0, NULL)
		ON CONFLICT(module, rule) DO UPDATE SET
			severity = excluded.severity,
			description = excluded.description,
			last_seen = excluded.last_seen,
			resolved = 0,
			resolved_at = NULL
	`,
		fact.Module,
		fact.Rule,
		fact.Severity,
		fact.Description,
		fact.FirstSeen.Format(time.RFC3339),
		fact.LastSeen.Format(time.RFC3339),
	)
	if err != nil {
		log.Warn().Err(err).Str("module", fact.Module).Str("rule", fact.Rule).Msg("failed to upsert violation")
	}

	return nil
}

// ResolveViolation marks a fact as resolved. The row is kept for history;
// facts are never silently deleted.
func (s *SQLiteStore) ResolveViolation(module, rule string) error {
	if !s.enabled || s.db == nil {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.execRetry(`
		UPDATE violations
		SET resolved = 1, resolved_at = ?
		WHERE module = ? AND rule = ? AND resolved = 0
	`, time.Now().Format(time.RFC3339), module, rule)
	if err != nil {
		log.Warn().Err(err).Str("module", module).Str("rule", rule).Msg("failed to resolve violation")
	}

	return nil
}

// OpenViolations lists unresolved facts, optionally scoped to one module.
func (s *SQLiteStore) OpenViolations(module string) ([]ViolationFact, error) {
	if !s.enabled || s.db == nil {
		return []ViolationFact{}, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		SELECT module, rule, severity, description, first_seen, last_seen
		FROM violations
		WHERE resolved = 0
	`
	args := []interface{}{}
	if module != "" {
		query += " AND module = ?"
		args = append(args, module)
	}
	query += " ORDER BY last_seen DESC"

	rows, err := s.db.Query(query, args...)
	if err != nil {
		log.Warn().Err(err).Msg("failed to query violations")
		return []ViolationFact{}, nil
	}
	defer rows.Close()

	var facts []ViolationFact
	for rows.Next() {
		var fact ViolationFact
		var firstSeen, lastSeen string

		if err := rows.Scan(&fact.Module, &fact.Rule, &fact.Severity, &fact.Description, &firstSeen, &lastSeen); err != nil {
			log.Warn().Err(err).Msg("failed to scan violation row")
			continue
		}

		fact.FirstSeen, _ = time.Parse(time.RFC3339, firstSeen)
		fact.LastSeen, _ = time.Parse(time.RFC3339, lastSeen)
		facts = append(facts, fact)
	}

	return facts, rows.Err()
}
