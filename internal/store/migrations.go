package store

import (
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog/log"
)

// runMigrations executes database schema migrations.
func (s *SQLiteStore) runMigrations() error {
	if !s.enabled || s.db == nil {
		return nil
	}

	if err := s.createMigrationsTable(); err != nil {
		return err
	}

	version, err := s.currentMigrationVersion()
	if err != nil {
		return err
	}

	migrations := []migration{
		{version: 1, name: "initial_schema", up: s.migration001InitialSchema},
	}

	for _, m := range migrations {
		if version < m.version {
			log.Debug().Int("version", m.version).Str("name", m.name).Msg("running migration")
			if err := m.up(); err != nil {
				return fmt.Errorf("migration %d failed: %w", m.version, err)
			}
			if err := s.setMigrationVersion(m.version, m.name); err != nil {
				return err
			}
		}
	}

	return nil
}

// migration represents a single database migration.
type migration struct {
	version int
	name    string
	up      func() error
}

func (s *SQLiteStore) createMigrationsTable() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			name TEXT NOT NULL,
			applied_at TEXT NOT NULL DEFAULT (datetime('now'))
		)
	`)
	return err
}

func (s *SQLiteStore) currentMigrationVersion() (int, error) {
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")

	var version int
	if err := row.Scan(&version); err != nil {
		return 0, err
	}
	return version, nil
}

func (s *SQLiteStore) setMigrationVersion(version int, name string) error {
	_, err := s.db.Exec("INSERT INTO schema_migrations (version, name) VALUES (?, ?)", version, name)
	return err
}

// migration001InitialSchema creates the four logical tables plus the
// embedding cache.
func (s *SQLiteStore) migration001InitialSchema() error {
	stmts := []struct {
		what string
		sql  string
	}{
		{"queries table", `
			CREATE TABLE IF NOT EXISTS queries (
				id TEXT PRIMARY KEY,
				raw_query TEXT NOT NULL,
				intent TEXT NOT NULL,
				confidence REAL NOT NULL,
				components TEXT NOT NULL,
				affinity_snapshot TEXT NOT NULL,
				hit_count INTEGER NOT NULL,
				latency_ms INTEGER NOT NULL,
				timestamp TEXT NOT NULL
			)`},
		{"queries timestamp index", `
			CREATE INDEX IF NOT EXISTS idx_queries_timestamp
			ON queries(timestamp DESC)`},
		{"violations table", `
			CREATE TABLE IF NOT EXISTS violations (
				module TEXT NOT NULL,
				rule TEXT NOT NULL,
				severity TEXT NOT NULL,
				description TEXT NOT NULL,
				first_seen TEXT NOT NULL,
				last_seen TEXT NOT NULL,
				resolved INTEGER NOT NULL DEFAULT 0,
				resolved_at TEXT,
				PRIMARY KEY (module, rule)
			)`},
		{"violations module index", `
			CREATE INDEX IF NOT EXISTS idx_violations_module
			ON violations(module)`},
		{"affinities table", `
			CREATE TABLE IF NOT EXISTS affinities (
				intent TEXT NOT NULL,
				component TEXT NOT NULL,
				weight REAL NOT NULL,
				updated_at TEXT NOT NULL,
				PRIMARY KEY (intent, component)
			)`},
		{"feedback table", `
			CREATE TABLE IF NOT EXISTS feedback (
				query_id TEXT PRIMARY KEY,
				relevance REAL NOT NULL,
				noise REAL NOT NULL,
				completeness REAL NOT NULL,
				token_efficiency REAL NOT NULL,
				note TEXT,
				created_at TEXT NOT NULL
			)`},
		{"embeddings table", `
			CREATE TABLE IF NOT EXISTS embeddings (
				doc_id TEXT PRIMARY KEY,
				vector BLOB NOT NULL,
				version TEXT NOT NULL,
				created_at TEXT NOT NULL
			)`},
	}

	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt.sql); err != nil {
			return fmt.Errorf("failed to create %s: %w", stmt.what, err)
		}
	}

	return nil
}

// vectorToJSON converts a float32 vector to JSON for storage.
func vectorToJSON(vector []float32) string {
	data, err := json.Marshal(vector)
	if err != nil {
		log.Warn().Err(err).Msg("failed to marshal vector")
		return "[]"
	}
	return string(data)
}

// jsonToVector parses JSON storage back to a float32 vector.
func jsonToVector(jsonStr string) ([]float32, error) {
	var vector []float32
	if err := json.Unmarshal([]byte(jsonStr), &vector); err != nil {
		return nil, err
	}
	return vector, nil
}
