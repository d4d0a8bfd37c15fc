package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite"
)

const (
	// writeRetries bounds transparent retries on write contention before
	// the write is dropped with a warning.
	writeRetries = 5

	// retryBackoff is the base delay between contention retries.
	retryBackoff = 20 * time.Millisecond

	// busyTimeoutMS is handed to SQLite so concurrent agent processes
	// block briefly instead of failing immediately.
	busyTimeoutMS = 5000
)

// SQLiteStore implements the Store interface using SQLite.
type SQLiteStore struct {
	db       *sql.DB
	dbPath   string
	enabled  bool
	mu       sync.Mutex
	initOnce sync.Once
}

// New creates a store backed by the given database file. The parent
// directory is created on Init. If the database cannot be opened the store
// is disabled and operations become no-ops rather than failing.
func New(dbPath string) *SQLiteStore {
	return &SQLiteStore{
		dbPath:  dbPath,
		enabled: true,
	}
}

// DefaultPath returns the standard database location, ~/.scout-mcp/patterns.db.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".scout-mcp", "patterns.db"), nil
}

// Init opens the database, applies pragmas, and runs migrations.
//
// If initialization fails, the store is disabled and subsequent operations
// become no-ops (graceful degradation).
func (s *SQLiteStore) Init() error {
	if !s.enabled {
		return nil
	}

	var initErr error
	s.initOnce.Do(func() {
		if err := os.MkdirAll(filepath.Dir(s.dbPath), 0755); err != nil {
			initErr = fmt.Errorf("failed to create store directory: %w", err)
			s.enabled = false
			return
		}

		db, err := sql.Open("sqlite", s.dbPath)
		if err != nil {
			initErr = fmt.Errorf("failed to open database: %w", err)
			s.enabled = false
			log.Warn().Err(initErr).Msg("pattern store disabled")
			return
		}
		s.db = db

		if err := db.Ping(); err != nil {
			initErr = fmt.Errorf("failed to ping database: %w", err)
			s.enabled = false
			log.Warn().Err(initErr).Msg("pattern store disabled")
			return
		}

		// WAL allows concurrent readers during a write; busy_timeout makes
		// cross-process writers queue instead of erroring.
		pragmas := []string{
			"PRAGMA journal_mode=WAL",
			fmt.Sprintf("PRAGMA busy_timeout=%d", busyTimeoutMS),
			"PRAGMA synchronous=NORMAL",
		}
		for _, pragma := range pragmas {
			if _, err := db.Exec(pragma); err != nil {
				log.Warn().Err(err).Str("pragma", pragma).Msg("pragma failed")
			}
		}

		if err := s.runMigrations(); err != nil {
			initErr = fmt.Errorf("failed to run migrations: %w", err)
			s.enabled = false
			log.Warn().Err(initErr).Msg("pattern store disabled")
			return
		}
	})

	return initErr
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	if !s.enabled || s.db == nil {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.db.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}

	s.db = nil
	return nil
}

// Cleanup removes query and feedback records older than the retention.
// Violation facts and affinities are standing state and are kept.
func (s *SQLiteStore) Cleanup(retention time.Duration) error {
	if !s.enabled || s.db == nil {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := time.Now().Add(-retention).Format(time.RFC3339)

	if _, err := s.db.Exec(
		"DELETE FROM feedback WHERE query_id IN (SELECT id FROM queries WHERE timestamp < ?)", cutoff); err != nil {
		log.Warn().Err(err).Msg("failed to cleanup feedback")
	}
	if _, err := s.db.Exec("DELETE FROM queries WHERE timestamp < ?", cutoff); err != nil {
		log.Warn().Err(err).Msg("failed to cleanup queries")
	}
	if _, err := s.db.Exec("VACUUM"); err != nil {
		log.Warn().Err(err).Msg("failed to vacuum database")
	}

	return nil
}

// execRetry runs a write statement, retrying a bounded number of times when
// another process holds the write lock. After the last attempt the error is
// returned so the caller can decide to drop the write.
func (s *SQLiteStore) execRetry(query string, args ...interface{}) error {
	var err error
	for attempt := 0; attempt < writeRetries; attempt++ {
		_, err = s.db.Exec(query, args...)
		if err == nil || !isBusy(err) {
			return err
		}
		time.Sleep(retryBackoff * time.Duration(attempt+1))
	}
	return err
}

// isBusy reports whether an error is a SQLite lock-contention error.
func isBusy(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "database is locked") ||
		strings.Contains(msg, "SQLITE_BUSY") ||
		strings.Contains(msg, "database table is locked")
}
