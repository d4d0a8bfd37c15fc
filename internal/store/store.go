/*
Package store implements the persistent pattern store for scout-mcp.

The store is the single owner of all persisted state: query records,
violation facts, component-intent affinities, feedback records, and the
embedding cache. It is backed by a single SQLite file (modernc.org/sqlite,
pure Go) opened in WAL mode so multiple agent processes can read and write
concurrently without corrupting each other.

All writes are atomic: each logical operation runs in its own transaction,
and contended writes are retried a bounded number of times before being
dropped with a logged warning.
*/
package store

import (
	"errors"
	"time"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("store: record not found")

// Store defines the interface for pattern store operations.
type Store interface {
	// Init opens the database and runs migrations.
	Init() error

	// RecordQuery appends an immutable query record.
	RecordQuery(rec QueryRecord) error

	// GetQuery retrieves a query record by its ID.
	GetQuery(id string) (QueryRecord, error)

	// UpsertViolation creates or refreshes a violation fact keyed by
	// (module, rule). Refreshing bumps last_seen and re-evaluates severity.
	UpsertViolation(fact ViolationFact) error

	// ResolveViolation marks a violation fact as resolved.
	ResolveViolation(module, rule string) error

	// OpenViolations lists unresolved violation facts, optionally scoped
	// to a single module ("" means all modules).
	OpenViolations(module string) ([]ViolationFact, error)

	// Affinities returns the component weights for an intent.
	Affinities(intent string) (map[string]float64, error)

	// SetAffinity writes a single (intent, component) weight atomically.
	SetAffinity(intent, component string, weight float64) error

	// SeedAffinities inserts default weights for any (intent, component)
	// pair that has no stored value yet. Existing weights are untouched.
	SeedAffinities(defaults map[string]map[string]float64) error

	// ResetAffinities deletes all learned weights so the defaults apply
	// again on the next seed.
	ResetAffinities() error

	// SaveFeedback stores a feedback record, replacing any prior feedback
	// for the same query.
	SaveFeedback(rec FeedbackRecord) error

	// GetFeedback retrieves the feedback record for a query, if any.
	GetFeedback(queryID string) (FeedbackRecord, error)

	// SaveEmbedding caches an embedding vector for an indexed document.
	SaveEmbedding(docID string, vector []float32, version string) error

	// GetEmbedding retrieves a cached embedding for a document.
	GetEmbedding(docID string) ([]float32, string, error)

	// AllEmbeddings streams every cached (docID, vector) pair.
	AllEmbeddings() (map[string][]float32, error)

	// ResetEmbeddings drops the embedding cache so the next index build
	// re-embeds everything. Paired with an index rebuild; otherwise stale
	// vectors for removed documents accumulate.
	ResetEmbeddings() error

	// Cleanup removes query and feedback records older than the retention.
	Cleanup(retention time.Duration) error

	// Close closes the database connection.
	Close() error
}
