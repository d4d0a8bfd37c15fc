package store

import "time"

// Severity levels for violation facts, ordered from least to most severe.
const (
	SeverityMedium   = "medium"
	SeverityHigh     = "high"
	SeverityCritical = "critical"
)

// SeverityRank maps a severity to an ordinal for comparisons and sorting.
func SeverityRank(severity string) int {
	switch severity {
	case SeverityCritical:
		return 3
	case SeverityHigh:
		return 2
	case SeverityMedium:
		return 1
	default:
		return 0
	}
}

// QueryRecord is the immutable record of one handled query.
type QueryRecord struct {
	// ID is the opaque identifier returned with the response (UUID).
	ID string `json:"id"`

	// RawQuery is the query text as received.
	RawQuery string `json:"rawQuery"`

	// Intent is the detected intent name.
	Intent string `json:"intent"`

	// Confidence is the classifier confidence in [0,1].
	Confidence float64 `json:"confidence"`

	// Components is the set of components the router selected.
	Components []string `json:"components"`

	// AffinitySnapshot holds the component weights for the detected intent
	// at routing time. Feedback recomputes from this snapshot so repeated
	// re-rating never compounds.
	AffinitySnapshot map[string]float64 `json:"affinitySnapshot"`

	// HitCount is the number of hits in the composed response.
	HitCount int `json:"hitCount"`

	// LatencyMS is the end-to-end handling latency in milliseconds.
	LatencyMS int64 `json:"latencyMs"`

	// Timestamp is when the query was received.
	Timestamp time.Time `json:"timestamp"`
}

// ViolationFact is a standing policy issue for a (module, rule) pair.
type ViolationFact struct {
	// Module is the target module identifier.
	Module string `json:"module"`

	// Rule is the policy rule identifier (e.g. "file-size").
	Rule string `json:"rule"`

	// Severity is one of medium, high, critical.
	Severity string `json:"severity"`

	// Description is a human-readable account of the violation.
	Description string `json:"description"`

	// FirstSeen is when the fact was first detected.
	FirstSeen time.Time `json:"firstSeen"`

	// LastSeen is bumped on every re-detection.
	LastSeen time.Time `json:"lastSeen"`

	// Resolved is set when a fresh check shows the condition cleared.
	// Facts are never silently deleted.
	Resolved bool `json:"resolved"`

	// ResolvedAt is when the fact was marked resolved.
	ResolvedAt time.Time `json:"resolvedAt,omitempty"`
}

// FeedbackRecord is a multi-dimensional rating of a prior response.
// Each dimension is in [-1,1]; negative noise means the response was noisy.
type FeedbackRecord struct {
	// QueryID references the rated query record.
	QueryID string `json:"queryId"`

	// Relevance rates how on-target the findings were.
	Relevance float64 `json:"relevance"`

	// Noise rates signal-to-noise (negative = noisy).
	Noise float64 `json:"noise"`

	// Completeness rates whether anything important was missing.
	Completeness float64 `json:"completeness"`

	// TokenEfficiency rates output size relative to value.
	TokenEfficiency float64 `json:"tokenEfficiency"`

	// Note is an optional free-text comment.
	Note string `json:"note,omitempty"`

	// CreatedAt is when the feedback was recorded (latest wins).
	CreatedAt time.Time `json:"createdAt"`
}
