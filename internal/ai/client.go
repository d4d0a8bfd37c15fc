/*
Package ai wraps the external embedding and inference collaborators.

Both collaborators are optional: callers probe Available before use and
degrade to lexical-only search (or skip research notes) when the backend is
down. Every call is bounded by a context deadline; a slow backend is treated
the same as an absent one.
*/
package ai

import (
	"context"
	"errors"
)

// ErrUnavailable is returned when the backend cannot be reached in time.
var ErrUnavailable = errors.New("ai: backend unavailable")

// Client provides embedding and text-generation capabilities.
type Client interface {
	// Available probes the backend. It must return quickly; callers use
	// it for capability-check-then-fallback, not error recovery.
	Available(ctx context.Context) bool

	// Embed generates an embedding vector for text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// Generate produces advisory text for a prompt with optional context.
	Generate(ctx context.Context, prompt string) (string, error)

	// ModelVersion identifies the embedding model, used to invalidate
	// cached vectors when the model changes.
	ModelVersion() string
}

// StubClient is a deterministic in-process implementation for tests.
type StubClient struct {
	// Dim is the embedding dimension.
	Dim int

	// Down simulates an unavailable backend.
	Down bool

	// GenerateText is returned from Generate when set.
	GenerateText string
}

// NewStubClient creates a stub with the given embedding dimension.
func NewStubClient(dim int) *StubClient {
	return &StubClient{Dim: dim}
}

// Available reports the simulated liveness.
func (s *StubClient) Available(ctx context.Context) bool {
	return !s.Down
}

// Embed returns a deterministic vector derived from the text so that equal
// inputs are equal vectors and similar-prefix inputs correlate.
func (s *StubClient) Embed(ctx context.Context, text string) ([]float32, error) {
	if s.Down {
		return nil, ErrUnavailable
	}

	vec := make([]float32, s.Dim)
	for i, r := range text {
		vec[i%s.Dim] += float32(r%31) / 31.0
	}
	return vec, nil
}

// Generate returns the canned text.
func (s *StubClient) Generate(ctx context.Context, prompt string) (string, error) {
	if s.Down {
		return "", ErrUnavailable
	}
	if s.GenerateText != "" {
		return s.GenerateText, nil
	}
	return "stub response", nil
}

// ModelVersion identifies the stub model.
func (s *StubClient) ModelVersion() string {
	return "stub"
}
