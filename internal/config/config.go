/*
Package config handles loading, saving, and layering scout-mcp configuration.

Precedence, lowest to highest: built-in defaults, the global JSON config at
~/.scout-mcp.json, SCOUT_* environment variables, then the per-repo policy
file (.scout-policy.yaml) for advisor rules only.
*/
package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// Config is the root configuration structure.
type Config struct {
	// RepoRoot is the default repository to index and advise on.
	RepoRoot string `json:"repoRoot,omitempty" envconfig:"REPO_ROOT"`

	// DataDir holds the pattern store and the search index.
	// Defaults to ~/.scout-mcp.
	DataDir string `json:"dataDir,omitempty" envconfig:"DATA_DIR"`

	// LogLevel is a zerolog level name (debug, info, warn, error).
	LogLevel string `json:"logLevel,omitempty" envconfig:"LOG_LEVEL"`

	Search   SearchConfig   `json:"search"`
	Routing  RoutingConfig  `json:"routing"`
	Learning LearningConfig `json:"learning"`
	Advisor  AdvisorConfig  `json:"advisor"`
	AI       AIConfig       `json:"ai"`
}

// SearchConfig tunes the hybrid search engine.
type SearchConfig struct {
	// Limit is the default maximum number of hits per response.
	Limit int `json:"limit,omitempty" envconfig:"SEARCH_LIMIT"`

	// SemanticWeight and LexicalWeight blend the two strategies when a
	// document is found by both.
	SemanticWeight float64 `json:"semanticWeight,omitempty" envconfig:"SEMANTIC_WEIGHT"`
	LexicalWeight  float64 `json:"lexicalWeight,omitempty" envconfig:"LEXICAL_WEIGHT"`

	// BothBoost is added when both strategies agree on a document.
	BothBoost float64 `json:"bothBoost,omitempty" envconfig:"BOTH_BOOST"`

	// LexicalShare caps the fraction of lexical-only hits in the final
	// list so semantic relevance dominates.
	LexicalShare float64 `json:"lexicalShare,omitempty" envconfig:"LEXICAL_SHARE"`

	// EmbedTimeoutMS bounds one embedding lookup; beyond it the embedding
	// collaborator is treated as unavailable.
	EmbedTimeoutMS int `json:"embedTimeoutMs,omitempty" envconfig:"EMBED_TIMEOUT_MS"`
}

// RoutingConfig tunes the component router.
type RoutingConfig struct {
	// ActivationThreshold is the minimum affinity weight for a component
	// to be routed.
	ActivationThreshold float64 `json:"activationThreshold,omitempty" envconfig:"ACTIVATION_THRESHOLD"`
}

// LearningConfig tunes the feedback learner. The coefficients convert a
// multi-dimensional rating into a single affinity delta; they are tunables,
// not invariants.
type LearningConfig struct {
	Rate              float64 `json:"rate,omitempty" envconfig:"LEARNING_RATE"`
	RelevanceCoeff    float64 `json:"relevanceCoeff,omitempty" envconfig:"RELEVANCE_COEFF"`
	CompletenessCoeff float64 `json:"completenessCoeff,omitempty" envconfig:"COMPLETENESS_COEFF"`
	NoiseCoeff        float64 `json:"noiseCoeff,omitempty" envconfig:"NOISE_COEFF"`
	TokenCoeff        float64 `json:"tokenCoeff,omitempty" envconfig:"TOKEN_COEFF"`

	// RetentionDays bounds how long query and feedback records are kept.
	RetentionDays int `json:"retentionDays,omitempty" envconfig:"RETENTION_DAYS"`
}

// AdvisorConfig tunes the policy/health advisor. The per-repo policy file
// overrides these values for that repo.
type AdvisorConfig struct {
	// MinSeverity is the minimum severity surfaced in responses. Facts
	// below it are still recorded in the pattern store.
	MinSeverity string `json:"minSeverity,omitempty" envconfig:"MIN_SEVERITY"`

	// SizeGuideline and SizeHardLimit are the file line-count bands.
	SizeGuideline int `json:"sizeGuideline,omitempty" envconfig:"SIZE_GUIDELINE"`
	SizeHardLimit int `json:"sizeHardLimit,omitempty" envconfig:"SIZE_HARD_LIMIT"`

	// RequiredFiles must exist in every module directory.
	RequiredFiles []string `json:"requiredFiles,omitempty" envconfig:"REQUIRED_FILES"`
}

// AIConfig points at the local inference endpoint (Ollama-compatible API).
type AIConfig struct {
	Endpoint      string `json:"endpoint,omitempty" envconfig:"AI_ENDPOINT"`
	EmbedModel    string `json:"embedModel,omitempty" envconfig:"AI_EMBED_MODEL"`
	GenerateModel string `json:"generateModel,omitempty" envconfig:"AI_GENERATE_MODEL"`

	// GenerateTimeoutMS bounds one generation call.
	GenerateTimeoutMS int `json:"generateTimeoutMs,omitempty" envconfig:"AI_GENERATE_TIMEOUT_MS"`
}

// NewConfig returns a configuration populated with defaults.
func NewConfig() *Config {
	return &Config{
		LogLevel: "info",
		Search: SearchConfig{
			Limit:          10,
			SemanticWeight: 0.65,
			LexicalWeight:  0.35,
			BothBoost:      0.1,
			LexicalShare:   0.4,
			EmbedTimeoutMS: 300,
		},
		Routing: RoutingConfig{
			ActivationThreshold: 0.35,
		},
		Learning: LearningConfig{
			Rate:              0.15,
			RelevanceCoeff:    0.35,
			CompletenessCoeff: 0.30,
			NoiseCoeff:        0.20,
			TokenCoeff:        0.15,
			RetentionDays:     90,
		},
		Advisor: AdvisorConfig{
			MinSeverity:   "high",
			SizeGuideline: 400,
			SizeHardLimit: 800,
			RequiredFiles: []string{"README.md"},
		},
		AI: AIConfig{
			Endpoint:          "http://localhost:11434",
			EmbedModel:        "nomic-embed-text",
			GenerateModel:     "qwen2.5-coder",
			GenerateTimeoutMS: 8000,
		},
	}
}

// DefaultConfigPath returns the path to ~/.scout-mcp.json.
func DefaultConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".scout-mcp.json"), nil
}

// ResolveDataDir returns the configured data directory, defaulting to
// ~/.scout-mcp.
func (c *Config) ResolveDataDir() (string, error) {
	if c.DataDir != "" {
		return c.DataDir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".scout-mcp"), nil
}

// StorePath returns the pattern store database path.
func (c *Config) StorePath() (string, error) {
	dir, err := c.ResolveDataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "patterns.db"), nil
}

// IndexPath returns the bleve index path.
func (c *Config) IndexPath() (string, error) {
	dir, err := c.ResolveDataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "index"), nil
}
