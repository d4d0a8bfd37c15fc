/*
Package feedback turns multi-dimensional ratings of past responses into
affinity adjustments, closing the recursive learning loop.

Learning is snapshot based: each query record carries the affinity weights
that were in effect when it was routed, and a rating always recomputes from
that snapshot. Re-rating the same query therefore replaces the previous
adjustment instead of compounding it.
*/
package feedback

import (
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/codescout/scout-mcp/internal/config"
	"github.com/codescout/scout-mcp/internal/store"
)

// Learner applies feedback to the learned affinity table.
type Learner struct {
	store store.Store
	cfg   config.LearningConfig
}

// New creates a learner. Zero-valued coefficients fall back to defaults so
// a partially filled config never silences a rating dimension.
func New(st store.Store, cfg config.LearningConfig) *Learner {
	defaults := config.NewConfig().Learning
	if cfg.Rate <= 0 {
		cfg.Rate = defaults.Rate
	}
	if cfg.RelevanceCoeff == 0 {
		cfg.RelevanceCoeff = defaults.RelevanceCoeff
	}
	if cfg.CompletenessCoeff == 0 {
		cfg.CompletenessCoeff = defaults.CompletenessCoeff
	}
	if cfg.NoiseCoeff == 0 {
		cfg.NoiseCoeff = defaults.NoiseCoeff
	}
	if cfg.TokenCoeff == 0 {
		cfg.TokenCoeff = defaults.TokenCoeff
	}
	return &Learner{store: st, cfg: cfg}
}

// Result reports what one rating changed.
type Result struct {
	Intent  string             `json:"intent"`
	Delta   float64            `json:"delta"`
	Weights map[string]float64 `json:"weights"`
}

// Apply records a rating for a past query and adjusts the affinity weights
// of the components that produced the response. Only components that were
// actually routed are adjusted. Each dimension must be within [-1, 1].
func (l *Learner) Apply(rec store.FeedbackRecord) (Result, error) {
	for name, v := range map[string]float64{
		"relevance":       rec.Relevance,
		"noise":           rec.Noise,
		"completeness":    rec.Completeness,
		"tokenEfficiency": rec.TokenEfficiency,
	} {
		if v < -1 || v > 1 {
			return Result{}, fmt.Errorf("feedback dimension %s out of range [-1,1]: %f", name, v)
		}
	}

	query, err := l.store.GetQuery(rec.QueryID)
	if err != nil {
		return Result{}, fmt.Errorf("cannot rate unknown query %s: %w", rec.QueryID, err)
	}

	delta := l.Delta(rec)
	weights := make(map[string]float64, len(query.Components))
	for _, component := range query.Components {
		snapshot, ok := query.AffinitySnapshot[component]
		if !ok {
			// Older records may predate the snapshot column.
			log.Warn().
				Str("query", query.ID).
				Str("component", component).
				Msg("no affinity snapshot, skipping adjustment")
			continue
		}
		weight := clip01(snapshot + l.cfg.Rate*delta)
		if err := l.store.SetAffinity(query.Intent, component, weight); err != nil {
			return Result{}, fmt.Errorf("failed to adjust %s/%s: %w", query.Intent, component, err)
		}
		weights[component] = weight
	}

	rec.CreatedAt = time.Now().UTC()
	if err := l.store.SaveFeedback(rec); err != nil {
		return Result{}, fmt.Errorf("failed to save feedback: %w", err)
	}

	log.Debug().
		Str("query", query.ID).
		Str("intent", query.Intent).
		Float64("delta", delta).
		Msg("feedback applied")

	return Result{Intent: query.Intent, Delta: delta, Weights: weights}, nil
}

// Delta collapses a rating into a single signed adjustment in [-1, 1].
func (l *Learner) Delta(rec store.FeedbackRecord) float64 {
	return l.cfg.RelevanceCoeff*rec.Relevance +
		l.cfg.CompletenessCoeff*rec.Completeness +
		l.cfg.NoiseCoeff*rec.Noise +
		l.cfg.TokenCoeff*rec.TokenEfficiency
}

func clip01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
