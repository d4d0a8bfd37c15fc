/*
Package routing selects which analysis components run for a query.

Selection is threshold-based over the component-intent affinity table, not
top-1: every component whose learned weight clears the activation threshold
runs. The router never mutates the table and never returns an empty set;
the hybrid search engine is the guaranteed fallback.
*/
package routing

import (
	"github.com/rs/zerolog/log"

	"github.com/codescout/scout-mcp/internal/intent"
)

// Component identifiers. These are the registered downstream components the
// router can select.
const (
	ComponentSearch    = "search"
	ComponentAdvisor   = "advisor"
	ComponentInference = "inference"
)

// Components returns the registered component set in stable order.
func Components() []string {
	return []string{ComponentSearch, ComponentAdvisor, ComponentInference}
}

// DefaultAffinities is the initial routing table, keyed by intent then
// component. The feedback learner adjusts the stored copy over time; these
// values only seed intents that have never been learned.
func DefaultAffinities() map[string]map[string]float64 {
	return map[string]map[string]float64{
		string(intent.DocumentationLookup): {
			ComponentSearch:    0.90,
			ComponentAdvisor:   0.20,
			ComponentInference: 0.40,
		},
		string(intent.CodeLocation): {
			ComponentSearch:    0.95,
			ComponentAdvisor:   0.25,
			ComponentInference: 0.20,
		},
		string(intent.ModuleHealth): {
			ComponentSearch:    0.50,
			ComponentAdvisor:   0.95,
			ComponentInference: 0.20,
		},
		string(intent.OpenResearch): {
			ComponentSearch:    0.80,
			ComponentAdvisor:   0.50,
			ComponentInference: 0.90,
		},
		string(intent.General): {
			ComponentSearch:    0.70,
			ComponentAdvisor:   0.30,
			ComponentInference: 0.25,
		},
	}
}

// AffinitySource reads learned weights. Implemented by the pattern store.
type AffinitySource interface {
	Affinities(intent string) (map[string]float64, error)
}

// Router selects components by affinity threshold.
type Router struct {
	source    AffinitySource
	threshold float64
}

// NewRouter creates a router over the given affinity source.
func NewRouter(source AffinitySource, threshold float64) *Router {
	return &Router{source: source, threshold: threshold}
}

// Decision is the outcome of routing one query.
type Decision struct {
	// Selected is the non-empty set of components to run, in stable order.
	Selected []string

	// Filtered is the set that did not clear the threshold.
	Filtered []string

	// Weights is the affinity snapshot used for the decision. The feedback
	// learner recomputes from this snapshot, not from current weights.
	Weights map[string]float64
}

// Route returns the component set for an intent. Pure over the current
// affinity table; never returns an empty selection.
func (r *Router) Route(in intent.Intent, confidence float64) Decision {
	weights := r.snapshot(string(in))

	decision := Decision{Weights: weights}
	for _, component := range Components() {
		if weights[component] >= r.threshold {
			decision.Selected = append(decision.Selected, component)
		} else {
			decision.Filtered = append(decision.Filtered, component)
		}
	}

	// A response must never be empty: search is the fallback component.
	if len(decision.Selected) == 0 {
		decision.Selected = []string{ComponentSearch}
		filtered := decision.Filtered[:0]
		for _, component := range decision.Filtered {
			if component != ComponentSearch {
				filtered = append(filtered, component)
			}
		}
		decision.Filtered = filtered
	}

	log.Debug().
		Str("intent", string(in)).
		Float64("confidence", confidence).
		Strs("selected", decision.Selected).
		Strs("filtered", decision.Filtered).
		Msg("routed query")

	return decision
}

// snapshot overlays stored weights on the defaults for one intent.
func (r *Router) snapshot(in string) map[string]float64 {
	weights := make(map[string]float64, len(Components()))
	defaults, ok := DefaultAffinities()[in]
	if !ok {
		defaults = DefaultAffinities()[string(intent.General)]
	}
	for component, weight := range defaults {
		weights[component] = weight
	}

	if r.source != nil {
		stored, err := r.source.Affinities(in)
		if err == nil {
			for component, weight := range stored {
				weights[component] = weight
			}
		} else {
			log.Warn().Err(err).Str("intent", in).Msg("falling back to default affinities")
		}
	}

	return weights
}
