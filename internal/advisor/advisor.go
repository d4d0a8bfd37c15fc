/*
Package advisor evaluates policy and health rules over repository modules
and maintains violation facts in the pattern store.

Detection is idempotent: a condition observed again refreshes the existing
fact for its (module, rule) pair instead of duplicating it, and a fresh
check that no longer observes a condition resolves the fact explicitly.
Facts are never silently deleted.
*/
package advisor

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/codescout/scout-mcp/internal/config"
	"github.com/codescout/scout-mcp/internal/store"
)

// Advisor runs policy checks and reconciles the results with the store.
type Advisor struct {
	store  store.Store
	policy config.AdvisorConfig
	rules  []Rule
}

// New creates an advisor with the standard rule set.
func New(st store.Store, policy config.AdvisorConfig) *Advisor {
	return &Advisor{
		store:  st,
		policy: policy,
		rules:  DefaultRules(policy),
	}
}

// Check evaluates every rule against the given modules under repoRoot and
// reconciles the pattern store: observed conditions are upserted, cleared
// conditions are resolved. It returns the open facts for those modules.
// With no modules it returns all open facts without re-checking.
func (a *Advisor) Check(repoRoot string, modules []string) ([]store.ViolationFact, error) {
	if len(modules) == 0 {
		return a.store.OpenViolations("")
	}

	now := time.Now().UTC()
	var facts []store.ViolationFact

	for _, module := range modules {
		dir := filepath.Join(repoRoot, filepath.FromSlash(module))

		detected := make(map[string]store.ViolationFact)
		skipModule := false
		for _, rule := range a.rules {
			found, err := rule.Evaluate(dir, module)
			if err != nil {
				// An unreadable module is omitted from this check; it must
				// not erase the other modules' facts.
				log.Warn().Err(err).Str("module", module).Str("rule", rule.ID()).
					Msg("rule evaluation failed, skipping module")
				skipModule = true
				break
			}
			for _, fact := range found {
				fact.Module = module
				fact.FirstSeen = now
				fact.LastSeen = now
				detected[fact.Rule] = fact
			}
		}
		if skipModule {
			continue
		}

		for _, fact := range detected {
			if err := a.store.UpsertViolation(fact); err != nil {
				return nil, fmt.Errorf("failed to record violation %s/%s: %w", fact.Module, fact.Rule, err)
			}
		}

		open, err := a.store.OpenViolations(module)
		if err != nil {
			return nil, fmt.Errorf("failed to list violations for %s: %w", module, err)
		}
		for _, fact := range open {
			if _, stillPresent := detected[fact.Rule]; stillPresent {
				// The stored fact carries the original first-seen time.
				facts = append(facts, fact)
				continue
			}
			if !a.ownsRule(fact.Rule) {
				facts = append(facts, fact)
				continue
			}
			if err := a.store.ResolveViolation(fact.Module, fact.Rule); err != nil {
				return nil, fmt.Errorf("failed to resolve %s/%s: %w", fact.Module, fact.Rule, err)
			}
			log.Info().Str("module", fact.Module).Str("rule", fact.Rule).Msg("violation resolved")
		}
	}

	return facts, nil
}

// ownsRule reports whether this advisor's rule set produces the given rule,
// so reconciliation never resolves facts written by another producer.
func (a *Advisor) ownsRule(rule string) bool {
	for _, r := range a.rules {
		if r.Owns(rule) {
			return true
		}
	}
	return false
}

// FilterMinSeverity drops facts below the minimum severity. Unknown
// severity names pass nothing through except criticals.
func FilterMinSeverity(facts []store.ViolationFact, minSeverity string) []store.ViolationFact {
	threshold := store.SeverityRank(minSeverity)
	if threshold == 0 {
		threshold = store.SeverityRank(store.SeverityCritical)
	}

	filtered := make([]store.ViolationFact, 0, len(facts))
	for _, fact := range facts {
		if store.SeverityRank(fact.Severity) >= threshold {
			filtered = append(filtered, fact)
		}
	}
	return filtered
}
