/*
Package intent classifies raw queries into a small closed set of intents.

Classification is a pure function over the query and an explicit rule table,
so the table itself is unit-testable in isolation. There is no statistical
model: keyword and structural cues accumulate per-intent scores and the
highest score wins. Identical input always yields identical output.
*/
package intent

import (
	"strings"
)

// Intent is a coarse classification of what a query is trying to accomplish.
type Intent string

const (
	DocumentationLookup Intent = "documentation-lookup"
	CodeLocation        Intent = "code-location"
	ModuleHealth        Intent = "module-health"
	OpenResearch        Intent = "open-research"
	General             Intent = "general"
)

// All lists every intent in the closed set.
func All() []Intent {
	return []Intent{DocumentationLookup, CodeLocation, ModuleHealth, OpenResearch, General}
}

// fallbackConfidence is returned when no rule matches.
const fallbackConfidence = 0.3

// maxConfidence caps accumulated scores; heuristics never claim certainty.
const maxConfidence = 0.95

// Rule maps lexical cues to an intent. Keywords match whole tokens,
// phrases match substrings of the lowercased query.
type Rule struct {
	Intent   Intent
	Keywords []string
	Phrases  []string
	Weight   float64
}

// DefaultRules is the static rule table used when no custom table is given.
func DefaultRules() []Rule {
	return []Rule{
		{
			Intent:   CodeLocation,
			Keywords: []string{"find", "where", "locate", "location", "defined", "implementation", "implements", "symbol", "function", "struct"},
			Phrases:  []string{"where is", "which file", "point me to"},
			Weight:   0.3,
		},
		{
			Intent:   DocumentationLookup,
			Keywords: []string{"docs", "documentation", "readme", "document", "usage", "example", "examples", "guide"},
			Phrases:  []string{"how do i use", "how to use", "api reference"},
			Weight:   0.35,
		},
		{
			Intent:   ModuleHealth,
			Keywords: []string{"health", "violation", "violations", "oversized", "lint", "compliance", "policy", "duplication", "duplicate"},
			Phrases:  []string{"too big", "too large", "file size", "is it healthy", "health check"},
			Weight:   0.35,
		},
		{
			Intent:   OpenResearch,
			Keywords: []string{"why", "how", "should", "compare", "tradeoff", "tradeoffs", "design", "approach", "best"},
			Phrases:  []string{"what is the best", "pros and cons", "is there a better"},
			Weight:   0.25,
		},
	}
}

// Classifier maps query strings to intents using a rule table.
type Classifier struct {
	rules []Rule
}

// NewClassifier creates a classifier with the given table; nil means the
// default table.
func NewClassifier(rules []Rule) *Classifier {
	if rules == nil {
		rules = DefaultRules()
	}
	return &Classifier{rules: rules}
}

// Classify returns the detected intent and a confidence in [0,1]. On no
// match it returns General with a low fixed confidence rather than failing.
// Pure function: no side effects, deterministic for identical input.
func (c *Classifier) Classify(query string) (Intent, float64) {
	lowered := strings.ToLower(strings.TrimSpace(query))
	tokens := tokenize(lowered)

	scores := make(map[Intent]float64, len(c.rules))
	for _, rule := range c.rules {
		matches := 0
		for _, kw := range rule.Keywords {
			if tokens[kw] {
				matches++
			}
		}
		for _, phrase := range rule.Phrases {
			if strings.Contains(lowered, phrase) {
				// Phrases are stronger signals than single keywords.
				matches += 2
			}
		}
		if matches > 0 {
			scores[rule.Intent] += rule.Weight + 0.1*float64(matches-1)
		}
	}

	if len(scores) == 0 {
		return General, fallbackConfidence
	}

	// Deterministic winner: highest score, ties broken by rule-table order.
	best := General
	bestScore := 0.0
	for _, rule := range c.rules {
		score, ok := scores[rule.Intent]
		if !ok {
			continue
		}
		if score > bestScore {
			best = rule.Intent
			bestScore = score
		}
		delete(scores, rule.Intent)
	}

	confidence := 0.4 + bestScore
	if confidence > maxConfidence {
		confidence = maxConfidence
	}

	return best, confidence
}

func tokenize(s string) map[string]bool {
	tokens := make(map[string]bool)
	for _, tok := range strings.FieldsFunc(s, func(r rune) bool {
		return !('a' <= r && r <= 'z') && !('0' <= r && r <= '9')
	}) {
		tokens[tok] = true
	}
	return tokens
}
