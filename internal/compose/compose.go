/*
Package compose assembles component outputs into one bounded response.

Composition is where output discipline lives: violation alerts are
deduplicated and filtered by minimum severity, section sizes are capped,
and anything suppressed is counted so the reader knows the response is a
window, not the whole truth.
*/
package compose

import (
	"fmt"
	"sort"

	"github.com/codescout/scout-mcp/internal/advisor"
	"github.com/codescout/scout-mcp/internal/search"
	"github.com/codescout/scout-mcp/internal/store"
)

// Limits bounds the size of a composed response.
type Limits struct {
	MaxFindings int
	MaxAlerts   int
	MinSeverity string
}

// DefaultLimits keeps responses small enough to read in one pass.
var DefaultLimits = Limits{
	MaxFindings: 10,
	MaxAlerts:   5,
	MinSeverity: store.SeverityHigh,
}

// Input carries the raw component outputs for one query.
type Input struct {
	QueryID    string
	RawQuery   string
	Intent     string
	Confidence float64
	Components []string

	Hits       []search.Hit
	Violations []store.ViolationFact
	Notes      string

	// Degraded is set when a component fell back or was skipped.
	Degraded bool
}

// Response is the composed answer returned to the caller.
type Response struct {
	QueryID    string  `json:"queryId"`
	Intent     string  `json:"intent"`
	Confidence float64 `json:"confidence"`
	Summary    string  `json:"summary"`

	Findings []search.Hit          `json:"findings,omitempty"`
	Alerts   []store.ViolationFact `json:"alerts,omitempty"`
	Notes    string                `json:"notes,omitempty"`

	// SuppressedFindings and SuppressedAlerts count entries dropped by the
	// output ceilings, so nothing disappears silently.
	SuppressedFindings int `json:"suppressedFindings,omitempty"`
	SuppressedAlerts   int `json:"suppressedAlerts,omitempty"`

	NextActions []string `json:"nextActions,omitempty"`
	Degraded    bool     `json:"degraded,omitempty"`
}

// Composer builds responses under the configured limits.
type Composer struct {
	limits Limits
}

// New creates a composer. Zero limits fall back to the defaults.
func New(limits Limits) *Composer {
	if limits.MaxFindings <= 0 {
		limits.MaxFindings = DefaultLimits.MaxFindings
	}
	if limits.MaxAlerts <= 0 {
		limits.MaxAlerts = DefaultLimits.MaxAlerts
	}
	if limits.MinSeverity == "" {
		limits.MinSeverity = DefaultLimits.MinSeverity
	}
	return &Composer{limits: limits}
}

// Compose assembles one response from component outputs.
func (c *Composer) Compose(in Input) Response {
	resp := Response{
		QueryID:    in.QueryID,
		Intent:     in.Intent,
		Confidence: in.Confidence,
		Degraded:   in.Degraded,
		Notes:      in.Notes,
	}

	resp.Findings = in.Hits
	if len(resp.Findings) > c.limits.MaxFindings {
		resp.SuppressedFindings = len(resp.Findings) - c.limits.MaxFindings
		resp.Findings = resp.Findings[:c.limits.MaxFindings]
	}

	alerts := advisor.FilterMinSeverity(dedupeAlerts(in.Violations), c.limits.MinSeverity)
	sortAlerts(alerts)
	if len(alerts) > c.limits.MaxAlerts {
		resp.SuppressedAlerts = len(alerts) - c.limits.MaxAlerts
		alerts = alerts[:c.limits.MaxAlerts]
	}
	resp.Alerts = alerts

	resp.Summary = c.summarize(in, resp)
	resp.NextActions = c.nextActions(in, resp)

	return resp
}

// dedupeAlerts keeps one fact per (module, rule), preferring the most
// recently seen.
func dedupeAlerts(facts []store.ViolationFact) []store.ViolationFact {
	type key struct{ module, rule string }
	seen := make(map[key]int, len(facts))
	out := make([]store.ViolationFact, 0, len(facts))

	for _, fact := range facts {
		k := key{fact.Module, fact.Rule}
		if idx, ok := seen[k]; ok {
			if fact.LastSeen.After(out[idx].LastSeen) {
				out[idx] = fact
			}
			continue
		}
		seen[k] = len(out)
		out = append(out, fact)
	}
	return out
}

// sortAlerts orders by severity rank descending, then recency, then module
// for determinism.
func sortAlerts(facts []store.ViolationFact) {
	sort.SliceStable(facts, func(a, b int) bool {
		ra, rb := store.SeverityRank(facts[a].Severity), store.SeverityRank(facts[b].Severity)
		if ra != rb {
			return ra > rb
		}
		if !facts[a].LastSeen.Equal(facts[b].LastSeen) {
			return facts[a].LastSeen.After(facts[b].LastSeen)
		}
		if facts[a].Module != facts[b].Module {
			return facts[a].Module < facts[b].Module
		}
		return facts[a].Rule < facts[b].Rule
	})
}

// summarize writes the one-line intent summary that opens a response.
func (c *Composer) summarize(in Input, resp Response) string {
	base := fmt.Sprintf("Interpreted as %s (confidence %.2f)", in.Intent, in.Confidence)
	switch {
	case len(resp.Findings) == 0 && len(resp.Alerts) == 0 && resp.Notes == "":
		return base + "; nothing matched."
	case len(resp.Alerts) > 0:
		return fmt.Sprintf("%s; %d finding(s), %d alert(s).", base, len(resp.Findings), len(resp.Alerts))
	default:
		return fmt.Sprintf("%s; %d finding(s).", base, len(resp.Findings))
	}
}

// nextActions suggests concrete follow-ups based on what composition saw.
func (c *Composer) nextActions(in Input, resp Response) []string {
	var actions []string
	for _, alert := range resp.Alerts {
		if alert.Severity == store.SeverityCritical {
			actions = append(actions, fmt.Sprintf("address critical %s violation in %s", alert.Rule, alert.Module))
		}
	}
	if resp.SuppressedAlerts > 0 {
		actions = append(actions, fmt.Sprintf("run the violations listing for %d more suppressed alert(s)", resp.SuppressedAlerts))
	}
	if resp.SuppressedFindings > 0 {
		actions = append(actions, fmt.Sprintf("narrow the query; %d finding(s) were suppressed", resp.SuppressedFindings))
	}
	if in.Degraded {
		actions = append(actions, "start the local AI endpoint for semantic search and research notes")
	}
	return actions
}

// Apology is the minimal response when every component failed.
func Apology(queryID, intent string, confidence float64) Response {
	return Response{
		QueryID:    queryID,
		Intent:     intent,
		Confidence: confidence,
		Degraded:   true,
		Summary:    "All components failed for this query; no findings are available.",
		NextActions: []string{
			"check that the repository is indexed",
			"retry the query",
		},
	}
}
