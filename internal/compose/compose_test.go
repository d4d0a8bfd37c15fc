package compose

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/codescout/scout-mcp/internal/search"
	"github.com/codescout/scout-mcp/internal/store"
)

func TestComposeCapsFindings(t *testing.T) {
	composer := New(Limits{MaxFindings: 2, MaxAlerts: 5, MinSeverity: store.SeverityMedium})

	in := Input{
		Intent:     "code-location",
		Confidence: 0.9,
		Hits: []search.Hit{
			{Location: "a.go:A", Score: 0.9},
			{Location: "b.go:B", Score: 0.8},
			{Location: "c.go:C", Score: 0.7},
		},
	}
	resp := composer.Compose(in)

	if len(resp.Findings) != 2 {
		t.Fatalf("findings = %d, want 2", len(resp.Findings))
	}
	if resp.SuppressedFindings != 1 {
		t.Errorf("suppressed = %d, want 1", resp.SuppressedFindings)
	}
	if resp.Findings[0].Location != "a.go:A" {
		t.Errorf("order changed: top = %s", resp.Findings[0].Location)
	}
}

func TestComposeFiltersAlertsBySeverity(t *testing.T) {
	composer := New(Limits{MaxFindings: 10, MaxAlerts: 10, MinSeverity: store.SeverityHigh})

	in := Input{
		Intent: "module-health",
		Violations: []store.ViolationFact{
			{Module: "pkg/a", Rule: "missing-readme", Severity: store.SeverityMedium},
			{Module: "pkg/a", Rule: "duplication-risk", Severity: store.SeverityHigh},
			{Module: "pkg/b", Rule: "file-size", Severity: store.SeverityCritical},
		},
	}
	resp := composer.Compose(in)

	if len(resp.Alerts) != 2 {
		t.Fatalf("alerts = %d, want 2", len(resp.Alerts))
	}
	if resp.Alerts[0].Severity != store.SeverityCritical {
		t.Errorf("top alert severity = %q, want critical first", resp.Alerts[0].Severity)
	}
}

func TestComposeDeduplicatesAlerts(t *testing.T) {
	composer := New(Limits{MinSeverity: store.SeverityMedium})

	older := time.Now().Add(-time.Hour)
	newer := time.Now()
	in := Input{
		Violations: []store.ViolationFact{
			{Module: "pkg/a", Rule: "file-size", Severity: store.SeverityMedium, LastSeen: older, Description: "old"},
			{Module: "pkg/a", Rule: "file-size", Severity: store.SeverityCritical, LastSeen: newer, Description: "new"},
		},
	}
	resp := composer.Compose(in)

	if len(resp.Alerts) != 1 {
		t.Fatalf("alerts = %d, want 1 after dedupe", len(resp.Alerts))
	}
	if resp.Alerts[0].Description != "new" {
		t.Errorf("dedupe kept %q, want the most recent", resp.Alerts[0].Description)
	}
}

func TestComposeAlertCeilingCountsSuppressed(t *testing.T) {
	composer := New(Limits{MaxAlerts: 1, MinSeverity: store.SeverityMedium})

	in := Input{
		Violations: []store.ViolationFact{
			{Module: "pkg/a", Rule: "file-size", Severity: store.SeverityHigh},
			{Module: "pkg/b", Rule: "file-size", Severity: store.SeverityMedium},
			{Module: "pkg/c", Rule: "file-size", Severity: store.SeverityMedium},
		},
	}
	resp := composer.Compose(in)

	if len(resp.Alerts) != 1 {
		t.Fatalf("alerts = %d, want 1", len(resp.Alerts))
	}
	if resp.SuppressedAlerts != 2 {
		t.Errorf("suppressed = %d, want 2", resp.SuppressedAlerts)
	}
	found := false
	for _, action := range resp.NextActions {
		if strings.Contains(action, "2 more suppressed") {
			found = true
		}
	}
	if !found {
		t.Error("next actions should mention suppressed alerts")
	}
}

func TestComposeEmptyResult(t *testing.T) {
	composer := New(Limits{})

	resp := composer.Compose(Input{Intent: "general", Confidence: 0.3})
	if !strings.Contains(resp.Summary, "nothing matched") {
		t.Errorf("summary = %q, want nothing-matched wording", resp.Summary)
	}
}

func TestComposeDegradedSuggestsAI(t *testing.T) {
	composer := New(Limits{})

	resp := composer.Compose(Input{Intent: "open-research", Confidence: 0.6, Degraded: true})
	if !resp.Degraded {
		t.Error("degraded flag should pass through")
	}
	found := false
	for _, action := range resp.NextActions {
		if strings.Contains(action, "local AI") {
			found = true
		}
	}
	if !found {
		t.Error("degraded response should suggest starting the AI endpoint")
	}
}

func TestRenderTextSections(t *testing.T) {
	composer := New(Limits{MinSeverity: store.SeverityMedium})
	resp := composer.Compose(Input{
		QueryID:    "q-42",
		Intent:     "module-health",
		Confidence: 0.85,
		Hits:       []search.Hit{{Location: "pkg/a/x.go:X", Score: 0.8, Summary: "X does things"}},
		Violations: []store.ViolationFact{{Module: "pkg/a", Rule: "file-size", Severity: store.SeverityCritical, Description: "oversized"}},
		Notes:      "consider splitting the module",
	})

	text := RenderText(resp)
	for _, want := range []string{"Findings:", "Alerts:", "Notes:", "Next actions:", "q-42", "pkg/a/x.go:X", "[critical]"} {
		if !strings.Contains(text, want) {
			t.Errorf("rendered text missing %q:\n%s", want, text)
		}
	}
}

func TestRenderJSONRoundTrips(t *testing.T) {
	composer := New(Limits{})
	resp := composer.Compose(Input{QueryID: "q-1", Intent: "general", Confidence: 0.3})

	out, err := RenderJSON(resp)
	if err != nil {
		t.Fatalf("RenderJSON: %v", err)
	}
	var decoded Response
	if err := json.Unmarshal([]byte(out), &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if decoded.QueryID != "q-1" {
		t.Errorf("queryId = %q", decoded.QueryID)
	}
}

func TestApology(t *testing.T) {
	resp := Apology("q-9", "general", 0.3)
	if !resp.Degraded {
		t.Error("apology should be degraded")
	}
	if len(resp.NextActions) == 0 {
		t.Error("apology should suggest next actions")
	}
}
