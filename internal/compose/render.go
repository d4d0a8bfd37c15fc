package compose

import (
	"encoding/json"
	"fmt"
	"strings"
)

// RenderJSON serializes a response for machine consumers.
func RenderJSON(resp Response) (string, error) {
	data, err := json.MarshalIndent(resp, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal response: %w", err)
	}
	return string(data), nil
}

// RenderText formats a response for terminal output.
func RenderText(resp Response) string {
	var b strings.Builder

	b.WriteString(resp.Summary)
	b.WriteString("\n")

	if len(resp.Findings) > 0 {
		b.WriteString("\nFindings:\n")
		for i, hit := range resp.Findings {
			fmt.Fprintf(&b, "  %d. [%.2f] %s", i+1, hit.Score, hit.Location)
			if hit.Summary != "" {
				fmt.Fprintf(&b, " - %s", hit.Summary)
			}
			b.WriteString("\n")
		}
		if resp.SuppressedFindings > 0 {
			fmt.Fprintf(&b, "  (%d more suppressed)\n", resp.SuppressedFindings)
		}
	}

	if len(resp.Alerts) > 0 {
		b.WriteString("\nAlerts:\n")
		for _, alert := range resp.Alerts {
			fmt.Fprintf(&b, "  [%s] %s: %s\n", alert.Severity, alert.Module, alert.Description)
		}
		if resp.SuppressedAlerts > 0 {
			fmt.Fprintf(&b, "  (%d more suppressed)\n", resp.SuppressedAlerts)
		}
	}

	if resp.Notes != "" {
		b.WriteString("\nNotes:\n")
		for _, line := range strings.Split(strings.TrimSpace(resp.Notes), "\n") {
			fmt.Fprintf(&b, "  %s\n", line)
		}
	}

	if len(resp.NextActions) > 0 {
		b.WriteString("\nNext actions:\n")
		for _, action := range resp.NextActions {
			fmt.Fprintf(&b, "  - %s\n", action)
		}
	}

	if resp.QueryID != "" {
		fmt.Fprintf(&b, "\nquery id: %s\n", resp.QueryID)
	}

	return b.String()
}
