package advisor

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/codescout/scout-mcp/internal/config"
	"github.com/codescout/scout-mcp/internal/store"
)

// Rule evaluates one policy concern against a module directory. A rule may
// emit at most one fact per rule ID; repeated offenders within a module are
// aggregated into the description.
type Rule interface {
	ID() string
	Owns(rule string) bool
	Evaluate(dir, module string) ([]store.ViolationFact, error)
}

// DefaultRules builds the standard rule set from advisor policy.
func DefaultRules(policy config.AdvisorConfig) []Rule {
	guideline := policy.SizeGuideline
	if guideline <= 0 {
		guideline = 400
	}
	hardLimit := policy.SizeHardLimit
	if hardLimit <= guideline {
		hardLimit = guideline * 2
	}

	return []Rule{
		&fileSizeRule{guideline: guideline, hardLimit: hardLimit},
		&requiredFilesRule{required: policy.RequiredFiles},
		&duplicationRiskRule{},
	}
}

// sourceExtensions are the file types the size rule applies to.
var sourceExtensions = map[string]bool{
	".go": true, ".py": true, ".js": true, ".ts": true, ".tsx": true,
	".java": true, ".rb": true, ".rs": true, ".c": true, ".cc": true,
	".cpp": true, ".h": true, ".hpp": true, ".cs": true, ".kt": true,
}

// fileSizeRule flags source files exceeding the line-count bands: past the
// guideline is medium, past the hard limit is critical.
type fileSizeRule struct {
	guideline int
	hardLimit int
}

func (r *fileSizeRule) ID() string { return "file-size" }

func (r *fileSizeRule) Owns(rule string) bool { return rule == r.ID() }

func (r *fileSizeRule) Evaluate(dir, module string) ([]store.ViolationFact, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	severity := ""
	var offenders []string
	for _, entry := range entries {
		if entry.IsDir() || !sourceExtensions[filepath.Ext(entry.Name())] {
			continue
		}
		if strings.HasSuffix(entry.Name(), "_test.go") {
			continue
		}

		lines, err := countLines(filepath.Join(dir, entry.Name()))
		if err != nil {
			continue
		}

		switch {
		case lines > r.hardLimit:
			severity = store.SeverityCritical
			offenders = append(offenders, fmt.Sprintf("%s (%d lines, hard limit %d)", entry.Name(), lines, r.hardLimit))
		case lines > r.guideline:
			if severity == "" {
				severity = store.SeverityMedium
			}
			offenders = append(offenders, fmt.Sprintf("%s (%d lines, guideline %d)", entry.Name(), lines, r.guideline))
		}
	}

	if len(offenders) == 0 {
		return nil, nil
	}
	sort.Strings(offenders)
	return []store.ViolationFact{{
		Rule:        r.ID(),
		Severity:    severity,
		Description: "oversized files: " + strings.Join(offenders, ", "),
	}}, nil
}

// requiredFilesRule flags modules missing mandated files such as README.md.
// Each missing file is its own rule so resolution tracks per file.
type requiredFilesRule struct {
	required []string
}

func (r *requiredFilesRule) ID() string { return "missing-file" }

func (r *requiredFilesRule) Owns(rule string) bool {
	return strings.HasPrefix(rule, "missing-")
}

func (r *requiredFilesRule) ruleFor(name string) string {
	base := strings.TrimSuffix(name, filepath.Ext(name))
	return "missing-" + strings.ToLower(base)
}

func (r *requiredFilesRule) Evaluate(dir, module string) ([]store.ViolationFact, error) {
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return nil, nil
	}

	var facts []store.ViolationFact
	for _, name := range r.required {
		if _, err := os.Stat(filepath.Join(dir, name)); err == nil {
			continue
		}
		facts = append(facts, store.ViolationFact{
			Rule:        r.ruleFor(name),
			Severity:    store.SeverityMedium,
			Description: fmt.Sprintf("required file %s is missing", name),
		})
	}
	return facts, nil
}

// duplicationMarkers are filename fragments that usually mean a file was
// copied instead of refactored.
var duplicationMarkers = []string{"_v2", "_copy", "_old", "_backup", "-old", "-copy", ".bak"}

// duplicationRiskRule flags copied-variant filenames within a module.
type duplicationRiskRule struct{}

func (r *duplicationRiskRule) ID() string { return "duplication-risk" }

func (r *duplicationRiskRule) Owns(rule string) bool { return rule == r.ID() }

func (r *duplicationRiskRule) Evaluate(dir, module string) ([]store.ViolationFact, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var suspects []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		lower := strings.ToLower(entry.Name())
		stem := strings.TrimSuffix(lower, filepath.Ext(lower))
		for _, marker := range duplicationMarkers {
			if strings.HasSuffix(stem, marker) || strings.HasSuffix(lower, marker) {
				suspects = append(suspects, entry.Name())
				break
			}
		}
	}

	if len(suspects) == 0 {
		return nil, nil
	}
	sort.Strings(suspects)
	return []store.ViolationFact{{
		Rule:        r.ID(),
		Severity:    store.SeverityHigh,
		Description: "copied-variant filenames suggest duplication: " + strings.Join(suspects, ", "),
	}}, nil
}

// countLines counts newline-terminated lines in a file.
func countLines(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	return strings.Count(string(data), "\n"), nil
}
