package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// PolicyFileName is the per-repo policy file, looked up at the repo root.
const PolicyFileName = ".scout-policy.yaml"

// Policy carries per-repo overrides for the advisor rule set.
type Policy struct {
	MinSeverity   string   `yaml:"minSeverity,omitempty"`
	SizeGuideline int      `yaml:"sizeGuideline,omitempty"`
	SizeHardLimit int      `yaml:"sizeHardLimit,omitempty"`
	RequiredFiles []string `yaml:"requiredFiles,omitempty"`
}

// LoadPolicy reads the repo policy file. A missing file returns a nil
// policy and no error; repos without one use the global advisor config.
func LoadPolicy(repoRoot string) (*Policy, error) {
	path := filepath.Join(repoRoot, PolicyFileName)

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read policy file: %w", err)
	}

	var policy Policy
	if err := yaml.Unmarshal(data, &policy); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", PolicyFileName, err)
	}

	return &policy, nil
}

// ApplyPolicy overlays a repo policy on the advisor config. Zero values in
// the policy leave the config untouched.
func (c *Config) ApplyPolicy(policy *Policy) {
	if policy == nil {
		return
	}
	if policy.MinSeverity != "" {
		c.Advisor.MinSeverity = policy.MinSeverity
	}
	if policy.SizeGuideline > 0 {
		c.Advisor.SizeGuideline = policy.SizeGuideline
	}
	if policy.SizeHardLimit > 0 {
		c.Advisor.SizeHardLimit = policy.SizeHardLimit
	}
	if len(policy.RequiredFiles) > 0 {
		c.Advisor.RequiredFiles = policy.RequiredFiles
	}
}
