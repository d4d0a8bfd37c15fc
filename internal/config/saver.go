package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
)

// Save writes the config with an atomic write plus a .bak of the previous
// contents.
func Save(cfg *Config, path string) error {
	if err := backupConfig(path); err != nil {
		// First run has nothing to back up; anything else is worth a note.
		fmt.Fprintf(os.Stderr, "Warning: failed to create backup: %v\n", err)
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := validateJSON(data); err != nil {
		return &InvalidConfigError{
			Path:    path,
			Message: err.Error(),
			Hint:    "Check configuration values and try again",
		}
	}

	return atomicWrite(path, data)
}

func backupConfig(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	return os.WriteFile(path+".bak", data, 0644)
}

func validateJSON(data []byte) error {
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return err
	}

	if cfg.Routing.ActivationThreshold < 0 || cfg.Routing.ActivationThreshold > 1 {
		return fmt.Errorf("routing.activationThreshold must be in [0,1]")
	}
	if cfg.Search.LexicalShare < 0 || cfg.Search.LexicalShare > 1 {
		return fmt.Errorf("search.lexicalShare must be in [0,1]")
	}
	if cfg.Advisor.SizeGuideline > cfg.Advisor.SizeHardLimit {
		return fmt.Errorf("advisor.sizeGuideline must not exceed advisor.sizeHardLimit")
	}

	return nil
}

func atomicWrite(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0644); err != nil {
		if os.IsPermission(err) {
			return &PermissionError{
				Path: path,
				Op:   "write",
				Fix:  writePermissionFix(dir),
			}
		}
		return err
	}

	return os.Rename(tmpPath, path)
}

func writePermissionFix(path string) string {
	switch runtime.GOOS {
	case "windows":
		return fmt.Sprintf("Grant write permission on %s via file Properties", path)
	default:
		return fmt.Sprintf("Run: chmod u+w %s", path)
	}
}
