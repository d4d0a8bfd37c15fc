package config

import (
	"encoding/json"
	"fmt"
	"os"
	"runtime"

	"github.com/kelseyhightower/envconfig"
)

// envPrefix is the prefix for environment variable overrides (SCOUT_*).
const envPrefix = "SCOUT"

// LoadFrom reads a config file, layering it over defaults and applying
// SCOUT_* environment overrides on top.
func LoadFrom(path string) (*Config, error) {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil, &NotFoundError{
				Path: path,
				Hint: "Run 'scout-mcp index' to create configuration",
			}
		}
		return nil, fmt.Errorf("failed to access config: %w", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsPermission(err) {
			return nil, &PermissionError{
				Path: path,
				Op:   "read",
				Fix:  readPermissionFix(path),
			}
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	cfg := NewConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, &InvalidConfigError{
			Path:    path,
			Message: fmt.Sprintf("JSON parse error: %v", err),
			Hint:    "Restore from .bak file if available",
		}
	}

	if err := applyEnv(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadOrCreate loads the default config, creating it with defaults when
// missing. Environment overrides apply either way.
func LoadOrCreate() (*Config, error) {
	path, err := DefaultConfigPath()
	if err != nil {
		return nil, err
	}

	cfg, err := LoadFrom(path)
	if err == nil {
		return cfg, nil
	}
	if _, ok := err.(*NotFoundError); !ok {
		return nil, err
	}

	cfg = NewConfig()
	if err := applyEnv(cfg); err != nil {
		return nil, err
	}
	if err := Save(cfg, path); err != nil {
		return nil, fmt.Errorf("failed to create default config: %w", err)
	}

	return cfg, nil
}

// applyEnv overlays SCOUT_* environment variables on the config.
func applyEnv(cfg *Config) error {
	if err := envconfig.Process(envPrefix, cfg); err != nil {
		return fmt.Errorf("failed to apply environment overrides: %w", err)
	}
	return nil
}

// readPermissionFix returns a platform-specific fix command.
func readPermissionFix(path string) string {
	switch runtime.GOOS {
	case "windows":
		return fmt.Sprintf("Grant read permission on %s via file Properties", path)
	default:
		return fmt.Sprintf("Run: chmod 644 %s", path)
	}
}
