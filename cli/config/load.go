package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Load reads a dexfetch.yaml file, expands ${VAR} and ${VAR:-default}
// references against the environment, unmarshals into a Config, and
// validates it. Unset variables without a default expand to the empty
// string rather than erroring; required values surface later, at flag
// merging, where the error can name the flag that would supply them.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("config file not found: %s", path)
		}
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal([]byte(os.Expand(string(data), expandVar)), &cfg); err != nil {
		return nil, fmt.Errorf("invalid YAML in %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return &cfg, nil
}

// expandVar resolves one ${...} reference. Variables that are unset or
// empty fall back to the ":-" default when one is given.
func expandVar(ref string) string {
	name, fallback, hasFallback := strings.Cut(ref, ":-")
	if v := os.Getenv(name); v != "" {
		return v
	}
	if hasFallback {
		return fallback
	}
	return ""
}
