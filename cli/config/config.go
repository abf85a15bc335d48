// Package config handles YAML config file loading for dexfetch run.
package config

import (
	"fmt"
	"time"
)

// Config represents a dexfetch.yaml configuration file.
// All values are optional and act as defaults for dexfetch run flags.
// CLI flags always override config values.
type Config struct {
	Items      []string      `yaml:"items"`
	Endpoint   string        `yaml:"endpoint"`
	Timeout    Duration      `yaml:"timeout"`
	Retries    *int          `yaml:"retries,omitempty"`
	RetryDelay Duration      `yaml:"retry_delay"`
	ItemDelay  Duration      `yaml:"item_delay"`
	Parallel   *int          `yaml:"parallel,omitempty"`
	Report     string        `yaml:"report"`
	FailureLog string        `yaml:"failure_log"`
	Storage    StorageConfig `yaml:"storage"`
	Adapter    AdapterConfig `yaml:"adapter"`
}

// StorageConfig holds storage defaults from the config file.
type StorageConfig struct {
	Backend     string `yaml:"backend"` // fs or s3
	Path        string `yaml:"path"`
	Region      string `yaml:"region"`
	Endpoint    string `yaml:"endpoint"`
	S3PathStyle bool   `yaml:"s3_path_style"`
}

// AdapterConfig holds notification adapter defaults from the config file.
type AdapterConfig struct {
	Type    string            `yaml:"type"` // webhook or redis
	URL     string            `yaml:"url"`
	Channel string            `yaml:"channel,omitempty"`
	Headers map[string]string `yaml:"headers,omitempty"`
	Timeout Duration          `yaml:"timeout,omitempty"`
	Retries *int              `yaml:"retries,omitempty"`
}

// Validate rejects values that no flag combination could make usable.
// Fields left empty are fine; flags or built-in defaults cover them.
func (c *Config) Validate() error {
	switch c.Storage.Backend {
	case "", "fs", "s3":
	default:
		return fmt.Errorf("storage.backend must be fs or s3, got %q", c.Storage.Backend)
	}
	switch c.Adapter.Type {
	case "", "webhook", "redis":
	default:
		return fmt.Errorf("adapter.type must be webhook or redis, got %q", c.Adapter.Type)
	}
	if c.Retries != nil && *c.Retries < 0 {
		return fmt.Errorf("retries must be >= 0, got %d", *c.Retries)
	}
	if c.Parallel != nil && *c.Parallel < 0 {
		return fmt.Errorf("parallel must be >= 0, got %d", *c.Parallel)
	}
	if c.Adapter.Retries != nil && *c.Adapter.Retries < 0 {
		return fmt.Errorf("adapter.retries must be >= 0, got %d", *c.Adapter.Retries)
	}
	if err := nonNegative("timeout", c.Timeout); err != nil {
		return err
	}
	if err := nonNegative("retry_delay", c.RetryDelay); err != nil {
		return err
	}
	if err := nonNegative("item_delay", c.ItemDelay); err != nil {
		return err
	}
	return nonNegative("adapter.timeout", c.Adapter.Timeout)
}

func nonNegative(field string, d Duration) error {
	if d.Duration < 0 {
		return fmt.Errorf("%s must not be negative, got %v", field, d.Duration)
	}
	return nil
}

// Duration wraps time.Duration for YAML string parsing (e.g. "10s", "5m").
type Duration struct {
	time.Duration
}

// UnmarshalYAML parses a duration string like "10s" or "5m30s".
func (d *Duration) UnmarshalYAML(unmarshal func(any) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	if s == "" {
		return nil
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	d.Duration = parsed
	return nil
}
