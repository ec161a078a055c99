package backend

import (
	"fmt"
	"time"
)

// Config holds configuration for creating a backend.
// Common fields apply to all backends; Options carries backend-specific
// settings.
type Config struct {
	// Model is the default model for this backend.
	Model string `json:"model" yaml:"model" toml:"model"`

	// Timeout is the default per-attempt timeout.
	// Zero uses the backend's own default.
	Timeout time.Duration `json:"timeout" yaml:"timeout" toml:"timeout"`

	// WorkDir is the repository root the backend operates against.
	WorkDir string `json:"work_dir" yaml:"work_dir" toml:"work_dir"`

	// Options holds backend-specific configuration.
	//
	// Ollama:
	//   - "host": string, API address (default "127.0.0.1:11434")
	//   - "temperature": float64 (default 0)
	//   - "structured_output": bool (request schema-constrained replies)
	//
	// Codex CLI:
	//   - "path": string, binary path (default "codex-local")
	//   - "models": string, comma-separated weighted model list
	Options map[string]any `json:"options,omitempty" yaml:"options,omitempty" toml:"options,omitempty"`
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Timeout < 0 {
		return fmt.Errorf("timeout must be >= 0, got %v", c.Timeout)
	}
	return nil
}

// StringOption returns a string value from Options, or def when absent.
func (c *Config) StringOption(key, def string) string {
	if c.Options == nil {
		return def
	}
	if v, ok := c.Options[key].(string); ok && v != "" {
		return v
	}
	return def
}

// BoolOption returns a bool value from Options, or def when absent.
func (c *Config) BoolOption(key string, def bool) bool {
	if c.Options == nil {
		return def
	}
	if v, ok := c.Options[key].(bool); ok {
		return v
	}
	return def
}

// FloatOption returns a float64 value from Options, or def when absent.
// Integer values are widened.
func (c *Config) FloatOption(key string, def float64) float64 {
	if c.Options == nil {
		return def
	}
	switch v := c.Options[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	case int64:
		return float64(v)
	}
	return def
}
