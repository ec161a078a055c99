package ollama

import (
	"fmt"
	"strings"
	"time"
)

// DefaultModel is used when no model is configured.
const DefaultModel = "phi3:mini"

// Config holds Ollama backend configuration.
type Config struct {
	// Host is the Ollama API address. Default: "127.0.0.1:11434".
	Host string `json:"host" yaml:"host" toml:"host"`

	// Model is the model name to query (e.g. "phi3:mini",
	// "qwen2.5-coder:7b-instruct").
	Model string `json:"model" yaml:"model" toml:"model"`

	// Timeout is the per-attempt request timeout. Default: 3 minutes.
	Timeout time.Duration `json:"timeout" yaml:"timeout" toml:"timeout"`

	// Temperature controls response randomness. Diff generation wants
	// deterministic output, so the default is 0.
	Temperature float64 `json:"temperature" yaml:"temperature" toml:"temperature"`

	// StructuredOutput requests schema-constrained JSON replies via the
	// Ollama "format" field instead of free-form text.
	StructuredOutput bool `json:"structured_output" yaml:"structured_output" toml:"structured_output"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Host:    "127.0.0.1:11434",
		Model:   DefaultModel,
		Timeout: 3 * time.Minute,
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Model == "" {
		return fmt.Errorf("model is required")
	}
	if c.Timeout < 0 {
		return fmt.Errorf("timeout must be >= 0")
	}
	if c.Temperature < 0 {
		return fmt.Errorf("temperature must be >= 0")
	}
	return nil
}

// WithDefaults returns a copy of the config with defaults applied for
// unset fields.
func (c Config) WithDefaults() Config {
	defaults := DefaultConfig()

	if c.Host == "" {
		c.Host = defaults.Host
	}
	if c.Model == "" {
		c.Model = defaults.Model
	}
	if c.Timeout == 0 {
		c.Timeout = defaults.Timeout
	}
	return c
}

// PickModel resolves a model name from a possibly decorated spec.
// Specs may arrive as comma-separated lists ("phi3:mini,codellama") or with
// an "api:ollama:" routing prefix carried over from fallback model lists;
// the first entry wins and the prefix is stripped.
func PickModel(spec string) string {
	first := strings.TrimSpace(strings.SplitN(spec, ",", 2)[0])
	if first == "" {
		return DefaultModel
	}
	if _, rest, ok := strings.Cut(first, "api:ollama:"); ok {
		return rest
	}
	return first
}

// Option configures a Client.
type Option func(*Client)

// WithHost sets the Ollama API address.
func WithHost(host string) Option {
	return func(c *Client) { c.cfg.Host = host }
}

// WithModel sets the model name.
func WithModel(model string) Option {
	return func(c *Client) { c.cfg.Model = model }
}

// WithTimeout sets the per-attempt timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.cfg.Timeout = d }
}

// WithTemperature sets the sampling temperature.
func WithTemperature(t float64) Option {
	return func(c *Client) { c.cfg.Temperature = t }
}

// WithStructuredOutput enables schema-constrained replies.
func WithStructuredOutput() Option {
	return func(c *Client) { c.cfg.StructuredOutput = true }
}
