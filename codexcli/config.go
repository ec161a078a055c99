package codexcli

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DefaultModels is the model list used when none is configured.
const DefaultModels = "api:ollama:phi3:mini,api:ollama:codellama:7b-instruct"

// Config holds Codex CLI backend configuration.
type Config struct {
	// Path is the codex-local binary path. Default: "codex-local" (PATH).
	Path string `json:"path" yaml:"path" toml:"path"`

	// Models is the comma-separated, optionally weighted model list passed
	// via --models.
	Models string `json:"models" yaml:"models" toml:"models"`

	// Timeout is the per-attempt timeout. Default: 3 minutes.
	Timeout time.Duration `json:"timeout" yaml:"timeout" toml:"timeout"`

	// WorkDir is the working directory for the CLI process.
	WorkDir string `json:"work_dir" yaml:"work_dir" toml:"work_dir"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Path:    "codex-local",
		Models:  DefaultModels,
		Timeout: 3 * time.Minute,
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Timeout < 0 {
		return fmt.Errorf("timeout must be >= 0")
	}
	return nil
}

// WithDefaults returns a copy of the config with defaults applied for
// unset fields.
func (c Config) WithDefaults() Config {
	defaults := DefaultConfig()

	if c.Path == "" {
		c.Path = defaults.Path
	}
	if c.Models == "" {
		c.Models = defaults.Models
	}
	if c.Timeout == 0 {
		c.Timeout = defaults.Timeout
	}
	return c
}

// ExpandWeightedModels expands a weighted model spec into a plain
// comma-separated list. "m|3" repeats m three times; entries without a
// weight count once. Malformed or sub-1 weights fall back to 1.
func ExpandWeightedModels(spec string) string {
	var entries []string
	for _, token := range strings.Split(spec, ",") {
		token = strings.TrimSpace(token)
		if token == "" {
			continue
		}

		model := token
		count := 1
		if idx := strings.LastIndex(token, "|"); idx >= 0 {
			model = strings.TrimSpace(token[:idx])
			if n, err := strconv.Atoi(strings.TrimSpace(token[idx+1:])); err == nil && n > 1 {
				count = n
			}
		}
		for i := 0; i < count; i++ {
			entries = append(entries, model)
		}
	}
	return strings.Join(entries, ",")
}

// Option configures a CLI client.
type Option func(*CLI)

// WithPath sets the codex-local binary path.
func WithPath(path string) Option {
	return func(c *CLI) { c.cfg.Path = path }
}

// WithModels sets the model list.
func WithModels(models string) Option {
	return func(c *CLI) { c.cfg.Models = models }
}

// WithTimeout sets the per-attempt timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *CLI) { c.cfg.Timeout = d }
}

// WithWorkDir sets the working directory for the CLI process.
func WithWorkDir(dir string) Option {
	return func(c *CLI) { c.cfg.WorkDir = dir }
}
