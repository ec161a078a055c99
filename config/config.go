// Package config loads hybrid settings from TOML or YAML files, applies
// HYBRID_ environment overrides, and resolves effective settings with the
// precedence flag > session > config file > default.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/randalmurphal/hybrid/route"
)

// Duration unmarshals "90s" style values from both TOML and YAML.
type Duration time.Duration

// UnmarshalText implements encoding.TextUnmarshaler (used by TOML).
func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = Duration(parsed)
	return nil
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	return d.UnmarshalText([]byte(s))
}

// Std converts to a time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// Ollama configures the primary backend.
type Ollama struct {
	Host        string   `toml:"host" yaml:"host"`
	Model       string   `toml:"model" yaml:"model"`
	Timeout     Duration `toml:"timeout" yaml:"timeout"`
	Temperature float64  `toml:"temperature" yaml:"temperature"`

	// StructuredOutput requests JSON-schema constrained replies.
	StructuredOutput bool `toml:"structured_output" yaml:"structured_output"`
}

// CodexCLI configures the fallback backend.
type CodexCLI struct {
	Path    string   `toml:"path" yaml:"path"`
	Models  string   `toml:"models" yaml:"models"`
	Timeout Duration `toml:"timeout" yaml:"timeout"`
}

// Apply configures the git apply engine.
type Apply struct {
	Mode   string `toml:"mode" yaml:"mode"`
	Branch string `toml:"branch" yaml:"branch"`
}

// Cache configures the diff cache.
type Cache struct {
	MaxEntries int `toml:"max_entries" yaml:"max_entries"`
}

// Repair configures the self-repair loop.
type Repair struct {
	TestCommand   string `toml:"test_command" yaml:"test_command"`
	MaxIterations int    `toml:"max_iterations" yaml:"max_iterations"`
	StallLimit    int    `toml:"stall_limit" yaml:"stall_limit"`
}

// Config is the full on-disk configuration.
type Config struct {
	// Workspace is where session, cache and run log live. Relative paths
	// resolve against the repository root.
	Workspace string `toml:"workspace" yaml:"workspace"`

	// Preamble is prepended to every solve prompt. Template placeholders
	// are allowed.
	Preamble string `toml:"preamble" yaml:"preamble"`

	// MaxAttempts is the primary backend's attempt budget.
	MaxAttempts int `toml:"max_attempts" yaml:"max_attempts"`

	// RetryOnNoDiff advances to the next backend when a reply contains
	// no usable diff.
	RetryOnNoDiff bool `toml:"retry_on_no_diff" yaml:"retry_on_no_diff"`

	// Validator is the external validator argv. Empty disables
	// validation.
	Validator []string `toml:"validator" yaml:"validator"`

	Ollama   Ollama       `toml:"ollama" yaml:"ollama"`
	CodexCLI CodexCLI     `toml:"codex_cli" yaml:"codex_cli"`
	Apply    Apply        `toml:"apply" yaml:"apply"`
	Cache    Cache        `toml:"cache" yaml:"cache"`
	Repair   Repair       `toml:"repair" yaml:"repair"`
	Routing  []route.Rule `toml:"routing" yaml:"routing"`
}

// Default returns the baseline configuration.
func Default() Config {
	return Config{
		Workspace:     ".hybrid",
		MaxAttempts:   2,
		RetryOnNoDiff: true,
		Ollama: Ollama{
			Host:        "127.0.0.1:11434",
			Model:       "phi3:mini",
			Timeout:     Duration(3 * time.Minute),
			Temperature: 0,
		},
		CodexCLI: CodexCLI{
			Path:    "codex-local",
			Models:  "api:ollama:phi3:mini,api:ollama:codellama:7b-instruct",
			Timeout: Duration(3 * time.Minute),
		},
		Apply: Apply{Mode: "never"},
		Cache: Cache{MaxEntries: 200},
		Repair: Repair{
			MaxIterations: 5,
			StallLimit:    2,
		},
	}
}

// candidateNames are probed in order by Discover.
var candidateNames = []string{"hybrid.toml", ".hybrid.toml", "hybrid.yaml", "hybrid.yml"}

// Discover finds a config file in the given root, returning "" when none
// exists.
func Discover(root string) string {
	for _, name := range candidateNames {
		path := filepath.Join(root, name)
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path
		}
	}
	return ""
}

// Load reads the file at path on top of the defaults and applies
// environment overrides. An empty path loads defaults plus environment
// only.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		if err := decodeFile(path, &cfg); err != nil {
			return cfg, err
		}
	}

	applyEnv(&cfg)
	return cfg, nil
}

func decodeFile(path string, cfg *Config) error {
	switch filepath.Ext(path) {
	case ".toml":
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return fmt.Errorf("parse %s: %w", path, err)
		}
	case ".yaml", ".yml":
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return fmt.Errorf("parse %s: %w", path, err)
		}
	default:
		return fmt.Errorf("unsupported config format %q (want .toml, .yaml or .yml)", filepath.Ext(path))
	}
	return nil
}

// applyEnv overlays HYBRID_ environment variables.
func applyEnv(cfg *Config) {
	setString := func(key string, dst *string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}

	setString("HYBRID_WORKSPACE", &cfg.Workspace)
	setString("HYBRID_OLLAMA_HOST", &cfg.Ollama.Host)
	setString("HYBRID_OLLAMA_MODEL", &cfg.Ollama.Model)
	setString("HYBRID_CODEX_PATH", &cfg.CodexCLI.Path)
	setString("HYBRID_CODEX_MODELS", &cfg.CodexCLI.Models)
	setString("HYBRID_APPLY_MODE", &cfg.Apply.Mode)
	setString("HYBRID_APPLY_BRANCH", &cfg.Apply.Branch)

	if v := os.Getenv("HYBRID_MAX_ATTEMPTS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			cfg.MaxAttempts = n
		}
	}
	if v := os.Getenv("HYBRID_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			cfg.Ollama.Timeout = Duration(d)
			cfg.CodexCLI.Timeout = Duration(d)
		}
	}
}
