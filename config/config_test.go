package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/randalmurphal/hybrid/session"
)

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, ".hybrid", cfg.Workspace)
	assert.Equal(t, "127.0.0.1:11434", cfg.Ollama.Host)
	assert.Equal(t, "phi3:mini", cfg.Ollama.Model)
	assert.Equal(t, 3*time.Minute, cfg.Ollama.Timeout.Std())
	assert.Equal(t, "codex-local", cfg.CodexCLI.Path)
	assert.Equal(t, "never", cfg.Apply.Mode)
	assert.Equal(t, 2, cfg.MaxAttempts)
	assert.True(t, cfg.RetryOnNoDiff)
	assert.Equal(t, 200, cfg.Cache.MaxEntries)
}

func TestLoad_TOML(t *testing.T) {
	path := writeConfig(t, "hybrid.toml", `
workspace = "wk"
max_attempts = 3

[ollama]
host = "10.0.0.5:11434"
model = "codellama:7b-instruct"
timeout = "90s"

[apply]
mode = "ask"

[[routing]]
pattern = "*.sql"
primary_model = "sqlcoder"
max_attempts = 1
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "wk", cfg.Workspace)
	assert.Equal(t, 3, cfg.MaxAttempts)
	assert.Equal(t, "10.0.0.5:11434", cfg.Ollama.Host)
	assert.Equal(t, 90*time.Second, cfg.Ollama.Timeout.Std())
	assert.Equal(t, "ask", cfg.Apply.Mode)
	require.Len(t, cfg.Routing, 1)
	assert.Equal(t, "*.sql", cfg.Routing[0].Pattern)
	assert.Equal(t, "sqlcoder", cfg.Routing[0].PrimaryModel)
	require.NotNil(t, cfg.Routing[0].MaxAttempts)
	assert.Equal(t, 1, *cfg.Routing[0].MaxAttempts)
	// Untouched sections keep their defaults.
	assert.Equal(t, "codex-local", cfg.CodexCLI.Path)
}

func TestLoad_YAML(t *testing.T) {
	path := writeConfig(t, "hybrid.yaml", `
workspace: wk
ollama:
  model: llama3:8b
  timeout: 45s
routing:
  - pattern: "*.go"
    fallback_models: "api:ollama:codellama:7b-instruct"
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "wk", cfg.Workspace)
	assert.Equal(t, "llama3:8b", cfg.Ollama.Model)
	assert.Equal(t, 45*time.Second, cfg.Ollama.Timeout.Std())
	require.Len(t, cfg.Routing, 1)
	assert.Equal(t, "*.go", cfg.Routing[0].Pattern)
}

func TestLoad_UnsupportedExtension(t *testing.T) {
	path := writeConfig(t, "hybrid.ini", "x = 1")

	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("HYBRID_OLLAMA_MODEL", "qwen2.5-coder:7b")
	t.Setenv("HYBRID_MAX_ATTEMPTS", "5")
	t.Setenv("HYBRID_TIMEOUT", "30s")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "qwen2.5-coder:7b", cfg.Ollama.Model)
	assert.Equal(t, 5, cfg.MaxAttempts)
	assert.Equal(t, 30*time.Second, cfg.Ollama.Timeout.Std())
	assert.Equal(t, 30*time.Second, cfg.CodexCLI.Timeout.Std())
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeConfig(t, "hybrid.toml", "[ollama]\nmodel = \"from-file\"\n")
	t.Setenv("HYBRID_OLLAMA_MODEL", "from-env")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.Ollama.Model)
}

func TestDiscover(t *testing.T) {
	root := t.TempDir()
	assert.Empty(t, Discover(root))

	require.NoError(t, os.WriteFile(filepath.Join(root, "hybrid.yaml"), []byte("{}"), 0o644))
	assert.Equal(t, filepath.Join(root, "hybrid.yaml"), Discover(root))

	// TOML outranks YAML when both exist.
	require.NoError(t, os.WriteFile(filepath.Join(root, "hybrid.toml"), nil, 0o644))
	assert.Equal(t, filepath.Join(root, "hybrid.toml"), Discover(root))
}

func TestResolve_Precedence(t *testing.T) {
	cfg := Default()
	cfg.Ollama.Model = "from-config"
	cfg.Apply.Mode = "never"

	attempts := 7
	sess := &session.Record{
		Prompt:       "session prompt",
		PrimaryModel: "from-session",
		ApplyMode:    "ask",
		MaxAttempts:  &attempts,
		Files:        []string{"a.go"},
	}

	flagAttempts := 1
	s := Resolve(cfg, sess, Flags{
		PrimaryModel: "from-flag",
		MaxAttempts:  &flagAttempts,
	})

	assert.Equal(t, "from-flag", s.Ollama.Model, "flag beats session")
	assert.Equal(t, 1, s.MaxAttempts, "flag beats session")
	assert.Equal(t, "ask", s.Apply.Mode, "session beats config")
	assert.Equal(t, "session prompt", s.Prompt)
	assert.Equal(t, []string{"a.go"}, s.Files)
}

func TestResolve_NoSession(t *testing.T) {
	s := Resolve(Default(), nil, Flags{Prompt: "do it"})

	assert.Equal(t, "do it", s.Prompt)
	assert.Equal(t, "phi3:mini", s.Ollama.Model, "defaults survive")
}

func TestResolve_ExplicitZeroAttempts(t *testing.T) {
	zero := 0
	s := Resolve(Default(), nil, Flags{MaxAttempts: &zero})
	assert.Equal(t, 0, s.MaxAttempts, "explicit zero skips the primary")
}
