package codexcli

import (
	"github.com/randalmurphal/hybrid/backend"
)

func init() {
	backend.Register("codex-cli", newFromBackendConfig)
}

// newFromBackendConfig creates a Codex CLI client from a backend.Config.
func newFromBackendConfig(cfg backend.Config) (backend.Backend, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	cliCfg := Config{
		Timeout: cfg.Timeout,
		WorkDir: cfg.WorkDir,
	}
	if cfg.Model != "" {
		cliCfg.Models = cfg.Model
	}
	if cfg.Options != nil {
		cliCfg.Path = cfg.StringOption("path", "")
		if models := cfg.StringOption("models", ""); models != "" {
			cliCfg.Models = models
		}
	}

	return NewCLIWithConfig(cliCfg), nil
}
