package ollama

import (
	"github.com/randalmurphal/hybrid/backend"
)

func init() {
	backend.Register("ollama", newFromBackendConfig)
}

// newFromBackendConfig creates an Ollama client from a backend.Config.
// This is the factory function registered with the backend registry.
func newFromBackendConfig(cfg backend.Config) (backend.Backend, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	ollamaCfg := Config{
		Model:   cfg.Model,
		Timeout: cfg.Timeout,
	}

	if cfg.Options != nil {
		ollamaCfg.Host = cfg.StringOption("host", "")
		ollamaCfg.Temperature = cfg.FloatOption("temperature", 0)
		ollamaCfg.StructuredOutput = cfg.BoolOption("structured_output", false)
	}

	return NewClientWithConfig(ollamaCfg), nil
}
