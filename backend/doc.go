// Package backend defines the unified interface for diff-generating model
// backends.
//
// A backend accepts a prompt plus context file references and returns raw
// model text that is expected to contain a unified diff. Two implementations
// ship with hybrid:
//
//   - "ollama": the local-serving primary (see package ollama)
//   - "codex-cli": the CLI-based fallback (see package codexcli)
//
// Backends register themselves with the factory registry in their init()
// functions, so importing a backend package is enough to make it available:
//
//	b, err := backend.New("ollama", backend.Config{Model: "phi3:mini"})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	reply, err := b.Generate(ctx, backend.Request{Prompt: prompt})
package backend
