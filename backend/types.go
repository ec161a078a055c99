package backend

import (
	"context"
	"time"
)

// Request is the backend-agnostic generation request.
// The prompt is expected to instruct the model to answer with ONLY a
// unified diff; context files are passed by reference so CLI backends can
// forward them as flags instead of inlining content.
type Request struct {
	// Prompt is the fully assembled instruction text.
	Prompt string `json:"prompt"`

	// Model overrides the backend's configured model for this request.
	// Empty means use the backend default.
	Model string `json:"model,omitempty"`

	// Files lists context file paths (relative to the repo root) that the
	// backend may forward to the underlying tool.
	Files []string `json:"files,omitempty"`

	// Timeout bounds this single attempt. Zero uses the backend default.
	Timeout time.Duration `json:"timeout,omitempty"`
}

// Reply is the output of a generation call.
type Reply struct {
	// Text is the raw model output. Extraction of the diff region happens
	// downstream in package diff.
	Text string `json:"text"`

	// Model is the model that actually served the request.
	Model string `json:"model,omitempty"`

	// Duration is the wall-clock time of the attempt.
	Duration time.Duration `json:"duration"`
}

// Backend is the single capability every model backend exposes.
// Implementations must be safe for concurrent use.
type Backend interface {
	// Generate submits the prompt and returns the raw model text.
	// The context controls cancellation; Request.Timeout bounds the attempt.
	Generate(ctx context.Context, req Request) (*Reply, error)

	// Name returns the backend identifier (e.g. "ollama", "codex-cli").
	Name() string
}
