package codexcli

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/randalmurphal/hybrid/backend"
)

// CLI implements backend.Backend using the codex-local binary.
type CLI struct {
	cfg Config
}

// NewCLI creates a new Codex CLI client.
// Assumes "codex-local" is available in PATH unless overridden with WithPath.
func NewCLI(opts ...Option) *CLI {
	c := &CLI{cfg: DefaultConfig()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// NewCLIWithConfig creates a new Codex CLI client from a Config.
func NewCLIWithConfig(cfg Config) *CLI {
	return &CLI{cfg: cfg.WithDefaults()}
}

// Name implements backend.Backend.
func (c *CLI) Name() string {
	return "codex-cli"
}

// Generate implements backend.Backend.
func (c *CLI) Generate(ctx context.Context, req backend.Request) (*backend.Reply, error) {
	models := req.Model
	if models == "" {
		models = c.cfg.Models
	}
	models = ExpandWeightedModels(models)

	timeout := req.Timeout
	if timeout == 0 {
		timeout = c.cfg.Timeout
	}
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	args := []string{"--models", models, "--prompt", req.Prompt}
	for _, f := range req.Files {
		args = append(args, "--file", f)
	}

	cmd := exec.CommandContext(ctx, c.cfg.Path, args...)
	if c.cfg.WorkDir != "" {
		cmd.Dir = c.cfg.WorkDir
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.Stdin = nil

	start := time.Now()
	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return nil, backend.NewError("codex-cli", "generate",
				fmt.Errorf("%w: %v", backend.ErrTimeout, ctx.Err()), true)
		}

		var execErr *exec.Error
		if errors.As(err, &execErr) && errors.Is(execErr.Err, exec.ErrNotFound) {
			return nil, backend.NewError("codex-cli", "generate",
				fmt.Errorf("%w: %s", backend.ErrCLINotFound, c.cfg.Path), false)
		}

		detail := sanitizeStderr(stderr.String())
		if detail == "" {
			detail = strings.TrimSpace(stdout.String())
		}
		return nil, backend.NewError("codex-cli", "generate",
			fmt.Errorf("%w: %s", err, detail), isRetryableDetail(detail))
	}

	text := strings.TrimSpace(stdout.String())
	if text == "" {
		return nil, backend.NewError("codex-cli", "generate", backend.ErrEmptyOutput, true)
	}

	return &backend.Reply{
		Text:     text,
		Model:    strings.SplitN(models, ",", 2)[0],
		Duration: time.Since(start),
	}, nil
}

// sanitizeStderr trims noise from CLI stderr, keeping the last few
// meaningful lines.
func sanitizeStderr(s string) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	var kept []string
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		kept = append(kept, line)
	}
	const maxLines = 5
	if len(kept) > maxLines {
		kept = kept[len(kept)-maxLines:]
	}
	return strings.Join(kept, "\n")
}

// isRetryableDetail guesses whether a CLI failure is transient from its
// diagnostic text.
func isRetryableDetail(detail string) bool {
	lower := strings.ToLower(detail)
	for _, marker := range []string{
		"timeout", "timed out", "connection refused", "connection reset",
		"temporarily unavailable", "rate limit", "too many requests",
		"overloaded", "503", "502",
	} {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}
