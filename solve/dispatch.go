package solve

import (
	"context"
	"errors"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/randalmurphal/hybrid/backend"
	"github.com/randalmurphal/hybrid/diff"
	"github.com/randalmurphal/hybrid/route"
	"github.com/randalmurphal/hybrid/runlog"
)

// step is one planned backend invocation.
type step struct {
	backendName string
	model       string
	attempt     int // 1-based within the backend
	backoff     route.Backoff
}

// buildPlan expands the attempt budget into an ordered invocation list:
// the primary backend maxAttempts times, then the fallback once with its
// full weighted model list. maxAttempts zero skips the primary.
func buildPlan(primaryModel, fallbackModels string, maxAttempts int) []step {
	var plan []step
	for i := 1; i <= maxAttempts; i++ {
		plan = append(plan, step{
			backendName: "ollama",
			model:       primaryModel,
			attempt:     i,
			backoff:     route.DefaultPrimaryBackoff,
		})
	}
	if fallbackModels != "" {
		plan = append(plan, step{
			backendName: "codex-cli",
			model:       fallbackModels,
			attempt:     1,
			backoff:     route.DefaultFallbackBackoff,
		})
	}
	return plan
}

// dispatchResult is what the attempt loop hands back to the orchestrator.
type dispatchResult struct {
	candidate *diff.Candidate
	attempts  []runlog.Attempt

	// sawReply reports whether any backend returned output, even output
	// with no usable diff. Distinguishes "no diff" from "all errored".
	sawReply bool
}

// dispatch walks the plan until a step yields a usable diff. Every
// planned attempt is consumed in order; a failed attempt never shortens
// the budget of the attempts behind it.
func (o *Orchestrator) dispatch(ctx context.Context, prompt string, files []string, overrides route.Overrides) dispatchResult {
	primaryModel := o.settings.Ollama.Model
	if overrides.PrimaryModel != "" {
		primaryModel = overrides.PrimaryModel
	}
	fallbackModels := o.settings.CodexCLI.Models
	if overrides.FallbackModels != "" {
		fallbackModels = overrides.FallbackModels
	}
	maxAttempts := o.settings.MaxAttempts
	if overrides.MaxAttempts != nil {
		maxAttempts = *overrides.MaxAttempts
	}

	var res dispatchResult
	plan := buildPlan(primaryModel, fallbackModels, maxAttempts)

	for i, st := range plan {
		if delay := st.backoff.Delay(st.attempt); delay > 0 {
			o.sleep(delay)
		}
		if ctx.Err() != nil {
			break
		}

		be, err := o.newBackend(st.backendName, o.backendConfig(st.backendName, st.model))
		if err != nil {
			res.attempts = append(res.attempts, runlog.Attempt{
				Backend: st.backendName, Model: st.model, Index: i + 1,
				Outcome: "error", Error: err.Error(),
			})
			continue
		}

		start := time.Now()
		reply, err := be.Generate(ctx, backend.Request{
			Prompt: prompt,
			Model:  st.model,
			Files:  files,
		})
		elapsed := time.Since(start)

		if err != nil {
			res.attempts = append(res.attempts, runlog.Attempt{
				Backend: st.backendName, Model: st.model, Index: i + 1,
				Outcome: "error", Duration: elapsed, Error: err.Error(),
			})
			o.logger.Warn("backend attempt failed",
				slog.String("backend", st.backendName),
				slog.String("model", st.model),
				slog.Bool("retryable", backend.IsRetryable(err)),
				slog.Any("error", err))
			continue
		}

		res.sawReply = true
		candidate, extractErr := o.extractDiff(reply.Text, st.backendName, files)
		if extractErr != nil {
			res.attempts = append(res.attempts, runlog.Attempt{
				Backend: st.backendName, Model: st.model, Index: i + 1,
				Outcome: "no-diff", Duration: elapsed,
			})
			if !o.settings.RetryOnNoDiff {
				break
			}
			continue
		}

		res.attempts = append(res.attempts, runlog.Attempt{
			Backend: st.backendName, Model: st.model, Index: i + 1,
			Outcome: "diff", Duration: elapsed,
		})
		res.candidate = candidate
		break
	}
	return res
}

// extractDiff pulls a unified diff out of raw output, coercing bare
// replies when exactly one target file is known.
func (o *Orchestrator) extractDiff(raw, backendName string, files []string) (*diff.Candidate, error) {
	candidate, err := o.extractor.Extract(raw, backendName)
	if err == nil {
		return candidate, nil
	}
	if !errors.Is(err, diff.ErrNoDiff) || len(files) != 1 {
		return nil, err
	}

	coerced, ok := diff.Coerce(raw, files[0], filepath.Join(o.root, filepath.FromSlash(files[0])))
	if !ok {
		return nil, err
	}
	return &diff.Candidate{Text: coerced, Backend: backendName, ProseStripped: true}, nil
}

func (o *Orchestrator) backendConfig(name, model string) backend.Config {
	switch name {
	case "ollama":
		return backend.Config{
			Model:   model,
			Timeout: o.settings.Ollama.Timeout.Std(),
			WorkDir: o.root,
			Options: map[string]any{
				"host":              o.settings.Ollama.Host,
				"temperature":       o.settings.Ollama.Temperature,
				"structured_output": o.settings.Ollama.StructuredOutput,
			},
		}
	case "codex-cli":
		return backend.Config{
			Model:   model,
			Timeout: o.settings.CodexCLI.Timeout.Std(),
			WorkDir: o.root,
			Options: map[string]any{
				"path": o.settings.CodexCLI.Path,
			},
		}
	}
	return backend.Config{Model: model, WorkDir: o.root}
}
