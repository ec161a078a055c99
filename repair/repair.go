// Package repair runs a fix loop: execute the test command, and while it
// fails, ask the solver for a diff built from the failure output, apply
// it, and re-run. The loop stops on a pass, on the iteration limit, or
// when the failure stops changing (a stall).
package repair

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"

	"github.com/randalmurphal/hybrid/contextset"
	"github.com/randalmurphal/hybrid/gitapply"
	"github.com/randalmurphal/hybrid/solve"
	"github.com/randalmurphal/hybrid/truncate"
)

// Exit codes for the repair loop.
const (
	CodePass      = 0
	CodeIterLimit = 1
	CodeStall     = 4
)

// failureTailLines bounds how much test output reaches the prompt.
const failureTailLines = 60

// Solver produces a diff for a request. *solve.Orchestrator satisfies it.
type Solver interface {
	Run(ctx context.Context, req solve.Request) (*solve.Result, error)
}

// Runner drives the repair loop.
type Runner struct {
	testCommand   string
	maxIterations int
	stallLimit    int
	root          string

	solver Solver
	git    gitapply.Runner
	logger *slog.Logger

	// runTests executes the test command; a seam for tests.
	runTests func(ctx context.Context) (output string, pass bool)
}

// Option customizes a Runner.
type Option func(*Runner)

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runner) { r.logger = logger }
}

// WithGitRunner substitutes the git runner, for tests.
func WithGitRunner(g gitapply.Runner) Option {
	return func(r *Runner) { r.git = g }
}

// WithTestRunner substitutes test command execution, for tests.
func WithTestRunner(f func(ctx context.Context) (string, bool)) Option {
	return func(r *Runner) { r.runTests = f }
}

// New creates a repair runner. maxIterations and stallLimit below 1 get
// sane floors.
func New(solver Solver, root, testCommand string, maxIterations, stallLimit int, opts ...Option) *Runner {
	if maxIterations < 1 {
		maxIterations = 1
	}
	if stallLimit < 1 {
		stallLimit = 2
	}

	r := &Runner{
		testCommand:   testCommand,
		maxIterations: maxIterations,
		stallLimit:    stallLimit,
		root:          root,
		solver:        solver,
		git:           &gitapply.ExecRunner{Dir: root},
		logger:        slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.runTests == nil {
		r.runTests = r.execTests
	}
	return r
}

// Loop runs repair iterations until pass, iteration limit or stall.
func (r *Runner) Loop(ctx context.Context) (int, error) {
	lastDigest := ""
	repeats := 0

	for iter := 1; iter <= r.maxIterations; iter++ {
		output, pass := r.runTests(ctx)
		if pass {
			r.logger.Info("tests pass", slog.Int("iteration", iter))
			return CodePass, nil
		}

		tail := truncate.TailLines(output, failureTailLines)
		digest := digestOf(tail)
		if digest == lastDigest {
			repeats++
			if repeats >= r.stallLimit {
				r.logger.Warn("repair stalled", slog.String("digest", digest))
				return CodeStall, nil
			}
		} else {
			lastDigest = digest
			repeats = 1
		}

		r.logger.Info("tests failing",
			slog.Int("iteration", iter),
			slog.String("digest", digest))

		prompt, err := r.buildPrompt(ctx, tail)
		if err != nil {
			return CodeIterLimit, err
		}

		res, err := r.solver.Run(ctx, solve.Request{
			Prompt: prompt,
			Context: &contextset.Set{
				Stdin:      tail,
				StdinLabel: "failing test output",
			},
			NoCache: true,
		})
		if err != nil {
			return CodeIterLimit, fmt.Errorf("repair iteration %d: %w", iter, err)
		}
		if res.Code != solve.CodeOK {
			r.logger.Warn("solver produced no applicable fix",
				slog.Int("iteration", iter),
				slog.Int("code", res.Code),
				slog.String("message", res.Message))
		}
	}
	return CodeIterLimit, nil
}

// buildPrompt asks for a strict diff-only fix, grounded in the failure
// tail plus the repository's current state.
func (r *Runner) buildPrompt(ctx context.Context, tail string) (string, error) {
	status, _, err := r.git.Git(ctx, "status", "--short")
	if err != nil {
		status = ""
	}
	diffOut, _, err := r.git.Git(ctx, "diff", "--stat")
	if err != nil {
		diffOut = ""
	}

	var b strings.Builder
	b.WriteString("The test command `")
	b.WriteString(r.testCommand)
	b.WriteString("` is failing. Produce the minimal unified diff that makes it pass.\n")
	b.WriteString("Reply with ONLY the diff.\n\nFailing output (tail):\n")
	b.WriteString(tail)
	if status != "" {
		b.WriteString("\n\ngit status:\n")
		b.WriteString(strings.TrimSpace(status))
	}
	if diffOut != "" {
		b.WriteString("\n\nuncommitted changes:\n")
		b.WriteString(strings.TrimSpace(diffOut))
	}
	return b.String(), nil
}

// execTests runs the test command through the shell.
func (r *Runner) execTests(ctx context.Context) (string, bool) {
	cmd := exec.CommandContext(ctx, "sh", "-c", r.testCommand)
	cmd.Dir = r.root

	var combined bytes.Buffer
	cmd.Stdout = &combined
	cmd.Stderr = &combined

	err := cmd.Run()
	return combined.String(), err == nil
}

// digestOf fingerprints a failure tail for stall detection.
func digestOf(tail string) string {
	sum := sha256.Sum256([]byte(tail))
	return hex.EncodeToString(sum[:])[:16]
}
