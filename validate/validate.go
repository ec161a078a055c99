// Package validate runs an optional external validator process against a
// candidate diff.
//
// The validator contract: the diff text arrives on standard input; exit
// status 0 approves (non-empty stdout becomes the replacement diff, a
// rewrite); non-zero rejects, with stderr or stdout as the rejection
// message. The validator runs at most once per candidate and never retries.
//
// Failure handling is fail-closed: a validator that crashes, times out, or
// cannot be started rejects the diff rather than silently passing it.
package validate

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// Outcome tags a validation result.
type Outcome string

// Validation outcomes.
const (
	Approved  Outcome = "approved"
	Rejected  Outcome = "rejected"
	Rewritten Outcome = "rewritten"
)

// Result is produced exactly once per candidate diff.
type Result struct {
	Outcome Outcome `json:"outcome"`

	// Diff is the effective diff text after validation: the original on
	// approval, the replacement on rewrite, empty on rejection.
	Diff string `json:"-"`

	// Message carries the validator's diagnostic on rejection.
	Message string `json:"message,omitempty"`
}

// Runner is the capability used to execute the validator process.
// It exists so tests can substitute a fake without spawning processes.
type Runner interface {
	Run(ctx context.Context, argv []string, stdin string) (exitCode int, stdout, stderr string, err error)
}

// ExecRunner runs the validator via os/exec.
type ExecRunner struct {
	// Dir is the working directory for the process.
	Dir string
}

// Run implements Runner.
func (r *ExecRunner) Run(ctx context.Context, argv []string, stdin string) (int, string, string, error) {
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Dir = r.Dir
	cmd.Stdin = strings.NewReader(stdin)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return exitErr.ExitCode(), stdout.String(), stderr.String(), nil
		}
		return -1, stdout.String(), stderr.String(), err
	}
	return 0, stdout.String(), stderr.String(), nil
}

// Validator invokes an external diff validator.
type Validator struct {
	argv    []string
	timeout time.Duration
	runner  Runner
}

// DefaultTimeout bounds a single validator invocation.
const DefaultTimeout = 2 * time.Minute

// New creates a validator for the given argv. A nil or empty argv yields a
// pass-through validator that approves everything.
func New(argv []string, runner Runner) *Validator {
	if runner == nil {
		runner = &ExecRunner{}
	}
	return &Validator{
		argv:    argv,
		timeout: DefaultTimeout,
		runner:  runner,
	}
}

// WithTimeout sets the invocation timeout and returns the validator.
func (v *Validator) WithTimeout(d time.Duration) *Validator {
	if d > 0 {
		v.timeout = d
	}
	return v
}

// Configured reports whether an external validator is set.
func (v *Validator) Configured() bool {
	return len(v.argv) > 0
}

// Check validates the candidate diff text.
func (v *Validator) Check(ctx context.Context, diffText string) Result {
	if !v.Configured() {
		return Result{Outcome: Approved, Diff: diffText}
	}

	ctx, cancel := context.WithTimeout(ctx, v.timeout)
	defer cancel()

	exitCode, stdout, stderr, err := v.runner.Run(ctx, v.argv, diffText)
	if err != nil {
		// Fail closed: a validator we cannot run is a rejection,
		// never a silent pass.
		return Result{
			Outcome: Rejected,
			Message: fmt.Sprintf("validator failed to run: %v", err),
		}
	}

	if exitCode != 0 {
		message := strings.TrimSpace(stderr)
		if message == "" {
			message = strings.TrimSpace(stdout)
		}
		if message == "" {
			message = fmt.Sprintf("validator exited with status %d", exitCode)
		}
		return Result{Outcome: Rejected, Message: message}
	}

	if replacement := strings.TrimSpace(stdout); replacement != "" && replacement != strings.TrimSpace(diffText) {
		if !strings.HasSuffix(replacement, "\n") {
			replacement += "\n"
		}
		return Result{Outcome: Rewritten, Diff: replacement}
	}
	return Result{Outcome: Approved, Diff: diffText}
}
