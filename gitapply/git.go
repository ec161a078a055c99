package gitapply

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// Runner executes a git command in the repository root. It exists so tests
// can script git behavior without a real repository.
type Runner interface {
	Git(ctx context.Context, args ...string) (stdout, stderr string, err error)
}

// ExecRunner runs git via os/exec.
type ExecRunner struct {
	// Dir is the repository root.
	Dir string
}

// Git implements Runner.
func (r *ExecRunner) Git(ctx context.Context, args ...string) (string, string, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = r.Dir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if err != nil {
		return stdout.String(), stderr.String(), fmt.Errorf("git %s: %w: %s",
			strings.Join(args, " "), err, firstLine(stderr.String()))
	}
	return stdout.String(), stderr.String(), nil
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
