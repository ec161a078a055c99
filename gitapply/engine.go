package gitapply

import (
	"context"
	"fmt"
	"os"
	"strings"
)

// Mode controls whether a validated diff touches the working tree.
type Mode string

// Apply modes.
const (
	// ModeAlways applies without asking.
	ModeAlways Mode = "always"
	// ModeAsk consults the Prompter before applying.
	ModeAsk Mode = "ask"
	// ModeNever only verifies the diff with `git apply --check`.
	ModeNever Mode = "never"
)

// ParseMode validates a mode string.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeAlways, ModeAsk, ModeNever:
		return Mode(s), nil
	}
	return "", fmt.Errorf("unknown apply mode %q (want always, ask or never)", s)
}

// Outcome classifies the result of an apply run.
type Outcome string

// Apply outcomes.
const (
	// Applied means the diff landed and was committed.
	Applied Outcome = "applied"
	// Previewed means `git apply --check` passed but the tree was left
	// untouched (ModeNever).
	Previewed Outcome = "previewed"
	// Declined means the user answered no in ModeAsk.
	Declined Outcome = "declined"
	// CheckFailed means `git apply --check` rejected the diff.
	CheckFailed Outcome = "check-failed"
	// ApplyFailed means the apply itself failed after a clean check.
	ApplyFailed Outcome = "apply-failed"
	// PartialApply means the diff landed but the commit failed; the
	// changes remain uncommitted in the working tree.
	PartialApply Outcome = "partial-apply"
)

// Result reports what the engine did to the repository.
type Result struct {
	Outcome      Outcome  `json:"outcome"`
	TouchedFiles []string `json:"touched_files,omitempty"`
	Branch       string   `json:"branch,omitempty"`
	Committed    bool     `json:"committed"`
	Stashed      bool     `json:"stashed"`
	Restored     bool     `json:"restored"`
	Messages     []string `json:"messages,omitempty"`
}

// Prompter asks the user whether the diff should be applied. It receives a
// short human-readable summary of the pending change.
type Prompter func(summary string) bool

// Options configure a single apply run.
type Options struct {
	Mode Mode

	// Branch, when non-empty, is checked out (created if missing) before
	// applying.
	Branch string

	// CommitMessage is used for the commit after a successful apply.
	CommitMessage string

	// TouchedFiles limits the commit to the files named in the diff.
	TouchedFiles []string

	// Prompt is consulted in ModeAsk. Nil declines.
	Prompt Prompter

	// Summary is passed to the prompter.
	Summary string
}

// Engine drives git to apply diffs safely.
type Engine struct {
	root   string
	runner Runner
}

// New creates an engine rooted at the given repository directory. A nil
// runner uses the real git CLI.
func New(root string, runner Runner) *Engine {
	if runner == nil {
		runner = &ExecRunner{Dir: root}
	}
	return &Engine{root: root, runner: runner}
}

const stashMessage = "hybrid: auto-stash before apply"

// Apply runs the full stash/check/apply/commit/unstash sequence. Local
// changes present before the run are stashed first and restored on every
// exit path.
func (e *Engine) Apply(ctx context.Context, diffText string, opts Options) (res Result, err error) {
	if opts.Mode == "" {
		opts.Mode = ModeNever
	}
	res.TouchedFiles = opts.TouchedFiles

	patch, err := e.writePatch(diffText)
	if err != nil {
		return res, err
	}
	defer os.Remove(patch)

	dirty, err := e.isDirty(ctx)
	if err != nil {
		return res, err
	}
	if dirty {
		if _, _, err := e.runner.Git(ctx, "stash", "push", "-u", "-m", stashMessage); err != nil {
			return res, fmt.Errorf("stash local changes: %w", err)
		}
		res.Stashed = true
		defer func() {
			if _, _, popErr := e.runner.Git(ctx, "stash", "pop"); popErr != nil {
				res.Messages = append(res.Messages, fmt.Sprintf("stash pop failed: %v", popErr))
				if err == nil {
					err = fmt.Errorf("restore stashed changes: %w", popErr)
				}
				return
			}
			res.Restored = true
		}()
	}

	if opts.Branch != "" {
		branch, berr := e.ensureBranch(ctx, opts.Branch)
		if berr != nil {
			return res, berr
		}
		res.Branch = branch
	}

	if _, stderr, cerr := e.runner.Git(ctx, "apply", "--check", patch); cerr != nil {
		res.Outcome = CheckFailed
		res.Messages = append(res.Messages, strings.TrimSpace(stderr))
		return res, nil
	}

	switch opts.Mode {
	case ModeNever:
		res.Outcome = Previewed
		return res, nil
	case ModeAsk:
		if opts.Prompt == nil || !opts.Prompt(opts.Summary) {
			res.Outcome = Declined
			return res, nil
		}
	}

	if _, stderr, aerr := e.runner.Git(ctx, "apply", patch); aerr != nil {
		res.Outcome = ApplyFailed
		res.Messages = append(res.Messages, strings.TrimSpace(stderr))
		return res, nil
	}

	if cerr := e.commit(ctx, opts); cerr != nil {
		res.Outcome = PartialApply
		res.Messages = append(res.Messages, fmt.Sprintf("applied but not committed: %v", cerr))
		return res, nil
	}

	res.Outcome = Applied
	res.Committed = true
	return res, nil
}

// Check verifies the diff against the tree without touching it.
func (e *Engine) Check(ctx context.Context, diffText string) error {
	patch, err := e.writePatch(diffText)
	if err != nil {
		return err
	}
	defer os.Remove(patch)

	if _, stderr, err := e.runner.Git(ctx, "apply", "--check", patch); err != nil {
		return fmt.Errorf("diff does not apply: %s", strings.TrimSpace(stderr))
	}
	return nil
}

func (e *Engine) writePatch(diffText string) (string, error) {
	diffText = strings.ReplaceAll(diffText, "\r\n", "\n")
	if !strings.HasSuffix(diffText, "\n") {
		diffText += "\n"
	}

	f, err := os.CreateTemp("", "hybrid-*.patch")
	if err != nil {
		return "", fmt.Errorf("create patch file: %w", err)
	}
	if _, err := f.WriteString(diffText); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", fmt.Errorf("write patch file: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return "", fmt.Errorf("close patch file: %w", err)
	}
	return f.Name(), nil
}

func (e *Engine) isDirty(ctx context.Context) (bool, error) {
	stdout, _, err := e.runner.Git(ctx, "status", "--porcelain")
	if err != nil {
		return false, fmt.Errorf("inspect working tree: %w", err)
	}
	return strings.TrimSpace(stdout) != "", nil
}

func (e *Engine) ensureBranch(ctx context.Context, name string) (string, error) {
	if _, _, err := e.runner.Git(ctx, "rev-parse", "--verify", "--quiet", "refs/heads/"+name); err == nil {
		if _, stderr, err := e.runner.Git(ctx, "checkout", name); err != nil {
			return "", fmt.Errorf("checkout %s: %s", name, strings.TrimSpace(stderr))
		}
		return name, nil
	}
	if _, stderr, err := e.runner.Git(ctx, "checkout", "-b", name); err != nil {
		return "", fmt.Errorf("create branch %s: %s", name, strings.TrimSpace(stderr))
	}
	return name, nil
}

func (e *Engine) commit(ctx context.Context, opts Options) error {
	addArgs := []string{"add", "--"}
	if len(opts.TouchedFiles) > 0 {
		addArgs = append(addArgs, opts.TouchedFiles...)
	} else {
		addArgs = append(addArgs, ".")
	}
	if _, _, err := e.runner.Git(ctx, addArgs...); err != nil {
		return err
	}

	message := opts.CommitMessage
	if message == "" {
		message = "hybrid: apply generated diff"
	}
	_, _, err := e.runner.Git(ctx, "commit", "-m", message)
	return err
}
