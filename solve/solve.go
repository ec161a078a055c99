package solve

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/randalmurphal/hybrid/backend"
	"github.com/randalmurphal/hybrid/cache"
	"github.com/randalmurphal/hybrid/config"
	"github.com/randalmurphal/hybrid/contextset"
	"github.com/randalmurphal/hybrid/diff"
	"github.com/randalmurphal/hybrid/fingerprint"
	"github.com/randalmurphal/hybrid/gitapply"
	"github.com/randalmurphal/hybrid/route"
	"github.com/randalmurphal/hybrid/runlog"
	"github.com/randalmurphal/hybrid/session"
	"github.com/randalmurphal/hybrid/template"
	"github.com/randalmurphal/hybrid/truncate"
	"github.com/randalmurphal/hybrid/validate"
)

// Exit codes reported to the shell.
const (
	CodeOK        = 0
	CodeNoDiff    = 2
	CodeRejected  = 3
	CodeExhausted = 10
)

// Request is one solve invocation. It is not mutated by Run.
type Request struct {
	Prompt  string
	Context *contextset.Set

	// PlanOnly assembles and returns the prompt without dispatching.
	PlanOnly bool

	// NoCache skips the fingerprint lookup and overwrites any existing
	// entry on success.
	NoCache bool
}

// Result is the outcome of a run.
type Result struct {
	Code        int
	Source      string
	DiffText    string
	Message     string
	PlanPrompt  string
	Fingerprint string
	CacheHit    bool

	Attempts   []runlog.Attempt
	Validation *validate.Result
	Apply      *gitapply.Result
	Summary    diff.Summary
}

// Orchestrator wires the pipeline stages together.
type Orchestrator struct {
	settings  config.Settings
	root      string
	workspace string

	cache     *cache.Store
	sessions  *session.Store
	log       *runlog.Writer
	validator *validate.Validator
	git       *gitapply.Engine
	templates *template.Engine
	extractor *diff.Extractor
	routing   *route.Table
	logger    *slog.Logger

	prompter   gitapply.Prompter
	newBackend func(name string, cfg backend.Config) (backend.Backend, error)
	sleep      func(time.Duration)
}

// Option customizes an Orchestrator.
type Option func(*Orchestrator)

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *Orchestrator) { o.logger = logger }
}

// WithPrompter sets the confirmation hook for apply mode "ask".
func WithPrompter(p gitapply.Prompter) Option {
	return func(o *Orchestrator) { o.prompter = p }
}

// WithGitRunner substitutes the git runner, for tests.
func WithGitRunner(r gitapply.Runner) Option {
	return func(o *Orchestrator) { o.git = gitapply.New(o.root, r) }
}

// WithValidatorRunner substitutes the validator process runner, for tests.
func WithValidatorRunner(r validate.Runner) Option {
	return func(o *Orchestrator) {
		o.validator = validate.New(o.settings.Validator, r)
	}
}

// WithBackendFactory substitutes backend construction, for tests.
func WithBackendFactory(f func(name string, cfg backend.Config) (backend.Backend, error)) Option {
	return func(o *Orchestrator) { o.newBackend = f }
}

// WithSleep substitutes the backoff sleeper, for tests.
func WithSleep(f func(time.Duration)) Option {
	return func(o *Orchestrator) { o.sleep = f }
}

// New creates an orchestrator for the repository at root.
func New(settings config.Settings, root string, opts ...Option) *Orchestrator {
	workspace := settings.Workspace
	if !filepath.IsAbs(workspace) {
		workspace = filepath.Join(root, workspace)
	}

	o := &Orchestrator{
		settings:   settings,
		root:       root,
		workspace:  workspace,
		cache:      cache.NewStore(filepath.Join(workspace, "cache"), settings.Cache.MaxEntries),
		sessions:   session.NewStore(workspace),
		log:        runlog.NewWriter(workspace),
		validator:  validate.New(settings.Validator, nil),
		git:        gitapply.New(root, nil),
		templates:  template.NewEngine(),
		extractor:  diff.NewExtractor(),
		routing:    route.NewTable(settings.Routing),
		logger:     slog.Default(),
		newBackend: backend.New,
		sleep:      time.Sleep,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Workspace returns the resolved workspace directory.
func (o *Orchestrator) Workspace() string {
	return o.workspace
}

// Sessions exposes the session store for --repeat handling.
func (o *Orchestrator) Sessions() *session.Store {
	return o.sessions
}

// Run executes the pipeline. The returned error covers infrastructure
// failures only; pipeline outcomes are expressed through Result.Code.
func (o *Orchestrator) Run(ctx context.Context, req Request) (*Result, error) {
	prompt, err := o.assemblePrompt(req)
	if err != nil {
		return nil, err
	}

	fp := o.fingerprintFor(req)
	res := &Result{Fingerprint: fp}

	if req.PlanOnly {
		res.PlanPrompt = prompt
		return res, nil
	}

	defer func() {
		if err := o.record(req, res); err != nil {
			o.logger.Warn("run log append failed", slog.Any("error", err))
		}
	}()

	if !req.NoCache {
		if entry, ok, err := o.cache.Get(fp); err != nil {
			o.logger.Warn("cache lookup failed", slog.Any("error", err))
		} else if ok {
			o.logger.Info("cache hit", slog.String("fingerprint", fp))
			res.CacheHit = true
			res.Source = "cache"
			res.DiffText = entry.Diff
		}
	}

	if res.DiffText == "" {
		overrides := o.routing.Resolve(req.Context.Paths())
		if overrides.Pattern != "" {
			o.logger.Info("routing rule matched", slog.String("pattern", overrides.Pattern))
		}

		dres := o.dispatch(ctx, prompt, req.Context.Paths(), overrides)
		res.Attempts = dres.attempts

		if dres.candidate == nil {
			if dres.sawReply {
				res.Code = CodeNoDiff
				res.Message = "no usable diff in any backend reply"
			} else {
				res.Code = CodeExhausted
				res.Message = "all backends failed"
			}
			return res, nil
		}

		res.Source = dres.candidate.Backend

		vres := o.validator.Check(ctx, dres.candidate.Text)
		res.Validation = &vres
		if vres.Outcome == validate.Rejected {
			res.Code = CodeRejected
			res.Message = vres.Message
			return res, nil
		}
		res.DiffText = vres.Diff
	}

	res.Summary = diff.Summarize(res.DiffText)
	if err := o.persistDiff(fp, res.DiffText); err != nil {
		o.logger.Warn("diff archive write failed", slog.Any("error", err))
	}

	mode, err := gitapply.ParseMode(o.settings.Apply.Mode)
	if err != nil {
		mode = gitapply.ModeNever
	}
	applyRes, err := o.git.Apply(ctx, res.DiffText, gitapply.Options{
		Mode:          mode,
		Branch:        o.settings.Apply.Branch,
		CommitMessage: fmt.Sprintf("hybrid: %s", truncatePrompt(req.Prompt)),
		TouchedFiles:  diff.TouchedFiles(res.DiffText),
		Prompt:        o.prompter,
		Summary:       fmt.Sprintf("%d file(s), +%d/-%d", len(res.Summary.Files), res.Summary.Additions, res.Summary.Deletions),
	})
	if err != nil {
		return res, fmt.Errorf("apply diff: %w", err)
	}
	res.Apply = &applyRes
	if applyRes.Outcome == gitapply.CheckFailed || applyRes.Outcome == gitapply.ApplyFailed {
		res.Message = firstOf(applyRes.Messages)
	}

	if !res.CacheHit {
		validation := "approved (pass-through)"
		if res.Validation != nil {
			validation = string(res.Validation.Outcome)
		}
		if err := o.cache.Put(fp, cache.Entry{
			Diff:       res.DiffText,
			Validation: validation,
			Source:     res.Source,
			Prompt:     truncatePrompt(req.Prompt),
		}); err != nil {
			o.logger.Warn("cache write failed", slog.Any("error", err))
		}
	}

	if err := o.saveSession(req, fp); err != nil {
		o.logger.Warn("session save failed", slog.Any("error", err))
	}
	return res, nil
}

func (o *Orchestrator) fingerprintFor(req Request) string {
	in := fingerprint.Input{
		Prompt:         req.Prompt,
		Preamble:       o.settings.Preamble,
		Stdin:          req.Context.Stdin,
		StdinLabel:     req.Context.StdinLabel,
		PrimaryModel:   o.settings.Ollama.Model,
		FallbackModels: o.settings.CodexCLI.Models,
		MaxAttempts:    o.settings.MaxAttempts,
	}
	for _, entry := range req.Context.Entries {
		in.Context = append(in.Context, fingerprint.Entry{Path: entry.Path, Content: entry.Content})
	}
	return fingerprint.Compute(in)
}

// persistDiff writes last.diff and the per-fingerprint archive copy.
func (o *Orchestrator) persistDiff(fp, diffText string) error {
	archiveDir := filepath.Join(o.workspace, "diffs")
	if err := os.MkdirAll(archiveDir, 0o755); err != nil {
		return err
	}
	if err := os.WriteFile(filepath.Join(o.workspace, "last.diff"), []byte(diffText), 0o644); err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(archiveDir, fp+".diff"), []byte(diffText), 0o644)
}

func (o *Orchestrator) saveSession(req Request, fp string) error {
	attempts := o.settings.MaxAttempts
	return o.sessions.Save(session.Record{
		Prompt:         req.Prompt,
		Preamble:       o.settings.Preamble,
		Files:          req.Context.Paths(),
		PrimaryModel:   o.settings.Ollama.Model,
		FallbackModels: o.settings.CodexCLI.Models,
		MaxAttempts:    &attempts,
		ApplyMode:      o.settings.Apply.Mode,
		Branch:         o.settings.Apply.Branch,
		Fingerprint:    fp,
	})
}

func (o *Orchestrator) record(req Request, res *Result) error {
	rec := runlog.Record{
		Prompt:      truncatePrompt(req.Prompt),
		Fingerprint: res.Fingerprint,
		Source:      res.Source,
		Attempts:    res.Attempts,
		ExitCode:    res.Code,
		Message:     res.Message,
	}
	if res.DiffText != "" {
		rec.Extraction = "diff"
	}
	if res.Validation != nil {
		rec.Validation = string(res.Validation.Outcome)
	}
	if res.Apply != nil {
		rec.Apply = string(res.Apply.Outcome)
	}
	return o.log.Append(rec)
}

// truncatePrompt shortens a prompt for commit messages, cache metadata and
// run log lines.
func truncatePrompt(prompt string) string {
	return truncate.ToLength(prompt, 120)
}

func firstOf(messages []string) string {
	if len(messages) == 0 {
		return ""
	}
	return messages[0]
}
