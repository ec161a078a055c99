package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/randalmurphal/hybrid/config"
	"github.com/randalmurphal/hybrid/contextset"
	"github.com/randalmurphal/hybrid/gitapply"
	"github.com/randalmurphal/hybrid/session"
	"github.com/randalmurphal/hybrid/solve"
	"github.com/randalmurphal/hybrid/tokens"

	// Register backends.
	_ "github.com/randalmurphal/hybrid/codexcli"
	_ "github.com/randalmurphal/hybrid/ollama"
)

type solveOptions struct {
	files          []string
	globs          []string
	inferRelated   bool
	primaryModel   string
	fallbackModels string
	maxAttempts    int
	applyMode      string
	branch         string
	preamble       string
	stdinLabel     string
	noCache        bool
	repeat         bool
	planOnly       bool
	toClipboard    bool
}

func newSolveCmd(root *rootOptions) *cobra.Command {
	opts := &solveOptions{maxAttempts: -1}

	cmd := &cobra.Command{
		Use:   "solve [prompt]",
		Short: "Turn a request into a validated unified diff",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSolve(cmd, root, opts, strings.Join(args, " "))
		},
	}

	addSolveFlags(cmd, opts)
	return cmd
}

func addSolveFlags(cmd *cobra.Command, opts *solveOptions) {
	cmd.Flags().StringSliceVarP(&opts.files, "file", "f", nil, "context file (repeatable)")
	cmd.Flags().StringSliceVarP(&opts.globs, "glob", "g", nil, "context glob (repeatable)")
	cmd.Flags().BoolVar(&opts.inferRelated, "related", false, "pull in related Go files")
	cmd.Flags().StringVar(&opts.primaryModel, "model", "", "primary model override")
	cmd.Flags().StringVar(&opts.fallbackModels, "fallback-models", "", "fallback model list override")
	cmd.Flags().IntVar(&opts.maxAttempts, "attempts", -1, "primary attempt budget (0 skips the primary)")
	cmd.Flags().StringVar(&opts.applyMode, "apply", "", "apply mode: always, ask or never")
	cmd.Flags().StringVar(&opts.branch, "branch", "", "apply on this branch")
	cmd.Flags().StringVar(&opts.preamble, "preamble", "", "preamble template override")
	cmd.Flags().StringVar(&opts.stdinLabel, "stdin-label", "", "label for piped input")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "skip the diff cache")
	cmd.Flags().BoolVar(&opts.repeat, "repeat", false, "replay the last successful request")
	cmd.Flags().BoolVar(&opts.toClipboard, "clipboard", false, "copy the diff to the clipboard")
}

func runSolve(cmd *cobra.Command, root *rootOptions, opts *solveOptions, prompt string) error {
	cfg, err := root.loadConfig()
	if err != nil {
		return err
	}

	flags := config.Flags{
		Prompt:         prompt,
		Preamble:       opts.preamble,
		Files:          opts.files,
		Globs:          opts.globs,
		PrimaryModel:   opts.primaryModel,
		FallbackModels: opts.fallbackModels,
		ApplyMode:      opts.applyMode,
		Branch:         opts.branch,
	}
	if opts.inferRelated {
		flags.InferRelated = &opts.inferRelated
	}
	if opts.maxAttempts >= 0 {
		flags.MaxAttempts = &opts.maxAttempts
	}

	var rec *session.Record
	if opts.repeat {
		workspace := cfg.Workspace
		if !filepath.IsAbs(workspace) {
			workspace = filepath.Join(root.root, workspace)
		}
		rec, err = session.NewStore(workspace).Load()
		if err != nil {
			return err
		}
		if rec == nil {
			return fmt.Errorf("no saved session to repeat")
		}
	}

	settings := config.Resolve(cfg, rec, flags)
	if settings.Prompt == "" {
		return fmt.Errorf("a prompt is required (or use --repeat)")
	}

	orch := solve.New(settings, root.root, solve.WithPrompter(askPrompter(cmd)))

	stdin := readPipedStdin()
	set, err := contextset.Build(contextset.Options{
		Root:         root.root,
		Files:        settings.Files,
		Globs:        settings.Globs,
		InferRelated: settings.InferRelated,
		Stdin:        stdin,
		StdinLabel:   opts.stdinLabel,
		Budget:       tokens.ForModel(settings.Ollama.Model),
	})
	if err != nil {
		return err
	}

	res, err := orch.Run(cmd.Context(), solve.Request{
		Prompt:   settings.Prompt,
		Context:  set,
		PlanOnly: opts.planOnly,
		NoCache:  opts.noCache,
	})
	if err != nil {
		return err
	}

	return reportResult(cmd, res, opts)
}

// reportResult prints the outcome and translates the pipeline code into
// the process exit status.
func reportResult(cmd *cobra.Command, res *solve.Result, opts *solveOptions) error {
	out := cmd.OutOrStdout()

	if res.PlanPrompt != "" {
		fmt.Fprintln(out, res.PlanPrompt)
		return nil
	}

	switch res.Code {
	case solve.CodeOK:
		source := res.Source
		if res.CacheHit {
			source = "cache"
		}
		color.New(color.FgGreen).Fprintf(out, "diff from %s: %d file(s), +%d/-%d\n",
			source, len(res.Summary.Files), res.Summary.Additions, res.Summary.Deletions)
		if res.Apply != nil {
			fmt.Fprintf(out, "apply: %s\n", res.Apply.Outcome)
		}
		fmt.Fprint(out, res.DiffText)

		if opts.toClipboard {
			if err := clipboard.WriteAll(res.DiffText); err != nil {
				color.New(color.FgYellow).Fprintf(cmd.ErrOrStderr(), "clipboard write failed: %v\n", err)
			}
		}
		return nil

	case solve.CodeNoDiff:
		color.New(color.FgYellow).Fprintln(cmd.ErrOrStderr(), "no usable diff produced")
	case solve.CodeRejected:
		color.New(color.FgRed).Fprintf(cmd.ErrOrStderr(), "validator rejected the diff: %s\n", res.Message)
	case solve.CodeExhausted:
		color.New(color.FgRed).Fprintln(cmd.ErrOrStderr(), "all backends failed")
	}
	return &exitError{code: res.Code, message: res.Message}
}

// askPrompter confirms an apply on the terminal.
func askPrompter(cmd *cobra.Command) gitapply.Prompter {
	return func(summary string) bool {
		fmt.Fprintf(cmd.ErrOrStderr(), "apply %s? [y/N] ", summary)
		reader := bufio.NewReader(cmd.InOrStdin())
		line, err := reader.ReadString('\n')
		if err != nil {
			return false
		}
		answer := strings.ToLower(strings.TrimSpace(line))
		return answer == "y" || answer == "yes"
	}
}

// readPipedStdin returns piped input, or "" when stdin is a terminal.
func readPipedStdin() string {
	info, err := os.Stdin.Stat()
	if err != nil || info.Mode()&os.ModeCharDevice != 0 {
		return ""
	}
	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		return ""
	}
	return string(data)
}
