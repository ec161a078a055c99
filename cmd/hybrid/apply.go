package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/randalmurphal/hybrid/diff"
	"github.com/randalmurphal/hybrid/gitapply"
)

func newApplyCmd(root *rootOptions) *cobra.Command {
	var (
		mode    string
		branch  string
		message string
	)

	cmd := &cobra.Command{
		Use:   "apply [diff-file]",
		Short: "Apply a previously produced diff (default: workspace last.diff)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := root.loadConfig()
			if err != nil {
				return err
			}

			path := ""
			if len(args) == 1 {
				path = args[0]
			} else {
				workspace := cfg.Workspace
				if !filepath.IsAbs(workspace) {
					workspace = filepath.Join(root.root, workspace)
				}
				path = filepath.Join(workspace, "last.diff")
			}

			data, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("read diff: %w", err)
			}
			diffText := string(data)

			applyMode, err := gitapply.ParseMode(firstNonEmpty(mode, cfg.Apply.Mode, "ask"))
			if err != nil {
				return err
			}

			summary := diff.Summarize(diffText)
			engine := gitapply.New(root.root, nil)
			res, err := engine.Apply(cmd.Context(), diffText, gitapply.Options{
				Mode:          applyMode,
				Branch:        firstNonEmpty(branch, cfg.Apply.Branch),
				CommitMessage: firstNonEmpty(message, "hybrid: apply stored diff"),
				TouchedFiles:  diff.TouchedFiles(diffText),
				Prompt:        askPrompter(cmd),
				Summary: fmt.Sprintf("%d file(s), +%d/-%d",
					len(summary.Files), summary.Additions, summary.Deletions),
			})
			if err != nil {
				return err
			}

			switch res.Outcome {
			case gitapply.Applied:
				color.New(color.FgGreen).Fprintf(cmd.OutOrStdout(), "applied and committed (%d files)\n", len(res.TouchedFiles))
			case gitapply.Previewed:
				fmt.Fprintln(cmd.OutOrStdout(), "diff applies cleanly (preview only)")
			case gitapply.Declined:
				fmt.Fprintln(cmd.OutOrStdout(), "apply declined")
			default:
				color.New(color.FgRed).Fprintf(cmd.ErrOrStderr(), "apply failed: %s\n", res.Outcome)
				return &exitError{code: 1, message: firstNonEmptySlice(res.Messages)}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&mode, "mode", "", "apply mode: always, ask or never")
	cmd.Flags().StringVar(&branch, "branch", "", "apply on this branch")
	cmd.Flags().StringVarP(&message, "message", "m", "", "commit message")
	return cmd
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func firstNonEmptySlice(values []string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
