package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/randalmurphal/hybrid/config"
	"github.com/randalmurphal/hybrid/repair"
	"github.com/randalmurphal/hybrid/solve"
)

func newRepairCmd(root *rootOptions) *cobra.Command {
	var (
		testCommand string
		maxIter     int
		stallLimit  int
	)

	cmd := &cobra.Command{
		Use:   "repair",
		Short: "Run the test command and iterate model fixes until it passes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := root.loadConfig()
			if err != nil {
				return err
			}

			command := firstNonEmpty(testCommand, cfg.Repair.TestCommand)
			if command == "" {
				return fmt.Errorf("a test command is required (--test-cmd or [repair] in config)")
			}
			iterations := maxIter
			if iterations <= 0 {
				iterations = cfg.Repair.MaxIterations
			}
			stall := stallLimit
			if stall <= 0 {
				stall = cfg.Repair.StallLimit
			}

			orch := solve.New(repairSettings(cfg), root.root)

			runner := repair.New(orch, root.root, command, iterations, stall)
			code, err := runner.Loop(cmd.Context())
			if err != nil {
				return err
			}

			switch code {
			case repair.CodePass:
				color.New(color.FgGreen).Fprintln(cmd.OutOrStdout(), "tests pass")
				return nil
			case repair.CodeStall:
				color.New(color.FgRed).Fprintln(cmd.ErrOrStderr(), "repair stalled: same failure twice in a row")
			default:
				color.New(color.FgYellow).Fprintln(cmd.ErrOrStderr(), "iteration limit reached without a passing run")
			}
			return &exitError{code: code}
		},
	}

	cmd.Flags().StringVar(&testCommand, "test-cmd", "", "shell command that must pass")
	cmd.Flags().IntVar(&maxIter, "max-iterations", 0, "iteration budget (default from config)")
	cmd.Flags().IntVar(&stallLimit, "stall-limit", 0, "identical failures before giving up")
	return cmd
}

// repairSettings resolves the run settings the fix loop needs: fixes must
// land to change the next test run, and fix prompts go straight to the
// fallback backend.
func repairSettings(cfg config.Config) config.Settings {
	attempts := 0
	return config.Resolve(cfg, nil, config.Flags{
		ApplyMode:   "always",
		MaxAttempts: &attempts,
	})
}
