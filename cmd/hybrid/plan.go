package main

import (
	"strings"

	"github.com/spf13/cobra"
)

func newPlanCmd(root *rootOptions) *cobra.Command {
	opts := &solveOptions{maxAttempts: -1, planOnly: true}

	cmd := &cobra.Command{
		Use:   "plan [prompt]",
		Short: "Print the assembled prompt without calling any backend",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSolve(cmd, root, opts, strings.Join(args, " "))
		},
	}

	addSolveFlags(cmd, opts)
	return cmd
}
