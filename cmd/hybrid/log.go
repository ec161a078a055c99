package main

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/randalmurphal/hybrid/runlog"
)

func newLogCmd(root *rootOptions) *cobra.Command {
	var (
		follow bool
		stats  bool
		last   int
	)

	cmd := &cobra.Command{
		Use:   "log",
		Short: "Show past runs from the workspace run log",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := root.loadConfig()
			if err != nil {
				return err
			}
			workspace := cfg.Workspace
			if !filepath.IsAbs(workspace) {
				workspace = filepath.Join(root.root, workspace)
			}

			reader, err := runlog.NewReader(workspace)
			if err != nil {
				return fmt.Errorf("no run log yet: %w", err)
			}
			defer reader.Close()

			if stats {
				records, err := reader.ReadAll()
				if err != nil {
					return err
				}
				printStats(cmd, runlog.Summarize(records))
				return nil
			}

			records, err := reader.Last(last)
			if err != nil {
				return err
			}
			for _, rec := range records {
				printRecord(cmd, rec)
			}

			if follow {
				for rec := range reader.Follow(cmd.Context()) {
					printRecord(cmd, rec)
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "stream new runs as they are logged")
	cmd.Flags().BoolVar(&stats, "stats", false, "print aggregate statistics")
	cmd.Flags().IntVarP(&last, "number", "n", 20, "number of recent runs to show")
	return cmd
}

func printRecord(cmd *cobra.Command, rec runlog.Record) {
	out := cmd.OutOrStdout()

	status := color.New(color.FgGreen).Sprint("ok")
	switch rec.ExitCode {
	case 2:
		status = color.New(color.FgYellow).Sprint("no-diff")
	case 3:
		status = color.New(color.FgRed).Sprint("rejected")
	case 10:
		status = color.New(color.FgRed).Sprint("exhausted")
	}

	source := rec.Source
	if source == "" {
		source = "-"
	}
	fmt.Fprintf(out, "%s  %-9s %-10s attempts=%d  %s\n",
		rec.Timestamp.Format("2006-01-02 15:04:05"),
		status, source, len(rec.Attempts), rec.Prompt)
}

func printStats(cmd *cobra.Command, stats runlog.Stats) {
	out := cmd.OutOrStdout()

	fmt.Fprintf(out, "runs:       %d\n", stats.Runs)
	fmt.Fprintf(out, "applied:    %d\n", stats.Applied)
	fmt.Fprintf(out, "cache hits: %d\n", stats.CacheHits)
	fmt.Fprintf(out, "no-diff:    %d\n", stats.NoDiff)
	fmt.Fprintf(out, "rejected:   %d\n", stats.Rejected)
	for name, count := range stats.ByBackend {
		fmt.Fprintf(out, "  %s: %d\n", name, count)
	}
	if stats.Runs > 0 {
		fmt.Fprintf(out, "model time: %s\n", stats.TotalTime.Round(time.Millisecond))
	}
}
