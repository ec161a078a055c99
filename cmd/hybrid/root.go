package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/randalmurphal/hybrid/config"
)

// rootOptions are shared by all subcommands.
type rootOptions struct {
	configPath string
	workspace  string
	verbose    bool
	root       string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:           "hybrid",
		Short:         "Local-first diff-solving agent",
		Long:          "hybrid sends a natural-language request to a local model,\nextracts a unified diff from the reply, validates it, and applies it through git.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level := slog.LevelWarn
			if opts.verbose {
				level = slog.LevelDebug
			}
			slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

			if opts.root == "" {
				wd, err := os.Getwd()
				if err != nil {
					return err
				}
				opts.root = wd
			}
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "config file (default: discovered hybrid.toml/.yaml)")
	cmd.PersistentFlags().StringVar(&opts.workspace, "workspace", "", "workspace directory (default from config)")
	cmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "debug logging")
	cmd.PersistentFlags().StringVarP(&opts.root, "chdir", "C", "", "repository root (default: current directory)")

	cmd.AddCommand(
		newSolveCmd(opts),
		newPlanCmd(opts),
		newApplyCmd(opts),
		newLogCmd(opts),
		newRepairCmd(opts),
	)
	return cmd
}

// loadConfig resolves the config file and applies root-level overrides.
func (o *rootOptions) loadConfig() (config.Config, error) {
	path := o.configPath
	if path == "" {
		path = config.Discover(o.root)
	}

	cfg, err := config.Load(path)
	if err != nil {
		return cfg, err
	}
	if o.workspace != "" {
		cfg.Workspace = o.workspace
	}
	return cfg, nil
}
