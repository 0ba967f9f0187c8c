package main

import (
	"github.com/spf13/cobra"
)

// Version is the CLI version.
const Version = "0.1.0"

// rootOptions holds flags shared by every subcommand.
type rootOptions struct {
	configFile string
	envFile    string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "batchflow",
		Short: "Run batch transformations over a fixed set of inputs",
		Long: `batchflow applies a chain of per-element stages to every input line,
either in input order on the calling goroutine or concurrently on a
bounded worker pool with an aggregate timeout.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&opts.configFile, "config", "", "YAML config file")
	cmd.PersistentFlags().StringVar(&opts.envFile, "env-file", ".env", ".env file loaded when present")
	cmd.PersistentFlags().String("log-level", "info", "log level (trace|debug|info|warn|error|disabled)")

	cmd.CompletionOptions.DisableDefaultCmd = true

	cmd.AddCommand(newRunCmd(opts))
	return cmd
}
