// Package cmd is the loo command line.
package cmd

import (
	"context"
	"os"

	"github.com/loopwatch/loo/internal/style"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "loo [OPTS] COMMAND [-- WATCH...] [++ ...]",
	Short: "Rerun commands whenever the files they use change",
	// Task options such as -d and -w must reach the task parser untouched.
	DisableFlagParsing: true,
	SilenceErrors:      true,
	SilenceUsage:       true,
	CompletionOptions:  cobra.CompletionOptions{DisableDefaultCmd: true},
	RunE: func(cmd *cobra.Command, args []string) error {
		return run(cmd.Context(), args, cmd.OutOrStdout(), cmd.ErrOrStderr())
	},
}

// Execute runs loo with the process arguments and returns the exit code.
func Execute() int {
	rootCmd.SetArgs(os.Args[1:])
	err := rootCmd.ExecuteContext(context.Background())
	return exitCode(err, style.PrintError)
}
