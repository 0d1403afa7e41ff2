package commands

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var (
	// configPath is an explicit config file.
	configPath string

	// projectDir is the project directory.
	projectDir string

	// outputFormat controls output format (text, json, hook).
	outputFormat string

	// logLevel overrides the configured log level.
	logLevel string

	// noLint disables the external lint tools.
	noLint bool
)

// rootCmd is the base command for the CLI.
var rootCmd = &cobra.Command{
	Use:   "devhooks",
	Short: "Advisory hooks for Claude Code sessions",
	Long: `devhooks inspects files changed by an agent and the prompts sent to
it, and feeds advisories back into the session.

The hook subcommands are meant to be run by Claude Code (see "devhooks hooks
install"). The advise and classify subcommands run the same checks by hand.`,
	SilenceUsage: true,
}

// Execute runs the CLI. SIGINT and SIGTERM cancel the command context.
func Execute() error {
	ctx, stop := signal.NotifyContext(
		context.Background(), os.Interrupt, syscall.SIGTERM,
	)
	defer stop()

	return rootCmd.ExecuteContext(ctx)
}

func init() {
	// Global flags.
	rootCmd.PersistentFlags().StringVar(
		&configPath, "config", "",
		"Path to config file (default: <project>/.devhooks.toml)",
	)
	rootCmd.PersistentFlags().StringVar(
		&projectDir, "project", "",
		"Project directory (from $CLAUDE_PROJECT_DIR)",
	)
	rootCmd.PersistentFlags().StringVar(
		&outputFormat, "format", "text",
		"Output format: text, json, hook",
	)
	rootCmd.PersistentFlags().StringVar(
		&logLevel, "log-level", "",
		"Log level override (trace, debug, info, warn, error)",
	)
	rootCmd.PersistentFlags().BoolVar(
		&noLint, "no-lint", false,
		"Skip the external ESLint and Python checks",
	)

	// Add subcommands.
	rootCmd.AddCommand(hookCmd)
	rootCmd.AddCommand(adviseCmd)
	rootCmd.AddCommand(classifyCmd)
	rootCmd.AddCommand(hooksCmd)
	rootCmd.AddCommand(diagCmd)
	rootCmd.AddCommand(mcpCmd)
	rootCmd.AddCommand(versionCmd)
}
