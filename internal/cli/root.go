// Package cli implements the Cobra command hierarchy for the copytree CLI tool.
// The root command defined here is the entry point for all subcommands and
// handles cross-cutting concerns like logging initialization and error handling.
package cli

import (
	"log/slog"

	"github.com/copytree/copytree/internal/config"
	"github.com/copytree/copytree/internal/pipeline"
	"github.com/spf13/cobra"
)

// flagValues holds the parsed global flag values, populated by config.BindFlags
// during command initialization and validated in PersistentPreRunE.
var flagValues *config.FlagValues

var rootCmd = &cobra.Command{
	Use:   "copytree",
	Short: "Harvest your context.",
	Long: `Copytree packages a filtered, transformed subset of a source tree into a
single document for LLM prompts.

It walks a directory, applies profile and ruleset filters, an optional git
or LLM-driven filter, loads and transforms surviving files, and renders the
result as XML, Markdown, NDJSON, or SARIF, ready to paste into a prompt or
pipe to another tool.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := config.ValidateFlags(flagValues, cmd); err != nil {
			return pipeline.NewConfigurationError("cli", "validating flags", err)
		}

		level := config.ResolveLogLevel(flagValues.Verbose, flagValues.Quiet)
		format := config.ResolveLogFormat()
		config.SetupLogging(level, format)

		slog.Debug("logging initialized", "level", level, "format", format)
		return nil
	},
	// When no subcommand is given, delegate to the generate command.
	RunE: func(cmd *cobra.Command, args []string) error {
		return runGenerate(cmd, args)
	},
}

func init() {
	flagValues = config.BindFlags(rootCmd)

	rootCmd.RegisterFlagCompletionFunc("format", completeFormat)
	rootCmd.RegisterFlagCompletionFunc("target", completeTarget)
	rootCmd.RegisterFlagCompletionFunc("order-by", completeOrderBy)
	rootCmd.RegisterFlagCompletionFunc("tokenizer", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{"cl100k_base", "o200k_base", "none"}, cobra.ShellCompDirectiveNoFileComp
	})
	rootCmd.RegisterFlagCompletionFunc("truncation-strategy", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{"truncate", "skip"}, cobra.ShellCompDirectiveNoFileComp
	})
}

// completeFormat returns the valid values for the --format flag.
func completeFormat(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
	return []string{"xml", "markdown", "ndjson", "sarif"}, cobra.ShellCompDirectiveNoFileComp
}

// completeTarget returns the valid values for the --target flag.
func completeTarget(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
	return []string{"claude", "chatgpt", "generic"}, cobra.ShellCompDirectiveNoFileComp
}

// completeOrderBy returns the valid values for the --order-by flag.
func completeOrderBy(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
	return []string{"path", "modified", "tier"}, cobra.ShellCompDirectiveNoFileComp
}

// Execute runs the root command and returns an appropriate exit code.
// If the error is a *pipeline.Error, its Code is used. Generic errors return
// ExitError (1). Nil returns ExitSuccess (0).
func Execute() int {
	if err := rootCmd.Execute(); err != nil {
		slog.Error(err.Error())
		return int(pipeline.CodeOf(err))
	}
	return int(pipeline.ExitSuccess)
}

// RootCmd returns the root cobra.Command for use in testing and subcommand registration.
func RootCmd() *cobra.Command {
	return rootCmd
}

// GlobalFlags returns the parsed global flag values. This is available after
// PersistentPreRunE has run. Subcommands use this to access shared configuration.
func GlobalFlags() *config.FlagValues {
	return flagValues
}
