package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/copytree/copytree/internal/assemble"
	"github.com/copytree/copytree/internal/cache"
	"github.com/copytree/copytree/internal/config"
	"github.com/copytree/copytree/internal/deliver"
	"github.com/copytree/copytree/internal/llm"
	"github.com/copytree/copytree/internal/pipeline"
)

var generateCmd = &cobra.Command{
	Use:     "generate",
	Aliases: []string{"gen"},
	Short:   "Generate LLM-optimized context from a codebase",
	Long: `Recursively discover files, apply filters, and produce a structured
context document optimized for large language models.

This is the primary workflow command. Running 'copytree' with no subcommand
is equivalent to running 'copytree generate'.`,
	RunE: runGenerate,
}

func init() {
	rootCmd.AddCommand(generateCmd)
}

// buildProvider selects the LLM provider backing the optional AI filter and
// LLM-backed transformers. An Anthropic API key enables the real provider;
// otherwise requests fall back to a no-op provider and --ai-filter fails
// with an LLMProviderError rather than silently doing nothing.
func buildProvider() llm.Provider {
	if key := os.Getenv("ANTHROPIC_API_KEY"); key != "" {
		return llm.NewAnthropicProvider(key)
	}
	return llm.NoopProvider{}
}

func runGenerate(cmd *cobra.Command, args []string) error {
	fv := GlobalFlags()

	profile, err := config.LoadProfile(fv)
	if err != nil {
		return pipeline.NewConfigurationError("cli", "resolving profile", err)
	}

	opts := config.ToOptions(fv)

	rc := pipeline.NewRunContext(cmd.Context(), opts, profile)

	var (
		ws           *pipeline.WorkingSet
		deliverStage *deliver.Stage
	)

	if opts.DryRun {
		// spec.md's --dry-run contract is "no transforms, no delivery": use
		// the filtering/loading-only subset rather than the full pipeline.
		ws, err = assemble.Preview(buildProvider()).Run(rc, pipeline.NewWorkingSet())
	} else {
		var c *cache.Cache
		if opts.CacheEnabled {
			if opts.CacheDir != "" {
				c, err = cache.NewWithDir(opts.CacheDir)
			} else {
				c = cache.New()
			}
			if err != nil {
				return pipeline.NewCacheIOError("cli", "opening content cache", err)
			}
		}

		var driver *pipeline.Driver
		driver, deliverStage = assemble.Generate(buildProvider(), c, cmd.OutOrStdout())
		ws, err = driver.Run(rc, pipeline.NewWorkingSet())
	}
	if err != nil {
		return err
	}

	if opts.Info {
		fmt.Fprintf(cmd.ErrOrStderr(), "%d files included, %d found\n", len(ws.Files), ws.TotalFound)
		for reason, n := range ws.SkipReasons {
			fmt.Fprintf(cmd.ErrOrStderr(), "  skipped (%s): %d\n", reason, n)
		}
		if rc.Stats != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "elapsed %s, success rate %.0f%%\n",
				rc.Stats.TotalDuration().Round(time.Millisecond), rc.Stats.SuccessRate()*100)
			for _, st := range rc.Stats.Stages() {
				fmt.Fprintf(cmd.ErrOrStderr(), "  %-16s %s (%d -> %d)\n", st.Stage, st.Duration.Round(time.Microsecond), st.InputSize, st.OutputSize)
			}
		}
	}

	if deliverStage != nil && deliverStage.LastResult != nil && deliverStage.LastResult.Path != "" && !opts.Display {
		fmt.Fprintf(cmd.ErrOrStderr(), "wrote %s\n", deliverStage.LastResult.Path)
	}

	return nil
}
