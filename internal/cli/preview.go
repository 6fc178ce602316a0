// Package cli implements the Cobra command hierarchy for the copytree CLI tool.
// This file implements the `copytree preview` subcommand which shows file selection
// and token statistics without generating an output file.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/copytree/copytree/internal/assemble"
	"github.com/copytree/copytree/internal/config"
	"github.com/copytree/copytree/internal/pipeline"
	"github.com/copytree/copytree/internal/tokenizer"
)

// previewHeatmap is a local flag target for --heatmap on the preview command.
// It is a file-level variable (not inside init) to avoid dereferencing the
// flagValues pointer before root.go's init() has populated it.
var previewHeatmap bool

// previewCmd implements `copytree preview` which runs discovery and every
// filtering/loading stage, then reports file selection and token statistics
// without transforming, formatting, or delivering anything.
var previewCmd = &cobra.Command{
	Use:   "preview",
	Short: "Preview file selection and token statistics without generating output",
	Long: `Preview runs file discovery and every filtering stage without writing an
output context file. Use this to inspect which files would be included,
their token counts, and how they relate to your token budget.

Examples:
  # Preview the current directory
  copytree preview

  # Show token density heatmap to find context-bloat files
  copytree preview --heatmap

  # Preview with a specific tokenizer
  copytree preview --tokenizer o200k_base

  # Show the top 20 largest files
  copytree preview --top-files 20`,
	RunE: runPreview,
}

func init() {
	previewCmd.Flags().BoolVar(&previewHeatmap, "heatmap", false, "Show token density heatmap (tokens per line)")
	rootCmd.AddCommand(previewCmd)
}

func runPreview(cmd *cobra.Command, args []string) error {
	fv := GlobalFlags()

	profile, err := config.LoadProfile(fv)
	if err != nil {
		return pipeline.NewConfigurationError("cli", "resolving profile", err)
	}

	opts := config.ToOptions(fv)
	opts.DryRun = true

	rc := pipeline.NewRunContext(cmd.Context(), opts, profile)
	driver := assemble.Preview(buildProvider())

	ws, err := driver.Run(rc, pipeline.NewWorkingSet())
	if err != nil {
		return err
	}

	tok, err := tokenizer.NewTokenizer(fv.Tokenizer)
	if err != nil {
		return pipeline.NewConfigurationError("preview", "building tokenizer", err)
	}
	counter := tokenizer.NewTokenCounter(tok)
	if _, err := counter.CountFiles(cmd.Context(), ws.Files); err != nil {
		return err
	}

	if previewHeatmap {
		lineCounts := make(map[string]int, len(ws.Files))
		for _, fd := range ws.Files {
			lineCounts[fd.Path] = fd.LineCount
		}
		report := tokenizer.NewHeatmapReport(ws.Files, lineCounts)
		fmt.Fprint(cmd.ErrOrStderr(), report.Format())
		return nil
	}

	if fv.TopFiles > 0 {
		report := tokenizer.NewTopFilesReport(ws.Files, fv.TopFiles)
		fmt.Fprint(cmd.ErrOrStderr(), report.Format())
		return nil
	}

	report := tokenizer.NewTokenReport(ws.Files, fv.Tokenizer, fv.MaxTokens)
	fmt.Fprint(cmd.ErrOrStderr(), report.Format())
	return nil
}
