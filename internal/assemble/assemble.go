// Package assemble builds the canonical pipeline.Driver of spec.md §2 from a
// resolved RunContext: FileDiscovery → ExternalSource → GitFilter →
// ProfileFilter → RulesetFilter → OptionalLLMFilter → Dedup → Sort → Limit →
// FileLoad → Transform → CharLimit → OutputFormat → secret scan → Deliver.
// It lives outside internal/pipeline because every concrete stage package
// (internal/discovery, internal/stages, ...) imports internal/pipeline;
// assembling them here avoids an import cycle.
package assemble

import (
	"io"

	"github.com/copytree/copytree/internal/cache"
	"github.com/copytree/copytree/internal/deliver"
	"github.com/copytree/copytree/internal/discovery"
	"github.com/copytree/copytree/internal/format"
	"github.com/copytree/copytree/internal/llm"
	"github.com/copytree/copytree/internal/llmfilter"
	"github.com/copytree/copytree/internal/pipeline"
	"github.com/copytree/copytree/internal/registry"
	"github.com/copytree/copytree/internal/secrets"
	"github.com/copytree/copytree/internal/stages"
	"github.com/copytree/copytree/internal/tokenizer"
	"github.com/copytree/copytree/internal/transform"
)

// Generate builds the full generate-command pipeline: every stage through
// Deliver. provider backs the optional LLM filter and LLM-backed
// transformers; passing llm.NoopProvider{} is valid when no API key is
// configured. stdout is where TargetStdout content and delivery notices are
// written. c may be nil to disable the transform content cache.
func Generate(provider llm.Provider, c *cache.Cache, stdout io.Writer) (*pipeline.Driver, *deliver.Stage) {
	reg := registry.New()
	transform.RegisterDefaults(reg, provider)

	tok, err := tokenizer.NewTokenizer("")
	if err != nil {
		tok = nil
	}

	deliverStage := deliver.NewStage(stdout)

	driver := pipeline.NewDriver(
		discovery.NewFileDiscoveryStage(),
		stages.NewExternalSourceStage(),
		stages.NewGitFilterStage(),
		stages.NewProfileFilterStage(),
		stages.NewRulesetFilterStage(),
		llmfilter.NewStage(provider, tok),
		stages.NewDedupStage(),
		stages.NewSortStage(),
		stages.NewLimitStage(),
		stages.NewFileLoadStage(),
		stages.NewTransformStage(reg, c),
		stages.NewCharLimitStage(),
		format.NewOutputFormatStage(),
		secrets.NewStage(nil, nil),
		deliverStage,
	)
	return driver, deliverStage
}

// Ask builds the discovery-through-format subset of the pipeline used by
// `copytree ask` to assemble the context document handed to the LLM as part
// of a conversational prompt: every filtering, loading, and transform stage,
// plus output formatting, but no secret scan (the rendered text never leaves
// the process as a delivered artifact) and no delivery.
func Ask(provider llm.Provider, c *cache.Cache) *pipeline.Driver {
	reg := registry.New()
	transform.RegisterDefaults(reg, provider)

	tok, err := tokenizer.NewTokenizer("")
	if err != nil {
		tok = nil
	}

	return pipeline.NewDriver(
		discovery.NewFileDiscoveryStage(),
		stages.NewExternalSourceStage(),
		stages.NewGitFilterStage(),
		stages.NewProfileFilterStage(),
		stages.NewRulesetFilterStage(),
		llmfilter.NewStage(provider, tok),
		stages.NewDedupStage(),
		stages.NewSortStage(),
		stages.NewLimitStage(),
		stages.NewFileLoadStage(),
		stages.NewTransformStage(reg, c),
		stages.NewCharLimitStage(),
		format.NewOutputFormatStage(),
	)
}

// Preview builds the discovery-through-load subset of the pipeline used by
// `copytree preview` and `--dry-run`: every filtering and loading stage, but
// no transform, formatting, secret scan, or delivery.
func Preview(provider llm.Provider) *pipeline.Driver {
	tok, err := tokenizer.NewTokenizer("")
	if err != nil {
		tok = nil
	}

	return pipeline.NewDriver(
		discovery.NewFileDiscoveryStage(),
		stages.NewExternalSourceStage(),
		stages.NewGitFilterStage(),
		stages.NewProfileFilterStage(),
		stages.NewRulesetFilterStage(),
		llmfilter.NewStage(provider, tok),
		stages.NewDedupStage(),
		stages.NewSortStage(),
		stages.NewLimitStage(),
		stages.NewFileLoadStage(),
	)
}
