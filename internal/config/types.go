package config

// Config is the top-level configuration type parsed from a copytree.toml file.
// It holds a map of named profiles keyed by profile name. Profile names are
// case-sensitive. The special name "default" is the built-in fallback profile.
type Config struct {
	// Profile maps profile names to their configuration. Access via
	// cfg.Profile["default"] or cfg.Profile["finvault"].
	Profile map[string]*Profile `toml:"profile"`
}

// Profile defines all settings for a single named profile. Fields with zero
// values are considered unset and will be filled in by the merge/inheritance
// pipeline (T-017, T-019). The Extends field enables profile inheritance.
type Profile struct {
	// Extends is the name of a parent profile to inherit from. When set,
	// all unset fields in this profile are filled from the named parent.
	// A nil pointer means no inheritance.
	Extends *string `toml:"extends"`

	// Output is the file path for the generated context document.
	// Example: "copytree-output.md" or ".copytree/finvault-context.md"
	Output string `toml:"output"`

	// Format controls the output format. Valid values: "markdown", "xml", "plain".
	Format string `toml:"format"`

	// MaxTokens is the token budget cap for the generated output.
	// Files are pruned from the output if the total exceeds this limit.
	MaxTokens int `toml:"max_tokens"`

	// Tokenizer selects the token counting model. Valid values: "cl100k_base", "o200k_base".
	Tokenizer string `toml:"tokenizer"`

	// Compression enables Tree-sitter WASM compression for source files.
	Compression bool `toml:"compression"`

	// Redaction enables secret redaction before writing output.
	Redaction bool `toml:"redaction"`

	// Target selects LLM-specific output optimizations.
	// Valid values: "claude", "chatgpt", "generic", or empty string.
	Target string `toml:"target"`

	// Ignore is the list of glob patterns for files and directories to
	// skip during discovery. Patterns are evaluated with doublestar. The
	// TOML key is "exclude" to match the profile document's external
	// contract; the Go field keeps its original name since it still feeds
	// the RulesetFilter exclude path the same way it always has.
	Ignore []string `toml:"exclude"`

	// PriorityFiles is the ordered list of files that must be included in
	// the output before any tier-based sorting is applied.
	PriorityFiles []string `toml:"priority_files"`

	// Include is the list of glob patterns for files to explicitly include
	// even if they would otherwise be ignored.
	Include []string `toml:"include"`

	// Rules is a list of named rule sets, each a conjunction of field/
	// operator/value predicates evaluated by internal/rules. A file is
	// accepted by the ruleset stage if it matches any one rule set.
	Rules []RuleSetSpec `toml:"rules"`

	// Always holds glob lists that bypass ordinary filtering: AlwaysInclude
	// entries are kept even when no other rule matches; AlwaysExclude
	// entries are dropped even when Include or a rule set would keep them.
	Always AlwaysConfig `toml:"always"`

	// Transformers maps glob patterns to a named transformer and its
	// per-binding options, e.g. `[[profile.default.transformers]]
	// glob = "*.csv"` `transformer = "csv-preview"`.
	Transformers []TransformerSpec `toml:"transformers"`

	// External lists external source references (URLs or paths) merged
	// into the discovered file set by the ExternalSource stage.
	External []string `toml:"external"`

	// Relevance holds tier-based file sorting configuration. Each tier is
	// a list of glob patterns that match files assigned to that tier.
	Relevance RelevanceConfig `toml:"relevance"`

	// RedactionConfig holds fine-grained redaction settings.
	RedactionConfig RedactionConfig `toml:"redaction_config"`
}

// AlwaysConfig holds the profile document's "always.include" and
// "always.exclude" glob lists (spec.md §6).
type AlwaysConfig struct {
	Include []string `toml:"include"`
	Exclude []string `toml:"exclude"`
}

// RuleSetSpec is a profile document's declarative form of a named rule set:
// a conjunction of predicates, all of which must match a file for the set
// to match. Mirrors pipeline.RuleSet/pipeline.Rule; kept as a distinct type
// here because the TOML-decoded Value is untyped (any) until internal/rules
// coerces it against the field's expected type.
type RuleSetSpec struct {
	Name  string     `toml:"name"`
	Rules []RuleSpec `toml:"rule"`
}

// RuleSpec is one (field, operator, value) predicate triple.
type RuleSpec struct {
	Field    string `toml:"field"`
	Operator string `toml:"operator"`
	Value    any    `toml:"value"`
}

// TransformerSpec binds a glob pattern to a named transformer and its
// per-binding options.
type TransformerSpec struct {
	Glob        string         `toml:"glob"`
	Transformer string         `toml:"transformer"`
	Options     map[string]any `toml:"options"`
}

// RelevanceConfig defines glob patterns for each relevance tier. Files are
// assigned to the lowest-numbered matching tier (Tier 0 is highest priority).
// All fields are slices of doublestar glob patterns.
type RelevanceConfig struct {
	// Tier0 contains the highest-priority files (configuration, schema files).
	Tier0 []string `toml:"tier_0"`

	// Tier1 contains primary source code directories.
	Tier1 []string `toml:"tier_1"`

	// Tier2 contains secondary source files, components, and utilities.
	Tier2 []string `toml:"tier_2"`

	// Tier3 contains test files.
	Tier3 []string `toml:"tier_3"`

	// Tier4 contains documentation.
	Tier4 []string `toml:"tier_4"`

	// Tier5 contains CI/CD configs, lock files, and lowest-priority files.
	Tier5 []string `toml:"tier_5"`
}

// RedactionConfig controls secret detection and redaction behavior.
type RedactionConfig struct {
	// Enabled turns secret redaction on or off for this profile.
	Enabled bool `toml:"enabled"`

	// ExcludePaths is the list of glob patterns for paths to skip during
	// redaction scanning (e.g., test fixtures and documentation).
	ExcludePaths []string `toml:"exclude_paths"`

	// ConfidenceThreshold controls which detected secrets are redacted.
	// Valid values: "low", "medium", "high". Defaults to "high".
	ConfidenceThreshold string `toml:"confidence_threshold"`
}
