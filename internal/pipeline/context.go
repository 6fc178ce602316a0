package pipeline

import (
	"context"
	"log/slog"
)

// Options is the immutable options bundle resolved from CLI flags, profile,
// and config layering before a run starts. It is generalized from the
// teacher's flat FlagValues struct into the full pipeline configuration.
type Options struct {
	Dir              string
	ProfileName      string
	Filters          []string
	Excludes         []string
	MaxDepth         int
	GitMode          string // "", "modified", "changed"
	GitRef           string
	External         []string
	AIFilterDesc     string
	Instructions     string
	OrderBy          string // "path" | "modified" | "tier"
	Format           OutputFormat
	Output           string
	Display          bool
	AsReference      bool
	OnlyTree         bool
	CharLimit        int
	AddLineNumbers   bool
	Info             bool
	DryRun           bool
	StateKey         string
	ContinueOnError  bool
	Parallel         bool
	MaxConcurrency   int
	MaxFiles         int
	MaxTotalSize     int64
	AllowSecrets     bool
	TUI              bool
	CacheEnabled     bool
	CacheDir         string
}

// RunContext carries everything a stage needs that is not part of the
// WorkingSet itself: resolved options, the active profile, an event sink, a
// logger, a statistics accumulator, the shared registry and cache, and a
// cancellation signal. One RunContext exists per run; it is never shared
// across runs.
type RunContext struct {
	Context context.Context
	Options *Options
	Profile *Profile
	Events  *EventBus
	Logger  *slog.Logger
	Stats   *Statistics

	// Registry and Cache are opaque to this package (they live in
	// internal/registry and internal/cache) and are threaded through as
	// interface{} to avoid an import cycle; stages type-assert them.
	Registry interface{}
	Cache    interface{}
}

// NewRunContext constructs a RunContext with a fresh Statistics accumulator
// and event bus. Callers supply ctx, opts, and profile; Registry/Cache are
// attached afterward by the driver's caller.
func NewRunContext(ctx context.Context, opts *Options, profile *Profile) *RunContext {
	return &RunContext{
		Context: ctx,
		Options: opts,
		Profile: profile,
		Events:  NewEventBus(),
		Logger:  slog.Default(),
		Stats:   NewStatistics(),
	}
}

// Cancelled reports whether the run's context has been cancelled.
func (rc *RunContext) Cancelled() bool {
	select {
	case <-rc.Context.Done():
		return true
	default:
		return false
	}
}

// Profile is the resolved, immutable bundle of patterns and rules that
// tailors a run to a repository shape (spec.md §3).
type Profile struct {
	Name              string
	Include           []string
	Exclude           []string
	RuleSets          []RuleSet
	GlobalExcludeSets []RuleSet
	AlwaysInclude     []string
	AlwaysExclude     []string
	Transformers      []TransformerBinding
	External          []string
	OutputDefaults    OutputDefaults
}

// TransformerBinding maps a glob pattern to a named transformer and its
// per-binding options.
type TransformerBinding struct {
	Glob        string
	Transformer string
	Options     map[string]any
}

// OutputDefaults holds a profile's default delivery/format settings, used
// when the corresponding CLI flag is unset.
type OutputDefaults struct {
	Format OutputFormat
	Output string
}

// RuleSet is declared here (rather than in internal/rules) because Profile
// embeds it directly and internal/rules would otherwise import pipeline,
// creating a cycle; internal/rules re-exports this type via a type alias.
type RuleSet struct {
	Name  string
	Rules []Rule
}

// Rule is one predicate triple: (Field, Operator, Value).
type Rule struct {
	Field    string
	Operator string
	Value    any
}
