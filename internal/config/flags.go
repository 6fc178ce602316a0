package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
)

// DefaultOutput is the default output file path when --output is not specified.
const DefaultOutput = "copytree-output.md"

// DefaultMaxTotalSize is the default total-size budget (1MB) above which
// files are skipped during discovery.
const DefaultMaxTotalSize int64 = 1 * 1024 * 1024

// DefaultMaxConcurrency is the default number of stage workers (spec.md §5).
const DefaultMaxConcurrency = 5

// FlagValues collects all parsed global flag values from the CLI. This struct
// is populated by BindFlags and converted into a *pipeline.Options by
// ToOptions after ValidateFlags has run.
type FlagValues struct {
	Dir     string
	Profile string

	Filters  []string // additional include globs
	Excludes []string // additional exclude globs
	Depth    int

	Modified bool
	Changed  string

	External []string
	AIFilter string

	Instructions string

	OrderBy string

	Format         string
	Output         string
	Display        bool
	AsReference    bool
	OnlyTree       bool
	CharLimit      int
	AddLineNumbers bool

	Info   bool
	DryRun bool
	State  string

	Target string // LLM provider target preset; drives default model selection

	AllowSecrets bool

	ContinueOnError bool
	Parallel        bool
	MaxConcurrency  int
	MaxFiles        int
	maxTotalSizeRaw string
	MaxTotalSize    int64

	TUI      bool
	NoCache  bool
	CacheDir string

	// Token-budget reporting, a supplemented feature (SPEC_FULL.md "Dropped
	// teacher features") backing --info and `copytree preview`.
	Tokenizer          string
	MaxTokens          int
	TruncationStrategy string
	TokenCount         bool
	TopFiles           int

	Verbose    bool
	Quiet      bool
	Yes        bool
	ClearCache bool
}

// BindFlags registers all global persistent flags on the given Cobra command
// and returns a FlagValues pointer that will be populated when the command is
// executed. Callers should access the returned struct after flag parsing.
func BindFlags(cmd *cobra.Command) *FlagValues {
	fv := &FlagValues{}

	pf := cmd.PersistentFlags()
	pf.StringVarP(&fv.Dir, "dir", "d", ".", "target directory to scan")
	pf.StringVar(&fv.Profile, "profile", "default", "named profile to apply")

	pf.StringArrayVarP(&fv.Filters, "filter", "f", nil, "additional include glob (repeatable)")
	pf.StringArrayVar(&fv.Excludes, "exclude", nil, "additional exclude glob (repeatable)")
	pf.IntVar(&fv.Depth, "depth", 0, "maximum walk depth (0 = unlimited)")

	pf.BoolVar(&fv.Modified, "modified", false, "only include files with uncommitted git changes")
	pf.StringVar(&fv.Changed, "changed", "", "only include files changed since <ref>")

	pf.StringArrayVar(&fv.External, "external", nil, "external source (url or path) to add to the input set (repeatable)")
	pf.StringVar(&fv.AIFilter, "ai-filter", "", "enable the LLM filter with a natural-language description")
	pf.StringVar(&fv.Instructions, "instructions", "", "free-form instructions text embedded in the rendered document")

	pf.StringVar(&fv.OrderBy, "order-by", "path", "sort order: path, modified, or tier")

	pf.StringVarP(&fv.Output, "output", "o", "", "write the rendered document to this file")
	pf.StringVar(&fv.Format, "format", "xml", "output format: xml, markdown, ndjson, sarif")
	pf.BoolVar(&fv.Display, "display", false, "print the rendered document to stdout instead of writing a file")
	pf.BoolVar(&fv.AsReference, "as-reference", false, "write output and print only its path (for large documents)")
	pf.BoolVar(&fv.OnlyTree, "only-tree", false, "omit file bodies; list the tree only")
	pf.IntVar(&fv.CharLimit, "char-limit", 0, "global character budget (0 = unlimited)")
	pf.BoolVar(&fv.AddLineNumbers, "add-line-numbers", false, "prefix content lines with 1-based indices")

	pf.BoolVar(&fv.Info, "info", false, "print summary statistics after delivery")
	pf.BoolVar(&fv.DryRun, "dry-run", false, "list files that would be included; no transforms, no delivery")
	pf.StringVar(&fv.State, "state", "", "persist/continue a conversation context under this key (ask subcommand)")

	pf.StringVar(&fv.Target, "target", "claude", "LLM provider target: claude, chatgpt, generic")

	pf.BoolVar(&fv.AllowSecrets, "allow-secrets", false, "deliver even if the secret scanner reports a high-severity finding")

	pf.BoolVar(&fv.ContinueOnError, "continue-on-error", false, "record stage errors and continue instead of aborting the run")
	pf.BoolVar(&fv.Parallel, "parallel", false, "run parallel-safe stages across batches of the working set")
	pf.IntVar(&fv.MaxConcurrency, "max-concurrency", DefaultMaxConcurrency, "maximum concurrent workers per stage")
	pf.IntVar(&fv.MaxFiles, "max-files", 0, "maximum number of files to include (0 = unlimited)")
	pf.StringVar(&fv.maxTotalSizeRaw, "max-total-size", "1MB", "skip files larger than this threshold (e.g. 500KB, 2MB)")

	pf.BoolVar(&fv.TUI, "tui", false, "render a live progress UI")
	pf.BoolVar(&fv.NoCache, "no-cache", false, "disable the transform content cache")
	pf.StringVar(&fv.CacheDir, "cache-dir", "", "override the cache directory")

	pf.StringVar(&fv.Tokenizer, "tokenizer", "cl100k_base", "tokenizer used for --info and preview reports")
	pf.IntVar(&fv.MaxTokens, "max-tokens", 0, "token budget for --info and preview reports (0 = unlimited)")
	pf.StringVar(&fv.TruncationStrategy, "truncation-strategy", "skip", "token-budget enforcement strategy: truncate, skip")
	pf.BoolVar(&fv.TokenCount, "token-count", false, "print a per-file token report instead of generating output")
	pf.IntVar(&fv.TopFiles, "top-files", 0, "show the top N files by token count (0 = all)")

	pf.BoolVarP(&fv.Verbose, "verbose", "v", false, "enable debug logging")
	pf.BoolVarP(&fv.Quiet, "quiet", "q", false, "suppress all output except errors")
	pf.BoolVar(&fv.Yes, "yes", false, "skip confirmation prompts")
	pf.BoolVar(&fv.ClearCache, "clear-cache", false, "clear cached state before running")

	return fv
}

// ValidateFlags checks the parsed flag values for correctness and mutual
// exclusion. It also applies environment variable fallbacks and normalizes
// values. Call this from PersistentPreRunE after Cobra has parsed the flags.
func ValidateFlags(fv *FlagValues, cmd *cobra.Command) error {
	applyEnvOverrides(fv, cmd)

	if fv.Verbose && fv.Quiet {
		return fmt.Errorf("--verbose and --quiet are mutually exclusive")
	}
	if fv.Display && fv.Output != "" {
		return fmt.Errorf("--display and --output are mutually exclusive")
	}
	if fv.AddLineNumbers && fv.Format == string(formatSARIFValue) {
		return fmt.Errorf("--add-line-numbers is not supported with --format sarif")
	}

	info, err := os.Stat(fv.Dir)
	if err != nil {
		return fmt.Errorf("--dir: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("--dir: %s is not a directory", fv.Dir)
	}

	switch fv.Format {
	case "xml", "markdown", "ndjson", "sarif":
	default:
		return fmt.Errorf("--format: invalid value %q (allowed: xml, markdown, ndjson, sarif)", fv.Format)
	}

	switch fv.Target {
	case "claude", "chatgpt", "generic":
	default:
		return fmt.Errorf("--target: invalid value %q (allowed: claude, chatgpt, generic)", fv.Target)
	}

	switch fv.OrderBy {
	case "path", "modified", "tier":
	default:
		return fmt.Errorf("--order-by: invalid value %q (allowed: path, modified, tier)", fv.OrderBy)
	}

	switch fv.TruncationStrategy {
	case "truncate", "skip":
	default:
		return fmt.Errorf("--truncation-strategy: invalid value %q (allowed: truncate, skip)", fv.TruncationStrategy)
	}

	switch fv.Tokenizer {
	case "cl100k_base", "o200k_base", "none":
	default:
		return fmt.Errorf("--tokenizer: invalid value %q (allowed: cl100k_base, o200k_base, none)", fv.Tokenizer)
	}

	size, err := ParseSize(fv.maxTotalSizeRaw)
	if err != nil {
		return fmt.Errorf("--max-total-size: %w", err)
	}
	fv.MaxTotalSize = size

	for i, f := range fv.Filters {
		fv.Filters[i] = strings.TrimLeft(f, ".")
	}

	return nil
}

// formatSARIFValue avoids importing internal/pipeline here (config must stay
// below pipeline in the dependency graph); the string literal mirrors
// pipeline.FormatSARIF.
const formatSARIFValue = "sarif"

// applyEnvOverrides applies environment variable fallbacks for flags that were
// not explicitly set on the command line. The prefix is COPYTREE_.
func applyEnvOverrides(fv *FlagValues, cmd *cobra.Command) {
	envMap := map[string]func(string){
		EnvProfile:   func(v string) { fv.Profile = v },
		EnvFormat:    func(v string) { fv.Format = v },
		EnvTarget:    func(v string) { fv.Target = v },
		EnvTokenizer: func(v string) { fv.Tokenizer = v },
	}

	for env, setter := range envMap {
		v := os.Getenv(env)
		if v == "" {
			continue
		}
		flagName := strings.ToLower(strings.TrimPrefix(env, "COPYTREE_"))
		if !cmd.Flags().Changed(flagName) {
			setter(v)
		}
	}

	if v := os.Getenv(EnvMaxTokens); v != "" && !cmd.Flags().Changed("max-tokens") {
		if n, err := strconv.Atoi(v); err == nil {
			fv.MaxTokens = n
		}
	}
	if os.Getenv("COPYTREE_VERBOSE") == "1" && !cmd.Flags().Changed("verbose") {
		fv.Verbose = true
	}
	if os.Getenv("COPYTREE_QUIET") == "1" && !cmd.Flags().Changed("quiet") {
		fv.Quiet = true
	}
}

// ParseSize parses a human-readable size string into bytes. It supports KB, MB,
// and GB suffixes (case-insensitive). Plain numbers without a suffix are treated
// as bytes. KB = 1024, MB = 1048576, GB = 1073741824.
func ParseSize(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty size string")
	}

	upper := strings.ToUpper(s)

	var suffix string
	var multiplier int64

	switch {
	case strings.HasSuffix(upper, "GB"):
		suffix = "GB"
		multiplier = 1024 * 1024 * 1024
	case strings.HasSuffix(upper, "MB"):
		suffix = "MB"
		multiplier = 1024 * 1024
	case strings.HasSuffix(upper, "KB"):
		suffix = "KB"
		multiplier = 1024
	default:
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid size: %q", s)
		}
		if n < 0 {
			return 0, fmt.Errorf("size must be non-negative: %q", s)
		}
		return n, nil
	}

	numStr := strings.TrimSpace(s[:len(s)-len(suffix)])
	n, err := strconv.ParseInt(numStr, 10, 64)
	if err != nil {
		f, ferr := strconv.ParseFloat(numStr, 64)
		if ferr != nil {
			return 0, fmt.Errorf("invalid size: %q", s)
		}
		if f < 0 {
			return 0, fmt.Errorf("size must be non-negative: %q", s)
		}
		return int64(f * float64(multiplier)), nil
	}
	if n < 0 {
		return 0, fmt.Errorf("size must be non-negative: %q", s)
	}
	return n * multiplier, nil
}
