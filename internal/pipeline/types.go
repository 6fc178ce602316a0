// Package pipeline defines the central data types and the staged-processor
// contract shared across every stage of the copytree pipeline: discovery,
// filtering, loading, transforming, formatting, and delivery all operate on
// the same DTOs and the same Stage interface defined here.
package pipeline

import "time"

// ExitCode represents the process exit code returned by the copytree CLI.
type ExitCode int

const (
	// ExitSuccess indicates the pipeline completed successfully.
	ExitSuccess ExitCode = 0
	// ExitError indicates a fatal, unhandled error.
	ExitError ExitCode = 1
	// ExitUserError indicates a bad flag or path supplied by the user.
	ExitUserError ExitCode = 2
	// ExitValidation indicates a validation failure, e.g. secrets detected
	// without the override flag.
	ExitValidation ExitCode = 3
	// ExitCancelled indicates the run was cancelled.
	ExitCancelled ExitCode = 4
)

// OutputFormat selects the renderer used by the OutputFormat stage.
type OutputFormat string

const (
	FormatXML      OutputFormat = "xml"
	FormatMarkdown OutputFormat = "markdown"
	FormatNDJSON   OutputFormat = "ndjson"
	FormatSARIF    OutputFormat = "sarif"
)

// BinaryPolicy controls how a binary (or otherwise excluded) file's content
// is rendered by a formatter.
type BinaryPolicy string

const (
	PolicyPlaceholder BinaryPolicy = "placeholder"
	PolicyBase64      BinaryPolicy = "base64"
	PolicySkip        BinaryPolicy = "skip"
	PolicyComment     BinaryPolicy = "comment"
)

// BinaryCategory classifies the kind of binary content found in a file, used
// to pick a binary policy per-category and to annotate formatter output.
type BinaryCategory string

const (
	CategoryNone       BinaryCategory = ""
	CategoryImage      BinaryCategory = "image"
	CategoryArchive    BinaryCategory = "archive"
	CategoryExecutable BinaryCategory = "executable"
	CategoryOther      BinaryCategory = "other"
)

// GitStatus is the git working-tree status assigned to a FileEntry by the
// GitFilter stage.
type GitStatus string

const (
	GitAdded     GitStatus = "added"
	GitModified  GitStatus = "modified"
	GitRenamed   GitStatus = "renamed"
	GitDeleted   GitStatus = "deleted"
	GitUntracked GitStatus = "untracked"
)

// FileEntry is the central DTO passed between all pipeline stages. Each stage
// enriches or mutates the entry as it flows through the pipeline:
//
//   - FileDiscovery: sets Path, AbsPath, Size, ModTime.
//   - GitFilter: sets GitStatus.
//   - FileLoad: sets Content, IsBinary, BinaryCategory, Encoding, LineCount.
//   - Transform: replaces Content, sets TransformFailed/Truncated.
//   - CharLimit: truncates Content, sets Truncated/OriginalLength.
//
// A FileEntry may be replaced by a null placeholder (Excluded=true) to mark
// "skipped" while still reserving its slot for formatter pass-through.
type FileEntry struct {
	// Path is the file path relative to the run's base directory, always in
	// canonical forward-slash form.
	Path string `json:"path"`

	// AbsPath is the absolute filesystem path, used for reading content.
	AbsPath string `json:"abs_path"`

	// Size is the file size in bytes as reported by the filesystem.
	Size int64 `json:"size"`

	// ModTime is the file's last modification time.
	ModTime time.Time `json:"modified"`

	// ContentHash is the XXH3 hash of the loaded content, used for cache keys
	// and dedup comparison. Zero until FileLoad has run.
	ContentHash uint64 `json:"-"`

	// GitStatus is set by the GitFilter stage when git filtering is active.
	GitStatus GitStatus `json:"git_status,omitempty"`

	// IsBinary reports whether FileLoad detected binary content. Set once by
	// FileLoad and never changed thereafter.
	IsBinary bool `json:"binary"`

	// BinaryCategory classifies the binary content, if any.
	BinaryCategory BinaryCategory `json:"binary_category,omitempty"`

	// Encoding names the text encoding ("utf-8") or "base64" for binary
	// payloads rendered as base64.
	Encoding string `json:"encoding,omitempty"`

	// Content is the current payload: decoded text, a placeholder notice, or
	// a base64 string, depending on binary policy and transform stage.
	Content string `json:"content"`

	// LineCount is the number of newline-delimited lines in Content. Only
	// computed for files below the line-count size threshold.
	LineCount int `json:"line_count,omitempty"`

	// Truncated reports whether Content was shortened by a transformer or the
	// CharLimit stage.
	Truncated bool `json:"truncated,omitempty"`

	// OriginalLength is the pre-truncation length of Content in bytes. Only
	// meaningful when Truncated is true.
	OriginalLength int `json:"original_length,omitempty"`

	// TransformFailed reports whether the Transform stage replaced Content
	// with a failure notice for this file.
	TransformFailed bool `json:"transform_failed,omitempty"`

	// TokenCount is the number of tokens Content consumes under the
	// configured tokenizer encoding. Populated for --info/--order-by tier and
	// for char/token budget enforcement. Zero until counted.
	TokenCount int `json:"token_count,omitempty"`

	// Tier is the relevance tier assigned by internal/relevance (0 = highest
	// priority). Only meaningful when OrderBy is "tier".
	Tier int `json:"tier,omitempty"`

	// Excluded marks this entry as a null placeholder: its slot is reserved
	// for formatter pass-through but it is not counted or rendered with
	// content.
	Excluded bool `json:"-"`

	// ExcludeReason records why Excluded was set, for diagnostics.
	ExcludeReason string `json:"-"`

	// Error tracks a per-file processing failure. Does not serialize to JSON
	// since the error interface cannot be marshaled cleanly.
	Error error `json:"-"`
}

// IsValid reports whether the FileEntry has the minimum required fields for
// a valid pipeline entry: a non-empty relative path.
func (fe *FileEntry) IsValid() bool {
	return fe.Path != ""
}

// WorkingSet is the ordered list of FileEntries flowing through the pipeline.
// Stages take a WorkingSet as input and return a new (or mutated) WorkingSet.
type WorkingSet struct {
	// Files is the current ordered list of entries.
	Files []*FileEntry

	// TotalFound is the total number of candidate paths encountered during
	// discovery, before any filtering.
	TotalFound int

	// SkipReasons maps a skip reason ("binary", "gitignore", "size_limit", ...)
	// to the count of files skipped for that reason, accumulated across
	// every stage that drops entries.
	SkipReasons map[string]int

	// Rendered holds the formatted document produced by the OutputFormat
	// stage, consumed by the secret scanner and the Deliver stage. Empty
	// until OutputFormat has run.
	Rendered string
}

// NewWorkingSet creates an empty WorkingSet ready to be populated.
func NewWorkingSet() *WorkingSet {
	return &WorkingSet{SkipReasons: make(map[string]int)}
}

// RecordSkip increments the count for the given skip reason.
func (ws *WorkingSet) RecordSkip(reason string) {
	if ws.SkipReasons == nil {
		ws.SkipReasons = make(map[string]int)
	}
	ws.SkipReasons[reason]++
}

// TotalSkipped sums every recorded skip reason.
func (ws *WorkingSet) TotalSkipped() int {
	total := 0
	for _, n := range ws.SkipReasons {
		total += n
	}
	return total
}
