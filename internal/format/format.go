// Package format renders a pipeline.WorkingSet into the final document
// handed to the Deliver stage, per spec.md §4.16. Four formatters are
// provided (xml, markdown, ndjson, sarif), selected by pipeline.OutputFormat.
package format

import (
	"fmt"
	"io"
	"time"

	"github.com/copytree/copytree/internal/pipeline"
)

// Metadata bundles the run-level context every formatter renders alongside
// the per-file list: generation timestamp, base path, profile name,
// optional instructions text, and the option flags that affect rendering.
type Metadata struct {
	GeneratedAt    time.Time
	BasePath       string
	ProfileName    string
	Instructions   string
	GitRef         string
	AddLineNumbers bool
	OnlyTree       bool
	TotalFound     int
	SkipReasons    map[string]int
}

// NewMetadata builds a Metadata from a run's options, profile, and working
// set. t is the generation timestamp; callers pass time.Now() so the clock
// read happens once per run and formatter tests can inject a fixed time.
func NewMetadata(t time.Time, opts *pipeline.Options, profile *pipeline.Profile, ws *pipeline.WorkingSet) Metadata {
	m := Metadata{
		GeneratedAt:    t,
		BasePath:       opts.Dir,
		GitRef:         opts.GitRef,
		AddLineNumbers: opts.AddLineNumbers,
		OnlyTree:       opts.OnlyTree,
	}
	if profile != nil {
		m.ProfileName = profile.Name
	}
	if opts != nil {
		m.Instructions = opts.Instructions
	}
	if ws != nil {
		m.TotalFound = ws.TotalFound
		m.SkipReasons = ws.SkipReasons
	}
	return m
}

// Formatter renders a WorkingSet to w under the given Metadata. Writers are
// streaming-capable where the underlying format allows it (NDJSON); others
// buffer internally and write once.
type Formatter interface {
	Format(w io.Writer, meta Metadata, files []*pipeline.FileEntry) error
}

// Get resolves a Formatter for the given pipeline.OutputFormat name.
func Get(of pipeline.OutputFormat) (Formatter, error) {
	switch of {
	case pipeline.FormatXML, "":
		return XMLFormatter{}, nil
	case pipeline.FormatMarkdown:
		return MarkdownFormatter{}, nil
	case pipeline.FormatNDJSON:
		return NDJSONFormatter{}, nil
	case pipeline.FormatSARIF:
		return SARIFFormatter{}, nil
	default:
		return nil, pipeline.NewConfigurationError("output-format", fmt.Sprintf("unknown output format %q", of), nil)
	}
}

// totalSize sums Size across files.
func totalSize(files []*pipeline.FileEntry) int64 {
	var total int64
	for _, fe := range files {
		total += fe.Size
	}
	return total
}

// paths extracts the relative Path of every file, in order.
func paths(files []*pipeline.FileEntry) []string {
	out := make([]string, len(files))
	for i, fe := range files {
		out[i] = fe.Path
	}
	return out
}

// renderContent applies addLineNumbers and the per-file binary policy
// notice (already baked into fe.Content by FileLoad/Transform) — formatters
// call this rather than reading fe.Content directly so line numbering stays
// in one place.
func renderContent(fe *pipeline.FileEntry, addLineNumbers bool) string {
	if !addLineNumbers || fe.Content == "" {
		return fe.Content
	}
	return numberLines(fe.Content)
}

func numberLines(content string) string {
	lines := splitLines(content)
	var b []byte
	for i, line := range lines {
		b = append(b, []byte(fmt.Sprintf("%4d  %s\n", i+1, line))...)
	}
	return string(b)
}

func splitLines(content string) []string {
	var lines []string
	start := 0
	for i := 0; i < len(content); i++ {
		if content[i] == '\n' {
			lines = append(lines, content[start:i])
			start = i + 1
		}
	}
	if start < len(content) {
		lines = append(lines, content[start:])
	}
	return lines
}
