// Package transform implements the concrete transformers of spec.md §4.13:
// default passthrough, markdown-strip, CSV preview, and the two LLM-backed
// transformers (code summary, image description). Each registers itself
// into an internal/registry.Registry with its traits.
package transform

import (
	"context"

	"github.com/copytree/copytree/internal/pipeline"
)

// DefaultLoader returns a file's content unchanged. It is the fallback
// transformer every registry is expected to carry (spec.md §4.3:
// "falls back to the default transformer").
type DefaultLoader struct{}

func (DefaultLoader) Transform(_ context.Context, fe *pipeline.FileEntry) (string, error) {
	return fe.Content, nil
}
