package transform

import (
	"context"
	"fmt"

	"github.com/copytree/copytree/internal/llm"
	"github.com/copytree/copytree/internal/pipeline"
)

// CodeSummary replaces a source file's content with a short LLM-generated
// summary, for use on large files where the full text would dominate the
// output budget. Marked Heavy/order-insensitive in its registry.Traits.
type CodeSummary struct {
	Provider llm.Provider
}

func (c CodeSummary) Transform(ctx context.Context, fe *pipeline.FileEntry) (string, error) {
	prompt := fmt.Sprintf(
		"Summarize the following source file in 3-5 sentences, focused on what it does and its public surface. Path: %s\n\n%s",
		fe.Path, fe.Content,
	)
	summary, err := c.Provider.Text(ctx, prompt, llm.Options{MaxTokens: 512})
	if err != nil {
		return "", fmt.Errorf("summarizing %s: %w", fe.Path, err)
	}
	return summary, nil
}

// ImageDescription replaces a base64-encoded image payload with a short
// natural-language description, so image files can participate in a
// text-only prompt. Requires FileLoadStage to have applied the base64
// binary policy to this entry.
type ImageDescription struct {
	Provider llm.Provider
}

func (i ImageDescription) Transform(ctx context.Context, fe *pipeline.FileEntry) (string, error) {
	if fe.Encoding != "base64" {
		return fe.Content, nil
	}
	prompt := fmt.Sprintf("Describe this image file (%s) in one or two sentences, from its base64 payload below:\n\n%s", fe.Path, fe.Content)
	desc, err := i.Provider.Text(ctx, prompt, llm.Options{MaxTokens: 256})
	if err != nil {
		return "", fmt.Errorf("describing %s: %w", fe.Path, err)
	}
	return desc, nil
}
