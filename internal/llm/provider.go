// Package llm defines the provider interface the optional LLM filter
// (internal/llmfilter) and the LLM-backed transformers (internal/transform)
// call through, and a default implementation on top of the Anthropic SDK.
// No repo in the curated example set calls an LLM; this package is grounded
// on other_examples/manifests/ternarybob-quaero/go.mod, the one place in the
// wider pack that pulls in github.com/anthropics/anthropic-sdk-go.
package llm

import (
	"context"
	"fmt"
)

// Options tunes a single Text call: model override, max output tokens, and
// an optional system prompt. Zero values fall back to the provider's
// defaults.
type Options struct {
	Model       string
	MaxTokens   int
	System      string
	Temperature float64
}

// Provider is the capability every copytree component needing a language
// model implements: stages and transformers see only this interface, never
// SDK-specific types.
type Provider interface {
	Text(ctx context.Context, prompt string, opts Options) (string, error)
}

// NoopProvider always fails, used as a safe zero value when no API key is
// configured so that callers get a clear error instead of a nil pointer
// dereference.
type NoopProvider struct{}

func (NoopProvider) Text(context.Context, string, Options) (string, error) {
	return "", fmt.Errorf("llm: no provider configured (set an API key to enable AI features)")
}

var _ Provider = NoopProvider{}
