package llm

import (
	"context"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

const (
	defaultModel     = anthropic.ModelClaudeSonnet4_5
	defaultMaxTokens = 1024
)

// AnthropicProvider implements Provider on top of the Anthropic Messages
// API. It is the default provider selected by --target claude (spec.md §6).
type AnthropicProvider struct {
	client anthropic.Client
}

// NewAnthropicProvider constructs a provider authenticated with apiKey. An
// empty apiKey still returns a usable value (the SDK falls back to the
// ANTHROPIC_API_KEY environment variable); callers that require an explicit
// key should validate it beforehand.
func NewAnthropicProvider(apiKey string) *AnthropicProvider {
	opts := []option.RequestOption{}
	if apiKey != "" {
		opts = append(opts, option.WithAPIKey(apiKey))
	}
	return &AnthropicProvider{client: anthropic.NewClient(opts...)}
}

func (p *AnthropicProvider) Text(ctx context.Context, prompt string, opts Options) (string, error) {
	model := anthropic.Model(opts.Model)
	if opts.Model == "" {
		model = defaultModel
	}
	maxTokens := int64(opts.MaxTokens)
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}

	params := anthropic.MessageNewParams{
		Model:     model,
		MaxTokens: maxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	}
	if opts.System != "" {
		params.System = []anthropic.TextBlockParam{{Text: opts.System}}
	}

	msg, err := p.client.Messages.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("anthropic messages.new: %w", err)
	}

	var out string
	for _, block := range msg.Content {
		if text := block.AsText(); text.Text != "" {
			out += text.Text
		}
	}
	return out, nil
}

var _ Provider = (*AnthropicProvider)(nil)
