// Package anthropic adapts the Anthropic Messages API to oracle.TextGenerator.
package anthropic

import (
	"context"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/ArthurLoboLobo/projeto-estudos/internal/domain/services/oracle"
)

const defaultMaxTokens = 16384

// Provider implements oracle.TextGenerator for Claude models.
type Provider struct {
	client *anthropic.Client
}

// NewProvider creates a new Anthropic provider with the given API key.
func NewProvider(apiKey string, opts ...option.RequestOption) (*Provider, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("anthropic API key is required")
	}

	client := anthropic.NewClient(append([]option.RequestOption{option.WithAPIKey(apiKey)}, opts...)...)

	return &Provider{
		client: &client,
	}, nil
}

// Name returns the provider name.
func (p *Provider) Name() string {
	return "anthropic"
}

// SupportsModel returns true if this provider supports the given model.
// Anthropic models start with "claude-"
func (p *Provider) SupportsModel(model string) bool {
	return strings.HasPrefix(model, "claude-")
}

func (p *Provider) params(req *oracle.TextRequest) (anthropic.MessageNewParams, error) {
	if !p.SupportsModel(req.Model) {
		return anthropic.MessageNewParams{}, fmt.Errorf("model '%s' is not supported by Anthropic provider", req.Model)
	}

	maxTokens := int64(req.MaxTokens)
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(req.Model),
		MaxTokens: maxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(req.UserPrompt)),
		},
	}
	if req.SystemPrompt != "" {
		params.System = []anthropic.TextBlockParam{{Text: req.SystemPrompt}}
	}
	return params, nil
}

// Complete returns the concatenated text blocks of one message.
func (p *Provider) Complete(ctx context.Context, req *oracle.TextRequest) (string, error) {
	params, err := p.params(req)
	if err != nil {
		return "", err
	}

	message, err := p.client.Messages.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("anthropic API call failed: %w", err)
	}

	var out strings.Builder
	for _, block := range message.Content {
		if text, ok := block.AsAny().(anthropic.TextBlock); ok {
			out.WriteString(text.Text)
		}
	}
	return out.String(), nil
}

// Stream forwards text deltas as they arrive.
func (p *Provider) Stream(ctx context.Context, req *oracle.TextRequest, onDelta func(delta string)) (string, error) {
	params, err := p.params(req)
	if err != nil {
		return "", err
	}

	stream := p.client.Messages.NewStreaming(ctx, params)
	defer stream.Close()

	var out strings.Builder
	for stream.Next() {
		event := stream.Current()
		e, ok := event.AsAny().(anthropic.ContentBlockDeltaEvent)
		if !ok {
			continue
		}
		if delta, ok := e.Delta.AsAny().(anthropic.TextDelta); ok && delta.Text != "" {
			out.WriteString(delta.Text)
			if onDelta != nil {
				onDelta(delta.Text)
			}
		}
	}

	if err := stream.Err(); err != nil {
		return out.String(), fmt.Errorf("anthropic streaming error: %w", err)
	}
	return out.String(), nil
}
