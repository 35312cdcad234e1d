// Package adapters exposes meridian-llm-go providers as text oracles.
package adapters

import (
	"context"
	"errors"
	"fmt"
	"strings"

	llmprovider "github.com/haowjy/meridian-llm-go"
	"github.com/haowjy/meridian-llm-go/providers/lorem"
	"github.com/haowjy/meridian-llm-go/providers/openrouter"

	"github.com/ArthurLoboLobo/projeto-estudos/internal/domain/services/oracle"
)

// TextAdapter implements oracle.TextGenerator over a library provider.
type TextAdapter struct {
	provider llmprovider.Provider
}

// NewOpenRouterAdapter creates a text generator backed by the library's
// OpenRouter provider.
func NewOpenRouterAdapter(apiKey string) (*TextAdapter, error) {
	if apiKey == "" {
		return nil, errors.New("OPENROUTER_API_KEY environment variable not set")
	}
	provider, err := openrouter.NewProvider(apiKey)
	if err != nil {
		return nil, fmt.Errorf("create openrouter provider: %w", err)
	}
	return NewTextAdapter(provider), nil
}

// NewLoremAdapter creates an offline text generator that returns filler
// text. Useful for exercising the pipelines without an API key.
func NewLoremAdapter() *TextAdapter {
	return NewTextAdapter(lorem.NewProvider())
}

// NewTextAdapter wraps an existing provider.
func NewTextAdapter(provider llmprovider.Provider) *TextAdapter {
	return &TextAdapter{provider: provider}
}

// Name returns the provider name.
func (a *TextAdapter) Name() string {
	return a.provider.Name().String()
}

// Complete returns the text blocks of one non-streaming response.
func (a *TextAdapter) Complete(ctx context.Context, req *oracle.TextRequest) (string, error) {
	resp, err := a.provider.GenerateResponse(ctx, toLibraryRequest(req))
	if err != nil {
		return "", err
	}
	return responseText(resp), nil
}

// Stream forwards text deltas to onDelta and returns the joined text.
func (a *TextAdapter) Stream(ctx context.Context, req *oracle.TextRequest, onDelta func(delta string)) (string, error) {
	events, err := a.provider.StreamResponse(ctx, toLibraryRequest(req))
	if err != nil {
		return "", err
	}

	var out strings.Builder
	for event := range events {
		if event.Error != nil {
			go drain(events)
			return out.String(), fmt.Errorf("stream: %w", event.Error)
		}
		if text, ok := deltaText(event); ok && text != "" {
			out.WriteString(text)
			if onDelta != nil {
				onDelta(text)
			}
		}
	}
	if err := ctx.Err(); err != nil {
		return out.String(), err
	}
	return out.String(), nil
}

// drain lets the provider goroutine finish after an early return.
func drain(events <-chan llmprovider.StreamEvent) {
	for range events {
	}
}
