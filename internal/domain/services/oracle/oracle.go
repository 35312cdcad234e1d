package oracle

import "context"

// TextGenerator produces text from a system and user prompt.
// Implementations: OpenRouter chat completions, Anthropic messages.
type TextGenerator interface {
	// Complete returns the full response text.
	Complete(ctx context.Context, req *TextRequest) (string, error)

	// Stream calls onDelta for each text fragment as it arrives and returns
	// the accumulated text. Streaming calls are never retried.
	Stream(ctx context.Context, req *TextRequest, onDelta func(delta string)) (string, error)

	// Name returns the provider name (e.g., "openrouter", "anthropic")
	Name() string
}

// TextRequest is one text generation call.
type TextRequest struct {
	SystemPrompt string
	UserPrompt   string
	Model        string
	// MaxTokens of 0 lets the provider pick its default.
	MaxTokens int
}

// Embedder turns texts into fixed-length vectors, one per input, in order.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// VisionExtractor transcribes the text of one rendered page image.
type VisionExtractor interface {
	ExtractPageText(ctx context.Context, image []byte, mimeType, prompt string) (string, error)
}
