package llm

import (
	"fmt"
	"log/slog"

	"github.com/ArthurLoboLobo/projeto-estudos/internal/config"
	"github.com/ArthurLoboLobo/projeto-estudos/internal/domain/services/oracle"
	"github.com/ArthurLoboLobo/projeto-estudos/internal/service/llm/adapters"
	"github.com/ArthurLoboLobo/projeto-estudos/internal/service/llm/providers/anthropic"
	"github.com/ArthurLoboLobo/projeto-estudos/internal/service/llm/providers/openrouter"
	"github.com/ArthurLoboLobo/projeto-estudos/internal/service/retry"
)

// Oracles bundles the model-backed collaborators of the pipelines.
type Oracles struct {
	Text     oracle.TextGenerator
	Embedder oracle.Embedder
	Vision   oracle.VisionExtractor
}

// ProviderFactory creates and manages LLM provider instances
type ProviderFactory struct {
	config *config.Config
	logger *slog.Logger
}

// NewProviderFactory creates a new provider factory
func NewProviderFactory(cfg *config.Config, logger *slog.Logger) *ProviderFactory {
	return &ProviderFactory{
		config: cfg,
		logger: logger,
	}
}

// Build creates every oracle. Embedding and vision always go through
// OpenRouter; text generation uses the configured TEXT_PROVIDER. Complete
// and Embed calls are wrapped with the retry policy.
func (f *ProviderFactory) Build() (*Oracles, error) {
	router, err := openrouter.NewClientFromConfig(f.config, f.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create OpenRouter client: %w", err)
	}

	text, err := f.GetTextProvider(f.config.TextProvider)
	if err != nil {
		return nil, err
	}

	policy := retry.FromConfig(f.config, f.logger)
	return &Oracles{
		Text:     NewRetryingTextGenerator(text, policy),
		Embedder: NewRetryingEmbedder(router, policy),
		Vision:   router,
	}, nil
}

// GetTextProvider returns a text generator for the given provider name
//
// Supported providers:
//   - "openrouter" - any OpenRouter model (default)
//   - "anthropic" - Claude models via Anthropic API
//   - "lorem" - offline filler text for local runs
func (f *ProviderFactory) GetTextProvider(providerName string) (oracle.TextGenerator, error) {
	switch providerName {
	case "", "openrouter":
		provider, err := adapters.NewOpenRouterAdapter(f.config.OpenRouterAPIKey)
		if err != nil {
			return nil, fmt.Errorf("failed to create OpenRouter provider: %w", err)
		}
		return provider, nil

	case "anthropic":
		return f.createAnthropicProvider()

	case "lorem":
		f.logger.Warn("using lorem text provider, plans will be filler text")
		return adapters.NewLoremAdapter(), nil

	default:
		return nil, fmt.Errorf("unsupported provider: %s", providerName)
	}
}

// createAnthropicProvider creates an Anthropic provider instance
func (f *ProviderFactory) createAnthropicProvider() (oracle.TextGenerator, error) {
	if f.config.AnthropicAPIKey == "" {
		return nil, fmt.Errorf("ANTHROPIC_API_KEY environment variable not set")
	}

	provider, err := anthropic.NewProvider(f.config.AnthropicAPIKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create Anthropic provider: %w", err)
	}

	return provider, nil
}
