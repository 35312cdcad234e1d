package llm

import (
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ArthurLoboLobo/projeto-estudos/internal/config"
	"github.com/ArthurLoboLobo/projeto-estudos/internal/service/llm/adapters"
)

func newTestFactory(cfg *config.Config) *ProviderFactory {
	return NewProviderFactory(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestGetTextProvider(t *testing.T) {
	f := newTestFactory(&config.Config{OpenRouterAPIKey: "or-key"})

	for _, name := range []string{"", "openrouter", "lorem"} {
		t.Run(name, func(t *testing.T) {
			got, err := f.GetTextProvider(name)
			require.NoError(t, err)
			assert.IsType(t, &adapters.TextAdapter{}, got)
		})
	}
}

func TestGetTextProvider_Errors(t *testing.T) {
	f := newTestFactory(&config.Config{})

	_, err := f.GetTextProvider("openrouter")
	assert.ErrorContains(t, err, "OPENROUTER_API_KEY")

	_, err = f.GetTextProvider("anthropic")
	assert.ErrorContains(t, err, "ANTHROPIC_API_KEY")

	_, err = f.GetTextProvider("gemini")
	assert.ErrorContains(t, err, "unsupported provider")
}

func TestBuild_WrapsWithRetry(t *testing.T) {
	f := newTestFactory(&config.Config{
		OpenRouterAPIKey: "or-key",
		TextProvider:     "lorem",
	})

	oracles, err := f.Build()
	require.NoError(t, err)
	assert.IsType(t, &RetryingTextGenerator{}, oracles.Text)
	assert.IsType(t, &RetryingEmbedder{}, oracles.Embedder)
	assert.NotNil(t, oracles.Vision)
}
