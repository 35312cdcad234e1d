package llm

import (
	"context"

	"github.com/ArthurLoboLobo/projeto-estudos/internal/domain/services/oracle"
	"github.com/ArthurLoboLobo/projeto-estudos/internal/service/retry"
)

// RetryingTextGenerator retries Complete under a backoff policy. Stream is
// passed through untouched: deltas already delivered cannot be taken back.
type RetryingTextGenerator struct {
	next   oracle.TextGenerator
	policy retry.Policy
}

// NewRetryingTextGenerator wraps next with policy.
func NewRetryingTextGenerator(next oracle.TextGenerator, policy retry.Policy) *RetryingTextGenerator {
	return &RetryingTextGenerator{next: next, policy: policy}
}

func (g *RetryingTextGenerator) Complete(ctx context.Context, req *oracle.TextRequest) (string, error) {
	return retry.Do(ctx, g.policy, g.next.Name()+".complete", func(ctx context.Context) (string, error) {
		return g.next.Complete(ctx, req)
	})
}

func (g *RetryingTextGenerator) Stream(ctx context.Context, req *oracle.TextRequest, onDelta func(string)) (string, error) {
	return g.next.Stream(ctx, req, onDelta)
}

func (g *RetryingTextGenerator) Name() string {
	return g.next.Name()
}

// RetryingEmbedder retries Embed under a backoff policy.
type RetryingEmbedder struct {
	next   oracle.Embedder
	policy retry.Policy
}

// NewRetryingEmbedder wraps next with policy.
func NewRetryingEmbedder(next oracle.Embedder, policy retry.Policy) *RetryingEmbedder {
	return &RetryingEmbedder{next: next, policy: policy}
}

func (e *RetryingEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	return retry.Do(ctx, e.policy, "embed", func(ctx context.Context) ([][]float32, error) {
		return e.next.Embed(ctx, texts)
	})
}
