// Package extraction turns a PDF into plain text by rendering each page and
// transcribing it with a vision model.
package extraction

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ArthurLoboLobo/projeto-estudos/internal/config"
	"github.com/ArthurLoboLobo/projeto-estudos/internal/domain/services/oracle"
	"github.com/ArthurLoboLobo/projeto-estudos/internal/service/retry"
)

// ErrNoPages is returned when the rasterizer produced nothing.
var ErrNoPages = errors.New("pdf has no pages")

// Pipeline extracts document text page by page.
type Pipeline struct {
	rasterizer    Rasterizer
	vision        oracle.VisionExtractor
	prompt        string
	policy        retry.Policy
	maxConcurrent int
	logger        *slog.Logger
}

// NewPipeline creates an extraction pipeline. maxConcurrent caps the vision
// calls in flight; 0 uses config.MaxConcurrentPages.
func NewPipeline(
	rasterizer Rasterizer,
	vision oracle.VisionExtractor,
	prompt string,
	policy retry.Policy,
	maxConcurrent int,
	logger *slog.Logger,
) *Pipeline {
	if maxConcurrent <= 0 {
		maxConcurrent = config.MaxConcurrentPages
	}
	return &Pipeline{
		rasterizer:    rasterizer,
		vision:        vision,
		prompt:        prompt,
		policy:        policy,
		maxConcurrent: maxConcurrent,
		logger:        logger,
	}
}

// Extract renders pdf and returns the page texts formatted as
// "--- Page N ---\n{text}" joined by blank lines. Any page that still fails
// after retries fails the whole extraction.
func (p *Pipeline) Extract(ctx context.Context, pdf []byte) (string, error) {
	start := time.Now()

	pages, err := p.rasterizer.Rasterize(ctx, pdf)
	if err != nil {
		return "", fmt.Errorf("rasterize pdf: %w", err)
	}
	if len(pages) == 0 {
		return "", ErrNoPages
	}

	texts := make([]string, len(pages))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.maxConcurrent)
	for i, image := range pages {
		g.Go(func() error {
			name := fmt.Sprintf("vision.page_%d", i+1)
			text, err := retry.Do(gctx, p.policy, name, func(ctx context.Context) (string, error) {
				return p.vision.ExtractPageText(ctx, image, "image/png", p.prompt)
			})
			if err != nil {
				return fmt.Errorf("page %d: %w", i+1, err)
			}
			texts[i] = text
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return "", err
	}

	var b strings.Builder
	for i, text := range texts {
		if i > 0 {
			b.WriteString("\n\n")
		}
		fmt.Fprintf(&b, "--- Page %d ---\n%s", i+1, text)
	}

	p.logger.Info("document text extracted",
		"pages", len(pages),
		"chars", b.Len(),
		"duration", time.Since(start).String(),
	)
	return b.String(), nil
}
