// Package chunking decomposes extracted document text into theory and
// problem chunks linked to the finalized topics, embeds them and persists
// them.
package chunking

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/ArthurLoboLobo/projeto-estudos/internal/config"
	models "github.com/ArthurLoboLobo/projeto-estudos/internal/domain/models/study"
	"github.com/ArthurLoboLobo/projeto-estudos/internal/domain/repositories"
	repos "github.com/ArthurLoboLobo/projeto-estudos/internal/domain/repositories/study"
	"github.com/ArthurLoboLobo/projeto-estudos/internal/domain/services/oracle"
	"github.com/ArthurLoboLobo/projeto-estudos/internal/service/analysis"
	"github.com/ArthurLoboLobo/projeto-estudos/internal/service/prompts"
)

// DocumentResult summarizes one ProcessDocument call.
type DocumentResult struct {
	DocumentID string
	Chunks     int
	Embedded   int
	// Fallback is set when every analysis attempt failed and the raw text
	// was split instead.
	Fallback bool
	// Skipped is set when the document has no text.
	Skipped bool
	// EmbeddingFailed is set when chunks were stored without vectors.
	EmbeddingFailed bool
}

// RunResult summarizes a RunSession call.
type RunResult struct {
	Documents int
	Failed    int
	Chunks    int
}

// Pipeline runs document analysis, chunk construction and embedding.
type Pipeline struct {
	text        oracle.TextGenerator
	embedder    oracle.Embedder
	prompts     *prompts.Catalog
	model       string
	chunks      repos.ChunkRepository
	documents   repos.DocumentRepository
	tx          repositories.TransactionManager
	maxAttempts int
	logger      *slog.Logger
}

// NewPipeline creates a chunking pipeline.
func NewPipeline(
	text oracle.TextGenerator,
	embedder oracle.Embedder,
	catalog *prompts.Catalog,
	model string,
	chunks repos.ChunkRepository,
	documents repos.DocumentRepository,
	tx repositories.TransactionManager,
	logger *slog.Logger,
) *Pipeline {
	return &Pipeline{
		text:        text,
		embedder:    embedder,
		prompts:     catalog,
		model:       model,
		chunks:      chunks,
		documents:   documents,
		tx:          tx,
		maxAttempts: config.MaxAnalysisAttempts,
		logger:      logger,
	}
}

// ProcessDocument chunks one document. It replaces any chunks the document
// already has, so running it twice leaves one set. Analysis and embedding
// failures degrade the result instead of failing; only persistence errors
// are returned.
func (p *Pipeline) ProcessDocument(
	ctx context.Context,
	doc *models.Document,
	topics []models.Topic,
	plan models.DraftPlan,
	language string,
) (*DocumentResult, error) {
	result := &DocumentResult{DocumentID: doc.ID}
	logger := p.logger.With("document_id", doc.ID, "session_id", doc.SessionID)

	if strings.TrimSpace(doc.Text()) == "" {
		logger.Warn("document has no content text, skipping")
		result.Skipped = true
		return result, nil
	}

	index := newTopicIndex(topics)
	docAnalysis := p.analyze(ctx, doc, plan, language, logger)

	var set *models.ChunkSet
	if docAnalysis == nil {
		logger.Warn("all analysis attempts failed, using fallback chunks")
		set = fallbackChunkSet(doc)
		result.Fallback = true
	} else {
		set = buildChunkSet(doc, docAnalysis, index)
	}

	result.Embedded, result.EmbeddingFailed = p.embed(ctx, set, logger)

	err := p.tx.ExecTx(ctx, func(ctx context.Context) error {
		if err := p.chunks.DeleteByDocument(ctx, doc.ID); err != nil {
			return err
		}
		if err := p.chunks.InsertSet(ctx, set); err != nil {
			return err
		}
		if docAnalysis != nil {
			return p.documents.SetFileDescription(ctx, doc.ID, docAnalysis.FileDescription)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("persist chunks: %w", err)
	}

	result.Chunks = set.Count()
	logger.Info("document chunked",
		"roots", len(set.Problems),
		"chunks", result.Chunks,
		"embedded", result.Embedded,
		"fallback", result.Fallback,
	)
	return result, nil
}

// analyze asks the model for a tagged analysis, up to maxAttempts times.
// Later attempts include the previous error. Returns nil when every attempt
// failed.
func (p *Pipeline) analyze(ctx context.Context, doc *models.Document, plan models.DraftPlan, language string, logger *slog.Logger) *models.DocumentAnalysis {
	data := prompts.ChunkingData{
		Language:     prompts.LanguageName(language),
		StudyPlan:    formatPlan(plan),
		DocumentText: doc.Text(),
	}
	system := p.prompts.System(prompts.Chunking)

	for attempt := 0; attempt < p.maxAttempts; attempt++ {
		name := prompts.Chunking
		if attempt > 0 {
			name = prompts.ChunkingRetry
		}

		user, err := p.prompts.Render(name, data)
		if err != nil {
			logger.Error("failed to render chunking prompt", "error", err)
			return nil
		}

		response, err := p.text.Complete(ctx, &oracle.TextRequest{
			SystemPrompt: system,
			UserPrompt:   user,
			Model:        p.model,
		})
		if err != nil {
			data.Error = err.Error()
			logger.Warn("analysis call failed", "attempt", attempt+1, "max_attempts", p.maxAttempts, "error", err)
			if ctx.Err() != nil {
				return nil
			}
			continue
		}

		result, err := analysis.Parse(response)
		if err != nil {
			data.Error = err.Error()
			logger.Warn("analysis response rejected", "attempt", attempt+1, "max_attempts", p.maxAttempts, "error", err)
			continue
		}
		return result
	}
	return nil
}

// embed vectors every non-blank embeddable chunk in one call. On failure the
// chunks keep nil vectors.
func (p *Pipeline) embed(ctx context.Context, set *models.ChunkSet, logger *slog.Logger) (int, bool) {
	var targets []models.Embeddable
	var texts []string
	for _, c := range set.Embeddables() {
		if strings.TrimSpace(c.Base().Text) == "" {
			continue
		}
		targets = append(targets, c)
		texts = append(texts, c.Base().Text)
	}
	if len(targets) == 0 {
		return 0, false
	}

	vectors, err := p.embedder.Embed(ctx, texts)
	if err == nil && len(vectors) != len(targets) {
		err = fmt.Errorf("got %d embeddings for %d chunks", len(vectors), len(targets))
	}
	if err == nil {
		err = checkDimensions(vectors)
	}
	if err != nil {
		logger.Error("failed to compute embeddings, saving chunks without vectors", "error", err)
		return 0, true
	}

	for i, c := range targets {
		c.SetEmbedding(vectors[i])
	}
	return len(targets), false
}

// checkDimensions rejects vectors that would not fit the vector(768)
// column.
func checkDimensions(vectors [][]float32) error {
	for i, v := range vectors {
		if len(v) != config.EmbeddingDimensions {
			return fmt.Errorf("embedding %d has %d dimensions, want %d", i, len(v), config.EmbeddingDimensions)
		}
	}
	return nil
}

// RunSession deletes the session's chunks and chunks every COMPLETED
// document in created_at order. A failing document is reported in its
// document_chunked event and the run goes on; the run fails only when every
// document failed.
func (p *Pipeline) RunSession(
	ctx context.Context,
	sessionID string,
	topics []models.Topic,
	plan models.DraftPlan,
	language string,
	emit func(models.ProgressEvent),
) (*RunResult, error) {
	start := time.Now()

	deleted, err := p.chunks.DeleteBySession(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("clear session chunks: %w", err)
	}
	if deleted > 0 {
		p.logger.Info("cleared previous chunks", "session_id", sessionID, "deleted", deleted)
	}

	docs, err := p.documents.ListCompleted(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("list completed documents: %w", err)
	}

	run := &RunResult{Documents: len(docs)}
	var lastErr error
	for i := range docs {
		doc := &docs[i]
		data := models.DocumentChunkedData{Doc: i + 1, Total: len(docs), DocumentID: doc.ID}

		res, err := p.ProcessDocument(ctx, doc, topics, plan, language)
		if err != nil {
			run.Failed++
			lastErr = err
			p.logger.Error("document chunking failed",
				"session_id", sessionID,
				"document_id", doc.ID,
				"error", err,
			)
			data.Failed = true
			data.Error = err.Error()
		} else {
			run.Chunks += res.Chunks
			data.Chunks = res.Chunks
			data.Fallback = res.Fallback
			data.Skipped = res.Skipped
		}

		if emit != nil {
			emit(models.NewProgressEvent(models.EventDocumentChunked, data))
		}
	}

	if run.Documents > 0 && run.Failed == run.Documents {
		return run, fmt.Errorf("all %d documents failed to chunk: %w", run.Documents, lastErr)
	}

	p.logger.Info("session chunked",
		"session_id", sessionID,
		"documents", run.Documents,
		"failed", run.Failed,
		"chunks", run.Chunks,
		"duration", time.Since(start).String(),
	)
	return run, nil
}
