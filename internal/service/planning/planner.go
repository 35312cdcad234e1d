// Package planning builds and revises a session's draft study plan with the
// text model.
package planning

import (
	"context"
	"fmt"
	"log/slog"

	models "github.com/ArthurLoboLobo/projeto-estudos/internal/domain/models/study"
	"github.com/ArthurLoboLobo/projeto-estudos/internal/domain/services/oracle"
	"github.com/ArthurLoboLobo/projeto-estudos/internal/service/prompts"
)

// Planner folds documents into a plan one at a time.
type Planner struct {
	text    oracle.TextGenerator
	prompts *prompts.Catalog
	model   string
	logger  *slog.Logger
}

// NewPlanner creates a planner that calls model through text.
func NewPlanner(text oracle.TextGenerator, catalog *prompts.Catalog, model string, logger *slog.Logger) *Planner {
	return &Planner{
		text:    text,
		prompts: catalog,
		model:   model,
		logger:  logger,
	}
}

// Generate builds a plan from docs, which must be the session's COMPLETED
// documents ordered by created_at. After each document it emits
// document_processed with the plan so far. The first failure aborts the
// fold. Persisting the result is up to the caller.
func (p *Planner) Generate(
	ctx context.Context,
	sessionID string,
	docs []models.Document,
	language string,
	emit func(models.ProgressEvent),
) (models.DraftPlan, error) {
	if len(docs) == 0 {
		return nil, fmt.Errorf("no completed documents found")
	}

	lang := prompts.LanguageName(language)
	system := p.prompts.System(prompts.PlanGeneration)

	var plan models.DraftPlan
	for i := range docs {
		user, err := p.prompts.Render(prompts.PlanGeneration, prompts.PlanGenerationData{
			Language:     lang,
			CurrentPlan:  plan.JSON(),
			DocumentText: docs[i].Text(),
		})
		if err != nil {
			return nil, err
		}

		response, err := p.text.Complete(ctx, &oracle.TextRequest{
			SystemPrompt: system,
			UserPrompt:   user,
			Model:        p.model,
		})
		if err != nil {
			return nil, fmt.Errorf("plan generation for document %s: %w", docs[i].ID, err)
		}

		plan, err = ParsePlan(response)
		if err != nil {
			return nil, err
		}

		p.logger.Info("plan updated from document",
			"session_id", sessionID,
			"document_id", docs[i].ID,
			"doc", i+1,
			"total", len(docs),
			"topics", len(plan),
		)

		if emit != nil {
			emit(models.NewProgressEvent(models.EventDocumentProcessed, models.DocumentProcessedData{
				Doc:   i + 1,
				Total: len(docs),
				Plan:  plan.Clone(),
			}))
		}
	}

	return plan, nil
}

// Revise applies a free-text instruction to plan with one model call.
func (p *Planner) Revise(ctx context.Context, plan models.DraftPlan, instruction, language string) (models.DraftPlan, error) {
	user, err := p.prompts.Render(prompts.PlanRevision, prompts.PlanRevisionData{
		Language:    prompts.LanguageName(language),
		CurrentPlan: plan.JSON(),
		Instruction: instruction,
	})
	if err != nil {
		return nil, err
	}

	response, err := p.text.Complete(ctx, &oracle.TextRequest{
		SystemPrompt: p.prompts.System(prompts.PlanRevision),
		UserPrompt:   user,
		Model:        p.model,
	})
	if err != nil {
		return nil, fmt.Errorf("plan revision: %w", err)
	}

	revised, err := ParsePlan(response)
	if err != nil {
		return nil, err
	}

	p.logger.Info("plan revised", "topics_before", len(plan), "topics_after", len(revised))
	return revised, nil
}
