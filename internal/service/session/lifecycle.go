package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/ArthurLoboLobo/projeto-estudos/internal/domain"
	models "github.com/ArthurLoboLobo/projeto-estudos/internal/domain/models/study"
	"github.com/ArthurLoboLobo/projeto-estudos/internal/domain/repositories"
	repos "github.com/ArthurLoboLobo/projeto-estudos/internal/domain/repositories/study"
	studySvc "github.com/ArthurLoboLobo/projeto-estudos/internal/domain/services/study"
	"github.com/ArthurLoboLobo/projeto-estudos/internal/service/chunking"
	"github.com/ArthurLoboLobo/projeto-estudos/internal/service/streaming"
)

// PlanBuilder generates and revises draft plans.
type PlanBuilder interface {
	Generate(ctx context.Context, sessionID string, docs []models.Document, language string, emit func(models.ProgressEvent)) (models.DraftPlan, error)
	Revise(ctx context.Context, plan models.DraftPlan, instruction, language string) (models.DraftPlan, error)
}

// SessionChunker chunks every completed document of a session.
type SessionChunker interface {
	RunSession(ctx context.Context, sessionID string, topics []models.Topic, plan models.DraftPlan, language string, emit func(models.ProgressEvent)) (*chunking.RunResult, error)
}

const defaultLanguage = "en"

// lifecycleService implements the LifecycleService interface
type lifecycleService struct {
	sessions  repos.SessionRepository
	documents repos.DocumentRepository
	topics    repos.TopicRepository
	chats     repos.ChatRepository
	tx        repositories.TransactionManager
	planner   PlanBuilder
	chunker   SessionChunker
	runs      *streaming.Runner
	logger    *slog.Logger
}

// NewLifecycleService creates a new lifecycle service
func NewLifecycleService(
	sessions repos.SessionRepository,
	documents repos.DocumentRepository,
	topics repos.TopicRepository,
	chats repos.ChatRepository,
	tx repositories.TransactionManager,
	planner PlanBuilder,
	chunker SessionChunker,
	runs *streaming.Runner,
	logger *slog.Logger,
) studySvc.LifecycleService {
	return &lifecycleService{
		sessions:  sessions,
		documents: documents,
		topics:    topics,
		chats:     chats,
		tx:        tx,
		planner:   planner,
		chunker:   chunker,
		runs:      runs,
		logger:    logger,
	}
}

// requireStatus loads the session and checks its status.
func (s *lifecycleService) requireStatus(ctx context.Context, id, userID string, want models.SessionStatus) (*models.StudySession, error) {
	session, err := s.sessions.GetByID(ctx, id, userID)
	if err != nil {
		return nil, err
	}
	if session.Status != want {
		return nil, &domain.InvalidStateError{Required: string(want), Actual: string(session.Status)}
	}
	return session, nil
}

// requireDraftPlan is requireStatus(EDITING_PLAN) plus a non-null plan.
func (s *lifecycleService) requireDraftPlan(ctx context.Context, id, userID string) (*models.StudySession, error) {
	session, err := s.requireStatus(ctx, id, userID, models.StatusEditingPlan)
	if err != nil {
		return nil, err
	}
	if session.DraftPlan == nil {
		return nil, fmt.Errorf("%w: session has no draft plan", domain.ErrValidation)
	}
	return session, nil
}

func languageOrDefault(language string) string {
	if language == "" {
		return defaultLanguage
	}
	return language
}

// StartPlanGeneration commits UPLOADING -> GENERATING_PLAN and builds the
// plan in the background.
func (s *lifecycleService) StartPlanGeneration(ctx context.Context, sessionID, userID, language string) (<-chan models.ProgressEvent, error) {
	if _, err := s.requireStatus(ctx, sessionID, userID, models.StatusUploading); err != nil {
		return nil, err
	}

	docs, err := s.documents.ListCompleted(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return nil, fmt.Errorf("%w: no documents have finished processing", domain.ErrValidation)
	}

	if err := s.sessions.Transition(ctx, sessionID, repos.StatusTransition{
		From: models.StatusUploading,
		To:   models.StatusGeneratingPlan,
	}); err != nil {
		return nil, err
	}

	language = languageOrDefault(language)
	logger := s.logger.With("session_id", sessionID, "run", "plan")

	run, started := s.runs.Start(planRunKey(sessionID), func(bg context.Context, emit func(models.ProgressEvent)) {
		plan, err := s.planner.Generate(bg, sessionID, docs, language, emit)
		if err == nil {
			err = s.sessions.Transition(bg, sessionID, repos.StatusTransition{
				From:         models.StatusGeneratingPlan,
				To:           models.StatusEditingPlan,
				Plan:         &plan,
				ClearHistory: true,
			})
		}
		if err != nil {
			logger.Error("plan generation failed", "error", err)
			s.rollback(context.WithoutCancel(bg), sessionID, models.StatusGeneratingPlan, models.StatusUploading, logger)
			emit(failureEvent(err))
			return
		}

		logger.Info("plan generated", "documents", len(docs), "topics", len(plan))
		emit(models.NewProgressEvent(models.EventCompleted, models.PlanCompletedData{Plan: plan}))
	})
	if !started {
		s.rollback(ctx, sessionID, models.StatusGeneratingPlan, models.StatusUploading, logger)
		return nil, &domain.ConflictError{
			Message:      "plan generation already running",
			ResourceType: "session",
			ResourceID:   sessionID,
		}
	}

	logger.Info("plan generation started", "documents", len(docs), "language", language)
	return run.Subscribe(ctx), nil
}

// rollback reverts a failed run's status. A lost race is logged only.
func (s *lifecycleService) rollback(ctx context.Context, sessionID string, from, to models.SessionStatus, logger *slog.Logger) {
	err := s.sessions.Transition(ctx, sessionID, repos.StatusTransition{From: from, To: to})
	if err != nil {
		logger.Error("failed to roll back session status", "from", from, "to", to, "error", err)
		return
	}
	logger.Info("session status rolled back", "from", from, "to", to)
}

// RevisePlan asks the planning model to apply an instruction
func (s *lifecycleService) RevisePlan(ctx context.Context, req *studySvc.RevisePlanRequest) (*models.StudySession, error) {
	if err := validateReviseRequest(req); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	session, err := s.requireDraftPlan(ctx, req.SessionID, req.UserID)
	if err != nil {
		return nil, err
	}

	revised, err := s.planner.Revise(ctx, session.DraftPlan, req.Instruction, languageOrDefault(req.Language))
	if err != nil {
		return nil, err
	}

	return s.pushPlan(ctx, session, revised, "plan revised")
}

// UpdatePlan replaces the draft plan with a user-edited one
func (s *lifecycleService) UpdatePlan(ctx context.Context, req *studySvc.UpdatePlanRequest) (*models.StudySession, error) {
	if err := validatePlan(req.Plan); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	session, err := s.requireDraftPlan(ctx, req.SessionID, req.UserID)
	if err != nil {
		return nil, err
	}

	return s.pushPlan(ctx, session, req.Plan.Clone(), "plan updated")
}

// pushPlan records the current plan on the history and installs plan.
func (s *lifecycleService) pushPlan(ctx context.Context, session *models.StudySession, plan models.DraftPlan, msg string) (*models.StudySession, error) {
	history := make([]models.DraftPlan, 0, len(session.PlanHistory)+1)
	history = append(history, session.PlanHistory...)
	history = append(history, session.DraftPlan.Clone())

	updated, err := s.sessions.EditPlan(ctx, session.ID, repos.PlanEdit{
		Plan:              plan,
		History:           history,
		ExpectedUpdatedAt: session.UpdatedAt,
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info(msg,
		"session_id", session.ID,
		"topics", len(plan),
		"history", len(history),
	)
	return updated, nil
}

// UndoPlan restores the most recent history snapshot
func (s *lifecycleService) UndoPlan(ctx context.Context, sessionID, userID string) (*models.StudySession, error) {
	session, err := s.requireDraftPlan(ctx, sessionID, userID)
	if err != nil {
		return nil, err
	}
	if !session.CanUndo() {
		return nil, &domain.NothingToUndoError{}
	}

	last := len(session.PlanHistory) - 1
	updated, err := s.sessions.EditPlan(ctx, sessionID, repos.PlanEdit{
		Plan:              session.PlanHistory[last],
		History:           session.PlanHistory[:last],
		ExpectedUpdatedAt: session.UpdatedAt,
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("plan undone", "session_id", sessionID, "history", last)
	return updated, nil
}

// SetTopicCompletion toggles a draft topic's completion flag
func (s *lifecycleService) SetTopicCompletion(ctx context.Context, req *studySvc.TopicCompletionRequest) (*models.StudySession, error) {
	session, err := s.requireDraftPlan(ctx, req.SessionID, req.UserID)
	if err != nil {
		return nil, err
	}

	i, ok := session.DraftPlan.Find(req.OrderIndex)
	if !ok {
		return nil, &domain.NotFoundError{Message: fmt.Sprintf("topic %d not found in plan", req.OrderIndex)}
	}

	plan := session.DraftPlan.Clone()
	plan[i].IsCompleted = req.IsCompleted

	return s.sessions.EditPlan(ctx, session.ID, repos.PlanEdit{
		Plan:              plan,
		History:           session.PlanHistory,
		ExpectedUpdatedAt: session.UpdatedAt,
	})
}

// FinalizePlan materializes topics and chats in one transaction and moves
// the session to CHUNKING. Order indexes are renumbered 1..n in plan order.
func (s *lifecycleService) FinalizePlan(ctx context.Context, sessionID, userID string) (*studySvc.FinalizeResult, error) {
	session, err := s.requireDraftPlan(ctx, sessionID, userID)
	if err != nil {
		return nil, err
	}
	if len(session.DraftPlan) == 0 {
		return nil, fmt.Errorf("%w: plan has no topics", domain.ErrValidation)
	}

	plan := session.DraftPlan.Clone()
	for i := range plan {
		plan[i].OrderIndex = i + 1
	}

	result := &studySvc.FinalizeResult{}
	err = s.tx.ExecTx(ctx, func(ctx context.Context) error {
		// The transition comes first so a concurrent finalize fails before
		// anything is written.
		if err := s.sessions.Transition(ctx, sessionID, repos.StatusTransition{
			From:         models.StatusEditingPlan,
			To:           models.StatusChunking,
			Plan:         &plan,
			ClearHistory: true,
		}); err != nil {
			return err
		}

		// Leftovers from a chunking run that rolled back.
		if err := s.chats.DeleteBySession(ctx, sessionID); err != nil {
			return err
		}
		if err := s.topics.DeleteBySession(ctx, sessionID); err != nil {
			return err
		}

		for _, t := range plan {
			topic := &models.Topic{
				SessionID:   sessionID,
				OrderIndex:  t.OrderIndex,
				Title:       t.Title,
				Subtopics:   append([]string{}, t.Subtopics...),
				IsCompleted: t.IsCompleted,
			}
			if err := s.topics.Create(ctx, topic); err != nil {
				return fmt.Errorf("create topic %d: %w", t.OrderIndex, err)
			}
			result.Topics = append(result.Topics, *topic)

			topicID := topic.ID
			chat := &models.Chat{
				SessionID:   sessionID,
				TopicID:     &topicID,
				Type:        models.ChatTypeTopicSpecific,
				IsCompleted: t.IsCompleted,
			}
			if err := s.chats.Create(ctx, chat); err != nil {
				return fmt.Errorf("create chat for topic %d: %w", t.OrderIndex, err)
			}
			result.Chats = append(result.Chats, *chat)
		}

		review := &models.Chat{SessionID: sessionID, Type: models.ChatTypeGeneralReview}
		if err := s.chats.Create(ctx, review); err != nil {
			return fmt.Errorf("create review chat: %w", err)
		}
		result.Chats = append(result.Chats, *review)
		return nil
	})
	if err != nil {
		return nil, err
	}

	result.Session, err = s.sessions.GetByID(ctx, sessionID, userID)
	if err != nil {
		return nil, err
	}

	s.logger.Info("plan finalized",
		"session_id", sessionID,
		"topics", len(result.Topics),
		"chats", len(result.Chats),
	)
	return result, nil
}

// StartChunking chunks the session's documents in the background. Success
// moves CHUNKING -> ACTIVE; failure rolls back to EDITING_PLAN.
func (s *lifecycleService) StartChunking(ctx context.Context, sessionID, userID, language string) (<-chan models.ProgressEvent, error) {
	session, err := s.requireStatus(ctx, sessionID, userID, models.StatusChunking)
	if err != nil {
		return nil, err
	}

	topics, err := s.topics.ListBySession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	language = languageOrDefault(language)
	logger := s.logger.With("session_id", sessionID, "run", "chunking")
	plan := session.DraftPlan

	run, started := s.runs.Start(chunkingRunKey(sessionID), func(bg context.Context, emit func(models.ProgressEvent)) {
		result, err := s.chunker.RunSession(bg, sessionID, topics, plan, language, emit)
		if err == nil {
			err = s.sessions.Transition(bg, sessionID, repos.StatusTransition{
				From: models.StatusChunking,
				To:   models.StatusActive,
			})
		}
		if err != nil {
			logger.Error("chunking failed", "error", err)
			if !errors.Is(err, domain.ErrInvalidState) {
				s.rollback(context.WithoutCancel(bg), sessionID, models.StatusChunking, models.StatusEditingPlan, logger)
			}
			emit(failureEvent(err))
			return
		}

		emit(models.NewProgressEvent(models.EventCompleted, models.ChunkingCompletedData{
			Documents: result.Documents,
			Failed:    result.Failed,
			Chunks:    result.Chunks,
		}))
	})
	if started {
		logger.Info("chunking started", "topics", len(topics), "language", language)
	} else {
		logger.Info("chunking already running, attaching")
	}
	return run.Subscribe(ctx), nil
}

// FollowRun replays and follows the plan or chunking run of a session the
// user owns. Finished runs stay available for streaming.DefaultRetention.
func (s *lifecycleService) FollowRun(ctx context.Context, sessionID, userID string, kind studySvc.RunKind) (<-chan models.ProgressEvent, error) {
	if _, err := s.sessions.GetByID(ctx, sessionID, userID); err != nil {
		return nil, err
	}

	var key string
	switch kind {
	case studySvc.RunPlan:
		key = planRunKey(sessionID)
	case studySvc.RunChunking:
		key = chunkingRunKey(sessionID)
	default:
		return nil, fmt.Errorf("%w: unknown run %q", domain.ErrValidation, kind)
	}

	run, ok := s.runs.Get(key)
	if !ok {
		return nil, fmt.Errorf("%w: no %s run for session %s", domain.ErrNotFound, kind, sessionID)
	}
	return run.Subscribe(ctx), nil
}

func planRunKey(sessionID string) string     { return "plan:" + sessionID }
func chunkingRunKey(sessionID string) string { return "chunking:" + sessionID }

func failureEvent(err error) models.ProgressEvent {
	return models.NewProgressEvent(models.EventError, models.ErrorData{Message: err.Error()})
}
