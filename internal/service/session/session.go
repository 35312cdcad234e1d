// Package session implements study sessions and the lifecycle state machine
// that gates plan generation, plan editing, finalization and chunking.
package session

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/ArthurLoboLobo/projeto-estudos/internal/domain"
	models "github.com/ArthurLoboLobo/projeto-estudos/internal/domain/models/study"
	repos "github.com/ArthurLoboLobo/projeto-estudos/internal/domain/repositories/study"
	"github.com/ArthurLoboLobo/projeto-estudos/internal/domain/services"
	studySvc "github.com/ArthurLoboLobo/projeto-estudos/internal/domain/services/study"
)

// sessionService implements the SessionService interface
type sessionService struct {
	sessions  repos.SessionRepository
	documents repos.DocumentRepository
	topics    repos.TopicRepository
	chats     repos.ChatRepository
	chunks    repos.ChunkRepository
	storage   services.ObjectStorage
	logger    *slog.Logger
}

// NewSessionService creates a new session service
func NewSessionService(
	sessions repos.SessionRepository,
	documents repos.DocumentRepository,
	topics repos.TopicRepository,
	chats repos.ChatRepository,
	chunks repos.ChunkRepository,
	storage services.ObjectStorage,
	logger *slog.Logger,
) studySvc.SessionService {
	return &sessionService{
		sessions:  sessions,
		documents: documents,
		topics:    topics,
		chats:     chats,
		chunks:    chunks,
		storage:   storage,
		logger:    logger,
	}
}

// CreateSession creates a new session in UPLOADING status
func (s *sessionService) CreateSession(ctx context.Context, req *studySvc.CreateSessionRequest) (*models.StudySession, error) {
	if err := validateCreateRequest(req); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	session := &models.StudySession{
		UserID:      req.UserID,
		Title:       strings.TrimSpace(req.Title),
		Description: req.Description,
		Status:      models.StatusUploading,
		PlanHistory: []models.DraftPlan{},
	}

	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, err
	}

	s.logger.Info("session created",
		"id", session.ID,
		"title", session.Title,
		"user_id", req.UserID,
	)

	return session, nil
}

// GetSession retrieves a session by ID
func (s *sessionService) GetSession(ctx context.Context, id, userID string) (*models.StudySession, error) {
	return s.sessions.GetByID(ctx, id, userID)
}

// ListSessions retrieves all sessions for a user
func (s *sessionService) ListSessions(ctx context.Context, userID string) ([]models.StudySession, error) {
	return s.sessions.List(ctx, userID)
}

// DeleteSession deletes a session. Stored files are removed afterwards,
// best effort.
func (s *sessionService) DeleteSession(ctx context.Context, id, userID string) error {
	// Verify session exists first (provides better error message)
	if _, err := s.sessions.GetByID(ctx, id, userID); err != nil {
		return err
	}

	docs, err := s.documents.ListBySession(ctx, id)
	if err != nil {
		return err
	}

	if err := s.sessions.Delete(ctx, id, userID); err != nil {
		return err
	}

	for _, doc := range docs {
		if err := s.storage.Delete(ctx, doc.FilePath); err != nil {
			s.logger.Warn("failed to delete stored file",
				"session_id", id,
				"document_id", doc.ID,
				"error", err,
			)
		}
	}

	s.logger.Info("session deleted",
		"id", id,
		"user_id", userID,
		"documents", len(docs),
	)

	return nil
}

// ListTopics retrieves the finalized topics of a session
func (s *sessionService) ListTopics(ctx context.Context, id, userID string) ([]models.Topic, error) {
	if _, err := s.sessions.GetByID(ctx, id, userID); err != nil {
		return nil, err
	}
	return s.topics.ListBySession(ctx, id)
}

// ListChats retrieves the chats of a session
func (s *sessionService) ListChats(ctx context.Context, id, userID string) ([]models.Chat, error) {
	if _, err := s.sessions.GetByID(ctx, id, userID); err != nil {
		return nil, err
	}
	return s.chats.ListBySession(ctx, id)
}

// ListChunks retrieves the chunks of a session
func (s *sessionService) ListChunks(ctx context.Context, id, userID string) ([]models.ChunkView, error) {
	if _, err := s.sessions.GetByID(ctx, id, userID); err != nil {
		return nil, err
	}
	return s.chunks.ListBySession(ctx, id)
}
