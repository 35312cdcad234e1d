package study

import (
	"context"

	models "github.com/ArthurLoboLobo/projeto-estudos/internal/domain/models/study"
)

// CreateSessionRequest represents a request to create a study session
type CreateSessionRequest struct {
	UserID      string  `json:"-"`
	Title       string  `json:"title"`
	Description *string `json:"description"`
}

// SessionService defines operations on sessions outside the plan lifecycle
type SessionService interface {
	// CreateSession creates a session in UPLOADING status
	CreateSession(ctx context.Context, req *CreateSessionRequest) (*models.StudySession, error)

	// GetSession retrieves a session owned by userID
	GetSession(ctx context.Context, id, userID string) (*models.StudySession, error)

	// ListSessions retrieves a user's sessions, newest first
	ListSessions(ctx context.Context, userID string) ([]models.StudySession, error)

	// DeleteSession deletes a session with all its data and stored files
	DeleteSession(ctx context.Context, id, userID string) error

	// ListTopics retrieves the finalized topics of a session
	ListTopics(ctx context.Context, id, userID string) ([]models.Topic, error)

	// ListChats retrieves the chats created at finalization
	ListChats(ctx context.Context, id, userID string) ([]models.Chat, error)

	// ListChunks retrieves the chunks of a session without vectors
	ListChunks(ctx context.Context, id, userID string) ([]models.ChunkView, error)
}
