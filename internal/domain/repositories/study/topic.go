package study

import (
	"context"

	models "github.com/ArthurLoboLobo/projeto-estudos/internal/domain/models/study"
)

// TopicRepository defines data access operations for finalized topics
type TopicRepository interface {
	// Create inserts a topic and fills ID and created_at
	Create(ctx context.Context, topic *models.Topic) error

	// ListBySession retrieves topics ordered by order_index
	ListBySession(ctx context.Context, sessionID string) ([]models.Topic, error)

	// DeleteBySession removes every topic of a session
	DeleteBySession(ctx context.Context, sessionID string) error
}

// ChatRepository defines data access operations for topic and review chats
type ChatRepository interface {
	// Create inserts a chat and fills ID and created_at
	Create(ctx context.Context, chat *models.Chat) error

	// ListBySession retrieves chats ordered by created_at
	ListBySession(ctx context.Context, sessionID string) ([]models.Chat, error)

	// DeleteBySession removes every chat of a session
	DeleteBySession(ctx context.Context, sessionID string) error
}
