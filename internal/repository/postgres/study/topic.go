package study

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ArthurLoboLobo/projeto-estudos/internal/domain"
	models "github.com/ArthurLoboLobo/projeto-estudos/internal/domain/models/study"
	repos "github.com/ArthurLoboLobo/projeto-estudos/internal/domain/repositories/study"
	"github.com/ArthurLoboLobo/projeto-estudos/internal/repository/postgres"
)

// PostgresTopicRepository implements the TopicRepository interface
type PostgresTopicRepository struct {
	pool   *pgxpool.Pool
	tables *postgres.TableNames
}

// NewTopicRepository creates a new topic repository
func NewTopicRepository(config *postgres.RepositoryConfig) repos.TopicRepository {
	return &PostgresTopicRepository{
		pool:   config.Pool,
		tables: config.Tables,
	}
}

// Create inserts a topic
func (r *PostgresTopicRepository) Create(ctx context.Context, topic *models.Topic) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (session_id, order_index, title, subtopics, is_completed)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`, r.tables.Topics)

	if topic.Subtopics == nil {
		topic.Subtopics = []string{}
	}

	executor := postgres.GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query,
		topic.SessionID,
		topic.OrderIndex,
		topic.Title,
		topic.Subtopics,
		topic.IsCompleted,
	).Scan(&topic.ID, &topic.CreatedAt)
	if err != nil {
		if postgres.IsPgDuplicateError(err) {
			return &domain.ConflictError{
				Message:      fmt.Sprintf("topic %d already exists", topic.OrderIndex),
				ResourceType: "topic",
				ResourceID:   topic.SessionID,
			}
		}
		return fmt.Errorf("create topic: %w", err)
	}

	return nil
}

// ListBySession retrieves topics ordered by order_index
func (r *PostgresTopicRepository) ListBySession(ctx context.Context, sessionID string) ([]models.Topic, error) {
	query := fmt.Sprintf(`
		SELECT id, session_id, order_index, title, subtopics, is_completed, created_at
		FROM %s
		WHERE session_id = $1
		ORDER BY order_index
	`, r.tables.Topics)

	executor := postgres.GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, sessionID)
	if err != nil {
		return nil, fmt.Errorf("list topics: %w", err)
	}
	defer rows.Close()

	topics := []models.Topic{}
	for rows.Next() {
		var topic models.Topic
		err := rows.Scan(
			&topic.ID,
			&topic.SessionID,
			&topic.OrderIndex,
			&topic.Title,
			&topic.Subtopics,
			&topic.IsCompleted,
			&topic.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan topic: %w", err)
		}
		topics = append(topics, topic)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate topics: %w", err)
	}

	return topics, nil
}

// DeleteBySession removes every topic of a session
func (r *PostgresTopicRepository) DeleteBySession(ctx context.Context, sessionID string) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE session_id = $1`, r.tables.Topics)

	executor := postgres.GetExecutor(ctx, r.pool)
	if _, err := executor.Exec(ctx, query, sessionID); err != nil {
		return fmt.Errorf("delete topics: %w", err)
	}
	return nil
}

// PostgresChatRepository implements the ChatRepository interface
type PostgresChatRepository struct {
	pool   *pgxpool.Pool
	tables *postgres.TableNames
}

// NewChatRepository creates a new chat repository
func NewChatRepository(config *postgres.RepositoryConfig) repos.ChatRepository {
	return &PostgresChatRepository{
		pool:   config.Pool,
		tables: config.Tables,
	}
}

// Create inserts a chat
func (r *PostgresChatRepository) Create(ctx context.Context, chat *models.Chat) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (session_id, topic_id, type, is_completed, created_at)
		VALUES ($1, $2, $3, $4, clock_timestamp())
		RETURNING id, created_at
	`, r.tables.Chats)

	executor := postgres.GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query,
		chat.SessionID,
		chat.TopicID,
		string(chat.Type),
		chat.IsCompleted,
	).Scan(&chat.ID, &chat.CreatedAt)
	if err != nil {
		return fmt.Errorf("create chat: %w", err)
	}

	return nil
}

// ListBySession retrieves chats ordered by created_at
func (r *PostgresChatRepository) ListBySession(ctx context.Context, sessionID string) ([]models.Chat, error) {
	query := fmt.Sprintf(`
		SELECT id, session_id, topic_id, type, is_completed, created_at
		FROM %s
		WHERE session_id = $1
		ORDER BY created_at, id
	`, r.tables.Chats)

	executor := postgres.GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, sessionID)
	if err != nil {
		return nil, fmt.Errorf("list chats: %w", err)
	}
	defer rows.Close()

	chats := []models.Chat{}
	for rows.Next() {
		var chat models.Chat
		err := rows.Scan(
			&chat.ID,
			&chat.SessionID,
			&chat.TopicID,
			&chat.Type,
			&chat.IsCompleted,
			&chat.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan chat: %w", err)
		}
		chats = append(chats, chat)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate chats: %w", err)
	}

	return chats, nil
}

// DeleteBySession removes every chat of a session
func (r *PostgresChatRepository) DeleteBySession(ctx context.Context, sessionID string) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE session_id = $1`, r.tables.Chats)

	executor := postgres.GetExecutor(ctx, r.pool)
	if _, err := executor.Exec(ctx, query, sessionID); err != nil {
		return fmt.Errorf("delete chats: %w", err)
	}
	return nil
}
