package study

import (
	"context"

	models "github.com/ArthurLoboLobo/projeto-estudos/internal/domain/models/study"
)

// ChunkRepository defines data access operations for document chunks
type ChunkRepository interface {
	// InsertSet persists a document's chunks: problem roots first, then their
	// children, then theory chunks. Chunk IDs must already be assigned.
	InsertSet(ctx context.Context, set *models.ChunkSet) error

	// DeleteByDocument removes every chunk of a document
	DeleteByDocument(ctx context.Context, documentID string) error

	// DeleteBySession removes every chunk of a session and returns the count
	DeleteBySession(ctx context.Context, sessionID string) (int64, error)

	// CountBySession counts a session's chunks
	CountBySession(ctx context.Context, sessionID string) (int, error)

	// ListBySession retrieves chunks without vectors, grouped by document
	ListBySession(ctx context.Context, sessionID string) ([]models.ChunkView, error)
}
