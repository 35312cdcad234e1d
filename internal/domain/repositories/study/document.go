package study

import (
	"context"

	models "github.com/ArthurLoboLobo/projeto-estudos/internal/domain/models/study"
)

// DocumentRepository defines data access operations for uploaded documents
type DocumentRepository interface {
	// Create inserts a PENDING document and fills ID and created_at
	Create(ctx context.Context, doc *models.Document) error

	// GetByID retrieves a document including its content text
	GetByID(ctx context.Context, id string) (*models.Document, error)

	// ListBySession retrieves a session's documents ordered by created_at,
	// without content text
	ListBySession(ctx context.Context, sessionID string) ([]models.Document, error)

	// ListCompleted retrieves COMPLETED documents ordered by created_at,
	// including content text
	ListCompleted(ctx context.Context, sessionID string) ([]models.Document, error)

	// CountBySession counts all documents of a session
	CountBySession(ctx context.Context, sessionID string) (int, error)

	// CountCompleted counts documents whose extraction completed
	CountCompleted(ctx context.Context, sessionID string) (int, error)

	// Delete removes a document of the given session and returns it
	Delete(ctx context.Context, id, sessionID string) (*models.Document, error)

	// SetProcessingStatus updates processing_status only
	SetProcessingStatus(ctx context.Context, id string, status models.ProcessingStatus) error

	// CompleteExtraction stores extracted text and marks the document COMPLETED
	CompleteExtraction(ctx context.Context, id, text string) error

	// SetFileDescription stores the description produced by document analysis
	SetFileDescription(ctx context.Context, id, description string) error
}
