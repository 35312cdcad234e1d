package study

import (
	"context"

	models "github.com/ArthurLoboLobo/projeto-estudos/internal/domain/models/study"
)

// UploadDocumentRequest carries one uploaded file
type UploadDocumentRequest struct {
	SessionID   string
	UserID      string
	FileName    string
	ContentType string
	Data        []byte
}

// DocumentService defines operations on uploaded documents
type DocumentService interface {
	// UploadDocument stores a PDF, records it and starts text extraction in the background
	UploadDocument(ctx context.Context, req *UploadDocumentRequest) (*models.Document, error)

	// ListDocuments retrieves a session's documents in upload order
	ListDocuments(ctx context.Context, sessionID, userID string) ([]models.Document, error)

	// DeleteDocument removes a document and, best effort, its stored file
	DeleteDocument(ctx context.Context, sessionID, documentID, userID string) error

	// GetDocumentURL returns a signed download URL
	GetDocumentURL(ctx context.Context, documentID, userID string) (string, error)
}
