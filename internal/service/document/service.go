// Package document handles PDF uploads and their background text
// extraction.
package document

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/ArthurLoboLobo/projeto-estudos/internal/config"
	"github.com/ArthurLoboLobo/projeto-estudos/internal/domain"
	models "github.com/ArthurLoboLobo/projeto-estudos/internal/domain/models/study"
	repos "github.com/ArthurLoboLobo/projeto-estudos/internal/domain/repositories/study"
	"github.com/ArthurLoboLobo/projeto-estudos/internal/domain/services"
	studySvc "github.com/ArthurLoboLobo/projeto-estudos/internal/domain/services/study"
	"github.com/ArthurLoboLobo/projeto-estudos/internal/service/jobs"
	"github.com/ArthurLoboLobo/projeto-estudos/internal/service/retry"
)

const pdfContentType = "application/pdf"

// TextExtractor turns a PDF into plain text.
type TextExtractor interface {
	Extract(ctx context.Context, pdf []byte) (string, error)
}

// documentService implements the DocumentService interface
type documentService struct {
	sessions  repos.SessionRepository
	documents repos.DocumentRepository
	storage   services.ObjectStorage
	extractor TextExtractor
	policy    retry.Policy
	jobs      *jobs.Tracker
	logger    *slog.Logger
}

// NewDocumentService creates a new document service
func NewDocumentService(
	sessions repos.SessionRepository,
	documents repos.DocumentRepository,
	storage services.ObjectStorage,
	extractor TextExtractor,
	policy retry.Policy,
	tracker *jobs.Tracker,
	logger *slog.Logger,
) studySvc.DocumentService {
	return &documentService{
		sessions:  sessions,
		documents: documents,
		storage:   storage,
		extractor: extractor,
		policy:    policy,
		jobs:      tracker,
		logger:    logger,
	}
}

// UploadDocument validates and stores a PDF, then extracts its text in the
// background.
func (s *documentService) UploadDocument(ctx context.Context, req *studySvc.UploadDocumentRequest) (*models.Document, error) {
	session, err := s.sessions.GetByID(ctx, req.SessionID, req.UserID)
	if err != nil {
		return nil, err
	}
	if session.Status != models.StatusUploading {
		return nil, &domain.InvalidStateError{Required: string(models.StatusUploading), Actual: string(session.Status)}
	}

	if err := validateUpload(req); err != nil {
		return nil, err
	}

	// Documents carry no size column, so the session budget assumes every
	// stored file is as large as allowed.
	count, err := s.documents.CountBySession(ctx, req.SessionID)
	if err != nil {
		return nil, err
	}
	if int64(count+1)*config.MaxFileSize > config.MaxSessionSize {
		return nil, &domain.ValidationError{
			Message: fmt.Sprintf("session exceeds maximum total size of %dMB", config.MaxSessionSize/(1024*1024)),
		}
	}

	key := fmt.Sprintf("%s/%s/%s.pdf", req.UserID, req.SessionID, uuid.NewString())
	if err := s.storage.Upload(ctx, key, req.Data, pdfContentType); err != nil {
		return nil, fmt.Errorf("upload file: %w", err)
	}

	name := strings.TrimSpace(req.FileName)
	if name == "" {
		name = "document.pdf"
	}
	doc := &models.Document{
		SessionID:        req.SessionID,
		FileName:         name,
		FilePath:         key,
		ProcessingStatus: models.ProcessingPending,
	}
	if err := s.documents.Create(ctx, doc); err != nil {
		if delErr := s.storage.Delete(ctx, key); delErr != nil {
			s.logger.Warn("failed to clean up stored file", "key", key, "error", delErr)
		}
		return nil, err
	}

	s.logger.Info("document uploaded",
		"id", doc.ID,
		"session_id", req.SessionID,
		"file_name", doc.FileName,
		"bytes", len(req.Data),
	)

	s.jobs.TryGo(ctx, "extract:"+doc.ID, func(bg context.Context) {
		s.processDocument(bg, doc.ID, key)
	})

	return doc, nil
}

func validateUpload(req *studySvc.UploadDocumentRequest) error {
	if req.ContentType != pdfContentType {
		return &domain.ValidationError{Message: "only PDF files are allowed"}
	}
	if len(req.Data) == 0 {
		return &domain.ValidationError{Message: "file is empty"}
	}
	if int64(len(req.Data)) > config.MaxFileSize {
		return &domain.ValidationError{
			Message: fmt.Sprintf("file exceeds maximum size of %dMB", config.MaxFileSize/(1024*1024)),
		}
	}
	if utf8.RuneCountInString(req.FileName) > config.MaxDocumentNameLength {
		return &domain.ValidationError{
			Message: fmt.Sprintf("file name exceeds %d characters", config.MaxDocumentNameLength),
		}
	}
	return nil
}

// processDocument runs PENDING -> PROCESSING -> COMPLETED or FAILED.
func (s *documentService) processDocument(ctx context.Context, documentID, key string) {
	logger := s.logger.With("document_id", documentID)

	if err := s.documents.SetProcessingStatus(ctx, documentID, models.ProcessingProcessing); err != nil {
		logger.Error("failed to mark document processing", "error", err)
		return
	}

	text, err := s.extract(ctx, key)
	if err == nil {
		err = s.documents.CompleteExtraction(ctx, documentID, text)
	}
	if err != nil {
		logger.Error("document processing failed", "error", err)
		if err := s.documents.SetProcessingStatus(ctx, documentID, models.ProcessingFailed); err != nil {
			logger.Error("failed to mark document failed", "error", err)
		}
		return
	}

	logger.Info("document processed", "content_length", utf8.RuneCountInString(text))
}

func (s *documentService) extract(ctx context.Context, key string) (string, error) {
	pdf, err := retry.Do(ctx, s.policy, "storage.download", func(ctx context.Context) ([]byte, error) {
		return s.storage.Download(ctx, key)
	})
	if err != nil {
		return "", fmt.Errorf("download file: %w", err)
	}
	return s.extractor.Extract(ctx, pdf)
}

// ListDocuments retrieves a session's documents
func (s *documentService) ListDocuments(ctx context.Context, sessionID, userID string) ([]models.Document, error) {
	if _, err := s.sessions.GetByID(ctx, sessionID, userID); err != nil {
		return nil, err
	}
	return s.documents.ListBySession(ctx, sessionID)
}

// DeleteDocument deletes a document; its stored file is removed best effort
func (s *documentService) DeleteDocument(ctx context.Context, sessionID, documentID, userID string) error {
	if _, err := s.sessions.GetByID(ctx, sessionID, userID); err != nil {
		return err
	}

	doc, err := s.documents.Delete(ctx, documentID, sessionID)
	if err != nil {
		return err
	}

	if err := s.storage.Delete(ctx, doc.FilePath); err != nil {
		s.logger.Warn("failed to delete stored file",
			"document_id", documentID,
			"key", doc.FilePath,
			"error", err,
		)
	}

	s.logger.Info("document deleted", "id", documentID, "session_id", sessionID)
	return nil
}

// GetDocumentURL returns a signed download URL valid for one hour
func (s *documentService) GetDocumentURL(ctx context.Context, documentID, userID string) (string, error) {
	doc, err := s.documents.GetByID(ctx, documentID)
	if err != nil {
		return "", err
	}

	// Ownership goes through the session; hide documents of other users.
	if _, err := s.sessions.GetByID(ctx, doc.SessionID, userID); err != nil {
		return "", err
	}

	return s.storage.SignedURL(ctx, doc.FilePath, config.SignedURLExpiry)
}
