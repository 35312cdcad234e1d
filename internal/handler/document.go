package handler

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/ArthurLoboLobo/projeto-estudos/internal/config"
	studySvc "github.com/ArthurLoboLobo/projeto-estudos/internal/domain/services/study"
	"github.com/ArthurLoboLobo/projeto-estudos/internal/httputil"
)

// multipartOverhead is room for form boundaries and headers on top of the file.
const multipartOverhead = 1 << 20

// DocumentHandler handles document HTTP requests
type DocumentHandler struct {
	documentService studySvc.DocumentService
	logger          *slog.Logger
}

// NewDocumentHandler creates a new document handler
func NewDocumentHandler(documentService studySvc.DocumentService, logger *slog.Logger) *DocumentHandler {
	return &DocumentHandler{
		documentService: documentService,
		logger:          logger,
	}
}

// UploadDocument accepts a multipart "file" field holding one PDF
// POST /api/sessions/{id}/documents
func (h *DocumentHandler) UploadDocument(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := PathParam(w, r, "id", "Session ID")
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, config.MaxFileSize+multipartOverhead)
	if err := r.ParseMultipartForm(multipartOverhead); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			httputil.RespondError(w, http.StatusRequestEntityTooLarge, "file exceeds maximum size of 25MB")
			return
		}
		httputil.RespondError(w, http.StatusBadRequest, "Invalid multipart form")
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "file field is required")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "failed to read uploaded file")
		return
	}

	doc, err := h.documentService.UploadDocument(r.Context(), &studySvc.UploadDocumentRequest{
		SessionID:   sessionID,
		UserID:      httputil.GetUserID(r),
		FileName:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Data:        data,
	})
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusCreated, doc)
}

// ListDocuments retrieves a session's documents
// GET /api/sessions/{id}/documents
func (h *DocumentHandler) ListDocuments(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := PathParam(w, r, "id", "Session ID")
	if !ok {
		return
	}

	docs, err := h.documentService.ListDocuments(r.Context(), sessionID, httputil.GetUserID(r))
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, docs)
}

// DeleteDocument deletes a document
// DELETE /api/sessions/{id}/documents/{docId}
func (h *DocumentHandler) DeleteDocument(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := PathParam(w, r, "id", "Session ID")
	if !ok {
		return
	}
	docID, ok := PathParam(w, r, "docId", "Document ID")
	if !ok {
		return
	}

	if err := h.documentService.DeleteDocument(r.Context(), sessionID, docID, httputil.GetUserID(r)); err != nil {
		handleError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// GetDocumentURL returns a signed download URL
// GET /api/documents/{id}/url
func (h *DocumentHandler) GetDocumentURL(w http.ResponseWriter, r *http.Request) {
	docID, ok := PathParam(w, r, "id", "Document ID")
	if !ok {
		return
	}

	url, err := h.documentService.GetDocumentURL(r.Context(), docID, httputil.GetUserID(r))
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, map[string]string{"url": url})
}
