package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ArthurLoboLobo/projeto-estudos/internal/domain"
	models "github.com/ArthurLoboLobo/projeto-estudos/internal/domain/models/study"
	studySvc "github.com/ArthurLoboLobo/projeto-estudos/internal/domain/services/study"
	"github.com/ArthurLoboLobo/projeto-estudos/internal/handler/sse"
	"github.com/ArthurLoboLobo/projeto-estudos/internal/httputil"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// withUser mimics the auth middleware.
func withUser(h http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h(w, httputil.WithUserID(r, "user-1"))
	})
}

func serve(pattern string, h http.HandlerFunc, req *http.Request) *httptest.ResponseRecorder {
	mux := http.NewServeMux()
	mux.Handle(pattern, withUser(h))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func TestHandleError(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"wrapped validation", fmt.Errorf("%w: title is required", domain.ErrValidation), http.StatusBadRequest},
		{"validation type", &domain.ValidationError{Message: "only PDF files are allowed"}, http.StatusBadRequest},
		{"wrapped not found", fmt.Errorf("session %w", domain.ErrNotFound), http.StatusNotFound},
		{"invalid state", &domain.InvalidStateError{Required: "UPLOADING", Actual: "ACTIVE"}, http.StatusConflict},
		{"nothing to undo", &domain.NothingToUndoError{}, http.StatusConflict},
		{"conflict", &domain.ConflictError{Message: "chunking already running"}, http.StatusConflict},
		{"bad plan", &domain.InvalidPlanFormatError{Reason: "not an array"}, http.StatusBadGateway},
		{"parse", &domain.ParseError{Field: "FILE_DESCRIPTION"}, http.StatusUnprocessableEntity},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			handleError(rec, tt.err)
			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, "application/problem+json", rec.Header().Get("Content-Type"))
		})
	}
}

func TestHandleError_InvalidStateExtras(t *testing.T) {
	rec := httptest.NewRecorder()
	handleError(rec, &domain.InvalidStateError{Required: "EDITING_PLAN", Actual: "CHUNKING"})

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "EDITING_PLAN", body["required_status"])
	assert.Equal(t, "CHUNKING", body["current_status"])
}

// fakeLifecycle implements LifecycleService with canned results.
type fakeLifecycle struct {
	studySvc.LifecycleService
	events   []models.ProgressEvent
	startErr error
	language string
	kind     studySvc.RunKind
	toggled  *studySvc.TopicCompletionRequest
}

func (f *fakeLifecycle) start(ctx context.Context, sessionID, userID, language string) (<-chan models.ProgressEvent, error) {
	if f.startErr != nil {
		return nil, f.startErr
	}
	f.language = language
	ch := make(chan models.ProgressEvent, len(f.events))
	for _, e := range f.events {
		ch <- e
	}
	close(ch)
	return ch, nil
}

func (f *fakeLifecycle) StartPlanGeneration(ctx context.Context, sessionID, userID, language string) (<-chan models.ProgressEvent, error) {
	return f.start(ctx, sessionID, userID, language)
}

func (f *fakeLifecycle) StartChunking(ctx context.Context, sessionID, userID, language string) (<-chan models.ProgressEvent, error) {
	return f.start(ctx, sessionID, userID, language)
}

func (f *fakeLifecycle) FollowRun(ctx context.Context, sessionID, userID string, kind studySvc.RunKind) (<-chan models.ProgressEvent, error) {
	f.kind = kind
	return f.start(ctx, sessionID, userID, "")
}

func (f *fakeLifecycle) SetTopicCompletion(ctx context.Context, req *studySvc.TopicCompletionRequest) (*models.StudySession, error) {
	f.toggled = req
	return &models.StudySession{ID: req.SessionID}, nil
}

func (f *fakeLifecycle) UndoPlan(ctx context.Context, sessionID, userID string) (*models.StudySession, error) {
	return nil, &domain.NothingToUndoError{}
}

func TestGeneratePlan_StreamsEvents(t *testing.T) {
	ts := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	lc := &fakeLifecycle{events: []models.ProgressEvent{
		{Name: models.EventDocumentProcessed, Data: models.DocumentProcessedData{Doc: 1, Total: 1, Plan: models.DraftPlan{}}, Timestamp: ts},
		{Name: models.EventCompleted, Data: models.PlanCompletedData{Plan: models.DraftPlan{}}, Timestamp: ts},
	}}
	h := NewPlanHandler(lc, nil, discardLogger())

	req := httptest.NewRequest(http.MethodPost, "/api/sessions/s1/plan/generate", strings.NewReader(`{"language":"pt"}`))
	rec := serve("POST /api/sessions/{id}/plan/generate", h.GeneratePlan, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))
	assert.Equal(t, "pt", lc.language)

	body := rec.Body.String()
	assert.Contains(t, body, "event: document_processed\ndata: {\"event\":\"document_processed\",\"data\":{\"doc\":1,\"total\":1,\"plan\":[]}")
	assert.Contains(t, body, "event: completed\n")
	assert.Less(t, strings.Index(body, "document_processed"), strings.Index(body, "event: completed"))
}

func TestStartChunking_EmptyBodyUsesDefaultLanguage(t *testing.T) {
	lc := &fakeLifecycle{}
	h := NewPlanHandler(lc, nil, discardLogger())

	req := httptest.NewRequest(http.MethodPost, "/api/sessions/s1/chunking", nil)
	rec := serve("POST /api/sessions/{id}/chunking", h.StartChunking, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "", lc.language)
}

func TestGeneratePlan_StartErrorIsPlainHTTP(t *testing.T) {
	lc := &fakeLifecycle{startErr: &domain.InvalidStateError{Required: "UPLOADING", Actual: "ACTIVE"}}
	h := NewPlanHandler(lc, nil, discardLogger())

	req := httptest.NewRequest(http.MethodPost, "/api/sessions/s1/plan/generate", nil)
	rec := serve("POST /api/sessions/{id}/plan/generate", h.GeneratePlan, req)

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "application/problem+json", rec.Header().Get("Content-Type"))
}

func TestStreamRun(t *testing.T) {
	const sessionID = "4f9a3c1e-8d2b-4b6a-9c0e-1a2b3c4d5e6f"
	lc := &fakeLifecycle{events: []models.ProgressEvent{
		models.NewProgressEvent(models.EventDocumentChunked, models.DocumentChunkedData{Doc: 1, Total: 2}),
	}}
	h := NewSSEHandler(lc, nil, discardLogger())
	pattern := "GET /api/sessions/{id}/runs/{kind}/stream"

	req := httptest.NewRequest(http.MethodGet, "/api/sessions/"+sessionID+"/runs/chunking/stream", nil)
	rec := serve(pattern, h.StreamRun, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, studySvc.RunChunking, lc.kind)
	assert.Contains(t, rec.Body.String(), "event: document_chunked\n")

	req = httptest.NewRequest(http.MethodGet, "/api/sessions/not-a-uuid/runs/plan/stream", nil)
	assert.Equal(t, http.StatusBadRequest, serve(pattern, h.StreamRun, req).Code)

	lc.startErr = fmt.Errorf("%w: no plan run", domain.ErrNotFound)
	req = httptest.NewRequest(http.MethodGet, "/api/sessions/"+sessionID+"/runs/plan/stream", nil)
	assert.Equal(t, http.StatusNotFound, serve(pattern, h.StreamRun, req).Code)
}

func TestSetTopicCompletion(t *testing.T) {
	lc := &fakeLifecycle{}
	h := NewPlanHandler(lc, nil, discardLogger())

	req := httptest.NewRequest(http.MethodPatch, "/api/sessions/s1/plan/topics/3", strings.NewReader(`{"is_completed":true}`))
	rec := serve("PATCH /api/sessions/{id}/plan/topics/{orderIndex}", h.SetTopicCompletion, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 3, lc.toggled.OrderIndex)
	assert.True(t, lc.toggled.IsCompleted)
	assert.Equal(t, "user-1", lc.toggled.UserID)

	req = httptest.NewRequest(http.MethodPatch, "/api/sessions/s1/plan/topics/abc", strings.NewReader(`{}`))
	rec = serve("PATCH /api/sessions/{id}/plan/topics/{orderIndex}", h.SetTopicCompletion, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUndoPlan_NothingToUndo(t *testing.T) {
	h := NewPlanHandler(&fakeLifecycle{}, nil, discardLogger())

	req := httptest.NewRequest(http.MethodPost, "/api/sessions/s1/plan/undo", nil)
	rec := serve("POST /api/sessions/{id}/plan/undo", h.UndoPlan, req)

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), "nothing to undo")
}

type fakeDocuments struct {
	studySvc.DocumentService
	got *studySvc.UploadDocumentRequest
}

func (f *fakeDocuments) UploadDocument(ctx context.Context, req *studySvc.UploadDocumentRequest) (*models.Document, error) {
	f.got = req
	return &models.Document{ID: "d1", SessionID: req.SessionID, FileName: req.FileName, ProcessingStatus: models.ProcessingPending}, nil
}

func (f *fakeDocuments) GetDocumentURL(ctx context.Context, documentID, userID string) (string, error) {
	return "https://files.test/" + documentID, nil
}

func multipartPDF(t *testing.T, name string, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	hdr := make(textproto.MIMEHeader)
	hdr.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename="%s"`, name))
	hdr.Set("Content-Type", "application/pdf")
	part, err := mw.CreatePart(hdr)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func TestUploadDocument(t *testing.T) {
	docs := &fakeDocuments{}
	h := NewDocumentHandler(docs, discardLogger())

	body, contentType := multipartPDF(t, "notes.pdf", []byte("%PDF-1.7"))
	req := httptest.NewRequest(http.MethodPost, "/api/sessions/s1/documents", body)
	req.Header.Set("Content-Type", contentType)
	rec := serve("POST /api/sessions/{id}/documents", h.UploadDocument, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "s1", docs.got.SessionID)
	assert.Equal(t, "user-1", docs.got.UserID)
	assert.Equal(t, "notes.pdf", docs.got.FileName)
	assert.Equal(t, "application/pdf", docs.got.ContentType)
	assert.Equal(t, "%PDF-1.7", string(docs.got.Data))
}

func TestUploadDocument_MissingFile(t *testing.T) {
	h := NewDocumentHandler(&fakeDocuments{}, discardLogger())

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("title", "x"))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/sessions/s1/documents", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := serve("POST /api/sessions/{id}/documents", h.UploadDocument, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetDocumentURL(t *testing.T) {
	h := NewDocumentHandler(&fakeDocuments{}, discardLogger())

	req := httptest.NewRequest(http.MethodGet, "/api/documents/d9/url", nil)
	rec := serve("GET /api/documents/{id}/url", h.GetDocumentURL, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"url":"https://files.test/d9"}`, rec.Body.String())
}

func TestRelay_KeepAliveAndClientGone(t *testing.T) {
	rec := httptest.NewRecorder()
	writer, err := sse.NewWriter(rec)
	require.NoError(t, err)

	events := make(chan models.ProgressEvent)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		sse.Relay(ctx, writer, events, &sse.Config{KeepAliveInterval: 5 * time.Millisecond}, discardLogger())
		close(done)
	}()

	time.Sleep(30 * time.Millisecond)
	cancel()
	<-done

	assert.Contains(t, rec.Body.String(), ": keepalive\n\n")
}
