package document

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ArthurLoboLobo/projeto-estudos/internal/config"
	"github.com/ArthurLoboLobo/projeto-estudos/internal/domain"
	models "github.com/ArthurLoboLobo/projeto-estudos/internal/domain/models/study"
	repos "github.com/ArthurLoboLobo/projeto-estudos/internal/domain/repositories/study"
	studySvc "github.com/ArthurLoboLobo/projeto-estudos/internal/domain/services/study"
	"github.com/ArthurLoboLobo/projeto-estudos/internal/service/jobs"
	"github.com/ArthurLoboLobo/projeto-estudos/internal/service/retry"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeSessions struct {
	repos.SessionRepository
	sessions map[string]*models.StudySession
}

func (f *fakeSessions) GetByID(ctx context.Context, id, userID string) (*models.StudySession, error) {
	s, ok := f.sessions[id]
	if !ok || s.UserID != userID {
		return nil, fmt.Errorf("session %w", domain.ErrNotFound)
	}
	cp := *s
	return &cp, nil
}

type fakeDocuments struct {
	repos.DocumentRepository
	mu        sync.Mutex
	docs      map[string]*models.Document
	createErr error
}

func (f *fakeDocuments) Create(ctx context.Context, doc *models.Document) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	doc.ID = uuid.NewString()
	doc.CreatedAt = time.Now()
	cp := *doc
	f.docs[doc.ID] = &cp
	return nil
}

func (f *fakeDocuments) GetByID(ctx context.Context, id string) (*models.Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	d, ok := f.docs[id]
	if !ok {
		return nil, fmt.Errorf("document %w", domain.ErrNotFound)
	}
	cp := *d
	return &cp, nil
}

func (f *fakeDocuments) ListBySession(ctx context.Context, sessionID string) ([]models.Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Document
	for _, d := range f.docs {
		if d.SessionID == sessionID {
			out = append(out, *d)
		}
	}
	return out, nil
}

func (f *fakeDocuments) CountBySession(ctx context.Context, sessionID string) (int, error) {
	docs, _ := f.ListBySession(ctx, sessionID)
	return len(docs), nil
}

func (f *fakeDocuments) Delete(ctx context.Context, id, sessionID string) (*models.Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	d, ok := f.docs[id]
	if !ok || d.SessionID != sessionID {
		return nil, fmt.Errorf("document %w", domain.ErrNotFound)
	}
	delete(f.docs, id)
	return d, nil
}

func (f *fakeDocuments) SetProcessingStatus(ctx context.Context, id string, status models.ProcessingStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.docs[id].ProcessingStatus = status
	return nil
}

func (f *fakeDocuments) CompleteExtraction(ctx context.Context, id, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := len([]rune(text))
	f.docs[id].ContentText = &text
	f.docs[id].ContentLength = &n
	f.docs[id].ProcessingStatus = models.ProcessingCompleted
	return nil
}

type memStorage struct {
	mu            sync.Mutex
	objects       map[string][]byte
	downloadFails int
	deleteErr     error
}

func (m *memStorage) Upload(ctx context.Context, key string, data []byte, contentType string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = data
	return nil
}

func (m *memStorage) Download(ctx context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.downloadFails > 0 {
		m.downloadFails--
		return nil, errors.New("connection reset")
	}
	data, ok := m.objects[key]
	if !ok {
		return nil, errors.New("object not found")
	}
	return data, nil
}

func (m *memStorage) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.deleteErr != nil {
		return m.deleteErr
	}
	delete(m.objects, key)
	return nil
}

func (m *memStorage) SignedURL(ctx context.Context, key string, expiry time.Duration) (string, error) {
	return fmt.Sprintf("https://files.test/%s?ttl=%s", key, expiry), nil
}

type extractorFunc func(ctx context.Context, pdf []byte) (string, error)

func (f extractorFunc) Extract(ctx context.Context, pdf []byte) (string, error) { return f(ctx, pdf) }

type fixture struct {
	sessions *fakeSessions
	docs     *fakeDocuments
	storage  *memStorage
	jobs     *jobs.Tracker
	svc      studySvc.DocumentService
}

func newFixture(extract extractorFunc) *fixture {
	f := &fixture{
		sessions: &fakeSessions{sessions: map[string]*models.StudySession{
			"s1": {ID: "s1", UserID: "user-1", Status: models.StatusUploading},
			"s2": {ID: "s2", UserID: "user-1", Status: models.StatusActive},
		}},
		docs:    &fakeDocuments{docs: map[string]*models.Document{}},
		storage: &memStorage{objects: map[string][]byte{}},
		jobs:    jobs.NewTracker(discardLogger()),
	}
	policy := retry.Policy{
		MaxRetries: 2,
		Sleep:      func(ctx context.Context, d time.Duration) error { return nil },
	}
	f.svc = NewDocumentService(f.sessions, f.docs, f.storage, extract, policy, f.jobs, discardLogger())
	return f
}

func pdfUpload(sessionID string) *studySvc.UploadDocumentRequest {
	return &studySvc.UploadDocumentRequest{
		SessionID:   sessionID,
		UserID:      "user-1",
		FileName:    "notes.pdf",
		ContentType: "application/pdf",
		Data:        []byte("%PDF-1.7 fake"),
	}
}

func (f *fixture) waitJobs(t *testing.T) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, f.jobs.Wait(ctx))
}

func TestUploadDocument_ExtractsInBackground(t *testing.T) {
	f := newFixture(func(ctx context.Context, pdf []byte) (string, error) {
		assert.Equal(t, "%PDF-1.7 fake", string(pdf))
		return "--- Page 1 ---\nhéllo", nil
	})
	f.storage.downloadFails = 1

	doc, err := f.svc.UploadDocument(context.Background(), pdfUpload("s1"))
	require.NoError(t, err)
	assert.Equal(t, "notes.pdf", doc.FileName)
	assert.Equal(t, models.ProcessingPending, doc.ProcessingStatus)
	assert.True(t, strings.HasPrefix(doc.FilePath, "user-1/s1/"))
	assert.True(t, strings.HasSuffix(doc.FilePath, ".pdf"))

	f.waitJobs(t)

	stored, err := f.docs.GetByID(context.Background(), doc.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ProcessingCompleted, stored.ProcessingStatus)
	assert.Equal(t, "--- Page 1 ---\nhéllo", stored.Text())
	assert.Equal(t, 20, *stored.ContentLength)
}

func TestUploadDocument_ExtractionFailureMarksFailed(t *testing.T) {
	f := newFixture(func(ctx context.Context, pdf []byte) (string, error) {
		return "", errors.New("vision model unavailable")
	})

	doc, err := f.svc.UploadDocument(context.Background(), pdfUpload("s1"))
	require.NoError(t, err)
	f.waitJobs(t)

	stored, _ := f.docs.GetByID(context.Background(), doc.ID)
	assert.Equal(t, models.ProcessingFailed, stored.ProcessingStatus)
	assert.Nil(t, stored.ContentText)
}

func TestUploadDocument_DownloadRetriesExhausted(t *testing.T) {
	var extracted atomic.Bool
	f := newFixture(func(ctx context.Context, pdf []byte) (string, error) {
		extracted.Store(true)
		return "text", nil
	})
	f.storage.downloadFails = 3

	doc, err := f.svc.UploadDocument(context.Background(), pdfUpload("s1"))
	require.NoError(t, err)
	f.waitJobs(t)

	stored, _ := f.docs.GetByID(context.Background(), doc.ID)
	assert.Equal(t, models.ProcessingFailed, stored.ProcessingStatus)
	assert.False(t, extracted.Load())
}

func TestUploadDocument_WrongState(t *testing.T) {
	f := newFixture(nil)

	_, err := f.svc.UploadDocument(context.Background(), pdfUpload("s2"))

	var stateErr *domain.InvalidStateError
	require.True(t, errors.As(err, &stateErr))
	assert.Equal(t, "ACTIVE", stateErr.Actual)
	assert.Empty(t, f.storage.objects)
}

func TestUploadDocument_Validation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(r *studySvc.UploadDocumentRequest)
	}{
		{"not a pdf", func(r *studySvc.UploadDocumentRequest) { r.ContentType = "image/png" }},
		{"empty file", func(r *studySvc.UploadDocumentRequest) { r.Data = nil }},
		{"too large", func(r *studySvc.UploadDocumentRequest) { r.Data = make([]byte, config.MaxFileSize+1) }},
		{"long name", func(r *studySvc.UploadDocumentRequest) { r.FileName = strings.Repeat("é", 256) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(nil)
			req := pdfUpload("s1")
			tt.mutate(req)

			_, err := f.svc.UploadDocument(context.Background(), req)

			var valErr *domain.ValidationError
			require.True(t, errors.As(err, &valErr))
			assert.Empty(t, f.storage.objects)
		})
	}
}

func TestUploadDocument_SessionBudget(t *testing.T) {
	f := newFixture(func(ctx context.Context, pdf []byte) (string, error) { return "text", nil })

	limit := int(config.MaxSessionSize / config.MaxFileSize)
	for i := 0; i < limit; i++ {
		_, err := f.svc.UploadDocument(context.Background(), pdfUpload("s1"))
		require.NoError(t, err)
	}

	_, err := f.svc.UploadDocument(context.Background(), pdfUpload("s1"))
	var valErr *domain.ValidationError
	require.True(t, errors.As(err, &valErr))
	assert.Contains(t, valErr.Message, "maximum total size")
	f.waitJobs(t)
}

func TestUploadDocument_CreateFailureRemovesFile(t *testing.T) {
	f := newFixture(nil)
	f.docs.createErr = errors.New("db down")

	_, err := f.svc.UploadDocument(context.Background(), pdfUpload("s1"))
	require.Error(t, err)
	assert.Empty(t, f.storage.objects)
}

func TestUploadDocument_DefaultsFileName(t *testing.T) {
	f := newFixture(func(ctx context.Context, pdf []byte) (string, error) { return "text", nil })
	req := pdfUpload("s1")
	req.FileName = "  "

	doc, err := f.svc.UploadDocument(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "document.pdf", doc.FileName)
	f.waitJobs(t)
}

func TestDeleteDocument_StorageFailureIsBestEffort(t *testing.T) {
	f := newFixture(func(ctx context.Context, pdf []byte) (string, error) { return "text", nil })
	doc, err := f.svc.UploadDocument(context.Background(), pdfUpload("s1"))
	require.NoError(t, err)
	f.waitJobs(t)

	f.storage.deleteErr = errors.New("bucket unavailable")
	require.NoError(t, f.svc.DeleteDocument(context.Background(), "s1", doc.ID, "user-1"))

	_, err = f.docs.GetByID(context.Background(), doc.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDeleteDocument_WrongSession(t *testing.T) {
	f := newFixture(func(ctx context.Context, pdf []byte) (string, error) { return "text", nil })
	doc, err := f.svc.UploadDocument(context.Background(), pdfUpload("s1"))
	require.NoError(t, err)
	f.waitJobs(t)

	err = f.svc.DeleteDocument(context.Background(), "s2", doc.ID, "user-1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestGetDocumentURL(t *testing.T) {
	f := newFixture(func(ctx context.Context, pdf []byte) (string, error) { return "text", nil })
	doc, err := f.svc.UploadDocument(context.Background(), pdfUpload("s1"))
	require.NoError(t, err)
	f.waitJobs(t)

	url, err := f.svc.GetDocumentURL(context.Background(), doc.ID, "user-1")
	require.NoError(t, err)
	assert.Equal(t, "https://files.test/"+doc.FilePath+"?ttl=1h0m0s", url)

	_, err = f.svc.GetDocumentURL(context.Background(), doc.ID, "intruder")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
