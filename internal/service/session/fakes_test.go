package session

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/ArthurLoboLobo/projeto-estudos/internal/domain"
	models "github.com/ArthurLoboLobo/projeto-estudos/internal/domain/models/study"
	"github.com/ArthurLoboLobo/projeto-estudos/internal/domain/repositories"
	repos "github.com/ArthurLoboLobo/projeto-estudos/internal/domain/repositories/study"
	"github.com/ArthurLoboLobo/projeto-estudos/internal/service/chunking"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// memDB is an in-memory stand-in for the study tables.
type memDB struct {
	mu       sync.Mutex
	sessions map[string]*models.StudySession
	docs     []models.Document
	topics   []models.Topic
	chats    []models.Chat
	clock    time.Time
}

func newMemDB() *memDB {
	return &memDB{
		sessions: map[string]*models.StudySession{},
		clock:    time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func (db *memDB) tick() time.Time {
	db.clock = db.clock.Add(time.Second)
	return db.clock
}

func (db *memDB) addSession(status models.SessionStatus, plan models.DraftPlan, history ...models.DraftPlan) *models.StudySession {
	db.mu.Lock()
	defer db.mu.Unlock()
	s := &models.StudySession{
		ID:          uuid.NewString(),
		UserID:      "user-1",
		Title:       "Calculus",
		Status:      status,
		DraftPlan:   plan.Clone(),
		PlanHistory: history,
		CreatedAt:   db.tick(),
	}
	s.UpdatedAt = s.CreatedAt
	db.sessions[s.ID] = s
	cp := *s
	return &cp
}

func (db *memDB) session(id string) models.StudySession {
	db.mu.Lock()
	defer db.mu.Unlock()
	return *db.sessions[id]
}

type memSessions struct{ db *memDB }

func (r memSessions) Create(ctx context.Context, s *models.StudySession) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	s.ID = uuid.NewString()
	s.CreatedAt = r.db.tick()
	s.UpdatedAt = s.CreatedAt
	cp := *s
	r.db.sessions[s.ID] = &cp
	return nil
}

func (r memSessions) GetByID(ctx context.Context, id, userID string) (*models.StudySession, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	s, ok := r.db.sessions[id]
	if !ok || s.UserID != userID {
		return nil, fmt.Errorf("session %w", domain.ErrNotFound)
	}
	cp := *s
	return &cp, nil
}

func (r memSessions) List(ctx context.Context, userID string) ([]models.StudySession, error) {
	return nil, nil
}

func (r memSessions) Delete(ctx context.Context, id, userID string) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	delete(r.db.sessions, id)
	return nil
}

func (r memSessions) Transition(ctx context.Context, id string, t repos.StatusTransition) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	s, ok := r.db.sessions[id]
	if !ok || s.Status != t.From {
		return &domain.InvalidStateError{Required: string(t.From)}
	}
	s.Status = t.To
	if t.Plan != nil {
		s.DraftPlan = t.Plan.Clone()
	}
	if t.ClearHistory {
		s.PlanHistory = []models.DraftPlan{}
	}
	s.UpdatedAt = r.db.tick()
	return nil
}

func (r memSessions) EditPlan(ctx context.Context, id string, e repos.PlanEdit) (*models.StudySession, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	s, ok := r.db.sessions[id]
	if !ok || s.Status != models.StatusEditingPlan {
		return nil, &domain.InvalidStateError{Required: string(models.StatusEditingPlan)}
	}
	if !s.UpdatedAt.Equal(e.ExpectedUpdatedAt) {
		return nil, &domain.ConflictError{Message: "plan was modified concurrently", ResourceType: "session", ResourceID: id}
	}
	s.DraftPlan = e.Plan.Clone()
	s.PlanHistory = append([]models.DraftPlan{}, e.History...)
	s.UpdatedAt = r.db.tick()
	cp := *s
	return &cp, nil
}

type memDocuments struct{ db *memDB }

func (r memDocuments) Create(ctx context.Context, doc *models.Document) error { return nil }
func (r memDocuments) GetByID(ctx context.Context, id string) (*models.Document, error) {
	return nil, domain.ErrNotFound
}
func (r memDocuments) ListBySession(ctx context.Context, sessionID string) ([]models.Document, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var out []models.Document
	for _, d := range r.db.docs {
		if d.SessionID == sessionID {
			out = append(out, d)
		}
	}
	return out, nil
}
func (r memDocuments) ListCompleted(ctx context.Context, sessionID string) ([]models.Document, error) {
	all, _ := r.ListBySession(ctx, sessionID)
	var out []models.Document
	for _, d := range all {
		if d.ProcessingStatus == models.ProcessingCompleted {
			out = append(out, d)
		}
	}
	return out, nil
}
func (r memDocuments) CountBySession(ctx context.Context, sessionID string) (int, error) {
	all, _ := r.ListBySession(ctx, sessionID)
	return len(all), nil
}
func (r memDocuments) CountCompleted(ctx context.Context, sessionID string) (int, error) {
	all, _ := r.ListCompleted(ctx, sessionID)
	return len(all), nil
}
func (r memDocuments) Delete(ctx context.Context, id, sessionID string) (*models.Document, error) {
	return nil, domain.ErrNotFound
}
func (r memDocuments) SetProcessingStatus(ctx context.Context, id string, status models.ProcessingStatus) error {
	return nil
}
func (r memDocuments) CompleteExtraction(ctx context.Context, id, text string) error { return nil }
func (r memDocuments) SetFileDescription(ctx context.Context, id, description string) error {
	return nil
}

type memTopics struct{ db *memDB }

func (r memTopics) Create(ctx context.Context, t *models.Topic) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	t.ID = uuid.NewString()
	t.CreatedAt = r.db.tick()
	r.db.topics = append(r.db.topics, *t)
	return nil
}

func (r memTopics) ListBySession(ctx context.Context, sessionID string) ([]models.Topic, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var out []models.Topic
	for _, t := range r.db.topics {
		if t.SessionID == sessionID {
			out = append(out, t)
		}
	}
	return out, nil
}

func (r memTopics) DeleteBySession(ctx context.Context, sessionID string) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	kept := r.db.topics[:0]
	for _, t := range r.db.topics {
		if t.SessionID != sessionID {
			kept = append(kept, t)
		}
	}
	r.db.topics = kept
	return nil
}

type memChats struct{ db *memDB }

func (r memChats) Create(ctx context.Context, c *models.Chat) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	c.ID = uuid.NewString()
	c.CreatedAt = r.db.tick()
	r.db.chats = append(r.db.chats, *c)
	return nil
}

func (r memChats) ListBySession(ctx context.Context, sessionID string) ([]models.Chat, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var out []models.Chat
	for _, c := range r.db.chats {
		if c.SessionID == sessionID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (r memChats) DeleteBySession(ctx context.Context, sessionID string) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	kept := r.db.chats[:0]
	for _, c := range r.db.chats {
		if c.SessionID != sessionID {
			kept = append(kept, c)
		}
	}
	r.db.chats = kept
	return nil
}

type passthroughTx struct{}

func (passthroughTx) ExecTx(ctx context.Context, fn repositories.TxFn) error { return fn(ctx) }

// fakePlanner returns plan or err; block, when set, is waited on first.
type fakePlanner struct {
	plan    models.DraftPlan
	err     error
	revised models.DraftPlan
	block   chan struct{}
}

func (f *fakePlanner) Generate(ctx context.Context, sessionID string, docs []models.Document, language string, emit func(models.ProgressEvent)) (models.DraftPlan, error) {
	if f.block != nil {
		<-f.block
	}
	if f.err != nil {
		return nil, f.err
	}
	for i := range docs {
		emit(models.NewProgressEvent(models.EventDocumentProcessed, models.DocumentProcessedData{Doc: i + 1, Total: len(docs), Plan: f.plan}))
	}
	return f.plan, nil
}

func (f *fakePlanner) Revise(ctx context.Context, plan models.DraftPlan, instruction, language string) (models.DraftPlan, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.revised, nil
}

type fakeChunker struct {
	run   *chunking.RunResult
	err   error
	block chan struct{}
	n     atomic.Int32
}

func (f *fakeChunker) calls() int { return int(f.n.Load()) }

// RunSession reports one chunked document before waiting on block.
func (f *fakeChunker) RunSession(ctx context.Context, sessionID string, topics []models.Topic, plan models.DraftPlan, language string, emit func(models.ProgressEvent)) (*chunking.RunResult, error) {
	f.n.Add(1)
	if f.block != nil {
		emit(models.NewProgressEvent(models.EventDocumentChunked, models.DocumentChunkedData{Doc: 1, Total: 1}))
		<-f.block
	}
	return f.run, f.err
}
