package seed

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ArthurLoboLobo/projeto-estudos/internal/domain"
	models "github.com/ArthurLoboLobo/projeto-estudos/internal/domain/models/study"
	repos "github.com/ArthurLoboLobo/projeto-estudos/internal/domain/repositories/study"
)

type memSessions struct {
	rows  map[string]*models.StudySession
	order []string
	clock time.Time
}

func newMemSessions() *memSessions {
	return &memSessions{rows: map[string]*models.StudySession{}, clock: time.Unix(1700000000, 0)}
}

func (m *memSessions) tick() time.Time {
	m.clock = m.clock.Add(time.Millisecond)
	return m.clock
}

func (m *memSessions) Create(_ context.Context, s *models.StudySession) error {
	s.ID = fmt.Sprintf("s%d", len(m.order)+1)
	s.Status = models.StatusUploading
	s.CreatedAt = m.tick()
	s.UpdatedAt = s.CreatedAt
	s.PlanHistory = []models.DraftPlan{}
	cp := *s
	m.rows[s.ID] = &cp
	m.order = append(m.order, s.ID)
	return nil
}

func (m *memSessions) GetByID(_ context.Context, id, userID string) (*models.StudySession, error) {
	s, ok := m.rows[id]
	if !ok || s.UserID != userID {
		return nil, domain.ErrNotFound
	}
	cp := *s
	return &cp, nil
}

func (m *memSessions) List(_ context.Context, userID string) ([]models.StudySession, error) {
	out := []models.StudySession{}
	for _, id := range m.order {
		if s, ok := m.rows[id]; ok && s.UserID == userID {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (m *memSessions) Delete(_ context.Context, id, userID string) error {
	s, ok := m.rows[id]
	if !ok || s.UserID != userID {
		return domain.ErrNotFound
	}
	delete(m.rows, id)
	return nil
}

func (m *memSessions) Transition(_ context.Context, id string, t repos.StatusTransition) error {
	s := m.rows[id]
	if s.Status != t.From {
		return &domain.InvalidStateError{Required: string(t.From), Actual: string(s.Status)}
	}
	s.Status = t.To
	if t.Plan != nil {
		s.DraftPlan = t.Plan.Clone()
	}
	if t.ClearHistory {
		s.PlanHistory = []models.DraftPlan{}
	}
	s.UpdatedAt = m.tick()
	return nil
}

func (m *memSessions) EditPlan(_ context.Context, id string, edit repos.PlanEdit) (*models.StudySession, error) {
	s := m.rows[id]
	if s.Status != models.StatusEditingPlan {
		return nil, &domain.InvalidStateError{Required: string(models.StatusEditingPlan), Actual: string(s.Status)}
	}
	if !s.UpdatedAt.Equal(edit.ExpectedUpdatedAt) {
		return nil, &domain.ConflictError{Message: "conflict"}
	}
	s.DraftPlan = edit.Plan
	s.PlanHistory = edit.History
	s.UpdatedAt = m.tick()
	cp := *s
	return &cp, nil
}

func TestSeedSessions(t *testing.T) {
	db := newMemSessions()
	seeder := NewStudySeeder(db, slog.New(slog.NewTextHandler(io.Discard, nil)))

	sessions, err := seeder.SeedSessions(context.Background(), "user-1")
	require.NoError(t, err)
	require.Len(t, sessions, 2)

	assert.Equal(t, models.StatusUploading, sessions[0].Status)
	assert.Nil(t, sessions[0].DraftPlan)

	planned := sessions[1]
	assert.Equal(t, models.StatusEditingPlan, planned.Status)
	assert.Equal(t, DemoPlan(), planned.DraftPlan)
	require.Len(t, planned.PlanHistory, 1)
	assert.Len(t, planned.PlanHistory[0], len(DemoPlan())-1)
	assert.True(t, planned.CanUndo())
}

func TestClearSessions(t *testing.T) {
	db := newMemSessions()
	seeder := NewStudySeeder(db, slog.New(slog.NewTextHandler(io.Discard, nil)))
	ctx := context.Background()

	_, err := seeder.SeedSessions(ctx, "user-1")
	require.NoError(t, err)
	_, err = seeder.SeedSessions(ctx, "user-2")
	require.NoError(t, err)

	n, err := seeder.ClearSessions(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	left, err := db.List(ctx, "user-1")
	require.NoError(t, err)
	assert.Empty(t, left)

	others, err := db.List(ctx, "user-2")
	require.NoError(t, err)
	assert.Len(t, others, 2)
}
