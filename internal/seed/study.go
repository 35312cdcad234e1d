// Package seed fills a development database with demo study sessions.
package seed

import (
	"context"
	"fmt"
	"log/slog"

	models "github.com/ArthurLoboLobo/projeto-estudos/internal/domain/models/study"
	repos "github.com/ArthurLoboLobo/projeto-estudos/internal/domain/repositories/study"
)

// StudySeeder creates demo sessions through the session repository, so
// seeded rows obey the same status guards as real ones.
type StudySeeder struct {
	sessions repos.SessionRepository
	logger   *slog.Logger
}

// NewStudySeeder creates a new study seeder
func NewStudySeeder(sessions repos.SessionRepository, logger *slog.Logger) *StudySeeder {
	return &StudySeeder{
		sessions: sessions,
		logger:   logger,
	}
}

// DemoPlan is the draft plan given to the seeded EDITING_PLAN session.
func DemoPlan() models.DraftPlan {
	return models.DraftPlan{
		{OrderIndex: 1, Title: "Limits", Subtopics: []string{"Definition of a limit", "One-sided limits", "Limits at infinity"}},
		{OrderIndex: 2, Title: "Derivatives", Subtopics: []string{"Difference quotient", "Product and quotient rules", "Chain rule"}},
		{OrderIndex: 3, Title: "Applications of derivatives", Subtopics: []string{"Related rates", "Optimization"}},
		{OrderIndex: 4, Title: "Integrals", Subtopics: []string{"Riemann sums", "Fundamental theorem of calculus"}},
	}
}

// SeedSessions creates one empty UPLOADING session and one session waiting
// in EDITING_PLAN with a draft plan and one undo step.
func (s *StudySeeder) SeedSessions(ctx context.Context, userID string) ([]*models.StudySession, error) {
	description := "Upload lecture notes and past exams to get started."
	empty := &models.StudySession{
		UserID:      userID,
		Title:       "Linear Algebra",
		Description: &description,
	}
	if err := s.sessions.Create(ctx, empty); err != nil {
		return nil, fmt.Errorf("seed empty session: %w", err)
	}
	s.logger.Info("seeded session", "session_id", empty.ID, "status", empty.Status)

	planned, err := s.seedPlannedSession(ctx, userID)
	if err != nil {
		return nil, err
	}

	return []*models.StudySession{empty, planned}, nil
}

func (s *StudySeeder) seedPlannedSession(ctx context.Context, userID string) (*models.StudySession, error) {
	session := &models.StudySession{
		UserID: userID,
		Title:  "Calculus I",
	}
	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("seed planned session: %w", err)
	}

	// A plan without the last topic is the undo step.
	full := DemoPlan()
	first := full[:len(full)-1].Clone()

	if err := s.sessions.Transition(ctx, session.ID, repos.StatusTransition{
		From: models.StatusUploading,
		To:   models.StatusGeneratingPlan,
	}); err != nil {
		return nil, fmt.Errorf("seed planned session: %w", err)
	}
	if err := s.sessions.Transition(ctx, session.ID, repos.StatusTransition{
		From:         models.StatusGeneratingPlan,
		To:           models.StatusEditingPlan,
		Plan:         &first,
		ClearHistory: true,
	}); err != nil {
		return nil, fmt.Errorf("seed planned session: %w", err)
	}

	current, err := s.sessions.GetByID(ctx, session.ID, userID)
	if err != nil {
		return nil, err
	}
	updated, err := s.sessions.EditPlan(ctx, session.ID, repos.PlanEdit{
		Plan:              full,
		History:           []models.DraftPlan{first},
		ExpectedUpdatedAt: current.UpdatedAt,
	})
	if err != nil {
		return nil, fmt.Errorf("seed planned session: %w", err)
	}

	s.logger.Info("seeded session",
		"session_id", updated.ID,
		"status", updated.Status,
		"topics", len(updated.DraftPlan),
	)
	return updated, nil
}

// ClearSessions deletes every session of userID. Documents, topics, chats
// and chunks cascade; stored files are left in the bucket.
func (s *StudySeeder) ClearSessions(ctx context.Context, userID string) (int, error) {
	sessions, err := s.sessions.List(ctx, userID)
	if err != nil {
		return 0, err
	}
	for _, session := range sessions {
		if err := s.sessions.Delete(ctx, session.ID, userID); err != nil {
			return 0, fmt.Errorf("clear session %s: %w", session.ID, err)
		}
	}
	return len(sessions), nil
}
