package study

import (
	"context"
	"time"

	models "github.com/ArthurLoboLobo/projeto-estudos/internal/domain/models/study"
)

// StatusTransition describes a guarded status change. The change is applied
// only if the session is currently in From.
type StatusTransition struct {
	From models.SessionStatus
	To   models.SessionStatus
	// Plan, when non-nil, replaces draft_plan in the same statement.
	Plan *models.DraftPlan
	// ClearHistory empties plan_history in the same statement.
	ClearHistory bool
}

// PlanEdit is a compare-and-swap replacement of the draft plan and its
// history. It applies only while the session is EDITING_PLAN and its
// updated_at still equals ExpectedUpdatedAt.
type PlanEdit struct {
	Plan              models.DraftPlan
	History           []models.DraftPlan
	ExpectedUpdatedAt time.Time
}

// SessionRepository defines data access operations for study sessions
type SessionRepository interface {
	// Create inserts a session in UPLOADING status and fills ID and timestamps
	Create(ctx context.Context, session *models.StudySession) error

	// GetByID retrieves a session owned by userID
	GetByID(ctx context.Context, id, userID string) (*models.StudySession, error)

	// List retrieves all sessions of a user, newest first
	List(ctx context.Context, userID string) ([]models.StudySession, error)

	// Delete removes a session; documents, topics, chats and chunks cascade
	Delete(ctx context.Context, id, userID string) error

	// Transition atomically moves a session from t.From to t.To.
	// Returns *domain.InvalidStateError when the session is not in t.From.
	Transition(ctx context.Context, id string, t StatusTransition) error

	// EditPlan applies a PlanEdit and returns the updated session.
	// Returns *domain.InvalidStateError when the session left EDITING_PLAN and
	// *domain.ConflictError when another edit won the race.
	EditPlan(ctx context.Context, id string, edit PlanEdit) (*models.StudySession, error)
}
