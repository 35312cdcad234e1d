package study

import (
	"context"

	models "github.com/ArthurLoboLobo/projeto-estudos/internal/domain/models/study"
)

// RevisePlanRequest asks the planning model to change the draft plan
type RevisePlanRequest struct {
	SessionID   string `json:"-"`
	UserID      string `json:"-"`
	Instruction string `json:"instruction"`
	Language    string `json:"language"`
}

// UpdatePlanRequest replaces the draft plan with a user-edited one
type UpdatePlanRequest struct {
	SessionID string           `json:"-"`
	UserID    string           `json:"-"`
	Plan      models.DraftPlan `json:"plan"`
}

// TopicCompletionRequest toggles a draft topic's completion flag
type TopicCompletionRequest struct {
	SessionID   string `json:"-"`
	UserID      string `json:"-"`
	OrderIndex  int    `json:"-"`
	IsCompleted bool   `json:"is_completed"`
}

// FinalizeResult is what finalization materialized
type FinalizeResult struct {
	Session *models.StudySession `json:"session"`
	Topics  []models.Topic       `json:"topics"`
	Chats   []models.Chat        `json:"chats"`
}

// RunKind names a background run of a session.
type RunKind string

const (
	RunPlan     RunKind = "plan"
	RunChunking RunKind = "chunking"
)

// LifecycleService runs the guarded session state machine: plan generation,
// plan editing, finalization and chunking.
type LifecycleService interface {
	// StartPlanGeneration moves the session UPLOADING -> GENERATING_PLAN and
	// starts building the plan in the background. The returned channel
	// yields progress events and is closed after the final completed or
	// error event. The run continues if the caller stops reading.
	StartPlanGeneration(ctx context.Context, sessionID, userID, language string) (<-chan models.ProgressEvent, error)

	// RevisePlan applies a free-text instruction through the planning model
	RevisePlan(ctx context.Context, req *RevisePlanRequest) (*models.StudySession, error)

	// UpdatePlan replaces the draft plan with a user-edited one
	UpdatePlan(ctx context.Context, req *UpdatePlanRequest) (*models.StudySession, error)

	// UndoPlan restores the most recent history snapshot
	UndoPlan(ctx context.Context, sessionID, userID string) (*models.StudySession, error)

	// SetTopicCompletion toggles a draft topic without recording history
	SetTopicCompletion(ctx context.Context, req *TopicCompletionRequest) (*models.StudySession, error)

	// FinalizePlan materializes topics and chats and moves the session to CHUNKING
	FinalizePlan(ctx context.Context, sessionID, userID string) (*FinalizeResult, error)

	// StartChunking chunks every completed document of a CHUNKING session in
	// the background; see StartPlanGeneration for the channel contract.
	// A second call while the run is going attaches to it.
	StartChunking(ctx context.Context, sessionID, userID, language string) (<-chan models.ProgressEvent, error)

	// FollowRun replays a session's current or recently finished run from
	// its first event and then follows it live.
	FollowRun(ctx context.Context, sessionID, userID string, kind RunKind) (<-chan models.ProgressEvent, error)
}
