package study

import (
	"time"
)

// SessionStatus is the lifecycle state of a study session.
type SessionStatus string

const (
	StatusUploading      SessionStatus = "UPLOADING"
	StatusGeneratingPlan SessionStatus = "GENERATING_PLAN"
	StatusEditingPlan    SessionStatus = "EDITING_PLAN"
	StatusChunking       SessionStatus = "CHUNKING"
	StatusActive         SessionStatus = "ACTIVE"
	StatusCompleted      SessionStatus = "COMPLETED"
)

// Valid reports whether s is a known status.
func (s SessionStatus) Valid() bool {
	switch s {
	case StatusUploading, StatusGeneratingPlan, StatusEditingPlan,
		StatusChunking, StatusActive, StatusCompleted:
		return true
	}
	return false
}

// StudySession is one user's study workspace: the uploaded documents, the
// plan derived from them and, once finalized, the topics and chunks.
type StudySession struct {
	ID          string        `json:"id"`
	UserID      string        `json:"user_id"`
	Title       string        `json:"title"`
	Description *string       `json:"description,omitempty"`
	Status      SessionStatus `json:"status"`
	DraftPlan   DraftPlan     `json:"draft_plan"`
	// PlanHistory holds strictly prior snapshots of DraftPlan; the last
	// element is the most recent one.
	PlanHistory []DraftPlan `json:"plan_history"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

// CanUndo reports whether there is a previous plan to restore.
func (s *StudySession) CanUndo() bool {
	return len(s.PlanHistory) > 0
}
