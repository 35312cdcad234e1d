package study

import "time"

// Progress event names sent over plan generation and chunking streams.
const (
	EventDocumentProcessed = "document_processed"
	EventDocumentChunked   = "document_chunked"
	EventCompleted         = "completed"
	EventError             = "error"
)

// ProgressEvent is one named, timestamped status update of a pipeline run.
type ProgressEvent struct {
	Name      string    `json:"event"`
	Data      any       `json:"data"`
	Timestamp time.Time `json:"timestamp"`
}

// DocumentProcessedData is the payload of document_processed.
type DocumentProcessedData struct {
	Doc   int       `json:"doc"`
	Total int       `json:"total"`
	Plan  DraftPlan `json:"plan"`
}

// DocumentChunkedData is the payload of document_chunked.
type DocumentChunkedData struct {
	Doc        int    `json:"doc"`
	Total      int    `json:"total"`
	DocumentID string `json:"document_id"`
	Chunks     int    `json:"chunks"`
	Fallback   bool   `json:"fallback,omitempty"`
	Skipped    bool   `json:"skipped,omitempty"`
	Failed     bool   `json:"failed,omitempty"`
	Error      string `json:"error,omitempty"`
}

// PlanCompletedData is the payload of completed for plan generation.
type PlanCompletedData struct {
	Plan DraftPlan `json:"plan"`
}

// ChunkingCompletedData is the payload of completed for chunking.
type ChunkingCompletedData struct {
	Documents int `json:"documents"`
	Failed    int `json:"failed"`
	Chunks    int `json:"chunks"`
}

// ErrorData is the payload of error.
type ErrorData struct {
	Message string `json:"message"`
}

// NewProgressEvent stamps an event with the current time.
func NewProgressEvent(name string, data any) ProgressEvent {
	return ProgressEvent{Name: name, Data: data, Timestamp: time.Now().UTC()}
}
