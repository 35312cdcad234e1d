package study

import "time"

// ProcessingStatus tracks text extraction of an uploaded document.
type ProcessingStatus string

const (
	ProcessingPending    ProcessingStatus = "PENDING"
	ProcessingProcessing ProcessingStatus = "PROCESSING"
	ProcessingCompleted  ProcessingStatus = "COMPLETED"
	ProcessingFailed     ProcessingStatus = "FAILED"
)

// Document is an uploaded PDF and the text extracted from it.
type Document struct {
	ID               string           `json:"id"`
	SessionID        string           `json:"session_id"`
	FileName         string           `json:"file_name"`
	FilePath         string           `json:"-"`
	FileDescription  *string          `json:"file_description,omitempty"`
	ContentText      *string          `json:"-"`
	ContentLength    *int             `json:"content_length,omitempty"`
	ProcessingStatus ProcessingStatus `json:"processing_status"`
	CreatedAt        time.Time        `json:"created_at"`
}

// Text returns the extracted text or "" when extraction has not run.
func (d *Document) Text() string {
	if d.ContentText == nil {
		return ""
	}
	return *d.ContentText
}
