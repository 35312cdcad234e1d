package domain

import (
	"errors"
	"fmt"
	"net/http"
)

// HTTPError defines errors that can be mapped to HTTP status codes.
type HTTPError interface {
	error
	StatusCode() int
}

// Domain error types implementing HTTPError interface
type (
	// NotFoundError indicates a resource was not found
	NotFoundError struct {
		Message string
	}

	// ValidationError indicates invalid input
	ValidationError struct {
		Message string
	}

	// UnauthorizedError indicates authentication failure
	UnauthorizedError struct {
		Message string
	}

	// ForbiddenError indicates authorization failure
	ForbiddenError struct {
		Message string
	}
)

func (e *NotFoundError) Error() string     { return e.Message }
func (e *ValidationError) Error() string   { return e.Message }
func (e *UnauthorizedError) Error() string { return e.Message }
func (e *ForbiddenError) Error() string    { return e.Message }

func (e *NotFoundError) StatusCode() int     { return http.StatusNotFound }
func (e *ValidationError) StatusCode() int   { return http.StatusBadRequest }
func (e *UnauthorizedError) StatusCode() int { return http.StatusUnauthorized }
func (e *ForbiddenError) StatusCode() int    { return http.StatusForbidden }

// Sentinel errors - use with errors.Is()
var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("already exists")
	ErrValidation   = errors.New("validation failed")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrInvalidState = errors.New("invalid session state")
)

// ConflictError represents a resource conflict with details about the existing resource
type ConflictError struct {
	Message      string // Human-readable error message
	ResourceType string // Type of resource (session, document, topic)
	ResourceID   string // ID of the existing/conflicting resource
}

func (e *ConflictError) Error() string {
	return e.Message
}

func (e *ConflictError) StatusCode() int {
	return http.StatusConflict
}

// Is allows errors.Is() to match against ErrConflict
func (e *ConflictError) Is(target error) bool {
	return target == ErrConflict
}

// InvalidStateError is returned when a session is not in the status an
// operation requires. Actual is empty when the caller lost a
// compare-and-swap race and the current status is unknown.
type InvalidStateError struct {
	Required string
	Actual   string
}

func (e *InvalidStateError) Error() string {
	if e.Actual == "" {
		return fmt.Sprintf("session must be in %s status", e.Required)
	}
	return fmt.Sprintf("session must be in %s status (currently %s)", e.Required, e.Actual)
}

func (e *InvalidStateError) StatusCode() int {
	return http.StatusConflict
}

func (e *InvalidStateError) Is(target error) bool {
	return target == ErrInvalidState
}

// NothingToUndoError is returned by undo when the plan history is empty.
type NothingToUndoError struct{}

func (e *NothingToUndoError) Error() string   { return "nothing to undo" }
func (e *NothingToUndoError) StatusCode() int { return http.StatusConflict }

// ParseError reports a model response that lacks a mandatory field.
type ParseError struct {
	Field string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("missing required <%s> tag in model response", e.Field)
}

func (e *ParseError) StatusCode() int {
	return http.StatusUnprocessableEntity
}

// InvalidPlanFormatError reports a model response that is not a valid
// study plan.
type InvalidPlanFormatError struct {
	Reason string
	Err    error
}

func (e *InvalidPlanFormatError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid plan format: %s: %v", e.Reason, e.Err)
	}
	return "invalid plan format: " + e.Reason
}

func (e *InvalidPlanFormatError) Unwrap() error {
	return e.Err
}

func (e *InvalidPlanFormatError) StatusCode() int {
	return http.StatusBadGateway
}
