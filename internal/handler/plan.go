package handler

import (
	"context"
	"log/slog"
	"net/http"

	models "github.com/ArthurLoboLobo/projeto-estudos/internal/domain/models/study"
	studySvc "github.com/ArthurLoboLobo/projeto-estudos/internal/domain/services/study"
	"github.com/ArthurLoboLobo/projeto-estudos/internal/handler/sse"
	"github.com/ArthurLoboLobo/projeto-estudos/internal/httputil"
)

// runRequest is the optional body of the streaming endpoints.
type runRequest struct {
	Language string `json:"language"`
}

// PlanHandler handles the session lifecycle: plan generation and editing,
// finalization and chunking.
type PlanHandler struct {
	lifecycle studySvc.LifecycleService
	streams   *SSEHandler
	logger    *slog.Logger
}

// NewPlanHandler creates a new plan handler
func NewPlanHandler(lifecycle studySvc.LifecycleService, sseConfig *sse.Config, logger *slog.Logger) *PlanHandler {
	return &PlanHandler{
		lifecycle: lifecycle,
		streams:   NewSSEHandler(lifecycle, sseConfig, logger),
		logger:    logger,
	}
}

// GeneratePlan streams plan generation progress
// POST /api/sessions/{id}/plan/generate
func (h *PlanHandler) GeneratePlan(w http.ResponseWriter, r *http.Request) {
	h.stream(w, r, "plan", h.lifecycle.StartPlanGeneration)
}

// StartChunking streams chunking progress
// POST /api/sessions/{id}/chunking
func (h *PlanHandler) StartChunking(w http.ResponseWriter, r *http.Request) {
	h.stream(w, r, "chunking", h.lifecycle.StartChunking)
}

type startFunc func(ctx context.Context, sessionID, userID, language string) (<-chan models.ProgressEvent, error)

// stream starts a run and relays its events. Errors before the run starts
// are plain HTTP errors; later failures arrive as an error event.
func (h *PlanHandler) stream(w http.ResponseWriter, r *http.Request, run string, start startFunc) {
	sessionID, ok := PathParam(w, r, "id", "Session ID")
	if !ok {
		return
	}

	var req runRequest
	if err := parseOptionalJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	events, err := start(r.Context(), sessionID, httputil.GetUserID(r), req.Language)
	if err != nil {
		handleError(w, err)
		return
	}

	h.streams.serve(w, r, h.logger.With("session_id", sessionID, "run", run), events)
}

// RevisePlan applies a free-text instruction to the draft plan
// POST /api/sessions/{id}/plan/revise
func (h *PlanHandler) RevisePlan(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := PathParam(w, r, "id", "Session ID")
	if !ok {
		return
	}

	var req studySvc.RevisePlanRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	req.SessionID = sessionID
	req.UserID = httputil.GetUserID(r)

	session, err := h.lifecycle.RevisePlan(r.Context(), &req)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, session)
}

// UpdatePlan replaces the draft plan
// PUT /api/sessions/{id}/plan
func (h *PlanHandler) UpdatePlan(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := PathParam(w, r, "id", "Session ID")
	if !ok {
		return
	}

	var req studySvc.UpdatePlanRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	req.SessionID = sessionID
	req.UserID = httputil.GetUserID(r)

	session, err := h.lifecycle.UpdatePlan(r.Context(), &req)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, session)
}

// UndoPlan restores the previous plan
// POST /api/sessions/{id}/plan/undo
func (h *PlanHandler) UndoPlan(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := PathParam(w, r, "id", "Session ID")
	if !ok {
		return
	}

	session, err := h.lifecycle.UndoPlan(r.Context(), sessionID, httputil.GetUserID(r))
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, session)
}

// SetTopicCompletion toggles a draft topic
// PATCH /api/sessions/{id}/plan/topics/{orderIndex}
func (h *PlanHandler) SetTopicCompletion(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := PathParam(w, r, "id", "Session ID")
	if !ok {
		return
	}
	orderIndex, ok := PathInt(w, r, "orderIndex", "Order index")
	if !ok {
		return
	}

	var req studySvc.TopicCompletionRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	req.SessionID = sessionID
	req.UserID = httputil.GetUserID(r)
	req.OrderIndex = orderIndex

	session, err := h.lifecycle.SetTopicCompletion(r.Context(), &req)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, session)
}

// FinalizePlan materializes topics and chats
// POST /api/sessions/{id}/plan/finalize
func (h *PlanHandler) FinalizePlan(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := PathParam(w, r, "id", "Session ID")
	if !ok {
		return
	}

	result, err := h.lifecycle.FinalizePlan(r.Context(), sessionID, httputil.GetUserID(r))
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, result)
}
