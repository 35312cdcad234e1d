package handler

import (
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	models "github.com/ArthurLoboLobo/projeto-estudos/internal/domain/models/study"
	studySvc "github.com/ArthurLoboLobo/projeto-estudos/internal/domain/services/study"
	"github.com/ArthurLoboLobo/projeto-estudos/internal/handler/sse"
	"github.com/ArthurLoboLobo/projeto-estudos/internal/httputil"
)

// SSEHandler streams progress of plan generation and chunking runs.
type SSEHandler struct {
	lifecycle studySvc.LifecycleService
	config    *sse.Config
	logger    *slog.Logger
}

// NewSSEHandler creates a new SSE handler
func NewSSEHandler(lifecycle studySvc.LifecycleService, config *sse.Config, logger *slog.Logger) *SSEHandler {
	if config == nil {
		config = sse.DefaultConfig()
	}
	return &SSEHandler{
		lifecycle: lifecycle,
		config:    config,
		logger:    logger,
	}
}

// StreamRun replays a session's run from its first event and follows it
// GET /api/sessions/{id}/runs/{kind}/stream
func (h *SSEHandler) StreamRun(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := PathParam(w, r, "id", "Session ID")
	if !ok {
		return
	}
	if _, err := uuid.Parse(sessionID); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid session ID format")
		return
	}
	kind := studySvc.RunKind(r.PathValue("kind"))

	events, err := h.lifecycle.FollowRun(r.Context(), sessionID, httputil.GetUserID(r), kind)
	if err != nil {
		handleError(w, err)
		return
	}

	h.serve(w, r, h.logger.With("session_id", sessionID, "run", string(kind), "attach", true), events)
}

// serve relays events to the client until the run ends or the client
// goes away.
func (h *SSEHandler) serve(w http.ResponseWriter, r *http.Request, logger *slog.Logger, events <-chan models.ProgressEvent) {
	writer, err := sse.NewWriter(w)
	if err != nil {
		// The run goes on without this listener.
		logger.Error("cannot stream response", "error", err)
		return
	}

	logger.Debug("SSE stream established", "client_ip", r.RemoteAddr)
	sse.Relay(r.Context(), writer, events, h.config, logger)
	logger.Debug("SSE stream ended")
}
