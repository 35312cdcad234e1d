package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/ArthurLoboLobo/projeto-estudos/internal/domain"
	"github.com/ArthurLoboLobo/projeto-estudos/internal/httputil"
)

// handleError converts domain errors to HTTP responses
func handleError(w http.ResponseWriter, err error) {
	var (
		stateErr *domain.InvalidStateError
		httpErr  domain.HTTPError
	)

	switch {
	case errors.As(err, &stateErr):
		httputil.RespondErrorWithExtras(w, http.StatusConflict, stateErr.Error(), map[string]interface{}{
			"required_status": stateErr.Required,
			"current_status":  stateErr.Actual,
		})
	case errors.Is(err, domain.ErrValidation):
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		httputil.RespondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrUnauthorized):
		httputil.RespondError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, domain.ErrForbidden):
		httputil.RespondError(w, http.StatusForbidden, err.Error())
	case errors.As(err, &httpErr):
		// ConflictError, NothingToUndoError, ValidationError, NotFoundError,
		// ParseError and InvalidPlanFormatError carry their own status.
		httputil.RespondError(w, httpErr.StatusCode(), httpErr.Error())
	default:
		slog.Error("unhandled error", "error", err)
		httputil.RespondError(w, http.StatusInternalServerError, "internal server error")
	}
}
