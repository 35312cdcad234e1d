package handler

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/ArthurLoboLobo/projeto-estudos/internal/httputil"
)

// PathParam reads a required path wildcard. On failure it writes a 400 and
// returns false.
func PathParam(w http.ResponseWriter, r *http.Request, name, label string) (string, bool) {
	value := r.PathValue(name)
	if value == "" {
		httputil.RespondError(w, http.StatusBadRequest, label+" is required")
		return "", false
	}
	return value, true
}

// PathInt reads a required integer path wildcard.
func PathInt(w http.ResponseWriter, r *http.Request, name, label string) (int, bool) {
	raw, ok := PathParam(w, r, name, label)
	if !ok {
		return 0, false
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		httputil.RespondError(w, http.StatusBadRequest, label+" must be an integer")
		return 0, false
	}
	return n, true
}

// parseOptionalJSON is ParseJSON that accepts an empty body.
func parseOptionalJSON(w http.ResponseWriter, r *http.Request, dest interface{}) error {
	if r.Body == nil || r.ContentLength == 0 {
		return nil
	}
	if err := httputil.ParseJSON(w, r, dest); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// HealthCheck reports liveness
// GET /health
func HealthCheck(w http.ResponseWriter, r *http.Request) {
	httputil.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"status": "ok",
		"time":   time.Now(),
	})
}
