package httputil

import (
	"encoding/json"
	"net/http"
)

// RespondJSON marshals data before touching headers, so an encoding
// failure becomes a clean 500 rather than a truncated body.
func RespondJSON(w http.ResponseWriter, status int, data any) {
	payload, err := json.Marshal(data)
	if err != nil {
		RespondError(w, http.StatusInternalServerError, "failed to encode response")
		return
	}
	write(w, status, "application/json", payload)
}

// ProblemDetail is an RFC 9457 problem document. Extra members are
// flattened into the top-level object.
type ProblemDetail struct {
	Type   string
	Title  string
	Status int
	Detail string
	Extra  map[string]any
}

func (p ProblemDetail) MarshalJSON() ([]byte, error) {
	m := make(map[string]any, len(p.Extra)+4)
	for k, v := range p.Extra {
		m[k] = v
	}
	m["type"] = p.Type
	m["title"] = p.Title
	m["status"] = p.Status
	if p.Detail != "" {
		m["detail"] = p.Detail
	}
	return json.Marshal(m)
}

// RespondError writes a problem response.
func RespondError(w http.ResponseWriter, status int, detail string) {
	RespondErrorWithExtras(w, status, detail, nil)
}

// RespondErrorWithExtras writes a problem response carrying extra members,
// e.g. the required and current status of a session.
func RespondErrorWithExtras(w http.ResponseWriter, status int, detail string, extras map[string]any) {
	payload, err := json.Marshal(ProblemDetail{
		Type:   problemType(status),
		Title:  http.StatusText(status),
		Status: status,
		Detail: detail,
		Extra:  extras,
	})
	if err != nil {
		write(w, http.StatusInternalServerError, "text/plain; charset=utf-8", []byte("internal server error"))
		return
	}
	write(w, status, "application/problem+json", payload)
}

func write(w http.ResponseWriter, status int, contentType string, body []byte) {
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

const rfc9110 = "https://www.rfc-editor.org/rfc/rfc9110#section-"

var problemSections = map[int]string{
	http.StatusBadRequest:            "15.5.1",
	http.StatusUnauthorized:          "15.5.2",
	http.StatusForbidden:             "15.5.4",
	http.StatusNotFound:              "15.5.5",
	http.StatusConflict:              "15.5.10",
	http.StatusRequestEntityTooLarge: "15.5.14",
	http.StatusUnsupportedMediaType:  "15.5.16",
	http.StatusUnprocessableEntity:   "15.5.21",
	http.StatusInternalServerError:   "15.6.1",
	http.StatusBadGateway:            "15.6.3",
	http.StatusServiceUnavailable:    "15.6.4",
}

func problemType(status int) string {
	if section, ok := problemSections[status]; ok {
		return rfc9110 + section
	}
	return "about:blank"
}
