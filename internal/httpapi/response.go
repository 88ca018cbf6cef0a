package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/roach88/rollcall/internal/engine"
	"github.com/roach88/rollcall/internal/selection"
	"github.com/roach88/rollcall/internal/stats"
)

// Response is the envelope of every reply, shared with the CLI's JSON output.
type Response struct {
	Status string `json:"status"`          // "ok" or "error"
	Data   any    `json:"data,omitempty"`  // success payload
	Error  *Error `json:"error,omitempty"` // error details
}

// Error describes a failed request.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// Error codes beyond the engine's.
const (
	CodeBadRequest  = "BAD_REQUEST"
	CodeNoSelection = "NO_SELECTION"
	CodeNotFound    = "NOT_FOUND"
)

// badRequest marks a malformed request.
type badRequest struct{ msg string }

func (e *badRequest) Error() string { return e.msg }

func writeJSON(w http.ResponseWriter, status int, resp Response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(resp)
}

func (h *Handler) ok(w http.ResponseWriter, data any) {
	writeJSON(w, http.StatusOK, Response{Status: "ok", Data: data})
}

// fail maps err onto a status code and writes the error envelope.
//
//	VALIDATION      422
//	CONFLICT        409 (also a missing selection)
//	STORE           503
//	PARTIAL_COMMIT  500
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	status, body := classify(err)
	if status >= http.StatusInternalServerError {
		h.Log.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
	} else {
		h.Log.Debug("request rejected", "method", r.Method, "path", r.URL.Path, "error", err)
	}
	writeJSON(w, status, Response{Status: "error", Error: body})
}

func classify(err error) (int, *Error) {
	body := &Error{Message: err.Error()}

	var ee *engine.Error
	var br *badRequest
	switch {
	case errors.As(err, &ee):
		body.Code = string(ee.Code)
		if ee.Field != "" || ee.Member != "" {
			body.Details = map[string]string{"field": ee.Field, "member": ee.Member}
		}
		switch ee.Code {
		case engine.ErrCodeValidation:
			return http.StatusUnprocessableEntity, body
		case engine.ErrCodeConflict:
			return http.StatusConflict, body
		case engine.ErrCodePartialCommit:
			return http.StatusInternalServerError, body
		default:
			return http.StatusServiceUnavailable, body
		}
	case errors.As(err, &br):
		body.Code = CodeBadRequest
		return http.StatusBadRequest, body
	case errors.Is(err, selection.ErrInvalid):
		body.Code = string(engine.ErrCodeValidation)
		return http.StatusUnprocessableEntity, body
	case errors.Is(err, selection.ErrNotConfirmed):
		body.Code = CodeNoSelection
		return http.StatusConflict, body
	case errors.Is(err, stats.ErrNoAttendance):
		body.Code = CodeNotFound
		return http.StatusNotFound, body
	case errors.Is(err, stats.ErrInvalidDate):
		body.Code = string(engine.ErrCodeValidation)
		return http.StatusUnprocessableEntity, body
	default:
		body.Code = string(engine.ErrCodeStore)
		return http.StatusServiceUnavailable, body
	}
}
