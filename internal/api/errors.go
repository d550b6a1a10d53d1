package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/MalithGihan/blueprint-service/internal/store"
)

type Code string

const (
	CodeInvalidInput    Code = "INVALID_INPUT"
	CodeNotFound        Code = "NOT_FOUND"
	CodeRateLimited     Code = "RATE_LIMITED"
	CodeExportBlocked   Code = "EXPORT_BLOCKED"
	CodePayloadTooLarge Code = "PAYLOAD_TOO_LARGE"
	CodeInternal        Code = "INTERNAL_ERROR"
)

// apiError is an error that knows how it should be reported to the client.
type apiError struct {
	Status  int
	Code    Code
	Message string
	Cause   error
}

func (e *apiError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *apiError) Unwrap() error { return e.Cause }

func badRequest(msg string, cause error) *apiError {
	return &apiError{Status: http.StatusBadRequest, Code: CodeInvalidInput, Message: msg, Cause: cause}
}

func tooLarge(msg string) *apiError {
	return &apiError{Status: http.StatusRequestEntityTooLarge, Code: CodePayloadTooLarge, Message: msg}
}

type errorBody struct {
	Error string `json:"error"`
	Code  Code   `json:"code"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps err onto a status code. Unknown errors are logged and
// reported as internal errors without their details.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var ae *apiError
	switch {
	case errors.As(err, &ae):
	case errors.Is(err, store.ErrNotFound):
		ae = &apiError{Status: http.StatusNotFound, Code: CodeNotFound, Message: "not found"}
	case errors.Is(err, store.ErrInvalidPath):
		ae = &apiError{Status: http.StatusBadRequest, Code: CodeInvalidInput, Message: err.Error()}
	default:
		s.log.Error("request failed", "method", r.Method, "path", r.URL.Path, "err", err)
		ae = &apiError{Status: http.StatusInternalServerError, Code: CodeInternal, Message: "internal server error"}
	}

	msg := ae.Message
	if ae.Cause != nil && ae.Status < 500 {
		msg = fmt.Sprintf("%s: %v", ae.Message, ae.Cause)
	}
	writeJSON(w, ae.Status, errorBody{Error: msg, Code: ae.Code})
}
