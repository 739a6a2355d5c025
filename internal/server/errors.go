package server

import (
	"net/http"

	"github.com/go-chi/render"
)

// APIError is the JSON body of every failed request.
type APIError struct {
	StatusCode int    `json:"status_code"`
	ErrorCode  string `json:"error_code"`
	Message    string `json:"message"`
	Details    any    `json:"details,omitempty"`
}

func (e *APIError) Error() string { return e.Message }

// Render implements render.Renderer.
func (e *APIError) Render(_ http.ResponseWriter, r *http.Request) error {
	render.Status(r, e.StatusCode)
	return nil
}

// FieldError names one rejected query parameter.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func newError(status int, code, msg string) *APIError {
	return &APIError{StatusCode: status, ErrorCode: code, Message: msg}
}

var (
	errNotFound    = newError(http.StatusNotFound, "NOT_FOUND", "resource not found")
	errMethod      = newError(http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "method not allowed")
	errRateLimited = newError(http.StatusTooManyRequests, "RATE_LIMITED", "rate limit exceeded")
	errNoData      = newError(http.StatusServiceUnavailable, "NO_DATA", "no records loaded")
)

func invalidParameter(field, msg string) *APIError {
	return &APIError{
		StatusCode: http.StatusBadRequest,
		ErrorCode:  "INVALID_PARAMETER",
		Message:    "invalid query parameter " + field,
		Details:    []FieldError{{Field: field, Message: msg}},
	}
}

func validationFailed(fields []FieldError) *APIError {
	return &APIError{
		StatusCode: http.StatusBadRequest,
		ErrorCode:  "VALIDATION_FAILED",
		Message:    "query validation failed",
		Details:    fields,
	}
}

func writeError(w http.ResponseWriter, r *http.Request, e *APIError) {
	_ = render.Render(w, r, e)
}
