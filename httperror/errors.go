// Package httperror provides HTTP error types and the JSON error response
// written by the compile server.
package httperror

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// Error implements the error interface with HTTP status code support.
type Error struct {
	code    int
	kind    string
	message string
	cause   error
}

// Error returns the error message.
func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.message, e.cause)
	}
	return e.message
}

// Code returns the HTTP status code.
func (e *Error) Code() int { return e.code }

// Kind returns the machine-readable error code, e.g. "unknown_column".
func (e *Error) Kind() string { return e.kind }

// Message returns the error message without the cause.
func (e *Error) Message() string { return e.message }

// Unwrap returns the underlying cause for errors.As/errors.Is support.
func (e *Error) Unwrap() error { return e.cause }

// New creates a new HTTP error.
func New(code int, kind, message string) *Error {
	return &Error{code: code, kind: kind, message: message}
}

// Wrap wraps an underlying error with an HTTP error.
func Wrap(code int, kind, message string, cause error) *Error {
	return &Error{code: code, kind: kind, message: message, cause: cause}
}

// BadRequestf creates a 400 Bad Request error with a formatted message.
func BadRequestf(format string, args ...any) *Error {
	return &Error{code: http.StatusBadRequest, kind: "bad_request", message: fmt.Sprintf(format, args...)}
}

// NotFoundf creates a 404 Not Found error with a formatted message.
func NotFoundf(format string, args ...any) *Error {
	return &Error{code: http.StatusNotFound, kind: "not_found", message: fmt.Sprintf(format, args...)}
}

// Unprocessable creates a 422 Unprocessable Entity error for a request that
// was well formed but could not be compiled.
func Unprocessable(kind string, cause error) *Error {
	return &Error{code: http.StatusUnprocessableEntity, kind: kind, message: "compile failed", cause: cause}
}

// Response is the error response body.
type Response struct {
	Error Detail `json:"error"`
}

// Detail contains the error code and message.
type Detail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Write writes err as a JSON error response. Errors that are not *Error
// become 500 Internal Server Error.
func Write(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	kind := "internal_error"

	var httpErr *Error
	if errors.As(err, &httpErr) {
		status = httpErr.code
		kind = httpErr.kind
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(Response{
		Error: Detail{Code: kind, Message: err.Error()},
	})
}
