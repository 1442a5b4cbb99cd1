// Package apierror provides standardized error response structures for the API.
// All errors returned to clients go through this package to ensure consistency
// and to prevent leaking internal details (stack traces, DB errors, etc.).
package apierror

import (
	"fmt"
	"net/http"
)

// APIError is the canonical error envelope for all 4xx/5xx HTTP responses.
type APIError struct {
	Detail string `json:"detail"`
}

func New(msg string) *APIError {
	return &APIError{Detail: msg}
}

// Validation wraps multiple field errors.
type ValidationError struct {
	Detail string            `json:"detail"`
	Fields map[string]string `json:"fields"`
}

func NewValidation(fields map[string]string) *ValidationError {
	return &ValidationError{Detail: "Error de validacion", Fields: fields}
}

// Error is a typed domain error carrying the HTTP status it maps to.
// Services return *Error for every failure they can classify; handlers
// translate it into a response with a single helper. Storage and database
// SDK errors are resolved into one of these at the boundary, never
// propagated raw to the transport layer.
type Error struct {
	Status int
	Detail string
	Err    error // wrapped cause — logged, never serialized
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Detail, e.Err)
	}
	return e.Detail
}

func (e *Error) Unwrap() error { return e.Err }

// NotFound → 404: the referenced document/material/batch/version is absent.
func NotFound(detail string) *Error {
	return &Error{Status: http.StatusNotFound, Detail: detail}
}

// Conflict → 409: a uniqueness constraint was violated.
func Conflict(detail string) *Error {
	return &Error{Status: http.StatusConflict, Detail: detail}
}

// Invalid → 422: malformed input (non-object extra, empty file, bad date).
func Invalid(detail string) *Error {
	return &Error{Status: http.StatusUnprocessableEntity, Detail: detail}
}

// Unavailable → 503: a backing store is disabled or unreachable.
func Unavailable(detail string) *Error {
	return &Error{Status: http.StatusServiceUnavailable, Detail: detail}
}

// Internal → 500: storage-backend failure or unclassified error.
func Internal(detail string, err error) *Error {
	return &Error{Status: http.StatusInternalServerError, Detail: detail, Err: err}
}
