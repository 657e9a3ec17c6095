package resource

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
)

// Client-facing error messages. Storage failures never surface more than
// MsgInternal; the detail goes to the server log.
const (
	MsgValidation       = "Validation error"
	MsgNotFound         = "Not found"
	MsgInternal         = "Internal server error"
	MsgMethodNotAllowed = "Method not allowed"
)

// ValidationError is returned when a payload, identifier or query violates a rule.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// StatusCode returns the HTTP status code for this error.
func (e *ValidationError) StatusCode() int {
	return http.StatusBadRequest
}

// NotFoundError is returned when no record of the kind has the id.
type NotFoundError struct {
	Kind Kind
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Kind, e.ID)
}

// StatusCode returns the HTTP status code for this error.
func (e *NotFoundError) StatusCode() int {
	return http.StatusNotFound
}

// StorageError wraps a failure of the relational store.
type StorageError struct {
	Op   Operation
	Kind Kind
	// ID is empty for collection operations.
	ID   string
	Err  error
}

func (e *StorageError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("storage %s %s %s: %v", e.Op, e.Kind, e.ID, e.Err)
	}
	return fmt.Sprintf("storage %s %s: %v", e.Op, e.Kind, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// StatusCode returns the HTTP status code for this error.
func (e *StorageError) StatusCode() int {
	return http.StatusInternalServerError
}

// MethodNotAllowedError is returned for a verb the route does not define.
type MethodNotAllowedError struct {
	Kind   Kind
	Method string
}

func (e *MethodNotAllowedError) Error() string {
	if e.Kind == "" {
		return fmt.Sprintf("method %s not allowed", e.Method)
	}
	return fmt.Sprintf("method %s not allowed for %s", e.Method, e.Kind)
}

// StatusCode returns the HTTP status code for this error.
func (e *MethodNotAllowedError) StatusCode() int {
	return http.StatusMethodNotAllowed
}

// Envelope is the uniform error body.
type Envelope struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	// Code is only set by the error simulation route.
	Code int `json:"code,omitempty"`
}

// MapError converts an engine error into a status code and envelope.
// Storage and unknown errors are logged with their full detail.
func MapError(err error, log *slog.Logger) (int, Envelope) {
	var (
		validationErr *ValidationError
		notFoundErr   *NotFoundError
		methodErr     *MethodNotAllowedError
		storageErr    *StorageError
	)

	switch {
	case errors.As(err, &validationErr):
		if log != nil {
			log.Debug("validation failed", "field", validationErr.Field, "error", validationErr.Message)
		}
		return http.StatusBadRequest, Envelope{Error: MsgValidation, Message: validationErr.Message}
	case errors.As(err, &notFoundErr):
		return http.StatusNotFound, Envelope{Error: MsgNotFound}
	case errors.As(err, &methodErr):
		return http.StatusMethodNotAllowed, Envelope{Error: MsgMethodNotAllowed}
	case errors.As(err, &storageErr):
		if log != nil {
			log.Error("storage failure", "operation", storageErr.Op, "kind", storageErr.Kind, "id", storageErr.ID, "error", storageErr.Err)
		}
		return http.StatusInternalServerError, Envelope{Error: MsgInternal}
	default:
		if log != nil {
			log.Error("unexpected engine error", "error", err)
		}
		return http.StatusInternalServerError, Envelope{Error: MsgInternal}
	}
}
