package domain

import (
	"errors"
	"fmt"
	"net/http"
)

// HTTPError defines errors that can be mapped to HTTP status codes.
// Implementing this interface enables extensible error handling (OCP compliance).
type HTTPError interface {
	error
	StatusCode() int
}

// Domain error types implementing HTTPError interface
type (
	// NotFoundError indicates a resource was not found
	NotFoundError struct {
		Message string
	}

	// ValidationError indicates invalid input
	ValidationError struct {
		Message string
	}

	// UnauthorizedError indicates authentication failure
	UnauthorizedError struct {
		Message string
	}

	// TimeoutError indicates the persistence gateway deadline was exceeded.
	// The underlying transaction rolls back, so no partial write is visible.
	TimeoutError struct {
		Message string
	}
)

// Error implementations
func (e *NotFoundError) Error() string     { return e.Message }
func (e *ValidationError) Error() string   { return e.Message }
func (e *UnauthorizedError) Error() string { return e.Message }
func (e *TimeoutError) Error() string      { return e.Message }

// StatusCode implementations (HTTPError interface)
func (e *NotFoundError) StatusCode() int     { return http.StatusNotFound }
func (e *ValidationError) StatusCode() int   { return http.StatusBadRequest }
func (e *UnauthorizedError) StatusCode() int { return http.StatusUnauthorized }
func (e *TimeoutError) StatusCode() int      { return http.StatusRequestTimeout }

// Sentinel errors - use with errors.Is()
var (
	ErrNotFound        = errors.New("not found")
	ErrConflict        = errors.New("already exists")
	ErrValidation      = errors.New("validation failed")
	ErrUnauthorized    = errors.New("unauthorized")
	ErrInvalidState    = errors.New("invalid state transition")
	ErrVersionConflict = errors.New("version conflict")
	ErrPatchConflict   = errors.New("patch conflict")
	ErrTimeout         = errors.New("operation timed out")
)

// InvalidStateError represents an illegal AI request lifecycle transition.
// It carries the expected and actual states so callers can decide between
// retrying and aborting.
type InvalidStateError struct {
	RequestID string
	Expected  string
	Actual    string
}

// Error implements the error interface
func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("request %s: expected status %s, got %s", e.RequestID, e.Expected, e.Actual)
}

// StatusCode implements the HTTPError interface
func (e *InvalidStateError) StatusCode() int {
	return http.StatusConflict
}

// Is allows errors.Is() to match against ErrInvalidState
func (e *InvalidStateError) Is(target error) bool {
	return target == ErrInvalidState
}

// VersionConflictError is returned when the version-allocation retry budget
// is exhausted because concurrent writers kept winning the race for the same
// version number.
type VersionConflictError struct {
	DocumentID string
	Version    int
	Attempts   int
}

// Error implements the error interface
func (e *VersionConflictError) Error() string {
	return fmt.Sprintf("document %s: lost version %d allocation race after %d attempts", e.DocumentID, e.Version, e.Attempts)
}

// StatusCode implements the HTTPError interface
func (e *VersionConflictError) StatusCode() int {
	return http.StatusConflict
}

// Is allows errors.Is() to match against ErrVersionConflict
func (e *VersionConflictError) Is(target error) bool {
	return target == ErrVersionConflict
}

// PatchConflictError indicates a stored diff no longer applies to the content
// it was recorded against - the content drifted from expectations. Surfaced
// immediately, never retried.
type PatchConflictError struct {
	ExpectedFingerprint string
	ActualFingerprint   string
}

// Error implements the error interface
func (e *PatchConflictError) Error() string {
	return fmt.Sprintf("patch base mismatch: expected fingerprint %s, got %s", e.ExpectedFingerprint, e.ActualFingerprint)
}

// StatusCode implements the HTTPError interface
func (e *PatchConflictError) StatusCode() int {
	return http.StatusUnprocessableEntity
}

// Is allows errors.Is() to match against ErrPatchConflict
func (e *PatchConflictError) Is(target error) bool {
	return target == ErrPatchConflict
}

// ConflictError represents a resource conflict with details about the existing resource
// Implements HTTPError interface for extensible error handling
type ConflictError struct {
	Message      string // Human-readable error message
	ResourceType string // Type of resource (document, project, request)
	ResourceID   string // ID of the existing/conflicting resource
}

// Error implements the error interface
func (e *ConflictError) Error() string {
	return e.Message
}

// StatusCode implements the HTTPError interface
func (e *ConflictError) StatusCode() int {
	return http.StatusConflict
}

// Is allows errors.Is() to match against ErrConflict
func (e *ConflictError) Is(target error) bool {
	return target == ErrConflict
}
