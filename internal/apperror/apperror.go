// Package apperror defines the error kinds shared across the application.
//
// Every error that crosses a package boundary is an *AppError wrapping one of
// the sentinels below, so callers can branch with errors.Is() and still show
// AppError.Message to a human.
package apperror

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrValidation   = errors.New("validation error")
	ErrConflict     = errors.New("conflict")
	ErrFetchFailure = errors.New("fetch failure")
)

// FetchFailureMessage is the only text a user ever sees for a failed fetch.
// Timeouts, server errors and malformed payloads are deliberately not told apart.
const FetchFailureMessage = "Failed to load users. Please try again."

type AppError struct {
	Err     error  // sentinel kind
	Message string // Human-readable error message
	Field   string // Optional: field causing the error
	Cause   error  // Optional: underlying error, kept for logs
}

func (e *AppError) Error() string {
	return e.Message
}

// Unwrap exposes both the sentinel and the cause, so errors.Is() matches
// either ErrFetchFailure or, say, context.DeadlineExceeded.
func (e *AppError) Unwrap() []error {
	if e.Cause == nil {
		return []error{e.Err}
	}
	return []error{e.Err, e.Cause}
}

func NotFound(resource, id string) *AppError {
	return &AppError{
		Err:     ErrNotFound,
		Message: fmt.Sprintf("%s not found with id %s", resource, id),
	}
}

func ValidationFailed(field, message string) *AppError {
	return &AppError{
		Err:     ErrValidation,
		Message: message,
		Field:   field,
	}
}

// Conflict reports an operation that cannot run in the current state,
// e.g. loading the next page while a fetch is still pending.
func Conflict(message string) *AppError {
	return &AppError{
		Err:     ErrConflict,
		Message: message,
	}
}

// FetchFailed converts any transport or response error from the remote
// user source into the single FetchFailure kind.
func FetchFailed(cause error) *AppError {
	return &AppError{
		Err:     ErrFetchFailure,
		Message: FetchFailureMessage,
		Cause:   cause,
	}
}
