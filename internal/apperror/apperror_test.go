package apperror

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

func TestErrorsIs(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		target    error
		wantMatch bool
	}{
		{
			name:      "NotFound wraps ErrNotFound",
			err:       NotFound("user", "42"),
			target:    ErrNotFound,
			wantMatch: true,
		},
		{
			name:      "ValidationFailed wraps ErrValidation",
			err:       ValidationFailed("limit", "limit must be a number"),
			target:    ErrValidation,
			wantMatch: true,
		},
		{
			name:      "Conflict wraps ErrConflict",
			err:       Conflict("a fetch is already pending"),
			target:    ErrConflict,
			wantMatch: true,
		},
		{
			name:      "FetchFailed wraps ErrFetchFailure",
			err:       FetchFailed(errors.New("connection refused")),
			target:    ErrFetchFailure,
			wantMatch: true,
		},
		{
			name:      "FetchFailed exposes its cause",
			err:       FetchFailed(context.DeadlineExceeded),
			target:    context.DeadlineExceeded,
			wantMatch: true,
		},
		{
			name:      "FetchFailed survives fmt wrapping",
			err:       fmt.Errorf("usersource: %w", FetchFailed(nil)),
			target:    ErrFetchFailure,
			wantMatch: true,
		},
		{
			name:      "NotFound does NOT match ErrFetchFailure",
			err:       NotFound("user", "42"),
			target:    ErrFetchFailure,
			wantMatch: false,
		},
		{
			name:      "FetchFailed does NOT match ErrConflict",
			err:       FetchFailed(errors.New("boom")),
			target:    ErrConflict,
			wantMatch: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := errors.Is(tt.err, tt.target)
			if got != tt.wantMatch {
				t.Errorf("errors.Is(%v, %v) = %v, want %v", tt.err, tt.target, got, tt.wantMatch)
			}
		})
	}
}

func TestErrorMessages(t *testing.T) {
	tests := []struct {
		name        string
		err         *AppError
		wantMessage string
	}{
		{
			name:        "NotFound message includes resource and id",
			err:         NotFound("user", "42"),
			wantMessage: "user not found with id 42",
		},
		{
			name:        "ValidationFailed uses custom message",
			err:         ValidationFailed("offset", "offset must not be negative"),
			wantMessage: "offset must not be negative",
		},
		{
			name:        "FetchFailed hides the cause",
			err:         FetchFailed(errors.New("dial tcp: i/o timeout")),
			wantMessage: FetchFailureMessage,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.wantMessage {
				t.Errorf("Error() = %q, want %q", got, tt.wantMessage)
			}
		})
	}
}

func TestUnwrapWithoutCause(t *testing.T) {
	errs := NotFound("user", "42").Unwrap()

	if len(errs) != 1 || errs[0] != ErrNotFound {
		t.Errorf("Unwrap() = %v, want [%v]", errs, ErrNotFound)
	}
}

func TestValidationFailedField(t *testing.T) {
	err := ValidationFailed("limit", "limit must be a number")

	if err.Field != "limit" {
		t.Errorf("Field = %q, want %q", err.Field, "limit")
	}
}
