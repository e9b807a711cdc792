package handler

import (
	"errors"
	"fmt"

	"github.com/dshills/dashflow/internal/event/events"
)

// UserError is a failure the caller can fix by changing the command.
type UserError struct {
	Message string
	Err     error
}

// Error implements error.
func (e *UserError) Error() string {
	if e.Err != nil && e.Message == "" {
		return e.Err.Error()
	}
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

// Unwrap returns the underlying error.
func (e *UserError) Unwrap() error {
	return e.Err
}

// NewUserError creates a user error wrapping err.
func NewUserError(message string, err error) *UserError {
	return &UserError{Message: message, Err: err}
}

// UserErrorf creates a user error with a formatted message.
func UserErrorf(format string, args ...any) error {
	return &UserError{Message: fmt.Sprintf(format, args...)}
}

// IsUserError returns true if err is or wraps a UserError.
func IsUserError(err error) bool {
	var ue *UserError
	return errors.As(err, &ue)
}

// Classify maps a handler error to a failure reason.
func Classify(err error) events.FailureReason {
	if IsUserError(err) {
		return events.ReasonUserError
	}
	return events.ReasonInternalError
}
