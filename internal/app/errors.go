package app

import (
	"errors"
	"fmt"
)

// Session errors.
var (
	// ErrAlreadyRunning indicates Start was called twice.
	ErrAlreadyRunning = errors.New("session already running")

	// ErrNotRunning indicates the session was used before Start or after Close.
	ErrNotRunning = errors.New("session not running")

	// ErrMissingBackend indicates a session was configured without a backend.
	ErrMissingBackend = errors.New("session backend is required")
)

// ComponentError represents an error from a specific session component.
type ComponentError struct {
	Component string // Component name (e.g., "dispatcher", "plugins")
	Action    string // Action being performed
	Err       error  // Underlying error
}

// NewComponentError creates a new ComponentError.
func NewComponentError(component, action string, err error) *ComponentError {
	return &ComponentError{
		Component: component,
		Action:    action,
		Err:       err,
	}
}

func (e *ComponentError) Error() string {
	if e.Action != "" {
		return fmt.Sprintf("%s: %s: %v", e.Component, e.Action, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Component, e.Err)
}

func (e *ComponentError) Unwrap() error {
	return e.Err
}
