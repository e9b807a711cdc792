package dispatcher

import (
	"errors"
	"fmt"
)

// Dispatcher errors.
var (
	// ErrNoHandler indicates no handler is registered for a command type.
	ErrNoHandler = errors.New("dispatcher: no handler for command")

	// ErrDispatcherStopped indicates the dispatcher has been stopped.
	ErrDispatcherStopped = errors.New("dispatcher: dispatcher is stopped")

	// ErrNotStarted indicates an async dispatcher has not been started.
	ErrNotStarted = errors.New("dispatcher: dispatcher is not started")

	// ErrPanic indicates the handler panicked.
	ErrPanic = errors.New("dispatcher: handler panic")

	// ErrNoPayload indicates a handler returned neither a payload nor an error.
	ErrNoPayload = errors.New("dispatcher: handler returned no event")

	// ErrNilCommand indicates a nil command was dispatched.
	ErrNilCommand = errors.New("dispatcher: nil command")
)

// PanicError carries a recovered handler panic.
type PanicError struct {
	Value any
	Stack string
}

// Error implements error.
func (e *PanicError) Error() string {
	return fmt.Sprintf("%s: %v", ErrPanic, e.Value)
}

// Is matches ErrPanic.
func (e *PanicError) Is(target error) bool {
	return target == ErrPanic
}
