package event

import (
	"errors"
	"fmt"
)

// Sentinel errors for the emitter.
var (
	// ErrInvalidTopic is returned when a subscription pattern is empty or malformed.
	ErrInvalidTopic = errors.New("event: invalid topic")

	// ErrNilHandler is returned when a nil handler is provided.
	ErrNilHandler = errors.New("event: handler cannot be nil")

	// ErrSubscriptionNotFound is returned when unsubscribing an unknown subscription.
	ErrSubscriptionNotFound = errors.New("event: subscription not found")

	// ErrWaitCanceled is returned by Pending.Wait after Cancel.
	ErrWaitCanceled = errors.New("event: wait canceled")

	// ErrHandlerPanic is matched by PanicError.
	ErrHandlerPanic = errors.New("event: handler panicked")
)

// HandlerError wraps an error returned by a subscriber.
type HandlerError struct {
	// SubscriptionID is the ID of the subscription whose handler failed.
	SubscriptionID string

	// Topic is the type of the event being delivered.
	Topic string

	// Err is the underlying error.
	Err error
}

// Error implements the error interface.
func (e *HandlerError) Error() string {
	return "event: handler error for subscription " + e.SubscriptionID + " on topic " + e.Topic + ": " + e.Err.Error()
}

// Unwrap returns the underlying error.
func (e *HandlerError) Unwrap() error {
	return e.Err
}

// PanicError wraps a subscriber panic as an error.
type PanicError struct {
	SubscriptionID string
	Topic          string

	// Value is the value passed to panic().
	Value any

	// Stack is the stack trace at the time of the panic.
	Stack string
}

// Error implements the error interface.
func (e *PanicError) Error() string {
	return fmt.Sprintf("event: handler panic for subscription %s on topic %s: %v", e.SubscriptionID, e.Topic, e.Value)
}

// Is allows errors.Is to match PanicError with ErrHandlerPanic.
func (e *PanicError) Is(target error) bool {
	return target == ErrHandlerPanic
}
