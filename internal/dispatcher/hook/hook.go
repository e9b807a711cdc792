// Package hook provides extensible pre/post dispatch hooks for the dispatcher.
package hook

import (
	"context"
	"time"

	"github.com/dshills/dashflow/internal/command"
	"github.com/dshills/dashflow/internal/dispatcher/execctx"
	"github.com/dshills/dashflow/internal/event"
	"github.com/dshills/dashflow/internal/event/events"
)

// Hook is the base interface for all dispatch hooks.
type Hook interface {
	// Name returns a unique identifier for this hook.
	Name() string

	// Priority returns the hook priority.
	// Higher values run first for pre-hooks, last for post-hooks.
	// Standard priorities:
	//   1000+ = system/critical hooks
	//   500-999 = framework hooks
	//   100-499 = plugin hooks
	//   0-99 = user hooks
	Priority() int
}

// PreDispatchHook is called before a command's handler runs.
type PreDispatchHook interface {
	Hook

	// PreDispatch is called after command.started is emitted.
	// A non-nil error rejects the command with a user error and the handler
	// is not invoked.
	PreDispatch(ctx context.Context, cmd command.Command, hc *execctx.Context) error
}

// PostDispatchHook is called after a command's terminal event is emitted.
type PostDispatchHook interface {
	Hook

	// PostDispatch observes the outcome. It cannot change it.
	PostDispatch(ctx context.Context, cmd command.Command, hc *execctx.Context, out Outcome)
}

// Outcome describes how a command ended.
type Outcome struct {
	// Event is the terminal event.
	Event event.Event

	// Reason is set when the command failed.
	Reason events.FailureReason

	// Err is the rejection or handler error, if any.
	Err error

	// Rejected is true if a pre-dispatch hook rejected the command.
	Rejected bool

	// Panicked is true if the handler panicked.
	Panicked bool

	// Duration is the time from command.started to the terminal event.
	Duration time.Duration
}

// Failed returns true if the command ended with command.failed.
func (o Outcome) Failed() bool {
	return o.Reason != ""
}

// PreDispatchFunc wraps a function as a PreDispatchHook.
type PreDispatchFunc struct {
	name     string
	priority int
	fn       func(ctx context.Context, cmd command.Command, hc *execctx.Context) error
}

// NewPreDispatchFunc creates a new PreDispatchFunc hook.
func NewPreDispatchFunc(name string, priority int, fn func(ctx context.Context, cmd command.Command, hc *execctx.Context) error) *PreDispatchFunc {
	return &PreDispatchFunc{
		name:     name,
		priority: priority,
		fn:       fn,
	}
}

// Name implements Hook.
func (f *PreDispatchFunc) Name() string { return f.name }

// Priority implements Hook.
func (f *PreDispatchFunc) Priority() int { return f.priority }

// PreDispatch implements PreDispatchHook.
func (f *PreDispatchFunc) PreDispatch(ctx context.Context, cmd command.Command, hc *execctx.Context) error {
	if f.fn == nil {
		return nil
	}
	return f.fn(ctx, cmd, hc)
}

// PostDispatchFunc wraps a function as a PostDispatchHook.
type PostDispatchFunc struct {
	name     string
	priority int
	fn       func(ctx context.Context, cmd command.Command, hc *execctx.Context, out Outcome)
}

// NewPostDispatchFunc creates a new PostDispatchFunc hook.
func NewPostDispatchFunc(name string, priority int, fn func(ctx context.Context, cmd command.Command, hc *execctx.Context, out Outcome)) *PostDispatchFunc {
	return &PostDispatchFunc{
		name:     name,
		priority: priority,
		fn:       fn,
	}
}

// Name implements Hook.
func (f *PostDispatchFunc) Name() string { return f.name }

// Priority implements Hook.
func (f *PostDispatchFunc) Priority() int { return f.priority }

// PostDispatch implements PostDispatchHook.
func (f *PostDispatchFunc) PostDispatch(ctx context.Context, cmd command.Command, hc *execctx.Context, out Outcome) {
	if f.fn != nil {
		f.fn(ctx, cmd, hc, out)
	}
}

// CombinedHook implements both PreDispatchHook and PostDispatchHook.
type CombinedHook interface {
	PreDispatchHook
	PostDispatchHook
}
