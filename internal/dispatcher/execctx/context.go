// Package execctx provides the execution context for command handlers.
package execctx

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/dshills/dashflow/internal/backend"
	"github.com/dshills/dashflow/internal/command"
	"github.com/dshills/dashflow/internal/event"
	"github.com/dshills/dashflow/internal/store"
)

// Store is the store surface handlers see.
type Store interface {
	store.Reader
	store.Updater
}

// Emitter publishes events.
type Emitter interface {
	Emit(ctx context.Context, e event.Event) event.Event
}

// Context carries the session collaborators to a handler for one command.
type Context struct {
	// Command is the stamped command being handled.
	Command command.Command

	// Store holds the dashboard state.
	Store Store

	// Backend is the remote persistence collaborator.
	Backend backend.Backend

	// Emitter publishes intermediate events.
	Emitter Emitter

	// Logger is scoped to the command.
	Logger zerolog.Logger

	// Source is the event source name.
	Source string

	// Data holds values hooks pass to handlers.
	Data map[string]any
}

// New creates a context for cmd.
func New(cmd command.Command) *Context {
	return &Context{
		Command: cmd,
		Logger:  zerolog.Nop(),
		Data:    make(map[string]any),
	}
}

// WithStore sets the store and returns the context.
func (c *Context) WithStore(s Store) *Context {
	c.Store = s
	return c
}

// WithBackend sets the backend and returns the context.
func (c *Context) WithBackend(b backend.Backend) *Context {
	c.Backend = b
	return c
}

// WithEmitter sets the emitter and returns the context.
func (c *Context) WithEmitter(e Emitter) *Context {
	c.Emitter = e
	return c
}

// WithLogger sets the logger and returns the context.
func (c *Context) WithLogger(l zerolog.Logger) *Context {
	c.Logger = l
	return c
}

// State returns the current store snapshot, or nil without a store.
func (c *Context) State() *store.State {
	if c.Store == nil {
		return nil
	}
	return c.Store.State()
}

// Apply applies m to the store.
func (c *Context) Apply(m store.Mutation) (*store.State, error) {
	if c.Store == nil {
		return nil, ErrMissingStore
	}
	return c.Store.Apply(m)
}

// Emit publishes an intermediate event caused by the command. The command's
// correlation and causation ids are copied onto it.
func (c *Context) Emit(ctx context.Context, p event.Payload) (event.Event, error) {
	if c.Emitter == nil {
		return event.Event{}, ErrMissingEmitter
	}
	m := c.Command.Metadata()
	e := event.New(p, event.Metadata{
		Source:        c.Source,
		CorrelationID: m.CorrelationID,
		CausationID:   m.ID,
	})
	return c.Emitter.Emit(ctx, e), nil
}

// RequireBackend returns ErrMissingBackend if no backend is set.
func (c *Context) RequireBackend() error {
	if c.Backend == nil {
		return ErrMissingBackend
	}
	return nil
}

// RequireStore returns ErrMissingStore if no store is set.
func (c *Context) RequireStore() error {
	if c.Store == nil {
		return ErrMissingStore
	}
	return nil
}

// Set stores a value under key.
func (c *Context) Set(key string, v any) {
	if c.Data == nil {
		c.Data = make(map[string]any)
	}
	c.Data[key] = v
}

// Get returns the value stored under key.
func (c *Context) Get(key string) (any, bool) {
	v, ok := c.Data[key]
	return v, ok
}
