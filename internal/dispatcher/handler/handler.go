// Package handler provides the handler interface and types for command dispatch.
package handler

import (
	"context"
	"fmt"
	"maps"

	"github.com/dshills/dashflow/internal/command"
	"github.com/dshills/dashflow/internal/dispatcher/execctx"
	"github.com/dshills/dashflow/internal/event"
)

// Handler processes one command type.
type Handler interface {
	// Handle executes the command and returns the payload of its terminal event.
	// A returned error becomes a command.failed event instead.
	Handle(ctx context.Context, cmd command.Command, hc *execctx.Context) (event.Payload, error)
}

// HandlerFunc is a function adapter for the Handler interface.
type HandlerFunc func(ctx context.Context, cmd command.Command, hc *execctx.Context) (event.Payload, error)

// Handle implements Handler.
func (f HandlerFunc) Handle(ctx context.Context, cmd command.Command, hc *execctx.Context) (event.Payload, error) {
	return f(ctx, cmd, hc)
}

// For adapts a function taking the concrete command type. Routing a command of
// another type to it is a programming error and panics.
func For[C command.Command](fn func(ctx context.Context, cmd C, hc *execctx.Context) (event.Payload, error)) Handler {
	return HandlerFunc(func(ctx context.Context, cmd command.Command, hc *execctx.Context) (event.Payload, error) {
		c, ok := cmd.(C)
		if !ok {
			var want C
			panic(fmt.Sprintf("handler: %T routed to handler for %T", cmd, want))
		}
		return fn(ctx, c, hc)
	})
}

// Namespace groups the handlers of one area of the dashboard.
type Namespace struct {
	name     string
	handlers map[command.Type]Handler
}

// NewNamespace creates an empty namespace.
func NewNamespace(name string) *Namespace {
	return &Namespace{
		name:     name,
		handlers: make(map[command.Type]Handler),
	}
}

// Name returns the namespace name.
func (n *Namespace) Name() string {
	return n.name
}

// Register registers h for t.
func (n *Namespace) Register(t command.Type, h Handler) {
	n.handlers[t] = h
}

// CanHandle returns true if the namespace handles t.
func (n *Namespace) CanHandle(t command.Type) bool {
	_, ok := n.handlers[t]
	return ok
}

// Handlers returns a copy of the namespace's handler table.
func (n *Namespace) Handlers() map[command.Type]Handler {
	return maps.Clone(n.handlers)
}
