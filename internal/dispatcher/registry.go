package dispatcher

import (
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/dshills/dashflow/internal/command"
	"github.com/dshills/dashflow/internal/dispatcher/handler"
)

// Registry maps each command type to exactly one handler.
type Registry struct {
	mu       sync.RWMutex
	handlers map[command.Type]handler.Handler
}

// NewRegistry creates a registry from a handler table.
func NewRegistry(table map[command.Type]handler.Handler) *Registry {
	r := &Registry{
		handlers: make(map[command.Type]handler.Handler, len(table)),
	}
	for t, h := range table {
		r.handlers[t] = h
	}
	return r
}

// Register sets the handler for t, replacing any existing one.
func (r *Registry) Register(t command.Type, h handler.Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[t] = h
}

// Get returns the handler for t, or nil.
func (r *Registry) Get(t command.Type) handler.Handler {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.handlers[t]
}

// Has returns true if a handler is registered for t.
func (r *Registry) Has(t command.Type) bool {
	return r.Get(t) != nil
}

// List returns all registered command types, sorted.
func (r *Registry) List() []command.Type {
	r.mu.RLock()
	defer r.mu.RUnlock()

	types := make([]command.Type, 0, len(r.handlers))
	for t := range r.handlers {
		types = append(types, t)
	}
	slices.Sort(types)
	return types
}

// Count returns the number of registered command types.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.handlers)
}

// Missing returns the types in want that have no handler.
func (r *Registry) Missing(want []command.Type) []command.Type {
	var missing []command.Type
	for _, t := range want {
		if !r.Has(t) {
			missing = append(missing, t)
		}
	}
	return missing
}

// mustCover panics unless every command type has a handler.
func (r *Registry) mustCover() {
	missing := r.Missing(command.Types())
	if len(missing) == 0 {
		return
	}
	names := make([]string, len(missing))
	for i, t := range missing {
		names[i] = string(t)
	}
	panic(fmt.Sprintf("%s: %s", ErrNoHandler, strings.Join(names, ", ")))
}
