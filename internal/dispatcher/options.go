package dispatcher

import (
	"github.com/rs/zerolog"

	"github.com/dshills/dashflow/internal/backend"
	"github.com/dshills/dashflow/internal/dispatcher/execctx"
	"github.com/dshills/dashflow/internal/dispatcher/hook"
	"github.com/dshills/dashflow/internal/event"
)

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithStore sets the store handlers read and update.
func WithStore(s execctx.Store) Option {
	return func(d *Dispatcher) {
		d.store = s
	}
}

// WithEmitter sets the event emitter.
func WithEmitter(e *event.Emitter) Option {
	return func(d *Dispatcher) {
		d.emitter = e
	}
}

// WithBackend sets the backend passed to handlers.
func WithBackend(b backend.Backend) Option {
	return func(d *Dispatcher) {
		d.backend = b
	}
}

// WithLogger sets the logger.
func WithLogger(l zerolog.Logger) Option {
	return func(d *Dispatcher) {
		d.logger = l
	}
}

// WithHooks registers additional hooks.
func WithHooks(hooks ...hook.Hook) Option {
	return func(d *Dispatcher) {
		for _, h := range hooks {
			d.hooks.Register(h)
		}
	}
}
