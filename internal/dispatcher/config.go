package dispatcher

import "time"

// Config holds dispatcher configuration options.
type Config struct {
	// AsyncDispatch queues commands to a dispatch loop instead of running them in
	// the caller's goroutine.
	AsyncDispatch bool

	// QueueSize is the buffer size of the async command queue.
	// Only used when AsyncDispatch is true.
	QueueSize int

	// EnableMetrics enables dispatch timing and statistics collection.
	EnableMetrics bool

	// RecoverFromPanic turns handler panics into internal errors.
	RecoverFromPanic bool

	// WaitTimeout bounds DispatchAndWait when the context has no deadline.
	// Zero means no bound.
	WaitTimeout time.Duration
}

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() Config {
	return Config{
		AsyncDispatch:    false,
		QueueSize:        64,
		EnableMetrics:    true,
		RecoverFromPanic: true,
		WaitTimeout:      30 * time.Second,
	}
}

// WithAsyncDispatch returns a copy of the config with async dispatch enabled.
func (c Config) WithAsyncDispatch(queueSize int) Config {
	c.AsyncDispatch = true
	if queueSize > 0 {
		c.QueueSize = queueSize
	}
	return c
}

// WithSyncDispatch returns a copy of the config with async dispatch disabled.
func (c Config) WithSyncDispatch() Config {
	c.AsyncDispatch = false
	return c
}

// WithMetrics returns a copy of the config with metrics set.
func (c Config) WithMetrics(enabled bool) Config {
	c.EnableMetrics = enabled
	return c
}

// WithPanicRecovery returns a copy of the config with panic recovery set.
func (c Config) WithPanicRecovery(recover bool) Config {
	c.RecoverFromPanic = recover
	return c
}

// WithWaitTimeout returns a copy of the config with the wait timeout set.
func (c Config) WithWaitTimeout(timeout time.Duration) Config {
	c.WaitTimeout = timeout
	return c
}
