package event

import "github.com/rs/zerolog"

// Option configures an Emitter.
type Option func(*emitterConfig)

type emitterConfig struct {
	// source is stamped on events emitted without one.
	source string

	// historyLimit caps the event log. Zero keeps every event.
	historyLimit int

	logger zerolog.Logger
}

func defaultEmitterConfig() emitterConfig {
	return emitterConfig{
		source: "dashflow",
		logger: zerolog.Nop(),
	}
}

// WithSource sets the default event source.
func WithSource(source string) Option {
	return func(c *emitterConfig) {
		if source != "" {
			c.source = source
		}
	}
}

// WithHistoryLimit caps the number of events kept in the log. The oldest events are
// dropped first.
func WithHistoryLimit(n int) Option {
	return func(c *emitterConfig) {
		if n >= 0 {
			c.historyLimit = n
		}
	}
}

// WithLogger sets the logger used to report subscriber failures.
func WithLogger(l zerolog.Logger) Option {
	return func(c *emitterConfig) {
		c.logger = l
	}
}
