package execctx

import "errors"

// Context validation errors.
var (
	// ErrMissingStore indicates the store is required but not set.
	ErrMissingStore = errors.New("execution context: store is required")

	// ErrMissingBackend indicates the backend is required but not set.
	ErrMissingBackend = errors.New("execution context: backend is required")

	// ErrMissingEmitter indicates the emitter is required but not set.
	ErrMissingEmitter = errors.New("execution context: emitter is required")
)
