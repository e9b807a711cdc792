// Package hook provides extensible pre/post dispatch hooks for the dispatcher.
//
// Pre-dispatch hooks are the session's shared preconditions. They run after
// command.started is emitted and before the handler. A hook returning an error
// rejects the command: the dispatcher emits command.failed with a user error and
// the handler is never invoked.
//
// Post-dispatch hooks observe the terminal event of every command, successful or
// not.
//
// # Priority System
//
// Hooks are ordered by priority:
//
//   - Pre-hooks: Higher priority runs first
//   - Post-hooks: Lower priority runs first, higher runs last
//
// Standard priority constants are provided:
//
//	PriorityAudit        = 1000 // Logging
//	PriorityPrecondition = 900  // Dashboard loaded
//	PriorityValidation   = 800  // Struct tag validation
//	PriorityPlugin       = 100  // Plugin observers
//
// Registering a hook under an existing name replaces it.
//
// # Built-in Hooks
//
//	NewAuditHook(logger)        // zerolog start/complete/failed lines
//	NewLoadedHook()             // rejects everything but initialize until loaded
//	NewStructValidationHook()   // go-playground/validator struct tags
//	NewValidationHook(n, p, fn) // custom validation function
package hook
