// Package dispatcher routes dashboard commands to handlers and coordinates execution.
//
// The dispatcher is the single entry point through which every state change of a
// dashboard session flows. Each command kind has exactly one handler, looked up in
// a table keyed by command type. New panics if the table is not exhaustive.
//
// # Command Lifecycle
//
// When a command is dispatched:
//
//  1. It is stamped with a fresh command id and issue time
//  2. command.started is emitted
//  3. Pre-dispatch hooks run (dashboard loaded, struct tag validation)
//  4. The handler is resolved and executed (with optional panic recovery)
//  5. Exactly one terminal event is emitted: the handler's payload on success,
//     command.failed otherwise
//  6. Post-dispatch hooks observe the outcome
//  7. Metrics are recorded (if enabled)
//
// Every event carries the command's correlation id and, as its causation id, the
// command id.
//
// # Failures
//
// A rejected precondition or a handler.UserError ends the command with
// command.failed{USER_ERROR}. Backend errors, handler panics and handlers returning
// no event end it with command.failed{INTERNAL_ERROR}. Failures are never returned
// from Dispatch.
//
// # Sync and Async Dispatch
//
// In sync mode (the default) the command runs in the caller's goroutine and has
// finished when Dispatch returns.
//
// In async mode commands are queued. A dispatch loop runs steps 1-3 strictly in
// dispatch order and then starts each handler in its own goroutine, so a handler
// waiting on the backend does not hold up later commands. Store updates stay
// serialized by the store.
//
//	d := dispatcher.New(dispatcher.DefaultConfig().WithAsyncDispatch(64), handlers.Table(),
//		dispatcher.WithBackend(b))
//	d.Start()
//	defer d.Stop(ctx)
//
//	evt, err := d.DispatchAndWait(ctx, command.Rename{Title: "Q3"})
//
// # Subpackages
//
//   - execctx: the per-command context handed to handlers
//   - handler: the Handler interface, typed adapters and user errors
//   - hook: pre/post dispatch hooks
//   - handlers: the dashboard command handlers
package dispatcher
