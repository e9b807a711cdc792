// Package event provides the event log and correlation tracker of a dashboard session.
//
// Every command a session processes produces events. The Emitter appends each event
// to an ordered log and synchronously notifies current subscribers in subscription
// order, then resolves any pending waiters the event satisfies.
//
// # Event Topics
//
// Event types are hierarchical topics (see package topic):
//
//	dash.evt.saved
//	dash.evt.insight_widget.properties_changed
//	dash.evt.command.failed
//
// Subscriptions accept wildcard patterns such as "dash.evt.**".
//
// # Correlation
//
// A caller may put a correlation id on a command. Every event the command produces
// carries the same id in Metadata.CorrelationID, and the event that ends the command
// has Metadata.Terminal set. WaitFor registers a single-resolution Pending keyed by
// correlation id:
//
//	p := em.WaitFor("req-1", event.IsTerminal)
//	// dispatch the command correlated with "req-1"
//	evt, err := p.Wait(ctx)
//
// A waiter registered with an empty correlation id matches events of any correlation.
// Wait is bounded only by the caller's context; Cancel withdraws a waiter that is no
// longer needed.
//
// # Error Isolation
//
// A subscriber returning an error or panicking does not affect other subscribers or
// the emitter. Failures are logged and counted in Stats.
//
// # Reentrancy
//
// Emit calls are serialized. Subscribers run while the emitter holds its emit lock
// and must not call Emit themselves.
package event
