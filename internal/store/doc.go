// Package store holds the canonical in-memory state of one dashboard session.
//
// State is published as immutable snapshots. Apply runs a mutation against a shallow
// draft copy of the current snapshot and, on success, installs the draft as the next
// snapshot with an incremented version. Readers holding an older snapshot keep seeing
// a consistent, unchanged view, so before/after comparisons are plain pointer or value
// comparisons.
//
// Mutations replace the parts of the draft they change; they never write through
// pointers, slices or maps shared with the previous snapshot. The model package's
// copy-on-write layout operations and the helpers in this package follow that rule.
//
// # Thread Safety
//
// State may be called from any goroutine. Apply calls are serialized: at most one
// mutation runs at a time and listeners are notified in apply order before the next
// mutation starts. Listeners must not call Apply.
package store
