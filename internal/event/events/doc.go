// Package events defines the payloads of every event a dashboard session emits.
//
// Each payload type reports its topic through EventType. Success payloads end the
// command that produced them; CommandStarted never does; CommandFailed ends a command
// that was rejected by a precondition or failed in its handler.
package events
