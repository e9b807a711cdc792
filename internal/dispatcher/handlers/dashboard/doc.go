// Package dashboard provides handlers for dashboard lifecycle commands.
//
// This package implements:
//   - Initialize: load a dashboard or start an empty draft
//   - Save: create or update the dashboard on the backend
//   - Save as: persist a copy, optionally switching the session to it
//   - Rename
//   - Reset: revert to the persisted dashboard
//   - Delete
//
// Dashboard handlers talk to the backend first and apply the result to the store
// in a single mutation.
package dashboard
