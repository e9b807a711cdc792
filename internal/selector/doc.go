// Package selector derives read-only projections from store snapshots.
//
// A Selector is a pure function of a snapshot. Selectors built with Create remember
// their last input snapshot and return the remembered result while the snapshot is the
// same, so a consumer calling one twice on one snapshot gets the identical value.
// Combine and Combine2 compose selectors and re-run the derivation only when an input
// selector's result changes, which keeps results stable across snapshots that did not
// touch the inputs. Family caches one selector per argument.
//
// Selectors never panic on absent data. A nil snapshot, an unknown ref or a missing
// layout all resolve to the zero value of the result type.
//
// All selectors are safe for concurrent use.
package selector
