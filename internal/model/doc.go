// Package model defines the dashboard object model the engine operates on.
//
// A Dashboard is the aggregate root. Its Layout is a tree of Sections, each holding
// Items, each holding at most one Widget. Widgets and dashboards are addressed by Ref,
// which is either identifier based or uri based; an ObjectIdentity answers to both
// forms of its own ref.
//
// All layout operations are copy-on-write. A *Layout reachable from a store snapshot is
// never modified in place, which lets readers compare layout, section and widget
// pointers across snapshots to detect change.
package model
