// Package topic provides hierarchical event type names and pattern matching.
//
// Topics use dot-notation:
//
//	dash.evt.saved
//	dash.evt.fluid_layout.section_added
//	dash.evt.command.failed
//
// Two wildcards are supported in patterns:
//
//   - "*" matches exactly one segment
//   - "**" matches zero or more segments
//
// Examples:
//
//	dash.evt.*                matches dash.evt.saved (not dash.evt.widget.header_changed)
//	dash.evt.**               matches every dashboard event
//	dash.evt.*.section_added  matches dash.evt.fluid_layout.section_added
//	**                        matches everything
package topic
