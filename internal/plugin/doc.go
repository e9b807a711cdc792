// Package plugin hosts Lua dashboard plugins.
//
// A Host owns one sandboxed Lua state and installs a global dashboard module:
//
//	dashboard.on(pattern, fn)   -- call fn(event) for events matching pattern
//	dashboard.log(...)          -- write a line to the session log
//
// The event table passed to fn carries type, id, correlation_id, command_id, terminal
// and payload. The payload is a decoded copy, so plugins observe the session but never
// reach the store.
//
// Dashboards reference plugins through plugin links. LoadLinks resolves each link url
// (file://name.lua or name.lua) inside the plugin directory and runs it:
//
//	host := plugin.NewHost(emitter, plugin.WithLogger(logger))
//	defer host.Close()
//
//	if err := host.LoadLinks(ctx, dir, dashboard.Plugins); err != nil {
//	    logger.Warn().Err(err).Msg("some plugins failed to load")
//	}
package plugin
