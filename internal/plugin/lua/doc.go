// Package lua wraps gopher-lua for the plugin host.
//
// A State opens only the base, table, string and math libraries and removes the
// chunk loaders from base, so a plugin can run code it was given but cannot load more
// from disk. Each execution runs under a context with the state's timeout; a plugin
// stuck in a loop fails with ErrExecutionTimeout.
//
//	state := lua.NewState(lua.WithExecutionTimeout(time.Second))
//	defer state.Close()
//
//	if err := state.DoFile(ctx, "plugin.lua"); err != nil {
//	    return err
//	}
//
// ToLuaValue and ToGoValue convert between Lua values and decoded JSON-like Go values.
package lua
