// Package config loads dashflow configuration.
//
// Settings come from three layers, later layers winning:
//
//  1. Default()
//  2. a TOML file
//  3. environment variables prefixed with DASHFLOW_
//
// Environment names follow the TOML sections, so [dispatcher] wait_timeout is
// DASHFLOW_DISPATCHER_WAIT_TIMEOUT and [backend.redis] url is
// DASHFLOW_BACKEND_REDIS_URL.
//
// Example file:
//
//	[log]
//	level = "debug"
//	format = "json"
//
//	[dispatcher]
//	async = true
//	queue_size = 128
//	wait_timeout = "10s"
//
//	[backend]
//	kind = "redis"
//	ref_type = "uri"
//
//	[backend.redis]
//	url = "redis://localhost:6379/0"
//
//	[plugins]
//	dir = "./plugins"
//	timeout = "500ms"
package config
