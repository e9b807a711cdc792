package config

import (
	"time"

	"github.com/dshills/dashflow/internal/dispatcher"
)

// Config is the complete dashflow configuration.
type Config struct {
	Log        LogConfig        `toml:"log" envPrefix:"LOG_"`
	Dispatcher DispatcherConfig `toml:"dispatcher" envPrefix:"DISPATCHER_"`
	Backend    BackendConfig    `toml:"backend" envPrefix:"BACKEND_"`
	Plugins    PluginConfig     `toml:"plugins" envPrefix:"PLUGINS_"`
	Watch      WatchConfig      `toml:"watch" envPrefix:"WATCH_"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `toml:"level" env:"LEVEL" validate:"oneof=trace debug info warn error disabled"`
	Format string `toml:"format" env:"FORMAT" validate:"oneof=console json"`
}

// DispatcherConfig configures command execution.
type DispatcherConfig struct {
	Async         bool     `toml:"async" env:"ASYNC"`
	QueueSize     int      `toml:"queue_size" env:"QUEUE_SIZE" validate:"min=1,max=65536"`
	Metrics       bool     `toml:"metrics" env:"METRICS"`
	RecoverPanics bool     `toml:"recover_panics" env:"RECOVER_PANICS"`
	WaitTimeout   Duration `toml:"wait_timeout" env:"WAIT_TIMEOUT"`
}

// BackendConfig selects and configures the backend collaborator.
type BackendConfig struct {
	Kind      string      `toml:"kind" env:"KIND" validate:"oneof=memory redis"`
	RefType   string      `toml:"ref_type" env:"REF_TYPE" validate:"oneof=id uri"`
	Workspace string      `toml:"workspace" env:"WORKSPACE"`
	Latency   Duration    `toml:"latency" env:"LATENCY"`
	Redis     RedisConfig `toml:"redis" envPrefix:"REDIS_"`
}

// RedisConfig configures the redis backend.
type RedisConfig struct {
	URL       string `toml:"url" env:"URL"`
	KeyPrefix string `toml:"key_prefix" env:"KEY_PREFIX"`
}

// PluginConfig configures the Lua plugin host.
type PluginConfig struct {
	// Dir enables plugins resolved inside it. Empty disables plugins.
	Dir     string   `toml:"dir" env:"DIR"`
	Timeout Duration `toml:"timeout" env:"TIMEOUT"`
}

// WatchConfig configures script watching.
type WatchConfig struct {
	Debounce Duration `toml:"debounce" env:"DEBOUNCE"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
		Dispatcher: DispatcherConfig{
			QueueSize:     64,
			Metrics:       true,
			RecoverPanics: true,
			WaitTimeout:   Duration{30 * time.Second},
		},
		Backend: BackendConfig{
			Kind:      "memory",
			RefType:   "id",
			Workspace: "default",
			Redis: RedisConfig{
				KeyPrefix: "dashflow",
			},
		},
		Plugins: PluginConfig{
			Timeout: Duration{2 * time.Second},
		},
		Watch: WatchConfig{
			Debounce: Duration{200 * time.Millisecond},
		},
	}
}

// DispatcherConfig converts the dispatcher section for dispatcher.New.
func (c Config) DispatcherConfig() dispatcher.Config {
	dc := dispatcher.DefaultConfig().
		WithMetrics(c.Dispatcher.Metrics).
		WithWaitTimeout(c.Dispatcher.WaitTimeout.Duration)
	if c.Dispatcher.Async {
		dc = dc.WithAsyncDispatch(c.Dispatcher.QueueSize)
	} else {
		dc = dc.WithSyncDispatch()
	}
	return dc.WithPanicRecovery(c.Dispatcher.RecoverPanics)
}
