package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "dashflow.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := LoadWithEnv("", map[string]string{})
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)

	cfg, err = LoadWithEnv(filepath.Join(t.TempDir(), "missing.toml"), map[string]string{})
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_File(t *testing.T) {
	path := writeConfig(t, `
[log]
level = "debug"
format = "json"

[dispatcher]
async = true
queue_size = 8
wait_timeout = "5s"

[backend]
ref_type = "uri"
latency = "10ms"

[plugins]
dir = "plugins"
`)

	cfg, err := LoadWithEnv(path, map[string]string{})
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.True(t, cfg.Dispatcher.Async)
	assert.Equal(t, 8, cfg.Dispatcher.QueueSize)
	assert.Equal(t, 5*time.Second, cfg.Dispatcher.WaitTimeout.Duration)
	assert.True(t, cfg.Dispatcher.Metrics, "unset keys keep defaults")
	assert.Equal(t, "uri", cfg.Backend.RefType)
	assert.Equal(t, 10*time.Millisecond, cfg.Backend.Latency.Duration)
	assert.Equal(t, "plugins", cfg.Plugins.Dir)
	assert.Equal(t, 2*time.Second, cfg.Plugins.Timeout.Duration)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeConfig(t, `
[log]
level = "debug"
`)

	cfg, err := LoadWithEnv(path, map[string]string{
		"DASHFLOW_LOG_LEVEL":               "warn",
		"DASHFLOW_DISPATCHER_WAIT_TIMEOUT": "750ms",
		"DASHFLOW_BACKEND_KIND":            "redis",
		"DASHFLOW_BACKEND_REDIS_URL":       "redis://localhost:6379/0",
		"DASHFLOW_WATCH_DEBOUNCE":          "1s",
	})
	require.NoError(t, err)

	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, 750*time.Millisecond, cfg.Dispatcher.WaitTimeout.Duration)
	assert.Equal(t, "redis", cfg.Backend.Kind)
	assert.Equal(t, "redis://localhost:6379/0", cfg.Backend.Redis.URL)
	assert.Equal(t, time.Second, cfg.Watch.Debounce.Duration)
}

func TestLoad_ParseErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"syntax", "[log\nlevel = 1"},
		{"unknown key", "[log]\ncolour = true"},
		{"bad duration", "[dispatcher]\nwait_timeout = \"soon\""},
		{"negative duration", "[dispatcher]\nwait_timeout = \"-1s\""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadWithEnv(writeConfig(t, tt.content), map[string]string{})
			var perr *ParseError
			require.ErrorAs(t, err, &perr)
			assert.Contains(t, perr.Path, "dashflow.toml")
		})
	}
}

func TestLoad_BadEnv(t *testing.T) {
	_, err := LoadWithEnv("", map[string]string{"DASHFLOW_DISPATCHER_QUEUE_SIZE": "many"})
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		fields []string
	}{
		{"defaults", func(*Config) {}, nil},
		{"bad level", func(c *Config) { c.Log.Level = "loud" }, []string{"log.level"}},
		{"bad format", func(c *Config) { c.Log.Format = "xml" }, []string{"log.format"}},
		{"queue size", func(c *Config) { c.Dispatcher.QueueSize = 0 }, []string{"dispatcher.queue_size"}},
		{"backend kind", func(c *Config) { c.Backend.Kind = "postgres" }, []string{"backend.kind"}},
		{"redis without url", func(c *Config) { c.Backend.Kind = "redis" }, []string{"backend.redis.url"}},
		{"async without timeout", func(c *Config) {
			c.Dispatcher.Async = true
			c.Dispatcher.WaitTimeout = Duration{}
		}, []string{"dispatcher.wait_timeout"}},
		{"several", func(c *Config) {
			c.Log.Level = "loud"
			c.Backend.RefType = "name"
		}, []string{"log.level", "backend.ref_type"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.fields == nil {
				assert.NoError(t, err)
				return
			}

			require.ErrorIs(t, err, ErrInvalidConfig)
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			var got []string
			for _, f := range verr.Fields {
				got = append(got, f.Field)
			}
			assert.Equal(t, tt.fields, got)
		})
	}
}

func TestDispatcherConfig(t *testing.T) {
	cfg := Default()
	dc := cfg.DispatcherConfig()
	assert.False(t, dc.AsyncDispatch)
	assert.True(t, dc.EnableMetrics)
	assert.True(t, dc.RecoverFromPanic)
	assert.Equal(t, 30*time.Second, dc.WaitTimeout)

	cfg.Dispatcher.Async = true
	cfg.Dispatcher.QueueSize = 16
	cfg.Dispatcher.RecoverPanics = false
	cfg.Dispatcher.Metrics = false
	dc = cfg.DispatcherConfig()
	assert.True(t, dc.AsyncDispatch)
	assert.Equal(t, 16, dc.QueueSize)
	assert.False(t, dc.RecoverFromPanic)
	assert.False(t, dc.EnableMetrics)
}

func TestDuration_Text(t *testing.T) {
	var d Duration
	require.NoError(t, d.UnmarshalText([]byte("1m30s")))
	assert.Equal(t, 90*time.Second, d.Duration)

	out, err := d.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "1m30s", string(out))

	require.NoError(t, d.UnmarshalText(nil))
	assert.Zero(t, d.Duration)
}
