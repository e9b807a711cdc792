package app

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLogLevel(t *testing.T) {
	tests := map[string]zerolog.Level{
		"trace":    zerolog.TraceLevel,
		"DEBUG":    zerolog.DebugLevel,
		"":         zerolog.InfoLevel,
		" warn ":   zerolog.WarnLevel,
		"error":    zerolog.ErrorLevel,
		"disabled": zerolog.Disabled,
		"verbose":  zerolog.InfoLevel,
	}
	for in, want := range tests {
		assert.Equal(t, want, ParseLogLevel(in), in)
	}
}

func TestNewLogger_JSON(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(LoggerConfig{Level: zerolog.InfoLevel, Format: LogFormatJSON, Output: &buf, Name: "dashflow"})

	l := WithComponent(logger, "dispatcher")
	l.Info().Str("command", "dash.cmd.save").Msg("dispatched")
	logger.Debug().Msg("filtered")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry))
	assert.Equal(t, "dashflow", entry["app"])
	assert.Equal(t, "dispatcher", entry["component"])
	assert.Equal(t, "dash.cmd.save", entry["command"])
	assert.Equal(t, "dispatched", entry["message"])
	assert.Contains(t, entry, "time")
}

func TestNewLogger_Console(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(LoggerConfig{Level: zerolog.DebugLevel, Format: LogFormatConsole, Output: &buf})

	logger.Debug().Msg("hello")
	assert.Contains(t, buf.String(), "hello")
	assert.NotContains(t, buf.String(), "\x1b[", "no colors off a terminal")
}
