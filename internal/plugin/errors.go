package plugin

import (
	"errors"
	"fmt"
)

// Plugin host errors.
var (
	// ErrHostClosed is returned when loading into a closed host.
	ErrHostClosed = errors.New("plugin host is closed")

	// ErrUnsupportedLink is returned for plugin links that do not name a Lua file.
	ErrUnsupportedLink = errors.New("unsupported plugin link")

	// ErrOutsidePluginDir is returned for plugin links that resolve outside the
	// plugin directory.
	ErrOutsidePluginDir = errors.New("plugin link outside plugin directory")
)

// LoadError reports a plugin that failed to load.
type LoadError struct {
	Plugin string
	Err    error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("plugin %s: load failed: %v", e.Plugin, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}
