package config

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidConfig is matched by every ValidationError.
var ErrInvalidConfig = errors.New("config: invalid configuration")

// ParseError reports a configuration file that could not be decoded.
type ParseError struct {
	Path    string
	Message string
	Err     error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("config: parse %s: %s", e.Path, e.Message)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// FieldError describes one invalid setting.
type FieldError struct {
	// Field is the dotted TOML path of the setting.
	Field   string
	Message string
}

// ValidationError lists every invalid setting.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		parts[i] = f.Field + ": " + f.Message
	}
	return "config: invalid configuration: " + strings.Join(parts, "; ")
}

// Is matches ErrInvalidConfig.
func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidConfig
}
