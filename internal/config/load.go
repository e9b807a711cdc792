package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"reflect"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
	"github.com/pelletier/go-toml/v2"
)

// EnvPrefix prefixes every environment override, e.g. DASHFLOW_LOG_LEVEL.
const EnvPrefix = "DASHFLOW_"

// Load builds the configuration from the defaults, the TOML file at path and then
// the environment. An empty path or a missing file skips the file layer. The result
// is validated.
func Load(path string) (Config, error) {
	return LoadWithEnv(path, nil)
}

// LoadWithEnv is Load with an explicit environment. A nil environ reads the process
// environment.
func LoadWithEnv(path string, environ map[string]string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return cfg, fmt.Errorf("config: reading %s: %w", path, err)
		default:
			if err := Decode(data, path, &cfg); err != nil {
				return cfg, err
			}
		}
	}

	opts := env.Options{Prefix: EnvPrefix}
	if environ != nil {
		opts.Environment = environ
	}
	if err := env.ParseWithOptions(&cfg, opts); err != nil {
		return cfg, fmt.Errorf("config: environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Decode decodes TOML data over cfg. Unknown keys are rejected.
func Decode(data []byte, source string, cfg *Config) error {
	dec := toml.NewDecoder(bytes.NewReader(data)).DisallowUnknownFields()
	if err := dec.Decode(cfg); err != nil {
		msg := err.Error()
		var derr *toml.DecodeError
		if errors.As(err, &derr) {
			row, col := derr.Position()
			msg = fmt.Sprintf("%d:%d: %s", row, col, derr.Error())
		}
		return &ParseError{Path: source, Message: msg, Err: err}
	}
	return nil
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("toml"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Validate checks every setting and reports all problems at once.
func (c Config) Validate() error {
	var fields []FieldError

	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return err
		}
		for _, fe := range verrs {
			msg := "failed " + fe.Tag()
			if p := fe.Param(); p != "" {
				msg += "=" + p
			}
			fields = append(fields, FieldError{Field: tomlPath(fe.Namespace()), Message: msg})
		}
	}

	if c.Backend.Kind == "redis" && c.Backend.Redis.URL == "" {
		fields = append(fields, FieldError{Field: "backend.redis.url", Message: "required for the redis backend"})
	}
	if c.Dispatcher.Async && c.Dispatcher.WaitTimeout.Duration == 0 {
		fields = append(fields, FieldError{Field: "dispatcher.wait_timeout", Message: "required with async dispatch"})
	}

	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

// tomlPath turns a validator namespace ("Config.log.level") into "log.level".
func tomlPath(ns string) string {
	_, rest, ok := strings.Cut(ns, ".")
	if !ok {
		return ns
	}
	return rest
}
