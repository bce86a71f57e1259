// Package config loads configuration for the places backend from struct
// tag defaults, an optional YAML file, and environment variables. Values
// are resolved in priority order:
//
//	envDefault struct tags  (lowest priority)
//	YAML config file        (medium priority)
//	Environment variables   (highest priority)
//
// Defaults are baked into the code, a config file carries per-environment
// overrides, and env vars injected by the deployment take final
// precedence.
//
// # Struct Tags
//
//   - `env:"VAR_NAME"` maps the field to an environment variable
//   - `envDefault:"value"` sets a default when the field is zero-valued
//   - `required:"true"` fails validation if the field remains zero after loading
//
// Fields additionally need `yaml` tags for file-based loading.
//
// # Usage
//
//	type ServerConfig struct {
//	    Host string `env:"HOST" envDefault:"0.0.0.0" yaml:"host"`
//	    Port int    `env:"PORT" envDefault:"8000" yaml:"port" required:"true"`
//	}
//
//	cfg := config.MustLoad[ServerConfig](config.New().WithFile("config.yaml"))
package config

import (
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	apperr "github.com/ludimus/places-backend/pkg/errors"
)

// durationType distinguishes time.Duration fields from plain int64
// fields during struct traversal, since Duration's Kind is Int64.
var durationType = reflect.TypeOf(time.Duration(0))

// Loader resolves configuration into a struct with the layered strategy
// described in the package documentation. Create one with [New], adjust
// it with [Loader.WithEnvPrefix] and [Loader.WithFile], then call
// [Loader.Load].
//
// Loader is not safe for concurrent use.
type Loader struct {
	envPrefix string
	filePath  string
}

// New returns a Loader that reads environment variables only, with no
// file and no prefix.
func New() *Loader {
	return &Loader{}
}

// WithEnvPrefix sets a prefix joined with an underscore to every
// environment variable name derived from "env" tags. WithEnvPrefix("PLACES")
// makes a field tagged `env:"PORT"` read PLACES_PORT. The prefix is
// uppercased; an empty prefix disables prefixing. Returns the Loader
// for chaining.
func (l *Loader) WithEnvPrefix(prefix string) *Loader {
	l.envPrefix = strings.ToUpper(prefix)
	return l
}

// WithFile sets the path of an optional YAML configuration file. A
// missing file is not an error; loading then proceeds from defaults and
// env vars alone. The path must not contain ".." sequences. Returns the
// Loader for chaining.
func (l *Loader) WithFile(path string) *Loader {
	l.filePath = path
	return l
}

// Load populates cfg, which must be a non-nil pointer to a struct, with
// values resolved in priority order (highest wins):
//
//  1. envDefault struct tags
//  2. YAML file values, when a file is configured and present
//  3. Environment variables from "env" tags
//
// After loading, fields tagged `required:"true"` must be non-zero, and
// if the struct implements [Validator] its Validate method is called.
// Failures are reported with [apperr.CodeInternalConfiguration] for
// loading problems and [apperr.CodeValidationRequired] or
// [apperr.CodeValidation] for validation problems.
func (l *Loader) Load(cfg any) error {
	rv := reflect.ValueOf(cfg)
	if rv.Kind() != reflect.Pointer || rv.IsNil() {
		return apperr.New(apperr.CodeInternalConfiguration,
			"config: Load requires a non-nil pointer to a struct")
	}

	rv = rv.Elem()
	if rv.Kind() != reflect.Struct {
		return apperr.New(apperr.CodeInternalConfiguration,
			"config: Load requires a pointer to a struct")
	}

	if err := applyDefaults(rv); err != nil {
		return err
	}

	if l.filePath != "" {
		if err := l.loadFile(cfg); err != nil {
			return err
		}
	}

	if err := applyEnv(rv, l.envPrefix); err != nil {
		return err
	}

	return validate(cfg, rv)
}

// MustLoad creates a zero value of T, loads configuration into it, and
// returns the result. It panics when loading or validation fails, which
// is the behavior wanted during process startup.
func MustLoad[T any](loader *Loader) T {
	var cfg T
	if err := loader.Load(&cfg); err != nil {
		panic(fmt.Sprintf("config: MustLoad failed: %v", err))
	}
	return cfg
}

func (l *Loader) loadFile(cfg any) error {
	if strings.Contains(l.filePath, "..") {
		return apperr.New(apperr.CodeInternalConfiguration,
			"config: file path must not contain directory traversal (..) sequences")
	}

	data, err := os.ReadFile(l.filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return apperr.Wrapf(err, apperr.CodeInternalConfiguration,
			"config: failed to read file %q", l.filePath)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return apperr.Wrapf(err, apperr.CodeInternalConfiguration,
			"config: failed to parse YAML file %q", l.filePath)
	}

	return nil
}

// applyDefaults walks the struct and sets zero-valued fields to their
// envDefault tag value. Fields already holding a value are left alone.
func applyDefaults(rv reflect.Value) error {
	rt := rv.Type()

	for i := 0; i < rt.NumField(); i++ {
		field := rv.Field(i)
		sf := rt.Field(i)

		if !field.CanSet() {
			continue
		}

		if field.Kind() == reflect.Struct && sf.Type != durationType {
			if err := applyDefaults(field); err != nil {
				return err
			}
			continue
		}

		tag := sf.Tag.Get("envDefault")
		if tag == "" || !field.IsZero() {
			continue
		}

		if err := setField(field, tag); err != nil {
			return apperr.Wrapf(err, apperr.CodeInternalConfiguration,
				"config: failed to apply default for field %q", sf.Name)
		}
	}

	return nil
}

// applyEnv walks the struct and sets fields from the environment
// variables named by their "env" tags. For a nested struct, the
// parent's env tag joins the prefix for its children, so a Postgres
// struct tagged `env:"POSTGRES"` with a Host field tagged `env:"HOST"`
// reads POSTGRES_HOST.
func applyEnv(rv reflect.Value, prefix string) error {
	rt := rv.Type()

	for i := 0; i < rt.NumField(); i++ {
		field := rv.Field(i)
		sf := rt.Field(i)

		if !field.CanSet() {
			continue
		}

		envTag := sf.Tag.Get("env")

		if field.Kind() == reflect.Struct && sf.Type != durationType {
			nestedPrefix := prefix
			if envTag != "" {
				if nestedPrefix != "" {
					nestedPrefix = nestedPrefix + "_" + envTag
				} else {
					nestedPrefix = envTag
				}
			}
			if err := applyEnv(field, nestedPrefix); err != nil {
				return err
			}
			continue
		}

		if envTag == "" {
			continue
		}

		envKey := envTag
		if prefix != "" {
			envKey = prefix + "_" + envTag
		}

		val, ok := os.LookupEnv(envKey)
		if !ok {
			continue
		}

		if err := setField(field, val); err != nil {
			return apperr.Wrapf(err, apperr.CodeInternalConfiguration,
				"config: failed to set field %q from env var %q", sf.Name, envKey)
		}
	}

	return nil
}

// setField parses value and stores it in the field. Supported types are
// string (including named string types like postgres.Secret), bool,
// signed integers, time.Duration, and []string (comma-separated).
func setField(field reflect.Value, value string) error {
	// Duration first, since its underlying kind is int64 but it parses
	// with time.ParseDuration.
	if field.Type() == durationType {
		d, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("cannot parse duration %q: %w", value, err)
		}
		field.SetInt(int64(d))
		return nil
	}

	switch field.Kind() {
	case reflect.String:
		field.SetString(value)

	case reflect.Bool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("cannot parse bool %q: %w", value, err)
		}
		field.SetBool(b)

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, err := strconv.ParseInt(value, 10, field.Type().Bits())
		if err != nil {
			return fmt.Errorf("cannot parse integer %q: %w", value, err)
		}
		field.SetInt(n)

	case reflect.Slice:
		if field.Type().Elem().Kind() != reflect.String {
			return fmt.Errorf("unsupported slice element type %s", field.Type().Elem().Kind())
		}
		parts := strings.Split(value, ",")
		slice := reflect.MakeSlice(field.Type(), len(parts), len(parts))
		for i, p := range parts {
			slice.Index(i).SetString(strings.TrimSpace(p))
		}
		field.Set(slice)

	default:
		return fmt.Errorf("unsupported field type %s", field.Kind())
	}

	return nil
}
