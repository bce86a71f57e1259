// Package config defines the top-level configuration of the places
// backend and loads it from defaults, an optional YAML file, and
// environment variables prefixed with PLACES_.
package config

import (
	"time"

	"github.com/ludimus/places-backend/pkg/auth"
	"github.com/ludimus/places-backend/pkg/clients/postgres"
	"github.com/ludimus/places-backend/pkg/clients/redis"
	"github.com/ludimus/places-backend/pkg/config"
	apperr "github.com/ludimus/places-backend/pkg/errors"
)

// EnvPrefix is prepended to every environment variable the backend
// reads, so the auth audience for example comes from
// PLACES_AUTH_AUDIENCE.
const EnvPrefix = "PLACES"

// DefaultConfigFile is consulted when no explicit path is given.
const DefaultConfigFile = "config.yaml"

// Config is the complete runtime configuration of the backend.
type Config struct {
	Server   ServerConfig    `yaml:"server" env:"SERVER"`
	Auth     AuthConfig      `yaml:"auth" env:"AUTH"`
	Log      LogConfig       `yaml:"log" env:"LOG"`
	Postgres postgres.Config `yaml:"postgres" env:"POSTGRES"`
	Redis    redis.Config    `yaml:"redis" env:"REDIS"`
}

// ServerConfig controls the HTTP listener.
type ServerConfig struct {
	// Host is the listen address.
	Host string `yaml:"host" env:"HOST" envDefault:"0.0.0.0"`

	// Port is the listen port.
	Port int `yaml:"port" env:"PORT" envDefault:"8000"`

	// ReadTimeout bounds how long reading a request may take.
	ReadTimeout time.Duration `yaml:"read_timeout" env:"READ_TIMEOUT" envDefault:"10s"`

	// WriteTimeout bounds how long writing a response may take.
	WriteTimeout time.Duration `yaml:"write_timeout" env:"WRITE_TIMEOUT" envDefault:"30s"`

	// ShutdownTimeout bounds graceful shutdown on termination.
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SHUTDOWN_TIMEOUT" envDefault:"15s"`
}

// AuthConfig groups the identity provider settings. The nested structs
// carry no env tag of their own, so their variables resolve directly
// under the AUTH prefix (PLACES_AUTH_JWKS_URL, PLACES_AUTH_AUDIENCE).
type AuthConfig struct {
	KeyStore  auth.KeyStoreConfig  `yaml:"key_store"`
	Validator auth.ValidatorConfig `yaml:"validator"`
}

// LogConfig controls structured logging output.
type LogConfig struct {
	// Level is the minimum level emitted: debug, info, warn or error.
	Level string `yaml:"level" env:"LEVEL" envDefault:"info"`

	// Format selects the handler: json or text.
	Format string `yaml:"format" env:"FORMAT" envDefault:"json"`
}

// Validate checks the fields the struct tags cannot express.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return apperr.Newf(apperr.CodeValidationRange,
			"config: server port must be between 1 and 65535, got %d", c.Server.Port)
	}

	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return apperr.Newf(apperr.CodeValidation,
			"config: unknown log level %q", c.Log.Level)
	}

	switch c.Log.Format {
	case "json", "text":
	default:
		return apperr.Newf(apperr.CodeValidation,
			"config: unknown log format %q", c.Log.Format)
	}

	return nil
}

// Load reads the configuration from the given YAML file path (may be
// empty) and the environment.
func Load(filePath string) (*Config, error) {
	loader := config.New().WithEnvPrefix(EnvPrefix)
	if filePath != "" {
		loader = loader.WithFile(filePath)
	}

	var cfg Config
	if err := loader.Load(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
