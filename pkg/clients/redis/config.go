package redis

import (
	"errors"
	"fmt"
	"time"
)

// Default connection and timeout settings.
const (
	// DefaultHost matches a local Redis during development. Deployments
	// override it via REDIS_HOST.
	DefaultHost = "localhost"

	// DefaultPort is the standard Redis port.
	DefaultPort = 6379

	// DefaultPoolSize is the maximum number of pooled connections.
	DefaultPoolSize = 25

	// DefaultMinIdleConns keeps idle connections warm to avoid
	// connection setup latency.
	DefaultMinIdleConns = 5

	// DefaultMaxRetries is the number of command retries before giving up.
	DefaultMaxRetries = 3

	// DefaultDialTimeout bounds establishment of new connections.
	DefaultDialTimeout = 10 * time.Second

	// DefaultReadTimeout bounds reads from the Redis connection.
	DefaultReadTimeout = 5 * time.Second

	// DefaultWriteTimeout bounds writes to the Redis connection.
	DefaultWriteTimeout = 5 * time.Second

	// DefaultHealthTimeout bounds a health check ping when the caller's
	// context has no deadline.
	DefaultHealthTimeout = 5 * time.Second
)

// Secret is a string type that prevents accidental logging of the Redis
// password. String and GoString return a redacted placeholder; use
// [Secret.Value] for the actual value.
type Secret string

const redacted = "[REDACTED]"

// String returns "[REDACTED]" to prevent accidental logging.
func (s Secret) String() string {
	return redacted
}

// GoString returns "[REDACTED]" for fmt %#v safety.
func (s Secret) GoString() string {
	return redacted
}

// Value returns the actual secret string.
func (s Secret) Value() string {
	return string(s)
}

// MarshalText implements encoding.TextMarshaler so the secret never
// appears in JSON or YAML output.
func (s Secret) MarshalText() ([]byte, error) {
	return []byte(redacted), nil
}

// Config holds the Redis connection configuration. The cache is
// optional; when Enabled is false the service runs without Redis and
// every read goes to PostgreSQL. Env tags are resolved by the config
// loader with the parent "REDIS" prefix.
type Config struct {
	// Enabled turns the Redis-backed cache on. All other fields are
	// ignored when false.
	Enabled bool `yaml:"enabled" env:"ENABLED"`

	// Host is the Redis server hostname or IP address.
	Host string `yaml:"host" env:"HOST" envDefault:"localhost"`

	// Port is the Redis server port.
	Port int `yaml:"port" env:"PORT" envDefault:"6379"`

	// DB is the Redis database index.
	DB int `yaml:"db" env:"DB"`

	// Password is the Redis password, redacted in logs via [Secret].
	Password Secret `yaml:"-" env:"PASSWORD"`

	// PoolSize is the maximum number of pooled connections.
	PoolSize int `yaml:"pool_size" env:"POOL_SIZE"`

	// MinIdleConns is the number of idle connections kept warm.
	MinIdleConns int `yaml:"min_idle_conns" env:"MIN_IDLE_CONNS"`

	// MaxRetries is the number of command retries before giving up.
	// Set to -1 to disable retries.
	MaxRetries int `yaml:"max_retries" env:"MAX_RETRIES"`

	// DialTimeout bounds establishment of new connections.
	DialTimeout time.Duration `yaml:"dial_timeout" env:"DIAL_TIMEOUT"`

	// ReadTimeout bounds reads from the Redis connection.
	ReadTimeout time.Duration `yaml:"read_timeout" env:"READ_TIMEOUT"`

	// WriteTimeout bounds writes to the Redis connection.
	WriteTimeout time.Duration `yaml:"write_timeout" env:"WRITE_TIMEOUT"`
}

// DefaultConfig returns a Config with defaults suitable for local
// development. The cache stays disabled until Enabled is set.
func DefaultConfig() *Config {
	return &Config{
		Host:         DefaultHost,
		Port:         DefaultPort,
		PoolSize:     DefaultPoolSize,
		MinIdleConns: DefaultMinIdleConns,
		MaxRetries:   DefaultMaxRetries,
		DialTimeout:  DefaultDialTimeout,
		ReadTimeout:  DefaultReadTimeout,
		WriteTimeout: DefaultWriteTimeout,
	}
}

// Validate checks the configuration and applies defaults for zero-valued
// fields. Returns the first validation error encountered.
func (c *Config) Validate() error {
	if c.Host == "" {
		c.Host = DefaultHost
	}
	if c.Port == 0 {
		c.Port = DefaultPort
	}
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("redis: config port must be between 1 and 65535, got %d", c.Port)
	}
	if c.DB < 0 {
		return errors.New("redis: config db index must not be negative")
	}
	if c.PoolSize == 0 {
		c.PoolSize = DefaultPoolSize
	}
	if c.MinIdleConns == 0 {
		c.MinIdleConns = DefaultMinIdleConns
	}
	if c.MaxRetries == 0 {
		c.MaxRetries = DefaultMaxRetries
	}
	if c.DialTimeout == 0 {
		c.DialTimeout = DefaultDialTimeout
	}
	if c.ReadTimeout == 0 {
		c.ReadTimeout = DefaultReadTimeout
	}
	if c.WriteTimeout == 0 {
		c.WriteTimeout = DefaultWriteTimeout
	}
	return nil
}

// Addr returns the host:port address for the go-redis client options.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
