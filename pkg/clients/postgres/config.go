package postgres

import (
	"errors"
	"fmt"
	"net/url"
	"time"
)

// maxSQLTruncateLen is the maximum length for SQL statements recorded in
// OpenTelemetry trace spans. Statements longer than this are truncated
// so that column values do not leak into telemetry systems.
const maxSQLTruncateLen = 100

// Default connection pool and timeout settings.
const (
	// DefaultHost matches a sidecar or port-forwarded database during
	// local development. Deployments override it via POSTGRES_HOST.
	DefaultHost = "localhost"

	// DefaultPort is the standard PostgreSQL port.
	DefaultPort = 5432

	// DefaultDatabase is the database holding the places schema.
	DefaultDatabase = "places"

	// DefaultUser is the PostgreSQL user for the service.
	DefaultUser = "postgres"

	// DefaultMaxConns caps the pool size. Each PostgreSQL connection
	// costs roughly 10 MB of server memory.
	DefaultMaxConns int32 = 25

	// DefaultMinConns is the number of idle connections kept warm to
	// avoid connection setup latency on burst traffic.
	DefaultMinConns int32 = 5

	// DefaultMaxConnLifetime bounds connection age so stale connections
	// are replaced after DNS or load balancer changes.
	DefaultMaxConnLifetime = time.Hour

	// DefaultMaxConnIdleTime closes connections idle past this duration.
	DefaultMaxConnIdleTime = 30 * time.Minute

	// DefaultHealthCheckPeriod is the interval between automatic health
	// checks on idle pool connections.
	DefaultHealthCheckPeriod = time.Minute

	// DefaultConnectTimeout bounds establishment of new connections.
	DefaultConnectTimeout = 10 * time.Second

	// DefaultHealthTimeout bounds a health check ping when the caller's
	// context has no deadline.
	DefaultHealthTimeout = 5 * time.Second
)

// SSLMode maps to the PostgreSQL sslmode connection parameter.
type SSLMode string

const (
	// SSLModeDisable disables SSL. This is the default for in-cluster
	// deployments where the mesh provides transport encryption.
	SSLModeDisable SSLMode = "disable"

	// SSLModePrefer attempts SSL and falls back to unencrypted.
	SSLModePrefer SSLMode = "prefer"

	// SSLModeRequire requires SSL without certificate verification.
	SSLModeRequire SSLMode = "require"

	// SSLModeVerifyFull requires SSL and verifies the certificate chain
	// and hostname. Use for managed cloud databases.
	SSLModeVerifyFull SSLMode = "verify-full"
)

// String returns the string representation of the SSL mode.
func (m SSLMode) String() string {
	return string(m)
}

// Valid reports whether the SSL mode is a recognized value.
func (m SSLMode) Valid() bool {
	switch m {
	case SSLModeDisable, SSLModePrefer, SSLModeRequire, SSLModeVerifyFull:
		return true
	default:
		return false
	}
}

// Secret is a string type that prevents accidental logging of sensitive
// values such as database passwords. String and GoString return a
// redacted placeholder; use [Secret.Value] for the actual value.
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

// Value returns the actual secret string. Avoid logging or serializing
// the returned value.
func (s Secret) Value() string {
	return string(s)
}

// MarshalText implements encoding.TextMarshaler so the secret never
// appears in JSON or YAML output.
func (s Secret) MarshalText() ([]byte, error) {
	return []byte(redacted), nil
}

// Config holds the PostgreSQL connection configuration. Deployments
// inject the connection fields as POSTGRES_* environment variables; the
// env tags are resolved by the config loader with the parent "POSTGRES"
// prefix.
type Config struct {
	// Host is the PostgreSQL server hostname or IP address.
	Host string `yaml:"host" env:"HOST" envDefault:"localhost"`

	// Port is the PostgreSQL server port.
	Port int `yaml:"port" env:"PORT" envDefault:"5432"`

	// Database is the name of the database to connect to.
	Database string `yaml:"database" env:"DATABASE" envDefault:"places"`

	// User is the PostgreSQL user for authentication.
	User string `yaml:"user" env:"USER" envDefault:"postgres"`

	// Password is the PostgreSQL password. The [Secret] type keeps it
	// out of logs and serialized output.
	Password Secret `yaml:"-" env:"PASSWORD"`

	// SSLMode controls the SSL/TLS connection mode.
	SSLMode SSLMode `yaml:"ssl_mode" env:"SSLMODE"`

	// MaxConns is the maximum number of pool connections.
	MaxConns int32 `yaml:"max_conns" env:"MAX_CONNS"`

	// MinConns is the number of idle connections kept in the pool.
	MinConns int32 `yaml:"min_conns" env:"MIN_CONNS"`

	// MaxConnLifetime bounds the age of a pooled connection.
	MaxConnLifetime time.Duration `yaml:"max_conn_lifetime" env:"MAX_CONN_LIFETIME"`

	// MaxConnIdleTime closes connections idle past this duration.
	MaxConnIdleTime time.Duration `yaml:"max_conn_idle_time" env:"MAX_CONN_IDLE_TIME"`

	// HealthCheckPeriod is the interval between idle connection checks.
	HealthCheckPeriod time.Duration `yaml:"health_check_period" env:"HEALTH_CHECK_PERIOD"`

	// ConnectTimeout bounds establishment of new connections.
	ConnectTimeout time.Duration `yaml:"connect_timeout" env:"CONNECT_TIMEOUT"`
}

// DefaultConfig returns a Config with defaults suitable for local
// development. Override fields before passing it to [NewClient].
func DefaultConfig() *Config {
	return &Config{
		Host:              DefaultHost,
		Port:              DefaultPort,
		Database:          DefaultDatabase,
		User:              DefaultUser,
		SSLMode:           SSLModeDisable,
		MaxConns:          DefaultMaxConns,
		MinConns:          DefaultMinConns,
		MaxConnLifetime:   DefaultMaxConnLifetime,
		MaxConnIdleTime:   DefaultMaxConnIdleTime,
		HealthCheckPeriod: DefaultHealthCheckPeriod,
		ConnectTimeout:    DefaultConnectTimeout,
	}
}

// Validate checks the configuration and applies defaults for zero-valued
// fields. Returns the first validation error encountered.
func (c *Config) Validate() error {
	c.applyPoolDefaults()

	if c.Host == "" {
		c.Host = DefaultHost
	}
	if c.Port == 0 {
		c.Port = DefaultPort
	}
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("postgres: config port must be between 1 and 65535, got %d", c.Port)
	}
	if c.Database == "" {
		return errors.New("postgres: config database must not be empty")
	}
	if c.User == "" {
		return errors.New("postgres: config user must not be empty")
	}
	if c.SSLMode == "" {
		c.SSLMode = SSLModeDisable
	}
	if !c.SSLMode.Valid() {
		return fmt.Errorf("postgres: config ssl_mode %q is not valid", c.SSLMode)
	}
	if c.MaxConns < c.MinConns {
		return fmt.Errorf("postgres: config max_conns (%d) must be >= min_conns (%d)", c.MaxConns, c.MinConns)
	}

	return nil
}

func (c *Config) applyPoolDefaults() {
	if c.MaxConns == 0 {
		c.MaxConns = DefaultMaxConns
	}
	if c.MinConns == 0 {
		c.MinConns = DefaultMinConns
	}
	if c.MaxConnLifetime == 0 {
		c.MaxConnLifetime = DefaultMaxConnLifetime
	}
	if c.MaxConnIdleTime == 0 {
		c.MaxConnIdleTime = DefaultMaxConnIdleTime
	}
	if c.HealthCheckPeriod == 0 {
		c.HealthCheckPeriod = DefaultHealthCheckPeriod
	}
	if c.ConnectTimeout == 0 {
		c.ConnectTimeout = DefaultConnectTimeout
	}
}

// ConnectionString builds a PostgreSQL connection string from the
// configuration. The returned string contains the password in cleartext
// and must not be logged.
func (c *Config) ConnectionString() string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(c.User, c.Password.Value()),
		Host:   fmt.Sprintf("%s:%d", c.Host, c.Port),
		Path:   c.Database,
	}

	q := u.Query()
	if c.SSLMode != "" {
		q.Set("sslmode", string(c.SSLMode))
	}
	if c.ConnectTimeout > 0 {
		q.Set("connect_timeout", fmt.Sprintf("%d", int(c.ConnectTimeout.Seconds())))
	}
	u.RawQuery = q.Encode()

	return u.String()
}

// truncateSQL shortens a SQL statement for safe inclusion in trace
// spans. Truncated statements are suffixed with "...".
func truncateSQL(sql string) string {
	if len(sql) <= maxSQLTruncateLen {
		return sql
	}
	return sql[:maxSQLTruncateLen] + "..."
}
