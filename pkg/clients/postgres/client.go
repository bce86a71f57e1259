// Package postgres provides the PostgreSQL client used by the places
// backend, with connection pooling via pgxpool and OpenTelemetry tracing
// on every operation.
//
// # Connection Management
//
// pgxpool manages a pool of persistent connections and replaces failed
// ones on its own; callers do not implement retry logic for
// connection-level errors.
//
// # Configuration
//
//	cfg := postgres.DefaultConfig()
//	cfg.Password = postgres.Secret(os.Getenv("POSTGRES_PASSWORD"))
//	client, err := postgres.NewClient(ctx, *cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
// For testing, inject a mock pool with [NewFromPool]:
//
//	mock, _ := pgxmock.NewPool()
//	client := postgres.NewFromPool(mock, nil)
package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	apperr "github.com/ludimus/places-backend/pkg/errors"
)

// tracerName is the OpenTelemetry instrumentation scope for this package.
const tracerName = "github.com/ludimus/places-backend/pkg/clients/postgres"

// Pool defines the connection pool operations used by [Client]. It is
// satisfied by [*pgxpool.Pool] and by pgxmock, which enables unit
// testing without a real database via [NewFromPool].
type Pool interface {
	// Query executes a SQL query that returns rows.
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)

	// QueryRow executes a SQL query that returns at most one row.
	// Errors are deferred until the returned pgx.Row is scanned.
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row

	// Exec executes a SQL statement that does not return rows.
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)

	// Begin starts a new database transaction.
	Begin(ctx context.Context) (pgx.Tx, error)

	// Ping verifies the connection to the database is alive.
	Ping(ctx context.Context) error

	// Close releases all pool resources.
	Close()
}

var _ Pool = (*pgxpool.Pool)(nil)

// Client wraps a [Pool] and adds tracing and error classification to
// every database operation. It is safe for concurrent use; create one
// Client per database and share it.
type Client struct {
	pool         Pool
	config       *Config
	tracer       trace.Tracer
	databaseName string
}

// NewClient validates the configuration, establishes the connection
// pool, and verifies connectivity with a ping. The caller must call
// [Client.Close] when done.
//
// Error codes returned:
//   - [apperr.CodeValidation]: invalid configuration
//   - [apperr.CodeUnavailableDatabase]: cannot connect to the database
func NewClient(ctx context.Context, cfg Config) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, apperr.Wrap(err, apperr.CodeValidation,
			"postgres: invalid configuration")
	}

	poolCfg, err := pgxpool.ParseConfig(cfg.ConnectionString())
	if err != nil {
		return nil, apperr.Wrap(err, apperr.CodeValidation,
			"postgres: failed to parse connection string")
	}

	poolCfg.MaxConns = cfg.MaxConns
	poolCfg.MinConns = cfg.MinConns
	poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	poolCfg.MaxConnIdleTime = cfg.MaxConnIdleTime
	poolCfg.HealthCheckPeriod = cfg.HealthCheckPeriod

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, apperr.Wrap(err, apperr.CodeUnavailableDatabase,
			"postgres: failed to create connection pool")
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, apperr.Wrap(err, apperr.CodeUnavailableDatabase,
			"postgres: failed to connect to database")
	}

	return &Client{
		pool:         pool,
		config:       &cfg,
		tracer:       otel.Tracer(tracerName),
		databaseName: cfg.Database,
	}, nil
}

// NewFromPool creates a Client over a pre-existing [Pool]. Intended for
// tests with mock pools; cfg may be nil. The config's Database value is
// used for span attributes.
func NewFromPool(pool Pool, cfg *Config) *Client {
	if cfg == nil {
		cfg = &Config{}
	}
	return &Client{
		pool:         pool,
		config:       cfg,
		tracer:       otel.Tracer(tracerName),
		databaseName: cfg.Database,
	}
}

// Query executes a SQL query that returns rows. The returned [pgx.Rows]
// must be closed by the caller.
//
// Errors are wrapped with [apperr.CodeTimeoutDatabase] when the context
// deadline is exceeded and [apperr.CodeInternalDatabase] otherwise.
func (c *Client) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	ctx, span := c.startSpan(ctx, "Query", sql)

	rows, err := c.pool.Query(ctx, sql, args...)
	if err != nil {
		finishSpan(span, err)
		return nil, wrapError(err, "postgres: query failed")
	}
	// Row-level errors surface during iteration, after the span ends.
	finishSpan(span, nil)
	return rows, nil
}

// QueryRow executes a SQL query that returns at most one row. The
// returned [pgx.Row] is never nil; errors are deferred until Scan. The
// span covers only query submission since pgx defers errors to Scan.
func (c *Client) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	ctx, span := c.startSpan(ctx, "QueryRow", sql)
	defer span.End()

	return c.pool.QueryRow(ctx, sql, args...)
}

// Exec executes a SQL statement that does not return rows and returns
// the command tag.
func (c *Client) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	ctx, span := c.startSpan(ctx, "Exec", sql)

	tag, err := c.pool.Exec(ctx, sql, args...)
	finishSpan(span, err)
	if err != nil {
		return tag, wrapError(err, "postgres: exec failed")
	}
	return tag, nil
}

// Begin starts a database transaction. Callers must commit or roll
// back; defer tx.Rollback(ctx) right after Begin is the recommended
// pattern, since Rollback after Commit is a no-op in pgx.
func (c *Client) Begin(ctx context.Context) (pgx.Tx, error) {
	ctx, span := c.startSpan(ctx, "Begin", "BEGIN")

	tx, err := c.pool.Begin(ctx)
	finishSpan(span, err)
	if err != nil {
		return nil, wrapError(err, "postgres: begin transaction failed")
	}
	return tx, nil
}

// Health pings the database, applying [DefaultHealthTimeout] when the
// provided context has no deadline. Returns a [*apperr.Error] with code
// [apperr.CodeUnavailableDatabase] when the ping fails. Intended for
// readiness probes.
func (c *Client) Health(ctx context.Context) error {
	ctx, span := c.startSpan(ctx, "Health", "SELECT 1")

	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, DefaultHealthTimeout)
		defer cancel()
	}

	err := c.pool.Ping(ctx)
	finishSpan(span, err)
	if err != nil {
		return apperr.Wrap(err, apperr.CodeUnavailableDatabase,
			"postgres: health check failed")
	}
	return nil
}

// Close releases all connection pool resources. Safe to call multiple
// times; the client must not be used afterwards.
func (c *Client) Close() {
	c.pool.Close()
}

// Pool returns the underlying [Pool] for operations not covered by the
// Client's methods. Do not close the returned Pool directly.
func (c *Client) Pool() Pool {
	return c.pool
}

// startSpan creates a span with the standard database client semantic
// attributes.
func (c *Client) startSpan(ctx context.Context, operationName, sql string) (context.Context, trace.Span) {
	ctx, span := c.tracer.Start(ctx, "postgres."+operationName,
		trace.WithSpanKind(trace.SpanKindClient),
	)
	span.SetAttributes(
		attribute.String("db.system", "postgresql"),
		attribute.String("db.name", c.databaseName),
		attribute.String("db.statement", truncateSQL(sql)),
	)
	return ctx, span
}

// finishSpan records err on the span (if any) and ends it.
func finishSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}

// wrapError classifies a database error so callers can make retry
// decisions via [apperr.IsTimeout] and [apperr.IsRetryable].
func wrapError(err error, message string) *apperr.Error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return apperr.Wrap(err, apperr.CodeTimeoutDatabase, message)
	}
	return apperr.Wrap(err, apperr.CodeInternalDatabase, message)
}
