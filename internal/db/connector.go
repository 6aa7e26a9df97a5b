package db

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/argo-ocean/oceanq/internal/logging"
	"github.com/argo-ocean/oceanq/pkg/oceanq"
)

// Option customizes how a connector opens its connection.
type Option func(*options)

type options struct {
	logger oceanq.Logger
	tracer pgx.QueryTracer
}

// WithLogger routes server notices and connector warnings to logger.
func WithLogger(logger oceanq.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithTracer attaches a pgx query tracer to the connection.
func WithTracer(tracer pgx.QueryTracer) Option {
	return func(o *options) { o.tracer = tracer }
}

func buildOptions(opts []Option) options {
	o := options{logger: logging.NewNullLogger()}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// configureConn applies the shared connection settings.
func (o options) configureConn(cfg *pgx.ConnConfig) {
	if o.tracer != nil {
		cfg.Tracer = o.tracer
	}
	logger := o.logger
	cfg.OnNotice = func(_ *pgconn.PgConn, notice *pgconn.Notice) {
		logger.Verbose("%s: %s", notice.Severity, notice.Message)
	}
}

// StandardConnector implements the Connector interface for standard
// username/password authentication. It makes exactly one attempt.
type StandardConnector struct {
	config *oceanq.ConnectionConfig
	opts   options
}

// NewStandardConnector creates a new StandardConnector with the given configuration.
func NewStandardConnector(config *oceanq.ConnectionConfig, opts ...Option) *StandardConnector {
	return &StandardConnector{
		config: config,
		opts:   buildOptions(opts),
	}
}

// Connect opens a connection using standard authentication and verifies it with a ping.
func (c *StandardConnector) Connect(ctx context.Context) (*pgx.Conn, error) {
	return connect(ctx, c.config, BuildConnectionString(c.config), c.opts)
}

// connect parses connStr, opens the connection and pings it.
func connect(ctx context.Context, config *oceanq.ConnectionConfig, connStr string, o options) (*pgx.Conn, error) {
	connConfig, err := pgx.ParseConfig(connStr)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to parse connection config: %w", oceanq.ErrInvalidConfig, err)
	}

	o.configureConn(connConfig)

	conn, err := pgx.ConnectConfig(ctx, connConfig)
	if err != nil {
		return nil, wrapConnectionError(err, config.Host, config.Port, config.Database)
	}

	if err := conn.Ping(ctx); err != nil {
		_ = conn.Close(context.Background())
		return nil, wrapConnectionError(err, config.Host, config.Port, config.Database)
	}

	return conn, nil
}

// NewConnector is a factory function that creates the appropriate Connector
// based on the ConnectionConfig's AuthMethod.
func NewConnector(config *oceanq.ConnectionConfig, opts ...Option) (oceanq.Connector, error) {
	switch config.AuthMethod {
	case oceanq.AuthMethodStandard:
		return NewStandardConnector(config, opts...), nil
	case oceanq.AuthMethodAWSIAM:
		return newAWSConnector(config, opts...)
	case oceanq.AuthMethodGoogleIAM:
		return newGoogleConnector(config, opts...)
	case oceanq.AuthMethodAzureEntraID:
		return newAzureConnector(config, opts...)
	default:
		return nil, fmt.Errorf("unsupported auth method %v: %w", config.AuthMethod, oceanq.ErrUnsupportedAuthMethod)
	}
}

// wrapConnectionError wraps raw pgx connection errors with actionable guidance.
// The result matches both oceanq.ErrConnection and err.
func wrapConnectionError(err error, host string, port int, database string) error {
	errStr := strings.ToLower(err.Error())
	addr := fmt.Sprintf("%s:%d", host, port)

	var guided error
	switch {
	case strings.Contains(errStr, "connection refused") || strings.Contains(errStr, "actively refused"):
		guided = fmt.Errorf(`connection refused to %s

Possible causes:
  - PostgreSQL is not running (check: pg_isready -h %s -p %d)
  - Wrong DB_HOST or DB_PORT
  - Firewall blocking the connection

Original error: %w`, addr, host, port, err)

	case strings.Contains(errStr, "no such host") || strings.Contains(errStr, "no host"):
		guided = fmt.Errorf(`cannot resolve host "%s"

Possible causes:
  - DB_HOST is misspelled
  - DNS is not configured or reachable
  - Network connection issue

Original error: %w`, host, err)

	case strings.Contains(errStr, "password authentication failed"):
		guided = fmt.Errorf(`password authentication failed for database "%s"

Possible causes:
  - Wrong DB_PASSWORD
  - Wrong DB_USER
  - User does not have access to the database

Original error: %w`, database, err)

	case strings.Contains(errStr, "does not exist"):
		guided = fmt.Errorf(`database "%s" does not exist

To create it:
  createdb %s

Original error: %w`, database, database, err)

	case strings.Contains(errStr, "timeout") || strings.Contains(errStr, "timed out"):
		guided = fmt.Errorf(`connection timed out to %s

Possible causes:
  - Server is overloaded or unresponsive
  - Firewall silently dropping packets
  - Wrong host/port (server not listening)

Original error: %w`, addr, err)

	case strings.Contains(errStr, "ssl") || strings.Contains(errStr, "tls"):
		guided = fmt.Errorf(`SSL/TLS connection error

Possible causes:
  - Server requires SSL but DB_SSLMODE is disable
  - Server does not support SSL but DB_SSLMODE is require (try DB_SSLMODE=prefer)
  - Certificate verification failed

Original error: %w`, err)

	case strings.Contains(errStr, "too many connections"):
		guided = fmt.Errorf(`too many connections to database "%s"

Possible causes:
  - max_connections limit reached in postgresql.conf
  - Stale sessions from earlier runs

Original error: %w`, database, err)

	default:
		guided = fmt.Errorf("failed to connect to database: %w", err)
	}

	return fmt.Errorf("%w: %w", oceanq.ErrConnection, guided)
}

// newAWSConnector creates a token-based connector with the AWS IAM token provider.
func newAWSConnector(config *oceanq.ConnectionConfig, opts ...Option) (oceanq.Connector, error) {
	tokenProvider, err := NewAWSIAMTokenProvider(config.Address(), config.AWSRegion, config.Username)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create AWS IAM token provider: %w", oceanq.ErrInvalidConfig, err)
	}

	return NewTokenBasedConnector(config, tokenProvider, "AWS IAM", opts...), nil
}

// newGoogleConnector creates a GoogleCloudSQLConnector for Google Cloud SQL IAM authentication.
func newGoogleConnector(config *oceanq.ConnectionConfig, opts ...Option) (oceanq.Connector, error) {
	if config.GoogleInstance == "" {
		return nil, fmt.Errorf("%w: Google Cloud SQL IAM auth requires DB_GOOGLE_INSTANCE (project:region:instance)", oceanq.ErrInvalidConfig)
	}
	if config.Username == "" {
		return nil, fmt.Errorf("%w: Google Cloud SQL IAM auth requires DB_USER", oceanq.ErrInvalidConfig)
	}

	return NewGoogleCloudSQLConnector(config, config.GoogleInstance, opts...), nil
}

// newAzureConnector creates a token-based connector with the Azure Entra ID token provider.
// If explicit credentials (tenant, client, secret) are provided, uses Service Principal auth.
// Otherwise, falls back to DefaultAzureCredential chain.
func newAzureConnector(config *oceanq.ConnectionConfig, opts ...Option) (oceanq.Connector, error) {
	var tokenProvider TokenProvider
	var err error

	if config.AzureTenantID != "" && config.AzureClientID != "" && config.AzureClientSecret != "" {
		tokenProvider, err = NewAzureServicePrincipalProvider(
			config.AzureTenantID,
			config.AzureClientID,
			config.AzureClientSecret,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to create Azure Service Principal provider: %w", err)
		}
	} else {
		tokenProvider, err = NewAzureDefaultCredentialProvider()
		if err != nil {
			return nil, fmt.Errorf("failed to create Azure Default Credential provider: %w", err)
		}
	}

	return NewTokenBasedConnector(config, tokenProvider, "Azure", opts...), nil
}
