package cli

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/spf13/cobra"

	"github.com/argo-ocean/oceanq/internal/config"
	"github.com/argo-ocean/oceanq/internal/db"
	"github.com/argo-ocean/oceanq/internal/logging"
	"github.com/argo-ocean/oceanq/pkg/oceanq"
)

const closeTimeout = 5 * time.Second

// session bundles what every database command needs: the resolved
// configuration, a logger and the single connection.
type session struct {
	cfg       *config.Config
	logger    *logging.ConsoleLogger
	conn      *pgx.Conn
	connector oceanq.Connector
}

// openSession resolves configuration and opens the connection.
// With --verbose every statement is traced through the logger.
func openSession(cmd *cobra.Command) (*session, error) {
	verbose := getVerboseFlag(cmd)
	logger := logging.NewConsoleLogger(verbose)

	cfg, err := config.Load(config.Options{EnvFile: getEnvFileFlag(cmd)})
	if err != nil {
		return nil, err
	}
	logger.Verbose("Connecting to %s", db.RedactedConnectionString(cfg.Connection))

	opts := []db.Option{db.WithLogger(logger)}
	if verbose {
		opts = append(opts, db.WithTracer(db.NewTraceLogger(logger.Zerolog())))
	}
	connector, err := db.NewConnector(cfg.Connection, opts...)
	if err != nil {
		return nil, err
	}

	conn, err := connector.Connect(cmd.Context())
	if err != nil {
		closeConnector(connector)
		return nil, err
	}
	return &session{cfg: cfg, logger: logger, conn: conn, connector: connector}, nil
}

func (s *session) Close() {
	ctx, cancel := context.WithTimeout(context.Background(), closeTimeout)
	defer cancel()
	if err := s.conn.Close(ctx); err != nil {
		s.logger.Verbose("closing connection: %v", err)
	}
	closeConnector(s.connector)
}

// closeConnector releases dialers such as the Cloud SQL connector.
func closeConnector(connector oceanq.Connector) {
	if c, ok := connector.(io.Closer); ok {
		c.Close() //nolint:errcheck
	}
}

// serverInfo describes the server behind conn.
type serverInfo struct {
	Version  string
	Database string
	User     string
}

func queryServerInfo(ctx context.Context, conn oceanq.Conn) (*serverInfo, error) {
	var info serverInfo
	err := conn.QueryRow(ctx, "SELECT current_setting('server_version'), current_database(), current_user").
		Scan(&info.Version, &info.Database, &info.User)
	if err != nil {
		return nil, db.Classify(fmt.Errorf("failed to read server info: %w", err))
	}
	return &info, nil
}
