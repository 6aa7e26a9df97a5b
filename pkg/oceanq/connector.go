package oceanq

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Connector is a unified interface for establishing the database handle.
// Different implementations handle various authentication methods
// (standard credentials, cloud IAM tokens, Cloud SQL dialing).
type Connector interface {
	// Connect opens the single connection used for the lifetime of the process.
	// The caller closes it when done.
	Connect(ctx context.Context) (*pgx.Conn, error)
}

// Conn is the subset of *pgx.Conn used by the query module and the loader.
// It is not safe for concurrent use, matching *pgx.Conn.
type Conn interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
}

// Verify *pgx.Conn implements Conn at compile time
var _ Conn = (*pgx.Conn)(nil)
