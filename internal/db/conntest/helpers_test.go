//go:build conntest

// Package conntest exercises the connectors against a TLS-enabled server.
// Run with: go test -tags conntest ./internal/db/conntest/
package conntest

import (
	"context"
	"fmt"
	"os"
	"testing"

	"github.com/jackc/pgx/v5"

	"github.com/argo-ocean/oceanq/internal/db"
	"github.com/argo-ocean/oceanq/internal/testinfra"
	"github.com/argo-ocean/oceanq/pkg/oceanq"
)

var (
	tlsContainer *testinfra.PostgresContainer
	certPaths    *testinfra.CertPaths
)

func TestMain(m *testing.M) {
	ctx := context.Background()

	bundle, err := testinfra.GenerateCertBundle([]string{"localhost", "127.0.0.1"})
	if err != nil {
		fmt.Fprintf(os.Stderr, "generate certs: %v\n", err)
		os.Exit(1)
	}

	dir, err := os.MkdirTemp("", "oceanq-conntest-*")
	if err != nil {
		fmt.Fprintf(os.Stderr, "create temp dir: %v\n", err)
		os.Exit(1)
	}

	paths, err := bundle.WriteToDir(dir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "write certs: %v\n", err)
		os.Exit(1)
	}
	certPaths = paths

	ctr, err := testinfra.StartTLSPostgres(ctx, certPaths)
	if err != nil {
		fmt.Fprintf(os.Stderr, "start postgres: %v\n", err)
		os.RemoveAll(dir)
		os.Exit(1)
	}
	tlsContainer = ctr

	code := m.Run()

	tlsContainer.Terminate(ctx) //nolint:errcheck
	os.RemoveAll(dir)
	os.Exit(code)
}

func connectWithConfig(t *testing.T, config *oceanq.ConnectionConfig) *pgx.Conn {
	t.Helper()
	ctx := context.Background()

	connector, err := db.NewConnector(config)
	if err != nil {
		t.Fatalf("create connector: %v", err)
	}

	conn, err := connector.Connect(ctx)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}

	t.Cleanup(func() { conn.Close(context.Background()) }) //nolint:errcheck
	return conn
}

func pingSucceeds(t *testing.T, conn *pgx.Conn) {
	t.Helper()
	if err := conn.Ping(context.Background()); err != nil {
		t.Fatalf("ping failed: %v", err)
	}
}

func queryVersion(t *testing.T, conn *pgx.Conn) string {
	t.Helper()
	var version string
	err := conn.QueryRow(context.Background(), "SELECT version()").Scan(&version)
	if err != nil {
		t.Fatalf("query version: %v", err)
	}
	return version
}

func parseConnString(t *testing.T) *oceanq.ConnectionConfig {
	t.Helper()
	config, err := db.ParseConnectionString(tlsContainer.ConnString)
	if err != nil {
		t.Fatalf("parse connection string: %v", err)
	}
	return config
}

func withRootCert(config *oceanq.ConnectionConfig) {
	if config.AdditionalParams == nil {
		config.AdditionalParams = map[string]string{}
	}
	config.AdditionalParams["sslrootcert"] = certPaths.CACert
}
