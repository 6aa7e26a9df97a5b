// Package testing holds helpers shared by integration tests.
package testing

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/argo-ocean/oceanq/internal/db"
	"github.com/argo-ocean/oceanq/internal/db/manager"
	"github.com/argo-ocean/oceanq/internal/testinfra"
)

// TestConnEnv names the variable holding an external test database URI.
const TestConnEnv = "OCEANQ_TEST_CONN"

var (
	testContainerOnce sync.Once
	testContainerConn string
	testContainerErr  error
)

func getOrStartTestContainer() (string, error) {
	testContainerOnce.Do(func() {
		container, err := testinfra.StartSimplePostgres(context.Background())
		if err != nil {
			testContainerErr = err
			return
		}
		testContainerConn = container.ConnString
	})
	return testContainerConn, testContainerErr
}

// GetTestConnectionString returns the test database connection string.
// Priority: OCEANQ_TEST_CONN env var > auto-started testcontainer > skip test.
func GetTestConnectionString(t *testing.T) string {
	t.Helper()

	if connString := os.Getenv(TestConnEnv); connString != "" {
		return connString
	}

	connString, err := getOrStartTestContainer()
	if err != nil {
		t.Skipf("%s not set and Docker unavailable: %v", TestConnEnv, err)
	}
	return connString
}

// SkipIfShort skips the test if running in short mode (-short flag).
func SkipIfShort(t *testing.T) {
	t.Helper()

	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}
}

// RequireDatabase combines SkipIfShort and GetTestConnectionString for convenience.
// Returns the test connection string if available, otherwise skips the test.
func RequireDatabase(t *testing.T) string {
	t.Helper()

	SkipIfShort(t)
	return GetTestConnectionString(t)
}

// Connect opens a connection through the standard connector.
// The connection is closed when the test completes.
func Connect(t *testing.T, connString string) *pgx.Conn {
	t.Helper()

	config, err := db.ParseConnectionString(connString)
	if err != nil {
		t.Fatalf("Failed to parse connection string: %v", err)
	}

	conn, err := db.NewStandardConnector(config).Connect(context.Background())
	if err != nil {
		t.Fatalf("Failed to connect: %v", err)
	}
	t.Cleanup(func() {
		conn.Close(context.Background()) //nolint:errcheck
	})
	return conn
}

// UniqueTableName returns a table name that does not collide across tests.
func UniqueTableName(prefix string) string {
	return fmt.Sprintf("%s_%s", prefix, strings.ReplaceAll(uuid.NewString(), "-", "")[:12])
}

// DropTableOnCleanup drops table when the test completes.
func DropTableOnCleanup(t *testing.T, conn *pgx.Conn, table string) {
	t.Helper()

	t.Cleanup(func() {
		ident := pgx.Identifier(strings.Split(table, "."))
		_, err := conn.Exec(context.Background(), "DROP TABLE IF EXISTS "+ident.Sanitize())
		if err != nil {
			t.Logf("Warning: Failed to drop table %s: %v", table, err)
		}
	})
}

// CreateMeasurementTable creates an empty measurement table with the given
// measured columns and drops it on cleanup.
func CreateMeasurementTable(t *testing.T, conn *pgx.Conn, table string, measured ...string) {
	t.Helper()

	ident := pgx.Identifier(strings.Split(table, "."))
	if err := manager.New().Create(context.Background(), conn, ident, measured); err != nil {
		t.Fatalf("Failed to create table %s: %v", table, err)
	}
	DropTableOnCleanup(t, conn, table)
}
