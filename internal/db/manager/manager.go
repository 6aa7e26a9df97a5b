package manager

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/argo-ocean/oceanq/pkg/oceanq"
)

const (
	queryTableExists = `
		SELECT EXISTS (
			SELECT 1 FROM information_schema.tables
			WHERE table_schema = COALESCE(NULLIF($1, ''), current_schema())
			  AND table_name = $2
		)`
	queryTableColumns = `
		SELECT column_name, data_type
		FROM information_schema.columns
		WHERE table_schema = COALESCE(NULLIF($1, ''), current_schema())
		  AND table_name = $2
		ORDER BY ordinal_position`
)

// Column is one column of a table as reported by information_schema.
type Column struct {
	Name     string
	DataType string
}

// Numeric reports whether the column holds numbers that can be aggregated.
func (c Column) Numeric() bool {
	switch c.DataType {
	case "double precision", "real", "numeric", "integer", "bigint", "smallint":
		return true
	}
	return false
}

// Manager implements table lifecycle operations over an oceanq.Conn.
type Manager struct{}

// New creates a new Manager instance.
func New() *Manager {
	return &Manager{}
}

// split returns the schema ("" when unqualified) and table name.
func split(table pgx.Identifier) (string, string) {
	if len(table) == 2 {
		return table[0], table[1]
	}
	return "", table[len(table)-1]
}

// Exists checks if a table exists.
func (m *Manager) Exists(ctx context.Context, conn oceanq.Conn, table pgx.Identifier) (bool, error) {
	schema, name := split(table)

	var exists bool
	if err := conn.QueryRow(ctx, queryTableExists, schema, name).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check table existence: %w", err)
	}
	return exists, nil
}

// Columns lists the table's columns in ordinal order.
// A missing table yields an empty list.
func (m *Manager) Columns(ctx context.Context, conn oceanq.Conn, table pgx.Identifier) ([]Column, error) {
	schema, name := split(table)

	rows, err := conn.Query(ctx, queryTableColumns, schema, name)
	if err != nil {
		return nil, fmt.Errorf("failed to list columns: %w", err)
	}
	defer rows.Close()

	var columns []Column
	for rows.Next() {
		var c Column
		if err := rows.Scan(&c.Name, &c.DataType); err != nil {
			return nil, fmt.Errorf("failed to read column: %w", err)
		}
		columns = append(columns, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list columns: %w", err)
	}
	return columns, nil
}

// MeasuredColumns returns the numeric columns other than the coordinates,
// in table order.
func (m *Manager) MeasuredColumns(ctx context.Context, conn oceanq.Conn, table pgx.Identifier) ([]string, error) {
	columns, err := m.Columns(ctx, conn, table)
	if err != nil {
		return nil, err
	}

	var measured []string
	for _, c := range columns {
		if IsCoordinate(c.Name) || !c.Numeric() {
			continue
		}
		measured = append(measured, c.Name)
	}
	return measured, nil
}

// RowCount returns the number of rows in the table.
func (m *Manager) RowCount(ctx context.Context, conn oceanq.Conn, table pgx.Identifier) (int64, error) {
	var count int64
	query := fmt.Sprintf("SELECT count(*) FROM %s", table.Sanitize())
	if err := conn.QueryRow(ctx, query).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count rows: %w", err)
	}
	return count, nil
}

// Create creates the measurement table if it does not exist, with one
// double precision column per measured column, plus its indexes.
func (m *Manager) Create(ctx context.Context, conn oceanq.Conn, table pgx.Identifier, measured []string) error {
	if _, err := conn.Exec(ctx, CreateTableSQL(table, measured)); err != nil {
		return fmt.Errorf("failed to create table %s: %w", table.Sanitize(), err)
	}

	for _, stmt := range CreateIndexSQL(table) {
		if _, err := conn.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to create index on %s: %w", table.Sanitize(), err)
		}
	}
	return nil
}

// Truncate removes every row from the table.
func (m *Manager) Truncate(ctx context.Context, conn oceanq.Conn, table pgx.Identifier) error {
	query := fmt.Sprintf("TRUNCATE TABLE %s", table.Sanitize())
	if _, err := conn.Exec(ctx, query); err != nil {
		return fmt.Errorf("failed to truncate table %s: %w", table.Sanitize(), err)
	}
	return nil
}

// IsCoordinate reports whether column is one of the mandatory columns.
func IsCoordinate(column string) bool {
	switch column {
	case oceanq.ColumnTimestamp, oceanq.ColumnLatitude, oceanq.ColumnLongitude:
		return true
	}
	return false
}

// CreateTableSQL renders the CREATE TABLE statement for the measurement table.
func CreateTableSQL(table pgx.Identifier, measured []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "CREATE TABLE IF NOT EXISTS %s (\n", table.Sanitize())
	fmt.Fprintf(&b, "\t%s timestamp NOT NULL,\n", pgx.Identifier{oceanq.ColumnTimestamp}.Sanitize())
	fmt.Fprintf(&b, "\t%s double precision NOT NULL CHECK (%[1]s BETWEEN %g AND %g),\n",
		pgx.Identifier{oceanq.ColumnLatitude}.Sanitize(), oceanq.MinLatitude, oceanq.MaxLatitude)
	fmt.Fprintf(&b, "\t%s double precision NOT NULL CHECK (%[1]s BETWEEN %g AND %g)",
		pgx.Identifier{oceanq.ColumnLongitude}.Sanitize(), oceanq.MinLongitude, oceanq.MaxLongitude)
	for _, col := range measured {
		fmt.Fprintf(&b, ",\n\t%s double precision", pgx.Identifier{col}.Sanitize())
	}
	b.WriteString("\n)")
	return b.String()
}

// CreateIndexSQL renders the index statements: one on the timestamp and one
// on the coordinates.
func CreateIndexSQL(table pgx.Identifier) []string {
	_, name := split(table)
	ts := pgx.Identifier{oceanq.ColumnTimestamp}.Sanitize()
	lat := pgx.Identifier{oceanq.ColumnLatitude}.Sanitize()
	lon := pgx.Identifier{oceanq.ColumnLongitude}.Sanitize()

	return []string{
		fmt.Sprintf("CREATE INDEX IF NOT EXISTS %s ON %s (%s)",
			pgx.Identifier{name + "_datetime_idx"}.Sanitize(), table.Sanitize(), ts),
		fmt.Sprintf("CREATE INDEX IF NOT EXISTS %s ON %s (%s, %s)",
			pgx.Identifier{name + "_location_idx"}.Sanitize(), table.Sanitize(), lat, lon),
	}
}
