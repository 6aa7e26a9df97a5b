// Package manager provides measurement table operations for PostgreSQL.
//
// The manager package covers the DDL and catalog lookups the loader and the
// query module share:
//   - Checking table existence
//   - Listing columns in table order
//   - Counting rows
//   - Creating the measurement table and its indexes
//   - Truncating a table before a reload
//
// Table names are pgx.Identifier values, so every statement quotes them with
// Sanitize(). Schema-qualified names are looked up in that schema, unqualified
// names in current_schema().
//
// # Example Usage
//
//	mgr := manager.New()
//
//	exists, err := mgr.Exists(ctx, conn, pgx.Identifier{"argo_data"})
//	err = mgr.Create(ctx, conn, pgx.Identifier{"argo_data"}, []string{"mld"})
//
// # Thread Safety
//
// Manager is stateless; thread safety depends on the connection passed in.
package manager
