// Package loader ingests an ARGO measurement CSV into PostgreSQL.
//
// A load runs in one transaction: the table is created when missing,
// truncated when a replace was approved, and filled through COPY. A table
// that already holds rows is left untouched unless a replace is requested.
package loader
