// Package logging provides concrete implementations of the oceanq.Logger interface.
//
// Available implementations:
//   - ConsoleLogger: zerolog console output on stderr, debug level when verbose
//   - NullLogger: Discards all messages (useful for testing)
//
// ConsoleLogger also exposes its zerolog.Logger so the database layer can
// route pgx trace output through the same writer.
//
// All logger implementations are safe for concurrent use by multiple goroutines.
package logging
