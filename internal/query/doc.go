// Package query answers read-only questions about the measurement table.
//
// Every operation returns an oceanq.Envelope. Failures are reported inside the
// envelope with Success false and a categorized ErrorDetail; no operation
// returns a Go error or panics.
//
// A Service wraps a single connection and is not safe for concurrent use.
package query
