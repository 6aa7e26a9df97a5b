package db

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"syscall"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/argo-ocean/oceanq/pkg/oceanq"
)

// SQLSTATE classes that mean the session itself is unusable.
// See: https://www.postgresql.org/docs/current/errcodes-appendix.html
var connectionClasses = []string{
	"08", // Connection Exception
	"28", // Invalid Authorization Specification
	"53", // Insufficient Resources
	"57", // Operator Intervention
}

// queryCanceled is raised by statement_timeout and cancel requests; the
// session stays usable.
const queryCanceled = "57014"

// connectionPatterns are driver messages that carry no SQLSTATE but mean the
// connection is gone.
var connectionPatterns = []string{
	"conn closed",
	"connection refused",
	"connection reset",
	"connection failure",
	"no such host",
	"network is unreachable",
	"broken pipe",
	"server closed the connection",
	"unexpected eof",
	"failed to connect",
}

// Classify wraps a driver error with oceanq.ErrConnection when the database
// became unreachable, or oceanq.ErrQueryExecution otherwise.
// Errors that already carry an oceanq kind are returned unchanged.
func Classify(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, oceanq.ErrValidation) ||
		errors.Is(err, oceanq.ErrConnection) ||
		errors.Is(err, oceanq.ErrQueryExecution) {
		return err
	}
	if IsConnectionError(err) {
		return fmt.Errorf("%w: %w", oceanq.ErrConnection, err)
	}
	return fmt.Errorf("%w: %w", oceanq.ErrQueryExecution, err)
}

// IsConnectionError reports whether err means the database is unreachable or
// the session was terminated.
func IsConnectionError(err error) bool {
	if err == nil {
		return false
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if pgErr.Code == queryCanceled {
			return false
		}
		for _, class := range connectionClasses {
			if strings.HasPrefix(pgErr.Code, class) {
				return true
			}
		}
		return false
	}

	var connectErr *pgconn.ConnectError
	if errors.As(err, &connectErr) {
		return true
	}

	if isNetworkError(err) {
		return true
	}

	// A statement cancelled by the caller is not a connectivity problem.
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	msg := strings.ToLower(err.Error())
	for _, pattern := range connectionPatterns {
		if strings.Contains(msg, pattern) {
			return true
		}
	}
	return false
}

func isNetworkError(err error) bool {
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return true
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return true
	}

	return errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.ENETUNREACH) ||
		errors.Is(err, syscall.EHOSTUNREACH) ||
		errors.Is(err, syscall.EPIPE)
}
