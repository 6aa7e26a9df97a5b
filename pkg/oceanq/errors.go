package oceanq

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for common failure scenarios.
// These enable callers to distinguish error types using errors.Is().
//
// Example usage:
//
//	res, err := ldr.Load(ctx, opts)
//	if errors.Is(err, oceanq.ErrSourceNotFound) {
//	    // Handle missing CSV file
//	}
var (
	// ErrInvalidConfig indicates the provided configuration is invalid.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrValidation indicates a caller-supplied query parameter is out of range or unparseable.
	ErrValidation = errors.New("validation failed")

	// ErrConnection indicates the database is unreachable or rejected the credentials.
	ErrConnection = errors.New("connection failed")

	// ErrQueryExecution indicates a statement failed server-side.
	ErrQueryExecution = errors.New("query execution failed")

	// ErrSourceNotFound indicates the CSV source does not exist.
	ErrSourceNotFound = errors.New("source not found")

	// ErrSchemaMismatch indicates the CSV does not fit the measurement table.
	ErrSchemaMismatch = errors.New("schema mismatch")

	// ErrApprovalDenied indicates the user denied approval for the operation.
	ErrApprovalDenied = errors.New("approval denied")

	// ErrUnsupportedAuthMethod indicates the requested authentication method is not supported.
	ErrUnsupportedAuthMethod = errors.New("unsupported authentication method")
)

// ValidationError describes a rejected query parameter.
// It always matches ErrValidation through errors.Is.
type ValidationError struct {
	Field  string
	Reason string
}

// NewValidationError creates a ValidationError for the named parameter.
func NewValidationError(field, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// ErrorKind is the machine-readable failure category carried in an envelope.
type ErrorKind string

const (
	ErrorKindValidation     ErrorKind = "validation"
	ErrorKindConnection     ErrorKind = "connection"
	ErrorKindQueryExecution ErrorKind = "query_execution"
)

// KindOf classifies err into one of the envelope error kinds.
// Errors that are neither validation nor connection failures are reported
// as query execution failures.
func KindOf(err error) ErrorKind {
	switch {
	case errors.Is(err, ErrValidation):
		return ErrorKindValidation
	case errors.Is(err, ErrConnection):
		return ErrorKindConnection
	default:
		return ErrorKindQueryExecution
	}
}

// sentinel returns the sentinel error matching the kind.
func (k ErrorKind) sentinel() error {
	switch k {
	case ErrorKindValidation:
		return ErrValidation
	case ErrorKindConnection:
		return ErrConnection
	default:
		return ErrQueryExecution
	}
}

var usageErrorPrefixes = []string{
	"unknown flag",
	"unknown shorthand flag",
	"unknown command",
	"accepts ",
	"requires at least",
	"required flag",
	"invalid argument",
	"flag needs an argument",
}

// ExitCodeForError returns the appropriate exit code for an error.
// Returns ExitSuccess (0) for nil errors, semantic codes for known errors,
// and ExitGeneralError (1) for unclassified errors.
func ExitCodeForError(err error) int {
	if err == nil {
		return ExitSuccess
	}

	switch {
	case errors.Is(err, ErrInvalidConfig):
		return ExitConfigError
	case errors.Is(err, ErrUnsupportedAuthMethod):
		return ExitConfigError
	case errors.Is(err, ErrValidation):
		return ExitValidationFailed
	case errors.Is(err, ErrConnection):
		return ExitConnectionError
	case errors.Is(err, ErrApprovalDenied):
		return ExitApprovalDenied
	case errors.Is(err, ErrQueryExecution):
		return ExitQueryFailed
	case errors.Is(err, ErrSourceNotFound):
		return ExitSourceNotFound
	case errors.Is(err, ErrSchemaMismatch):
		return ExitSchemaMismatch
	}

	errStr := err.Error()

	// Cobra reports flag and argument misuse as plain errors
	for _, prefix := range usageErrorPrefixes {
		if strings.HasPrefix(errStr, prefix) {
			return ExitUsageError
		}
	}

	// Check for common connection error patterns
	if strings.Contains(errStr, "failed to connect") ||
		strings.Contains(errStr, "connection refused") ||
		strings.Contains(errStr, "no such host") {
		return ExitConnectionError
	}

	return ExitGeneralError
}
