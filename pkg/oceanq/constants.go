package oceanq

import "time"

// Exit codes for semantic error classification.
// These follow Unix/GNU conventions:
//   - 0: Success
//   - 1: General error
//   - 2: CLI usage error (misuse of command line)
//   - 3+: Application-specific errors
const (
	ExitSuccess          = 0  // Command completed successfully
	ExitGeneralError     = 1  // Unknown or unclassified error
	ExitUsageError       = 2  // CLI usage error (missing args, invalid flags)
	ExitPanic            = 3  // Internal panic (unexpected crash)
	ExitConfigError      = 10 // Invalid configuration or parameters
	ExitConnectionError  = 11 // Failed to connect to database
	ExitApprovalDenied   = 12 // User denied table replacement
	ExitQueryFailed      = 13 // SQL execution failed
	ExitSourceNotFound   = 14 // CSV source not found
	ExitSchemaMismatch   = 15 // CSV does not match the measurement schema
	ExitValidationFailed = 16 // Query parameter rejected
)

// Measurement table layout.
const (
	// DefaultTableName is the table the loader writes and the query module reads.
	DefaultTableName = "argo_data"

	// ColumnTimestamp, ColumnLatitude and ColumnLongitude are the mandatory
	// columns of every measurement table. All other columns are measured values.
	ColumnTimestamp = "datetime"
	ColumnLatitude  = "lat"
	ColumnLongitude = "lon"

	// DateLayout is the only accepted format for date range boundaries.
	DateLayout = "2006-01-02"
)

// Query bounds.
const (
	// MaxLimit caps the number of rows any bounded query may return.
	MaxLimit = 10000

	// DefaultSampleLimit is the row count used by GetSampleData when no limit is given.
	DefaultSampleLimit = 5

	// DefaultQueryLimit is the row count used by filtered queries when no limit is given.
	DefaultQueryLimit = 100

	MinLatitude  = -90.0
	MaxLatitude  = 90.0
	MinLongitude = -180.0
	MaxLongitude = 180.0
)

const (
	// DefaultPort is the PostgreSQL port used when DB_PORT is not set.
	DefaultPort = 5432

	// DefaultSSLMode is used when DB_SSLMODE is not set.
	DefaultSSLMode = "prefer"

	// DefaultSourceFile is the CSV the loader reads when no path is given.
	DefaultSourceFile = "ARGO_2019.csv"

	// DefaultForceApprovalCountdown is the countdown duration before a forced replace proceeds.
	DefaultForceApprovalCountdown = 5 * time.Second

	// TokenExpiryWarning is the remaining token lifetime below which token
	// connectors emit a warning.
	TokenExpiryWarning = 5 * time.Minute

	// MaxErrorPreviewLength is the maximum number of characters of a CSV value
	// echoed back in loader error messages.
	MaxErrorPreviewLength = 200
)
