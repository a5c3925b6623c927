// Package cli implements the command-line interface.
package cli

// Error codes for structured error responses.
// These codes are stable and can be relied upon by scripts.
const (
	// File errors
	ErrFileNotFound   = "FILE_NOT_FOUND"
	ErrFileReadError  = "FILE_READ_ERROR"
	ErrFileWriteError = "FILE_WRITE_ERROR"

	// Document errors
	ErrParseError  = "PARSE_ERROR"
	ErrCheckFailed = "CHECK_FAILED"

	// Interaction errors
	ErrAborted = "ABORTED"

	// Configuration errors
	ErrConfigInvalid = "CONFIG_INVALID"

	// General errors
	ErrInternal = "INTERNAL_ERROR"
)

// Warning codes for non-fatal issues.
const (
	WarnCheck     = "CHECK_WARNING"
	WarnMigration = "MIGRATION_WARNING"
)
