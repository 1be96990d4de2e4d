package errors

// ErrorCode represents a standardized way to categorize different types of errors.
type ErrorCode string

// Base error codes, applicable across any subsystem.
const (
	ErrorCodeIO            ErrorCode = "IO_ERROR"
	ErrorCodeInvalidInput  ErrorCode = "INVALID_INPUT"
	ErrorCodeInternal      ErrorCode = "INTERNAL_ERROR"
	ErrorCodeInvalidConfig ErrorCode = "INVALID_CONFIG"
)

// Storage-specific error codes.
const (
	// ErrorCodeSegmentCorrupted indicates a record failed to decode, or an
	// indexed pointer dereferenced to an unexpected record type (spec §7's
	// Corruption kind).
	ErrorCodeSegmentCorrupted ErrorCode = "SEGMENT_CORRUPTED"
	ErrorCodePermissionDenied ErrorCode = "PERMISSION_DENIED"
	ErrorCodeDiskFull         ErrorCode = "DISK_FULL"
)

// Index-specific error codes.
const (
	ErrorCodeIndexKeyNotFound ErrorCode = "INDEX_KEY_NOT_FOUND"
	ErrorCodeIndexCorrupted   ErrorCode = "INDEX_CORRUPTED"
)
