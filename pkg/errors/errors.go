// Package errors provides the typed error kinds the storage engine and
// server distinguish: NotFound, IO, Corruption, and InvalidConfig (spec
// §7). Each kind embeds a shared baseError so callers can attach
// structured context (key, segment, offset, path) at the point of
// failure, while errors.Is/errors.As still work through the normal
// wrapping chain.
package errors

import (
	stdErrors "errors"
	"os"
)

// IsValidationError reports whether err is, or wraps, a ValidationError.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return stdErrors.As(err, &ve)
}

// IsStorageError reports whether err is, or wraps, a StorageError — file
// I/O, permission, or segment-corruption failures.
func IsStorageError(err error) bool {
	var se *StorageError
	return stdErrors.As(err, &se)
}

// IsIndexError reports whether err is, or wraps, an IndexError.
func IsIndexError(err error) bool {
	var ie *IndexError
	return stdErrors.As(err, &ie)
}

// AsValidationError extracts a ValidationError from err's chain, if present.
func AsValidationError(err error) (*ValidationError, bool) {
	var ve *ValidationError
	if stdErrors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}

// AsStorageError extracts a StorageError from err's chain, if present.
func AsStorageError(err error) (*StorageError, bool) {
	var se *StorageError
	if stdErrors.As(err, &se) {
		return se, true
	}
	return nil, false
}

// AsIndexError extracts an IndexError from err's chain, if present.
func AsIndexError(err error) (*IndexError, bool) {
	var ie *IndexError
	if stdErrors.As(err, &ie) {
		return ie, true
	}
	return nil, false
}

// GetErrorCode returns err's ErrorCode, or ErrorCodeInternal if err carries
// none of the domain error types this package defines.
func GetErrorCode(err error) ErrorCode {
	if ve, ok := AsValidationError(err); ok {
		return ve.Code()
	}
	if se, ok := AsStorageError(err); ok {
		return se.Code()
	}
	if ie, ok := AsIndexError(err); ok {
		return ie.Code()
	}
	return ErrorCodeInternal
}

// ClassifyDirectoryCreationError turns a raw os error from creating the
// segment directory into a StorageError carrying the path and, where the
// cause is permission-related, a more specific code.
func ClassifyDirectoryCreationError(err error, path string) error {
	if os.IsPermission(err) {
		return NewStorageError(
			err, ErrorCodePermissionDenied, "insufficient permissions to create segment directory",
		).WithPath(path)
	}
	return NewStorageError(err, ErrorCodeIO, "failed to create segment directory").WithPath(path)
}

// ClassifyFileOpenError turns a raw os error from opening a segment file
// into a StorageError carrying the file's name and path.
func ClassifyFileOpenError(err error, filePath, fileName string) error {
	if os.IsPermission(err) {
		return NewStorageError(
			err, ErrorCodePermissionDenied, "insufficient permissions to open segment file",
		).WithPath(filePath).WithFileName(fileName)
	}
	return NewStorageError(err, ErrorCodeIO, "failed to open segment file").
		WithPath(filePath).WithFileName(fileName)
}
