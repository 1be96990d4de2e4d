package errors

// StorageError is a specialized error for segment-file operations. It
// embeds baseError and adds the location context needed to find exactly
// which file and byte range was involved.
type StorageError struct {
	*baseError
	segmentID uint64
	offset    uint64
	fileName  string
	path      string
}

func NewStorageError(err error, code ErrorCode, msg string) *StorageError {
	return &StorageError{baseError: NewBaseError(err, code, msg)}
}

func (se *StorageError) WithSegmentID(id uint64) *StorageError {
	se.segmentID = id
	se.WithDetail("segmentId", id)
	return se
}

func (se *StorageError) WithOffset(offset uint64) *StorageError {
	se.offset = offset
	se.WithDetail("offset", offset)
	return se
}

func (se *StorageError) WithFileName(fileName string) *StorageError {
	se.fileName = fileName
	se.WithDetail("fileName", fileName)
	return se
}

func (se *StorageError) WithPath(path string) *StorageError {
	se.path = path
	se.WithDetail("path", path)
	return se
}

func (se *StorageError) SegmentID() uint64 { return se.segmentID }
func (se *StorageError) Offset() uint64    { return se.offset }
func (se *StorageError) FileName() string  { return se.fileName }
func (se *StorageError) Path() string      { return se.path }

// IsCorruption reports whether err represents a decode failure or an
// index pointer that resolved to the wrong record type (spec §7).
func IsCorruption(err error) bool {
	se, ok := AsStorageError(err)
	return ok && se.Code() == ErrorCodeSegmentCorrupted
}

// IsIO reports whether err represents a file or socket failure (spec §7).
func IsIO(err error) bool {
	se, ok := AsStorageError(err)
	return ok && se.Code() == ErrorCodeIO
}
