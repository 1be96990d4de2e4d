package errors

// IndexError provides specialized error handling for index-related
// operations: which key and operation were involved.
type IndexError struct {
	*baseError
	key       string
	operation string
}

func NewIndexError(err error, code ErrorCode, msg string) *IndexError {
	return &IndexError{baseError: NewBaseError(err, code, msg)}
}

func (ie *IndexError) WithKey(key string) *IndexError {
	ie.key = key
	ie.WithDetail("key", key)
	return ie
}

func (ie *IndexError) WithOperation(operation string) *IndexError {
	ie.operation = operation
	ie.WithDetail("operation", operation)
	return ie
}

func (ie *IndexError) Key() string       { return ie.key }
func (ie *IndexError) Operation() string { return ie.operation }

// NewKeyNotFoundError builds a NotFound IndexError for a Remove of a key
// that isn't currently live in the index (spec §7's NotFound kind). The
// engine itself reports that case with the internal/engine.ErrKeyNotFound
// sentinel, for which IsNotFound reports false.
func NewKeyNotFoundError(key string) *IndexError {
	return NewIndexError(nil, ErrorCodeIndexKeyNotFound, "Key not found").
		WithKey(key).
		WithOperation("Remove")
}

// IsNotFound reports whether err represents a NotFound failure.
func IsNotFound(err error) bool {
	ie, ok := AsIndexError(err)
	return ok && ie.Code() == ErrorCodeIndexKeyNotFound
}
