package errors

// ValidationError is a specialized error for input validation failures:
// an empty key/value, or a malformed address/engine name (spec §7's
// InvalidConfig kind surfaces before the engine is even opened).
type ValidationError struct {
	*baseError
	field    string
	rule     string
	provided any
}

func NewValidationError(err error, code ErrorCode, msg string) *ValidationError {
	return &ValidationError{baseError: NewBaseError(err, code, msg)}
}

func (ve *ValidationError) WithField(field string) *ValidationError {
	ve.field = field
	ve.WithDetail("field", field)
	return ve
}

func (ve *ValidationError) WithRule(rule string) *ValidationError {
	ve.rule = rule
	ve.WithDetail("rule", rule)
	return ve
}

func (ve *ValidationError) WithProvided(value any) *ValidationError {
	ve.provided = value
	ve.WithDetail("provided", value)
	return ve
}

func (ve *ValidationError) Field() string { return ve.field }
func (ve *ValidationError) Rule() string  { return ve.rule }
func (ve *ValidationError) Provided() any { return ve.provided }

// NewRequiredFieldError reports that a required string (key or value)
// was empty — set/get/remove all reject this before touching the log.
func NewRequiredFieldError(fieldName string) *ValidationError {
	return NewValidationError(nil, ErrorCodeInvalidInput, "value must not be empty").
		WithField(fieldName).
		WithRule("required")
}

// NewInvalidConfigError reports a configuration problem detected before
// the engine is opened: an engine-variant mismatch, or an unparseable
// bind address (spec §6, §7's InvalidConfig kind).
func NewInvalidConfigError(field, msg string, provided any) *ValidationError {
	return NewValidationError(nil, ErrorCodeInvalidConfig, msg).
		WithField(field).
		WithProvided(provided)
}

// IsInvalidConfig reports whether err represents an InvalidConfig failure.
func IsInvalidConfig(err error) bool {
	ve, ok := AsValidationError(err)
	return ok && ve.Code() == ErrorCodeInvalidConfig
}
