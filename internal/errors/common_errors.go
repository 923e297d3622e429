package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorType represents the type of error
type ErrorType string

const (
	ErrTypeFileRead        ErrorType = "FILE_READ"
	ErrTypeSchemaMismatch  ErrorType = "SCHEMA_MISMATCH"
	ErrTypeInvalidCountry  ErrorType = "INVALID_COUNTRY"
	ErrTypeUnsupportedMode ErrorType = "UNSUPPORTED_MODE"
	ErrTypeParsing         ErrorType = "PARSING"
	ErrTypeStorage         ErrorType = "STORAGE"
	ErrTypeValidation      ErrorType = "VALIDATION"
	ErrTypeNotFound        ErrorType = "NOT_FOUND"
	ErrTypeConfig          ErrorType = "CONFIG"
)

// AppError represents an application-specific error
type AppError struct {
	Type    ErrorType
	Message string
	Cause   error
	Context map[string]interface{}
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Type, e.Message)
}

// Unwrap allows errors.Is and errors.As to work with AppError
func (e *AppError) Unwrap() error {
	return e.Cause
}

// WithContext adds context to the error
func (e *AppError) WithContext(key string, value interface{}) *AppError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// NewAppError creates a new application error
func NewAppError(errType ErrorType, message string, cause error) *AppError {
	return &AppError{
		Type:    errType,
		Message: message,
		Cause:   cause,
		Context: make(map[string]interface{}),
	}
}

// IsType reports whether any AppError in err's chain has the given type.
func IsType(err error, errType ErrorType) bool {
	for err != nil {
		var appErr *AppError
		if !stderrors.As(err, &appErr) {
			return false
		}
		if appErr.Type == errType {
			return true
		}
		err = appErr.Cause
	}
	return false
}

// NewFileReadError reports a spreadsheet that is missing or cannot be parsed.
// It is fatal for that file only.
func NewFileReadError(path string, cause error) *AppError {
	return NewAppError(ErrTypeFileRead, fmt.Sprintf("cannot read %s", path), cause).
		WithContext("file", path)
}

// NewSchemaMismatchError reports column labels or counts that the
// normalisation rules cannot resolve.
func NewSchemaMismatchError(path, message string) *AppError {
	return NewAppError(ErrTypeSchemaMismatch, message, nil).WithContext("file", path)
}

// NewInvalidCountryError reports a country with no rows in a table.
func NewInvalidCountryError(country string) *AppError {
	return NewAppError(ErrTypeInvalidCountry, fmt.Sprintf("country %q not found", country), nil).
		WithContext("country", country)
}

// NewUnsupportedModeError reports an unknown mode string. Always fatal.
func NewUnsupportedModeError(kind, mode string) *AppError {
	return NewAppError(ErrTypeUnsupportedMode, fmt.Sprintf("unsupported %s %q", kind, mode), nil).
		WithContext(kind, mode)
}

// NewParsingError creates a parsing-related error
func NewParsingError(message string, cause error) *AppError {
	return NewAppError(ErrTypeParsing, message, cause)
}

// NewStorageError creates a storage-related error
func NewStorageError(message string, cause error) *AppError {
	return NewAppError(ErrTypeStorage, message, cause)
}

// NewAppValidationError creates a validation error for AppError type
func NewAppValidationError(message string) *AppError {
	return NewAppError(ErrTypeValidation, message, nil)
}

// NewNotFoundError creates a not found error
func NewNotFoundError(resource string) *AppError {
	return NewAppError(ErrTypeNotFound, fmt.Sprintf("%s not found", resource), nil)
}

// NewConfigError creates a configuration error
func NewConfigError(message string, cause error) *AppError {
	return NewAppError(ErrTypeConfig, message, cause)
}
