package errors

import (
	"fmt"
)

// ErrorType represents the type of error
type ErrorType string

const (
	ErrTypeValidation  ErrorType = "VALIDATION"
	ErrTypeNotFound    ErrorType = "NOT_FOUND"
	ErrTypeNoData      ErrorType = "NO_DATA"
	ErrTypeStorage     ErrorType = "STORAGE"
	ErrTypeParsing     ErrorType = "PARSING"
	ErrTypeUnavailable ErrorType = "UNAVAILABLE"
	ErrTypeConfig      ErrorType = "CONFIG"
)

// AppError is a service-layer error. The ErrorHandler maps its Type to an
// HTTP status.
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

// NewSelectionError reports a request naming values outside the dashboard
// vocabularies.
func NewSelectionError(cause error) *AppError {
	return NewAppError(ErrTypeValidation, "invalid selection", cause)
}

// NewNoDataError reports a selection whose every outcome was skipped.
func NewNoDataError(message string) *AppError {
	return NewAppError(ErrTypeNoData, message, nil)
}

func NewStorageError(message string, cause error) *AppError {
	return NewAppError(ErrTypeStorage, message, cause)
}

func NewParsingError(message string, cause error) *AppError {
	return NewAppError(ErrTypeParsing, message, cause)
}

// NewUnavailableError marks a dependency the service cannot reach, such as
// a missing data directory.
func NewUnavailableError(message string, cause error) *AppError {
	return NewAppError(ErrTypeUnavailable, message, cause)
}

// NewConfigError creates a configuration error
func NewConfigError(message string, cause error) *AppError {
	return NewAppError(ErrTypeConfig, message, cause)
}
