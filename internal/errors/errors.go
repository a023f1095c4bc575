package errors

import (
	"errors"
	"fmt"
)

// ErrorType classifies pipeline errors along the failure taxonomy: what could
// not be recognized, what was structurally broken, and what failed a rule.
type ErrorType string

const (
	ErrTypeDetection   ErrorType = "DETECTION"
	ErrTypeResolution  ErrorType = "RESOLUTION"
	ErrTypeParsing     ErrorType = "PARSING"
	ErrTypeValidation  ErrorType = "VALIDATION"
	ErrTypeAggregation ErrorType = "AGGREGATION"
	ErrTypeStorage     ErrorType = "STORAGE"
	ErrTypeConfig      ErrorType = "CONFIG"
	ErrTypeNoData      ErrorType = "NO_DATA"
)

// ErrNoData is the sentinel for a client whose file set contained nothing
// readable. It is the only pipeline-fatal condition; callers distinguish it
// from "zero holdings after valid processing".
var ErrNoData = errors.New("no readable input files for client")

// AppError is the application error carried between pipeline stages.
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

// Helper constructors for the common error types

// NewDetectionError creates a file-kind detection error
func NewDetectionError(message string, cause error) *AppError {
	return NewAppError(ErrTypeDetection, message, cause)
}

// NewResolutionError creates a client/broker path-resolution error
func NewResolutionError(message string, cause error) *AppError {
	return NewAppError(ErrTypeResolution, message, cause)
}

// NewParsingError creates a spreadsheet parsing error
func NewParsingError(message string, cause error) *AppError {
	return NewAppError(ErrTypeParsing, message, cause)
}

// NewValidationError creates a validation error
func NewValidationError(message string) *AppError {
	return NewAppError(ErrTypeValidation, message, nil)
}

// NewAggregationError creates an aggregation error
func NewAggregationError(message string, cause error) *AppError {
	return NewAppError(ErrTypeAggregation, message, cause)
}

// NewStorageError creates a storage-related error
func NewStorageError(message string, cause error) *AppError {
	return NewAppError(ErrTypeStorage, message, cause)
}

// NewConfigError creates a configuration error
func NewConfigError(message string, cause error) *AppError {
	return NewAppError(ErrTypeConfig, message, cause)
}

// NewNoDataError wraps ErrNoData with the client it applies to.
func NewNoDataError(clientID string) *AppError {
	err := NewAppError(ErrTypeNoData, fmt.Sprintf("no readable input files for client %s", clientID), ErrNoData)
	return err.WithContext("client_id", clientID)
}

// IsNoData reports whether err is the pipeline-fatal no-data outcome.
func IsNoData(err error) bool {
	return errors.Is(err, ErrNoData)
}
