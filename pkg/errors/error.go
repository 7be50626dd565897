// Package errors provides structured error handling with typed error codes.
//
// Error codes are organized into categories:
//   - General errors (1-99): Unknown and general errors
//   - Validation errors (100-199): Invalid parameters, configuration and date ranges
//   - Data errors (200-299): Missing data, unknown or duplicated columns
//   - Market data errors (700-799): Provider fetching, parsing and output errors
//
// Usage:
//
//	// Create a new error
//	err := errors.New(errors.ErrCodeInvalidParameter, "invalid parameter value")
//
//	// Create a formatted error
//	err := errors.Newf(errors.ErrCodeDataNotFound, "no observations for series %s", symbol)
//
//	// Wrap an existing error
//	err := errors.Wrap(errors.ErrCodeMarketDataFetchFailed, "failed to fetch series", originalErr)
//
//	// Check error code
//	if errors.HasCode(err, errors.ErrCodeDataNotFound) { ... }
package errors

import (
	"errors"
	"fmt"
)

// Error represents a structured error with an error code and message.
type Error struct {
	Code    ErrorCode
	Message string
	Cause   error
}

// New creates a new Error with the given code and message.
func New(code ErrorCode, message string) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Cause:   nil,
	}
}

// Newf creates a new Error with the given code and formatted message.
func Newf(code ErrorCode, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   nil,
	}
}

// Wrap wraps an existing error with a new Error containing the given code and message.
func Wrap(code ErrorCode, message string, cause error) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// Wrapf wraps an existing error with a new Error containing the given code and formatted message.
func Wrapf(code ErrorCode, cause error, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   cause,
	}
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%d] %s: %v", e.Code, e.Message, e.Cause)
	}

	return fmt.Sprintf("[%d] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether any error in err's chain matches target.
// This is a convenience wrapper around the standard errors.Is function.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target.
// This is a convenience wrapper around the standard errors.As function.
func As(err error, target any) bool {
	return errors.As(err, target)
}

// GetCode extracts the ErrorCode from an error if it's an *Error or *ColumnError.
// Returns ErrCodeUnknown otherwise.
func GetCode(err error) ErrorCode {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}

	var columnErr *ColumnError
	if errors.As(err, &columnErr) {
		return columnErr.Code
	}

	return ErrCodeUnknown
}

// HasCode checks if an error has a specific ErrorCode.
func HasCode(err error, code ErrorCode) bool {
	return GetCode(err) == code
}

// ColumnError reports a problem with a named column of a dataset, such as a
// column that is referenced but absent or one that appears twice in a join.
type ColumnError struct {
	Code    ErrorCode
	Column  string
	Message string
}

// NewColumnError creates a new ColumnError.
func NewColumnError(code ErrorCode, column, message string) *ColumnError {
	return &ColumnError{
		Code:    code,
		Column:  column,
		Message: message,
	}
}

// Error implements the error interface.
func (e *ColumnError) Error() string {
	return fmt.Sprintf("[%d] column %q: %s", e.Code, e.Column, e.Message)
}

// IsColumnError checks if an error is a ColumnError.
// It uses errors.As to check the error chain.
func IsColumnError(err error) bool {
	var columnErr *ColumnError

	return errors.As(err, &columnErr)
}
