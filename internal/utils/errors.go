// Package contextutils provides the application error taxonomy shared by services,
// middleware and handlers, plus request-scoped context helpers.
package contextutils

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorCode is the machine-readable code sent to API clients
type ErrorCode string

// Storage
const (
	ErrorCodeDatabaseConnection ErrorCode = "DATABASE_CONNECTION_ERROR"
	ErrorCodeDatabaseQuery      ErrorCode = "DATABASE_QUERY_ERROR"
	// ErrorCodeRecordNotFound covers both absent records and records owned by another user
	ErrorCodeRecordNotFound ErrorCode = "RECORD_NOT_FOUND"
	ErrorCodeRecordExists   ErrorCode = "RECORD_ALREADY_EXISTS"
)

// Input validation
const (
	ErrorCodeInvalidInput     ErrorCode = "INVALID_INPUT"
	ErrorCodeMissingRequired  ErrorCode = "MISSING_REQUIRED_FIELD"
	ErrorCodeInvalidFormat    ErrorCode = "INVALID_FORMAT"
	ErrorCodeValidationFailed ErrorCode = "VALIDATION_FAILED"
)

// Authentication
const (
	ErrorCodeUnauthorized       ErrorCode = "UNAUTHORIZED"
	ErrorCodeForbidden          ErrorCode = "FORBIDDEN"
	ErrorCodeInvalidCredentials ErrorCode = "INVALID_CREDENTIALS"
	ErrorCodeSessionExpired     ErrorCode = "SESSION_EXPIRED"
)

// Domain state and infrastructure
const (
	// ErrorCodeInvalidState rejects a transition the record's lifecycle does not allow
	ErrorCodeInvalidState       ErrorCode = "INVALID_STATE"
	ErrorCodeServiceUnavailable ErrorCode = "SERVICE_UNAVAILABLE"
	ErrorCodeTimeout            ErrorCode = "REQUEST_TIMEOUT"
	ErrorCodeInternalError      ErrorCode = "INTERNAL_SERVER_ERROR"
)

// SeverityLevel drives the log level used when an error is reported
type SeverityLevel string

// Severity levels, lowest first
const (
	SeverityInfo  SeverityLevel = "info"
	SeverityWarn  SeverityLevel = "warn"
	SeverityError SeverityLevel = "error"
	SeverityFatal SeverityLevel = "fatal"
)

// AppError represents a structured error with code, severity, and context
type AppError struct {
	Code     ErrorCode
	Severity SeverityLevel
	Message  string
	Details  string
	Cause    error
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s - %s", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause error
func (e *AppError) Unwrap() error {
	return e.Cause
}

// Is matches any AppError carrying the same code, so wrapped sentinels compare equal
func (e *AppError) Is(target error) bool {
	if appErr, ok := target.(*AppError); ok {
		return e.Code == appErr.Code
	}
	return false
}

func sentinel(code ErrorCode, severity SeverityLevel, message string) *AppError {
	return &AppError{Code: code, Severity: severity, Message: message}
}

// Sentinels for errors.Is comparisons and wrapping
var (
	ErrDatabaseConnection = sentinel(ErrorCodeDatabaseConnection, SeverityError, "Database connection failed")
	ErrDatabaseQuery      = sentinel(ErrorCodeDatabaseQuery, SeverityError, "Database query failed")
	ErrRecordNotFound     = sentinel(ErrorCodeRecordNotFound, SeverityInfo, "Record not found")
	ErrRecordExists       = sentinel(ErrorCodeRecordExists, SeverityInfo, "Record already exists")
	ErrInvalidInput       = sentinel(ErrorCodeInvalidInput, SeverityWarn, "Invalid input")
	ErrUnauthorized       = sentinel(ErrorCodeUnauthorized, SeverityWarn, "Unauthorized")
	ErrForbidden          = sentinel(ErrorCodeForbidden, SeverityWarn, "Forbidden")
	ErrInvalidCredentials = sentinel(ErrorCodeInvalidCredentials, SeverityWarn, "Invalid credentials")
	ErrSessionExpired     = sentinel(ErrorCodeSessionExpired, SeverityInfo, "Session expired")
	ErrInvalidState       = sentinel(ErrorCodeInvalidState, SeverityWarn, "Operation not allowed in the current state")
	ErrInternalError      = sentinel(ErrorCodeInternalError, SeverityError, "Internal server error")
)

// NewAppError creates a new AppError with the specified code, severity, message and details
func NewAppError(code ErrorCode, severity SeverityLevel, message, details string) *AppError {
	return &AppError{
		Code:     code,
		Severity: severity,
		Message:  message,
		Details:  details,
	}
}

// NewAppErrorWithCause creates a new AppError with an underlying cause
func NewAppErrorWithCause(code ErrorCode, severity SeverityLevel, message, details string, cause error) *AppError {
	e := NewAppError(code, severity, message, details)
	e.Cause = cause
	return e
}

// wrap keeps the code and severity of an AppError and downgrades anything else to an
// internal error. The original error text moves into Details.
func wrap(err error, message string, cause error) *AppError {
	code, severity := ErrorCodeInternalError, SeverityError
	if appErr, ok := err.(*AppError); ok {
		code, severity = appErr.Code, appErr.Severity
	}
	return &AppError{
		Code:     code,
		Severity: severity,
		Message:  message,
		Details:  err.Error(),
		Cause:    cause,
	}
}

// WrapError wraps an error with additional context, preserving AppError structure if possible
func WrapError(err error, context string) error {
	if err == nil {
		return nil
	}
	return wrap(err, context, err)
}

// WrapErrorf is WrapError with a format string. A %w verb in format makes the
// formatted error the cause, so errors.Is sees every wrapped operand.
func WrapErrorf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	if strings.Contains(format, "%w") {
		formatted := fmt.Errorf(format, args...)
		return wrap(err, formatted.Error(), formatted)
	}
	return wrap(err, fmt.Sprintf(format, args...), err)
}

// ErrorWithContextf creates a new internal error with a formatted message
func ErrorWithContextf(format string, args ...interface{}) error {
	return NewAppError(ErrorCodeInternalError, SeverityError, fmt.Sprintf(format, args...), "")
}

// IsError reports whether err carries the same code as target
func IsError(err error, target *AppError) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Code == target.Code
}

// AsError attempts to convert an error to an AppError
func AsError(err error, target **AppError) bool {
	return errors.As(err, target)
}

// GetErrorCode returns the code of the outermost AppError in err's chain, or INTERNAL_SERVER_ERROR
func GetErrorCode(err error) ErrorCode {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ErrorCodeInternalError
}

// GetErrorSeverity returns the severity of the outermost AppError in err's chain, or error
func GetErrorSeverity(err error) SeverityLevel {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Severity
	}
	return SeverityError
}

// IsRetryable reports whether a client could reasonably repeat the request.
// Only transient infrastructure failures qualify; fatal ones never do.
func IsRetryable(err error) bool {
	appErr, ok := err.(*AppError)
	if !ok || appErr.Severity == SeverityFatal {
		return false
	}
	switch appErr.Code {
	case ErrorCodeTimeout, ErrorCodeServiceUnavailable, ErrorCodeDatabaseConnection:
		return true
	}
	return false
}

// ToJSON renders the error body sent to API clients. The cause is only included for
// error and fatal severities.
func (e *AppError) ToJSON() map[string]interface{} {
	result := map[string]interface{}{
		"code":      string(e.Code),
		"message":   e.Message,
		"severity":  string(e.Severity),
		"retryable": IsRetryable(e),
	}
	if e.Details != "" {
		result["details"] = e.Details
	}
	if e.Cause != nil && (e.Severity == SeverityError || e.Severity == SeverityFatal) {
		result["cause"] = e.Cause.Error()
	}
	return result
}
