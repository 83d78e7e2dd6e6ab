package types

import (
	"errors"
	"fmt"
)

// ErrorType represents different categories of errors
type ErrorType string

const (
	ErrorTypeValidation     ErrorType = "validation"
	ErrorTypeNotFound       ErrorType = "not_found"
	ErrorTypeConflict       ErrorType = "conflict"
	ErrorTypeFormat         ErrorType = "format"
	ErrorTypeAuthentication ErrorType = "authentication"
	ErrorTypeAuthorization  ErrorType = "authorization"
	ErrorTypeRateLimited    ErrorType = "rate_limited"
	ErrorTypeInternal       ErrorType = "internal"
)

// ClinicError represents a structured error raised by the clinic services
type ClinicError struct {
	Type    ErrorType              `json:"type"`
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
	Cause   error                  `json:"-"`
}

// Error implements the error interface
func (e *ClinicError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause error
func (e *ClinicError) Unwrap() error {
	return e.Cause
}

// NewValidationError creates a new validation error
func NewValidationError(code, message string, details map[string]interface{}) *ClinicError {
	return &ClinicError{
		Type:    ErrorTypeValidation,
		Code:    code,
		Message: message,
		Details: details,
	}
}

// NewNotFoundError creates a new not found error
func NewNotFoundError(code, message string) *ClinicError {
	return &ClinicError{
		Type:    ErrorTypeNotFound,
		Code:    code,
		Message: message,
	}
}

// NewConflictError creates a new conflict error
func NewConflictError(code, message string, details map[string]interface{}) *ClinicError {
	return &ClinicError{
		Type:    ErrorTypeConflict,
		Code:    code,
		Message: message,
		Details: details,
	}
}

// NewFormatError creates a new format error for unreadable documents
func NewFormatError(code, message string, cause error) *ClinicError {
	return &ClinicError{
		Type:    ErrorTypeFormat,
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// NewAuthenticationError creates a new authentication error
func NewAuthenticationError(code, message string) *ClinicError {
	return &ClinicError{
		Type:    ErrorTypeAuthentication,
		Code:    code,
		Message: message,
	}
}

// NewAuthorizationError creates a new authorization error
func NewAuthorizationError(code, message string) *ClinicError {
	return &ClinicError{
		Type:    ErrorTypeAuthorization,
		Code:    code,
		Message: message,
	}
}

// NewRateLimitedError creates an error for a caller that must wait
func NewRateLimitedError(code, message string) *ClinicError {
	return &ClinicError{
		Type:    ErrorTypeRateLimited,
		Code:    code,
		Message: message,
	}
}

// NewInternalError creates a new internal error
func NewInternalError(code, message string, cause error) *ClinicError {
	return &ClinicError{
		Type:    ErrorTypeInternal,
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// ErrorTypeOf returns the type of the first ClinicError in err's chain.
// Anything else is internal.
func ErrorTypeOf(err error) ErrorType {
	var ce *ClinicError
	if errors.As(err, &ce) {
		return ce.Type
	}
	return ErrorTypeInternal
}

// IsType reports whether err carries a ClinicError of the given type
func IsType(err error, t ErrorType) bool {
	if err == nil {
		return false
	}
	return ErrorTypeOf(err) == t
}

// Common error codes
const (
	ErrCodeInvalidInput         = "INVALID_INPUT"
	ErrCodeValidationFailed     = "VALIDATION_FAILED"
	ErrCodeNotFound             = "NOT_FOUND"
	ErrCodeInvalidTransition    = "INVALID_TRANSITION"
	ErrCodeDuplicate            = "DUPLICATE"
	ErrCodeLastAdmin            = "LAST_ADMIN"
	ErrCodeMalformedBackup      = "MALFORMED_BACKUP"
	ErrCodeUnauthorized         = "UNAUTHORIZED"
	ErrCodeForbidden            = "FORBIDDEN"
	ErrCodeAuthenticationFailed = "AUTHENTICATION_FAILED"
	ErrCodeTooManyAttempts      = "TOO_MANY_ATTEMPTS"
	ErrCodePersistenceFailed    = "PERSISTENCE_FAILED"
	ErrCodeInternalError        = "INTERNAL_ERROR"
)
