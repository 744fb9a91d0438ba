package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// FieldError describes a single invalid request field
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// AppError represents an application error with HTTP status code
type AppError struct {
	Code    string       `json:"code"`
	Message string       `json:"message"`
	Status  int          `json:"-"`
	Fields  []FieldError `json:"fields,omitempty"`
	Err     error        `json:"-"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped error
func (e *AppError) Unwrap() error {
	return e.Err
}

// WithField appends a field-level validation message
func (e *AppError) WithField(field, message string) *AppError {
	e.Fields = append(e.Fields, FieldError{Field: field, Message: message})
	return e
}

// Common error constructors

// Validation creates a 400 error carrying per-field messages
func Validation(message string, fields ...FieldError) *AppError {
	return &AppError{
		Code:    "VALIDATION_ERROR",
		Message: message,
		Status:  http.StatusBadRequest,
		Fields:  fields,
	}
}

// InvalidState creates a 400 error for a lifecycle precondition violation
func InvalidState(message string) *AppError {
	return &AppError{
		Code:    "INVALID_STATE",
		Message: message,
		Status:  http.StatusBadRequest,
	}
}

// BadRequest creates a 400 error
func BadRequest(message string, err error) *AppError {
	return &AppError{
		Code:    "BAD_REQUEST",
		Message: message,
		Status:  http.StatusBadRequest,
		Err:     err,
	}
}

// Unauthorized creates a 401 error
func Unauthorized(message string, err error) *AppError {
	return &AppError{
		Code:    "UNAUTHORIZED",
		Message: message,
		Status:  http.StatusUnauthorized,
		Err:     err,
	}
}

// Forbidden creates a 403 error
func Forbidden(message string, err error) *AppError {
	return &AppError{
		Code:    "FORBIDDEN",
		Message: message,
		Status:  http.StatusForbidden,
		Err:     err,
	}
}

// NotFound creates a 404 error
func NotFound(message string, err error) *AppError {
	return &AppError{
		Code:    "NOT_FOUND",
		Message: message,
		Status:  http.StatusNotFound,
		Err:     err,
	}
}

// Conflict creates a 409 error
func Conflict(message string, err error) *AppError {
	return &AppError{
		Code:    "CONFLICT",
		Message: message,
		Status:  http.StatusConflict,
		Err:     err,
	}
}

// Internal creates a 500 error
func Internal(message string, err error) *AppError {
	return &AppError{
		Code:    "INTERNAL_ERROR",
		Message: message,
		Status:  http.StatusInternalServerError,
		Err:     err,
	}
}

// Domain-specific errors

var (
	ErrUserNotFound = NotFound("User not found", nil)
	ErrRideNotFound = NotFound("Ride not found", nil)

	ErrInvalidCredentials = Unauthorized("Invalid email or password", nil)
	ErrTokenExpired       = Unauthorized("Token is expired", nil)
	ErrAccountInactive    = Unauthorized("Account is deactivated", nil)
	ErrAdminOnly          = Forbidden("Admin access required", nil)
	ErrNotRideOwner       = Forbidden("You do not have access to this ride", nil)

	ErrDuplicateEmail      = Conflict("Email is already registered", nil)
	ErrDuplicateEmployeeID = Conflict("Employee ID is already registered", nil)

	ErrRideNotPending     = InvalidState("Only pending rides can be modified")
	ErrRideNotCancellable = InvalidState("Only pending or approved rides can be cancelled")
	ErrRideNotCompleted   = InvalidState("Feedback can only be added to completed rides")
)

// IsAppError checks if an error is an AppError
func IsAppError(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr)
}

// GetAppError attempts to convert an error to AppError
func GetAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	// Return generic internal error if not an AppError
	return Internal("An unexpected error occurred", err)
}

// Wrap wraps an error with additional context
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}
