package domain

import (
	"errors"
	"fmt"
)

// ErrorCode represents a semantic classification shared across transport layers.
type ErrorCode string

const (
	ErrCodeNotFound     ErrorCode = "NOT_FOUND"
	ErrCodeInvalid      ErrorCode = "INVALID"
	ErrCodeConflict     ErrorCode = "CONFLICT"
	ErrCodeForbidden    ErrorCode = "FORBIDDEN"
	ErrCodeUnauthorized ErrorCode = "UNAUTHORIZED"
	ErrCodeUnavailable  ErrorCode = "UNAVAILABLE"
	ErrCodeInactive     ErrorCode = "INACTIVE_ACCOUNT"
	ErrCodeInternal     ErrorCode = "INTERNAL"
)

// Error represents a domain-level error.
type Error struct {
	Code    ErrorCode
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Is lets wrapped copies of a sentinel match the sentinel itself.
func (e *Error) Is(target error) bool {
	var dErr *Error
	if !errors.As(target, &dErr) {
		return false
	}
	return e != nil && dErr != nil && e.Code == dErr.Code && e.Message == dErr.Message
}

// NewError builds a domain error.
func NewError(code ErrorCode, message string) *Error {
	return &Error{Code: code, Message: message}
}

// WrapError wraps an existing error with a domain classification.
func WrapError(code ErrorCode, message string, err error) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Common domain errors.
var (
	ErrUserNotFound        = NewError(ErrCodeNotFound, "user not found")
	ErrPatientNotFound     = NewError(ErrCodeNotFound, "patient not found")
	ErrAppointmentNotFound = NewError(ErrCodeNotFound, "appointment not found")
	ErrUnauthorized        = NewError(ErrCodeUnauthorized, "unauthorized")
	ErrInvalidCredentials  = NewError(ErrCodeUnauthorized, "invalid email or password")
	ErrServiceUnavailable  = NewError(ErrCodeUnavailable, "authentication service unavailable")
	ErrInactiveAccount     = NewError(ErrCodeInactive, "account is deactivated")
	ErrInvalidPayload      = NewError(ErrCodeInvalid, "invalid payload")
	ErrInvalidTransition   = NewError(ErrCodeConflict, "appointment status transition not allowed")
)

// IsDomainError helps checking error codes.
func IsDomainError(err error, code ErrorCode) bool {
	var dErr *Error
	if errors.As(err, &dErr) {
		return dErr.Code == code
	}
	return false
}
