package errors

import (
	"errors"
	"fmt"
)

var (
	// Transaction errors
	ErrRejectedBusy           = errors.New("another transaction is awaiting a USSD response")
	ErrCapabilityUnavailable  = errors.New("ussd capability unavailable")
	ErrStaleCallback          = errors.New("callback does not match the in-flight transaction")
	ErrTransactionNotFound    = errors.New("no transaction in flight")
	ErrInvalidStateTransition = errors.New("invalid state transition")

	// Transport errors
	ErrTransportFailure = errors.New("ussd transport failure")
	ErrResponseTimeout  = errors.New("ussd response timed out")
	ErrDispatchFailure  = errors.New("sms dispatch failed")

	// Gateway errors
	ErrGatewayUnavailable = errors.New("device gateway unavailable")

	// Auth errors
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")

	// Validation errors
	ErrValidationFailed = errors.New("validation failed")
	ErrInvalidInput     = errors.New("invalid input")
)

// DomainError wraps errors with additional context
type DomainError struct {
	Code    string
	Message string
	Err     error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string, err error) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// ValidationError represents a validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed for field %s: %s", e.Field, e.Message)
}

// NewValidationError creates a new validation error
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: message,
	}
}
