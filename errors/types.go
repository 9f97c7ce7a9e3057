package errors

import (
	"fmt"
)

// ErrorCode represents different categories of errors
type ErrorCode string

const (
	// ErrCodeUnauthorized indicates the caller lacks a required capability
	ErrCodeUnauthorized ErrorCode = "UNAUTHORIZED"

	// ErrCodeNotOperational indicates the global operational halt is engaged
	ErrCodeNotOperational ErrorCode = "NOT_OPERATIONAL"

	// ErrCodeAirlineNotEligible indicates an unfunded or unregistered airline
	// attempting a gated action
	ErrCodeAirlineNotEligible ErrorCode = "AIRLINE_NOT_ELIGIBLE"

	// ErrCodeFlightNotFound indicates an operation against an unknown flight key
	ErrCodeFlightNotFound ErrorCode = "FLIGHT_NOT_FOUND"

	// ErrCodeInvalidIndex indicates an oracle submission on an unassigned index
	ErrCodeInvalidIndex ErrorCode = "INVALID_INDEX"

	// ErrCodeAlreadyFinalized indicates a submission or open on a finalized
	// request. Informational; callers treat it as a no-op, not a failure.
	ErrCodeAlreadyFinalized ErrorCode = "ALREADY_FINALIZED"

	// ErrCodeValidation indicates input validation errors
	ErrCodeValidation ErrorCode = "VALIDATION"

	// ErrCodeDatabase indicates database operation errors
	ErrCodeDatabase ErrorCode = "DATABASE"

	// ErrCodeConfig indicates configuration errors
	ErrCodeConfig ErrorCode = "CONFIG"

	// ErrCodeInternal indicates internal system errors
	ErrCodeInternal ErrorCode = "INTERNAL"
)

// LedgerError represents an error raised by the insurance ledger or the
// oracle reconciler. All errors are local and non-retryable by the core
// itself; the caller decides whether to retry.
type LedgerError struct {
	Code    ErrorCode              `json:"code"`
	Message string                 `json:"message"`
	Cause   error                  `json:"-"`
	Context map[string]interface{} `json:"context,omitempty"`
}

// NewLedgerError creates a new LedgerError
func NewLedgerError(code ErrorCode, message string, cause error) *LedgerError {
	return &LedgerError{
		Code:    code,
		Message: message,
		Cause:   cause,
		Context: make(map[string]interface{}),
	}
}

// Error implements the error interface
func (e *LedgerError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause
func (e *LedgerError) Unwrap() error {
	return e.Cause
}

// WithContext adds context to the error
func (e *LedgerError) WithContext(key string, value interface{}) *LedgerError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// Common error constructors

// NewUnauthorizedError creates an authorization error
func NewUnauthorizedError(message string) *LedgerError {
	return NewLedgerError(ErrCodeUnauthorized, message, nil)
}

// NewNotOperationalError creates an operational-halt error
func NewNotOperationalError(message string) *LedgerError {
	return NewLedgerError(ErrCodeNotOperational, message, nil)
}

// NewAirlineNotEligibleError creates an airline eligibility error
func NewAirlineNotEligibleError(message string) *LedgerError {
	return NewLedgerError(ErrCodeAirlineNotEligible, message, nil)
}

// NewFlightNotFoundError creates a missing-flight error
func NewFlightNotFoundError(message string) *LedgerError {
	return NewLedgerError(ErrCodeFlightNotFound, message, nil)
}

// NewInvalidIndexError creates an oracle index error
func NewInvalidIndexError(message string) *LedgerError {
	return NewLedgerError(ErrCodeInvalidIndex, message, nil)
}

// NewAlreadyFinalizedError creates a finalization no-op error
func NewAlreadyFinalizedError(message string) *LedgerError {
	return NewLedgerError(ErrCodeAlreadyFinalized, message, nil)
}

// NewValidationError creates a validation error
func NewValidationError(message string) *LedgerError {
	return NewLedgerError(ErrCodeValidation, message, nil)
}

// NewDatabaseError creates a database error
func NewDatabaseError(message string, cause error) *LedgerError {
	return NewLedgerError(ErrCodeDatabase, message, cause)
}

// NewConfigError creates a configuration error
func NewConfigError(message string) *LedgerError {
	return NewLedgerError(ErrCodeConfig, message, nil)
}

// NewInternalError creates an internal error
func NewInternalError(message string, cause error) *LedgerError {
	return NewLedgerError(ErrCodeInternal, message, cause)
}
