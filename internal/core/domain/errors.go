package domain

import (
	"errors"
	"fmt"
)

// DomainError represents a business domain error with a structured error code.
type DomainError struct {
	Code    string // Error code (e.g., "ST-AUTH-4010")
	Message string // Human-readable message
	Details string // Optional additional details
	Cause   error  // Underlying error (if any)
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("[%s] %s: %s", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error for errors.Unwrap() support.
func (e *DomainError) Unwrap() error {
	return e.Cause
}

// Is implements errors.Is() support. Two domain errors match when their codes match.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// NewDomainError creates a new DomainError with the given code and message.
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// WithDetails returns a copy of the error with additional details.
func (e *DomainError) WithDetails(details string) *DomainError {
	return &DomainError{
		Code:    e.Code,
		Message: e.Message,
		Details: details,
		Cause:   e.Cause,
	}
}

// WithCause returns a copy of the error wrapping the given cause.
func (e *DomainError) WithCause(cause error) *DomainError {
	return &DomainError{
		Code:    e.Code,
		Message: e.Message,
		Details: e.Details,
		Cause:   cause,
	}
}

// IsDomainError checks if an error is a DomainError with the given code.
// If code is empty, it only checks if the error is a DomainError.
func IsDomainError(err error, code string) bool {
	var de *DomainError
	if errors.As(err, &de) {
		if code == "" {
			return true
		}
		return de.Code == code
	}
	return false
}

// GetErrorCode extracts the error code from an error if it's a DomainError.
func GetErrorCode(err error) string {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code
	}
	return ""
}

// ============================================================================
// Authentication Errors (AUTH)
// ============================================================================

var (
	// ErrNotAuthenticated indicates no user is signed in.
	ErrNotAuthenticated = NewDomainError("ST-AUTH-4010", "user not authenticated")

	// ErrInvalidCredentials indicates the backend rejected the email/password pair.
	ErrInvalidCredentials = NewDomainError("ST-AUTH-4011", "invalid login credentials")

	// ErrAlreadyRegistered indicates the email already has an account.
	ErrAlreadyRegistered = NewDomainError("ST-AUTH-4090", "email already registered")
)

// ============================================================================
// Argument Errors (ARG)
// ============================================================================

var (
	// ErrInvalidEmail indicates the email is not well formed.
	ErrInvalidEmail = NewDomainError("ST-ARG-1001", "email format is invalid")

	// ErrMissingArgument indicates a required argument is missing.
	ErrMissingArgument = NewDomainError("ST-ARG-1002", "missing required argument")

	// ErrInvalidArgument indicates an argument failed validation.
	ErrInvalidArgument = NewDomainError("ST-ARG-1003", "invalid argument")
)

// ============================================================================
// System and Connectivity Errors (SYS, NET)
// ============================================================================

var (
	// ErrNotConfigured indicates the backend client is missing or unconfigured.
	ErrNotConfigured = NewDomainError("ST-SYS-5030", "backend not configured")

	// ErrOffline indicates the network is unavailable. Writes that fail with
	// this error have been queued for replay.
	ErrOffline = NewDomainError("ST-NET-5031", "network unavailable")

	// ErrInternal indicates an unexpected local failure.
	ErrInternal = NewDomainError("ST-SYS-5000", "internal error")
)

// ============================================================================
// Backend Errors (BACK)
// ============================================================================

var (
	// ErrBackendRejected wraps an error reported by the backend.
	ErrBackendRejected = NewDomainError("ST-BACK-5020", "backend rejected the request")

	// ErrNotFound indicates the requested row does not exist.
	ErrNotFound = NewDomainError("ST-BACK-4040", "record not found")
)
