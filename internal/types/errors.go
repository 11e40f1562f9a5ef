package types

import (
	"errors"
	"fmt"
)

// ErrorCode represents a namespaced error code for EvacuTrace errors.
type ErrorCode string

// Configuration error codes. Configuration errors are fatal: they abort
// the run before any mission starts.
const (
	CONFIG_LOAD_FAILED       ErrorCode = "CONFIG_LOAD_FAILED"
	CONFIG_PARSE_FAILED      ErrorCode = "CONFIG_PARSE_FAILED"
	CONFIG_VALIDATION_FAILED ErrorCode = "CONFIG_VALIDATION_FAILED"
)

// Planning error codes. PLAN_NO_PATH is recovered per planning call by
// transitioning the affected agent to Stalled; it is never fatal to a mission.
const (
	PLAN_NO_PATH ErrorCode = "PLAN_NO_PATH"
)

// Knowledge store error codes. A store failure degrades the run to in-memory
// knowledge only; it never aborts a mission.
const (
	STORE_OPEN_FAILED      ErrorCode = "STORE_OPEN_FAILED"
	STORE_MIGRATION_FAILED ErrorCode = "STORE_MIGRATION_FAILED"
	STORE_QUERY_FAILED     ErrorCode = "STORE_QUERY_FAILED"
	STORE_UNAVAILABLE      ErrorCode = "STORE_UNAVAILABLE"
)

// Hazard error codes. A rejected hint falls back to default placement.
const (
	HAZARD_HINT_REJECTED ErrorCode = "HAZARD_HINT_REJECTED"
	HAZARD_UNKNOWN_KIND  ErrorCode = "HAZARD_UNKNOWN_KIND"
)

// TraceError represents a structured error with error code, message, and
// optional cause. It supports error wrapping and retryability hints.
type TraceError struct {
	Code      ErrorCode
	Message   string
	Retryable bool
	Cause     error
}

// Error implements the error interface, returning a formatted error message.
// Format: "[CODE] message" or "[CODE] message: cause" if cause exists.
func (e *TraceError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause error for error unwrapping chains.
func (e *TraceError) Unwrap() error {
	return e.Cause
}

// Is checks if the target error matches this error by error code.
// Returns true if target is a TraceError with the same Code.
func (e *TraceError) Is(target error) bool {
	var traceErr *TraceError
	if errors.As(target, &traceErr) {
		return e.Code == traceErr.Code
	}
	return false
}

// NewError creates a new non-retryable TraceError with the given code and message.
func NewError(code ErrorCode, message string) *TraceError {
	return &TraceError{
		Code:    code,
		Message: message,
	}
}

// NewRetryableError creates a new retryable TraceError with the given code
// and message. Use this for transient failures such as a busy store.
func NewRetryableError(code ErrorCode, message string) *TraceError {
	return &TraceError{
		Code:      code,
		Message:   message,
		Retryable: true,
	}
}

// WrapError creates a new non-retryable TraceError that wraps an existing error.
// The wrapped error is accessible via Unwrap() for error chain inspection.
func WrapError(code ErrorCode, message string, cause error) *TraceError {
	return &TraceError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// CodeOf extracts the ErrorCode from an error chain.
// Returns the empty string when the chain contains no TraceError.
func CodeOf(err error) ErrorCode {
	var traceErr *TraceError
	if errors.As(err, &traceErr) {
		return traceErr.Code
	}
	return ""
}
