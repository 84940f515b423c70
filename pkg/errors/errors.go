package errors

import (
	"errors"
	"fmt"
)

// ErrorType represents the outcome categories a request can fail with
type ErrorType string

const (
	ErrorTypeInvalidInput    ErrorType = "invalid_input"
	ErrorTypeFetchFailed     ErrorType = "fetch_failed"
	ErrorTypeToolUnavailable ErrorType = "tool_unavailable"
	ErrorTypePersistFailed   ErrorType = "persist_failed"
	ErrorTypeCleanupFailed   ErrorType = "cleanup_failed"
	ErrorTypeUnknown         ErrorType = "unknown"
)

// Error represents a pipeline or credential error with type information
type Error struct {
	Type    ErrorType
	Message string
	Err     error

	// Authenticated is set on fetch failures that happened with a
	// credential file supplied.
	Authenticated bool
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s error: %s: %v", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("%s error: %s", e.Type, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New creates an Error of the given type
func New(errorType ErrorType, message string) *Error {
	return &Error{Type: errorType, Message: message}
}

// Wrap creates an Error of the given type around a cause
func Wrap(errorType ErrorType, message string, err error) *Error {
	return &Error{Type: errorType, Message: message, Err: err}
}

// TypeOf returns the ErrorType of err, or ErrorTypeUnknown
func TypeOf(err error) ErrorType {
	var e *Error
	if errors.As(err, &e) {
		return e.Type
	}
	return ErrorTypeUnknown
}

// IsType reports whether err carries the given ErrorType
func IsType(err error, errorType ErrorType) bool {
	return err != nil && TypeOf(err) == errorType
}

// IsRecoverable reports whether an error type is reported back to the
// requester rather than treated as an unexpected failure
func IsRecoverable(errorType ErrorType) bool {
	switch errorType {
	case ErrorTypeInvalidInput, ErrorTypeFetchFailed, ErrorTypeToolUnavailable, ErrorTypePersistFailed:
		return true
	default:
		return false
	}
}
