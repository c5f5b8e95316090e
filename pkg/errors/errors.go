// Package errors provides structured error types for autowire.
//
// This package defines error codes and types that enable:
//   - Consistent error handling across the resolver, the introspector and the CLI
//   - Machine-readable error codes for programmatic handling
//   - Typed errors carrying the details of a failed resolution
//
// # Error Codes
//
// Error codes follow a hierarchical naming convention:
//   - INVALID_*: Input validation failures
//   - *_NOT_FOUND / LOOKUP_FAILED: Unknown types, methods or resources
//   - CIRCULAR_DEPENDENCY / MISSING_ARGUMENT: Resolution failures
//   - INTERNAL_*: Unexpected internal errors
//
// # Usage
//
//	err := errors.New(errors.ErrCodeInvalidInput, "invalid type id: %s", id)
//	if errors.Is(err, errors.ErrCodeInvalidInput) {
//	    // Handle validation error
//	}
//
//	var missing *errors.MissingArgumentError
//	if stderrors.As(err, &missing) {
//	    fmt.Println(missing.Param)
//	}
package errors

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Input validation errors
	ErrCodeInvalidInput    Code = "INVALID_INPUT"
	ErrCodeInvalidTypeID   Code = "INVALID_TYPE_ID"
	ErrCodeInvalidSelector Code = "INVALID_SELECTOR"
	ErrCodeInvalidExpiry   Code = "INVALID_EXPIRY"
	ErrCodeInvalidConfig   Code = "INVALID_CONFIG"

	// Resource not found errors
	ErrCodeNotFound     Code = "NOT_FOUND"
	ErrCodeLookupFailed Code = "LOOKUP_FAILED"

	// Resolution errors
	ErrCodeCircularDependency Code = "CIRCULAR_DEPENDENCY"
	ErrCodeMissingArgument    Code = "MISSING_ARGUMENT"
	ErrCodeInvocationFailed   Code = "INVOCATION_FAILED"

	// Network errors
	ErrCodeNetwork Code = "NETWORK_ERROR"
	ErrCodeTimeout Code = "TIMEOUT"

	// Internal errors
	ErrCodeInternal    Code = "INTERNAL_ERROR"
	ErrCodeUnsupported Code = "UNSUPPORTED"
)

// Coder is implemented by typed errors that carry an error code.
type Coder interface {
	Code() Code
}

// Error is a structured error with a code and optional cause.
type Error struct {
	Code    Code   // Machine-readable error code
	Message string // Human-readable message
	Cause   error  // Underlying error (optional)
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As compatibility.
func (e *Error) Unwrap() error {
	return e.Cause
}

// New creates a new Error with the given code and formatted message.
func New(code Code, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap creates a new Error wrapping an existing error.
func Wrap(code Code, cause error, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   cause,
	}
}

// Is reports whether err has the given error code.
// It unwraps the error chain looking for an *Error or a Coder with a matching
// code. The outermost coded error wins.
func Is(err error, code Code) bool {
	return GetCode(err) == code
}

// GetCode extracts the error code from an error, if available.
// Returns empty string if no error in the chain carries a code.
func GetCode(err error) Code {
	for err != nil {
		switch e := err.(type) {
		case *Error:
			return e.Code
		case Coder:
			return e.Code()
		}
		err = errors.Unwrap(err)
	}
	return ""
}

// UserMessage returns a user-friendly message for the error.
// For *Error types, returns the message without the code prefix.
// For other errors, returns the error string as-is.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}

// =============================================================================
// Resolution errors
// =============================================================================

// LookupError is returned when a type or one of its methods cannot be found
// during introspection.
type LookupError struct {
	TypeID string
	Method string // empty when the type itself is unknown
	Reason string
}

// Error implements the error interface.
func (e *LookupError) Error() string {
	target := e.TypeID
	if e.Method != "" {
		target += "::" + e.Method
	}
	if e.Reason == "" {
		return fmt.Sprintf("lookup %s: not found", target)
	}
	return fmt.Sprintf("lookup %s: %s", target, e.Reason)
}

// Code returns the error code for this error type.
func (e *LookupError) Code() Code { return ErrCodeLookupFailed }

// CircularDependencyError is returned when a type is requested while an
// earlier request for the same type is still being constructed.
type CircularDependencyError struct {
	TypeID string
	// InProgress is the in-progress marker table at the time of failure.
	InProgress map[string]bool
}

// Error implements the error interface.
func (e *CircularDependencyError) Error() string {
	return fmt.Sprintf("failed to create an instance of %s due to a circular dependency (in progress: %s)",
		e.TypeID, strings.Join(e.Stack(), ", "))
}

// Code returns the error code for this error type.
func (e *CircularDependencyError) Code() Code { return ErrCodeCircularDependency }

// Stack returns the sorted ids currently marked as in progress.
func (e *CircularDependencyError) Stack() []string {
	var ids []string
	for id, active := range e.InProgress {
		if active {
			ids = append(ids, id)
		}
	}
	slices.Sort(ids)
	return ids
}

// MissingArgumentError is returned when a required parameter has no override,
// no resolvable related type and no default value.
type MissingArgumentError struct {
	TypeID       string
	Method       string
	Param        string
	DeclaredType string
}

// Error implements the error interface.
func (e *MissingArgumentError) Error() string {
	return fmt.Sprintf("unable to resolve %s::%s because argument %q of type %q was not provided and it has no default value",
		e.TypeID, e.Method, e.Param, e.DeclaredType)
}

// Code returns the error code for this error type.
func (e *MissingArgumentError) Code() Code { return ErrCodeMissingArgument }

// InvalidExpiryError is returned when a cache item expiry is set to a value
// that is neither a point in time nor nil.
type InvalidExpiryError struct {
	Value any
}

// Error implements the error interface.
func (e *InvalidExpiryError) Error() string {
	return fmt.Sprintf("expires at must be a time.Time or nil, got %T", e.Value)
}

// Code returns the error code for this error type.
func (e *InvalidExpiryError) Code() Code { return ErrCodeInvalidExpiry }

// InvocationError wraps a failure raised by the underlying call mechanism,
// such as a panic inside a constructor or an argument of the wrong type.
type InvocationError struct {
	Target string
	Cause  error
}

// Error implements the error interface.
func (e *InvocationError) Error() string {
	return fmt.Sprintf("invoke %s: %v", e.Target, e.Cause)
}

// Unwrap returns the underlying cause.
func (e *InvocationError) Unwrap() error { return e.Cause }

// Code returns the error code for this error type.
func (e *InvocationError) Code() Code { return ErrCodeInvocationFailed }
