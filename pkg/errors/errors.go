// Package errors provides structured error types for seqrender.
//
// This package defines error codes and types that enable:
//   - Machine-readable error codes for tests and the HTTP API
//   - A captured call stack for the top-level crash report
//   - Error wrapping with context preservation
//
// # Usage
//
//	err := errors.New(errors.ErrCodeMissingDimension, "svg root has no width attribute")
//	if errors.Is(err, errors.ErrCodeMissingDimension) {
//	    // Handle missing dimension
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeParse, origErr, "parse rendered svg for %s", name)
//
// The CLI never recovers from these errors: they travel up to a single
// boundary in main, which prints them with [Report] and exits non-zero.
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Input validation errors
	ErrCodeInvalidInput Code = "INVALID_INPUT"
	ErrCodeInvalidPath  Code = "INVALID_PATH"
	ErrCodeFileNotFound Code = "FILE_NOT_FOUND"

	// Pipeline stage errors
	ErrCodeParse            Code = "PARSE"
	ErrCodeRender           Code = "RENDER"
	ErrCodeRasterize        Code = "RASTERIZE"
	ErrCodeMissingDimension Code = "MISSING_DIMENSION"
	ErrCodeWrite            Code = "WRITE"

	// Internal errors
	ErrCodeInternal Code = "INTERNAL_ERROR"
)

// Error is a structured error with a code, an optional cause and the stack
// at the point it was created.
type Error struct {
	Code    Code   // Machine-readable error code
	Message string // Human-readable message
	Cause   error  // Underlying error (optional)

	stack []uintptr
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
		stack:   callers(3),
	}
}

// Wrap creates a new Error wrapping an existing error.
func Wrap(code Code, cause error, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   cause,
		stack:   callers(3),
	}
}

// Is reports whether err has the given error code.
// It unwraps the error chain looking for an *Error with a matching code.
func Is(err error, code Code) bool {
	for err != nil {
		var e *Error
		if !errors.As(err, &e) {
			return false
		}
		if e.Code == code {
			return true
		}
		err = e.Cause
	}
	return false
}

// GetCode extracts the error code from an error, if available.
// Returns empty string if the error is not an *Error.
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// UserMessage returns a user-friendly message for the error.
// For *Error types, returns the message without the code prefix.
// For other errors, returns the error string as-is.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		if e.Cause != nil {
			return e.Message + ": " + UserMessage(e.Cause)
		}
		return e.Message
	}
	return err.Error()
}
