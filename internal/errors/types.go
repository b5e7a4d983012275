// Package errors provides the structured error type used across dxcwatch and
// a parser for DXC compiler diagnostics.
//
// Errors carry a category (ErrorType), a stable code and the path they refer
// to. errors.Is on two *Error values compares type and code, so callers can
// match against the sentinel values exported here.
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorType represents different categories of errors.
type ErrorType string

const (
	ErrorTypeWatch      ErrorType = "watch"
	ErrorTypeIO         ErrorType = "io"
	ErrorTypeParse      ErrorType = "parse"
	ErrorTypeBuild      ErrorType = "build"
	ErrorTypeConfig     ErrorType = "config"
	ErrorTypeValidation ErrorType = "validation"
	ErrorTypeInternal   ErrorType = "internal"
)

// Common error codes.
const (
	CodeNotFound           = "NOT_FOUND"
	CodeNotDirectory       = "NOT_DIRECTORY"
	CodeWatchCreateFailed  = "WATCH_CREATE_FAILED"
	CodeWatchLimit         = "WATCH_LIMIT"
	CodeBackendUnsupported = "BACKEND_UNSUPPORTED"
	CodeRegistryClosed     = "REGISTRY_CLOSED"
	CodeNotifierClosed     = "NOTIFIER_CLOSED"
	CodeEventOverflow      = "EVENT_OVERFLOW"
	CodeShaderlistRead     = "SHADERLIST_READ"
	CodeShaderlistSyntax   = "SHADERLIST_SYNTAX"
	CodeInvalidEntry       = "INVALID_ENTRY"
	CodeInvalidTarget      = "INVALID_TARGET"
	CodeCompileFailed      = "COMPILE_FAILED"
	CodeCompilerMissing    = "COMPILER_MISSING"
	CodeWriteFailed        = "WRITE_FAILED"
	CodeConfigInvalid      = "CONFIG_INVALID"
	CodeInvalidArgument    = "INVALID_ARGUMENT"
)

// Error is a structured error type with context.
type Error struct {
	Type    ErrorType
	Code    string
	Message string
	Path    string
	Hint    string
	Cause   error
}

// Error implements the error interface.
func (e *Error) Error() string {
	var parts []string

	if e.Code != "" {
		parts = append(parts, fmt.Sprintf("[%s]", e.Code))
	}
	if e.Path != "" {
		parts = append(parts, e.Path+":")
	}
	parts = append(parts, e.Message)

	result := strings.Join(parts, " ")
	if e.Cause != nil {
		result += fmt.Sprintf(": %v", e.Cause)
	}
	return result
}

// Unwrap returns the underlying cause error.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target is an *Error with the same type and code.
func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return e.Type == t.Type && e.Code == t.Code
	}
	return false
}

// WithPath sets the path the error refers to.
func (e *Error) WithPath(path string) *Error {
	e.Path = path
	return e
}

// WithHint attaches an operator-facing remediation hint.
func (e *Error) WithHint(hint string) *Error {
	e.Hint = hint
	return e
}

// New creates an error of the given type.
func New(errType ErrorType, code, message string, cause error) *Error {
	return &Error{Type: errType, Code: code, Message: message, Cause: cause}
}

// NewWatchError creates an error for a path that cannot be watched.
func NewWatchError(code, message string, cause error) *Error {
	return New(ErrorTypeWatch, code, message, cause)
}

// NewIOError creates an I/O error.
func NewIOError(code, message string, cause error) *Error {
	return New(ErrorTypeIO, code, message, cause)
}

// NewParseError creates a shaderlist parse error.
func NewParseError(code, message string, cause error) *Error {
	return New(ErrorTypeParse, code, message, cause)
}

// NewBuildError creates a compile error.
func NewBuildError(code, message string, cause error) *Error {
	return New(ErrorTypeBuild, code, message, cause)
}

// NewConfigError creates a configuration error.
func NewConfigError(code, message string) *Error {
	return New(ErrorTypeConfig, code, message, nil)
}

// NewValidationError creates a validation error.
func NewValidationError(code, message string) *Error {
	return New(ErrorTypeValidation, code, message, nil)
}

// Sentinels usable with errors.Is.
var (
	ErrNotFound           = &Error{Type: ErrorTypeWatch, Code: CodeNotFound}
	ErrWatchCreateFailed  = &Error{Type: ErrorTypeWatch, Code: CodeWatchCreateFailed}
	ErrWatchLimit         = &Error{Type: ErrorTypeWatch, Code: CodeWatchLimit}
	ErrBackendUnsupported = &Error{Type: ErrorTypeWatch, Code: CodeBackendUnsupported}
	ErrRegistryClosed     = &Error{Type: ErrorTypeWatch, Code: CodeRegistryClosed}
	ErrCompileFailed      = &Error{Type: ErrorTypeBuild, Code: CodeCompileFailed}
	ErrConfigInvalid      = &Error{Type: ErrorTypeConfig, Code: CodeConfigInvalid}
)

// TypeOf returns the ErrorType of err, or "" when err is not an *Error.
func TypeOf(err error) ErrorType {
	var e *Error
	if errors.As(err, &e) {
		return e.Type
	}
	return ""
}

// HintOf returns the first hint found in err's chain.
func HintOf(err error) string {
	for err != nil {
		var e *Error
		if !errors.As(err, &e) {
			return ""
		}
		if e.Hint != "" {
			return e.Hint
		}
		err = e.Cause
	}
	return ""
}

// Is, As and Join re-export the standard helpers so callers need a single import.
var (
	Is   = errors.Is
	As   = errors.As
	Join = errors.Join
)
