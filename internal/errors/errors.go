// Package errors provides typed errors for the language server: an Error
// carrying a category, a machine-readable code and an optional cause, plus
// a registry of the codes the server produces.
package errors

import (
	"errors"
	"fmt"
	"maps"
)

// ErrorType represents the category of an error for machine-readable classification.
type ErrorType int

const (
	// ErrorTypeUnknown is the default error type for unclassified errors.
	ErrorTypeUnknown ErrorType = iota
	// ErrorTypeValidation covers invalid arguments and settings.
	ErrorTypeValidation
	// ErrorTypeConfig covers missing or malformed configuration.
	ErrorTypeConfig
	// ErrorTypeConnection covers dialing and transport failures.
	ErrorTypeConnection
	// ErrorTypeAuth covers Home Assistant authentication failures.
	ErrorTypeAuth
	// ErrorTypeProtocol covers unsuccessful Home Assistant results.
	ErrorTypeProtocol
	// ErrorTypeDocument covers documents that cannot be resolved.
	ErrorTypeDocument
	// ErrorTypeInternal covers internal/unexpected errors.
	ErrorTypeInternal
)

var errorTypeNames = map[ErrorType]string{
	ErrorTypeUnknown:    "unknown",
	ErrorTypeValidation: "validation",
	ErrorTypeConfig:     "config",
	ErrorTypeConnection: "connection",
	ErrorTypeAuth:       "auth",
	ErrorTypeProtocol:   "protocol",
	ErrorTypeDocument:   "document",
	ErrorTypeInternal:   "internal",
}

// String returns the string representation of the error type.
func (t ErrorType) String() string {
	if name, ok := errorTypeNames[t]; ok {
		return name
	}
	return "unknown"
}

// Error represents a typed error with additional context.
type Error struct {
	// Type is the category of the error.
	Type ErrorType
	// Code is an optional machine-readable error code (e.g., "auth_failed").
	Code string
	// Message is the human-readable error message.
	Message string
	// Path locates the error, e.g. a document URI or a setting name.
	Path string
	// Cause is the underlying error, if any.
	Cause error
	// Details contains additional context about the error.
	Details map[string]any
}

// Error implements the error interface.
func (e *Error) Error() string {
	var prefix string
	if e.Code != "" {
		prefix = fmt.Sprintf("[%s] ", e.Code)
	}
	if e.Path != "" {
		if e.Cause != nil {
			return fmt.Sprintf("%s%s: %s: %v", prefix, e.Path, e.Message, e.Cause)
		}
		return fmt.Sprintf("%s%s: %s", prefix, e.Path, e.Message)
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s%s: %v", prefix, e.Message, e.Cause)
	}
	return prefix + e.Message
}

// Unwrap returns the underlying cause of the error.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is matches another *Error with the same Type and, when both set one, the same Code.
func (e *Error) Is(target error) bool {
	var targetErr *Error
	if !errors.As(target, &targetErr) {
		return false
	}
	if e.Type != targetErr.Type {
		return false
	}
	if e.Code != "" && targetErr.Code != "" {
		return e.Code == targetErr.Code
	}
	return true
}

// WithDetails returns a copy of the error with additional details.
func (e *Error) WithDetails(details map[string]any) *Error {
	newErr := *e
	newErr.Details = make(map[string]any, len(e.Details)+len(details))
	maps.Copy(newErr.Details, e.Details)
	maps.Copy(newErr.Details, details)
	return &newErr
}

// WithCause returns a copy of the error with the specified cause.
func (e *Error) WithCause(cause error) *Error {
	newErr := *e
	newErr.Cause = cause
	return &newErr
}

// WithPath returns a copy of the error with the specified path.
func (e *Error) WithPath(path string) *Error {
	newErr := *e
	newErr.Path = path
	return &newErr
}

// WithMessagef returns a copy of the error with a formatted message.
func (e *Error) WithMessagef(format string, args ...any) *Error {
	newErr := *e
	newErr.Message = fmt.Sprintf(format, args...)
	return &newErr
}

// New creates a new Error with the specified type and message.
func New(errType ErrorType, message string) *Error {
	return &Error{
		Type:    errType,
		Message: message,
		Details: make(map[string]any),
	}
}

// Wrap wraps an existing error with a typed Error.
func Wrap(errType ErrorType, cause error, message string) *Error {
	return &Error{
		Type:    errType,
		Message: message,
		Cause:   cause,
		Details: make(map[string]any),
	}
}

// GetType extracts the ErrorType from an error.
// Returns ErrorTypeUnknown if the error is not an *Error.
func GetType(err error) ErrorType {
	var typedErr *Error
	if errors.As(err, &typedErr) {
		return typedErr.Type
	}
	return ErrorTypeUnknown
}

// GetCode extracts the error code from an error.
func GetCode(err error) string {
	var typedErr *Error
	if errors.As(err, &typedErr) {
		return typedErr.Code
	}
	return ""
}

// IsType checks if an error is of a specific ErrorType.
func IsType(err error, errType ErrorType) bool {
	return GetType(err) == errType
}
