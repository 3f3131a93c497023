package errors

import (
	stderrors "errors"
	"fmt"
)

// Category represents the type of error.
type Category string

const (
	CategoryRoute      Category = "route"
	CategoryNavigation Category = "navigation"
	CategoryHistory    Category = "history"
	CategoryTable      Category = "table"
	CategoryConfig     Category = "config"
	CategoryCLI        Category = "cli"
)

// WaypointError is a structured error with a stable code, detail and a hint.
type WaypointError struct {
	// Code is a unique error identifier (e.g., "W101").
	Code string

	// Category is the error type (route, navigation, etc.).
	Category Category

	// Message is a short description of the error.
	Message string

	// Detail is a longer explanation of this occurrence.
	Detail string

	// Suggestion is a hint on how to fix the error.
	Suggestion string

	// DocURL is a link to documentation about this error.
	DocURL string

	// Wrapped is the underlying error, if any.
	Wrapped error
}

// Error implements the error interface.
func (e *WaypointError) Error() string {
	msg := e.Message
	if e.Code != "" {
		msg = fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	if e.Detail != "" {
		msg += " (" + e.Detail + ")"
	}
	if e.Wrapped != nil {
		msg += ": " + e.Wrapped.Error()
	}
	return msg
}

// Unwrap returns the wrapped error for errors.Is/As support.
func (e *WaypointError) Unwrap() error {
	return e.Wrapped
}

// Is reports whether target is a WaypointError with the same code.
func (e *WaypointError) Is(target error) bool {
	t, ok := target.(*WaypointError)
	if !ok || t.Code == "" {
		return false
	}
	return e.Code == t.Code
}

// WithSuggestion adds a fix suggestion to the error.
func (e *WaypointError) WithSuggestion(s string) *WaypointError {
	e.Suggestion = s
	return e
}

// WithDetail adds a detailed explanation to the error.
func (e *WaypointError) WithDetail(d string) *WaypointError {
	e.Detail = d
	return e
}

// WithDetailf is WithDetail with formatting.
func (e *WaypointError) WithDetailf(format string, args ...any) *WaypointError {
	e.Detail = fmt.Sprintf(format, args...)
	return e
}

// Wrap wraps another error.
func (e *WaypointError) Wrap(err error) *WaypointError {
	e.Wrapped = err
	return e
}

// New creates a WaypointError from a registered error code.
func New(code string) *WaypointError {
	template, ok := registry[code]
	if !ok {
		return &WaypointError{
			Code:    code,
			Message: "Unknown error",
		}
	}
	return &WaypointError{
		Code:       code,
		Category:   template.Category,
		Message:    template.Message,
		Suggestion: template.Suggestion,
		DocURL:     template.DocURL,
	}
}

// Newf creates a new WaypointError with a formatted message (no code).
func Newf(category Category, format string, args ...any) *WaypointError {
	return &WaypointError{
		Category: category,
		Message:  fmt.Sprintf(format, args...),
	}
}

// FromError wraps a standard error in a WaypointError.
func FromError(err error, code string) *WaypointError {
	if err == nil {
		return nil
	}
	if we, ok := err.(*WaypointError); ok {
		return we
	}
	return New(code).Wrap(err)
}

// CodeOf returns the code of the first WaypointError in err's chain.
func CodeOf(err error) string {
	var we *WaypointError
	if stderrors.As(err, &we) {
		return we.Code
	}
	return ""
}

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool {
	return stderrors.Is(err, target)
}

// As finds the first error in err's chain that matches target.
func As(err error, target any) bool {
	return stderrors.As(err, target)
}
