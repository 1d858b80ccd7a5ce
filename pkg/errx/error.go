// Package errx is the error layer shared by every package in this
// repository. Failures travel as *Error values carrying a stable code,
// a category, a suggested HTTP status and free-form details, so a
// caller can branch on what went wrong without string matching.
//
// Feature packages declare their own code Registry; see regestry.go.
package errx

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Error is a classified failure. The zero value is not useful; build
// errors through a Registry, the common constructors, or Wrap.
type Error struct {
	// Code identifies the failure, e.g. "GQL_CANCELLED". Codes are
	// stable across releases; messages are not.
	Code string `json:"code"`

	// Message is the human-readable description.
	Message string `json:"message"`

	// Type is the failure category, used for coarse policy decisions
	// (retryable, caller bug, remote fault).
	Type Type `json:"type"`

	// HTTPStatus is the status an HTTP surface should answer with.
	HTTPStatus int `json:"http_status"`

	// Details carries structured context: offending values, endpoints,
	// raw payloads. Allocated on first use.
	Details map[string]any `json:"details,omitempty"`

	// Err is the wrapped cause, if any. Excluded from JSON.
	Err error `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap exposes the cause to errors.Is and errors.As.
func (e *Error) Unwrap() error {
	return e.Err
}

// WithDetail attaches one piece of context and returns the error so
// calls chain.
func (e *Error) WithDetail(key string, value any) *Error {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// WithDetails attaches several pieces of context at once.
func (e *Error) WithDetails(details map[string]any) *Error {
	if e.Details == nil {
		e.Details = make(map[string]any, len(details))
	}
	for k, v := range details {
		e.Details[k] = v
	}
	return e
}

// WithCause records err as the underlying cause.
func (e *Error) WithCause(err error) *Error {
	e.Err = err
	return e
}

// MarshalJSON adds the rendered error string next to the structured
// fields, which keeps logged errors grep-able.
func (e *Error) MarshalJSON() ([]byte, error) {
	type alias Error
	return json.Marshal(&struct {
		*alias
		Error string `json:"error,omitempty"`
	}{
		alias: (*alias)(e),
		Error: e.Error(),
	})
}

// New creates an unregistered error of the given category. Prefer a
// Registry code when the failure belongs to a feature package.
func New(message string, errType Type) *Error {
	return &Error{
		Code:       string(errType),
		Message:    message,
		Type:       errType,
		HTTPStatus: errType.status(),
	}
}

// Wrap classifies an existing error. When err is already an *Error its
// code, status and details survive; only the message and category are
// replaced. Wrapping nil returns nil.
func Wrap(err error, message string, errType Type) *Error {
	if err == nil {
		return nil
	}

	var prior *Error
	if errors.As(err, &prior) {
		return &Error{
			Code:       prior.Code,
			Message:    message,
			Type:       errType,
			HTTPStatus: prior.HTTPStatus,
			Details:    prior.Details,
			Err:        err,
		}
	}

	return &Error{
		Code:       string(errType),
		Message:    message,
		Type:       errType,
		HTTPStatus: errType.status(),
		Err:        err,
	}
}

// Wrapf is Wrap with a formatted message.
func Wrapf(err error, errType Type, format string, args ...any) *Error {
	return Wrap(err, fmt.Sprintf(format, args...), errType)
}

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain matching target's type.
func As(err error, target any) bool {
	return errors.As(err, target)
}
