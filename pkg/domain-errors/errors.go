// Package domainerrors provides coded errors that cross component boundaries.
//
// Services and stores return these instead of raw errors so transport layers
// can translate them into wire responses without inspecting error strings.
// Infrastructure facts (record absent, backend down) start as sentinels in
// pkg/platform/sentinel and are wrapped into coded errors at the service layer.
package domainerrors

import (
	"errors"
	"fmt"
)

// Code classifies an error for boundary translation.
type Code string

const (
	// CodeBadRequest marks requests that are structurally unusable:
	// undecodable bodies, empty update payloads, missing required fields.
	CodeBadRequest Code = "bad_request"

	// CodeValidation marks requests that decoded fine but carry
	// out-of-bound field values. Carries per-field details.
	CodeValidation Code = "validation"

	// CodeUnauthorized covers every credential failure. Malformed, forged
	// and expired credentials all map here so callers learn nothing about
	// which check tripped.
	CodeUnauthorized Code = "unauthorized"

	// CodeNotFound covers both truly absent records and records owned by
	// another subject. The two are deliberately indistinguishable.
	CodeNotFound Code = "not_found"

	// CodeInternal is the opaque fallback for unexpected failures.
	CodeInternal Code = "internal"
)

// Error is a coded domain error with an optional per-field detail map.
type Error struct {
	Code    Code
	Message string
	Details map[string]string
	cause   error
}

// New constructs a coded error.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Wrap attaches a code and message to an underlying cause. The cause is
// retained for errors.Is/As chains and server-side logging, never for wire
// responses.
func Wrap(cause error, code Code, message string) *Error {
	return &Error{Code: code, Message: message, cause: cause}
}

// WithDetails constructs a coded error carrying a field → message map,
// used for validation responses.
func WithDetails(code Code, message string, details map[string]string) *Error {
	return &Error{Code: code, Message: message, Details: details}
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.cause
}

// Is matches two domain errors by code and message, so tests can use
// require.ErrorIs against New(code, msg) without sharing pointers.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return e.Code == t.Code && e.Message == t.Message
}

// HasCode reports whether err is (or wraps) a domain error with the given code.
func HasCode(err error, code Code) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	return e.Code == code
}
