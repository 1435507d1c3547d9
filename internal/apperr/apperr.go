// Package apperr defines the stable error codes that cross the core/adapter
// boundary, per the "Error codes across the boundary" contract.
package apperr

import (
	"errors"
	"fmt"
)

// Code is a stable short error code adapters can switch on without
// string-matching err.Error().
type Code string

const (
	NotFound      Code = "not_found"
	InvalidInput  Code = "invalid_input"
	IOError       Code = "io_error"
	DecodeError   Code = "decode_error"
	ExtractorErr  Code = "extractor_error"
	EmbedderErr   Code = "embedder_error"
	StoreError    Code = "store_error"
	IndexError    Code = "index_error"
	Cancelled     Code = "cancelled"
	Internal      Code = "internal"
)

// Error is a typed error carrying a stable Code and a human-readable message.
type Error struct {
	Code    Code
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

// New creates an *Error with no wrapped cause.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Wrap creates an *Error wrapping cause under the given code.
func Wrap(code Code, message string, cause error) *Error {
	return &Error{Code: code, Message: message, Cause: cause}
}

// CodeOf extracts the Code from err, defaulting to Internal when err is not
// (or does not wrap) an *Error.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return Internal
}

// IsNotFound reports whether err carries the NotFound code.
func IsNotFound(err error) bool { return CodeOf(err) == NotFound }

// IsCancelled reports whether err carries the Cancelled code.
func IsCancelled(err error) bool { return CodeOf(err) == Cancelled }
