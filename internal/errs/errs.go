// Package errs defines the error taxonomy shared by every notedrop
// component. Each stage of the pipeline returns an *Error carrying a Kind,
// and the MCP boundary converts it into a structured payload instead of
// letting the process terminate.
package errs

import (
	"errors"
	"fmt"
)

// Kind classifies an error for the tool boundary.
type Kind string

const (
	// KindNotFound indicates a missing file or directory.
	KindNotFound Kind = "not_found"
	// KindPermission indicates an unreadable file or directory.
	KindPermission Kind = "permission_denied"
	// KindPathTraversal indicates a path escaping the allowed roots.
	KindPathTraversal Kind = "path_traversal"
	// KindEncoding indicates content that is not valid UTF-8.
	KindEncoding Kind = "invalid_encoding"
	// KindMalformedData indicates unparsable JSON or CSV content.
	KindMalformedData Kind = "malformed_data"
	// KindValidation indicates invalid caller-supplied arguments.
	KindValidation Kind = "validation"

	// External API sub-kinds, mapped from Notion responses.
	KindAuth               Kind = "external_auth"
	KindRateLimited        Kind = "external_rate_limited"
	KindRemoteNotFound     Kind = "external_not_found"
	KindValidationRejected Kind = "external_validation_rejected"
	KindExternalAPI        Kind = "external_api"
)

// Error is a classified error. It wraps an underlying cause when one
// exists so callers can still use errors.Is/As on the chain.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New creates a classified error with a formatted message.
func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap classifies an existing error, keeping it on the unwrap chain.
func Wrap(kind Kind, err error, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Err: err}
}

// KindOf returns the Kind of an error, or KindExternalAPI for anything
// that was never classified (unclassified failures only ever arise at the
// external boundary).
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindExternalAPI
}

// IsKind reports whether err carries the given Kind anywhere on its chain.
func IsKind(err error, kind Kind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}
