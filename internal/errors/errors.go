// Package errors defines the application error taxonomy.
//
// Every error that crosses a package boundary is one of five kinds:
// validation (bad caller input, never retried), not-found (missing record),
// upstream (external service failure, retried with backoff), reasoning
// (unparseable LLM output, bounded immediate retry), and cancelled
// (cooperative cancellation observed between steps).
package errors

import (
	"errors"
	"net/http"
)

// Kind classifies an application error.
type Kind string

const (
	KindValidation Kind = "VALIDATION"
	KindNotFound   Kind = "NOT_FOUND"
	KindUpstream   Kind = "UPSTREAM"
	KindReasoning  Kind = "REASONING"
	KindCancelled  Kind = "CANCELLED"
)

// Error is a kinded application error with an optional cause.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

// NewValidation reports invalid caller input.
func NewValidation(message string) *Error {
	return &Error{Kind: KindValidation, Message: message}
}

// NewNotFound reports a missing record.
func NewNotFound(resource string) *Error {
	return &Error{Kind: KindNotFound, Message: resource + " not found"}
}

// NewUpstream reports an external service failure.
func NewUpstream(message string, cause error) *Error {
	return &Error{Kind: KindUpstream, Message: message, Cause: cause}
}

// NewReasoning reports LLM output that failed to parse into a valid action.
func NewReasoning(message string, cause error) *Error {
	return &Error{Kind: KindReasoning, Message: message, Cause: cause}
}

// NewCancelled reports cooperative cancellation.
func NewCancelled(cause error) *Error {
	return &Error{Kind: KindCancelled, Message: "query cancelled", Cause: cause}
}

// KindOf returns the kind of err, or an empty Kind for errors outside the
// taxonomy.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// IsKind reports whether err carries the given kind anywhere in its chain.
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}

// StatusClientClosedRequest mirrors the nginx convention for requests the
// client abandoned; net/http has no constant for it.
const StatusClientClosedRequest = 499

// HTTPStatus maps an error to the status code the API should respond with.
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindValidation:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindUpstream:
		return http.StatusBadGateway
	case KindCancelled:
		return StatusClientClosedRequest
	default:
		return http.StatusInternalServerError
	}
}
