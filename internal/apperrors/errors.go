// Package apperrors defines the typed error taxonomy shared by all layers
// and its mapping onto HTTP status codes at the handler boundary.
package apperrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an error into one of the failure domains of the
// submission pipeline.
type Kind int

const (
	// Unknown is the zero Kind for errors outside the taxonomy.
	Unknown Kind = iota
	// Authentication indicates an invalid or missing user credential.
	Authentication
	// Authorization indicates a valid caller lacking admin rights.
	Authorization
	// Conflict indicates a uniqueness-constraint violation.
	Conflict
	// MalformedSpec indicates a specification that failed to parse or is
	// missing required fields.
	MalformedSpec
	// UnsupportedEngine indicates an engine outside the allow-list.
	UnsupportedEngine
	// UnsupportedEvent indicates a webhook event kind the resolver does
	// not handle.
	UnsupportedEvent
	// SecretNotFound indicates a missing per-user secret.
	SecretNotFound
	// UpstreamFetch indicates a failed source-control fetch.
	UpstreamFetch
	// UpstreamDispatch indicates a failed workflow-controller submission.
	UpstreamDispatch
	// UpstreamQuery indicates a failed workflow-controller listing.
	UpstreamQuery
)

// Error carries a Kind, a human-readable message and an optional cause.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap exposes the cause for errors.Is / errors.As chains.
func (e *Error) Unwrap() error {
	return e.Err
}

// New creates a taxonomy error without a cause.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Newf creates a taxonomy error with a formatted message.
func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap creates a taxonomy error wrapping an underlying cause. The upstream
// message stays reachable through Error() so callers see it verbatim.
func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// KindOf returns the Kind of err, or Unknown if err is not part of the
// taxonomy.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Unknown
}

// HTTPStatus maps an error deterministically to an HTTP status code.
// Client-input failures map to 4xx, collaborator failures to 502, and
// anything outside the taxonomy to 500.
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case Authentication:
		return http.StatusUnauthorized
	case Authorization:
		return http.StatusForbidden
	case Conflict:
		return http.StatusConflict
	case MalformedSpec, UnsupportedEngine, UnsupportedEvent, SecretNotFound:
		return http.StatusBadRequest
	case UpstreamFetch, UpstreamDispatch, UpstreamQuery:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
