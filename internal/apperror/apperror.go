// Package apperror defines the typed errors returned by the auth service.
// Operational errors carry a message that is safe to show to clients; anything
// else is collapsed to a generic server error at the HTTP boundary.
package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an AppError.
type Kind int

const (
	// Unexpected is an unanticipated failure. Its message is never shown to clients.
	Unexpected Kind = iota
	Validation
	Conflict
	BadCredentials
	Unauthenticated
	NotFound
	InvalidOrExpiredToken
	DeliveryError
)

// GenericMessage is sent to clients in place of any non-operational error.
const GenericMessage = "Something went very wrong"

func (k Kind) String() string {
	switch k {
	case Validation:
		return "validation"
	case Conflict:
		return "conflict"
	case BadCredentials:
		return "bad_credentials"
	case Unauthenticated:
		return "unauthenticated"
	case NotFound:
		return "not_found"
	case InvalidOrExpiredToken:
		return "invalid_or_expired_token"
	case DeliveryError:
		return "delivery_error"
	default:
		return "unexpected"
	}
}

// AppError is an error with a kind, a client-facing message and an optional cause.
type AppError struct {
	Kind    Kind
	Message string
	Err     error // Underlying error, logged but never returned to clients
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// StatusCode returns the HTTP status code for the error kind
func (e *AppError) StatusCode() int {
	switch e.Kind {
	case Validation, InvalidOrExpiredToken:
		return http.StatusBadRequest
	case Conflict:
		return http.StatusConflict
	case BadCredentials, Unauthenticated:
		return http.StatusUnauthorized
	case NotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// Status returns the envelope status: "fail" for client faults, "error" for server faults.
func (e *AppError) Status() string {
	if e.StatusCode() < http.StatusInternalServerError {
		return "fail"
	}
	return "error"
}

// Operational reports whether the error was anticipated and its message is safe to display.
func (e *AppError) Operational() bool {
	return e.Kind != Unexpected
}

// New creates an AppError of the given kind.
func New(kind Kind, message string, err error) *AppError {
	return &AppError{Kind: kind, Message: message, Err: err}
}

func NewValidation(message string) *AppError {
	return New(Validation, message, nil)
}

func NewConflict(message string) *AppError {
	return New(Conflict, message, nil)
}

func NewBadCredentials(message string) *AppError {
	return New(BadCredentials, message, nil)
}

func NewUnauthenticated(message string, err error) *AppError {
	return New(Unauthenticated, message, err)
}

func NewNotFound(message string) *AppError {
	return New(NotFound, message, nil)
}

func NewInvalidOrExpiredToken(message string) *AppError {
	return New(InvalidOrExpiredToken, message, nil)
}

func NewDeliveryError(message string, err error) *AppError {
	return New(DeliveryError, message, err)
}

// NewUnexpected wraps an infrastructure failure. The message is for logs only.
func NewUnexpected(message string, err error) *AppError {
	return New(Unexpected, message, err)
}

// From converts any error into an *AppError. Errors that are not AppErrors
// become Unexpected.
func From(err error) *AppError {
	if err == nil {
		return nil
	}
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return NewUnexpected("unhandled error", err)
}

// Is reports whether err is an AppError of the given kind.
func Is(err error, kind Kind) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Kind == kind
}
