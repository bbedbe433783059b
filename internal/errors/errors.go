// Package errors provides the application error taxonomy shared by repositories,
// interactors and view-models.
//
// Usage:
//
//	// In repositories - normalize whatever the collaborator returned
//	if err != nil {
//	    return domain.Fail[[]domain.Book](errors.From(err))
//	}
//
//	// In view-models - check the kind with errors.Is
//	if errors.Is(err, errors.ErrNetwork) {
//	    ...
//	}
//
//	// Or switch on the Kind directly
//	var appErr *errors.AppError
//	if errors.As(err, &appErr) {
//	    switch appErr.Kind {
//	    case errors.KindServerResponse:
//	        log.Warn("server rejected request", "status", appErr.Status)
//	    }
//	}
package errors

import (
	"errors"
	"fmt"
)

// Re-export standard library functions for convenience.
var (
	Is     = errors.Is
	As     = errors.As
	Unwrap = errors.Unwrap
	Join   = errors.Join
	New    = errors.New
)

// Kind identifies a branch of the AppError taxonomy.
type Kind string

// Error kinds. All of them are recoverable from the core's perspective.
const (
	KindNetwork        Kind = "NETWORK_ERROR"
	KindServerResponse Kind = "SERVER_RESPONSE_ERROR"
	KindUnexpected     Kind = "UNEXPECTED_ERROR"
)

// AppError is the tagged union NetworkError | ServerResponseError | UnexpectedError.
type AppError struct {
	Kind    Kind   `json:"kind"`
	Status  int    `json:"status,omitempty"`
	Message string `json:"message"`
	cause   error
}

// Error implements the error interface.
func (e *AppError) Error() string {
	switch e.Kind {
	case KindServerResponse:
		return fmt.Sprintf("response error: %s (status %d)", e.Message, e.Status)
	case KindUnexpected:
		if e.cause != nil {
			return fmt.Sprintf("unexpected error: %v", e.cause)
		}
		return "unexpected error"
	default:
		if e.cause != nil {
			return fmt.Sprintf("network error: %v", e.cause)
		}
		return "network error"
	}
}

// Unwrap returns the underlying cause, if any.
func (e *AppError) Unwrap() error {
	return e.cause
}

// Cause returns the opaque underlying error.
func (e *AppError) Cause() error {
	return e.cause
}

// Is reports whether target is an *AppError of the same kind.
func (e *AppError) Is(target error) bool {
	var t *AppError
	if errors.As(target, &t) {
		return e.Kind == t.Kind
	}
	return false
}

// Equal compares two errors by value. Causes are opaque and ignored; server
// errors also compare status and message.
func (e *AppError) Equal(other *AppError) bool {
	if e == nil || other == nil {
		return e == other
	}
	if e.Kind != other.Kind {
		return false
	}
	if e.Kind == KindServerResponse {
		return e.Status == other.Status && e.Message == other.Message
	}
	return true
}

// Sentinel errors for use with errors.Is().
var (
	ErrNetwork        = &AppError{Kind: KindNetwork, Message: "network error"}
	ErrServerResponse = &AppError{Kind: KindServerResponse, Message: "response error"}
	ErrUnexpected     = &AppError{Kind: KindUnexpected, Message: "unexpected error"}
)

// Network creates a network error wrapping the connectivity failure.
func Network(cause error) *AppError {
	return &AppError{Kind: KindNetwork, Message: "network error", cause: cause}
}

// ServerResponse creates an error for a structured error returned by the API.
func ServerResponse(status int, message string) *AppError {
	return &AppError{Kind: KindServerResponse, Status: status, Message: message}
}

// Unexpected creates an error for decoding failures and unknown exceptions.
func Unexpected(cause error) *AppError {
	msg := "unexpected error"
	if cause != nil {
		msg = cause.Error()
	}
	return &AppError{Kind: KindUnexpected, Message: msg, cause: cause}
}

// Unexpectedf creates an unexpected error with a formatted message.
func Unexpectedf(format string, args ...any) *AppError {
	return Unexpected(fmt.Errorf(format, args...))
}

// From normalizes any error into an *AppError. Errors that already are (or wrap)
// an *AppError are returned as such; everything else becomes UnexpectedError.
// A nil error yields nil.
func From(err error) *AppError {
	if err == nil {
		return nil
	}
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return Unexpected(err)
}
