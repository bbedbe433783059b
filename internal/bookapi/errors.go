package bookapi

import (
	"errors"
	"fmt"
)

// ErrDecode is returned when a successful response body cannot be decoded.
var ErrDecode = errors.New("bookapi: malformed response")

// Fallback used when an error response carries no decodable envelope.
const (
	unknownErrorCode    = -1
	unknownErrorMessage = "Server error"
)

// APIError is a structured error returned by the catalog, decoded from the
// {"error": {"code", "message"}} envelope of a non-2xx response.
type APIError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"-"` // HTTP status of the response
}

func (e *APIError) Error() string {
	return fmt.Sprintf("bookapi: api error %d: %s", e.Code, e.Message)
}

// NetworkError reports a connectivity failure: nothing usable came back.
type NetworkError struct {
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("bookapi: network: %v", e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// Error wraps an underlying error with operation context.
type Error struct {
	Op  string // "search" or "volume"
	Arg string // query or volume id
	Err error
}

func (e *Error) Error() string {
	return fmt.Sprintf("bookapi %s [%s]: %v", e.Op, e.Arg, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func wrapError(op, arg string, err error) error {
	return &Error{Op: op, Arg: arg, Err: err}
}
