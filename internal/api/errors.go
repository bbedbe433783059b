package api

import (
	"errors"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	apperrors "github.com/listenupapp/searchbook/internal/errors"
	"github.com/listenupapp/searchbook/internal/validation"
)

// Error codes.
const (
	CodeValidation      = "validation_error"
	CodeNotFound        = "not_found"
	CodeConflict        = "conflict"
	CodeTooManyRequests = "too_many_requests"
	CodeUpstream        = "upstream_error"
	CodeInternal        = "internal_error"
)

// ErrSessionNotFound is returned for an unknown or closed screen session.
var ErrSessionNotFound = errors.New("screen session not found")

// APIError is a custom error type that implements huma.StatusError.
type APIError struct { //nolint:revive // API prefix is intentional for clarity
	status  int
	Code    string `json:"code" doc:"Machine-readable error code"`
	Message string `json:"message" doc:"Human-readable error message"`
	Details any    `json:"details,omitempty" doc:"Additional error details"`
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return e.Message
}

// GetStatus implements huma.StatusError.
func (e *APIError) GetStatus() int {
	return e.status
}

// ContentType returns the content type for the error response.
func (e *APIError) ContentType(_ string) string {
	return "application/json"
}

// RegisterErrorHandler configures huma to map app errors.
// Call this after creating the huma.API but before registering routes.
func RegisterErrorHandler() {
	huma.NewError = func(status int, message string, errs ...error) huma.StatusError {
		for _, err := range errs {
			if apiErr := fromError(err); apiErr != nil {
				return apiErr
			}
		}

		var details []string
		for _, err := range errs {
			if err != nil {
				details = append(details, err.Error())
			}
		}

		apiErr := &APIError{
			status:  status,
			Code:    statusToCode(status),
			Message: message,
		}
		if len(details) > 0 {
			apiErr.Details = details
		}
		return apiErr
	}
}

// fromError maps the errors handlers return. nil means no mapping applies.
func fromError(err error) *APIError {
	var validationErr *validation.Error
	if errors.As(err, &validationErr) {
		return &APIError{
			status:  http.StatusUnprocessableEntity,
			Code:    CodeValidation,
			Message: "Invalid intent",
			Details: validationErr.Fields,
		}
	}

	if errors.Is(err, ErrSessionNotFound) {
		return &APIError{
			status:  http.StatusNotFound,
			Code:    CodeNotFound,
			Message: err.Error(),
		}
	}

	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return &APIError{
			status:  http.StatusBadGateway,
			Code:    CodeUpstream,
			Message: appErr.Error(),
			Details: appErr,
		}
	}

	return nil
}

// statusToCode maps HTTP status codes to error codes.
func statusToCode(status int) string {
	switch status {
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return CodeValidation
	case http.StatusNotFound:
		return CodeNotFound
	case http.StatusConflict:
		return CodeConflict
	case http.StatusTooManyRequests:
		return CodeTooManyRequests
	default:
		return CodeInternal
	}
}
