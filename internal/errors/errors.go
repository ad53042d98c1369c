package errors

import (
	"errors"
	"net/http"
)

var (
	// ErrValidation marks a request that is missing data or references something invalid.
	ErrValidation = errors.New("validation error")
	// ErrNotFound marks a missing category, order, user, brand or product.
	ErrNotFound = errors.New("not found")
	// ErrConflict marks a write blocked by existing dependent records.
	ErrConflict = errors.New("conflict")
	// ErrUnauthorized is returned when credentials or tokens are rejected.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrForbidden is returned when the caller may not touch the resource.
	ErrForbidden = errors.New("forbidden")
)

// DomainError carries a user-facing message together with its kind.
type DomainError struct {
	Kind    error
	Message string
}

func (e *DomainError) Error() string {
	return e.Message
}

// Unwrap lets errors.Is match the kind sentinel.
func (e *DomainError) Unwrap() error {
	return e.Kind
}

// Validation returns a DomainError of kind ErrValidation.
func Validation(message string) error {
	return &DomainError{Kind: ErrValidation, Message: message}
}

// NotFound returns a DomainError of kind ErrNotFound.
func NotFound(message string) error {
	return &DomainError{Kind: ErrNotFound, Message: message}
}

// Conflict returns a DomainError of kind ErrConflict.
func Conflict(message string) error {
	return &DomainError{Kind: ErrConflict, Message: message}
}

// Unauthorized returns a DomainError of kind ErrUnauthorized.
func Unauthorized(message string) error {
	return &DomainError{Kind: ErrUnauthorized, Message: message}
}

// Forbidden returns a DomainError of kind ErrForbidden.
func Forbidden(message string) error {
	return &DomainError{Kind: ErrForbidden, Message: message}
}

// ErrorResponse represents a standardized error response. Error carries the
// underlying cause of internal failures outside production.
type ErrorResponse struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
	Error   string `json:"error,omitempty"`
}

// HTTPError represents an HTTP error with status code.
type HTTPError struct {
	StatusCode int
	Message    string
	Code       string
}

func (e *HTTPError) Error() string {
	return e.Message
}

// NewHTTPError creates a new HTTP error.
func NewHTTPError(statusCode int, message, code string) *HTTPError {
	return &HTTPError{
		StatusCode: statusCode,
		Message:    message,
		Code:       code,
	}
}

// ToErrorResponse converts an HTTPError to ErrorResponse.
func (e *HTTPError) ToErrorResponse() ErrorResponse {
	return ErrorResponse{
		Message: e.Message,
		Code:    e.Code,
	}
}

// MapErrorToHTTP maps domain errors to HTTP errors. Conflicts are reported as
// 400 because the storefront client treats them like any other rejected edit.
// Anything that is not a DomainError is an internal failure and its message
// is not exposed.
func MapErrorToHTTP(err error) *HTTPError {
	message := err.Error()
	var de *DomainError
	if errors.As(err, &de) {
		message = de.Message
	}

	switch {
	case errors.Is(err, ErrValidation):
		return NewHTTPError(http.StatusBadRequest, message, "VALIDATION_ERROR")
	case errors.Is(err, ErrNotFound):
		return NewHTTPError(http.StatusNotFound, message, "NOT_FOUND")
	case errors.Is(err, ErrConflict):
		return NewHTTPError(http.StatusBadRequest, message, "CONFLICT")
	case errors.Is(err, ErrUnauthorized):
		return NewHTTPError(http.StatusUnauthorized, message, "UNAUTHORIZED")
	case errors.Is(err, ErrForbidden):
		return NewHTTPError(http.StatusForbidden, message, "FORBIDDEN")
	default:
		return NewHTTPError(http.StatusInternalServerError, "internal server error", "INTERNAL_ERROR")
	}
}
