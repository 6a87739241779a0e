// Package apperrors defines the error kinds surfaced by the booking engine,
// the access-control gate and the token service. Every kind is a sentinel
// that callers test with errors.Is; AppError adds a machine-readable code,
// a human message and the HTTP status the API layer should answer with.
package apperrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinel kinds. ErrExpired and ErrMalformed are refinements of
// ErrUnauthenticated so callers that only care about "not logged in" can
// match the parent.
var (
	ErrUnauthenticated  = errors.New("unauthenticated")
	ErrExpired          = fmt.Errorf("%w: token expired", ErrUnauthenticated)
	ErrMalformed        = fmt.Errorf("%w: token malformed", ErrUnauthenticated)
	ErrForbidden        = errors.New("forbidden")
	ErrNotFound         = errors.New("not found")
	ErrInvalidInput     = errors.New("invalid input")
	ErrInvalidDateRange = errors.New("invalid date range")
	ErrInvalidReference = errors.New("invalid reference")
	ErrConflict         = errors.New("conflict")
	ErrInternal         = errors.New("internal error")
)

// AppError is a classified failure. Err always holds one of the sentinels
// above (possibly wrapping a lower-level cause).
type AppError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
	Status  int    `json:"-"`
	Err     error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.Field)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error { return e.Err }

// Unauthenticated reports a missing or unusable credential.
func Unauthenticated(message string) *AppError {
	return &AppError{Code: "UNAUTHENTICATED", Message: message, Status: http.StatusUnauthorized, Err: ErrUnauthenticated}
}

// Expired reports a bearer token past its exp claim.
func Expired() *AppError {
	return &AppError{Code: "TOKEN_EXPIRED", Message: "token expired", Status: http.StatusUnauthorized, Err: ErrExpired}
}

// Malformed reports a token whose signature or content cannot be trusted.
func Malformed(cause error) *AppError {
	err := ErrMalformed
	if cause != nil {
		err = fmt.Errorf("%w: %v", ErrMalformed, cause)
	}
	return &AppError{Code: "TOKEN_MALFORMED", Message: "token malformed", Status: http.StatusUnauthorized, Err: err}
}

// Forbidden reports an authenticated caller acting outside its role or
// ownership.
func Forbidden(message string) *AppError {
	return &AppError{Code: "FORBIDDEN", Message: message, Status: http.StatusForbidden, Err: ErrForbidden}
}

// NotFound reports a missing resource of the given kind.
func NotFound(resource string) *AppError {
	return &AppError{Code: "NOT_FOUND", Message: resource + " not found", Status: http.StatusNotFound, Err: ErrNotFound}
}

// InvalidInput reports a malformed payload field.
func InvalidInput(field, message string) *AppError {
	return &AppError{Code: "INVALID_INPUT", Message: message, Field: field, Status: http.StatusBadRequest, Err: ErrInvalidInput}
}

// InvalidDateRange reports start >= end.
func InvalidDateRange(message string) *AppError {
	return &AppError{Code: "INVALID_DATE_RANGE", Message: message, Field: "start_date", Status: http.StatusBadRequest, Err: ErrInvalidDateRange}
}

// InvalidReference reports an identifier that is not well formed.
func InvalidReference(field string) *AppError {
	return &AppError{Code: "INVALID_REFERENCE", Message: "malformed identifier", Field: field, Status: http.StatusBadRequest, Err: ErrInvalidReference}
}

// Conflict reports a state clash the caller may resolve by changing input.
func Conflict(message string) *AppError {
	return &AppError{Code: "CONFLICT", Message: message, Status: http.StatusConflict, Err: ErrConflict}
}

// Internal hides cause behind a generic message.
func Internal(cause error) *AppError {
	err := ErrInternal
	if cause != nil {
		err = fmt.Errorf("%w: %w", ErrInternal, cause)
	}
	return &AppError{Code: "INTERNAL_ERROR", Message: "an internal error occurred", Status: http.StatusInternalServerError, Err: err}
}

// HTTPStatus returns the status code for err. Unclassified errors are 500.
func HTTPStatus(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Status
	}
	switch {
	case errors.Is(err, ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrInvalidInput), errors.Is(err, ErrInvalidDateRange), errors.Is(err, ErrInvalidReference):
		return http.StatusBadRequest
	case errors.Is(err, ErrConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// As classifies err, turning anything unclassified into Internal.
func As(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	switch {
	case errors.Is(err, ErrExpired):
		return Expired()
	case errors.Is(err, ErrMalformed):
		return Malformed(nil)
	case errors.Is(err, ErrUnauthenticated):
		return Unauthenticated(err.Error())
	case errors.Is(err, ErrForbidden):
		return Forbidden(err.Error())
	case errors.Is(err, ErrNotFound):
		return NotFound("resource")
	case errors.Is(err, ErrConflict):
		return Conflict(err.Error())
	}
	return Internal(err)
}
