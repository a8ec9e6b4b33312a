package errors

import (
	"errors"
	"fmt"
)

// Common error kinds surfaced at the API boundary. Each maps to exactly
// one HTTP status in HTTPStatus below.
var (
	ErrNotFound            = errors.New("resource not found")
	ErrAlreadyExists       = errors.New("resource already exists")
	ErrVersionConflict     = errors.New("version conflict")
	ErrValidation          = errors.New("validation error")
	ErrInvalidOperation    = errors.New("invalid operation")
	ErrPermissionDenied    = errors.New("permission denied")
	ErrDependencyMissing   = errors.New("dependency missing")
	ErrAuthRequired        = errors.New("authentication required")
	ErrInvalidAPIKey       = errors.New("invalid api key")
	ErrRateLimited         = errors.New("rate limited")
	ErrServiceUnavailable  = errors.New("service unavailable")
	ErrInternal            = errors.New("internal error")
)

// HTTPStatus maps a sentinel error kind to its spec-defined HTTP status.
// Falls back to 500 for anything not in the table (ErrInternal and any
// uncaught error).
func HTTPStatus(kind error) int {
	switch kind {
	case ErrValidation:
		return 400
	case ErrAuthRequired, ErrInvalidAPIKey:
		return 401
	case ErrPermissionDenied:
		return 403
	case ErrNotFound:
		return 404
	case ErrRateLimited:
		return 429
	case ErrServiceUnavailable, ErrDependencyMissing:
		return 503
	default:
		return 500
	}
}

// Code is the machine-readable error code returned in API responses.
func Code(kind error) string {
	switch kind {
	case ErrValidation:
		return "validation"
	case ErrAuthRequired:
		return "authentication_required"
	case ErrInvalidAPIKey:
		return "invalid_api_key"
	case ErrRateLimited:
		return "rate_limited"
	case ErrServiceUnavailable:
		return "service_unavailable"
	case ErrNotFound:
		return "not_found"
	default:
		return "internal"
	}
}

// Error represents a domain error
type Error struct {
	Code    string // Machine-readable error code
	Message string // Human-readable error message
	Op      string // Logical operation name
	Err     error  // Underlying error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is implements error matching for wrapped errors
func (e *Error) Is(target error) bool {
	if target == nil {
		return false
	}

	t, ok := target.(*Error)
	if !ok {
		return errors.Is(e.Err, target)
	}

	return e.Code == t.Code
}

// New creates a new Error
func New(code string, message string) *Error {
	return &Error{
		Code:    code,
		Message: message,
	}
}

// Wrap wraps an existing error with additional context
func Wrap(err error, code string, message string) *Error {
	if err == nil {
		return nil
	}
	return &Error{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// WithOp adds operation information to an error
func WithOp(err error, op string) *Error {
	if err == nil {
		return nil
	}

	e, ok := err.(*Error)
	if !ok {
		return &Error{
			Message: err.Error(),
			Op:      op,
			Err:     err,
		}
	}

	e.Op = op
	return e
}

// IsNotFound checks if an error is a not found error
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsAlreadyExists checks if an error is an already exists error
func IsAlreadyExists(err error) bool {
	return errors.Is(err, ErrAlreadyExists)
}

// IsVersionConflict checks if an error is a version conflict error
func IsVersionConflict(err error) bool {
	return errors.Is(err, ErrVersionConflict)
}

// IsValidation checks if an error is a validation error
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation)
}

// IsInvalidOperation checks if an error is an invalid operation error
func IsInvalidOperation(err error) bool {
	return errors.Is(err, ErrInvalidOperation)
}

// IsPermissionDenied checks if an error is a permission denied error
func IsPermissionDenied(err error) bool {
	return errors.Is(err, ErrPermissionDenied)
}

// IsDependencyMissing checks if an error is a dependency missing error
func IsDependencyMissing(err error) bool {
	return errors.Is(err, ErrDependencyMissing)
}

// kindOrder is checked in order so the first (most specific) match wins
// when an error is marked with more than one sentinel.
var kindOrder = []error{
	ErrValidation,
	ErrAuthRequired,
	ErrInvalidAPIKey,
	ErrRateLimited,
	ErrPermissionDenied,
	ErrNotFound,
	ErrServiceUnavailable,
	ErrDependencyMissing,
}

// KindOf returns the sentinel error kind an error was Mark()-ed with, for
// use at the API boundary to pick an HTTP status and response code. Falls
// back to ErrInternal when err matches none of the known kinds.
func KindOf(err error) error {
	for _, k := range kindOrder {
		if errors.Is(err, k) {
			return k
		}
	}
	return ErrInternal
}

// Is is a passthrough to the standard library for callers that only
// imported this package.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As is a passthrough to the standard library for callers that only
// imported this package.
func As(err error, target any) bool {
	return errors.As(err, target)
}
