// Package errors defines the JSON error envelope returned by the HTTP API
// and maps application errors onto HTTP statuses.
package errors

import (
	"fmt"
	"net/http"

	apperrors "green-needle/internal/app/errors"
)

// Kind names an error category in responses.
type Kind string

const (
	KindValidation  Kind = "validation"
	KindBadRequest  Kind = "bad_request"
	KindNotFound    Kind = "not_found"
	KindTooLarge    Kind = "payload_too_large"
	KindUnavailable Kind = "service_unavailable"
	KindInternal    Kind = "internal"
)

// APIError is the envelope every error response carries.
type APIError struct {
	Kind      Kind              `json:"kind"`
	Message   string            `json:"message"`
	Details   map[string]string `json:"details,omitempty"`
	RequestID string            `json:"request_id,omitempty"`
}

func (e *APIError) Error() string {
	return e.Message
}

// HTTPStatus returns the status code for the error kind.
func (e *APIError) HTTPStatus() int {
	switch e.Kind {
	case KindValidation:
		return http.StatusUnprocessableEntity
	case KindBadRequest:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindTooLarge:
		return http.StatusRequestEntityTooLarge
	case KindUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// Validation reports a request that parsed but failed validation, with
// per-field messages.
func Validation(message string, fields map[string]string) *APIError {
	return &APIError{Kind: KindValidation, Message: message, Details: fields}
}

// BadRequest reports a request the server could not parse or accept.
func BadRequest(format string, args ...interface{}) *APIError {
	return &APIError{Kind: KindBadRequest, Message: fmt.Sprintf(format, args...)}
}

// NotFound reports a missing resource.
func NotFound(resource string) *APIError {
	return &APIError{Kind: KindNotFound, Message: resource + " not found"}
}

// TooLarge reports a request body over the configured upload limit.
func TooLarge(limitBytes int64) *APIError {
	return &APIError{
		Kind:    KindTooLarge,
		Message: fmt.Sprintf("request body exceeds the %d MB upload limit", limitBytes>>20),
	}
}

// Unavailable reports a dependency the server cannot reach right now.
func Unavailable(message string) *APIError {
	return &APIError{Kind: KindUnavailable, Message: message}
}

// Internal reports a server-side failure.
func Internal(message string) *APIError {
	return &APIError{Kind: KindInternal, Message: message}
}

// From converts any error into an APIError. Application errors keep their
// classification: bad input becomes 400, configuration problems 422,
// missing dependencies 503, everything else 500.
func From(err error) *APIError {
	if err == nil {
		return nil
	}
	var apiErr *APIError
	if apperrors.As(err, &apiErr) {
		return apiErr
	}

	kind := KindInternal
	switch apperrors.KindOf(err) {
	case apperrors.KindInput:
		kind = KindBadRequest
	case apperrors.KindConfig:
		kind = KindValidation
	case apperrors.KindDependency:
		kind = KindUnavailable
	}
	return &APIError{Kind: kind, Message: err.Error()}
}
