package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"

	apperrors "mediaconv/internal/app/errors"
)

// ErrorKind represents different types of API errors
type ErrorKind string

const (
	KindValidation             ErrorKind = ErrorKind(apperrors.KindValidation)
	KindAuthentication         ErrorKind = ErrorKind(apperrors.KindAuthentication)
	KindEntitlementExhausted   ErrorKind = ErrorKind(apperrors.KindEntitlementExhausted)
	KindAcquisitionUnavailable ErrorKind = ErrorKind(apperrors.KindAcquisitionUnavailable)
	KindConversionFailed       ErrorKind = ErrorKind(apperrors.KindConversionFailed)
	KindPreviewUnavailable     ErrorKind = ErrorKind(apperrors.KindPreviewUnavailable)
	KindNotFound               ErrorKind = ErrorKind(apperrors.KindNotFound)
	KindInternal               ErrorKind = ErrorKind(apperrors.KindInternal)
	KindBadRequest             ErrorKind = "bad_request"
)

// APIError represents a structured API error response
type APIError struct {
	Kind        ErrorKind         `json:"kind"`
	Message     string            `json:"message"`
	Suggestions []string          `json:"suggestions,omitempty"`
	Details     map[string]string `json:"details,omitempty"`
	RequestID   string            `json:"request_id,omitempty"`
}

// Error implements the error interface
func (e *APIError) Error() string {
	return e.Message
}

// HTTPStatus returns the appropriate HTTP status code for the error kind
func (e *APIError) HTTPStatus() int {
	switch e.Kind {
	case KindValidation, KindBadRequest:
		return http.StatusBadRequest
	case KindAuthentication:
		return http.StatusUnauthorized
	case KindEntitlementExhausted:
		return http.StatusPaymentRequired
	case KindNotFound:
		return http.StatusNotFound
	case KindAcquisitionUnavailable, KindPreviewUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// FromDomain converts any error into an APIError. Classified domain errors
// keep their user message and suggestions; the internal cause is dropped.
// Anything else becomes a generic internal error.
func FromDomain(err error) *APIError {
	if err == nil {
		return nil
	}

	var apiErr *APIError
	if stderrors.As(err, &apiErr) {
		return apiErr
	}

	var domainErr *apperrors.Error
	if stderrors.As(err, &domainErr) {
		out := &APIError{
			Kind:    ErrorKind(domainErr.Kind),
			Message: domainErr.Message,
		}
		if len(domainErr.Suggestions) > 0 {
			out.Suggestions = append([]string(nil), domainErr.Suggestions...)
		}
		if domainErr.Kind == apperrors.KindInternal {
			out.Message = "Internal server error"
			out.Suggestions = nil
		}
		return out
	}

	return NewInternalError("Internal server error")
}

// NewValidationError creates a validation error with field details
func NewValidationError(message string, fields map[string]string) *APIError {
	return &APIError{
		Kind:    KindValidation,
		Message: message,
		Details: fields,
	}
}

// NewNotFoundError creates a not found error
func NewNotFoundError(resource string) *APIError {
	return &APIError{
		Kind:    KindNotFound,
		Message: fmt.Sprintf("%s not found", resource),
	}
}

// NewBadRequestError creates a bad request error
func NewBadRequestError(message string) *APIError {
	return &APIError{
		Kind:    KindBadRequest,
		Message: message,
	}
}

// NewInternalError creates an internal server error
func NewInternalError(message string) *APIError {
	return &APIError{
		Kind:    KindInternal,
		Message: message,
	}
}
