package errors

import (
	stderrors "errors"
	"fmt"
)

// Kind classifies a failure for callers. The API layer maps kinds to HTTP statuses.
type Kind string

const (
	KindAuthentication         Kind = "authentication"
	KindEntitlementExhausted   Kind = "entitlement_exhausted"
	KindValidation             Kind = "validation"
	KindAcquisitionUnavailable Kind = "acquisition_unavailable"
	KindConversionFailed       Kind = "conversion_failed"
	KindPreviewUnavailable     Kind = "preview_unavailable"
	KindNotFound               Kind = "not_found"
	KindInternal               Kind = "internal"
)

// Common sentinel errors
var (
	ErrInvalidFormat  = New(KindValidation, "unsupported target format")
	ErrInvalidURL     = New(KindValidation, "invalid YouTube URL")
	ErrMissingURL     = New(KindValidation, "YouTube URL is required")
	ErrUserNotFound   = New(KindNotFound, "user not found")
	ErrNoCredential   = New(KindAuthentication, "authorization token required")
	ErrBadCredential  = New(KindAuthentication, "invalid token")
	ErrExhausted      = New(KindEntitlementExhausted, "insufficient credits, please make a payment")
	ErrArtifactAbsent = New(KindNotFound, "file not found")
)

// Error is a classified error. Message is safe to show to a caller; the
// wrapped cause is an internal diagnostic and is only ever logged.
type Error struct {
	Kind        Kind
	Message     string
	Suggestions []string
	cause       error
}

// New creates a classified error
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Newf creates a classified error with a formatted message
func Newf(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches an internal cause to a classified, user-facing message.
func Wrap(err error, kind Kind, message string) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Message: message, cause: err}
}

// WithSuggestions returns a copy of e carrying actionable suggestions.
func (e *Error) WithSuggestions(suggestions ...string) *Error {
	cp := *e
	cp.Suggestions = append([]string(nil), suggestions...)
	return &cp
}

// WithCause returns a copy of e wrapping cause.
func (e *Error) WithCause(cause error) *Error {
	cp := *e
	cp.cause = cause
	return &cp
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.cause)
	}
	return e.Message
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.cause
}

// Is matches errors of the same kind and message, so wrapped copies of a
// sentinel still satisfy errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind && e.Message == t.Message
}

// KindOf reports the Kind of err, or KindInternal for unclassified errors.
func KindOf(err error) Kind {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// IsKind reports whether err is classified as kind.
func IsKind(err error, kind Kind) bool {
	if err == nil {
		return false
	}
	return KindOf(err) == kind
}

// Diagnostic returns the full internal error chain for logging.
func Diagnostic(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
