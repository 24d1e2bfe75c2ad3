package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Error represents a typed domain error with HTTP awareness.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"status"`
	Field   string `json:"field,omitempty"`
	Err     error  `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped error.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Is matches errors sharing the same code so callers can use errors.Is against the predefined kinds.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) || e == nil || t == nil {
		return false
	}
	return e.Code == t.Code
}

// New creates a new Error instance.
func New(code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message}
}

// Wrap attaches context to an existing error.
func Wrap(err error, code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message, Err: err}
}

// Error codes produced by the eligibility engine.
const (
	CodeUnresolved       = "UNRESOLVED"
	CodeClosed           = "CLOSED"
	CodeBlockedPending   = "BLOCKED_PENDING"
	CodeBlockedDuplicate = "BLOCKED_DUPLICATE"
	CodeInvalidField     = "INVALID_FIELD"
	CodeMissingEvidence  = "MISSING_EVIDENCE"
	CodeUnsupportedFile  = "UNSUPPORTED_FILE"
	CodeOversizedFile    = "OVERSIZED_FILE"
	CodeFetchFailed      = "FETCH_FAILED"
	CodeDuplicateReceipt = "DUPLICATE_RECEIPT"
	CodeServerError      = "SERVER_ERROR"
)

// Predefined errors for common scenarios.
var (
	ErrNotFound     = New("NOT_FOUND", http.StatusNotFound, "resource not found")
	ErrForbidden    = New("FORBIDDEN", http.StatusForbidden, "forbidden")
	ErrUnauthorized = New("UNAUTHORIZED", http.StatusUnauthorized, "unauthorized")
	ErrValidation   = New("VALIDATION_ERROR", http.StatusBadRequest, "validation failed")
	ErrInternal     = New("INTERNAL_ERROR", http.StatusInternalServerError, "internal server error")
	ErrCacheMiss    = New("CACHE_MISS", http.StatusNotFound, "cache miss")

	ErrUnresolved       = New(CodeUnresolved, http.StatusNotFound, "no course is available for this catalog entry")
	ErrClosed           = New(CodeClosed, http.StatusConflict, "enrollment is not currently open for this course")
	ErrBlockedPending   = New(CodeBlockedPending, http.StatusConflict, "you already have an enrollment request pending review")
	ErrBlockedDuplicate = New(CodeBlockedDuplicate, http.StatusConflict, "you are already enrolled in this course")
	ErrInvalidField     = New(CodeInvalidField, http.StatusBadRequest, "invalid field")
	ErrMissingEvidence  = New(CodeMissingEvidence, http.StatusBadRequest, "payment evidence is incomplete")
	ErrUnsupportedFile  = New(CodeUnsupportedFile, http.StatusUnsupportedMediaType, "unsupported file type")
	ErrOversizedFile    = New(CodeOversizedFile, http.StatusRequestEntityTooLarge, "file is too large")
	ErrFetchFailed      = New(CodeFetchFailed, http.StatusServiceUnavailable, "seat availability could not be refreshed")
	ErrDuplicateReceipt = New(CodeDuplicateReceipt, http.StatusConflict, "this receipt number has already been registered; each payment receipt can only be used for one enrollment")
	ErrServerError      = New(CodeServerError, http.StatusBadGateway, "enrollment service rejected the request")
)

// InvalidField reports a field-level validation failure.
func InvalidField(field, reason string) *Error {
	clone := Clone(ErrInvalidField, reason)
	clone.Field = field
	return clone
}

// MissingEvidence reports incomplete payment evidence for the given method.
func MissingEvidence(method, reason string) *Error {
	clone := Clone(ErrMissingEvidence, reason)
	clone.Field = method
	return clone
}

// ServerError passes a backend rejection through verbatim.
func ServerError(raw string, status int) *Error {
	clone := Clone(ErrServerError, raw)
	if status >= 400 {
		clone.Status = status
	}
	return clone
}

// FromError normalises any error into an *Error.
func FromError(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Wrap(err, ErrInternal.Code, ErrInternal.Status, ErrInternal.Message)
}

// KindOf returns the code of a typed error, or an empty string for foreign errors.
func KindOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// Clone returns a copy of the error allowing for message overrides.
func Clone(err *Error, message string) *Error {
	if err == nil {
		return nil
	}
	clone := *err
	if message != "" {
		clone.Message = message
	}
	return &clone
}
