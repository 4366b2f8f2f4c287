package errorutil

import (
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
)

const (
	CodeValidation            = "VALIDATION_FAILED"
	CodeUpstreamUnavailable   = "UPSTREAM_UNAVAILABLE"
	CodeTranscriptUnavailable = "TRANSCRIPT_UNAVAILABLE"
	CodePreconditionViolation = "PRECONDITION_VIOLATION"
	CodeNotFound              = "NOT_FOUND"
	CodeUnauthorized          = "UNAUTHORIZED"
	CodeForbidden             = "FORBIDDEN"
	CodeInternal              = "INTERNAL_ERROR"
)

// DomainError standardizes application errors.
type DomainError struct {
	Code       string
	Message    string
	HTTPStatus int
	Details    map[string]any
	Err        error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewDomainError constructs a DomainError.
func NewDomainError(code, message string, status int, details map[string]any) *DomainError {
	return &DomainError{Code: code, Message: message, HTTPStatus: status, Details: details}
}

// FieldErrors maps an input id to the message shown next to it.
type FieldErrors map[string]string

// Fields returns the flagged input ids in stable order.
func (f FieldErrors) Fields() []string {
	out := make([]string, 0, len(f))
	for k := range f {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func (f FieldErrors) Error() string {
	parts := make([]string, 0, len(f))
	for _, k := range f.Fields() {
		parts = append(parts, k+": "+f[k])
	}
	return strings.Join(parts, "; ")
}

func NewValidationError(message string, details map[string]any) error {
	return NewDomainError(CodeValidation, message, http.StatusBadRequest, details)
}

// NewFieldValidationError wraps per-field messages so callers can recover them with errors.As.
func NewFieldValidationError(fields FieldErrors) error {
	details := make(map[string]any, len(fields))
	for k, v := range fields {
		details[k] = v
	}
	return &DomainError{
		Code:       CodeValidation,
		Message:    "validation failed",
		HTTPStatus: http.StatusBadRequest,
		Details:    details,
		Err:        fields,
	}
}

// NewUpstreamUnavailable reports a remote API that stayed unreachable or kept failing.
func NewUpstreamUnavailable(upstream string, err error) error {
	return &DomainError{
		Code:       CodeUpstreamUnavailable,
		Message:    upstream + " unavailable",
		HTTPStatus: http.StatusBadGateway,
		Details:    map[string]any{"upstream": upstream},
		Err:        err,
	}
}

func NewTranscriptUnavailable(conversationID string, err error) error {
	return &DomainError{
		Code:       CodeTranscriptUnavailable,
		Message:    "transcript unavailable",
		HTTPStatus: http.StatusBadGateway,
		Details:    map[string]any{"conversation_id": conversationID},
		Err:        err,
	}
}

// NewPreconditionViolation marks a bug: input that validation should already have rejected.
func NewPreconditionViolation(message string) error {
	return NewDomainError(CodePreconditionViolation, message, http.StatusInternalServerError, nil)
}

func NewNotFound(resource string, details map[string]any) error {
	if details == nil {
		details = map[string]any{}
	}
	return &DomainError{
		Code:       CodeNotFound,
		Message:    fmt.Sprintf("%s not found", resource),
		HTTPStatus: http.StatusNotFound,
		Details:    details,
	}
}

func NewUnauthorized(message string) error {
	return NewDomainError(CodeUnauthorized, message, http.StatusUnauthorized, nil)
}

func NewForbidden(message string) error {
	return NewDomainError(CodeForbidden, message, http.StatusForbidden, nil)
}

func NewInternalError(err error) error {
	return &DomainError{
		Code:       CodeInternal,
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// ToDomainError converts generic errors to DomainError.
func ToDomainError(err error) *DomainError {
	if err == nil {
		return nil
	}
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr
	}
	return &DomainError{
		Code:       CodeInternal,
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// HasCode reports whether err carries a DomainError with the given code.
func HasCode(err error, code string) bool {
	var domainErr *DomainError
	return errors.As(err, &domainErr) && domainErr.Code == code
}

// FieldErrorsOf extracts field messages from a validation error.
func FieldErrorsOf(err error) (FieldErrors, bool) {
	var fields FieldErrors
	if errors.As(err, &fields) {
		return fields, true
	}
	return nil, false
}
