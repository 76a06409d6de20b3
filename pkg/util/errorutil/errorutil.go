package errorutil

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/jackc/pgx/v5"
)

// Error codes surfaced to callers.
const (
	CodeValidation        = "VALIDATION_FAILED"
	CodeInvalidTransition = "INVALID_TRANSITION"
	CodeNotFound          = "NOT_FOUND"
	CodeConflict          = "CONFLICT"
	CodeCollaborator      = "COLLABORATOR_FAILED"
	CodeUnauthorized      = "UNAUTHORIZED"
	CodeInternal          = "INTERNAL_ERROR"
)

// DomainError standardizes application errors.
type DomainError struct {
	Code       string
	Message    string
	HTTPStatus int
	Details    map[string]any
	Retryable  bool
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

func NewValidationError(message string, details map[string]any) error {
	return NewDomainError(CodeValidation, message, http.StatusBadRequest, details)
}

// NewMissingField reports a required payload field that was not provided.
func NewMissingField(operation, field string) error {
	return NewValidationError(fmt.Sprintf("%s: %s is required", operation, field), map[string]any{
		"operacao": operation,
		"campo":    field,
	})
}

// NewInvalidTransition reports a precondition failure, naming the states the
// operation requires and the state that was observed.
func NewInvalidTransition(operation string, required []string, observed string) error {
	return NewDomainError(CodeInvalidTransition,
		fmt.Sprintf("%s not allowed from %s (requires one of %v)", operation, observed, required),
		http.StatusUnprocessableEntity,
		map[string]any{
			"operacao":  operation,
			"requerido": required,
			"observado": observed,
		})
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

// NewConflict is retryable once the caller re-reads the current state.
func NewConflict(message string, details map[string]any) error {
	de := NewDomainError(CodeConflict, message, http.StatusConflict, details)
	de.Retryable = true
	return de
}

// NewCollaboratorError wraps a failed or timed out call to an external
// collaborator. Callers may retry with the same idempotency key.
func NewCollaboratorError(collaborator string, err error) error {
	return &DomainError{
		Code:       CodeCollaborator,
		Message:    fmt.Sprintf("%s unavailable", collaborator),
		HTTPStatus: http.StatusServiceUnavailable,
		Details:    map[string]any{"colaborador": collaborator},
		Retryable:  true,
		Err:        err,
	}
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
	if errors.Is(err, pgx.ErrNoRows) {
		return NewNotFound("resource", nil).(*DomainError)
	}
	return NewInternalError(err).(*DomainError)
}

func MapError(err error) error {
	if err == nil {
		return nil
	}
	return ToDomainError(err)
}

// IsCode reports whether err carries the given domain code.
func IsCode(err error, code string) bool {
	var domainErr *DomainError
	if !errors.As(err, &domainErr) {
		return false
	}
	return domainErr.Code == code
}

// IsRetryable reports whether the caller may retry the failed call.
func IsRetryable(err error) bool {
	var domainErr *DomainError
	if !errors.As(err, &domainErr) {
		return false
	}
	return domainErr.Retryable
}
