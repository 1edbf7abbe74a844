package errorutil

import (
	"errors"
	"fmt"
	"net/http"
)

// Error codes used across the service. Callers branch on these to decide
// between "retry with fresh state", "permanently invalid" and "absent".
const (
	CodeValidationFailed   = "VALIDATION_FAILED"
	CodeNotFound           = "NOT_FOUND"
	CodeUnauthorized       = "UNAUTHORIZED"
	CodeForbidden          = "FORBIDDEN"
	CodeConflict           = "CONFLICT"
	CodePreconditionFailed = "PRECONDITION_FAILED"
	CodeTicketNotActive    = "TICKET_NOT_ACTIVE"
	CodeInternal           = "INTERNAL_ERROR"
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

func NewValidationError(message string, details map[string]any) error {
	return NewDomainError(CodeValidationFailed, message, http.StatusBadRequest, details)
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

// NewConflict reports a violated uniqueness invariant. Terminal for the
// call; callers must not retry it.
func NewConflict(message string, details map[string]any) error {
	return NewDomainError(CodeConflict, message, http.StatusConflict, details)
}

// NewPreconditionFailed reports that a conditional update observed state
// other than the caller expected. Recoverable: re-fetch and re-decide.
func NewPreconditionFailed(message string, details map[string]any) error {
	return NewDomainError(CodePreconditionFailed, message, http.StatusConflict, details)
}

// NewTicketNotActive reports a session operation against a ticket whose
// effective status is no longer active.
func NewTicketNotActive(ticketID string) error {
	return NewDomainError(CodeTicketNotActive, "ticket is not active", http.StatusUnprocessableEntity, map[string]any{
		"ticket_id": ticketID,
	})
}

func NewInternalError(err error) error {
	return &DomainError{
		Code:       CodeInternal,
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// HasCode reports whether err is a DomainError carrying the given code.
func HasCode(err error, code string) bool {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Code == code
	}
	return false
}

func IsPreconditionFailed(err error) bool { return HasCode(err, CodePreconditionFailed) }
func IsConflict(err error) bool           { return HasCode(err, CodeConflict) }
func IsNotFound(err error) bool           { return HasCode(err, CodeNotFound) }
func IsTicketNotActive(err error) bool    { return HasCode(err, CodeTicketNotActive) }

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

func MapError(err error) error {
	return ToDomainError(err)
}
