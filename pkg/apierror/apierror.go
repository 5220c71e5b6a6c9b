// Package apierror maps domain errors onto standardized API error
// responses.
package apierror

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/planforge/api/pkg/domain/accesscontrol"
	"github.com/planforge/api/pkg/domain/invite"
	"github.com/planforge/api/pkg/domain/shared"
)

// Code represents a machine-readable error code.
type Code string

const (
	CodeBadRequest        Code = "BAD_REQUEST"
	CodeUnauthorized      Code = "UNAUTHORIZED"
	CodeForbidden         Code = "FORBIDDEN"
	CodeNotFound          Code = "NOT_FOUND"
	CodeConflict          Code = "CONFLICT"
	CodeGone              Code = "GONE"
	CodeValidationFailed  Code = "VALIDATION_FAILED"
	CodeSecurityViolation Code = "SECURITY_VIOLATION"
	CodeInternalError     Code = "INTERNAL_ERROR"
)

// Error is a standardized API error.
type Error struct {
	Status  int    `json:"-"`
	Code    Code   `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
	Err     error  `json:"-"`
}

func (e *Error) Error() string {
	if e.Err != nil {
		return string(e.Code) + ": " + e.Message + ": " + e.Err.Error()
	}
	return string(e.Code) + ": " + e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New creates an Error with an explicit status and code.
func New(status int, code Code, message string) *Error {
	return &Error{Status: status, Code: code, Message: message}
}

func BadRequest(message string) *Error {
	return New(http.StatusBadRequest, CodeBadRequest, message)
}

func Unauthorized(message string) *Error {
	return New(http.StatusUnauthorized, CodeUnauthorized, message)
}

func Forbidden(message string) *Error {
	return New(http.StatusForbidden, CodeForbidden, message)
}

func NotFound(message string) *Error {
	return New(http.StatusNotFound, CodeNotFound, message)
}

func Conflict(message string) *Error {
	return New(http.StatusConflict, CodeConflict, message)
}

func Validation(message string, details any) *Error {
	e := New(http.StatusUnprocessableEntity, CodeValidationFailed, message)
	e.Details = details
	return e
}

func Internal(err error) *Error {
	e := New(http.StatusInternalServerError, CodeInternalError, "internal server error")
	e.Err = err
	return e
}

// FromDomain translates a domain error into an API error. Unknown
// errors become opaque 500s so internals never leak to clients.
func FromDomain(err error) *Error {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr
	}

	switch {
	case accesscontrol.IsSecurityViolation(err):
		return New(http.StatusForbidden, CodeSecurityViolation, "write rejected: tenant scope mismatch")
	case errors.Is(err, invite.ErrInviteAlreadyUsed):
		return New(http.StatusConflict, CodeConflict, "invite code has already been used")
	case errors.Is(err, invite.ErrInviteExpired):
		return New(http.StatusGone, CodeGone, "invite code has expired")
	case shared.IsNotFound(err):
		return NotFound(err.Error())
	case shared.IsAlreadyExists(err):
		return Conflict(err.Error())
	case shared.IsValidation(err):
		return Validation(err.Error(), nil)
	case shared.IsForbidden(err):
		return Forbidden(err.Error())
	case errors.Is(err, shared.ErrUnauthorized):
		return Unauthorized(err.Error())
	default:
		return Internal(err)
	}
}

// Response is the wire shape of an error payload.
type Response struct {
	Error     string `json:"error"`
	Code      Code   `json:"code"`
	Message   string `json:"message"`
	Details   any    `json:"details,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

// WriteJSON writes the error as a JSON response.
func (e *Error) WriteJSON(w http.ResponseWriter, requestID string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(e.Status)
	_ = json.NewEncoder(w).Encode(Response{
		Error:     string(e.Code),
		Code:      e.Code,
		Message:   e.Message,
		Details:   e.Details,
		RequestID: requestID,
	})
}
