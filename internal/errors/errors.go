// Package errors provides the structured API error responses rendered at the
// HTTP edge. Domain packages return sentinel errors; the transport layer maps
// them onto these renderers so callers get stable machine-readable codes.
package errors

import (
	"net/http"

	"github.com/go-chi/render"
)

// APIError is a structured API error response implementing render.Renderer.
type APIError struct {
	StatusCode int    `json:"status_code"`
	ErrorCode  string `json:"error_code"`
	Message    string `json:"message"`
	Details    any    `json:"details,omitempty"`
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return e.Message
}

// Render implements the render.Renderer interface for chi/render.
func (e *APIError) Render(w http.ResponseWriter, r *http.Request) error {
	render.Status(r, e.StatusCode)
	return nil
}

// New creates a new APIError.
func New(statusCode int, errorCode, message string) *APIError {
	return &APIError{StatusCode: statusCode, ErrorCode: errorCode, Message: message}
}

// NewWithDetails creates a new APIError with additional details.
func NewWithDetails(statusCode int, errorCode, message string, details any) *APIError {
	return &APIError{StatusCode: statusCode, ErrorCode: errorCode, Message: message, Details: details}
}

// Stable error codes surfaced to the UI layer.
const (
	CodeInvalidRequest   = "INVALID_REQUEST"
	CodeFormatInvalid    = "FORMAT_INVALID"
	CodeLicenseInvalid   = "LICENSE_INVALID"
	CodeCorruptRecord    = "CORRUPT_RECORD"
	CodeTrialUsed        = "TRIAL_ALREADY_USED"
	CodeLicenseActive    = "LICENSE_ACTIVE"
	CodeNotEntitled      = "NOT_ENTITLED"
	CodePasswordMismatch = "PASSWORD_MISMATCH"
	CodePINMismatch      = "PIN_MISMATCH"
	CodePINFormatInvalid = "PIN_FORMAT_INVALID"
	CodePasswordTooWeak  = "PASSWORD_TOO_WEAK"
	CodeAdminExists      = "ADMIN_ALREADY_EXISTS"
	CodeAckRequired      = "SECURITY_ACK_REQUIRED"
	CodeUsernameTaken    = "USERNAME_TAKEN"
	CodeUserNotFound     = "USER_NOT_FOUND"
	CodeRateLimited      = "RATE_LIMIT_EXCEEDED"
	CodeInternal         = "INTERNAL_SERVER_ERROR"
)

// Predefined responses for common cases.
var (
	ErrNotEntitled = New(http.StatusPaymentRequired, CodeNotEntitled,
		"No active trial or license. Activate a license to continue")
	ErrRateLimited = New(http.StatusTooManyRequests, CodeRateLimited,
		"Too many activation attempts. Please try again later")
	ErrForbidden = New(http.StatusForbidden, "FORBIDDEN", "Access denied")
)

// InvalidRequest wraps a binding/validation failure.
func InvalidRequest(err error) *APIError {
	return NewWithDetails(http.StatusBadRequest, CodeInvalidRequest, "Invalid request format", err.Error())
}

// Internal wraps an unexpected failure without leaking internals.
func Internal(err error) *APIError {
	return NewWithDetails(http.StatusInternalServerError, CodeInternal,
		"An unexpected error occurred. Please try again later", err.Error())
}
