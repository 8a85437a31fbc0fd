// Package http implements the HTTP transport for the entitlement and
// account-bootstrap core: chi handlers, request binding/validation, and the
// mapping from domain sentinel errors to structured API errors.
package http

import (
	"errors"
	"net/http"

	"poscore/internal/accounts"
	apierrors "poscore/internal/errors"
	"poscore/internal/license"
)

// mapDomainError translates domain sentinels into API error responses.
// Format errors are 400s the user can correct; policy violations are
// explicit 4xx rejections; integrity errors surface as conflicts so the
// operator investigates rather than the caller retrying blindly.
func mapDomainError(err error) *apierrors.APIError {
	switch {
	case errors.Is(err, license.ErrInvalidFormat):
		return apierrors.New(http.StatusBadRequest, apierrors.CodeFormatInvalid,
			"License key must match PF-XXXX-XXXX-XXXX-XXXX")
	case errors.Is(err, license.ErrInvalidLicense):
		return apierrors.New(http.StatusUnprocessableEntity, apierrors.CodeLicenseInvalid,
			"License key could not be verified")
	case errors.Is(err, license.ErrTrialAlreadyUsed):
		return apierrors.New(http.StatusConflict, apierrors.CodeTrialUsed,
			"A trial has already been used on this device")
	case errors.Is(err, license.ErrLicenseActive):
		return apierrors.New(http.StatusConflict, apierrors.CodeLicenseActive,
			"A full license is already active")
	case errors.Is(err, license.ErrCorruptRecord):
		return apierrors.New(http.StatusConflict, apierrors.CodeCorruptRecord,
			"A stored entitlement record failed its integrity check")
	case errors.Is(err, accounts.ErrPasswordMismatch):
		return apierrors.New(http.StatusBadRequest, apierrors.CodePasswordMismatch,
			"Password confirmation does not match")
	case errors.Is(err, accounts.ErrPINMismatch):
		return apierrors.New(http.StatusBadRequest, apierrors.CodePINMismatch,
			"PIN confirmation does not match")
	case errors.Is(err, accounts.ErrInvalidPIN):
		return apierrors.New(http.StatusBadRequest, apierrors.CodePINFormatInvalid,
			"PIN must be 4 to 6 decimal digits")
	case errors.Is(err, accounts.ErrWeakPassword):
		return apierrors.New(http.StatusBadRequest, apierrors.CodePasswordTooWeak,
			"Password must be at least 8 characters")
	case errors.Is(err, accounts.ErrMissingFields), errors.Is(err, accounts.ErrInvalidRole):
		return apierrors.InvalidRequest(err)
	case errors.Is(err, accounts.ErrAdminExists):
		return apierrors.New(http.StatusConflict, apierrors.CodeAdminExists,
			"An administrator account already exists; admin self-registration is closed")
	case errors.Is(err, accounts.ErrAckRequired):
		return apierrors.New(http.StatusPreconditionRequired, apierrors.CodeAckRequired,
			"Admin registration requires the security acknowledgment")
	case errors.Is(err, accounts.ErrUsernameTaken):
		return apierrors.New(http.StatusConflict, apierrors.CodeUsernameTaken,
			"Username is already taken")
	case errors.Is(err, accounts.ErrUserNotFound):
		return apierrors.New(http.StatusNotFound, apierrors.CodeUserNotFound,
			"User not found")
	case errors.Is(err, accounts.ErrCorruptUserStore):
		return apierrors.New(http.StatusConflict, apierrors.CodeCorruptRecord,
			"The user collection failed to decode")
	default:
		return apierrors.Internal(err)
	}
}
