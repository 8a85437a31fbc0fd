package accounts

import "errors"

// Sentinel errors for registration and user management. Policy violations
// are explicit rejections, never silent reinterpretations: a request for the
// admin role when an admin exists fails, it is not downgraded.
var (
	ErrPasswordMismatch = errors.New("password confirmation does not match")
	ErrPINMismatch      = errors.New("pin confirmation does not match")
	ErrInvalidPIN       = errors.New("pin must be 4 to 6 decimal digits")
	ErrWeakPassword     = errors.New("password must be at least 8 characters")
	ErrMissingFields    = errors.New("username, password, pin and full name are required")
	ErrInvalidRole      = errors.New("unknown role")
	ErrUsernameTaken    = errors.New("username is already taken")
	ErrAdminExists      = errors.New("an administrator account already exists")
	ErrAckRequired      = errors.New("admin registration requires explicit security acknowledgment")
	ErrUserNotFound     = errors.New("user not found")
	ErrCorruptUserStore = errors.New("user collection failed to decode")
)
