package license

import "errors"

// Sentinel errors for entitlement operations. The transport layer maps these
// to HTTP problem details; nothing in this package terminates the process.
var (
	// ErrInvalidFormat is returned for keys that do not match
	// PF-XXXX-XXXX-XXXX-XXXX.
	ErrInvalidFormat = errors.New("invalid license key format")

	// ErrInvalidLicense is returned for well-formed keys whose signature does
	// not verify against the issuer public key.
	ErrInvalidLicense = errors.New("license key verification failed")

	// ErrCorruptRecord is returned when a persisted record fails its
	// integrity check.
	ErrCorruptRecord = errors.New("persisted record failed integrity check")

	// ErrTrialAlreadyUsed is returned when a trial was already started for
	// this device fingerprint, or an earlier trial record is still present.
	ErrTrialAlreadyUsed = errors.New("trial already used on this device")

	// ErrLicenseActive is returned when a trial start is requested while a
	// full license is in effect.
	ErrLicenseActive = errors.New("a full license is already active")
)
