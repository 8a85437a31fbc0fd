// Package domain holds the canonical wire contract types shared between the
// core and the POS UI layer.
package domain

import "time"

// EntitlementStatusResponse is the answer to GET /api/entitlement.
type EntitlementStatusResponse struct {
	State       string     `json:"state"` // NONE|TRIAL_ACTIVE|TRIAL_EXPIRED|FULL_ACTIVE
	Entitled    bool       `json:"entitled"`
	DaysLeft    int        `json:"days_left"`
	TrialEndsAt *time.Time `json:"trial_ends_at,omitempty"`
	ActivatedAt *time.Time `json:"activated_at,omitempty"`
	LicenseKey  string     `json:"license_key,omitempty"`
	TraceID     string     `json:"trace_id"`
	Timestamp   time.Time  `json:"timestamp"`
}

// TrialStartResponse is returned when a trial begins.
type TrialStartResponse struct {
	StartedAt time.Time `json:"started_at"`
	ExpiresAt time.Time `json:"expires_at"`
	DaysLeft  int       `json:"days_left"`
	TraceID   string    `json:"trace_id"`
}

// LicenseActivationRequest carries a license key and its issuer signature.
// The signature is base64; it arrives with the key on the activation card.
type LicenseActivationRequest struct {
	LicenseKey string `json:"license_key" validate:"required"`
	Signature  string `json:"signature" validate:"required,base64"`
}

// LicenseActivationResponse confirms a successful activation.
type LicenseActivationResponse struct {
	Success     bool      `json:"success"`
	LicenseKey  string    `json:"license_key"`
	ActivatedAt time.Time `json:"activated_at"`
	TraceID     string    `json:"trace_id"`
}
