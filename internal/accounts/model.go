package accounts

import (
	"time"

	"golang.org/x/crypto/bcrypt"
)

// Role is a closed two-variant enumeration. Role-dependent branches switch
// on it exhaustively instead of comparing ad hoc strings.
type Role string

const (
	// RoleAdmin has full system access. At most one admin can ever be
	// created through public self-registration.
	RoleAdmin Role = "admin"
	// RoleCashier is the restricted default role for registered staff.
	RoleCashier Role = "kasir"
)

// Valid reports whether r is one of the two known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleCashier:
		return true
	}
	return false
}

// UserAccount is the stored account record. Credentials are bcrypt hashes;
// the raw password and PIN are never persisted and never exposed — callers
// get only the Verify methods.
type UserAccount struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	PasswordHash []byte    `json:"password_hash"`
	PINHash      []byte    `json:"pin_hash"`
	FullName     string    `json:"full_name"`
	Role         Role      `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// VerifyPassword checks a password candidate against the stored hash.
func (u *UserAccount) VerifyPassword(input string) bool {
	return bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(input)) == nil
}

// VerifyPIN checks a PIN candidate against the stored hash.
func (u *UserAccount) VerifyPIN(input string) bool {
	return bcrypt.CompareHashAndPassword(u.PINHash, []byte(input)) == nil
}

// Public is the representation safe to return to callers: no hash material.
type Public struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	FullName  string    `json:"full_name"`
	Role      Role      `json:"role"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Public strips credential material from the record.
func (u *UserAccount) Public() Public {
	return Public{
		ID:        u.ID,
		Username:  u.Username,
		FullName:  u.FullName,
		Role:      u.Role,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}
