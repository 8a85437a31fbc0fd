package domain

import "time"

// BootstrapStatusResponse is the answer to GET /api/accounts/bootstrap.
type BootstrapStatusResponse struct {
	AdminExists          bool   `json:"admin_exists"`
	CanSelfRegisterAdmin bool   `json:"can_self_register_admin"`
	TraceID              string `json:"trace_id"`
}

// RegisterRequest is the self-registration payload. SecurityAck must be true
// when requesting the admin role: it is the operator's one-time
// acknowledgment that admin accounts gain full system access and close off
// further self-service admin creation.
type RegisterRequest struct {
	Username        string `json:"username" validate:"required"`
	Password        string `json:"password" validate:"required"`
	PasswordConfirm string `json:"password_confirm" validate:"required"`
	PIN             string `json:"pin" validate:"required"`
	PINConfirm      string `json:"pin_confirm" validate:"required"`
	FullName        string `json:"full_name" validate:"required"`
	Role            string `json:"role" validate:"required,oneof=admin kasir"`
	SecurityAck     bool   `json:"security_ack"`
}

// UserRequest is the admin-managed create/update payload. Password and PIN
// may be empty on update to keep the stored credentials.
type UserRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password"`
	PIN      string `json:"pin"`
	FullName string `json:"full_name" validate:"required"`
	Role     string `json:"role" validate:"required,oneof=admin kasir"`
}

// UserResponse is an account record with credential material stripped.
type UserResponse struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	FullName  string    `json:"full_name"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// UserListResponse wraps the admin user listing.
type UserListResponse struct {
	Users   []UserResponse `json:"users"`
	TraceID string         `json:"trace_id"`
}
