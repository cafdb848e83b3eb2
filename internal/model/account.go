package model

import "time"

// Role is the closed set of account roles. Tokens carrying any other
// value are rejected during validation, so downstream code never needs
// to re-check the string.
type Role string

const (
	RoleStudent    Role = "student"
	RoleInstructor Role = "instructor"
	RoleAdmin      Role = "admin"
)

// Valid reports whether r is a member of the role enumeration.
func (r Role) Valid() bool {
	switch r {
	case RoleStudent, RoleInstructor, RoleAdmin:
		return true
	}
	return false
}

// Account represents a user account. Accounts are never physically
// deleted in the normal flow; deactivation is a soft state.
type Account struct {
	ID           int       `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	Role         Role      `json:"role"`
	Bio          string    `json:"bio,omitempty"`
	AvatarURL    string    `json:"avatar_url,omitempty"`
	PasswordHash string    `json:"-"`
	Active       bool      `json:"active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// RegisterRequest is the payload for creating a new account.
// Admin accounts cannot be self-registered; see cmd/create-admin.
type RegisterRequest struct {
	Email    string `json:"email" binding:"required,email,max=255"`
	Name     string `json:"name" binding:"required,min=2,max=100"`
	Password string `json:"password" binding:"required,min=8,max=128"`
	Role     string `json:"role" binding:"required,oneof=student instructor"`
}

// LoginRequest is the payload for authentication.
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=1,max=128"`
}

// LoginResponse is returned after a successful login or refresh. The
// rotating refresh token travels only in the HTTP-only cookie.
type LoginResponse struct {
	AccessToken string  `json:"access_token"`
	Account     Account `json:"account"`
}

// UpdateProfileRequest is the payload for editing the caller's profile.
type UpdateProfileRequest struct {
	Name      string `json:"name" binding:"required,min=2,max=100"`
	Bio       string `json:"bio" binding:"max=2000"`
	AvatarURL string `json:"avatar_url" binding:"omitempty,url,max=500"`
}

// ChangePasswordRequest is the payload for changing the caller's password.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" binding:"required,min=1,max=128"`
	NewPassword     string `json:"new_password" binding:"required,min=8,max=128"`
}
