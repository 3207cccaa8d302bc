package model

import (
	"time"

	"github.com/google/uuid"
)

// User role constants, ordered by privilege
const (
	RoleViewer     = "viewer"
	RoleTechnician = "technician"
	RoleManager    = "manager"
	RoleAdmin      = "admin"
)

// RoleRank returns the privilege rank of a role; unknown roles rank
// below viewer.
func RoleRank(role string) int {
	switch role {
	case RoleViewer:
		return 1
	case RoleTechnician:
		return 2
	case RoleManager:
		return 3
	case RoleAdmin:
		return 4
	default:
		return 0
	}
}

// ValidRole reports whether role is one of the four known tiers.
func ValidRole(role string) bool {
	return RoleRank(role) > 0
}

// User represents a registered account
type User struct {
	Base
	OrganizationID      *uuid.UUID `json:"organization_id" db:"organization_id"`
	Email               string     `json:"email" db:"email"`
	PasswordHash        string     `json:"-" db:"password_hash"`
	Name                *string    `json:"name" db:"name"`
	Phone               *string    `json:"phone" db:"phone"`
	Role                string     `json:"role" db:"role"`
	IsActive            bool       `json:"is_active" db:"is_active"`
	LastLoginAt         *time.Time `json:"last_login_at" db:"last_login_at"`
	FailedLoginAttempts int        `json:"-" db:"failed_login_attempts"`
	LockedUntil         *time.Time `json:"-" db:"locked_until"`
}

// Sanitized returns a copy safe to hand to transport layers.
func (u *User) Sanitized() *User {
	out := *u
	out.PasswordHash = ""
	out.FailedLoginAttempts = 0
	out.LockedUntil = nil
	return &out
}

// Organization represents a tenant that owns users
type Organization struct {
	Base
	Name      string  `json:"name" db:"name"`
	SeatLimit int     `json:"seat_limit" db:"seat_limit"`
	Settings  JSONMap `json:"settings" db:"settings"`
}

// Session ties a user to one opaque device session token
type Session struct {
	ID                uuid.UUID `json:"id" db:"id"`
	UserID            uuid.UUID `json:"user_id" db:"user_id"`
	Token             string    `json:"-" db:"session_token"`
	DeviceFingerprint *string   `json:"device_fingerprint" db:"device_fingerprint"`
	IPAddress         *string   `json:"ip_address" db:"ip_address"`
	UserAgent         *string   `json:"user_agent" db:"user_agent"`
	ExpiresAt         time.Time `json:"expires_at" db:"expires_at"`
	CreatedAt         time.Time `json:"created_at" db:"created_at"`
}

// Expired reports whether the session has passed its expiry at now.
func (s *Session) Expired(now time.Time) bool {
	return s.ExpiresAt.Before(now)
}

// LoginAttempt is an append-only login audit row used for throttling
type LoginAttempt struct {
	ID        uuid.UUID `json:"id" db:"id"`
	Email     string    `json:"email" db:"email"`
	IPAddress *string   `json:"ip_address" db:"ip_address"`
	Success   bool      `json:"success" db:"success"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// DeviceContext carries optional client metadata attached to a session
type DeviceContext struct {
	Fingerprint *string `json:"device_fingerprint"`
	IPAddress   *string `json:"ip_address"`
	UserAgent   *string `json:"user_agent"`
}

// RegisterRequest represents registration parameters
type RegisterRequest struct {
	Email          string     `json:"email" binding:"required,email"`
	Password       string     `json:"password" binding:"required,min=8,strongpassword"`
	Name           *string    `json:"name"`
	Phone          *string    `json:"phone"`
	OrganizationID *uuid.UUID `json:"organization_id"`
	Role           string     `json:"role" binding:"omitempty,oneof=viewer technician manager admin"`
}

// LoginRequest represents login parameters
type LoginRequest struct {
	Email             string  `json:"email" binding:"required,email"`
	Password          string  `json:"password" binding:"required"`
	DeviceFingerprint *string `json:"device_fingerprint"`
	UserAgent         *string `json:"user_agent"`
}

// LoginResult is the payload returned on successful login
type LoginResult struct {
	User  *User  `json:"user"`
	Token string `json:"token"`
}

// ChangePasswordRequest represents password change parameters
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" binding:"required"`
	NewPassword     string `json:"new_password" binding:"required,min=8,strongpassword"`
}

// CreateOrganizationRequest represents organization creation parameters
type CreateOrganizationRequest struct {
	Name      string `json:"name" binding:"required"`
	SeatLimit int    `json:"seat_limit" binding:"omitempty,min=1"`
}

// ChangeRoleRequest represents role change parameters
type ChangeRoleRequest struct {
	Role string `json:"role" binding:"required,oneof=viewer technician manager admin"`
}
