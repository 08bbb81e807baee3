package auth

import (
	"time"

	"github.com/qudrat-academy/qudrat/internal/access"
)

// User represents an authenticated user account.
type User struct {
	ID           int64
	Email        string
	Name         string
	PasswordHash string
	Role         access.Role
	IsActive     bool
	RegisteredIP string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// NewUser carries a self-registration.
type NewUser struct {
	Email        string
	Name         string
	Phone        string
	PasswordHash string
	RegisteredIP string
}

// DevicePolicy restricts students to the device they registered from.
type DevicePolicy struct {
	RegisteredIP     string
	AllowMultiDevice bool
}

// Allows reports whether a request from ip is permitted.
func (d DevicePolicy) Allows(ip string) bool {
	if d.AllowMultiDevice || d.RegisteredIP == "" {
		return true
	}
	return ip != "" && ip == d.RegisteredIP
}

// Identity is the per-request view of the signed-in user.
type Identity struct {
	Principal *access.Principal `json:"principal"`
	Email     string            `json:"email"`
	Name      string            `json:"name"`
	Device    DevicePolicy      `json:"-"`
}

type registerRequest struct {
	Email    string `json:"email" validate:"required,email,max=254"`
	Password string `json:"password" validate:"required,min=8,max=72"`
	Name     string `json:"name" validate:"required,max=120"`
	Phone    string `json:"phone" validate:"omitempty,max=32"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type loginResponse struct {
	Token     string            `json:"token"`
	ExpiresAt time.Time         `json:"expiresAt"`
	User      *access.Principal `json:"user"`
	CSRFToken string            `json:"csrfToken,omitempty"`
}
