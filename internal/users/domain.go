package users

import (
	"time"

	"github.com/qudrat-academy/qudrat/internal/access"
)

// AbilitiesCategories is shown on the admin screen only; access decisions
// never read it.
type AbilitiesCategories struct {
	Foundation  bool `json:"foundation"`
	Collections bool `json:"collections"`
}

// User represents a user account for management.
type User struct {
	ID                  int64                `json:"id"`
	Email               string               `json:"email"`
	Name                string               `json:"name"`
	Phone               string               `json:"phone,omitempty"`
	Role                access.Role          `json:"role"`
	IsActive            bool                 `json:"isActive"`
	Permissions         access.PermissionSet `json:"permissions"`
	AbilitiesCategories AbilitiesCategories  `json:"abilitiesCategories"`
	RegisteredIP        string               `json:"registeredIp,omitempty"`
	AllowMultiDevice    bool                 `json:"allowMultiDevice"`
	CreatedAt           time.Time            `json:"createdAt"`
	UpdatedAt           time.Time            `json:"updatedAt"`
}

// Principal snapshots the access-relevant fields.
func (u User) Principal() *access.Principal {
	perms := u.Permissions
	return access.NewPrincipal(u.ID, u.Role, u.IsActive, &perms)
}

// Status filters listings by activity.
type Status string

const (
	StatusAll      Status = ""
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
)

// ListFilter narrows user listings.
type ListFilter struct {
	Status Status
	Role   access.Role
	Query  string
}

// PermissionsInput replaces a user's permission flags.
type PermissionsInput struct {
	Permissions         access.PermissionSet `json:"permissions"`
	AbilitiesCategories AbilitiesCategories  `json:"abilitiesCategories"`
}
