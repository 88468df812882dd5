package models

import "time"

// UserRole represents the available roles for the RBAC system.
type UserRole string

const (
	RoleSuperAdmin UserRole = "SUPERADMIN"
	RoleAdmin      UserRole = "ADMIN"
	RoleManager    UserRole = "MANAGER"
	RoleInspector  UserRole = "INSPECTOR"
	RoleDriver     UserRole = "DRIVER"
)

// Valid reports whether r is a known role.
func (r UserRole) Valid() bool {
	switch r {
	case RoleSuperAdmin, RoleAdmin, RoleManager, RoleInspector, RoleDriver:
		return true
	}
	return false
}

// User represents an application user stored in the users table.
// Users other than SUPERADMIN belong to exactly one company.
type User struct {
	ID           string     `db:"id" json:"id"`
	CompanyID    *string    `db:"company_id" json:"company_id,omitempty"`
	Email        string     `db:"email" json:"email"`
	PasswordHash string     `db:"password_hash" json:"-"`
	FullName     string     `db:"full_name" json:"full_name"`
	Role         UserRole   `db:"role" json:"role"`
	Active       bool       `db:"active" json:"active"`
	LastLogin    *time.Time `db:"last_login" json:"last_login,omitempty"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at" json:"updated_at"`
}

// UserFilter captures filtering criteria for listing users.
type UserFilter struct {
	CompanyID string
	Role      *UserRole
	Active    *bool
}

// Field implements compliance.Record. The password hash is never exposed.
func (u User) Field(name string) (any, bool) {
	switch name {
	case "id":
		return u.ID, true
	case "company_id":
		return optional(u.CompanyID), true
	case "email":
		return u.Email, true
	case "full_name", "name":
		return u.FullName, true
	case "role":
		return string(u.Role), true
	case "active":
		return u.Active, true
	case "last_login":
		return optional(u.LastLogin), true
	case "created_at":
		return u.CreatedAt, true
	case "updated_at":
		return u.UpdatedAt, true
	}
	return nil, false
}
