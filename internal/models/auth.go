package models

import "github.com/golang-jwt/jwt/v5"

// JWTClaims is the access token payload issued by the identity provider.
type JWTClaims struct {
	UserID    string   `json:"user_id"`
	Role      UserRole `json:"role"`
	Email     string   `json:"email"`
	CompanyID string   `json:"company_id,omitempty"`
	jwt.RegisteredClaims
}

// CompanyScope returns the company a caller is confined to, or "" for SUPERADMIN.
func (c *JWTClaims) CompanyScope() string {
	if c == nil || c.Role == RoleSuperAdmin {
		return ""
	}
	return c.CompanyID
}
