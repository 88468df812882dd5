package models

import "time"

// Company is a motor carrier operating drivers and vehicles.
type Company struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	DOTNumber *string   `db:"dot_number" json:"dot_number,omitempty"`
	MCNumber  *string   `db:"mc_number" json:"mc_number,omitempty"`
	Address   *string   `db:"address" json:"address,omitempty"`
	Phone     *string   `db:"phone" json:"phone,omitempty"`
	Email     *string   `db:"email" json:"email,omitempty"`
	Active    bool      `db:"active" json:"active"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// CompanyFilter scopes company listings.
type CompanyFilter struct {
	Active *bool
}

// EntityKey implements compliance.Entity.
func (c Company) EntityKey() string { return c.ID }

// Field implements compliance.Record.
func (c Company) Field(name string) (any, bool) {
	switch name {
	case "id":
		return c.ID, true
	case "name":
		return c.Name, true
	case "dot_number":
		return optional(c.DOTNumber), true
	case "mc_number":
		return optional(c.MCNumber), true
	case "address":
		return optional(c.Address), true
	case "phone":
		return optional(c.Phone), true
	case "email":
		return optional(c.Email), true
	case "active":
		return c.Active, true
	case "created_at":
		return c.CreatedAt, true
	case "updated_at":
		return c.UpdatedAt, true
	}
	return nil, false
}
