package models

import "time"

// QualifiedInspector is a person allowed to perform annual inspections (49 CFR 396.19).
type QualifiedInspector struct {
	ID                      string     `db:"id" json:"id"`
	CompanyID               string     `db:"company_id" json:"company_id"`
	FullName                string     `db:"full_name" json:"full_name"`
	CertificationNumber     string     `db:"certification_number" json:"certification_number"`
	Qualification           *string    `db:"qualification" json:"qualification,omitempty"`
	CertificationDate       *time.Time `db:"certification_date" json:"certification_date,omitempty"`
	CertificationExpiryDate *time.Time `db:"certification_expiry_date" json:"certification_expiry_date,omitempty"`
	Active                  bool       `db:"active" json:"active"`
	CreatedAt               time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt               time.Time  `db:"updated_at" json:"updated_at"`
}

// InspectorFilter scopes inspector listings.
type InspectorFilter struct {
	CompanyID string
	Active    *bool
}

// EntityKey implements compliance.Entity.
func (q QualifiedInspector) EntityKey() string { return q.ID }

// Field implements compliance.Record.
func (q QualifiedInspector) Field(name string) (any, bool) {
	switch name {
	case "id":
		return q.ID, true
	case "company_id":
		return q.CompanyID, true
	case "full_name", "name":
		return q.FullName, true
	case "certification_number":
		return q.CertificationNumber, true
	case "qualification":
		return optional(q.Qualification), true
	case "certification_date":
		return optional(q.CertificationDate), true
	case "certification_expiry_date":
		return optional(q.CertificationExpiryDate), true
	case "active":
		return q.Active, true
	case "created_at":
		return q.CreatedAt, true
	case "updated_at":
		return q.UpdatedAt, true
	}
	return nil, false
}
