package models

import "time"

// Driver is a commercial driver with CDL and DOT medical card dates.
type Driver struct {
	ID                        string     `db:"id" json:"id"`
	CompanyID                 string     `db:"company_id" json:"company_id"`
	FirstName                 string     `db:"first_name" json:"first_name"`
	LastName                  string     `db:"last_name" json:"last_name"`
	Email                     *string    `db:"email" json:"email,omitempty"`
	Phone                     *string    `db:"phone" json:"phone,omitempty"`
	LicenseNumber             string     `db:"license_number" json:"license_number"`
	LicenseState              string     `db:"license_state" json:"license_state"`
	CDLClass                  *string    `db:"cdl_class" json:"cdl_class,omitempty"`
	CDLIssueDate              *time.Time `db:"cdl_issue_date" json:"cdl_issue_date,omitempty"`
	CDLExpirationDate         *time.Time `db:"cdl_expiration_date" json:"cdl_expiration_date,omitempty"`
	MedicalExamDate           *time.Time `db:"medical_exam_date" json:"medical_exam_date,omitempty"`
	MedicalCardExpirationDate *time.Time `db:"medical_card_expiration_date" json:"medical_card_expiration_date,omitempty"`
	HireDate                  *time.Time `db:"hire_date" json:"hire_date,omitempty"`
	Active                    bool       `db:"active" json:"active"`
	CreatedAt                 time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt                 time.Time  `db:"updated_at" json:"updated_at"`
}

// DriverFilter scopes driver listings.
type DriverFilter struct {
	CompanyID string
	Active    *bool
}

// FullName joins first and last name.
func (d Driver) FullName() string {
	switch {
	case d.FirstName == "":
		return d.LastName
	case d.LastName == "":
		return d.FirstName
	}
	return d.FirstName + " " + d.LastName
}

// EntityKey implements compliance.Entity.
func (d Driver) EntityKey() string { return d.ID }

// Field implements compliance.Record.
func (d Driver) Field(name string) (any, bool) {
	switch name {
	case "id":
		return d.ID, true
	case "company_id":
		return d.CompanyID, true
	case "first_name":
		return d.FirstName, true
	case "last_name":
		return d.LastName, true
	case "full_name", "name":
		return d.FullName(), true
	case "email":
		return optional(d.Email), true
	case "phone":
		return optional(d.Phone), true
	case "license_number":
		return d.LicenseNumber, true
	case "license_state":
		return d.LicenseState, true
	case "cdl_class":
		return optional(d.CDLClass), true
	case "cdl_issue_date":
		return optional(d.CDLIssueDate), true
	case "cdl_expiration_date":
		return optional(d.CDLExpirationDate), true
	case "medical_exam_date":
		return optional(d.MedicalExamDate), true
	case "medical_card_expiration_date":
		return optional(d.MedicalCardExpirationDate), true
	case "hire_date":
		return optional(d.HireDate), true
	case "active":
		return d.Active, true
	case "created_at":
		return d.CreatedAt, true
	case "updated_at":
		return d.UpdatedAt, true
	}
	return nil, false
}
