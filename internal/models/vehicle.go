package models

import "time"

// VehicleType distinguishes power units from trailers.
type VehicleType string

const (
	VehicleTypeTruck   VehicleType = "TRUCK"
	VehicleTypeTrailer VehicleType = "TRAILER"
)

// Vehicle is a truck or trailer subject to periodic inspection.
type Vehicle struct {
	ID                        string      `db:"id" json:"id"`
	CompanyID                 string      `db:"company_id" json:"company_id"`
	UnitNumber                string      `db:"unit_number" json:"unit_number"`
	Type                      VehicleType `db:"type" json:"type"`
	VIN                       string      `db:"vin" json:"vin"`
	Make                      *string     `db:"make" json:"make,omitempty"`
	Model                     *string     `db:"model" json:"model,omitempty"`
	Year                      *int        `db:"year" json:"year,omitempty"`
	LicensePlate              *string     `db:"license_plate" json:"license_plate,omitempty"`
	PlateState                *string     `db:"plate_state" json:"plate_state,omitempty"`
	LastMaintenanceReviewDate *time.Time  `db:"last_maintenance_review_date" json:"last_maintenance_review_date,omitempty"`
	Active                    bool        `db:"active" json:"active"`
	CreatedAt                 time.Time   `db:"created_at" json:"created_at"`
	UpdatedAt                 time.Time   `db:"updated_at" json:"updated_at"`
}

// VehicleFilter scopes vehicle listings.
type VehicleFilter struct {
	CompanyID string
	Type      VehicleType
	Active    *bool
}

// EntityKey implements compliance.Entity.
func (v Vehicle) EntityKey() string { return v.ID }

// Field implements compliance.Record.
func (v Vehicle) Field(name string) (any, bool) {
	switch name {
	case "id":
		return v.ID, true
	case "company_id":
		return v.CompanyID, true
	case "unit_number":
		return v.UnitNumber, true
	case "type":
		return string(v.Type), true
	case "vin":
		return v.VIN, true
	case "make":
		return optional(v.Make), true
	case "model":
		return optional(v.Model), true
	case "year":
		return optional(v.Year), true
	case "license_plate":
		return optional(v.LicensePlate), true
	case "plate_state":
		return optional(v.PlateState), true
	case "last_maintenance_review_date":
		return optional(v.LastMaintenanceReviewDate), true
	case "active":
		return v.Active, true
	case "created_at":
		return v.CreatedAt, true
	case "updated_at":
		return v.UpdatedAt, true
	}
	return nil, false
}
