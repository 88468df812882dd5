package models

import "time"

// AnnualInspection is a periodic vehicle inspection under 49 CFR 396.17.
type AnnualInspection struct {
	ID             string     `db:"id" json:"id"`
	CompanyID      string     `db:"company_id" json:"company_id"`
	VehicleID      string     `db:"vehicle_id" json:"vehicle_id"`
	InspectorID    *string    `db:"inspector_id" json:"inspector_id,omitempty"`
	InspectionDate *time.Time `db:"inspection_date" json:"inspection_date,omitempty"`
	Location       *string    `db:"location" json:"location,omitempty"`
	Passed         bool       `db:"passed" json:"passed"`
	Defects        *string    `db:"defects" json:"defects,omitempty"`
	Notes          *string    `db:"notes" json:"notes,omitempty"`
	CreatedAt      time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time  `db:"updated_at" json:"updated_at"`
}

// InspectionFilter scopes inspection listings.
type InspectionFilter struct {
	CompanyID string
	VehicleID string
}

// Field implements compliance.Record.
func (i AnnualInspection) Field(name string) (any, bool) {
	switch name {
	case "id":
		return i.ID, true
	case "company_id":
		return i.CompanyID, true
	case "vehicle_id":
		return i.VehicleID, true
	case "inspector_id":
		return optional(i.InspectorID), true
	case "inspection_date":
		return optional(i.InspectionDate), true
	case "location":
		return optional(i.Location), true
	case "passed":
		return i.Passed, true
	case "defects":
		return optional(i.Defects), true
	case "notes":
		return optional(i.Notes), true
	case "created_at":
		return i.CreatedAt, true
	case "updated_at":
		return i.UpdatedAt, true
	}
	return nil, false
}

// GroupInspectionsByVehicle indexes inspections by vehicle id, keeping input order.
func GroupInspectionsByVehicle(inspections []AnnualInspection) map[string][]AnnualInspection {
	grouped := make(map[string][]AnnualInspection)
	for _, inspection := range inspections {
		grouped[inspection.VehicleID] = append(grouped[inspection.VehicleID], inspection)
	}
	return grouped
}
