package dto

import (
	"github.com/noah-isme/fleet-compliance-api/internal/models"
	"github.com/noah-isme/fleet-compliance-api/pkg/compliance"
)

// ComplianceSummary is the cached dashboard payload for one company or the whole fleet.
type ComplianceSummary struct {
	CompanyID                string                               `json:"company_id,omitempty"`
	AsOf                     string                               `json:"as_of"`
	Totals                   compliance.CategoryCounts            `json:"totals"`
	Rules                    map[string]compliance.CategoryCounts `json:"rules"`
	Companies                map[string]compliance.CategoryCounts `json:"companies"`
	VehiclesNeedingAttention []VehicleAttention                   `json:"vehicles_needing_attention"`
}

// VehicleAttention is a vehicle missing a current annual inspection.
type VehicleAttention struct {
	VehicleID  string             `json:"vehicle_id"`
	CompanyID  string             `json:"company_id"`
	UnitNumber string             `json:"unit_number"`
	Type       models.VehicleType `json:"type"`
	Reason     string             `json:"reason"`
	Status     *compliance.Status `json:"status,omitempty"`
}

// DriverRow is a driver with CDL and medical card badges.
type DriverRow struct {
	models.Driver
	CDLStatus     compliance.Status   `json:"cdl_status"`
	MedicalStatus compliance.Status   `json:"medical_status"`
	Status        compliance.Category `json:"status"`
}

// Field implements compliance.Record over the driver plus its computed columns.
func (r DriverRow) Field(name string) (any, bool) {
	switch name {
	case "status":
		return string(r.Status), true
	case "cdl_status":
		return string(r.CDLStatus.Category), true
	case "cdl_days_remaining":
		return daysRemaining(r.CDLStatus), true
	case "medical_status":
		return string(r.MedicalStatus.Category), true
	case "medical_days_remaining":
		return daysRemaining(r.MedicalStatus), true
	}
	return r.Driver.Field(name)
}

// VehicleRow is a vehicle with maintenance review and latest annual inspection badges.
type VehicleRow struct {
	models.Vehicle
	MaintenanceStatus  compliance.Status   `json:"maintenance_status"`
	InspectionStatus   compliance.Status   `json:"inspection_status"`
	LatestInspectionID *string             `json:"latest_inspection_id,omitempty"`
	Status             compliance.Category `json:"status"`
}

// Field implements compliance.Record over the vehicle plus its computed columns.
func (r VehicleRow) Field(name string) (any, bool) {
	switch name {
	case "status":
		return string(r.Status), true
	case "maintenance_status":
		return string(r.MaintenanceStatus.Category), true
	case "maintenance_days_remaining":
		return daysRemaining(r.MaintenanceStatus), true
	case "inspection_status":
		return string(r.InspectionStatus.Category), true
	case "inspection_days_remaining":
		return daysRemaining(r.InspectionStatus), true
	}
	return r.Vehicle.Field(name)
}

// InspectionRow is an annual inspection with its validity badge.
type InspectionRow struct {
	models.AnnualInspection
	Status compliance.Status `json:"status"`
}

// Field implements compliance.Record over the inspection plus its computed columns.
func (r InspectionRow) Field(name string) (any, bool) {
	switch name {
	case "status":
		return string(r.Status.Category), true
	case "days_remaining":
		return daysRemaining(r.Status), true
	case "expiry_date":
		if r.Status.ExpiryDate == nil {
			return nil, true
		}
		return *r.Status.ExpiryDate, true
	}
	return r.AnnualInspection.Field(name)
}

// InspectorRow is a qualified inspector with a certification badge.
type InspectorRow struct {
	models.QualifiedInspector
	CertificationStatus compliance.Status `json:"certification_status"`
}

// Field implements compliance.Record over the inspector plus its computed columns.
func (r InspectorRow) Field(name string) (any, bool) {
	switch name {
	case "status", "certification_status":
		return string(r.CertificationStatus.Category), true
	case "days_remaining":
		return daysRemaining(r.CertificationStatus), true
	}
	return r.QualifiedInspector.Field(name)
}

// Alert entity types.
const (
	EntityDriver    = "driver"
	EntityVehicle   = "vehicle"
	EntityInspector = "inspector"
)

// AlertItem is one entity needing attention under one rule.
type AlertItem struct {
	EntityType    string             `json:"entity_type"`
	EntityID      string             `json:"entity_id"`
	EntityName    string             `json:"entity_name"`
	CompanyID     string             `json:"company_id"`
	Rule          string             `json:"rule"`
	Reason        string             `json:"reason"`
	Status        *compliance.Status `json:"status,omitempty"`
	DaysRemaining *int               `json:"days_remaining"`
	Message       string             `json:"message"`
}

// Field implements compliance.Record.
func (a AlertItem) Field(name string) (any, bool) {
	switch name {
	case "entity_type":
		return a.EntityType, true
	case "entity_id":
		return a.EntityID, true
	case "entity_name", "name":
		return a.EntityName, true
	case "company_id":
		return a.CompanyID, true
	case "rule":
		return a.Rule, true
	case "reason", "status":
		return a.Reason, true
	case "days_remaining":
		if a.DaysRemaining == nil {
			return nil, true
		}
		return *a.DaysRemaining, true
	case "message":
		return a.Message, true
	}
	return nil, false
}

// TripEligibility explains whether a trip may start.
type TripEligibility struct {
	Eligible bool     `json:"eligible"`
	Reasons  []string `json:"reasons"`
}

func daysRemaining(s compliance.Status) any {
	if s.DaysRemaining == nil {
		return nil
	}
	return *s.DaysRemaining
}
