package models

import "time"

// DVIRType is when the report was taken relative to the trip.
type DVIRType string

const (
	DVIRPreTrip  DVIRType = "PRE_TRIP"
	DVIRPostTrip DVIRType = "POST_TRIP"
)

// DVIRStatus tracks the review lifecycle.
type DVIRStatus string

const (
	DVIRStatusSubmitted DVIRStatus = "SUBMITTED"
	DVIRStatusReviewed  DVIRStatus = "REVIEWED"
)

// DVIRReviewOutcome is the certification recorded by the reviewer (49 CFR 396.13).
type DVIRReviewOutcome string

const (
	DVIRDefectsCorrected    DVIRReviewOutcome = "defects_corrected"
	DVIRCorrectionNotNeeded DVIRReviewOutcome = "correction_not_needed"
)

// DVIR is a driver vehicle inspection report.
type DVIR struct {
	ID             string             `db:"id" json:"id"`
	CompanyID      string             `db:"company_id" json:"company_id"`
	DriverID       string             `db:"driver_id" json:"driver_id"`
	VehicleID      string             `db:"vehicle_id" json:"vehicle_id"`
	TripID         *string            `db:"trip_id" json:"trip_id,omitempty"`
	InspectionType DVIRType           `db:"inspection_type" json:"inspection_type"`
	Odometer       *int               `db:"odometer" json:"odometer,omitempty"`
	DefectsFound   bool               `db:"defects_found" json:"defects_found"`
	Defects        *string            `db:"defects" json:"defects,omitempty"`
	Status         DVIRStatus         `db:"status" json:"status"`
	ReviewOutcome  *DVIRReviewOutcome `db:"review_outcome" json:"review_outcome,omitempty"`
	ReviewedBy     *string            `db:"reviewed_by" json:"reviewed_by,omitempty"`
	ReviewedAt     *time.Time         `db:"reviewed_at" json:"reviewed_at,omitempty"`
	ReviewNotes    *string            `db:"review_notes" json:"review_notes,omitempty"`
	SubmittedAt    time.Time          `db:"submitted_at" json:"submitted_at"`
	CreatedAt      time.Time          `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time          `db:"updated_at" json:"updated_at"`
}

// DVIRFilter scopes DVIR listings.
type DVIRFilter struct {
	CompanyID string
	DriverID  string
	VehicleID string
	Status    DVIRStatus
}

// Field implements compliance.Record.
func (d DVIR) Field(name string) (any, bool) {
	switch name {
	case "id":
		return d.ID, true
	case "company_id":
		return d.CompanyID, true
	case "driver_id":
		return d.DriverID, true
	case "vehicle_id":
		return d.VehicleID, true
	case "trip_id":
		return optional(d.TripID), true
	case "inspection_type":
		return string(d.InspectionType), true
	case "odometer":
		return optional(d.Odometer), true
	case "defects_found":
		return d.DefectsFound, true
	case "defects":
		return optional(d.Defects), true
	case "status":
		return string(d.Status), true
	case "review_outcome":
		if d.ReviewOutcome == nil {
			return nil, true
		}
		return string(*d.ReviewOutcome), true
	case "reviewed_by":
		return optional(d.ReviewedBy), true
	case "reviewed_at":
		return optional(d.ReviewedAt), true
	case "submitted_at":
		return d.SubmittedAt, true
	case "created_at":
		return d.CreatedAt, true
	case "updated_at":
		return d.UpdatedAt, true
	}
	return nil, false
}
