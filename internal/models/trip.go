package models

import "time"

// TripStatus enumerates the trip lifecycle.
type TripStatus string

const (
	TripPlanned    TripStatus = "PLANNED"
	TripInProgress TripStatus = "IN_PROGRESS"
	TripCompleted  TripStatus = "COMPLETED"
	TripCancelled  TripStatus = "CANCELLED"
)

// CanTransition reports whether a trip may move from s to next.
func (s TripStatus) CanTransition(next TripStatus) bool {
	switch s {
	case TripPlanned:
		return next == TripInProgress || next == TripCancelled
	case TripInProgress:
		return next == TripCompleted || next == TripCancelled
	}
	return false
}

// Trip is a dispatched load assigned to a driver, truck and optional trailer.
type Trip struct {
	ID             string     `db:"id" json:"id"`
	CompanyID      string     `db:"company_id" json:"company_id"`
	DriverID       string     `db:"driver_id" json:"driver_id"`
	TruckID        string     `db:"truck_id" json:"truck_id"`
	TrailerID      *string    `db:"trailer_id" json:"trailer_id,omitempty"`
	Origin         string     `db:"origin" json:"origin"`
	Destination    string     `db:"destination" json:"destination"`
	ScheduledStart *time.Time `db:"scheduled_start" json:"scheduled_start,omitempty"`
	Status         TripStatus `db:"status" json:"status"`
	StartedAt      *time.Time `db:"started_at" json:"started_at,omitempty"`
	CompletedAt    *time.Time `db:"completed_at" json:"completed_at,omitempty"`
	CancelledAt    *time.Time `db:"cancelled_at" json:"cancelled_at,omitempty"`
	CancelReason   *string    `db:"cancel_reason" json:"cancel_reason,omitempty"`
	CreatedAt      time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time  `db:"updated_at" json:"updated_at"`
}

// TripFilter scopes trip listings.
type TripFilter struct {
	CompanyID string
	DriverID  string
	Status    TripStatus
}

// Field implements compliance.Record.
func (t Trip) Field(name string) (any, bool) {
	switch name {
	case "id":
		return t.ID, true
	case "company_id":
		return t.CompanyID, true
	case "driver_id":
		return t.DriverID, true
	case "truck_id":
		return t.TruckID, true
	case "trailer_id":
		return optional(t.TrailerID), true
	case "origin":
		return t.Origin, true
	case "destination":
		return t.Destination, true
	case "scheduled_start":
		return optional(t.ScheduledStart), true
	case "status":
		return string(t.Status), true
	case "started_at":
		return optional(t.StartedAt), true
	case "completed_at":
		return optional(t.CompletedAt), true
	case "cancelled_at":
		return optional(t.CancelledAt), true
	case "created_at":
		return t.CreatedAt, true
	case "updated_at":
		return t.UpdatedAt, true
	}
	return nil, false
}
