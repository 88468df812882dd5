package models

import "time"

// Notification is a persisted compliance alert, at most one per entity, rule and day.
type Notification struct {
	ID            string     `db:"id" json:"id"`
	CompanyID     *string    `db:"company_id" json:"company_id,omitempty"`
	EntityType    string     `db:"entity_type" json:"entity_type"`
	EntityID      string     `db:"entity_id" json:"entity_id"`
	EntityName    string     `db:"entity_name" json:"entity_name"`
	Rule          string     `db:"rule" json:"rule"`
	Reason        string     `db:"reason" json:"reason"`
	DaysRemaining *int       `db:"days_remaining" json:"days_remaining,omitempty"`
	Message       string     `db:"message" json:"message"`
	NotifyDate    time.Time  `db:"notify_date" json:"notify_date"`
	ReadAt        *time.Time `db:"read_at" json:"read_at,omitempty"`
	CreatedAt     time.Time  `db:"created_at" json:"created_at"`
}

// NotificationFilter scopes notification listings.
type NotificationFilter struct {
	CompanyID  string
	UnreadOnly bool
	Page       int
	PageSize   int
}
