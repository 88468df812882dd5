package compliance

import (
	"encoding/json"
	"fmt"
	"time"
)

// Category is the compliance classification of a record.
type Category string

const (
	CategoryValid    Category = "valid"
	CategoryExpiring Category = "expiring"
	CategoryExpired  Category = "expired"
	CategoryUnknown  Category = "unknown"
)

// Severity orders categories from least to most urgent.
func (c Category) Severity() int {
	switch c {
	case CategoryExpired:
		return 3
	case CategoryExpiring:
		return 2
	case CategoryUnknown:
		return 1
	default:
		return 0
	}
}

// ParseCategory maps user input to a category.
func ParseCategory(raw string) (Category, bool) {
	switch Category(raw) {
	case CategoryValid, CategoryExpiring, CategoryExpired, CategoryUnknown:
		return Category(raw), true
	default:
		return "", false
	}
}

// Status is the outcome of Classify. It is computed on demand and never stored.
//
// DaysRemaining is nil when the category is unknown or the record never expires;
// NeverExpires tells the two apart.
type Status struct {
	Category      Category   `json:"category"`
	ExpiryDate    *time.Time `json:"expiry_date"`
	DaysRemaining *int       `json:"days_remaining"`
	NeverExpires  bool       `json:"never_expires"`
}

// Classify evaluates rec against rule at now.
func Classify(rec Record, rule ExpirationRule, now time.Time) Status {
	expiry := rule.ResolveExpiry(rec)
	switch expiry.Tag {
	case ExpiryUnresolved:
		return Status{Category: CategoryUnknown}
	case ExpiryNone:
		return Status{Category: CategoryValid, NeverExpires: true}
	}

	date := expiry.Date
	days := DaysBetween(now, date)
	status := Status{ExpiryDate: &date, DaysRemaining: &days}
	switch {
	case days < 0:
		status.Category = CategoryExpired
	case days <= rule.WarningWindowDays:
		status.Category = CategoryExpiring
	default:
		status.Category = CategoryValid
	}
	return status
}

// NeedsAttention reports whether the status is expiring or expired.
func (s Status) NeedsAttention() bool {
	return s.Category == CategoryExpiring || s.Category == CategoryExpired
}

// Label renders the remaining or overdue day count for badges.
func (s Status) Label() string {
	switch {
	case s.Category == CategoryUnknown:
		return "unknown"
	case s.NeverExpires:
		return "no expiry"
	case s.DaysRemaining == nil:
		return string(s.Category)
	}
	days := *s.DaysRemaining
	switch {
	case days < 0:
		return fmt.Sprintf("overdue by %s", pluralDays(-days))
	case days == 0:
		return "expires today"
	default:
		return fmt.Sprintf("expires in %s", pluralDays(days))
	}
}

// MarshalJSON adds the rendered label to the payload.
func (s Status) MarshalJSON() ([]byte, error) {
	type plain Status
	return json.Marshal(struct {
		plain
		Label string `json:"label"`
	}{plain: plain(s), Label: s.Label()})
}

// Worst returns the most severe status; ties keep the earliest argument.
func Worst(statuses ...Status) Status {
	if len(statuses) == 0 {
		return Status{Category: CategoryUnknown}
	}
	worst := statuses[0]
	for _, status := range statuses[1:] {
		if status.Category.Severity() > worst.Category.Severity() {
			worst = status
		}
	}
	return worst
}

func pluralDays(n int) string {
	if n == 1 {
		return "1 day"
	}
	return fmt.Sprintf("%d days", n)
}
