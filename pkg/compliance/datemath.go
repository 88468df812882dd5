package compliance

import (
	"strings"
	"time"
)

const secondsPerDay = 24 * 60 * 60

var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// Period is a calendar offset applied with AddPeriod.
type Period struct {
	Years int `json:"years,omitempty" toml:"years"`
	Days  int `json:"days,omitempty" toml:"days"`
}

// IsZero reports whether the period adds nothing.
func (p Period) IsZero() bool {
	return p.Years == 0 && p.Days == 0
}

// ParseDate accepts time values and ISO-8601 date or datetime strings. It returns
// false for nil, empty, zero and unparseable input instead of failing.
func ParseDate(value any) (time.Time, bool) {
	switch v := value.(type) {
	case nil:
		return time.Time{}, false
	case time.Time:
		return v, !v.IsZero()
	case *time.Time:
		if v == nil || v.IsZero() {
			return time.Time{}, false
		}
		return *v, true
	case string:
		return parseDateString(v)
	case *string:
		if v == nil {
			return time.Time{}, false
		}
		return parseDateString(*v)
	default:
		return time.Time{}, false
	}
}

func parseDateString(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// AddPeriod adds the period using time.AddDate normalisation, so Feb 29 plus one
// year lands on Mar 1.
func AddPeriod(t time.Time, p Period) time.Time {
	return t.AddDate(p.Years, 0, p.Days)
}

// DaysBetween returns b - a in whole calendar days. Each value is reduced to its
// own calendar date first, so time of day never matters.
func DaysBetween(a, b time.Time) int {
	return int((calendarDay(b).Unix() - calendarDay(a).Unix()) / secondsPerDay)
}

func calendarDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
