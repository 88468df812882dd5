package compliance

import "time"

// CategoryCounts tallies statuses per category.
type CategoryCounts struct {
	Valid    int `json:"valid"`
	Expiring int `json:"expiring"`
	Expired  int `json:"expired"`
	Unknown  int `json:"unknown"`
}

// Add counts one status of the given category.
func (c *CategoryCounts) Add(category Category) {
	switch category {
	case CategoryValid:
		c.Valid++
	case CategoryExpiring:
		c.Expiring++
	case CategoryExpired:
		c.Expired++
	default:
		c.Unknown++
	}
}

// Merge adds other into c.
func (c *CategoryCounts) Merge(other CategoryCounts) {
	c.Valid += other.Valid
	c.Expiring += other.Expiring
	c.Expired += other.Expired
	c.Unknown += other.Unknown
}

// Total is the number of counted statuses.
func (c CategoryCounts) Total() int {
	return c.Valid + c.Expiring + c.Expired + c.Unknown
}

// CountByCategory tallies statuses; the total always equals len(statuses).
func CountByCategory(statuses []Status) CategoryCounts {
	var counts CategoryCounts
	for _, status := range statuses {
		counts.Add(status.Category)
	}
	return counts
}

// CountByGroup tallies statuses per group key, e.g. per company.
func CountByGroup[T any](items []T, group func(T) string, status func(T) Status) map[string]CategoryCounts {
	result := make(map[string]CategoryCounts)
	for _, item := range items {
		key := group(item)
		counts := result[key]
		counts.Add(status(item).Category)
		result[key] = counts
	}
	return result
}

// Entity is anything records can be grouped under, e.g. a vehicle.
type Entity interface {
	EntityKey() string
}

// AttentionReason explains why an entity needs attention.
type AttentionReason string

const (
	ReasonMissingRecord AttentionReason = "missing_record"
	ReasonExpiring      AttentionReason = "expiring"
	ReasonExpired       AttentionReason = "expired"
)

// Attention is an entity flagged by AttentionReport. Status is nil when the
// entity has no records.
type Attention[E Entity] struct {
	Entity E
	Reason AttentionReason
	Status *Status
}

// LatestRecord picks the record with the most recent anchor date. Ties go to the
// record appearing later in input. When no anchor resolves, the last record wins.
func LatestRecord[R Record](records []R, rule ExpirationRule) (R, bool) {
	var (
		latest     R
		latestDate time.Time
		found      bool
	)
	if len(records) == 0 {
		return latest, false
	}
	for _, rec := range records {
		anchor, ok := rule.ResolveAnchor(rec)
		if !ok {
			continue
		}
		if !found || DaysBetween(latestDate, anchor) >= 0 {
			latest, latestDate, found = rec, anchor, true
		}
	}
	if !found {
		return records[len(records)-1], true
	}
	return latest, true
}

// AttentionReport returns, in input order, the entities that have no records or
// whose latest record classifies expiring or expired.
func AttentionReport[E Entity, R Record](entities []E, recordsByEntity map[string][]R, rule ExpirationRule, now time.Time) []Attention[E] {
	result := make([]Attention[E], 0)
	for _, entity := range entities {
		latest, ok := LatestRecord(recordsByEntity[entity.EntityKey()], rule)
		if !ok {
			result = append(result, Attention[E]{Entity: entity, Reason: ReasonMissingRecord})
			continue
		}
		status := Classify(latest, rule, now)
		switch status.Category {
		case CategoryExpired:
			result = append(result, Attention[E]{Entity: entity, Reason: ReasonExpired, Status: &status})
		case CategoryExpiring:
			result = append(result, Attention[E]{Entity: entity, Reason: ReasonExpiring, Status: &status})
		}
	}
	return result
}

// EntitiesNeedingAttention is AttentionReport without the reasons.
func EntitiesNeedingAttention[E Entity, R Record](entities []E, recordsByEntity map[string][]R, rule ExpirationRule, now time.Time) []E {
	report := AttentionReport(entities, recordsByEntity, rule, now)
	result := make([]E, 0, len(report))
	for _, item := range report {
		result = append(result, item.Entity)
	}
	return result
}
