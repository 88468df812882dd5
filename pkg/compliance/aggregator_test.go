package compliance

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type vehicle struct {
	id   string
	name string
}

func (v vehicle) EntityKey() string { return v.id }

func TestCountByCategoryTotals(t *testing.T) {
	statuses := []Status{
		{Category: CategoryValid},
		{Category: CategoryExpired},
		{Category: CategoryExpired},
		{Category: CategoryUnknown},
		{Category: CategoryExpiring},
		{Category: CategoryValid, NeverExpires: true},
	}
	counts := CountByCategory(statuses)

	assert.Equal(t, CategoryCounts{Valid: 2, Expiring: 1, Expired: 2, Unknown: 1}, counts)
	assert.Equal(t, len(statuses), counts.Total())
	assert.Zero(t, CountByCategory(nil).Total())
}

func TestCountByGroup(t *testing.T) {
	type row struct {
		company string
		status  Status
	}
	rows := []row{
		{company: "alpha", status: Status{Category: CategoryValid}},
		{company: "beta", status: Status{Category: CategoryExpired}},
		{company: "alpha", status: Status{Category: CategoryExpiring}},
	}

	grouped := CountByGroup(rows, func(r row) string { return r.company }, func(r row) Status { return r.status })

	require.Len(t, grouped, 2)
	assert.Equal(t, CategoryCounts{Valid: 1, Expiring: 1}, grouped["alpha"])
	assert.Equal(t, CategoryCounts{Expired: 1}, grouped["beta"])

	total := CategoryCounts{}
	for _, counts := range grouped {
		total.Merge(counts)
	}
	assert.Equal(t, len(rows), total.Total())
}

func TestAttentionReportFlagsExpiredAndMissing(t *testing.T) {
	now := time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC)
	v1 := vehicle{id: "v1", name: "Truck 1"}
	v2 := vehicle{id: "v2", name: "Truck 2"}
	records := map[string][]Fields{
		"v1": {{"vehicle_id": "v1", "inspection_date": now.AddDate(-2, 0, 0).Format("2006-01-02")}},
	}

	report := AttentionReport([]vehicle{v1, v2}, records, annualRule(), now)

	require.Len(t, report, 2)
	assert.Equal(t, v1, report[0].Entity)
	assert.Equal(t, ReasonExpired, report[0].Reason)
	require.NotNil(t, report[0].Status)
	assert.Equal(t, CategoryExpired, report[0].Status.Category)

	assert.Equal(t, v2, report[1].Entity)
	assert.Equal(t, ReasonMissingRecord, report[1].Reason)
	assert.Nil(t, report[1].Status)

	assert.Equal(t, []vehicle{v1, v2}, EntitiesNeedingAttention([]vehicle{v1, v2}, records, annualRule(), now))
}

func TestEntitiesNeedingAttentionSkipsValidRecord(t *testing.T) {
	now := time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC)
	a := vehicle{id: "a", name: "Truck A"}
	b := vehicle{id: "b", name: "Truck B"}
	records := map[string][]Fields{
		"b": {{"vehicle_id": "b", "inspection_date": now.AddDate(0, -2, 0).Format("2006-01-02")}},
	}

	status := Classify(records["b"][0], annualRule(), now)
	require.Equal(t, CategoryValid, status.Category)

	assert.Equal(t, []vehicle{a}, EntitiesNeedingAttention([]vehicle{a, b}, records, annualRule(), now))
}

func TestAttentionReportUsesLatestRecord(t *testing.T) {
	now := time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC)
	fresh := vehicle{id: "fresh"}
	soon := vehicle{id: "soon"}
	records := map[string][]Fields{
		"fresh": {
			{"inspection_date": "2024-01-10"},
			{"inspection_date": "2026-06-01"},
		},
		"soon": {
			{"inspection_date": "2025-10-25"},
			{"inspection_date": "2023-01-01"},
		},
	}

	report := AttentionReport([]vehicle{fresh, soon}, records, annualRule(), now)

	require.Len(t, report, 1)
	assert.Equal(t, soon, report[0].Entity)
	assert.Equal(t, ReasonExpiring, report[0].Reason)
	require.NotNil(t, report[0].Status.DaysRemaining)
	assert.Equal(t, 10, *report[0].Status.DaysRemaining)
}

func TestLatestRecordTiesAndMissingAnchors(t *testing.T) {
	rule := annualRule()

	latest, ok := LatestRecord([]Fields{
		{"id": "first", "inspection_date": "2026-03-01T08:00:00Z"},
		{"id": "second", "inspection_date": "2026-03-01T06:00:00Z"},
		{"id": "older", "inspection_date": "2025-03-01"},
	}, rule)
	require.True(t, ok)
	assert.Equal(t, "second", latest["id"])

	latest, ok = LatestRecord([]Fields{
		{"id": "a"},
		{"id": "b", "inspection_date": "not a date"},
	}, rule)
	require.True(t, ok)
	assert.Equal(t, "b", latest["id"])

	_, ok = LatestRecord([]Fields{}, rule)
	assert.False(t, ok)
}

func TestAttentionReportEmpty(t *testing.T) {
	report := AttentionReport([]vehicle{}, map[string][]Fields{}, annualRule(), time.Now())
	assert.NotNil(t, report)
	assert.Empty(t, report)
}
