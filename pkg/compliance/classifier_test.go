package compliance

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var classifierNow = time.Date(2026, 10, 15, 9, 30, 0, 0, time.UTC)

func explicitRule(window int) ExpirationRule {
	return ExpirationRule{Name: "certificate", AnchorField: "issued_at", Validity: Explicit("expires_at"), WarningWindowDays: window}
}

func annualRule() ExpirationRule {
	return ExpirationRule{Name: "annual_inspection", AnchorField: "inspection_date", Validity: Duration(1, 0), WarningWindowDays: 30}
}

func TestClassifyBoundaryInclusivity(t *testing.T) {
	rule := explicitRule(30)
	cases := []struct {
		offset   int
		expected Category
	}{
		{offset: 31, expected: CategoryValid},
		{offset: 30, expected: CategoryExpiring},
		{offset: 1, expected: CategoryExpiring},
		{offset: 0, expected: CategoryExpiring},
		{offset: -1, expected: CategoryExpired},
		{offset: -400, expected: CategoryExpired},
	}
	for _, tc := range cases {
		expires := classifierNow.AddDate(0, 0, tc.offset).Format("2006-01-02")
		status := Classify(Fields{"expires_at": expires}, rule, classifierNow)
		assert.Equal(t, tc.expected, status.Category, "offset %d", tc.offset)
		require.NotNil(t, status.DaysRemaining)
		assert.Equal(t, tc.offset, *status.DaysRemaining)
		require.NotNil(t, status.ExpiryDate)
	}
}

func TestClassifyZeroWindowOnlyFlagsToday(t *testing.T) {
	rule := explicitRule(0)
	assert.Equal(t, CategoryExpiring, Classify(Fields{"expires_at": "2026-10-15"}, rule, classifierNow).Category)
	assert.Equal(t, CategoryValid, Classify(Fields{"expires_at": "2026-10-16"}, rule, classifierNow).Category)
}

func TestClassifyNoExpiryIsPermanent(t *testing.T) {
	rule := explicitRule(30)
	nows := []time.Time{
		time.Date(1950, 1, 1, 0, 0, 0, 0, time.UTC),
		classifierNow,
		time.Date(3000, 12, 31, 23, 59, 0, 0, time.UTC),
	}
	for _, now := range nows {
		for _, rec := range []Fields{{}, {"expires_at": nil}, {"expires_at": ""}} {
			status := Classify(rec, rule, now)
			assert.Equal(t, CategoryValid, status.Category)
			assert.True(t, status.NeverExpires)
			assert.Nil(t, status.ExpiryDate)
			assert.Nil(t, status.DaysRemaining)
			assert.Equal(t, "no expiry", status.Label())
		}
	}
}

func TestClassifyUnresolvedIsUnknown(t *testing.T) {
	rule := annualRule()
	nows := []time.Time{time.Date(1990, 1, 1, 0, 0, 0, 0, time.UTC), classifierNow, time.Date(2999, 1, 1, 0, 0, 0, 0, time.UTC)}
	records := []Fields{{}, {"inspection_date": ""}, {"inspection_date": nil}, {"inspection_date": "yesterday"}}
	for _, now := range nows {
		for _, rec := range records {
			status := Classify(rec, rule, now)
			assert.Equal(t, CategoryUnknown, status.Category)
			assert.False(t, status.NeverExpires)
			assert.Nil(t, status.DaysRemaining)
			assert.Equal(t, "unknown", status.Label())
		}
	}
}

func TestClassifyIsIdempotent(t *testing.T) {
	rec := Fields{"inspection_date": "2025-11-01T13:45:00Z"}
	first := Classify(rec, annualRule(), classifierNow)
	second := Classify(rec, annualRule(), classifierNow)
	assert.Equal(t, first, second)

	a, err := json.Marshal(first)
	require.NoError(t, err)
	b, err := json.Marshal(second)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestClassifyAnnualInspectionElevenMonthsAgo(t *testing.T) {
	today := time.Date(2026, 9, 15, 8, 0, 0, 0, time.UTC)
	inspected := today.AddDate(0, -11, 0)

	status := Classify(Fields{"inspection_date": inspected}, annualRule(), today)

	assert.Equal(t, CategoryExpiring, status.Category)
	require.NotNil(t, status.DaysRemaining)
	assert.Equal(t, DaysBetween(today, inspected.AddDate(1, 0, 0)), *status.DaysRemaining)
	assert.Equal(t, 30, *status.DaysRemaining)
}

func TestClassifyAnnualInspectionThirteenMonthsAgo(t *testing.T) {
	today := time.Date(2026, 9, 15, 8, 0, 0, 0, time.UTC)
	inspected := today.AddDate(0, -13, 0)

	status := Classify(Fields{"inspection_date": inspected.Format(time.RFC3339)}, annualRule(), today)

	assert.Equal(t, CategoryExpired, status.Category)
	require.NotNil(t, status.DaysRemaining)
	assert.Equal(t, -31, *status.DaysRemaining)
	assert.Equal(t, "overdue by 31 days", status.Label())
}

func TestStatusLabel(t *testing.T) {
	one, zero, many := 1, 0, 12
	assert.Equal(t, "expires in 1 day", Status{Category: CategoryExpiring, DaysRemaining: &one}.Label())
	assert.Equal(t, "expires today", Status{Category: CategoryExpiring, DaysRemaining: &zero}.Label())
	assert.Equal(t, "expires in 12 days", Status{Category: CategoryExpiring, DaysRemaining: &many}.Label())
}

func TestStatusMarshalIncludesLabel(t *testing.T) {
	status := Classify(Fields{"expires_at": "2026-10-20"}, explicitRule(30), classifierNow)
	payload, err := json.Marshal(status)
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(payload, &decoded))
	assert.Equal(t, "expiring", decoded["category"])
	assert.Equal(t, float64(5), decoded["days_remaining"])
	assert.Equal(t, "expires in 5 days", decoded["label"])
}

func TestWorstPicksMostSevere(t *testing.T) {
	valid := Status{Category: CategoryValid}
	unknown := Status{Category: CategoryUnknown}
	expired := Status{Category: CategoryExpired}

	assert.Equal(t, CategoryExpired, Worst(valid, expired, unknown).Category)
	assert.Equal(t, CategoryUnknown, Worst(valid, unknown).Category)
	assert.Equal(t, CategoryUnknown, Worst().Category)
}
