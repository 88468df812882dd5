package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDriverFieldNilDatesAreUntypedNil(t *testing.T) {
	d := Driver{FirstName: "Ana", LastName: "Ruiz"}

	value, ok := d.Field("cdl_expiration_date")
	assert.True(t, ok)
	assert.Nil(t, value)

	value, ok = d.Field("full_name")
	assert.True(t, ok)
	assert.Equal(t, "Ana Ruiz", value)

	_, ok = d.Field("password")
	assert.False(t, ok)
}

func TestDriverFieldUnwrapsDates(t *testing.T) {
	exp := time.Date(2027, 1, 2, 0, 0, 0, 0, time.UTC)
	value, ok := Driver{CDLExpirationDate: &exp}.Field("cdl_expiration_date")
	require.True(t, ok)
	assert.Equal(t, exp, value)
}

func TestTripTransitions(t *testing.T) {
	assert.True(t, TripPlanned.CanTransition(TripInProgress))
	assert.True(t, TripPlanned.CanTransition(TripCancelled))
	assert.False(t, TripPlanned.CanTransition(TripCompleted))
	assert.True(t, TripInProgress.CanTransition(TripCompleted))
	assert.False(t, TripCompleted.CanTransition(TripCancelled))
	assert.False(t, TripCancelled.CanTransition(TripInProgress))
}

func TestReportJobParamsRoundTrip(t *testing.T) {
	params := ReportJobParams{CompanyID: "c1", Format: ReportFormatPDF, Status: "expired"}
	raw, err := params.Value()
	require.NoError(t, err)

	var decoded ReportJobParams
	require.NoError(t, decoded.Scan(raw))
	assert.Equal(t, params, decoded)

	require.NoError(t, decoded.Scan(nil))
	assert.Equal(t, ReportJobParams{}, decoded)
	assert.Error(t, decoded.Scan(42))
}

func TestCompanyScope(t *testing.T) {
	assert.Equal(t, "", (&JWTClaims{Role: RoleSuperAdmin, CompanyID: "c1"}).CompanyScope())
	assert.Equal(t, "c1", (&JWTClaims{Role: RoleManager, CompanyID: "c1"}).CompanyScope())
	assert.Equal(t, "", (*JWTClaims)(nil).CompanyScope())
}

func TestGroupInspectionsByVehicle(t *testing.T) {
	grouped := GroupInspectionsByVehicle([]AnnualInspection{
		{ID: "1", VehicleID: "v1"}, {ID: "2", VehicleID: "v2"}, {ID: "3", VehicleID: "v1"},
	})
	require.Len(t, grouped["v1"], 2)
	assert.Equal(t, "3", grouped["v1"][1].ID)
}
