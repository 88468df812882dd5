package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/fleet-compliance-api/internal/models"
)

func TestVehicleRepositoryListByType(t *testing.T) {
	db, mock := newMock(t)
	repo := NewVehicleRepository(db)

	rows := sqlmock.NewRows([]string{"id", "company_id", "unit_number", "type", "vin", "make", "model", "year", "license_plate", "plate_state",
		"last_maintenance_review_date", "active", "created_at", "updated_at"}).
		AddRow("v1", "c1", "T-100", "TRAILER", "VIN1", nil, nil, 2020, nil, nil, nil, true, time.Now(), time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("FROM vehicles WHERE company_id = $1 AND type = $2 ORDER BY created_at, id")).
		WithArgs("c1", "TRAILER").
		WillReturnRows(rows)

	vehicles, err := repo.List(context.Background(), models.VehicleFilter{CompanyID: "c1", Type: models.VehicleTypeTrailer})
	require.NoError(t, err)
	require.Len(t, vehicles, 1)
	assert.Equal(t, models.VehicleTypeTrailer, vehicles[0].Type)
	require.NotNil(t, vehicles[0].Year)
	assert.Equal(t, 2020, *vehicles[0].Year)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestVehicleRepositoryDeactivate(t *testing.T) {
	db, mock := newMock(t)
	repo := NewVehicleRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE vehicles SET active = false, updated_at = $2 WHERE id = $1")).
		WithArgs("v1", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Deactivate(context.Background(), "v1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}
