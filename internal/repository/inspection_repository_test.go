package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInspectionRepositoryListByVehicleIDs(t *testing.T) {
	db, mock := newMock(t)
	repo := NewInspectionRepository(db)

	date := time.Date(2025, 11, 15, 0, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{"id", "company_id", "vehicle_id", "inspector_id", "inspection_date", "location", "passed", "defects", "notes", "created_at", "updated_at"}).
		AddRow("i1", "c1", "v1", nil, date, "Yard", true, nil, nil, time.Now(), time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("FROM annual_inspections WHERE vehicle_id = ANY($1) ORDER BY created_at, id")).
		WithArgs(pq.Array([]string{"v1", "v2"})).
		WillReturnRows(rows)

	inspections, err := repo.ListByVehicleIDs(context.Background(), []string{"v1", "v2"})
	require.NoError(t, err)
	require.Len(t, inspections, 1)
	assert.Equal(t, date, *inspections[0].InspectionDate)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInspectionRepositoryListByVehicleIDsEmpty(t *testing.T) {
	db, mock := newMock(t)
	repo := NewInspectionRepository(db)

	inspections, err := repo.ListByVehicleIDs(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, inspections)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInspectionRepositoryDelete(t *testing.T) {
	db, mock := newMock(t)
	repo := NewInspectionRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM annual_inspections WHERE id = $1")).
		WithArgs("i1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Delete(context.Background(), "i1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}
