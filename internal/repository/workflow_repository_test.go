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

func TestDVIRRepositorySaveReviewOnlyOnce(t *testing.T) {
	db, mock := newMock(t)
	repo := NewDVIRRepository(db)

	outcome := models.DVIRDefectsCorrected
	reviewer := "u1"
	now := time.Now().UTC()
	report := &models.DVIR{ID: "r1", Status: models.DVIRStatusReviewed, ReviewOutcome: &outcome, ReviewedBy: &reviewer, ReviewedAt: &now}

	mock.ExpectExec(regexp.QuoteMeta("WHERE id = $7 AND status = 'SUBMITTED'")).
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), nil, sqlmock.AnyArg(), "r1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE dvirs SET status")).
		WillReturnResult(sqlmock.NewResult(0, 0))

	ok, err := repo.SaveReview(context.Background(), report)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.SaveReview(context.Background(), report)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTripRepositoryTransitionGuardsStatus(t *testing.T) {
	db, mock := newMock(t)
	repo := NewTripRepository(db)

	started := time.Now().UTC()
	trip := &models.Trip{ID: "t1", Status: models.TripInProgress, StartedAt: &started}

	mock.ExpectExec(regexp.QuoteMeta("UPDATE trips SET status = $1")).
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), nil, nil, nil, sqlmock.AnyArg(), "t1", string(models.TripPlanned)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	ok, err := repo.Transition(context.Background(), trip, models.TripPlanned)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNotificationRepositoryInsertDeduplicates(t *testing.T) {
	db, mock := newMock(t)
	repo := NewNotificationRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("ON CONFLICT (entity_type, entity_id, rule, notify_date) DO NOTHING")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("ON CONFLICT (entity_type, entity_id, rule, notify_date) DO NOTHING")).
		WillReturnResult(sqlmock.NewResult(0, 0))

	n := models.Notification{EntityType: "driver", EntityID: "d1", Rule: "cdl", NotifyDate: time.Date(2026, 10, 15, 0, 0, 0, 0, time.UTC)}
	first := n
	inserted, err := repo.Insert(context.Background(), &first)
	require.NoError(t, err)
	assert.True(t, inserted)

	second := n
	inserted, err = repo.Insert(context.Background(), &second)
	require.NoError(t, err)
	assert.False(t, inserted)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNotificationRepositoryList(t *testing.T) {
	db, mock := newMock(t)
	repo := NewNotificationRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM compliance_notifications WHERE company_id = $1 AND read_at IS NULL ORDER BY notify_date DESC, created_at DESC LIMIT 20 OFFSET 20")).
		WithArgs("c1").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("n1"))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM compliance_notifications WHERE company_id = $1 AND read_at IS NULL")).
		WithArgs("c1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(21))

	items, total, err := repo.List(context.Background(), models.NotificationFilter{CompanyID: "c1", UnreadOnly: true, Page: 2})
	require.NoError(t, err)
	assert.Len(t, items, 1)
	assert.Equal(t, 21, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}
