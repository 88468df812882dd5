package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/fleet-compliance-api/internal/models"
)

const tripColumns = `id, company_id, driver_id, truck_id, trailer_id, origin, destination, scheduled_start, status,
        started_at, completed_at, cancelled_at, cancel_reason, created_at, updated_at`

// TripRepository manages dispatched trips.
type TripRepository struct {
	db *sqlx.DB
}

// NewTripRepository constructs a TripRepository.
func NewTripRepository(db *sqlx.DB) *TripRepository {
	return &TripRepository{db: db}
}

// List returns trips in scope.
func (r *TripRepository) List(ctx context.Context, filter models.TripFilter) ([]models.Trip, error) {
	var w where
	w.eq("company_id", filter.CompanyID)
	w.eq("driver_id", filter.DriverID)
	w.eq("status", string(filter.Status))
	query := "SELECT " + tripColumns + " FROM trips" + w.String() + " ORDER BY created_at, id"

	var trips []models.Trip
	if err := r.db.SelectContext(ctx, &trips, query, w.args...); err != nil {
		return nil, fmt.Errorf("list trips: %w", err)
	}
	return trips, nil
}

// FindByID fetches a trip by ID.
func (r *TripRepository) FindByID(ctx context.Context, id string) (*models.Trip, error) {
	var trip models.Trip
	if err := r.db.GetContext(ctx, &trip, "SELECT "+tripColumns+" FROM trips WHERE id = $1", id); err != nil {
		return nil, err
	}
	return &trip, nil
}

// Create inserts a planned trip.
func (r *TripRepository) Create(ctx context.Context, trip *models.Trip) error {
	if trip.ID == "" {
		trip.ID = uuid.NewString()
	}
	if trip.Status == "" {
		trip.Status = models.TripPlanned
	}
	now := time.Now().UTC()
	trip.CreatedAt = now
	trip.UpdatedAt = now
	const query = `INSERT INTO trips (id, company_id, driver_id, truck_id, trailer_id, origin, destination, scheduled_start, status,
        started_at, completed_at, cancelled_at, cancel_reason, created_at, updated_at)
        VALUES (:id, :company_id, :driver_id, :truck_id, :trailer_id, :origin, :destination, :scheduled_start, :status,
        :started_at, :completed_at, :cancelled_at, :cancel_reason, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, trip); err != nil {
		return fmt.Errorf("create trip: %w", err)
	}
	return nil
}

// Transition moves a trip from one status to the trip's current status. It returns false
// when the stored status no longer equals from.
func (r *TripRepository) Transition(ctx context.Context, trip *models.Trip, from models.TripStatus) (bool, error) {
	trip.UpdatedAt = time.Now().UTC()
	const query = `UPDATE trips SET status = $1, started_at = $2, completed_at = $3, cancelled_at = $4, cancel_reason = $5, updated_at = $6
        WHERE id = $7 AND status = $8`
	res, err := r.db.ExecContext(ctx, query, trip.Status, trip.StartedAt, trip.CompletedAt, trip.CancelledAt, trip.CancelReason, trip.UpdatedAt, trip.ID, from)
	if err != nil {
		return false, fmt.Errorf("transition trip: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("transition trip: %w", err)
	}
	return affected > 0, nil
}
