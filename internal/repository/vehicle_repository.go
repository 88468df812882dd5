package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/fleet-compliance-api/internal/models"
)

const vehicleColumns = `id, company_id, unit_number, type, vin, make, model, year, license_plate, plate_state,
        last_maintenance_review_date, active, created_at, updated_at`

// VehicleRepository manages persistence for trucks and trailers.
type VehicleRepository struct {
	db *sqlx.DB
}

// NewVehicleRepository constructs a VehicleRepository.
func NewVehicleRepository(db *sqlx.DB) *VehicleRepository {
	return &VehicleRepository{db: db}
}

// List returns the vehicles in scope.
func (r *VehicleRepository) List(ctx context.Context, filter models.VehicleFilter) ([]models.Vehicle, error) {
	var w where
	w.eq("company_id", filter.CompanyID)
	w.eq("type", string(filter.Type))
	w.flag("active", filter.Active)
	query := "SELECT " + vehicleColumns + " FROM vehicles" + w.String() + " ORDER BY created_at, id"

	var vehicles []models.Vehicle
	if err := r.db.SelectContext(ctx, &vehicles, query, w.args...); err != nil {
		return nil, fmt.Errorf("list vehicles: %w", err)
	}
	return vehicles, nil
}

// FindByID fetches a vehicle by ID.
func (r *VehicleRepository) FindByID(ctx context.Context, id string) (*models.Vehicle, error) {
	var vehicle models.Vehicle
	if err := r.db.GetContext(ctx, &vehicle, "SELECT "+vehicleColumns+" FROM vehicles WHERE id = $1", id); err != nil {
		return nil, err
	}
	return &vehicle, nil
}

// ExistsByVIN checks whether another vehicle uses vin.
func (r *VehicleRepository) ExistsByVIN(ctx context.Context, vin, excludeID string) (bool, error) {
	query := "SELECT 1 FROM vehicles WHERE vin = $1"
	args := []interface{}{vin}
	if excludeID != "" {
		query += " AND id <> $2"
		args = append(args, excludeID)
	}
	var exists int
	if err := r.db.GetContext(ctx, &exists, query+" LIMIT 1", args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("check vin: %w", err)
	}
	return true, nil
}

// Create inserts a new vehicle.
func (r *VehicleRepository) Create(ctx context.Context, vehicle *models.Vehicle) error {
	if vehicle.ID == "" {
		vehicle.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if vehicle.CreatedAt.IsZero() {
		vehicle.CreatedAt = now
	}
	vehicle.UpdatedAt = now
	const query = `INSERT INTO vehicles (id, company_id, unit_number, type, vin, make, model, year, license_plate, plate_state,
        last_maintenance_review_date, active, created_at, updated_at)
        VALUES (:id, :company_id, :unit_number, :type, :vin, :make, :model, :year, :license_plate, :plate_state,
        :last_maintenance_review_date, :active, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, vehicle); err != nil {
		return fmt.Errorf("create vehicle: %w", err)
	}
	return nil
}

// Update modifies an existing vehicle.
func (r *VehicleRepository) Update(ctx context.Context, vehicle *models.Vehicle) error {
	vehicle.UpdatedAt = time.Now().UTC()
	const query = `UPDATE vehicles SET unit_number = :unit_number, type = :type, vin = :vin, make = :make, model = :model, year = :year,
        license_plate = :license_plate, plate_state = :plate_state, last_maintenance_review_date = :last_maintenance_review_date,
        active = :active, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, vehicle); err != nil {
		return fmt.Errorf("update vehicle: %w", err)
	}
	return nil
}

// Deactivate marks a vehicle as out of service.
func (r *VehicleRepository) Deactivate(ctx context.Context, id string) error {
	const query = `UPDATE vehicles SET active = false, updated_at = $2 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, time.Now().UTC()); err != nil {
		return fmt.Errorf("deactivate vehicle: %w", err)
	}
	return nil
}
