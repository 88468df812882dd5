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

const driverColumns = `id, company_id, first_name, last_name, email, phone, license_number, license_state, cdl_class,
        cdl_issue_date, cdl_expiration_date, medical_exam_date, medical_card_expiration_date, hire_date, active, created_at, updated_at`

// DriverRepository manages persistence for drivers.
type DriverRepository struct {
	db *sqlx.DB
}

// NewDriverRepository constructs a DriverRepository.
func NewDriverRepository(db *sqlx.DB) *DriverRepository {
	return &DriverRepository{db: db}
}

// List returns the drivers in scope. Ordering and search are applied by the caller.
func (r *DriverRepository) List(ctx context.Context, filter models.DriverFilter) ([]models.Driver, error) {
	var w where
	w.eq("company_id", filter.CompanyID)
	w.flag("active", filter.Active)
	query := "SELECT " + driverColumns + " FROM drivers" + w.String() + " ORDER BY created_at, id"

	var drivers []models.Driver
	if err := r.db.SelectContext(ctx, &drivers, query, w.args...); err != nil {
		return nil, fmt.Errorf("list drivers: %w", err)
	}
	return drivers, nil
}

// FindByID fetches a driver by ID.
func (r *DriverRepository) FindByID(ctx context.Context, id string) (*models.Driver, error) {
	var driver models.Driver
	if err := r.db.GetContext(ctx, &driver, "SELECT "+driverColumns+" FROM drivers WHERE id = $1", id); err != nil {
		return nil, err
	}
	return &driver, nil
}

// ExistsByLicense checks whether the license is registered to another driver.
func (r *DriverRepository) ExistsByLicense(ctx context.Context, state, number, excludeID string) (bool, error) {
	query := "SELECT 1 FROM drivers WHERE license_state = $1 AND license_number = $2"
	args := []interface{}{state, number}
	if excludeID != "" {
		query += " AND id <> $3"
		args = append(args, excludeID)
	}
	var exists int
	if err := r.db.GetContext(ctx, &exists, query+" LIMIT 1", args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("check license: %w", err)
	}
	return true, nil
}

// Create inserts a new driver.
func (r *DriverRepository) Create(ctx context.Context, driver *models.Driver) error {
	if driver.ID == "" {
		driver.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if driver.CreatedAt.IsZero() {
		driver.CreatedAt = now
	}
	driver.UpdatedAt = now
	const query = `INSERT INTO drivers (id, company_id, first_name, last_name, email, phone, license_number, license_state, cdl_class,
        cdl_issue_date, cdl_expiration_date, medical_exam_date, medical_card_expiration_date, hire_date, active, created_at, updated_at)
        VALUES (:id, :company_id, :first_name, :last_name, :email, :phone, :license_number, :license_state, :cdl_class,
        :cdl_issue_date, :cdl_expiration_date, :medical_exam_date, :medical_card_expiration_date, :hire_date, :active, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, driver); err != nil {
		return fmt.Errorf("create driver: %w", err)
	}
	return nil
}

// Update modifies an existing driver.
func (r *DriverRepository) Update(ctx context.Context, driver *models.Driver) error {
	driver.UpdatedAt = time.Now().UTC()
	const query = `UPDATE drivers SET first_name = :first_name, last_name = :last_name, email = :email, phone = :phone,
        license_number = :license_number, license_state = :license_state, cdl_class = :cdl_class, cdl_issue_date = :cdl_issue_date,
        cdl_expiration_date = :cdl_expiration_date, medical_exam_date = :medical_exam_date,
        medical_card_expiration_date = :medical_card_expiration_date, hire_date = :hire_date, active = :active, updated_at = :updated_at
        WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, driver); err != nil {
		return fmt.Errorf("update driver: %w", err)
	}
	return nil
}

// Deactivate marks a driver as inactive.
func (r *DriverRepository) Deactivate(ctx context.Context, id string) error {
	const query = `UPDATE drivers SET active = false, updated_at = $2 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, time.Now().UTC()); err != nil {
		return fmt.Errorf("deactivate driver: %w", err)
	}
	return nil
}
