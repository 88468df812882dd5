package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/fleet-compliance-api/internal/models"
)

const dvirColumns = `id, company_id, driver_id, vehicle_id, trip_id, inspection_type, odometer, defects_found, defects, status,
        review_outcome, reviewed_by, reviewed_at, review_notes, submitted_at, created_at, updated_at`

// DVIRRepository manages driver vehicle inspection reports.
type DVIRRepository struct {
	db *sqlx.DB
}

// NewDVIRRepository constructs a DVIRRepository.
func NewDVIRRepository(db *sqlx.DB) *DVIRRepository {
	return &DVIRRepository{db: db}
}

// List returns DVIRs in scope.
func (r *DVIRRepository) List(ctx context.Context, filter models.DVIRFilter) ([]models.DVIR, error) {
	var w where
	w.eq("company_id", filter.CompanyID)
	w.eq("driver_id", filter.DriverID)
	w.eq("vehicle_id", filter.VehicleID)
	w.eq("status", string(filter.Status))
	query := "SELECT " + dvirColumns + " FROM dvirs" + w.String() + " ORDER BY submitted_at, id"

	var reports []models.DVIR
	if err := r.db.SelectContext(ctx, &reports, query, w.args...); err != nil {
		return nil, fmt.Errorf("list dvirs: %w", err)
	}
	return reports, nil
}

// FindByID fetches a DVIR by ID.
func (r *DVIRRepository) FindByID(ctx context.Context, id string) (*models.DVIR, error) {
	var report models.DVIR
	if err := r.db.GetContext(ctx, &report, "SELECT "+dvirColumns+" FROM dvirs WHERE id = $1", id); err != nil {
		return nil, err
	}
	return &report, nil
}

// Create inserts a submitted DVIR.
func (r *DVIRRepository) Create(ctx context.Context, report *models.DVIR) error {
	if report.ID == "" {
		report.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if report.SubmittedAt.IsZero() {
		report.SubmittedAt = now
	}
	if report.Status == "" {
		report.Status = models.DVIRStatusSubmitted
	}
	report.CreatedAt = now
	report.UpdatedAt = now
	const query = `INSERT INTO dvirs (id, company_id, driver_id, vehicle_id, trip_id, inspection_type, odometer, defects_found, defects, status,
        review_outcome, reviewed_by, reviewed_at, review_notes, submitted_at, created_at, updated_at)
        VALUES (:id, :company_id, :driver_id, :vehicle_id, :trip_id, :inspection_type, :odometer, :defects_found, :defects, :status,
        :review_outcome, :reviewed_by, :reviewed_at, :review_notes, :submitted_at, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, report); err != nil {
		return fmt.Errorf("create dvir: %w", err)
	}
	return nil
}

// SaveReview records the reviewer certification. Only unreviewed reports are updated;
// the returned bool is false when the report was already reviewed.
func (r *DVIRRepository) SaveReview(ctx context.Context, report *models.DVIR) (bool, error) {
	report.UpdatedAt = time.Now().UTC()
	const query = `UPDATE dvirs SET status = :status, review_outcome = :review_outcome, reviewed_by = :reviewed_by,
        reviewed_at = :reviewed_at, review_notes = :review_notes, updated_at = :updated_at
        WHERE id = :id AND status = 'SUBMITTED'`
	res, err := r.db.NamedExecContext(ctx, query, report)
	if err != nil {
		return false, fmt.Errorf("review dvir: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("review dvir: %w", err)
	}
	return affected > 0, nil
}
