package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/fleet-compliance-api/internal/models"
)

const inspectionColumns = `id, company_id, vehicle_id, inspector_id, inspection_date, location, passed, defects, notes, created_at, updated_at`

// InspectionRepository manages annual vehicle inspections.
type InspectionRepository struct {
	db *sqlx.DB
}

// NewInspectionRepository constructs an InspectionRepository.
func NewInspectionRepository(db *sqlx.DB) *InspectionRepository {
	return &InspectionRepository{db: db}
}

// List returns inspections in scope, oldest first.
func (r *InspectionRepository) List(ctx context.Context, filter models.InspectionFilter) ([]models.AnnualInspection, error) {
	var w where
	w.eq("company_id", filter.CompanyID)
	w.eq("vehicle_id", filter.VehicleID)
	query := "SELECT " + inspectionColumns + " FROM annual_inspections" + w.String() + " ORDER BY created_at, id"

	var inspections []models.AnnualInspection
	if err := r.db.SelectContext(ctx, &inspections, query, w.args...); err != nil {
		return nil, fmt.Errorf("list inspections: %w", err)
	}
	return inspections, nil
}

// ListByVehicleIDs returns every inspection for the given vehicles, oldest first.
func (r *InspectionRepository) ListByVehicleIDs(ctx context.Context, vehicleIDs []string) ([]models.AnnualInspection, error) {
	if len(vehicleIDs) == 0 {
		return []models.AnnualInspection{}, nil
	}
	query := "SELECT " + inspectionColumns + " FROM annual_inspections WHERE vehicle_id = ANY($1) ORDER BY created_at, id"

	var inspections []models.AnnualInspection
	if err := r.db.SelectContext(ctx, &inspections, query, pq.Array(vehicleIDs)); err != nil {
		return nil, fmt.Errorf("list inspections by vehicle: %w", err)
	}
	return inspections, nil
}

// FindByID fetches an inspection by ID.
func (r *InspectionRepository) FindByID(ctx context.Context, id string) (*models.AnnualInspection, error) {
	var inspection models.AnnualInspection
	if err := r.db.GetContext(ctx, &inspection, "SELECT "+inspectionColumns+" FROM annual_inspections WHERE id = $1", id); err != nil {
		return nil, err
	}
	return &inspection, nil
}

// Create inserts a new inspection.
func (r *InspectionRepository) Create(ctx context.Context, inspection *models.AnnualInspection) error {
	if inspection.ID == "" {
		inspection.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if inspection.CreatedAt.IsZero() {
		inspection.CreatedAt = now
	}
	inspection.UpdatedAt = now
	const query = `INSERT INTO annual_inspections (id, company_id, vehicle_id, inspector_id, inspection_date, location, passed, defects, notes, created_at, updated_at)
        VALUES (:id, :company_id, :vehicle_id, :inspector_id, :inspection_date, :location, :passed, :defects, :notes, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, inspection); err != nil {
		return fmt.Errorf("create inspection: %w", err)
	}
	return nil
}

// Update modifies an existing inspection.
func (r *InspectionRepository) Update(ctx context.Context, inspection *models.AnnualInspection) error {
	inspection.UpdatedAt = time.Now().UTC()
	const query = `UPDATE annual_inspections SET vehicle_id = :vehicle_id, inspector_id = :inspector_id, inspection_date = :inspection_date,
        location = :location, passed = :passed, defects = :defects, notes = :notes, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, inspection); err != nil {
		return fmt.Errorf("update inspection: %w", err)
	}
	return nil
}

// Delete removes an inspection.
func (r *InspectionRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM annual_inspections WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete inspection: %w", err)
	}
	return nil
}
