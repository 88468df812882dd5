package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/fleet-compliance-api/internal/models"
)

const inspectorColumns = `id, company_id, full_name, certification_number, qualification, certification_date, certification_expiry_date, active, created_at, updated_at`

// InspectorRepository manages qualified inspectors.
type InspectorRepository struct {
	db *sqlx.DB
}

// NewInspectorRepository constructs an InspectorRepository.
func NewInspectorRepository(db *sqlx.DB) *InspectorRepository {
	return &InspectorRepository{db: db}
}

// List returns inspectors in scope.
func (r *InspectorRepository) List(ctx context.Context, filter models.InspectorFilter) ([]models.QualifiedInspector, error) {
	var w where
	w.eq("company_id", filter.CompanyID)
	w.flag("active", filter.Active)
	query := "SELECT " + inspectorColumns + " FROM qualified_inspectors" + w.String() + " ORDER BY created_at, id"

	var inspectors []models.QualifiedInspector
	if err := r.db.SelectContext(ctx, &inspectors, query, w.args...); err != nil {
		return nil, fmt.Errorf("list inspectors: %w", err)
	}
	return inspectors, nil
}

// FindByID fetches an inspector by ID.
func (r *InspectorRepository) FindByID(ctx context.Context, id string) (*models.QualifiedInspector, error) {
	var inspector models.QualifiedInspector
	if err := r.db.GetContext(ctx, &inspector, "SELECT "+inspectorColumns+" FROM qualified_inspectors WHERE id = $1", id); err != nil {
		return nil, err
	}
	return &inspector, nil
}

// Create inserts a new inspector.
func (r *InspectorRepository) Create(ctx context.Context, inspector *models.QualifiedInspector) error {
	if inspector.ID == "" {
		inspector.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if inspector.CreatedAt.IsZero() {
		inspector.CreatedAt = now
	}
	inspector.UpdatedAt = now
	const query = `INSERT INTO qualified_inspectors (id, company_id, full_name, certification_number, qualification, certification_date, certification_expiry_date, active, created_at, updated_at)
        VALUES (:id, :company_id, :full_name, :certification_number, :qualification, :certification_date, :certification_expiry_date, :active, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, inspector); err != nil {
		return fmt.Errorf("create inspector: %w", err)
	}
	return nil
}

// Update modifies an existing inspector.
func (r *InspectorRepository) Update(ctx context.Context, inspector *models.QualifiedInspector) error {
	inspector.UpdatedAt = time.Now().UTC()
	const query = `UPDATE qualified_inspectors SET full_name = :full_name, certification_number = :certification_number, qualification = :qualification,
        certification_date = :certification_date, certification_expiry_date = :certification_expiry_date, active = :active, updated_at = :updated_at
        WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, inspector); err != nil {
		return fmt.Errorf("update inspector: %w", err)
	}
	return nil
}

// Deactivate marks an inspector as inactive.
func (r *InspectorRepository) Deactivate(ctx context.Context, id string) error {
	const query = `UPDATE qualified_inspectors SET active = false, updated_at = $2 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, time.Now().UTC()); err != nil {
		return fmt.Errorf("deactivate inspector: %w", err)
	}
	return nil
}
