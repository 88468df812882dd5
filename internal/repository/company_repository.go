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

const companyColumns = `id, name, dot_number, mc_number, address, phone, email, active, created_at, updated_at`

// CompanyRepository manages persistence for carriers.
type CompanyRepository struct {
	db *sqlx.DB
}

// NewCompanyRepository constructs a CompanyRepository.
func NewCompanyRepository(db *sqlx.DB) *CompanyRepository {
	return &CompanyRepository{db: db}
}

// List returns companies in creation order.
func (r *CompanyRepository) List(ctx context.Context, filter models.CompanyFilter) ([]models.Company, error) {
	var w where
	w.flag("active", filter.Active)
	query := "SELECT " + companyColumns + " FROM companies" + w.String() + " ORDER BY created_at, id"

	var companies []models.Company
	if err := r.db.SelectContext(ctx, &companies, query, w.args...); err != nil {
		return nil, fmt.Errorf("list companies: %w", err)
	}
	return companies, nil
}

// FindByID fetches a company by ID.
func (r *CompanyRepository) FindByID(ctx context.Context, id string) (*models.Company, error) {
	var company models.Company
	if err := r.db.GetContext(ctx, &company, "SELECT "+companyColumns+" FROM companies WHERE id = $1", id); err != nil {
		return nil, err
	}
	return &company, nil
}

// ExistsByDOTNumber checks if another company already uses dotNumber.
func (r *CompanyRepository) ExistsByDOTNumber(ctx context.Context, dotNumber, excludeID string) (bool, error) {
	query := "SELECT 1 FROM companies WHERE dot_number = $1"
	args := []interface{}{dotNumber}
	if excludeID != "" {
		query += " AND id <> $2"
		args = append(args, excludeID)
	}
	var exists int
	if err := r.db.GetContext(ctx, &exists, query+" LIMIT 1", args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("check dot number: %w", err)
	}
	return true, nil
}

// Create inserts a new company.
func (r *CompanyRepository) Create(ctx context.Context, company *models.Company) error {
	if company.ID == "" {
		company.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if company.CreatedAt.IsZero() {
		company.CreatedAt = now
	}
	company.UpdatedAt = now
	const query = `INSERT INTO companies (id, name, dot_number, mc_number, address, phone, email, active, created_at, updated_at)
        VALUES (:id, :name, :dot_number, :mc_number, :address, :phone, :email, :active, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, company); err != nil {
		return fmt.Errorf("create company: %w", err)
	}
	return nil
}

// Update modifies an existing company.
func (r *CompanyRepository) Update(ctx context.Context, company *models.Company) error {
	company.UpdatedAt = time.Now().UTC()
	const query = `UPDATE companies SET name = :name, dot_number = :dot_number, mc_number = :mc_number, address = :address, phone = :phone, email = :email, active = :active, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, company); err != nil {
		return fmt.Errorf("update company: %w", err)
	}
	return nil
}

// Deactivate marks a company as inactive.
func (r *CompanyRepository) Deactivate(ctx context.Context, id string) error {
	const query = `UPDATE companies SET active = false, updated_at = $2 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, time.Now().UTC()); err != nil {
		return fmt.Errorf("deactivate company: %w", err)
	}
	return nil
}
