package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/fleet-compliance-api/internal/models"
	appErrors "github.com/noah-isme/fleet-compliance-api/pkg/errors"
)

type companyRepository interface {
	List(ctx context.Context, filter models.CompanyFilter) ([]models.Company, error)
	FindByID(ctx context.Context, id string) (*models.Company, error)
	ExistsByDOTNumber(ctx context.Context, dotNumber, excludeID string) (bool, error)
	Create(ctx context.Context, company *models.Company) error
	Update(ctx context.Context, company *models.Company) error
	Deactivate(ctx context.Context, id string) error
}

// CreateCompanyRequest captures creation payload.
type CreateCompanyRequest struct {
	Name      string  `json:"name" validate:"required,max=200"`
	DOTNumber *string `json:"dot_number" validate:"omitempty,numeric,max=8"`
	MCNumber  *string `json:"mc_number" validate:"omitempty,max=20"`
	Address   *string `json:"address"`
	Phone     *string `json:"phone" validate:"omitempty,max=30"`
	Email     *string `json:"email" validate:"omitempty,email"`
}

// UpdateCompanyRequest modifies company fields.
type UpdateCompanyRequest struct {
	CreateCompanyRequest
	Active *bool `json:"active"`
}

// CompanyService coordinates carrier records.
type CompanyService struct {
	repo      companyRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewCompanyService constructs CompanyService.
func NewCompanyService(repo companyRepository, validate *validator.Validate, logger *zap.Logger) *CompanyService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CompanyService{repo: repo, validator: validate, logger: logger}
}

// List returns companies visible to the caller. Scoped callers only ever see their own company.
func (s *CompanyService) List(ctx context.Context, q models.ListQuery) ([]models.Company, *models.Pagination, error) {
	companies, err := s.repo.List(ctx, models.CompanyFilter{Active: q.Active})
	if err != nil {
		return nil, nil, internalError(err, "failed to list companies")
	}
	if q.CompanyID != "" {
		visible := companies[:0:0]
		for _, company := range companies {
			if company.ID == q.CompanyID {
				visible = append(visible, company)
			}
		}
		companies = visible
	}
	page, pagination := paginate(companies, q, companySearchFields)
	return page, pagination, nil
}

// Get returns a company by ID.
func (s *CompanyService) Get(ctx context.Context, scope, id string) (*models.Company, error) {
	company, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, "company")
	}
	if !scoped(scope, company.ID) {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "company not found")
	}
	return company, nil
}

// Create registers a carrier.
func (s *CompanyService) Create(ctx context.Context, req CreateCompanyRequest) (*models.Company, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid company payload")
	}
	if err := s.ensureUniqueDOT(ctx, req.DOTNumber, ""); err != nil {
		return nil, err
	}

	company := &models.Company{Active: true}
	applyCompany(company, req)
	if err := s.repo.Create(ctx, company); err != nil {
		return nil, internalError(err, "failed to create company")
	}
	s.logger.Info("company created", zap.String("company_id", company.ID))
	return company, nil
}

// Update modifies a company.
func (s *CompanyService) Update(ctx context.Context, scope, id string, req UpdateCompanyRequest) (*models.Company, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid company payload")
	}
	company, err := s.Get(ctx, scope, id)
	if err != nil {
		return nil, err
	}
	if err := s.ensureUniqueDOT(ctx, req.DOTNumber, id); err != nil {
		return nil, err
	}

	applyCompany(company, req.CreateCompanyRequest)
	if req.Active != nil {
		company.Active = *req.Active
	}
	if err := s.repo.Update(ctx, company); err != nil {
		return nil, internalError(err, "failed to update company")
	}
	return company, nil
}

// Delete deactivates a company. Its history stays queryable.
func (s *CompanyService) Delete(ctx context.Context, scope, id string) error {
	if _, err := s.Get(ctx, scope, id); err != nil {
		return err
	}
	if err := s.repo.Deactivate(ctx, id); err != nil {
		return internalError(err, "failed to deactivate company")
	}
	return nil
}

// Exists checks that id names a company, for validating foreign keys.
func (s *CompanyService) Exists(ctx context.Context, id string) error {
	_, err := s.repo.FindByID(ctx, id)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, sql.ErrNoRows):
		return appErrors.Clone(appErrors.ErrValidation, "company_id does not reference a company")
	default:
		return internalError(err, "failed to load company")
	}
}

func (s *CompanyService) ensureUniqueDOT(ctx context.Context, dot *string, excludeID string) error {
	if dot == nil || *dot == "" {
		return nil
	}
	exists, err := s.repo.ExistsByDOTNumber(ctx, *dot, excludeID)
	if err != nil {
		return internalError(err, "failed to check DOT number")
	}
	if exists {
		return appErrors.Clone(appErrors.ErrConflict, "DOT number already registered")
	}
	return nil
}

func applyCompany(company *models.Company, req CreateCompanyRequest) {
	company.Name = req.Name
	company.DOTNumber = req.DOTNumber
	company.MCNumber = req.MCNumber
	company.Address = req.Address
	company.Phone = req.Phone
	company.Email = req.Email
}
