package service

import (
	"context"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/fleet-compliance-api/internal/dto"
	"github.com/noah-isme/fleet-compliance-api/internal/models"
	appErrors "github.com/noah-isme/fleet-compliance-api/pkg/errors"
)

type inspectorRepository interface {
	FindByID(ctx context.Context, id string) (*models.QualifiedInspector, error)
	Create(ctx context.Context, inspector *models.QualifiedInspector) error
	Update(ctx context.Context, inspector *models.QualifiedInspector) error
	Deactivate(ctx context.Context, id string) error
}

type inspectorClassifier interface {
	Inspectors(ctx context.Context, q models.ListQuery) ([]dto.InspectorRow, *models.Pagination, error)
	InspectorRow(inspector models.QualifiedInspector) dto.InspectorRow
}

// InspectorRequest is the create and update payload for qualified inspectors.
type InspectorRequest struct {
	CompanyID               string  `json:"company_id"`
	FullName                string  `json:"full_name" validate:"required,max=200"`
	CertificationNumber     string  `json:"certification_number" validate:"required,max=50"`
	Qualification           *string `json:"qualification" validate:"omitempty,max=200"`
	CertificationDate       *string `json:"certification_date"`
	CertificationExpiryDate *string `json:"certification_expiry_date"`
	Active                  *bool   `json:"active"`
}

// InspectorService coordinates qualified inspector records.
type InspectorService struct {
	repo       inspectorRepository
	companies  companyChecker
	classifier inspectorClassifier
	cache      cacheInvalidator
	validator  *validator.Validate
	logger     *zap.Logger
}

// NewInspectorService constructs InspectorService.
func NewInspectorService(repo inspectorRepository, companies companyChecker, classifier inspectorClassifier, cache cacheInvalidator, validate *validator.Validate, logger *zap.Logger) *InspectorService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &InspectorService{repo: repo, companies: companies, classifier: classifier, cache: cache, validator: validate, logger: logger}
}

// List returns classified inspectors.
func (s *InspectorService) List(ctx context.Context, q models.ListQuery) ([]dto.InspectorRow, *models.Pagination, error) {
	return s.classifier.Inspectors(ctx, q)
}

// Get returns a classified inspector.
func (s *InspectorService) Get(ctx context.Context, scope, id string) (*dto.InspectorRow, error) {
	inspector, err := s.load(ctx, scope, id)
	if err != nil {
		return nil, err
	}
	row := s.classifier.InspectorRow(*inspector)
	return &row, nil
}

// Create registers an inspector.
func (s *InspectorService) Create(ctx context.Context, scope string, req InspectorRequest) (*dto.InspectorRow, error) {
	inspector := &models.QualifiedInspector{Active: true}
	if err := s.apply(ctx, scope, inspector, req); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, inspector); err != nil {
		return nil, internalError(err, "failed to create inspector")
	}
	invalidateCompliance(ctx, s.cache, s.logger)
	row := s.classifier.InspectorRow(*inspector)
	return &row, nil
}

// Update modifies an inspector.
func (s *InspectorService) Update(ctx context.Context, scope, id string, req InspectorRequest) (*dto.InspectorRow, error) {
	inspector, err := s.load(ctx, scope, id)
	if err != nil {
		return nil, err
	}
	req.CompanyID = inspector.CompanyID
	if err := s.apply(ctx, scope, inspector, req); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, inspector); err != nil {
		return nil, internalError(err, "failed to update inspector")
	}
	invalidateCompliance(ctx, s.cache, s.logger)
	row := s.classifier.InspectorRow(*inspector)
	return &row, nil
}

// Delete deactivates an inspector.
func (s *InspectorService) Delete(ctx context.Context, scope, id string) error {
	if _, err := s.load(ctx, scope, id); err != nil {
		return err
	}
	if err := s.repo.Deactivate(ctx, id); err != nil {
		return internalError(err, "failed to deactivate inspector")
	}
	invalidateCompliance(ctx, s.cache, s.logger)
	return nil
}

func (s *InspectorService) load(ctx context.Context, scope, id string) (*models.QualifiedInspector, error) {
	inspector, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, "inspector")
	}
	if !scoped(scope, inspector.CompanyID) {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "inspector not found")
	}
	return inspector, nil
}

func (s *InspectorService) apply(ctx context.Context, scope string, inspector *models.QualifiedInspector, req InspectorRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return validationError(err, "invalid inspector payload")
	}
	companyID, err := resolveCompany(ctx, s.companies, scope, req.CompanyID)
	if err != nil {
		return err
	}
	if err := parseDates(
		dateField{"certification_date", req.CertificationDate, &inspector.CertificationDate},
		dateField{"certification_expiry_date", req.CertificationExpiryDate, &inspector.CertificationExpiryDate},
	); err != nil {
		return err
	}
	if inspector.CertificationDate != nil && inspector.CertificationExpiryDate != nil &&
		inspector.CertificationExpiryDate.Before(*inspector.CertificationDate) {
		return appErrors.Clone(appErrors.ErrValidation, "certification_expiry_date must not precede certification_date")
	}

	inspector.CompanyID = companyID
	inspector.FullName = req.FullName
	inspector.CertificationNumber = req.CertificationNumber
	inspector.Qualification = req.Qualification
	if req.Active != nil {
		inspector.Active = *req.Active
	}
	return nil
}
