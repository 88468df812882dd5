package service

import (
	"context"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/fleet-compliance-api/internal/dto"
	"github.com/noah-isme/fleet-compliance-api/internal/models"
	appErrors "github.com/noah-isme/fleet-compliance-api/pkg/errors"
)

type driverRepository interface {
	FindByID(ctx context.Context, id string) (*models.Driver, error)
	ExistsByLicense(ctx context.Context, state, number, excludeID string) (bool, error)
	Create(ctx context.Context, driver *models.Driver) error
	Update(ctx context.Context, driver *models.Driver) error
	Deactivate(ctx context.Context, id string) error
}

type companyChecker interface {
	Exists(ctx context.Context, id string) error
}

type driverClassifier interface {
	Drivers(ctx context.Context, q models.ListQuery) ([]dto.DriverRow, *models.Pagination, error)
	DriverRow(driver models.Driver) dto.DriverRow
}

// DriverRequest is the create and update payload for drivers. Dates are ISO formatted.
type DriverRequest struct {
	CompanyID                 string  `json:"company_id"`
	FirstName                 string  `json:"first_name" validate:"required,max=100"`
	LastName                  string  `json:"last_name" validate:"required,max=100"`
	Email                     *string `json:"email" validate:"omitempty,email"`
	Phone                     *string `json:"phone" validate:"omitempty,max=30"`
	LicenseNumber             string  `json:"license_number" validate:"required,max=30"`
	LicenseState              string  `json:"license_state" validate:"required,len=2,alpha"`
	CDLClass                  *string `json:"cdl_class" validate:"omitempty,oneof=A B C"`
	CDLIssueDate              *string `json:"cdl_issue_date"`
	CDLExpirationDate         *string `json:"cdl_expiration_date"`
	MedicalExamDate           *string `json:"medical_exam_date"`
	MedicalCardExpirationDate *string `json:"medical_card_expiration_date"`
	HireDate                  *string `json:"hire_date"`
	Active                    *bool   `json:"active"`
}

// DriverService coordinates driver records.
type DriverService struct {
	repo       driverRepository
	companies  companyChecker
	classifier driverClassifier
	cache      cacheInvalidator
	validator  *validator.Validate
	logger     *zap.Logger
}

// NewDriverService constructs DriverService.
func NewDriverService(repo driverRepository, companies companyChecker, classifier driverClassifier, cache cacheInvalidator, validate *validator.Validate, logger *zap.Logger) *DriverService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DriverService{repo: repo, companies: companies, classifier: classifier, cache: cache, validator: validate, logger: logger}
}

// List returns classified drivers.
func (s *DriverService) List(ctx context.Context, q models.ListQuery) ([]dto.DriverRow, *models.Pagination, error) {
	return s.classifier.Drivers(ctx, q)
}

// Get returns a classified driver.
func (s *DriverService) Get(ctx context.Context, scope, id string) (*dto.DriverRow, error) {
	driver, err := s.load(ctx, scope, id)
	if err != nil {
		return nil, err
	}
	row := s.classifier.DriverRow(*driver)
	return &row, nil
}

// Create registers a driver under the caller's company.
func (s *DriverService) Create(ctx context.Context, scope string, req DriverRequest) (*dto.DriverRow, error) {
	driver := &models.Driver{Active: true}
	if err := s.apply(ctx, scope, driver, req, ""); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, driver); err != nil {
		return nil, internalError(err, "failed to create driver")
	}
	invalidateCompliance(ctx, s.cache, s.logger)
	row := s.classifier.DriverRow(*driver)
	return &row, nil
}

// Update modifies a driver.
func (s *DriverService) Update(ctx context.Context, scope, id string, req DriverRequest) (*dto.DriverRow, error) {
	driver, err := s.load(ctx, scope, id)
	if err != nil {
		return nil, err
	}
	req.CompanyID = driver.CompanyID
	if err := s.apply(ctx, scope, driver, req, id); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, driver); err != nil {
		return nil, internalError(err, "failed to update driver")
	}
	invalidateCompliance(ctx, s.cache, s.logger)
	row := s.classifier.DriverRow(*driver)
	return &row, nil
}

// Delete deactivates a driver.
func (s *DriverService) Delete(ctx context.Context, scope, id string) error {
	if _, err := s.load(ctx, scope, id); err != nil {
		return err
	}
	if err := s.repo.Deactivate(ctx, id); err != nil {
		return internalError(err, "failed to deactivate driver")
	}
	invalidateCompliance(ctx, s.cache, s.logger)
	return nil
}

func (s *DriverService) load(ctx context.Context, scope, id string) (*models.Driver, error) {
	driver, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, "driver")
	}
	if !scoped(scope, driver.CompanyID) {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "driver not found")
	}
	return driver, nil
}

func (s *DriverService) apply(ctx context.Context, scope string, driver *models.Driver, req DriverRequest, excludeID string) error {
	if err := s.validator.Struct(req); err != nil {
		return validationError(err, "invalid driver payload")
	}
	companyID, err := resolveCompany(ctx, s.companies, scope, req.CompanyID)
	if err != nil {
		return err
	}

	state := strings.ToUpper(req.LicenseState)
	exists, err := s.repo.ExistsByLicense(ctx, state, req.LicenseNumber, excludeID)
	if err != nil {
		return internalError(err, "failed to check license")
	}
	if exists {
		return appErrors.Clone(appErrors.ErrConflict, "license already registered to another driver")
	}

	if err := parseDates(
		dateField{"cdl_issue_date", req.CDLIssueDate, &driver.CDLIssueDate},
		dateField{"cdl_expiration_date", req.CDLExpirationDate, &driver.CDLExpirationDate},
		dateField{"medical_exam_date", req.MedicalExamDate, &driver.MedicalExamDate},
		dateField{"medical_card_expiration_date", req.MedicalCardExpirationDate, &driver.MedicalCardExpirationDate},
		dateField{"hire_date", req.HireDate, &driver.HireDate},
	); err != nil {
		return err
	}

	driver.CompanyID = companyID
	driver.FirstName = req.FirstName
	driver.LastName = req.LastName
	driver.Email = req.Email
	driver.Phone = req.Phone
	driver.LicenseNumber = req.LicenseNumber
	driver.LicenseState = state
	driver.CDLClass = req.CDLClass
	if req.Active != nil {
		driver.Active = *req.Active
	}
	return nil
}

// resolveCompany picks the owning company for a new record. Scoped callers always write to
// their own company.
func resolveCompany(ctx context.Context, companies companyChecker, scope, requested string) (string, error) {
	companyID := requested
	if scope != "" {
		if requested != "" && requested != scope {
			return "", appErrors.Clone(appErrors.ErrForbidden, "cannot write records for another company")
		}
		companyID = scope
	}
	if companyID == "" {
		return "", appErrors.Clone(appErrors.ErrValidation, "company_id is required")
	}
	if companies != nil {
		if err := companies.Exists(ctx, companyID); err != nil {
			return "", err
		}
	}
	return companyID, nil
}
