package service

import (
	"context"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/fleet-compliance-api/internal/dto"
	"github.com/noah-isme/fleet-compliance-api/internal/models"
	appErrors "github.com/noah-isme/fleet-compliance-api/pkg/errors"
)

type inspectionRepository interface {
	FindByID(ctx context.Context, id string) (*models.AnnualInspection, error)
	Create(ctx context.Context, inspection *models.AnnualInspection) error
	Update(ctx context.Context, inspection *models.AnnualInspection) error
	Delete(ctx context.Context, id string) error
}

type vehicleFinder interface {
	FindByID(ctx context.Context, id string) (*models.Vehicle, error)
}

type inspectorFinder interface {
	FindByID(ctx context.Context, id string) (*models.QualifiedInspector, error)
}

type inspectionClassifier interface {
	Inspections(ctx context.Context, q models.ListQuery, vehicleID string) ([]dto.InspectionRow, *models.Pagination, error)
	InspectionRow(inspection models.AnnualInspection) dto.InspectionRow
}

// InspectionRequest is the create and update payload for annual inspections.
type InspectionRequest struct {
	VehicleID      string  `json:"vehicle_id" validate:"required"`
	InspectorID    *string `json:"inspector_id"`
	InspectionDate string  `json:"inspection_date" validate:"required"`
	Location       *string `json:"location" validate:"omitempty,max=200"`
	Passed         bool    `json:"passed"`
	Defects        *string `json:"defects"`
	Notes          *string `json:"notes"`
}

// InspectionService coordinates annual inspection records.
type InspectionService struct {
	repo       inspectionRepository
	vehicles   vehicleFinder
	inspectors inspectorFinder
	classifier inspectionClassifier
	cache      cacheInvalidator
	validator  *validator.Validate
	logger     *zap.Logger
}

// NewInspectionService constructs InspectionService.
func NewInspectionService(repo inspectionRepository, vehicles vehicleFinder, inspectors inspectorFinder, classifier inspectionClassifier, cache cacheInvalidator, validate *validator.Validate, logger *zap.Logger) *InspectionService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &InspectionService{repo: repo, vehicles: vehicles, inspectors: inspectors, classifier: classifier, cache: cache, validator: validate, logger: logger}
}

// List returns classified inspections, optionally for one vehicle.
func (s *InspectionService) List(ctx context.Context, q models.ListQuery, vehicleID string) ([]dto.InspectionRow, *models.Pagination, error) {
	return s.classifier.Inspections(ctx, q, vehicleID)
}

// Get returns a classified inspection.
func (s *InspectionService) Get(ctx context.Context, scope, id string) (*dto.InspectionRow, error) {
	inspection, err := s.load(ctx, scope, id)
	if err != nil {
		return nil, err
	}
	row := s.classifier.InspectionRow(*inspection)
	return &row, nil
}

// Create records an annual inspection.
func (s *InspectionService) Create(ctx context.Context, scope string, req InspectionRequest) (*dto.InspectionRow, error) {
	inspection := &models.AnnualInspection{}
	if err := s.apply(ctx, scope, inspection, req); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, inspection); err != nil {
		return nil, internalError(err, "failed to create inspection")
	}
	invalidateCompliance(ctx, s.cache, s.logger)
	row := s.classifier.InspectionRow(*inspection)
	return &row, nil
}

// Update modifies an inspection.
func (s *InspectionService) Update(ctx context.Context, scope, id string, req InspectionRequest) (*dto.InspectionRow, error) {
	inspection, err := s.load(ctx, scope, id)
	if err != nil {
		return nil, err
	}
	if err := s.apply(ctx, scope, inspection, req); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, inspection); err != nil {
		return nil, internalError(err, "failed to update inspection")
	}
	invalidateCompliance(ctx, s.cache, s.logger)
	row := s.classifier.InspectionRow(*inspection)
	return &row, nil
}

// Delete removes an inspection recorded in error.
func (s *InspectionService) Delete(ctx context.Context, scope, id string) error {
	if _, err := s.load(ctx, scope, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return internalError(err, "failed to delete inspection")
	}
	invalidateCompliance(ctx, s.cache, s.logger)
	return nil
}

func (s *InspectionService) load(ctx context.Context, scope, id string) (*models.AnnualInspection, error) {
	inspection, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, "inspection")
	}
	if !scoped(scope, inspection.CompanyID) {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "inspection not found")
	}
	return inspection, nil
}

func (s *InspectionService) apply(ctx context.Context, scope string, inspection *models.AnnualInspection, req InspectionRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return validationError(err, "invalid inspection payload")
	}
	date, err := parseDate("inspection_date", &req.InspectionDate)
	if err != nil {
		return err
	}

	vehicle, err := s.vehicles.FindByID(ctx, req.VehicleID)
	if err != nil {
		return referenceError(err, "vehicle_id")
	}
	if !scoped(scope, vehicle.CompanyID) {
		return appErrors.Clone(appErrors.ErrValidation, "vehicle_id does not reference a vehicle")
	}
	if req.InspectorID != nil && *req.InspectorID != "" {
		inspector, err := s.inspectors.FindByID(ctx, *req.InspectorID)
		if err != nil {
			return referenceError(err, "inspector_id")
		}
		if inspector.CompanyID != vehicle.CompanyID {
			return appErrors.Clone(appErrors.ErrValidation, "inspector belongs to another company")
		}
	}

	inspection.CompanyID = vehicle.CompanyID
	inspection.VehicleID = vehicle.ID
	inspection.InspectorID = req.InspectorID
	inspection.InspectionDate = date
	inspection.Location = req.Location
	inspection.Passed = req.Passed
	inspection.Defects = req.Defects
	inspection.Notes = req.Notes
	return nil
}
