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

type vehicleRepository interface {
	FindByID(ctx context.Context, id string) (*models.Vehicle, error)
	ExistsByVIN(ctx context.Context, vin, excludeID string) (bool, error)
	Create(ctx context.Context, vehicle *models.Vehicle) error
	Update(ctx context.Context, vehicle *models.Vehicle) error
	Deactivate(ctx context.Context, id string) error
}

type vehicleInspections interface {
	ListByVehicleIDs(ctx context.Context, vehicleIDs []string) ([]models.AnnualInspection, error)
}

type vehicleClassifier interface {
	Vehicles(ctx context.Context, q models.ListQuery, vehicleType models.VehicleType) ([]dto.VehicleRow, *models.Pagination, error)
	VehicleRow(vehicle models.Vehicle, inspections []models.AnnualInspection) dto.VehicleRow
}

// VehicleRequest is the create and update payload for trucks and trailers.
type VehicleRequest struct {
	CompanyID                 string             `json:"company_id"`
	UnitNumber                string             `json:"unit_number" validate:"required,max=30"`
	Type                      models.VehicleType `json:"type" validate:"required,oneof=TRUCK TRAILER"`
	VIN                       string             `json:"vin" validate:"required,len=17,alphanum"`
	Make                      *string            `json:"make" validate:"omitempty,max=50"`
	Model                     *string            `json:"model" validate:"omitempty,max=50"`
	Year                      *int               `json:"year" validate:"omitempty,min=1950,max=2100"`
	LicensePlate              *string            `json:"license_plate" validate:"omitempty,max=15"`
	PlateState                *string            `json:"plate_state" validate:"omitempty,len=2,alpha"`
	LastMaintenanceReviewDate *string            `json:"last_maintenance_review_date"`
	Active                    *bool              `json:"active"`
}

// VehicleService coordinates vehicle records.
type VehicleService struct {
	repo        vehicleRepository
	inspections vehicleInspections
	companies   companyChecker
	classifier  vehicleClassifier
	cache       cacheInvalidator
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewVehicleService constructs VehicleService.
func NewVehicleService(repo vehicleRepository, inspections vehicleInspections, companies companyChecker, classifier vehicleClassifier, cache cacheInvalidator, validate *validator.Validate, logger *zap.Logger) *VehicleService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &VehicleService{repo: repo, inspections: inspections, companies: companies, classifier: classifier, cache: cache, validator: validate, logger: logger}
}

// List returns classified vehicles, optionally of one type.
func (s *VehicleService) List(ctx context.Context, q models.ListQuery, vehicleType models.VehicleType) ([]dto.VehicleRow, *models.Pagination, error) {
	if vehicleType != "" && vehicleType != models.VehicleTypeTruck && vehicleType != models.VehicleTypeTrailer {
		return nil, nil, appErrors.Clone(appErrors.ErrValidation, "type must be TRUCK or TRAILER")
	}
	return s.classifier.Vehicles(ctx, q, vehicleType)
}

// Get returns a classified vehicle.
func (s *VehicleService) Get(ctx context.Context, scope, id string) (*dto.VehicleRow, error) {
	vehicle, err := s.load(ctx, scope, id)
	if err != nil {
		return nil, err
	}
	return s.row(ctx, *vehicle)
}

// Create registers a vehicle.
func (s *VehicleService) Create(ctx context.Context, scope string, req VehicleRequest) (*dto.VehicleRow, error) {
	vehicle := &models.Vehicle{Active: true}
	if err := s.apply(ctx, scope, vehicle, req, ""); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, vehicle); err != nil {
		return nil, internalError(err, "failed to create vehicle")
	}
	invalidateCompliance(ctx, s.cache, s.logger)
	row := s.classifier.VehicleRow(*vehicle, nil)
	return &row, nil
}

// Update modifies a vehicle.
func (s *VehicleService) Update(ctx context.Context, scope, id string, req VehicleRequest) (*dto.VehicleRow, error) {
	vehicle, err := s.load(ctx, scope, id)
	if err != nil {
		return nil, err
	}
	req.CompanyID = vehicle.CompanyID
	if err := s.apply(ctx, scope, vehicle, req, id); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, vehicle); err != nil {
		return nil, internalError(err, "failed to update vehicle")
	}
	invalidateCompliance(ctx, s.cache, s.logger)
	return s.row(ctx, *vehicle)
}

// Delete takes a vehicle out of service.
func (s *VehicleService) Delete(ctx context.Context, scope, id string) error {
	if _, err := s.load(ctx, scope, id); err != nil {
		return err
	}
	if err := s.repo.Deactivate(ctx, id); err != nil {
		return internalError(err, "failed to deactivate vehicle")
	}
	invalidateCompliance(ctx, s.cache, s.logger)
	return nil
}

func (s *VehicleService) row(ctx context.Context, vehicle models.Vehicle) (*dto.VehicleRow, error) {
	inspections, err := s.inspections.ListByVehicleIDs(ctx, []string{vehicle.ID})
	if err != nil {
		return nil, internalError(err, "failed to load inspections")
	}
	row := s.classifier.VehicleRow(vehicle, inspections)
	return &row, nil
}

func (s *VehicleService) load(ctx context.Context, scope, id string) (*models.Vehicle, error) {
	vehicle, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, "vehicle")
	}
	if !scoped(scope, vehicle.CompanyID) {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "vehicle not found")
	}
	return vehicle, nil
}

func (s *VehicleService) apply(ctx context.Context, scope string, vehicle *models.Vehicle, req VehicleRequest, excludeID string) error {
	if err := s.validator.Struct(req); err != nil {
		return validationError(err, "invalid vehicle payload")
	}
	companyID, err := resolveCompany(ctx, s.companies, scope, req.CompanyID)
	if err != nil {
		return err
	}

	vin := strings.ToUpper(req.VIN)
	exists, err := s.repo.ExistsByVIN(ctx, vin, excludeID)
	if err != nil {
		return internalError(err, "failed to check VIN")
	}
	if exists {
		return appErrors.Clone(appErrors.ErrConflict, "VIN already registered")
	}
	if err := parseDates(dateField{"last_maintenance_review_date", req.LastMaintenanceReviewDate, &vehicle.LastMaintenanceReviewDate}); err != nil {
		return err
	}

	vehicle.CompanyID = companyID
	vehicle.UnitNumber = req.UnitNumber
	vehicle.Type = req.Type
	vehicle.VIN = vin
	vehicle.Make = req.Make
	vehicle.Model = req.Model
	vehicle.Year = req.Year
	vehicle.LicensePlate = req.LicensePlate
	vehicle.PlateState = req.PlateState
	if req.Active != nil {
		vehicle.Active = *req.Active
	}
	return nil
}
