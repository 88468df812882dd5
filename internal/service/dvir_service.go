package service

import (
	"context"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/fleet-compliance-api/internal/models"
	appErrors "github.com/noah-isme/fleet-compliance-api/pkg/errors"
)

type dvirRepository interface {
	List(ctx context.Context, filter models.DVIRFilter) ([]models.DVIR, error)
	FindByID(ctx context.Context, id string) (*models.DVIR, error)
	Create(ctx context.Context, report *models.DVIR) error
	SaveReview(ctx context.Context, report *models.DVIR) (bool, error)
}

type driverFinder interface {
	FindByID(ctx context.Context, id string) (*models.Driver, error)
}

// CreateDVIRRequest is a driver vehicle inspection report submission.
type CreateDVIRRequest struct {
	DriverID       string          `json:"driver_id" validate:"required"`
	VehicleID      string          `json:"vehicle_id" validate:"required"`
	TripID         *string         `json:"trip_id"`
	InspectionType models.DVIRType `json:"inspection_type" validate:"required,oneof=PRE_TRIP POST_TRIP"`
	Odometer       *int            `json:"odometer" validate:"omitempty,min=0"`
	DefectsFound   bool            `json:"defects_found"`
	Defects        *string         `json:"defects" validate:"omitempty,max=2000"`
}

// ReviewDVIRRequest certifies a submitted DVIR.
type ReviewDVIRRequest struct {
	Outcome *models.DVIRReviewOutcome `json:"outcome" validate:"omitempty,oneof=defects_corrected correction_not_needed"`
	Notes   *string                   `json:"notes" validate:"omitempty,max=2000"`
}

// DVIRService coordinates driver vehicle inspection reports.
type DVIRService struct {
	repo      dvirRepository
	drivers   driverFinder
	vehicles  vehicleFinder
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewDVIRService constructs DVIRService.
func NewDVIRService(repo dvirRepository, drivers driverFinder, vehicles vehicleFinder, validate *validator.Validate, logger *zap.Logger) *DVIRService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DVIRService{repo: repo, drivers: drivers, vehicles: vehicles, validator: validate, logger: logger, now: func() time.Time { return time.Now().UTC() }}
}

// List returns DVIRs, newest submissions first unless a sort is given.
func (s *DVIRService) List(ctx context.Context, q models.ListQuery, filter models.DVIRFilter) ([]models.DVIR, *models.Pagination, error) {
	filter.CompanyID = q.CompanyID
	filter.Status = models.DVIRStatus(strings.ToUpper(string(filter.Status)))
	if filter.Status != "" && filter.Status != models.DVIRStatusSubmitted && filter.Status != models.DVIRStatusReviewed {
		return nil, nil, appErrors.Clone(appErrors.ErrValidation, "status must be SUBMITTED or REVIEWED")
	}
	reports, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, internalError(err, "failed to list dvirs")
	}
	if q.SortBy == "" {
		q.SortBy, q.SortOrder = "submitted_at", "desc"
	}
	page, pagination := paginate(reports, q, dvirSearchFields)
	return page, pagination, nil
}

// Get returns a DVIR.
func (s *DVIRService) Get(ctx context.Context, scope, id string) (*models.DVIR, error) {
	report, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, "dvir")
	}
	if !scoped(scope, report.CompanyID) {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "dvir not found")
	}
	return report, nil
}

// Create records a DVIR submission.
func (s *DVIRService) Create(ctx context.Context, scope string, req CreateDVIRRequest) (*models.DVIR, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid dvir payload")
	}
	if req.DefectsFound && (req.Defects == nil || strings.TrimSpace(*req.Defects) == "") {
		return nil, appErrors.Clone(appErrors.ErrValidation, "defects must be described when defects_found is set")
	}

	driver, err := s.drivers.FindByID(ctx, req.DriverID)
	if err != nil {
		return nil, referenceError(err, "driver_id")
	}
	vehicle, err := s.vehicles.FindByID(ctx, req.VehicleID)
	if err != nil {
		return nil, referenceError(err, "vehicle_id")
	}
	if !scoped(scope, driver.CompanyID) || driver.CompanyID != vehicle.CompanyID {
		return nil, appErrors.Clone(appErrors.ErrValidation, "driver and vehicle must belong to the same company")
	}

	now := s.now()
	report := &models.DVIR{
		CompanyID:      driver.CompanyID,
		DriverID:       driver.ID,
		VehicleID:      vehicle.ID,
		TripID:         req.TripID,
		InspectionType: req.InspectionType,
		Odometer:       req.Odometer,
		DefectsFound:   req.DefectsFound,
		Defects:        req.Defects,
		Status:         models.DVIRStatusSubmitted,
		SubmittedAt:    now,
	}
	if err := s.repo.Create(ctx, report); err != nil {
		return nil, internalError(err, "failed to create dvir")
	}
	return report, nil
}

// Review certifies a submitted DVIR. A report listing defects needs an outcome stating whether
// the defects were corrected or correction was unnecessary.
func (s *DVIRService) Review(ctx context.Context, scope, id, reviewerID string, req ReviewDVIRRequest) (*models.DVIR, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid review payload")
	}
	report, err := s.Get(ctx, scope, id)
	if err != nil {
		return nil, err
	}
	if report.Status != models.DVIRStatusSubmitted {
		return nil, appErrors.Clone(appErrors.ErrInvalidTransition, "dvir already reviewed")
	}
	switch {
	case report.DefectsFound && req.Outcome == nil:
		return nil, appErrors.Clone(appErrors.ErrValidation, "outcome is required when defects were reported")
	case !report.DefectsFound && req.Outcome != nil:
		return nil, appErrors.Clone(appErrors.ErrValidation, "outcome only applies to reports with defects")
	}

	now := s.now()
	report.Status = models.DVIRStatusReviewed
	report.ReviewOutcome = req.Outcome
	report.ReviewedBy = &reviewerID
	report.ReviewedAt = &now
	report.ReviewNotes = req.Notes

	saved, err := s.repo.SaveReview(ctx, report)
	if err != nil {
		return nil, internalError(err, "failed to review dvir")
	}
	if !saved {
		return nil, appErrors.Clone(appErrors.ErrInvalidTransition, "dvir already reviewed")
	}
	s.logger.Info("dvir reviewed", zap.String("dvir_id", report.ID), zap.String("reviewer_id", reviewerID))
	return report, nil
}
