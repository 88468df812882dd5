package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/fleet-compliance-api/internal/dto"
	"github.com/noah-isme/fleet-compliance-api/internal/models"
	appErrors "github.com/noah-isme/fleet-compliance-api/pkg/errors"
)

type tripRepository interface {
	List(ctx context.Context, filter models.TripFilter) ([]models.Trip, error)
	FindByID(ctx context.Context, id string) (*models.Trip, error)
	Create(ctx context.Context, trip *models.Trip) error
	Transition(ctx context.Context, trip *models.Trip, from models.TripStatus) (bool, error)
}

type tripGate interface {
	CheckTripEligibility(ctx context.Context, driverID, truckID string, trailerID *string) (*dto.TripEligibility, error)
	Now() time.Time
}

// CreateTripRequest plans a trip.
type CreateTripRequest struct {
	DriverID       string  `json:"driver_id" validate:"required"`
	TruckID        string  `json:"truck_id" validate:"required"`
	TrailerID      *string `json:"trailer_id"`
	Origin         string  `json:"origin" validate:"required,max=200"`
	Destination    string  `json:"destination" validate:"required,max=200"`
	ScheduledStart *string `json:"scheduled_start"`
}

// CancelTripRequest carries the optional cancellation reason.
type CancelTripRequest struct {
	Reason *string `json:"reason" validate:"omitempty,max=500"`
}

// TripService coordinates trip dispatch. Starting a trip is gated by compliance.
type TripService struct {
	repo      tripRepository
	drivers   driverFinder
	vehicles  vehicleFinder
	gate      tripGate
	validator *validator.Validate
	logger    *zap.Logger
}

// NewTripService constructs TripService.
func NewTripService(repo tripRepository, drivers driverFinder, vehicles vehicleFinder, gate tripGate, validate *validator.Validate, logger *zap.Logger) *TripService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TripService{repo: repo, drivers: drivers, vehicles: vehicles, gate: gate, validator: validate, logger: logger}
}

// List returns trips in scope.
func (s *TripService) List(ctx context.Context, q models.ListQuery, filter models.TripFilter) ([]models.Trip, *models.Pagination, error) {
	filter.CompanyID = q.CompanyID
	filter.Status = models.TripStatus(strings.ToUpper(string(filter.Status)))
	trips, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, internalError(err, "failed to list trips")
	}
	page, pagination := paginate(trips, q, tripSearchFields)
	return page, pagination, nil
}

// Get returns a trip.
func (s *TripService) Get(ctx context.Context, scope, id string) (*models.Trip, error) {
	trip, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, "trip")
	}
	if !scoped(scope, trip.CompanyID) {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "trip not found")
	}
	return trip, nil
}

// Create plans a trip for a driver, a truck and an optional trailer of the same company.
func (s *TripService) Create(ctx context.Context, scope string, req CreateTripRequest) (*models.Trip, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid trip payload")
	}
	scheduled, err := parseDate("scheduled_start", req.ScheduledStart)
	if err != nil {
		return nil, err
	}

	driver, err := s.drivers.FindByID(ctx, req.DriverID)
	if err != nil {
		return nil, referenceError(err, "driver_id")
	}
	if !scoped(scope, driver.CompanyID) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "driver_id does not reference an existing record")
	}
	if err := s.checkEquipment(ctx, driver.CompanyID, req.TruckID, models.VehicleTypeTruck, "truck_id"); err != nil {
		return nil, err
	}
	if req.TrailerID != nil && *req.TrailerID != "" {
		if err := s.checkEquipment(ctx, driver.CompanyID, *req.TrailerID, models.VehicleTypeTrailer, "trailer_id"); err != nil {
			return nil, err
		}
	} else {
		req.TrailerID = nil
	}

	trip := &models.Trip{
		CompanyID:      driver.CompanyID,
		DriverID:       driver.ID,
		TruckID:        req.TruckID,
		TrailerID:      req.TrailerID,
		Origin:         req.Origin,
		Destination:    req.Destination,
		ScheduledStart: scheduled,
		Status:         models.TripPlanned,
	}
	if err := s.repo.Create(ctx, trip); err != nil {
		return nil, internalError(err, "failed to create trip")
	}
	return trip, nil
}

// Eligibility reports whether the trip could start now without starting it.
func (s *TripService) Eligibility(ctx context.Context, scope, id string) (*dto.TripEligibility, error) {
	trip, err := s.Get(ctx, scope, id)
	if err != nil {
		return nil, err
	}
	result, err := s.gate.CheckTripEligibility(ctx, trip.DriverID, trip.TruckID, trip.TrailerID)
	if err != nil && !errors.Is(err, appErrors.ErrComplianceBlocked) {
		return nil, err
	}
	return result, nil
}

// Start dispatches a planned trip once the driver and equipment pass compliance.
func (s *TripService) Start(ctx context.Context, scope, id string) (*models.Trip, error) {
	trip, err := s.Get(ctx, scope, id)
	if err != nil {
		return nil, err
	}
	if !trip.Status.CanTransition(models.TripInProgress) {
		return nil, transitionError(trip.Status, models.TripInProgress)
	}
	if _, err := s.gate.CheckTripEligibility(ctx, trip.DriverID, trip.TruckID, trip.TrailerID); err != nil {
		if errors.Is(err, appErrors.ErrComplianceBlocked) {
			s.logger.Info("trip start blocked", zap.String("trip_id", trip.ID), zap.Any("reasons", appErrors.FromError(err).Details))
		}
		return nil, err
	}
	now := s.gate.Now()
	trip.StartedAt = &now
	return s.transition(ctx, trip, models.TripInProgress)
}

// Complete finishes a trip in progress.
func (s *TripService) Complete(ctx context.Context, scope, id string) (*models.Trip, error) {
	trip, err := s.Get(ctx, scope, id)
	if err != nil {
		return nil, err
	}
	if !trip.Status.CanTransition(models.TripCompleted) {
		return nil, transitionError(trip.Status, models.TripCompleted)
	}
	now := s.gate.Now()
	trip.CompletedAt = &now
	return s.transition(ctx, trip, models.TripCompleted)
}

// Cancel abandons a planned or running trip.
func (s *TripService) Cancel(ctx context.Context, scope, id string, req CancelTripRequest) (*models.Trip, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid cancel payload")
	}
	trip, err := s.Get(ctx, scope, id)
	if err != nil {
		return nil, err
	}
	if !trip.Status.CanTransition(models.TripCancelled) {
		return nil, transitionError(trip.Status, models.TripCancelled)
	}
	now := s.gate.Now()
	trip.CancelledAt = &now
	trip.CancelReason = req.Reason
	return s.transition(ctx, trip, models.TripCancelled)
}

func (s *TripService) transition(ctx context.Context, trip *models.Trip, next models.TripStatus) (*models.Trip, error) {
	from := trip.Status
	trip.Status = next
	ok, err := s.repo.Transition(ctx, trip, from)
	if err != nil {
		return nil, internalError(err, "failed to update trip")
	}
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrInvalidTransition, "trip was modified concurrently")
	}
	s.logger.Info("trip transitioned", zap.String("trip_id", trip.ID), zap.String("from", string(from)), zap.String("to", string(next)))
	return trip, nil
}

func (s *TripService) checkEquipment(ctx context.Context, companyID, id string, want models.VehicleType, field string) error {
	vehicle, err := s.vehicles.FindByID(ctx, id)
	if err != nil {
		return referenceError(err, field)
	}
	if vehicle.CompanyID != companyID {
		return appErrors.Clone(appErrors.ErrValidation, field+" belongs to another company")
	}
	if vehicle.Type != want {
		return appErrors.Clone(appErrors.ErrValidation, field+" must reference a "+strings.ToLower(string(want)))
	}
	return nil
}

func transitionError(from, to models.TripStatus) error {
	return appErrors.Clone(appErrors.ErrInvalidTransition, "cannot move trip from "+string(from)+" to "+string(to))
}
