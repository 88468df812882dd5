package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/fleet-compliance-api/internal/dto"
	"github.com/noah-isme/fleet-compliance-api/internal/models"
	"github.com/noah-isme/fleet-compliance-api/internal/service"
	"github.com/noah-isme/fleet-compliance-api/pkg/response"
)

type tripService interface {
	List(ctx context.Context, q models.ListQuery, filter models.TripFilter) ([]models.Trip, *models.Pagination, error)
	Get(ctx context.Context, scope, id string) (*models.Trip, error)
	Create(ctx context.Context, scope string, req service.CreateTripRequest) (*models.Trip, error)
	Eligibility(ctx context.Context, scope, id string) (*dto.TripEligibility, error)
	Start(ctx context.Context, scope, id string) (*models.Trip, error)
	Complete(ctx context.Context, scope, id string) (*models.Trip, error)
	Cancel(ctx context.Context, scope, id string, req service.CancelTripRequest) (*models.Trip, error)
}

// TripHandler exposes trip dispatch endpoints.
type TripHandler struct {
	service tripService
}

// NewTripHandler constructs a TripHandler.
func NewTripHandler(svc tripService) *TripHandler {
	return &TripHandler{service: svc}
}

// List godoc
// @Summary List trips
// @Tags Trips
// @Produce json
// @Param status query string false "PLANNED, IN_PROGRESS, COMPLETED or CANCELLED"
// @Param driver_id query string false "Driver filter"
// @Param search query string false "Search term"
// @Param sort query string false "Sort field"
// @Param order query string false "asc or desc"
// @Param page query int false "Page number"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /trips [get]
func (h *TripHandler) List(c *gin.Context) {
	claims, ok := requireClaims(c)
	if !ok {
		return
	}
	q, err := listQuery(c, claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	filter := models.TripFilter{DriverID: strings.TrimSpace(c.Query("driver_id")), Status: models.TripStatus(q.Status)}
	q.Status = ""
	trips, pagination, err := h.service.List(c.Request.Context(), q, filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, trips, pagination)
}

// Get godoc
// @Summary Get trip
// @Tags Trips
// @Produce json
// @Param id path string true "Trip ID"
// @Success 200 {object} response.Envelope
// @Router /trips/{id} [get]
func (h *TripHandler) Get(c *gin.Context) {
	claims, ok := requireClaims(c)
	if !ok {
		return
	}
	trip, err := h.service.Get(c.Request.Context(), claims.CompanyScope(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, trip, nil)
}

// Create godoc
// @Summary Plan a trip
// @Tags Trips
// @Accept json
// @Produce json
// @Param payload body service.CreateTripRequest true "Trip payload"
// @Success 201 {object} response.Envelope
// @Router /trips [post]
func (h *TripHandler) Create(c *gin.Context) {
	claims, ok := requireClaims(c)
	if !ok {
		return
	}
	var req service.CreateTripRequest
	if !bindJSON(c, &req) {
		return
	}
	trip, err := h.service.Create(c.Request.Context(), claims.CompanyScope(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, trip)
}

// Eligibility godoc
// @Summary Check whether a planned trip may start
// @Tags Trips
// @Produce json
// @Param id path string true "Trip ID"
// @Success 200 {object} response.Envelope
// @Router /trips/{id}/eligibility [get]
func (h *TripHandler) Eligibility(c *gin.Context) {
	claims, ok := requireClaims(c)
	if !ok {
		return
	}
	result, err := h.service.Eligibility(c.Request.Context(), claims.CompanyScope(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Start godoc
// @Summary Start a trip
// @Description Refused with COMPLIANCE_BLOCKED when the driver or equipment is out of compliance.
// @Tags Trips
// @Produce json
// @Param id path string true "Trip ID"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /trips/{id}/start [post]
func (h *TripHandler) Start(c *gin.Context) {
	h.transition(c, h.service.Start)
}

// Complete godoc
// @Summary Complete a trip
// @Tags Trips
// @Produce json
// @Param id path string true "Trip ID"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /trips/{id}/complete [post]
func (h *TripHandler) Complete(c *gin.Context) {
	h.transition(c, h.service.Complete)
}

// Cancel godoc
// @Summary Cancel a trip
// @Tags Trips
// @Accept json
// @Produce json
// @Param id path string true "Trip ID"
// @Param payload body service.CancelTripRequest false "Cancellation reason"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /trips/{id}/cancel [post]
func (h *TripHandler) Cancel(c *gin.Context) {
	claims, ok := requireClaims(c)
	if !ok {
		return
	}
	var req service.CancelTripRequest
	if c.Request.ContentLength != 0 && !bindJSON(c, &req) {
		return
	}
	trip, err := h.service.Cancel(c.Request.Context(), claims.CompanyScope(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, trip, nil)
}

func (h *TripHandler) transition(c *gin.Context, fn func(ctx context.Context, scope, id string) (*models.Trip, error)) {
	claims, ok := requireClaims(c)
	if !ok {
		return
	}
	trip, err := fn(c.Request.Context(), claims.CompanyScope(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, trip, nil)
}
