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

type vehicleService interface {
	List(ctx context.Context, q models.ListQuery, vehicleType models.VehicleType) ([]dto.VehicleRow, *models.Pagination, error)
	Get(ctx context.Context, scope, id string) (*dto.VehicleRow, error)
	Create(ctx context.Context, scope string, req service.VehicleRequest) (*dto.VehicleRow, error)
	Update(ctx context.Context, scope, id string, req service.VehicleRequest) (*dto.VehicleRow, error)
	Delete(ctx context.Context, scope, id string) error
}

// VehicleHandler exposes truck and trailer endpoints.
type VehicleHandler struct {
	service vehicleService
}

// NewVehicleHandler constructs a VehicleHandler.
func NewVehicleHandler(svc vehicleService) *VehicleHandler {
	return &VehicleHandler{service: svc}
}

// List godoc
// @Summary List vehicles with maintenance and annual inspection status
// @Tags Vehicles
// @Produce json
// @Param type query string false "TRUCK or TRAILER"
// @Param search query string false "Search term"
// @Param status query string false "valid, expiring, expired or unknown"
// @Param sort query string false "Sort field"
// @Param order query string false "asc or desc"
// @Param page query int false "Page number"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /vehicles [get]
func (h *VehicleHandler) List(c *gin.Context) {
	claims, ok := requireClaims(c)
	if !ok {
		return
	}
	q, err := listQuery(c, claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	vehicleType := models.VehicleType(strings.ToUpper(strings.TrimSpace(c.Query("type"))))
	rows, pagination, err := h.service.List(c.Request.Context(), q, vehicleType)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rows, pagination)
}

// Get godoc
// @Summary Get vehicle
// @Tags Vehicles
// @Produce json
// @Param id path string true "Vehicle ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /vehicles/{id} [get]
func (h *VehicleHandler) Get(c *gin.Context) {
	claims, ok := requireClaims(c)
	if !ok {
		return
	}
	row, err := h.service.Get(c.Request.Context(), claims.CompanyScope(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, row, nil)
}

// Create godoc
// @Summary Create vehicle
// @Tags Vehicles
// @Accept json
// @Produce json
// @Param payload body service.VehicleRequest true "Vehicle payload"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /vehicles [post]
func (h *VehicleHandler) Create(c *gin.Context) {
	claims, ok := requireClaims(c)
	if !ok {
		return
	}
	var req service.VehicleRequest
	if !bindJSON(c, &req) {
		return
	}
	row, err := h.service.Create(c.Request.Context(), claims.CompanyScope(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, row)
}

// Update godoc
// @Summary Update vehicle
// @Tags Vehicles
// @Accept json
// @Produce json
// @Param id path string true "Vehicle ID"
// @Param payload body service.VehicleRequest true "Vehicle payload"
// @Success 200 {object} response.Envelope
// @Router /vehicles/{id} [put]
func (h *VehicleHandler) Update(c *gin.Context) {
	claims, ok := requireClaims(c)
	if !ok {
		return
	}
	var req service.VehicleRequest
	if !bindJSON(c, &req) {
		return
	}
	row, err := h.service.Update(c.Request.Context(), claims.CompanyScope(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, row, nil)
}

// Delete godoc
// @Summary Take a vehicle out of service
// @Tags Vehicles
// @Param id path string true "Vehicle ID"
// @Success 204
// @Router /vehicles/{id} [delete]
func (h *VehicleHandler) Delete(c *gin.Context) {
	claims, ok := requireClaims(c)
	if !ok {
		return
	}
	if err := h.service.Delete(c.Request.Context(), claims.CompanyScope(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
