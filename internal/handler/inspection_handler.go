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

type inspectionService interface {
	List(ctx context.Context, q models.ListQuery, vehicleID string) ([]dto.InspectionRow, *models.Pagination, error)
	Get(ctx context.Context, scope, id string) (*dto.InspectionRow, error)
	Create(ctx context.Context, scope string, req service.InspectionRequest) (*dto.InspectionRow, error)
	Update(ctx context.Context, scope, id string, req service.InspectionRequest) (*dto.InspectionRow, error)
	Delete(ctx context.Context, scope, id string) error
}

// InspectionHandler exposes annual vehicle inspection endpoints.
type InspectionHandler struct {
	service inspectionService
}

// NewInspectionHandler constructs an InspectionHandler.
func NewInspectionHandler(svc inspectionService) *InspectionHandler {
	return &InspectionHandler{service: svc}
}

// List godoc
// @Summary List annual inspections
// @Tags Inspections
// @Produce json
// @Param vehicle_id query string false "Vehicle filter"
// @Param status query string false "valid, expiring, expired or unknown"
// @Param search query string false "Search term"
// @Param sort query string false "Sort field"
// @Param order query string false "asc or desc"
// @Param page query int false "Page number"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /inspections [get]
func (h *InspectionHandler) List(c *gin.Context) {
	claims, ok := requireClaims(c)
	if !ok {
		return
	}
	q, err := listQuery(c, claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	rows, pagination, err := h.service.List(c.Request.Context(), q, strings.TrimSpace(c.Query("vehicle_id")))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rows, pagination)
}

// Get godoc
// @Summary Get annual inspection
// @Tags Inspections
// @Produce json
// @Param id path string true "Inspection ID"
// @Success 200 {object} response.Envelope
// @Router /inspections/{id} [get]
func (h *InspectionHandler) Get(c *gin.Context) {
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
// @Summary Record an annual inspection
// @Tags Inspections
// @Accept json
// @Produce json
// @Param payload body service.InspectionRequest true "Inspection payload"
// @Success 201 {object} response.Envelope
// @Router /inspections [post]
func (h *InspectionHandler) Create(c *gin.Context) {
	claims, ok := requireClaims(c)
	if !ok {
		return
	}
	var req service.InspectionRequest
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
// @Summary Update annual inspection
// @Tags Inspections
// @Accept json
// @Produce json
// @Param id path string true "Inspection ID"
// @Param payload body service.InspectionRequest true "Inspection payload"
// @Success 200 {object} response.Envelope
// @Router /inspections/{id} [put]
func (h *InspectionHandler) Update(c *gin.Context) {
	claims, ok := requireClaims(c)
	if !ok {
		return
	}
	var req service.InspectionRequest
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
// @Summary Delete annual inspection
// @Tags Inspections
// @Param id path string true "Inspection ID"
// @Success 204
// @Router /inspections/{id} [delete]
func (h *InspectionHandler) Delete(c *gin.Context) {
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
