package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/fleet-compliance-api/internal/dto"
	"github.com/noah-isme/fleet-compliance-api/internal/models"
	"github.com/noah-isme/fleet-compliance-api/internal/service"
	"github.com/noah-isme/fleet-compliance-api/pkg/response"
)

type driverService interface {
	List(ctx context.Context, q models.ListQuery) ([]dto.DriverRow, *models.Pagination, error)
	Get(ctx context.Context, scope, id string) (*dto.DriverRow, error)
	Create(ctx context.Context, scope string, req service.DriverRequest) (*dto.DriverRow, error)
	Update(ctx context.Context, scope, id string, req service.DriverRequest) (*dto.DriverRow, error)
	Delete(ctx context.Context, scope, id string) error
}

// DriverHandler exposes driver qualification endpoints.
type DriverHandler struct {
	service driverService
}

// NewDriverHandler constructs a DriverHandler.
func NewDriverHandler(svc driverService) *DriverHandler {
	return &DriverHandler{service: svc}
}

// List godoc
// @Summary List drivers with CDL and medical card status
// @Tags Drivers
// @Produce json
// @Param search query string false "Search term"
// @Param status query string false "valid, expiring, expired or unknown"
// @Param sort query string false "Sort field"
// @Param order query string false "asc or desc"
// @Param page query int false "Page number"
// @Param limit query int false "Page size"
// @Param company_id query string false "Company filter (SUPERADMIN)"
// @Param active query bool false "Active filter"
// @Success 200 {object} response.Envelope
// @Router /drivers [get]
func (h *DriverHandler) List(c *gin.Context) {
	claims, ok := requireClaims(c)
	if !ok {
		return
	}
	q, err := listQuery(c, claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	rows, pagination, err := h.service.List(c.Request.Context(), q)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rows, pagination)
}

// Get godoc
// @Summary Get driver
// @Tags Drivers
// @Produce json
// @Param id path string true "Driver ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /drivers/{id} [get]
func (h *DriverHandler) Get(c *gin.Context) {
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
// @Summary Create driver
// @Tags Drivers
// @Accept json
// @Produce json
// @Param payload body service.DriverRequest true "Driver payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /drivers [post]
func (h *DriverHandler) Create(c *gin.Context) {
	claims, ok := requireClaims(c)
	if !ok {
		return
	}
	var req service.DriverRequest
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
// @Summary Update driver
// @Tags Drivers
// @Accept json
// @Produce json
// @Param id path string true "Driver ID"
// @Param payload body service.DriverRequest true "Driver payload"
// @Success 200 {object} response.Envelope
// @Router /drivers/{id} [put]
func (h *DriverHandler) Update(c *gin.Context) {
	claims, ok := requireClaims(c)
	if !ok {
		return
	}
	var req service.DriverRequest
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
// @Summary Deactivate driver
// @Tags Drivers
// @Param id path string true "Driver ID"
// @Success 204
// @Router /drivers/{id} [delete]
func (h *DriverHandler) Delete(c *gin.Context) {
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
