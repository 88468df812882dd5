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

type inspectorService interface {
	List(ctx context.Context, q models.ListQuery) ([]dto.InspectorRow, *models.Pagination, error)
	Get(ctx context.Context, scope, id string) (*dto.InspectorRow, error)
	Create(ctx context.Context, scope string, req service.InspectorRequest) (*dto.InspectorRow, error)
	Update(ctx context.Context, scope, id string, req service.InspectorRequest) (*dto.InspectorRow, error)
	Delete(ctx context.Context, scope, id string) error
}

// InspectorHandler exposes qualified inspector endpoints.
type InspectorHandler struct {
	service inspectorService
}

// NewInspectorHandler constructs an InspectorHandler.
func NewInspectorHandler(svc inspectorService) *InspectorHandler {
	return &InspectorHandler{service: svc}
}

// List godoc
// @Summary List qualified inspectors with certification status
// @Tags Inspectors
// @Produce json
// @Param status query string false "valid, expiring, expired or unknown"
// @Param search query string false "Search term"
// @Param sort query string false "Sort field"
// @Param order query string false "asc or desc"
// @Param page query int false "Page number"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /inspectors [get]
func (h *InspectorHandler) List(c *gin.Context) {
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
// @Summary Get qualified inspector
// @Tags Inspectors
// @Produce json
// @Param id path string true "Inspector ID"
// @Success 200 {object} response.Envelope
// @Router /inspectors/{id} [get]
func (h *InspectorHandler) Get(c *gin.Context) {
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
// @Summary Create qualified inspector
// @Tags Inspectors
// @Accept json
// @Produce json
// @Param payload body service.InspectorRequest true "Inspector payload"
// @Success 201 {object} response.Envelope
// @Router /inspectors [post]
func (h *InspectorHandler) Create(c *gin.Context) {
	claims, ok := requireClaims(c)
	if !ok {
		return
	}
	var req service.InspectorRequest
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
// @Summary Update qualified inspector
// @Tags Inspectors
// @Accept json
// @Produce json
// @Param id path string true "Inspector ID"
// @Param payload body service.InspectorRequest true "Inspector payload"
// @Success 200 {object} response.Envelope
// @Router /inspectors/{id} [put]
func (h *InspectorHandler) Update(c *gin.Context) {
	claims, ok := requireClaims(c)
	if !ok {
		return
	}
	var req service.InspectorRequest
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
// @Summary Deactivate qualified inspector
// @Tags Inspectors
// @Param id path string true "Inspector ID"
// @Success 204
// @Router /inspectors/{id} [delete]
func (h *InspectorHandler) Delete(c *gin.Context) {
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
