package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/fleet-compliance-api/internal/models"
	"github.com/noah-isme/fleet-compliance-api/internal/service"
	"github.com/noah-isme/fleet-compliance-api/pkg/response"
)

type companyService interface {
	List(ctx context.Context, q models.ListQuery) ([]models.Company, *models.Pagination, error)
	Get(ctx context.Context, scope, id string) (*models.Company, error)
	Create(ctx context.Context, req service.CreateCompanyRequest) (*models.Company, error)
	Update(ctx context.Context, scope, id string, req service.UpdateCompanyRequest) (*models.Company, error)
	Delete(ctx context.Context, scope, id string) error
}

// CompanyHandler exposes motor carrier endpoints.
type CompanyHandler struct {
	service companyService
}

// NewCompanyHandler constructs a CompanyHandler.
func NewCompanyHandler(svc companyService) *CompanyHandler {
	return &CompanyHandler{service: svc}
}

// List godoc
// @Summary List companies
// @Tags Companies
// @Produce json
// @Param search query string false "Search name, DOT number or phone"
// @Param sort query string false "Sort field"
// @Param order query string false "asc or desc"
// @Param page query int false "Page number"
// @Param limit query int false "Page size"
// @Param active query bool false "Active filter"
// @Success 200 {object} response.Envelope
// @Router /companies [get]
func (h *CompanyHandler) List(c *gin.Context) {
	claims, ok := requireClaims(c)
	if !ok {
		return
	}
	q, err := listQuery(c, claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	companies, pagination, err := h.service.List(c.Request.Context(), q)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, companies, pagination)
}

// Get godoc
// @Summary Get company
// @Tags Companies
// @Produce json
// @Param id path string true "Company ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /companies/{id} [get]
func (h *CompanyHandler) Get(c *gin.Context) {
	claims, ok := requireClaims(c)
	if !ok {
		return
	}
	company, err := h.service.Get(c.Request.Context(), claims.CompanyScope(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, company, nil)
}

// Create godoc
// @Summary Create company
// @Tags Companies
// @Accept json
// @Produce json
// @Param payload body service.CreateCompanyRequest true "Company payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /companies [post]
func (h *CompanyHandler) Create(c *gin.Context) {
	var req service.CreateCompanyRequest
	if !bindJSON(c, &req) {
		return
	}
	company, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, company)
}

// Update godoc
// @Summary Update company
// @Tags Companies
// @Accept json
// @Produce json
// @Param id path string true "Company ID"
// @Param payload body service.UpdateCompanyRequest true "Company payload"
// @Success 200 {object} response.Envelope
// @Router /companies/{id} [put]
func (h *CompanyHandler) Update(c *gin.Context) {
	claims, ok := requireClaims(c)
	if !ok {
		return
	}
	var req service.UpdateCompanyRequest
	if !bindJSON(c, &req) {
		return
	}
	company, err := h.service.Update(c.Request.Context(), claims.CompanyScope(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, company, nil)
}

// Delete godoc
// @Summary Deactivate company
// @Tags Companies
// @Param id path string true "Company ID"
// @Success 204
// @Router /companies/{id} [delete]
func (h *CompanyHandler) Delete(c *gin.Context) {
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
