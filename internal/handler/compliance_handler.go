package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/fleet-compliance-api/internal/dto"
	"github.com/noah-isme/fleet-compliance-api/internal/middleware"
	"github.com/noah-isme/fleet-compliance-api/internal/models"
	"github.com/noah-isme/fleet-compliance-api/pkg/response"
)

type complianceService interface {
	Summary(ctx context.Context, companyID string) (*dto.ComplianceSummary, bool, error)
	Drivers(ctx context.Context, q models.ListQuery) ([]dto.DriverRow, *models.Pagination, error)
	Vehicles(ctx context.Context, q models.ListQuery, vehicleType models.VehicleType) ([]dto.VehicleRow, *models.Pagination, error)
	Inspectors(ctx context.Context, q models.ListQuery) ([]dto.InspectorRow, *models.Pagination, error)
	AlertList(ctx context.Context, q models.ListQuery) ([]dto.AlertItem, *models.Pagination, error)
}

// ComplianceHandler serves the compliance status screens.
type ComplianceHandler struct {
	service complianceService
}

// NewComplianceHandler constructs a ComplianceHandler.
func NewComplianceHandler(svc complianceService) *ComplianceHandler {
	return &ComplianceHandler{service: svc}
}

// Summary godoc
// @Summary Compliance summary
// @Description Per-rule and per-company category counts plus vehicles needing attention. Cached per day.
// @Tags Compliance
// @Produce json
// @Param company_id query string false "Company filter (SUPERADMIN)"
// @Success 200 {object} response.Envelope
// @Router /compliance/summary [get]
func (h *ComplianceHandler) Summary(c *gin.Context) {
	claims, ok := requireClaims(c)
	if !ok {
		return
	}
	companyID := strings.TrimSpace(c.Query("company_id"))
	if scope := claims.CompanyScope(); scope != "" {
		companyID = scope
	}
	summary, hit, err := h.service.Summary(c.Request.Context(), companyID)
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, hit)
	response.JSON(c, http.StatusOK, summary, nil, middleware.ExtractMeta(c))
}

// Drivers godoc
// @Summary Driver compliance screen
// @Tags Compliance
// @Produce json
// @Param status query string false "valid, expiring, expired or unknown"
// @Param search query string false "Search term"
// @Param sort query string false "Sort field"
// @Param order query string false "asc or desc"
// @Param page query int false "Page number"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /compliance/drivers [get]
func (h *ComplianceHandler) Drivers(c *gin.Context) {
	claims, ok := requireClaims(c)
	if !ok {
		return
	}
	q, err := listQuery(c, claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	rows, pagination, err := h.service.Drivers(c.Request.Context(), q)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rows, pagination)
}

// Vehicles godoc
// @Summary Vehicle compliance screen
// @Tags Compliance
// @Produce json
// @Param type query string false "TRUCK or TRAILER"
// @Param status query string false "valid, expiring, expired or unknown"
// @Param search query string false "Search term"
// @Param sort query string false "Sort field"
// @Param order query string false "asc or desc"
// @Param page query int false "Page number"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /compliance/vehicles [get]
func (h *ComplianceHandler) Vehicles(c *gin.Context) {
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
	rows, pagination, err := h.service.Vehicles(c.Request.Context(), q, vehicleType)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rows, pagination)
}

// Inspectors godoc
// @Summary Inspector certification screen
// @Tags Compliance
// @Produce json
// @Param status query string false "valid, expiring, expired or unknown"
// @Param search query string false "Search term"
// @Param sort query string false "Sort field"
// @Param order query string false "asc or desc"
// @Param page query int false "Page number"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /compliance/inspectors [get]
func (h *ComplianceHandler) Inspectors(c *gin.Context) {
	claims, ok := requireClaims(c)
	if !ok {
		return
	}
	q, err := listQuery(c, claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	rows, pagination, err := h.service.Inspectors(c.Request.Context(), q)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rows, pagination)
}

// Alerts godoc
// @Summary Entities needing attention
// @Description Missing records first, then by days remaining.
// @Tags Compliance
// @Produce json
// @Param status query string false "expiring, expired or missing_record"
// @Param search query string false "Search term"
// @Param page query int false "Page number"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /compliance/alerts [get]
func (h *ComplianceHandler) Alerts(c *gin.Context) {
	claims, ok := requireClaims(c)
	if !ok {
		return
	}
	q, err := listQuery(c, claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	alerts, pagination, err := h.service.AlertList(c.Request.Context(), q)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, alerts, pagination)
}
