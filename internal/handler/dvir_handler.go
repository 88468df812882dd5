package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/fleet-compliance-api/internal/models"
	"github.com/noah-isme/fleet-compliance-api/internal/service"
	"github.com/noah-isme/fleet-compliance-api/pkg/response"
)

type dvirService interface {
	List(ctx context.Context, q models.ListQuery, filter models.DVIRFilter) ([]models.DVIR, *models.Pagination, error)
	Get(ctx context.Context, scope, id string) (*models.DVIR, error)
	Create(ctx context.Context, scope string, req service.CreateDVIRRequest) (*models.DVIR, error)
	Review(ctx context.Context, scope, id, reviewerID string, req service.ReviewDVIRRequest) (*models.DVIR, error)
}

// DVIRHandler exposes driver vehicle inspection report endpoints.
type DVIRHandler struct {
	service dvirService
}

// NewDVIRHandler constructs a DVIRHandler.
func NewDVIRHandler(svc dvirService) *DVIRHandler {
	return &DVIRHandler{service: svc}
}

// List godoc
// @Summary List DVIRs
// @Tags DVIRs
// @Produce json
// @Param status query string false "SUBMITTED or REVIEWED"
// @Param driver_id query string false "Driver filter"
// @Param vehicle_id query string false "Vehicle filter"
// @Param sort query string false "Sort field, submitted_at desc by default"
// @Param order query string false "asc or desc"
// @Param page query int false "Page number"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /dvirs [get]
func (h *DVIRHandler) List(c *gin.Context) {
	claims, ok := requireClaims(c)
	if !ok {
		return
	}
	q, err := listQuery(c, claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	filter := models.DVIRFilter{
		DriverID:  strings.TrimSpace(c.Query("driver_id")),
		VehicleID: strings.TrimSpace(c.Query("vehicle_id")),
		Status:    models.DVIRStatus(q.Status),
	}
	q.Status = ""
	reports, pagination, err := h.service.List(c.Request.Context(), q, filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, reports, pagination)
}

// Get godoc
// @Summary Get DVIR
// @Tags DVIRs
// @Produce json
// @Param id path string true "DVIR ID"
// @Success 200 {object} response.Envelope
// @Router /dvirs/{id} [get]
func (h *DVIRHandler) Get(c *gin.Context) {
	claims, ok := requireClaims(c)
	if !ok {
		return
	}
	report, err := h.service.Get(c.Request.Context(), claims.CompanyScope(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, report, nil)
}

// Create godoc
// @Summary Submit a DVIR
// @Tags DVIRs
// @Accept json
// @Produce json
// @Param payload body service.CreateDVIRRequest true "DVIR payload"
// @Success 201 {object} response.Envelope
// @Router /dvirs [post]
func (h *DVIRHandler) Create(c *gin.Context) {
	claims, ok := requireClaims(c)
	if !ok {
		return
	}
	var req service.CreateDVIRRequest
	if !bindJSON(c, &req) {
		return
	}
	report, err := h.service.Create(c.Request.Context(), claims.CompanyScope(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, report)
}

// Review godoc
// @Summary Review a DVIR
// @Description A DVIR listing defects needs an outcome: defects_corrected or correction_not_needed.
// @Tags DVIRs
// @Accept json
// @Produce json
// @Param id path string true "DVIR ID"
// @Param payload body service.ReviewDVIRRequest true "Review payload"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /dvirs/{id}/review [post]
func (h *DVIRHandler) Review(c *gin.Context) {
	claims, ok := requireClaims(c)
	if !ok {
		return
	}
	var req service.ReviewDVIRRequest
	if !bindJSON(c, &req) {
		return
	}
	report, err := h.service.Review(c.Request.Context(), claims.CompanyScope(), c.Param("id"), claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, report, nil)
}
