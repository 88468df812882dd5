package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/fleet-compliance-api/internal/middleware"
	"github.com/noah-isme/fleet-compliance-api/internal/models"
	appErrors "github.com/noah-isme/fleet-compliance-api/pkg/errors"
	"github.com/noah-isme/fleet-compliance-api/pkg/response"
)

func claimsFromContext(c *gin.Context) *models.JWTClaims {
	claims, ok := middleware.Claims(c)
	if !ok {
		return nil
	}
	return claims
}

// requireClaims writes 401 and returns false when the request carries no verified caller.
func requireClaims(c *gin.Context) (*models.JWTClaims, bool) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return nil, false
	}
	return claims, true
}

// listQuery reads the shared list parameters. Scoped callers are pinned to their company
// whatever company_id says.
func listQuery(c *gin.Context, claims *models.JWTClaims) (models.ListQuery, error) {
	q := models.ListQuery{
		Search:    strings.TrimSpace(c.Query("search")),
		SortBy:    strings.TrimSpace(c.Query("sort")),
		SortOrder: strings.ToLower(strings.TrimSpace(c.Query("order"))),
		CompanyID: strings.TrimSpace(c.Query("company_id")),
		Status:    strings.TrimSpace(c.Query("status")),
	}
	if q.SortOrder != "" && q.SortOrder != "asc" && q.SortOrder != "desc" {
		return q, appErrors.Clone(appErrors.ErrValidation, "order must be asc or desc")
	}
	var err error
	if q.Page, err = intQuery(c, "page"); err != nil {
		return q, err
	}
	if q.PageSize, err = intQuery(c, "limit"); err != nil {
		return q, err
	}
	if raw := c.Query("active"); raw != "" {
		active, err := strconv.ParseBool(raw)
		if err != nil {
			return q, appErrors.Clone(appErrors.ErrValidation, "active must be a boolean")
		}
		q.Active = &active
	}
	if scope := claims.CompanyScope(); scope != "" {
		q.CompanyID = scope
	}
	return q, nil
}

func intQuery(c *gin.Context, key string) (int, error) {
	raw := c.Query(key)
	if raw == "" {
		return 0, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value < 0 {
		return 0, appErrors.Clone(appErrors.ErrValidation, key+" must be a non-negative integer")
	}
	return value, nil
}

// bindJSON decodes the request body, answering 400 on malformed payloads.
func bindJSON(c *gin.Context, dst interface{}) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return false
	}
	return true
}

func requestMeta(c *gin.Context) models.RequestMeta {
	return models.RequestMeta{IP: c.ClientIP(), UserAgent: c.GetHeader("User-Agent")}
}
