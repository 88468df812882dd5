package service

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/noah-isme/fleet-compliance-api/internal/models"
	"github.com/noah-isme/fleet-compliance-api/pkg/compliance"
	appErrors "github.com/noah-isme/fleet-compliance-api/pkg/errors"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// Searchable fields per screen.
var (
	companySearchFields    = []string{"name", "dot_number", "mc_number", "phone", "email"}
	driverSearchFields     = []string{"full_name", "email", "phone", "license_number", "license_state"}
	vehicleSearchFields    = []string{"unit_number", "vin", "make", "model", "license_plate"}
	inspectionSearchFields = []string{"vehicle_id", "location", "defects", "notes"}
	inspectorSearchFields  = []string{"full_name", "certification_number", "qualification"}
	dvirSearchFields       = []string{"driver_id", "vehicle_id", "defects", "status"}
	tripSearchFields       = []string{"origin", "destination", "status", "driver_id"}
	userSearchFields       = []string{"email", "full_name", "role"}
	alertSearchFields      = []string{"entity_name", "rule", "reason", "message"}
)

// paginate runs the in-memory half of the list pipeline: search, sort, then slice a page.
func paginate[T compliance.Record](items []T, q models.ListQuery, searchFields []string) ([]T, *models.Pagination) {
	filtered := compliance.FilterRecords(items, q.Search, searchFields)
	sorted := compliance.SortRecords(filtered, compliance.ParseSortSpec(q.SortBy, q.SortOrder))

	page := q.Page
	if page < 1 {
		page = 1
	}
	size := q.PageSize
	if size <= 0 {
		size = defaultPageSize
	}
	if size > maxPageSize {
		size = maxPageSize
	}

	total := len(sorted)
	pagination := &models.Pagination{Page: page, PageSize: size, TotalCount: total, TotalPages: (total + size - 1) / size}

	start := (page - 1) * size
	if start >= total {
		return []T{}, pagination
	}
	end := start + size
	if end > total {
		end = total
	}
	return sorted[start:end], pagination
}

// parseStatusFilter validates the optional status query parameter.
func parseStatusFilter(raw string) (compliance.Category, error) {
	raw = strings.ToLower(strings.TrimSpace(raw))
	if raw == "" {
		return "", nil
	}
	category, ok := compliance.ParseCategory(raw)
	if !ok {
		return "", appErrors.Clone(appErrors.ErrValidation, "status must be one of valid, expiring, expired, unknown")
	}
	return category, nil
}

// parseAlertReason normalises an alert status filter. Alerts carry attention reasons, not
// classification categories.
func parseAlertReason(raw string) (compliance.AttentionReason, error) {
	raw = strings.ToLower(strings.TrimSpace(raw))
	switch reason := compliance.AttentionReason(raw); reason {
	case "":
		return "", nil
	case compliance.ReasonExpiring, compliance.ReasonExpired, compliance.ReasonMissingRecord:
		return reason, nil
	}
	return "", appErrors.Clone(appErrors.ErrValidation, "status must be one of expiring, expired, missing_record")
}

func keepCategory[T any](items []T, category compliance.Category, of func(T) compliance.Category) []T {
	if category == "" {
		return items
	}
	out := make([]T, 0, len(items))
	for _, item := range items {
		if of(item) == category {
			out = append(out, item)
		}
	}
	return out
}

// scoped reports whether a record owned by companyID is visible to a caller limited to scope.
func scoped(scope, companyID string) bool {
	return scope == "" || scope == companyID
}

func internalError(err error, message string) error {
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, message)
}

func validationError(err error, message string) error {
	return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, message)
}

// lookupError maps a repository read failure onto the typed errors.
func lookupError(err error, what string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return appErrors.Clone(appErrors.ErrNotFound, what+" not found")
	}
	return internalError(err, "failed to load "+what)
}

// parseDate accepts the ISO date forms understood by the compliance engine.
func parseDate(field string, raw *string) (*time.Time, error) {
	if raw == nil || strings.TrimSpace(*raw) == "" {
		return nil, nil
	}
	t, ok := compliance.ParseDate(*raw)
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("%s must be an ISO date", field))
	}
	t = t.UTC()
	return &t, nil
}

type dateField struct {
	name string
	raw  *string
	dst  **time.Time
}

func parseDates(fields ...dateField) error {
	for _, f := range fields {
		t, err := parseDate(f.name, f.raw)
		if err != nil {
			return err
		}
		*f.dst = t
	}
	return nil
}

// referenceError maps a failed foreign key lookup onto a validation error.
func referenceError(err error, field string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return appErrors.Clone(appErrors.ErrValidation, field+" does not reference an existing record")
	}
	return internalError(err, "failed to resolve "+field)
}
