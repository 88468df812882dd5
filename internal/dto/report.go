package dto

import "github.com/noah-isme/fleet-compliance-api/internal/models"

// ReportRequest captures the POST /reports payload.
type ReportRequest struct {
	Type      models.ReportType   `json:"type" validate:"required,oneof=drivers vehicles inspectors alerts"`
	Format    models.ReportFormat `json:"format" validate:"required,oneof=csv pdf"`
	CompanyID string              `json:"companyId,omitempty"`
	Status    string              `json:"status,omitempty"`
	Search    string              `json:"search,omitempty"`
	SortBy    string              `json:"sortBy,omitempty"`
	SortOrder string              `json:"sortOrder,omitempty" validate:"omitempty,oneof=asc desc"`
}

// ReportJobResponse is returned after enqueueing a report.
type ReportJobResponse struct {
	ID       string              `json:"id"`
	Status   models.ReportStatus `json:"status"`
	Progress int                 `json:"progress"`
}

// ReportStatusResponse exposes job progress metadata.
type ReportStatusResponse struct {
	ID        string              `json:"id"`
	Type      models.ReportType   `json:"type"`
	Status    models.ReportStatus `json:"status"`
	Progress  int                 `json:"progress"`
	ResultURL *string             `json:"resultUrl,omitempty"`
	Error     *string             `json:"error,omitempty"`
}
