package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/fleet-compliance-api/internal/dto"
	"github.com/noah-isme/fleet-compliance-api/internal/models"
	"github.com/noah-isme/fleet-compliance-api/pkg/export"
	"github.com/noah-isme/fleet-compliance-api/pkg/storage"
)

type reportDataSource interface {
	Drivers(ctx context.Context, q models.ListQuery) ([]dto.DriverRow, *models.Pagination, error)
	Vehicles(ctx context.Context, q models.ListQuery, vehicleType models.VehicleType) ([]dto.VehicleRow, *models.Pagination, error)
	Inspectors(ctx context.Context, q models.ListQuery) ([]dto.InspectorRow, *models.Pagination, error)
	AlertList(ctx context.Context, q models.ListQuery) ([]dto.AlertItem, *models.Pagination, error)
	Now() time.Time
}

// ExportConfig tunes export behaviour.
type ExportConfig struct {
	APIPrefix string
	ResultTTL time.Duration
}

// ExportResult captures successful generation metadata.
type ExportResult struct {
	Key       string
	Token     string
	URL       string
	Format    models.ReportFormat
	Rows      int
	ExpiresAt time.Time
}

// ExportService renders compliance screens into files and signs download links for them.
type ExportService struct {
	source reportDataSource
	store  storage.Store
	signer *storage.SignedURLSigner
	logger *zap.Logger
	cfg    ExportConfig
}

// NewExportService constructs an ExportService.
func NewExportService(source reportDataSource, store storage.Store, signer *storage.SignedURLSigner, cfg ExportConfig, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ResultTTL <= 0 {
		cfg.ResultTTL = 24 * time.Hour
	}
	return &ExportService{source: source, store: store, signer: signer, logger: logger, cfg: cfg}
}

// Generate builds the dataset for job, stores the rendered file and returns its signed URL.
func (s *ExportService) Generate(ctx context.Context, job *models.ReportJob) (*ExportResult, error) {
	if job == nil {
		return nil, fmt.Errorf("job nil")
	}
	renderer, err := export.RendererFor(string(job.Params.Format))
	if err != nil {
		return nil, err
	}
	dataset, err := s.buildDataset(ctx, job)
	if err != nil {
		return nil, err
	}
	payload, err := renderer.Render(dataset)
	if err != nil {
		return nil, fmt.Errorf("render %s: %w", job.Params.Format, err)
	}

	key := s.buildKey(job, dataset.GeneratedAt, renderer.Extension())
	if err := s.store.Save(ctx, key, bytes.NewReader(payload), renderer.ContentType()); err != nil {
		return nil, fmt.Errorf("store export: %w", err)
	}

	token, expiresAt, err := s.signer.Generate(job.ID, key)
	if err != nil {
		return nil, err
	}
	prefix := strings.TrimRight(s.cfg.APIPrefix, "/")
	if prefix == "" {
		prefix = "/api/v1"
	}

	s.logger.Info("report rendered",
		zap.String("job_id", job.ID),
		zap.String("type", string(job.Type)),
		zap.Int("rows", len(dataset.Rows)),
		zap.Int("bytes", len(payload)),
	)
	return &ExportResult{
		Key:       key,
		Token:     token,
		URL:       fmt.Sprintf("%s/export/%s", prefix, token),
		Format:    job.Params.Format,
		Rows:      len(dataset.Rows),
		ExpiresAt: expiresAt,
	}, nil
}

// ParseToken validates download token metadata.
func (s *ExportService) ParseToken(token string, allowExpired bool) (jobID, key string, expiresAt time.Time, err error) {
	return s.signer.Parse(token, allowExpired)
}

// Open streams a stored export.
func (s *ExportService) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	return s.store.Open(ctx, key)
}

// Delete removes a stored export.
func (s *ExportService) Delete(ctx context.Context, key string) error {
	return s.store.Delete(ctx, key)
}

// Cleanup removes exports older than ttl, or the configured result TTL when ttl <= 0.
func (s *ExportService) Cleanup(ctx context.Context, ttl time.Duration) ([]string, error) {
	if ttl <= 0 {
		ttl = s.cfg.ResultTTL
	}
	return s.store.CleanupOlderThan(ctx, ttl)
}

func (s *ExportService) buildKey(job *models.ReportJob, at time.Time, ext string) string {
	scope := sanitizeKeyPart(job.Params.CompanyID)
	if scope == "" {
		scope = "all"
	}
	name := fmt.Sprintf("%s_%s_%s.%s", job.Type, at.UTC().Format("20060102_150405"), sanitizeKeyPart(job.ID), ext)
	return path.Join(scope, name)
}

func sanitizeKeyPart(raw string) string {
	replacer := strings.NewReplacer(" ", "_", "/", "-", "\\", "-", ":", "-", "..", "")
	result := replacer.Replace(strings.TrimSpace(raw))
	if len(result) > 64 {
		return result[:64]
	}
	return result
}

func (s *ExportService) buildDataset(ctx context.Context, job *models.ReportJob) (export.Dataset, error) {
	q := models.ListQuery{
		CompanyID: job.Params.CompanyID,
		Status:    job.Params.Status,
		Search:    job.Params.Search,
		SortBy:    job.Params.SortBy,
		SortOrder: job.Params.SortOrder,
	}
	dataset := export.Dataset{GeneratedAt: s.source.Now()}

	switch job.Type {
	case models.ReportTypeDrivers:
		rows, err := collectPages(func(page int) ([]dto.DriverRow, *models.Pagination, error) {
			return s.source.Drivers(ctx, withPage(q, page))
		})
		if err != nil {
			return export.Dataset{}, err
		}
		dataset.Title = "Driver Compliance"
		dataset.Columns = []export.Column{
			{Key: "name", Label: "Driver"}, {Key: "license", Label: "License"},
			{Key: "cdl_expires", Label: "CDL Expires"}, {Key: "cdl_status", Label: "CDL"},
			{Key: "medical_expires", Label: "Medical Expires"}, {Key: "medical_status", Label: "Medical"},
			{Key: "status", Label: "Status"},
		}
		for _, row := range rows {
			dataset.Rows = append(dataset.Rows, map[string]string{
				"name":            row.FullName(),
				"license":         row.LicenseState + " " + row.LicenseNumber,
				"cdl_expires":     formatDay(row.CDLStatus.ExpiryDate),
				"cdl_status":      row.CDLStatus.Label(),
				"medical_expires": formatDay(row.MedicalStatus.ExpiryDate),
				"medical_status":  row.MedicalStatus.Label(),
				"status":          string(row.Status),
			})
		}
	case models.ReportTypeVehicles:
		rows, err := collectPages(func(page int) ([]dto.VehicleRow, *models.Pagination, error) {
			return s.source.Vehicles(ctx, withPage(q, page), "")
		})
		if err != nil {
			return export.Dataset{}, err
		}
		dataset.Title = "Vehicle Compliance"
		dataset.Columns = []export.Column{
			{Key: "unit", Label: "Unit"}, {Key: "type", Label: "Type"}, {Key: "vin", Label: "VIN"},
			{Key: "maintenance", Label: "Maintenance Review"}, {Key: "inspection_expires", Label: "Inspection Expires"},
			{Key: "inspection", Label: "Annual Inspection"}, {Key: "status", Label: "Status"},
		}
		for _, row := range rows {
			dataset.Rows = append(dataset.Rows, map[string]string{
				"unit":               row.UnitNumber,
				"type":               string(row.Type),
				"vin":                row.VIN,
				"maintenance":        row.MaintenanceStatus.Label(),
				"inspection_expires": formatDay(row.InspectionStatus.ExpiryDate),
				"inspection":         row.InspectionStatus.Label(),
				"status":             string(row.Status),
			})
		}
	case models.ReportTypeInspectors:
		rows, err := collectPages(func(page int) ([]dto.InspectorRow, *models.Pagination, error) {
			return s.source.Inspectors(ctx, withPage(q, page))
		})
		if err != nil {
			return export.Dataset{}, err
		}
		dataset.Title = "Inspector Certifications"
		dataset.Columns = []export.Column{
			{Key: "name", Label: "Inspector"}, {Key: "certificate", Label: "Certificate"},
			{Key: "expires", Label: "Expires"}, {Key: "status", Label: "Status"},
		}
		for _, row := range rows {
			dataset.Rows = append(dataset.Rows, map[string]string{
				"name":        row.FullName,
				"certificate": row.CertificationNumber,
				"expires":     formatDay(row.CertificationStatus.ExpiryDate),
				"status":      row.CertificationStatus.Label(),
			})
		}
	case models.ReportTypeAlerts:
		rows, err := collectPages(func(page int) ([]dto.AlertItem, *models.Pagination, error) {
			return s.source.AlertList(ctx, withPage(q, page))
		})
		if err != nil {
			return export.Dataset{}, err
		}
		dataset.Title = "Compliance Alerts"
		dataset.Columns = []export.Column{
			{Key: "entity", Label: "Entity"}, {Key: "type", Label: "Type"}, {Key: "rule", Label: "Rule"},
			{Key: "reason", Label: "Reason"}, {Key: "days", Label: "Days Remaining"}, {Key: "message", Label: "Message"},
		}
		for _, row := range rows {
			days := ""
			if row.DaysRemaining != nil {
				days = strconv.Itoa(*row.DaysRemaining)
			}
			dataset.Rows = append(dataset.Rows, map[string]string{
				"entity":  row.EntityName,
				"type":    row.EntityType,
				"rule":    ruleLabel(row.Rule),
				"reason":  row.Reason,
				"days":    days,
				"message": row.Message,
			})
		}
	default:
		return export.Dataset{}, fmt.Errorf("unsupported report type %s", job.Type)
	}

	if job.Params.CompanyID != "" {
		dataset.Title += " - " + job.Params.CompanyID
	}
	return dataset, nil
}

func withPage(q models.ListQuery, page int) models.ListQuery {
	q.Page = page
	q.PageSize = maxPageSize
	return q
}

// collectPages drains a paginated list screen.
func collectPages[T any](fetch func(page int) ([]T, *models.Pagination, error)) ([]T, error) {
	var all []T
	for page := 1; ; page++ {
		items, pagination, err := fetch(page)
		if err != nil {
			return nil, err
		}
		all = append(all, items...)
		if pagination == nil || page >= pagination.TotalPages {
			return all, nil
		}
	}
}

func formatDay(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format("2006-01-02")
}
