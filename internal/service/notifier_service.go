package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/fleet-compliance-api/internal/dto"
	"github.com/noah-isme/fleet-compliance-api/internal/models"
	appErrors "github.com/noah-isme/fleet-compliance-api/pkg/errors"
	"github.com/noah-isme/fleet-compliance-api/pkg/jobs"
)

// NotifierQueue is the queue name scans are dispatched on.
const NotifierQueue = "notifier"

const scanJobType = "compliance_scan"

type notificationStore interface {
	Insert(ctx context.Context, n *models.Notification) (bool, error)
	List(ctx context.Context, filter models.NotificationFilter) ([]models.Notification, int, error)
	MarkRead(ctx context.Context, id string, at time.Time) (bool, error)
	FindByID(ctx context.Context, id string) (*models.Notification, error)
}

type alertSource interface {
	Alerts(ctx context.Context, companyID string) ([]dto.AlertItem, error)
	Now() time.Time
}

// NotifierService turns compliance alerts into persisted daily notifications.
type NotifierService struct {
	repo    notificationStore
	source  alertSource
	metrics *MetricsService
	logger  *zap.Logger
}

// NewNotifierService constructs a NotifierService.
func NewNotifierService(repo notificationStore, source alertSource, metrics *MetricsService, logger *zap.Logger) *NotifierService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotifierService{repo: repo, source: source, metrics: metrics, logger: logger}
}

// Schedule enqueues a scan now and then every interval until ctx is done.
func (s *NotifierService) Schedule(ctx context.Context, queue jobDispatcher, interval time.Duration) {
	go jobs.Every(ctx, interval, func(ctx context.Context) {
		id := fmt.Sprintf("scan-%s", s.source.Now().Format("20060102T150405"))
		if err := queue.Enqueue(jobs.Job{ID: id, Type: scanJobType}); err != nil {
			s.logger.Warn("failed to enqueue compliance scan", zap.Error(err))
		}
	})
}

// Handle runs a queued scan.
func (s *NotifierService) Handle(ctx context.Context, job jobs.Job) error {
	_, err := s.Scan(ctx)
	return err
}

// Scan writes one notification per current alert. Alerts already recorded today are skipped.
// It returns the number of rows written.
func (s *NotifierService) Scan(ctx context.Context) (int, error) {
	alerts, err := s.source.Alerts(ctx, "")
	if err != nil {
		return 0, err
	}
	now := s.source.Now().UTC()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	var (
		written int
		errs    []error
	)
	for _, alert := range alerts {
		n := &models.Notification{
			EntityType:    alert.EntityType,
			EntityID:      alert.EntityID,
			EntityName:    alert.EntityName,
			Rule:          alert.Rule,
			Reason:        alert.Reason,
			DaysRemaining: alert.DaysRemaining,
			Message:       alert.Message,
			NotifyDate:    today,
			CreatedAt:     now,
		}
		if alert.CompanyID != "" {
			companyID := alert.CompanyID
			n.CompanyID = &companyID
		}
		inserted, err := s.repo.Insert(ctx, n)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s %s: %w", alert.EntityType, alert.EntityID, err))
			continue
		}
		if inserted {
			written++
		}
	}
	s.metrics.AddNotifications(written)
	s.logger.Info("compliance scan finished",
		zap.Int("alerts", len(alerts)),
		zap.Int("written", written),
		zap.Int("failed", len(errs)),
	)
	return written, errors.Join(errs...)
}

// List returns notifications visible to scope, newest first.
func (s *NotifierService) List(ctx context.Context, scope string, q models.ListQuery, unreadOnly bool) ([]models.Notification, *models.Pagination, error) {
	companyID := q.CompanyID
	if scope != "" {
		companyID = scope
	}
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
	items, total, err := s.repo.List(ctx, models.NotificationFilter{CompanyID: companyID, UnreadOnly: unreadOnly, Page: page, PageSize: size})
	if err != nil {
		return nil, nil, internalError(err, "failed to list notifications")
	}
	if items == nil {
		items = []models.Notification{}
	}
	return items, &models.Pagination{Page: page, PageSize: size, TotalCount: total, TotalPages: (total + size - 1) / size}, nil
}

// MarkRead stamps a notification as read. Reading twice keeps the first timestamp.
func (s *NotifierService) MarkRead(ctx context.Context, scope, id string) (*models.Notification, error) {
	n, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, "notification")
	}
	if scope != "" && (n.CompanyID == nil || *n.CompanyID != scope) {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "notification not found")
	}
	if n.ReadAt != nil {
		return n, nil
	}
	at := s.source.Now().UTC()
	if _, err := s.repo.MarkRead(ctx, id, at); err != nil {
		return nil, internalError(err, "failed to mark notification read")
	}
	n.ReadAt = &at
	return n, nil
}
