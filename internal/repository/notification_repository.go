package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/fleet-compliance-api/internal/models"
)

const notificationColumns = `id, company_id, entity_type, entity_id, entity_name, rule, reason, days_remaining, message, notify_date, read_at, created_at`

// NotificationRepository persists compliance notifications.
type NotificationRepository struct {
	db *sqlx.DB
}

// NewNotificationRepository constructs a NotificationRepository.
func NewNotificationRepository(db *sqlx.DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

// Insert stores n unless one already exists for the same entity, rule and day.
// It reports whether a row was written.
func (r *NotificationRepository) Insert(ctx context.Context, n *models.Notification) (bool, error) {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO compliance_notifications (id, company_id, entity_type, entity_id, entity_name, rule, reason, days_remaining, message, notify_date, created_at)
        VALUES (:id, :company_id, :entity_type, :entity_id, :entity_name, :rule, :reason, :days_remaining, :message, :notify_date, :created_at)
        ON CONFLICT (entity_type, entity_id, rule, notify_date) DO NOTHING`
	res, err := r.db.NamedExecContext(ctx, query, n)
	if err != nil {
		return false, fmt.Errorf("insert notification: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("insert notification: %w", err)
	}
	return affected > 0, nil
}

// List returns the newest notifications first with the total count.
func (r *NotificationRepository) List(ctx context.Context, filter models.NotificationFilter) ([]models.Notification, int, error) {
	var w where
	w.eq("company_id", filter.CompanyID)
	if filter.UnreadOnly {
		w.conditions = append(w.conditions, "read_at IS NULL")
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf("SELECT %s FROM compliance_notifications%s ORDER BY notify_date DESC, created_at DESC LIMIT %d OFFSET %d",
		notificationColumns, w.String(), size, offset)
	var items []models.Notification
	if err := r.db.SelectContext(ctx, &items, query, w.args...); err != nil {
		return nil, 0, fmt.Errorf("list notifications: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM compliance_notifications"+w.String(), w.args...); err != nil {
		return nil, 0, fmt.Errorf("count notifications: %w", err)
	}
	return items, total, nil
}

// MarkRead stamps read_at on an unread notification. It returns false when nothing changed.
func (r *NotificationRepository) MarkRead(ctx context.Context, id string, at time.Time) (bool, error) {
	res, err := r.db.ExecContext(ctx, `UPDATE compliance_notifications SET read_at = $2 WHERE id = $1 AND read_at IS NULL`, id, at)
	if err != nil {
		return false, fmt.Errorf("mark notification read: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("mark notification read: %w", err)
	}
	return affected > 0, nil
}

// FindByID fetches a notification.
func (r *NotificationRepository) FindByID(ctx context.Context, id string) (*models.Notification, error) {
	var n models.Notification
	if err := r.db.GetContext(ctx, &n, "SELECT "+notificationColumns+" FROM compliance_notifications WHERE id = $1", id); err != nil {
		return nil, err
	}
	return &n, nil
}
