package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/classtrack/school-report-api/internal/models"
)

// NotificationRepository manages persisted homework notifications. The stored
// row is the durable source of truth; realtime delivery is best-effort.
type NotificationRepository struct {
	db *sqlx.DB
}

// NewNotificationRepository constructs a NotificationRepository.
func NewNotificationRepository(db *sqlx.DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

// Create inserts a notification record.
func (r *NotificationRepository) Create(ctx context.Context, notification *models.HomeworkNotification) error {
	if notification.ID == "" {
		notification.ID = uuid.NewString()
	}
	if notification.CreatedAt.IsZero() {
		notification.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO homework_notifications (id, notification_type, homework_id, class_id,
			recipient_teacher_id, sender_teacher_id, title, message, is_read, created_at)
		VALUES (:id, :notification_type, :homework_id, :class_id,
			:recipient_teacher_id, :sender_teacher_id, :title, :message, :is_read, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, notification); err != nil {
		return fmt.Errorf("create notification: %w", err)
	}
	return nil
}

// ListByRecipient returns a teacher's notifications, newest first.
func (r *NotificationRepository) ListByRecipient(ctx context.Context, teacherID string) ([]models.HomeworkNotification, error) {
	const query = `SELECT id, notification_type, homework_id, class_id, recipient_teacher_id, sender_teacher_id,
			title, message, is_read, read_at, created_at
		FROM homework_notifications WHERE recipient_teacher_id = $1 ORDER BY created_at DESC`
	var notifications []models.HomeworkNotification
	if err := r.db.SelectContext(ctx, &notifications, query, teacherID); err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	return notifications, nil
}

// CountUnread returns the recipient's unread notification count.
func (r *NotificationRepository) CountUnread(ctx context.Context, teacherID string) (int, error) {
	var total int
	const query = `SELECT COUNT(*) FROM homework_notifications WHERE recipient_teacher_id = $1 AND is_read = FALSE`
	if err := r.db.GetContext(ctx, &total, query, teacherID); err != nil {
		return 0, fmt.Errorf("count unread notifications: %w", err)
	}
	return total, nil
}

// MarkRead marks a single notification as read for its recipient. Returns
// the number of rows updated so callers can surface not-found.
func (r *NotificationRepository) MarkRead(ctx context.Context, id, teacherID string, readAt time.Time) (int64, error) {
	const query = `UPDATE homework_notifications SET is_read = TRUE, read_at = $3
		WHERE id = $1 AND recipient_teacher_id = $2 AND is_read = FALSE`
	result, err := r.db.ExecContext(ctx, query, id, teacherID, readAt)
	if err != nil {
		return 0, fmt.Errorf("mark notification read: %w", err)
	}
	return result.RowsAffected()
}

// MarkAllRead marks every unread notification for the recipient as read.
func (r *NotificationRepository) MarkAllRead(ctx context.Context, teacherID string, readAt time.Time) error {
	const query = `UPDATE homework_notifications SET is_read = TRUE, read_at = $2
		WHERE recipient_teacher_id = $1 AND is_read = FALSE`
	if _, err := r.db.ExecContext(ctx, query, teacherID, readAt); err != nil {
		return fmt.Errorf("mark all notifications read: %w", err)
	}
	return nil
}
