package models

import "time"

// NotificationType classifies homework lifecycle notifications.
type NotificationType string

const (
	NotificationHomeworkAssigned     NotificationType = "homework_assigned"
	NotificationHomeworkLimitReached NotificationType = "homework_limit_reached"
	NotificationHomeworkApproved     NotificationType = "homework_approved"
	NotificationHomeworkRejected     NotificationType = "homework_rejected"
	NotificationHomeworkOverdue      NotificationType = "homework_overdue"
)

// HomeworkNotification is the durable record of a lifecycle event addressed
// to a single recipient. Live delivery over the realtime transport is a
// convenience layered on top; is_read tracks the recipient-facing state.
type HomeworkNotification struct {
	ID         string           `db:"id" json:"id"`
	Type       NotificationType `db:"notification_type" json:"notification_type"`
	HomeworkID *string          `db:"homework_id" json:"homework_id,omitempty"`
	ClassID    *string          `db:"class_id" json:"class_id,omitempty"`
	Recipient  string           `db:"recipient_teacher_id" json:"recipient_teacher_id"`
	Sender     *string          `db:"sender_teacher_id" json:"sender_teacher_id,omitempty"`
	Title      string           `db:"title" json:"title"`
	Message    string           `db:"message" json:"message"`
	IsRead     bool             `db:"is_read" json:"is_read"`
	ReadAt     *time.Time       `db:"read_at" json:"read_at,omitempty"`
	CreatedAt  time.Time        `db:"created_at" json:"created_at"`
}
