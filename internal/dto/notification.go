package dto

import (
	"time"

	"github.com/classtrack/school-report-api/internal/models"
)

// NotificationPayload is the wire shape published to the realtime transport
// for a single recipient.
type NotificationPayload struct {
	ID         string                  `json:"id"`
	Type       models.NotificationType `json:"type"`
	Title      string                  `json:"title"`
	Message    string                  `json:"message"`
	HomeworkID *string                 `json:"homework_id,omitempty"`
	ClassID    *string                 `json:"class_id,omitempty"`
	CreatedAt  time.Time               `json:"created_at"`
}

// NotificationListResponse returns a recipient's notifications with the
// unread total.
type NotificationListResponse struct {
	Notifications []models.HomeworkNotification `json:"notifications"`
	UnreadCount   int                           `json:"unread_count"`
}
