package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/classtrack/school-report-api/internal/dto"
	"github.com/classtrack/school-report-api/internal/models"
	appErrors "github.com/classtrack/school-report-api/pkg/errors"
	"github.com/classtrack/school-report-api/pkg/jobs"
)

type notificationRepository interface {
	Create(ctx context.Context, notification *models.HomeworkNotification) error
	ListByRecipient(ctx context.Context, teacherID string) ([]models.HomeworkNotification, error)
	CountUnread(ctx context.Context, teacherID string) (int, error)
	MarkRead(ctx context.Context, id, teacherID string, readAt time.Time) (int64, error)
	MarkAllRead(ctx context.Context, teacherID string, readAt time.Time) error
}

type oversightResolver interface {
	ListByRoles(ctx context.Context, roles []models.TeacherRole) ([]models.Teacher, error)
	FindByUserID(ctx context.Context, userID string) (*models.Teacher, error)
}

type realtimePublisher interface {
	Publish(ctx context.Context, userID string, payload interface{}) error
}

type deliveryRecorder interface {
	RecordDelivery(ok bool)
}

// HomeworkEvent describes a lifecycle event that fans out to every teacher
// in an oversight role.
type HomeworkEvent struct {
	Type       models.NotificationType
	Title      string
	Message    string
	HomeworkID *string
	ClassID    *string
	Sender     *string
}

type deliveryJob struct {
	UserID  string
	Payload dto.NotificationPayload
}

// NotificationServiceParams groups NotificationService dependencies.
type NotificationServiceParams struct {
	Repo      notificationRepository
	Teachers  oversightResolver
	Publisher realtimePublisher
	Metrics   deliveryRecorder
	Logger    *zap.Logger
	Queue     jobs.QueueConfig
	Now       func() time.Time
}

// NotificationService persists homework notifications and pushes them to
// recipients over the realtime transport via a background worker pool.
type NotificationService struct {
	repo      notificationRepository
	teachers  oversightResolver
	publisher realtimePublisher
	metrics   deliveryRecorder
	logger    *zap.Logger
	queue     *jobs.Queue
	now       func() time.Time
}

// NewNotificationService constructs a NotificationService.
func NewNotificationService(params NotificationServiceParams) *NotificationService {
	if params.Logger == nil {
		params.Logger = zap.NewNop()
	}
	if params.Now == nil {
		params.Now = func() time.Time { return time.Now().UTC() }
	}
	if params.Queue.Logger == nil {
		params.Queue.Logger = params.Logger
	}

	s := &NotificationService{
		repo:      params.Repo,
		teachers:  params.Teachers,
		publisher: params.Publisher,
		metrics:   params.Metrics,
		logger:    params.Logger,
		now:       params.Now,
	}
	s.queue = jobs.NewQueue("notifications", s.deliver, params.Queue)
	return s
}

// Start launches the delivery workers.
func (s *NotificationService) Start(ctx context.Context) {
	s.queue.Start(ctx)
}

// Stop drains the delivery workers.
func (s *NotificationService) Stop() {
	s.queue.Stop()
}

// Dispatch fans the event out to every oversight-role teacher. Each recipient
// gets a persisted row first; realtime delivery is enqueued afterwards and
// never fails the caller. The sender is excluded from the recipient set.
func (s *NotificationService) Dispatch(ctx context.Context, event HomeworkEvent) {
	recipients, err := s.teachers.ListByRoles(ctx, models.OversightRoles)
	if err != nil {
		s.logger.Error("failed to resolve notification recipients", zap.Error(err), zap.String("type", string(event.Type)))
		return
	}

	for _, recipient := range recipients {
		if event.Sender != nil && recipient.ID == *event.Sender {
			continue
		}
		s.DispatchTo(ctx, recipient, event)
	}
}

// DispatchTo persists and delivers the event to a single recipient.
func (s *NotificationService) DispatchTo(ctx context.Context, recipient models.Teacher, event HomeworkEvent) {
	notification := &models.HomeworkNotification{
		ID:         uuid.NewString(),
		Type:       event.Type,
		HomeworkID: event.HomeworkID,
		ClassID:    event.ClassID,
		Recipient:  recipient.ID,
		Sender:     event.Sender,
		Title:      event.Title,
		Message:    event.Message,
		CreatedAt:  s.now(),
	}

	if err := s.repo.Create(ctx, notification); err != nil {
		s.logger.Error("failed to persist notification",
			zap.Error(err),
			zap.String("recipient", recipient.ID),
			zap.String("type", string(event.Type)))
		return
	}

	payload := dto.NotificationPayload{
		ID:         notification.ID,
		Type:       notification.Type,
		Title:      notification.Title,
		Message:    notification.Message,
		HomeworkID: notification.HomeworkID,
		ClassID:    notification.ClassID,
		CreatedAt:  notification.CreatedAt,
	}

	job := jobs.Job{
		ID:      notification.ID,
		Type:    string(event.Type),
		Payload: deliveryJob{UserID: recipient.UserID, Payload: payload},
	}
	if err := s.queue.Enqueue(job); err != nil {
		s.logger.Warn("failed to enqueue realtime delivery", zap.Error(err), zap.String("notification_id", notification.ID))
	}
}

func (s *NotificationService) deliver(ctx context.Context, job jobs.Job) error {
	delivery, ok := job.Payload.(deliveryJob)
	if !ok {
		s.logger.Error("unexpected delivery payload", zap.String("job_id", job.ID))
		return nil
	}

	if s.publisher == nil {
		return nil
	}

	err := s.publisher.Publish(ctx, delivery.UserID, delivery.Payload)
	if s.metrics != nil {
		s.metrics.RecordDelivery(err == nil)
	}
	return err
}

// List returns the caller's notifications with the unread total.
func (s *NotificationService) List(ctx context.Context, userID string) (*dto.NotificationListResponse, error) {
	teacher, err := s.resolveTeacher(ctx, userID)
	if err != nil {
		return nil, err
	}

	notifications, err := s.repo.ListByRecipient(ctx, teacher.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list notifications")
	}

	unread, err := s.repo.CountUnread(ctx, teacher.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count unread notifications")
	}

	if notifications == nil {
		notifications = []models.HomeworkNotification{}
	}
	return &dto.NotificationListResponse{Notifications: notifications, UnreadCount: unread}, nil
}

// MarkRead marks a single notification as read for its recipient.
func (s *NotificationService) MarkRead(ctx context.Context, id, userID string) error {
	teacher, err := s.resolveTeacher(ctx, userID)
	if err != nil {
		return err
	}

	affected, err := s.repo.MarkRead(ctx, id, teacher.ID, s.now())
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to mark notification read")
	}
	if affected == 0 {
		return appErrors.Clone(appErrors.ErrNotFound, "Notification not found")
	}
	return nil
}

// MarkAllRead marks every unread notification for the caller as read.
func (s *NotificationService) MarkAllRead(ctx context.Context, userID string) error {
	teacher, err := s.resolveTeacher(ctx, userID)
	if err != nil {
		return err
	}

	if err := s.repo.MarkAllRead(ctx, teacher.ID, s.now()); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to mark notifications read")
	}
	return nil
}

func (s *NotificationService) resolveTeacher(ctx context.Context, userID string) (*models.Teacher, error) {
	teacher, err := s.teachers.FindByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrForbidden, "No teacher profile for this account")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teacher")
	}
	return teacher, nil
}
