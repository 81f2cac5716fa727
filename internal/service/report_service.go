package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/classtrack/school-report-api/internal/dto"
	"github.com/classtrack/school-report-api/internal/models"
	"github.com/classtrack/school-report-api/internal/repository"
	appErrors "github.com/classtrack/school-report-api/pkg/errors"
)

const (
	defaultHomeworkDueIn    = 24 * time.Hour
	defaultHomeworkDuration = 30

	dashboardCachePattern = "dashboard:*"
)

type reportRepository interface {
	ExistsForPeriod(ctx context.Context, teacherID string, period int, dayStart, dayEnd time.Time) (bool, error)
	CreateWithHomework(ctx context.Context, report *models.TeacherReport, homework *models.Homework) error
	UpdateWithHomework(ctx context.Context, report *models.TeacherReport, update repository.ReportUpdate) error
	FindOwned(ctx context.Context, reportID, teacherID string) (*models.TeacherReport, error)
	FindByID(ctx context.Context, reportID string) (*models.TeacherReport, error)
	FindDetail(ctx context.Context, reportID string) (*models.TeacherReportDetail, error)
	UpdateStatus(ctx context.Context, reportID string, status models.ReportStatus) error
	ListDetailsForTeacher(ctx context.Context, teacherID string, dayStart, dayEnd time.Time) ([]models.TeacherReportDetail, error)
	ListDetailsByDate(ctx context.Context, dayStart, dayEnd time.Time) ([]models.TeacherReportDetail, error)
}

type homeworkCounter interface {
	CountActiveForClass(ctx context.Context, classID string, dayStart, dayEnd time.Time) (int, error)
}

type classReader interface {
	FindByID(ctx context.Context, id string) (*models.Class, error)
	List(ctx context.Context) ([]models.Class, error)
}

type subjectReader interface {
	FindByID(ctx context.Context, id string) (*models.Subject, error)
	List(ctx context.Context) ([]models.Subject, error)
}

type teacherReader interface {
	FindByUserID(ctx context.Context, userID string) (*models.Teacher, error)
	FindByID(ctx context.Context, id string) (*models.Teacher, error)
}

type eventDispatcher interface {
	Dispatch(ctx context.Context, event HomeworkEvent)
	DispatchTo(ctx context.Context, recipient models.Teacher, event HomeworkEvent)
}

type cacheInvalidator interface {
	Invalidate(ctx context.Context, pattern string) error
}

// ReportServiceParams groups ReportService dependencies.
type ReportServiceParams struct {
	Reports   reportRepository
	Homeworks homeworkCounter
	Classes   classReader
	Subjects  subjectReader
	Teachers  teacherReader
	Notifier  eventDispatcher
	Cache     cacheInvalidator
	Validator *validator.Validate
	Logger    *zap.Logger
	Location  *time.Location
	Now       func() time.Time
}

// ReportService implements the teacher report lifecycle: per-period creation
// with the class homework quota enforced, owner edits that reset approval,
// and principal approve/reject transitions.
type ReportService struct {
	reports   reportRepository
	homeworks homeworkCounter
	classes   classReader
	subjects  subjectReader
	teachers  teacherReader
	notifier  eventDispatcher
	cache     cacheInvalidator
	validator *validator.Validate
	logger    *zap.Logger
	location  *time.Location
	quota     QuotaPolicy
	now       func() time.Time
}

// NewReportService constructs a ReportService.
func NewReportService(params ReportServiceParams) *ReportService {
	if params.Validator == nil {
		params.Validator = validator.New()
	}
	if params.Logger == nil {
		params.Logger = zap.NewNop()
	}
	if params.Location == nil {
		params.Location = time.UTC
	}
	if params.Now == nil {
		params.Now = func() time.Time { return time.Now().UTC() }
	}
	return &ReportService{
		reports:   params.Reports,
		homeworks: params.Homeworks,
		classes:   params.Classes,
		subjects:  params.Subjects,
		teachers:  params.Teachers,
		notifier:  params.Notifier,
		cache:     params.Cache,
		validator: params.Validator,
		logger:    params.Logger,
		location:  params.Location,
		now:       params.Now,
	}
}

// Create files a new report for the authenticated teacher's period today.
// When a homework description is supplied the homework is created in the same
// transaction, subject to the class's daily quota.
func (s *ReportService) Create(ctx context.Context, userID string, req dto.CreateReportRequest) (*models.TeacherReportDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid report payload")
	}

	teacher, err := s.resolveTeacher(ctx, userID)
	if err != nil {
		return nil, err
	}

	subject, err := s.subjects.FindByID(ctx, req.SubjectID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrValidation, "Subject not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load subject")
	}

	class, err := s.classes.FindByID(ctx, req.ClassID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrValidation, "Class not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class")
	}

	activity := strings.TrimSpace(req.Activity)
	description := strings.TrimSpace(req.HomeworkDescription)
	if activity == "" && description == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "Either activity or homework description must be provided.")
	}

	now := s.now()
	dayStart, dayEnd := dayWindow(now, s.location)

	exists, err := s.reports.ExistsForPeriod(ctx, teacher.ID, req.Period, dayStart, dayEnd)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check existing report")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("Report for period %d already exists for today.", req.Period))
	}

	var homework *models.Homework
	limitConsumed := false
	if description != "" {
		count, err := s.homeworks.CountActiveForClass(ctx, class.ID, dayStart, dayEnd)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count class homework")
		}
		if !s.quota.CanAssign(count, class.DailyHomeworkLimit) {
			return nil, appErrors.Clone(appErrors.ErrQuotaExceeded,
				fmt.Sprintf("Daily homework limit reached for class %s (limit %d).", class.Name, class.DailyHomeworkLimit))
		}
		limitConsumed = count+1 >= class.DailyHomeworkLimit

		homework, err = s.buildHomework(now, teacher, subject, class, req, description)
		if err != nil {
			return nil, err
		}
	}

	report := &models.TeacherReport{
		TeacherID: teacher.ID,
		SubjectID: subject.ID,
		ClassID:   class.ID,
		Period:    req.Period,
		Activity:  activity,
		Status:    models.ReportStatusPending,
	}

	if err := s.reports.CreateWithHomework(ctx, report, homework); err != nil {
		var appErr *appErrors.Error
		if errors.As(err, &appErr) {
			return nil, appErr
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create report")
	}

	s.invalidateDashboard(ctx)

	if homework != nil && s.notifier != nil {
		s.notifier.Dispatch(ctx, HomeworkEvent{
			Type:       models.NotificationHomeworkAssigned,
			Title:      "New Homework Assigned",
			Message:    fmt.Sprintf("%s assigned to %s by %s.", homework.Title, class.Name, teacher.TeacherID),
			HomeworkID: &homework.ID,
			ClassID:    &class.ID,
			Sender:     &teacher.ID,
		})
		if limitConsumed {
			s.notifier.Dispatch(ctx, HomeworkEvent{
				Type:    models.NotificationHomeworkLimitReached,
				Title:   "Homework Limit Reached",
				Message: fmt.Sprintf("Class %s has reached its daily homework limit (%d).", class.Name, class.DailyHomeworkLimit),
				ClassID: &class.ID,
				Sender:  &teacher.ID,
			})
		}
	}

	return s.loadDetail(ctx, report.ID)
}

// Update edits a report the teacher owns. Any edit resets the status to
// pending so it must be re-approved. A non-nil empty homework description
// removes the attached homework; removal is idempotent.
func (s *ReportService) Update(ctx context.Context, userID, reportID string, req dto.UpdateReportRequest) (*models.TeacherReportDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid report payload")
	}

	teacher, err := s.resolveTeacher(ctx, userID)
	if err != nil {
		return nil, err
	}

	report, err := s.reports.FindOwned(ctx, reportID, teacher.ID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "Report not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load report")
	}

	subject, err := s.subjects.FindByID(ctx, report.SubjectID)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load subject")
	}

	if req.SubjectID != nil {
		subject, err = s.subjects.FindByID(ctx, *req.SubjectID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, appErrors.Clone(appErrors.ErrValidation, "Subject not found")
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load subject")
		}
		report.SubjectID = subject.ID
	}

	if req.ClassID != nil {
		class, err := s.classes.FindByID(ctx, *req.ClassID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, appErrors.Clone(appErrors.ErrValidation, "Class not found")
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class")
		}
		report.ClassID = class.ID
	}

	if req.Activity != nil {
		report.Activity = strings.TrimSpace(*req.Activity)
	}

	var update repository.ReportUpdate
	if req.HomeworkDescription != nil {
		description := strings.TrimSpace(*req.HomeworkDescription)
		switch {
		case description == "":
			update.Remove = true
		case report.HomeworkID != nil:
			update.Description = &description
		default:
			homework := s.defaultHomework(s.now(), teacher.ID, report.SubjectID, report.ClassID, report.Period, description, subjectName(subject))
			update.NewHomework = homework
		}
	}

	report.Status = models.ReportStatusPending

	if err := s.reports.UpdateWithHomework(ctx, report, update); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update report")
	}

	s.invalidateDashboard(ctx)

	return s.loadDetail(ctx, report.ID)
}

// Transition applies an approve or reject action to a report. The last
// transition wins; re-applying the same action is not an error.
func (s *ReportService) Transition(ctx context.Context, req dto.TransitionRequest) (*dto.TransitionResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid transition payload")
	}

	status := models.ReportStatusApproved
	eventType := models.NotificationHomeworkApproved
	eventTitle := "Homework Approved"
	if req.Action == "reject" {
		status = models.ReportStatusRejected
		eventType = models.NotificationHomeworkRejected
		eventTitle = "Homework Rejected"
	}

	report, err := s.reports.FindByID(ctx, req.ReportID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "Report not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load report")
	}

	if err := s.reports.UpdateStatus(ctx, req.ReportID, status); err != nil {
		var appErr *appErrors.Error
		if errors.As(err, &appErr) {
			return nil, appErr
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update report status")
	}

	s.invalidateDashboard(ctx)

	if report.HomeworkID != nil && s.notifier != nil {
		if recipient, err := s.teachers.FindByID(ctx, report.TeacherID); err == nil {
			s.notifier.DispatchTo(ctx, *recipient, HomeworkEvent{
				Type:       eventType,
				Title:      eventTitle,
				Message:    fmt.Sprintf("Your period %d homework was %sd.", report.Period, req.Action),
				HomeworkID: report.HomeworkID,
				ClassID:    &report.ClassID,
			})
		} else {
			s.logger.Warn("failed to resolve transition recipient", zap.Error(err), zap.String("report_id", report.ID))
		}
	}

	return &dto.TransitionResponse{
		ReportID:  req.ReportID,
		NewStatus: status,
		Message:   fmt.Sprintf("Report %sd successfully.", req.Action),
	}, nil
}

// ListToday returns the teacher's reports for today plus the subject and
// class reference lists used to populate entry forms.
func (s *ReportService) ListToday(ctx context.Context, userID string) (*dto.TodayReportsResponse, error) {
	teacher, err := s.resolveTeacher(ctx, userID)
	if err != nil {
		return nil, err
	}

	dayStart, dayEnd := dayWindow(s.now(), s.location)
	reports, err := s.reports.ListDetailsForTeacher(ctx, teacher.ID, dayStart, dayEnd)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list reports")
	}

	subjects, err := s.subjects.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list subjects")
	}
	classes, err := s.classes.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list classes")
	}

	response := &dto.TodayReportsResponse{
		Reports:  reports,
		Subjects: make([]dto.SubjectRef, 0, len(subjects)),
		Classes:  make([]dto.ClassRef, 0, len(classes)),
	}
	if response.Reports == nil {
		response.Reports = []models.TeacherReportDetail{}
	}
	for _, subject := range subjects {
		response.Subjects = append(response.Subjects, dto.SubjectRef{ID: subject.ID, Name: subject.Name, Code: subject.Code})
	}
	for _, class := range classes {
		response.Classes = append(response.Classes, dto.ClassRef{ID: class.ID, Name: class.Name, Section: class.Section, Grade: class.Grade})
	}
	return response, nil
}

// ListByDate returns every report filed on the given calendar day. An empty
// date means today.
func (s *ReportService) ListByDate(ctx context.Context, date string) ([]models.TeacherReportDetail, error) {
	at := s.now()
	if date != "" {
		parsed, err := time.ParseInLocation("2006-01-02", date, s.location)
		if err != nil {
			return nil, appErrors.Clone(appErrors.ErrInvalidParameter, "date must be formatted as YYYY-MM-DD")
		}
		at = parsed
	}

	dayStart, dayEnd := dayWindow(at, s.location)
	reports, err := s.reports.ListDetailsByDate(ctx, dayStart, dayEnd)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list reports")
	}
	if reports == nil {
		reports = []models.TeacherReportDetail{}
	}
	return reports, nil
}

// HomeworkCount returns the class's quota position for today.
func (s *ReportService) HomeworkCount(ctx context.Context, classID string) (*dto.HomeworkCountResponse, error) {
	class, err := s.classes.FindByID(ctx, classID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "Class not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class")
	}

	dayStart, dayEnd := dayWindow(s.now(), s.location)
	count, err := s.homeworks.CountActiveForClass(ctx, class.ID, dayStart, dayEnd)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count class homework")
	}

	return &dto.HomeworkCountResponse{
		ClassID:   class.ID,
		ClassName: class.Name,
		Count:     count,
		Limit:     class.DailyHomeworkLimit,
		CanAssign: s.quota.CanAssign(count, class.DailyHomeworkLimit),
	}, nil
}

func (s *ReportService) resolveTeacher(ctx context.Context, userID string) (*models.Teacher, error) {
	teacher, err := s.teachers.FindByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrForbidden, "No teacher profile for this account")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teacher")
	}
	return teacher, nil
}

func (s *ReportService) buildHomework(now time.Time, teacher *models.Teacher, subject *models.Subject, class *models.Class, req dto.CreateReportRequest, description string) (*models.Homework, error) {
	homework := s.defaultHomework(now, teacher.ID, subject.ID, class.ID, req.Period, description, subject.Name)

	if req.DueDate != nil && *req.DueDate != "" {
		due, err := parseDueDate(*req.DueDate, s.location)
		if err != nil {
			return nil, appErrors.Clone(appErrors.ErrValidation, "due_date must be formatted as YYYY-MM-DD or RFC 3339")
		}
		homework.DueDate = due
	}
	if req.EstimatedDuration != nil {
		homework.EstimatedDuration = *req.EstimatedDuration
	}
	if req.Priority != nil && *req.Priority != "" {
		priority := models.HomeworkPriority(*req.Priority)
		if !priority.Valid() {
			return nil, appErrors.Clone(appErrors.ErrValidation, "priority must be one of low, medium, high, urgent")
		}
		homework.Priority = priority
	}
	return homework, nil
}

func (s *ReportService) defaultHomework(now time.Time, teacherID, subjectID, classID string, period int, description, subjectLabel string) *models.Homework {
	return &models.Homework{
		Title:             fmt.Sprintf("Homework - %s - Period %d", subjectLabel, period),
		Description:       description,
		ClassID:           classID,
		SubjectID:         subjectID,
		TeacherID:         teacherID,
		DueDate:           now.Add(defaultHomeworkDueIn),
		AssignedDate:      now,
		EstimatedDuration: defaultHomeworkDuration,
		Priority:          models.PriorityMedium,
		IsActive:          true,
	}
}

func (s *ReportService) loadDetail(ctx context.Context, reportID string) (*models.TeacherReportDetail, error) {
	detail, err := s.reports.FindDetail(ctx, reportID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load report detail")
	}
	return detail, nil
}

func (s *ReportService) invalidateDashboard(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, dashboardCachePattern); err != nil {
		s.logger.Warn("failed to invalidate dashboard cache", zap.Error(err))
	}
}

func parseDueDate(raw string, loc *time.Location) (time.Time, error) {
	if due, err := time.Parse(time.RFC3339, raw); err == nil {
		return due, nil
	}
	return time.ParseInLocation("2006-01-02", raw, loc)
}

func subjectName(subject *models.Subject) string {
	if subject == nil {
		return ""
	}
	return subject.Name
}
