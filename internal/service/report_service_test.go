package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/classtrack/school-report-api/internal/dto"
	"github.com/classtrack/school-report-api/internal/models"
	"github.com/classtrack/school-report-api/internal/repository"
	appErrors "github.com/classtrack/school-report-api/pkg/errors"
)

type fakeReportRepo struct {
	exists        bool
	created       *models.TeacherReport
	createdHW     *models.Homework
	updated       *models.TeacherReport
	lastUpdate    repository.ReportUpdate
	updateCalls   int
	owned         map[string]*models.TeacherReport
	byID          map[string]*models.TeacherReport
	statusHistory []models.ReportStatus
	teacherLists  []models.TeacherReportDetail
	dateLists     []models.TeacherReportDetail
}

func (f *fakeReportRepo) ExistsForPeriod(context.Context, string, int, time.Time, time.Time) (bool, error) {
	return f.exists, nil
}

func (f *fakeReportRepo) CreateWithHomework(_ context.Context, report *models.TeacherReport, homework *models.Homework) error {
	if homework != nil {
		homework.ID = uuid.NewString()
		report.HomeworkID = &homework.ID
	}
	report.ID = uuid.NewString()
	f.created = report
	f.createdHW = homework
	return nil
}

func (f *fakeReportRepo) UpdateWithHomework(_ context.Context, report *models.TeacherReport, update repository.ReportUpdate) error {
	switch {
	case update.NewHomework != nil:
		update.NewHomework.ID = uuid.NewString()
		report.HomeworkID = &update.NewHomework.ID
	case update.Remove:
		report.HomeworkID = nil
	}
	f.updated = report
	f.lastUpdate = update
	f.updateCalls++
	return nil
}

func (f *fakeReportRepo) FindOwned(_ context.Context, reportID, teacherID string) (*models.TeacherReport, error) {
	report, ok := f.owned[reportID]
	if !ok || report.TeacherID != teacherID {
		return nil, sql.ErrNoRows
	}
	clone := *report
	return &clone, nil
}

func (f *fakeReportRepo) FindByID(_ context.Context, reportID string) (*models.TeacherReport, error) {
	report, ok := f.byID[reportID]
	if !ok {
		return nil, sql.ErrNoRows
	}
	clone := *report
	return &clone, nil
}

func (f *fakeReportRepo) FindDetail(_ context.Context, reportID string) (*models.TeacherReportDetail, error) {
	return &models.TeacherReportDetail{TeacherReport: models.TeacherReport{ID: reportID}}, nil
}

func (f *fakeReportRepo) UpdateStatus(_ context.Context, reportID string, status models.ReportStatus) error {
	if report, ok := f.byID[reportID]; ok {
		report.Status = status
	}
	f.statusHistory = append(f.statusHistory, status)
	return nil
}

func (f *fakeReportRepo) ListDetailsForTeacher(context.Context, string, time.Time, time.Time) ([]models.TeacherReportDetail, error) {
	return f.teacherLists, nil
}

func (f *fakeReportRepo) ListDetailsByDate(context.Context, time.Time, time.Time) ([]models.TeacherReportDetail, error) {
	return f.dateLists, nil
}

type fakeHomeworkCounter struct {
	counts []int
	calls  int
}

func (f *fakeHomeworkCounter) CountActiveForClass(context.Context, string, time.Time, time.Time) (int, error) {
	count := 0
	if f.calls < len(f.counts) {
		count = f.counts[f.calls]
	} else if len(f.counts) > 0 {
		count = f.counts[len(f.counts)-1]
	}
	f.calls++
	return count, nil
}

type fakeClassRepo struct {
	classes map[string]*models.Class
}

func (f *fakeClassRepo) FindByID(_ context.Context, id string) (*models.Class, error) {
	class, ok := f.classes[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return class, nil
}

func (f *fakeClassRepo) List(context.Context) ([]models.Class, error) {
	var out []models.Class
	for _, class := range f.classes {
		out = append(out, *class)
	}
	return out, nil
}

type fakeSubjectRepo struct {
	subjects map[string]*models.Subject
}

func (f *fakeSubjectRepo) FindByID(_ context.Context, id string) (*models.Subject, error) {
	subject, ok := f.subjects[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return subject, nil
}

func (f *fakeSubjectRepo) List(context.Context) ([]models.Subject, error) {
	var out []models.Subject
	for _, subject := range f.subjects {
		out = append(out, *subject)
	}
	return out, nil
}

type fakeTeacherReader struct {
	byUser map[string]*models.Teacher
	byID   map[string]*models.Teacher
}

func (f *fakeTeacherReader) FindByUserID(_ context.Context, userID string) (*models.Teacher, error) {
	teacher, ok := f.byUser[userID]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return teacher, nil
}

func (f *fakeTeacherReader) FindByID(_ context.Context, id string) (*models.Teacher, error) {
	teacher, ok := f.byID[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return teacher, nil
}

type fakeDispatcher struct {
	broadcast []HomeworkEvent
	direct    []HomeworkEvent
	directTo  []models.Teacher
}

func (f *fakeDispatcher) Dispatch(_ context.Context, event HomeworkEvent) {
	f.broadcast = append(f.broadcast, event)
}

func (f *fakeDispatcher) DispatchTo(_ context.Context, recipient models.Teacher, event HomeworkEvent) {
	f.directTo = append(f.directTo, recipient)
	f.direct = append(f.direct, event)
}

type fakeInvalidator struct {
	patterns []string
}

func (f *fakeInvalidator) Invalidate(_ context.Context, pattern string) error {
	f.patterns = append(f.patterns, pattern)
	return nil
}

type reportFixture struct {
	svc        *ReportService
	reports    *fakeReportRepo
	counter    *fakeHomeworkCounter
	dispatcher *fakeDispatcher
	cache      *fakeInvalidator
	userID     string
	teacherID  string
	subjectID  string
	classID    string
	now        time.Time
}

func newReportFixture(t *testing.T, dailyLimit int) *reportFixture {
	t.Helper()

	userID := uuid.NewString()
	teacherID := uuid.NewString()
	subjectID := uuid.NewString()
	classID := uuid.NewString()
	now := time.Date(2026, 2, 3, 9, 0, 0, 0, time.UTC)

	teacher := &models.Teacher{ID: teacherID, UserID: userID, TeacherID: "T-001", Role: models.TeacherRoleTeacher}

	f := &reportFixture{
		reports:    &fakeReportRepo{owned: map[string]*models.TeacherReport{}, byID: map[string]*models.TeacherReport{}},
		counter:    &fakeHomeworkCounter{},
		dispatcher: &fakeDispatcher{},
		cache:      &fakeInvalidator{},
		userID:     userID,
		teacherID:  teacherID,
		subjectID:  subjectID,
		classID:    classID,
		now:        now,
	}

	f.svc = NewReportService(ReportServiceParams{
		Reports:   f.reports,
		Homeworks: f.counter,
		Classes:   &fakeClassRepo{classes: map[string]*models.Class{classID: {ID: classID, Name: "7A", Grade: 7, DailyHomeworkLimit: dailyLimit}}},
		Subjects:  &fakeSubjectRepo{subjects: map[string]*models.Subject{subjectID: {ID: subjectID, Name: "Mathematics", Code: "MATH"}}},
		Teachers:  &fakeTeacherReader{byUser: map[string]*models.Teacher{userID: teacher}, byID: map[string]*models.Teacher{teacherID: teacher}},
		Notifier:  f.dispatcher,
		Cache:     f.cache,
		Now:       func() time.Time { return now },
	})
	return f
}

func asAppError(t *testing.T, err error) *appErrors.Error {
	t.Helper()
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr), "expected typed error, got %v", err)
	return appErr
}

func TestReportCreateWithHomeworkDefaults(t *testing.T) {
	f := newReportFixture(t, 3)

	detail, err := f.svc.Create(context.Background(), f.userID, dto.CreateReportRequest{
		Period:              2,
		SubjectID:           f.subjectID,
		ClassID:             f.classID,
		Activity:            "Reviewed fractions",
		HomeworkDescription: "Exercises 1-10",
	})
	require.NoError(t, err)
	require.NotNil(t, detail)

	hw := f.reports.createdHW
	require.NotNil(t, hw)
	assert.Equal(t, "Homework - Mathematics - Period 2", hw.Title)
	assert.Equal(t, f.now.Add(24*time.Hour), hw.DueDate)
	assert.Equal(t, 30, hw.EstimatedDuration)
	assert.Equal(t, models.PriorityMedium, hw.Priority)
	assert.True(t, hw.IsActive)

	assert.Equal(t, models.ReportStatusPending, f.reports.created.Status)
	assert.Equal(t, []string{"dashboard:*"}, f.cache.patterns)

	require.Len(t, f.dispatcher.broadcast, 1)
	assert.Equal(t, models.NotificationHomeworkAssigned, f.dispatcher.broadcast[0].Type)
}

func TestReportCreateWithoutActivityOrHomework(t *testing.T) {
	f := newReportFixture(t, 3)

	_, err := f.svc.Create(context.Background(), f.userID, dto.CreateReportRequest{
		Period:    1,
		SubjectID: f.subjectID,
		ClassID:   f.classID,
		Activity:  "   ",
	})
	appErr := asAppError(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
	assert.Nil(t, f.reports.created)
}

func TestReportCreateDuplicatePeriod(t *testing.T) {
	f := newReportFixture(t, 3)
	f.reports.exists = true

	_, err := f.svc.Create(context.Background(), f.userID, dto.CreateReportRequest{
		Period:    4,
		SubjectID: f.subjectID,
		ClassID:   f.classID,
		Activity:  "Grammar drills",
	})
	appErr := asAppError(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErr.Code)
	assert.Contains(t, appErr.Message, "period 4")
}

func TestReportCreateQuotaExceeded(t *testing.T) {
	f := newReportFixture(t, 3)
	f.counter.counts = []int{3}

	_, err := f.svc.Create(context.Background(), f.userID, dto.CreateReportRequest{
		Period:              1,
		SubjectID:           f.subjectID,
		ClassID:             f.classID,
		HomeworkDescription: "Read chapter 4",
	})
	appErr := asAppError(t, err)
	assert.Equal(t, appErrors.ErrQuotaExceeded.Code, appErr.Code)
	assert.Contains(t, appErr.Message, "7A")
	assert.Contains(t, appErr.Message, "3")
	assert.Nil(t, f.reports.created, "no report row on quota failure")
	assert.Nil(t, f.reports.createdHW, "no homework row on quota failure")
}

func TestReportCreateActivityOnlySkipsQuota(t *testing.T) {
	f := newReportFixture(t, 0)

	_, err := f.svc.Create(context.Background(), f.userID, dto.CreateReportRequest{
		Period:    5,
		SubjectID: f.subjectID,
		ClassID:   f.classID,
		Activity:  "Silent reading",
	})
	require.NoError(t, err)
	assert.Zero(t, f.counter.calls, "quota not consulted without homework")
	assert.Nil(t, f.reports.createdHW)
}

func TestReportCreateLimitReachedNotification(t *testing.T) {
	f := newReportFixture(t, 2)
	f.counter.counts = []int{1}

	_, err := f.svc.Create(context.Background(), f.userID, dto.CreateReportRequest{
		Period:              3,
		SubjectID:           f.subjectID,
		ClassID:             f.classID,
		HomeworkDescription: "Worksheet",
	})
	require.NoError(t, err)

	require.Len(t, f.dispatcher.broadcast, 2)
	assert.Equal(t, models.NotificationHomeworkAssigned, f.dispatcher.broadcast[0].Type)
	assert.Equal(t, models.NotificationHomeworkLimitReached, f.dispatcher.broadcast[1].Type)
}

func TestClassQuotaScenario(t *testing.T) {
	// Class 7A with a daily limit of 2: two homework assignments succeed,
	// the third fails, and a report without homework still goes through.
	f := newReportFixture(t, 2)
	f.counter.counts = []int{0, 1, 2}

	for period, wantErr := range map[int]bool{1: false, 2: false} {
		_, err := f.svc.Create(context.Background(), f.userID, dto.CreateReportRequest{
			Period:              period,
			SubjectID:           f.subjectID,
			ClassID:             f.classID,
			HomeworkDescription: fmt.Sprintf("assignment %d", period),
		})
		require.Equal(t, wantErr, err != nil)
	}

	_, err := f.svc.Create(context.Background(), f.userID, dto.CreateReportRequest{
		Period:              3,
		SubjectID:           f.subjectID,
		ClassID:             f.classID,
		HomeworkDescription: "one too many",
	})
	appErr := asAppError(t, err)
	assert.Equal(t, appErrors.ErrQuotaExceeded.Code, appErr.Code)

	_, err = f.svc.Create(context.Background(), f.userID, dto.CreateReportRequest{
		Period:    4,
		SubjectID: f.subjectID,
		ClassID:   f.classID,
		Activity:  "Recap lesson",
	})
	require.NoError(t, err, "activity-only report is not quota bound")
}

func TestReportUpdateResetsStatus(t *testing.T) {
	f := newReportFixture(t, 3)
	reportID := uuid.NewString()
	f.reports.owned[reportID] = &models.TeacherReport{
		ID:        reportID,
		TeacherID: f.teacherID,
		SubjectID: f.subjectID,
		ClassID:   f.classID,
		Period:    1,
		Activity:  "old",
		Status:    models.ReportStatusApproved,
	}

	activity := "new activity"
	_, err := f.svc.Update(context.Background(), f.userID, reportID, dto.UpdateReportRequest{Activity: &activity})
	require.NoError(t, err)

	assert.Equal(t, models.ReportStatusPending, f.reports.updated.Status)
	assert.Equal(t, "new activity", f.reports.updated.Activity)
	assert.Equal(t, []string{"dashboard:*"}, f.cache.patterns)
}

func TestReportUpdateClearHomeworkIsIdempotent(t *testing.T) {
	f := newReportFixture(t, 3)
	reportID := uuid.NewString()
	homeworkID := uuid.NewString()
	f.reports.owned[reportID] = &models.TeacherReport{
		ID:         reportID,
		TeacherID:  f.teacherID,
		SubjectID:  f.subjectID,
		ClassID:    f.classID,
		HomeworkID: &homeworkID,
		Status:     models.ReportStatusPending,
	}

	empty := ""
	_, err := f.svc.Update(context.Background(), f.userID, reportID, dto.UpdateReportRequest{HomeworkDescription: &empty})
	require.NoError(t, err)
	assert.True(t, f.reports.lastUpdate.Remove)
	assert.Nil(t, f.reports.updated.HomeworkID)

	// Clearing again on a report with no homework still succeeds.
	f.reports.owned[reportID].HomeworkID = nil
	_, err = f.svc.Update(context.Background(), f.userID, reportID, dto.UpdateReportRequest{HomeworkDescription: &empty})
	require.NoError(t, err)
	assert.Equal(t, 2, f.reports.updateCalls)
}

func TestReportUpdateNotOwned(t *testing.T) {
	f := newReportFixture(t, 3)
	reportID := uuid.NewString()
	f.reports.owned[reportID] = &models.TeacherReport{ID: reportID, TeacherID: uuid.NewString()}

	activity := "x"
	_, err := f.svc.Update(context.Background(), f.userID, reportID, dto.UpdateReportRequest{Activity: &activity})
	appErr := asAppError(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
}

func TestReportTransitionLastWins(t *testing.T) {
	f := newReportFixture(t, 3)
	reportID := uuid.NewString()
	homeworkID := uuid.NewString()
	f.reports.byID[reportID] = &models.TeacherReport{
		ID:         reportID,
		TeacherID:  f.teacherID,
		ClassID:    f.classID,
		Period:     2,
		HomeworkID: &homeworkID,
		Status:     models.ReportStatusPending,
	}

	res, err := f.svc.Transition(context.Background(), dto.TransitionRequest{Action: "approve", ReportID: reportID})
	require.NoError(t, err)
	assert.Equal(t, models.ReportStatusApproved, res.NewStatus)

	res, err = f.svc.Transition(context.Background(), dto.TransitionRequest{Action: "reject", ReportID: reportID})
	require.NoError(t, err)
	assert.Equal(t, models.ReportStatusRejected, res.NewStatus)

	assert.Equal(t, []models.ReportStatus{models.ReportStatusApproved, models.ReportStatusRejected}, f.reports.statusHistory)
	assert.Equal(t, models.ReportStatusRejected, f.reports.byID[reportID].Status)

	require.Len(t, f.dispatcher.direct, 2)
	assert.Equal(t, models.NotificationHomeworkApproved, f.dispatcher.direct[0].Type)
	assert.Equal(t, models.NotificationHomeworkRejected, f.dispatcher.direct[1].Type)
	assert.Equal(t, f.teacherID, f.dispatcher.directTo[0].ID)
}

func TestReportTransitionWithoutHomeworkSkipsNotification(t *testing.T) {
	f := newReportFixture(t, 3)
	reportID := uuid.NewString()
	f.reports.byID[reportID] = &models.TeacherReport{ID: reportID, TeacherID: f.teacherID, Status: models.ReportStatusPending}

	_, err := f.svc.Transition(context.Background(), dto.TransitionRequest{Action: "approve", ReportID: reportID})
	require.NoError(t, err)
	assert.Empty(t, f.dispatcher.direct)
}

func TestReportListByDateInvalid(t *testing.T) {
	f := newReportFixture(t, 3)

	_, err := f.svc.ListByDate(context.Background(), "03-02-2026")
	appErr := asAppError(t, err)
	assert.Equal(t, appErrors.ErrInvalidParameter.Code, appErr.Code)
}

func TestReportListTodayIncludesReferenceLists(t *testing.T) {
	f := newReportFixture(t, 3)
	f.reports.teacherLists = []models.TeacherReportDetail{{TeacherReport: models.TeacherReport{ID: uuid.NewString(), Period: 1}}}

	res, err := f.svc.ListToday(context.Background(), f.userID)
	require.NoError(t, err)
	assert.Len(t, res.Reports, 1)
	assert.Len(t, res.Subjects, 1)
	assert.Len(t, res.Classes, 1)
}

func TestHomeworkCount(t *testing.T) {
	f := newReportFixture(t, 3)
	f.counter.counts = []int{2}

	res, err := f.svc.HomeworkCount(context.Background(), f.classID)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Count)
	assert.Equal(t, 3, res.Limit)
	assert.True(t, res.CanAssign)
}
