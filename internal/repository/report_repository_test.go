package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/classtrack/school-report-api/internal/models"
	appErrors "github.com/classtrack/school-report-api/pkg/errors"
)

func newRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestReportRepositoryExistsForPeriod(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewReportRepository(db)

	dayStart := time.Date(2026, 2, 3, 0, 0, 0, 0, time.UTC)
	dayEnd := dayStart.Add(24 * time.Hour)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM teacher_reports")).
		WithArgs("teacher-1", 2, dayStart, dayEnd).
		WillReturnRows(sqlmock.NewRows([]string{"?column?"}).AddRow(1))

	exists, err := repo.ExistsForPeriod(context.Background(), "teacher-1", 2, dayStart, dayEnd)
	require.NoError(t, err)
	assert.True(t, exists)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM teacher_reports")).
		WithArgs("teacher-1", 3, dayStart, dayEnd).
		WillReturnRows(sqlmock.NewRows([]string{"?column?"}))

	exists, err = repo.ExistsForPeriod(context.Background(), "teacher-1", 3, dayStart, dayEnd)
	require.NoError(t, err)
	assert.False(t, exists)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReportRepositoryCreateWithHomework(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewReportRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO homeworks")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO teacher_reports")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	homework := &models.Homework{
		Title:             "Homework - Math - Period 2",
		Description:       "Exercises 1-10",
		ClassID:           "class-1",
		SubjectID:         "subject-1",
		TeacherID:         "teacher-1",
		DueDate:           time.Now().Add(24 * time.Hour),
		EstimatedDuration: 30,
		Priority:          models.PriorityMedium,
		IsActive:          true,
	}
	report := &models.TeacherReport{
		TeacherID: "teacher-1",
		SubjectID: "subject-1",
		ClassID:   "class-1",
		Period:    2,
		Activity:  "Reviewed fractions",
		Status:    models.ReportStatusPending,
	}

	require.NoError(t, repo.CreateWithHomework(context.Background(), report, homework))
	assert.NotEmpty(t, report.ID)
	assert.NotEmpty(t, homework.ID)
	require.NotNil(t, report.HomeworkID)
	assert.Equal(t, homework.ID, *report.HomeworkID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReportRepositoryCreateUniqueViolation(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewReportRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO teacher_reports")).
		WillReturnError(&pq.Error{Code: "23505", Constraint: "idx_reports_teacher_period_day"})
	mock.ExpectRollback()

	report := &models.TeacherReport{
		TeacherID: "teacher-1",
		SubjectID: "subject-1",
		ClassID:   "class-1",
		Period:    2,
		Activity:  "Reviewed fractions",
		Status:    models.ReportStatusPending,
	}

	err := repo.CreateWithHomework(context.Background(), report, nil)
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrConflict.Code, appErr.Code)
	assert.Contains(t, appErr.Message, "period 2")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReportRepositoryUpdateRemovesHomework(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewReportRepository(db)

	homeworkID := "hw-1"
	report := &models.TeacherReport{
		ID:         "report-1",
		TeacherID:  "teacher-1",
		SubjectID:  "subject-1",
		ClassID:    "class-1",
		Period:     1,
		Activity:   "activity",
		HomeworkID: &homeworkID,
		Status:     models.ReportStatusPending,
	}

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM homeworks WHERE id = $1")).
		WithArgs(homeworkID).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE teacher_reports")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.UpdateWithHomework(context.Background(), report, ReportUpdate{Remove: true}))
	assert.Nil(t, report.HomeworkID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReportRepositoryUpdateStatusNotFound(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewReportRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE teacher_reports SET status = $2, updated_at = $3 WHERE id = $1")).
		WithArgs("missing", models.ReportStatusApproved, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.UpdateStatus(context.Background(), "missing", models.ReportStatusApproved)
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReportRepositoryCountCreatedBetween(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewReportRepository(db)

	dayStart := time.Date(2026, 2, 3, 0, 0, 0, 0, time.UTC)
	dayEnd := dayStart.Add(24 * time.Hour)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM teacher_reports WHERE created_at >= $1 AND created_at < $2")).
		WithArgs(dayStart, dayEnd).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(6))

	total, err := repo.CountCreatedBetween(context.Background(), dayStart, dayEnd)
	require.NoError(t, err)
	assert.Equal(t, 6, total)
	require.NoError(t, mock.ExpectationsWereMet())
}
