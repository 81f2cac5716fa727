package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/classtrack/school-report-api/internal/models"
)

func TestHomeworkRepositoryCountActiveForClass(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewHomeworkRepository(db)

	dayStart := time.Date(2026, 2, 3, 0, 0, 0, 0, time.UTC)
	dayEnd := dayStart.Add(24 * time.Hour)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM homeworks")).
		WithArgs("class-1", dayStart, dayEnd).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))

	count, err := repo.CountActiveForClass(context.Background(), "class-1", dayStart, dayEnd)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestHomeworkRepositorySummary(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewHomeworkRepository(db)

	now := time.Date(2026, 2, 3, 9, 0, 0, 0, time.UTC)
	dayStart := time.Date(2026, 2, 3, 0, 0, 0, 0, time.UTC)
	dayEnd := dayStart.Add(24 * time.Hour)
	class := &models.Class{ID: "class-1", Name: "7A", DailyHomeworkLimit: 3}

	mock.ExpectQuery("SELECT\\s+COUNT").
		WithArgs("class-1", dayStart, dayEnd, now).
		WillReturnRows(sqlmock.NewRows([]string{"total", "today", "overdue", "total_time"}).AddRow(8, 2, 1, 75))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT DISTINCT s.name FROM homeworks h")).
		WithArgs("class-1", dayStart, dayEnd).
		WillReturnRows(sqlmock.NewRows([]string{"name"}).AddRow("English").AddRow("Mathematics"))

	summary, err := repo.Summary(context.Background(), class, now, dayStart, dayEnd)
	require.NoError(t, err)
	assert.Equal(t, 8, summary.TotalHomeworks)
	assert.Equal(t, 2, summary.TodayHomeworks)
	assert.Equal(t, 1, summary.OverdueHomeworks)
	assert.Equal(t, 75, summary.TotalEstimatedTime)
	assert.Equal(t, []string{"English", "Mathematics"}, summary.SubjectsWithHomework)
	assert.True(t, summary.CanAssignMore)
	assert.Equal(t, 3, summary.HomeworkLimit)
	require.NoError(t, mock.ExpectationsWereMet())
}
