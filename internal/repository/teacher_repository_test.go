package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/classtrack/school-report-api/internal/models"
	appErrors "github.com/classtrack/school-report-api/pkg/errors"
)

func TestTeacherRepositoryCreateWithLogin(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewTeacherRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO users")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO teachers")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	user := &models.User{Username: "jane.smith", PasswordHash: "hash", Role: models.RoleTeacher, MustChangePassword: true, Active: true}
	teacher := &models.Teacher{TeacherID: "T-042", Department: "Mathematics", Role: models.TeacherRoleTeacher}

	require.NoError(t, repo.CreateWithLogin(context.Background(), user, teacher))
	assert.NotEmpty(t, user.ID)
	assert.NotEmpty(t, teacher.ID)
	assert.Equal(t, user.ID, teacher.UserID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTeacherRepositoryCreateDuplicateUsername(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewTeacherRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO users")).
		WillReturnError(&pq.Error{Code: "23505", Constraint: "users_username_key"})
	mock.ExpectRollback()

	user := &models.User{Username: "jane.smith"}
	teacher := &models.Teacher{TeacherID: "T-042"}

	err := repo.CreateWithLogin(context.Background(), user, teacher)
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrConflict.Code, appErr.Code)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTeacherRepositoryListByRoles(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewTeacherRepository(db)

	rows := sqlmock.NewRows([]string{"id", "user_id", "teacher_id", "department", "role", "phone", "created_at"}).
		AddRow("t1", "u1", "T-001", "Administration", "principal", "", time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("FROM teachers WHERE role = ANY($1)")).
		WillReturnRows(rows)

	teachers, err := repo.ListByRoles(context.Background(), models.OversightRoles)
	require.NoError(t, err)
	require.Len(t, teachers, 1)
	assert.Equal(t, models.TeacherRolePrincipal, teachers[0].Role)
	require.NoError(t, mock.ExpectationsWereMet())
}
