package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/classtrack/school-report-api/internal/dto"
	"github.com/classtrack/school-report-api/internal/models"
	appErrors "github.com/classtrack/school-report-api/pkg/errors"
)

type fakeTeacherRepo struct {
	codes       map[string]bool
	usernames   map[string]bool
	createdUser *models.User
	created     *models.Teacher
	profiles    []models.TeacherProfile
	byUser      map[string]*models.Teacher
}

func (f *fakeTeacherRepo) FindByUserID(_ context.Context, userID string) (*models.Teacher, error) {
	teacher, ok := f.byUser[userID]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return teacher, nil
}

func (f *fakeTeacherRepo) ExistsByCode(_ context.Context, code string) (bool, error) {
	return f.codes[code], nil
}

func (f *fakeTeacherRepo) ExistsByUsername(_ context.Context, username string) (bool, error) {
	return f.usernames[username], nil
}

func (f *fakeTeacherRepo) CreateWithLogin(_ context.Context, user *models.User, teacher *models.Teacher) error {
	f.createdUser = user
	f.created = teacher
	return nil
}

func (f *fakeTeacherRepo) ListProfiles(context.Context) ([]models.TeacherProfile, error) {
	return f.profiles, nil
}

type fakeApprovedCounter struct {
	count int
}

func (f *fakeApprovedCounter) CountForTeacherByStatus(context.Context, string, models.ReportStatus) (int, error) {
	return f.count, nil
}

func TestTeacherCreateProvisionsLogin(t *testing.T) {
	repo := &fakeTeacherRepo{codes: map[string]bool{}, usernames: map[string]bool{}}
	svc := NewTeacherService(TeacherServiceParams{Repo: repo, Reports: &fakeApprovedCounter{}})

	profile, err := svc.Create(context.Background(), dto.CreateTeacherRequest{
		Name:       "Jane Smith",
		TeacherID:  "T-042",
		Department: "Mathematics",
	})
	require.NoError(t, err)

	assert.Equal(t, "jane.smith", profile.Username)
	assert.Equal(t, models.TeacherRoleTeacher, repo.created.Role)
	assert.Equal(t, models.RoleTeacher, repo.createdUser.Role)
	assert.True(t, repo.createdUser.MustChangePassword)
	assert.True(t, repo.createdUser.Active)
	// Initial password is the teacher code.
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(repo.createdUser.PasswordHash), []byte("T-042")))
}

func TestTeacherCreateDuplicateCode(t *testing.T) {
	repo := &fakeTeacherRepo{codes: map[string]bool{"T-042": true}, usernames: map[string]bool{}}
	svc := NewTeacherService(TeacherServiceParams{Repo: repo, Reports: &fakeApprovedCounter{}})

	_, err := svc.Create(context.Background(), dto.CreateTeacherRequest{
		Name:       "Jane Smith",
		TeacherID:  "T-042",
		Department: "Mathematics",
	})
	appErr := asAppError(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErr.Code)
	assert.Nil(t, repo.created)
}

func TestTeacherCreateUnknownRole(t *testing.T) {
	repo := &fakeTeacherRepo{codes: map[string]bool{}, usernames: map[string]bool{}}
	svc := NewTeacherService(TeacherServiceParams{Repo: repo, Reports: &fakeApprovedCounter{}})

	_, err := svc.Create(context.Background(), dto.CreateTeacherRequest{
		Name:       "Jane Smith",
		TeacherID:  "T-043",
		Department: "Mathematics",
		Role:       "janitor",
	})
	appErr := asAppError(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
}

func TestProfileForPrincipal(t *testing.T) {
	repo := &fakeTeacherRepo{
		profiles: []models.TeacherProfile{{Teacher: models.Teacher{ID: "t1"}, Username: "a"}},
	}
	svc := NewTeacherService(TeacherServiceParams{Repo: repo, Reports: &fakeApprovedCounter{}})

	res, err := svc.Profile(context.Background(), "u1", models.RolePrincipal)
	require.NoError(t, err)
	assert.Len(t, res.Teachers, 1)
	assert.Nil(t, res.ApprovedCount)
}

func TestProfileForTeacher(t *testing.T) {
	repo := &fakeTeacherRepo{
		byUser: map[string]*models.Teacher{"u1": {ID: "t1", UserID: "u1"}},
	}
	svc := NewTeacherService(TeacherServiceParams{Repo: repo, Reports: &fakeApprovedCounter{count: 4}})

	res, err := svc.Profile(context.Background(), "u1", models.RoleTeacher)
	require.NoError(t, err)
	assert.Empty(t, res.Teachers)
	require.NotNil(t, res.ApprovedCount)
	assert.Equal(t, 4, *res.ApprovedCount)
}
