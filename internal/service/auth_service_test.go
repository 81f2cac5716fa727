package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/classtrack/school-report-api/internal/models"
	appErrors "github.com/classtrack/school-report-api/pkg/errors"
)

type fakeUserRepo struct {
	users         map[string]*models.User
	refreshTokens map[string]*models.RefreshToken
	revoked       []string
	lastLoginSet  bool
	passwordSet   string
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{
		users:         map[string]*models.User{},
		refreshTokens: map[string]*models.RefreshToken{},
	}
}

func (f *fakeUserRepo) FindByUsername(_ context.Context, username string) (*models.User, error) {
	for _, user := range f.users {
		if user.Username == username {
			return user, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (f *fakeUserRepo) FindByID(_ context.Context, id string) (*models.User, error) {
	user, ok := f.users[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return user, nil
}

func (f *fakeUserRepo) UpdateLastLogin(_ context.Context, id string, _ time.Time) error {
	f.lastLoginSet = true
	return nil
}

func (f *fakeUserRepo) UpdatePassword(_ context.Context, id, passwordHash string, _ time.Time) error {
	f.passwordSet = passwordHash
	if user, ok := f.users[id]; ok {
		user.PasswordHash = passwordHash
		user.MustChangePassword = false
	}
	return nil
}

func (f *fakeUserRepo) CreateRefreshToken(_ context.Context, token *models.RefreshToken) error {
	clone := *token
	f.refreshTokens[token.Token] = &clone
	return nil
}

func (f *fakeUserRepo) FindRefreshToken(_ context.Context, token string) (*models.RefreshToken, error) {
	stored, ok := f.refreshTokens[token]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return stored, nil
}

func (f *fakeUserRepo) RevokeRefreshToken(_ context.Context, id string, _ time.Time) error {
	f.revoked = append(f.revoked, id)
	for _, token := range f.refreshTokens {
		if token.ID == id {
			token.Revoked = true
		}
	}
	return nil
}

func (f *fakeUserRepo) RevokeUserRefreshTokens(_ context.Context, userID string) error {
	for _, token := range f.refreshTokens {
		if token.UserID == userID {
			token.Revoked = true
		}
	}
	return nil
}

func newAuthFixture(t *testing.T) (*AuthService, *fakeUserRepo, *models.User) {
	t.Helper()

	repo := newFakeUserRepo()
	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret123"), bcrypt.MinCost)
	require.NoError(t, err)

	user := &models.User{
		ID:                 uuid.NewString(),
		Username:           "jdoe",
		PasswordHash:       string(hash),
		Role:               models.RoleTeacher,
		MustChangePassword: true,
		Active:             true,
	}
	repo.users[user.ID] = user

	svc := NewAuthService(repo, nil, nil, AuthConfig{
		AccessTokenSecret:  "test-secret",
		AccessTokenExpiry:  time.Hour,
		RefreshTokenExpiry: 24 * time.Hour,
		Issuer:             "school-report-api",
	})
	return svc, repo, user
}

func TestLoginSuccess(t *testing.T) {
	svc, repo, user := newAuthFixture(t)

	res, err := svc.Login(context.Background(), models.LoginRequest{Username: "jdoe", Password: "s3cret123"})
	require.NoError(t, err)

	assert.NotEmpty(t, res.AccessToken)
	assert.NotEmpty(t, res.RefreshToken)
	assert.Equal(t, int64(3600), res.ExpiresIn)
	assert.Equal(t, user.ID, res.User.ID)
	assert.True(t, res.User.MustChangePassword)
	assert.True(t, repo.lastLoginSet)

	claims, err := svc.ValidateToken(res.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
	assert.Equal(t, models.RoleTeacher, claims.Role)
}

func TestLoginWrongPassword(t *testing.T) {
	svc, _, _ := newAuthFixture(t)

	_, err := svc.Login(context.Background(), models.LoginRequest{Username: "jdoe", Password: "nope-nope"})
	appErr := asAppError(t, err)
	assert.Equal(t, appErrors.ErrInvalidCredentials.Code, appErr.Code)
}

func TestLoginUnknownUser(t *testing.T) {
	svc, _, _ := newAuthFixture(t)

	_, err := svc.Login(context.Background(), models.LoginRequest{Username: "ghost", Password: "whatever"})
	appErr := asAppError(t, err)
	assert.Equal(t, appErrors.ErrInvalidCredentials.Code, appErr.Code)
}

func TestLoginInactiveAccount(t *testing.T) {
	svc, _, user := newAuthFixture(t)
	user.Active = false

	_, err := svc.Login(context.Background(), models.LoginRequest{Username: "jdoe", Password: "s3cret123"})
	appErr := asAppError(t, err)
	assert.Equal(t, appErrors.ErrInactiveAccount.Code, appErr.Code)
}

func TestRefreshRotatesToken(t *testing.T) {
	svc, repo, _ := newAuthFixture(t)

	login, err := svc.Login(context.Background(), models.LoginRequest{Username: "jdoe", Password: "s3cret123"})
	require.NoError(t, err)

	res, err := svc.RefreshToken(context.Background(), models.RefreshTokenRequest{RefreshToken: login.RefreshToken})
	require.NoError(t, err)
	assert.NotEqual(t, login.RefreshToken, res.RefreshToken)
	assert.Len(t, repo.revoked, 1)

	// The consumed token no longer works.
	_, err = svc.RefreshToken(context.Background(), models.RefreshTokenRequest{RefreshToken: login.RefreshToken})
	appErr := asAppError(t, err)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErr.Code)
}

func TestChangePassword(t *testing.T) {
	svc, repo, user := newAuthFixture(t)

	err := svc.ChangePassword(context.Background(), user.ID, models.ChangePasswordRequest{
		OldPassword: "wrong-old",
		NewPassword: "newpass1",
	})
	appErr := asAppError(t, err)
	assert.Equal(t, appErrors.ErrInvalidCredentials.Code, appErr.Code)

	err = svc.ChangePassword(context.Background(), user.ID, models.ChangePasswordRequest{
		OldPassword: "s3cret123",
		NewPassword: "newpass1",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, repo.passwordSet)
	assert.False(t, user.MustChangePassword)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("newpass1")))
}

func TestValidateTokenRejectsGarbage(t *testing.T) {
	svc, _, _ := newAuthFixture(t)

	_, err := svc.ValidateToken("not-a-token")
	appErr := asAppError(t, err)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErr.Code)
}
