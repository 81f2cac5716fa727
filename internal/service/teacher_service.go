package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/classtrack/school-report-api/internal/dto"
	"github.com/classtrack/school-report-api/internal/models"
	appErrors "github.com/classtrack/school-report-api/pkg/errors"
)

type teacherRepository interface {
	FindByUserID(ctx context.Context, userID string) (*models.Teacher, error)
	ExistsByCode(ctx context.Context, code string) (bool, error)
	ExistsByUsername(ctx context.Context, username string) (bool, error)
	CreateWithLogin(ctx context.Context, user *models.User, teacher *models.Teacher) error
	ListProfiles(ctx context.Context) ([]models.TeacherProfile, error)
}

type approvedCounter interface {
	CountForTeacherByStatus(ctx context.Context, teacherID string, status models.ReportStatus) (int, error)
}

// TeacherServiceParams groups TeacherService dependencies.
type TeacherServiceParams struct {
	Repo      teacherRepository
	Reports   approvedCounter
	Validator *validator.Validate
	Logger    *zap.Logger
}

// TeacherService handles staff onboarding and profile views.
type TeacherService struct {
	repo      teacherRepository
	reports   approvedCounter
	validator *validator.Validate
	logger    *zap.Logger
}

// NewTeacherService constructs a TeacherService.
func NewTeacherService(params TeacherServiceParams) *TeacherService {
	if params.Validator == nil {
		params.Validator = validator.New()
	}
	if params.Logger == nil {
		params.Logger = zap.NewNop()
	}
	return &TeacherService{
		repo:      params.Repo,
		reports:   params.Reports,
		validator: params.Validator,
		logger:    params.Logger,
	}
}

// Create onboards a teacher: a login and the staff record are inserted in one
// transaction. The initial password is the teacher code with a forced change
// at first login.
func (s *TeacherService) Create(ctx context.Context, req dto.CreateTeacherRequest) (*models.TeacherProfile, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid teacher payload")
	}

	role := models.TeacherRoleTeacher
	if req.Role != "" {
		role = models.TeacherRole(req.Role)
		if !role.Valid() {
			return nil, appErrors.Clone(appErrors.ErrValidation, "unknown staff role")
		}
	}

	username := usernameFromName(req.Name)

	if taken, err := s.repo.ExistsByUsername(ctx, username); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check username")
	} else if taken {
		return nil, appErrors.Clone(appErrors.ErrConflict, "A teacher with this name already exists.")
	}
	if taken, err := s.repo.ExistsByCode(ctx, req.TeacherID); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check teacher code")
	} else if taken {
		return nil, appErrors.Clone(appErrors.ErrConflict, "Teacher ID already exists.")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.TeacherID), bcrypt.DefaultCost)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to hash initial password")
	}

	user := &models.User{
		ID:                 uuid.NewString(),
		Username:           username,
		PasswordHash:       string(hash),
		Role:               models.RoleTeacher,
		MustChangePassword: true,
		Active:             true,
	}
	teacher := &models.Teacher{
		ID:         uuid.NewString(),
		TeacherID:  req.TeacherID,
		Department: req.Department,
		Role:       role,
		Phone:      req.Phone,
	}

	if err := s.repo.CreateWithLogin(ctx, user, teacher); err != nil {
		var appErr *appErrors.Error
		if errors.As(err, &appErr) {
			return nil, appErr
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create teacher")
	}

	return &models.TeacherProfile{Teacher: *teacher, Username: user.Username}, nil
}

// Profile returns the role-dependent profile payload. Principals and admins
// see the full roster; teachers see their approved-report count.
func (s *TeacherService) Profile(ctx context.Context, userID string, role models.UserRole) (*dto.ProfileResponse, error) {
	if role == models.RolePrincipal || role == models.RoleAdmin {
		profiles, err := s.repo.ListProfiles(ctx)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list teacher profiles")
		}
		if profiles == nil {
			profiles = []models.TeacherProfile{}
		}
		return &dto.ProfileResponse{Teachers: profiles}, nil
	}

	teacher, err := s.repo.FindByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrForbidden, "No teacher profile for this account")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teacher")
	}

	approved, err := s.reports.CountForTeacherByStatus(ctx, teacher.ID, models.ReportStatusApproved)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count approved reports")
	}
	return &dto.ProfileResponse{ApprovedCount: &approved}, nil
}

func usernameFromName(name string) string {
	fields := strings.Fields(strings.ToLower(strings.TrimSpace(name)))
	return strings.Join(fields, ".")
}
