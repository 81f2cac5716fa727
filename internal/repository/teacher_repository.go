package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/classtrack/school-report-api/internal/models"
	appErrors "github.com/classtrack/school-report-api/pkg/errors"
)

// TeacherRepository manages persistence for staff records.
type TeacherRepository struct {
	db *sqlx.DB
}

// NewTeacherRepository constructs a TeacherRepository.
func NewTeacherRepository(db *sqlx.DB) *TeacherRepository {
	return &TeacherRepository{db: db}
}

// FindByUserID fetches the teacher profile linked to a login.
func (r *TeacherRepository) FindByUserID(ctx context.Context, userID string) (*models.Teacher, error) {
	const query = `SELECT id, user_id, teacher_id, department, role, phone, created_at FROM teachers WHERE user_id = $1`
	var teacher models.Teacher
	if err := r.db.GetContext(ctx, &teacher, query, userID); err != nil {
		return nil, err
	}
	return &teacher, nil
}

// FindByID fetches a teacher by primary key.
func (r *TeacherRepository) FindByID(ctx context.Context, id string) (*models.Teacher, error) {
	const query = `SELECT id, user_id, teacher_id, department, role, phone, created_at FROM teachers WHERE id = $1`
	var teacher models.Teacher
	if err := r.db.GetContext(ctx, &teacher, query, id); err != nil {
		return nil, err
	}
	return &teacher, nil
}

// ExistsByCode checks whether a teacher code is already taken.
func (r *TeacherRepository) ExistsByCode(ctx context.Context, code string) (bool, error) {
	var exists int
	err := r.db.GetContext(ctx, &exists, "SELECT 1 FROM teachers WHERE teacher_id = $1 LIMIT 1", code)
	if err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check teacher code: %w", err)
	}
	return true, nil
}

// ExistsByUsername checks whether a login username is already taken.
func (r *TeacherRepository) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	var exists int
	err := r.db.GetContext(ctx, &exists, "SELECT 1 FROM users WHERE LOWER(username) = LOWER($1) LIMIT 1", username)
	if err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check username: %w", err)
	}
	return true, nil
}

// CreateWithLogin inserts the login and the staff record as one transaction.
// Duplicate usernames or teacher codes surface as ConflictError via the
// uniqueness constraints.
func (r *TeacherRepository) CreateWithLogin(ctx context.Context, user *models.User, teacher *models.Teacher) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin create teacher transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	now := time.Now().UTC()
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	user.CreatedAt = now
	user.UpdatedAt = now

	const userInsert = `INSERT INTO users (id, username, password_hash, role, must_change_password, active, created_at, updated_at)
		VALUES (:id, :username, :password_hash, :role, :must_change_password, :active, :created_at, :updated_at)`
	if _, err = tx.NamedExecContext(ctx, userInsert, user); err != nil {
		return translateUnique(err, "username already exists")
	}

	if teacher.ID == "" {
		teacher.ID = uuid.NewString()
	}
	teacher.UserID = user.ID
	teacher.CreatedAt = now

	const teacherInsert = `INSERT INTO teachers (id, user_id, teacher_id, department, role, phone, created_at)
		VALUES (:id, :user_id, :teacher_id, :department, :role, :phone, :created_at)`
	if _, err = tx.NamedExecContext(ctx, teacherInsert, teacher); err != nil {
		return translateUnique(err, "teacher ID already exists")
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit create teacher: %w", err)
	}
	return nil
}

// ListProfiles returns every teacher joined with its login username.
func (r *TeacherRepository) ListProfiles(ctx context.Context) ([]models.TeacherProfile, error) {
	const query = `SELECT t.id, t.user_id, t.teacher_id, t.department, t.role, t.phone, t.created_at, u.username
		FROM teachers t
		JOIN users u ON u.id = t.user_id
		ORDER BY t.teacher_id`
	var profiles []models.TeacherProfile
	if err := r.db.SelectContext(ctx, &profiles, query); err != nil {
		return nil, fmt.Errorf("list teacher profiles: %w", err)
	}
	return profiles, nil
}

// ListOverview returns every teacher annotated with its pending-report count,
// ordered by teacher code.
func (r *TeacherRepository) ListOverview(ctx context.Context) ([]models.TeacherOverview, error) {
	const query = `SELECT t.id, t.user_id, t.teacher_id, t.department, t.role, t.phone, t.created_at, u.username,
			COUNT(r.id) FILTER (WHERE r.status = 'pending') AS pending_count
		FROM teachers t
		JOIN users u ON u.id = t.user_id
		LEFT JOIN teacher_reports r ON r.teacher_id = t.id
		GROUP BY t.id, t.user_id, t.teacher_id, t.department, t.role, t.phone, t.created_at, u.username
		ORDER BY t.teacher_id`
	var overview []models.TeacherOverview
	if err := r.db.SelectContext(ctx, &overview, query); err != nil {
		return nil, fmt.Errorf("list teacher overview: %w", err)
	}
	return overview, nil
}

// ListByRoles returns teachers holding any of the given staff roles. Used to
// resolve notification recipients as a set rather than a singleton.
func (r *TeacherRepository) ListByRoles(ctx context.Context, roles []models.TeacherRole) ([]models.Teacher, error) {
	if len(roles) == 0 {
		return nil, nil
	}
	raw := make([]string, 0, len(roles))
	for _, role := range roles {
		raw = append(raw, string(role))
	}
	const query = `SELECT id, user_id, teacher_id, department, role, phone, created_at FROM teachers WHERE role = ANY($1) ORDER BY teacher_id`
	var teachers []models.Teacher
	if err := r.db.SelectContext(ctx, &teachers, query, pq.Array(raw)); err != nil {
		return nil, fmt.Errorf("list teachers by roles: %w", err)
	}
	return teachers, nil
}

// Count returns the total number of teachers.
func (r *TeacherRepository) Count(ctx context.Context) (int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM teachers"); err != nil {
		return 0, fmt.Errorf("count teachers: %w", err)
	}
	return total, nil
}

// translateUnique maps Postgres unique violations onto the conflict error.
func translateUnique(err error, message string) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		return appErrors.Clone(appErrors.ErrConflict, message)
	}
	return err
}
