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

// ReportRepository manages persistence for teacher reports and the homework
// rows they own. Report and homework writes always share one transaction so a
// failed report mutation never leaves orphan homework behind.
type ReportRepository struct {
	db *sqlx.DB
}

// NewReportRepository constructs a ReportRepository.
func NewReportRepository(db *sqlx.DB) *ReportRepository {
	return &ReportRepository{db: db}
}

const reportDetailSelect = `SELECT r.id, r.teacher_id, r.subject_id, r.class_id, r.period, r.activity,
		r.homework_id, r.status, r.created_at, r.updated_at,
		u.username AS teacher_name, t.teacher_id AS teacher_code,
		s.name AS subject_name, s.code AS subject_code, c.name AS class_name,
		h.title AS homework_title
	FROM teacher_reports r
	JOIN teachers t ON t.id = r.teacher_id
	JOIN users u ON u.id = t.user_id
	JOIN subjects s ON s.id = r.subject_id
	JOIN classes c ON c.id = r.class_id
	LEFT JOIN homeworks h ON h.id = r.homework_id`

// ExistsForPeriod reports whether the teacher already filed a report for the
// period within [dayStart, dayEnd).
func (r *ReportRepository) ExistsForPeriod(ctx context.Context, teacherID string, period int, dayStart, dayEnd time.Time) (bool, error) {
	const query = `SELECT 1 FROM teacher_reports
		WHERE teacher_id = $1 AND period = $2 AND created_at >= $3 AND created_at < $4 LIMIT 1`
	var exists int
	if err := r.db.GetContext(ctx, &exists, query, teacherID, period, dayStart, dayEnd); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("check report exists: %w", err)
	}
	return true, nil
}

// CreateWithHomework inserts the report and, when present, its homework as
// one transaction. A unique-violation on the per-day report index is mapped
// to ConflictError as a backstop for the read-then-write duplicate check.
func (r *ReportRepository) CreateWithHomework(ctx context.Context, report *models.TeacherReport, homework *models.Homework) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin create report transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	now := time.Now().UTC()

	if homework != nil {
		if homework.ID == "" {
			homework.ID = uuid.NewString()
		}
		homework.CreatedAt = now
		homework.UpdatedAt = now
		if homework.AssignedDate.IsZero() {
			homework.AssignedDate = now
		}
		const homeworkInsert = `INSERT INTO homeworks (id, title, description, class_id, subject_id, teacher_id,
				due_date, assigned_date, estimated_duration, priority, instructions, is_active, created_at, updated_at)
			VALUES (:id, :title, :description, :class_id, :subject_id, :teacher_id,
				:due_date, :assigned_date, :estimated_duration, :priority, :instructions, :is_active, :created_at, :updated_at)`
		if _, err = tx.NamedExecContext(ctx, homeworkInsert, homework); err != nil {
			return fmt.Errorf("insert homework: %w", err)
		}
		report.HomeworkID = &homework.ID
	}

	if report.ID == "" {
		report.ID = uuid.NewString()
	}
	report.CreatedAt = now
	report.UpdatedAt = now

	const reportInsert = `INSERT INTO teacher_reports (id, teacher_id, subject_id, class_id, period, activity, homework_id, status, created_at, updated_at)
		VALUES (:id, :teacher_id, :subject_id, :class_id, :period, :activity, :homework_id, :status, :created_at, :updated_at)`
	if _, err = tx.NamedExecContext(ctx, reportInsert, report); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			err = appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("Report for period %d already exists for today.", report.Period))
			return err
		}
		return fmt.Errorf("insert report: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit create report: %w", err)
	}
	return nil
}

// ReportUpdate describes the homework mutation accompanying a report edit.
// At most one of NewHomework, Description, and Remove is set.
type ReportUpdate struct {
	NewHomework *models.Homework
	Description *string
	Remove      bool
}

// UpdateWithHomework applies the report field changes and the homework
// mutation in one transaction. The caller has already resolved which
// mutation applies and reset the report status.
func (r *ReportRepository) UpdateWithHomework(ctx context.Context, report *models.TeacherReport, update ReportUpdate) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin update report transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	now := time.Now().UTC()

	switch {
	case update.NewHomework != nil:
		hw := update.NewHomework
		if hw.ID == "" {
			hw.ID = uuid.NewString()
		}
		hw.CreatedAt = now
		hw.UpdatedAt = now
		if hw.AssignedDate.IsZero() {
			hw.AssignedDate = now
		}
		const homeworkInsert = `INSERT INTO homeworks (id, title, description, class_id, subject_id, teacher_id,
				due_date, assigned_date, estimated_duration, priority, instructions, is_active, created_at, updated_at)
			VALUES (:id, :title, :description, :class_id, :subject_id, :teacher_id,
				:due_date, :assigned_date, :estimated_duration, :priority, :instructions, :is_active, :created_at, :updated_at)`
		if _, err = tx.NamedExecContext(ctx, homeworkInsert, hw); err != nil {
			return fmt.Errorf("insert homework: %w", err)
		}
		report.HomeworkID = &hw.ID
	case update.Description != nil && report.HomeworkID != nil:
		const homeworkUpdate = `UPDATE homeworks SET description = $2, updated_at = $3 WHERE id = $1`
		if _, err = tx.ExecContext(ctx, homeworkUpdate, *report.HomeworkID, *update.Description, now); err != nil {
			return fmt.Errorf("update homework description: %w", err)
		}
	case update.Remove && report.HomeworkID != nil:
		if _, err = tx.ExecContext(ctx, `DELETE FROM homeworks WHERE id = $1`, *report.HomeworkID); err != nil {
			return fmt.Errorf("delete homework: %w", err)
		}
		report.HomeworkID = nil
	}

	report.UpdatedAt = now
	const reportUpdate = `UPDATE teacher_reports
		SET subject_id = :subject_id, class_id = :class_id, activity = :activity,
			homework_id = :homework_id, status = :status, updated_at = :updated_at
		WHERE id = :id`
	if _, err = tx.NamedExecContext(ctx, reportUpdate, report); err != nil {
		return fmt.Errorf("update report: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit update report: %w", err)
	}
	return nil
}

// FindOwned fetches a report only if it belongs to the given teacher.
func (r *ReportRepository) FindOwned(ctx context.Context, reportID, teacherID string) (*models.TeacherReport, error) {
	const query = `SELECT id, teacher_id, subject_id, class_id, period, activity, homework_id, status, created_at, updated_at
		FROM teacher_reports WHERE id = $1 AND teacher_id = $2`
	var report models.TeacherReport
	if err := r.db.GetContext(ctx, &report, query, reportID, teacherID); err != nil {
		return nil, err
	}
	return &report, nil
}

// FindByID fetches a report by primary key.
func (r *ReportRepository) FindByID(ctx context.Context, reportID string) (*models.TeacherReport, error) {
	const query = `SELECT id, teacher_id, subject_id, class_id, period, activity, homework_id, status, created_at, updated_at
		FROM teacher_reports WHERE id = $1`
	var report models.TeacherReport
	if err := r.db.GetContext(ctx, &report, query, reportID); err != nil {
		return nil, err
	}
	return &report, nil
}

// FindDetail fetches a single report with reference data joined in.
func (r *ReportRepository) FindDetail(ctx context.Context, reportID string) (*models.TeacherReportDetail, error) {
	query := reportDetailSelect + " WHERE r.id = $1"
	var detail models.TeacherReportDetail
	if err := r.db.GetContext(ctx, &detail, query, reportID); err != nil {
		return nil, err
	}
	return &detail, nil
}

// UpdateStatus transitions a report's approval state. The last transition
// wins; no idempotency check against the prior status is applied.
func (r *ReportRepository) UpdateStatus(ctx context.Context, reportID string, status models.ReportStatus) error {
	const query = `UPDATE teacher_reports SET status = $2, updated_at = $3 WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, reportID, status, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update report status: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("report status rows affected: %w", err)
	}
	if affected == 0 {
		return appErrors.Clone(appErrors.ErrNotFound, "Report not found")
	}
	return nil
}

// ListDetailsForTeacher returns a teacher's reports created within
// [dayStart, dayEnd), newest first.
func (r *ReportRepository) ListDetailsForTeacher(ctx context.Context, teacherID string, dayStart, dayEnd time.Time) ([]models.TeacherReportDetail, error) {
	query := reportDetailSelect + ` WHERE r.teacher_id = $1 AND r.created_at >= $2 AND r.created_at < $3 ORDER BY r.period`
	var details []models.TeacherReportDetail
	if err := r.db.SelectContext(ctx, &details, query, teacherID, dayStart, dayEnd); err != nil {
		return nil, fmt.Errorf("list teacher reports: %w", err)
	}
	return details, nil
}

// ListDetailsByDate returns every report created within [dayStart, dayEnd).
func (r *ReportRepository) ListDetailsByDate(ctx context.Context, dayStart, dayEnd time.Time) ([]models.TeacherReportDetail, error) {
	query := reportDetailSelect + ` WHERE r.created_at >= $1 AND r.created_at < $2 ORDER BY r.created_at DESC`
	var details []models.TeacherReportDetail
	if err := r.db.SelectContext(ctx, &details, query, dayStart, dayEnd); err != nil {
		return nil, fmt.Errorf("list reports by date: %w", err)
	}
	return details, nil
}

// ListPending returns the most recent pending reports up to limit.
func (r *ReportRepository) ListPending(ctx context.Context, limit int) ([]models.TeacherReportDetail, error) {
	query := reportDetailSelect + ` WHERE r.status = 'pending' ORDER BY r.created_at DESC LIMIT $1`
	var details []models.TeacherReportDetail
	if err := r.db.SelectContext(ctx, &details, query, limit); err != nil {
		return nil, fmt.Errorf("list pending reports: %w", err)
	}
	return details, nil
}

// CountPending returns the total number of pending reports.
func (r *ReportRepository) CountPending(ctx context.Context) (int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM teacher_reports WHERE status = 'pending'`); err != nil {
		return 0, fmt.Errorf("count pending reports: %w", err)
	}
	return total, nil
}

// CountCreatedBetween returns the number of reports created within
// [dayStart, dayEnd).
func (r *ReportRepository) CountCreatedBetween(ctx context.Context, dayStart, dayEnd time.Time) (int, error) {
	var total int
	const query = `SELECT COUNT(*) FROM teacher_reports WHERE created_at >= $1 AND created_at < $2`
	if err := r.db.GetContext(ctx, &total, query, dayStart, dayEnd); err != nil {
		return 0, fmt.Errorf("count reports for day: %w", err)
	}
	return total, nil
}

// CountForTeacherByStatus returns a teacher's report count in one status.
func (r *ReportRepository) CountForTeacherByStatus(ctx context.Context, teacherID string, status models.ReportStatus) (int, error) {
	var total int
	const query = `SELECT COUNT(*) FROM teacher_reports WHERE teacher_id = $1 AND status = $2`
	if err := r.db.GetContext(ctx, &total, query, teacherID, status); err != nil {
		return 0, fmt.Errorf("count teacher reports by status: %w", err)
	}
	return total, nil
}
