package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/classtrack/school-report-api/internal/models"
)

// HomeworkRepository provides read aggregates over homework assignments.
// Homework rows are written exclusively through report lifecycle transactions
// in ReportRepository.
type HomeworkRepository struct {
	db *sqlx.DB
}

// NewHomeworkRepository constructs a HomeworkRepository.
func NewHomeworkRepository(db *sqlx.DB) *HomeworkRepository {
	return &HomeworkRepository{db: db}
}

// CountActiveForClass returns the number of active homeworks assigned to a
// class within [dayStart, dayEnd). This is the quota policy's input.
func (r *HomeworkRepository) CountActiveForClass(ctx context.Context, classID string, dayStart, dayEnd time.Time) (int, error) {
	const query = `SELECT COUNT(*) FROM homeworks
		WHERE class_id = $1 AND is_active = TRUE AND assigned_date >= $2 AND assigned_date < $3`
	var count int
	if err := r.db.GetContext(ctx, &count, query, classID, dayStart, dayEnd); err != nil {
		return 0, fmt.Errorf("count class homeworks: %w", err)
	}
	return count, nil
}

// Summary aggregates a class's homework position for the day window.
func (r *HomeworkRepository) Summary(ctx context.Context, class *models.Class, now, dayStart, dayEnd time.Time) (*models.ClassHomeworkSummary, error) {
	summary := &models.ClassHomeworkSummary{
		ClassID:       class.ID,
		ClassName:     class.Name,
		HomeworkLimit: class.DailyHomeworkLimit,
	}

	const countsQuery = `SELECT
			COUNT(*) AS total,
			COUNT(*) FILTER (WHERE assigned_date >= $2 AND assigned_date < $3) AS today,
			COUNT(*) FILTER (WHERE due_date < $4) AS overdue,
			COALESCE(SUM(estimated_duration) FILTER (WHERE assigned_date >= $2 AND assigned_date < $3), 0) AS total_time
		FROM homeworks WHERE class_id = $1 AND is_active = TRUE`
	var counts struct {
		Total     int `db:"total"`
		Today     int `db:"today"`
		Overdue   int `db:"overdue"`
		TotalTime int `db:"total_time"`
	}
	if err := r.db.GetContext(ctx, &counts, countsQuery, class.ID, dayStart, dayEnd, now); err != nil {
		return nil, fmt.Errorf("class homework counts: %w", err)
	}
	summary.TotalHomeworks = counts.Total
	summary.TodayHomeworks = counts.Today
	summary.OverdueHomeworks = counts.Overdue
	summary.TotalEstimatedTime = counts.TotalTime
	summary.CanAssignMore = counts.Today < class.DailyHomeworkLimit

	const subjectsQuery = `SELECT DISTINCT s.name FROM homeworks h
		JOIN subjects s ON s.id = h.subject_id
		WHERE h.class_id = $1 AND h.is_active = TRUE AND h.assigned_date >= $2 AND h.assigned_date < $3
		ORDER BY s.name`
	if err := r.db.SelectContext(ctx, &summary.SubjectsWithHomework, subjectsQuery, class.ID, dayStart, dayEnd); err != nil {
		return nil, fmt.Errorf("class homework subjects: %w", err)
	}

	return summary, nil
}
