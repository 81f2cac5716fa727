package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/classtrack/school-report-api/internal/models"
	appErrors "github.com/classtrack/school-report-api/pkg/errors"
)

type classFinder interface {
	FindByID(ctx context.Context, id string) (*models.Class, error)
}

type homeworkSummarizer interface {
	Summary(ctx context.Context, class *models.Class, now, dayStart, dayEnd time.Time) (*models.ClassHomeworkSummary, error)
}

// HomeworkService serves read-side homework aggregates for classes.
type HomeworkService struct {
	classes   classFinder
	homeworks homeworkSummarizer
	location  *time.Location
	now       func() time.Time
}

// NewHomeworkService constructs a HomeworkService.
func NewHomeworkService(classes classFinder, homeworks homeworkSummarizer, location *time.Location, now func() time.Time) *HomeworkService {
	if location == nil {
		location = time.UTC
	}
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &HomeworkService{classes: classes, homeworks: homeworks, location: location, now: now}
}

// ClassSummary aggregates a class's homework position for today: counts,
// total estimated minutes, subjects assigned, and quota headroom.
func (s *HomeworkService) ClassSummary(ctx context.Context, classID string) (*models.ClassHomeworkSummary, error) {
	class, err := s.classes.FindByID(ctx, classID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "Class not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class")
	}

	now := s.now()
	dayStart, dayEnd := dayWindow(now, s.location)
	summary, err := s.homeworks.Summary(ctx, class, now, dayStart, dayEnd)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to build class summary")
	}
	if summary.SubjectsWithHomework == nil {
		summary.SubjectsWithHomework = []string{}
	}
	return summary, nil
}
