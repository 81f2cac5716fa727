package service

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/classtrack/school-report-api/internal/dto"
	"github.com/classtrack/school-report-api/internal/models"
	appErrors "github.com/classtrack/school-report-api/pkg/errors"
)

const defaultDashboardLimit = 10

type dashboardReportReader interface {
	ListPending(ctx context.Context, limit int) ([]models.TeacherReportDetail, error)
	CountPending(ctx context.Context) (int, error)
	CountCreatedBetween(ctx context.Context, dayStart, dayEnd time.Time) (int, error)
}

type dashboardTeacherReader interface {
	ListOverview(ctx context.Context) ([]models.TeacherOverview, error)
	Count(ctx context.Context) (int, error)
}

type dashboardCache interface {
	Get(ctx context.Context, key string, dest interface{}) (bool, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

// DashboardServiceParams groups DashboardService dependencies.
type DashboardServiceParams struct {
	Reports  dashboardReportReader
	Teachers dashboardTeacherReader
	Cache    dashboardCache
	CacheTTL time.Duration
	Logger   *zap.Logger
	Location *time.Location
	Now      func() time.Time
}

// DashboardService assembles the principal's oversight projections. Payloads
// are cached briefly; report writes invalidate the cache.
type DashboardService struct {
	reports  dashboardReportReader
	teachers dashboardTeacherReader
	cache    dashboardCache
	cacheTTL time.Duration
	logger   *zap.Logger
	location *time.Location
	now      func() time.Time
}

// NewDashboardService constructs a DashboardService.
func NewDashboardService(params DashboardServiceParams) *DashboardService {
	if params.Logger == nil {
		params.Logger = zap.NewNop()
	}
	if params.Location == nil {
		params.Location = time.UTC
	}
	if params.Now == nil {
		params.Now = func() time.Time { return time.Now().UTC() }
	}
	if params.CacheTTL <= 0 {
		params.CacheTTL = time.Minute
	}
	return &DashboardService{
		reports:  params.Reports,
		teachers: params.Teachers,
		cache:    params.Cache,
		cacheTTL: params.CacheTTL,
		logger:   params.Logger,
		location: params.Location,
		now:      params.Now,
	}
}

// Load returns the requested dashboard section(s). section defaults to all,
// limit bounds the pending list and defaults to 10.
func (s *DashboardService) Load(ctx context.Context, sectionParam, limitParam string) (*dto.DashboardResponse, error) {
	section := dto.SectionAll
	if sectionParam != "" {
		section = dto.DashboardSection(sectionParam)
		if !section.Valid() {
			return nil, appErrors.Clone(appErrors.ErrInvalidParameter, "section must be one of pending, teachers, stats, all")
		}
	}

	limit := defaultDashboardLimit
	if limitParam != "" {
		parsed, err := strconv.Atoi(limitParam)
		if err != nil || parsed < 0 {
			return nil, appErrors.Clone(appErrors.ErrInvalidParameter, "limit must be a non-negative integer")
		}
		limit = parsed
	}

	cacheKey := fmt.Sprintf("dashboard:%s:%d", section, limit)
	if s.cache != nil {
		var cached dto.DashboardResponse
		if hit, err := s.cache.Get(ctx, cacheKey, &cached); err == nil && hit {
			return &cached, nil
		}
	}

	response := &dto.DashboardResponse{}

	if section == dto.SectionPending || section == dto.SectionAll {
		pending, err := s.reports.ListPending(ctx, limit)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list pending reports")
		}
		total, err := s.reports.CountPending(ctx)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count pending reports")
		}
		if pending == nil {
			pending = []models.TeacherReportDetail{}
		}
		response.PendingApprovals = pending
		response.PendingCount = &total
	}

	if section == dto.SectionTeachers || section == dto.SectionAll {
		overview, err := s.teachers.ListOverview(ctx)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list teachers")
		}
		total, err := s.teachers.Count(ctx)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count teachers")
		}
		if overview == nil {
			overview = []models.TeacherOverview{}
		}
		response.TeachersOverview = overview
		response.TeacherCount = &total
	}

	if section == dto.SectionStats || section == dto.SectionAll {
		stats, err := s.stats(ctx)
		if err != nil {
			return nil, err
		}
		response.Stats = stats
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, cacheKey, response, s.cacheTTL); err != nil {
			s.logger.Warn("failed to cache dashboard payload", zap.Error(err))
		}
	}

	return response, nil
}

func (s *DashboardService) stats(ctx context.Context) (*models.DashboardStats, error) {
	teachers, err := s.teachers.Count(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count teachers")
	}
	pending, err := s.reports.CountPending(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count pending reports")
	}
	dayStart, dayEnd := dayWindow(s.now(), s.location)
	today, err := s.reports.CountCreatedBetween(ctx, dayStart, dayEnd)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count today's reports")
	}
	return &models.DashboardStats{
		TotalTeachers:    teachers,
		PendingApprovals: pending,
		TodayReports:     today,
	}, nil
}
