package dto

import "github.com/classtrack/school-report-api/internal/models"

// DashboardSection selects which projection(s) the dashboard returns.
type DashboardSection string

const (
	SectionPending  DashboardSection = "pending"
	SectionTeachers DashboardSection = "teachers"
	SectionStats    DashboardSection = "stats"
	SectionAll      DashboardSection = "all"
)

// Valid reports whether the section selector is known.
func (s DashboardSection) Valid() bool {
	switch s {
	case SectionPending, SectionTeachers, SectionStats, SectionAll:
		return true
	}
	return false
}

// DashboardResponse is the unified dashboard payload. Sections not requested
// are omitted.
type DashboardResponse struct {
	PendingApprovals []models.TeacherReportDetail `json:"pending_approvals,omitempty"`
	PendingCount     *int                         `json:"count,omitempty"`
	TeachersOverview []models.TeacherOverview     `json:"teachers_overview,omitempty"`
	TeacherCount     *int                         `json:"total_count,omitempty"`
	Stats            *models.DashboardStats       `json:"stats,omitempty"`
}
