package models

import "time"

// ReportStatus is the approval state of a teacher report. The status enum is
// the single authoritative representation; any teacher edit resets it to
// pending and forces re-approval.
type ReportStatus string

const (
	ReportStatusPending  ReportStatus = "pending"
	ReportStatusApproved ReportStatus = "approved"
	ReportStatusRejected ReportStatus = "rejected"
)

// Valid reports whether the status is a known value.
func (s ReportStatus) Valid() bool {
	switch s {
	case ReportStatusPending, ReportStatusApproved, ReportStatusRejected:
		return true
	}
	return false
}

// TeacherReport is one teacher's activity record for a single class period on
// a single day. At most one report exists per (teacher, period, calendar day).
type TeacherReport struct {
	ID         string       `db:"id" json:"id"`
	TeacherID  string       `db:"teacher_id" json:"teacher_id"`
	SubjectID  string       `db:"subject_id" json:"subject_id"`
	ClassID    string       `db:"class_id" json:"class_id"`
	Period     int          `db:"period" json:"period"`
	Activity   string       `db:"activity" json:"activity"`
	HomeworkID *string      `db:"homework_id" json:"homework_id,omitempty"`
	Status     ReportStatus `db:"status" json:"status"`
	CreatedAt  time.Time    `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time    `db:"updated_at" json:"updated_at"`
}

// TeacherReportDetail joins a report with its reference data for responses.
type TeacherReportDetail struct {
	TeacherReport
	TeacherName string  `db:"teacher_name" json:"teacher_name"`
	TeacherCode string  `db:"teacher_code" json:"teacher_code"`
	SubjectName string  `db:"subject_name" json:"subject_name"`
	SubjectCode string  `db:"subject_code" json:"subject_code"`
	ClassName   string  `db:"class_name" json:"class_name"`
	HomeworkRef *string `db:"homework_title" json:"homework_title,omitempty"`
}

// DashboardStats carries the aggregate counters for the stats section.
type DashboardStats struct {
	TotalTeachers    int `db:"total_teachers" json:"total_teachers"`
	PendingApprovals int `db:"pending_approvals" json:"pending_approvals"`
	TodayReports     int `db:"today_reports" json:"today_reports"`
}
