package dto

import "github.com/classtrack/school-report-api/internal/models"

// CreateReportRequest is the payload for creating a period report. Either
// Activity or HomeworkDescription must be present.
type CreateReportRequest struct {
	Period              int     `json:"period" validate:"required,min=1,max=12"`
	SubjectID           string  `json:"subject_id" validate:"required,uuid4"`
	ClassID             string  `json:"class_assigned_id" validate:"required,uuid4"`
	Activity            string  `json:"activity"`
	HomeworkDescription string  `json:"homework_description"`
	DueDate             *string `json:"due_date,omitempty"`
	EstimatedDuration   *int    `json:"estimated_duration,omitempty" validate:"omitempty,min=1"`
	Priority            *string `json:"priority,omitempty"`
}

// UpdateReportRequest is the payload for editing an owned report. Nil fields
// retain their prior values; a non-nil empty HomeworkDescription removes the
// attached homework.
type UpdateReportRequest struct {
	SubjectID           *string `json:"subject_id,omitempty" validate:"omitempty,uuid4"`
	ClassID             *string `json:"class_assigned_id,omitempty" validate:"omitempty,uuid4"`
	Activity            *string `json:"activity,omitempty"`
	HomeworkDescription *string `json:"homework_description,omitempty"`
}

// SubjectRef is the reference-list entry returned to report-entry clients.
type SubjectRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Code string `json:"code"`
}

// ClassRef is the reference-list entry returned to report-entry clients.
type ClassRef struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Section string `json:"section"`
	Grade   int    `json:"grade"`
}

// TodayReportsResponse bundles a teacher's reports for today with the
// reference lists used to populate entry forms.
type TodayReportsResponse struct {
	Reports  []models.TeacherReportDetail `json:"reports"`
	Subjects []SubjectRef                 `json:"subjects"`
	Classes  []ClassRef                   `json:"classes"`
}

// TransitionRequest is the principal's approve/reject action payload.
type TransitionRequest struct {
	Action   string `json:"action" validate:"required,oneof=approve reject"`
	ReportID string `json:"report_id" validate:"required,uuid4"`
}

// TransitionResponse confirms a report status change.
type TransitionResponse struct {
	ReportID  string              `json:"report_id"`
	NewStatus models.ReportStatus `json:"new_status"`
	Message   string              `json:"message"`
}

// HomeworkCountResponse reports a class's quota position for today.
type HomeworkCountResponse struct {
	ClassID   string `json:"class_id"`
	ClassName string `json:"class_name"`
	Count     int    `json:"count"`
	Limit     int    `json:"limit"`
	CanAssign bool   `json:"can_assign"`
}
