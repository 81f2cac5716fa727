package dto

import "github.com/classtrack/school-report-api/internal/models"

// CreateTeacherRequest is the administrator payload for onboarding a teacher.
// A login is provisioned alongside the staff record; the initial password is
// the teacher code and must be changed at first login.
type CreateTeacherRequest struct {
	Name       string `json:"name" validate:"required,min=2,max=150"`
	TeacherID  string `json:"teacherId" validate:"required,min=2,max=20"`
	Department string `json:"department" validate:"required,min=2,max=100"`
	Role       string `json:"role,omitempty"`
	Phone      string `json:"phone,omitempty" validate:"omitempty,max=15"`
}

// ProfileResponse is the role-dependent profile payload: principals receive
// the full staff roster, teachers their approved-report count.
type ProfileResponse struct {
	Teachers      []models.TeacherProfile `json:"teachers,omitempty"`
	ApprovedCount *int                    `json:"count,omitempty"`
}
