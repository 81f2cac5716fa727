package models

import "time"

// HomeworkPriority grades the urgency of an assignment.
type HomeworkPriority string

const (
	PriorityLow    HomeworkPriority = "low"
	PriorityMedium HomeworkPriority = "medium"
	PriorityHigh   HomeworkPriority = "high"
	PriorityUrgent HomeworkPriority = "urgent"
)

// Valid reports whether the priority is a known value.
func (p HomeworkPriority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}

// Homework is an assignment attached to a teacher report. It is created and
// deleted exclusively through report lifecycle operations and counts against
// the owning class's daily quota while active.
type Homework struct {
	ID                string           `db:"id" json:"id"`
	Title             string           `db:"title" json:"title"`
	Description       string           `db:"description" json:"description"`
	ClassID           string           `db:"class_id" json:"class_id"`
	SubjectID         string           `db:"subject_id" json:"subject_id"`
	TeacherID         string           `db:"teacher_id" json:"teacher_id"`
	DueDate           time.Time        `db:"due_date" json:"due_date"`
	AssignedDate      time.Time        `db:"assigned_date" json:"assigned_date"`
	EstimatedDuration int              `db:"estimated_duration" json:"estimated_duration"`
	Priority          HomeworkPriority `db:"priority" json:"priority"`
	Instructions      string           `db:"instructions" json:"instructions,omitempty"`
	IsActive          bool             `db:"is_active" json:"is_active"`
	CreatedAt         time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time        `db:"updated_at" json:"updated_at"`
}

// IsOverdue reports whether the due date has passed at the given instant.
func (h *Homework) IsOverdue(now time.Time) bool {
	return now.After(h.DueDate)
}

// ClassHomeworkSummary aggregates a class's homework position for one day.
type ClassHomeworkSummary struct {
	ClassID              string   `json:"class_id"`
	ClassName            string   `json:"class_name"`
	TotalHomeworks       int      `json:"total_homeworks"`
	TodayHomeworks       int      `json:"today_homeworks"`
	OverdueHomeworks     int      `json:"overdue_homeworks"`
	TotalEstimatedTime   int      `json:"total_estimated_time"`
	SubjectsWithHomework []string `json:"subjects_with_homework"`
	HomeworkLimit        int      `json:"homework_limit"`
	CanAssignMore        bool     `json:"can_assign_more"`
}
