package models

import "time"

// TeacherRole is the staff role held by a teacher record. Oversight roles
// (principal, vice principal) receive homework lifecycle notifications.
type TeacherRole string

const (
	TeacherRoleTeacher       TeacherRole = "teacher"
	TeacherRoleSenior        TeacherRole = "senior_teacher"
	TeacherRoleHeadOfDept    TeacherRole = "head_of_department"
	TeacherRoleVicePrincipal TeacherRole = "vice_principal"
	TeacherRolePrincipal     TeacherRole = "principal"
)

// OversightRoles lists the staff roles entitled to approve reports and to
// receive homework lifecycle notifications.
var OversightRoles = []TeacherRole{TeacherRolePrincipal, TeacherRoleVicePrincipal}

// Valid reports whether the role is a known staff role.
func (r TeacherRole) Valid() bool {
	switch r {
	case TeacherRoleTeacher, TeacherRoleSenior, TeacherRoleHeadOfDept, TeacherRoleVicePrincipal, TeacherRolePrincipal:
		return true
	}
	return false
}

// Teacher represents a staff record linked one-to-one to a login. The
// human-assigned teacher code and the linked user are immutable once created.
type Teacher struct {
	ID         string      `db:"id" json:"id"`
	UserID     string      `db:"user_id" json:"user_id"`
	TeacherID  string      `db:"teacher_id" json:"teacher_id"`
	Department string      `db:"department" json:"department"`
	Role       TeacherRole `db:"role" json:"role"`
	Phone      string      `db:"phone" json:"phone,omitempty"`
	CreatedAt  time.Time   `db:"created_at" json:"created_at"`
}

// TeacherProfile joins a teacher with its login username for responses.
type TeacherProfile struct {
	Teacher
	Username string `db:"username" json:"username"`
}

// TeacherOverview annotates a teacher with its pending-report count for the
// principal dashboard.
type TeacherOverview struct {
	TeacherProfile
	PendingCount int `db:"pending_count" json:"pending_count"`
}
