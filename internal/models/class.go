package models

import "time"

// Class represents static reference data for a school class. The daily
// homework limit is enforced by the quota policy; zero is a valid limit that
// permanently blocks homework assignment.
type Class struct {
	ID                 string    `db:"id" json:"id"`
	Name               string    `db:"name" json:"name"`
	Section            string    `db:"section" json:"section,omitempty"`
	Grade              int       `db:"grade" json:"grade"`
	DailyHomeworkLimit int       `db:"daily_homework_limit" json:"daily_homework_limit"`
	CreatedAt          time.Time `db:"created_at" json:"created_at"`
}
