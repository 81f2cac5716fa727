package service

import "time"

// QuotaPolicy decides whether a class may receive another homework assignment
// on a given day. Pure and deterministic: the decision is a comparison of the
// class's current active homework count against its configured daily limit.
type QuotaPolicy struct{}

// CanAssign reports whether one more homework fits under the daily limit. A
// limit of zero permanently blocks assignment; that is valid configuration,
// not an error.
func (QuotaPolicy) CanAssign(currentCount, dailyLimit int) bool {
	return currentCount < dailyLimit
}

// dayWindow returns the half-open [start, end) range covering the calendar
// day of the given instant in the school's configured timezone. Quota and
// duplicate-report checks always evaluate against this window for "now" —
// never against caller-supplied dates.
func dayWindow(at time.Time, loc *time.Location) (time.Time, time.Time) {
	if loc == nil {
		loc = time.UTC
	}
	local := at.In(loc)
	start := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
	return start, start.Add(24 * time.Hour)
}
