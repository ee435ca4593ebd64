package daily

import (
	"strconv"
	"strings"
	"time"
)

// DefaultResetSchedule is used when the configured reset time is absent
// or malformed.
var DefaultResetSchedule = ResetSchedule{Hour: 4, Minute: 0}

// ResetSchedule is the configured daily reset time-of-day, evaluated as
// local wall-clock time. A snapshot taken before the most recent reset
// boundary belongs to yesterday's quest set and must not be reported.
type ResetSchedule struct {
	Hour   int
	Minute int
}

// ParseResetTime parses an H:mm 24-hour time-of-day. Malformed input
// falls back to DefaultResetSchedule.
func ParseResetTime(s string) ResetSchedule {
	parts := strings.SplitN(s, ":", 2)
	if len(parts) != 2 || len(parts[0]) == 0 || len(parts[0]) > 2 || len(parts[1]) != 2 {
		return DefaultResetSchedule
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return DefaultResetSchedule
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return DefaultResetSchedule
	}
	return ResetSchedule{Hour: hour, Minute: minute}
}

// Boundary returns the most recent reset instant at or before now.
// Computed with civil-calendar day arithmetic in now's location, so the
// boundary stays at the configured wall-clock time across daylight
// saving transitions.
func (rs ResetSchedule) Boundary(now time.Time) time.Time {
	b := time.Date(now.Year(), now.Month(), now.Day(), rs.Hour, rs.Minute, 0, 0, now.Location())
	if now.Before(b) {
		b = time.Date(now.Year(), now.Month(), now.Day()-1, rs.Hour, rs.Minute, 0, 0, now.Location())
	}
	return b
}

// Next returns the first reset instant strictly after now.
func (rs ResetSchedule) Next(now time.Time) time.Time {
	b := rs.Boundary(now)
	return time.Date(b.Year(), b.Month(), b.Day()+1, rs.Hour, rs.Minute, 0, 0, now.Location())
}

// IsStale reports whether a snapshot belonging to a session started at
// lastSession predates the current daily cycle. A zero lastSession
// means the player has never had a session and is always stale. The
// boundary itself is inclusive: a session started exactly at the
// boundary is current.
func (rs ResetSchedule) IsStale(lastSession time.Time, now time.Time) bool {
	if lastSession.IsZero() {
		return true
	}
	return lastSession.Before(rs.Boundary(now))
}
