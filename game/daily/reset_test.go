package daily

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseResetTime(t *testing.T) {
	tests := []struct {
		in   string
		want ResetSchedule
	}{
		{"4:00", ResetSchedule{4, 0}},
		{"04:00", ResetSchedule{4, 0}},
		{"23:59", ResetSchedule{23, 59}},
		{"0:30", ResetSchedule{0, 30}},
		{"", DefaultResetSchedule},
		{"nonsense", DefaultResetSchedule},
		{"24:00", DefaultResetSchedule},
		{"12:60", DefaultResetSchedule},
		{"12:5", DefaultResetSchedule}, // minutes must be two digits
		{"-1:00", DefaultResetSchedule},
		{"4", DefaultResetSchedule},
		{"4:00:00", DefaultResetSchedule},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ParseResetTime(tt.in), "input %q", tt.in)
	}
}

func TestBoundary_BeforeResetTime(t *testing.T) {
	rs := ResetSchedule{Hour: 4, Minute: 0}
	// 02:00 today is before 04:00: boundary is yesterday 04:00.
	now := time.Date(2026, 9, 1, 2, 0, 0, 0, time.Local)
	b := rs.Boundary(now)
	assert.Equal(t, time.Date(2026, 8, 31, 4, 0, 0, 0, time.Local), b)
	assert.True(t, !b.After(now))
}

func TestBoundary_AfterResetTime(t *testing.T) {
	rs := ResetSchedule{Hour: 4, Minute: 0}
	now := time.Date(2026, 9, 1, 5, 0, 0, 0, time.Local)
	b := rs.Boundary(now)
	assert.Equal(t, time.Date(2026, 9, 1, 4, 0, 0, 0, time.Local), b)
}

func TestBoundary_ExactlyAtResetTime(t *testing.T) {
	rs := ResetSchedule{Hour: 4, Minute: 0}
	now := time.Date(2026, 9, 1, 4, 0, 0, 0, time.Local)
	assert.Equal(t, now, rs.Boundary(now))
}

func TestBoundary_AcrossDSTTransition(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	rs := ResetSchedule{Hour: 4, Minute: 0}
	// 2026-03-08 is the US spring-forward date: 02:00 jumps to 03:00.
	// At 03:30 local the boundary must be 2026-03-07 04:00 EST, found
	// by civil-day arithmetic rather than a fixed 24h offset.
	now := time.Date(2026, 3, 8, 3, 30, 0, 0, loc)
	b := rs.Boundary(now)
	assert.Equal(t, time.Date(2026, 3, 7, 4, 0, 0, 0, loc), b)
	assert.Equal(t, 4, b.Hour())

	// After the reset time on the transition day, the boundary is that
	// day's 04:00 EDT even though only 23 real hours passed since the
	// previous one.
	later := time.Date(2026, 3, 8, 5, 0, 0, 0, loc)
	b2 := rs.Boundary(later)
	assert.Equal(t, time.Date(2026, 3, 8, 4, 0, 0, 0, loc), b2)
	assert.Equal(t, 23*time.Hour, b2.Sub(b))
}

func TestIsStale_NeverConnected(t *testing.T) {
	rs := ResetSchedule{Hour: 4, Minute: 0}
	for _, now := range []time.Time{
		time.Date(2026, 9, 1, 0, 0, 0, 0, time.Local),
		time.Date(2026, 9, 1, 12, 0, 0, 0, time.Local),
	} {
		assert.True(t, rs.IsStale(time.Time{}, now))
	}
}

func TestIsStale_BoundaryInclusive(t *testing.T) {
	rs := ResetSchedule{Hour: 4, Minute: 0}
	now := time.Date(2026, 9, 1, 12, 0, 0, 0, time.Local)
	boundary := time.Date(2026, 9, 1, 4, 0, 0, 0, time.Local)
	assert.False(t, rs.IsStale(boundary, now), "session at the boundary is current")
	assert.True(t, rs.IsStale(boundary.Add(-time.Second), now))
}

func TestIsStale_LateNightSession(t *testing.T) {
	rs := ResetSchedule{Hour: 4, Minute: 0}
	// Last session yesterday 23:30, now today 02:00: boundary is
	// yesterday 04:00, so the session is current.
	now := time.Date(2026, 9, 1, 2, 0, 0, 0, time.Local)
	last := time.Date(2026, 8, 31, 23, 30, 0, 0, time.Local)
	assert.False(t, rs.IsStale(last, now))
}

func TestIsStale_SessionBeforeTodayReset(t *testing.T) {
	rs := ResetSchedule{Hour: 4, Minute: 0}
	// Last session yesterday 02:00, now today 05:00: boundary is today
	// 04:00, session predates it.
	now := time.Date(2026, 9, 1, 5, 0, 0, 0, time.Local)
	last := time.Date(2026, 8, 31, 2, 0, 0, 0, time.Local)
	assert.True(t, rs.IsStale(last, now))
}

func TestNext_AlwaysAfterNow(t *testing.T) {
	rs := ResetSchedule{Hour: 4, Minute: 0}
	for _, now := range []time.Time{
		time.Date(2026, 9, 1, 2, 0, 0, 0, time.Local),
		time.Date(2026, 9, 1, 4, 0, 0, 0, time.Local),
		time.Date(2026, 9, 1, 23, 59, 0, 0, time.Local),
	} {
		next := rs.Next(now)
		assert.True(t, next.After(now), "next %v must be after now %v", next, now)
		assert.Equal(t, 4, next.Hour())
		assert.Equal(t, 0, next.Minute())
	}
}
