// Package clock supplies logical time to the settlement core.
//
// The core only uses time for two things: computing the day-bucket index of a
// write and gating the exercise/expiry windows. Keeping the clock behind an
// interface lets tests drive both through arbitrary schedules.
package clock

import "time"

// SecondsPerDay converts timestamps to day-bucket indices.
const SecondsPerDay = 86_400

// Clock supplies the current logical time.
type Clock interface {
	Now() time.Time
}

// DayIndex returns the calendar-day bucket index for a timestamp.
func DayIndex(ts time.Time) uint32 {
	return uint32(ts.Unix() / SecondsPerDay)
}

// System is the wall-clock implementation used in production.
type System struct{}

// Now returns the current wall-clock time.
func (System) Now() time.Time {
	return time.Now()
}

// Fixed is a settable clock for tests and replay.
type Fixed struct {
	T time.Time
}

// Now returns the fixed time.
func (f *Fixed) Now() time.Time {
	return f.T
}

// Advance moves the fixed clock forward.
func (f *Fixed) Advance(d time.Duration) {
	f.T = f.T.Add(d)
}
