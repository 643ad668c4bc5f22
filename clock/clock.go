// Package clock answers whether a periodic boundary was crossed between two
// unix timestamps. It drives every lazily-applied economic event (decay,
// weekly bonus, daily issuance caps) and never reads the wall clock.
package clock

import "time"

// DaySeconds is the length of one day in seconds.
const DaySeconds int64 = 86400

// WeekSeconds is the length of one week in seconds.
const WeekSeconds = 7 * DaySeconds

// Index returns the number of the period containing ts on the grid of
// periodSeconds anchored at phaseOffset. It floors toward negative infinity.
func Index(ts, periodSeconds, phaseOffset int64) int64 {
	n := ts - phaseOffset
	q := n / periodSeconds
	if n%periodSeconds != 0 && (n < 0) != (periodSeconds < 0) {
		q--
	}
	return q
}

// CrossedBoundary reports whether a period boundary lies in the half-open
// interval (from, to]. periodSeconds must be positive; a non-positive period
// never crosses.
func CrossedBoundary(from, to, periodSeconds, phaseOffset int64) bool {
	return Periods(from, to, periodSeconds, phaseOffset) > 0
}

// Periods returns how many boundaries lie in (from, to]. It is zero when
// to <= from.
func Periods(from, to, periodSeconds, phaseOffset int64) int64 {
	if periodSeconds <= 0 || to <= from {
		return 0
	}
	return Index(to, periodSeconds, phaseOffset) - Index(from, periodSeconds, phaseOffset)
}

// BoundaryAtOrBefore returns the latest boundary instant <= ts.
func BoundaryAtOrBefore(ts, periodSeconds, phaseOffset int64) int64 {
	return Index(ts, periodSeconds, phaseOffset)*periodSeconds + phaseOffset
}

// IntervalDaysOf reports whether a boundary of a days-long grid anchored at
// the unix epoch lies in (from, to].
func IntervalDaysOf(from, to int64, days uint32) bool {
	return CrossedBoundary(from, to, int64(days)*DaySeconds, 0)
}

// WeekdayOffset returns the unix timestamp of the first occurrence of wd at
// 00:00 UTC on or after the epoch. Thursday, 1970-01-01, is 0.
func WeekdayOffset(wd time.Weekday) int64 {
	days := (int64(wd) - int64(time.Thursday) + 7) % 7
	return days * DaySeconds
}

// WednesdayOffset anchors the weekly grid at Wednesday 00:00 UTC.
var WednesdayOffset = WeekdayOffset(time.Wednesday)

// IsWednesdayBetween reports whether a Wednesday 00:00 UTC lies in (from, to].
func IsWednesdayBetween(from, to int64) bool {
	return CrossedBoundary(from, to, WeekSeconds, WednesdayOffset)
}
