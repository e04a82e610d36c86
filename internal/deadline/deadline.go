// Package deadline holds the pure deadline arithmetic of the check-in engine:
// remaining time until the next required check-in, breach detection, and the
// days/hours/minutes/seconds decomposition used for display.
//
// Nothing here reads the clock; every function takes "now" explicitly.
package deadline

import (
	"fmt"
	"math"
	"time"
)

const (
	secondsPerDay    = 86400
	secondsPerHour   = 3600
	secondsPerMinute = 60
)

// Result is the outcome of Remaining.
//
// Configured distinguishes "no deadline set" from "deadline breached": both
// have Seconds == 0, but only a configured deadline can be breached.
type Result struct {
	Seconds    int64
	Breached   bool
	Configured bool
}

// MaxPeriodHours is the longest period whose deadline still fits in a
// time.Duration.
const MaxPeriodHours = int(math.MaxInt64 / int64(time.Hour))

// Remaining computes whole seconds left until lastCheckIn + periodHours.
//
// The period is kept in int64 seconds, so no period length can wrap around
// into a past deadline.
func Remaining(now time.Time, lastCheckIn *time.Time, periodHours int) Result {
	if lastCheckIn == nil || periodHours <= 0 {
		return Result{}
	}

	// floor(period - elapsed) == period - ceil(elapsed)
	elapsed := now.Sub(*lastCheckIn)
	elapsedSecs := int64(elapsed / time.Second)
	if elapsed%time.Second > 0 {
		elapsedSecs++
	}

	periodSecs := int64(math.MaxInt64)
	if int64(periodHours) <= math.MaxInt64/secondsPerHour {
		periodSecs = int64(periodHours) * secondsPerHour
	}

	var secs int64
	switch {
	case elapsedSecs < 0 && periodSecs > math.MaxInt64+elapsedSecs:
		secs = math.MaxInt64
	case elapsedSecs < periodSecs:
		secs = periodSecs - elapsedSecs
	}
	return Result{Seconds: secs, Breached: secs == 0, Configured: true}
}

// At returns lastCheckIn + periodHours. Periods above MaxPeriodHours are
// clamped to it.
func At(lastCheckIn time.Time, periodHours int) time.Time {
	if periodHours > MaxPeriodHours {
		periodHours = MaxPeriodHours
	}
	return lastCheckIn.Add(time.Duration(periodHours) * time.Hour)
}

// Parts is a display decomposition of a number of seconds.
type Parts struct {
	Days  int64
	Hours int64
	Mins  int64
	Secs  int64
}

// Decompose splits seconds into days, hours, minutes and seconds. Negative
// input is clamped to zero.
func Decompose(seconds int64) Parts {
	if seconds < 0 {
		seconds = 0
	}
	return Parts{
		Days:  seconds / secondsPerDay,
		Hours: (seconds % secondsPerDay) / secondsPerHour,
		Mins:  (seconds % secondsPerHour) / secondsPerMinute,
		Secs:  seconds % secondsPerMinute,
	}
}

// TotalSeconds recombines the parts.
func (p Parts) TotalSeconds() int64 {
	return p.Days*secondsPerDay + p.Hours*secondsPerHour + p.Mins*secondsPerMinute + p.Secs
}

// Format renders the parts as "1d 2h 3m 4s".
func Format(p Parts) string {
	return fmt.Sprintf("%dd %dh %dm %ds", p.Days, p.Hours, p.Mins, p.Secs)
}

func (p Parts) String() string { return Format(p) }
