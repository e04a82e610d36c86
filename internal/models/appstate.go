package models

import (
	"time"

	"github.com/dmitrijs2005/safecheck/internal/deadline"
)

// DefaultPeriodHours is the check-in interval assigned when identity is
// (re)entered.
const DefaultPeriodHours = 1

// AppState is the single persisted aggregate.
//
// SetupComplete implies User != nil, at least one usable contact,
// LastCheckIn != nil and PeriodHours > 0. See IsArmable.
type AppState struct {
	User          *User
	Contacts      []Contact
	PeriodHours   int
	LastCheckIn   *time.Time
	SetupComplete bool

	// HasSeenWelcome is persisted under its own key.
	HasSeenWelcome bool

	// AlertDispatchedAt records when the alert for the current deadline was
	// sent. Cleared on every check-in.
	AlertDispatchedAt *time.Time
}

// IsArmable reports whether the setup invariant holds.
func (s *AppState) IsArmable() bool {
	return s != nil &&
		s.SetupComplete &&
		s.User != nil &&
		UsableCount(s.Contacts) > 0 &&
		s.LastCheckIn != nil &&
		s.PeriodHours > 0
}

// Deadline returns LastCheckIn + PeriodHours, or false when no deadline is
// configured.
func (s *AppState) Deadline() (time.Time, bool) {
	if s == nil || s.LastCheckIn == nil || s.PeriodHours <= 0 {
		return time.Time{}, false
	}
	return deadline.At(*s.LastCheckIn, s.PeriodHours), true
}

// Clone returns a deep copy, so a mutation can be prepared without touching
// the committed state.
func (s *AppState) Clone() *AppState {
	if s == nil {
		return nil
	}
	out := *s
	if s.User != nil {
		u := *s.User
		out.User = &u
	}
	if s.Contacts != nil {
		out.Contacts = make([]Contact, len(s.Contacts))
		copy(out.Contacts, s.Contacts)
	}
	out.LastCheckIn = cloneTime(s.LastCheckIn)
	out.AlertDispatchedAt = cloneTime(s.AlertDispatchedAt)
	return &out
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
