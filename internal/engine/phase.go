package engine

import (
	"time"

	"github.com/dmitrijs2005/safecheck/internal/deadline"
	"github.com/dmitrijs2005/safecheck/internal/models"
)

// Phase is the user-visible state of the check-in flow.
type Phase int

const (
	Welcome Phase = iota
	CollectingIdentity
	CollectingContacts
	CollectingPeriod
	AlertFired
	Urgent
	Armed
)

func (p Phase) String() string {
	switch p {
	case Welcome:
		return "welcome"
	case CollectingIdentity:
		return "collecting-identity"
	case CollectingContacts:
		return "collecting-contacts"
	case CollectingPeriod:
		return "collecting-period"
	case AlertFired:
		return "alert-fired"
	case Urgent:
		return "urgent"
	case Armed:
		return "armed"
	default:
		return "unknown"
	}
}

// IsArmed reports whether the deadline clock runs in p.
func (p Phase) IsArmed() bool {
	return p == Armed || p == Urgent || p == AlertFired
}

// Evaluate maps a state and an instant to exactly one phase. Rules are
// checked in priority order; a nil state is a fresh install.
//
// A state claiming SetupComplete without satisfying the setup invariant is
// never reported as armed.
func Evaluate(s *models.AppState, now time.Time, urgentThreshold time.Duration) Phase {
	if s == nil || s.User == nil {
		if s == nil || !s.HasSeenWelcome {
			return Welcome
		}
		return CollectingIdentity
	}
	if models.UsableCount(s.Contacts) == 0 {
		return CollectingContacts
	}
	if !s.IsArmable() {
		return CollectingPeriod
	}

	r := deadline.Remaining(now, s.LastCheckIn, s.PeriodHours)
	switch {
	case r.Breached:
		return AlertFired
	case r.Seconds <= int64(urgentThreshold/time.Second):
		return Urgent
	default:
		return Armed
	}
}
