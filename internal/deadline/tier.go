package deadline

// Tier is a coarse urgency level for renderers.
type Tier int

const (
	TierCalm     Tier = iota // a day or more left
	TierCaution              // under a day
	TierWarning              // under an hour
	TierCritical             // under five minutes
)

func (t Tier) String() string {
	switch t {
	case TierCritical:
		return "critical"
	case TierWarning:
		return "warning"
	case TierCaution:
		return "caution"
	default:
		return "calm"
	}
}

// TierFor maps remaining seconds to a Tier.
func TierFor(seconds int64) Tier {
	switch {
	case seconds < 5*secondsPerMinute:
		return TierCritical
	case seconds < secondsPerHour:
		return TierWarning
	case seconds < secondsPerDay:
		return TierCaution
	default:
		return TierCalm
	}
}

// PeriodPresets are the check-in intervals offered during onboarding, in
// hours.
var PeriodPresets = []int{1, 2, 4, 8, 12, 24}

// PeriodFromDaysHours converts the settings editor's days/hours pickers into
// a period in hours. Negative components count as zero.
func PeriodFromDaysHours(days, hours int) int {
	if days < 0 {
		days = 0
	}
	if hours < 0 {
		hours = 0
	}
	return days*24 + hours
}
