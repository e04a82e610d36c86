package cli

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/dmitrijs2005/safecheck/internal/deadline"
	"github.com/dmitrijs2005/safecheck/internal/engine"
	"github.com/dmitrijs2005/safecheck/internal/models"
)

const (
	ansiReset  = "\033[0m"
	ansiRed    = "\033[31m"
	ansiYellow = "\033[33m"
	ansiGreen  = "\033[32m"
)

func paint(enabled bool, code, s string) string {
	if !enabled {
		return s
	}
	return code + s + ansiReset
}

func tierColor(t deadline.Tier) string {
	switch t {
	case deadline.TierCritical, deadline.TierWarning:
		return ansiRed
	case deadline.TierCaution:
		return ansiYellow
	default:
		return ansiGreen
	}
}

func renderPrompt(s engine.Snapshot) string {
	if s.Phase == engine.Armed || s.Phase == engine.Urgent {
		return fmt.Sprintf("safecheck (%s %s) > ", s.Phase, s.Parts)
	}
	return fmt.Sprintf("safecheck (%s) > ", s.Phase)
}

// nextStep tells the user what the current phase expects.
func nextStep(p engine.Phase) string {
	switch p {
	case engine.Welcome:
		return "Welcome! safecheck alerts your emergency contacts if you miss a check-in. Type 'start'."
	case engine.CollectingIdentity:
		return "Tell us who you are: type 'identity'."
	case engine.CollectingContacts:
		return "Add at least one emergency contact: type 'contacts' or 'import <file>'."
	case engine.CollectingPeriod:
		return "Choose how often to check in: type 'period'."
	case engine.AlertFired:
		return "Your contacts have been alerted. Type 'dismiss' once you are safe."
	default:
		return "Type 'checkin' before the timer runs out."
	}
}

func renderStatus(s engine.Snapshot, color bool) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Status: %s\n", s.Phase)

	if s.State != nil && s.State.User != nil {
		fmt.Fprintf(&b, "User: %s\n", s.State.User.Name)
	}
	if s.Phase.IsArmed() {
		left := fmt.Sprintf("Time left: %s", s.Parts)
		fmt.Fprintln(&b, paint(color, tierColor(s.Tier), left))
		if s.HasDeadline {
			fmt.Fprintf(&b, "Deadline: %s\n", s.Deadline.Local().Format("Mon 02 Jan 15:04:05"))
		}
		if s.State.LastCheckIn != nil {
			fmt.Fprintf(&b, "Last check-in: %s\n", humanize.RelTime(*s.State.LastCheckIn, s.At, "ago", "from now"))
		}
		fmt.Fprintf(&b, "Interval: %s\n", periodLabel(s.State.PeriodHours))
		fmt.Fprintf(&b, "Contacts: %d usable of %d\n", models.UsableCount(s.State.Contacts), len(s.State.Contacts))
	}
	b.WriteString(nextStep(s.Phase))
	return b.String()
}

func periodLabel(hours int) string {
	if hours%24 == 0 {
		return humanize.Comma(int64(hours/24)) + " day(s)"
	}
	if hours > 24 {
		return fmt.Sprintf("%d day(s) %d hour(s)", hours/24, hours%24)
	}
	return fmt.Sprintf("%d hour(s)", hours)
}

func renderContacts(contacts []models.Contact) string {
	var b strings.Builder
	for i, c := range contacts {
		mark := " "
		if !c.IsUsable() {
			mark = "!"
		}
		fmt.Fprintf(&b, "%s %d. %s", mark, i+1, c.Name)
		if c.Relationship != "" {
			fmt.Fprintf(&b, " (%s)", c.Relationship)
		}
		if c.Phone != "" {
			fmt.Fprintf(&b, " tel:%s", c.Phone)
		}
		if c.Email != "" {
			fmt.Fprintf(&b, " %s", c.Email)
		}
		b.WriteString("\n")
	}
	return b.String()
}
