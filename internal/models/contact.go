package models

import "strings"

// Contact is an emergency contact. The list order is used only for display.
type Contact struct {
	Name                  string
	Phone                 string
	Email                 string
	Relationship          string
	SMSAlertsEnabled      bool
	AutomatedCallsEnabled bool
}

// IsUsable reports whether the contact can be reached: it needs a name and
// either a phone number or a valid email.
func (c Contact) IsUsable() bool {
	if strings.TrimSpace(c.Name) == "" {
		return false
	}
	return strings.TrimSpace(c.Phone) != "" || IsValidEmail(c.Email)
}

// UsableCount returns how many contacts pass IsUsable.
func UsableCount(contacts []Contact) int {
	n := 0
	for _, c := range contacts {
		if c.IsUsable() {
			n++
		}
	}
	return n
}

// Usable returns the contacts that pass IsUsable, preserving order.
func Usable(contacts []Contact) []Contact {
	out := make([]Contact, 0, len(contacts))
	for _, c := range contacts {
		if c.IsUsable() {
			out = append(out, c)
		}
	}
	return out
}
