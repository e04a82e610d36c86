package models

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/dmitrijs2005/safecheck/internal/common"
)

var emailRe = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// IsValidEmail reports whether s looks like a deliverable address. Empty or
// blank input is never valid.
func IsValidEmail(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" {
		return false
	}
	return emailRe.MatchString(s)
}

// User is the device owner. Created once during onboarding.
type User struct {
	Name  string
	Phone string
	Email string
}

// Validate checks the onboarding requirements: a non-blank name and, when an
// email is given, a well-formed one.
func (u User) Validate() error {
	if strings.TrimSpace(u.Name) == "" {
		return fmt.Errorf("%w: name is required", common.ErrValidation)
	}
	if strings.TrimSpace(u.Email) != "" && !IsValidEmail(u.Email) {
		return fmt.Errorf("%w: invalid email %q", common.ErrValidation, u.Email)
	}
	return nil
}
