package models

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/safecheck/internal/common"
)

func armedState(now time.Time) *AppState {
	return &AppState{
		User:          &User{Name: "Ann"},
		Contacts:      []Contact{{Name: "Bob", Phone: "555-1234"}},
		PeriodHours:   2,
		LastCheckIn:   &now,
		SetupComplete: true,
	}
}

func TestUser_Validate(t *testing.T) {
	require.NoError(t, User{Name: "Ann"}.Validate())
	require.NoError(t, User{Name: "Ann", Email: "ann@example.com"}.Validate())

	err := User{Name: " "}.Validate()
	require.True(t, errors.Is(err, common.ErrValidation))

	err = User{Name: "Ann", Email: "nope"}.Validate()
	require.ErrorIs(t, err, common.ErrValidation)
}

func TestAppState_IsArmable(t *testing.T) {
	now := time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)

	assert.True(t, armedState(now).IsArmable())

	var nilState *AppState
	assert.False(t, nilState.IsArmable())

	s := armedState(now)
	s.Contacts = []Contact{{Name: "Bob"}}
	assert.False(t, s.IsArmable(), "unusable contacts must not arm")

	s = armedState(now)
	s.LastCheckIn = nil
	assert.False(t, s.IsArmable())

	s = armedState(now)
	s.PeriodHours = 0
	assert.False(t, s.IsArmable())
}

func TestAppState_Deadline(t *testing.T) {
	now := time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)
	d, ok := armedState(now).Deadline()
	require.True(t, ok)
	assert.Equal(t, now.Add(2*time.Hour), d)

	_, ok = (&AppState{PeriodHours: 1}).Deadline()
	assert.False(t, ok)

	long := armedState(now)
	long.PeriodHours = 3_000_000
	d, ok = long.Deadline()
	require.True(t, ok)
	assert.True(t, d.After(now), "a long period must not wrap into the past")
}

func TestAppState_CloneIsDeep(t *testing.T) {
	now := time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)
	s := armedState(now)
	c := s.Clone()

	c.User.Name = "Changed"
	c.Contacts[0].Name = "Changed"
	*c.LastCheckIn = now.Add(time.Hour)

	assert.Equal(t, "Ann", s.User.Name)
	assert.Equal(t, "Bob", s.Contacts[0].Name)
	assert.Equal(t, now, *s.LastCheckIn)
}
