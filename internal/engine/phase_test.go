package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/dmitrijs2005/safecheck/internal/models"
)

func TestEvaluate(t *testing.T) {
	urgent := 300 * time.Second
	ann := &models.User{Name: "Ann"}
	unusable := models.Contact{Name: "Nobody", Email: "not-an-email"}

	tests := []struct {
		name  string
		state *models.AppState
		now   time.Time
		want  Phase
	}{
		{"nil state", nil, t0, Welcome},
		{"fresh", &models.AppState{}, t0, Welcome},
		{"welcome seen", &models.AppState{HasSeenWelcome: true}, t0, CollectingIdentity},
		{"user without contacts", &models.AppState{User: ann}, t0, CollectingContacts},
		{"only unusable contacts", &models.AppState{User: ann, Contacts: []models.Contact{unusable}}, t0, CollectingContacts},
		{"contacts, not complete", &models.AppState{User: ann, Contacts: []models.Contact{bob}, PeriodHours: 1}, t0, CollectingPeriod},
		{"complete flag without check-in", &models.AppState{User: ann, Contacts: []models.Contact{bob}, PeriodHours: 1, SetupComplete: true}, t0, CollectingPeriod},
		{"complete flag without user", &models.AppState{SetupComplete: true, Contacts: []models.Contact{bob}}, t0, Welcome},
		{"just checked in", armedAt(t0, 1), t0, Armed},
		{"301s left", armedAt(t0, 1), t0.Add(3299 * time.Second), Armed},
		{"300s left", armedAt(t0, 1), t0.Add(3300 * time.Second), Urgent},
		{"1s left", armedAt(t0, 1), t0.Add(3599 * time.Second), Urgent},
		{"at deadline", armedAt(t0, 1), t0.Add(time.Hour), AlertFired},
		{"long past deadline", armedAt(t0, 1), t0.Add(48 * time.Hour), AlertFired},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Evaluate(tt.state, tt.now, urgent)
			assert.Equal(t, tt.want, got, "got %s", got)
			assert.Equal(t, got, Evaluate(tt.state, tt.now, urgent), "evaluation must be idempotent")
		})
	}
}

func TestEvaluate_Total(t *testing.T) {
	last := t0
	users := []*models.User{nil, {Name: "Ann"}}
	contactSets := [][]models.Contact{nil, {{Name: "x"}}, {bob}}
	checkIns := []*time.Time{nil, &last}
	offsets := []time.Duration{0, 3300 * time.Second, 2 * time.Hour}

	for _, u := range users {
		for _, cs := range contactSets {
			for _, ci := range checkIns {
				for _, hours := range []int{0, 1} {
					for _, complete := range []bool{false, true} {
						for _, welcome := range []bool{false, true} {
							for _, off := range offsets {
								s := &models.AppState{
									User: u, Contacts: cs, LastCheckIn: ci, PeriodHours: hours,
									SetupComplete: complete, HasSeenWelcome: welcome,
								}
								p := Evaluate(s, t0.Add(off), DefaultUrgentThreshold)
								assert.NotEqual(t, "unknown", p.String())
								if p.IsArmed() {
									assert.True(t, s.IsArmable(), "armed phase %s reported for non-armable state %+v", p, s)
								}
							}
						}
					}
				}
			}
		}
	}
}

func TestPhaseString(t *testing.T) {
	assert.Equal(t, "alert-fired", AlertFired.String())
	assert.Equal(t, "unknown", Phase(42).String())
	assert.True(t, Urgent.IsArmed())
	assert.False(t, CollectingPeriod.IsArmed())
}
