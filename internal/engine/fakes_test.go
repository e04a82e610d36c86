package engine

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/safecheck/internal/clock"
	"github.com/dmitrijs2005/safecheck/internal/dispatch"
	"github.com/dmitrijs2005/safecheck/internal/models"
)

var t0 = time.Date(2026, 6, 1, 8, 0, 0, 0, time.UTC)

type fakeStore struct {
	mu      sync.Mutex
	state   *models.AppState
	saves   int
	loadErr error
	saveErr error
}

func (f *fakeStore) Load(context.Context) (*models.AppState, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state.Clone(), f.loadErr
}

func (f *fakeStore) Save(_ context.Context, s *models.AppState) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.saveErr != nil {
		return f.saveErr
	}
	f.saves++
	f.state = s.Clone()
	return nil
}

func (f *fakeStore) saved() *models.AppState {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state.Clone()
}

func (f *fakeStore) setSaveErr(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.saveErr = err
}

type fakeDispatcher struct {
	mu    sync.Mutex
	calls [][]models.Contact
	out   dispatch.Outcome
}

func (f *fakeDispatcher) Notify(_ context.Context, contacts []models.Contact) dispatch.Outcome {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, contacts)
	return f.out
}

func (f *fakeDispatcher) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

type harness struct {
	m     *Machine
	clk   *clock.Fake
	store *fakeStore
	disp  *fakeDispatcher
}

// newHarness builds a machine whose background ticker effectively never
// fires, so tests drive it with Tick.
func newHarness(t *testing.T, saved *models.AppState) *harness {
	t.Helper()
	h := &harness{
		clk:   clock.NewFake(t0),
		store: &fakeStore{state: saved},
		disp:  &fakeDispatcher{},
	}
	h.m = NewMachine(Options{
		Store:        h.store,
		Dispatcher:   h.disp,
		Clock:        h.clk,
		TickInterval: time.Hour,
	})
	t.Cleanup(h.m.Close)
	return h
}

var bob = models.Contact{Name: "Bob", Phone: "555-1234"}

func armedAt(last time.Time, hours int) *models.AppState {
	return &models.AppState{
		User:           &models.User{Name: "Ann"},
		Contacts:       []models.Contact{bob},
		PeriodHours:    hours,
		LastCheckIn:    &last,
		SetupComplete:  true,
		HasSeenWelcome: true,
	}
}
