// Package engine implements the check-in state machine: onboarding, the
// armed countdown, breach detection and alert dispatch.
//
// A Machine is the single owner of AppState. Every mutation and every tick
// runs under one mutex and is evaluated against the injected clock. New state
// is committed in memory only after the store accepted it.
package engine

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/dmitrijs2005/safecheck/internal/clock"
	"github.com/dmitrijs2005/safecheck/internal/common"
	"github.com/dmitrijs2005/safecheck/internal/deadline"
	"github.com/dmitrijs2005/safecheck/internal/dispatch"
	"github.com/dmitrijs2005/safecheck/internal/logging"
	"github.com/dmitrijs2005/safecheck/internal/models"
)

const (
	DefaultUrgentThreshold = 300 * time.Second
	DefaultTickInterval    = time.Second
	defaultStoreTimeout    = 5 * time.Second
	defaultDispatchTimeout = 30 * time.Second
)

// StateStore persists AppState. Load returns (nil, nil) when nothing was
// saved; Save(nil) erases.
type StateStore interface {
	Load(ctx context.Context) (*models.AppState, error)
	Save(ctx context.Context, s *models.AppState) error
}

type Options struct {
	Store      StateStore
	Dispatcher dispatch.Dispatcher
	Clock      clock.Clock
	Logger     logging.Logger

	UrgentThreshold time.Duration
	TickInterval    time.Duration
	StoreTimeout    time.Duration
	DispatchTimeout time.Duration

	// OnDispatchFailure receives outcomes with failed channels. Defaults to
	// dispatch.WarnPolicy.
	OnDispatchFailure dispatch.FailurePolicy
}

// Snapshot is a read-only view of the machine at one instant.
type Snapshot struct {
	At          time.Time
	Phase       Phase
	State       *models.AppState
	Remaining   deadline.Result
	Deadline    time.Time
	HasDeadline bool
	Parts       deadline.Parts
	Tier        deadline.Tier
}

type Machine struct {
	mu    sync.Mutex
	state *models.AppState
	phase Phase

	store      StateStore
	dispatcher dispatch.Dispatcher
	clock      clock.Clock
	log        logging.Logger
	onFailure  dispatch.FailurePolicy

	urgent          time.Duration
	storeTimeout    time.Duration
	dispatchTimeout time.Duration

	ticker *Ticker
	ctx    context.Context
	cancel context.CancelFunc
	closed bool

	subMu  sync.Mutex
	subs   map[int]func(Snapshot)
	nextID int
}

func freshState() *models.AppState {
	return &models.AppState{PeriodHours: models.DefaultPeriodHours}
}

// NewMachine builds a machine in the Welcome phase. Call Restore to load
// persisted state.
func NewMachine(opts Options) *Machine {
	if opts.Clock == nil {
		opts.Clock = clock.System{}
	}
	if opts.Logger == nil {
		opts.Logger = logging.Nop()
	}
	if opts.UrgentThreshold <= 0 {
		opts.UrgentThreshold = DefaultUrgentThreshold
	}
	if opts.TickInterval <= 0 {
		opts.TickInterval = DefaultTickInterval
	}
	if opts.StoreTimeout <= 0 {
		opts.StoreTimeout = defaultStoreTimeout
	}
	if opts.DispatchTimeout <= 0 {
		opts.DispatchTimeout = defaultDispatchTimeout
	}

	l := opts.Logger.With("module", "engine")
	if opts.OnDispatchFailure == nil {
		opts.OnDispatchFailure = dispatch.WarnPolicy(l)
	}

	ctx, cancel := context.WithCancel(context.Background())
	m := &Machine{
		state:           freshState(),
		phase:           Welcome,
		store:           opts.Store,
		dispatcher:      opts.Dispatcher,
		clock:           opts.Clock,
		log:             l,
		onFailure:       opts.OnDispatchFailure,
		urgent:          opts.UrgentThreshold,
		storeTimeout:    opts.StoreTimeout,
		dispatchTimeout: opts.DispatchTimeout,
		ctx:             ctx,
		cancel:          cancel,
		subs:            map[int]func(Snapshot){},
	}
	m.ticker = NewTicker(opts.TickInterval, m.onTick)
	return m
}

// Restore loads persisted state and reconciles it with the clock before
// anything is shown. A deadline that passed while the process was down puts
// the machine straight into AlertFired, dispatching now unless the alert was
// already recorded.
//
// A corrupt record is logged and replaced by a fresh state; the returned
// error still wraps common.ErrCorruptState so callers can tell the user.
func (m *Machine) Restore(ctx context.Context) error {
	m.mu.Lock()

	lctx, cancel := context.WithTimeout(ctx, m.storeTimeout)
	loaded, err := m.store.Load(lctx)
	cancel()

	var loadErr error
	switch {
	case errors.Is(err, common.ErrCorruptState):
		m.log.Warn(ctx, "saved state is corrupt, starting fresh", "error", err)
		loadErr = err
	case err != nil:
		m.mu.Unlock()
		m.log.Error(ctx, "failed to load state", "error", err)
		return fmt.Errorf("restore: %w", err)
	}
	if loaded == nil {
		loaded = freshState()
	}
	m.state = loaded

	now := m.clock.Now()
	m.reevaluateLocked(ctx, now, false)
	m.log.Info(ctx, "state restored", "phase", m.phase)

	snap := m.snapshotLocked(now)
	m.mu.Unlock()
	m.publish(snap)
	return loadErr
}

// AcknowledgeWelcome leaves the Welcome phase.
func (m *Machine) AcknowledgeWelcome(ctx context.Context) error {
	return m.update(ctx, "acknowledge welcome", false, func(cur Phase, _ time.Time, next *models.AppState) error {
		if cur != Welcome {
			return fmt.Errorf("%w: welcome already acknowledged (phase %s)", common.ErrIllegalTransition, cur)
		}
		next.HasSeenWelcome = true
		return nil
	})
}

// CompleteIdentity records the user and restarts onboarding from the
// contact step. The identity cannot be changed once the clock is armed.
func (m *Machine) CompleteIdentity(ctx context.Context, u models.User) error {
	if err := u.Validate(); err != nil {
		return err
	}
	return m.update(ctx, "complete identity", false, func(cur Phase, _ time.Time, next *models.AppState) error {
		if cur.IsArmed() {
			return fmt.Errorf("%w: identity is fixed once armed", common.ErrIllegalTransition)
		}
		user := u
		next.User = &user
		next.HasSeenWelcome = true
		next.Contacts = []models.Contact{}
		next.PeriodHours = models.DefaultPeriodHours
		next.LastCheckIn = nil
		next.SetupComplete = false
		next.AlertDispatchedAt = nil
		return nil
	})
}

func validateContacts(contacts []models.Contact) error {
	if len(contacts) == 0 {
		return fmt.Errorf("%w: at least one contact is required", common.ErrValidation)
	}
	if models.UsableCount(contacts) == 0 {
		return fmt.Errorf("%w: no contact has a name and a phone or valid email", common.ErrValidation)
	}
	return nil
}

func validatePeriod(hours int) error {
	if hours < 1 {
		return fmt.Errorf("%w: period must be at least 1 hour, got %d", common.ErrValidation, hours)
	}
	if hours > deadline.MaxPeriodHours {
		return fmt.Errorf("%w: period of %d hours is too long", common.ErrValidation, hours)
	}
	return nil
}

// SetContacts stores the contact list during onboarding. The list is kept
// as given; only the usable count gates progress.
func (m *Machine) SetContacts(ctx context.Context, contacts []models.Contact) error {
	if err := validateContacts(contacts); err != nil {
		return err
	}
	return m.update(ctx, "set contacts", false, func(cur Phase, _ time.Time, next *models.AppState) error {
		if cur != CollectingContacts && cur != CollectingPeriod {
			return fmt.Errorf("%w: contacts cannot be set in phase %s", common.ErrIllegalTransition, cur)
		}
		next.Contacts = slices.Clone(contacts)
		return nil
	})
}

// SetPeriod finishes onboarding and arms the clock from now.
func (m *Machine) SetPeriod(ctx context.Context, hours int) error {
	if err := validatePeriod(hours); err != nil {
		return err
	}
	return m.update(ctx, "set period", true, func(cur Phase, now time.Time, next *models.AppState) error {
		if cur != CollectingPeriod {
			return fmt.Errorf("%w: period needs a user and a usable contact (phase %s)", common.ErrIllegalTransition, cur)
		}
		next.PeriodHours = hours
		next.LastCheckIn = &now
		next.SetupComplete = true
		next.AlertDispatchedAt = nil
		return nil
	})
}

// CheckIn restarts the countdown. It also dismisses a fired alert.
func (m *Machine) CheckIn(ctx context.Context) error {
	return m.update(ctx, "check in", true, func(cur Phase, now time.Time, next *models.AppState) error {
		if !cur.IsArmed() {
			return fmt.Errorf("%w: phase %s", common.ErrNotArmed, cur)
		}
		next.LastCheckIn = &now
		next.AlertDispatchedAt = nil
		return nil
	})
}

// DismissAlert is CheckIn.
func (m *Machine) DismissAlert(ctx context.Context) error {
	return m.CheckIn(ctx)
}

// UpdateSettings replaces contacts and period of an armed setup and re-arms
// from now.
func (m *Machine) UpdateSettings(ctx context.Context, contacts []models.Contact, hours int) error {
	if err := validateContacts(contacts); err != nil {
		return err
	}
	if err := validatePeriod(hours); err != nil {
		return err
	}
	return m.update(ctx, "update settings", true, func(cur Phase, now time.Time, next *models.AppState) error {
		if !cur.IsArmed() {
			return fmt.Errorf("%w: phase %s", common.ErrNotArmed, cur)
		}
		next.Contacts = slices.Clone(contacts)
		next.PeriodHours = hours
		next.LastCheckIn = &now
		next.AlertDispatchedAt = nil
		return nil
	})
}

// Reset erases everything and returns to Welcome.
func (m *Machine) Reset(ctx context.Context) error {
	m.mu.Lock()

	if err := m.saveLocked(ctx, nil); err != nil {
		m.mu.Unlock()
		m.log.Error(ctx, "reset failed", "error", err)
		return err
	}
	m.ticker.Stop()
	m.state = freshState()
	now := m.clock.Now()
	m.phase = Evaluate(m.state, now, m.urgent)
	m.log.Info(ctx, "state reset")

	snap := m.snapshotLocked(now)
	m.mu.Unlock()
	m.publish(snap)
	return nil
}

// Snapshot evaluates the current state against the clock. It has no side
// effects; breaches are acted on by the ticker.
func (m *Machine) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshotLocked(m.clock.Now())
}

// Subscribe registers fn to receive a snapshot after every transition and
// every armed tick. fn runs outside the machine lock and may call back into
// the machine. The returned func unregisters fn.
func (m *Machine) Subscribe(fn func(Snapshot)) func() {
	m.subMu.Lock()
	defer m.subMu.Unlock()

	id := m.nextID
	m.nextID++
	m.subs[id] = fn
	return func() {
		m.subMu.Lock()
		defer m.subMu.Unlock()
		delete(m.subs, id)
	}
}

// Tick runs one evaluation step immediately and returns the resulting phase.
func (m *Machine) Tick(ctx context.Context) Phase {
	m.mu.Lock()
	now := m.clock.Now()
	m.tickLocked(ctx, now)
	phase := m.phase
	snap := m.snapshotLocked(now)
	m.mu.Unlock()

	m.publish(snap)
	return phase
}

// Close stops the ticker and waits for it. Further operations still work
// but no longer tick.
func (m *Machine) Close() {
	m.mu.Lock()
	m.closed = true
	m.cancel()
	m.ticker.Stop()
	m.mu.Unlock()

	m.ticker.Wait()
}

// onTick is the ticker's step.
func (m *Machine) onTick(ctx context.Context) bool {
	m.mu.Lock()
	if ctx.Err() != nil {
		// stopped while this tick was waiting for the lock
		m.mu.Unlock()
		return false
	}
	now := m.clock.Now()
	keep := m.tickLocked(ctx, now)
	snap := m.snapshotLocked(now)
	m.mu.Unlock()

	m.publish(snap)
	return keep
}

// tickLocked re-evaluates the phase and fires the alert on breach. It
// reports whether the countdown should keep running.
func (m *Machine) tickLocked(ctx context.Context, now time.Time) bool {
	prev := m.phase
	m.phase = Evaluate(m.state, now, m.urgent)
	if m.phase != prev {
		m.log.Debug(ctx, "phase changed", "from", prev, "to", m.phase)
	}

	switch m.phase {
	case Armed, Urgent:
		return true
	case AlertFired:
		if m.state.AlertDispatchedAt == nil {
			m.fireLocked(ctx, now)
		}
	}
	m.ticker.Stop()
	return false
}

// update is the common path of every mutation: guard and prepare on a
// clone, persist, then commit and re-evaluate.
func (m *Machine) update(ctx context.Context, op string, restart bool, prepare func(cur Phase, now time.Time, next *models.AppState) error) error {
	m.mu.Lock()

	now := m.clock.Now()
	cur := Evaluate(m.state, now, m.urgent)
	next := m.state.Clone()
	if err := prepare(cur, now, next); err != nil {
		m.mu.Unlock()
		return err
	}
	if err := m.saveLocked(ctx, next); err != nil {
		m.mu.Unlock()
		m.log.Error(ctx, "state not saved", "op", op, "error", err)
		return err
	}

	m.state = next
	m.reevaluateLocked(ctx, now, restart)
	m.log.Info(ctx, op, "phase", m.phase)

	snap := m.snapshotLocked(now)
	m.mu.Unlock()
	m.publish(snap)
	return nil
}

// reevaluateLocked sets the phase for the committed state and aligns the
// ticker with it.
func (m *Machine) reevaluateLocked(ctx context.Context, now time.Time, restart bool) {
	m.phase = Evaluate(m.state, now, m.urgent)

	switch m.phase {
	case Armed, Urgent:
		if m.closed {
			return
		}
		if restart || !m.ticker.Running() {
			m.ticker.Start(m.ctx)
		}
	case AlertFired:
		m.ticker.Stop()
		if m.state.AlertDispatchedAt == nil {
			m.fireLocked(ctx, now)
		}
	default:
		m.ticker.Stop()
	}
}

// fireLocked dispatches the alert once and records it. The record is kept
// in memory even if it cannot be saved, so this process never fires twice
// for the same breach.
func (m *Machine) fireLocked(ctx context.Context, now time.Time) {
	contacts := slices.Clone(m.state.Contacts)
	m.log.Warn(ctx, "check-in deadline missed, dispatching alert", "contacts", len(contacts))

	if m.dispatcher != nil {
		dctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), m.dispatchTimeout)
		out := m.dispatcher.Notify(dctx, contacts)
		cancel()

		if out.Err() != nil {
			m.onFailure(ctx, out)
		} else {
			m.log.Info(ctx, "alert dispatched", "alert_id", out.AlertID)
		}
	}

	next := m.state.Clone()
	next.AlertDispatchedAt = &now
	if err := m.saveLocked(ctx, next); err != nil {
		m.log.Error(ctx, "fired alert not recorded in store", "error", err)
	}
	m.state = next
}

func (m *Machine) saveLocked(ctx context.Context, s *models.AppState) error {
	sctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), m.storeTimeout)
	defer cancel()

	if err := m.store.Save(sctx, s); err != nil {
		if errors.Is(err, common.ErrPersistence) {
			return err
		}
		return fmt.Errorf("%w: %w", common.ErrPersistence, err)
	}
	return nil
}

func (m *Machine) snapshotLocked(now time.Time) Snapshot {
	s := Snapshot{
		At:    now,
		Phase: Evaluate(m.state, now, m.urgent),
		State: m.state.Clone(),
	}
	if s.Phase.IsArmed() {
		s.Remaining = deadline.Remaining(now, m.state.LastCheckIn, m.state.PeriodHours)
		s.Deadline, s.HasDeadline = m.state.Deadline()
		s.Parts = deadline.Decompose(s.Remaining.Seconds)
		s.Tier = deadline.TierFor(s.Remaining.Seconds)
	}
	return s
}

func (m *Machine) publish(s Snapshot) {
	m.subMu.Lock()
	subs := make([]func(Snapshot), 0, len(m.subs))
	for _, fn := range m.subs {
		subs = append(subs, fn)
	}
	m.subMu.Unlock()

	for _, fn := range subs {
		fn(s)
	}
}
