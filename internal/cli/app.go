package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"sync"

	"golang.org/x/term"

	"github.com/dmitrijs2005/safecheck/internal/clock"
	"github.com/dmitrijs2005/safecheck/internal/dispatch"
	"github.com/dmitrijs2005/safecheck/internal/engine"
	"github.com/dmitrijs2005/safecheck/internal/logging"
	"github.com/dmitrijs2005/safecheck/internal/models"
)

// Engine is what the CLI needs from *engine.Machine.
type Engine interface {
	AcknowledgeWelcome(ctx context.Context) error
	CompleteIdentity(ctx context.Context, u models.User) error
	SetContacts(ctx context.Context, contacts []models.Contact) error
	SetPeriod(ctx context.Context, hours int) error
	CheckIn(ctx context.Context) error
	DismissAlert(ctx context.Context) error
	UpdateSettings(ctx context.Context, contacts []models.Contact, hours int) error
	Reset(ctx context.Context) error
	Snapshot() engine.Snapshot
	Subscribe(fn func(engine.Snapshot)) func()
}

// isTerminal is a test seam for term.IsTerminal.
var isTerminal = term.IsTerminal

type App struct {
	engine Engine
	log    logging.Logger
	clock  clock.Clock
	reader *bufio.Reader
	out    io.Writer
	color  bool

	defaultPeriod int

	mu        sync.Mutex
	lastPhase engine.Phase
}

// NewApp wires the REPL to an engine. Colour output is enabled only when
// stdout is a terminal.
func NewApp(e Engine, l logging.Logger, c clock.Clock) *App {
	return &App{
		engine: e,
		log:    l.With("module", "cli"),
		clock:  c,
		reader: bufio.NewReader(os.Stdin),
		out:    os.Stdout,
		color:  isTerminal(int(os.Stdout.Fd())),
	}
}

// WithDefaultPeriod sets the interval suggested during onboarding.
func (a *App) WithDefaultPeriod(hours int) *App {
	a.defaultPeriod = hours
	return a
}

// Run prints the current state and blocks in the REPL until the user exits
// or input ends.
func (a *App) Run(ctx context.Context) {
	fmt.Fprintln(a.out, "safecheck: personal check-in timer (type 'help' for commands)")

	snap := a.engine.Snapshot()
	a.mu.Lock()
	a.lastPhase = snap.Phase
	a.mu.Unlock()
	fmt.Fprintln(a.out, renderStatus(snap, a.color))

	unsubscribe := a.engine.Subscribe(a.onSnapshot)
	defer unsubscribe()

	runREPL(ctx, a, a.prompt, a.reader)
}

// onSnapshot announces phase changes that happen between commands, such
// as the countdown turning urgent or the alert firing.
func (a *App) onSnapshot(s engine.Snapshot) {
	a.mu.Lock()
	changed := s.Phase != a.lastPhase
	a.lastPhase = s.Phase
	a.mu.Unlock()
	if !changed {
		return
	}

	switch s.Phase {
	case engine.Urgent:
		fmt.Fprintln(a.out, "\n"+paint(a.color, ansiYellow, "Check-in due soon: "+s.Parts.String()+" left. Type 'checkin'."))
	case engine.AlertFired:
		fmt.Fprintln(a.out, "\n"+paint(a.color, ansiRed, "Missed check-in: your emergency contacts have been alerted. Type 'dismiss' once you are safe."))
	}
}

func (a *App) phase() engine.Phase {
	return a.engine.Snapshot().Phase
}

func (a *App) prompt() string {
	return renderPrompt(a.engine.Snapshot())
}

// OpenURI prints a mailto:/sms: link the user can open to alert contacts.
// It is the dispatch opener when no transport is configured.
func (a *App) OpenURI(_ context.Context, uri string) error {
	_, err := fmt.Fprintln(a.out, "Notify your contacts: "+uri)
	return err
}

// DispatchFailed tells the user which alert channels failed. It is chained
// after the configured failure policy.
func (a *App) DispatchFailed(_ context.Context, o dispatch.Outcome) {
	for _, r := range o.Results {
		if r.Err != nil {
			fmt.Fprintln(a.out, paint(a.color, ansiRed, fmt.Sprintf("Alert via %s failed: %v", r.Channel, r.Err)))
		}
	}
	if !o.Delivered() {
		fmt.Fprintln(a.out, paint(a.color, ansiRed, "No contact could be reached. Call someone you trust."))
	}
}
