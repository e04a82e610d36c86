// Package dispatch delivers the missed-check-in alert to emergency contacts.
//
// A Fanout hands one Alert to every configured Composer (email, SMS, MQTT or
// plain mailto:/sms: URIs) and reports per-channel results in an Outcome.
// Nothing is retried; what to do with a failed channel is decided by a
// FailurePolicy.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrijs2005/safecheck/internal/common"
	"github.com/dmitrijs2005/safecheck/internal/logging"
	"github.com/dmitrijs2005/safecheck/internal/models"
)

// Message is the fixed alert text.
type Message struct {
	Subject string
	Body    string
}

var DefaultMessage = Message{
	Subject: "Emergency Alert",
	Body:    "The user has not checked in as scheduled.",
}

// Alert is one dispatch: an ID shared by all channels, the text and the full
// contact list. Composers pick their own recipients from Contacts.
type Alert struct {
	ID       string
	At       time.Time
	Message  Message
	Contacts []models.Contact
}

// Composer delivers an Alert over a single channel and reports how many
// recipients it addressed. Zero recipients with a nil error means the
// channel had nobody to notify.
type Composer interface {
	Channel() string
	Send(ctx context.Context, a Alert) (int, error)
}

type ChannelResult struct {
	Channel    string
	Recipients int
	Err        error
}

type Outcome struct {
	AlertID string
	At      time.Time
	Results []ChannelResult
}

// Err joins the failed channels into one error wrapping common.ErrDispatch,
// or returns nil when every channel succeeded.
func (o Outcome) Err() error {
	var errs []error
	for _, r := range o.Results {
		if r.Err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", r.Channel, r.Err))
		}
	}
	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", common.ErrDispatch, errors.Join(errs...))
}

// Delivered reports whether at least one channel reached somebody.
func (o Outcome) Delivered() bool {
	for _, r := range o.Results {
		if r.Err == nil && r.Recipients > 0 {
			return true
		}
	}
	return false
}

// Dispatcher is what the engine calls on breach.
type Dispatcher interface {
	Notify(ctx context.Context, contacts []models.Contact) Outcome
}

type Fanout struct {
	composers []Composer
	msg       Message
	log       logging.Logger
	now       func() time.Time
	newID     func() string
}

func NewFanout(l logging.Logger, msg Message, composers ...Composer) *Fanout {
	return &Fanout{
		composers: composers,
		msg:       msg,
		log:       l.With("module", "dispatch"),
		now:       time.Now,
		newID:     uuid.NewString,
	}
}

// Notify sends the alert through every composer in order. A failing channel
// does not stop the others.
func (f *Fanout) Notify(ctx context.Context, contacts []models.Contact) Outcome {
	a := Alert{
		ID:       f.newID(),
		At:       f.now(),
		Message:  f.msg,
		Contacts: contacts,
	}
	out := Outcome{AlertID: a.ID, At: a.At}

	for _, c := range f.composers {
		n, err := c.Send(ctx, a)
		out.Results = append(out.Results, ChannelResult{Channel: c.Channel(), Recipients: n, Err: err})
		if err != nil {
			f.log.Debug(ctx, "channel failed", "alert_id", a.ID, "channel", c.Channel(), "error", err)
			continue
		}
		f.log.Info(ctx, "alert sent", "alert_id", a.ID, "channel", c.Channel(), "recipients", n)
	}
	return out
}

// Emails returns the non-blank, trimmed email addresses of contacts. The
// format is not checked here; a contact counts as reachable as soon as it
// has an address at all.
func Emails(contacts []models.Contact) []string {
	var out []string
	for _, c := range contacts {
		if e := strings.TrimSpace(c.Email); e != "" {
			out = append(out, e)
		}
	}
	return out
}

// Phones returns the non-blank, trimmed phone numbers of contacts.
func Phones(contacts []models.Contact) []string {
	var out []string
	for _, c := range contacts {
		if p := strings.TrimSpace(c.Phone); p != "" {
			out = append(out, p)
		}
	}
	return out
}
